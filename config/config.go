package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Lock      LockConfig
	Broker    BrokerConfig
	Worker    WorkerConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Port           string
	Env            string
	Timezone       string
	LogLevel       string
	AllowedOrigins []string // empty allows any origin
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// JWTConfig holds the shared secret used to verify tokens issued by the
// identity provider.
type JWTConfig struct {
	Secret       string
	Issuer       string // checked when set
	AccessExpiry time.Duration
}

type LockConfig struct {
	TTL         time.Duration
	WaitTimeout time.Duration
}

// BrokerConfig selects where booking events go. Kind is one of
// "rabbitmq", "kafka" or "none".
type BrokerConfig struct {
	Kind     string
	URL      string
	Exchange string
	Brokers  []string
	Topic    string
}

type WorkerConfig struct {
	OverdueCron string
	Concurrency int
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	// TrustProxy honours X-Forwarded-For and X-Real-IP. Enable only behind a
	// proxy that overwrites them.
	TrustProxy bool
}

type TelemetryConfig struct {
	OTLPEndpoint string
	ServiceName  string
}

func LoadConfig() (*Config, error) {
	// .env is optional; real environment variables always win.
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()
	setDefaults()

	lockTTL, err := time.ParseDuration(viper.GetString("LOCK_TTL"))
	if err != nil {
		lockTTL = 15 * time.Second
	}

	lockWait, err := time.ParseDuration(viper.GetString("LOCK_WAIT_TIMEOUT"))
	if err != nil {
		lockWait = 5 * time.Second
	}

	accessExpiry, err := time.ParseDuration(viper.GetString("JWT_ACCESS_EXPIRY"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	config := &Config{
		App: AppConfig{
			Port:     viper.GetString("APP_PORT"),
			Env:      viper.GetString("APP_ENV"),
			Timezone: viper.GetString("APP_TIMEZONE"),
			LogLevel: viper.GetString("LOG_LEVEL"),

			AllowedOrigins: ParseBrokers(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Name:     viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:       viper.GetString("JWT_SECRET"),
			Issuer:       viper.GetString("JWT_ISSUER"),
			AccessExpiry: accessExpiry,
		},
		Lock: LockConfig{
			TTL:         lockTTL,
			WaitTimeout: lockWait,
		},
		Broker: BrokerConfig{
			Kind:     strings.ToLower(viper.GetString("BROKER_KIND")),
			URL:      viper.GetString("RABBITMQ_URL"),
			Exchange: viper.GetString("RABBITMQ_EXCHANGE"),
			Brokers:  ParseBrokers(viper.GetString("KAFKA_BROKERS")),
			Topic:    viper.GetString("KAFKA_TOPIC"),
		},
		Worker: WorkerConfig{
			OverdueCron: viper.GetString("WORKER_OVERDUE_CRON"),
			Concurrency: viper.GetInt("WORKER_CONCURRENCY"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:             viper.GetInt("RATE_LIMIT_BURST"),
			TrustProxy:        viper.GetBool("RATE_LIMIT_TRUST_PROXY"),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: viper.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName:  viper.GetString("OTEL_SERVICE_NAME"),
		},
	}

	return config, nil
}

// Location resolves the workshop's operational timezone, falling back to UTC.
func (c AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_TIMEZONE", "UTC")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("BROKER_KIND", "none")
	viper.SetDefault("RABBITMQ_EXCHANGE", "workshop.bookings")
	viper.SetDefault("KAFKA_TOPIC", "workshop.bookings")
	viper.SetDefault("WORKER_OVERDUE_CRON", "*/15 * * * *")
	viper.SetDefault("WORKER_CONCURRENCY", 5)
	viper.SetDefault("RATE_LIMIT_RPS", 20)
	viper.SetDefault("RATE_LIMIT_BURST", 40)
	viper.SetDefault("RATE_LIMIT_TRUST_PROXY", false)
	viper.SetDefault("OTEL_SERVICE_NAME", "workshop-scheduler")
}

// ParseBrokers splits "host1:9092,host2:9092" into a slice, skipping blanks.
// Other comma-separated settings use it too.
func ParseBrokers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
