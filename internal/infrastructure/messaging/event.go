package messaging

import (
	"encoding/json"
	"fmt"

	"workshop-scheduler/config"
	"workshop-scheduler/internal/domain/entity"
	"workshop-scheduler/internal/service"

	"github.com/sirupsen/logrus"
)

const (
	BrokerNone     = "none"
	BrokerRabbitMQ = "rabbitmq"
	BrokerKafka    = "kafka"
)

func encodeEvent(event entity.BookingEvent) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal booking event: %w", err)
	}
	return body, nil
}

// NewEventPublisher picks the broker named by cfg.Kind. An empty kind means none.
func NewEventPublisher(cfg config.BrokerConfig, log *logrus.Logger) (service.EventPublisher, error) {
	switch cfg.Kind {
	case "", BrokerNone:
		log.Info("Booking events disabled: no broker configured")
		return service.NewNoopPublisher(), nil
	case BrokerRabbitMQ:
		publisher, err := NewRabbitMQPublisher(cfg.URL, cfg.Exchange, log)
		if err != nil {
			return nil, err
		}
		return publisher, nil
	case BrokerKafka:
		publisher, err := NewKafkaPublisher(cfg.Brokers, cfg.Topic, log)
		if err != nil {
			return nil, err
		}
		return publisher, nil
	default:
		return nil, fmt.Errorf("unknown broker kind %q", cfg.Kind)
	}
}
