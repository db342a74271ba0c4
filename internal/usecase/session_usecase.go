package usecase

import (
	"context"
	"errors"
	"time"

	"workshop-scheduler/internal/converter"
	"workshop-scheduler/internal/delivery/dto"
	"workshop-scheduler/internal/delivery/http/middleware"
	"workshop-scheduler/internal/domain/repository"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrRevocationOffline = errors.New("token revocation is unavailable")
)

// SessionUsecase covers the identity the core consumes: who is calling, and
// ending that session early. Tokens themselves are issued elsewhere.
type SessionUsecase interface {
	GetCurrentUser(ctx context.Context) (*dto.UserResponse, error)
	Logout(ctx context.Context) error
}

type sessionUsecase struct {
	transactor  repository.Transactor
	log         *logrus.Logger
	userRepo    repository.UserRepository
	redisClient *redis.Client
	tokenTTL    time.Duration
}

func NewSessionUsecase(
	transactor repository.Transactor,
	log *logrus.Logger,
	userRepo repository.UserRepository,
	redisClient *redis.Client,
	tokenTTL time.Duration,
) SessionUsecase {
	return &sessionUsecase{
		transactor:  transactor,
		log:         log,
		userRepo:    userRepo,
		redisClient: redisClient,
		tokenTTL:    tokenTTL,
	}
}

func (u *sessionUsecase) GetCurrentUser(ctx context.Context) (*dto.UserResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.FindByID(u.transactor.Conn(ctx), actor.UserID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return converter.UserToResponse(user), nil
}

// Logout deny-lists the presented token until it would have expired anyway.
func (u *sessionUsecase) Logout(ctx context.Context) error {
	if u.redisClient == nil {
		return ErrRevocationOffline
	}

	tokenID, ok := middleware.GetTokenIDFromContext(ctx)
	if !ok || tokenID == "" {
		return ErrUnauthenticated
	}

	ttl := u.tokenTTL
	if expiry, ok := middleware.GetTokenExpiryFromContext(ctx); ok {
		if remaining := time.Until(expiry); remaining > 0 {
			ttl = remaining
		}
	}

	if err := u.redisClient.Set(ctx, middleware.RevokedTokenKey(tokenID), "revoked", ttl).Err(); err != nil {
		u.log.Warnf("Failed to revoke token %s: %+v", tokenID, err)
		return err
	}

	u.log.Infof("Token revoked: id=%s", tokenID)
	return nil
}
