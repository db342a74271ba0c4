package service

import (
	"context"

	"workshop-scheduler/internal/domain/entity"
	"workshop-scheduler/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AuditService records booking mutations inside the caller's transaction, so
// an audit row exists exactly when the change it describes was committed.
type AuditService interface {
	LogCreate(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action string, bookingID uuid.UUID, newValue interface{}) error
	LogUpdate(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action string, bookingID uuid.UUID, oldValue, newValue interface{}) error
	LogDelete(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action string, bookingID uuid.UUID, oldValue interface{}) error
}

type auditService struct {
	log       *logrus.Logger
	auditRepo repository.AuditLogRepository
}

func NewAuditService(log *logrus.Logger, auditRepo repository.AuditLogRepository) AuditService {
	return &auditService{
		log:       log,
		auditRepo: auditRepo,
	}
}

// LogCreate logs a create action
func (s *auditService) LogCreate(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action string, bookingID uuid.UUID, newValue interface{}) error {
	return s.write(tx, userID, action, bookingID, nil, newValue)
}

// LogUpdate logs an update action with old and new values
func (s *auditService) LogUpdate(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action string, bookingID uuid.UUID, oldValue, newValue interface{}) error {
	return s.write(tx, userID, action, bookingID, oldValue, newValue)
}

// LogDelete logs a delete action with old value
func (s *auditService) LogDelete(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, action string, bookingID uuid.UUID, oldValue interface{}) error {
	return s.write(tx, userID, action, bookingID, oldValue, nil)
}

func (s *auditService) write(tx *gorm.DB, userID *uuid.UUID, action string, bookingID uuid.UUID, oldValue, newValue interface{}) error {
	auditLog := &entity.AuditLog{
		UserID:    userID,
		BookingID: &bookingID,
		Action:    action,
		Metadata: entity.JSON{
			"entity":    "booking",
			"entity_id": bookingID.String(),
			"old_value": oldValue,
			"new_value": newValue,
		},
	}

	if err := s.auditRepo.Create(tx, auditLog); err != nil {
		s.log.Warnf("Failed to create audit log for booking %s: %+v", bookingID, err)
		return err
	}

	return nil
}
