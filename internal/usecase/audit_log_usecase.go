package usecase

import (
	"context"
	"errors"

	"workshop-scheduler/internal/converter"
	"workshop-scheduler/internal/delivery/dto"
	"workshop-scheduler/internal/domain/entity"
	"workshop-scheduler/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrAuditLogNotFound = errors.New("audit log not found")
)

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

type AuditLogUsecase interface {
	GetAuditLogs(ctx context.Context, req *dto.AuditLogQuery) (*dto.AuditLogListResponse, error)
	GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error)
	// GetBookingHistory returns the full trail of one booking, newest first.
	GetBookingHistory(ctx context.Context, bookingID uuid.UUID) (*dto.AuditLogListResponse, error)
}

type auditLogUsecase struct {
	transactor   repository.Transactor
	log          *logrus.Logger
	auditLogRepo repository.AuditLogRepository
}

func NewAuditLogUsecase(
	transactor repository.Transactor,
	log *logrus.Logger,
	auditLogRepo repository.AuditLogRepository,
) AuditLogUsecase {
	return &auditLogUsecase{
		transactor:   transactor,
		log:          log,
		auditLogRepo: auditLogRepo,
	}
}

func (u *auditLogUsecase) GetAuditLogs(ctx context.Context, req *dto.AuditLogQuery) (*dto.AuditLogListResponse, error) {
	page := 1
	filter := entity.AuditLogFilter{Limit: defaultAuditPageSize}
	if req != nil {
		filter.BookingID = req.BookingID
		filter.UserID = req.UserID
		filter.Action = req.Action
		if req.Limit > 0 {
			filter.Limit = min(req.Limit, maxAuditPageSize)
		}
		page = max(req.Page, 1)
	}
	filter.Offset = (page - 1) * filter.Limit

	list, err := u.list(ctx, filter)
	if err != nil {
		return nil, err
	}
	list.Page = page
	return list, nil
}

func (u *auditLogUsecase) GetAuditLog(ctx context.Context, id int64) (*dto.AuditLogResponse, error) {
	auditLog, err := u.auditLogRepo.FindByID(u.transactor.Conn(ctx), id)
	if err != nil {
		u.log.Warnf("Failed to find audit log %d: %+v", id, err)
		return nil, err
	}
	if auditLog == nil {
		return nil, ErrAuditLogNotFound
	}

	return converter.AuditLogToResponse(auditLog), nil
}

func (u *auditLogUsecase) GetBookingHistory(ctx context.Context, bookingID uuid.UUID) (*dto.AuditLogListResponse, error) {
	return u.list(ctx, entity.AuditLogFilter{BookingID: &bookingID})
}

func (u *auditLogUsecase) list(ctx context.Context, filter entity.AuditLogFilter) (*dto.AuditLogListResponse, error) {
	logs, total, err := u.auditLogRepo.FindAll(u.transactor.Conn(ctx), filter)
	if err != nil {
		u.log.Warnf("Failed to find audit logs: %+v", err)
		return nil, err
	}

	return &dto.AuditLogListResponse{
		Logs:  converter.AuditLogsToResponses(logs),
		Total: total,
		Limit: filter.Limit,
	}, nil
}
