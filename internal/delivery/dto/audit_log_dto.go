package dto

import (
	"time"

	"workshop-scheduler/internal/domain/entity"

	"github.com/google/uuid"
)

// AuditLogQuery is parsed from the query string of the audit log listing.
type AuditLogQuery struct {
	BookingID *uuid.UUID
	UserID    *uuid.UUID
	Action    string
	Page      int
	Limit     int
}

type AuditLogResponse struct {
	ID        int64         `json:"id"`
	User      *UserResponse `json:"user,omitempty"`
	BookingID *uuid.UUID    `json:"booking_id,omitempty"`
	Action    string        `json:"action"`
	Metadata  entity.JSON   `json:"metadata"`
	CreatedAt time.Time     `json:"created_at"`
}

type AuditLogListResponse struct {
	Logs  []AuditLogResponse `json:"logs"`
	Total int64              `json:"total"`
	Page  int                `json:"page,omitempty"`
	Limit int                `json:"limit,omitempty"`
}

// TotalPages is zero when the list is not paginated.
func (r *AuditLogListResponse) TotalPages() int {
	if r.Limit <= 0 {
		return 0
	}
	return int((r.Total + int64(r.Limit) - 1) / int64(r.Limit))
}
