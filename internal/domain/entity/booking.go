package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusAssigned   BookingStatus = "assigned"
	BookingStatusInProgress BookingStatus = "in_progress"
	BookingStatusCompleted  BookingStatus = "completed"
	BookingStatusCancelled  BookingStatus = "cancelled"
	BookingStatusNoShow     BookingStatus = "no_show"
)

// AllBookingStatuses lists every status in lifecycle order.
var AllBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusAssigned,
	BookingStatusInProgress,
	BookingStatusCompleted,
	BookingStatusCancelled,
	BookingStatusNoShow,
}

// TerminalBookingStatuses are statuses no transition leaves.
var TerminalBookingStatuses = []BookingStatus{
	BookingStatusCompleted,
	BookingStatusCancelled,
	BookingStatusNoShow,
}

// ActiveBookingStatuses are the non-terminal statuses.
var ActiveBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusAssigned,
	BookingStatusInProgress,
}

// ParseBookingStatus accepts either case ("IN_PROGRESS" or "in_progress").
func ParseBookingStatus(s string) (BookingStatus, bool) {
	status := BookingStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllBookingStatuses {
		if status == known {
			return status, true
		}
	}
	return "", false
}

// IsTerminal reports whether no further transitions are allowed.
func (s BookingStatus) IsTerminal() bool {
	for _, t := range TerminalBookingStatuses {
		if s == t {
			return true
		}
	}
	return false
}

// BookingPriority represents how urgently a booking should be handled
type BookingPriority string

const (
	BookingPriorityLow    BookingPriority = "low"
	BookingPriorityMedium BookingPriority = "medium"
	BookingPriorityHigh   BookingPriority = "high"
	BookingPriorityUrgent BookingPriority = "urgent"
)

func ParseBookingPriority(s string) (BookingPriority, bool) {
	switch p := BookingPriority(strings.ToLower(strings.TrimSpace(s))); p {
	case BookingPriorityLow, BookingPriorityMedium, BookingPriorityHigh, BookingPriorityUrgent:
		return p, true
	}
	return "", false
}

const DefaultEstimatedDurationMinutes = 60

// Booking represents a service appointment for one vehicle
type Booking struct {
	ID                       uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	CustomerID               uuid.UUID        `gorm:"type:uuid;not null;index" json:"customer_id"`
	TechnicianID             *uuid.UUID       `gorm:"type:uuid;index" json:"technician_id,omitempty"`
	VehicleNumber            string           `gorm:"type:varchar(20);not null;index" json:"vehicle_number"`
	VehicleMake              string           `gorm:"type:varchar(50)" json:"vehicle_make,omitempty"`
	VehicleModel             string           `gorm:"type:varchar(50)" json:"vehicle_model,omitempty"`
	VehicleYear              *int             `json:"vehicle_year,omitempty"`
	ServiceType              string           `gorm:"type:varchar(100);not null;index" json:"service_type"`
	Description              string           `gorm:"type:text" json:"description,omitempty"`
	ScheduledAt              time.Time        `gorm:"not null;index" json:"scheduled_at"`
	EstimatedDurationMinutes int              `gorm:"not null;default:60" json:"estimated_duration_minutes"`
	EstimatedCost            decimal.Decimal  `gorm:"type:decimal(10,2);not null;default:0" json:"estimated_cost"`
	ActualCost               *decimal.Decimal `gorm:"type:decimal(10,2)" json:"actual_cost,omitempty"`
	Status                   BookingStatus    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	Priority                 BookingPriority  `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	CustomerNotes            string           `gorm:"type:text" json:"customer_notes,omitempty"`
	TechnicianNotes          string           `gorm:"type:text" json:"technician_notes,omitempty"`
	CompletionNotes          string           `gorm:"type:text" json:"completion_notes,omitempty"`
	CreatedAt                time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                time.Time        `gorm:"autoUpdateTime:false" json:"updated_at"`
	StartedAt                *time.Time       `json:"started_at,omitempty"`
	CompletedAt              *time.Time       `json:"completed_at,omitempty"`

	// Relationships
	Customer   *User `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	Technician *User `gorm:"foreignKey:TechnicianID" json:"technician,omitempty"`
}

func (Booking) TableName() string {
	return "bookings"
}

// EndsAt returns the end of the booking's half-open window [ScheduledAt, EndsAt).
func (b *Booking) EndsAt() time.Time {
	return b.ScheduledAt.Add(time.Duration(b.EstimatedDurationMinutes) * time.Minute)
}

// Overlaps reports whether the booking's window intersects [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.ScheduledAt.Before(end) && b.EndsAt().After(start)
}

// IsActive reports whether the booking still occupies its vehicle and technician.
func (b *Booking) IsActive() bool {
	return !b.Status.IsTerminal()
}

// IsPending checks if booking is in pending status
func (b *Booking) IsPending() bool {
	return b.Status == BookingStatusPending
}

// IsOwnedBy checks if the booking belongs to the given customer
func (b *Booking) IsOwnedBy(customerID uuid.UUID) bool {
	return b.CustomerID == customerID
}

// IsAssignedTo checks if the booking is assigned to the given technician
func (b *Booking) IsAssignedTo(technicianID uuid.UUID) bool {
	return b.TechnicianID != nil && *b.TechnicianID == technicianID
}

// CanDelete reports whether the booking may be removed. Work that has started
// or finished is kept for the record.
func (b *Booking) CanDelete() bool {
	return b.Status != BookingStatusInProgress && b.Status != BookingStatusCompleted
}

// AssignTo sets the technician and moves the booking to assigned.
func (b *Booking) AssignTo(technicianID uuid.UUID, now time.Time) {
	id := technicianID
	b.TechnicianID = &id
	b.Status = BookingStatusAssigned
	b.UpdatedAt = now
}

// NormalizeVehicleNumber is the key used for per-vehicle uniqueness and locking.
func NormalizeVehicleNumber(vehicleNumber string) string {
	return strings.ToLower(strings.TrimSpace(vehicleNumber))
}
