package entity

import (
	"time"

	"github.com/google/uuid"
)

// Booking event types published after a mutation commits.
const (
	BookingEventCreated       = "booking.created"
	BookingEventUpdated       = "booking.updated"
	BookingEventAssigned      = "booking.assigned"
	BookingEventStatusChanged = "booking.status_changed"
	BookingEventDeleted       = "booking.deleted"
	BookingEventOverdue       = "booking.overdue"
)

// BookingEvent is the integration message describing a booking change.
type BookingEvent struct {
	Type           string        `json:"type"`
	BookingID      uuid.UUID     `json:"booking_id"`
	CustomerID     uuid.UUID     `json:"customer_id"`
	TechnicianID   *uuid.UUID    `json:"technician_id,omitempty"`
	VehicleNumber  string        `json:"vehicle_number"`
	Status         BookingStatus `json:"status"`
	PreviousStatus BookingStatus `json:"previous_status,omitempty"`
	ScheduledAt    time.Time     `json:"scheduled_at"`
	OccurredAt     time.Time     `json:"occurred_at"`
}

// NewBookingEvent snapshots the booking into an event of the given type.
func NewBookingEvent(eventType string, b *Booking, occurredAt time.Time) BookingEvent {
	return BookingEvent{
		Type:          eventType,
		BookingID:     b.ID,
		CustomerID:    b.CustomerID,
		TechnicianID:  b.TechnicianID,
		VehicleNumber: b.VehicleNumber,
		Status:        b.Status,
		ScheduledAt:   b.ScheduledAt,
		OccurredAt:    occurredAt,
	}
}
