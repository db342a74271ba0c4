package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Request DTOs

// CreateBookingRequest carries the schedule as separate date (YYYY-MM-DD) and
// time (HH:MM) strings in the workshop's timezone.
type CreateBookingRequest struct {
	// CustomerID lets staff book on behalf of a customer.
	CustomerID               *uuid.UUID       `json:"customer_id,omitempty"`
	VehicleNumber            string           `json:"vehicle_number" validate:"required,max=20,vehicle_number"`
	VehicleMake              string           `json:"vehicle_make" validate:"omitempty,max=50"`
	VehicleModel             string           `json:"vehicle_model" validate:"omitempty,max=50"`
	VehicleYear              *int             `json:"vehicle_year" validate:"omitempty,gte=1900,lte=2100"`
	ServiceType              string           `json:"service_type" validate:"required,max=100"`
	Description              string           `json:"description" validate:"omitempty,max=2000"`
	ScheduledDate            string           `json:"scheduled_date" validate:"required,date"`
	ScheduledTime            string           `json:"scheduled_time" validate:"required,clock"`
	EstimatedDurationMinutes *int             `json:"estimated_duration_minutes" validate:"omitempty,gte=1,lte=1440"`
	EstimatedCost            *decimal.Decimal `json:"estimated_cost"`
	Priority                 string           `json:"priority" validate:"omitempty,oneof=low medium high urgent LOW MEDIUM HIGH URGENT"`
	CustomerNotes            string           `json:"customer_notes" validate:"omitempty,max=2000"`
}

// UpdateBookingRequest is a merge patch: nil fields are left unchanged.
// Rescheduling needs both ScheduledDate and ScheduledTime.
type UpdateBookingRequest struct {
	VehicleMake              *string          `json:"vehicle_make" validate:"omitempty,max=50"`
	VehicleModel             *string          `json:"vehicle_model" validate:"omitempty,max=50"`
	VehicleYear              *int             `json:"vehicle_year" validate:"omitempty,gte=1900,lte=2100"`
	ServiceType              *string          `json:"service_type" validate:"omitempty,min=1,max=100"`
	Description              *string          `json:"description" validate:"omitempty,max=2000"`
	ScheduledDate            *string          `json:"scheduled_date" validate:"omitempty,date"`
	ScheduledTime            *string          `json:"scheduled_time" validate:"omitempty,clock"`
	EstimatedDurationMinutes *int             `json:"estimated_duration_minutes" validate:"omitempty,gte=1,lte=1440"`
	EstimatedCost            *decimal.Decimal `json:"estimated_cost"`
	Priority                 *string          `json:"priority" validate:"omitempty,oneof=low medium high urgent LOW MEDIUM HIGH URGENT"`
	CustomerNotes            *string          `json:"customer_notes" validate:"omitempty,max=2000"`
}

type AssignTechnicianRequest struct {
	TechnicianID string `json:"technician_id" validate:"required,uuid"`
}

type TransitionStatusRequest struct {
	Status     string           `json:"status" validate:"required"`
	Notes      string           `json:"notes" validate:"omitempty,max=2000"`
	ActualCost *decimal.Decimal `json:"actual_cost"`
}

// Response DTOs

// Assignment outcomes reported on creation.
const (
	AssignmentAssigned      = "assigned"
	AssignmentNoneAvailable = "none_available"
)

type BookingResponse struct {
	ID                       uuid.UUID        `json:"id"`
	CustomerID               uuid.UUID        `json:"customer_id"`
	CustomerName             string           `json:"customer_name,omitempty"`
	TechnicianID             *uuid.UUID       `json:"technician_id,omitempty"`
	TechnicianName           string           `json:"technician_name,omitempty"`
	VehicleNumber            string           `json:"vehicle_number"`
	VehicleMake              string           `json:"vehicle_make,omitempty"`
	VehicleModel             string           `json:"vehicle_model,omitempty"`
	VehicleYear              *int             `json:"vehicle_year,omitempty"`
	ServiceType              string           `json:"service_type"`
	Description              string           `json:"description,omitempty"`
	ScheduledAt              time.Time        `json:"scheduled_at"`
	ScheduledDate            string           `json:"scheduled_date"`
	ScheduledTime            string           `json:"scheduled_time"`
	EstimatedDurationMinutes int              `json:"estimated_duration_minutes"`
	EstimatedCost            decimal.Decimal  `json:"estimated_cost"`
	ActualCost               *decimal.Decimal `json:"actual_cost,omitempty"`
	Status                   string           `json:"status"`
	AllowedTransitions       []string         `json:"allowed_transitions"`
	Priority                 string           `json:"priority"`
	CustomerNotes            string           `json:"customer_notes,omitempty"`
	TechnicianNotes          string           `json:"technician_notes,omitempty"`
	CompletionNotes          string           `json:"completion_notes,omitempty"`
	Assignment               string           `json:"assignment,omitempty"`
	CreatedAt                time.Time        `json:"created_at"`
	UpdatedAt                time.Time        `json:"updated_at"`
	StartedAt                *time.Time       `json:"started_at,omitempty"`
	CompletedAt              *time.Time       `json:"completed_at,omitempty"`
}

type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
	Total    int               `json:"total"`
}
