package entity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidTransition is matched by every *InvalidTransitionError.
var ErrInvalidTransition = errors.New("invalid status transition")

// InvalidTransitionError carries the rejected status pair.
type InvalidTransitionError struct {
	From BookingStatus
	To   BookingStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

var allowedTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:    {BookingStatusConfirmed, BookingStatusAssigned, BookingStatusCancelled},
	BookingStatusConfirmed:  {BookingStatusAssigned, BookingStatusCancelled, BookingStatusNoShow},
	BookingStatusAssigned:   {BookingStatusInProgress, BookingStatusCancelled, BookingStatusNoShow},
	BookingStatusInProgress: {BookingStatusCompleted, BookingStatusCancelled},
}

// CanTransition reports whether from -> to is an edge of the lifecycle graph.
// Terminal statuses have no outgoing edges.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the statuses reachable in one step from s.
func AllowedTransitions(s BookingStatus) []BookingStatus {
	next := allowedTransitions[s]
	out := make([]BookingStatus, len(next))
	copy(out, next)
	return out
}

// TransitionInput carries the optional data that may accompany a status change.
type TransitionInput struct {
	Notes string
	// ActualCost is only honoured when completing and when positive.
	ActualCost *decimal.Decimal
}

// TransitionResult is the new status plus every field write implied by it.
// Nil pointers mean "leave unchanged".
type TransitionResult struct {
	From            BookingStatus
	Status          BookingStatus
	StartedAt       *time.Time
	CompletedAt     *time.Time
	TechnicianNotes *string
	CompletionNotes *string
	ActualCost      *decimal.Decimal
	UpdatedAt       time.Time
}

// Transition validates from -> to for the booking and computes the writes.
// It never mutates b.
func Transition(b *Booking, to BookingStatus, in TransitionInput, now time.Time) (*TransitionResult, error) {
	if !CanTransition(b.Status, to) {
		return nil, &InvalidTransitionError{From: b.Status, To: to}
	}

	result := &TransitionResult{
		From:      b.Status,
		Status:    to,
		UpdatedAt: now,
	}

	notes := strings.TrimSpace(in.Notes)

	switch to {
	case BookingStatusInProgress:
		if b.StartedAt == nil {
			startedAt := now
			result.StartedAt = &startedAt
		}
		if notes != "" {
			result.TechnicianNotes = &notes
		}
	case BookingStatusCompleted:
		if b.CompletedAt == nil {
			completedAt := now
			result.CompletedAt = &completedAt
		}
		if notes != "" {
			result.CompletionNotes = &notes
		}
		switch {
		case in.ActualCost != nil && in.ActualCost.IsPositive():
			cost := *in.ActualCost
			result.ActualCost = &cost
		case b.ActualCost == nil:
			cost := b.EstimatedCost
			result.ActualCost = &cost
		}
	case BookingStatusCancelled:
		if notes != "" {
			result.TechnicianNotes = &notes
		}
	}

	return result, nil
}

// Apply writes the result onto the booking.
func (r *TransitionResult) Apply(b *Booking) {
	b.Status = r.Status
	b.UpdatedAt = r.UpdatedAt
	if r.StartedAt != nil {
		b.StartedAt = r.StartedAt
	}
	if r.CompletedAt != nil {
		b.CompletedAt = r.CompletedAt
	}
	if r.TechnicianNotes != nil {
		b.TechnicianNotes = *r.TechnicianNotes
	}
	if r.CompletionNotes != nil {
		b.CompletionNotes = *r.CompletionNotes
	}
	if r.ActualCost != nil {
		b.ActualCost = r.ActualCost
	}
}
