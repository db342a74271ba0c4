package service

import (
	"context"
	"fmt"
	"time"

	"workshop-scheduler/internal/domain/entity"
	"workshop-scheduler/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConflictDetector finds bookings that would double-book a technician.
type ConflictDetector interface {
	// Conflicts returns the technician's non-terminal bookings overlapping
	// [start, end), minus excludeBookingID when set.
	Conflicts(ctx context.Context, db *gorm.DB, technicianID uuid.UUID, start, end time.Time, excludeBookingID *uuid.UUID) ([]entity.Booking, error)
	HasConflict(ctx context.Context, db *gorm.DB, technicianID uuid.UUID, start, end time.Time, excludeBookingID *uuid.UUID) (bool, error)
}

type conflictDetector struct {
	bookingRepo repository.BookingRepository
}

func NewConflictDetector(bookingRepo repository.BookingRepository) ConflictDetector {
	return &conflictDetector{bookingRepo: bookingRepo}
}

func (d *conflictDetector) Conflicts(ctx context.Context, db *gorm.DB, technicianID uuid.UUID, start, end time.Time, excludeBookingID *uuid.UUID) ([]entity.Booking, error) {
	candidates, err := d.bookingRepo.FindForTechnicianInWindow(db, technicianID, start, end)
	if err != nil {
		return nil, fmt.Errorf("find bookings for technician %s: %w", technicianID, err)
	}

	conflicts := make([]entity.Booking, 0, len(candidates))
	for _, b := range candidates {
		if excludeBookingID != nil && b.ID == *excludeBookingID {
			continue
		}
		// The store query is authoritative; this guards hand-rolled repositories.
		if b.Status.IsTerminal() || !b.Overlaps(start, end) {
			continue
		}
		conflicts = append(conflicts, b)
	}
	return conflicts, nil
}

func (d *conflictDetector) HasConflict(ctx context.Context, db *gorm.DB, technicianID uuid.UUID, start, end time.Time, excludeBookingID *uuid.UUID) (bool, error) {
	conflicts, err := d.Conflicts(ctx, db, technicianID, start, end, excludeBookingID)
	if err != nil {
		return false, err
	}
	return len(conflicts) > 0, nil
}
