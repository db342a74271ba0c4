package service

import (
	"context"
	"fmt"
	"time"

	"workshop-scheduler/internal/domain/entity"
	"workshop-scheduler/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AssignmentRequest describes the window a technician must be free for.
type AssignmentRequest struct {
	ScheduledAt      time.Time
	DurationMinutes  int
	ExcludeBookingID *uuid.UUID
	// Skip removes candidates the caller already rejected.
	Skip map[uuid.UUID]bool
}

// AssignmentPolicy picks the least-loaded conflict-free technician.
type AssignmentPolicy interface {
	// SelectTechnician returns nil when nobody is available.
	SelectTechnician(ctx context.Context, db *gorm.DB, req AssignmentRequest) (*entity.Technician, error)
}

type assignmentPolicy struct {
	log              *logrus.Logger
	technicianRepo   repository.TechnicianRepository
	bookingRepo      repository.BookingRepository
	conflictDetector ConflictDetector
}

func NewAssignmentPolicy(
	log *logrus.Logger,
	technicianRepo repository.TechnicianRepository,
	bookingRepo repository.BookingRepository,
	conflictDetector ConflictDetector,
) AssignmentPolicy {
	return &assignmentPolicy{
		log:              log,
		technicianRepo:   technicianRepo,
		bookingRepo:      bookingRepo,
		conflictDetector: conflictDetector,
	}
}

// SelectTechnician
//
// Flow:
// 1. Load active technicians in stable order
// 2. Drop anyone with an overlapping non-terminal booking
// 3. Pick the lowest workload (assigned + in progress); ties keep input order
func (p *assignmentPolicy) SelectTechnician(ctx context.Context, db *gorm.DB, req AssignmentRequest) (*entity.Technician, error) {
	// Step 1: Candidates
	technicians, err := p.technicianRepo.FindAllActive(db)
	if err != nil {
		return nil, fmt.Errorf("find active technicians: %w", err)
	}
	if len(technicians) == 0 {
		p.log.Debug("No active technicians registered")
		return nil, nil
	}

	// Step 2: Conflict filter
	start := req.ScheduledAt
	end := start.Add(time.Duration(req.DurationMinutes) * time.Minute)

	available := make([]entity.Technician, 0, len(technicians))
	for _, technician := range technicians {
		if req.Skip[technician.ID] {
			continue
		}
		conflict, err := p.conflictDetector.HasConflict(ctx, db, technician.ID, start, end, req.ExcludeBookingID)
		if err != nil {
			return nil, err
		}
		if !conflict {
			available = append(available, technician)
		}
	}
	if len(available) == 0 {
		p.log.Debugf("No conflict-free technician for window %s - %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
		return nil, nil
	}

	// Step 3: Least loaded, computed fresh for this decision
	workload, err := p.bookingRepo.FindTechnicianWorkload(db)
	if err != nil {
		return nil, fmt.Errorf("find technician workload: %w", err)
	}

	selected := available[0]
	for _, technician := range available[1:] {
		if workload[technician.ID] < workload[selected.ID] {
			selected = technician
		}
	}

	p.log.Debugf("Selected technician %s with workload %d", selected.ID, workload[selected.ID])
	return &selected, nil
}
