package usecase

import (
	"context"
	"time"

	"workshop-scheduler/internal/converter"
	"workshop-scheduler/internal/delivery/dto"
	"workshop-scheduler/internal/domain/entity"
	"workshop-scheduler/internal/domain/repository"
	"workshop-scheduler/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type TechnicianUsecase interface {
	GetAvailableTechnicians(ctx context.Context) (*dto.TechnicianListResponse, error)
	CheckAvailability(ctx context.Context, technicianID uuid.UUID, date, clock string, durationMinutes int) (*dto.TechnicianAvailabilityResponse, error)
}

type technicianUsecase struct {
	transactor       repository.Transactor
	log              *logrus.Logger
	technicianRepo   repository.TechnicianRepository
	bookingRepo      repository.BookingRepository
	conflictDetector service.ConflictDetector
	loc              *time.Location
}

func NewTechnicianUsecase(
	transactor repository.Transactor,
	log *logrus.Logger,
	technicianRepo repository.TechnicianRepository,
	bookingRepo repository.BookingRepository,
	conflictDetector service.ConflictDetector,
	loc *time.Location,
) TechnicianUsecase {
	if loc == nil {
		loc = time.UTC
	}
	return &technicianUsecase{
		transactor:       transactor,
		log:              log,
		technicianRepo:   technicianRepo,
		bookingRepo:      bookingRepo,
		conflictDetector: conflictDetector,
		loc:              loc,
	}
}

// GetAvailableTechnicians lists active technicians with their current workload.
func (u *technicianUsecase) GetAvailableTechnicians(ctx context.Context) (*dto.TechnicianListResponse, error) {
	db := u.transactor.Conn(ctx)

	technicians, err := u.technicianRepo.FindAllActive(db)
	if err != nil {
		u.log.Warnf("Failed to find active technicians: %+v", err)
		return nil, err
	}

	workload, err := u.bookingRepo.FindTechnicianWorkload(db)
	if err != nil {
		u.log.Warnf("Failed to load technician workload: %+v", err)
		return nil, err
	}

	return &dto.TechnicianListResponse{
		Technicians: converter.TechniciansToResponses(technicians, workload),
		Total:       len(technicians),
	}, nil
}

// CheckAvailability reports whether the technician is free for the window.
func (u *technicianUsecase) CheckAvailability(ctx context.Context, technicianID uuid.UUID, date, clock string, durationMinutes int) (*dto.TechnicianAvailabilityResponse, error) {
	db := u.transactor.Conn(ctx)

	technician, err := u.technicianRepo.FindByID(db, technicianID)
	if err != nil {
		u.log.Warnf("Failed to find technician %s: %+v", technicianID, err)
		return nil, err
	}
	if technician == nil {
		return nil, ErrTechnicianNotFound
	}
	if !technician.IsTechnician() {
		return nil, ErrNotATechnician
	}

	start, err := parseSchedule(date, clock, u.loc)
	if err != nil {
		return nil, err
	}
	if durationMinutes <= 0 {
		durationMinutes = entity.DefaultEstimatedDurationMinutes
	}

	conflicts, err := u.conflictDetector.Conflicts(ctx, db, technicianID, start, start.Add(durationOf(durationMinutes)), nil)
	if err != nil {
		u.log.Warnf("Failed to check conflicts for technician %s: %+v", technicianID, err)
		return nil, err
	}

	return &dto.TechnicianAvailabilityResponse{
		TechnicianID:    technicianID,
		Date:            start.Format(dateLayout),
		Time:            start.Format(clockLayout),
		DurationMinutes: durationMinutes,
		Available:       len(conflicts) == 0 && technician.Active(),
		Conflicts:       converter.BookingsToResponses(conflicts, u.loc),
	}, nil
}
