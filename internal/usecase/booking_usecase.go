package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"workshop-scheduler/internal/converter"
	"workshop-scheduler/internal/delivery/dto"
	"workshop-scheduler/internal/domain/entity"
	"workshop-scheduler/internal/domain/repository"
	"workshop-scheduler/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrUnauthenticated        = errors.New("authenticated user not found in context")
	ErrForbidden              = errors.New("operation not permitted for this role")
	ErrBookingNotFound        = errors.New("booking not found")
	ErrCustomerNotFound       = errors.New("customer not found")
	ErrTechnicianNotFound     = errors.New("technician not found")
	ErrNotATechnician         = errors.New("user is not a technician")
	ErrTechnicianInactive     = errors.New("technician is not active")
	ErrInvalidDateFormat      = errors.New("invalid date or time format, expected YYYY-MM-DD and HH:MM")
	ErrIncompleteReschedule   = errors.New("rescheduling requires both scheduled_date and scheduled_time")
	ErrPastSchedule           = errors.New("scheduled time must be in the future")
	ErrInvalidEstimatedCost   = errors.New("estimated cost must not be negative")
	ErrInvalidStatus          = errors.New("unknown booking status")
	ErrDuplicateActiveBooking = errors.New("vehicle already has an active booking")
	ErrSchedulingConflict     = errors.New("technician has an overlapping booking")
	ErrDeletionBlocked        = errors.New("booking in progress or completed cannot be deleted")
	ErrBookingNotOwned        = errors.New("booking does not belong to you")
	ErrBookingNotEditable     = errors.New("booking can no longer be changed")
	ErrTechnicianRequired     = errors.New("a technician must be assigned before moving to assigned")
	ErrNoTechnicianAvailable  = errors.New("no technician is available for this time slot")

	// ErrInvalidTransition is matched by every *entity.InvalidTransitionError.
	ErrInvalidTransition = entity.ErrInvalidTransition
)

// publishTimeout bounds best-effort event delivery after commit.
const publishTimeout = 5 * time.Second

type BookingUsecase interface {
	CreateBooking(ctx context.Context, req *dto.CreateBookingRequest) (*dto.BookingResponse, error)
	UpdateBooking(ctx context.Context, bookingID uuid.UUID, req *dto.UpdateBookingRequest) (*dto.BookingResponse, error)
	AssignTechnician(ctx context.Context, bookingID, technicianID uuid.UUID) (*dto.BookingResponse, error)
	AutoAssignTechnician(ctx context.Context, bookingID uuid.UUID) (*dto.BookingResponse, error)
	TransitionStatus(ctx context.Context, bookingID uuid.UUID, req *dto.TransitionStatusRequest) (*dto.BookingResponse, error)
	DeleteBooking(ctx context.Context, bookingID uuid.UUID) error
	GetBooking(ctx context.Context, bookingID uuid.UUID) (*dto.BookingResponse, error)
}

type bookingUsecase struct {
	transactor       repository.Transactor
	log              *logrus.Logger
	bookingRepo      repository.BookingRepository
	userRepo         repository.UserRepository
	technicianRepo   repository.TechnicianRepository
	conflictDetector service.ConflictDetector
	assignmentPolicy service.AssignmentPolicy
	auditService     service.AuditService
	locker           service.Locker
	publisher        service.EventPublisher
	loc              *time.Location
	now              func() time.Time
}

func NewBookingUsecase(
	transactor repository.Transactor,
	log *logrus.Logger,
	bookingRepo repository.BookingRepository,
	userRepo repository.UserRepository,
	technicianRepo repository.TechnicianRepository,
	conflictDetector service.ConflictDetector,
	assignmentPolicy service.AssignmentPolicy,
	auditService service.AuditService,
	locker service.Locker,
	publisher service.EventPublisher,
	loc *time.Location,
) BookingUsecase {
	if loc == nil {
		loc = time.UTC
	}
	return &bookingUsecase{
		transactor:       transactor,
		log:              log,
		bookingRepo:      bookingRepo,
		userRepo:         userRepo,
		technicianRepo:   technicianRepo,
		conflictDetector: conflictDetector,
		assignmentPolicy: assignmentPolicy,
		auditService:     auditService,
		locker:           locker,
		publisher:        publisher,
		loc:              loc,
		now:              time.Now,
	}
}

// CreateBooking validates the request and stores a new booking, assigning the
// least-loaded free technician when one exists.
//
// Flow:
// 1. Resolve customer, parse and validate the schedule
// 2. Lock the vehicle and reject a second active booking
// 3. Reserve a technician (lock + re-check), or leave the booking pending
// 4. Insert booking and audit row in one transaction
// 5. Publish events after commit
func (u *bookingUsecase) CreateBooking(ctx context.Context, req *dto.CreateBookingRequest) (*dto.BookingResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	now := u.now()

	// Step 1: Validate request
	customerID := actor.UserID
	if req.CustomerID != nil && actor.IsStaff() {
		customerID = *req.CustomerID
	}

	customer, err := u.userRepo.FindByID(u.transactor.Conn(ctx), customerID)
	if err != nil {
		u.log.Warnf("Failed to find customer %s: %+v", customerID, err)
		return nil, err
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}

	scheduledAt, err := parseSchedule(req.ScheduledDate, req.ScheduledTime, u.loc)
	if err != nil {
		return nil, err
	}
	if !scheduledAt.After(now) {
		return nil, ErrPastSchedule
	}

	duration := entity.DefaultEstimatedDurationMinutes
	if req.EstimatedDurationMinutes != nil && *req.EstimatedDurationMinutes > 0 {
		duration = *req.EstimatedDurationMinutes
	}

	estimatedCost := decimal.Zero
	if req.EstimatedCost != nil {
		if req.EstimatedCost.IsNegative() {
			return nil, ErrInvalidEstimatedCost
		}
		estimatedCost = *req.EstimatedCost
	}

	priority := entity.BookingPriorityMedium
	if p, ok := entity.ParseBookingPriority(req.Priority); ok {
		priority = p
	}

	vehicleNumber := strings.TrimSpace(req.VehicleNumber)

	// Step 2: Serialize on the vehicle
	releaseVehicle, err := u.locker.Acquire(ctx, service.VehicleLockKey(vehicleNumber))
	if err != nil {
		u.log.Warnf("Failed to lock vehicle %s: %+v", vehicleNumber, err)
		return nil, err
	}
	defer releaseVehicle()

	exists, err := u.bookingRepo.HasActiveBookingForVehicle(u.transactor.Conn(ctx), vehicleNumber)
	if err != nil {
		u.log.Warnf("Failed to check active bookings for vehicle %s: %+v", vehicleNumber, err)
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateActiveBooking
	}

	// Step 3: Auto-assignment
	technician, releaseTechnician, err := u.reserveTechnician(ctx, service.AssignmentRequest{
		ScheduledAt:     scheduledAt,
		DurationMinutes: duration,
	})
	if err != nil {
		return nil, err
	}
	defer releaseTechnician()

	booking := &entity.Booking{
		ID:                       uuid.New(),
		CustomerID:               customerID,
		VehicleNumber:            vehicleNumber,
		VehicleMake:              strings.TrimSpace(req.VehicleMake),
		VehicleModel:             strings.TrimSpace(req.VehicleModel),
		VehicleYear:              req.VehicleYear,
		ServiceType:              strings.TrimSpace(req.ServiceType),
		Description:              req.Description,
		ScheduledAt:              scheduledAt,
		EstimatedDurationMinutes: duration,
		EstimatedCost:            estimatedCost,
		Status:                   entity.BookingStatusPending,
		Priority:                 priority,
		CustomerNotes:            req.CustomerNotes,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	assignment := dto.AssignmentNoneAvailable
	if technician != nil {
		booking.AssignTo(technician.ID, now)
		assignment = dto.AssignmentAssigned
	}

	// Step 4: Persist
	err = u.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if err := u.bookingRepo.Create(tx, booking); err != nil {
			return err
		}
		return u.auditService.LogCreate(ctx, tx, &actor.UserID, entity.AuditActionBookingCreate, booking.ID, bookingSnapshot(booking))
	})
	if err != nil {
		switch {
		case isDuplicateKeyError(err, constraintActiveVehicle):
			return nil, ErrDuplicateActiveBooking
		case isForeignKeyError(err, constraintBookingCustomer):
			return nil, ErrCustomerNotFound
		}
		u.log.Warnf("Failed to create booking for vehicle %s: %+v", vehicleNumber, err)
		return nil, fmt.Errorf("create booking: %w", err)
	}

	// Step 5: Notify
	events := []entity.BookingEvent{entity.NewBookingEvent(entity.BookingEventCreated, booking, now)}
	if technician != nil {
		events = append(events, entity.NewBookingEvent(entity.BookingEventAssigned, booking, now))
	}
	u.publish(ctx, events...)

	u.log.Infof("Booking created: id=%s, vehicle=%s, status=%s, assignment=%s", booking.ID, booking.VehicleNumber, booking.Status, assignment)

	response := u.reload(ctx, booking)
	response.Assignment = assignment
	return response, nil
}

// UpdateBooking applies a merge patch. Rescheduling an assigned booking
// re-checks the technician's calendar; it never reassigns.
func (u *bookingUsecase) UpdateBooking(ctx context.Context, bookingID uuid.UUID, req *dto.UpdateBookingRequest) (*dto.BookingResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if actor.IsTechnician() {
		return nil, ErrForbidden
	}
	now := u.now()

	if (req.ScheduledDate == nil) != (req.ScheduledTime == nil) {
		return nil, ErrIncompleteReschedule
	}
	var newScheduledAt *time.Time
	if req.ScheduledDate != nil {
		t, err := parseSchedule(*req.ScheduledDate, *req.ScheduledTime, u.loc)
		if err != nil {
			return nil, err
		}
		newScheduledAt = &t
	}
	if req.EstimatedCost != nil && req.EstimatedCost.IsNegative() {
		return nil, ErrInvalidEstimatedCost
	}

	releaseBooking, err := u.locker.Acquire(ctx, service.BookingLockKey(bookingID))
	if err != nil {
		u.log.Warnf("Failed to lock booking %s: %+v", bookingID, err)
		return nil, err
	}
	defer releaseBooking()

	// A window change on an assigned booking also locks its technician.
	if newScheduledAt != nil || req.EstimatedDurationMinutes != nil {
		current, err := u.bookingRepo.FindByID(u.transactor.Conn(ctx), bookingID)
		if err != nil {
			u.log.Warnf("Failed to find booking %s: %+v", bookingID, err)
			return nil, err
		}
		if current == nil {
			return nil, ErrBookingNotFound
		}
		if current.TechnicianID != nil {
			releaseTechnician, err := u.locker.Acquire(ctx, service.TechnicianLockKey(*current.TechnicianID))
			if err != nil {
				u.log.Warnf("Failed to lock technician %s: %+v", *current.TechnicianID, err)
				return nil, err
			}
			defer releaseTechnician()
		}
	}

	var booking *entity.Booking
	err = u.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		b, err := u.bookingRepo.FindByIDForUpdate(tx, bookingID)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBookingNotFound
		}
		if actor.IsCustomer() {
			if !b.IsOwnedBy(actor.UserID) {
				return ErrBookingNotOwned
			}
			if !b.IsPending() {
				return ErrBookingNotEditable
			}
		}
		if b.Status.IsTerminal() {
			return ErrBookingNotEditable
		}

		old := bookingSnapshot(b)
		windowChanged := applyBookingPatch(b, req, newScheduledAt)

		if newScheduledAt != nil && !b.ScheduledAt.After(now) {
			return ErrPastSchedule
		}
		if windowChanged && b.TechnicianID != nil {
			conflict, err := u.conflictDetector.HasConflict(ctx, tx, *b.TechnicianID, b.ScheduledAt, b.EndsAt(), &b.ID)
			if err != nil {
				return err
			}
			if conflict {
				return ErrSchedulingConflict
			}
		}

		b.UpdatedAt = now
		if err := u.bookingRepo.Save(tx, b); err != nil {
			return err
		}
		booking = b
		return u.auditService.LogUpdate(ctx, tx, &actor.UserID, entity.AuditActionBookingUpdate, b.ID, old, bookingSnapshot(b))
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		u.log.Warnf("Failed to update booking %s: %+v", bookingID, err)
		return nil, fmt.Errorf("update booking: %w", err)
	}

	u.publish(ctx, entity.NewBookingEvent(entity.BookingEventUpdated, booking, now))
	u.log.Infof("Booking updated: id=%s", booking.ID)

	return u.reload(ctx, booking), nil
}

// AssignTechnician assigns (or reassigns) a specific technician.
func (u *bookingUsecase) AssignTechnician(ctx context.Context, bookingID, technicianID uuid.UUID) (*dto.BookingResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	now := u.now()

	// Step 1: Validate technician
	technician, err := u.technicianRepo.FindByID(u.transactor.Conn(ctx), technicianID)
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
	if !technician.Active() {
		return nil, ErrTechnicianInactive
	}

	// Step 2: booking before technician
	release, err := u.locker.Acquire(ctx, service.BookingLockKey(bookingID), service.TechnicianLockKey(technicianID))
	if err != nil {
		u.log.Warnf("Failed to lock booking %s for assignment: %+v", bookingID, err)
		return nil, err
	}
	defer release()

	// Step 3: Validate and assign
	var booking *entity.Booking
	var previous entity.BookingStatus
	err = u.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		b, err := u.lockAssignable(tx, bookingID)
		if err != nil {
			return err
		}

		conflict, err := u.conflictDetector.HasConflict(ctx, tx, technicianID, b.ScheduledAt, b.EndsAt(), &b.ID)
		if err != nil {
			return err
		}
		if conflict {
			return ErrSchedulingConflict
		}

		old := bookingSnapshot(b)
		previous = b.Status
		b.AssignTo(technicianID, now)
		if err := u.bookingRepo.Save(tx, b); err != nil {
			return err
		}
		booking = b
		return u.auditService.LogUpdate(ctx, tx, &actor.UserID, entity.AuditActionBookingAssign, b.ID, old, bookingSnapshot(b))
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		u.log.Warnf("Failed to assign technician %s to booking %s: %+v", technicianID, bookingID, err)
		return nil, fmt.Errorf("assign technician: %w", err)
	}

	event := entity.NewBookingEvent(entity.BookingEventAssigned, booking, now)
	event.PreviousStatus = previous
	u.publish(ctx, event)
	u.log.Infof("Technician assigned: booking=%s, technician=%s", booking.ID, technicianID)

	return u.reload(ctx, booking), nil
}

// AutoAssignTechnician reassigns through the assignment policy, ignoring the
// booking's own slot when counting conflicts.
func (u *bookingUsecase) AutoAssignTechnician(ctx context.Context, bookingID uuid.UUID) (*dto.BookingResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() {
		return nil, ErrForbidden
	}
	now := u.now()

	releaseBooking, err := u.locker.Acquire(ctx, service.BookingLockKey(bookingID))
	if err != nil {
		u.log.Warnf("Failed to lock booking %s: %+v", bookingID, err)
		return nil, err
	}
	defer releaseBooking()

	current, err := u.bookingRepo.FindByID(u.transactor.Conn(ctx), bookingID)
	if err != nil {
		u.log.Warnf("Failed to find booking %s: %+v", bookingID, err)
		return nil, err
	}
	if current == nil {
		return nil, ErrBookingNotFound
	}
	if err := checkAssignable(current); err != nil {
		return nil, err
	}

	technician, releaseTechnician, err := u.reserveTechnician(ctx, service.AssignmentRequest{
		ScheduledAt:      current.ScheduledAt,
		DurationMinutes:  current.EstimatedDurationMinutes,
		ExcludeBookingID: &current.ID,
	})
	if err != nil {
		return nil, err
	}
	defer releaseTechnician()
	if technician == nil {
		return nil, ErrNoTechnicianAvailable
	}

	var booking *entity.Booking
	var previous entity.BookingStatus
	err = u.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		b, err := u.lockAssignable(tx, bookingID)
		if err != nil {
			return err
		}

		old := bookingSnapshot(b)
		previous = b.Status
		b.AssignTo(technician.ID, now)
		if err := u.bookingRepo.Save(tx, b); err != nil {
			return err
		}
		booking = b
		return u.auditService.LogUpdate(ctx, tx, &actor.UserID, entity.AuditActionBookingAssign, b.ID, old, bookingSnapshot(b))
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		u.log.Warnf("Failed to auto-assign booking %s: %+v", bookingID, err)
		return nil, fmt.Errorf("auto-assign technician: %w", err)
	}

	event := entity.NewBookingEvent(entity.BookingEventAssigned, booking, now)
	event.PreviousStatus = previous
	u.publish(ctx, event)
	u.log.Infof("Technician auto-assigned: booking=%s, technician=%s", booking.ID, technician.ID)

	response := u.reload(ctx, booking)
	response.Assignment = dto.AssignmentAssigned
	return response, nil
}

// TransitionStatus moves the booking along the lifecycle graph.
func (u *bookingUsecase) TransitionStatus(ctx context.Context, bookingID uuid.UUID, req *dto.TransitionStatusRequest) (*dto.BookingResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if actor.IsCustomer() {
		return nil, ErrForbidden
	}
	now := u.now()

	to, ok := entity.ParseBookingStatus(req.Status)
	if !ok {
		return nil, ErrInvalidStatus
	}

	release, err := u.locker.Acquire(ctx, service.BookingLockKey(bookingID))
	if err != nil {
		u.log.Warnf("Failed to lock booking %s: %+v", bookingID, err)
		return nil, err
	}
	defer release()

	var booking *entity.Booking
	var result *entity.TransitionResult
	err = u.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		b, err := u.bookingRepo.FindByIDForUpdate(tx, bookingID)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBookingNotFound
		}
		if actor.IsTechnician() && !b.IsAssignedTo(actor.UserID) {
			return ErrBookingNotOwned
		}

		result, err = entity.Transition(b, to, entity.TransitionInput{Notes: req.Notes, ActualCost: req.ActualCost}, now)
		if err != nil {
			return err
		}
		if to == entity.BookingStatusAssigned && b.TechnicianID == nil {
			return ErrTechnicianRequired
		}

		old := bookingSnapshot(b)
		result.Apply(b)
		if err := u.bookingRepo.Save(tx, b); err != nil {
			return err
		}
		booking = b
		return u.auditService.LogUpdate(ctx, tx, &actor.UserID, entity.AuditActionBookingTransition, b.ID, old, bookingSnapshot(b))
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		u.log.Warnf("Failed to transition booking %s to %s: %+v", bookingID, to, err)
		return nil, fmt.Errorf("transition booking: %w", err)
	}

	event := entity.NewBookingEvent(entity.BookingEventStatusChanged, booking, now)
	event.PreviousStatus = result.From
	u.publish(ctx, event)
	u.log.Infof("Booking status changed: id=%s, from=%s, to=%s", booking.ID, result.From, result.Status)

	return u.reload(ctx, booking), nil
}

// DeleteBooking removes a booking that has not started.
func (u *bookingUsecase) DeleteBooking(ctx context.Context, bookingID uuid.UUID) error {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return err
	}
	if actor.IsTechnician() {
		return ErrForbidden
	}
	now := u.now()

	release, err := u.locker.Acquire(ctx, service.BookingLockKey(bookingID))
	if err != nil {
		u.log.Warnf("Failed to lock booking %s: %+v", bookingID, err)
		return err
	}
	defer release()

	var booking *entity.Booking
	err = u.transactor.WithinTransaction(ctx, func(tx *gorm.DB) error {
		b, err := u.bookingRepo.FindByIDForUpdate(tx, bookingID)
		if err != nil {
			return err
		}
		if b == nil {
			return ErrBookingNotFound
		}
		if actor.IsCustomer() && !b.IsOwnedBy(actor.UserID) {
			return ErrBookingNotOwned
		}
		if !b.CanDelete() {
			return ErrDeletionBlocked
		}
		if actor.IsCustomer() && !b.IsPending() {
			return ErrBookingNotEditable
		}

		if err := u.bookingRepo.Delete(tx, b.ID); err != nil {
			return err
		}
		booking = b
		return u.auditService.LogDelete(ctx, tx, &actor.UserID, entity.AuditActionBookingDelete, b.ID, bookingSnapshot(b))
	})
	if err != nil {
		if isDomainError(err) {
			return err
		}
		u.log.Warnf("Failed to delete booking %s: %+v", bookingID, err)
		return fmt.Errorf("delete booking: %w", err)
	}

	u.publish(ctx, entity.NewBookingEvent(entity.BookingEventDeleted, booking, now))
	u.log.Infof("Booking deleted: id=%s", bookingID)
	return nil
}

// GetBooking returns a booking visible to the caller.
func (u *bookingUsecase) GetBooking(ctx context.Context, bookingID uuid.UUID) (*dto.BookingResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	booking, err := u.bookingRepo.FindByID(u.transactor.Conn(ctx), bookingID)
	if err != nil {
		u.log.Warnf("Failed to find booking %s: %+v", bookingID, err)
		return nil, err
	}
	if booking == nil {
		return nil, ErrBookingNotFound
	}
	if !actor.CanView(booking) {
		return nil, ErrBookingNotOwned
	}

	return converter.BookingToResponse(booking, u.loc), nil
}

// reserveTechnician asks the policy for a candidate, locks it and re-checks
// its calendar under the lock. A candidate that lost a race is skipped and the
// policy is consulted again. Returns a nil technician when nobody is free.
func (u *bookingUsecase) reserveTechnician(ctx context.Context, req service.AssignmentRequest) (*entity.Technician, func(), error) {
	noop := func() {}
	start := req.ScheduledAt
	end := start.Add(durationOf(req.DurationMinutes))
	req.Skip = make(map[uuid.UUID]bool)

	for {
		candidate, err := u.assignmentPolicy.SelectTechnician(ctx, u.transactor.Conn(ctx), req)
		if err != nil {
			u.log.Warnf("Failed to select technician: %+v", err)
			return nil, noop, err
		}
		if candidate == nil {
			return nil, noop, nil
		}

		release, err := u.locker.Acquire(ctx, service.TechnicianLockKey(candidate.ID))
		if err != nil {
			u.log.Warnf("Failed to lock technician %s: %+v", candidate.ID, err)
			return nil, noop, err
		}

		conflict, err := u.conflictDetector.HasConflict(ctx, u.transactor.Conn(ctx), candidate.ID, start, end, req.ExcludeBookingID)
		if err != nil {
			release()
			return nil, noop, err
		}
		if !conflict {
			return candidate, release, nil
		}

		release()
		u.log.Debugf("Technician %s taken concurrently, selecting again", candidate.ID)
		req.Skip[candidate.ID] = true
	}
}

// lockAssignable re-reads the booking FOR UPDATE and checks it may move to assigned.
func (u *bookingUsecase) lockAssignable(tx *gorm.DB, bookingID uuid.UUID) (*entity.Booking, error) {
	b, err := u.bookingRepo.FindByIDForUpdate(tx, bookingID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBookingNotFound
	}
	if err := checkAssignable(b); err != nil {
		return nil, err
	}
	return b, nil
}

// checkAssignable allows a first assignment along the lifecycle graph and a
// reassignment of an already assigned booking.
func checkAssignable(b *entity.Booking) error {
	if b.Status == entity.BookingStatusAssigned || entity.CanTransition(b.Status, entity.BookingStatusAssigned) {
		return nil
	}
	return &entity.InvalidTransitionError{From: b.Status, To: entity.BookingStatusAssigned}
}

// reload fetches the booking with its relations for the response.
func (u *bookingUsecase) reload(ctx context.Context, booking *entity.Booking) *dto.BookingResponse {
	full, err := u.bookingRepo.FindByID(u.transactor.Conn(ctx), booking.ID)
	if err != nil || full == nil {
		// Return basic response if reload fails
		u.log.Warnf("Failed to reload booking %s: %+v", booking.ID, err)
		return converter.BookingToResponse(booking, u.loc)
	}
	return converter.BookingToResponse(full, u.loc)
}

func (u *bookingUsecase) publish(ctx context.Context, events ...entity.BookingEvent) {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	for _, event := range events {
		if err := u.publisher.Publish(pubCtx, event); err != nil {
			u.log.Warnf("Failed to publish %s for booking %s: %+v", event.Type, event.BookingID, err)
		}
	}
}

// applyBookingPatch copies the present fields onto b and reports whether its
// time window moved.
func applyBookingPatch(b *entity.Booking, req *dto.UpdateBookingRequest, scheduledAt *time.Time) bool {
	windowChanged := false

	if req.VehicleMake != nil {
		b.VehicleMake = strings.TrimSpace(*req.VehicleMake)
	}
	if req.VehicleModel != nil {
		b.VehicleModel = strings.TrimSpace(*req.VehicleModel)
	}
	if req.VehicleYear != nil {
		year := *req.VehicleYear
		b.VehicleYear = &year
	}
	if req.ServiceType != nil {
		b.ServiceType = strings.TrimSpace(*req.ServiceType)
	}
	if req.Description != nil {
		b.Description = *req.Description
	}
	if scheduledAt != nil && !scheduledAt.Equal(b.ScheduledAt) {
		b.ScheduledAt = *scheduledAt
		windowChanged = true
	}
	if req.EstimatedDurationMinutes != nil && *req.EstimatedDurationMinutes > 0 && *req.EstimatedDurationMinutes != b.EstimatedDurationMinutes {
		b.EstimatedDurationMinutes = *req.EstimatedDurationMinutes
		windowChanged = true
	}
	if req.EstimatedCost != nil {
		b.EstimatedCost = *req.EstimatedCost
	}
	if req.Priority != nil {
		if p, ok := entity.ParseBookingPriority(*req.Priority); ok {
			b.Priority = p
		}
	}
	if req.CustomerNotes != nil {
		b.CustomerNotes = *req.CustomerNotes
	}

	return windowChanged
}

// bookingSnapshot is the audit representation of a booking.
func bookingSnapshot(b *entity.Booking) map[string]interface{} {
	snapshot := map[string]interface{}{
		"status":                     string(b.Status),
		"vehicle_number":             b.VehicleNumber,
		"service_type":               b.ServiceType,
		"scheduled_at":               b.ScheduledAt.UTC().Format(time.RFC3339),
		"estimated_duration_minutes": b.EstimatedDurationMinutes,
		"estimated_cost":             b.EstimatedCost.String(),
		"priority":                   string(b.Priority),
	}
	if b.TechnicianID != nil {
		snapshot["technician_id"] = b.TechnicianID.String()
	}
	if b.ActualCost != nil {
		snapshot["actual_cost"] = b.ActualCost.String()
	}
	return snapshot
}

// isDomainError reports errors that are returned to the caller untouched.
func isDomainError(err error) bool {
	for _, target := range []error{
		ErrBookingNotFound,
		ErrBookingNotOwned,
		ErrBookingNotEditable,
		ErrPastSchedule,
		ErrSchedulingConflict,
		ErrDeletionBlocked,
		ErrTechnicianRequired,
		ErrInvalidTransition,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
