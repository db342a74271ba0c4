package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"workshop-scheduler/internal/converter"
	"workshop-scheduler/internal/delivery/dto"
	"workshop-scheduler/internal/domain/entity"
	"workshop-scheduler/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var ErrInvalidView = errors.New("unknown booking view")

// Operational booking views.
const (
	ViewToday    = "today"
	ViewUpcoming = "upcoming"
	ViewOverdue  = "overdue"
	ViewPending  = "pending"
	ViewActive   = "active"
	ViewRecent   = "recent"
)

// recentWindow is how far back the "recent" view looks.
const recentWindow = 7 * 24 * time.Hour

type BookingQueryUsecase interface {
	GetMyBookings(ctx context.Context) (*dto.BookingListResponse, error)
	GetMyAssignedBookings(ctx context.Context) (*dto.BookingListResponse, error)
	GetTechnicianBookings(ctx context.Context, technicianID uuid.UUID) (*dto.BookingListResponse, error)
	GetBookingsByStatus(ctx context.Context, status string) (*dto.BookingListResponse, error)
	GetBookingsView(ctx context.Context, view string) (*dto.BookingListResponse, error)
	GetVehicleHistory(ctx context.Context, vehicleNumber string) (*dto.BookingListResponse, error)
	SearchBookings(ctx context.Context, term string) (*dto.BookingListResponse, error)
}

type bookingQueryUsecase struct {
	transactor     repository.Transactor
	log            *logrus.Logger
	bookingRepo    repository.BookingRepository
	technicianRepo repository.TechnicianRepository
	loc            *time.Location
	now            func() time.Time
}

func NewBookingQueryUsecase(
	transactor repository.Transactor,
	log *logrus.Logger,
	bookingRepo repository.BookingRepository,
	technicianRepo repository.TechnicianRepository,
	loc *time.Location,
) BookingQueryUsecase {
	if loc == nil {
		loc = time.UTC
	}
	return &bookingQueryUsecase{
		transactor:     transactor,
		log:            log,
		bookingRepo:    bookingRepo,
		technicianRepo: technicianRepo,
		loc:            loc,
		now:            time.Now,
	}
}

// GetMyBookings returns the customer's bookings, most recent first.
func (u *bookingQueryUsecase) GetMyBookings(ctx context.Context) (*dto.BookingListResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	bookings, err := u.bookingRepo.FindByCustomerID(u.transactor.Conn(ctx), actor.UserID)
	if err != nil {
		u.log.Warnf("Failed to find bookings for customer %s: %+v", actor.UserID, err)
		return nil, err
	}

	return converter.BookingsToListResponse(bookings, u.loc), nil
}

// GetMyAssignedBookings returns the calling technician's work queue.
func (u *bookingQueryUsecase) GetMyAssignedBookings(ctx context.Context) (*dto.BookingListResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.IsTechnician() {
		return nil, ErrForbidden
	}

	return u.technicianBookings(ctx, actor.UserID)
}

func (u *bookingQueryUsecase) GetTechnicianBookings(ctx context.Context, technicianID uuid.UUID) (*dto.BookingListResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.IsStaff() && !(actor.IsTechnician() && actor.UserID == technicianID) {
		return nil, ErrForbidden
	}

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

	return u.technicianBookings(ctx, technicianID)
}

func (u *bookingQueryUsecase) technicianBookings(ctx context.Context, technicianID uuid.UUID) (*dto.BookingListResponse, error) {
	bookings, err := u.bookingRepo.FindByTechnicianID(u.transactor.Conn(ctx), technicianID)
	if err != nil {
		u.log.Warnf("Failed to find bookings for technician %s: %+v", technicianID, err)
		return nil, err
	}
	return converter.BookingsToListResponse(bookings, u.loc), nil
}

func (u *bookingQueryUsecase) GetBookingsByStatus(ctx context.Context, status string) (*dto.BookingListResponse, error) {
	if err := u.requireWorkshop(ctx); err != nil {
		return nil, err
	}

	parsed, ok := entity.ParseBookingStatus(status)
	if !ok {
		return nil, ErrInvalidStatus
	}

	bookings, err := u.bookingRepo.FindByStatus(u.transactor.Conn(ctx), parsed)
	if err != nil {
		u.log.Warnf("Failed to find bookings with status %s: %+v", parsed, err)
		return nil, err
	}
	return converter.BookingsToListResponse(bookings, u.loc), nil
}

// GetBookingsView serves the operational lists. Overdue means scheduled in the
// past and not terminal.
func (u *bookingQueryUsecase) GetBookingsView(ctx context.Context, view string) (*dto.BookingListResponse, error) {
	if err := u.requireWorkshop(ctx); err != nil {
		return nil, err
	}

	db := u.transactor.Conn(ctx)
	now := u.now()

	var (
		bookings []entity.Booking
		err      error
	)
	switch strings.ToLower(strings.TrimSpace(view)) {
	case ViewToday:
		start, end := dayBounds(now, u.loc)
		bookings, err = u.bookingRepo.FindBetween(db, start, end)
	case ViewUpcoming:
		bookings, err = u.bookingRepo.FindUpcoming(db, now)
	case ViewOverdue:
		bookings, err = u.bookingRepo.FindOverdue(db, now)
	case ViewPending:
		bookings, err = u.bookingRepo.FindPending(db)
	case ViewActive:
		bookings, err = u.bookingRepo.FindActive(db)
	case ViewRecent:
		bookings, err = u.bookingRepo.FindCreatedSince(db, now.Add(-recentWindow))
	default:
		return nil, ErrInvalidView
	}
	if err != nil {
		u.log.Warnf("Failed to load %s bookings: %+v", view, err)
		return nil, err
	}

	return converter.BookingsToListResponse(bookings, u.loc), nil
}

// GetVehicleHistory lists every booking of one vehicle, newest first.
func (u *bookingQueryUsecase) GetVehicleHistory(ctx context.Context, vehicleNumber string) (*dto.BookingListResponse, error) {
	if err := u.requireWorkshop(ctx); err != nil {
		return nil, err
	}

	bookings, err := u.bookingRepo.FindByVehicle(u.transactor.Conn(ctx), vehicleNumber)
	if err != nil {
		u.log.Warnf("Failed to find bookings for vehicle %s: %+v", vehicleNumber, err)
		return nil, err
	}
	return converter.BookingsToListResponse(bookings, u.loc), nil
}

// SearchBookings matches vehicle number, service type or customer name.
// Customers only ever see their own bookings.
func (u *bookingQueryUsecase) SearchBookings(ctx context.Context, term string) (*dto.BookingListResponse, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}

	bookings, err := u.bookingRepo.Search(u.transactor.Conn(ctx), term)
	if err != nil {
		u.log.Warnf("Failed to search bookings: %+v", err)
		return nil, err
	}

	if !actor.IsStaff() {
		visible := bookings[:0]
		for _, b := range bookings {
			if actor.CanView(&b) {
				visible = append(visible, b)
			}
		}
		bookings = visible
	}

	return converter.BookingsToListResponse(bookings, u.loc), nil
}

func (u *bookingQueryUsecase) requireWorkshop(ctx context.Context) error {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return err
	}
	if actor.IsCustomer() {
		return ErrForbidden
	}
	return nil
}
