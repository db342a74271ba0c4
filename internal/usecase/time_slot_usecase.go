package usecase

import (
	"context"
	"sort"
	"time"

	"workshop-scheduler/internal/delivery/dto"
	"workshop-scheduler/internal/domain/entity"
	"workshop-scheduler/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const closedDayMessage = "The workshop is closed on this day"

type TimeSlotUsecase interface {
	// GetAvailability lists the slots of a date and which of them already hold a booking.
	GetAvailability(ctx context.Context, date string, excludeBookingID *uuid.UUID) (*dto.AvailabilityResponse, error)
}

type timeSlotUsecase struct {
	transactor  repository.Transactor
	log         *logrus.Logger
	bookingRepo repository.BookingRepository
	loc         *time.Location
}

func NewTimeSlotUsecase(
	transactor repository.Transactor,
	log *logrus.Logger,
	bookingRepo repository.BookingRepository,
	loc *time.Location,
) TimeSlotUsecase {
	if loc == nil {
		loc = time.UTC
	}
	return &timeSlotUsecase{
		transactor:  transactor,
		log:         log,
		bookingRepo: bookingRepo,
		loc:         loc,
	}
}

func (u *timeSlotUsecase) GetAvailability(ctx context.Context, date string, excludeBookingID *uuid.UUID) (*dto.AvailabilityResponse, error) {
	day, err := parseDate(date, u.loc)
	if err != nil {
		return nil, err
	}

	response := &dto.AvailabilityResponse{
		Date:           day.Format(dateLayout),
		BusinessHours:  entity.BusinessHoursFor(day),
		AllSlots:       entity.SlotsFor(day),
		OccupiedSlots:  []string{},
		AvailableSlots: []string{},
	}
	if entity.IsClosed(day) {
		response.Message = closedDayMessage
		return response, nil
	}

	start, end := dayBounds(day, u.loc)
	bookings, err := u.bookingRepo.FindBetween(u.transactor.Conn(ctx), start, end)
	if err != nil {
		u.log.Warnf("Failed to find bookings on %s: %+v", response.Date, err)
		return nil, err
	}

	occupied := make(map[string]bool)
	for _, b := range bookings {
		if b.Status == entity.BookingStatusCancelled {
			continue
		}
		if excludeBookingID != nil && b.ID == *excludeBookingID {
			continue
		}
		occupied[b.ScheduledAt.In(u.loc).Format(clockLayout)] = true
	}

	for slot := range occupied {
		response.OccupiedSlots = append(response.OccupiedSlots, slot)
	}
	sort.Strings(response.OccupiedSlots)

	for _, slot := range response.AllSlots {
		if !occupied[slot] {
			response.AvailableSlots = append(response.AvailableSlots, slot)
		}
	}

	return response, nil
}
