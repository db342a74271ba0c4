package usecase

import (
	"context"
	"time"

	"workshop-scheduler/internal/domain/entity"
	"workshop-scheduler/internal/domain/repository"
	"workshop-scheduler/internal/service"

	"github.com/sirupsen/logrus"
)

// OverdueUsecase runs without an actor: it is driven by the background worker.
type OverdueUsecase interface {
	// SweepOverdue announces every non-terminal booking whose start time has
	// passed and returns how many were found. Statuses are left untouched.
	SweepOverdue(ctx context.Context) (int, error)
}

type overdueUsecase struct {
	transactor  repository.Transactor
	log         *logrus.Logger
	bookingRepo repository.BookingRepository
	publisher   service.EventPublisher
	now         func() time.Time
}

func NewOverdueUsecase(
	transactor repository.Transactor,
	log *logrus.Logger,
	bookingRepo repository.BookingRepository,
	publisher service.EventPublisher,
) OverdueUsecase {
	return &overdueUsecase{
		transactor:  transactor,
		log:         log,
		bookingRepo: bookingRepo,
		publisher:   publisher,
		now:         time.Now,
	}
}

func (u *overdueUsecase) SweepOverdue(ctx context.Context) (int, error) {
	now := u.now()

	bookings, err := u.bookingRepo.FindOverdue(u.transactor.Conn(ctx), now)
	if err != nil {
		u.log.Warnf("Failed to find overdue bookings: %+v", err)
		return 0, err
	}

	for i := range bookings {
		b := &bookings[i]
		u.log.Warnf("Booking overdue: id=%s vehicle=%s status=%s scheduled_at=%s",
			b.ID, b.VehicleNumber, b.Status, b.ScheduledAt.Format(time.RFC3339))

		if err := u.publisher.Publish(ctx, entity.NewBookingEvent(entity.BookingEventOverdue, b, now)); err != nil {
			u.log.Warnf("Failed to publish overdue event for booking %s: %+v", b.ID, err)
		}
	}

	u.log.Infof("Overdue sweep finished: overdue=%d", len(bookings))
	return len(bookings), nil
}
