package usecase

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"workshop-scheduler/config"
	"workshop-scheduler/internal/delivery/dto"
	"workshop-scheduler/internal/delivery/http/middleware"
	"workshop-scheduler/internal/domain/entity"
	"workshop-scheduler/internal/repository/inmemory"
	"workshop-scheduler/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// fixedNow is Sunday 2030-03-10 12:00 UTC; the following Tuesday is 2030-03-12.
var fixedNow = time.Date(2030, 3, 10, 12, 0, 0, 0, time.UTC)

const tuesdayDate = "2030-03-12"

func tuesday(hour, minute int) time.Time {
	return time.Date(2030, 3, 12, hour, minute, 0, 0, time.UTC)
}

func newTestLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.BookingEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event entity.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

func (p *recordingPublisher) last() entity.BookingEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

type fixture struct {
	store     *inmemory.Store
	publisher *recordingPublisher
	bookings  *bookingUsecase
	queries   *bookingQueryUsecase
	detector  service.ConflictDetector

	admin    entity.User
	manager  entity.User
	customer entity.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := inmemory.NewStore()
	log := newTestLogger()

	locker := service.NewLockService(nil, log, config.LockConfig{TTL: 5 * time.Second, WaitTimeout: 5 * time.Second})
	t.Cleanup(locker.Stop)

	detector := service.NewConflictDetector(store.Bookings())
	policy := service.NewAssignmentPolicy(log, store.Technicians(), store.Bookings(), detector)
	audit := service.NewAuditService(log, store.AuditLogRepo())
	publisher := &recordingPublisher{}

	bookings := NewBookingUsecase(
		store.Transactor(), log, store.Bookings(), store.Users(), store.Technicians(),
		detector, policy, audit, locker, publisher, time.UTC,
	).(*bookingUsecase)
	bookings.now = func() time.Time { return fixedNow }

	queries := NewBookingQueryUsecase(store.Transactor(), log, store.Bookings(), store.Technicians(), time.UTC).(*bookingQueryUsecase)
	queries.now = func() time.Time { return fixedNow }

	return &fixture{
		store:     store,
		publisher: publisher,
		bookings:  bookings,
		queries:   queries,
		detector:  detector,
		admin:     store.AddUser("Ada Admin", entity.RoleIDAdmin, true),
		manager:   store.AddUser("Max Manager", entity.RoleIDManager, true),
		customer:  store.AddUser("Carla Customer", entity.RoleIDCustomer, true),
	}
}

func (f *fixture) addTechnician(name string) entity.User {
	return f.store.AddUser(name, entity.RoleIDTechnician, true)
}

func (f *fixture) addCustomer(name string) entity.User {
	return f.store.AddUser(name, entity.RoleIDCustomer, true)
}

// put stores a booking directly, assigned to tech when given.
func (f *fixture) put(vehicle string, at time.Time, status entity.BookingStatus, tech *entity.User) entity.Booking {
	b := entity.Booking{
		CustomerID:               f.customer.ID,
		VehicleNumber:            vehicle,
		ServiceType:              "Oil Change",
		ScheduledAt:              at,
		EstimatedDurationMinutes: 60,
		Status:                   status,
		Priority:                 entity.BookingPriorityMedium,
	}
	if tech != nil {
		id := tech.ID
		b.TechnicianID = &id
	}
	return f.store.PutBooking(b)
}

func (f *fixture) booking(t *testing.T, id uuid.UUID) entity.Booking {
	t.Helper()
	b, ok := f.store.Booking(id)
	if !ok {
		t.Fatalf("booking %s not found", id)
	}
	return b
}

func as(user entity.User) context.Context {
	return middleware.ContextWithActor(context.Background(), entity.Actor{UserID: user.ID, Role: entity.RoleNameForID(user.RoleID)})
}

func createReq(vehicle, date, clock string) *dto.CreateBookingRequest {
	return &dto.CreateBookingRequest{
		VehicleNumber: vehicle,
		ServiceType:   "Oil Change",
		ScheduledDate: date,
		ScheduledTime: clock,
	}
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
