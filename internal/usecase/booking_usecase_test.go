package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"workshop-scheduler/internal/delivery/dto"
	"workshop-scheduler/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CreateBooking
// =============================================================================

func TestCreateBooking_AssignsIdleTechnician(t *testing.T) {
	f := newFixture(t)
	tech := f.addTechnician("Tina Tech")

	req := createReq("ABC-123", tuesdayDate, "10:00")
	req.EstimatedDurationMinutes = intPtr(60)

	resp, err := f.bookings.CreateBooking(as(f.customer), req)
	require.NoError(t, err)

	assert.Equal(t, string(entity.BookingStatusAssigned), resp.Status)
	require.NotNil(t, resp.TechnicianID)
	assert.Equal(t, tech.ID, *resp.TechnicianID)
	assert.Equal(t, "Tina Tech", resp.TechnicianName)
	assert.Equal(t, dto.AssignmentAssigned, resp.Assignment)
	assert.Equal(t, tuesdayDate, resp.ScheduledDate)
	assert.Equal(t, "10:00", resp.ScheduledTime)
	assert.True(t, tuesday(10, 0).Equal(resp.ScheduledAt))

	assert.Equal(t, []string{entity.BookingEventCreated, entity.BookingEventAssigned}, f.publisher.types())

	logs := f.store.AuditLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, entity.AuditActionBookingCreate, logs[0].Action)
	assert.Equal(t, resp.ID.String(), logs[0].Metadata["entity_id"])
}

func TestCreateBooking_NoTechnicianLeavesPending(t *testing.T) {
	f := newFixture(t)

	resp, err := f.bookings.CreateBooking(as(f.customer), createReq("ABC-123", tuesdayDate, "10:00"))
	require.NoError(t, err)

	assert.Equal(t, string(entity.BookingStatusPending), resp.Status)
	assert.Nil(t, resp.TechnicianID)
	assert.Equal(t, dto.AssignmentNoneAvailable, resp.Assignment)
	assert.Equal(t, []string{entity.BookingEventCreated}, f.publisher.types())
}

func TestCreateBooking_Defaults(t *testing.T) {
	f := newFixture(t)

	resp, err := f.bookings.CreateBooking(as(f.customer), createReq("ABC-123", tuesdayDate, "10:00"))
	require.NoError(t, err)

	stored := f.booking(t, resp.ID)
	assert.Equal(t, entity.DefaultEstimatedDurationMinutes, stored.EstimatedDurationMinutes)
	assert.Equal(t, entity.BookingPriorityMedium, stored.Priority)
	assert.True(t, stored.EstimatedCost.IsZero())
	assert.Equal(t, f.customer.ID, stored.CustomerID)
	assert.Equal(t, fixedNow, stored.CreatedAt)
}

func TestCreateBooking_DuplicateActiveVehicle(t *testing.T) {
	f := newFixture(t)

	first, err := f.bookings.CreateBooking(as(f.customer), createReq("ABC-123", tuesdayDate, "10:00"))
	require.NoError(t, err)

	// Vehicle numbers compare case-insensitively and ignore surrounding space.
	_, err = f.bookings.CreateBooking(as(f.customer), createReq(" abc-123 ", tuesdayDate, "14:00"))
	assert.ErrorIs(t, err, ErrDuplicateActiveBooking)
	assert.Equal(t, 1, f.store.BookingCount())

	// Once the first booking is terminal the vehicle can be booked again.
	_, err = f.bookings.TransitionStatus(as(f.manager), first.ID, &dto.TransitionStatusRequest{Status: "cancelled"})
	require.NoError(t, err)

	_, err = f.bookings.CreateBooking(as(f.customer), createReq("abc-123", tuesdayDate, "14:00"))
	assert.NoError(t, err)
}

func TestCreateBooking_Validation(t *testing.T) {
	f := newFixture(t)
	negative := decimal.NewFromInt(-5)
	unknown := uuid.New()

	tests := []struct {
		name    string
		ctx     context.Context
		req     *dto.CreateBookingRequest
		wantErr error
	}{
		{"unauthenticated", context.Background(), createReq("V1", tuesdayDate, "10:00"), ErrUnauthenticated},
		{"bad date", as(f.customer), createReq("V1", "2030/03/12", "10:00"), ErrInvalidDateFormat},
		{"bad time", as(f.customer), createReq("V1", tuesdayDate, "25:00"), ErrInvalidDateFormat},
		{"time without minutes", as(f.customer), createReq("V1", tuesdayDate, "10"), ErrInvalidDateFormat},
		{"past", as(f.customer), createReq("V1", "2030-03-10", "11:30"), ErrPastSchedule},
		{"exactly now", as(f.customer), createReq("V1", "2030-03-10", "12:00"), ErrPastSchedule},
		{"negative cost", as(f.customer), func() *dto.CreateBookingRequest {
			r := createReq("V1", tuesdayDate, "10:00")
			r.EstimatedCost = &negative
			return r
		}(), ErrInvalidEstimatedCost},
		{"unknown customer", as(f.manager), func() *dto.CreateBookingRequest {
			r := createReq("V1", tuesdayDate, "10:00")
			r.CustomerID = &unknown
			return r
		}(), ErrCustomerNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.bookings.CreateBooking(tt.ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Equal(t, 0, f.store.BookingCount())
	assert.Empty(t, f.store.AuditLogs())
	assert.Empty(t, f.publisher.types())
}

func TestCreateBooking_CustomerIDOnlyForStaff(t *testing.T) {
	f := newFixture(t)
	other := f.addCustomer("Oscar Other")

	req := createReq("V1", tuesdayDate, "10:00")
	req.CustomerID = &other.ID
	resp, err := f.bookings.CreateBooking(as(f.manager), req)
	require.NoError(t, err)
	assert.Equal(t, other.ID, resp.CustomerID)

	// A customer cannot book on someone else's behalf.
	req = createReq("V2", tuesdayDate, "10:00")
	req.CustomerID = &other.ID
	resp, err = f.bookings.CreateBooking(as(f.customer), req)
	require.NoError(t, err)
	assert.Equal(t, f.customer.ID, resp.CustomerID)
}

func TestCreateBooking_PicksFreeTechnician(t *testing.T) {
	f := newFixture(t)
	alice := f.addTechnician("Alice Tech")
	bob := f.addTechnician("Bob Tech")

	f.put("BUSY-1", tuesday(10, 0), entity.BookingStatusAssigned, &alice)

	// Alice is busy 10:00-11:00, so a 10:30 booking goes to Bob.
	resp, err := f.bookings.CreateBooking(as(f.customer), createReq("V1", tuesdayDate, "10:30"))
	require.NoError(t, err)
	require.NotNil(t, resp.TechnicianID)
	assert.Equal(t, bob.ID, *resp.TechnicianID)

	// Both are now busy at 10:45.
	resp, err = f.bookings.CreateBooking(as(f.customer), createReq("V2", tuesdayDate, "10:45"))
	require.NoError(t, err)
	assert.Equal(t, string(entity.BookingStatusPending), resp.Status)
	assert.Equal(t, dto.AssignmentNoneAvailable, resp.Assignment)
}

func TestCreateBooking_PrefersLowerWorkload(t *testing.T) {
	f := newFixture(t)
	alice := f.addTechnician("Alice Tech")
	bob := f.addTechnician("Bob Tech")

	f.put("W1", tuesday(8, 0), entity.BookingStatusAssigned, &alice)
	f.put("W2", tuesday(15, 0), entity.BookingStatusInProgress, &alice)
	f.put("W3", tuesday(16, 0), entity.BookingStatusAssigned, &bob)

	resp, err := f.bookings.CreateBooking(as(f.customer), createReq("V1", tuesdayDate, "11:00"))
	require.NoError(t, err)
	require.NotNil(t, resp.TechnicianID)
	assert.Equal(t, bob.ID, *resp.TechnicianID)
}

func TestCreateBooking_StoreFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.addTechnician("Tina Tech")
	f.store.SaveErr = errors.New("disk full")

	_, err := f.bookings.CreateBooking(as(f.customer), createReq("V1", tuesdayDate, "10:00"))
	require.Error(t, err)

	assert.Equal(t, 0, f.store.BookingCount())
	assert.Empty(t, f.store.AuditLogs())
	assert.Empty(t, f.publisher.types())
}

func TestCreateBooking_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	resp, err := f.bookings.CreateBooking(as(f.customer), createReq("V1", tuesdayDate, "10:00"))
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.BookingCount())
	assert.Equal(t, string(entity.BookingStatusPending), resp.Status)
}

func TestCreateBooking_ConcurrentSameVehicle(t *testing.T) {
	f := newFixture(t)
	const callers = 10

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		dupes     int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.bookings.CreateBooking(as(f.customer), createReq("RACE-1", tuesdayDate, fmt.Sprintf("%02d:00", 8+i)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrDuplicateActiveBooking):
				dupes++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, callers-1, dupes)
	assert.Equal(t, 1, f.store.BookingCount())
}

func TestCreateBooking_ConcurrentSameSlotNeverDoubleBooks(t *testing.T) {
	f := newFixture(t)
	alice := f.addTechnician("Alice Tech")
	bob := f.addTechnician("Bob Tech")
	const callers = 6

	var wg sync.WaitGroup
	ids := make([]uuid.UUID, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := f.bookings.CreateBooking(as(f.customer), createReq(fmt.Sprintf("SLOT-%d", i), tuesdayDate, "10:00"))
			if err != nil {
				t.Errorf("create %d: %v", i, err)
				return
			}
			ids[i] = resp.ID
		}(i)
	}
	wg.Wait()

	perTechnician := map[uuid.UUID]int{}
	pending := 0
	for _, id := range ids {
		b := f.booking(t, id)
		if b.TechnicianID == nil {
			assert.Equal(t, entity.BookingStatusPending, b.Status)
			pending++
			continue
		}
		perTechnician[*b.TechnicianID]++
	}

	assert.Equal(t, map[uuid.UUID]int{alice.ID: 1, bob.ID: 1}, perTechnician)
	assert.Equal(t, callers-2, pending)
}

// =============================================================================
// AssignTechnician / AutoAssignTechnician
// =============================================================================

func TestAssignTechnician_Conflict(t *testing.T) {
	f := newFixture(t)
	tech := f.addTechnician("Tina Tech")
	first := f.put("V1", tuesday(10, 0), entity.BookingStatusPending, nil)
	second := f.put("V2", tuesday(10, 30), entity.BookingStatusPending, nil)
	touching := f.put("V3", tuesday(11, 0), entity.BookingStatusConfirmed, nil)

	resp, err := f.bookings.AssignTechnician(as(f.manager), first.ID, tech.ID)
	require.NoError(t, err)
	assert.Equal(t, string(entity.BookingStatusAssigned), resp.Status)

	_, err = f.bookings.AssignTechnician(as(f.manager), second.ID, tech.ID)
	assert.ErrorIs(t, err, ErrSchedulingConflict)
	unchanged := f.booking(t, second.ID)
	assert.Equal(t, entity.BookingStatusPending, unchanged.Status)
	assert.Nil(t, unchanged.TechnicianID)

	// [10:00, 11:00) and [11:00, 12:00) only touch.
	_, err = f.bookings.AssignTechnician(as(f.manager), touching.ID, tech.ID)
	assert.NoError(t, err)

	assert.Equal(t, entity.BookingEventAssigned, f.publisher.last().Type)
	assert.Equal(t, entity.BookingStatusConfirmed, f.publisher.last().PreviousStatus)
}

func TestAssignTechnician_Validation(t *testing.T) {
	f := newFixture(t)
	tech := f.addTechnician("Tina Tech")
	inactive := f.store.AddUser("Ian Inactive", entity.RoleIDTechnician, false)
	pending := f.put("V1", tuesday(10, 0), entity.BookingStatusPending, nil)
	completed := f.put("V2", tuesday(12, 0), entity.BookingStatusCompleted, nil)

	tests := []struct {
		name         string
		ctx          context.Context
		bookingID    uuid.UUID
		technicianID uuid.UUID
		wantErr      error
	}{
		{"customer caller", as(f.customer), pending.ID, tech.ID, ErrForbidden},
		{"unknown technician", as(f.manager), pending.ID, uuid.New(), ErrTechnicianNotFound},
		{"not a technician", as(f.manager), pending.ID, f.customer.ID, ErrNotATechnician},
		{"inactive technician", as(f.manager), pending.ID, inactive.ID, ErrTechnicianInactive},
		{"unknown booking", as(f.manager), uuid.New(), tech.ID, ErrBookingNotFound},
		{"terminal booking", as(f.admin), completed.ID, tech.ID, ErrInvalidTransition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.bookings.AssignTechnician(tt.ctx, tt.bookingID, tt.technicianID)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, f.store.AuditLogs())
}

func TestAssignTechnician_Reassign(t *testing.T) {
	f := newFixture(t)
	alice := f.addTechnician("Alice Tech")
	bob := f.addTechnician("Bob Tech")
	b := f.put("V1", tuesday(10, 0), entity.BookingStatusAssigned, &alice)

	// The booking never conflicts with itself.
	_, err := f.bookings.AssignTechnician(as(f.manager), b.ID, alice.ID)
	require.NoError(t, err)

	resp, err := f.bookings.AssignTechnician(as(f.manager), b.ID, bob.ID)
	require.NoError(t, err)
	require.NotNil(t, resp.TechnicianID)
	assert.Equal(t, bob.ID, *resp.TechnicianID)
	assert.Equal(t, entity.AuditActionBookingAssign, f.store.AuditLogs()[1].Action)
}

func TestAutoAssignTechnician(t *testing.T) {
	f := newFixture(t)
	alice := f.addTechnician("Alice Tech")
	bob := f.addTechnician("Bob Tech")
	f.put("W1", tuesday(15, 0), entity.BookingStatusAssigned, &alice)
	b := f.put("V1", tuesday(10, 0), entity.BookingStatusPending, nil)

	resp, err := f.bookings.AutoAssignTechnician(as(f.manager), b.ID)
	require.NoError(t, err)
	require.NotNil(t, resp.TechnicianID)
	assert.Equal(t, bob.ID, *resp.TechnicianID)
	assert.Equal(t, dto.AssignmentAssigned, resp.Assignment)
}

func TestAutoAssignTechnician_NoneAvailable(t *testing.T) {
	f := newFixture(t)
	tech := f.addTechnician("Tina Tech")
	f.put("BUSY", tuesday(10, 0), entity.BookingStatusAssigned, &tech)
	b := f.put("V1", tuesday(10, 30), entity.BookingStatusPending, nil)

	_, err := f.bookings.AutoAssignTechnician(as(f.manager), b.ID)
	assert.ErrorIs(t, err, ErrNoTechnicianAvailable)
	assert.Equal(t, entity.BookingStatusPending, f.booking(t, b.ID).Status)

	_, err = f.bookings.AutoAssignTechnician(as(f.manager), uuid.New())
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

// =============================================================================
// TransitionStatus
// =============================================================================

func TestTransitionStatus_InvalidTransition(t *testing.T) {
	f := newFixture(t)
	b := f.put("V1", tuesday(10, 0), entity.BookingStatusPending, nil)

	_, err := f.bookings.TransitionStatus(as(f.manager), b.ID, &dto.TransitionStatusRequest{Status: "COMPLETED"})
	require.ErrorIs(t, err, ErrInvalidTransition)

	var transitionErr *entity.InvalidTransitionError
	require.True(t, errors.As(err, &transitionErr))
	assert.Equal(t, entity.BookingStatusPending, transitionErr.From)
	assert.Equal(t, entity.BookingStatusCompleted, transitionErr.To)

	stored := f.booking(t, b.ID)
	assert.Equal(t, entity.BookingStatusPending, stored.Status)
	assert.Nil(t, stored.CompletedAt)
	assert.Empty(t, f.store.AuditLogs())
}

func TestTransitionStatus_Lifecycle(t *testing.T) {
	f := newFixture(t)
	tech := f.addTechnician("Tina Tech")

	req := createReq("V1", tuesdayDate, "10:00")
	cost := decimal.NewFromInt(80)
	req.EstimatedCost = &cost
	created, err := f.bookings.CreateBooking(as(f.customer), req)
	require.NoError(t, err)
	require.Equal(t, string(entity.BookingStatusAssigned), created.Status)

	resp, err := f.bookings.TransitionStatus(as(tech), created.ID, &dto.TransitionStatusRequest{Status: "in_progress", Notes: "  started  "})
	require.NoError(t, err)
	assert.Equal(t, string(entity.BookingStatusInProgress), resp.Status)
	assert.Equal(t, "started", resp.TechnicianNotes)
	require.NotNil(t, resp.StartedAt)
	assert.True(t, fixedNow.Equal(*resp.StartedAt))

	resp, err = f.bookings.TransitionStatus(as(tech), created.ID, &dto.TransitionStatusRequest{Status: "completed", Notes: "all done"})
	require.NoError(t, err)
	assert.Equal(t, string(entity.BookingStatusCompleted), resp.Status)
	assert.Equal(t, "all done", resp.CompletionNotes)
	require.NotNil(t, resp.ActualCost)
	assert.True(t, cost.Equal(*resp.ActualCost))
	assert.Empty(t, resp.AllowedTransitions)

	event := f.publisher.last()
	assert.Equal(t, entity.BookingEventStatusChanged, event.Type)
	assert.Equal(t, entity.BookingStatusInProgress, event.PreviousStatus)
	assert.Equal(t, entity.BookingStatusCompleted, event.Status)

	// Terminal statuses accept nothing.
	for _, to := range entity.AllBookingStatuses {
		_, err := f.bookings.TransitionStatus(as(f.admin), created.ID, &dto.TransitionStatusRequest{Status: string(to)})
		assert.ErrorIs(t, err, ErrInvalidTransition, "completed -> %s", to)
	}
}

func TestTransitionStatus_KeepsActualCost(t *testing.T) {
	f := newFixture(t)
	tech := f.addTechnician("Tina Tech")
	b := f.put("V1", tuesday(10, 0), entity.BookingStatusInProgress, &tech)
	actual := decimal.NewFromInt(150)
	b.EstimatedCost = decimal.NewFromInt(100)
	b.ActualCost = &actual
	f.store.PutBooking(b)

	resp, err := f.bookings.TransitionStatus(as(tech), b.ID, &dto.TransitionStatusRequest{Status: "completed"})
	require.NoError(t, err)
	require.NotNil(t, resp.ActualCost)
	assert.True(t, actual.Equal(*resp.ActualCost))
}

func TestTransitionStatus_Authorization(t *testing.T) {
	f := newFixture(t)
	tech := f.addTechnician("Tina Tech")
	other := f.addTechnician("Otto Tech")
	b := f.put("V1", tuesday(10, 0), entity.BookingStatusAssigned, &tech)

	_, err := f.bookings.TransitionStatus(as(other), b.ID, &dto.TransitionStatusRequest{Status: "in_progress"})
	assert.ErrorIs(t, err, ErrBookingNotOwned)

	_, err = f.bookings.TransitionStatus(as(f.customer), b.ID, &dto.TransitionStatusRequest{Status: "cancelled"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.bookings.TransitionStatus(as(tech), b.ID, &dto.TransitionStatusRequest{Status: "done"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = f.bookings.TransitionStatus(as(tech), uuid.New(), &dto.TransitionStatusRequest{Status: "in_progress"})
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestTransitionStatus_AssignedRequiresTechnician(t *testing.T) {
	f := newFixture(t)
	b := f.put("V1", tuesday(10, 0), entity.BookingStatusConfirmed, nil)

	_, err := f.bookings.TransitionStatus(as(f.manager), b.ID, &dto.TransitionStatusRequest{Status: "assigned"})
	assert.ErrorIs(t, err, ErrTechnicianRequired)
	assert.Equal(t, entity.BookingStatusConfirmed, f.booking(t, b.ID).Status)
}

// =============================================================================
// DeleteBooking
// =============================================================================

func TestDeleteBooking_Guard(t *testing.T) {
	f := newFixture(t)
	tech := f.addTechnician("Tina Tech")
	inProgress := f.put("V1", tuesday(10, 0), entity.BookingStatusInProgress, &tech)
	completed := f.put("V2", tuesday(12, 0), entity.BookingStatusCompleted, &tech)

	err := f.bookings.DeleteBooking(as(f.admin), inProgress.ID)
	assert.ErrorIs(t, err, ErrDeletionBlocked)

	err = f.bookings.DeleteBooking(as(f.admin), completed.ID)
	assert.ErrorIs(t, err, ErrDeletionBlocked)

	assert.Equal(t, 2, f.store.BookingCount())
	assert.Empty(t, f.store.AuditLogs())
}

func TestDeleteBooking_Rules(t *testing.T) {
	f := newFixture(t)
	tech := f.addTechnician("Tina Tech")
	stranger := f.addCustomer("Sam Stranger")
	pending := f.put("V1", tuesday(10, 0), entity.BookingStatusPending, nil)
	confirmed := f.put("V2", tuesday(12, 0), entity.BookingStatusConfirmed, nil)

	assert.ErrorIs(t, f.bookings.DeleteBooking(as(stranger), pending.ID), ErrBookingNotOwned)
	assert.ErrorIs(t, f.bookings.DeleteBooking(as(f.customer), confirmed.ID), ErrBookingNotEditable)
	assert.ErrorIs(t, f.bookings.DeleteBooking(as(tech), pending.ID), ErrForbidden)
	assert.ErrorIs(t, f.bookings.DeleteBooking(as(f.manager), uuid.New()), ErrBookingNotFound)

	require.NoError(t, f.bookings.DeleteBooking(as(f.customer), pending.ID))
	require.NoError(t, f.bookings.DeleteBooking(as(f.manager), confirmed.ID))

	assert.Equal(t, 0, f.store.BookingCount())
	logs := f.store.AuditLogs()
	require.Len(t, logs, 2)
	assert.Equal(t, entity.AuditActionBookingDelete, logs[0].Action)
	assert.Equal(t, []string{entity.BookingEventDeleted, entity.BookingEventDeleted}, f.publisher.types())
}

// =============================================================================
// UpdateBooking
// =============================================================================

func TestUpdateBooking_MergePatch(t *testing.T) {
	f := newFixture(t)
	b := f.put("V1", tuesday(10, 0), entity.BookingStatusPending, nil)

	resp, err := f.bookings.UpdateBooking(as(f.customer), b.ID, &dto.UpdateBookingRequest{
		ServiceType:   strPtr("Brake Service"),
		CustomerNotes: strPtr("squeaky brakes"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Brake Service", resp.ServiceType)
	assert.Equal(t, "squeaky brakes", resp.CustomerNotes)
	stored := f.booking(t, b.ID)
	assert.Equal(t, "V1", stored.VehicleNumber)
	assert.True(t, tuesday(10, 0).Equal(stored.ScheduledAt))
	assert.Equal(t, 60, stored.EstimatedDurationMinutes)
	assert.Equal(t, fixedNow, stored.UpdatedAt)

	logs := f.store.AuditLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, entity.AuditActionBookingUpdate, logs[0].Action)
}

func TestUpdateBooking_RescheduleRechecksConflicts(t *testing.T) {
	f := newFixture(t)
	tech := f.addTechnician("Tina Tech")
	f.put("V1", tuesday(10, 0), entity.BookingStatusAssigned, &tech)
	moving := f.put("V2", tuesday(14, 0), entity.BookingStatusAssigned, &tech)

	_, err := f.bookings.UpdateBooking(as(f.manager), moving.ID, &dto.UpdateBookingRequest{
		ScheduledDate: strPtr(tuesdayDate),
		ScheduledTime: strPtr("10:30"),
	})
	assert.ErrorIs(t, err, ErrSchedulingConflict)
	assert.True(t, tuesday(14, 0).Equal(f.booking(t, moving.ID).ScheduledAt))

	// Stretching the duration into a neighbour conflicts as well.
	f.put("V3", tuesday(15, 30), entity.BookingStatusAssigned, &tech)
	_, err = f.bookings.UpdateBooking(as(f.manager), moving.ID, &dto.UpdateBookingRequest{EstimatedDurationMinutes: intPtr(120)})
	assert.ErrorIs(t, err, ErrSchedulingConflict)

	resp, err := f.bookings.UpdateBooking(as(f.manager), moving.ID, &dto.UpdateBookingRequest{
		ScheduledDate: strPtr(tuesdayDate),
		ScheduledTime: strPtr("16:30"),
	})
	require.NoError(t, err)
	assert.Equal(t, "16:30", resp.ScheduledTime)
	require.NotNil(t, resp.TechnicianID)
	assert.Equal(t, tech.ID, *resp.TechnicianID)
}

func TestUpdateBooking_Validation(t *testing.T) {
	f := newFixture(t)
	tech := f.addTechnician("Tina Tech")
	stranger := f.addCustomer("Sam Stranger")
	pending := f.put("V1", tuesday(10, 0), entity.BookingStatusPending, nil)
	assigned := f.put("V2", tuesday(12, 0), entity.BookingStatusAssigned, &tech)
	cancelled := f.put("V3", tuesday(14, 0), entity.BookingStatusCancelled, nil)
	negative := decimal.NewFromInt(-1)

	tests := []struct {
		name      string
		ctx       context.Context
		bookingID uuid.UUID
		req       *dto.UpdateBookingRequest
		wantErr   error
	}{
		{"date without time", as(f.customer), pending.ID, &dto.UpdateBookingRequest{ScheduledDate: strPtr(tuesdayDate)}, ErrIncompleteReschedule},
		{"bad date", as(f.customer), pending.ID, &dto.UpdateBookingRequest{ScheduledDate: strPtr("12-03-2030"), ScheduledTime: strPtr("10:00")}, ErrInvalidDateFormat},
		{"into the past", as(f.customer), pending.ID, &dto.UpdateBookingRequest{ScheduledDate: strPtr("2030-03-09"), ScheduledTime: strPtr("10:00")}, ErrPastSchedule},
		{"negative cost", as(f.manager), pending.ID, &dto.UpdateBookingRequest{EstimatedCost: &negative}, ErrInvalidEstimatedCost},
		{"someone else's booking", as(stranger), pending.ID, &dto.UpdateBookingRequest{Description: strPtr("x")}, ErrBookingNotOwned},
		{"customer, not pending", as(f.customer), assigned.ID, &dto.UpdateBookingRequest{Description: strPtr("x")}, ErrBookingNotEditable},
		{"terminal", as(f.manager), cancelled.ID, &dto.UpdateBookingRequest{Description: strPtr("x")}, ErrBookingNotEditable},
		{"technician", as(tech), assigned.ID, &dto.UpdateBookingRequest{Description: strPtr("x")}, ErrForbidden},
		{"missing", as(f.manager), uuid.New(), &dto.UpdateBookingRequest{Description: strPtr("x")}, ErrBookingNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.bookings.UpdateBooking(tt.ctx, tt.bookingID, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, f.store.AuditLogs())
}

// =============================================================================
// GetBooking
// =============================================================================

func TestGetBooking_Visibility(t *testing.T) {
	f := newFixture(t)
	tech := f.addTechnician("Tina Tech")
	other := f.addTechnician("Otto Tech")
	stranger := f.addCustomer("Sam Stranger")
	b := f.put("V1", tuesday(10, 0), entity.BookingStatusAssigned, &tech)

	for _, viewer := range []entity.User{f.customer, tech, f.manager, f.admin} {
		resp, err := f.bookings.GetBooking(as(viewer), b.ID)
		require.NoError(t, err, viewer.FullName)
		assert.Equal(t, "Carla Customer", resp.CustomerName)
	}

	for _, viewer := range []entity.User{other, stranger} {
		_, err := f.bookings.GetBooking(as(viewer), b.ID)
		assert.ErrorIs(t, err, ErrBookingNotOwned, viewer.FullName)
	}

	_, err := f.bookings.GetBooking(as(f.admin), uuid.New())
	assert.ErrorIs(t, err, ErrBookingNotFound)
}
