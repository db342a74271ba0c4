package service

import (
	"context"
	"errors"
	"testing"

	"workshop-scheduler/internal/domain/entity"
	"workshop-scheduler/internal/repository/inmemory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPolicy(store *inmemory.Store) AssignmentPolicy {
	return NewAssignmentPolicy(newTestLogger(), store.Technicians(), store.Bookings(), NewConflictDetector(store.Bookings()))
}

func assignedTo(store *inmemory.Store, tech uuid.UUID, status entity.BookingStatus, hour int) {
	store.PutBooking(entity.Booking{
		TechnicianID:             &tech,
		Status:                   status,
		ScheduledAt:              at(hour, 0).AddDate(0, 0, 1),
		EstimatedDurationMinutes: 60,
	})
}

func TestSelectTechnician_LowestWorkloadWins(t *testing.T) {
	store := inmemory.NewStore()
	t1 := store.AddUser("Tech One", entity.RoleIDTechnician, true)
	t2 := store.AddUser("Tech Two", entity.RoleIDTechnician, true)
	assignedTo(store, t1.ID, entity.BookingStatusAssigned, 8)
	assignedTo(store, t1.ID, entity.BookingStatusInProgress, 10)
	assignedTo(store, t2.ID, entity.BookingStatusAssigned, 12)

	selected, err := newPolicy(store).SelectTechnician(context.Background(), nil, AssignmentRequest{
		ScheduledAt:     at(10, 0),
		DurationMinutes: 60,
	})

	require.NoError(t, err)
	require.NotNil(t, selected)
	assert.Equal(t, t2.ID, selected.ID)
}

func TestSelectTechnician_ConflictExcludesLeastLoaded(t *testing.T) {
	store := inmemory.NewStore()
	t1 := store.AddUser("Tech One", entity.RoleIDTechnician, true)
	t2 := store.AddUser("Tech Two", entity.RoleIDTechnician, true)
	// t1 has fewer jobs but is busy at 10:00.
	store.PutBooking(entity.Booking{
		TechnicianID: &t1.ID,
		Status:       entity.BookingStatusAssigned,
		ScheduledAt:  at(10, 0),
	})
	assignedTo(store, t2.ID, entity.BookingStatusAssigned, 8)
	assignedTo(store, t2.ID, entity.BookingStatusAssigned, 9)

	selected, err := newPolicy(store).SelectTechnician(context.Background(), nil, AssignmentRequest{
		ScheduledAt:     at(10, 0),
		DurationMinutes: 60,
	})

	require.NoError(t, err)
	require.NotNil(t, selected)
	assert.Equal(t, t2.ID, selected.ID)
}

func TestSelectTechnician_TieKeepsInputOrder(t *testing.T) {
	store := inmemory.NewStore()
	alice := store.AddUser("Alice", entity.RoleIDTechnician, true)
	store.AddUser("Bob", entity.RoleIDTechnician, true)

	selected, err := newPolicy(store).SelectTechnician(context.Background(), nil, AssignmentRequest{
		ScheduledAt:     at(10, 0),
		DurationMinutes: 60,
	})

	require.NoError(t, err)
	require.NotNil(t, selected)
	assert.Equal(t, alice.ID, selected.ID)
}

func TestSelectTechnician_NoneAvailable(t *testing.T) {
	store := inmemory.NewStore()
	policy := newPolicy(store)

	selected, err := policy.SelectTechnician(context.Background(), nil, AssignmentRequest{ScheduledAt: at(10, 0), DurationMinutes: 60})
	require.NoError(t, err)
	assert.Nil(t, selected, "no technicians registered")

	tech := store.AddUser("Busy", entity.RoleIDTechnician, true)
	store.AddUser("Retired", entity.RoleIDTechnician, false)
	store.AddUser("Customer", entity.RoleIDCustomer, true)
	store.PutBooking(entity.Booking{TechnicianID: &tech.ID, Status: entity.BookingStatusAssigned, ScheduledAt: at(10, 0)})

	selected, err = policy.SelectTechnician(context.Background(), nil, AssignmentRequest{ScheduledAt: at(10, 0), DurationMinutes: 60})
	require.NoError(t, err)
	assert.Nil(t, selected, "only candidate conflicts")
}

func TestSelectTechnician_SkipAndExclude(t *testing.T) {
	store := inmemory.NewStore()
	alice := store.AddUser("Alice", entity.RoleIDTechnician, true)
	bob := store.AddUser("Bob", entity.RoleIDTechnician, true)
	self := store.PutBooking(entity.Booking{TechnicianID: &bob.ID, Status: entity.BookingStatusAssigned, ScheduledAt: at(10, 0)})

	selected, err := newPolicy(store).SelectTechnician(context.Background(), nil, AssignmentRequest{
		ScheduledAt:      at(10, 0),
		DurationMinutes:  60,
		ExcludeBookingID: &self.ID,
		Skip:             map[uuid.UUID]bool{alice.ID: true},
	})

	require.NoError(t, err)
	require.NotNil(t, selected)
	assert.Equal(t, bob.ID, selected.ID)
}

func TestSelectTechnician_StoreFailure(t *testing.T) {
	store := inmemory.NewStore()
	store.AddUser("Alice", entity.RoleIDTechnician, true)
	store.Err = errors.New("connection refused")

	_, err := newPolicy(store).SelectTechnician(context.Background(), nil, AssignmentRequest{ScheduledAt: at(10, 0), DurationMinutes: 60})

	require.Error(t, err)
	assert.ErrorIs(t, err, store.Err)
}
