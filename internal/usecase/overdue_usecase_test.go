package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"workshop-scheduler/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepOverdue(t *testing.T) {
	f := newFixture(t)
	tech := f.addTechnician("Tina Tech")

	late := f.put("LATE", fixedNow.Add(-time.Hour), entity.BookingStatusAssigned, &tech)
	f.put("DONE", fixedNow.Add(-2*time.Hour), entity.BookingStatusCompleted, &tech)
	f.put("LATER", fixedNow.Add(time.Hour), entity.BookingStatusPending, nil)

	uc := NewOverdueUsecase(f.store.Transactor(), newTestLogger(), f.store.Bookings(), f.publisher).(*overdueUsecase)
	uc.now = func() time.Time { return fixedNow }

	n, err := uc.SweepOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Equal(t, []string{entity.BookingEventOverdue}, f.publisher.types())
	assert.Equal(t, late.ID, f.publisher.last().BookingID)
	assert.Equal(t, entity.BookingStatusAssigned, f.booking(t, late.ID).Status)

	// A broker outage does not fail the sweep.
	f.publisher.err = errors.New("broker down")
	n, err = uc.SweepOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	f.store.Err = errors.New("connection refused")
	_, err = uc.SweepOverdue(context.Background())
	assert.Error(t, err)
}
