package repository

import (
	"testing"
	"time"

	"workshop-scheduler/internal/domain/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasActiveBookingForVehicle_NormalizesNumber(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "bookings" WHERE LOWER\(vehicle_number\) = \$1 AND status NOT IN`).
		WithArgs("b 1234 xy", "completed", "cancelled", "no_show").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.HasActiveBookingForVehicle(db, "  B 1234 XY ")

	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHasActiveBookingForVehicle_None(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	exists, err := repo.HasActiveBookingForVehicle(db, "B 1234 XY")

	require.NoError(t, err)
	assert.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindTechnicianWorkload(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository()

	busy := uuid.New()
	idle := uuid.New()
	mock.ExpectQuery(`SELECT technician_id, COUNT\(\*\) AS workload FROM "bookings" WHERE technician_id IS NOT NULL AND status IN \(\$1,\$2\) GROUP BY "technician_id"`).
		WithArgs("assigned", "in_progress").
		WillReturnRows(sqlmock.NewRows([]string{"technician_id", "workload"}).
			AddRow(busy.String(), 3).
			AddRow(idle.String(), 1))

	workload, err := repo.FindTechnicianWorkload(db)

	require.NoError(t, err)
	assert.Equal(t, int64(3), workload[busy])
	assert.Equal(t, int64(1), workload[idle])
	assert.Len(t, workload, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindForTechnicianInWindow_UsesIntervalOverlap(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository()

	technicianID := uuid.New()
	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	existing := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE \(technician_id = \$1 AND status NOT IN \(\$2,\$3,\$4\)\) AND \(scheduled_at < \$5 AND scheduled_at \+ estimated_duration_minutes \* INTERVAL '1 minute' > \$6\) ORDER BY scheduled_at ASC`).
		WithArgs(technicianID, "completed", "cancelled", "no_show", end, start).
		WillReturnRows(sqlmock.NewRows([]string{"id", "technician_id", "status", "scheduled_at", "estimated_duration_minutes"}).
			AddRow(existing.String(), technicianID.String(), "assigned", start.Add(-30*time.Minute), 60))

	bookings, err := repo.FindForTechnicianInWindow(db, technicianID, start, end)

	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, existing, bookings[0].ID)
	assert.Equal(t, entity.BookingStatusAssigned, bookings[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIDForUpdate_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository()

	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE id = \$1 .*FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	booking, err := repo.FindByIDForUpdate(db, uuid.New())

	require.NoError(t, err)
	assert.Nil(t, booking)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByStatus(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository()

	mock.ExpectQuery(`SELECT status, COUNT\(\*\) AS count FROM "bookings" GROUP BY "status"`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("pending", 4).
			AddRow("completed", 2))

	counts, err := repo.CountByStatus(db)

	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, entity.BookingStatusPending, counts[0].Status)
	assert.Equal(t, int64(4), counts[0].Count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindServiceTypes(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository()

	mock.ExpectQuery(`SELECT DISTINCT "service_type" FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"service_type"}).
			AddRow("Brake Service").
			AddRow("Oil Change"))

	serviceTypes, err := repo.FindServiceTypes(db)

	require.NoError(t, err)
	assert.Equal(t, []string{"Brake Service", "Oil Change"}, serviceTypes)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteBooking(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository()

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "bookings" WHERE id = \$1`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(db, id))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch_EscapesWildcards(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository()

	pattern := `%50\%\_off%`
	mock.ExpectQuery(`SELECT bookings\.\* FROM "bookings" LEFT JOIN users customers ON customers\.id = bookings\.customer_id WHERE \(?LOWER\(bookings\.vehicle_number\) LIKE \$1 ESCAPE '\\' OR LOWER\(bookings\.service_type\) LIKE \$2 ESCAPE '\\' OR LOWER\(customers\.full_name\) LIKE \$3 ESCAPE '\\'`).
		WithArgs(pattern, pattern, pattern).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	bookings, err := repo.Search(db, " 50%_OFF ")

	require.NoError(t, err)
	assert.Empty(t, bookings)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAll_EscapesServiceTypeFilter(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository()

	mock.ExpectQuery(`SELECT \* FROM "bookings" WHERE service_type ILIKE \$1 ESCAPE '\\'`).
		WithArgs(`%\%%`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	bookings, err := repo.FindAll(db, &entity.BookingFilter{ServiceType: "%"})

	require.NoError(t, err)
	assert.Empty(t, bookings)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		term string
		want string
	}{
		{"oil", "%oil%"},
		{"%", `%\%%`},
		{"a_b", `%a\_b%`},
		{`c:\x`, `%c:\\x%`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, containsPattern(tt.term), tt.term)
	}
}
