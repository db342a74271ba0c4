package repository

import (
	"time"

	"workshop-scheduler/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatusCount is one row of the per-status aggregate.
type StatusCount struct {
	Status entity.BookingStatus
	Count  int64
}

type BookingRepository interface {
	Create(db *gorm.DB, booking *entity.Booking) error
	Save(db *gorm.DB, booking *entity.Booking) error
	Delete(db *gorm.DB, id uuid.UUID) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Booking, error)
	// FindByIDForUpdate locks the row for the rest of the transaction.
	FindByIDForUpdate(db *gorm.DB, id uuid.UUID) (*entity.Booking, error)

	// FindForTechnicianInWindow returns the technician's non-terminal bookings
	// whose window intersects [start, end).
	FindForTechnicianInWindow(db *gorm.DB, technicianID uuid.UUID, start, end time.Time) ([]entity.Booking, error)
	// FindByVehicle returns every booking of the vehicle, newest first.
	FindByVehicle(db *gorm.DB, vehicleNumber string) ([]entity.Booking, error)
	HasActiveBookingForVehicle(db *gorm.DB, vehicleNumber string) (bool, error)
	// FindTechnicianWorkload counts assigned and in-progress bookings per technician.
	FindTechnicianWorkload(db *gorm.DB) (map[uuid.UUID]int64, error)

	FindByCustomerID(db *gorm.DB, customerID uuid.UUID) ([]entity.Booking, error)
	FindByTechnicianID(db *gorm.DB, technicianID uuid.UUID) ([]entity.Booking, error)
	FindByStatus(db *gorm.DB, status entity.BookingStatus) ([]entity.Booking, error)
	FindBetween(db *gorm.DB, start, end time.Time) ([]entity.Booking, error)
	FindUpcoming(db *gorm.DB, now time.Time) ([]entity.Booking, error)
	FindOverdue(db *gorm.DB, now time.Time) ([]entity.Booking, error)
	FindPending(db *gorm.DB) ([]entity.Booking, error)
	FindActive(db *gorm.DB) ([]entity.Booking, error)
	FindCreatedSince(db *gorm.DB, since time.Time) ([]entity.Booking, error)
	Search(db *gorm.DB, term string) ([]entity.Booking, error)
	FindAll(db *gorm.DB, filter *entity.BookingFilter) ([]entity.Booking, error)

	FindServiceTypes(db *gorm.DB) ([]string, error)
	CountByStatus(db *gorm.DB) ([]StatusCount, error)
	CountBetween(db *gorm.DB, start, end time.Time) (int64, error)
}
