package repository

import (
	"errors"
	"strings"
	"time"

	"workshop-scheduler/internal/domain/entity"
	domainRepo "workshop-scheduler/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type bookingRepository struct{}

func NewBookingRepository() domainRepo.BookingRepository {
	return &bookingRepository{}
}

func (r *bookingRepository) Create(db *gorm.DB, booking *entity.Booking) error {
	return db.Omit(clause.Associations).Create(booking).Error
}

func (r *bookingRepository) Save(db *gorm.DB, booking *entity.Booking) error {
	return db.Omit(clause.Associations).Save(booking).Error
}

func (r *bookingRepository) Delete(db *gorm.DB, id uuid.UUID) error {
	return db.Where("id = ?", id).Delete(&entity.Booking{}).Error
}

func (r *bookingRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Booking, error) {
	var booking entity.Booking
	err := db.Preload("Customer").Preload("Technician").Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByIDForUpdate(db *gorm.DB, id uuid.UUID) (*entity.Booking, error) {
	var booking entity.Booking
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindForTechnicianInWindow(db *gorm.DB, technicianID uuid.UUID, start, end time.Time) ([]entity.Booking, error) {
	var bookings []entity.Booking
	err := db.Where("technician_id = ? AND status NOT IN ?", technicianID, entity.TerminalBookingStatuses).
		Where("scheduled_at < ? AND scheduled_at + estimated_duration_minutes * INTERVAL '1 minute' > ?", end, start).
		Order("scheduled_at ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) HasActiveBookingForVehicle(db *gorm.DB, vehicleNumber string) (bool, error) {
	var count int64
	err := db.Model(&entity.Booking{}).
		Where("LOWER(vehicle_number) = ? AND status NOT IN ?", entity.NormalizeVehicleNumber(vehicleNumber), entity.TerminalBookingStatuses).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *bookingRepository) FindTechnicianWorkload(db *gorm.DB) (map[uuid.UUID]int64, error) {
	var rows []struct {
		TechnicianID uuid.UUID
		Workload     int64
	}
	err := db.Model(&entity.Booking{}).
		Select("technician_id, COUNT(*) AS workload").
		Where("technician_id IS NOT NULL AND status IN ?", []entity.BookingStatus{entity.BookingStatusAssigned, entity.BookingStatusInProgress}).
		Group("technician_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	workload := make(map[uuid.UUID]int64, len(rows))
	for _, row := range rows {
		workload[row.TechnicianID] = row.Workload
	}
	return workload, nil
}

func (r *bookingRepository) FindByVehicle(db *gorm.DB, vehicleNumber string) ([]entity.Booking, error) {
	return r.find(db.Where("LOWER(vehicle_number) = ?", entity.NormalizeVehicleNumber(vehicleNumber)).Order("scheduled_at DESC"))
}

func (r *bookingRepository) FindByCustomerID(db *gorm.DB, customerID uuid.UUID) ([]entity.Booking, error) {
	return r.find(db.Where("customer_id = ?", customerID).Order("scheduled_at DESC"))
}

func (r *bookingRepository) FindByTechnicianID(db *gorm.DB, technicianID uuid.UUID) ([]entity.Booking, error) {
	return r.find(db.Where("technician_id = ?", technicianID).Order("scheduled_at ASC"))
}

func (r *bookingRepository) FindByStatus(db *gorm.DB, status entity.BookingStatus) ([]entity.Booking, error) {
	return r.find(db.Where("status = ?", status).Order("scheduled_at ASC"))
}

func (r *bookingRepository) FindBetween(db *gorm.DB, start, end time.Time) ([]entity.Booking, error) {
	return r.find(db.Where("scheduled_at >= ? AND scheduled_at < ?", start, end).Order("scheduled_at ASC"))
}

func (r *bookingRepository) FindUpcoming(db *gorm.DB, now time.Time) ([]entity.Booking, error) {
	return r.find(db.Where("scheduled_at > ? AND status NOT IN ?", now, entity.TerminalBookingStatuses).Order("scheduled_at ASC"))
}

func (r *bookingRepository) FindOverdue(db *gorm.DB, now time.Time) ([]entity.Booking, error) {
	return r.find(db.Where("scheduled_at < ? AND status NOT IN ?", now, entity.TerminalBookingStatuses).Order("scheduled_at ASC"))
}

func (r *bookingRepository) FindPending(db *gorm.DB) ([]entity.Booking, error) {
	statuses := []entity.BookingStatus{entity.BookingStatusPending, entity.BookingStatusConfirmed}
	return r.find(db.Where("status IN ?", statuses).Order("created_at ASC"))
}

func (r *bookingRepository) FindActive(db *gorm.DB) ([]entity.Booking, error) {
	return r.find(db.Where("status IN ?", entity.ActiveBookingStatuses).Order("scheduled_at ASC"))
}

func (r *bookingRepository) FindCreatedSince(db *gorm.DB, since time.Time) ([]entity.Booking, error) {
	return r.find(db.Where("created_at >= ?", since).Order("created_at DESC"))
}

// Search matches vehicle number, service type or customer name, case-insensitively.
func (r *bookingRepository) Search(db *gorm.DB, term string) ([]entity.Booking, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return r.find(db.Order("scheduled_at DESC"))
	}

	pattern := containsPattern(strings.ToLower(term))
	query := db.Select("bookings.*").
		Joins("LEFT JOIN users customers ON customers.id = bookings.customer_id").
		Where(`LOWER(bookings.vehicle_number) LIKE ? ESCAPE '\' OR LOWER(bookings.service_type) LIKE ? ESCAPE '\' OR LOWER(customers.full_name) LIKE ? ESCAPE '\'`, pattern, pattern, pattern).
		Order("bookings.scheduled_at DESC")
	return r.find(query)
}

func (r *bookingRepository) FindAll(db *gorm.DB, filter *entity.BookingFilter) ([]entity.Booking, error) {
	query := db
	if filter != nil {
		if filter.Status != "" {
			query = query.Where("status = ?", filter.Status)
		}
		if filter.ServiceType != "" {
			query = query.Where(`service_type ILIKE ? ESCAPE '\'`, containsPattern(filter.ServiceType))
		}
		if filter.From != nil {
			query = query.Where("scheduled_at >= ?", *filter.From)
		}
		if filter.To != nil {
			query = query.Where("scheduled_at < ?", *filter.To)
		}
	}
	return r.find(query.Order("scheduled_at DESC"))
}

func (r *bookingRepository) FindServiceTypes(db *gorm.DB) ([]string, error) {
	var serviceTypes []string
	err := db.Model(&entity.Booking{}).
		Distinct("service_type").
		Order("service_type ASC").
		Pluck("service_type", &serviceTypes).Error
	if err != nil {
		return nil, err
	}
	return serviceTypes, nil
}

func (r *bookingRepository) CountByStatus(db *gorm.DB) ([]domainRepo.StatusCount, error) {
	var counts []domainRepo.StatusCount
	err := db.Model(&entity.Booking{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *bookingRepository) CountBetween(db *gorm.DB, start, end time.Time) (int64, error) {
	var count int64
	err := db.Model(&entity.Booking{}).
		Where("scheduled_at >= ? AND scheduled_at < ?", start, end).
		Count(&count).Error
	return count, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// containsPattern builds a LIKE pattern matching term literally anywhere.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func (r *bookingRepository) find(query *gorm.DB) ([]entity.Booking, error) {
	var bookings []entity.Booking
	if err := query.Preload("Customer").Preload("Technician").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}
