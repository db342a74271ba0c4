package repository

import (
	"workshop-scheduler/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.User, error)
}

type TechnicianRepository interface {
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Technician, error)
	// FindAllActive returns active technicians ordered by full name then id.
	FindAllActive(db *gorm.DB) ([]entity.Technician, error)
}
