package repository

import (
	"errors"

	"workshop-scheduler/internal/domain/entity"
	domainRepo "workshop-scheduler/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type technicianRepository struct{}

func NewTechnicianRepository() domainRepo.TechnicianRepository {
	return &technicianRepository{}
}

func (r *technicianRepository) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Technician, error) {
	var technician entity.Technician
	err := db.Preload("TechnicianProfile").Where("id = ?", id).First(&technician).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &technician, nil
}

func (r *technicianRepository) FindAllActive(db *gorm.DB) ([]entity.Technician, error) {
	var technicians []entity.Technician
	err := db.Preload("TechnicianProfile").
		Where("role_id = ? AND is_active = ?", entity.RoleIDTechnician, true).
		Order("full_name ASC, id ASC").
		Find(&technicians).Error
	if err != nil {
		return nil, err
	}
	return technicians, nil
}
