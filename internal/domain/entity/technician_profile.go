package entity

import "github.com/google/uuid"

// TechnicianProfile holds workshop-specific data for a technician user
type TechnicianProfile struct {
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	EmployeeCode   string    `gorm:"type:varchar(30);uniqueIndex;not null" json:"employee_code"`
	Specialization string    `gorm:"type:varchar(100);index" json:"specialization,omitempty"`
	Biography      string    `gorm:"type:text" json:"biography,omitempty"`
}

func (TechnicianProfile) TableName() string {
	return "technician_profiles"
}
