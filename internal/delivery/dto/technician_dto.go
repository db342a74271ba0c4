package dto

import "github.com/google/uuid"

type TechnicianResponse struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Phone          string    `json:"phone,omitempty"`
	EmployeeCode   string    `json:"employee_code,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
	IsActive       bool      `json:"is_active"`
	Workload       int64     `json:"workload"`
}

type TechnicianListResponse struct {
	Technicians []TechnicianResponse `json:"technicians"`
	Total       int                  `json:"total"`
}

type TechnicianAvailabilityResponse struct {
	TechnicianID    uuid.UUID         `json:"technician_id"`
	Date            string            `json:"date"`
	Time            string            `json:"time"`
	DurationMinutes int               `json:"duration_minutes"`
	Available       bool              `json:"available"`
	Conflicts       []BookingResponse `json:"conflicts"`
}
