package converter

import (
	"workshop-scheduler/internal/delivery/dto"
	"workshop-scheduler/internal/domain/entity"

	"github.com/google/uuid"
)

// TechnicianToResponse converts a technician and its current workload to TechnicianResponse DTO
func TechnicianToResponse(technician *entity.Technician, workload int64) *dto.TechnicianResponse {
	if technician == nil {
		return nil
	}

	response := &dto.TechnicianResponse{
		ID:       technician.ID,
		Email:    technician.Email,
		FullName: technician.FullName,
		Phone:    technician.Phone,
		IsActive: technician.Active(),
		Workload: workload,
	}

	if technician.TechnicianProfile != nil {
		response.EmployeeCode = technician.TechnicianProfile.EmployeeCode
		response.Specialization = technician.TechnicianProfile.Specialization
	}

	return response
}

// TechniciansToResponses converts technicians using the workload map
func TechniciansToResponses(technicians []entity.Technician, workload map[uuid.UUID]int64) []dto.TechnicianResponse {
	responses := make([]dto.TechnicianResponse, len(technicians))
	for i := range technicians {
		responses[i] = *TechnicianToResponse(&technicians[i], workload[technicians[i].ID])
	}
	return responses
}
