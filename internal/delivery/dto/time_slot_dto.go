package dto

import "workshop-scheduler/internal/domain/entity"

type AvailabilityResponse struct {
	Date           string               `json:"date"`
	BusinessHours  entity.BusinessHours `json:"business_hours"`
	AllSlots       []string             `json:"all_slots"`
	OccupiedSlots  []string             `json:"occupied_slots"`
	AvailableSlots []string             `json:"available_slots"`
	Message        string               `json:"message,omitempty"`
}
