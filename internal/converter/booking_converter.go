package converter

import (
	"time"

	"workshop-scheduler/internal/delivery/dto"
	"workshop-scheduler/internal/domain/entity"
)

// BookingToResponse converts a Booking entity to BookingResponse DTO.
// Date and time fields are rendered in loc.
func BookingToResponse(booking *entity.Booking, loc *time.Location) *dto.BookingResponse {
	if booking == nil {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	scheduledAt := booking.ScheduledAt.In(loc)
	response := &dto.BookingResponse{
		ID:                       booking.ID,
		CustomerID:               booking.CustomerID,
		TechnicianID:             booking.TechnicianID,
		VehicleNumber:            booking.VehicleNumber,
		VehicleMake:              booking.VehicleMake,
		VehicleModel:             booking.VehicleModel,
		VehicleYear:              booking.VehicleYear,
		ServiceType:              booking.ServiceType,
		Description:              booking.Description,
		ScheduledAt:              scheduledAt,
		ScheduledDate:            scheduledAt.Format("2006-01-02"),
		ScheduledTime:            scheduledAt.Format("15:04"),
		EstimatedDurationMinutes: booking.EstimatedDurationMinutes,
		EstimatedCost:            booking.EstimatedCost,
		ActualCost:               booking.ActualCost,
		Status:                   string(booking.Status),
		AllowedTransitions:       statusesToStrings(entity.AllowedTransitions(booking.Status)),
		Priority:                 string(booking.Priority),
		CustomerNotes:            booking.CustomerNotes,
		TechnicianNotes:          booking.TechnicianNotes,
		CompletionNotes:          booking.CompletionNotes,
		CreatedAt:                booking.CreatedAt,
		UpdatedAt:                booking.UpdatedAt,
		StartedAt:                booking.StartedAt,
		CompletedAt:              booking.CompletedAt,
	}

	// Include names if relationships are loaded
	if booking.Customer != nil {
		response.CustomerName = booking.Customer.FullName
	}
	if booking.Technician != nil {
		response.TechnicianName = booking.Technician.FullName
	}

	return response
}

// BookingsToResponses converts a slice of Booking entities to slice of BookingResponse DTOs
func BookingsToResponses(bookings []entity.Booking, loc *time.Location) []dto.BookingResponse {
	responses := make([]dto.BookingResponse, len(bookings))
	for i := range bookings {
		responses[i] = *BookingToResponse(&bookings[i], loc)
	}
	return responses
}

// BookingsToListResponse wraps converted bookings with their count
func BookingsToListResponse(bookings []entity.Booking, loc *time.Location) *dto.BookingListResponse {
	return &dto.BookingListResponse{
		Bookings: BookingsToResponses(bookings, loc),
		Total:    len(bookings),
	}
}

func statusesToStrings(statuses []entity.BookingStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
