package handler

import (
	"net/http"

	"workshop-scheduler/internal/usecase"
	"workshop-scheduler/pkg/response"

	"github.com/google/uuid"
)

type TimeSlotHandler struct {
	timeSlotUsecase usecase.TimeSlotUsecase
}

func NewTimeSlotHandler(timeSlotUsecase usecase.TimeSlotUsecase) *TimeSlotHandler {
	return &TimeSlotHandler{
		timeSlotUsecase: timeSlotUsecase,
	}
}

func (h *TimeSlotHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	date := query.Get("date")
	if date == "" {
		response.BadRequest(w, "date query parameter is required")
		return
	}

	var exclude *uuid.UUID
	if raw := query.Get("exclude_booking_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(w, "Invalid exclude_booking_id")
			return
		}
		exclude = &id
	}

	availability, err := h.timeSlotUsecase.GetAvailability(r.Context(), date, exclude)
	if err != nil {
		writeError(w, err, "Failed to get time slots")
		return
	}

	response.Success(w, http.StatusOK, "Time slots retrieved successfully", availability)
}
