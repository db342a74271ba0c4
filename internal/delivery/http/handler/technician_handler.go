package handler

import (
	"net/http"
	"strconv"

	"workshop-scheduler/internal/usecase"
	"workshop-scheduler/pkg/response"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type TechnicianHandler struct {
	technicianUsecase usecase.TechnicianUsecase
	queryUsecase      usecase.BookingQueryUsecase
}

func NewTechnicianHandler(technicianUsecase usecase.TechnicianUsecase, queryUsecase usecase.BookingQueryUsecase) *TechnicianHandler {
	return &TechnicianHandler{
		technicianUsecase: technicianUsecase,
		queryUsecase:      queryUsecase,
	}
}

func (h *TechnicianHandler) GetAvailableTechnicians(w http.ResponseWriter, r *http.Request) {
	technicians, err := h.technicianUsecase.GetAvailableTechnicians(r.Context())
	if err != nil {
		writeError(w, err, "Failed to get technicians")
		return
	}

	response.Success(w, http.StatusOK, "Technicians retrieved successfully", technicians)
}

func (h *TechnicianHandler) GetTechnicianBookings(w http.ResponseWriter, r *http.Request) {
	technicianID, ok := technicianIDFromPath(w, r)
	if !ok {
		return
	}

	bookings, err := h.queryUsecase.GetTechnicianBookings(r.Context(), technicianID)
	if err != nil {
		writeError(w, err, "Failed to get technician bookings")
		return
	}

	response.Success(w, http.StatusOK, "Bookings retrieved successfully", bookings)
}

func (h *TechnicianHandler) GetMyAssignedBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.queryUsecase.GetMyAssignedBookings(r.Context())
	if err != nil {
		writeError(w, err, "Failed to get assigned bookings")
		return
	}

	response.Success(w, http.StatusOK, "Bookings retrieved successfully", bookings)
}

func (h *TechnicianHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	technicianID, ok := technicianIDFromPath(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	date, clock := query.Get("date"), query.Get("time")
	if date == "" || clock == "" {
		response.BadRequest(w, "date and time query parameters are required")
		return
	}

	var duration int
	if raw := query.Get("duration"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.BadRequest(w, "duration must be a positive number of minutes")
			return
		}
		duration = parsed
	}

	availability, err := h.technicianUsecase.CheckAvailability(r.Context(), technicianID, date, clock, duration)
	if err != nil {
		writeError(w, err, "Failed to check technician availability")
		return
	}

	response.Success(w, http.StatusOK, "Technician availability retrieved successfully", availability)
}

func technicianIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	technicianID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid technician ID", nil)
		return uuid.Nil, false
	}
	return technicianID, true
}
