package handler

import (
	"encoding/json"
	"net/http"

	"workshop-scheduler/internal/delivery/dto"
	"workshop-scheduler/internal/usecase"
	"workshop-scheduler/pkg/response"
	"workshop-scheduler/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type BookingHandler struct {
	bookingUsecase usecase.BookingUsecase
	queryUsecase   usecase.BookingQueryUsecase
	validator      *validator.CustomValidator
}

func NewBookingHandler(bookingUsecase usecase.BookingUsecase, queryUsecase usecase.BookingQueryUsecase, validator *validator.CustomValidator) *BookingHandler {
	return &BookingHandler{
		bookingUsecase: bookingUsecase,
		queryUsecase:   queryUsecase,
		validator:      validator,
	}
}

func (h *BookingHandler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	booking, err := h.bookingUsecase.CreateBooking(r.Context(), &req)
	if err != nil {
		writeError(w, err, "Failed to create booking")
		return
	}

	message := "Booking created and technician assigned"
	if booking.Assignment == dto.AssignmentNoneAvailable {
		message = "Booking created, no technician available yet"
	}
	response.Success(w, http.StatusCreated, message, booking)
}

func (h *BookingHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := bookingIDFromPath(w, r)
	if !ok {
		return
	}

	booking, err := h.bookingUsecase.GetBooking(r.Context(), bookingID)
	if err != nil {
		writeError(w, err, "Failed to get booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking retrieved successfully", booking)
}

func (h *BookingHandler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := bookingIDFromPath(w, r)
	if !ok {
		return
	}

	var req dto.UpdateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	booking, err := h.bookingUsecase.UpdateBooking(r.Context(), bookingID, &req)
	if err != nil {
		writeError(w, err, "Failed to update booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking updated successfully", booking)
}

func (h *BookingHandler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := bookingIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.bookingUsecase.DeleteBooking(r.Context(), bookingID); err != nil {
		writeError(w, err, "Failed to delete booking")
		return
	}

	response.Success(w, http.StatusOK, "Booking deleted successfully", nil)
}

func (h *BookingHandler) AssignTechnician(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := bookingIDFromPath(w, r)
	if !ok {
		return
	}

	var req dto.AssignTechnicianRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	booking, err := h.bookingUsecase.AssignTechnician(r.Context(), bookingID, uuid.MustParse(req.TechnicianID))
	if err != nil {
		writeError(w, err, "Failed to assign technician")
		return
	}

	response.Success(w, http.StatusOK, "Technician assigned successfully", booking)
}

func (h *BookingHandler) AutoAssignTechnician(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := bookingIDFromPath(w, r)
	if !ok {
		return
	}

	booking, err := h.bookingUsecase.AutoAssignTechnician(r.Context(), bookingID)
	if err != nil {
		writeError(w, err, "Failed to auto-assign technician")
		return
	}

	response.Success(w, http.StatusOK, "Technician assigned successfully", booking)
}

func (h *BookingHandler) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := bookingIDFromPath(w, r)
	if !ok {
		return
	}

	var req dto.TransitionStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	booking, err := h.bookingUsecase.TransitionStatus(r.Context(), bookingID, &req)
	if err != nil {
		writeError(w, err, "Failed to update booking status")
		return
	}

	response.Success(w, http.StatusOK, "Booking status updated successfully", booking)
}

func (h *BookingHandler) GetMyBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.queryUsecase.GetMyBookings(r.Context())
	if err != nil {
		writeError(w, err, "Failed to get bookings")
		return
	}

	response.Success(w, http.StatusOK, "Bookings retrieved successfully", bookings)
}

// ListBookings serves ?status= or ?view=; view defaults to active.
func (h *BookingHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var (
		bookings *dto.BookingListResponse
		err      error
	)
	if status := query.Get("status"); status != "" {
		bookings, err = h.queryUsecase.GetBookingsByStatus(r.Context(), status)
	} else {
		view := query.Get("view")
		if view == "" {
			view = usecase.ViewActive
		}
		bookings, err = h.queryUsecase.GetBookingsView(r.Context(), view)
	}
	if err != nil {
		writeError(w, err, "Failed to get bookings")
		return
	}

	response.Success(w, http.StatusOK, "Bookings retrieved successfully", bookings)
}

func (h *BookingHandler) SearchBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.queryUsecase.SearchBookings(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err, "Failed to search bookings")
		return
	}

	response.Success(w, http.StatusOK, "Bookings retrieved successfully", bookings)
}

func (h *BookingHandler) GetVehicleHistory(w http.ResponseWriter, r *http.Request) {
	vehicleNumber := mux.Vars(r)["vehicleNumber"]

	bookings, err := h.queryUsecase.GetVehicleHistory(r.Context(), vehicleNumber)
	if err != nil {
		writeError(w, err, "Failed to get vehicle history")
		return
	}

	response.Success(w, http.StatusOK, "Vehicle history retrieved successfully", bookings)
}

func bookingIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	bookingID, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid booking ID", nil)
		return uuid.Nil, false
	}
	return bookingID, true
}
