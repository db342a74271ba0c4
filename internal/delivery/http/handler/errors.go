package handler

import (
	"errors"
	"net/http"

	"workshop-scheduler/internal/service"
	"workshop-scheduler/internal/usecase"
	"workshop-scheduler/pkg/response"
)

// writeError maps usecase errors onto the response envelope. Anything it does
// not recognise is a 500 with the fallback message.
func writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, usecase.ErrUnauthenticated):
		response.Unauthorized(w, "Authentication required")

	case errors.Is(err, usecase.ErrForbidden):
		response.Forbidden(w, "You are not allowed to perform this action")
	case errors.Is(err, usecase.ErrBookingNotOwned):
		response.Forbidden(w, "Booking does not belong to you")

	case errors.Is(err, usecase.ErrBookingNotFound):
		response.NotFound(w, "Booking not found")
	case errors.Is(err, usecase.ErrCustomerNotFound):
		response.NotFound(w, "Customer not found")
	case errors.Is(err, usecase.ErrTechnicianNotFound):
		response.NotFound(w, "Technician not found")
	case errors.Is(err, usecase.ErrUserNotFound):
		response.NotFound(w, "User not found")
	case errors.Is(err, usecase.ErrAuditLogNotFound):
		response.NotFound(w, "Audit log not found")

	case errors.Is(err, usecase.ErrInvalidDateFormat),
		errors.Is(err, usecase.ErrIncompleteReschedule),
		errors.Is(err, usecase.ErrPastSchedule),
		errors.Is(err, usecase.ErrInvalidEstimatedCost),
		errors.Is(err, usecase.ErrInvalidStatus),
		errors.Is(err, usecase.ErrInvalidView),
		errors.Is(err, usecase.ErrNotATechnician):
		response.BadRequest(w, err.Error())

	case errors.Is(err, usecase.ErrDuplicateActiveBooking),
		errors.Is(err, usecase.ErrSchedulingConflict),
		errors.Is(err, usecase.ErrNoTechnicianAvailable):
		response.Conflict(w, err.Error())

	case errors.Is(err, usecase.ErrInvalidTransition),
		errors.Is(err, usecase.ErrDeletionBlocked),
		errors.Is(err, usecase.ErrBookingNotEditable),
		errors.Is(err, usecase.ErrTechnicianRequired),
		errors.Is(err, usecase.ErrTechnicianInactive):
		response.UnprocessableEntity(w, err.Error())

	case errors.Is(err, service.ErrLockTimeout):
		response.Error(w, http.StatusLocked, "Booking is busy, please retry", nil)
	case errors.Is(err, usecase.ErrRevocationOffline):
		response.ServiceUnavailable(w, "Logout is temporarily unavailable")

	default:
		response.InternalServerError(w, fallback)
	}
}
