package handler

import (
	"net/http"
	"strconv"

	"workshop-scheduler/internal/delivery/dto"
	"workshop-scheduler/internal/usecase"
	"workshop-scheduler/pkg/response"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type AuditLogHandler struct {
	auditLogUsecase usecase.AuditLogUsecase
}

func NewAuditLogHandler(auditLogUsecase usecase.AuditLogUsecase) *AuditLogHandler {
	return &AuditLogHandler{
		auditLogUsecase: auditLogUsecase,
	}
}

func (h *AuditLogHandler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	auditLogID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid audit log ID", nil)
		return
	}

	auditLog, err := h.auditLogUsecase.GetAuditLog(r.Context(), auditLogID)
	if err != nil {
		writeError(w, err, "Failed to get audit log")
		return
	}

	response.Success(w, http.StatusOK, "Audit log retrieved successfully", auditLog)
}

// ListAuditLogs accepts booking_id, user_id, action, page and limit.
func (h *AuditLogHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	query, errs := parseAuditLogQuery(r)
	if len(errs) > 0 {
		response.ValidationError(w, errs)
		return
	}

	auditLogs, err := h.auditLogUsecase.GetAuditLogs(r.Context(), query)
	if err != nil {
		writeError(w, err, "Failed to get audit logs")
		return
	}

	response.SuccessWithMeta(w, http.StatusOK, "Audit logs retrieved successfully", auditLogs.Logs, &response.Meta{
		Page:       auditLogs.Page,
		Limit:      auditLogs.Limit,
		Total:      auditLogs.Total,
		TotalPages: auditLogs.TotalPages(),
	})
}

func (h *AuditLogHandler) GetBookingHistory(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := bookingIDFromPath(w, r)
	if !ok {
		return
	}

	history, err := h.auditLogUsecase.GetBookingHistory(r.Context(), bookingID)
	if err != nil {
		writeError(w, err, "Failed to get booking history")
		return
	}

	response.Success(w, http.StatusOK, "Booking history retrieved successfully", history)
}

func parseAuditLogQuery(r *http.Request) (*dto.AuditLogQuery, map[string]string) {
	q := r.URL.Query()
	query := &dto.AuditLogQuery{Action: q.Get("action")}
	errs := map[string]string{}

	for field, dst := range map[string]**uuid.UUID{"booking_id": &query.BookingID, "user_id": &query.UserID} {
		if raw := q.Get(field); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				errs[field] = field + " must be a valid UUID"
				continue
			}
			*dst = &id
		}
	}

	for field, dst := range map[string]*int{"page": &query.Page, "limit": &query.Limit} {
		if raw := q.Get(field); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				errs[field] = field + " must be a positive integer"
				continue
			}
			*dst = n
		}
	}

	return query, errs
}
