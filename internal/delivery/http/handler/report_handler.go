package handler

import (
	"errors"
	"net/http"
	"time"

	"workshop-scheduler/internal/domain/entity"
	"workshop-scheduler/internal/usecase"
	"workshop-scheduler/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler struct {
	reportUsecase usecase.ReportUsecase
	loc           *time.Location
}

func NewReportHandler(reportUsecase usecase.ReportUsecase, loc *time.Location) *ReportHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReportHandler{
		reportUsecase: reportUsecase,
		loc:           loc,
	}
}

func (h *ReportHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reportUsecase.GetStatistics(r.Context())
	if err != nil {
		writeError(w, err, "Failed to get statistics")
		return
	}

	response.Success(w, http.StatusOK, "Statistics retrieved successfully", stats)
}

func (h *ReportHandler) GetServiceTypes(w http.ResponseWriter, r *http.Request) {
	serviceTypes, err := h.reportUsecase.GetServiceTypes(r.Context())
	if err != nil {
		writeError(w, err, "Failed to get service types")
		return
	}

	response.Success(w, http.StatusOK, "Service types retrieved successfully", serviceTypes)
}

// ExportBookings streams an .xlsx of bookings filtered by status, service_type
// and the from/to dates (to is inclusive).
func (h *ReportHandler) ExportBookings(w http.ResponseWriter, r *http.Request) {
	filter, err := h.parseFilter(r)
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	data, err := h.reportUsecase.ExportBookings(r.Context(), filter)
	if err != nil {
		writeError(w, err, "Failed to export bookings")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *ReportHandler) parseFilter(r *http.Request) (*entity.BookingFilter, error) {
	query := r.URL.Query()
	filter := &entity.BookingFilter{ServiceType: query.Get("service_type")}

	if raw := query.Get("status"); raw != "" {
		status, ok := entity.ParseBookingStatus(raw)
		if !ok {
			return nil, usecase.ErrInvalidStatus
		}
		filter.Status = status
	}

	if raw := query.Get("from"); raw != "" {
		from, err := time.ParseInLocation("2006-01-02", raw, h.loc)
		if err != nil {
			return nil, errors.New("from must be YYYY-MM-DD")
		}
		filter.From = &from
	}

	if raw := query.Get("to"); raw != "" {
		to, err := time.ParseInLocation("2006-01-02", raw, h.loc)
		if err != nil {
			return nil, errors.New("to must be YYYY-MM-DD")
		}
		to = to.AddDate(0, 0, 1)
		filter.To = &to
	}

	return filter, nil
}
