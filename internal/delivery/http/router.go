package http

import (
	"net/http"

	"workshop-scheduler/internal/delivery/http/handler"
	"workshop-scheduler/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const serviceName = "workshop-scheduler"

type Router struct {
	router              *mux.Router
	bookingHandler      *handler.BookingHandler
	timeSlotHandler     *handler.TimeSlotHandler
	technicianHandler   *handler.TechnicianHandler
	reportHandler       *handler.ReportHandler
	auditLogHandler     *handler.AuditLogHandler
	sessionHandler      *handler.SessionHandler
	authMiddleware      *middleware.AuthMiddleware
	corsMiddleware      *middleware.CORSMiddleware
	rateLimitMiddleware *middleware.RateLimitMiddleware
}

func NewRouter(
	bookingHandler *handler.BookingHandler,
	timeSlotHandler *handler.TimeSlotHandler,
	technicianHandler *handler.TechnicianHandler,
	reportHandler *handler.ReportHandler,
	auditLogHandler *handler.AuditLogHandler,
	sessionHandler *handler.SessionHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		bookingHandler:      bookingHandler,
		timeSlotHandler:     timeSlotHandler,
		technicianHandler:   technicianHandler,
		reportHandler:       reportHandler,
		auditLogHandler:     auditLogHandler,
		sessionHandler:      sessionHandler,
		authMiddleware:      authMiddleware,
		corsMiddleware:      corsMiddleware,
		rateLimitMiddleware: rateLimitMiddleware,
	}
}

// Setup registers the routes and returns the router wrapped in tracing, CORS
// and rate limiting. The wrappers sit outside mux so preflight requests, which
// match no route, still get CORS headers.
func (r *Router) Setup() http.Handler {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Session routes (protected)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.Use(r.authMiddleware.Authenticate)
	auth.HandleFunc("/me", r.sessionHandler.GetCurrentUser).Methods(http.MethodGet)
	auth.HandleFunc("/logout", r.sessionHandler.Logout).Methods(http.MethodPost)

	// Time slots (any authenticated user)
	slots := api.PathPrefix("/time-slots").Subrouter()
	slots.Use(r.authMiddleware.Authenticate)
	slots.HandleFunc("", r.timeSlotHandler.GetAvailability).Methods(http.MethodGet)

	// Bookings. Paths are shared between roles, so gating is per route.
	bookings := api.PathPrefix("/bookings").Subrouter()
	bookings.Use(r.authMiddleware.Authenticate)
	bookings.Handle("", middleware.RequireWorkshop(http.HandlerFunc(r.bookingHandler.ListBookings))).Methods(http.MethodGet)
	bookings.HandleFunc("", r.bookingHandler.CreateBooking).Methods(http.MethodPost)
	bookings.Handle("/me", middleware.RequireCustomer(http.HandlerFunc(r.bookingHandler.GetMyBookings))).Methods(http.MethodGet)
	bookings.HandleFunc("/search", r.bookingHandler.SearchBookings).Methods(http.MethodGet)
	bookings.Handle("/vehicle/{vehicleNumber}", middleware.RequireWorkshop(http.HandlerFunc(r.bookingHandler.GetVehicleHistory))).Methods(http.MethodGet)
	bookings.HandleFunc("/{id}", r.bookingHandler.GetBooking).Methods(http.MethodGet)
	bookings.HandleFunc("/{id}", r.bookingHandler.UpdateBooking).Methods(http.MethodPatch)
	bookings.HandleFunc("/{id}", r.bookingHandler.DeleteBooking).Methods(http.MethodDelete)
	bookings.Handle("/{id}/status", middleware.RequireWorkshop(http.HandlerFunc(r.bookingHandler.TransitionStatus))).Methods(http.MethodPost)
	bookings.Handle("/{id}/assign", middleware.RequireStaff(http.HandlerFunc(r.bookingHandler.AssignTechnician))).Methods(http.MethodPost)
	bookings.Handle("/{id}/auto-assign", middleware.RequireStaff(http.HandlerFunc(r.bookingHandler.AutoAssignTechnician))).Methods(http.MethodPost)
	bookings.Handle("/{id}/history", middleware.RequireStaff(http.HandlerFunc(r.auditLogHandler.GetBookingHistory))).Methods(http.MethodGet)

	// Technicians
	technicians := api.PathPrefix("/technicians").Subrouter()
	technicians.Use(r.authMiddleware.Authenticate)
	technicians.Handle("/me/bookings", middleware.RequireTechnician(http.HandlerFunc(r.technicianHandler.GetMyAssignedBookings))).Methods(http.MethodGet)
	technicians.Handle("", middleware.RequireStaff(http.HandlerFunc(r.technicianHandler.GetAvailableTechnicians))).Methods(http.MethodGet)
	technicians.Handle("/{id}/bookings", middleware.RequireWorkshop(http.HandlerFunc(r.technicianHandler.GetTechnicianBookings))).Methods(http.MethodGet)
	technicians.Handle("/{id}/availability", middleware.RequireStaff(http.HandlerFunc(r.technicianHandler.CheckAvailability))).Methods(http.MethodGet)

	// Reports (manager, admin)
	reports := api.PathPrefix("/reports").Subrouter()
	reports.Use(r.authMiddleware.Authenticate)
	reports.Use(middleware.RequireStaff)
	reports.HandleFunc("/statistics", r.reportHandler.GetStatistics).Methods(http.MethodGet)
	reports.HandleFunc("/service-types", r.reportHandler.GetServiceTypes).Methods(http.MethodGet)
	reports.HandleFunc("/bookings.xlsx", r.reportHandler.ExportBookings).Methods(http.MethodGet)

	// Admin routes (protected - admin only)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/audit-logs", r.auditLogHandler.ListAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs/{id}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	// Outermost first: tracing, CORS, then rate limiting.
	var h http.Handler = r.router
	h = r.rateLimitMiddleware.Handle(h)
	h = r.corsMiddleware.Handle(h)
	return otelhttp.NewMiddleware(serviceName)(h)
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
