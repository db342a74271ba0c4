package middleware

import (
	"net/http"

	"workshop-scheduler/internal/domain/entity"
	"workshop-scheduler/pkg/response"
)

// Role sets gating the routes. Handlers still apply per-booking ownership.
var (
	adminRoles      = []string{entity.RoleAdmin}
	staffRoles      = []string{entity.RoleAdmin, entity.RoleManager}
	workshopRoles   = []string{entity.RoleAdmin, entity.RoleManager, entity.RoleTechnician}
	technicianRoles = []string{entity.RoleTechnician}
	customerRoles   = []string{entity.RoleCustomer}
)

// RequireRole admits actors whose role is one of allowedRoles. It must run
// after Authenticate.
func RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedRoles))
	for _, role := range allowedRoles {
		allowed[role] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := GetActorFromContext(r.Context())
			if !ok {
				response.Unauthorized(w, "Authentication required")
				return
			}

			if !allowed[actor.Role] {
				response.Forbidden(w, "Your role cannot access this resource")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(adminRoles...)(next)
}

// RequireStaff admits admins and managers.
func RequireStaff(next http.Handler) http.Handler {
	return RequireRole(staffRoles...)(next)
}

func RequireTechnician(next http.Handler) http.Handler {
	return RequireRole(technicianRoles...)(next)
}

func RequireCustomer(next http.Handler) http.Handler {
	return RequireRole(customerRoles...)(next)
}

// RequireWorkshop admits technicians and staff.
func RequireWorkshop(next http.Handler) http.Handler {
	return RequireRole(workshopRoles...)(next)
}
