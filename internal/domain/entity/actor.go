package entity

import "github.com/google/uuid"

// Actor is the validated caller of an operation, as asserted by the identity provider.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

func (a Actor) IsAdmin() bool      { return a.Role == RoleAdmin }
func (a Actor) IsManager() bool    { return a.Role == RoleManager }
func (a Actor) IsTechnician() bool { return a.Role == RoleTechnician }
func (a Actor) IsCustomer() bool   { return a.Role == RoleCustomer }

// IsStaff covers roles that manage the workshop schedule.
func (a Actor) IsStaff() bool {
	return a.IsAdmin() || a.IsManager()
}

// CanView reports whether the actor may read the booking.
func (a Actor) CanView(b *Booking) bool {
	switch {
	case a.IsStaff():
		return true
	case a.IsTechnician():
		return b.IsAssignedTo(a.UserID)
	default:
		return b.IsOwnedBy(a.UserID)
	}
}
