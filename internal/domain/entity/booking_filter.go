package entity

import "time"

// BookingFilter is a domain-level filter for listing and exporting bookings.
// Used by repository layer to avoid coupling with delivery DTOs.
type BookingFilter struct {
	Status      BookingStatus // exact match when set
	ServiceType string        // ILIKE
	From        *time.Time    // scheduled_at >= From
	To          *time.Time    // scheduled_at < To
}
