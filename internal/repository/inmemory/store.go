// Package inmemory implements the repository contracts over maps. It backs
// usecase, service and worker tests; transactions snapshot and restore state
// so rollbacks behave like the database.
package inmemory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"workshop-scheduler/internal/domain/entity"
	domainRepo "workshop-scheduler/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ActiveVehicleConstraint mirrors the partial unique index of the SQL schema.
const ActiveVehicleConstraint = "uq_bookings_active_vehicle"

type Store struct {
	mu        sync.Mutex
	bookings  map[uuid.UUID]entity.Booking
	users     map[uuid.UUID]entity.User
	auditLogs []entity.AuditLog

	// Err, when set, is returned by every repository call.
	Err error
	// SaveErr, when set, is returned by booking Create and Save only.
	SaveErr error
}

func NewStore() *Store {
	return &Store{
		bookings: make(map[uuid.UUID]entity.Booking),
		users:    make(map[uuid.UUID]entity.User),
	}
}

// AddUser registers a user with the given role and returns it.
func (s *Store) AddUser(fullName string, roleID int, active bool) entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	isActive := active
	u := entity.User{
		ID:       uuid.New(),
		RoleID:   roleID,
		FullName: fullName,
		Email:    strings.ToLower(strings.ReplaceAll(fullName, " ", ".")) + "@example.com",
		IsActive: &isActive,
		Role:     entity.Role{ID: roleID, RoleName: entity.RoleNameForID(roleID)},
	}
	s.users[u.ID] = u
	return u
}

// PutBooking stores b as-is, bypassing uniqueness checks.
func (s *Store) PutBooking(b entity.Booking) entity.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}
	if b.EstimatedDurationMinutes == 0 {
		b.EstimatedDurationMinutes = entity.DefaultEstimatedDurationMinutes
	}
	b.Customer, b.Technician = nil, nil
	s.bookings[b.ID] = b
	return b
}

// Booking returns the stored booking by id.
func (s *Store) Booking(id uuid.UUID) (entity.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[id]
	return b, ok
}

// BookingCount returns the number of stored bookings.
func (s *Store) BookingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

// AuditLogs returns a copy of the recorded audit entries.
func (s *Store) AuditLogs() []entity.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.AuditLog, len(s.auditLogs))
	copy(out, s.auditLogs)
	return out
}

func (s *Store) Bookings() domainRepo.BookingRepository       { return &bookingRepo{s: s} }
func (s *Store) Users() domainRepo.UserRepository             { return &userRepo{s: s} }
func (s *Store) Technicians() domainRepo.TechnicianRepository { return &technicianRepo{s: s} }
func (s *Store) AuditLogRepo() domainRepo.AuditLogRepository  { return &auditLogRepo{s: s} }
func (s *Store) Transactor() domainRepo.Transactor            { return &transactor{s: s} }

// =============================================================================
// Transactor
// =============================================================================

type transactor struct {
	s *Store
	// serializes transactions the way row locks would
	txMu sync.Mutex
}

func (t *transactor) Conn(ctx context.Context) *gorm.DB { return nil }

func (t *transactor) WithinTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	t.txMu.Lock()
	defer t.txMu.Unlock()

	t.s.mu.Lock()
	bookings := make(map[uuid.UUID]entity.Booking, len(t.s.bookings))
	for k, v := range t.s.bookings {
		bookings[k] = v
	}
	logs := len(t.s.auditLogs)
	t.s.mu.Unlock()

	if err := fn(nil); err != nil {
		t.s.mu.Lock()
		t.s.bookings = bookings
		t.s.auditLogs = t.s.auditLogs[:logs]
		t.s.mu.Unlock()
		return err
	}
	return nil
}

// =============================================================================
// Bookings
// =============================================================================

type bookingRepo struct {
	s *Store
}

func (r *bookingRepo) Create(db *gorm.DB, booking *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.writeErr(); err != nil {
		return err
	}
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now()
	}
	if err := r.s.checkActiveVehicle(booking); err != nil {
		return err
	}
	stored := *booking
	stored.Customer, stored.Technician = nil, nil
	r.s.bookings[booking.ID] = stored
	return nil
}

func (r *bookingRepo) Save(db *gorm.DB, booking *entity.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.s.writeErr(); err != nil {
		return err
	}
	if err := r.s.checkActiveVehicle(booking); err != nil {
		return err
	}
	stored := *booking
	stored.Customer, stored.Technician = nil, nil
	r.s.bookings[booking.ID] = stored
	return nil
}

func (r *bookingRepo) Delete(db *gorm.DB, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.Err != nil {
		return r.s.Err
	}
	delete(r.s.bookings, id)
	return nil
}

func (r *bookingRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.Err != nil {
		return nil, r.s.Err
	}
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, nil
	}
	out := r.s.withRelations(b)
	return &out, nil
}

func (r *bookingRepo) FindByIDForUpdate(db *gorm.DB, id uuid.UUID) (*entity.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.Err != nil {
		return nil, r.s.Err
	}
	b, ok := r.s.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *bookingRepo) FindForTechnicianInWindow(db *gorm.DB, technicianID uuid.UUID, start, end time.Time) ([]entity.Booking, error) {
	return r.s.filter(func(b entity.Booking) bool {
		return b.IsAssignedTo(technicianID) && b.IsActive() && b.Overlaps(start, end)
	}, byScheduledAsc)
}

func (r *bookingRepo) FindByVehicle(db *gorm.DB, vehicleNumber string) ([]entity.Booking, error) {
	key := entity.NormalizeVehicleNumber(vehicleNumber)
	return r.s.filter(func(b entity.Booking) bool {
		return entity.NormalizeVehicleNumber(b.VehicleNumber) == key
	}, byScheduledDesc)
}

func (r *bookingRepo) HasActiveBookingForVehicle(db *gorm.DB, vehicleNumber string) (bool, error) {
	key := entity.NormalizeVehicleNumber(vehicleNumber)
	found, err := r.s.filter(func(b entity.Booking) bool {
		return b.IsActive() && entity.NormalizeVehicleNumber(b.VehicleNumber) == key
	}, nil)
	return len(found) > 0, err
}

func (r *bookingRepo) FindTechnicianWorkload(db *gorm.DB) (map[uuid.UUID]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.Err != nil {
		return nil, r.s.Err
	}
	workload := make(map[uuid.UUID]int64)
	for _, b := range r.s.bookings {
		if b.TechnicianID == nil {
			continue
		}
		if b.Status == entity.BookingStatusAssigned || b.Status == entity.BookingStatusInProgress {
			workload[*b.TechnicianID]++
		}
	}
	return workload, nil
}

func (r *bookingRepo) FindByCustomerID(db *gorm.DB, customerID uuid.UUID) ([]entity.Booking, error) {
	return r.s.filter(func(b entity.Booking) bool { return b.CustomerID == customerID }, byScheduledDesc)
}

func (r *bookingRepo) FindByTechnicianID(db *gorm.DB, technicianID uuid.UUID) ([]entity.Booking, error) {
	return r.s.filter(func(b entity.Booking) bool { return b.IsAssignedTo(technicianID) }, byScheduledAsc)
}

func (r *bookingRepo) FindByStatus(db *gorm.DB, status entity.BookingStatus) ([]entity.Booking, error) {
	return r.s.filter(func(b entity.Booking) bool { return b.Status == status }, byScheduledAsc)
}

func (r *bookingRepo) FindBetween(db *gorm.DB, start, end time.Time) ([]entity.Booking, error) {
	return r.s.filter(func(b entity.Booking) bool {
		return !b.ScheduledAt.Before(start) && b.ScheduledAt.Before(end)
	}, byScheduledAsc)
}

func (r *bookingRepo) FindUpcoming(db *gorm.DB, now time.Time) ([]entity.Booking, error) {
	return r.s.filter(func(b entity.Booking) bool { return b.ScheduledAt.After(now) && b.IsActive() }, byScheduledAsc)
}

func (r *bookingRepo) FindOverdue(db *gorm.DB, now time.Time) ([]entity.Booking, error) {
	return r.s.filter(func(b entity.Booking) bool { return b.ScheduledAt.Before(now) && b.IsActive() }, byScheduledAsc)
}

func (r *bookingRepo) FindPending(db *gorm.DB) ([]entity.Booking, error) {
	return r.s.filter(func(b entity.Booking) bool {
		return b.Status == entity.BookingStatusPending || b.Status == entity.BookingStatusConfirmed
	}, byCreatedAsc)
}

func (r *bookingRepo) FindActive(db *gorm.DB) ([]entity.Booking, error) {
	return r.s.filter(func(b entity.Booking) bool { return b.IsActive() }, byScheduledAsc)
}

func (r *bookingRepo) FindCreatedSince(db *gorm.DB, since time.Time) ([]entity.Booking, error) {
	return r.s.filter(func(b entity.Booking) bool { return !b.CreatedAt.Before(since) }, byCreatedDesc)
}

func (r *bookingRepo) Search(db *gorm.DB, term string) ([]entity.Booking, error) {
	term = strings.ToLower(strings.TrimSpace(term))
	r.s.mu.Lock()
	users := r.s.users
	r.s.mu.Unlock()

	return r.s.filter(func(b entity.Booking) bool {
		if term == "" {
			return true
		}
		customer := strings.ToLower(users[b.CustomerID].FullName)
		return strings.Contains(strings.ToLower(b.VehicleNumber), term) ||
			strings.Contains(strings.ToLower(b.ServiceType), term) ||
			strings.Contains(customer, term)
	}, byScheduledDesc)
}

func (r *bookingRepo) FindAll(db *gorm.DB, filter *entity.BookingFilter) ([]entity.Booking, error) {
	return r.s.filter(func(b entity.Booking) bool {
		if filter == nil {
			return true
		}
		if filter.Status != "" && b.Status != filter.Status {
			return false
		}
		if filter.ServiceType != "" && !strings.Contains(strings.ToLower(b.ServiceType), strings.ToLower(filter.ServiceType)) {
			return false
		}
		if filter.From != nil && b.ScheduledAt.Before(*filter.From) {
			return false
		}
		if filter.To != nil && !b.ScheduledAt.Before(*filter.To) {
			return false
		}
		return true
	}, byScheduledDesc)
}

func (r *bookingRepo) FindServiceTypes(db *gorm.DB) ([]string, error) {
	all, err := r.s.filter(func(entity.Booking) bool { return true }, nil)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, b := range all {
		if !seen[b.ServiceType] {
			seen[b.ServiceType] = true
			out = append(out, b.ServiceType)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *bookingRepo) CountByStatus(db *gorm.DB) ([]domainRepo.StatusCount, error) {
	all, err := r.s.filter(func(entity.Booking) bool { return true }, nil)
	if err != nil {
		return nil, err
	}
	counts := make(map[entity.BookingStatus]int64)
	for _, b := range all {
		counts[b.Status]++
	}
	out := make([]domainRepo.StatusCount, 0, len(counts))
	for _, status := range entity.AllBookingStatuses {
		if n, ok := counts[status]; ok {
			out = append(out, domainRepo.StatusCount{Status: status, Count: n})
		}
	}
	return out, nil
}

func (r *bookingRepo) CountBetween(db *gorm.DB, start, end time.Time) (int64, error) {
	found, err := r.FindBetween(db, start, end)
	return int64(len(found)), err
}

// =============================================================================
// Users and technicians
// =============================================================================

type userRepo struct {
	s *Store
}

func (r *userRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.Err != nil {
		return nil, r.s.Err
	}
	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

type technicianRepo struct {
	s *Store
}

func (r *technicianRepo) FindByID(db *gorm.DB, id uuid.UUID) (*entity.Technician, error) {
	return (&userRepo{s: r.s}).FindByID(db, id)
}

func (r *technicianRepo) FindAllActive(db *gorm.DB) ([]entity.Technician, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.Err != nil {
		return nil, r.s.Err
	}
	var out []entity.Technician
	for _, u := range r.s.users {
		if u.IsTechnician() && u.Active() {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FullName != out[j].FullName {
			return out[i].FullName < out[j].FullName
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

// =============================================================================
// Audit logs
// =============================================================================

type auditLogRepo struct {
	s *Store
}

func (r *auditLogRepo) Create(db *gorm.DB, log *entity.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.Err != nil {
		return r.s.Err
	}
	log.ID = int64(len(r.s.auditLogs) + 1)
	log.CreatedAt = time.Now()
	r.s.auditLogs = append(r.s.auditLogs, *log)
	return nil
}

func (r *auditLogRepo) FindAll(db *gorm.DB, filter entity.AuditLogFilter) ([]entity.AuditLog, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.Err != nil {
		return nil, 0, r.s.Err
	}

	matched := make([]entity.AuditLog, 0, len(r.s.auditLogs))
	for i := len(r.s.auditLogs) - 1; i >= 0; i-- {
		l := r.s.auditLogs[i]
		if filter.BookingID != nil && (l.BookingID == nil || *l.BookingID != *filter.BookingID) {
			continue
		}
		if filter.UserID != nil && (l.UserID == nil || *l.UserID != *filter.UserID) {
			continue
		}
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		matched = append(matched, l)
	}

	total := int64(len(matched))
	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []entity.AuditLog{}, total, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (r *auditLogRepo) FindByID(db *gorm.DB, id int64) (*entity.AuditLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.s.Err != nil {
		return nil, r.s.Err
	}
	for _, l := range r.s.auditLogs {
		if l.ID == id {
			found := l
			return &found, nil
		}
	}
	return nil, nil
}

// =============================================================================
// Helpers
// =============================================================================

type lessFunc func(a, b entity.Booking) bool

func byScheduledAsc(a, b entity.Booking) bool  { return a.ScheduledAt.Before(b.ScheduledAt) }
func byScheduledDesc(a, b entity.Booking) bool { return a.ScheduledAt.After(b.ScheduledAt) }
func byCreatedAsc(a, b entity.Booking) bool    { return a.CreatedAt.Before(b.CreatedAt) }
func byCreatedDesc(a, b entity.Booking) bool   { return a.CreatedAt.After(b.CreatedAt) }

func (s *Store) filter(keep func(entity.Booking) bool, less lessFunc) ([]entity.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	out := make([]entity.Booking, 0)
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, s.withRelations(b))
		}
	}
	if less != nil {
		sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	}
	return out, nil
}

func (s *Store) withRelations(b entity.Booking) entity.Booking {
	if u, ok := s.users[b.CustomerID]; ok {
		customer := u
		b.Customer = &customer
	}
	if b.TechnicianID != nil {
		if u, ok := s.users[*b.TechnicianID]; ok {
			technician := u
			b.Technician = &technician
		}
	}
	return b
}

func (s *Store) writeErr() error {
	if s.Err != nil {
		return s.Err
	}
	return s.SaveErr
}

func (s *Store) checkActiveVehicle(b *entity.Booking) error {
	if !b.IsActive() {
		return nil
	}
	key := entity.NormalizeVehicleNumber(b.VehicleNumber)
	for id, other := range s.bookings {
		if id != b.ID && other.IsActive() && entity.NormalizeVehicleNumber(other.VehicleNumber) == key {
			return &pgconn.PgError{Code: "23505", ConstraintName: ActiveVehicleConstraint}
		}
	}
	return nil
}
