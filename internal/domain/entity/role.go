package entity

// Role represents a user role in the system
type Role struct {
	ID          int    `gorm:"primaryKey;autoIncrement" json:"id"`
	RoleName    string `gorm:"type:varchar(50);uniqueIndex;not null" json:"role_name"`
	Description string `gorm:"type:text" json:"description,omitempty"`
}

func (Role) TableName() string {
	return "roles"
}

// Role ID constants
const (
	RoleIDAdmin      = 1
	RoleIDManager    = 2
	RoleIDTechnician = 3
	RoleIDCustomer   = 4
)

// RoleNames constants
const (
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleTechnician = "technician"
	RoleCustomer   = "customer"
)

// RoleNameForID maps the seeded role rows to their names.
func RoleNameForID(id int) string {
	switch id {
	case RoleIDAdmin:
		return RoleAdmin
	case RoleIDManager:
		return RoleManager
	case RoleIDTechnician:
		return RoleTechnician
	case RoleIDCustomer:
		return RoleCustomer
	}
	return ""
}

// RoleIDForName is the inverse of RoleNameForID; unknown names yield 0.
func RoleIDForName(name string) int {
	switch name {
	case RoleAdmin:
		return RoleIDAdmin
	case RoleManager:
		return RoleIDManager
	case RoleTechnician:
		return RoleIDTechnician
	case RoleCustomer:
		return RoleIDCustomer
	}
	return 0
}
