// Package models contains the domain models for the application.
package models

import (
	"time"
)

// Staff represents a staff member whose schedule can be published and synced.
type Staff struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     *string    `json:"phone,omitempty"`
	Role      string     `json:"role"`
	Active    bool       `json:"active"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Staff role constants
const (
	RoleStylist      = "stylist"
	RoleColorist     = "colorist"
	RoleReceptionist = "receptionist"
	RoleManager      = "manager"
)
