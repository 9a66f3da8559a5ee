package models

import (
	"time"
)

// Customer represents a salon customer.
type Customer struct {
	ID        string     `json:"id"`
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Email     *string    `json:"email,omitempty"`
	Phone     *string    `json:"phone,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// FullName returns the customer's display name.
func (c *Customer) FullName() string {
	if c.LastName == "" {
		return c.FirstName
	}
	return c.FirstName + " " + c.LastName
}

// ContactLine returns the best available contact detail for the customer,
// preferring phone over email. Returns an empty string when neither is set.
func (c *Customer) ContactLine() string {
	if c.Phone != nil && *c.Phone != "" {
		return *c.Phone
	}
	if c.Email != nil && *c.Email != "" {
		return *c.Email
	}
	return ""
}
