package models

import (
	"time"
)

// AppointmentStatus is the lifecycle status of an appointment. It is a closed
// set; mapping code switches over every value so an unmapped status is caught
// rather than falling through as a bare string.
type AppointmentStatus string

const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentNoShow    AppointmentStatus = "no_show"
)

// Valid reports whether the status is one of the known values.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentPending, AppointmentConfirmed, AppointmentCompleted,
		AppointmentCancelled, AppointmentNoShow:
		return true
	}
	return false
}

// IsCancelled reports whether the status represents a cancellation,
// including customers who never showed up.
func (s AppointmentStatus) IsCancelled() bool {
	return s == AppointmentCancelled || s == AppointmentNoShow
}

func (s AppointmentStatus) String() string {
	return string(s)
}

// Service represents a bookable salon service.
type Service struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DurationMin int       `json:"duration_min"`
	PriceCents  int       `json:"price_cents"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Appointment represents a booked appointment between a customer and a
// staff member for a given service.
type Appointment struct {
	ID         string            `json:"id"`
	StaffID    string            `json:"staff_id"`
	CustomerID string            `json:"customer_id"`
	ServiceID  string            `json:"service_id"`
	StartsAt   time.Time         `json:"starts_at"`
	EndsAt     time.Time         `json:"ends_at"`
	Status     AppointmentStatus `json:"status"`
	Notes      *string           `json:"notes,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Duration returns the appointment length.
func (a *Appointment) Duration() time.Duration {
	return a.EndsAt.Sub(a.StartsAt)
}

// AppointmentDetail joins an appointment with the customer, staff and
// service rows it references, as needed for feed rendering and provider sync.
type AppointmentDetail struct {
	Appointment
	CustomerName    string  `json:"customer_name"`
	CustomerContact string  `json:"customer_contact,omitempty"`
	StaffName       string  `json:"staff_name"`
	StaffEmail      string  `json:"staff_email"`
	ServiceName     string  `json:"service_name"`
	Location        *string `json:"location,omitempty"`
}
