// Package feed renders staff schedules as iCalendar documents and validates
// the structural correctness of calendar documents.
package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/salon-scheduler/backend/internal/storage/models"
)

// Field length bounds imposed by downstream calendar clients.
const (
	MaxSummaryLength     = 1000
	MaxDescriptionLength = 8192
)

// Status is the tri-state lifecycle status of a feed event.
type Status int

const (
	StatusTentative Status = iota
	StatusConfirmed
	StatusCancelled
)

// String returns the iCalendar STATUS property value.
func (s Status) String() string {
	switch s {
	case StatusTentative:
		return "TENTATIVE"
	case StatusConfirmed:
		return "CONFIRMED"
	case StatusCancelled:
		return "CANCELLED"
	}
	return "TENTATIVE"
}

// StatusFromAppointment maps an appointment status onto the feed tri-state.
// The switch is exhaustive over the closed appointment status set; an
// unknown status is reported as an error instead of silently defaulting.
func StatusFromAppointment(s models.AppointmentStatus) (Status, error) {
	switch s {
	case models.AppointmentPending:
		return StatusTentative, nil
	case models.AppointmentConfirmed, models.AppointmentCompleted:
		return StatusConfirmed, nil
	case models.AppointmentCancelled, models.AppointmentNoShow:
		return StatusCancelled, nil
	}
	return StatusTentative, fmt.Errorf("unmapped appointment status: %s", s)
}

// Event is a normalized projection of one appointment, rebuilt on every
// render from the appointment record.
type Event struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	TimeZone    string
	Location    string
	Status      Status
	Organizer   string
	Attendee    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewEvent validates event fields at construction time. Over-length free
// text is rejected explicitly rather than silently truncated, and the end
// instant must be strictly after the start.
func NewEvent(ev Event) (Event, error) {
	if ev.ID == "" {
		return Event{}, fmt.Errorf("event ID must not be empty")
	}
	if !ev.End.After(ev.Start) {
		return Event{}, fmt.Errorf("event %s: end must be after start", ev.ID)
	}
	if len(ev.Summary) > MaxSummaryLength {
		return Event{}, fmt.Errorf("event %s: summary exceeds %d characters", ev.ID, MaxSummaryLength)
	}
	if len(ev.Description) > MaxDescriptionLength {
		return Event{}, fmt.Errorf("event %s: description exceeds %d characters", ev.ID, MaxDescriptionLength)
	}
	return ev, nil
}

// EventFromAppointment builds the feed projection of an appointment.
func EventFromAppointment(d models.AppointmentDetail, timeZone string) (Event, error) {
	status, err := StatusFromAppointment(d.Status)
	if err != nil {
		return Event{}, err
	}

	var desc strings.Builder
	fmt.Fprintf(&desc, "Service: %s\n", d.ServiceName)
	fmt.Fprintf(&desc, "Customer: %s\n", d.CustomerName)
	if d.CustomerContact != "" {
		fmt.Fprintf(&desc, "Contact: %s\n", d.CustomerContact)
	}
	if d.Notes != nil && *d.Notes != "" {
		fmt.Fprintf(&desc, "Notes: %s\n", *d.Notes)
	}

	location := ""
	if d.Location != nil {
		location = *d.Location
	}

	return NewEvent(Event{
		ID:          d.ID,
		Summary:     d.ServiceName + " - " + d.CustomerName,
		Description: strings.TrimRight(desc.String(), "\n"),
		Start:       d.StartsAt,
		End:         d.EndsAt,
		TimeZone:    timeZone,
		Location:    location,
		Status:      status,
		Organizer:   d.StaffEmail,
		Attendee:    d.CustomerContact,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	})
}
