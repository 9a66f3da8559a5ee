// Package provider translates appointments into an external calendar
// provider's event model and tracks sync outcomes.
package provider

import (
	"fmt"
	"strings"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/salon-scheduler/backend/internal/storage/models"
)

// appointmentIDMarker prefixes the back-reference line embedded in every
// event description this system creates. It lets a later inbound read
// recognize our events without a separate mapping table.
const appointmentIDMarker = "salon-appointment-id:"

// BusinessContext carries the business identity attached to pushed events.
type BusinessContext struct {
	Name     string
	URL      string
	TimeZone string
}

// ToProviderEvent builds the provider representation of an appointment.
// Unlike the pull feed, cancelled appointments are not omitted: the
// provider needs an explicit cancellation signal, so the status is mapped
// through.
func ToProviderEvent(d models.AppointmentDetail, biz BusinessContext) (*calendar.Event, error) {
	status, err := providerStatus(d.Status)
	if err != nil {
		return nil, err
	}

	var desc strings.Builder
	fmt.Fprintf(&desc, "Service: %s\n", d.ServiceName)
	fmt.Fprintf(&desc, "Duration: %d min\n", int(d.Duration().Minutes()))
	fmt.Fprintf(&desc, "Customer: %s\n", d.CustomerName)
	if d.CustomerContact != "" {
		fmt.Fprintf(&desc, "Contact: %s\n", d.CustomerContact)
	}
	if d.Notes != nil && *d.Notes != "" {
		fmt.Fprintf(&desc, "Notes: %s\n", *d.Notes)
	}
	fmt.Fprintf(&desc, "\n%s%s", appointmentIDMarker, d.ID)

	event := &calendar.Event{
		Summary:     d.ServiceName + " — " + d.CustomerName,
		Description: desc.String(),
		Status:      status,
		Start: &calendar.EventDateTime{
			DateTime: d.StartsAt.Format("2006-01-02T15:04:05Z07:00"),
			TimeZone: biz.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: d.EndsAt.Format("2006-01-02T15:04:05Z07:00"),
			TimeZone: biz.TimeZone,
		},
		Source: &calendar.EventSource{
			Title: biz.Name,
			Url:   biz.URL,
		},
	}

	if d.Location != nil && *d.Location != "" {
		event.Location = *d.Location
	}

	return event, nil
}

// providerStatus maps the closed appointment status set onto the provider's
// status enum. Cancelled variants are mapped, not dropped.
func providerStatus(s models.AppointmentStatus) (string, error) {
	switch s {
	case models.AppointmentPending:
		return "tentative", nil
	case models.AppointmentConfirmed, models.AppointmentCompleted:
		return "confirmed", nil
	case models.AppointmentCancelled, models.AppointmentNoShow:
		return "cancelled", nil
	}
	return "", fmt.Errorf("unmapped appointment status: %s", s)
}

// IsOurEvent reports whether an event read back from the provider was
// created by this system.
func IsOurEvent(event *calendar.Event) bool {
	return ExtractAppointmentID(event) != ""
}

// ExtractAppointmentID parses the back-reference marker out of the event
// description. Returns an empty string rather than an error when the marker
// is absent or malformed, since provider calendars routinely contain events
// this system did not create.
func ExtractAppointmentID(event *calendar.Event) string {
	if event == nil || event.Description == "" {
		return ""
	}

	for _, line := range strings.Split(event.Description, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, appointmentIDMarker) {
			continue
		}
		return strings.TrimSpace(strings.TrimPrefix(line, appointmentIDMarker))
	}

	return ""
}
