package feed

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salon-scheduler/backend/internal/storage/models"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer("America/New_York")
	require.NoError(t, err)
	return r
}

func testEvent(id string) Event {
	start := time.Date(2026, 6, 10, 14, 0, 0, 0, time.UTC)
	return Event{
		ID:        id,
		Summary:   "Haircut - Dana Lee",
		Start:     start,
		End:       start.Add(45 * time.Minute),
		TimeZone:  "America/New_York",
		Status:    StatusConfirmed,
		Organizer: "alex@salon.example.com",
	}
}

func TestRenderEmptyFeedIsValid(t *testing.T) {
	r := newTestRenderer(t)

	doc, skipped := r.Render("Alex - Salon Scheduler", nil)
	assert.Empty(t, skipped)

	result := Validate(doc)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)

	assert.True(t, strings.HasPrefix(doc, "BEGIN:VCALENDAR\r\n"))
	assert.True(t, strings.HasSuffix(doc, "END:VCALENDAR\r\n"))
	assert.Contains(t, doc, "BEGIN:VTIMEZONE\r\n")
	assert.NotContains(t, doc, "BEGIN:VEVENT")
}

func TestRenderCRLFThroughout(t *testing.T) {
	r := newTestRenderer(t)

	doc, _ := r.Render("feed", []Event{testEvent("a1")})

	for i := 0; i < len(doc); i++ {
		if doc[i] == '\n' {
			require.Greater(t, i, 0)
			assert.Equal(t, byte('\r'), doc[i-1], "LF at offset %d lacks CR", i)
		}
	}
}

func TestRenderEscaping(t *testing.T) {
	r := newTestRenderer(t)

	event := testEvent("esc1")
	event.Description = `back\slash, semi;colon` + "\nsecond line"

	doc, skipped := r.Render("feed", []Event{event})
	assert.Empty(t, skipped)

	assert.Contains(t, doc, `DESCRIPTION:back\\slash\, semi\;colon\nsecond line`)

	// Reversing the escapes recovers the original text.
	escaped := `back\\slash\, semi\;colon\nsecond line`
	unescaped := strings.NewReplacer(`\n`, "\n", `\,`, ",", `\;`, ";", `\\`, `\`).Replace(escaped)
	assert.Equal(t, event.Description, unescaped)
}

func TestRenderFoldsLongLines(t *testing.T) {
	r := newTestRenderer(t)

	event := testEvent("long1")
	event.Description = strings.Repeat("word ", 200) + "end"

	doc, skipped := r.Render("feed", []Event{event})
	assert.Empty(t, skipped)

	lines := strings.Split(strings.TrimRight(doc, "\r\n"), "\r\n")
	sawContinuation := false
	for _, line := range lines {
		assert.LessOrEqual(t, len(line), 75, "line exceeds 75 octets: %q", line)
		if strings.HasPrefix(line, " ") {
			sawContinuation = true
		}
	}
	assert.True(t, sawContinuation, "long description should fold")

	// Unfolding recovers the original content line.
	unfolded := strings.ReplaceAll(doc, "\r\n ", "")
	assert.Contains(t, unfolded, "DESCRIPTION:"+escapeText(event.Description))

	assert.True(t, Validate(doc).Valid)
}

func TestRenderFoldsOnRuneBoundaries(t *testing.T) {
	r := newTestRenderer(t)

	event := testEvent("long2")
	event.Summary = strings.Repeat("é", 120)

	doc, skipped := r.Render("feed", []Event{event})
	assert.Empty(t, skipped)

	for _, line := range strings.Split(strings.TrimRight(doc, "\r\n"), "\r\n") {
		assert.True(t, utf8.ValidString(line), "fold split a rune: %q", line)
		assert.LessOrEqual(t, len(line), 75)
	}
}

func TestRenderUIDIdempotent(t *testing.T) {
	r := newTestRenderer(t)

	events := []Event{testEvent("appt-42")}
	first, _ := r.Render("feed", events)
	second, _ := r.Render("feed", events)

	uid := "UID:appt-42@" + uidDomain + "\r\n"
	assert.Contains(t, first, uid)
	assert.Contains(t, second, uid)
}

func TestRenderOmitsCancelled(t *testing.T) {
	r := newTestRenderer(t)

	kept := testEvent("kept")
	cancelled := testEvent("gone")
	cancelled.Status = StatusCancelled

	doc, skipped := r.Render("feed", []Event{kept, cancelled})
	assert.Empty(t, skipped)

	assert.Contains(t, doc, "UID:kept@")
	assert.NotContains(t, doc, "UID:gone@")
}

func TestRenderSkipsInvalidEvents(t *testing.T) {
	r := newTestRenderer(t)

	good := testEvent("good")
	bad := testEvent("bad")
	bad.End = bad.Start

	doc, skipped := r.Render("feed", []Event{bad, good})

	require.Len(t, skipped, 1)
	assert.Contains(t, skipped[0], "bad")

	assert.Contains(t, doc, "UID:good@")
	assert.NotContains(t, doc, "UID:bad@")
	assert.True(t, Validate(doc).Valid)
}

func TestRenderTimeZoneBlock(t *testing.T) {
	r := newTestRenderer(t)

	doc, _ := r.Render("feed", nil)

	assert.Contains(t, doc, "TZID:America/New_York\r\n")
	assert.Contains(t, doc, "BEGIN:DAYLIGHT\r\n")
	assert.Contains(t, doc, "BEGIN:STANDARD\r\n")
	assert.Contains(t, doc, "TZOFFSETTO:-0400\r\n")
	assert.Contains(t, doc, "TZOFFSETTO:-0500\r\n")
}

func TestRenderUTCZoneBlock(t *testing.T) {
	r, err := NewRenderer("UTC")
	require.NoError(t, err)

	doc, _ := r.Render("feed", nil)

	assert.Contains(t, doc, "TZID:UTC\r\n")
	assert.Contains(t, doc, "TZOFFSETTO:+0000\r\n")
	assert.NotContains(t, doc, "BEGIN:DAYLIGHT")
}

func TestNewRendererUnknownZone(t *testing.T) {
	_, err := NewRenderer("Not/AZone")
	assert.Error(t, err)
}

func TestValidateReportsAllViolations(t *testing.T) {
	doc := "BEGIN:VCALENDAR\nVERSION:1.0\nEND:VCALENDAR\n"

	result := Validate(doc)
	assert.False(t, result.Valid)

	// LF endings, missing VERSION:2.0, missing PRODID, missing CALSCALE
	// are all reported at once.
	assert.GreaterOrEqual(t, len(result.Errors), 4)
}

func TestValidateMissingMarkers(t *testing.T) {
	result := Validate("VERSION:2.0\r\nPRODID:-//x//EN\r\nCALSCALE:GREGORIAN\r\n")
	assert.False(t, result.Valid)
	assert.Contains(t, result.Errors, "document does not begin with BEGIN:VCALENDAR")
	assert.Contains(t, result.Errors, "document does not end with END:VCALENDAR")
}

func TestValidateEventOrdering(t *testing.T) {
	doc := strings.Join([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//x//EN",
		"CALSCALE:GREGORIAN",
		"BEGIN:VEVENT",
		"UID:bad@salon-scheduler",
		"DTSTART:20260610T150000Z",
		"DTEND:20260610T140000Z",
		"END:VEVENT",
		"END:VCALENDAR",
	}, "\r\n") + "\r\n"

	result := Validate(doc)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "DTEND is not after DTSTART")
}

func TestValidateEmptyDocument(t *testing.T) {
	result := Validate("")
	assert.False(t, result.Valid)
	assert.NotEmpty(t, result.Errors)
}

func TestStatusFromAppointment(t *testing.T) {
	cases := []struct {
		in   models.AppointmentStatus
		want Status
	}{
		{models.AppointmentPending, StatusTentative},
		{models.AppointmentConfirmed, StatusConfirmed},
		{models.AppointmentCompleted, StatusConfirmed},
		{models.AppointmentCancelled, StatusCancelled},
		{models.AppointmentNoShow, StatusCancelled},
	}

	for _, tc := range cases {
		got, err := StatusFromAppointment(tc.in)
		require.NoError(t, err, "status %s", tc.in)
		assert.Equal(t, tc.want, got, "status %s", tc.in)
	}

	_, err := StatusFromAppointment(models.AppointmentStatus("walk_in"))
	assert.Error(t, err)
}

func TestNewEventRejectsOversizedText(t *testing.T) {
	event := testEvent("big")
	event.Summary = strings.Repeat("s", MaxSummaryLength+1)
	_, err := NewEvent(event)
	assert.Error(t, err)

	event = testEvent("big")
	event.Description = strings.Repeat("d", MaxDescriptionLength+1)
	_, err = NewEvent(event)
	assert.Error(t, err)
}

func TestEventFromAppointment(t *testing.T) {
	notes := "prefers window seat"
	detail := models.AppointmentDetail{
		Appointment: models.Appointment{
			ID:       "appt-7",
			StartsAt: time.Date(2026, 6, 10, 14, 0, 0, 0, time.UTC),
			EndsAt:   time.Date(2026, 6, 10, 14, 45, 0, 0, time.UTC),
			Status:   models.AppointmentConfirmed,
			Notes:    &notes,
		},
		CustomerName:    "Dana Lee",
		CustomerContact: "+1 555 0100",
		StaffName:       "Alex",
		StaffEmail:      "alex@salon.example.com",
		ServiceName:     "Haircut",
	}

	event, err := EventFromAppointment(detail, "America/New_York")
	require.NoError(t, err)

	assert.Equal(t, "appt-7", event.ID)
	assert.Equal(t, "Haircut - Dana Lee", event.Summary)
	assert.Equal(t, StatusConfirmed, event.Status)
	assert.Contains(t, event.Description, "Service: Haircut")
	assert.Contains(t, event.Description, "Customer: Dana Lee")
	assert.Contains(t, event.Description, "Contact: +1 555 0100")
	assert.Contains(t, event.Description, "Notes: prefers window seat")
	assert.Equal(t, "alex@salon.example.com", event.Organizer)
}
