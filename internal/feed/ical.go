package feed

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	dateTimeFormat = "20060102T150405Z"

	// uidDomain suffixes every event UID so the same appointment yields
	// the same UID across renders and calendar clients deduplicate
	// instead of duplicating.
	uidDomain = "salon-scheduler"

	prodID = "-//Salon Scheduler//Staff Feed//EN"
)

// Renderer renders feed events into an iCalendar document.
type Renderer struct {
	zone *time.Location
	now  func() time.Time
}

// NewRenderer creates a renderer declaring the given IANA time zone in its
// output so clients show local wall-clock time across DST boundaries.
func NewRenderer(timeZone string) (*Renderer, error) {
	zone, err := time.LoadLocation(timeZone)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", timeZone, err)
	}

	return &Renderer{
		zone: zone,
		now:  time.Now,
	}, nil
}

// Render produces a calendar document for the given events. Cancelled
// events are omitted entirely: the feed is regenerated fresh on every pull,
// so absence is the cancellation signal. Events that fail validation are
// skipped and reported in the second return value so one bad appointment
// does not prevent the rest of the feed from rendering.
func (r *Renderer) Render(calendarName string, events []Event) (string, []string) {
	var b strings.Builder
	var skipped []string

	b.WriteString("BEGIN:VCALENDAR\r\n")
	b.WriteString("VERSION:2.0\r\n")
	b.WriteString("PRODID:" + prodID + "\r\n")
	b.WriteString("CALSCALE:GREGORIAN\r\n")
	b.WriteString("METHOD:PUBLISH\r\n")
	writeLine(&b, "X-WR-CALNAME:"+escapeText(calendarName))
	b.WriteString("X-WR-TIMEZONE:" + r.zone.String() + "\r\n")

	r.writeTimeZone(&b)

	stamp := r.now().UTC().Format(dateTimeFormat)
	for _, event := range events {
		if event.Status == StatusCancelled {
			continue
		}
		if _, err := NewEvent(event); err != nil {
			skipped = append(skipped, err.Error())
			continue
		}
		r.writeEvent(&b, event, stamp)
	}

	b.WriteString("END:VCALENDAR\r\n")

	return b.String(), skipped
}

func (r *Renderer) writeEvent(b *strings.Builder, event Event, stamp string) {
	b.WriteString("BEGIN:VEVENT\r\n")
	b.WriteString("UID:" + event.ID + "@" + uidDomain + "\r\n")
	b.WriteString("DTSTAMP:" + stamp + "\r\n")
	b.WriteString("DTSTART:" + event.Start.UTC().Format(dateTimeFormat) + "\r\n")
	b.WriteString("DTEND:" + event.End.UTC().Format(dateTimeFormat) + "\r\n")
	writeLine(b, "SUMMARY:"+escapeText(event.Summary))

	if event.Description != "" {
		writeLine(b, "DESCRIPTION:"+escapeText(event.Description))
	}
	if event.Location != "" {
		writeLine(b, "LOCATION:"+escapeText(event.Location))
	}

	b.WriteString("STATUS:" + event.Status.String() + "\r\n")

	if event.Organizer != "" {
		b.WriteString("ORGANIZER:mailto:" + event.Organizer + "\r\n")
	}
	if event.Attendee != "" && strings.Contains(event.Attendee, "@") {
		b.WriteString("ATTENDEE:mailto:" + event.Attendee + "\r\n")
	}
	if !event.CreatedAt.IsZero() {
		b.WriteString("CREATED:" + event.CreatedAt.UTC().Format(dateTimeFormat) + "\r\n")
	}
	if !event.UpdatedAt.IsZero() {
		b.WriteString("LAST-MODIFIED:" + event.UpdatedAt.UTC().Format(dateTimeFormat) + "\r\n")
	}

	b.WriteString("END:VEVENT\r\n")
}

// writeTimeZone emits a VTIMEZONE block for the renderer's zone. Offsets
// are sampled from the zone itself; when the zone observes DST the
// transition rules follow the second-Sunday-of-March / first-Sunday-of-
// November schedule.
func (r *Renderer) writeTimeZone(b *strings.Builder) {
	year := r.now().Year()
	jan := time.Date(year, time.January, 15, 12, 0, 0, 0, r.zone)
	jul := time.Date(year, time.July, 15, 12, 0, 0, 0, r.zone)

	janName, janOffset := jan.Zone()
	julName, julOffset := jul.Zone()

	b.WriteString("BEGIN:VTIMEZONE\r\n")
	b.WriteString("TZID:" + r.zone.String() + "\r\n")

	if janOffset == julOffset {
		b.WriteString("BEGIN:STANDARD\r\n")
		b.WriteString("DTSTART:19700101T000000\r\n")
		b.WriteString("TZOFFSETFROM:" + formatOffset(janOffset) + "\r\n")
		b.WriteString("TZOFFSETTO:" + formatOffset(janOffset) + "\r\n")
		b.WriteString("TZNAME:" + janName + "\r\n")
		b.WriteString("END:STANDARD\r\n")
	} else {
		// Standard time is the smaller offset; daylight saving adds to it.
		stdName, stdOffset := janName, janOffset
		dstName, dstOffset := julName, julOffset
		if julOffset < janOffset {
			stdName, stdOffset = julName, julOffset
			dstName, dstOffset = janName, janOffset
		}

		b.WriteString("BEGIN:DAYLIGHT\r\n")
		b.WriteString("DTSTART:19700308T020000\r\n")
		b.WriteString("RRULE:FREQ=YEARLY;BYMONTH=3;BYDAY=2SU\r\n")
		b.WriteString("TZOFFSETFROM:" + formatOffset(stdOffset) + "\r\n")
		b.WriteString("TZOFFSETTO:" + formatOffset(dstOffset) + "\r\n")
		b.WriteString("TZNAME:" + dstName + "\r\n")
		b.WriteString("END:DAYLIGHT\r\n")

		b.WriteString("BEGIN:STANDARD\r\n")
		b.WriteString("DTSTART:19701101T020000\r\n")
		b.WriteString("RRULE:FREQ=YEARLY;BYMONTH=11;BYDAY=1SU\r\n")
		b.WriteString("TZOFFSETFROM:" + formatOffset(dstOffset) + "\r\n")
		b.WriteString("TZOFFSETTO:" + formatOffset(stdOffset) + "\r\n")
		b.WriteString("TZNAME:" + stdName + "\r\n")
		b.WriteString("END:STANDARD\r\n")
	}

	b.WriteString("END:VTIMEZONE\r\n")
}

// formatOffset renders a UTC offset in seconds as +hhmm/-hhmm.
func formatOffset(seconds int) string {
	sign := "+"
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	return fmt.Sprintf("%s%02d%02d", sign, seconds/3600, (seconds%3600)/60)
}

// writeLine appends a content line, folding at 75 octets with a single
// space at the start of each continuation line. Folds land on rune
// boundaries so multi-byte characters are never split.
func writeLine(b *strings.Builder, line string) {
	const limit = 75
	for len(line) > limit {
		cut := limit
		for cut > 1 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n")
		line = " " + line[cut:]
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}

// escapeText escapes free text per the iCalendar text value rules. The
// backslash must be escaped first so the other escapes are not doubled.
func escapeText(text string) string {
	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, ";", "\\;")
	text = strings.ReplaceAll(text, ",", "\\,")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\n", "\\n")
	return text
}
