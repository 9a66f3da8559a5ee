package feed

import (
	"fmt"
	"strings"
	"time"
)

// ValidationResult reports every structural defect found in a candidate
// calendar document, rather than failing on the first.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate checks that a calendar document is structurally well-formed:
// matching open/close markers, mandatory declarations, CRLF line endings,
// and per-event start/end ordering where both instants are parseable.
func Validate(document string) ValidationResult {
	var errs []string

	if document == "" {
		return ValidationResult{Valid: false, Errors: []string{"document is empty"}}
	}

	// Every line feed must be part of a CRLF pair.
	for i := 0; i < len(document); i++ {
		if document[i] == '\n' && (i == 0 || document[i-1] != '\r') {
			errs = append(errs, "document contains LF line endings without CR")
			break
		}
	}

	lines := strings.Split(strings.TrimRight(document, "\r\n"), "\r\n")

	if len(lines) == 0 || lines[0] != "BEGIN:VCALENDAR" {
		errs = append(errs, "document does not begin with BEGIN:VCALENDAR")
	}
	if len(lines) == 0 || lines[len(lines)-1] != "END:VCALENDAR" {
		errs = append(errs, "document does not end with END:VCALENDAR")
	}

	var (
		hasVersion  bool
		hasProdID   bool
		hasCalScale bool
		inEvent     bool
		eventStart  time.Time
		eventEnd    time.Time
		eventUID    string
	)

	for _, line := range lines {
		switch {
		case line == "VERSION:2.0":
			hasVersion = true
		case strings.HasPrefix(line, "PRODID:"):
			hasProdID = true
		case strings.HasPrefix(line, "CALSCALE:"):
			hasCalScale = true
		case line == "BEGIN:VEVENT":
			if inEvent {
				errs = append(errs, "nested BEGIN:VEVENT")
			}
			inEvent = true
			eventStart, eventEnd = time.Time{}, time.Time{}
			eventUID = ""
		case line == "END:VEVENT":
			if !inEvent {
				errs = append(errs, "END:VEVENT without matching BEGIN:VEVENT")
				continue
			}
			if eventUID == "" {
				errs = append(errs, "event is missing a UID")
			}
			if !eventStart.IsZero() && !eventEnd.IsZero() && !eventEnd.After(eventStart) {
				errs = append(errs, fmt.Sprintf("event %s: DTEND is not after DTSTART", eventUID))
			}
			inEvent = false
		case inEvent && strings.HasPrefix(line, "UID:"):
			eventUID = strings.TrimPrefix(line, "UID:")
		case inEvent && strings.HasPrefix(line, "DTSTART:"):
			eventStart = parseDateTime(strings.TrimPrefix(line, "DTSTART:"))
		case inEvent && strings.HasPrefix(line, "DTEND:"):
			eventEnd = parseDateTime(strings.TrimPrefix(line, "DTEND:"))
		}
	}

	if inEvent {
		errs = append(errs, "unterminated VEVENT block")
	}
	if !hasVersion {
		errs = append(errs, "missing VERSION:2.0 declaration")
	}
	if !hasProdID {
		errs = append(errs, "missing PRODID declaration")
	}
	if !hasCalScale {
		errs = append(errs, "missing CALSCALE declaration")
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// parseDateTime parses the compact UTC datetime used in feed output.
// Returns the zero time when the value is not parseable.
func parseDateTime(value string) time.Time {
	t, err := time.Parse(dateTimeFormat, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
