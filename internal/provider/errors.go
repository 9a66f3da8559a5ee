package provider

import (
	"errors"

	"google.golang.org/api/googleapi"
)

// ErrorClass is the fixed set of provider error categories.
type ErrorClass string

const (
	ErrAuthExpired      ErrorClass = "auth_expired"
	ErrPermissionDenied ErrorClass = "permission_denied"
	ErrNotFound         ErrorClass = "not_found"
	ErrRateLimited      ErrorClass = "rate_limited"
	ErrWriteConflict    ErrorClass = "write_conflict"
	ErrUnknown          ErrorClass = "unknown"
)

// userMessages maps each class to its user-facing message. Raw provider
// error text is never surfaced.
var userMessages = map[ErrorClass]string{
	ErrAuthExpired:      "Calendar authorization has expired. Reconnect the calendar to resume syncing.",
	ErrPermissionDenied: "The connected account does not have permission to modify this calendar.",
	ErrNotFound:         "The connected calendar could not be found. It may have been deleted.",
	ErrRateLimited:      "The calendar provider is limiting requests. Syncing will retry shortly.",
	ErrWriteConflict:    "An event changed in the provider calendar at the same time. It will be reconciled on the next sync.",
	ErrUnknown:          "Calendar sync failed due to an unexpected provider error.",
}

// ClassifyError maps a provider error onto one of the fixed categories and
// its user-facing message. Errors that are not provider HTTP errors, and
// unrecognized status codes, fall through to the unknown category.
func ClassifyError(err error) (ErrorClass, string) {
	var gErr *googleapi.Error
	if !errors.As(err, &gErr) {
		return ErrUnknown, userMessages[ErrUnknown]
	}

	class := ClassifyStatus(gErr.Code)
	return class, userMessages[class]
}

// ClassifyStatus maps an HTTP-style provider status code onto an ErrorClass.
func ClassifyStatus(code int) ErrorClass {
	switch code {
	case 401:
		return ErrAuthExpired
	case 403:
		return ErrPermissionDenied
	case 404:
		return ErrNotFound
	case 409:
		return ErrWriteConflict
	case 429:
		return ErrRateLimited
	}
	return ErrUnknown
}

// Message returns the user-facing message for a class.
func (c ErrorClass) Message() string {
	if msg, ok := userMessages[c]; ok {
		return msg
	}
	return userMessages[ErrUnknown]
}
