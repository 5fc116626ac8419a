package services

import "errors"

// Sentinel errors returned by the service layer. Handlers translate these
// into HTTP status codes with errors.Is.
var (
	// ErrValidation marks missing or malformed input.
	ErrValidation = errors.New("validation error")
	// ErrUnauthorized marks bad credentials or an unresolvable token subject.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden marks an authenticated caller acting on a resource they do not own.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound marks a missing poll or user.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks duplicate usernames, emails, comments or bookmarks.
	ErrConflict = errors.New("conflict")
)
