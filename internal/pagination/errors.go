package pagination

import "github.com/pkg/errors"

var (
	// ErrInactive is returned when no document is active, or the document
	// was stopped or replaced while a request was waiting.
	ErrInactive = errors.New("no active document")

	// ErrUnavailable is returned when the scheduler did not answer within
	// the request timeout.
	ErrUnavailable = errors.New("page index temporarily unavailable")

	// ErrClosed is returned after the service has been closed.
	ErrClosed = errors.New("pagination service closed")

	// ErrSectionRange is returned for sections outside of the document.
	ErrSectionRange = errors.New("section out of range")
)
