package certgen

import "fmt"

// ValidationError is a malformed inbound payload. When it is raised before
// a message id is known the handler answers 400 and nothing is written to
// the ledger; afterwards the event is logged as FAILED.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NotFoundError is a missing active course mapping or an unknown
// certificate on retry.
type NotFoundError struct {
	Reason string
}

func (e *NotFoundError) Error() string {
	return e.Reason
}

func notFoundErrorf(format string, args ...any) error {
	return &NotFoundError{Reason: fmt.Sprintf(format, args...)}
}

// UpstreamDataError is Docebo returning no user, no course, or a profile
// missing a required field such as the email address.
type UpstreamDataError struct {
	Reason string
}

func (e *UpstreamDataError) Error() string {
	return e.Reason
}

func upstreamDataErrorf(format string, args ...any) error {
	return &UpstreamDataError{Reason: fmt.Sprintf(format, args...)}
}
