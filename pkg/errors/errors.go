package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"

	// Session state
	ErrorTypeNotAuthenticated ErrorType = "not_authenticated"
	ErrorTypeLoginFailed      ErrorType = "login_failed"
	ErrorTypeNotImplemented   ErrorType = "not_implemented"

	// Failure pages served in place of a submission
	ErrorTypeSubmissionNotFound ErrorType = "submission_not_found"
	ErrorTypeIPBanned           ErrorType = "ip_banned"
	ErrorTypeMaturityRestricted ErrorType = "maturity_restricted"
	ErrorTypeAccessDenied       ErrorType = "access_denied"

	// File references
	ErrorTypeFileUnreachable      ErrorType = "file_unreachable"
	ErrorTypeFileAlreadyExists    ErrorType = "file_already_exists"
	ErrorTypeInvalidArgument      ErrorType = "invalid_argument"
	ErrorTypeUnsupportedAlgorithm ErrorType = "unsupported_algorithm"
	ErrorTypeStorage              ErrorType = "storage"
)

// Error represents a scraper error with type information
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Type)
	}
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Type, msg)
}

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same type, so sentinels
// below can be matched with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// New creates an error of the given type
func New(t ErrorType, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an error of the given type around a cause
func Wrap(t ErrorType, err error, format string, args ...interface{}) *Error {
	return &Error{Type: t, Message: fmt.Sprintf(format, args...), Err: err}
}

// TypeOf returns the ErrorType of the first *Error in err's chain, or
// ErrorTypeUnknown.
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotAuthenticated     = &Error{Type: ErrorTypeNotAuthenticated, Message: "operation requires a logged in session"}
	ErrLoginFailed          = &Error{Type: ErrorTypeLoginFailed, Message: "session cookies were rejected"}
	ErrNotImplemented       = &Error{Type: ErrorTypeNotImplemented, Message: "not implemented"}
	ErrSubmissionNotFound   = &Error{Type: ErrorTypeSubmissionNotFound, Message: "submission has been taken down or does not exist"}
	ErrIPBanned             = &Error{Type: ErrorTypeIPBanned, Message: "this IP address has been banned"}
	ErrMaturityRestricted   = &Error{Type: ErrorTypeMaturityRestricted, Message: "submission is hidden by the account maturity filter"}
	ErrAccessDenied         = &Error{Type: ErrorTypeAccessDenied, Message: "access to the submission was denied"}
	ErrFileUnreachable      = &Error{Type: ErrorTypeFileUnreachable, Message: "file could not be fetched"}
	ErrFileAlreadyExists    = &Error{Type: ErrorTypeFileAlreadyExists, Message: "destination file already exists"}
	ErrInvalidArgument      = &Error{Type: ErrorTypeInvalidArgument, Message: "invalid argument"}
	ErrUnsupportedAlgorithm = &Error{Type: ErrorTypeUnsupportedAlgorithm, Message: "unsupported hash algorithm"}
	ErrStorage              = &Error{Type: ErrorTypeStorage, Message: "file could not be written"}
)

// IsDomainError reports whether err is one of the failure-page kinds raised
// before a submission is parsed.
func IsDomainError(err error) bool {
	switch TypeOf(err) {
	case ErrorTypeSubmissionNotFound, ErrorTypeIPBanned, ErrorTypeMaturityRestricted, ErrorTypeAccessDenied:
		return true
	default:
		return false
	}
}
