package spaces

import (
	"errors"
	"fmt"
	"net/http"
)

const notEnabledMessage = "This API is not yet supported. Your workspace may not be enabled for the Genie API private preview."

// Error is returned when the workspace rejects or fails a request. StatusCode is the HTTP
// status reported by the server, or 0 when no response was received.
type Error struct {
	StatusCode int
	ErrorCode  string
	Message    string

	err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("genie space error (%d): %s", e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error {
	return e.err
}

// ValidationError reports a missing or invalid argument, detected before any request is
// sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("genie space error (%d): invalid %s: %s", http.StatusBadRequest, e.Field, e.Message)
}

// StatusCode is always 400 Bad Request
func (e *ValidationError) StatusCode() int {
	return http.StatusBadRequest
}

// httpStatusCoder is implemented by transport errors that carry a response status,
// such as *workspace.APIError.
type httpStatusCoder interface {
	HTTPStatusCode() int
}

type errorCoder interface {
	APIErrorCode() string
}

// newError translates a transport failure into an *Error
func newError(err error) *Error {
	e := &Error{Message: err.Error(), err: err}

	var sc httpStatusCoder
	if errors.As(err, &sc) {
		e.StatusCode = sc.HTTPStatusCode()
	}
	var ec errorCoder
	if errors.As(err, &ec) {
		e.ErrorCode = ec.APIErrorCode()
	}
	var msg interface{ APIMessage() string }
	if errors.As(err, &msg) && msg.APIMessage() != "" {
		e.Message = msg.APIMessage()
	}

	if e.StatusCode == http.StatusNotImplemented {
		e.Message = notEnabledMessage
	}
	return e
}

// StatusCode returns the status carried by err: the server status for *Error, 400 for
// *ValidationError, and 0 for anything else.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.StatusCode()
	}
	return 0
}

// IsNotFound reports whether err means the space does not exist
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsPermissionDenied reports whether the caller lacks permission on the space
func IsPermissionDenied(err error) bool {
	return StatusCode(err) == http.StatusForbidden
}

// IsNotEnabled reports whether the Genie API is not enabled on the workspace
func IsNotEnabled(err error) bool {
	return StatusCode(err) == http.StatusNotImplemented
}
