package backend

import (
	"fmt"
	"net/http"
	"time"
)

// TimeoutError is returned when a request did not settle before the client timeout elapsed.
type TimeoutError struct {
	Op    string
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("backend: %s: request timed out after %s", e.Op, e.After)
}

// ConnectivityError is returned when the backend could not be reached at all.
type ConnectivityError struct {
	Op  string
	URL string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("backend: %s: cannot reach server at %s: %v", e.Op, e.URL, e.Err)
}

// Unwrap exposes the transport error.
func (e *ConnectivityError) Unwrap() error { return e.Err }

// HTTPStatusError is returned for non-2xx responses. Message holds the server supplied
// message when the body carried one.
type HTTPStatusError struct {
	Op      string
	Status  int
	Message string
}

func (e *HTTPStatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %s: status %d: %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("backend: %s: status %d: %s", e.Op, e.Status, http.StatusText(e.Status))
}

// UserMessage returns the text shown to the user: the server message, else the HTTP status.
func (e *HTTPStatusError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP Error: %d", e.Status)
}

// ApplicationError is returned when the response envelope reports success=false.
type ApplicationError struct {
	Op      string
	Message string
}

func (e *ApplicationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: %s: request was not successful", e.Op)
	}
	return fmt.Sprintf("backend: %s: %s", e.Op, e.Message)
}
