// Package errors defines the error taxonomy shared by the harness wrappers
// and the web utility.
//
//	┌─────────────────────────┬──────────────────────────────────────────────┐
//	│  Error                  │  Raised when                                 │
//	├─────────────────────────┼──────────────────────────────────────────────┤
//	│  ValidationError        │  caller input is malformed (never retried)   │
//	│  NotSetError            │  a session value is read before being set    │
//	│  RequestFailedError     │  an HTTP response carries status >= 400      │
//	│  RetriesExhaustedError  │  a retryable failure outlived the policy     │
//	│  ResourceError          │  a DB/SSH connect or statement fails         │
//	│  ResourceNotFoundError  │  a stored record does not exist              │
//	└─────────────────────────┴──────────────────────────────────────────────┘
//
// Every type has a matching Is* helper that unwraps with errors.As.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

type NotSetError struct {
	What string
}

func (e *NotSetError) Error() string {
	return fmt.Sprintf("%s not set", e.What)
}

func NewTokenNotSetError() *NotSetError {
	return &NotSetError{What: "token"}
}

func IsNotSetError(err error) bool {
	var e *NotSetError
	return errors.As(err, &e)
}

// RequestFailedError is returned when the final response status is a
// client or server error.
type RequestFailedError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("%s %s failed: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// ServerSide reports whether the failure was a 5xx.
func (e *RequestFailedError) ServerSide() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

func NewRequestFailedError(method, url string, status int, body string) *RequestFailedError {
	return &RequestFailedError{Method: method, URL: url, StatusCode: status, Body: body}
}

func IsRequestFailedError(err error) bool {
	var e *RequestFailedError
	return errors.As(err, &e)
}

type RetriesExhaustedError struct {
	Attempts int
	Last     error
}

func (e *RetriesExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *RetriesExhaustedError) Unwrap() error {
	return e.Last
}

func NewRetriesExhaustedError(attempts int, last error) *RetriesExhaustedError {
	return &RetriesExhaustedError{Attempts: attempts, Last: last}
}

func IsRetriesExhaustedError(err error) bool {
	var e *RetriesExhaustedError
	return errors.As(err, &e)
}

// ResourceError wraps a failure of an external resource (database, ssh host).
type ResourceError struct {
	Resource string
	Op       string
	Err      error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Resource, e.Op, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

func NewResourceError(resource, op string, err error) *ResourceError {
	return &ResourceError{Resource: resource, Op: op, Err: err}
}

func IsResourceError(err error) bool {
	var e *ResourceError
	return errors.As(err, &e)
}

type ResourceNotFoundError struct {
	Kind string
	ID   string
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func NewSavedQueryNotFoundError(id int64) *ResourceNotFoundError {
	return &ResourceNotFoundError{Kind: "saved query", ID: fmt.Sprintf("%d", id)}
}

func NewEnvironmentNotFoundError(name string) *ResourceNotFoundError {
	return &ResourceNotFoundError{Kind: "environment", ID: name}
}

func NewDatabaseAliasNotFoundError(alias string) *ResourceNotFoundError {
	return &ResourceNotFoundError{Kind: "database alias", ID: alias}
}

func IsResourceNotFoundError(err error) bool {
	var e *ResourceNotFoundError
	return errors.As(err, &e)
}
