package domain

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Problem implements RFC 9457
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	Extensions map[string]interface{} `json:"-"`

	Log error `json:"-"`
}

func (p *Problem) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

func (p *Problem) MarshalJSON() ([]byte, error) {
	type Alias Problem

	data := make(map[string]interface{})

	for k, v := range p.Extensions {
		data[k] = v
	}

	stdJSON, _ := json.Marshal(Alias(*p))
	_ = json.Unmarshal(stdJSON, &data)

	return json.Marshal(data)
}

type ProblemOption func(*Problem)

// New creates a generic Problem
func New(status int, title, detail string, opts ...ProblemOption) *Problem {
	p := &Problem{
		Type:       "about:blank", // Default as per RFC
		Title:      title,
		Status:     status,
		Detail:     detail,
		Extensions: make(map[string]interface{}),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// WithExtension adds a custom key-value pair to the response
func WithExtension(key string, value interface{}) ProblemOption {
	return func(p *Problem) {
		p.Extensions[key] = value
	}
}

// WithLog attaches an internal error for server-side logging
func WithLog(err error) ProblemOption {
	return func(p *Problem) {
		p.Log = err
	}
}

// ValidationError creates a rich validation error
func ValidationError(validationErrors map[string]string) *Problem {
	return New(
		http.StatusBadRequest,
		"Validation Error",
		"One or more fields failed validation",
		WithExtension("errors", validationErrors),
	)
}

// Error defines a standard error shape for the API
type Error struct {
	// HTTP Status Code (e.g., 400, 502, 503)
	Code int
	// Safe message for the client
	Message string
	// Original error for internal logging
	Log error
}

// Error implements standard error interface
func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Log
}

// BadRequestError creates a standard error for a bad request
func BadRequestError(msg string) *Error {
	return &Error{Code: http.StatusBadRequest, Message: msg}
}

// InternalError creates a standard error for any internal server error
func InternalError(msg string, err error) *Error {
	return &Error{Code: http.StatusInternalServerError, Message: msg, Log: err}
}

// UnauthorizedError creates a 401 unauthed error
func UnauthorizedError(msg string) *Error {
	return &Error{Code: http.StatusUnauthorized, Message: msg}
}

// NoModelsError signals that no candidate model passed health filtering.
// Terminal for the request; retrying cannot change availability.
func NoModelsError() *Error {
	return &Error{Code: http.StatusServiceUnavailable, Message: "no models available"}
}

// ExhaustedError is the terminal aggregate after every candidate was tried.
func ExhaustedError(attempted int, last error) *Error {
	msg := fmt.Sprintf("all models exhausted after %d attempt(s)", attempted)
	if last != nil {
		msg = fmt.Sprintf("%s: last error: %v", msg, last)
	}
	return &Error{Code: http.StatusBadGateway, Message: msg, Log: last}
}

// CatalogError wraps a catalog fetch/parse failure. Never fatal once a
// last-good candidate list exists.
func CatalogError(err error) *Error {
	return &Error{Code: http.StatusBadGateway, Message: "catalog fetch failed", Log: err}
}
