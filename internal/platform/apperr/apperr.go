// Package apperr defines the categorised errors reported by the booking and
// scheduling operations. Every expected failure carries a category label, a
// short title and a human-readable message; handlers translate them to HTTP
// responses with HTTPError.
package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Category labels an expected failure.
type Category string

const (
	MissingField        Category = "MissingField"
	NotFound            Category = "NotFound"
	OutsideWorkingHours Category = "OutsideWorkingHours"
	OverlapDetected     Category = "OverlapDetected"
	InvoicingFailed     Category = "InvoicingFailed"
	InvalidTransition   Category = "InvalidTransition"
	InvalidInput        Category = "InvalidInput"
)

var categoryStatus = map[Category]int{
	MissingField:        http.StatusBadRequest,
	NotFound:            http.StatusNotFound,
	OutsideWorkingHours: http.StatusUnprocessableEntity,
	OverlapDetected:     http.StatusConflict,
	InvoicingFailed:     http.StatusBadGateway,
	InvalidTransition:   http.StatusConflict,
	InvalidInput:        http.StatusBadRequest,
}

// Error is a single structured failure. Err optionally holds the underlying
// cause and is exposed through Unwrap.
type Error struct {
	Category Category `json:"category"`
	Title    string   `json:"title,omitempty"`
	Message  string   `json:"message"`
	Err      error    `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// MarshalJSON renders the response body. echo's error handler prefers a
// json.Marshaler over the error string, so the category and title reach the
// client.
func (e *Error) MarshalJSON() ([]byte, error) {
	type body Error
	return json.Marshal((*body)(e))
}

// New returns an error of the given category.
func New(cat Category, title, message string) *Error {
	return &Error{Category: cat, Title: title, Message: message}
}

// Wrap returns an error of the given category that keeps err as its cause.
func Wrap(cat Category, err error, message string) *Error {
	return &Error{Category: cat, Message: message, Err: err}
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// Is reports whether err carries the given category.
func Is(err error, cat Category) bool {
	ae, ok := As(err)
	return ok && ae.Category == cat
}

// Status returns the HTTP status for a category, 500 for unknown ones.
func Status(cat Category) int {
	if code, ok := categoryStatus[cat]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// HTTPError converts err into an *echo.HTTPError. Categorised errors keep
// their structured body; anything else becomes a 500 carrying fallback.
func HTTPError(err error, fallback string) *echo.HTTPError {
	if ae, ok := As(err); ok {
		return echo.NewHTTPError(Status(ae.Category), ae)
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	return echo.NewHTTPError(http.StatusInternalServerError, fallback).SetInternal(err)
}
