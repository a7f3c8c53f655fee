package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/dhunjam/internal/shared"
	"github.com/tidwall/gjson"
)

// Fallback messages shown when the API does not supply ui_err_msg.
const (
	FallbackLoginMessage  = "Failed to login"
	FallbackLoadMessage   = "Failed to get data"
	FallbackUpdateMessage = "Failed to update data"
)

// APIError describes a failed admin API call.
//
// Message holds the server's ui_err_msg when one was sent.
type APIError struct {
	Op         string // login, get, update
	StatusCode int    // HTTP status, 0 for transport failures
	BodyStatus int    // "status" field of the envelope, 0 when absent
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v", e.Op, shared.ErrAPIRequest)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": http %d", e.StatusCode)
	}
	if e.BodyStatus != 0 && e.BodyStatus != e.StatusCode {
		fmt.Fprintf(&b, " (status %d)", e.BodyStatus)
	}
	if e.Message != "" {
		fmt.Fprintf(&b, ": %s", e.Message)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap exposes [shared.ErrAPIRequest] and the cause, plus [shared.ErrNotAuthenticated] on 401/403
// and [shared.ErrServiceUnavailable] on 5xx.
func (e *APIError) Unwrap() []error {
	errs := []error{shared.ErrAPIRequest}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Unauthorized() {
		errs = append(errs, shared.ErrNotAuthenticated)
	}
	if e.StatusCode >= http.StatusInternalServerError {
		errs = append(errs, shared.ErrServiceUnavailable)
	}
	return errs
}

// Unauthorized reports whether the server rejected the session token.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// UserMessage returns the server supplied message carried by err, or fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// userMessage pulls ui_err_msg out of an error body, tolerating non-JSON bodies.
func userMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	return strings.TrimSpace(gjson.GetBytes(body, "ui_err_msg").String())
}
