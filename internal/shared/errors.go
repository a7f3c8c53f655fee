package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("session token expired")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrUnexpectedResponse = fmt.Errorf("unexpected response")

	// Settings errors
	ErrBelowFloor       = fmt.Errorf("amount below category minimum")
	ErrNotInteger       = fmt.Errorf("amount is not a whole number")
	ErrChargingDisabled = fmt.Errorf("charging customers is disabled")
	ErrNotReady         = fmt.Errorf("settings not loaded")
	ErrBusy             = fmt.Errorf("operation already in progress")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
