package service

import "errors"

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden is returned when the user's roles do not allow an action
	ErrForbidden = errors.New("permission denied")

	// ErrUnauthorized is returned when the request carries no business context
	ErrUnauthorized = errors.New("unauthorized")

	// ErrEstimateLocked is returned when changing an estimate that is no longer a draft
	ErrEstimateLocked = errors.New("estimate is locked")

	// ErrInvalidStatusTransition is returned when a status change is not allowed from the current status
	ErrInvalidStatusTransition = errors.New("invalid status transition")

	// ErrMarginBelowMinimum is returned when submitting an estimate whose net margin is below the business minimum
	ErrMarginBelowMinimum = errors.New("net margin below minimum profit margin")

	// ErrSettingsNotConfigured is returned when an operation needs business settings that do not exist
	ErrSettingsNotConfigured = errors.New("business settings not configured")

	// ErrLineItemNotFound is returned when an estimate has no line item with the given ID
	ErrLineItemNotFound = errors.New("line item not found")

	// ErrExportNotFound is returned when a stored export does not exist
	ErrExportNotFound = errors.New("export not found")
)
