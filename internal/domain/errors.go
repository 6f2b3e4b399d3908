package domain

// APIError is the problem-details body of every error response
type APIError struct {
	Type   string            `json:"type"`
	Title  string            `json:"title"`
	Status int               `json:"status"`
	Detail string            `json:"detail,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Title
}

// validationMessages covers tags whose message does not depend on the tag parameter
var validationMessages = map[string]string{
	"required": "This field is required",
	"dive":     "Contains an invalid entry",
	"uuid":     "Must be a valid UUID",
}

// GetValidationMessage returns a human-readable message for a validator tag
func GetValidationMessage(tag string) string {
	if msg, ok := validationMessages[tag]; ok {
		return msg
	}
	return "Validation failed: " + tag
}

// Problem types
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeNotFound      = "not_found"
	ErrorTypeBadRequest    = "bad_request"
	ErrorTypeConflict      = "conflict"
	ErrorTypeUnauthorized  = "unauthorized"
	ErrorTypeForbidden     = "forbidden"
	ErrorTypeUnprocessable = "unprocessable"
	// ErrorTypeMarginError marks a submission rejected by the minimum profit margin gate
	ErrorTypeMarginError = "margin_below_minimum"
	ErrorTypeInternal    = "internal_error"
	ErrorTypeRateLimited = "rate_limited"
)
