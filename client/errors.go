package client

import (
	"encoding/json"
	"fmt"
)

// APIError represents a structured error response from the lexisearch API.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"request_id,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("lexisearch: %d %s: %s (request_id=%s)", e.StatusCode, e.Code, e.Message, e.RequestID)
	}

	return fmt.Sprintf("lexisearch: %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsUnauthorized returns true if the error is a 401 unauthorized.
func IsUnauthorized(err error) bool {
	e, ok := err.(*APIError)

	return ok && e.StatusCode == 401
}

// IsRateLimited returns true if the error is a 429 rate limit.
func IsRateLimited(err error) bool {
	e, ok := err.(*APIError)

	return ok && e.StatusCode == 429
}

// parseAPIError attempts to decode a JSON error body; falls back to raw text.
func parseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = "unknown"
		apiErr.Message = string(body)
	}

	return apiErr
}
