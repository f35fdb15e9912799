package apiclient

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Problem type URIs returned by the server.
const (
	problemOutOfSpace        = "urn:ssdsim:out-of-space"
	problemCapacityExceeded  = "urn:ssdsim:capacity-exceeded"
	problemMediaUnavailable  = "urn:ssdsim:media-unavailable"
	problemInvalidParameters = "urn:ssdsim:invalid-parameters"
)

// APIError represents an RFC 7807 problem returned by the API.
type APIError struct {
	Type       string `json:"type,omitempty"`
	Title      string `json:"title"`
	StatusCode int    `json:"status"`
	Detail     string `json:"detail,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Title, e.Detail)
	}
	if e.Title != "" {
		return e.Title
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// IsOutOfSpace returns true if GC found no reclaimable block.
func (e *APIError) IsOutOfSpace() bool {
	return e.Type == problemOutOfSpace
}

// IsCapacityExceeded returns true if the request reached past the device capacity.
func (e *APIError) IsCapacityExceeded() bool {
	return e.Type == problemCapacityExceeded
}

// IsMediaUnavailable returns true if the media backend failed.
func (e *APIError) IsMediaUnavailable() bool {
	return e.Type == problemMediaUnavailable
}

// IsValidationError returns true if the request parameters were rejected.
func (e *APIError) IsValidationError() bool {
	return e.Type == problemInvalidParameters
}

func parseError(status int, body []byte) error {
	var apiErr APIError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Title != "" {
		apiErr.StatusCode = status
		return &apiErr
	}
	// Health endpoints answer with a status envelope instead of a problem.
	var envelope struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Error != "" {
		return &APIError{StatusCode: status, Title: envelope.Error}
	}
	return &APIError{
		StatusCode: status,
		Title:      strings.TrimSpace(string(body)),
	}
}
