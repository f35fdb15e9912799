// Package handlers provides HTTP handlers for the device API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/marmos91/ssdsim/pkg/ftl"
)

// Problem represents an RFC 7807 "problem details" response.
// https://tools.ietf.org/html/rfc7807
type Problem struct {
	// Type is a URI reference that identifies the problem type.
	// If not set, defaults to "about:blank".
	Type string `json:"type,omitempty"`

	// Title is a short, human-readable summary of the problem type.
	Title string `json:"title"`

	// Status is the HTTP status code for this occurrence of the problem.
	Status int `json:"status"`

	// Detail is a human-readable explanation specific to this occurrence.
	Detail string `json:"detail,omitempty"`
}

// ContentTypeProblemJSON is the Content-Type for RFC 7807 problem responses.
const ContentTypeProblemJSON = "application/problem+json"

// Problem type URIs for device errors. Clients match on these rather than
// on the detail text.
const (
	ProblemOutOfSpace        = "urn:ssdsim:out-of-space"
	ProblemCapacityExceeded  = "urn:ssdsim:capacity-exceeded"
	ProblemMediaUnavailable  = "urn:ssdsim:media-unavailable"
	ProblemDeviceClosed      = "urn:ssdsim:device-closed"
	ProblemInvalidParameters = "urn:ssdsim:invalid-parameters"
)

// WriteProblem writes an RFC 7807 problem response.
func WriteProblem(w http.ResponseWriter, status int, title, detail string) {
	WriteProblemWithType(w, "about:blank", status, title, detail)
}

// WriteProblemWithType writes an RFC 7807 problem response with a custom type URI.
func WriteProblemWithType(w http.ResponseWriter, problemType string, status int, title, detail string) {
	problem := &Problem{
		Type:   problemType,
		Title:  title,
		Status: status,
		Detail: detail,
	}

	w.Header().Set("Content-Type", ContentTypeProblemJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem)
}

// BadRequest writes a 400 Bad Request problem response.
func BadRequest(w http.ResponseWriter, detail string) {
	WriteProblemWithType(w, ProblemInvalidParameters, http.StatusBadRequest, "Bad Request", detail)
}

// InternalServerError writes a 500 Internal Server Error problem response.
func InternalServerError(w http.ResponseWriter, detail string) {
	WriteProblem(w, http.StatusInternalServerError, "Internal Server Error", detail)
}

// WriteDeviceError maps a device error onto a problem response.
func WriteDeviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ftl.ErrCapacityExceeded):
		WriteProblemWithType(w, ProblemCapacityExceeded, http.StatusRequestEntityTooLarge, "Capacity Exceeded", err.Error())
	case errors.Is(err, ftl.ErrOutOfSpace):
		WriteProblemWithType(w, ProblemOutOfSpace, http.StatusInsufficientStorage, "Out Of Space", err.Error())
	case errors.Is(err, ftl.ErrMediaUnavailable):
		WriteProblemWithType(w, ProblemMediaUnavailable, http.StatusServiceUnavailable, "Media Unavailable", err.Error())
	case errors.Is(err, ftl.ErrClosed):
		WriteProblemWithType(w, ProblemDeviceClosed, http.StatusServiceUnavailable, "Device Closed", err.Error())
	default:
		InternalServerError(w, err.Error())
	}
}
