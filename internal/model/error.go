package model

import (
	"fmt"
	"net/http"
)

// APIError is the uniform failure shape for every backend call: a
// human-readable detail string plus an HTTP status code. Transport
// failures that never produced a status carry 500.
type APIError struct {
	Detail string `json:"detail"`
	Status int    `json:"-"`
}

// NewAPIError builds an APIError, defaulting the status to 500 and the
// detail to the status text when either is absent.
func NewAPIError(detail string, status int) *APIError {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if detail == "" {
		detail = http.StatusText(status)
	}
	return &APIError{Detail: detail, Status: status}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Detail, e.Status)
}
