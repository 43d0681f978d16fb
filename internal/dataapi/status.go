package dataapi

import (
	"errors"
	"net/http"
)

// HTTPStatus maps a client error to the status a handler should return.
// Input errors become 422, upstream 4xx statuses pass through and anything
// else is a bad gateway.
func HTTPStatus(err error) int {
	var apiErr *APIError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrMissingField), errors.Is(err, ErrReasonRequired):
		return http.StatusUnprocessableEntity
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		return apiErr.Status
	default:
		return http.StatusBadGateway
	}
}

// PublicMessage returns the text safe to show a caller for err.
func PublicMessage(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingField), errors.Is(err, ErrReasonRequired):
		return err.Error()
	case errors.As(err, &apiErr) && apiErr.Message != "" && apiErr.Status < 500:
		return apiErr.Message
	default:
		return "upstream service unavailable"
	}
}
