package errors

import (
	"encoding/json"
	"errors"
	"net/http"
)

var httpStatusMap = map[string]int{
	CodeInternal:           http.StatusInternalServerError,
	CodeNotFound:           http.StatusNotFound,
	CodeBadRequest:         http.StatusBadRequest,
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeForbidden:          http.StatusForbidden,
	CodeValidation:         http.StatusBadRequest,
	CodeTimeout:            http.StatusGatewayTimeout,
	CodeUnavailable:        http.StatusServiceUnavailable,
	CodeRateLimited:        http.StatusTooManyRequests,
	CodeAddressNotFound:    http.StatusUnprocessableEntity,
	CodeGeocoding:          http.StatusBadGateway,
	CodeNoRouteFound:       http.StatusUnprocessableEntity,
	CodeRoutingUnavailable: http.StatusServiceUnavailable,
	CodeRouting:            http.StatusBadGateway,
	CodeWeatherUnavailable: http.StatusServiceUnavailable,
	CodeInvalidCredential:  http.StatusBadGateway,
	CodeNotGeocoded:        http.StatusConflict,
	CodeInvalidPlusCode:    http.StatusBadRequest,
}

// ErrorResponse is the error envelope returned by the API.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
	TraceID string    `json:"trace_id,omitempty"`
}

// ErrorBody contains the error details.
type ErrorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// HTTPStatus returns the HTTP status code for an error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if status, ok := httpStatusMap[appErr.Code]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// WriteError writes err as a JSON error envelope. Errors that are not
// AppErrors are reported as internal errors without leaking their text.
func WriteError(w http.ResponseWriter, err error, traceID string) {
	body := ErrorBody{
		Code:    CodeInternal,
		Message: "An internal error occurred",
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		body = ErrorBody{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: appErr.Details,
		}
	}

	writeJSON(w, HTTPStatus(err), ErrorResponse{Error: body, TraceID: traceID})
}

// WriteErrorWithStatus writes an error envelope with an explicit status.
func WriteErrorWithStatus(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
