package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rightfit/rightfit-navigation/errors"
	"github.com/rightfit/rightfit-navigation/logging"
)

// Response is a standard API response wrapper.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON sends a JSON response. data is encoded before the status is written,
// so a value that cannot be encoded becomes a logged 500.
func JSON(w http.ResponseWriter, status int, data interface{}) {
	if data == nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		return
	}

	body, err := json.Marshal(data)
	if err != nil {
		logging.FromContext(context.Background()).Error("failed to encode response",
			"status", status,
			"error", err.Error(),
		)
		errors.WriteErrorWithStatus(w, http.StatusInternalServerError, errors.CodeInternal, "failed to encode response")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// OK sends a 200 OK response with data.
func OK(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// Error writes err as the error envelope. Internal errors are logged with
// the request logger; their text never reaches the client.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed",
			"path", r.URL.Path,
			"status", status,
			"code", errors.Code(err),
			"error", err.Error(),
		)
	}
	errors.WriteError(w, err, logging.TraceIDFromContext(r.Context()))
}
