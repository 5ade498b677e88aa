// Package apierrors renders the API's JSON error bodies. Every non-2xx
// response in the service goes through these helpers so the shape stays
// uniform: {"error": "<message>"}.
package apierrors

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

type errorBody struct {
	Error string `json:"error"`
}

// Render writes {"error": msg} with the given status code.
func Render(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg})
}

// BadRequest covers malformed bodies and failed validation.
func BadRequest(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "invalid request"
	}
	Render(w, http.StatusBadRequest, msg)
}

// Unauthorized covers missing or invalid sessions.
func Unauthorized(w http.ResponseWriter) {
	Render(w, http.StatusUnauthorized, "unauthorized")
}

// Forbidden covers authenticated callers who lack the required role.
func Forbidden(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "forbidden"
	}
	Render(w, http.StatusForbidden, msg)
}

// NotFound covers missing documents and IDs that do not parse.
func NotFound(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "not found"
	}
	Render(w, http.StatusNotFound, msg)
}

// Conflict covers state-machine violations: duplicate memberships,
// already-resolved requests, ended-goal deletions.
func Conflict(w http.ResponseWriter, msg string) {
	Render(w, http.StatusConflict, msg)
}

// Internal logs the failure with its operation name and hides the
// detail from the client.
func Internal(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	if logger != nil {
		logger.Error(op, zap.Error(err))
	}
	Render(w, http.StatusInternalServerError, "internal server error")
}
