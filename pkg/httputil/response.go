// Package httputil provides shared helpers for the JSON response envelope
// used by the authoring API and the mock auth endpoints.
package httputil

import (
	"encoding/json"
	"net/http"
)

// Envelope is the standard response shape: {success, data?, message}.
type Envelope struct {
	Success bool     `json:"success"`
	Data    any      `json:"data,omitempty"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// WriteJSON writes an arbitrary JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteSuccess writes a success envelope with optional data.
func WriteSuccess(w http.ResponseWriter, status int, data any, message string) {
	WriteJSON(w, status, Envelope{Success: true, Data: data, Message: message})
}

// WriteOK writes a 200 OK success envelope.
func WriteOK(w http.ResponseWriter, data any, message string) {
	WriteSuccess(w, http.StatusOK, data, message)
}

// WriteCreated writes a 201 Created success envelope.
func WriteCreated(w http.ResponseWriter, data any, message string) {
	WriteSuccess(w, http.StatusCreated, data, message)
}

// WriteError writes a failure envelope with the given status and message.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Envelope{Success: false, Message: message})
}

// WriteValidationErrors writes a 400 failure envelope carrying the full
// list of validation messages. Callers must receive every violation in
// one response, not just the first.
func WriteValidationErrors(w http.ResponseWriter, errs []string) {
	WriteJSON(w, http.StatusBadRequest, Envelope{
		Success: false,
		Message: "validation failed",
		Errors:  errs,
	})
}

// WriteBadRequest writes a 400 Bad Request failure envelope.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, message)
}

// WriteUnauthorized writes a 401 Unauthorized failure envelope.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message)
}

// WriteNotFound writes a 404 Not Found failure envelope.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// WriteConflict writes a 409 Conflict failure envelope.
func WriteConflict(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusConflict, message)
}

// WriteTooManyRequests writes a 429 Too Many Requests failure envelope.
func WriteTooManyRequests(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusTooManyRequests, message)
}

// WriteInternalError writes a 500 failure envelope with a generic message.
// Internal details stay server-side.
func WriteInternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, "an internal error occurred")
}

// WriteNoContent writes a 204 No Content response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
