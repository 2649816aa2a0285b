package utils

import (
	"encoding/json"
	"net/http"
)

// Envelope is the body of every API response. Status is false for errors;
// Errors carries field messages or conflicting seats.
type Envelope struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

func writeEnvelope(w http.ResponseWriter, code int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(env)
}

// ResponseJSON writes an envelope with an explicit status code.
func ResponseJSON(w http.ResponseWriter, code int, status bool, message string, data, errors any) {
	writeEnvelope(w, code, Envelope{Status: status, Message: message, Data: data, Errors: errors})
}

func ok(w http.ResponseWriter, code int, message string, data any) {
	writeEnvelope(w, code, Envelope{Status: true, Message: message, Data: data})
}

func fail(w http.ResponseWriter, code int, message string, errors any) {
	writeEnvelope(w, code, Envelope{Message: message, Errors: errors})
}

func ResponseSuccess(w http.ResponseWriter, message string, data any) {
	ok(w, http.StatusOK, message, data)
}

func ResponseCreated(w http.ResponseWriter, message string, data any) {
	ok(w, http.StatusCreated, message, data)
}

func ResponseBadRequest(w http.ResponseWriter, message string, errors any) {
	fail(w, http.StatusBadRequest, message, errors)
}

func ResponseNotFound(w http.ResponseWriter, message string) {
	fail(w, http.StatusNotFound, message, nil)
}

// ResponseConflict reports a lost race or a state conflict.
func ResponseConflict(w http.ResponseWriter, message string, errors any) {
	fail(w, http.StatusConflict, message, errors)
}

func ResponseInternalError(w http.ResponseWriter, message string) {
	fail(w, http.StatusInternalServerError, message, nil)
}
