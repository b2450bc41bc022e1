package http

import (
	"encoding/json"
	"net/http"
)

const (
	codeNotFound           = "not-found"
	codeInvalidRequestBody = "invalid-request-body"
	codeInvalidID          = "invalid-id"
	codeUnauthorized       = "unauthorized"
	codeInvalidCredentials = "invalid-credentials"
	codeUserAlreadyExists  = "user-already-exists"
	codeUserNotFound       = "user-not-found"
	codeEventNotFound      = "event-not-found"
	codeEventNameRequired  = "event-name-required"
	codeInvalidEventDates  = "invalid-event-dates"
	codeInvalidCoordinates = "invalid-coordinates"
	codeCategoryNotFound   = "category-not-found"
	codeInternalError      = "internal-error"

	// Presence rejection codes are part of the public contract and
	// must stay stable for the mobile clients.
	codePresenceAlreadyConfirmed = "presence-has-already-been-confirmed"
	codeEventNotStarted          = "event-not-started"
	codeEventFinished            = "finished-event"
	codeOutOfLocation            = "not-presence-in-location"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal-error"}`))
		return
	}
	_, _ = w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
