package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/igoramos77/uvents-api/internal/app"
	"github.com/igoramos77/uvents-api/internal/domain"
)

// PresenceConfirmer is the minimal interface needed to confirm
// presence at an event.
type PresenceConfirmer interface {
	Confirm(ctx context.Context, in app.ConfirmPresenceInput) (app.ConfirmPresenceResult, error)
}

// PresenceSummarizer is the minimal interface needed to report an
// event's confirmations.
type PresenceSummarizer interface {
	Summary(ctx context.Context, eventID string) (domain.PresenceSummary, error)
}

// HandleConfirmPresence returns an HTTP handler that records the
// authenticated caller's presence at an event.
func HandleConfirmPresence(svc PresenceConfirmer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID := chi.URLParam(r, "eventID")
		userID := UserID(r.Context())
		if userID == "" {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing identity")
			return
		}

		var req confirmPresenceRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.Latitude == nil || req.Longitude == nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "latitude and longitude are required")
			return
		}

		res, err := svc.Confirm(r.Context(), app.ConfirmPresenceInput{
			EventID:   eventID,
			UserID:    userID,
			Latitude:  *req.Latitude,
			Longitude: *req.Longitude,
		})
		if err != nil {
			writePresenceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, confirmPresenceResponse{
			EventID:     res.Record.EventID,
			UserID:      res.Record.UserID,
			ConfirmedAt: res.Record.ConfirmedAt,
			Event:       toEventPayload(res.Event),
		})
	}
}

func writePresenceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrPresenceAlreadyConfirmed):
		writeError(w, http.StatusConflict, codePresenceAlreadyConfirmed, "presence has already been confirmed")
	case errors.Is(err, domain.ErrEventNotFound):
		writeError(w, http.StatusNotFound, codeEventNotFound, "event not found")
	case errors.Is(err, domain.ErrEventNotStarted):
		writeError(w, http.StatusBadRequest, codeEventNotStarted, "event has not started yet")
	case errors.Is(err, domain.ErrEventFinished):
		writeError(w, http.StatusBadRequest, codeEventFinished, "event is already finished")
	case errors.Is(err, domain.ErrOutOfLocation):
		writeError(w, http.StatusBadRequest, codeOutOfLocation, "too far from the event location")
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, "invalid id")
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

// HandlePresenceSummary returns an HTTP handler for the public
// confirmation count plus a short roster preview.
func HandlePresenceSummary(svc PresenceSummarizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		summary, err := svc.Summary(r.Context(), chi.URLParam(r, "eventID"))
		if err != nil {
			if errors.Is(err, domain.ErrInvalidID) {
				writeError(w, http.StatusBadRequest, codeInvalidID, "invalid id")
				return
			}
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		resp := presenceSummaryResponse{
			Users: make([]presencePreviewPayload, 0, len(summary.Users)),
			Total: summary.Total,
		}
		for _, u := range summary.Users {
			resp.Users = append(resp.Users, presencePreviewPayload{
				ID:          u.UserID,
				Name:        u.Name,
				PhotoURL:    u.PhotoURL,
				ConfirmedAt: u.ConfirmedAt,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type confirmPresenceRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type confirmPresenceResponse struct {
	EventID     string       `json:"eventId"`
	UserID      string       `json:"userId"`
	ConfirmedAt time.Time    `json:"confirmedAt"`
	Event       eventPayload `json:"event"`
}

type presencePreviewPayload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	PhotoURL    string    `json:"photoUrl,omitempty"`
	ConfirmedAt time.Time `json:"confirmedAt"`
}

type presenceSummaryResponse struct {
	Users []presencePreviewPayload `json:"users"`
	Total int                      `json:"totalCountPresence"`
}
