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

// EventWriter is the minimal interface needed to create and update
// events.
type EventWriter interface {
	Create(ctx context.Context, creatorID string, in app.EventInput) (domain.Event, error)
	Update(ctx context.Context, id string, in app.EventInput) (domain.Event, error)
}

// EventReader is the minimal interface needed to read events.
type EventReader interface {
	Get(ctx context.Context, id string) (domain.Event, error)
	List(ctx context.Context) ([]domain.Event, error)
	ListByCategory(ctx context.Context) ([]domain.CategoryEvents, error)
	ListFutureByCategory(ctx context.Context) ([]domain.CategoryEvents, error)
}

// HandleCreateEvent returns an HTTP handler that stores a new event
// owned by the authenticated caller.
func HandleCreateEvent(svc EventWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodeEventRequest(w, r)
		if !ok {
			return
		}

		event, err := svc.Create(r.Context(), UserID(r.Context()), in)
		if err != nil {
			writeEventError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toEventPayload(event))
	}
}

// HandleUpdateEvent returns an HTTP handler that rewrites an event.
func HandleUpdateEvent(svc EventWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodeEventRequest(w, r)
		if !ok {
			return
		}

		event, err := svc.Update(r.Context(), chi.URLParam(r, "eventID"), in)
		if err != nil {
			writeEventError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventPayload(event))
	}
}

// HandleGetEvent returns an HTTP handler for a single event.
func HandleGetEvent(svc EventReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		event, err := svc.Get(r.Context(), chi.URLParam(r, "eventID"))
		if err != nil {
			writeEventError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventPayload(event))
	}
}

// HandleListEvents returns an HTTP handler for the full event list.
func HandleListEvents(svc EventReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := svc.List(r.Context())
		if err != nil {
			writeEventError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toEventPayloads(events))
	}
}

// HandleEventsByCategory returns an HTTP handler that groups events
// under their categories. With future=true only events that have not
// ended yet are included.
func HandleEventsByCategory(svc EventReader, futureOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var (
			groups []domain.CategoryEvents
			err    error
		)
		if futureOnly {
			groups, err = svc.ListFutureByCategory(r.Context())
		} else {
			groups, err = svc.ListByCategory(r.Context())
		}
		if err != nil {
			writeEventError(w, err)
			return
		}

		resp := make([]categoryEventsPayload, 0, len(groups))
		for _, g := range groups {
			resp = append(resp, categoryEventsPayload{
				ID:     g.Category.ID,
				Name:   g.Category.Name,
				Slug:   g.Category.Slug,
				Events: toEventPayloads(g.Events),
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func decodeEventRequest(w http.ResponseWriter, r *http.Request) (app.EventInput, bool) {
	var req eventRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return app.EventInput{}, false
	}
	return app.EventInput{
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Address:     req.Address,
		City:        req.City,
		Modality:    req.Modality,
		CategoryIDs: req.CategoryIDs,
	}, true
}

func writeEventError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEventNotFound):
		writeError(w, http.StatusNotFound, codeEventNotFound, "event not found")
	case errors.Is(err, domain.ErrUserNotFound):
		writeError(w, http.StatusNotFound, codeUserNotFound, "user not found")
	case errors.Is(err, domain.ErrCategoryNotFound):
		writeError(w, http.StatusBadRequest, codeCategoryNotFound, "category not found")
	case errors.Is(err, domain.ErrEventNameRequired):
		writeError(w, http.StatusBadRequest, codeEventNameRequired, "event name is required")
	case errors.Is(err, domain.ErrInvalidEventDates):
		writeError(w, http.StatusBadRequest, codeInvalidEventDates, "invalid event dates")
	case errors.Is(err, domain.ErrInvalidCoordinates):
		writeError(w, http.StatusBadRequest, codeInvalidCoordinates, "invalid coordinates")
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, "invalid id")
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

type eventRequest struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	Modality    string    `json:"modality"`
	CategoryIDs []string  `json:"category_ids"`
}

type eventPayload struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	StartDate   time.Time         `json:"start_date"`
	EndDate     time.Time         `json:"end_date"`
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
	Address     string            `json:"address,omitempty"`
	City        string            `json:"city,omitempty"`
	Modality    string            `json:"modality,omitempty"`
	CreatedBy   string            `json:"created_by,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	Categories  []categoryPayload `json:"categories"`
}

type categoryPayload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type categoryEventsPayload struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Slug   string         `json:"slug"`
	Events []eventPayload `json:"events"`
}

func toEventPayload(e domain.Event) eventPayload {
	categories := make([]categoryPayload, 0, len(e.Categories))
	for _, c := range e.Categories {
		categories = append(categories, categoryPayload{ID: c.ID, Name: c.Name, Slug: c.Slug})
	}
	return eventPayload{
		ID:          e.ID,
		Name:        e.Name,
		Description: e.Description,
		StartDate:   e.StartDate,
		EndDate:     e.EndDate,
		Latitude:    e.Latitude,
		Longitude:   e.Longitude,
		Address:     e.Address,
		City:        e.City,
		Modality:    e.Modality,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
		Categories:  categories,
	}
}

func toEventPayloads(events []domain.Event) []eventPayload {
	out := make([]eventPayload, 0, len(events))
	for _, e := range events {
		out = append(out, toEventPayload(e))
	}
	return out
}
