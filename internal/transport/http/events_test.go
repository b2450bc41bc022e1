package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/igoramos77/uvents-api/internal/app"
	"github.com/igoramos77/uvents-api/internal/domain"
)

func TestHandleCreateEvent(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	event := domain.Event{
		ID:        "event-1",
		Name:      "Tech Week",
		StartDate: now,
		EndDate:   now.Add(2 * time.Hour),
		CreatedBy: "user-1",
		Categories: []domain.Category{
			{ID: "cat-1", Name: "Technology", Slug: "technology"},
		},
	}

	body := `{"name":"Tech Week","start_date":"2025-03-01T12:00:00Z","end_date":"2025-03-01T14:00:00Z","latitude":-23.55,"longitude":-46.63,"category_ids":["cat-1"]}`

	tests := []struct {
		name           string
		body           string
		serviceErr     error
		expectedStatus int
		expectedSubstr string
	}{
		{
			name:           "created",
			body:           body,
			expectedStatus: http.StatusCreated,
			expectedSubstr: `"technology"`,
		},
		{
			name:           "malformed body",
			body:           `{`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "name required",
			body:           body,
			serviceErr:     domain.ErrEventNameRequired,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: `"event-name-required"`,
		},
		{
			name:           "invalid dates",
			body:           body,
			serviceErr:     domain.ErrInvalidEventDates,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: `"invalid-event-dates"`,
		},
		{
			name:           "invalid coordinates",
			body:           body,
			serviceErr:     domain.ErrInvalidCoordinates,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "unknown category",
			body:           body,
			serviceErr:     domain.ErrCategoryNotFound,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubEventService{event: event, err: tt.serviceErr}

			req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(tt.body))
			req = req.WithContext(context.WithValue(req.Context(), userIDKey, "user-1"))
			rec := httptest.NewRecorder()
			HandleCreateEvent(svc).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			if tt.expectedSubstr != "" && !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Fatalf("expected response to contain %q, got %q", tt.expectedSubstr, rec.Body.String())
			}
		})
	}
}

func TestHandleGetEvent(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		svc := &stubEventService{event: domain.Event{ID: "event-1", Name: "Tech Week"}}
		r := chi.NewRouter()
		r.Get("/events/{eventID}", HandleGetEvent(svc))

		req := httptest.NewRequest(http.MethodGet, "/events/event-1", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"Tech Week"`) {
			t.Fatalf("expected event in body, got %q", rec.Body.String())
		}
	})

	t.Run("not found", func(t *testing.T) {
		svc := &stubEventService{err: domain.ErrEventNotFound}
		r := chi.NewRouter()
		r.Get("/events/{eventID}", HandleGetEvent(svc))

		req := httptest.NewRequest(http.MethodGet, "/events/missing", nil)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestHandleEventsByCategory(t *testing.T) {
	t.Parallel()

	svc := &stubEventService{
		groups: []domain.CategoryEvents{
			{
				Category: domain.Category{ID: "cat-1", Name: "Technology", Slug: "technology"},
				Events:   []domain.Event{{ID: "event-1", Name: "Tech Week"}},
			},
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/categories/events/future", nil)
	rec := httptest.NewRecorder()
	HandleEventsByCategory(svc, true).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if !svc.futureCalled {
		t.Fatalf("expected the future listing to be used")
	}
	if !strings.Contains(rec.Body.String(), `"technology"`) {
		t.Fatalf("expected category slug in body, got %q", rec.Body.String())
	}
}

type stubEventService struct {
	event        domain.Event
	groups       []domain.CategoryEvents
	err          error
	futureCalled bool
}

func (s *stubEventService) Create(_ context.Context, _ string, _ app.EventInput) (domain.Event, error) {
	return s.event, s.err
}

func (s *stubEventService) Update(_ context.Context, _ string, _ app.EventInput) (domain.Event, error) {
	return s.event, s.err
}

func (s *stubEventService) Get(_ context.Context, _ string) (domain.Event, error) {
	return s.event, s.err
}

func (s *stubEventService) List(_ context.Context) ([]domain.Event, error) {
	return []domain.Event{s.event}, s.err
}

func (s *stubEventService) ListByCategory(_ context.Context) ([]domain.CategoryEvents, error) {
	return s.groups, s.err
}

func (s *stubEventService) ListFutureByCategory(_ context.Context) ([]domain.CategoryEvents, error) {
	s.futureCalled = true
	return s.groups, s.err
}
