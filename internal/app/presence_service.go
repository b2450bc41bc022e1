package app

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/igoramos77/uvents-api/internal/clock"
	"github.com/igoramos77/uvents-api/internal/domain"
	"github.com/igoramos77/uvents-api/internal/geo"
	"github.com/igoramos77/uvents-api/internal/metrics"
)

// PresenceRepository is the registry of confirmations. Create must be
// atomic with respect to the (event, user) uniqueness invariant: of
// two racing callers exactly one succeeds and the other gets
// domain.ErrPresenceAlreadyConfirmed.
type PresenceRepository interface {
	Exists(ctx context.Context, eventID, userID string) (bool, error)
	Create(ctx context.Context, rec domain.PresenceRecord) error
	CountByEvent(ctx context.Context, eventID string) (int, error)
	ListByEvent(ctx context.Context, eventID string, limit int) ([]domain.PresencePreview, error)
}

// PresenceEventSource is the slice of the event collaborator the
// confirmation pipeline needs.
type PresenceEventSource interface {
	GetByID(ctx context.Context, id string) (domain.Event, error)
}

const (
	// defaultGracePeriod allows late check-in after an event ends.
	defaultGracePeriod = 6 * time.Hour
	// defaultMaxDistanceKm bounds the geofence around the venue.
	defaultMaxDistanceKm = 15.0
	// defaultPreviewLimit caps the roster preview in summaries.
	defaultPreviewLimit = 3
)

// PresenceService decides whether a "physically attended" claim is
// admissible and records admitted claims exactly once.
type PresenceService struct {
	presences     PresenceRepository
	events        PresenceEventSource
	clock         clock.Clock
	metrics       *metrics.Metrics
	gracePeriod   time.Duration
	maxDistanceKm float64
	previewLimit  int
}

func NewPresenceService(presences PresenceRepository, events PresenceEventSource, clk clock.Clock, m *metrics.Metrics, opts ...PresenceServiceOption) *PresenceService {
	svc := &PresenceService{
		presences:     presences,
		events:        events,
		clock:         clk,
		metrics:       m,
		gracePeriod:   defaultGracePeriod,
		maxDistanceKm: defaultMaxDistanceKm,
		previewLimit:  defaultPreviewLimit,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type PresenceServiceOption func(*PresenceService)

// WithGracePeriod overrides the late check-in window.
func WithGracePeriod(d time.Duration) PresenceServiceOption {
	return func(s *PresenceService) {
		if d >= 0 {
			s.gracePeriod = d
		}
	}
}

// WithMaxDistanceKm overrides the geofence tolerance.
func WithMaxDistanceKm(km float64) PresenceServiceOption {
	return func(s *PresenceService) {
		if km > 0 {
			s.maxDistanceKm = km
		}
	}
}

// WithPreviewLimit overrides the summary roster size.
func WithPreviewLimit(n int) PresenceServiceOption {
	return func(s *PresenceService) {
		if n > 0 {
			s.previewLimit = n
		}
	}
}

type ConfirmPresenceInput struct {
	EventID   string
	UserID    string
	Latitude  float64
	Longitude float64
}

type ConfirmPresenceResult struct {
	Record domain.PresenceRecord
	Event  domain.Event
}

// Confirm runs the validation pipeline in order: duplicate pre-check,
// event lookup, attendance window, geofence, then the atomic commit.
// The pre-check is only a cheap early exit; correctness against
// concurrent confirms rests on the registry's uniqueness invariant at
// commit time.
func (s *PresenceService) Confirm(ctx context.Context, in ConfirmPresenceInput) (ConfirmPresenceResult, error) {
	if in.EventID == "" || in.UserID == "" {
		return ConfirmPresenceResult{}, domain.ErrInvalidID
	}

	exists, err := s.presences.Exists(ctx, in.EventID, in.UserID)
	if err != nil {
		return ConfirmPresenceResult{}, err
	}
	if exists {
		return ConfirmPresenceResult{}, s.reject(domain.ErrPresenceAlreadyConfirmed)
	}

	event, err := s.events.GetByID(ctx, in.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrEventNotFound) {
			return ConfirmPresenceResult{}, s.reject(err)
		}
		return ConfirmPresenceResult{}, err
	}

	now := s.clock.Now()
	switch domain.ClassifyWindow(now, event.StartDate, event.EndDate, s.gracePeriod) {
	case domain.WindowNotStarted:
		return ConfirmPresenceResult{}, s.reject(domain.ErrEventNotStarted)
	case domain.WindowClosed:
		return ConfirmPresenceResult{}, s.reject(domain.ErrEventFinished)
	}

	distance := geo.DistanceKm(event.Latitude, event.Longitude, in.Latitude, in.Longitude)
	// A NaN distance (spoofed or malformed coordinates) must fail the
	// check, never pass it.
	if math.IsNaN(distance) || math.IsInf(distance, 0) || distance > s.maxDistanceKm {
		return ConfirmPresenceResult{}, s.reject(domain.ErrOutOfLocation)
	}

	rec := domain.PresenceRecord{
		EventID:     in.EventID,
		UserID:      in.UserID,
		ConfirmedAt: now,
	}
	if err := s.presences.Create(ctx, rec); err != nil {
		if errors.Is(err, domain.ErrPresenceAlreadyConfirmed) {
			// Lost the race between pre-check and commit.
			return ConfirmPresenceResult{}, s.reject(err)
		}
		return ConfirmPresenceResult{}, err
	}

	s.metrics.ConfirmationAccepted()
	return ConfirmPresenceResult{Record: rec, Event: event}, nil
}

// Summary returns the confirmation count for an event plus a bounded
// roster preview.
func (s *PresenceService) Summary(ctx context.Context, eventID string) (domain.PresenceSummary, error) {
	if eventID == "" {
		return domain.PresenceSummary{}, domain.ErrInvalidID
	}

	users, err := s.presences.ListByEvent(ctx, eventID, s.previewLimit)
	if err != nil {
		return domain.PresenceSummary{}, err
	}
	total, err := s.presences.CountByEvent(ctx, eventID)
	if err != nil {
		return domain.PresenceSummary{}, err
	}
	return domain.PresenceSummary{Users: users, Total: total}, nil
}

func (s *PresenceService) reject(err error) error {
	s.metrics.ConfirmationRejected(rejectionReason(err))
	return err
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrPresenceAlreadyConfirmed):
		return "already_confirmed"
	case errors.Is(err, domain.ErrEventNotFound):
		return "event_not_found"
	case errors.Is(err, domain.ErrEventNotStarted):
		return "not_started"
	case errors.Is(err, domain.ErrEventFinished):
		return "finished"
	case errors.Is(err, domain.ErrOutOfLocation):
		return "out_of_location"
	}
	return "other"
}
