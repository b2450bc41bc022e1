package app

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/igoramos77/uvents-api/internal/clock"
	"github.com/igoramos77/uvents-api/internal/domain"
)

func TestPresenceService_Confirm(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 4, 1, 18, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	event := domain.Event{
		ID:        "event-1",
		Name:      "Tech Week",
		StartDate: start,
		EndDate:   end,
		Latitude:  0,
		Longitude: 0,
	}

	t.Run("confirms inside window and geofence", func(t *testing.T) {
		repo := newFakePresenceRepo()
		svc := NewPresenceService(repo, fakeEventSource{event}, clock.NewFixed(start.Add(time.Hour)), nil)

		res, err := svc.Confirm(context.Background(), ConfirmPresenceInput{
			EventID:   "event-1",
			UserID:    "user-1",
			Latitude:  0.01, // ~1.1 km from the venue
			Longitude: 0,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Record.EventID != "event-1" || res.Record.UserID != "user-1" {
			t.Fatalf("unexpected record: %+v", res.Record)
		}
		if !res.Record.ConfirmedAt.Equal(start.Add(time.Hour)) {
			t.Fatalf("expected server-assigned confirmation time, got %s", res.Record.ConfirmedAt)
		}
		if res.Event.ID != "event-1" {
			t.Fatalf("expected event projection in result")
		}
		if len(repo.records) != 1 {
			t.Fatalf("expected exactly one record, got %d", len(repo.records))
		}
	})

	t.Run("second confirm is rejected and no second record exists", func(t *testing.T) {
		repo := newFakePresenceRepo()
		svc := NewPresenceService(repo, fakeEventSource{event}, clock.NewFixed(start.Add(time.Hour)), nil)

		in := ConfirmPresenceInput{EventID: "event-1", UserID: "user-1", Latitude: 0, Longitude: 0}
		if _, err := svc.Confirm(context.Background(), in); err != nil {
			t.Fatalf("first confirm: %v", err)
		}
		if _, err := svc.Confirm(context.Background(), in); err != domain.ErrPresenceAlreadyConfirmed {
			t.Fatalf("expected ErrPresenceAlreadyConfirmed, got %v", err)
		}
		if len(repo.records) != 1 {
			t.Fatalf("expected exactly one record, got %d", len(repo.records))
		}
	})

	t.Run("duplicate detected only at commit surfaces AlreadyConfirmed", func(t *testing.T) {
		repo := &racePresenceRepo{}
		svc := NewPresenceService(repo, fakeEventSource{event}, clock.NewFixed(start.Add(time.Hour)), nil)

		_, err := svc.Confirm(context.Background(), ConfirmPresenceInput{
			EventID: "event-1", UserID: "user-1",
		})
		if err != domain.ErrPresenceAlreadyConfirmed {
			t.Fatalf("expected ErrPresenceAlreadyConfirmed, got %v", err)
		}
	})

	t.Run("unknown event", func(t *testing.T) {
		svc := NewPresenceService(newFakePresenceRepo(), fakeEventSource{}, clock.NewFixed(start), nil)

		_, err := svc.Confirm(context.Background(), ConfirmPresenceInput{
			EventID: "missing", UserID: "user-1",
		})
		if err != domain.ErrEventNotFound {
			t.Fatalf("expected ErrEventNotFound, got %v", err)
		}
	})

	t.Run("before start", func(t *testing.T) {
		svc := NewPresenceService(newFakePresenceRepo(), fakeEventSource{event}, clock.NewFixed(start.Add(-time.Second)), nil)

		_, err := svc.Confirm(context.Background(), ConfirmPresenceInput{
			EventID: "event-1", UserID: "user-1",
		})
		if err != domain.ErrEventNotStarted {
			t.Fatalf("expected ErrEventNotStarted, got %v", err)
		}
	})

	t.Run("exactly at start is accepted", func(t *testing.T) {
		svc := NewPresenceService(newFakePresenceRepo(), fakeEventSource{event}, clock.NewFixed(start), nil)

		if _, err := svc.Confirm(context.Background(), ConfirmPresenceInput{
			EventID: "event-1", UserID: "user-1",
		}); err != nil {
			t.Fatalf("expected no error at start boundary, got %v", err)
		}
	})

	t.Run("exactly at end of grace is accepted", func(t *testing.T) {
		svc := NewPresenceService(newFakePresenceRepo(), fakeEventSource{event}, clock.NewFixed(end.Add(6*time.Hour)), nil)

		if _, err := svc.Confirm(context.Background(), ConfirmPresenceInput{
			EventID: "event-1", UserID: "user-1",
		}); err != nil {
			t.Fatalf("expected no error at grace boundary, got %v", err)
		}
	})

	t.Run("past grace period", func(t *testing.T) {
		svc := NewPresenceService(newFakePresenceRepo(), fakeEventSource{event}, clock.NewFixed(end.Add(6*time.Hour+time.Second)), nil)

		_, err := svc.Confirm(context.Background(), ConfirmPresenceInput{
			EventID: "event-1", UserID: "user-1",
		})
		if err != domain.ErrEventFinished {
			t.Fatalf("expected ErrEventFinished, got %v", err)
		}
	})

	t.Run("too far from the venue", func(t *testing.T) {
		svc := NewPresenceService(newFakePresenceRepo(), fakeEventSource{event}, clock.NewFixed(start.Add(time.Hour)), nil)

		// (1, 0) is ~111 km from the venue at (0, 0).
		_, err := svc.Confirm(context.Background(), ConfirmPresenceInput{
			EventID: "event-1", UserID: "user-1", Latitude: 1, Longitude: 0,
		})
		if err != domain.ErrOutOfLocation {
			t.Fatalf("expected ErrOutOfLocation, got %v", err)
		}
	})

	t.Run("NaN coordinates fail the geofence", func(t *testing.T) {
		repo := newFakePresenceRepo()
		svc := NewPresenceService(repo, fakeEventSource{event}, clock.NewFixed(start.Add(time.Hour)), nil)

		_, err := svc.Confirm(context.Background(), ConfirmPresenceInput{
			EventID: "event-1", UserID: "user-1", Latitude: math.NaN(), Longitude: 0,
		})
		if err != domain.ErrOutOfLocation {
			t.Fatalf("expected ErrOutOfLocation, got %v", err)
		}
		if len(repo.records) != 0 {
			t.Fatalf("expected no record, got %d", len(repo.records))
		}
	})

	t.Run("custom tolerance and grace options", func(t *testing.T) {
		svc := NewPresenceService(newFakePresenceRepo(), fakeEventSource{event}, clock.NewFixed(end.Add(time.Hour)), nil,
			WithGracePeriod(30*time.Minute),
			WithMaxDistanceKm(200),
		)

		_, err := svc.Confirm(context.Background(), ConfirmPresenceInput{
			EventID: "event-1", UserID: "user-1", Latitude: 1, Longitude: 0,
		})
		if err != domain.ErrEventFinished {
			t.Fatalf("expected ErrEventFinished with short grace, got %v", err)
		}

		svc = NewPresenceService(newFakePresenceRepo(), fakeEventSource{event}, clock.NewFixed(end), nil,
			WithMaxDistanceKm(200),
		)
		if _, err := svc.Confirm(context.Background(), ConfirmPresenceInput{
			EventID: "event-1", UserID: "user-1", Latitude: 1, Longitude: 0,
		}); err != nil {
			t.Fatalf("expected wide tolerance to accept ~111 km, got %v", err)
		}
	})
}

func TestPresenceService_Confirm_ConcurrentSamePair(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 4, 1, 18, 0, 0, 0, time.UTC)
	event := domain.Event{ID: "event-1", StartDate: start, EndDate: start.Add(2 * time.Hour)}

	repo := newFakePresenceRepo()
	svc := NewPresenceService(repo, fakeEventSource{event}, clock.NewFixed(start.Add(time.Hour)), nil)

	const n = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		dupes     int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Confirm(context.Background(), ConfirmPresenceInput{
				EventID: "event-1", UserID: "user-1",
			})
			mu.Lock()
			defer mu.Unlock()
			switch err {
			case nil:
				successes++
			case domain.ErrPresenceAlreadyConfirmed:
				dupes++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Fatalf("expected exactly 1 success, got %d", successes)
	}
	if dupes != n-1 {
		t.Fatalf("expected %d AlreadyConfirmed, got %d", n-1, dupes)
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(repo.records))
	}
}

func TestPresenceService_Summary(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 4, 1, 19, 0, 0, 0, time.UTC)
	repo := newFakePresenceRepo()
	for i, userID := range []string{"user-1", "user-2", "user-3", "user-4", "user-5"} {
		repo.records[pairKey{"event-1", userID}] = domain.PresenceRecord{
			EventID:     "event-1",
			UserID:      userID,
			ConfirmedAt: now.Add(time.Duration(i) * time.Minute),
		}
	}
	svc := NewPresenceService(repo, fakeEventSource{}, clock.NewFixed(now), nil)

	summary, err := svc.Summary(context.Background(), "event-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if summary.Total != 5 {
		t.Fatalf("expected total 5, got %d", summary.Total)
	}
	if len(summary.Users) != 3 {
		t.Fatalf("expected preview of 3, got %d", len(summary.Users))
	}
	if summary.Users[0].UserID != "user-1" {
		t.Fatalf("expected earliest confirmation first, got %s", summary.Users[0].UserID)
	}
}

type pairKey struct {
	eventID string
	userID  string
}

// fakePresenceRepo is safe for concurrent use so the race property can
// be exercised at service level.
type fakePresenceRepo struct {
	mu      sync.Mutex
	records map[pairKey]domain.PresenceRecord
}

func newFakePresenceRepo() *fakePresenceRepo {
	return &fakePresenceRepo{records: make(map[pairKey]domain.PresenceRecord)}
}

func (f *fakePresenceRepo) Exists(_ context.Context, eventID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.records[pairKey{eventID, userID}]
	return ok, nil
}

func (f *fakePresenceRepo) Create(_ context.Context, rec domain.PresenceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := pairKey{rec.EventID, rec.UserID}
	if _, exists := f.records[key]; exists {
		return domain.ErrPresenceAlreadyConfirmed
	}
	f.records[key] = rec
	return nil
}

func (f *fakePresenceRepo) CountByEvent(_ context.Context, eventID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for key := range f.records {
		if key.eventID == eventID {
			total++
		}
	}
	return total, nil
}

func (f *fakePresenceRepo) ListByEvent(_ context.Context, eventID string, limit int) ([]domain.PresencePreview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var previews []domain.PresencePreview
	for key, rec := range f.records {
		if key.eventID != eventID {
			continue
		}
		previews = append(previews, domain.PresencePreview{
			UserID:      rec.UserID,
			Name:        "User " + rec.UserID,
			ConfirmedAt: rec.ConfirmedAt,
		})
	}
	// Insertion order by confirmation time, as the registry guarantees.
	for i := 0; i < len(previews); i++ {
		for j := i + 1; j < len(previews); j++ {
			if previews[j].ConfirmedAt.Before(previews[i].ConfirmedAt) {
				previews[i], previews[j] = previews[j], previews[i]
			}
		}
	}
	if len(previews) > limit {
		previews = previews[:limit]
	}
	return previews, nil
}

func (f *fakePresenceRepo) EventsConfirmedBy(_ context.Context, _ string) ([]domain.Event, error) {
	return nil, nil
}

// racePresenceRepo reports no existing record on the pre-check but
// fails the commit, simulating a concurrent confirm that wins the race
// between the two calls.
type racePresenceRepo struct{}

func (racePresenceRepo) Exists(_ context.Context, _, _ string) (bool, error) { return false, nil }

func (racePresenceRepo) Create(_ context.Context, _ domain.PresenceRecord) error {
	return domain.ErrPresenceAlreadyConfirmed
}

func (racePresenceRepo) CountByEvent(_ context.Context, _ string) (int, error) { return 0, nil }

func (racePresenceRepo) ListByEvent(_ context.Context, _ string, _ int) ([]domain.PresencePreview, error) {
	return nil, nil
}

type fakeEventSource struct {
	event domain.Event
}

func (f fakeEventSource) GetByID(_ context.Context, id string) (domain.Event, error) {
	if f.event.ID == "" || f.event.ID != id {
		return domain.Event{}, domain.ErrEventNotFound
	}
	return f.event, nil
}
