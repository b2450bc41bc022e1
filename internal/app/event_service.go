package app

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/igoramos77/uvents-api/internal/clock"
	"github.com/igoramos77/uvents-api/internal/domain"
)

type EventRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, event domain.Event) error
	Update(ctx context.Context, event domain.Event) error
	GetByID(ctx context.Context, id string) (domain.Event, error)
	List(ctx context.Context) ([]domain.Event, error)
	LinkCategories(ctx context.Context, eventID string, categoryIDs []string) error
	ListByCategory(ctx context.Context) ([]domain.CategoryEvents, error)
	ListFutureByCategory(ctx context.Context, now time.Time) ([]domain.CategoryEvents, error)
}

type EventService struct {
	repo  EventRepository
	clock clock.Clock
}

func NewEventService(repo EventRepository, clk clock.Clock) *EventService {
	return &EventService{
		repo:  repo,
		clock: clk,
	}
}

type EventInput struct {
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Latitude    float64
	Longitude   float64
	Address     string
	City        string
	Modality    string
	CategoryIDs []string
}

func (in EventInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.ErrEventNameRequired
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() || in.EndDate.Before(in.StartDate) {
		return domain.ErrInvalidEventDates
	}
	if !isFinite(in.Latitude) || !isFinite(in.Longitude) {
		return domain.ErrInvalidCoordinates
	}
	if in.Latitude < -90 || in.Latitude > 90 || in.Longitude < -180 || in.Longitude > 180 {
		return domain.ErrInvalidCoordinates
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Create stores a new event owned by creatorID and links its
// categories in the same transaction.
func (s *EventService) Create(ctx context.Context, creatorID string, in EventInput) (domain.Event, error) {
	if creatorID == "" {
		return domain.Event{}, domain.ErrInvalidID
	}
	if err := in.validate(); err != nil {
		return domain.Event{}, err
	}

	event := domain.Event{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Address:     in.Address,
		City:        in.City,
		Modality:    in.Modality,
		CreatedBy:   creatorID,
		CreatedAt:   s.clock.Now(),
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, event); err != nil {
			return err
		}
		return s.repo.LinkCategories(txCtx, event.ID, in.CategoryIDs)
	})
	if err != nil {
		return domain.Event{}, err
	}
	return s.repo.GetByID(ctx, event.ID)
}

// Update rewrites an event's mutable fields and replaces its category
// links when new ones are given.
func (s *EventService) Update(ctx context.Context, id string, in EventInput) (domain.Event, error) {
	if id == "" {
		return domain.Event{}, domain.ErrInvalidID
	}
	if err := in.validate(); err != nil {
		return domain.Event{}, err
	}

	event := domain.Event{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Address:     in.Address,
		City:        in.City,
		Modality:    in.Modality,
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, event); err != nil {
			return err
		}
		return s.repo.LinkCategories(txCtx, id, in.CategoryIDs)
	})
	if err != nil {
		return domain.Event{}, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *EventService) Get(ctx context.Context, id string) (domain.Event, error) {
	if id == "" {
		return domain.Event{}, domain.ErrInvalidID
	}
	return s.repo.GetByID(ctx, id)
}

func (s *EventService) List(ctx context.Context) ([]domain.Event, error) {
	return s.repo.List(ctx)
}

func (s *EventService) ListByCategory(ctx context.Context) ([]domain.CategoryEvents, error) {
	return s.repo.ListByCategory(ctx)
}

// ListFutureByCategory keeps only events that have not ended yet.
func (s *EventService) ListFutureByCategory(ctx context.Context) ([]domain.CategoryEvents, error) {
	return s.repo.ListFutureByCategory(ctx, s.clock.Now())
}
