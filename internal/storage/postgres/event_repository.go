package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/igoramos77/uvents-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

const eventColumns = `id, name, description, start_date, end_date,
       latitude, longitude, address, city, modality, created_by, created_at`

func (r *EventRepository) Create(ctx context.Context, event domain.Event) error {
	const stmt = `
INSERT INTO events (id, name, description, start_date, end_date,
                    latitude, longitude, address, city, modality, created_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := exec(ctx, r.pool, stmt,
		event.ID,
		event.Name,
		event.Description,
		event.StartDate,
		event.EndDate,
		event.Latitude,
		event.Longitude,
		event.Address,
		event.City,
		event.Modality,
		event.CreatedBy,
		event.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrUserNotFound
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

func (r *EventRepository) Update(ctx context.Context, event domain.Event) error {
	const stmt = `
UPDATE events
SET name = $2, description = $3, start_date = $4, end_date = $5,
    latitude = $6, longitude = $7, address = $8, city = $9, modality = $10
WHERE id = $1`

	tag, err := exec(ctx, r.pool, stmt,
		event.ID,
		event.Name,
		event.Description,
		event.StartDate,
		event.EndDate,
		event.Latitude,
		event.Longitude,
		event.Address,
		event.City,
		event.Modality,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *EventRepository) GetByID(ctx context.Context, id string) (domain.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	row := queryRow(ctx, r.pool, q, id)
	event, err := scanEvent(row)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Event{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Event{}, domain.ErrEventNotFound
		}
		return domain.Event{}, fmt.Errorf("get event: %w", err)
	}

	events := []domain.Event{event}
	if err := attachCategories(ctx, r.pool, events); err != nil {
		return domain.Event{}, err
	}
	return events[0], nil
}

func (r *EventRepository) List(ctx context.Context) ([]domain.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events ORDER BY start_date ASC, created_at ASC`

	rows, err := query(ctx, r.pool, q)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}
	if err := attachCategories(ctx, r.pool, events); err != nil {
		return nil, err
	}
	return events, nil
}

// LinkCategories attaches categories to an event. Unknown category ids
// surface as domain.ErrCategoryNotFound.
func (r *EventRepository) LinkCategories(ctx context.Context, eventID string, categoryIDs []string) error {
	const stmt = `
INSERT INTO events_categories (event_id, category_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`

	for _, categoryID := range categoryIDs {
		if _, err := exec(ctx, r.pool, stmt, eventID, categoryID); err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrCategoryNotFound
			}
			if isInvalidUUID(err) {
				return domain.ErrInvalidID
			}
			return fmt.Errorf("link category: %w", err)
		}
	}
	return nil
}

// ListByCategory returns every category with its events.
func (r *EventRepository) ListByCategory(ctx context.Context) ([]domain.CategoryEvents, error) {
	return r.listByCategory(ctx, time.Time{})
}

// ListFutureByCategory returns categories with only the events that
// have not yet ended at the given instant.
func (r *EventRepository) ListFutureByCategory(ctx context.Context, now time.Time) ([]domain.CategoryEvents, error) {
	return r.listByCategory(ctx, now)
}

func (r *EventRepository) listByCategory(ctx context.Context, endAfter time.Time) ([]domain.CategoryEvents, error) {
	q := `
SELECT c.id, c.name, c.slug,
       e.id, e.name, e.description, e.start_date, e.end_date,
       e.latitude, e.longitude, e.address, e.city, e.modality, e.created_by, e.created_at
FROM categories c
LEFT JOIN events_categories ec ON ec.category_id = c.id
LEFT JOIN events e ON e.id = ec.event_id`
	args := []any{}
	if !endAfter.IsZero() {
		q += ` AND e.end_date >= $1`
		args = append(args, endAfter)
	}
	q += `
ORDER BY c.name ASC, e.start_date ASC`

	rows, err := query(ctx, r.pool, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list events by category: %w", err)
	}
	defer rows.Close()

	var (
		groups  []domain.CategoryEvents
		indexes = make(map[string]int)
	)
	for rows.Next() {
		var (
			cat   domain.Category
			event domain.Event
			// Event columns are NULL for categories without events.
			eventID *string
			name, description, address, city, modality, createdBy *string
			startDate, endDate, createdAt                         *time.Time
			latitude, longitude                                   *float64
		)
		if err := rows.Scan(
			&cat.ID, &cat.Name, &cat.Slug,
			&eventID, &name, &description, &startDate, &endDate,
			&latitude, &longitude, &address, &city, &modality, &createdBy, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan category event: %w", err)
		}

		idx, ok := indexes[cat.ID]
		if !ok {
			idx = len(groups)
			indexes[cat.ID] = idx
			groups = append(groups, domain.CategoryEvents{Category: cat, Events: []domain.Event{}})
		}

		if eventID == nil {
			continue
		}
		event = domain.Event{
			ID:          *eventID,
			Name:        *name,
			Description: *description,
			StartDate:   *startDate,
			EndDate:     *endDate,
			Latitude:    *latitude,
			Longitude:   *longitude,
			Address:     *address,
			City:        *city,
			Modality:    *modality,
			CreatedBy:   *createdBy,
			CreatedAt:   *createdAt,
		}
		groups[idx].Events = append(groups[idx].Events, event)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate categories: %w", rows.Err())
	}
	return groups, nil
}

func scanEvent(row pgx.Row) (domain.Event, error) {
	var e domain.Event
	err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.StartDate, &e.EndDate,
		&e.Latitude, &e.Longitude, &e.Address, &e.City, &e.Modality,
		&e.CreatedBy, &e.CreatedAt,
	)
	return e, err
}

func scanEvents(rows pgx.Rows) ([]domain.Event, error) {
	var events []domain.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, event)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate events: %w", rows.Err())
	}
	return events, nil
}

// attachCategories fills the Categories slice of each event in place.
func attachCategories(ctx context.Context, pool *pgxpool.Pool, events []domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	ids := make([]string, 0, len(events))
	indexes := make(map[string]int, len(events))
	for i, event := range events {
		ids = append(ids, event.ID)
		indexes[event.ID] = i
	}

	const q = `
SELECT ec.event_id, c.id, c.name, c.slug
FROM events_categories ec
JOIN categories c ON c.id = ec.category_id
WHERE ec.event_id = ANY($1)
ORDER BY c.name ASC`

	rows, err := query(ctx, pool, q, ids)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			eventID string
			cat     domain.Category
		)
		if err := rows.Scan(&eventID, &cat.ID, &cat.Name, &cat.Slug); err != nil {
			return fmt.Errorf("scan category: %w", err)
		}
		if idx, ok := indexes[eventID]; ok {
			events[idx].Categories = append(events[idx].Categories, cat)
		}
	}
	if rows.Err() != nil {
		return fmt.Errorf("iterate categories: %w", rows.Err())
	}
	return nil
}
