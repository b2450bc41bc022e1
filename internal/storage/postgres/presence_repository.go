package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/igoramos77/uvents-api/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PresenceRepository persists presence confirmations. The primary key
// on users_events (event_id, user_id) is what enforces the
// at-most-once invariant; Create translates its violation into
// domain.ErrPresenceAlreadyConfirmed so racing callers observe an
// expected outcome instead of a fault.
type PresenceRepository struct {
	pool *pgxpool.Pool
}

func NewPresenceRepository(pool *pgxpool.Pool) *PresenceRepository {
	return &PresenceRepository{pool: pool}
}

// Exists reports whether a confirmation already exists for the pair.
func (r *PresenceRepository) Exists(ctx context.Context, eventID, userID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users_events WHERE event_id = $1 AND user_id = $2)`

	var exists bool
	if err := queryRow(ctx, r.pool, q, eventID, userID).Scan(&exists); err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("check presence: %w", err)
	}
	return exists, nil
}

// Create inserts exactly one confirmation row. Under a race, the
// loser gets domain.ErrPresenceAlreadyConfirmed; two rows can never
// exist.
func (r *PresenceRepository) Create(ctx context.Context, rec domain.PresenceRecord) error {
	const stmt = `
INSERT INTO users_events (event_id, user_id, confirmed_at)
VALUES ($1, $2, $3)`

	_, err := exec(ctx, r.pool, stmt, rec.EventID, rec.UserID, rec.ConfirmedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrPresenceAlreadyConfirmed
		}
		if isForeignKeyViolation(err) {
			if strings.Contains(violatedConstraint(err), "user_id") {
				return domain.ErrUserNotFound
			}
			return domain.ErrEventNotFound
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create presence: %w", err)
	}
	return nil
}

// CountByEvent returns the total number of confirmations for an event.
func (r *PresenceRepository) CountByEvent(ctx context.Context, eventID string) (int, error) {
	const q = `SELECT COUNT(*) FROM users_events WHERE event_id = $1`

	var total int
	if err := queryRow(ctx, r.pool, q, eventID).Scan(&total); err != nil {
		if isInvalidUUID(err) {
			return 0, domain.ErrInvalidID
		}
		return 0, fmt.Errorf("count presence: %w", err)
	}
	return total, nil
}

// ListByEvent returns up to limit roster entries in confirmation
// order, joined with the users' display fields.
func (r *PresenceRepository) ListByEvent(ctx context.Context, eventID string, limit int) ([]domain.PresencePreview, error) {
	const q = `
SELECT ue.user_id, u.name, u.photo_url, ue.confirmed_at
FROM users_events ue
JOIN users u ON u.id = ue.user_id
WHERE ue.event_id = $1
ORDER BY ue.confirmed_at ASC, ue.user_id ASC
LIMIT $2`

	rows, err := query(ctx, r.pool, q, eventID, limit)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list presence: %w", err)
	}
	defer rows.Close()

	var previews []domain.PresencePreview
	for rows.Next() {
		var p domain.PresencePreview
		if err := rows.Scan(&p.UserID, &p.Name, &p.PhotoURL, &p.ConfirmedAt); err != nil {
			return nil, fmt.Errorf("scan presence: %w", err)
		}
		previews = append(previews, p)
	}
	if rows.Err() != nil {
		if isInvalidUUID(rows.Err()) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("iterate presence: %w", rows.Err())
	}
	return previews, nil
}

// EventsConfirmedBy lists the events a user confirmed presence at,
// newest confirmation first, with categories attached.
func (r *PresenceRepository) EventsConfirmedBy(ctx context.Context, userID string) ([]domain.Event, error) {
	const q = `
SELECT e.id, e.name, e.description, e.start_date, e.end_date,
       e.latitude, e.longitude, e.address, e.city, e.modality,
       e.created_by, e.created_at
FROM users_events ue
JOIN events e ON e.id = ue.event_id
WHERE ue.user_id = $1
ORDER BY ue.confirmed_at DESC`

	rows, err := query(ctx, r.pool, q, userID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list attended events: %w", err)
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
