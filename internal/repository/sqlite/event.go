package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/mypeople/backend/internal/apperror"
	"github.com/mypeople/backend/internal/model"
	"github.com/mypeople/backend/internal/repository"
)

// EventDB implements repository.EventRepository over the shared pool.
type EventDB struct {
	conn *sql.DB
}

// compile-time check that *EventDB implements repository.EventRepository
var _ repository.EventRepository = (*EventDB)(nil)

const eventColumns = `id, title, location, start_at, end_at, group_id, cover_image_url, created_at, updated_at`

func scanEvent(row interface{ Scan(...any) error }) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID,
		&e.Title,
		&e.Location,
		&e.Start,
		&e.End,
		&e.GroupID,
		&e.CoverImageURL,
		&e.CreatedAt,
		&e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserts a new event into its owning group, assigning a fresh xid and
// timestamps in place. The group_id foreign key rejects events pointing at a
// group that doesn't exist.
func (r *EventDB) Create(ctx context.Context, event *model.Event) error {
	event.ID = xid.New().String()

	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO events (id, title, location, start_at, end_at, group_id, cover_image_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.Title,
		event.Location,
		event.Start,
		event.End,
		event.GroupID,
		event.CoverImageURL,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating event: %w", err)
	}

	return nil
}

// GetByID retrieves a single event.
// Returns apperror.ErrNotFound if no event exists with that ID.
func (r *EventDB) GetByID(ctx context.Context, id string) (*model.Event, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id)

	event, err := scanEvent(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("event", id)
		}
		return nil, fmt.Errorf("sqlite: getting event %s: %w", id, err)
	}

	return event, nil
}

// Update writes the mutable fields. group_id is deliberately absent from the
// SET list: an event's owning group is immutable after creation.
func (r *EventDB) Update(ctx context.Context, event *model.Event) error {
	event.UpdatedAt = time.Now()

	result, err := r.conn.ExecContext(ctx,
		`UPDATE events
		 SET title = ?, location = ?, start_at = ?, end_at = ?, cover_image_url = ?, updated_at = ?
		 WHERE id = ?`,
		event.Title,
		event.Location,
		event.Start,
		event.End,
		event.CoverImageURL,
		event.UpdatedAt,
		event.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating event %s: %w", event.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("event", event.ID)
	}

	return nil
}

// ListByGroupAuthor returns events of the groups the user authored, in
// creation order (oldest first — groups carry their events as an ordered,
// creation-time sequence).
func (r *EventDB) ListByGroupAuthor(ctx context.Context, userID string) ([]model.Event, error) {
	return r.list(ctx,
		`SELECT e.id, e.title, e.location, e.start_at, e.end_at, e.group_id, e.cover_image_url, e.created_at, e.updated_at
		 FROM events e
		 JOIN groups g ON g.id = e.group_id
		 WHERE g.author_id = ?
		 ORDER BY e.created_at ASC`,
		userID)
}

// ListByGroupMember returns events of the groups the user is a member of.
func (r *EventDB) ListByGroupMember(ctx context.Context, userID string) ([]model.Event, error) {
	return r.list(ctx,
		`SELECT e.id, e.title, e.location, e.start_at, e.end_at, e.group_id, e.cover_image_url, e.created_at, e.updated_at
		 FROM events e
		 JOIN group_members gm ON gm.group_id = e.group_id
		 WHERE gm.user_id = ?
		 ORDER BY e.created_at ASC`,
		userID)
}

func (r *EventDB) list(ctx context.Context, query string, args ...any) ([]model.Event, error) {
	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing events: %w", err)
	}
	defer rows.Close()

	events := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning event row: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating events: %w", err)
	}

	return events, nil
}
