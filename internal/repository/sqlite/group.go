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

// GroupDB implements repository.GroupRepository over the shared pool.
type GroupDB struct {
	conn *sql.DB
}

// compile-time check that *GroupDB implements repository.GroupRepository
var _ repository.GroupRepository = (*GroupDB)(nil)

const groupColumns = `id, name, author_id, cover_image_url, created_at, updated_at`

func scanGroup(row interface{ Scan(...any) error }) (*model.Group, error) {
	var g model.Group
	err := row.Scan(
		&g.ID,
		&g.Name,
		&g.AuthorID,
		&g.CoverImageURL,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Create inserts a new group owned by group.AuthorID, assigning a fresh xid
// and timestamps in place. The author is NOT inserted as a member — membership
// is always an explicit edge.
func (r *GroupDB) Create(ctx context.Context, group *model.Group) error {
	group.ID = xid.New().String()

	now := time.Now()
	group.CreatedAt = now
	group.UpdatedAt = now

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO groups (id, name, author_id, cover_image_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		group.ID,
		group.Name,
		group.AuthorID,
		group.CoverImageURL,
		group.CreatedAt,
		group.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating group: %w", err)
	}

	return nil
}

// GetByID retrieves a single group. Members are not loaded here — use
// Relationships().ListMembers when the caller actually needs them.
func (r *GroupDB) GetByID(ctx context.Context, id string) (*model.Group, error) {
	row := r.conn.QueryRowContext(ctx,
		`SELECT `+groupColumns+` FROM groups WHERE id = ?`, id)

	group, err := scanGroup(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("group", id)
		}
		return nil, fmt.Errorf("sqlite: getting group %s: %w", id, err)
	}

	return group, nil
}

// Update writes the mutable fields (name, cover image). author_id is
// immutable: a group has exactly one author for its whole life.
func (r *GroupDB) Update(ctx context.Context, group *model.Group) error {
	group.UpdatedAt = time.Now()

	result, err := r.conn.ExecContext(ctx,
		`UPDATE groups SET name = ?, cover_image_url = ?, updated_at = ? WHERE id = ?`,
		group.Name,
		group.CoverImageURL,
		group.UpdatedAt,
		group.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating group %s: %w", group.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("group", group.ID)
	}

	return nil
}

// Delete removes a group and cascades to its dependents in a single
// transaction: events first, then membership edges, then the group row.
//
// Follow edges are user-scoped, not group-scoped, so they survive — a former
// member still follows whoever they followed before.
func (r *GroupDB) Delete(ctx context.Context, id string) error {
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning delete-group tx: %w", err)
	}
	// Rollback is a no-op after Commit; deferring it covers every early return.
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE group_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting events of group %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting memberships of group %s: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting group %s: %w", id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("group", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing delete-group tx: %w", err)
	}
	return nil
}

// ListByAuthor returns the groups the user authored, newest first.
func (r *GroupDB) ListByAuthor(ctx context.Context, authorID string) ([]model.Group, error) {
	return r.list(ctx,
		`SELECT `+groupColumns+` FROM groups WHERE author_id = ? ORDER BY created_at DESC`,
		authorID)
}

// ListByMember returns the groups the user holds a membership edge in.
func (r *GroupDB) ListByMember(ctx context.Context, userID string) ([]model.Group, error) {
	return r.list(ctx,
		`SELECT g.id, g.name, g.author_id, g.cover_image_url, g.created_at, g.updated_at
		 FROM groups g
		 JOIN group_members gm ON gm.group_id = g.id
		 WHERE gm.user_id = ?
		 ORDER BY g.created_at DESC`,
		userID)
}

func (r *GroupDB) list(ctx context.Context, query string, args ...any) ([]model.Group, error) {
	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing groups: %w", err)
	}
	defer rows.Close()

	groups := make([]model.Group, 0)
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning group row: %w", err)
		}
		groups = append(groups, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating groups: %w", err)
	}

	return groups, nil
}
