package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mypeople/backend/internal/apperror"
	"github.com/mypeople/backend/internal/model"
	"github.com/mypeople/backend/internal/repository"
)

// RelationshipDB implements repository.RelationshipRepository over the shared
// pool. It owns the two edge tables: group_members and follows.
//
// IDEMPOTENCE WITHOUT LOCKING:
// Both tables have a composite primary key, so the database enforces
// one-edge-per-pair. All inserts go through INSERT OR IGNORE: a duplicate —
// including one racing a concurrent insert of the same pair — simply affects
// zero rows. There is no check-then-act window to get wrong.
type RelationshipDB struct {
	conn *sql.DB
}

// compile-time check that *RelationshipDB implements the interface
var _ repository.RelationshipRepository = (*RelationshipDB)(nil)

// AddMembership inserts the (group, user) edge if absent. Re-adding an
// existing member is a no-op, not an error.
func (r *RelationshipDB) AddMembership(ctx context.Context, groupID, userID string) error {
	_, err := r.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO group_members (group_id, user_id, created_at) VALUES (?, ?, ?)`,
		groupID, userID, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding membership (%s, %s): %w", groupID, userID, err)
	}
	return nil
}

// RemoveMembership deletes the edge if present; idempotent.
func (r *RelationshipDB) RemoveMembership(ctx context.Context, groupID, userID string) error {
	_, err := r.conn.ExecContext(ctx,
		`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`,
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing membership (%s, %s): %w", groupID, userID, err)
	}
	return nil
}

// IsMember reports whether userID holds a membership edge in groupID.
func (r *RelationshipDB) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var exists int
	err := r.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = ? AND user_id = ?)`,
		groupID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking membership (%s, %s): %w", groupID, userID, err)
	}
	return exists == 1, nil
}

// ListMembers returns a snapshot of the group's members.
func (r *RelationshipDB) ListMembers(ctx context.Context, groupID string) ([]model.User, error) {
	return r.listUsers(ctx,
		`SELECT u.id, u.email, u.username, u.display_name, u.password_hash, u.profile_image_url, u.created_at, u.updated_at
		 FROM users u
		 JOIN group_members gm ON gm.user_id = u.id
		 WHERE gm.group_id = ?`,
		groupID)
}

// AddEligibleMembers applies the trust gate inside one transaction.
//
// For each candidate id, in order:
//  1. resolve the user — unknown ids go to SkippedNotFound
//  2. require a follow edge candidate→inviter — others go to SkippedNotFollower
//  3. INSERT OR IGNORE the membership edge — already-members count as Added
//     (the add is a no-op, matching the idempotence contract)
//
// Running the whole loop in a single transaction means the follow check and
// the membership insert observe one consistent snapshot: an unfollow racing
// this call either lands entirely before it (candidate skipped) or entirely
// after (candidate added), never in between.
func (r *RelationshipDB) AddEligibleMembers(ctx context.Context, groupID, inviterID string, candidateIDs []string) (*model.MemberReport, error) {
	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning add-members tx: %w", err)
	}
	defer tx.Rollback()

	report := &model.MemberReport{
		Added:              []string{},
		SkippedNotFound:    []string{},
		SkippedNotFollower: []string{},
	}

	now := time.Now()
	for _, candidateID := range candidateIDs {
		var exists int
		err := tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM users WHERE id = ?)`, candidateID,
		).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("sqlite: resolving candidate %s: %w", candidateID, err)
		}
		if exists == 0 {
			report.SkippedNotFound = append(report.SkippedNotFound, candidateID)
			continue
		}

		var follows int
		err = tx.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = ? AND followee_id = ?)`,
			candidateID, inviterID,
		).Scan(&follows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: checking follow edge for %s: %w", candidateID, err)
		}
		if follows == 0 {
			report.SkippedNotFollower = append(report.SkippedNotFollower, candidateID)
			continue
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO group_members (group_id, user_id, created_at) VALUES (?, ?, ?)`,
			groupID, candidateID, now,
		); err != nil {
			return nil, fmt.Errorf("sqlite: inserting membership for %s: %w", candidateID, err)
		}
		report.Added = append(report.Added, candidateID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing add-members tx: %w", err)
	}
	return report, nil
}

// AddFollow inserts the directed follower→followee edge if absent.
// Self-follows are structurally invalid and fail with ErrInvalidRelationship
// before touching the database (the table CHECK backs this up).
func (r *RelationshipDB) AddFollow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return apperror.InvalidRelationship("a user cannot follow themselves")
	}

	_, err := r.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO follows (follower_id, followee_id, created_at) VALUES (?, ?, ?)`,
		followerID, followeeID, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding follow (%s → %s): %w", followerID, followeeID, err)
	}
	return nil
}

// RemoveFollow deletes the edge if present; idempotent.
func (r *RelationshipDB) RemoveFollow(ctx context.Context, followerID, followeeID string) error {
	_, err := r.conn.ExecContext(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND followee_id = ?`,
		followerID, followeeID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing follow (%s → %s): %w", followerID, followeeID, err)
	}
	return nil
}

// IsFollower reports whether candidateID follows userID.
// Note the argument order: the first id is the one being followed.
func (r *RelationshipDB) IsFollower(ctx context.Context, userID, candidateID string) (bool, error) {
	var exists int
	err := r.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = ? AND followee_id = ?)`,
		candidateID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking follow (%s → %s): %w", candidateID, userID, err)
	}
	return exists == 1, nil
}

// ListFollowers returns a snapshot of the users following userID.
func (r *RelationshipDB) ListFollowers(ctx context.Context, userID string) ([]model.User, error) {
	return r.listUsers(ctx,
		`SELECT u.id, u.email, u.username, u.display_name, u.password_hash, u.profile_image_url, u.created_at, u.updated_at
		 FROM users u
		 JOIN follows f ON f.follower_id = u.id
		 WHERE f.followee_id = ?`,
		userID)
}

// ListFollowing returns a snapshot of the users userID follows.
func (r *RelationshipDB) ListFollowing(ctx context.Context, userID string) ([]model.User, error) {
	return r.listUsers(ctx,
		`SELECT u.id, u.email, u.username, u.display_name, u.password_hash, u.profile_image_url, u.created_at, u.updated_at
		 FROM users u
		 JOIN follows f ON f.followee_id = u.id
		 WHERE f.follower_id = ?`,
		userID)
}

func (r *RelationshipDB) listUsers(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}
