// Package repository declares the persistence interfaces the service layer
// programs against. The sqlite subpackage is the only implementation; tests
// substitute hand-written mocks.
package repository

import (
	"context"
	"fmt"

	"github.com/mypeople/backend/internal/model"
)

// GroupFilter is a tagged enumeration of the query variants for listing
// groups (and, transitively, events). The API exposes it as the filter_by
// query parameter.
type GroupFilter int

const (
	// GroupFilterAuthored selects groups whose author is the principal.
	GroupFilterAuthored GroupFilter = iota
	// GroupFilterMembership selects groups the principal is a member of.
	GroupFilterMembership
)

// ParseGroupFilter maps the filter_by query value to a GroupFilter.
// An empty value defaults to "authored", matching the original API default.
func ParseGroupFilter(s string) (GroupFilter, error) {
	switch s {
	case "", "authored":
		return GroupFilterAuthored, nil
	case "membership":
		return GroupFilterMembership, nil
	default:
		return 0, fmt.Errorf("unknown filter_by value %q (want authored or membership)", s)
	}
}

// UserRepository persists user accounts.
//
// Create assigns a fresh opaque ID and timestamps, and returns a Conflict
// error on a duplicate email or username. GetByEmail is used by the
// access-token flow; GetByID by the principal resolver.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
}

// GroupRepository persists groups and their author reference.
//
// Delete cascades: the group's events and membership edges go with it, in a
// single transaction. Follow edges are user-scoped and are never touched by
// a group deletion.
type GroupRepository interface {
	Create(ctx context.Context, group *model.Group) error
	GetByID(ctx context.Context, id string) (*model.Group, error)
	Update(ctx context.Context, group *model.Group) error
	Delete(ctx context.Context, id string) error
	ListByAuthor(ctx context.Context, authorID string) ([]model.Group, error)
	ListByMember(ctx context.Context, userID string) ([]model.Group, error)
}

// EventRepository persists events. An event's group reference is immutable
// after creation — Update never writes group_id.
type EventRepository interface {
	Create(ctx context.Context, event *model.Event) error
	GetByID(ctx context.Context, id string) (*model.Event, error)
	Update(ctx context.Context, event *model.Event) error
	ListByGroupAuthor(ctx context.Context, userID string) ([]model.Event, error)
	ListByGroupMember(ctx context.Context, userID string) ([]model.Event, error)
}

// RelationshipRepository owns the two many-to-many edge tables: group
// membership and the directed follow graph.
//
// IDEMPOTENCE CONTRACT:
// Every Add/Remove is a no-op when the edge is already in the desired state.
// Two concurrent adds of the same pair must resolve to a single edge with
// neither caller seeing an error — the unique index plus INSERT OR IGNORE
// re-validates uniqueness at insert time instead of trusting a pre-check.
//
// The one structural failure is AddFollow with followerID == followeeID,
// which returns apperror.ErrInvalidRelationship.
type RelationshipRepository interface {
	AddMembership(ctx context.Context, groupID, userID string) error
	RemoveMembership(ctx context.Context, groupID, userID string) error
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	ListMembers(ctx context.Context, groupID string) ([]model.User, error)

	// AddEligibleMembers applies the trust gate inside one transaction:
	// for each candidate it resolves the user (skip when absent), checks the
	// candidate follows the inviter (skip otherwise), and inserts the
	// membership edge. The report says exactly what happened to each id.
	AddEligibleMembers(ctx context.Context, groupID, inviterID string, candidateIDs []string) (*model.MemberReport, error)

	AddFollow(ctx context.Context, followerID, followeeID string) error
	RemoveFollow(ctx context.Context, followerID, followeeID string) error
	// IsFollower reports whether candidateID follows userID.
	IsFollower(ctx context.Context, userID, candidateID string) (bool, error)
	ListFollowers(ctx context.Context, userID string) ([]model.User, error)
	ListFollowing(ctx context.Context, userID string) ([]model.User, error)
}
