package service

import (
	"context"
	"errors"
	"testing"

	"github.com/mypeople/backend/internal/apperror"
)

func newFollowService(store *mockStore) *FollowService {
	return NewFollowService(store, store, testLogger())
}

func TestFollow(t *testing.T) {
	store := newMockStore()
	svc := newFollowService(store)
	ada := seedUser(t, store, "ada@example.com")
	grace := seedUser(t, store, "grace@example.com")

	if err := svc.Follow(context.Background(), ada, grace.ID); err != nil {
		t.Fatalf("Follow: %v", err)
	}

	// The edge is directed: ada follows grace, not the reverse.
	following, err := svc.Following(context.Background(), ada)
	if err != nil {
		t.Fatalf("Following: %v", err)
	}
	if len(following) != 1 || following[0].ID != grace.ID {
		t.Errorf("ada following = %v, want [%s]", following, grace.ID)
	}
	followers, err := svc.Followers(context.Background(), grace)
	if err != nil {
		t.Fatalf("Followers: %v", err)
	}
	if len(followers) != 1 || followers[0].ID != ada.ID {
		t.Errorf("grace followers = %v, want [%s]", followers, ada.ID)
	}
	reverse, err := svc.Followers(context.Background(), ada)
	if err != nil {
		t.Fatalf("Followers: %v", err)
	}
	if len(reverse) != 0 {
		t.Errorf("ada followers = %v, want none", reverse)
	}
}

func TestFollow_UnknownFollowee(t *testing.T) {
	store := newMockStore()
	svc := newFollowService(store)
	ada := seedUser(t, store, "ada@example.com")

	err := svc.Follow(context.Background(), ada, "no-such-user")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("want ErrNotFound, got %v", err)
	}
}

func TestFollow_Self(t *testing.T) {
	store := newMockStore()
	svc := newFollowService(store)
	ada := seedUser(t, store, "ada@example.com")

	err := svc.Follow(context.Background(), ada, ada.ID)
	if !errors.Is(err, apperror.ErrInvalidRelationship) {
		t.Errorf("want ErrInvalidRelationship, got %v", err)
	}
}

func TestFollow_Idempotent(t *testing.T) {
	store := newMockStore()
	svc := newFollowService(store)
	ada := seedUser(t, store, "ada@example.com")
	grace := seedUser(t, store, "grace@example.com")

	for i := 0; i < 2; i++ {
		if err := svc.Follow(context.Background(), ada, grace.ID); err != nil {
			t.Fatalf("Follow round %d: %v", i, err)
		}
	}
	following, err := svc.Following(context.Background(), ada)
	if err != nil {
		t.Fatalf("Following: %v", err)
	}
	if len(following) != 1 {
		t.Errorf("edge count = %d, want 1", len(following))
	}
}

func TestUnfollow(t *testing.T) {
	store := newMockStore()
	svc := newFollowService(store)
	ada := seedUser(t, store, "ada@example.com")
	grace := seedUser(t, store, "grace@example.com")
	seedFollow(t, store, ada.ID, grace.ID)

	if err := svc.Unfollow(context.Background(), ada, grace.ID); err != nil {
		t.Fatalf("Unfollow: %v", err)
	}
	following, err := svc.Following(context.Background(), ada)
	if err != nil {
		t.Fatalf("Following: %v", err)
	}
	if len(following) != 0 {
		t.Errorf("edge survived unfollow: %v", following)
	}

	// Unfollowing again, or unfollowing someone never followed, is a no-op.
	if err := svc.Unfollow(context.Background(), ada, grace.ID); err != nil {
		t.Errorf("repeat Unfollow: %v", err)
	}
	if err := svc.Unfollow(context.Background(), ada, "no-such-user"); err != nil {
		t.Errorf("Unfollow of unknown user: %v", err)
	}
}
