package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/mypeople/backend/internal/apperror"
	"github.com/mypeople/backend/internal/model"
	"github.com/mypeople/backend/internal/repository"
)

// mockStore is a hand-written in-memory implementation of all four
// repository interfaces. Instead of talking to SQLite, it stores entities in
// maps and edges in pair-keyed sets — fast, isolated, and easy to inspect
// mid-test. The services don't know or care which implementation they get;
// that's the point of programming to the interfaces.
type mockStore struct {
	users       map[string]*model.User
	groups      map[string]*model.Group
	events      map[string]*model.Event
	memberships map[[2]string]bool // (groupID, userID)
	follows     map[[2]string]bool // (followerID, followeeID)
	nextID      int
}

// mockStore itself satisfies the user and relationship interfaces; the
// group and event interfaces reuse the Create/GetByID/Update names, so those
// two are served through thin accessor wrappers, same shape as the sqlite
// package's Users()/Groups() accessors.
var (
	_ repository.UserRepository         = (*mockStore)(nil)
	_ repository.RelationshipRepository = (*mockStore)(nil)
	_ repository.GroupRepository        = (*mockGroups)(nil)
	_ repository.EventRepository        = (*mockEvents)(nil)
)

func newMockStore() *mockStore {
	return &mockStore{
		users:       make(map[string]*model.User),
		groups:      make(map[string]*model.Group),
		events:      make(map[string]*model.Event),
		memberships: make(map[[2]string]bool),
		follows:     make(map[[2]string]bool),
	}
}

// Groups returns the store's GroupRepository view.
func (m *mockStore) Groups() *mockGroups { return &mockGroups{store: m} }

// Events returns the store's EventRepository view.
func (m *mockStore) Events() *mockEvents { return &mockEvents{store: m} }

type mockGroups struct{ store *mockStore }

func (g *mockGroups) Create(ctx context.Context, group *model.Group) error {
	return g.store.CreateGroup(ctx, group)
}

func (g *mockGroups) GetByID(ctx context.Context, id string) (*model.Group, error) {
	return g.store.GetGroupByID(ctx, id)
}

func (g *mockGroups) Update(ctx context.Context, group *model.Group) error {
	return g.store.UpdateGroup(ctx, group)
}

func (g *mockGroups) Delete(ctx context.Context, id string) error {
	return g.store.DeleteGroup(ctx, id)
}

func (g *mockGroups) ListByAuthor(ctx context.Context, authorID string) ([]model.Group, error) {
	return g.store.ListGroupsByAuthor(ctx, authorID)
}

func (g *mockGroups) ListByMember(ctx context.Context, userID string) ([]model.Group, error) {
	return g.store.ListGroupsByMember(ctx, userID)
}

type mockEvents struct{ store *mockStore }

func (e *mockEvents) Create(ctx context.Context, event *model.Event) error {
	return e.store.CreateEvent(ctx, event)
}

func (e *mockEvents) GetByID(ctx context.Context, id string) (*model.Event, error) {
	return e.store.GetEventByID(ctx, id)
}

func (e *mockEvents) Update(ctx context.Context, event *model.Event) error {
	return e.store.UpdateEvent(ctx, event)
}

func (e *mockEvents) ListByGroupAuthor(ctx context.Context, userID string) ([]model.Event, error) {
	return e.store.ListEventsByGroupAuthor(ctx, userID)
}

func (e *mockEvents) ListByGroupMember(ctx context.Context, userID string) ([]model.Event, error) {
	return e.store.ListEventsByGroupMember(ctx, userID)
}

func (m *mockStore) newID() string {
	m.nextID++
	return fmt.Sprintf("mock-%d", m.nextID)
}

// ---- UserRepository ----

func (m *mockStore) Create(_ context.Context, user *model.User) error {
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return apperror.Conflict("user", "email or username already registered")
		}
	}
	user.ID = m.newID()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockStore) GetByID(_ context.Context, id string) (*model.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *user
	return &result, nil
}

func (m *mockStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			result := *user
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockStore) Update(_ context.Context, user *model.User) error {
	if _, ok := m.users[user.ID]; !ok {
		return apperror.NotFound("user", user.ID)
	}
	for id, existing := range m.users {
		if id != user.ID && user.Username != "" && existing.Username == user.Username {
			return apperror.Conflict("user", "username already taken")
		}
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

// ---- GroupRepository ----

func (m *mockStore) CreateGroup(_ context.Context, group *model.Group) error {
	group.ID = m.newID()
	now := time.Now()
	group.CreatedAt = now
	group.UpdatedAt = now
	stored := *group
	m.groups[group.ID] = &stored
	return nil
}

func (m *mockStore) GetGroupByID(_ context.Context, id string) (*model.Group, error) {
	group, ok := m.groups[id]
	if !ok {
		return nil, apperror.NotFound("group", id)
	}
	result := *group
	return &result, nil
}

func (m *mockStore) UpdateGroup(_ context.Context, group *model.Group) error {
	if _, ok := m.groups[group.ID]; !ok {
		return apperror.NotFound("group", group.ID)
	}
	stored := *group
	m.groups[group.ID] = &stored
	return nil
}

// DeleteGroup mirrors the sqlite cascade: events and membership edges go,
// follow edges stay.
func (m *mockStore) DeleteGroup(_ context.Context, id string) error {
	if _, ok := m.groups[id]; !ok {
		return apperror.NotFound("group", id)
	}
	delete(m.groups, id)
	for eventID, event := range m.events {
		if event.GroupID == id {
			delete(m.events, eventID)
		}
	}
	for edge := range m.memberships {
		if edge[0] == id {
			delete(m.memberships, edge)
		}
	}
	return nil
}

func (m *mockStore) ListGroupsByAuthor(_ context.Context, authorID string) ([]model.Group, error) {
	result := []model.Group{}
	for _, group := range m.groups {
		if group.AuthorID == authorID {
			result = append(result, *group)
		}
	}
	return result, nil
}

func (m *mockStore) ListGroupsByMember(_ context.Context, userID string) ([]model.Group, error) {
	result := []model.Group{}
	for _, group := range m.groups {
		if m.memberships[[2]string{group.ID, userID}] {
			result = append(result, *group)
		}
	}
	return result, nil
}

// ---- EventRepository ----

func (m *mockStore) CreateEvent(_ context.Context, event *model.Event) error {
	event.ID = m.newID()
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now
	stored := *event
	m.events[event.ID] = &stored
	return nil
}

func (m *mockStore) GetEventByID(_ context.Context, id string) (*model.Event, error) {
	event, ok := m.events[id]
	if !ok {
		return nil, apperror.NotFound("event", id)
	}
	result := *event
	return &result, nil
}

func (m *mockStore) UpdateEvent(_ context.Context, event *model.Event) error {
	if _, ok := m.events[event.ID]; !ok {
		return apperror.NotFound("event", event.ID)
	}
	stored := *event
	m.events[event.ID] = &stored
	return nil
}

func (m *mockStore) ListEventsByGroupAuthor(_ context.Context, userID string) ([]model.Event, error) {
	result := []model.Event{}
	for _, event := range m.events {
		if group, ok := m.groups[event.GroupID]; ok && group.AuthorID == userID {
			result = append(result, *event)
		}
	}
	return result, nil
}

func (m *mockStore) ListEventsByGroupMember(_ context.Context, userID string) ([]model.Event, error) {
	result := []model.Event{}
	for _, event := range m.events {
		if m.memberships[[2]string{event.GroupID, userID}] {
			result = append(result, *event)
		}
	}
	return result, nil
}

// ---- RelationshipRepository ----

func (m *mockStore) AddMembership(_ context.Context, groupID, userID string) error {
	m.memberships[[2]string{groupID, userID}] = true
	return nil
}

func (m *mockStore) RemoveMembership(_ context.Context, groupID, userID string) error {
	delete(m.memberships, [2]string{groupID, userID})
	return nil
}

func (m *mockStore) IsMember(_ context.Context, groupID, userID string) (bool, error) {
	return m.memberships[[2]string{groupID, userID}], nil
}

func (m *mockStore) ListMembers(_ context.Context, groupID string) ([]model.User, error) {
	result := []model.User{}
	for edge := range m.memberships {
		if edge[0] == groupID {
			if user, ok := m.users[edge[1]]; ok {
				result = append(result, *user)
			}
		}
	}
	return result, nil
}

func (m *mockStore) AddEligibleMembers(_ context.Context, groupID, inviterID string, candidateIDs []string) (*model.MemberReport, error) {
	report := &model.MemberReport{
		Added:              []string{},
		SkippedNotFound:    []string{},
		SkippedNotFollower: []string{},
	}
	for _, candidateID := range candidateIDs {
		if _, ok := m.users[candidateID]; !ok {
			report.SkippedNotFound = append(report.SkippedNotFound, candidateID)
			continue
		}
		if !m.follows[[2]string{candidateID, inviterID}] {
			report.SkippedNotFollower = append(report.SkippedNotFollower, candidateID)
			continue
		}
		m.memberships[[2]string{groupID, candidateID}] = true
		report.Added = append(report.Added, candidateID)
	}
	return report, nil
}

func (m *mockStore) AddFollow(_ context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return apperror.InvalidRelationship("a user cannot follow themselves")
	}
	m.follows[[2]string{followerID, followeeID}] = true
	return nil
}

func (m *mockStore) RemoveFollow(_ context.Context, followerID, followeeID string) error {
	delete(m.follows, [2]string{followerID, followeeID})
	return nil
}

func (m *mockStore) IsFollower(_ context.Context, userID, candidateID string) (bool, error) {
	return m.follows[[2]string{candidateID, userID}], nil
}

func (m *mockStore) ListFollowers(_ context.Context, userID string) ([]model.User, error) {
	result := []model.User{}
	for edge := range m.follows {
		if edge[1] == userID {
			if user, ok := m.users[edge[0]]; ok {
				result = append(result, *user)
			}
		}
	}
	return result, nil
}

func (m *mockStore) ListFollowing(_ context.Context, userID string) ([]model.User, error) {
	result := []model.User{}
	for edge := range m.follows {
		if edge[0] == userID {
			if user, ok := m.users[edge[1]]; ok {
				result = append(result, *user)
			}
		}
	}
	return result, nil
}

// ---- shared helpers ----

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// seedUser inserts a user directly into the store and returns it.
func seedUser(t *testing.T, store *mockStore, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, PasswordHash: "irrelevant"}
	if err := store.Create(context.Background(), user); err != nil {
		t.Fatalf("seeding user %s: %v", email, err)
	}
	return user
}

// seedGroup inserts a group authored by authorID and returns it.
func seedGroup(t *testing.T, store *mockStore, authorID, name string) *model.Group {
	t.Helper()
	group := &model.Group{Name: name, AuthorID: authorID}
	if err := store.CreateGroup(context.Background(), group); err != nil {
		t.Fatalf("seeding group %s: %v", name, err)
	}
	return group
}

// seedFollow adds a follow edge directly.
func seedFollow(t *testing.T, store *mockStore, followerID, followeeID string) {
	t.Helper()
	if err := store.AddFollow(context.Background(), followerID, followeeID); err != nil {
		t.Fatalf("seeding follow %s → %s: %v", followerID, followeeID, err)
	}
}
