package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mypeople/backend/internal/apperror"
	"github.com/mypeople/backend/internal/model"
	"github.com/mypeople/backend/internal/repository"
)

func newEventService(store *mockStore) *EventService {
	return NewEventService(store.Events(), store.Groups(), store, testLogger())
}

func eventTimes() (time.Time, time.Time) {
	start := time.Date(2025, time.June, 1, 18, 0, 0, 0, time.UTC)
	return start, start.Add(2 * time.Hour)
}

// === CREATE ===

func TestEventCreate(t *testing.T) {
	store := newMockStore()
	svc := newEventService(store)
	author := seedUser(t, store, "author@example.com")
	group := seedGroup(t, store, author.ID, "book club")
	start, end := eventTimes()

	event, err := svc.Create(context.Background(), author, group.ID, "june meetup", "the library", start, end, "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if event.ID == "" {
		t.Error("expected an assigned id")
	}
	if event.GroupID != group.ID {
		t.Errorf("group = %s, want %s", event.GroupID, group.ID)
	}
}

func TestEventCreate_Validation(t *testing.T) {
	store := newMockStore()
	svc := newEventService(store)
	author := seedUser(t, store, "author@example.com")
	group := seedGroup(t, store, author.ID, "book club")
	start, end := eventTimes()

	tests := []struct {
		name       string
		title      string
		start, end time.Time
	}{
		{"blank title", "   ", start, end},
		{"zero start", "meetup", time.Time{}, end},
		{"zero end", "meetup", start, time.Time{}},
		{"start after end", "meetup", end, start},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), author, group.ID, tt.title, "", tt.start, tt.end, "")
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("want ErrValidation, got %v", err)
			}
		})
	}
}

func TestEventCreate_RequiresGroupAccess(t *testing.T) {
	store := newMockStore()
	svc := newEventService(store)
	author := seedUser(t, store, "author@example.com")
	member := seedUser(t, store, "member@example.com")
	stranger := seedUser(t, store, "stranger@example.com")
	group := seedGroup(t, store, author.ID, "book club")
	if err := store.AddMembership(context.Background(), group.ID, member.ID); err != nil {
		t.Fatalf("AddMembership: %v", err)
	}
	start, end := eventTimes()

	if _, err := svc.Create(context.Background(), member, group.ID, "meetup", "", start, end, ""); err != nil {
		t.Errorf("member create: %v", err)
	}
	_, err := svc.Create(context.Background(), stranger, group.ID, "meetup", "", start, end, "")
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("stranger create: want ErrForbidden, got %v", err)
	}
	_, err = svc.Create(context.Background(), author, "no-such-group", "meetup", "", start, end, "")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing group: want ErrNotFound, got %v", err)
	}
}

// === ACCESS ===

// Event access runs entirely through group membership. Note the asymmetry
// with creation: a group author who never joined their own group can create
// events in it but can't read them back.
func TestEventGet_MembershipGate(t *testing.T) {
	store := newMockStore()
	svc := newEventService(store)
	author := seedUser(t, store, "author@example.com")
	member := seedUser(t, store, "member@example.com")
	stranger := seedUser(t, store, "stranger@example.com")
	group := seedGroup(t, store, author.ID, "book club")
	if err := store.AddMembership(context.Background(), group.ID, member.ID); err != nil {
		t.Fatalf("AddMembership: %v", err)
	}
	start, end := eventTimes()
	event := &model.Event{Title: "meetup", Start: start, End: end, GroupID: group.ID}
	if err := store.CreateEvent(context.Background(), event); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	if _, err := svc.Get(context.Background(), event.ID, member); err != nil {
		t.Errorf("member read: %v", err)
	}
	if _, err := svc.Get(context.Background(), event.ID, stranger); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("stranger read: want ErrForbidden, got %v", err)
	}
	if _, err := svc.Get(context.Background(), event.ID, author); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("non-member author read: want ErrForbidden, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "no-such-event", member); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing event: want ErrNotFound, got %v", err)
	}
}

// An event whose group is gone means the delete cascade failed. The caller
// sees NotFound with a message naming the orphaned event.
func TestEventGet_OrphanedEvent(t *testing.T) {
	store := newMockStore()
	svc := newEventService(store)
	author := seedUser(t, store, "author@example.com")
	group := seedGroup(t, store, author.ID, "book club")
	start, end := eventTimes()
	event := &model.Event{Title: "meetup", Start: start, End: end, GroupID: group.ID}
	if err := store.CreateEvent(context.Background(), event); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	// Corrupt the store: drop the group without cascading.
	delete(store.groups, group.ID)

	_, err := svc.Get(context.Background(), event.ID, author)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), event.ID) {
		t.Errorf("error should name the orphaned event, got %q", err.Error())
	}
}

// === UPDATE ===

func TestEventUpdate_MergeSemantics(t *testing.T) {
	store := newMockStore()
	svc := newEventService(store)
	author := seedUser(t, store, "author@example.com")
	member := seedUser(t, store, "member@example.com")
	group := seedGroup(t, store, author.ID, "book club")
	if err := store.AddMembership(context.Background(), group.ID, member.ID); err != nil {
		t.Fatalf("AddMembership: %v", err)
	}
	start, end := eventTimes()
	event := &model.Event{Title: "meetup", Location: "the library", Start: start, End: end, GroupID: group.ID}
	if err := store.CreateEvent(context.Background(), event); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	// Only the title moves; everything else keeps its current value.
	got, err := svc.Update(context.Background(), event.ID, member, "july meetup", "", time.Time{}, time.Time{}, "")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Title != "july meetup" {
		t.Errorf("title = %q, want %q", got.Title, "july meetup")
	}
	if got.Location != "the library" || !got.Start.Equal(start) || !got.End.Equal(end) {
		t.Errorf("untouched fields changed: %+v", got)
	}
	if got.GroupID != group.ID {
		t.Errorf("group reference changed: %s", got.GroupID)
	}
}

// A partial update must not be able to invert the schedule: moving only the
// start past the existing end is rejected on the merged values.
func TestEventUpdate_RejectsInvertedSchedule(t *testing.T) {
	store := newMockStore()
	svc := newEventService(store)
	author := seedUser(t, store, "author@example.com")
	member := seedUser(t, store, "member@example.com")
	group := seedGroup(t, store, author.ID, "book club")
	if err := store.AddMembership(context.Background(), group.ID, member.ID); err != nil {
		t.Fatalf("AddMembership: %v", err)
	}
	start, end := eventTimes()
	event := &model.Event{Title: "meetup", Start: start, End: end, GroupID: group.ID}
	if err := store.CreateEvent(context.Background(), event); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	_, err := svc.Update(context.Background(), event.ID, member, "", "", end.Add(time.Hour), time.Time{}, "")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("want ErrValidation, got %v", err)
	}
}

func TestEventUpdate_StrangerForbidden(t *testing.T) {
	store := newMockStore()
	svc := newEventService(store)
	author := seedUser(t, store, "author@example.com")
	stranger := seedUser(t, store, "stranger@example.com")
	group := seedGroup(t, store, author.ID, "book club")
	start, end := eventTimes()
	event := &model.Event{Title: "meetup", Start: start, End: end, GroupID: group.ID}
	if err := store.CreateEvent(context.Background(), event); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}

	_, err := svc.Update(context.Background(), event.ID, stranger, "hijacked", "", time.Time{}, time.Time{}, "")
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("want ErrForbidden, got %v", err)
	}
}

// === LIST ===

func TestEventList_Filters(t *testing.T) {
	store := newMockStore()
	svc := newEventService(store)
	author := seedUser(t, store, "author@example.com")
	member := seedUser(t, store, "member@example.com")
	ownGroup := seedGroup(t, store, author.ID, "own")
	otherGroup := seedGroup(t, store, member.ID, "other")
	if err := store.AddMembership(context.Background(), otherGroup.ID, author.ID); err != nil {
		t.Fatalf("AddMembership: %v", err)
	}
	start, end := eventTimes()
	authoredEvent := &model.Event{Title: "in own group", Start: start, End: end, GroupID: ownGroup.ID}
	joinedEvent := &model.Event{Title: "in joined group", Start: start, End: end, GroupID: otherGroup.ID}
	for _, event := range []*model.Event{authoredEvent, joinedEvent} {
		if err := store.CreateEvent(context.Background(), event); err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
	}

	got, err := svc.List(context.Background(), author, repository.GroupFilterAuthored)
	if err != nil {
		t.Fatalf("List authored: %v", err)
	}
	if len(got) != 1 || got[0].ID != authoredEvent.ID {
		t.Errorf("authored filter = %v, want [%s]", got, authoredEvent.ID)
	}

	got, err = svc.List(context.Background(), author, repository.GroupFilterMembership)
	if err != nil {
		t.Fatalf("List membership: %v", err)
	}
	if len(got) != 1 || got[0].ID != joinedEvent.ID {
		t.Errorf("membership filter = %v, want [%s]", got, joinedEvent.ID)
	}
}
