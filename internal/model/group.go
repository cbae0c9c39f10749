package model

import "time"

// Group is a user's circle of people ("my people" in the app's language).
//
// AuthorID is the owning user and is the key every group authorization check
// keys off: only the author may mutate, delete, or invite members into the
// group. The author is not automatically a member — membership is an explicit
// edge in the group_members table.
//
// Members is populated on demand by the repository (a snapshot, not a live
// view). We deliberately do not hold back-references from User to Group or
// from Group to its events as in-memory object graphs — everything is id-based
// foreign keys plus query methods, which avoids ownership cycles.
type Group struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	AuthorID      string    `json:"authorId"`
	CoverImageURL string    `json:"coverImageUrl,omitempty"`
	Members       []User    `json:"members,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// MemberReport describes the outcome of an add-members request.
//
// Candidates can be skipped for two reasons: the id doesn't resolve to a user,
// or the candidate doesn't follow the inviter (only users who already follow
// the group's author are eligible — the trust gate). Rather than swallowing
// those skips silently, the service reports them so the client can tell the
// difference between "added" and "quietly dropped".
type MemberReport struct {
	Added              []string `json:"added"`
	SkippedNotFound    []string `json:"skippedNotFound"`
	SkippedNotFollower []string `json:"skippedNotFollower"`
}
