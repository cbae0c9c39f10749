package model

import "time"

// Event is a scheduled gathering owned by exactly one group.
//
// GroupID is immutable after creation — an event can never be moved between
// groups. Access to an event is derived transitively: you can see or change an
// event iff you are a member of its owning group. Start must not be after End;
// the service enforces that invariant on create and update.
type Event struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Location      string    `json:"location"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	GroupID       string    `json:"groupId"`
	CoverImageURL string    `json:"coverImageUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
