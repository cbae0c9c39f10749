// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// The ID is an opaque, immutable xid string generated by the repository on
// insert — we never expose database row numbers or tie our primary keys to
// anything external. Email is the login identifier and is unique. Username is
// the public handle (also unique when set) and DisplayName is free-form; both
// are optional and start empty.
//
// WHY Username/DisplayName AS string (not *string)?
// An unset handle is simply the empty string. That keeps JSON shaping and
// SQL scanning simple — "empty means unset" is unambiguous here because
// neither field may legitimately be an empty non-null value.
//
// PasswordHash holds the bcrypt hash and is never serialized — note the
// `json:"-"` tag. The plaintext password exists only transiently inside the
// auth service during sign-up and login.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Username        string    `json:"username,omitempty"`
	DisplayName     string    `json:"displayName,omitempty"`
	PasswordHash    string    `json:"-"`
	ProfileImageURL string    `json:"profileImageUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
