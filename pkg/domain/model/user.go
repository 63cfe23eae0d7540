package model

import "time"

// UserID is the opaque directory identifier of a user (a Slack member ID)
type UserID string

func (x UserID) String() string {
	return string(x)
}

// User is a resolvable directory identity. Values are produced wholesale by a
// directory refresh and never mutated afterwards.
type User struct {
	ID          UserID
	Handle      string // Slack username (e.g., "john.doe")
	DisplayName string // Profile display name, may be empty
	RealName    string // Full name (e.g., "John Doe")
	Email       string
}

// Mention returns the Slack mention markup for the user
func (u *User) Mention() string {
	return "<@" + string(u.ID) + ">"
}

// Name returns the best human-readable name: display name, then real name,
// then handle, then ID.
func (u *User) Name() string {
	switch {
	case u.DisplayName != "":
		return u.DisplayName
	case u.RealName != "":
		return u.RealName
	case u.Handle != "":
		return u.Handle
	default:
		return string(u.ID)
	}
}

// DirectoryEntry is one record as returned by a directory provider, before
// deleted and automated accounts are excluded.
type DirectoryEntry struct {
	ID          UserID
	Handle      string
	DisplayName string
	RealName    string
	Email       string
	Deleted     bool
	IsAutomated bool      // bots, app users and Slackbot
	UpdatedAt   time.Time // Last synchronized from the provider
}

// IsResolvable reports whether the entry may appear in a snapshot
func (e *DirectoryEntry) IsResolvable() bool {
	return e.ID != "" && !e.Deleted && !e.IsAutomated
}

// ToUser converts the entry to an immutable identity
func (e *DirectoryEntry) ToUser() *User {
	return &User{
		ID:          e.ID,
		Handle:      e.Handle,
		DisplayName: e.DisplayName,
		RealName:    e.RealName,
		Email:       e.Email,
	}
}

// DirectoryMetadata tracks the health of directory mirroring
type DirectoryMetadata struct {
	LastRefreshSuccess time.Time // Last successful refresh time
	LastRefreshAttempt time.Time // Last refresh attempt time (success or failure)
	UserCount          int       // Number of entries at last successful refresh
}
