package model

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// DefaultDirectoryTTL is how long a snapshot stays fresh
	DefaultDirectoryTTL = 10 * time.Minute
	// DefaultMaxSearchResults caps interactive lookups
	DefaultMaxSearchResults = 10
	// MinSearchQueryLength is the shortest query Search accepts, in runes
	MinSearchQueryLength = 2
)

// DirectorySnapshot is an immutable, time-bounded view of every resolvable
// user. A refresh replaces the whole snapshot.
type DirectorySnapshot struct {
	users     []*User
	fetchedAt time.Time
	ttl       time.Duration

	// Lowercased keys; the first user in directory order owns a key
	byID     map[string]*User
	byEmail  map[string]*User
	byHandle map[string]*User
}

// NewDirectorySnapshot builds a snapshot from provider entries, keeping
// provider order and dropping deleted and automated accounts.
func NewDirectorySnapshot(entries []*DirectoryEntry, fetchedAt time.Time, ttl time.Duration) *DirectorySnapshot {
	s := &DirectorySnapshot{
		users:     make([]*User, 0, len(entries)),
		fetchedAt: fetchedAt,
		ttl:       ttl,
		byID:      make(map[string]*User, len(entries)),
		byEmail:   make(map[string]*User, len(entries)),
		byHandle:  make(map[string]*User, len(entries)),
	}
	for _, e := range entries {
		if e == nil || !e.IsResolvable() {
			continue
		}
		u := e.ToUser()
		s.users = append(s.users, u)
		indexUser(s.byID, string(u.ID), u)
		indexUser(s.byEmail, u.Email, u)
		indexUser(s.byHandle, u.Handle, u)
	}
	return s
}

func indexUser(index map[string]*User, key string, u *User) {
	if key == "" {
		return
	}
	key = strings.ToLower(key)
	if _, exists := index[key]; !exists {
		index[key] = u
	}
}

func (s *DirectorySnapshot) lookupIndex(index map[string]*User, key string) (*User, bool) {
	u, ok := index[strings.ToLower(key)]
	return u, ok
}

// Users returns the snapshot users in directory order
func (s *DirectorySnapshot) Users() []*User {
	out := make([]*User, len(s.users))
	copy(out, s.users)
	return out
}

// Len returns the number of resolvable users
func (s *DirectorySnapshot) Len() int {
	return len(s.users)
}

func (s *DirectorySnapshot) FetchedAt() time.Time {
	return s.fetchedAt
}

func (s *DirectorySnapshot) TTL() time.Duration {
	return s.ttl
}

// ExpiresAt is fetchedAt + ttl
func (s *DirectorySnapshot) ExpiresAt() time.Time {
	return s.fetchedAt.Add(s.ttl)
}

// IsExpired reports whether the snapshot must be rebuilt before use at now
func (s *DirectorySnapshot) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt())
}

// Lookup finds a user by exact (case-insensitive) ID
func (s *DirectorySnapshot) Lookup(id UserID) (*User, bool) {
	if s == nil {
		return nil, false
	}
	return s.lookupIndex(s.byID, string(id))
}

var (
	mentionPattern = regexp.MustCompile(`^<@([A-Za-z0-9]+)(?:\|[^>]*)?>$`)
	mailtoPattern  = regexp.MustCompile(`^<mailto:([^|>]+)(?:\|[^>]*)?>$`)
)

// NormalizeToken turns a free-form identifier into its comparable form.
// Slack mention and mailto markup is unwrapped, surrounding whitespace is
// trimmed and one leading "@" is removed. Case is preserved; comparisons
// fold case themselves.
func NormalizeToken(token string) string {
	t := strings.TrimSpace(token)
	if m := mentionPattern.FindStringSubmatch(t); m != nil {
		t = m[1]
	} else if m := mailtoPattern.FindStringSubmatch(t); m != nil {
		t = m[1]
	}
	t = strings.TrimPrefix(t, "@")
	return strings.TrimSpace(t)
}

// Resolve maps token to at most one user. Rules are tried in a fixed order and
// the first match wins:
//
//  1. exact ID
//  2. exact email
//  3. exact handle
//  4. substring of display name or real name, first in snapshot order
//
// All comparisons ignore case. Resolve does no I/O.
func Resolve(token string, snapshot *DirectorySnapshot) (*User, bool) {
	if snapshot == nil {
		return nil, false
	}

	t := NormalizeToken(token)
	if t == "" {
		return nil, false
	}

	if u, ok := snapshot.lookupIndex(snapshot.byID, t); ok {
		return u, true
	}
	if u, ok := snapshot.lookupIndex(snapshot.byEmail, t); ok {
		return u, true
	}
	if u, ok := snapshot.lookupIndex(snapshot.byHandle, t); ok {
		return u, true
	}

	lower := strings.ToLower(t)
	for _, u := range snapshot.users {
		if containsFold(u.DisplayName, lower) || containsFold(u.RealName, lower) {
			return u, true
		}
	}

	return nil, false
}

// Search returns users whose handle, real name, display name or email
// contains query, in snapshot order, at most limit of them. Queries shorter
// than MinSearchQueryLength return nothing. A non-positive limit falls back to
// DefaultMaxSearchResults.
func Search(query string, snapshot *DirectorySnapshot, limit int) []*User {
	if snapshot == nil {
		return nil
	}
	q := NormalizeToken(query)
	if utf8.RuneCountInString(q) < MinSearchQueryLength {
		return nil
	}
	if limit <= 0 {
		limit = DefaultMaxSearchResults
	}

	lower := strings.ToLower(q)
	var result []*User
	for _, u := range snapshot.users {
		if containsFold(u.Handle, lower) ||
			containsFold(u.RealName, lower) ||
			containsFold(u.DisplayName, lower) ||
			containsFold(u.Email, lower) {
			result = append(result, u)
			if len(result) == limit {
				break
			}
		}
	}
	return result
}

// containsFold reports whether s contains lowerSub, ignoring case. lowerSub
// must already be lower-cased.
func containsFold(s, lowerSub string) bool {
	if s == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), lowerSub)
}
