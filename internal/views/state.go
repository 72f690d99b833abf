// Package views composes the role-specific lists shown to users and admins.
// Every function here is a pure function of a State and a Filter.
package views

import (
	"strings"

	"resourcehub/internal/models"
)

// State is an immutable snapshot of every mirror. Downloads are keyed by
// the (user, resource) pair string.
type State struct {
	Resources map[string]models.Resource
	Requests  map[string]models.Request
	Downloads map[string]models.Download
	Users     map[string]models.User
	Logs      map[string]models.ActivityLog
}

// Filter narrows a list by title substring and resource type.
type Filter struct {
	Search string
	Type   models.ResourceType
}

// Match reports whether a title and type pass the filter. Search is a
// case-insensitive substring match.
func (f Filter) Match(title string, t models.ResourceType) bool {
	if f.Type != "" && f.Type != t {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))
	return q == "" || strings.Contains(strings.ToLower(title), q)
}

// Title resolves a resource title, falling back to the id for dangling references.
func (s State) Title(resourceID string) string {
	if r, ok := s.Resources[resourceID]; ok {
		return r.DisplayTitle()
	}
	return resourceID
}

// UserName resolves a display name, falling back to the id.
func (s State) UserName(userID string) string {
	if u, ok := s.Users[userID]; ok {
		return u.DisplayName()
	}
	return userID
}

// Downloaded reports whether the pair has a download record.
func (s State) Downloaded(pair models.PairKey) bool {
	_, ok := s.Downloads[pair.String()]
	return ok
}

// IsAdmin reports whether the user record carries the admin role.
func (s State) IsAdmin(userID string) bool {
	u, ok := s.Users[userID]
	return ok && u.IsAdmin()
}
