// Package dashboard keeps one state object per viewer: notification set,
// page cursors, filters and panel state, refreshed from the engine.
package dashboard

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"resourcehub/internal/engine"
	"resourcehub/internal/models"
	"resourcehub/internal/notifications"
	"resourcehub/internal/pagination"
	"resourcehub/internal/views"
)

// Page is one rendered, paginated view.
type Page struct {
	View    string          `json:"view"`
	Filter  views.Filter    `json:"filter"`
	Loading bool            `json:"loading"`
	Banners []engine.Banner `json:"banners"`
	Unread  int             `json:"unread"`
	Window  any             `json:"window"`
}

// Session is the single state object for one viewer.
type Session struct {
	UserID string
	Admin  bool

	synth   *notifications.Synthesizer
	cursors *pagination.Cursors

	mu        sync.Mutex
	filters   map[string]views.Filter
	panelOpen bool
	lastSeen  time.Time
}

func newSession(userID string, admin bool, now time.Time) *Session {
	scope := notifications.OwnRequests(userID)
	if admin {
		scope = notifications.AllRequests
	}
	return &Session{
		UserID:   userID,
		Admin:    admin,
		synth:    notifications.NewSynthesizer(scope),
		cursors:  pagination.NewCursors(),
		filters:  map[string]views.Filter{},
		lastSeen: now,
	}
}

// Views lists the views the session may render.
func (s *Session) Views() []string {
	if s.Admin {
		return append(append([]string{}, views.UserViews...), views.AdminViews...)
	}
	return views.UserViews
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// sync reconciles notifications and page cursors with st and returns the
// notifications that are new.
func (s *Session) sync(st views.State) []models.Notification {
	fresh := s.synth.Sync(notifications.Inputs{
		Requests:  st.Requests,
		Downloads: st.Downloads,
		Resources: st.Resources,
	})

	s.mu.Lock()
	visited := make(map[string]views.Filter, len(s.filters))
	for view, f := range s.filters {
		visited[view] = f
	}
	s.mu.Unlock()

	for view, f := range visited {
		if n, err := s.count(st, view, f); err == nil {
			s.cursors.Clamp(view, n)
		}
	}
	return fresh
}

// Render builds page of view. A zero page keeps the stored cursor, clamped
// to the current length; a filter differing from the previous one for the
// view starts again at page 1.
func (s *Session) Render(st views.State, view string, f views.Filter, page int) (Page, error) {
	if !slices.Contains(s.Views(), view) {
		return Page{}, models.NewValidationError(fmt.Sprintf("unknown view %q", view))
	}
	if f.Type != "" && !f.Type.Valid() {
		return Page{}, models.NewValidationError(fmt.Sprintf("unknown resource type %q", f.Type))
	}

	s.mu.Lock()
	prev, seen := s.filters[view]
	s.filters[view] = f
	s.mu.Unlock()
	if seen && prev != f {
		s.cursors.Reset(view)
	}
	if page > 0 {
		s.cursors.Set(view, page)
	}

	p := Page{View: view, Filter: f, Unread: s.synth.Unread()}
	switch view {
	case views.ViewAvailable:
		p.Window = window(s.cursors, view, page, views.Available(st, s.UserID, f))
	case views.ViewPending:
		p.Window = window(s.cursors, view, page, views.MyResources(st, s.UserID, models.RequestStatusPending, f))
	case views.ViewApproved:
		p.Window = window(s.cursors, view, page, views.MyResources(st, s.UserID, models.RequestStatusApproved, f))
	case views.ViewRejected:
		p.Window = window(s.cursors, view, page, views.MyResources(st, s.UserID, models.RequestStatusRejected, f))
	case views.ViewLibrary:
		p.Window = window(s.cursors, view, page, views.Library(st, s.UserID, f))
	case views.ViewManage:
		p.Window = window(s.cursors, view, page, views.Manage(st, f))
	case views.ViewRequests:
		p.Window = window(s.cursors, view, page, views.RequestsFor(st, "", f))
	case views.ViewDownloads:
		p.Window = window(s.cursors, view, page, views.AllDownloads(st, f))
	case views.ViewLogs:
		p.Window = window(s.cursors, view, page, views.Logs(st))
	}
	return p, nil
}

func (s *Session) count(st views.State, view string, f views.Filter) (int, error) {
	switch view {
	case views.ViewAvailable:
		return len(views.Available(st, s.UserID, f)), nil
	case views.ViewPending:
		return len(views.MyResources(st, s.UserID, models.RequestStatusPending, f)), nil
	case views.ViewApproved:
		return len(views.MyResources(st, s.UserID, models.RequestStatusApproved, f)), nil
	case views.ViewRejected:
		return len(views.MyResources(st, s.UserID, models.RequestStatusRejected, f)), nil
	case views.ViewLibrary:
		return len(views.Library(st, s.UserID, f)), nil
	case views.ViewManage:
		return len(views.Manage(st, f)), nil
	case views.ViewRequests:
		return len(views.RequestsFor(st, "", f)), nil
	case views.ViewDownloads:
		return len(views.AllDownloads(st, f)), nil
	case views.ViewLogs:
		return len(views.Logs(st)), nil
	}
	return 0, models.NewValidationError(fmt.Sprintf("unknown view %q", view))
}

// window pages items. A requested page is served as asked, so one past the
// end is empty; only the stored cursor is clamped.
func window[T any](c *pagination.Cursors, view string, requested int, items []T) pagination.Window[T] {
	if requested > 0 {
		return pagination.Paginate(items, pagination.PageSize, requested)
	}
	return pagination.Paginate(items, pagination.PageSize, c.Clamp(view, len(items)))
}

// Notifications lists the active notifications, newest first.
func (s *Session) Notifications() []models.Notification {
	return s.synth.List()
}

// Unread counts active notifications not yet seen.
func (s *Session) Unread() int {
	return s.synth.Unread()
}

// TogglePanel opens or closes the notification panel. Opening it marks every
// listed notification seen.
func (s *Session) TogglePanel() bool {
	s.mu.Lock()
	s.panelOpen = !s.panelOpen
	open := s.panelOpen
	s.mu.Unlock()
	if open {
		s.synth.MarkAllSeen()
	}
	return open
}

// PanelOpen reports whether the notification panel is open.
func (s *Session) PanelOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panelOpen
}

// Dismiss hides one notification until its request changes status.
func (s *Session) Dismiss(notificationID string) error {
	if !s.synth.Dismiss(notificationID) {
		return models.NewNotFoundError("Notification", notificationID)
	}
	return nil
}
