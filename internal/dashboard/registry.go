package dashboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"resourcehub/internal/engine"
	"resourcehub/internal/middleware"
	"resourcehub/internal/models"
	"resourcehub/internal/notifications"
	"resourcehub/internal/observability"
	"resourcehub/internal/views"
)

// Registry holds every live session and refreshes them on engine changes.
type Registry struct {
	engine   *engine.Engine
	notifier *notifications.Notifier
	hub      *notifications.Hub
	idle     time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry builds a registry over e. Fresh notifications go out through
// notifier when Redis is configured, otherwise straight to hub. Either may be nil.
func NewRegistry(e *engine.Engine, notifier *notifications.Notifier, hub *notifications.Hub, idle time.Duration) *Registry {
	r := &Registry{
		engine:   e,
		notifier: notifier,
		hub:      hub,
		idle:     idle,
		now:      time.Now,
		sessions: map[string]*Session{},
	}
	e.OnChange(r.RefreshAll)
	return r
}

// SetClock replaces the time source.
func (r *Registry) SetClock(now func() time.Time) { r.now = now }

// Session returns the viewer's session, creating it on first use. A role
// change recreates the session with the matching notification scope.
func (r *Registry) Session(ctx context.Context, userID string) *Session {
	admin := r.engine.IsAdmin(ctx, userID)
	now := r.now()

	r.mu.Lock()
	s, ok := r.sessions[userID]
	if ok && s.Admin == admin {
		r.mu.Unlock()
		s.touch(now)
		return s
	}
	s = newSession(userID, admin, now)
	r.sessions[userID] = s
	count := len(r.sessions)
	r.mu.Unlock()

	observability.ActiveSessions.Set(float64(count))
	// Existing notifications are listed, not pushed.
	s.sync(r.engine.State())
	middleware.Logger.InfoContext(ctx, "dashboard session opened",
		slog.String("user_id", userID), slog.Bool("admin", admin))
	return s
}

// Render renders a view for userID against the current engine state.
func (r *Registry) Render(ctx context.Context, userID, view string, f views.Filter, page int) (Page, error) {
	s := r.Session(ctx, userID)
	p, err := s.Render(r.engine.State(), view, f, page)
	if err != nil {
		return Page{}, err
	}
	p.Loading = r.engine.Loading()
	p.Banners = r.engine.Banners()
	return p, nil
}

func (r *Registry) snapshot() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// RefreshAll reconciles every session with the current state and pushes
// new notifications and a views-changed event to each viewer.
func (r *Registry) RefreshAll() {
	st := r.engine.State()
	ctx := context.Background()
	for _, s := range r.snapshot() {
		for _, n := range s.sync(st) {
			r.push(ctx, s.UserID, notifications.Event{Type: notifications.EventNotification, Payload: n})
			observability.NotificationsPublished.WithLabelValues(string(n.Status)).Inc()
		}
		r.push(ctx, s.UserID, notifications.Event{
			Type:    notifications.EventViewsChanged,
			Payload: map[string]int{"unread": s.Unread()},
		})
	}
}

func (r *Registry) push(ctx context.Context, userID string, ev notifications.Event) {
	payload, err := ev.Encode()
	if err != nil {
		middleware.Logger.Error("encode dashboard event", slog.String("error", err.Error()))
		return
	}
	if r.notifier != nil && r.notifier.Enabled() {
		if err := r.notifier.PublishUser(ctx, userID, payload); err != nil {
			observability.LogAsyncOperationError(ctx, "dashboard.publish", err, map[string]interface{}{
				"user_id": userID,
				"event":   ev.Type,
			})
		}
		return
	}
	if r.hub != nil {
		r.hub.Broadcast(userID, payload)
	}
}

// EvictIdle drops sessions unused for longer than the idle window and
// returns how many were removed. Sessions with an open socket are kept.
func (r *Registry) EvictIdle() int {
	if r.idle <= 0 {
		return 0
	}
	cutoff := r.now().Add(-r.idle)

	r.mu.Lock()
	removed := 0
	for uid, s := range r.sessions {
		if r.hub != nil && r.hub.IsOnline(uid) {
			continue
		}
		if s.idleSince().Before(cutoff) {
			delete(r.sessions, uid)
			removed++
		}
	}
	count := len(r.sessions)
	r.mu.Unlock()

	observability.ActiveSessions.Set(float64(count))
	if removed > 0 {
		middleware.Logger.Info("evicted idle dashboard sessions", slog.Int("count", removed))
	}
	return removed
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Notifications lists userID's active notifications.
func (r *Registry) Notifications(ctx context.Context, userID string) []models.Notification {
	return r.Session(ctx, userID).Notifications()
}
