package notifications

import (
	"sort"
	"strings"
	"sync"
	"time"

	"resourcehub/internal/models"
)

// Scope decides which requests a viewer is notified about.
type Scope func(r models.Request) bool

// OwnRequests scopes a user to the requests they made.
func OwnRequests(userID string) Scope {
	return func(r models.Request) bool { return r.UserID == userID }
}

// AllRequests is the admin scope.
func AllRequests(models.Request) bool { return true }

// Message renders the notification text for a request status.
func Message(status models.RequestStatus, title, reason string) string {
	switch status {
	case models.RequestStatusApproved:
		return title + " approved"
	case models.RequestStatusRejected:
		if reason = strings.TrimSpace(reason); reason != "" {
			return title + " rejected: " + reason
		}
		return title + " rejected"
	default:
		return "User requested " + title
	}
}

// NotificationID is the identity of the notification for one request status.
func NotificationID(requestID string, status models.RequestStatus) string {
	return requestID + ":" + string(status)
}

// Inputs are the mirror states a Synthesizer reconciles against.
type Inputs struct {
	Requests  map[string]models.Request
	Downloads map[string]models.Download
	Resources map[string]models.Resource
}

func (in Inputs) title(resourceID string) string {
	if res, ok := in.Resources[resourceID]; ok {
		return res.DisplayTitle()
	}
	return resourceID
}

func (in Inputs) downloaded(pair models.PairKey) bool {
	_, ok := in.Downloads[pair.String()]
	return ok
}

// Synthesizer derives one viewer's notifications from request state. At
// most one notification exists per request; a status change replaces it.
type Synthesizer struct {
	mu        sync.Mutex
	scope     Scope
	now       func() time.Time
	active    map[string]models.Notification
	dismissed map[string]models.RequestStatus
}

// NewSynthesizer returns an empty synthesizer for the given scope.
func NewSynthesizer(scope Scope) *Synthesizer {
	return &Synthesizer{
		scope:     scope,
		now:       func() time.Time { return time.Now().UTC() },
		active:    map[string]models.Notification{},
		dismissed: map[string]models.RequestStatus{},
	}
}

// Sync reconciles the notification set with in and returns the
// notifications that did not exist before this call.
func (s *Synthesizer) Sync(in Inputs) []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fresh []models.Notification
	live := make(map[string]struct{}, len(in.Requests))

	for id, r := range in.Requests {
		if !s.scope(r) {
			continue
		}
		live[id] = struct{}{}

		if models.DeriveStatus(r, in.downloaded(r.Pair())) == models.DerivedDownloaded {
			delete(s.active, id)
			delete(s.dismissed, id)
			continue
		}

		if status, ok := s.dismissed[id]; ok {
			if status == r.Status {
				delete(s.active, id)
				continue
			}
			delete(s.dismissed, id)
		}

		msg := Message(r.Status, in.title(r.ResourceID), r.RejectionReason)
		if existing, ok := s.active[id]; ok && existing.Status == r.Status {
			if existing.Message != msg {
				existing.Message = msg
				s.active[id] = existing
			}
			continue
		}

		n := models.Notification{
			ID:          NotificationID(id, r.Status),
			RequestID:   id,
			UserID:      r.UserID,
			ResourceID:  r.ResourceID,
			Message:     msg,
			Status:      r.Status,
			Dismissible: true,
			CreatedAt:   s.now(),
		}
		s.active[id] = n
		fresh = append(fresh, n)
	}

	for id := range s.active {
		if _, ok := live[id]; !ok {
			delete(s.active, id)
		}
	}
	for id := range s.dismissed {
		if _, ok := live[id]; !ok {
			delete(s.dismissed, id)
		}
	}

	sortNotifications(fresh)
	return fresh
}

func sortNotifications(list []models.Notification) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}

// List returns the active notifications, newest first.
func (s *Synthesizer) List() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Notification, 0, len(s.active))
	for _, n := range s.active {
		out = append(out, n)
	}
	sortNotifications(out)
	return out
}

// Unread counts active notifications not yet seen.
func (s *Synthesizer) Unread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, note := range s.active {
		if !note.Seen {
			n++
		}
	}
	return n
}

// MarkAllSeen marks every listed notification seen, as opening the panel does.
func (s *Synthesizer) MarkAllSeen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, n := range s.active {
		n.Seen = true
		s.active[id] = n
	}
}

// Dismiss hides a notification by its id until its request's status changes.
func (s *Synthesizer) Dismiss(notificationID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, n := range s.active {
		if n.ID == notificationID {
			s.dismissed[id] = n.Status
			delete(s.active, id)
			return true
		}
	}
	return false
}
