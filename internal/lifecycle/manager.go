// Package lifecycle owns the request state machine: create, approve, reject,
// cancel and the download that follows approval.
package lifecycle

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"resourcehub/internal/middleware"
	"resourcehub/internal/mirror"
	"resourcehub/internal/models"
	"resourcehub/internal/observability"
	"resourcehub/internal/store"

	"go.opentelemetry.io/otel/attribute"
)

const (
	RequestsPath      = "requests"
	DownloadsPath     = "downloads"
	UserDownloadsPath = "userDownloads"
)

// overlay is a tentative local view of one request. A nil request hides
// the mirrored one. Settled overlays are dropped once the mirror has moved
// past discardAfter.
type overlay struct {
	request      *models.Request
	settled      bool
	discardAfter uint64
}

// Manager applies lifecycle operations to the store and exposes the
// request set with in-flight tentative changes layered on top.
type Manager struct {
	store     store.Store
	requests  *mirror.Mirror[models.Request]
	downloads *mirror.Mirror[models.Download]
	resources *mirror.Mirror[models.Resource]
	now       func() time.Time

	mu       sync.Mutex
	overlays map[string]*overlay
	inflight map[models.PairKey]struct{}
}

// NewManager wires the manager to its mirrors.
func NewManager(s store.Store, requests *mirror.Mirror[models.Request], downloads *mirror.Mirror[models.Download], resources *mirror.Mirror[models.Resource]) *Manager {
	m := &Manager{
		store:     s,
		requests:  requests,
		downloads: downloads,
		resources: resources,
		now:       func() time.Time { return time.Now().UTC() },
		overlays:  map[string]*overlay{},
		inflight:  map[models.PairKey]struct{}{},
	}
	requests.OnChange(func([]mirror.Change[models.Request]) { m.prune() })
	return m
}

// SetClock replaces the time source.
func (m *Manager) SetClock(now func() time.Time) { m.now = now }

func (m *Manager) prune() {
	version := m.requests.Version()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked(version)
}

func (m *Manager) pruneLocked(version uint64) {
	for id, o := range m.overlays {
		if o.settled && version > o.discardAfter {
			delete(m.overlays, id)
		}
	}
}

// Requests returns the effective request set: mirror state with tentative overlays applied.
func (m *Manager) Requests() map[string]models.Request {
	current := m.requests.Current()
	version := m.requests.Version()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneLocked(version)
	for id, o := range m.overlays {
		if o.request == nil {
			delete(current, id)
			continue
		}
		current[id] = *o.request
	}
	return current
}

// Get returns one request from the effective set.
func (m *Manager) Get(id string) (models.Request, bool) {
	r, ok := m.Requests()[id]
	return r, ok
}

// Pending reports whether a pending request exists for the pair in the effective set.
func (m *Manager) Pending(pair models.PairKey) bool {
	for _, r := range m.Requests() {
		if r.Pair() == pair && r.Status == models.RequestStatusPending {
			return true
		}
	}
	return false
}

// Tentative reports whether the request currently shows an unsettled overlay.
func (m *Manager) Tentative(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.overlays[id]
	return ok && !o.settled
}

func (m *Manager) record(ctx context.Context, action string, err error, attrs ...any) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			outcome = strings.ToLower(appErr.Code)
		}
	}
	observability.RequestTransitions.WithLabelValues(action, outcome).Inc()

	attrs = append(attrs, slog.String("action", action), slog.String("outcome", outcome))
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		middleware.Logger.WarnContext(ctx, "request lifecycle operation refused", attrs...)
		return
	}
	middleware.Logger.InfoContext(ctx, "request lifecycle operation", attrs...)
}

// Create writes a new pending request for the pair.
func (m *Manager) Create(ctx context.Context, userID, resourceID string) (req models.Request, err error) {
	span, ctx := observability.StartSpan(ctx, "lifecycle.create",
		attribute.String("user.id", userID), attribute.String("resource.id", resourceID))
	defer span.Finish(&err)
	defer func() { m.record(ctx, "create", err, slog.String("resource_id", resourceID)) }()

	userID, resourceID = strings.TrimSpace(userID), strings.TrimSpace(resourceID)
	if userID == "" || resourceID == "" {
		return models.Request{}, models.NewValidationError("user and resource are required")
	}
	if m.resources.Loaded() && m.resources.Err() == nil {
		res, ok := m.resources.Get(resourceID)
		if !ok {
			return models.Request{}, models.NewNotFoundError("Resource", resourceID)
		}
		if !res.Available() {
			return models.Request{}, models.NewValidationError("resource is not available")
		}
	}

	pair := models.PairKey{UserID: userID, ResourceID: resourceID}
	if err := m.reserve(pair); err != nil {
		return models.Request{}, err
	}
	defer m.release(pair)

	startVersion := m.requests.Version()
	req = models.Request{
		UserID:     userID,
		ResourceID: resourceID,
		Status:     models.RequestStatusPending,
		Timestamp:  m.now(),
	}
	id, err := m.store.Create(ctx, RequestsPath, req)
	if err != nil {
		return models.Request{}, err
	}
	req.ID = id

	m.mu.Lock()
	if _, mirrored := m.requests.Get(id); !mirrored {
		r := req
		m.overlays[id] = &overlay{request: &r, settled: true, discardAfter: startVersion}
		m.pruneLocked(m.requests.Version())
	}
	m.mu.Unlock()

	return req, nil
}

func (m *Manager) reserve(pair models.PairKey) error {
	effective := m.Requests()

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, busy := m.inflight[pair]; busy {
		return models.NewDuplicateRequestError(pair.UserID, pair.ResourceID)
	}
	for _, r := range effective {
		if r.Pair() == pair && r.Status == models.RequestStatusPending {
			return models.NewDuplicateRequestError(pair.UserID, pair.ResourceID)
		}
	}
	m.inflight[pair] = struct{}{}
	return nil
}

func (m *Manager) release(pair models.PairKey) {
	m.mu.Lock()
	delete(m.inflight, pair)
	m.mu.Unlock()
}

// Approve moves a pending request to approved.
func (m *Manager) Approve(ctx context.Context, requestID string) (req models.Request, err error) {
	span, ctx := observability.StartSpan(ctx, "lifecycle.approve", attribute.String("request.id", requestID))
	defer span.Finish(&err)
	defer func() { m.record(ctx, "approve", err, slog.String("request_id", requestID)) }()

	return m.transition(ctx, requestID, "approve", func(r *models.Request) (map[string]any, error) {
		r.Status = models.RequestStatusApproved
		r.RejectionReason = ""
		return map[string]any{"status": models.RequestStatusApproved}, nil
	})
}

// Reject moves a pending request to rejected with a non-blank reason.
func (m *Manager) Reject(ctx context.Context, requestID, reason string) (req models.Request, err error) {
	span, ctx := observability.StartSpan(ctx, "lifecycle.reject", attribute.String("request.id", requestID))
	defer span.Finish(&err)
	defer func() { m.record(ctx, "reject", err, slog.String("request_id", requestID)) }()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return models.Request{}, models.NewValidationError("a rejection reason is required")
	}
	return m.transition(ctx, requestID, "reject", func(r *models.Request) (map[string]any, error) {
		r.Status = models.RequestStatusRejected
		r.RejectionReason = reason
		return map[string]any{"status": models.RequestStatusRejected, "rejectionReason": reason}, nil
	})
}

func (m *Manager) lookupPending(requestID, action string) (models.Request, error) {
	r, ok := m.Get(requestID)
	if !ok {
		return models.Request{}, models.NewNotFoundError("Request", requestID)
	}
	if r.Status != models.RequestStatusPending {
		return models.Request{}, models.NewInvalidTransitionError(r.Status, action)
	}
	return r, nil
}

// transition applies mutate to a pending request as an overlay, writes it,
// and rolls the overlay back if the write fails. An in-flight transition
// already shows in the effective set, so a second one is refused.
func (m *Manager) transition(ctx context.Context, requestID, action string, mutate func(*models.Request) (map[string]any, error)) (models.Request, error) {
	current, err := m.lookupPending(requestID, action)
	if err != nil {
		return models.Request{}, err
	}

	next := current
	fields, err := mutate(&next)
	if err != nil {
		return models.Request{}, err
	}

	startVersion, err := m.begin(requestID, &next, action)
	if err != nil {
		return models.Request{}, err
	}
	if err := m.store.Update(ctx, store.Join(RequestsPath, requestID), fields); err != nil {
		m.rollback(requestID)
		return models.Request{}, err
	}
	m.settle(requestID, startVersion)
	return next, nil
}

// begin installs the tentative overlay unless another operation on the
// same request is still in flight.
func (m *Manager) begin(requestID string, r *models.Request, action string) (uint64, error) {
	version := m.requests.Version()
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.overlays[requestID]; ok && !o.settled {
		if o.request == nil {
			return 0, models.NewNotFoundError("Request", requestID)
		}
		return 0, models.NewInvalidTransitionError(o.request.Status, action)
	}
	m.overlays[requestID] = &overlay{request: r}
	return version, nil
}

func (m *Manager) rollback(requestID string) {
	m.mu.Lock()
	delete(m.overlays, requestID)
	m.mu.Unlock()
}

func (m *Manager) settle(requestID string, startVersion uint64) {
	version := m.requests.Version()
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.overlays[requestID]; ok {
		o.settled = true
		o.discardAfter = startVersion
	}
	m.pruneLocked(version)
}

// Cancel deletes a pending request owned by userID.
func (m *Manager) Cancel(ctx context.Context, userID, requestID string) (err error) {
	span, ctx := observability.StartSpan(ctx, "lifecycle.cancel",
		attribute.String("user.id", userID), attribute.String("request.id", requestID))
	defer span.Finish(&err)
	defer func() { m.record(ctx, "cancel", err, slog.String("request_id", requestID)) }()

	current, ok := m.Get(requestID)
	if !ok {
		return models.NewNotFoundError("Request", requestID)
	}
	if current.UserID != userID {
		return models.NewUnauthorizedError("only the requesting user can cancel a request")
	}
	if current.Status != models.RequestStatusPending {
		return models.NewInvalidTransitionError(current.Status, "cancel")
	}

	startVersion, err := m.begin(requestID, nil, "cancel")
	if err != nil {
		return err
	}
	if err := m.store.Remove(ctx, store.Join(RequestsPath, requestID)); err != nil {
		m.rollback(requestID)
		return err
	}
	m.settle(requestID, startVersion)
	return nil
}

// DownloadPath is where the per-user copy of a download lives.
func DownloadPath(pair models.PairKey) string {
	return store.Join(UserDownloadsPath, pair.UserID, pair.ResourceID)
}

// ensureUserCopy writes the per-user copy of d unless it already exists.
// It runs after the keyed record is claimed, so a retry repairs a partial write.
func (m *Manager) ensureUserCopy(ctx context.Context, pair models.PairKey, d models.Download) error {
	_, _, err := m.store.SetIfAbsent(ctx, DownloadPath(pair), d)
	return err
}

// Download records the user's first access to an approved resource. A
// repeated call returns the existing record and never rewrites it.
func (m *Manager) Download(ctx context.Context, userID, resourceID string) (d models.Download, err error) {
	span, ctx := observability.StartSpan(ctx, "lifecycle.download",
		attribute.String("user.id", userID), attribute.String("resource.id", resourceID))
	defer span.Finish(&err)
	defer func() { m.record(ctx, "download", err, slog.String("resource_id", resourceID)) }()

	pair := models.PairKey{UserID: userID, ResourceID: resourceID}
	if existing, ok := m.downloads.Get(pair.String()); ok {
		if err := m.ensureUserCopy(ctx, pair, existing); err != nil {
			return models.Download{}, err
		}
		return existing, nil
	}

	var approved bool
	for _, r := range m.Requests() {
		if r.Pair() == pair && r.Status == models.RequestStatusApproved {
			approved = true
			break
		}
	}
	if !approved {
		return models.Download{}, models.NewInvalidTransitionError(models.RequestStatus("not approved"), "download")
	}

	d = models.Download{
		UserID:       userID,
		ResourceID:   resourceID,
		Title:        resourceID,
		DownloadedAt: m.now(),
	}
	if res, ok := m.resources.Get(resourceID); ok {
		d.Title = res.DisplayTitle()
		d.Type = res.Type
		d.Content = res.Content
	}

	// The keyed record is claimed first; the mirror can lag behind a racing call.
	stored, created, err := m.store.SetIfAbsent(ctx, store.Join(DownloadsPath, pair.String()), d)
	if err != nil {
		return models.Download{}, err
	}
	if !created {
		if err := json.Unmarshal(stored, &d); err != nil {
			return models.Download{}, models.NewWriteFailure("download", pair.String(), err)
		}
	}

	if err := m.ensureUserCopy(ctx, pair, d); err != nil {
		return models.Download{}, err
	}
	return d, nil
}
