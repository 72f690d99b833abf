// Package engine owns the collection mirrors and the services built on them,
// and fans mirror changes out to interested parties.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"resourcehub/internal/lifecycle"
	"resourcehub/internal/middleware"
	"resourcehub/internal/mirror"
	"resourcehub/internal/models"
	"resourcehub/internal/recommend"
	"resourcehub/internal/store"
	"resourcehub/internal/views"
)

const (
	ResourcesPath = "resources"
	UsersPath     = "users"
	LogsPath      = "activityLogs"
)

// Banner is a non-fatal notice shown while a collection cannot be followed.
type Banner struct {
	Collection string `json:"collection"`
	Message    string `json:"message"`
}

type follower interface {
	Name() string
	Ready() <-chan struct{}
	Loaded() bool
	Err() error
	Close()
}

// Engine mirrors every collection the dashboards read from.
type Engine struct {
	store store.Store

	resources *mirror.Mirror[models.Resource]
	requests  *mirror.Mirror[models.Request]
	downloads *mirror.Mirror[models.Download]
	users     *mirror.Mirror[models.User]
	logs      *mirror.Mirror[models.ActivityLog]
	all       []follower

	lifecycle *lifecycle.Manager
	ranker    *recommend.Ranker

	changed   chan struct{}
	mu        sync.Mutex
	listeners []func()
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// New builds an engine over s. A nil scorer selects the keyword/type scorer.
func New(s store.Store, scorer recommend.Scorer) *Engine {
	e := &Engine{
		store:     s,
		resources: mirror.New(ResourcesPath, mirror.JSONDecoder[models.Resource]()),
		requests:  mirror.New(lifecycle.RequestsPath, mirror.JSONDecoder[models.Request]()),
		downloads: mirror.New(lifecycle.DownloadsPath, mirror.JSONDecoder[models.Download]()),
		users:     mirror.New(UsersPath, mirror.JSONDecoder[models.User]()),
		logs:      mirror.New(LogsPath, mirror.JSONDecoder[models.ActivityLog]()),
		ranker:    recommend.NewRanker(scorer),
		changed:   make(chan struct{}, 1),
	}
	e.all = []follower{e.resources, e.requests, e.downloads, e.users, e.logs}
	e.lifecycle = lifecycle.NewManager(s, e.requests, e.downloads, e.resources)

	watch(e, e.resources)
	watch(e, e.requests)
	watch(e, e.downloads)
	watch(e, e.users)
	watch(e, e.logs)
	return e
}

func watch[T any](e *Engine, m *mirror.Mirror[T]) {
	m.OnChange(func([]mirror.Change[T]) { e.signal() })
	m.OnError(func(error) { e.signal() })
}

// Start subscribes every mirror and begins delivering change notifications.
func (e *Engine) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()

	go e.run(ctx)

	e.resources.Start(ctx, e.store, store.At(ResourcesPath))
	e.requests.Start(ctx, e.store, store.At(lifecycle.RequestsPath))
	e.downloads.Start(ctx, e.store, store.At(lifecycle.DownloadsPath))
	e.users.Start(ctx, e.store, store.At(UsersPath))
	e.logs.Start(ctx, e.store, store.At(LogsPath))
}

// signal coalesces bursts of mirror changes into one delivery.
func (e *Engine) signal() {
	select {
	case e.changed <- struct{}{}:
	default:
	}
}

func (e *Engine) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.changed:
			e.deliver()
		}
	}
}

func (e *Engine) deliver() {
	defer func() {
		if r := recover(); r != nil {
			middleware.Logger.Error("engine change listener panicked", slog.Any("panic", r))
		}
	}()
	e.Notify()
}

// OnChange registers fn to run after mirror changes. Calls happen on one
// goroutine and may be coalesced.
func (e *Engine) OnChange(fn func()) {
	e.mu.Lock()
	e.listeners = append(e.listeners, fn)
	e.mu.Unlock()
}

// Notify runs every change listener synchronously.
func (e *Engine) Notify() {
	e.mu.Lock()
	listeners := append([]func(){}, e.listeners...)
	e.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// WaitLoaded blocks until every mirror has delivered its first snapshot or
// error, the timeout elapses, or ctx ends. It reports whether loading finished.
func (e *Engine) WaitLoaded(ctx context.Context, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for _, f := range e.all {
		select {
		case <-f.Ready():
		case <-timer.C:
			middleware.Logger.Warn("initial load timed out", slog.String("mirror", f.Name()))
			return false
		case <-ctx.Done():
			return false
		}
	}
	return true
}

// Loading reports whether any mirror is still waiting for its first snapshot.
func (e *Engine) Loading() bool {
	for _, f := range e.all {
		if !f.Loaded() {
			return true
		}
	}
	return false
}

// Banners lists the mirrors currently failing, in a fixed order.
func (e *Engine) Banners() []Banner {
	out := []Banner{}
	for _, f := range e.all {
		if err := f.Err(); err != nil {
			out = append(out, Banner{Collection: f.Name(), Message: err.Error()})
		}
	}
	return out
}

// State returns a snapshot of every collection with tentative request changes applied.
func (e *Engine) State() views.State {
	return views.State{
		Resources: e.resources.Current(),
		Requests:  e.lifecycle.Requests(),
		Downloads: e.downloads.Current(),
		Users:     e.users.Current(),
		Logs:      e.logs.Current(),
	}
}

// Recommend ranks resources for userID against the current state.
func (e *Engine) Recommend(userID string) []models.Resource {
	return e.ranker.Recommend(e.State(), userID)
}

// IsAdmin reports whether the users collection grants userID the admin role.
func (e *Engine) IsAdmin(_ context.Context, userID string) bool {
	u, ok := e.users.Get(userID)
	return ok && u.IsAdmin()
}

// Resource looks up one catalog entry.
func (e *Engine) Resource(id string) (models.Resource, bool) {
	return e.resources.Get(id)
}

func (e *Engine) Lifecycle() *lifecycle.Manager { return e.lifecycle }
func (e *Engine) Store() store.Store            { return e.store }

// Close unsubscribes every mirror and stops change delivery.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.mu.Lock()
		cancel := e.cancel
		e.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		for _, f := range e.all {
			f.Close()
		}
	})
}
