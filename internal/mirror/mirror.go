// Package mirror keeps an in-memory, id-keyed copy of one store collection
// and reports what each snapshot changed.
package mirror

import (
	"context"
	"encoding/json"
	"log/slog"
	"reflect"
	"sort"
	"sync"

	"resourcehub/internal/middleware"
	"resourcehub/internal/models"
	"resourcehub/internal/observability"
	"resourcehub/internal/store"
)

// ChangeKind classifies one entity-level difference between snapshots.
type ChangeKind string

const (
	Added   ChangeKind = "added"
	Changed ChangeKind = "changed"
	Removed ChangeKind = "removed"
)

// Change is one entity-level difference. Old is zero for Added, New for Removed.
type Change[T any] struct {
	Kind ChangeKind
	ID   string
	Old  T
	New  T
}

// Decoder turns a stored child into an entity carrying its key.
type Decoder[T any] func(id string, raw json.RawMessage) (T, error)

// Identifiable entities accept their store key after decoding.
type Identifiable[T any] interface {
	*T
	SetID(string)
}

// JSONDecoder decodes JSON and stamps the key with SetID.
func JSONDecoder[T any, PT Identifiable[T]]() Decoder[T] {
	return func(id string, raw json.RawMessage) (T, error) {
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return v, err
		}
		PT(&v).SetID(id)
		return v, nil
	}
}

// Mirror holds the latest snapshot of a collection. One subscription
// goroutine writes; any goroutine may read.
type Mirror[T any] struct {
	name   string
	decode Decoder[T]

	mu        sync.RWMutex
	items     map[string]T
	version   uint64
	err       error
	listeners []func([]Change[T])
	errFns    []func(error)

	ready     chan struct{}
	readyOnce sync.Once
	closeOnce sync.Once
	closed    bool
	unsub     store.Unsubscribe
}

// New creates an empty mirror named after the collection it follows.
func New[T any](name string, decode Decoder[T]) *Mirror[T] {
	return &Mirror[T]{
		name:   name,
		decode: decode,
		items:  map[string]T{},
		ready:  make(chan struct{}),
	}
}

// Name returns the mirror's name.
func (m *Mirror[T]) Name() string { return m.name }

// Start subscribes the mirror to q on s.
func (m *Mirror[T]) Start(ctx context.Context, s store.Store, q store.Query) {
	unsub := s.Subscribe(ctx, q,
		func(snap store.Snapshot) { m.Apply(snap) },
		m.fail,
	)
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		unsub()
		return
	}
	m.unsub = unsub
	m.mu.Unlock()
}

// Apply replaces the mirror contents with snap and notifies listeners of the
// differences. Children that fail to decode are skipped.
func (m *Mirror[T]) Apply(snap store.Snapshot) []Change[T] {
	next := make(map[string]T, len(snap.Children))
	for id, raw := range snap.Children {
		v, err := m.decode(id, raw)
		if err != nil {
			middleware.Logger.Warn("skipping undecodable entity",
				slog.String("mirror", m.name),
				slog.String("id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		next[id] = v
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	changes := diff(m.items, next)
	m.items = next
	m.version++
	m.err = nil
	listeners := append([]func([]Change[T]){}, m.listeners...)
	m.mu.Unlock()

	observability.MirrorSnapshots.WithLabelValues(m.name).Inc()
	observability.MirrorEntities.WithLabelValues(m.name).Set(float64(len(next)))
	m.markReady()

	if len(changes) > 0 {
		for _, fn := range listeners {
			fn(changes)
		}
	}
	return changes
}

func (m *Mirror[T]) fail(err error) {
	if err == nil {
		return
	}
	if !models.HasCode(err, models.CodeSubscription) {
		err = models.NewSubscriptionError(m.name, err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.err = err
	errFns := append([]func(error){}, m.errFns...)
	m.mu.Unlock()

	observability.MirrorSubscriptionErrors.WithLabelValues(m.name).Inc()
	middleware.Logger.Error("mirror subscription error",
		slog.String("mirror", m.name), slog.String("error", err.Error()))
	m.markReady()

	for _, fn := range errFns {
		fn(err)
	}
}

func (m *Mirror[T]) markReady() {
	m.readyOnce.Do(func() { close(m.ready) })
}

func diff[T any](prev, next map[string]T) []Change[T] {
	var changes []Change[T]
	for id, n := range next {
		o, ok := prev[id]
		switch {
		case !ok:
			changes = append(changes, Change[T]{Kind: Added, ID: id, New: n})
		case !reflect.DeepEqual(o, n):
			changes = append(changes, Change[T]{Kind: Changed, ID: id, Old: o, New: n})
		}
	}
	for id, o := range prev {
		if _, ok := next[id]; !ok {
			changes = append(changes, Change[T]{Kind: Removed, ID: id, Old: o})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].ID < changes[j].ID })
	return changes
}

// Current returns a copy of the mirrored entities keyed by id.
func (m *Mirror[T]) Current() map[string]T {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]T, len(m.items))
	for k, v := range m.items {
		out[k] = v
	}
	return out
}

// Get returns the entity with the given id.
func (m *Mirror[T]) Get(id string) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[id]
	return v, ok
}

// Len returns the number of mirrored entities.
func (m *Mirror[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Version counts applied snapshots.
func (m *Mirror[T]) Version() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.version
}

// Err returns the last subscription error, cleared by the next snapshot.
func (m *Mirror[T]) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

// Ready is closed once the first snapshot or error has arrived.
func (m *Mirror[T]) Ready() <-chan struct{} {
	return m.ready
}

// Loaded reports whether Ready has been closed.
func (m *Mirror[T]) Loaded() bool {
	select {
	case <-m.ready:
		return true
	default:
		return false
	}
}

// OnChange registers fn to receive every non-empty change set.
func (m *Mirror[T]) OnChange(fn func([]Change[T])) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// OnError registers fn to receive subscription errors.
func (m *Mirror[T]) OnError(fn func(error)) {
	m.mu.Lock()
	m.errFns = append(m.errFns, fn)
	m.mu.Unlock()
}

// Close stops the subscription. Later snapshots are ignored.
func (m *Mirror[T]) Close() {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		unsub := m.unsub
		m.mu.Unlock()
		if unsub != nil {
			unsub()
		}
	})
}
