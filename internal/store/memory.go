package store

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"resourcehub/internal/models"

	"github.com/google/uuid"
)

type memSub struct {
	query      Query
	onSnapshot func(Snapshot)
	onError    func(error)
}

// Memory is an in-process Store. Snapshots are delivered synchronously on
// the writing goroutine after each write, in write order. Callbacks must not
// write to the same Memory store.
type Memory struct {
	mu          sync.Mutex
	deliverMu   sync.Mutex
	collections map[string]map[string]json.RawMessage
	subs        map[string]map[int]*memSub
	nextSub     int
	writeErr    error
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{
		collections: map[string]map[string]json.RawMessage{},
		subs:        map[string]map[int]*memSub{},
	}
}

// FailWrites makes every subsequent write fail with err until called with nil.
func (m *Memory) FailWrites(err error) {
	m.mu.Lock()
	m.writeErr = err
	m.mu.Unlock()
}

// Break reports err to every subscriber of collection.
func (m *Memory) Break(collection string, err error) {
	collection = CleanPath(collection)
	m.mu.Lock()
	var targets []*memSub
	for _, s := range m.subs[collection] {
		targets = append(targets, s)
	}
	m.mu.Unlock()
	for _, s := range targets {
		if s.onError != nil {
			s.onError(models.NewSubscriptionError(collection, err))
		}
	}
}

func (m *Memory) Subscribe(ctx context.Context, q Query, onSnapshot func(Snapshot), onError func(error)) Unsubscribe {
	q.Path = CleanPath(q.Path)

	m.deliverMu.Lock()
	defer m.deliverMu.Unlock()

	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	if m.subs[q.Path] == nil {
		m.subs[q.Path] = map[int]*memSub{}
	}
	sub := &memSub{query: q, onSnapshot: onSnapshot, onError: onError}
	m.subs[q.Path][id] = sub
	snap := m.snapshotLocked(q)
	m.mu.Unlock()

	onSnapshot(snap)

	unsub := once(func() {
		m.mu.Lock()
		delete(m.subs[q.Path], id)
		m.mu.Unlock()
	})
	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			unsub()
		}()
	}
	return unsub
}

func (m *Memory) snapshotLocked(q Query) Snapshot {
	children := make(map[string]json.RawMessage, len(m.collections[q.Path]))
	for k, v := range m.collections[q.Path] {
		children[k] = append(json.RawMessage(nil), v...)
	}
	return Snapshot{Path: q.Path, Children: filter(q, children)}
}

// write runs mutate under the lock and then notifies the collection's subscribers.
// errUnchanged aborts a write without error or delivery.
var errUnchanged = errors.New("unchanged")

func (m *Memory) write(op, path, collection string, mutate func(children map[string]json.RawMessage) error) error {
	m.deliverMu.Lock()
	defer m.deliverMu.Unlock()

	m.mu.Lock()
	if m.writeErr != nil {
		err := m.writeErr
		m.mu.Unlock()
		return models.NewWriteFailure(op, path, err)
	}
	children := m.collections[collection]
	if children == nil {
		children = map[string]json.RawMessage{}
		m.collections[collection] = children
	}
	if err := mutate(children); err != nil {
		m.mu.Unlock()
		if errors.Is(err, errUnchanged) {
			return nil
		}
		return models.NewWriteFailure(op, path, err)
	}

	type delivery struct {
		fn   func(Snapshot)
		snap Snapshot
	}
	var pending []delivery
	for _, s := range m.subs[collection] {
		pending = append(pending, delivery{fn: s.onSnapshot, snap: m.snapshotLocked(s.query)})
	}
	m.mu.Unlock()

	for _, d := range pending {
		d.fn(d.snap)
	}
	return nil
}

func (m *Memory) Create(_ context.Context, collection string, value any) (string, error) {
	collection = CleanPath(collection)
	key := uuid.NewString()
	raw, err := encode(value)
	if err != nil {
		return "", models.NewWriteFailure("create", collection, err)
	}
	err = m.write("create", collection, collection, func(children map[string]json.RawMessage) error {
		children[key] = raw
		return nil
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

func (m *Memory) Set(_ context.Context, path string, value any) error {
	collection, key, err := SplitPath(path)
	if err != nil {
		return models.NewWriteFailure("set", path, err)
	}
	raw, err := encode(value)
	if err != nil {
		return models.NewWriteFailure("set", path, err)
	}
	return m.write("set", path, collection, func(children map[string]json.RawMessage) error {
		children[key] = raw
		return nil
	})
}

func (m *Memory) SetIfAbsent(_ context.Context, path string, value any) (json.RawMessage, bool, error) {
	collection, key, err := SplitPath(path)
	if err != nil {
		return nil, false, models.NewWriteFailure("set_if_absent", path, err)
	}
	raw, err := encode(value)
	if err != nil {
		return nil, false, models.NewWriteFailure("set_if_absent", path, err)
	}
	stored, created := raw, true
	err = m.write("set_if_absent", path, collection, func(children map[string]json.RawMessage) error {
		if current, ok := children[key]; ok {
			stored, created = current, false
			return errUnchanged
		}
		children[key] = raw
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

func (m *Memory) Update(_ context.Context, path string, fields map[string]any) error {
	collection, key, err := SplitPath(path)
	if err != nil {
		return models.NewWriteFailure("update", path, err)
	}
	return m.write("update", path, collection, func(children map[string]json.RawMessage) error {
		current, ok := children[key]
		if !ok {
			return ErrNoDocument
		}
		merged, err := merge(current, fields)
		if err != nil {
			return err
		}
		children[key] = merged
		return nil
	})
}

func (m *Memory) Remove(_ context.Context, path string) error {
	collection, key, err := SplitPath(path)
	if err != nil {
		return models.NewWriteFailure("remove", path, err)
	}
	return m.write("remove", path, collection, func(children map[string]json.RawMessage) error {
		delete(children, key)
		return nil
	})
}

// Get returns the raw document at path, for tests and tooling.
func (m *Memory) Get(path string) (json.RawMessage, bool) {
	collection, key, err := SplitPath(path)
	if err != nil {
		return nil, false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.collections[collection][key]
	return raw, ok
}
