// Package store defines the push-subscribed keyed document store the engine
// mirrors, with a gorm-backed implementation and an in-process one.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// ErrNoDocument is wrapped by Update when the target path does not exist.
var ErrNoDocument = errors.New("document does not exist")

// Query selects a collection and optionally scopes it to children whose
// top-level Field equals Equals.
type Query struct {
	Path   string
	Field  string
	Equals any
}

// At queries the whole collection at path.
func At(path string) Query {
	return Query{Path: CleanPath(path)}
}

// Where scopes q to children with field == value.
func (q Query) Where(field string, value any) Query {
	q.Field = field
	q.Equals = value
	return q
}

// Snapshot is the full set of children of a collection at one point in time.
type Snapshot struct {
	Path     string
	Children map[string]json.RawMessage
}

// Len returns the number of children.
func (s Snapshot) Len() int { return len(s.Children) }

// Unsubscribe stops a subscription. Calling it more than once is harmless.
type Unsubscribe func()

// Store is the remote keyed store. Subscribers receive a full snapshot of
// the collection immediately and again after every change to it.
type Store interface {
	Subscribe(ctx context.Context, q Query, onSnapshot func(Snapshot), onError func(error)) Unsubscribe
	Create(ctx context.Context, collection string, value any) (string, error)
	Set(ctx context.Context, path string, value any) error
	// SetIfAbsent writes value at path only when no document exists there.
	// It reports whether it wrote; otherwise stored holds the existing body.
	SetIfAbsent(ctx context.Context, path string, value any) (stored json.RawMessage, created bool, err error)
	Update(ctx context.Context, path string, fields map[string]any) error
	Remove(ctx context.Context, path string) error
}

// Read subscribes to q just long enough to receive its first snapshot.
func Read(ctx context.Context, s Store, q Query) (Snapshot, error) {
	snaps := make(chan Snapshot, 1)
	errs := make(chan error, 1)
	unsub := s.Subscribe(ctx, q,
		func(snap Snapshot) {
			select {
			case snaps <- snap:
			default:
			}
		},
		func(err error) {
			select {
			case errs <- err:
			default:
			}
		},
	)
	defer unsub()

	select {
	case snap := <-snaps:
		return snap, nil
	case err := <-errs:
		return Snapshot{}, err
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// CleanPath trims surrounding and duplicate slashes.
func CleanPath(path string) string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}

// Join builds a path from segments.
func Join(segments ...string) string {
	return CleanPath(strings.Join(segments, "/"))
}

// SplitPath splits a document path into its collection and key.
func SplitPath(path string) (collection, key string, err error) {
	path = CleanPath(path)
	i := strings.LastIndex(path, "/")
	if i <= 0 || i == len(path)-1 {
		return "", "", fmt.Errorf("%q is not a document path", path)
	}
	return path[:i], path[i+1:], nil
}

func once(fn func()) Unsubscribe {
	var o sync.Once
	return func() { o.Do(fn) }
}

func encode(value any) (json.RawMessage, error) {
	if raw, ok := value.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(value)
}

// merge applies fields on top of the JSON object in raw.
func merge(raw json.RawMessage, fields map[string]any) (json.RawMessage, error) {
	doc := map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
	}
	for k, v := range fields {
		if v == nil {
			delete(doc, k)
			continue
		}
		doc[k] = v
	}
	return json.Marshal(doc)
}

// matches reports whether the child satisfies the query scope.
func matches(q Query, raw json.RawMessage) bool {
	if q.Field == "" {
		return true
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return false
	}
	want, err := json.Marshal(q.Equals)
	if err != nil {
		return false
	}
	var normalized any
	if err := json.Unmarshal(want, &normalized); err != nil {
		return false
	}
	return reflect.DeepEqual(doc[q.Field], normalized)
}

func filter(q Query, children map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(children))
	for k, v := range children {
		if matches(q, v) {
			out[k] = v
		}
	}
	return out
}
