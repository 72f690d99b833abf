package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"resourcehub/internal/cache"
	"resourcehub/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// Bus announces that a collection changed. A delivered signal means
// "reload"; consecutive signals collapse into one.
type Bus interface {
	Publish(ctx context.Context, collection string) error
	Listen(ctx context.Context, collection string) (<-chan struct{}, func(), error)
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// LocalBus is a Bus for a single process.
type LocalBus struct {
	mu        sync.Mutex
	listeners map[string]map[chan struct{}]struct{}
}

// NewLocalBus returns an empty in-process bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{listeners: map[string]map[chan struct{}]struct{}{}}
}

func (b *LocalBus) Publish(_ context.Context, collection string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.listeners[collection] {
		signal(ch)
	}
	return nil
}

func (b *LocalBus) Listen(_ context.Context, collection string) (<-chan struct{}, func(), error) {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	if b.listeners[collection] == nil {
		b.listeners[collection] = map[chan struct{}]struct{}{}
	}
	b.listeners[collection][ch] = struct{}{}
	b.mu.Unlock()

	return ch, once(func() {
		b.mu.Lock()
		delete(b.listeners[collection], ch)
		b.mu.Unlock()
	}), nil
}

// RedisBus carries change signals over Redis pub/sub so every server
// process sharing the database sees every write.
type RedisBus struct {
	rdb *redis.Client
}

// NewRedisBus returns a Bus publishing on store:changed:<collection>.
func NewRedisBus(rdb *redis.Client) *RedisBus {
	return &RedisBus{rdb: rdb}
}

func (b *RedisBus) Publish(ctx context.Context, collection string) error {
	return b.rdb.Publish(ctx, cache.ChangeChannel(collection), collection).Err()
}

// Listen returns once Redis has confirmed the subscription.
func (b *RedisBus) Listen(ctx context.Context, collection string) (<-chan struct{}, func(), error) {
	pubsub := b.rdb.Subscribe(ctx, cache.ChangeChannel(collection))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", collection, err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer func() {
			if r := recover(); r != nil {
				middleware.Logger.Error("panic in change bus listener",
					slog.String("collection", collection), slog.Any("panic", r))
			}
		}()
		for range pubsub.Channel() {
			signal(out)
		}
	}()

	return out, once(func() { _ = pubsub.Close() }), nil
}
