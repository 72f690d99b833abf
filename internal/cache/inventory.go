package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	SuggestionKeyPrefix      = "suggest:"
	ChangeChannelPrefix      = "store:changed:"
	UserNotificationPrefix   = "notifications:user:"
	UserNotificationPattern  = "notifications:user:*"
	CollectionChangedPattern = "store:changed:*"
)

// SuggestionKey is the cache key for a normalized suggestion query.
func SuggestionKey(query string) string {
	sum := sha1.Sum([]byte(strings.ToLower(strings.TrimSpace(query))))
	return SuggestionKeyPrefix + hex.EncodeToString(sum[:])
}

// ChangeChannel is the pub/sub channel announcing writes to a collection.
func ChangeChannel(collection string) string {
	return ChangeChannelPrefix + collection
}

// UserNotificationChannel is the pub/sub channel carrying one user's notifications.
func UserNotificationChannel(userID string) string {
	return UserNotificationPrefix + userID
}

// Invalidate deletes key if Redis is configured.
func Invalidate(ctx context.Context, rdb *redis.Client, key string) {
	if rdb != nil {
		rdb.Del(ctx, key)
	}
}

// InvalidateSuggestion drops the cached result for query.
func InvalidateSuggestion(ctx context.Context, rdb *redis.Client, query string) {
	Invalidate(ctx, rdb, SuggestionKey(query))
}
