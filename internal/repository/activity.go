package repository

import (
	"context"
	"time"

	"resourcehub/internal/models"
	"resourcehub/internal/store"
)

const LogsPath = "activityLogs"

// ActivityLogRepository appends admin audit entries.
type ActivityLogRepository interface {
	Append(ctx context.Context, actorID, message string) (models.ActivityLog, error)
}

type activityLogRepository struct {
	store store.Store
	now   func() time.Time
}

// NewActivityLogRepository returns an ActivityLogRepository backed by s.
func NewActivityLogRepository(s store.Store) ActivityLogRepository {
	return &activityLogRepository{store: s, now: func() time.Time { return time.Now().UTC() }}
}

func (r *activityLogRepository) Append(ctx context.Context, actorID, message string) (models.ActivityLog, error) {
	entry := models.ActivityLog{ActorID: actorID, Message: message, Timestamp: r.now()}
	id, err := r.store.Create(ctx, LogsPath, entry)
	if err != nil {
		return models.ActivityLog{}, err
	}
	entry.ID = id
	return entry, nil
}
