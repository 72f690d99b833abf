package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"resourcehub/internal/models"
	"resourcehub/internal/store"
)

const RequestsPath = "requests"

// RequestRepository reads access requests outside a live mirror.
type RequestRepository interface {
	ForUser(ctx context.Context, userID string) ([]models.Request, error)
}

type requestRepository struct {
	store store.Store
}

// NewRequestRepository returns a RequestRepository backed by s.
func NewRequestRepository(s store.Store) RequestRepository {
	return &requestRepository{store: s}
}

// ForUser returns the user's requests, oldest first.
func (r *requestRepository) ForUser(ctx context.Context, userID string) ([]models.Request, error) {
	if userID == "" {
		return nil, models.NewValidationError("user id is required")
	}
	snap, err := store.Read(ctx, r.store, store.At(RequestsPath).Where("userId", userID))
	if err != nil {
		return nil, err
	}

	out := make([]models.Request, 0, snap.Len())
	for key, raw := range snap.Children {
		var req models.Request
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("decode request %s: %w", key, err)
		}
		req.ID = key
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}
