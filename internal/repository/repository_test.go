package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"resourcehub/internal/models"
	"resourcehub/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readCollection returns the current documents of collection.
func readCollection(t *testing.T, collection string) map[string]json.RawMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	snap, err := store.Read(ctx, testStore, store.At(collection))
	require.NoError(t, err, "read %s", collection)
	return snap.Children
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestResourceRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewResourceRepository(testStore)

	res := &models.Resource{Title: "Go Basics", Type: models.ResourceTypePDF, Content: "data", Status: models.ResourceStatusAvailable, CreatedAt: "2024-01-01T00:00:00Z"}
	require.NoError(t, repo.Create(ctx, res))
	require.NotEmpty(t, res.ID)

	docs := readCollection(t, ResourcesPath)
	stored := decode[models.Resource](t, docs[res.ID])
	assert.Equal(t, "Go Basics", stored.Title)
	assert.Empty(t, stored.ID, "the key is not duplicated into the body")

	res.Title = "Go Basics, 2nd ed."
	require.NoError(t, repo.Save(ctx, res))
	require.NoError(t, repo.UpdateStatus(ctx, res.ID, models.ResourceStatusUnavailable))

	stored = decode[models.Resource](t, readCollection(t, ResourcesPath)[res.ID])
	assert.Equal(t, "Go Basics, 2nd ed.", stored.Title)
	assert.Equal(t, models.ResourceStatusUnavailable, stored.Status)
	assert.Equal(t, "2024-01-01T00:00:00Z", stored.CreatedAt)

	require.NoError(t, repo.Delete(ctx, res.ID))
	assert.NotContains(t, readCollection(t, ResourcesPath), res.ID)

	err := repo.UpdateStatus(ctx, res.ID, models.ResourceStatusAvailable)
	assert.True(t, models.HasCode(err, models.CodeWriteFailure))
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testStore)

	err := repo.Save(ctx, &models.User{Name: "anon"})
	assert.True(t, models.HasCode(err, models.CodeValidation))

	require.NoError(t, repo.Save(ctx, &models.User{ID: "u1", Name: "Ada", Email: "ada@example.com"}))
	require.NoError(t, repo.SetRole(ctx, "u1", models.RoleAdmin))

	u := decode[models.User](t, readCollection(t, UsersPath)["u1"])
	assert.True(t, u.IsAdmin())
	assert.Equal(t, "Ada", u.Name)

	require.NoError(t, repo.Delete(ctx, "u1"))
	assert.NotContains(t, readCollection(t, UsersPath), "u1")
}

func TestActivityLogRepository_Append(t *testing.T) {
	ctx := context.Background()
	repo := NewActivityLogRepository(testStore)

	entry, err := repo.Append(ctx, "admin", "Added resource Go Basics")
	require.NoError(t, err)
	require.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())

	stored := decode[models.ActivityLog](t, readCollection(t, LogsPath)[entry.ID])
	assert.Equal(t, "Added resource Go Basics", stored.Message)
	assert.Equal(t, "admin", stored.ActorID)
}

func TestRequestRepository_ForUser(t *testing.T) {
	ctx := context.Background()
	repo := NewRequestRepository(testStore)

	_, err := repo.ForUser(ctx, "")
	assert.True(t, models.HasCode(err, models.CodeValidation))

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, testStore.Set(ctx, "requests/q2", models.Request{UserID: "hist", ResourceID: "r2", Status: models.RequestStatusApproved, Timestamp: base.Add(time.Hour)}))
	require.NoError(t, testStore.Set(ctx, "requests/q1", models.Request{UserID: "hist", ResourceID: "r1", Status: models.RequestStatusPending, Timestamp: base}))
	require.NoError(t, testStore.Set(ctx, "requests/q3", models.Request{UserID: "other", ResourceID: "r1", Timestamp: base}))

	got, err := repo.ForUser(ctx, "hist")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "q1", got[0].ID)
	assert.Equal(t, "q2", got[1].ID)
	assert.Equal(t, models.RequestStatusApproved, got[1].Status)
}
