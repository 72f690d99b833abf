package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"resourcehub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	snaps []Snapshot
	errs  []error
}

func (r *recorder) onSnapshot(s Snapshot) { r.snaps = append(r.snaps, s) }
func (r *recorder) onError(err error)     { r.errs = append(r.errs, err) }
func (r *recorder) last() Snapshot        { return r.snaps[len(r.snaps)-1] }

func TestMemory_SubscribeDeliversFullSnapshots(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	rec := &recorder{}

	unsub := m.Subscribe(ctx, At("requests"), rec.onSnapshot, rec.onError)
	require.Len(t, rec.snaps, 1, "initial snapshot is delivered on subscribe")
	assert.Equal(t, 0, rec.last().Len())

	id, err := m.Create(ctx, "requests", models.Request{UserID: "u1", ResourceID: "r1", Status: models.RequestStatusPending})
	require.NoError(t, err)
	require.NoError(t, m.Set(ctx, "requests/fixed", models.Request{UserID: "u2", ResourceID: "r1"}))

	require.Len(t, rec.snaps, 3)
	assert.Equal(t, 2, rec.last().Len())
	assert.Contains(t, rec.last().Children, id)

	require.NoError(t, m.Update(ctx, "requests/"+id, map[string]any{"status": "approved"}))
	var got models.Request
	require.NoError(t, json.Unmarshal(rec.last().Children[id], &got))
	assert.Equal(t, models.RequestStatusApproved, got.Status)
	assert.Equal(t, "u1", got.UserID)

	require.NoError(t, m.Remove(ctx, "requests/fixed"))
	assert.Equal(t, 1, rec.last().Len())

	unsub()
	unsub()
	require.NoError(t, m.Remove(ctx, "requests/"+id))
	assert.Len(t, rec.snaps, 5, "no delivery after unsubscribe")
}

func TestMemory_QueryScopesChildren(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	rec := &recorder{}
	m.Subscribe(ctx, At("requests").Where("userId", "u1"), rec.onSnapshot, rec.onError)

	_, err := m.Create(ctx, "requests", map[string]any{"userId": "u1"})
	require.NoError(t, err)
	_, err = m.Create(ctx, "requests", map[string]any{"userId": "u2"})
	require.NoError(t, err)

	assert.Equal(t, 1, rec.last().Len())
}

func TestMemory_OtherCollectionsDoNotNotify(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	rec := &recorder{}
	m.Subscribe(ctx, At("resources"), rec.onSnapshot, rec.onError)

	require.NoError(t, m.Set(ctx, "userDownloads/u1/r1", map[string]any{"title": "x"}))
	assert.Len(t, rec.snaps, 1)
}

func TestMemory_WriteFailures(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	err := m.Update(ctx, "requests/missing", map[string]any{"status": "approved"})
	assert.True(t, models.HasCode(err, models.CodeWriteFailure))
	assert.ErrorIs(t, err, ErrNoDocument)

	boom := errors.New("offline")
	m.FailWrites(boom)
	_, err = m.Create(ctx, "requests", map[string]any{})
	assert.True(t, models.HasCode(err, models.CodeWriteFailure))
	assert.ErrorIs(t, err, boom)

	m.FailWrites(nil)
	_, err = m.Create(ctx, "requests", map[string]any{})
	assert.NoError(t, err)
}

func TestMemory_Break(t *testing.T) {
	m := NewMemory()
	rec := &recorder{}
	m.Subscribe(context.Background(), At("users"), rec.onSnapshot, rec.onError)

	m.Break("users", errors.New("permission denied"))
	require.Len(t, rec.errs, 1)
	assert.True(t, models.HasCode(rec.errs[0], models.CodeSubscription))
}

func TestRead(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "requests/a", models.Request{UserID: "u1", ResourceID: "r1"}))
	require.NoError(t, m.Set(ctx, "requests/b", models.Request{UserID: "u2", ResourceID: "r1"}))

	snap, err := Read(ctx, m, At("requests").Where("userId", "u2"))
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Len())
	assert.Contains(t, snap.Children, "b")
}

func TestMemory_SetIfAbsent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	rec := &recorder{}
	m.Subscribe(ctx, At("downloads"), rec.onSnapshot, rec.onError)

	first := models.Download{UserID: "u1", ResourceID: "r1", Title: "first"}
	stored, created, err := m.SetIfAbsent(ctx, "downloads/u1:r1", first)
	require.NoError(t, err)
	assert.True(t, created)
	require.Len(t, rec.snaps, 2)

	stored, created, err = m.SetIfAbsent(ctx, "downloads/u1:r1", models.Download{UserID: "u1", ResourceID: "r1", Title: "second"})
	require.NoError(t, err)
	assert.False(t, created)
	var got models.Download
	require.NoError(t, json.Unmarshal(stored, &got))
	assert.Equal(t, "first", got.Title)
	assert.Len(t, rec.snaps, 2, "an existing document is neither rewritten nor redelivered")
}
