package mirror

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"resourcehub/internal/models"
	"resourcehub/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResources() *Mirror[models.Resource] {
	return New("resources", JSONDecoder[models.Resource]())
}

func TestApply_ComputesDiffs(t *testing.T) {
	m := newResources()

	changes := m.Apply(store.Snapshot{Children: map[string]json.RawMessage{
		"a": json.RawMessage(`{"title":"Alpha","type":"pdf"}`),
		"b": json.RawMessage(`{"title":"Beta","type":"course"}`),
	}})
	require.Len(t, changes, 2)
	assert.Equal(t, Added, changes[0].Kind)
	assert.Equal(t, "a", changes[0].ID)
	assert.Equal(t, "a", changes[0].New.ID, "key is stamped onto the entity")

	changes = m.Apply(store.Snapshot{Children: map[string]json.RawMessage{
		"a": json.RawMessage(`{"title":"Alpha 2","type":"pdf"}`),
		"c": json.RawMessage(`{"title":"Gamma","type":"training"}`),
	}})
	require.Len(t, changes, 3)
	assert.Equal(t, Changed, changes[0].Kind)
	assert.Equal(t, "Alpha", changes[0].Old.Title)
	assert.Equal(t, "Alpha 2", changes[0].New.Title)
	assert.Equal(t, Removed, changes[1].Kind)
	assert.Equal(t, "b", changes[1].ID)
	assert.Equal(t, Added, changes[2].Kind)

	assert.Empty(t, m.Apply(store.Snapshot{Children: map[string]json.RawMessage{
		"a": json.RawMessage(`{"title":"Alpha 2","type":"pdf"}`),
		"c": json.RawMessage(`{"title":"Gamma","type":"training"}`),
	}}), "identical snapshot yields no changes")
	assert.Equal(t, uint64(3), m.Version())
}

func TestApply_EmptySnapshotClearsMirror(t *testing.T) {
	m := newResources()
	m.Apply(store.Snapshot{Children: map[string]json.RawMessage{"a": json.RawMessage(`{"title":"A"}`)}})
	m.Apply(store.Snapshot{})
	assert.Equal(t, 0, m.Len())
}

func TestApply_SkipsUndecodableChildren(t *testing.T) {
	m := newResources()
	m.Apply(store.Snapshot{Children: map[string]json.RawMessage{
		"ok":  json.RawMessage(`{"title":"Fine"}`),
		"bad": json.RawMessage(`"not an object"`),
	}})
	assert.Equal(t, 1, m.Len())
	_, ok := m.Get("bad")
	assert.False(t, ok)
}

func TestCurrent_ReturnsCopy(t *testing.T) {
	m := newResources()
	m.Apply(store.Snapshot{Children: map[string]json.RawMessage{"a": json.RawMessage(`{"title":"A"}`)}})
	cur := m.Current()
	delete(cur, "a")
	assert.Equal(t, 1, m.Len())
}

func TestStart_FollowsStoreAndKeepsLastGoodOnError(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Set(ctx, "resources/r1", models.Resource{Title: "Go"}))

	m := newResources()
	var seen [][]Change[models.Resource]
	m.OnChange(func(c []Change[models.Resource]) { seen = append(seen, c) })
	var errs []error
	m.OnError(func(err error) { errs = append(errs, err) })

	m.Start(ctx, mem, store.At("resources"))
	assert.True(t, m.Loaded())
	assert.Equal(t, 1, m.Len())

	require.NoError(t, mem.Set(ctx, "resources/r2", models.Resource{Title: "Rust"}))
	assert.Equal(t, 2, m.Len())
	require.Len(t, seen, 2)

	mem.Break("resources", errors.New("permission denied"))
	require.Len(t, errs, 1)
	assert.True(t, models.HasCode(m.Err(), models.CodeSubscription))
	assert.Equal(t, 2, m.Len(), "last good snapshot is kept")

	require.NoError(t, mem.Remove(ctx, "resources/r1"))
	assert.NoError(t, m.Err(), "a fresh snapshot clears the error")

	m.Close()
	m.Close()
	require.NoError(t, mem.Remove(ctx, "resources/r2"))
	assert.Equal(t, 1, m.Len(), "closed mirror ignores further snapshots")
}

func TestReady_ClosedByError(t *testing.T) {
	m := newResources()
	assert.False(t, m.Loaded())
	m.fail(errors.New("denied"))
	<-m.Ready()
	assert.True(t, m.Loaded())
}
