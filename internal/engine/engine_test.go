package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"resourcehub/internal/models"
	"resourcehub/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(t *testing.T) *store.Memory {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()
	require.NoError(t, mem.Set(ctx, "resources/r1", models.Resource{Title: "Go Basics", Type: models.ResourceTypePDF, Content: "data", Status: models.ResourceStatusAvailable, CreatedAt: "2024-01-01T00:00:00Z"}))
	require.NoError(t, mem.Set(ctx, "resources/r2", models.Resource{Title: "Go Course", Type: models.ResourceTypeCourse, Content: "https://example.com", Status: models.ResourceStatusAvailable, CreatedAt: "2024-01-02T00:00:00Z"}))
	require.NoError(t, mem.Set(ctx, "users/admin", models.User{Name: "Root", Role: models.RoleAdmin}))
	require.NoError(t, mem.Set(ctx, "users/u1", models.User{Name: "Ada"}))
	return mem
}

func started(t *testing.T, s store.Store) *Engine {
	t.Helper()
	e := New(s, nil)
	e.Start(context.Background())
	t.Cleanup(e.Close)
	return e
}

func TestEngine_LoadsEveryCollection(t *testing.T) {
	e := started(t, seeded(t))

	require.True(t, e.WaitLoaded(context.Background(), time.Second))
	assert.False(t, e.Loading())
	assert.Empty(t, e.Banners())

	st := e.State()
	assert.Len(t, st.Resources, 2)
	assert.Len(t, st.Users, 2)
	assert.Empty(t, st.Requests)
	assert.True(t, e.IsAdmin(context.Background(), "admin"))
	assert.False(t, e.IsAdmin(context.Background(), "u1"))
	assert.False(t, e.IsAdmin(context.Background(), "nobody"))
}

func TestEngine_StateIncludesLifecycleWrites(t *testing.T) {
	e := started(t, seeded(t))
	require.True(t, e.WaitLoaded(context.Background(), time.Second))
	ctx := context.Background()

	req, err := e.Lifecycle().Create(ctx, "u1", "r1")
	require.NoError(t, err)
	_, err = e.Lifecycle().Approve(ctx, req.ID)
	require.NoError(t, err)
	_, err = e.Lifecycle().Download(ctx, "u1", "r1")
	require.NoError(t, err)

	st := e.State()
	assert.Equal(t, models.RequestStatusApproved, st.Requests[req.ID].Status)
	assert.True(t, st.Downloaded(models.PairKey{UserID: "u1", ResourceID: "r1"}))

	recs := e.Recommend("u1")
	require.Len(t, recs, 1)
	assert.Equal(t, "r2", recs[0].ID, "title keyword relates the course")
}

func TestEngine_ChangeFanOut(t *testing.T) {
	mem := seeded(t)
	e := started(t, mem)
	require.True(t, e.WaitLoaded(context.Background(), time.Second))

	var calls int32
	e.OnChange(func() { atomic.AddInt32(&calls, 1) })

	require.NoError(t, mem.Set(context.Background(), "resources/r3", models.Resource{Title: "New"}))
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) > 0 }, time.Second, 5*time.Millisecond)
}

func TestEngine_BannersKeepLastGoodState(t *testing.T) {
	mem := seeded(t)
	e := started(t, mem)
	require.True(t, e.WaitLoaded(context.Background(), time.Second))

	mem.Break(UsersPath, errors.New("permission denied"))

	banners := e.Banners()
	require.Len(t, banners, 1)
	assert.Equal(t, UsersPath, banners[0].Collection)
	assert.Contains(t, banners[0].Message, "permission denied")
	assert.Len(t, e.State().Users, 2)
}

// silentStore never delivers anything to subscribers.
type silentStore struct{ store.Store }

func (silentStore) Subscribe(context.Context, store.Query, func(store.Snapshot), func(error)) store.Unsubscribe {
	return func() {}
}

func TestEngine_WaitLoadedTimesOut(t *testing.T) {
	e := started(t, silentStore{})

	start := time.Now()
	assert.False(t, e.WaitLoaded(context.Background(), 50*time.Millisecond))
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, e.Loading())
	assert.Empty(t, e.State().Resources)
}

func TestEngine_CloseIsIdempotent(t *testing.T) {
	e := started(t, seeded(t))
	e.Close()
	e.Close()
}
