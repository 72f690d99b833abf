package seed

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"resourcehub/internal/lifecycle"
	"resourcehub/internal/models"
	"resourcehub/internal/repository"
	"resourcehub/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collection[T any](t *testing.T, mem *store.Memory, path string) map[string]T {
	t.Helper()
	out := map[string]T{}
	unsub := mem.Subscribe(context.Background(), store.At(path), func(s store.Snapshot) {
		for id, raw := range s.Children {
			var v T
			require.NoError(t, json.Unmarshal(raw, &v))
			out[id] = v
		}
	}, nil)
	unsub()
	return out
}

func TestRun_KeepsInvariants(t *testing.T) {
	mem := store.NewMemory()
	sum, err := Run(context.Background(), mem, Options{NumUsers: 4, NumResources: 5, NumRequests: 15, Seed: 42})
	require.NoError(t, err)

	assert.Equal(t, 4, sum.Users)
	assert.Equal(t, 5, sum.Resources)
	assert.Equal(t, 15, sum.Requests)

	requests := collection[models.Request](t, mem, lifecycle.RequestsPath)
	require.Len(t, requests, 15)

	pairs := map[models.PairKey]models.Request{}
	for _, r := range requests {
		_, dup := pairs[r.Pair()]
		assert.False(t, dup, "one request per pair")
		pairs[r.Pair()] = r
		if r.Status == models.RequestStatusRejected {
			assert.NotEmpty(t, r.RejectionReason)
		}
	}

	downloads := collection[models.Download](t, mem, lifecycle.DownloadsPath)
	assert.Len(t, downloads, sum.Downloads)
	for key, d := range downloads {
		assert.Equal(t, d.Pair().String(), key)
		assert.Equal(t, models.RequestStatusApproved, pairs[d.Pair()].Status, "downloads follow approval")
		_, ok := mem.Get(lifecycle.DownloadPath(d.Pair()))
		assert.True(t, ok, "per-user copy exists")
	}
}

func TestRun_CapsRequestsAtPairCount(t *testing.T) {
	sum, err := Run(context.Background(), store.NewMemory(), Options{NumUsers: 2, NumResources: 2, NumRequests: 10, Seed: 7})
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Requests)
}

func TestRun_DryRunWritesNothing(t *testing.T) {
	mem := store.NewMemory()
	sum, err := Run(context.Background(), mem, Options{NumUsers: 3, NumResources: 3, NumRequests: 3, Seed: 1, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Requests)
	assert.Empty(t, collection[models.Resource](t, mem, repository.ResourcesPath))
}

func TestFactory_ResourceContentMatchesType(t *testing.T) {
	f := NewFactory(Options{Seed: 99})
	for i := 0; i < 30; i++ {
		res := f.Resource()
		assert.True(t, res.Type.Valid())
		if res.Type == models.ResourceTypePDF {
			assert.True(t, strings.HasPrefix(res.Content, "data:application/pdf"))
		} else {
			assert.True(t, strings.HasPrefix(res.Content, "http"), res.Content)
		}
	}
}

func TestBuiltIns_Idempotent(t *testing.T) {
	mem := store.NewMemory()
	repo := repository.NewResourceRepository(mem)
	ctx := context.Background()

	require.NoError(t, BuiltIns(ctx, repo, BuiltInResources))
	require.NoError(t, BuiltIns(ctx, repo, BuiltInResources))

	got := collection[models.Resource](t, mem, repository.ResourcesPath)
	assert.Len(t, got, len(BuiltInResources))
	assert.Contains(t, got, BuiltInID("go-course"))
}

func TestLoadFixtures(t *testing.T) {
	f, err := LoadFixtures(strings.NewReader(`
resources:
  - slug: intro
    title: Intro Course
    type: Course
    content: https://example.com/intro
users:
  - id: root
    name: Root
    email: root@example.com
    role: admin
`))
	require.NoError(t, err)
	require.Len(t, f.Resources, 1)
	assert.Equal(t, models.ResourceTypeCourse, f.Resources[0].Type)

	mem := store.NewMemory()
	require.NoError(t, ApplyFixtures(context.Background(), mem, f))
	users := collection[models.User](t, mem, repository.UsersPath)
	assert.True(t, users["root"].IsAdmin())

	_, err = LoadFixtures(strings.NewReader("resources:\n  - slug: bad\n    title: x\n    type: course\n    content: not-a-link\n"))
	assert.Error(t, err)
	_, err = LoadFixtures(strings.NewReader("resources:\n  - title: no slug\n"))
	assert.Error(t, err)
	_, err = LoadFixtures(strings.NewReader("users:\n  - id: u1\n    role: owner\n"))
	assert.Error(t, err)
	_, err = LoadFixtures(strings.NewReader("unknown: true\n"))
	assert.Error(t, err, "unknown fields are refused")
}
