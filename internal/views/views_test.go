package views

import (
	"testing"
	"time"

	"resourcehub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

func fixtureState() State {
	s := State{
		Resources: map[string]models.Resource{
			"go":     {ID: "go", Title: "Go Basics", Type: models.ResourceTypePDF, Status: models.ResourceStatusAvailable, CreatedAt: "2024-01-01T00:00:00Z"},
			"rust":   {ID: "rust", Title: "Rust Course", Type: models.ResourceTypeCourse, Status: models.ResourceStatusAvailable, CreatedAt: "2024-01-02T00:00:00Z"},
			"k8s":    {ID: "k8s", Title: "Kubernetes Training", Type: models.ResourceTypeTraining, Status: models.ResourceStatusAvailable, CreatedAt: "2024-01-03T00:00:00Z"},
			"hidden": {ID: "hidden", Title: "Draft", Type: models.ResourceTypePDF, Status: models.ResourceStatusUnavailable, CreatedAt: "2024-01-04T00:00:00Z"},
			"sql":    {ID: "sql", Title: "SQL Deep Dive", Type: models.ResourceTypeCourse, Status: models.ResourceStatusAvailable, CreatedAt: "2024-01-05T00:00:00Z"},
		},
		Requests: map[string]models.Request{
			"q1": {ID: "q1", UserID: "u1", ResourceID: "go", Status: models.RequestStatusPending, Timestamp: t0},
			"q2": {ID: "q2", UserID: "u1", ResourceID: "rust", Status: models.RequestStatusApproved, Timestamp: t0.Add(time.Minute)},
			"q3": {ID: "q3", UserID: "u1", ResourceID: "k8s", Status: models.RequestStatusApproved, Timestamp: t0.Add(2 * time.Minute)},
			"q4": {ID: "q4", UserID: "u1", ResourceID: "sql", Status: models.RequestStatusRejected, Timestamp: t0.Add(3 * time.Minute), RejectionReason: "full"},
			"q5": {ID: "q5", UserID: "u2", ResourceID: "go", Status: models.RequestStatusPending, Timestamp: t0.Add(4 * time.Minute)},
			"q6": {ID: "q6", UserID: "u2", ResourceID: "gone", Status: models.RequestStatusApproved, Timestamp: t0.Add(5 * time.Minute)},
		},
		Downloads: map[string]models.Download{
			"u1:k8s": {UserID: "u1", ResourceID: "k8s", Title: "Kubernetes Training", Type: models.ResourceTypeTraining, DownloadedAt: t0.Add(time.Hour)},
		},
		Users: map[string]models.User{
			"u1":    {ID: "u1", Name: "Ada"},
			"admin": {ID: "admin", Email: "root@example.com", Role: models.RoleAdmin},
		},
		Logs: map[string]models.ActivityLog{
			"l1": {ID: "l1", Message: "first", Timestamp: t0},
			"l2": {ID: "l2", Message: "second", Timestamp: t0.Add(time.Hour)},
		},
	}
	return s
}

func ids(list []models.Resource) []string {
	out := make([]string, 0, len(list))
	for _, r := range list {
		out = append(out, r.ID)
	}
	return out
}

func TestAvailable(t *testing.T) {
	s := fixtureState()
	assert.Equal(t, []string{"sql"}, ids(Available(s, "u1", Filter{})), "pending/approved/downloaded and unpublished are excluded")
	assert.Equal(t, []string{"rust", "k8s", "sql"}, ids(Available(s, "u2", Filter{})))
	assert.Equal(t, []string{"rust", "sql"}, ids(Available(s, "u2", Filter{Type: models.ResourceTypeCourse})))
	assert.Equal(t, []string{"k8s"}, ids(Available(s, "u2", Filter{Search: "KUBER"})))
}

func TestMyResources_ApprovedMigratesToLibrary(t *testing.T) {
	s := fixtureState()

	approved := MyResources(s, "u1", models.RequestStatusApproved, Filter{})
	require.Len(t, approved, 1)
	assert.Equal(t, "rust", approved[0].Request.ResourceID)
	assert.Equal(t, models.DerivedApproved, approved[0].Status)

	lib := Library(s, "u1", Filter{})
	require.Len(t, lib, 1)
	assert.Equal(t, "k8s", lib[0].ResourceID)

	pending := MyResources(s, "u1", models.RequestStatusPending, Filter{})
	require.Len(t, pending, 1)
	assert.Equal(t, "Go Basics", pending[0].Title)

	rejected := MyResources(s, "u1", models.RequestStatusRejected, Filter{})
	require.Len(t, rejected, 1)
	assert.Equal(t, "full", rejected[0].Request.RejectionReason)
}

func TestMyResources_DanglingResourceFallsBackToID(t *testing.T) {
	s := fixtureState()
	approved := MyResources(s, "u2", models.RequestStatusApproved, Filter{})
	require.Len(t, approved, 1)
	assert.Equal(t, "gone", approved[0].Title)
	assert.Nil(t, approved[0].Resource)
}

func TestMyResources_UnpublishedResourceStaysVisible(t *testing.T) {
	s := fixtureState()
	rust := s.Resources["rust"]
	rust.Status = models.ResourceStatusUnavailable
	s.Resources["rust"] = rust

	approved := MyResources(s, "u1", models.RequestStatusApproved, Filter{})
	require.Len(t, approved, 1)
	assert.Equal(t, "rust", approved[0].Request.ResourceID)
}

func TestUserViewsAreDisjoint(t *testing.T) {
	s := fixtureState()
	seen := map[string]string{}
	add := func(view, id string) {
		prev, dup := seen[id]
		assert.False(t, dup, "%s appears in %s and %s", id, prev, view)
		seen[id] = view
	}
	for _, r := range Available(s, "u1", Filter{}) {
		add("available", r.ID)
	}
	for _, st := range []models.RequestStatus{models.RequestStatusPending, models.RequestStatusApproved, models.RequestStatusRejected} {
		for _, e := range MyResources(s, "u1", st, Filter{}) {
			if st == models.RequestStatusRejected {
				continue // rejected resources may be requested again
			}
			add(string(st), e.Request.ResourceID)
		}
	}
	for _, d := range Library(s, "u1", Filter{}) {
		add("library", d.ResourceID)
	}
}

func TestRequestsFor(t *testing.T) {
	s := fixtureState()
	all := RequestsFor(s, "", Filter{})
	require.Len(t, all, 6)
	assert.Equal(t, "q1", all[0].Request.ID)
	assert.Equal(t, "Ada", all[0].UserName)
	assert.Equal(t, "u2", all[4].UserName, "unknown users fall back to id")
	assert.True(t, all[0].Editable)
	assert.False(t, all[1].Editable)
	assert.Equal(t, models.DerivedDownloaded, all[2].Status)

	pending := RequestsFor(s, models.RequestStatusPending, Filter{})
	assert.Len(t, pending, 2)
}

func TestAllDownloadsAndLogs(t *testing.T) {
	s := fixtureState()
	d := AllDownloads(s, Filter{})
	require.Len(t, d, 1)
	assert.Equal(t, "Ada", d[0].UserName)

	logs := Logs(s)
	require.Len(t, logs, 2)
	assert.Equal(t, "second", logs[0].Message)
}

func TestComputeAnalytics(t *testing.T) {
	s := fixtureState()
	a := ComputeAnalytics(s)
	assert.Equal(t, 2, a.Pending)
	assert.Equal(t, 3, a.Approved)
	assert.Equal(t, 1, a.Rejected)
	assert.Equal(t, 1, a.Downloads)
	require.NotEmpty(t, a.PerResource)
	assert.Equal(t, "go", a.PerResource[0].ResourceID)
	assert.Equal(t, 2, a.PerResource[0].Requests)

	var hidden *ResourceCount
	for i := range a.PerResource {
		if a.PerResource[i].ResourceID == "hidden" {
			hidden = &a.PerResource[i]
		}
	}
	require.NotNil(t, hidden)
	assert.Equal(t, 0, hidden.Requests)
	assert.Equal(t, 0, hidden.Downloads)

	perResource := map[string]ResourceCount{}
	for _, rc := range a.PerResource {
		perResource[rc.ResourceID] = rc
	}
	assert.Equal(t, 1, perResource["k8s"].Downloads)
	assert.Equal(t, 0, perResource["go"].Downloads)
}

func TestViewsArePure(t *testing.T) {
	s := fixtureState()
	first := RequestsFor(s, "", Filter{})
	second := RequestsFor(s, "", Filter{})
	assert.Equal(t, first, second)
	assert.Equal(t, ComputeAnalytics(s), ComputeAnalytics(s))
}
