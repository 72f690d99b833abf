package recommend

import (
	"fmt"
	"testing"
	"time"

	"resourcehub/internal/models"
	"resourcehub/internal/views"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func res(id, title string, typ models.ResourceType, day int) models.Resource {
	return models.Resource{
		ID:        id,
		Title:     title,
		Type:      typ,
		Status:    models.ResourceStatusAvailable,
		CreatedAt: fmt.Sprintf("2024-01-%02dT00:00:00Z", day),
	}
}

func requests(s *views.State, resourceID string, n int) {
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s-%d", resourceID, i)
		s.Requests[id] = models.Request{ID: id, UserID: fmt.Sprintf("x%d", i), ResourceID: resourceID, Status: models.RequestStatusPending}
	}
}

func catalogState() views.State {
	hidden := res("g", "Go Internals", models.ResourceTypePDF, 7)
	hidden.Status = models.ResourceStatusUnavailable

	s := views.State{
		Resources: map[string]models.Resource{
			"a": res("a", "Go Basics", models.ResourceTypePDF, 1),
			"b": res("b", "Go Advanced", models.ResourceTypeCourse, 2),
			"c": res("c", "Python Intro", models.ResourceTypePDF, 3),
			"d": res("d", "Rust Course", models.ResourceTypeCourse, 4),
			"e": res("e", "Kotlin", models.ResourceTypeTraining, 5),
			"f": res("f", "Java", models.ResourceTypeTraining, 6),
			"g": hidden,
		},
		Requests:  map[string]models.Request{},
		Downloads: map[string]models.Download{},
	}
	requests(&s, "a", 4)
	requests(&s, "d", 3)
	requests(&s, "e", 2)
	requests(&s, "f", 2)
	requests(&s, "b", 1)
	return s
}

func resourceIDs(list []models.Resource) []string {
	out := make([]string, 0, len(list))
	for _, r := range list {
		out = append(out, r.ID)
	}
	return out
}

func TestKeywordTypeScorer(t *testing.T) {
	s := KeywordTypeScorer{}
	d := models.Download{Title: "Go Basics", Type: models.ResourceTypePDF}

	assert.True(t, s.Related(d, models.Resource{Title: "anything", Type: models.ResourceTypePDF}))
	assert.True(t, s.Related(d, models.Resource{Title: "Advanced GO", Type: models.ResourceTypeCourse}))
	assert.False(t, s.Related(d, models.Resource{Title: "Rust", Type: models.ResourceTypeCourse}))
	assert.False(t, s.Related(models.Download{Type: models.ResourceTypePDF}, models.Resource{Title: "x", Type: models.ResourceTypeCourse}))
}

func TestRecommend_HistoryThenPopular(t *testing.T) {
	s := catalogState()
	s.Downloads["u1:a"] = models.Download{UserID: "u1", ResourceID: "a", Title: "Go Basics", Type: models.ResourceTypePDF, DownloadedAt: t0}

	got := NewRanker(nil).Recommend(s, "u1")

	// b shares the keyword, c the type; popular top 3 is a, d, e and a is downloaded.
	assert.Equal(t, []string{"b", "c", "d", "e"}, resourceIDs(got))
}

func TestRecommend_NoHistoryUsesPopularity(t *testing.T) {
	s := catalogState()

	got := NewRanker(nil).Recommend(s, "new-user")

	assert.Equal(t, []string{"a", "d", "e"}, resourceIDs(got), "ties keep catalog order")
}

func TestRecommend_UnrequestedResourcesFillPopularity(t *testing.T) {
	s := views.State{
		Resources: map[string]models.Resource{
			"a": res("a", "Alpha", models.ResourceTypePDF, 1),
			"b": res("b", "Beta", models.ResourceTypeCourse, 2),
			"c": res("c", "Gamma", models.ResourceTypeTraining, 3),
		},
		Requests:  map[string]models.Request{},
		Downloads: map[string]models.Download{},
	}
	requests(&s, "b", 2)

	got := NewRanker(nil).Recommend(s, "fresh")

	assert.Equal(t, []string{"b", "a", "c"}, resourceIDs(got))

	s.Requests = map[string]models.Request{}
	got = NewRanker(nil).Recommend(s, "fresh")
	assert.Equal(t, []string{"a", "b", "c"}, resourceIDs(got), "an empty request history still yields the catalog head")
}

func TestRecommend_DownloadOrder(t *testing.T) {
	s := catalogState()
	s.Downloads["u1:d"] = models.Download{UserID: "u1", ResourceID: "d", Title: "Rust Course", Type: models.ResourceTypeCourse, DownloadedAt: t0}
	s.Downloads["u1:e"] = models.Download{UserID: "u1", ResourceID: "e", Title: "Kotlin", Type: models.ResourceTypeTraining, DownloadedAt: t0.Add(time.Hour)}

	got := NewRanker(nil).Recommend(s, "u1")

	// d (course) pulls in b, e (training) pulls in f; popular adds a.
	assert.Equal(t, []string{"b", "f", "a"}, resourceIDs(got))
}

func TestRecommend_Cap(t *testing.T) {
	s := catalogState()
	s.Resources["h"] = res("h", "Haskell", models.ResourceTypePDF, 8)
	s.Resources["i"] = res("i", "Idris", models.ResourceTypePDF, 9)
	s.Downloads["u9:a"] = models.Download{UserID: "u9", ResourceID: "a", Title: "Go Basics", DownloadedAt: t0}

	got := NewRanker(alwaysRelated{}).Recommend(s, "u9")

	assert.Equal(t, []string{"b", "c", "d", "e", "f"}, resourceIDs(got))
	for _, r := range got {
		assert.NotEqual(t, "g", r.ID, "unpublished resources are never recommended")
	}
}

func TestRecommend_SkipsDownloaded(t *testing.T) {
	s := catalogState()
	s.Downloads["u1:a"] = models.Download{UserID: "u1", ResourceID: "a", Title: "Go Basics", Type: models.ResourceTypePDF, DownloadedAt: t0}
	s.Downloads["u1:c"] = models.Download{UserID: "u1", ResourceID: "c", Title: "Python Intro", Type: models.ResourceTypePDF, DownloadedAt: t0.Add(time.Minute)}

	got := NewRanker(nil).Recommend(s, "u1")

	// c matches a by type but is already downloaded; d and e are both popular.
	assert.Equal(t, []string{"b", "d", "e"}, resourceIDs(got))
}

type alwaysRelated struct{}

func (alwaysRelated) Related(models.Download, models.Resource) bool { return true }
