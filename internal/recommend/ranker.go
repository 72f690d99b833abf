// Package recommend ranks catalog resources for a user from their download
// history and overall request popularity, and looks up external suggestions
// for the admin catalog form.
package recommend

import (
	"sort"
	"strings"

	"resourcehub/internal/models"
	"resourcehub/internal/views"
)

const (
	// MaxResults caps the recommendation list.
	MaxResults = 5
	// PopularCount is how many of the most requested resources are considered.
	PopularCount = 3
)

// Scorer decides whether a candidate resource is related to something the
// user already downloaded.
type Scorer interface {
	Related(downloaded models.Download, candidate models.Resource) bool
}

// KeywordTypeScorer relates resources of the same type, or whose title
// contains the first word of the downloaded title (case-insensitive).
type KeywordTypeScorer struct{}

func (KeywordTypeScorer) Related(d models.Download, r models.Resource) bool {
	if d.Type != "" && r.Type == d.Type {
		return true
	}
	words := strings.Fields(strings.ToLower(d.Title))
	if len(words) == 0 {
		return false
	}
	return strings.Contains(strings.ToLower(r.Title), words[0])
}

// Ranker builds recommendation lists.
type Ranker struct {
	scorer Scorer
}

// NewRanker returns a ranker using scorer, or KeywordTypeScorer when nil.
func NewRanker(scorer Scorer) *Ranker {
	if scorer == nil {
		scorer = KeywordTypeScorer{}
	}
	return &Ranker{scorer: scorer}
}

// Recommend returns up to MaxResults published resources for userID.
// History matches come first, in the order the downloads happened, followed
// by the most requested resources the user has neither been recommended nor
// downloaded.
func (rk *Ranker) Recommend(s views.State, userID string) []models.Resource {
	catalog := publishedCatalog(s)
	downloads := userDownloads(s, userID)

	downloaded := make(map[string]bool, len(downloads))
	for _, d := range downloads {
		downloaded[d.ResourceID] = true
	}

	out := make([]models.Resource, 0, MaxResults)
	picked := make(map[string]bool)

	for _, d := range downloads {
		for _, r := range catalog {
			if downloaded[r.ID] || picked[r.ID] {
				continue
			}
			if rk.scorer.Related(d, r) {
				picked[r.ID] = true
				out = append(out, r)
			}
		}
	}

	for _, r := range Popular(s, catalog) {
		if picked[r.ID] || downloaded[r.ID] {
			continue
		}
		picked[r.ID] = true
		out = append(out, r)
	}

	if len(out) > MaxResults {
		out = out[:MaxResults]
	}
	return out
}

// Popular returns the PopularCount resources of catalog with the most
// requests across all users and statuses. Unrequested resources count as
// zero; ties keep catalog order.
func Popular(s views.State, catalog []models.Resource) []models.Resource {
	counts := make(map[string]int)
	for _, req := range s.Requests {
		counts[req.ResourceID]++
	}

	ranked := append([]models.Resource(nil), catalog...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i].ID] > counts[ranked[j].ID]
	})
	if len(ranked) > PopularCount {
		ranked = ranked[:PopularCount]
	}
	return ranked
}

func publishedCatalog(s views.State) []models.Resource {
	out := make([]models.Resource, 0, len(s.Resources))
	for _, r := range s.Resources {
		if r.Available() {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func userDownloads(s views.State, userID string) []models.Download {
	out := make([]models.Download, 0)
	for _, d := range s.Downloads {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DownloadedAt.Equal(out[j].DownloadedAt) {
			return out[i].DownloadedAt.Before(out[j].DownloadedAt)
		}
		return out[i].ResourceID < out[j].ResourceID
	})
	return out
}
