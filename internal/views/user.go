package views

import (
	"sort"

	"resourcehub/internal/models"
)

// View names for the user role.
const (
	ViewAvailable = "available"
	ViewPending   = "pending"
	ViewApproved  = "approved"
	ViewRejected  = "rejected"
	ViewLibrary   = "library"
)

// UserViews lists the user view names in display order.
var UserViews = []string{ViewAvailable, ViewPending, ViewApproved, ViewRejected, ViewLibrary}

// RequestEntry is a request joined with its resource.
type RequestEntry struct {
	Request  models.Request       `json:"request"`
	Resource *models.Resource     `json:"resource,omitempty"`
	Title    string               `json:"title"`
	Type     models.ResourceType  `json:"type,omitempty"`
	Status   models.DerivedStatus `json:"status"`
}

func sortResources(list []models.Resource) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt != list[j].CreatedAt {
			return list[i].CreatedAt < list[j].CreatedAt
		}
		return list[i].ID < list[j].ID
	})
}

func sortRequests(list []models.Request) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Timestamp.Equal(list[j].Timestamp) {
			return list[i].Timestamp.Before(list[j].Timestamp)
		}
		return list[i].ID < list[j].ID
	})
}

func sortDownloads(list []models.Download) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].DownloadedAt.Equal(list[j].DownloadedAt) {
			return list[i].DownloadedAt.Before(list[j].DownloadedAt)
		}
		return list[i].Pair().String() < list[j].Pair().String()
	})
}

// Available lists published resources the user has no pending or approved request for.
func Available(s State, userID string, f Filter) []models.Resource {
	blocked := map[string]bool{}
	for _, r := range s.Requests {
		if r.UserID != userID {
			continue
		}
		if r.Status == models.RequestStatusPending || r.Status == models.RequestStatusApproved {
			blocked[r.ResourceID] = true
		}
	}

	out := []models.Resource{}
	for _, res := range s.Resources {
		if !res.Available() || blocked[res.ID] {
			continue
		}
		if f.Match(res.DisplayTitle(), res.Type) {
			out = append(out, res)
		}
	}
	sortResources(out)
	return out
}

// MyResources lists the user's requests in one stored status. Approved
// requests whose download exists have moved to the library and are left out.
func MyResources(s State, userID string, status models.RequestStatus, f Filter) []RequestEntry {
	var reqs []models.Request
	for _, r := range s.Requests {
		if r.UserID == userID && r.Status == status {
			reqs = append(reqs, r)
		}
	}
	sortRequests(reqs)

	out := []RequestEntry{}
	for _, r := range reqs {
		derived := models.DeriveStatus(r, s.Downloaded(r.Pair()))
		if derived == models.DerivedDownloaded {
			continue
		}
		entry := RequestEntry{Request: r, Title: s.Title(r.ResourceID), Status: derived}
		if res, ok := s.Resources[r.ResourceID]; ok {
			entry.Resource = &res
			entry.Type = res.Type
		}
		if f.Match(entry.Title, entry.Type) {
			out = append(out, entry)
		}
	}
	return out
}

// Library lists the user's downloads in the order they happened.
func Library(s State, userID string, f Filter) []models.Download {
	out := []models.Download{}
	for _, d := range s.Downloads {
		if d.UserID == userID && f.Match(d.Title, d.Type) {
			out = append(out, d)
		}
	}
	sortDownloads(out)
	return out
}

// UserStatus is the derived status of the user's latest request for a resource, if any.
func UserStatus(s State, userID, resourceID string) (models.DerivedStatus, bool) {
	var latest *models.Request
	for _, r := range s.Requests {
		if r.UserID != userID || r.ResourceID != resourceID {
			continue
		}
		if latest == nil || r.Timestamp.After(latest.Timestamp) {
			r := r
			latest = &r
		}
	}
	if latest == nil {
		return "", false
	}
	return models.DeriveStatus(*latest, s.Downloaded(latest.Pair())), true
}
