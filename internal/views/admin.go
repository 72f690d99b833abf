package views

import (
	"sort"

	"resourcehub/internal/models"
)

// View names for the admin role.
const (
	ViewManage    = "manage"
	ViewRequests  = "requests"
	ViewDownloads = "downloads"
	ViewLogs      = "logs"
)

// AdminViews lists the admin view names in menu order.
var AdminViews = []string{ViewManage, ViewRequests, ViewDownloads, ViewLogs}

// AdminRequest is a request joined with requester and resource.
type AdminRequest struct {
	Request  models.Request       `json:"request"`
	UserName string               `json:"userName"`
	Title    string               `json:"title"`
	Status   models.DerivedStatus `json:"status"`
	Editable bool                 `json:"editable"`
}

// AdminDownload is a download joined with the downloading user.
type AdminDownload struct {
	models.Download
	UserName string `json:"userName"`
}

// ResourceCount is the number of requests and downloads for one resource.
type ResourceCount struct {
	ResourceID string `json:"resourceId"`
	Title      string `json:"title"`
	Requests   int    `json:"requests"`
	Downloads  int    `json:"downloads"`
}

// Analytics are aggregate counts recomputed from the current state.
type Analytics struct {
	PerResource []ResourceCount `json:"perResource"`
	Pending     int             `json:"pending"`
	Approved    int             `json:"approved"`
	Rejected    int             `json:"rejected"`
	Downloads   int             `json:"downloads"`
	Resources   int             `json:"resources"`
	Users       int             `json:"users"`
}

// Manage lists every resource regardless of publish status.
func Manage(s State, f Filter) []models.Resource {
	out := []models.Resource{}
	for _, res := range s.Resources {
		if f.Match(res.DisplayTitle(), res.Type) {
			out = append(out, res)
		}
	}
	sortResources(out)
	return out
}

// RequestsFor lists every request, optionally narrowed to one stored status.
// Only pending requests are editable.
func RequestsFor(s State, status models.RequestStatus, f Filter) []AdminRequest {
	var reqs []models.Request
	for _, r := range s.Requests {
		if status == "" || r.Status == status {
			reqs = append(reqs, r)
		}
	}
	sortRequests(reqs)

	out := []AdminRequest{}
	for _, r := range reqs {
		title := s.Title(r.ResourceID)
		var t models.ResourceType
		if res, ok := s.Resources[r.ResourceID]; ok {
			t = res.Type
		}
		if !f.Match(title, t) {
			continue
		}
		out = append(out, AdminRequest{
			Request:  r,
			UserName: s.UserName(r.UserID),
			Title:    title,
			Status:   models.DeriveStatus(r, s.Downloaded(r.Pair())),
			Editable: r.Status == models.RequestStatusPending,
		})
	}
	return out
}

// AllDownloads lists every download across users.
func AllDownloads(s State, f Filter) []AdminDownload {
	var list []models.Download
	for _, d := range s.Downloads {
		if f.Match(d.Title, d.Type) {
			list = append(list, d)
		}
	}
	sortDownloads(list)

	out := make([]AdminDownload, 0, len(list))
	for _, d := range list {
		out = append(out, AdminDownload{Download: d, UserName: s.UserName(d.UserID)})
	}
	return out
}

// ComputeAnalytics counts requests per resource and per status. Resources
// without requests are listed with zero; the list is ordered by count
// descending, then by title.
func ComputeAnalytics(s State) Analytics {
	a := Analytics{Downloads: len(s.Downloads), Resources: len(s.Resources), Users: len(s.Users)}
	counts := map[string]int{}
	for id := range s.Resources {
		counts[id] = 0
	}
	for _, r := range s.Requests {
		counts[r.ResourceID]++
		switch r.Status {
		case models.RequestStatusPending:
			a.Pending++
		case models.RequestStatusApproved:
			a.Approved++
		case models.RequestStatusRejected:
			a.Rejected++
		}
	}

	downloads := map[string]int{}
	for _, d := range s.Downloads {
		downloads[d.ResourceID]++
		if _, ok := counts[d.ResourceID]; !ok {
			counts[d.ResourceID] = 0
		}
	}

	a.PerResource = make([]ResourceCount, 0, len(counts))
	for id, n := range counts {
		a.PerResource = append(a.PerResource, ResourceCount{
			ResourceID: id,
			Title:      s.Title(id),
			Requests:   n,
			Downloads:  downloads[id],
		})
	}
	sort.Slice(a.PerResource, func(i, j int) bool {
		x, y := a.PerResource[i], a.PerResource[j]
		if x.Requests != y.Requests {
			return x.Requests > y.Requests
		}
		if x.Title != y.Title {
			return x.Title < y.Title
		}
		return x.ResourceID < y.ResourceID
	})
	return a
}

// Logs lists activity entries newest first.
func Logs(s State) []models.ActivityLog {
	out := make([]models.ActivityLog, 0, len(s.Logs))
	for _, l := range s.Logs {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
