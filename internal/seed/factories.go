// Package seed provides helpers to create demo data for the document
// store. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"time"

	"resourcehub/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

const samplePDF = "data:application/pdf;base64,JVBERi0xLjQKJcfsj6IKMSAwIG9iago8PD4+CmVuZG9iagp0cmFpbGVyCjw8Pj4KJSVFT0YK"

var rejectionReasons = []string{
	"Licence seats are used up for this quarter.",
	"Please complete the prerequisite training first.",
	"Restricted to the engineering department.",
	"Duplicate of a resource you already have.",
}

// Factory builds domain entities with realistic fake content.
type Factory struct {
	fake *gofakeit.Faker
	opts Options
	now  time.Time
}

// NewFactory creates a Factory. A zero Seed picks a time-based seed.
func NewFactory(opts Options) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{fake: gofakeit.New(seed), opts: opts, now: time.Now().UTC()}
}

func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	return f.fake.DateRange(f.now.AddDate(0, 0, -maxDays), f.now).UTC()
}

// Resource builds a catalog entry of a random type.
func (f *Factory) Resource() models.Resource {
	types := []models.ResourceType{models.ResourceTypePDF, models.ResourceTypeTraining, models.ResourceTypeCourse}
	t := types[f.fake.Number(0, len(types)-1)]

	res := models.Resource{
		Title:       fmt.Sprintf("%s %s", f.fake.BuzzWord(), f.fake.HackerNoun()),
		Description: f.fake.Sentence(12),
		Type:        t,
		Status:      models.ResourceStatusAvailable,
		CreatedAt:   f.pastTime().Format(time.RFC3339Nano),
	}
	switch t {
	case models.ResourceTypePDF:
		res.Content = samplePDF
	default:
		res.Content = f.fake.URL()
	}
	if f.fake.Number(1, 10) == 1 {
		res.Status = models.ResourceStatusUnavailable
	}
	return res
}

// User builds a regular user profile with a fresh id.
func (f *Factory) User() models.User {
	return models.User{
		ID:            f.fake.UUID(),
		Name:          f.fake.Name(),
		Email:         f.fake.Email(),
		EmailVerified: true,
		CreatedAt:     f.pastTime().Format(time.RFC3339Nano),
	}
}

// Request builds a request for the pair with a random status.
func (f *Factory) Request(userID, resourceID string) models.Request {
	statuses := []models.RequestStatus{models.RequestStatusPending, models.RequestStatusApproved, models.RequestStatusRejected}
	r := models.Request{
		UserID:     userID,
		ResourceID: resourceID,
		Status:     statuses[f.fake.Number(0, len(statuses)-1)],
		Timestamp:  f.pastTime(),
	}
	if r.Status == models.RequestStatusRejected {
		r.RejectionReason = f.fake.RandomString(rejectionReasons)
	}
	return r
}

// Download builds the record of userID accessing res after approval.
func (f *Factory) Download(userID string, res models.Resource, approvedAt time.Time) models.Download {
	at := approvedAt.Add(time.Duration(f.fake.Number(1, 72)) * time.Hour)
	if at.After(f.now) {
		at = f.now
	}
	return models.Download{
		UserID:       userID,
		ResourceID:   res.ID,
		Title:        res.DisplayTitle(),
		Type:         res.Type,
		Content:      res.Content,
		DownloadedAt: at,
	}
}

// Chance reports true with probability pct/100.
func (f *Factory) Chance(pct int) bool {
	return f.fake.Number(1, 100) <= pct
}

// Pick returns a random index below n.
func (f *Factory) Pick(n int) int {
	return f.fake.Number(0, n-1)
}
