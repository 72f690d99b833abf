package models

import "time"

// Download records the first successful access of a resource by a user.
type Download struct {
	UserID       string       `json:"userId"`
	ResourceID   string       `json:"resourceId"`
	Title        string       `json:"title"`
	Type         ResourceType `json:"type"`
	Content      string       `json:"content,omitempty"`
	DownloadedAt time.Time    `json:"downloadedAt"`
}

// SetID is a no-op; downloads are keyed by their (user, resource) pair.
func (d *Download) SetID(string) {}

// Pair returns the (user, resource) key of the download.
func (d Download) Pair() PairKey {
	return PairKey{UserID: d.UserID, ResourceID: d.ResourceID}
}
