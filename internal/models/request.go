package models

import "time"

// RequestStatus defines the stored lifecycle states of an access request.
type RequestStatus string

const (
	// RequestStatusPending indicates the request is awaiting review.
	RequestStatusPending RequestStatus = "pending"
	// RequestStatusApproved indicates the request was accepted.
	RequestStatusApproved RequestStatus = "approved"
	// RequestStatusRejected indicates the request was denied.
	RequestStatusRejected RequestStatus = "rejected"
)

// DerivedStatus extends RequestStatus with states computed from other collections.
type DerivedStatus string

const (
	DerivedPending    DerivedStatus = "pending"
	DerivedApproved   DerivedStatus = "approved"
	DerivedRejected   DerivedStatus = "rejected"
	DerivedDownloaded DerivedStatus = "downloaded"
)

// Request is a user's access request for one resource.
type Request struct {
	ID              string        `json:"id,omitempty"`
	UserID          string        `json:"userId"`
	ResourceID      string        `json:"resourceId"`
	Status          RequestStatus `json:"status"`
	Timestamp       time.Time     `json:"timestamp"`
	RejectionReason string        `json:"rejectionReason,omitempty"`
}

// SetID assigns the store key to the entity.
func (r *Request) SetID(id string) { r.ID = id }

// Pair returns the (user, resource) key of the request.
func (r Request) Pair() PairKey {
	return PairKey{UserID: r.UserID, ResourceID: r.ResourceID}
}

// Open reports whether the request still blocks a new request for the same pair.
func (r Request) Open() bool {
	return r.Status == RequestStatusPending || r.Status == ""
}

// PairKey identifies a (user, resource) combination.
type PairKey struct {
	UserID     string
	ResourceID string
}

// String renders the key in the form used for download document keys.
func (k PairKey) String() string {
	return k.UserID + ":" + k.ResourceID
}

// DeriveStatus joins a request with download presence. Approved requests
// whose pair has a download report DerivedDownloaded.
func DeriveStatus(r Request, downloaded bool) DerivedStatus {
	switch r.Status {
	case RequestStatusApproved:
		if downloaded {
			return DerivedDownloaded
		}
		return DerivedApproved
	case RequestStatusRejected:
		return DerivedRejected
	default:
		return DerivedPending
	}
}
