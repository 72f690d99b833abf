// Package models contains data structures for the application's domain models.
package models

import "strings"

// ResourceType identifies how a resource's content is delivered.
type ResourceType string

const (
	// ResourceTypePDF carries inline-encoded document bytes.
	ResourceTypePDF ResourceType = "pdf"
	// ResourceTypeTraining links to an external training.
	ResourceTypeTraining ResourceType = "training"
	// ResourceTypeCourse links to an external course.
	ResourceTypeCourse ResourceType = "course"
)

// Valid reports whether t is one of the known resource types.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourceTypePDF, ResourceTypeTraining, ResourceTypeCourse:
		return true
	}
	return false
}

// ResourceStatus is the coarse publish flag of a catalog entry.
type ResourceStatus string

const (
	// ResourceStatusAvailable marks a resource users can request.
	ResourceStatusAvailable ResourceStatus = "available"
	// ResourceStatusUnavailable hides a resource from the available list.
	ResourceStatusUnavailable ResourceStatus = "unavailable"
)

// Resource is a catalog entry published by an admin.
type Resource struct {
	ID          string         `json:"id,omitempty"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Type        ResourceType   `json:"type"`
	Content     string         `json:"content"`
	Status      ResourceStatus `json:"status"`
	CreatedAt   string         `json:"createdAt"`
}

// SetID assigns the store key to the entity.
func (r *Resource) SetID(id string) { r.ID = id }

// DisplayTitle returns the title, or "Untitled" for a blank one.
func (r Resource) DisplayTitle() string {
	if strings.TrimSpace(r.Title) == "" {
		return "Untitled"
	}
	return r.Title
}

// Available reports whether the resource is published.
func (r Resource) Available() bool {
	return r.Status == "" || r.Status == ResourceStatusAvailable
}
