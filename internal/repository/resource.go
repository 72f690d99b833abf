// Package repository implements typed access to the document collections.
package repository

import (
	"context"

	"resourcehub/internal/models"
	"resourcehub/internal/store"
)

const ResourcesPath = "resources"

// ResourceRepository defines write operations on the resource catalog.
// Reads go through the resources mirror.
type ResourceRepository interface {
	Create(ctx context.Context, res *models.Resource) error
	Save(ctx context.Context, res *models.Resource) error
	UpdateStatus(ctx context.Context, id string, status models.ResourceStatus) error
	Delete(ctx context.Context, id string) error
}

type resourceRepository struct {
	store store.Store
}

// NewResourceRepository returns a ResourceRepository backed by s.
func NewResourceRepository(s store.Store) ResourceRepository {
	return &resourceRepository{store: s}
}

// Create stores res under a generated key and assigns it to res.ID.
func (r *resourceRepository) Create(ctx context.Context, res *models.Resource) error {
	doc := *res
	doc.ID = ""
	id, err := r.store.Create(ctx, ResourcesPath, doc)
	if err != nil {
		return err
	}
	res.ID = id
	return nil
}

func (r *resourceRepository) Save(ctx context.Context, res *models.Resource) error {
	doc := *res
	doc.ID = ""
	return r.store.Set(ctx, store.Join(ResourcesPath, res.ID), doc)
}

func (r *resourceRepository) UpdateStatus(ctx context.Context, id string, status models.ResourceStatus) error {
	return r.store.Update(ctx, store.Join(ResourcesPath, id), map[string]any{"status": status})
}

func (r *resourceRepository) Delete(ctx context.Context, id string) error {
	return r.store.Remove(ctx, store.Join(ResourcesPath, id))
}
