// Package service implements the admin catalog operations.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"resourcehub/internal/middleware"
	"resourcehub/internal/models"
	"resourcehub/internal/observability"
	"resourcehub/internal/repository"
	"resourcehub/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// ResourceLookup resolves a resource from the current catalog.
type ResourceLookup func(id string) (models.Resource, bool)

type CatalogService struct {
	resources repository.ResourceRepository
	logs      repository.ActivityLogRepository
	lookup    ResourceLookup
	now       func() time.Time
}

func NewCatalogService(
	resources repository.ResourceRepository,
	logs repository.ActivityLogRepository,
	lookup ResourceLookup,
) *CatalogService {
	return &CatalogService{
		resources: resources,
		logs:      logs,
		lookup:    lookup,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the time source.
func (s *CatalogService) SetClock(now func() time.Time) { s.now = now }

func (s *CatalogService) existing(id string) (models.Resource, error) {
	res, ok := s.lookup(id)
	if !ok {
		return models.Resource{}, models.NewNotFoundError("Resource", id)
	}
	return res, nil
}

// audit records an admin action. The catalog write already happened, so a
// failure here is logged and not returned.
func (s *CatalogService) audit(ctx context.Context, actorID, message string) {
	if _, err := s.logs.Append(ctx, actorID, message); err != nil {
		observability.LogAsyncOperationError(ctx, "catalog.audit", err, map[string]interface{}{
			"actor_id": actorID,
			"message":  message,
		})
	}
}

// Create publishes a new resource. Status defaults to available.
func (s *CatalogService) Create(ctx context.Context, actorID string, in validation.ResourceInput) (res models.Resource, err error) {
	span, ctx := observability.StartSpan(ctx, "catalog.create", attribute.String("actor.id", actorID))
	defer span.Finish(&err)

	if err := validation.ValidateResource(&in); err != nil {
		return models.Resource{}, err
	}
	res = models.Resource{
		Title:       in.Title,
		Description: in.Description,
		Type:        in.Type,
		Content:     in.Content,
		Status:      in.Status,
		CreatedAt:   s.now().Format(time.RFC3339Nano),
	}
	if res.Status == "" {
		res.Status = models.ResourceStatusAvailable
	}
	if err := s.resources.Create(ctx, &res); err != nil {
		return models.Resource{}, err
	}

	middleware.Logger.InfoContext(ctx, "resource created",
		slog.String("resource_id", res.ID), slog.String("type", string(res.Type)))
	s.audit(ctx, actorID, fmt.Sprintf("Added resource %q", res.Title))
	return res, nil
}

// Update replaces the editable fields of a resource, keeping its id and
// creation time. A blank status keeps the current one.
func (s *CatalogService) Update(ctx context.Context, actorID, id string, in validation.ResourceInput) (res models.Resource, err error) {
	span, ctx := observability.StartSpan(ctx, "catalog.update",
		attribute.String("actor.id", actorID), attribute.String("resource.id", id))
	defer span.Finish(&err)

	current, err := s.existing(id)
	if err != nil {
		return models.Resource{}, err
	}
	if err := validation.ValidateResource(&in); err != nil {
		return models.Resource{}, err
	}

	res = current
	res.ID = id
	res.Title = in.Title
	res.Description = in.Description
	res.Type = in.Type
	res.Content = in.Content
	if in.Status != "" {
		res.Status = in.Status
	}
	if err := s.resources.Save(ctx, &res); err != nil {
		return models.Resource{}, err
	}

	s.audit(ctx, actorID, fmt.Sprintf("Updated resource %q", res.Title))
	return res, nil
}

// SetStatus publishes or unpublishes a resource. A blank status toggles it.
func (s *CatalogService) SetStatus(ctx context.Context, actorID, id string, status models.ResourceStatus) (res models.Resource, err error) {
	span, ctx := observability.StartSpan(ctx, "catalog.set_status",
		attribute.String("actor.id", actorID), attribute.String("resource.id", id))
	defer span.Finish(&err)

	res, err = s.existing(id)
	if err != nil {
		return models.Resource{}, err
	}
	switch status {
	case "":
		status = models.ResourceStatusUnavailable
		if !res.Available() {
			status = models.ResourceStatusAvailable
		}
	case models.ResourceStatusAvailable, models.ResourceStatusUnavailable:
	default:
		return models.Resource{}, models.NewValidationError(fmt.Sprintf("unknown status %q", status))
	}

	if err := s.resources.UpdateStatus(ctx, id, status); err != nil {
		return models.Resource{}, err
	}
	res.ID = id
	res.Status = status

	verb := "Published"
	if status == models.ResourceStatusUnavailable {
		verb = "Unpublished"
	}
	s.audit(ctx, actorID, fmt.Sprintf("%s resource %q", verb, res.DisplayTitle()))
	return res, nil
}

// Delete removes a resource. Requests and downloads that reference it are
// kept and fall back to the resource id as title.
func (s *CatalogService) Delete(ctx context.Context, actorID, id string) (err error) {
	span, ctx := observability.StartSpan(ctx, "catalog.delete",
		attribute.String("actor.id", actorID), attribute.String("resource.id", id))
	defer span.Finish(&err)

	res, err := s.existing(id)
	if err != nil {
		return err
	}
	if err := s.resources.Delete(ctx, id); err != nil {
		return err
	}
	s.audit(ctx, actorID, fmt.Sprintf("Deleted resource %q", res.DisplayTitle()))
	return nil
}
