package server

import (
	"context"
	"time"

	"resourcehub/internal/featureflags"
	"resourcehub/internal/models"
	"resourcehub/internal/recommend"
	"resourcehub/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type statusBody struct {
	Status models.ResourceStatus `json:"status"`
}

// CreateResource handles POST /api/admin/resources
func (s *Server) CreateResource(c *fiber.Ctx) error {
	var in validation.ResourceInput
	if err := bindJSON(c, &in); err != nil {
		return nil
	}

	res, err := s.catalog.Create(c.UserContext(), currentUser(c), in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// UpdateResource handles PUT /api/admin/resources/:id
func (s *Server) UpdateResource(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var in validation.ResourceInput
	if err := bindJSON(c, &in); err != nil {
		return nil
	}

	res, err := s.catalog.Update(c.UserContext(), currentUser(c), id, in)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(res)
}

// SetResourceStatus handles PATCH /api/admin/resources/:id/status.
// An empty body toggles between available and unavailable.
func (s *Server) SetResourceStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var body statusBody
	if len(c.Body()) > 0 {
		if err := bindJSON(c, &body); err != nil {
			return nil
		}
	}

	res, err := s.catalog.SetStatus(c.UserContext(), currentUser(c), id, body.Status)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(res)
}

// DeleteResource handles DELETE /api/admin/resources/:id
func (s *Server) DeleteResource(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.catalog.Delete(c.UserContext(), currentUser(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetSuggestions handles GET /api/admin/suggestions?q=...&fresh=true
func (s *Server) GetSuggestions(c *fiber.Ctx) error {
	if s.lookup == nil || !s.featureFlags.Enabled(featureflags.Suggestions, currentUser(c)) {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Suggestions are not enabled",
		})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), 15*time.Second)
	defer cancel()

	if c.QueryBool("fresh") {
		s.lookup.Forget(ctx, c.Query("q"))
	}
	items, err := s.lookup.Suggest(ctx, c.Query("q"))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if items == nil {
		items = []recommend.Suggestion{}
	}
	return c.JSON(fiber.Map{"suggestions": items})
}
