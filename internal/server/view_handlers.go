package server

import (
	"fmt"
	"slices"

	"resourcehub/internal/featureflags"
	"resourcehub/internal/models"
	"resourcehub/internal/views"

	"github.com/gofiber/fiber/v2"
)

// GetMyView handles GET /api/me/views/:view
func (s *Server) GetMyView(c *fiber.Ctx) error {
	return s.renderView(c, views.UserViews)
}

// GetAdminView handles GET /api/admin/views/:view
func (s *Server) GetAdminView(c *fiber.Ctx) error {
	return s.renderView(c, views.AdminViews)
}

func (s *Server) renderView(c *fiber.Ctx, allowed []string) error {
	view := c.Params("view")
	if !slices.Contains(allowed, view) {
		return models.RespondWithAppError(c, models.NewValidationError(fmt.Sprintf("unknown view %q", view)))
	}
	f, page, err := parseViewQuery(c)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	p, err := s.sessions.Render(c.UserContext(), currentUser(c), view, f, page)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(p)
}

// GetRecommendations handles GET /api/me/recommendations
func (s *Server) GetRecommendations(c *fiber.Ctx) error {
	userID := currentUser(c)
	if !s.featureFlags.Enabled(featureflags.Recommendations, userID) {
		return c.JSON(fiber.Map{"resources": []models.Resource{}})
	}
	return c.JSON(fiber.Map{"resources": s.engine.Recommend(userID)})
}

// GetAnalytics handles GET /api/admin/analytics
func (s *Server) GetAnalytics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"analytics": views.ComputeAnalytics(s.engine.State()),
		"loading":   s.engine.Loading(),
		"banners":   s.engine.Banners(),
	})
}

// GetFeatures reports the feature flags as evaluated for the caller.
func (s *Server) GetFeatures(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"features": s.featureFlags.Snapshot(currentUser(c))})
}
