package server

import (
	"resourcehub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	session := s.sessions.Session(c.UserContext(), currentUser(c))
	return c.JSON(fiber.Map{
		"notifications": session.Notifications(),
		"unread":        session.Unread(),
		"panelOpen":     session.PanelOpen(),
	})
}

// TogglePanel handles POST /api/notifications/panel
func (s *Server) TogglePanel(c *fiber.Ctx) error {
	session := s.sessions.Session(c.UserContext(), currentUser(c))
	open := session.TogglePanel()
	return c.JSON(fiber.Map{
		"panelOpen": open,
		"unread":    session.Unread(),
	})
}

// DismissNotification handles DELETE /api/notifications/:id
func (s *Server) DismissNotification(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	session := s.sessions.Session(c.UserContext(), currentUser(c))
	if err := session.Dismiss(id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
