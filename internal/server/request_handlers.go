package server

import (
	"resourcehub/internal/models"

	"github.com/gofiber/fiber/v2"
)

type createRequestBody struct {
	ResourceID string `json:"resourceId"`
}

type rejectBody struct {
	Reason string `json:"reason"`
}

// CreateRequest handles POST /api/requests
func (s *Server) CreateRequest(c *fiber.Ctx) error {
	var body createRequestBody
	if err := bindJSON(c, &body); err != nil {
		return nil
	}

	req, err := s.engine.Lifecycle().Create(c.UserContext(), currentUser(c), body.ResourceID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(req)
}

// CancelRequest handles DELETE /api/requests/:id
func (s *Server) CancelRequest(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.engine.Lifecycle().Cancel(c.UserContext(), currentUser(c), id); err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// DownloadResource handles POST /api/resources/:id/download
func (s *Server) DownloadResource(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	d, err := s.engine.Lifecycle().Download(c.UserContext(), currentUser(c), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(d)
}

// ApproveRequest handles POST /api/admin/requests/:id/approve
func (s *Server) ApproveRequest(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	req, err := s.engine.Lifecycle().Approve(c.UserContext(), id)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(req)
}

// RejectRequest handles POST /api/admin/requests/:id/reject
func (s *Server) RejectRequest(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var body rejectBody
	if err := bindJSON(c, &body); err != nil {
		return nil
	}

	req, err := s.engine.Lifecycle().Reject(c.UserContext(), id, body.Reason)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(req)
}
