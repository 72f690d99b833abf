package server

import (
	"errors"
	"fmt"
	"strings"

	"resourcehub/internal/models"
	"resourcehub/internal/views"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// currentUser returns the authenticated user id set by the auth middleware.
func currentUser(c *fiber.Ctx) string {
	uid, _ := c.Locals("userID").(string)
	return uid
}

// parseID extracts a non-blank route parameter. On failure it writes a 400
// JSON response and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (string, error) {
	id := strings.TrimSpace(c.Params(param))
	if id == "" || strings.Contains(id, "/") {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return "", errResponseWritten
	}
	return id, nil
}

// humanizeParam converts a route param name into a human-readable label.
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if prefix, ok := strings.CutSuffix(param, "Id"); ok {
		return strings.ToLower(prefix) + " ID"
	}
	return param
}

// parseViewQuery reads the filter and page query parameters shared by the view
// endpoints. page is 0 when absent, which keeps the session's stored page.
func parseViewQuery(c *fiber.Ctx) (views.Filter, int, error) {
	f := views.Filter{
		Search: strings.TrimSpace(c.Query("search")),
		Type:   models.ResourceType(strings.ToLower(strings.TrimSpace(c.Query("type")))),
	}
	page := c.QueryInt("page", 0)
	if page < 0 {
		return views.Filter{}, 0, models.NewValidationError(fmt.Sprintf("page must be positive, got %d", page))
	}
	return f, page, nil
}

// bindJSON parses the request body into dest, writing a 400 on malformed input.
func bindJSON(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}
