package validation

import (
	"strings"

	"resourcehub/internal/models"
)

// ResourceInput is the admin form for creating or editing a resource.
type ResourceInput struct {
	Title       string                `json:"title" validate:"required,max=200"`
	Description string                `json:"description" validate:"max=5000"`
	Type        models.ResourceType   `json:"type" validate:"required,oneof=pdf training course"`
	Content     string                `json:"content" validate:"required"`
	Status      models.ResourceStatus `json:"status" validate:"omitempty,oneof=available unavailable"`
}

// Normalize trims surrounding whitespace from the text fields.
func (in *ResourceInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Content = strings.TrimSpace(in.Content)
	in.Type = models.ResourceType(strings.ToLower(strings.TrimSpace(string(in.Type))))
}

// ValidateResource normalizes and checks in. Training and course content
// must be an http(s) link; pdf content is the encoded document itself.
func ValidateResource(in *ResourceInput) error {
	in.Normalize()
	if err := Struct(in); err != nil {
		return err
	}
	if in.Type == models.ResourceTypeTraining || in.Type == models.ResourceTypeCourse {
		if err := validate.Var(in.Content, "http_url"); err != nil {
			return models.NewValidationError("content must be a valid link")
		}
	}
	return nil
}
