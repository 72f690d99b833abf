package seed

import (
	"context"
	"fmt"

	"resourcehub/internal/models"
	"resourcehub/internal/repository"
)

// BuiltInResource is a permanent starter catalog entry.
type BuiltInResource struct {
	Slug        string              `yaml:"slug"`
	Title       string              `yaml:"title"`
	Description string              `yaml:"description"`
	Type        models.ResourceType `yaml:"type"`
	Content     string              `yaml:"content"`
}

// BuiltInResources defines the starter catalog.
var BuiltInResources = []BuiltInResource{
	{Slug: "onboarding", Title: "Onboarding Handbook", Description: "Everything a new member needs in week one.", Type: models.ResourceTypePDF, Content: "data:application/pdf;base64,JVBERi0xLjQKJcfsj6IKMSAwIG9iago8PD4+CmVuZG9iagp0cmFpbGVyCjw8Pj4KJSVFT0YK"},
	{Slug: "security-basics", Title: "Security Basics Training", Description: "Phishing, passwords and safe browsing.", Type: models.ResourceTypeTraining, Content: "https://training.example.com/security-basics"},
	{Slug: "go-course", Title: "Go Programming Course", Description: "From syntax to concurrency patterns.", Type: models.ResourceTypeCourse, Content: "https://courses.example.com/go"},
	{Slug: "style-guide", Title: "Writing Style Guide", Description: "House style for docs and announcements.", Type: models.ResourceTypePDF, Content: "data:application/pdf;base64,JVBERi0xLjQKJcfsj6IKMSAwIG9iago8PD4+CmVuZG9iagp0cmFpbGVyCjw8Pj4KJSVFT0YK"},
}

// BuiltInID is the deterministic resource id of a built-in entry.
func BuiltInID(slug string) string {
	return "builtin-" + slug
}

// BuiltIns upserts the starter catalog under deterministic ids, so running
// it again refreshes the entries instead of duplicating them.
func BuiltIns(ctx context.Context, repo repository.ResourceRepository, entries []BuiltInResource) error {
	for i, item := range entries {
		res := &models.Resource{
			ID:          BuiltInID(item.Slug),
			Title:       item.Title,
			Description: item.Description,
			Type:        item.Type,
			Content:     item.Content,
			Status:      models.ResourceStatusAvailable,
			CreatedAt:   fmt.Sprintf("2024-01-01T00:00:%02dZ", i),
		}
		if err := repo.Save(ctx, res); err != nil {
			return fmt.Errorf("seed built-in resource %s: %w", item.Slug, err)
		}
	}
	return nil
}
