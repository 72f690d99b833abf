package seed

import (
	"fmt"
	"io"
	"os"

	"resourcehub/internal/models"
	"resourcehub/internal/validation"

	"gopkg.in/yaml.v3"
)

// FixtureUser is a profile declared in a fixture file.
type FixtureUser struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Role  string `yaml:"role"`
}

// Fixtures is the YAML layout accepted by LoadFixtures.
type Fixtures struct {
	Resources []BuiltInResource `yaml:"resources"`
	Users     []FixtureUser     `yaml:"users"`
}

// LoadFixtures decodes and validates fixtures from r.
func LoadFixtures(r io.Reader) (*Fixtures, error) {
	var f Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	seen := map[string]bool{}
	for i, res := range f.Resources {
		if res.Slug == "" {
			return nil, fmt.Errorf("resource %d: slug is required", i)
		}
		if seen[res.Slug] {
			return nil, fmt.Errorf("resource %d: duplicate slug %q", i, res.Slug)
		}
		seen[res.Slug] = true
		in := validation.ResourceInput{Title: res.Title, Description: res.Description, Type: res.Type, Content: res.Content}
		if err := validation.ValidateResource(&in); err != nil {
			return nil, fmt.Errorf("resource %q: %w", res.Slug, err)
		}
		f.Resources[i].Type = in.Type
	}
	for i, u := range f.Users {
		if u.ID == "" {
			return nil, fmt.Errorf("user %d: id is required", i)
		}
		if u.Email != "" {
			if err := validation.ValidateEmail(u.Email); err != nil {
				return nil, fmt.Errorf("user %q: %w", u.ID, err)
			}
		}
		if u.Role != "" && u.Role != models.RoleAdmin {
			return nil, fmt.Errorf("user %q: unknown role %q", u.ID, u.Role)
		}
	}
	return &f, nil
}

// LoadFixturesFile reads fixtures from path.
func LoadFixturesFile(path string) (*Fixtures, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()
	return LoadFixtures(fh)
}
