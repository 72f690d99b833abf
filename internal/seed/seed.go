package seed

import (
	"context"
	"fmt"
	"log/slog"

	"resourcehub/internal/lifecycle"
	"resourcehub/internal/middleware"
	"resourcehub/internal/models"
	"resourcehub/internal/repository"
	"resourcehub/internal/store"
)

// Options configure the seeder.
type Options struct {
	NumUsers     int
	NumResources int
	NumRequests  int
	MaxDays      int
	Seed         int64
	// DryRun builds everything without writing.
	DryRun bool
}

// Summary counts what a run wrote.
type Summary struct {
	Users     int
	Resources int
	Requests  int
	Downloads int
}

// Run populates s with fake users, resources, requests and downloads. Each
// (user, resource) pair gets at most one request, and downloads only follow
// approved requests.
func Run(ctx context.Context, s store.Store, opts Options) (Summary, error) {
	f := NewFactory(opts)
	var sum Summary
	middleware.Logger.Info("seeding started",
		slog.Int("users", opts.NumUsers), slog.Int("resources", opts.NumResources), slog.Int("requests", opts.NumRequests))

	users := make([]models.User, 0, opts.NumUsers)
	userRepo := repository.NewUserRepository(s)
	for i := 0; i < opts.NumUsers; i++ {
		u := f.User()
		if !opts.DryRun {
			if err := userRepo.Save(ctx, &u); err != nil {
				return sum, fmt.Errorf("seed user: %w", err)
			}
		}
		users = append(users, u)
		sum.Users++
	}

	resources := make([]models.Resource, 0, opts.NumResources)
	resRepo := repository.NewResourceRepository(s)
	for i := 0; i < opts.NumResources; i++ {
		res := f.Resource()
		if opts.DryRun {
			res.ID = fmt.Sprintf("dry-%d", i)
		} else if err := resRepo.Create(ctx, &res); err != nil {
			return sum, fmt.Errorf("seed resource: %w", err)
		}
		resources = append(resources, res)
		sum.Resources++
	}

	if len(users) == 0 || len(resources) == 0 {
		return sum, nil
	}

	used := map[models.PairKey]bool{}
	maxPairs := len(users) * len(resources)
	for i := 0; i < opts.NumRequests && len(used) < maxPairs; i++ {
		var pair models.PairKey
		for {
			pair = models.PairKey{
				UserID:     users[f.Pick(len(users))].ID,
				ResourceID: resources[f.Pick(len(resources))].ID,
			}
			if !used[pair] {
				break
			}
		}
		used[pair] = true

		req := f.Request(pair.UserID, pair.ResourceID)
		if !opts.DryRun {
			if _, err := s.Create(ctx, lifecycle.RequestsPath, req); err != nil {
				return sum, fmt.Errorf("seed request: %w", err)
			}
		}
		sum.Requests++

		if req.Status != models.RequestStatusApproved || !f.Chance(50) {
			continue
		}
		var res models.Resource
		for _, r := range resources {
			if r.ID == pair.ResourceID {
				res = r
				break
			}
		}
		d := f.Download(pair.UserID, res, req.Timestamp)
		if !opts.DryRun {
			if err := s.Set(ctx, lifecycle.DownloadPath(pair), d); err != nil {
				return sum, fmt.Errorf("seed download: %w", err)
			}
			if err := s.Set(ctx, store.Join(lifecycle.DownloadsPath, pair.String()), d); err != nil {
				return sum, fmt.Errorf("seed download: %w", err)
			}
		}
		sum.Downloads++
	}

	middleware.Logger.Info("seeding completed",
		slog.Int("users", sum.Users), slog.Int("resources", sum.Resources),
		slog.Int("requests", sum.Requests), slog.Int("downloads", sum.Downloads))
	return sum, nil
}

// ApplyFixtures writes fixture resources and users to s.
func ApplyFixtures(ctx context.Context, s store.Store, f *Fixtures) error {
	if err := BuiltIns(ctx, repository.NewResourceRepository(s), f.Resources); err != nil {
		return err
	}
	users := repository.NewUserRepository(s)
	for _, fu := range f.Users {
		u := models.User{ID: fu.ID, Name: fu.Name, Email: fu.Email, Role: fu.Role, EmailVerified: true}
		if err := users.Save(ctx, &u); err != nil {
			return fmt.Errorf("seed fixture user %s: %w", fu.ID, err)
		}
	}
	return nil
}
