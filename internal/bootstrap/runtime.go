// Package bootstrap assembles the document store and Redis client shared by the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"resourcehub/internal/cache"
	"resourcehub/internal/config"
	"resourcehub/internal/database"
	"resourcehub/internal/middleware"
	"resourcehub/internal/models"
	"resourcehub/internal/repository"
	"resourcehub/internal/seed"
	"resourcehub/internal/store"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedBuiltIns bool
	// FixturesPath, when set, is a YAML fixture file applied after seeding.
	FixturesPath string
}

// Runtime is the set of backing services a command runs against.
type Runtime struct {
	Store store.Store
	DB    *gorm.DB
	Redis *redis.Client
}

// Close releases the database and Redis connections.
func (r *Runtime) Close() {
	if r.DB != nil {
		if sqlDB, err := r.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if r.Redis != nil {
		_ = r.Redis.Close()
	}
}

// InitRuntime connects Redis and the configured store, then optionally seeds it.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	// Init Redis (may result in nil client if unreachable)
	rt := &Runtime{Redis: cache.InitRedis(cfg.RedisURL)}

	switch cfg.StoreDriver {
	case "memory":
		rt.Store = store.NewMemory()
	default:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, fmt.Errorf("database connection failed: %w", err)
		}
		rt.DB = db

		var bus store.Bus = store.NewLocalBus()
		if rt.Redis != nil {
			bus = store.NewRedisBus(rt.Redis)
		}
		rt.Store = store.NewDocumentStore(db, bus)
	}

	if err := ensureDevRootAdmin(ctx, cfg, rt.Store); err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to bootstrap development root admin: %w", err)
	}

	if opts.SeedBuiltIns {
		if err := seed.BuiltIns(ctx, repository.NewResourceRepository(rt.Store), seed.BuiltInResources); err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to seed built-in resources: %w", err)
		}
	}

	if opts.FixturesPath != "" {
		f, err := seed.LoadFixturesFile(opts.FixturesPath)
		if err != nil {
			rt.Close()
			return nil, err
		}
		if err := seed.ApplyFixtures(ctx, rt.Store, f); err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to apply fixtures: %w", err)
		}
	}

	return rt, nil
}

// ensureDevRootAdmin grants the admin role to DEV_ROOT_USER_ID in development,
// creating the profile when it does not exist yet.
func ensureDevRootAdmin(ctx context.Context, cfg *config.Config, s store.Store) error {
	if cfg == nil || s == nil {
		return nil
	}
	uid := strings.TrimSpace(cfg.DevRootUserID)
	if !strings.EqualFold(cfg.Env, "development") || uid == "" {
		return nil
	}

	users := repository.NewUserRepository(s)
	err := users.SetRole(ctx, uid, models.RoleAdmin)
	if models.HasCode(err, models.CodeWriteFailure) {
		email := strings.TrimSpace(strings.ToLower(cfg.DevRootEmail))
		if email == "" {
			email = "root@resourcehub.local"
		}
		err = users.Save(ctx, &models.User{ID: uid, Name: "Root", Email: email, Role: models.RoleAdmin, EmailVerified: true})
	}
	if err != nil {
		return err
	}

	middleware.Logger.Info("development root admin ensured", slog.String("user_id", uid))
	return nil
}
