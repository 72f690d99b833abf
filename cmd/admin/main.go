// Package main provides admin management utilities for Resource Hub.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"resourcehub/internal/bootstrap"
	"resourcehub/internal/config"
	"resourcehub/internal/middleware"
	"resourcehub/internal/models"
	"resourcehub/internal/repository"
	"resourcehub/internal/validation"
)

const readTimeout = 10 * time.Second

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin promote <uid>              - Grant the admin role")
	fmt.Println("  go run ./cmd/admin demote <uid>               - Revoke the admin role")
	fmt.Println("  go run ./cmd/admin create <uid> <email> [name] - Create an admin profile")
	fmt.Println("  go run ./cmd/admin requests <uid>             - List a user's access requests")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 3 {
		usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	middleware.InitMiddleware(cfg)

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer rt.Close()

	users := repository.NewUserRepository(rt.Store)
	uid := strings.TrimSpace(os.Args[2])

	switch os.Args[1] {
	case "promote":
		setRole(ctx, users, uid, models.RoleAdmin)
	case "demote":
		setRole(ctx, users, uid, "")
	case "create":
		if len(os.Args) < 4 {
			usage()
		}
		createAdmin(ctx, users, uid, os.Args[3], strings.Join(os.Args[4:], " "))
	case "requests":
		listRequests(ctx, repository.NewRequestRepository(rt.Store), uid)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
	}
}

func setRole(ctx context.Context, users repository.UserRepository, uid, role string) {
	if err := users.SetRole(ctx, uid, role); err != nil {
		if models.HasCode(err, models.CodeWriteFailure) {
			fmt.Printf("User %s not found\n", uid)
			os.Exit(1)
		}
		log.Fatalf("Failed to update role: %v", err)
	}
	if role == models.RoleAdmin {
		fmt.Printf("User %s is now an admin\n", uid)
		return
	}
	fmt.Printf("User %s is no longer an admin\n", uid)
}

func createAdmin(ctx context.Context, users repository.UserRepository, uid, email, name string) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validation.ValidateEmail(email); err != nil {
		log.Fatalf("Invalid email: %v", err)
	}
	if name == "" {
		name = strings.Split(email, "@")[0]
	}
	u := &models.User{ID: uid, Name: name, Email: email, Role: models.RoleAdmin, EmailVerified: true}
	if err := users.Save(ctx, u); err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}
	fmt.Printf("Created admin %s (%s)\n", uid, email)
}

func listRequests(ctx context.Context, requests repository.RequestRepository, uid string) {
	ctx, cancel := context.WithTimeout(ctx, readTimeout)
	defer cancel()
	reqs, err := requests.ForUser(ctx, uid)
	if err != nil {
		log.Fatalf("Failed to read requests: %v", err)
	}
	if len(reqs) == 0 {
		fmt.Printf("User %s has no requests\n", uid)
		return
	}
	for _, r := range reqs {
		line := fmt.Sprintf("%s  %-9s  %s  %s", r.Timestamp.Format(time.RFC3339), r.Status, r.ResourceID, r.ID)
		if r.RejectionReason != "" {
			line += "  (" + r.RejectionReason + ")"
		}
		fmt.Println(line)
	}
}
