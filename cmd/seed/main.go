// Command main seeds the document store with fake users, resources and requests.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"resourcehub/internal/bootstrap"
	"resourcehub/internal/config"
	"resourcehub/internal/middleware"
	"resourcehub/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numResources := flag.Int("resources", 30, "Number of resources to create")
	numRequests := flag.Int("requests", 80, "Number of access requests to create")
	maxDays := flag.Int("days", 60, "Spread timestamps over this many past days")
	seedValue := flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible data")
	fixtures := flag.String("fixtures", "", "YAML fixture file applied before random data")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing it")
	flag.Parse()

	log.Println("Resource Hub seeder")
	log.Printf("Target: %d users, %d resources, %d requests (seed %d, dry-run=%v)\n",
		*numUsers, *numResources, *numRequests, *seedValue, *dryRun)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.InitMiddleware(cfg)

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{
		SeedBuiltIns: !*dryRun,
		FixturesPath: *fixtures,
	})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}
	defer rt.Close()

	sum, err := seed.Run(ctx, rt.Store, seed.Options{
		NumUsers:     *numUsers,
		NumResources: *numResources,
		NumRequests:  *numRequests,
		MaxDays:      *maxDays,
		Seed:         *seedValue,
		DryRun:       *dryRun,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Done: %d users, %d resources, %d requests, %d downloads\n",
		sum.Users, sum.Resources, sum.Requests, sum.Downloads)
}
