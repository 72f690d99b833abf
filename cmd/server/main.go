// Command main is the entry point for the Resource Hub backend server.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resourcehub/internal/bootstrap"
	"resourcehub/internal/config"
	"resourcehub/internal/engine"
	"resourcehub/internal/middleware"
	"resourcehub/internal/observability"
	"resourcehub/internal/recommend"
	"resourcehub/internal/scheduler"
	"resourcehub/internal/server"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.InitMiddleware(cfg)
	observability.SetLogger(middleware.Logger)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "resourcehub-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampler,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{SeedBuiltIns: true})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	e := engine.New(rt.Store, recommend.KeywordTypeScorer{})
	e.Start(ctx)
	if !e.WaitLoaded(ctx, cfg.LoadTimeout()) {
		log.Printf("Initial load did not finish within %s; serving partial state", cfg.LoadTimeout())
	}

	srv := server.NewServer(cfg, e, rt.Redis)

	jobs, err := scheduler.New(srv.Sessions(), e)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}
	jobs.Start()
	middleware.Logger.Info("scheduler started", slog.Int("jobs", jobs.Jobs()))

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		<-jobs.Stop().Done()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server resource shutdown error: %v", err)
		}
		rt.Redis = nil // closed by the server
		rt.Close()
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("Tracing shutdown error: %v", err)
		}
	}()

	if err := srv.Start(); err != nil {
		log.Fatal(err)
	}
}
