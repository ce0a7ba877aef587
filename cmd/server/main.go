// Command server is the entry point for the hackathon platform API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/romeirofernandes/vhack-sub000/internal/config"
	"github.com/romeirofernandes/vhack-sub000/internal/observability"
	"github.com/romeirofernandes/vhack-sub000/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "vhack-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.Env == "production",
		Exporter:       "stdout",
		SamplerRatio:   0.1,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Sync the achievement catalog before serving traffic so rule
	// evaluation never sees a stale catalog.
	catalogCtx, catalogCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := srv.LoadAchievementCatalog(catalogCtx, cfg.AchievementsFile); err != nil {
		log.Printf("WARNING: achievement catalog not loaded: %v", err)
	}
	catalogCancel()

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server resource shutdown error: %v", err)
		}
		if err := shutdownTracing(ctx); err != nil {
			log.Printf("Tracing shutdown error: %v", err)
		}
	}()

	log.Fatal(srv.Start())
}
