package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agri-route-service/internal/api"
	"agri-route-service/internal/app"
	"agri-route-service/internal/config"
)

// main is the application composition root.
// It wires concrete adapters (SQLite/Postgres, geocoders, Directions) behind ports and starts the HTTP server.
func main() {
	config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Close()

	// Seed demo orders on startup for local runs.
	if cfg.DatabaseURL == "" {
		if _, err := os.Stat(cfg.SeedPath); err == nil {
			if err := a.SeedOrders(ctx, cfg.SeedPath); err != nil {
				log.Fatal(err)
			}
		} else {
			log.Printf("seed file not found path=%s (skipping)", cfg.SeedPath)
		}
	}

	router := api.NewRouter(api.RouterDeps{
		Orders:    a.Orders,
		Overrides: a.Overrides,
		Planner:   a.Planner,
		Depot:     a.Depot,
	})

	// Write timeout is sized for cold-cache plans paced against the open geocoder.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown: %v", err)
		}
	}()

	log.Printf("Server listening addr=:%s", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
