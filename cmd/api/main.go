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

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/igoramos77/uvents-api/internal/app"
	"github.com/igoramos77/uvents-api/internal/auth"
	"github.com/igoramos77/uvents-api/internal/clock"
	"github.com/igoramos77/uvents-api/internal/config"
	"github.com/igoramos77/uvents-api/internal/metrics"
	"github.com/igoramos77/uvents-api/internal/storage/postgres"
	transporthttp "github.com/igoramos77/uvents-api/internal/transport/http"
	"github.com/igoramos77/uvents-api/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := log.Default()
	config.LoadDotEnv(logger)
	cfg := config.FromEnv(logger)

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect to db: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		log.Fatalf("db ping: %v", err)
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	clk := clock.NewSystem()
	m := metrics.New()
	tokens := auth.NewTokenService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.TokenTTL)

	userRepo := postgres.NewUserRepository(pool)
	eventRepo := postgres.NewEventRepository(pool)
	presenceRepo := postgres.NewPresenceRepository(pool)

	eventSvc := app.NewEventService(eventRepo, clk)
	presenceSvc := app.NewPresenceService(presenceRepo, eventRepo, clk, m)
	userSvc := app.NewUserService(userRepo, presenceRepo, tokens, clk)

	router := transporthttp.NewRouter(transporthttp.Services{
		Presence: presenceSvc,
		Events:   eventSvc,
		Users:    userSvc,
	}, tokens, cfg.CORSOrigins, logger)

	server := &http.Server{
		Addr:    cfg.Addr,
		Handler: router,
	}

	log.Printf("api listening on %s", cfg.Addr)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server error: %v", err)
		}
	case <-stopCtx.Done():
		log.Printf("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server shutdown error: %v", err)
	}
	log.Printf("server stopped")
}
