package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Simplici0/crewpay/internal/backend"
	"github.com/Simplici0/crewpay/internal/config"
	"github.com/Simplici0/crewpay/internal/logger"
	"github.com/Simplici0/crewpay/internal/profile"
	"github.com/Simplici0/crewpay/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.SetLevel(cfg.LogLevel)
	if cfg.LogFormat == "json" || (cfg.LogFormat == "" && !cfg.IsDev()) {
		logger.SetJSON()
	}

	ctx := context.Background()
	store, err := backend.Open(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("Failed to open profile store")
	}
	defer store.Close()

	stats, err := seed.Run(ctx, store.Store, seed.Config{ProfileName: cfg.SeedProfileName})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to seed profiles")
	}
	if stats.Inserts > 0 {
		logger.Log.Info().Str("profile_id", stats.ProfileID).Msg("Seeded default profile")
	}

	srv := &server{profiles: profile.NewService(store.Store)}
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Log.Info().Str("addr", httpServer.Addr).Str("env", cfg.Env).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal().Err(err).Msg("Server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Shutdown error")
	}
	logger.Log.Info().Msg("Server stopped")
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleHome)
	r.Get("/healthz", s.handleHealthz)
	r.Post("/profiles", s.handleProfileCreate)
	r.Post("/profiles/{id}", s.handleProfileUpdate)
	r.Post("/profiles/{id}/delete", s.handleProfileDelete)
	r.Get("/profiles/{id}/text", s.handleProfileText)
	r.Get("/profiles/{id}/chart.png", s.handleProfileChart)

	r.Route("/api", func(r chi.Router) {
		r.Get("/profiles", s.handleAPIProfilesList)
		r.Get("/profiles/{id}", s.handleAPIProfileGet)
		r.Put("/profiles/{id}/config", s.handleAPIConfigUpdate)
		r.Get("/profiles/{id}/breakdown", s.handleAPIBreakdown)
		r.Post("/calculate", s.handleAPICalculate)
	})

	return r
}
