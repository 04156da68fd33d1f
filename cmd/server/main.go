package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/adapters/http"
	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/app"
	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/auth"
	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/config"
	"github.com/Kevinxyk/Negotiating-Platform-for-Youth-Diplomacy/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	var st store.Store
	switch cfg.DBDriver {
	case "sqlite":
		st, err = store.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open sqlite store")
		}
		log.Info().Str("path", cfg.DBPath).Msg("sqlite store opened")
	default:
		st = store.NewMemoryStore()
		log.Info().Msg("using in-memory store")
	}
	defer st.Close()

	users := auth.NewUserStore()
	resolver := auth.NewJWTResolver(cfg.Secret, cfg.TokenTTL)

	coord := app.NewCoordinator(app.Options{
		Store:           st,
		Resolver:        resolver,
		HistoryLimit:    cfg.HistoryLimit,
		DefaultTimerSec: cfg.DefaultTimerSec,
	})

	r := router.SetupRouter(ctx, cfg, coord, users, resolver)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Negotiation server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	coord.Shutdown()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
