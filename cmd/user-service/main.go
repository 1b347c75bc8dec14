package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/project-hub/internal/config"
	"github.com/vasiliy-maslov/project-hub/internal/db"
	userHttp "github.com/vasiliy-maslov/project-hub/internal/handler/http"
	"github.com/vasiliy-maslov/project-hub/internal/logger"
	"github.com/vasiliy-maslov/project-hub/internal/user"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	logger.Setup(cfg.App.Name, cfg.App.LogLevel, cfg.IsProduction())
	log.Info().Str("env", cfg.App.Env).Msg("Starting user-service...")

	connectCtx, connectCancel := context.WithTimeout(context.Background(), 10*time.Second)
	dbConn, err := db.New(connectCtx, cfg.Postgres)
	connectCancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	if err := dbConn.Migrate(cfg.Postgres); err != nil {
		dbConn.Close()
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	userRepository := user.NewRepository(dbConn.Pool)
	userService := user.NewService(userRepository)
	userHandler := userHttp.NewUserHandler(userService)

	server := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      userHttp.NewRouter(userHandler, cfg.CORS.AllowedOrigins),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Str("port", cfg.App.Port).Msg("Could not listen")
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)
	<-stopCh

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}

	dbConn.Close()

	log.Info().Msg("User-service stopped gracefully")
}
