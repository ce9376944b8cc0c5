package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bolaenmano/tournament-api/auth"
	"github.com/bolaenmano/tournament-api/config"
	"github.com/bolaenmano/tournament-api/db"
	"github.com/bolaenmano/tournament-api/handlers"
	"github.com/bolaenmano/tournament-api/realtime"
	"github.com/bolaenmano/tournament-api/repositories"
	"github.com/bolaenmano/tournament-api/routes"
	"github.com/bolaenmano/tournament-api/services"
	"github.com/bolaenmano/tournament-api/storage"
	"github.com/go-co-op/gocron/v2"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	pool, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(pool, "migrations"); err != nil {
		logger.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	var uploader storage.FileUploader
	if cfg.R2Configured() {
		uploader, err = storage.NewCloudflareR2Uploader(storage.CloudflareR2UploaderConfig{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to configure object storage", slog.String("error", err.Error()))
			os.Exit(1)
		}
	} else {
		logger.Warn("object storage is not configured, logo uploads disabled")
	}

	userRepo := repositories.NewPostgresUserRepository(pool)
	tournamentRepo := repositories.NewPostgresTournamentRepository(pool)
	participationRepo := repositories.NewPostgresParticipationRepository(pool)
	matchRepo := repositories.NewPostgresMatchRepository(pool)

	hub := realtime.NewHub(logger)
	go hub.Run()

	userService := services.NewUserService(userRepo, participationRepo)
	tournamentService := services.NewTournamentService(tournamentRepo, participationRepo, matchRepo, uploader, logger)
	bracketService := services.NewBracketService(tournamentRepo, participationRepo, matchRepo, nil, logger)
	matchService := services.NewMatchService(matchRepo, participationRepo, bracketService, hub, logger)
	participantService := services.NewParticipantService(tournamentRepo, participationRepo, userRepo)
	notificationService := services.NewNotificationService(matchRepo, logger)

	verifier := auth.NewGoogleVerifier(auth.GoogleVerifierConfig{
		Web:     auth.GoogleClientConfig{ClientID: cfg.GoogleWebClientID, ClientSecret: cfg.GoogleWebClientSecret},
		IOS:     auth.GoogleClientConfig{ClientID: cfg.GoogleIOSClientID},
		Desktop: auth.GoogleClientConfig{ClientID: cfg.GoogleDesktopClientID, ClientSecret: cfg.GoogleDesktopClientSecret},
	})
	tokens := auth.NewTokenManager(cfg.JWTSecretKey)
	allowlist := auth.NewAllowlist(cfg.AdminEmails)

	router := routes.InitRoutes(routes.Handlers{
		Auth:       handlers.NewAuthHandler(verifier, tokens, userService, allowlist),
		User:       handlers.NewUserHandler(userService, allowlist),
		Tournament: handlers.NewTournamentHandler(tournamentService, bracketService, participantService),
		Match:      handlers.NewMatchHandler(matchService),
		Admin:      handlers.NewAdminHandler(tournamentService, bracketService, matchService, participantService, userService),
		WebSocket:  handlers.NewWebSocketHandler(hub, logger),
	}, tokens, allowlist, userService)

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		logger.Error("failed to create scheduler", slog.String("error", err.Error()))
		os.Exit(1)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := notificationService.SendMatchReminders(ctx); err != nil {
				logger.Error("match reminder run failed", slog.String("error", err.Error()))
			}
		}),
	)
	if err != nil {
		logger.Error("failed to schedule match reminders", slog.String("error", err.Error()))
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Shutdown()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", slog.Int("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	<-shutdown
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
}
