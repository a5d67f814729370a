package main

import (
	"context"
	"net/http"

	"hackreg/config"
	"hackreg/database"
	"hackreg/handlers"
	"hackreg/middleware"
	"hackreg/services"
	"hackreg/storage"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}

	store, err := storage.NewS3Store(context.Background(), storage.S3Config{
		Endpoint:  cfg.S3Endpoint,
		Region:    cfg.S3Region,
		Bucket:    cfg.S3Bucket,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		BaseURL:   cfg.S3BaseURL,
	})
	if err != nil {
		logger.Fatal("failed to initialize blob store", zap.Error(err))
	}

	verifier := middleware.NewJWTVerifier(cfg.JWTSecret)

	userService := services.NewUserService(db, logger)
	teamService := services.NewTeamService(db, services.RandomPicker{}, logger)
	submissionService := services.NewSubmissionService(db, store, logger)
	statsService := services.NewStatsService(db, logger)

	userHandler := handlers.NewUserHandler(userService, logger)
	teamHandler := handlers.NewTeamHandler(teamService, logger)
	submissionHandler := handlers.NewSubmissionHandler(submissionService, cfg.MaxUploadBytes, logger)
	statsHandler := handlers.NewStatsHandler(statsService, logger)

	router := chi.NewRouter()
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.RequestLogger(logger))

	// Public routes
	router.Get("/statistics", statsHandler.Statistics)

	// Protected routes
	router.Group(func(r chi.Router) {
		r.Use(middleware.Auth(verifier))

		r.Get("/login", userHandler.Login)
		r.Post("/create-profile", userHandler.CreateProfile)

		r.Post("/create-team", teamHandler.CreateTeam)
		r.Post("/join-team", teamHandler.JoinTeam)
		r.Get("/team-details", teamHandler.TeamDetails)
		r.Delete("/leave-team", teamHandler.LeaveTeam)

		r.Put("/task-submit", submissionHandler.TaskSubmit)
	})

	logger.Info("server starting", zap.String("port", cfg.ServerPort))
	if err := http.ListenAndServe(":"+cfg.ServerPort, router); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
