package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surveypulse/internal/cache"
	"surveypulse/internal/config"
	"surveypulse/internal/log"
	"surveypulse/internal/repository"
	"surveypulse/internal/service"
	"surveypulse/internal/storage"
	"surveypulse/internal/transport/rest"
	"surveypulse/internal/transport/ws"
)

// @title Survey Pulse API
// @version 1.0
// @description Surveys, respondent submissions with photo uploads and live statistics
// @host localhost:3000
// @BasePath /api
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Init(cfg.Log)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}
	log.Info("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Initialize repositories
	surveyRepo := repository.NewSurveyRepo(db)
	responseRepo := repository.NewResponseRepo(db)
	if err := responseRepo.EnsureIndexes(pingCtx); err != nil {
		log.Warnf("Failed to create response indexes: %v", err)
	}

	uploads, err := storage.NewUploadStore(cfg.UploadDir, cfg.MaxUploadBytes())
	if err != nil {
		log.Fatalf("Failed to prepare uploads: %v", err)
	}

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	defer wsHub.Close()

	// Stats go straight to the hub unless Redis fans them out across instances
	var publisher service.StatsPublisher = wsHub
	if cfg.RedisURI != "" {
		redisOpts, err := cache.ParseRedisURI(cfg.RedisURI)
		if err != nil {
			log.Fatalf("Invalid REDIS_URI: %v", err)
		}
		rdb := redis.NewClient(redisOpts)
		defer rdb.Close()

		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Fatalf("Failed to ping Redis: %v", err)
		}
		log.Info("Connected to Redis")

		feed := cache.NewStatsFeed(rdb)
		publisher = feed
		go func() {
			if err := feed.Run(ctx, wsHub.BroadcastStats); err != nil {
				log.Errorf("Stats feed stopped: %v", err)
			}
		}()
	}

	// Initialize services
	statsSvc := service.NewStatsService(responseRepo)
	surveySvc := service.NewSurveyService(surveyRepo)
	responseSvc := service.NewResponseService(responseRepo, surveyRepo, uploads, statsSvc, publisher)

	var authSvc *service.AuthService
	if cfg.Auth.Enabled() {
		authSvc, err = service.NewAuthService(cfg.Auth)
		if err != nil {
			log.Fatalf("Failed to init auth: %v", err)
		}
	}

	// Create router with container
	container := &rest.Container{
		AuthService:     authSvc,
		SurveyService:   surveySvc,
		ResponseService: responseSvc,
		StatsService:    statsSvc,
		WSHub:           wsHub,
		UploadDir:       cfg.UploadDir,
		PublicDir:       cfg.PublicDir,
		AllowedOrigins:  cfg.AllowedOrigins,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           rest.NewRouter(container),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(log.Fields{
			"port":      cfg.HTTPPort,
			"auth":      cfg.Auth.Enabled(),
			"redis":     cfg.RedisURI != "",
			"uploadDir": cfg.UploadDir,
		}).Info("Server starting")
		log.Info("Endpoints:")
		log.Info("  GET/POST   /api/surveys")
		log.Info("  GET/PUT/DELETE /api/surveys/{id}")
		log.Info("  GET        /api/surveys/{id}/stats")
		log.Info("  WS         /api/surveys/{id}/stats/live")
		log.Info("  POST       /api/responses")
		if cfg.Auth.Enabled() {
			log.Info("  POST       /api/auth/login")
		}

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")
	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
