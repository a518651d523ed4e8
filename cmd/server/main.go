package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/mkravch/kinofav/internal/api"
	"github.com/mkravch/kinofav/internal/config"
	"github.com/mkravch/kinofav/internal/infrastructure/auth"
	"github.com/mkravch/kinofav/internal/infrastructure/kafka"
	"github.com/mkravch/kinofav/internal/infrastructure/kinopoisk"
	"github.com/mkravch/kinofav/internal/infrastructure/observability"
	"github.com/mkravch/kinofav/internal/infrastructure/redis"
	core "github.com/mkravch/kinofav/internal/repository/postgres"
	service "github.com/mkravch/kinofav/internal/services"
)

func main() {
	shutdown := observability.Setup("kinofav-service")
	defer shutdown(context.Background())

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer db.Close()

	userRepo := core.NewPostgresUserRepository(db)
	redisClient, err := redis.NewClient(cfg.RedisAddr)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	producer := kafka.NewProducer(cfg.KafkaBrokers)
	defer producer.Close()

	catalog := kinopoisk.NewClient(cfg.CatalogURL, cfg.CatalogAPIKey)
	tokens := auth.NewTokenService(cfg.JWTSecret)

	svc := service.NewMovieService(userRepo, catalog, redisClient, producer, tokens, cfg.ValidateFavorites)
	router := api.SetupRouter(svc, tokens)

	server := &http.Server{
		Addr:    cfg.RunAddr,
		Handler: router,
	}
	go func() {
		log.Printf("Starting server on %s", cfg.RunAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	log.Println("Server stopped")
}
