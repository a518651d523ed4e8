package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	RunAddr           string
	PostgresDSN       string
	RedisAddr         string
	KafkaBrokers      []string
	CatalogURL        string
	CatalogAPIKey     string
	SecretFile        string
	JWTSecret         string
	ValidateFavorites bool
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("failed to load .env file, using environment as is", "error", err)
	}

	cfg := &Config{
		RunAddr:           os.Getenv("RUN_ADDRESS"),
		PostgresDSN:       os.Getenv("POSTGRES_DSN"),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		KafkaBrokers:      []string{os.Getenv("KAFKA_BROKER")},
		CatalogURL:        os.Getenv("KINOPOISK_API_URL"),
		CatalogAPIKey:     os.Getenv("KINOPOISK_API_KEY"),
		SecretFile:        os.Getenv("SECRET_KEY_FILE"),
		ValidateFavorites: os.Getenv("FAVORITES_VALIDATE_UPSTREAM") != "false",
	}

	if cfg.RunAddr == "" {
		cfg.RunAddr = ":8080"
	}
	if cfg.PostgresDSN == "" {
		cfg.PostgresDSN = "host=localhost user=postgres password=postgres dbname=kinofav sslmode=disable"
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	if len(cfg.KafkaBrokers) == 1 && cfg.KafkaBrokers[0] == "" {
		cfg.KafkaBrokers = []string{"localhost:9092"}
	}
	if cfg.CatalogURL == "" {
		cfg.CatalogURL = "https://kinopoiskapiunofficial.tech"
	}
	if cfg.SecretFile == "" {
		cfg.SecretFile = "secret.env"
	}

	secret, err := loadSecret(cfg.SecretFile)
	if err != nil {
		return nil, err
	}
	cfg.JWTSecret = secret

	slog.Info("config loaded",
		"run_addr", cfg.RunAddr,
		"redis_addr", cfg.RedisAddr,
		"kafka_brokers", cfg.KafkaBrokers,
		"catalog_url", cfg.CatalogURL,
		"validate_favorites", cfg.ValidateFavorites)
	return cfg, nil
}

// loadSecret reads the signing key from a SECRET_KEY=<value> file. The
// service must not start without it: with an empty key every token
// verification would fail at runtime.
func loadSecret(path string) (string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", path, err)
	}
	secret := vars["SECRET_KEY"]
	if secret == "" {
		return "", fmt.Errorf("secret file %s has no SECRET_KEY entry", path)
	}
	return secret, nil
}
