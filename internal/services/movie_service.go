package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	stderrors "errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"

	"github.com/mkravch/kinofav/internal/infrastructure/auth"
	"github.com/mkravch/kinofav/internal/infrastructure/kafka"
	"github.com/mkravch/kinofav/internal/infrastructure/kinopoisk"
	"github.com/mkravch/kinofav/internal/infrastructure/redis"
	"github.com/mkravch/kinofav/internal/models"
	"github.com/mkravch/kinofav/internal/repository"
	pkgerrors "github.com/mkravch/kinofav/pkg/errors"
)

const eventsTopic = "user-events"

type MovieService interface {
	Register(ctx context.Context, login, password string) (*models.User, error)
	Login(ctx context.Context, login, password string) (string, error)
	Profile(ctx context.Context, userID int64) (*models.User, error)
	SearchMovies(ctx context.Context, query string) ([]models.MovieSummary, error)
	GetMovie(ctx context.Context, kinopoiskID int64) (json.RawMessage, error)
	AddFavorite(ctx context.Context, userID, kinopoiskID int64) error
	RemoveFavorite(ctx context.Context, userID, kinopoiskID int64) error
	ListFavorites(ctx context.Context, userID int64) ([]json.RawMessage, error)
}

type movieService struct {
	userRepo    repository.UserRepository
	catalog     kinopoisk.Catalog
	redisClient redis.RedisClient
	producer    kafka.KafkaProducer
	tokens      *auth.TokenService
	// validateFavorites keeps the original contract where add/remove
	// first fetch the movie upstream as an existence check, coupling
	// the local mutation to catalog availability.
	validateFavorites bool
}

func NewMovieService(
	userRepo repository.UserRepository,
	catalog kinopoisk.Catalog,
	redisClient redis.RedisClient,
	producer kafka.KafkaProducer,
	tokens *auth.TokenService,
	validateFavorites bool,
) *movieService {
	return &movieService{
		userRepo:          userRepo,
		catalog:           catalog,
		redisClient:       redisClient,
		producer:          producer,
		tokens:            tokens,
		validateFavorites: validateFavorites,
	}
}

func (s *movieService) Register(ctx context.Context, login, password string) (*models.User, error) {
	tracer := otel.Tracer("kinofav-service")
	ctx, span := tracer.Start(ctx, "Register")
	defer span.End()

	if login == "" || password == "" {
		span.SetStatus(codes.Error, "empty login or password")
		return nil, pkgerrors.ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "password hashing failed")
		slog.Error("failed to hash password", "login", login, "error", err)
		return nil, fmt.Errorf("%w: failed to hash password", pkgerrors.ErrInternal)
	}

	user := &models.User{
		Login:        login,
		PasswordHash: string(hash),
		Favorites:    []int64{},
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if stderrors.Is(err, pkgerrors.ErrUsernameTaken) {
			span.SetStatus(codes.Error, "login already exists")
			slog.Warn("login already exists", "login", login)
			return nil, pkgerrors.ErrUsernameTaken
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "user creation failed")
		slog.Error("failed to create user in DB", "login", login, "error", err)
		return nil, fmt.Errorf("%w: failed to create user", pkgerrors.ErrInternal)
	}

	s.sendEvent(user.ID, map[string]interface{}{
		"event_type": "user_registered",
		"user_id":    user.ID,
		"login":      login,
		"created_at": time.Now().UTC().Format(time.RFC3339),
	})

	slog.Info("user registered successfully", "user_id", user.ID, "login", login)
	return user, nil
}

func (s *movieService) Login(ctx context.Context, login, password string) (string, error) {
	tracer := otel.Tracer("kinofav-service")
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	// Unknown login and wrong password must be indistinguishable to the
	// caller.
	user, err := s.userRepo.GetByLogin(ctx, login)
	if err != nil {
		span.SetStatus(codes.Error, "login failed")
		slog.Error("failed to login", "login", login, "error", err)
		return "", pkgerrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		span.SetStatus(codes.Error, "login failed")
		slog.Error("invalid password", "login", login)
		return "", pkgerrors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Login, user.ID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "token issue failed")
		slog.Error("failed to issue token", "user_id", user.ID, "error", err)
		return "", fmt.Errorf("%w: failed to issue token", pkgerrors.ErrInternal)
	}

	slog.Info("user logged in", "login", login, "user_id", user.ID)
	return token, nil
}

func (s *movieService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	tracer := otel.Tracer("kinofav-service")
	ctx, span := tracer.Start(ctx, "Profile")
	defer span.End()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "profile lookup failed")
		slog.Error("failed to get profile", "user_id", userID, "error", err)
		return nil, err
	}
	return user, nil
}

func (s *movieService) SearchMovies(ctx context.Context, query string) ([]models.MovieSummary, error) {
	tracer := otel.Tracer("kinofav-service")
	ctx, span := tracer.Start(ctx, "SearchMovies")
	defer span.End()

	movies, err := s.catalog.SearchByKeyword(ctx, query)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog search failed")
		slog.Error("catalog search failed", "query", query, "error", err)
		return nil, err
	}

	slog.Info("catalog search done", "query", query, "count", len(movies))
	return movies, nil
}

func (s *movieService) GetMovie(ctx context.Context, kinopoiskID int64) (json.RawMessage, error) {
	tracer := otel.Tracer("kinofav-service")
	ctx, span := tracer.Start(ctx, "GetMovie")
	defer span.End()

	movie, err := s.fetchMovie(ctx, kinopoiskID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog fetch failed")
		return nil, err
	}
	return movie, nil
}

func (s *movieService) AddFavorite(ctx context.Context, userID, kinopoiskID int64) error {
	tracer := otel.Tracer("kinofav-service")
	ctx, span := tracer.Start(ctx, "AddFavorite")
	defer span.End()

	if s.validateFavorites {
		if _, err := s.fetchMovie(ctx, kinopoiskID); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "upstream validation failed")
			return err
		}
	}

	unlock, err := s.lockFavorites(ctx, userID)
	if err != nil {
		span.SetStatus(codes.Error, "favorites locked")
		return err
	}
	defer unlock()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		slog.Error("failed to get user", "user_id", userID, "error", err)
		return err
	}

	for _, id := range user.Favorites {
		if id == kinopoiskID {
			slog.Info("movie already in favorites", "user_id", userID, "movie_id", kinopoiskID)
			return nil
		}
	}

	favorites := append(append([]int64{}, user.Favorites...), kinopoiskID)
	if err := s.userRepo.UpdateFavorites(ctx, userID, favorites); err != nil {
		span.RecordError(err)
		slog.Error("failed to update favorites", "user_id", userID, "error", err)
		return err
	}

	s.sendEvent(userID, map[string]interface{}{
		"event_type": "favorite_added",
		"user_id":    userID,
		"movie_id":   kinopoiskID,
		"at":         time.Now().UTC().Format(time.RFC3339),
	})

	slog.Info("movie added to favorites", "user_id", userID, "movie_id", kinopoiskID)
	return nil
}

func (s *movieService) RemoveFavorite(ctx context.Context, userID, kinopoiskID int64) error {
	tracer := otel.Tracer("kinofav-service")
	ctx, span := tracer.Start(ctx, "RemoveFavorite")
	defer span.End()

	if s.validateFavorites {
		if _, err := s.fetchMovie(ctx, kinopoiskID); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "upstream validation failed")
			return err
		}
	}

	unlock, err := s.lockFavorites(ctx, userID)
	if err != nil {
		span.SetStatus(codes.Error, "favorites locked")
		return err
	}
	defer unlock()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		slog.Error("failed to get user", "user_id", userID, "error", err)
		return err
	}

	favorites := make([]int64, 0, len(user.Favorites))
	found := false
	for _, id := range user.Favorites {
		if id == kinopoiskID {
			found = true
			continue
		}
		favorites = append(favorites, id)
	}
	if !found {
		// Removing an absent id is a no-op that still succeeds.
		slog.Info("movie not in favorites", "user_id", userID, "movie_id", kinopoiskID)
		return nil
	}

	if err := s.userRepo.UpdateFavorites(ctx, userID, favorites); err != nil {
		span.RecordError(err)
		slog.Error("failed to update favorites", "user_id", userID, "error", err)
		return err
	}

	s.sendEvent(userID, map[string]interface{}{
		"event_type": "favorite_removed",
		"user_id":    userID,
		"movie_id":   kinopoiskID,
		"at":         time.Now().UTC().Format(time.RFC3339),
	})

	slog.Info("movie removed from favorites", "user_id", userID, "movie_id", kinopoiskID)
	return nil
}

func (s *movieService) ListFavorites(ctx context.Context, userID int64) ([]json.RawMessage, error) {
	tracer := otel.Tracer("kinofav-service")
	ctx, span := tracer.Start(ctx, "ListFavorites")
	defer span.End()

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		span.RecordError(err)
		slog.Error("failed to get user", "user_id", userID, "error", err)
		return nil, err
	}

	// First upstream failure aborts the whole list, no partial results.
	movies := make([]json.RawMessage, 0, len(user.Favorites))
	for _, id := range user.Favorites {
		movie, err := s.fetchMovie(ctx, id)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "catalog fetch failed")
			return nil, err
		}
		movies = append(movies, movie)
	}

	slog.Info("favorites listed", "user_id", userID, "count", len(movies))
	return movies, nil
}

// fetchMovie reads the opaque catalog record through the Redis cache.
func (s *movieService) fetchMovie(ctx context.Context, kinopoiskID int64) (json.RawMessage, error) {
	movieKey := fmt.Sprintf("film:%d", kinopoiskID)

	cached, err := s.redisClient.Get(ctx, movieKey)
	if err == nil {
		return json.RawMessage(cached), nil
	}
	if !stderrors.Is(err, redis.ErrKeyNotFound) {
		slog.Error("failed to get movie from Redis", "movie_id", kinopoiskID, "error", err)
	}

	movie, err := s.catalog.GetByID(ctx, kinopoiskID)
	if err != nil {
		slog.Error("catalog fetch failed", "movie_id", kinopoiskID, "error", err)
		return nil, err
	}

	if err := s.redisClient.Set(ctx, movieKey, string(movie), 24*time.Hour); err != nil {
		slog.Error("failed to cache movie", "movie_id", kinopoiskID, "error", err)
	}
	return movie, nil
}

// lockFavorites serializes the favorites read-modify-write per user, so
// concurrent mutations cannot lose updates.
func (s *movieService) lockFavorites(ctx context.Context, userID int64) (func(), error) {
	lockKey := fmt.Sprintf("user:%d:favlock", userID)
	ok, err := s.redisClient.SetNX(ctx, lockKey, "locked", 3*time.Second)
	if err != nil {
		slog.Error("failed to acquire favorites lock", "user_id", userID, "error", err)
		return nil, pkgerrors.ErrFavoritesBusy
	}
	if !ok {
		slog.Error("favorites list is locked", "user_id", userID)
		return nil, pkgerrors.ErrFavoritesBusy
	}
	return func() {
		if err := s.redisClient.Del(context.Background(), lockKey); err != nil {
			slog.Error("failed to release favorites lock", "user_id", userID, "error", err)
		}
	}, nil
}

func (s *movieService) sendEvent(key int64, event map[string]interface{}) {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal event", "key", key, "error", err)
		return
	}
	go func() {
		retries := 3
		for i := 0; i < retries; i++ {
			if err := s.producer.Send(context.Background(), eventsTopic, key, eventBytes); err == nil {
				return
			}
			time.Sleep(time.Second * time.Duration(i+1))
		}
		slog.Error("failed to send event after retries", "key", key, "event_type", event["event_type"])
	}()
}
