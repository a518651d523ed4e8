package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mkravch/kinofav/internal/infrastructure/auth"
	service "github.com/mkravch/kinofav/internal/services"
	pkgerrors "github.com/mkravch/kinofav/pkg/errors"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

func init() {
	prometheus.MustRegister(RequestCounter, RequestDuration)
}

func SetupRouter(svc service.MovieService, tokens *auth.TokenService) *mux.Router {
	router := mux.NewRouter()
	router.Use(metricsMiddleware)

	router.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Login    string `json:"login"`
			Password string `json:"password"`
		}
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&req); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		user, err := svc.Register(r.Context(), req.Login, req.Password)
		if err != nil {
			slog.Error("register failed", "login", req.Login, "error", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{
			"id":      user.ID,
			"message": "user registered successfully",
		})
	}).Methods(http.MethodPost)

	router.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		username := r.PostFormValue("username")
		password := r.PostFormValue("password")
		token, err := svc.Login(r.Context(), username, password)
		if err != nil {
			slog.Error("login failed", "login", username, "error", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"access_token": token,
			"token_type":   "bearer",
		})
	}).Methods(http.MethodPost)

	protected := router.NewRoute().Subrouter()
	protected.Use(auth.Middleware(tokens))

	protected.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.UserID(r.Context())
		if !ok {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		user, err := svc.Profile(r.Context(), userID)
		if err != nil {
			slog.Error("profile failed", "user_id", userID, "error", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, user)
	}).Methods(http.MethodGet)

	protected.HandleFunc("/movies/search", func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("query")
		if query == "" {
			http.Error(w, "query parameter is required", http.StatusBadRequest)
			return
		}
		movies, err := svc.SearchMovies(r.Context(), query)
		if err != nil {
			slog.Error("search failed", "query", query, "error", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, movies)
	}).Methods(http.MethodGet)

	protected.HandleFunc("/movies/favorites", func(w http.ResponseWriter, r *http.Request) {
		userID, _ := auth.UserID(r.Context())
		movieID, err := strconv.ParseInt(r.URL.Query().Get("kinopoisk_id"), 10, 64)
		if err != nil {
			http.Error(w, "kinopoisk_id parameter is required", http.StatusBadRequest)
			return
		}
		if err := svc.AddFavorite(r.Context(), userID, movieID); err != nil {
			slog.Error("add favorite failed", "user_id", userID, "movie_id", movieID, "error", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "movie added to favorites",
		})
	}).Methods(http.MethodPost)

	protected.HandleFunc("/movies/favorites/{kinopoisk_id:[0-9]+}", func(w http.ResponseWriter, r *http.Request) {
		userID, _ := auth.UserID(r.Context())
		movieID, err := strconv.ParseInt(mux.Vars(r)["kinopoisk_id"], 10, 64)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		if err := svc.RemoveFavorite(r.Context(), userID, movieID); err != nil {
			slog.Error("remove favorite failed", "user_id", userID, "movie_id", movieID, "error", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "movie removed from favorites",
		})
	}).Methods(http.MethodDelete)

	protected.HandleFunc("/movies/favorites", func(w http.ResponseWriter, r *http.Request) {
		userID, _ := auth.UserID(r.Context())
		movies, err := svc.ListFavorites(r.Context(), userID)
		if err != nil {
			slog.Error("list favorites failed", "user_id", userID, "error", err)
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, movies)
	}).Methods(http.MethodGet)

	protected.HandleFunc("/movies/{kinopoisk_id:[0-9]+}", func(w http.ResponseWriter, r *http.Request) {
		movieID, err := strconv.ParseInt(mux.Vars(r)["kinopoisk_id"], 10, 64)
		if err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		movie, err := svc.GetMovie(r.Context(), movieID)
		if err != nil {
			slog.Error("get movie failed", "movie_id", movieID, "error", err)
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(movie)
	}).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.Handler())
	return router
}

// writeError maps service errors to stable status codes and bodies. Raw
// internals stay in the log, never in the response.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pkgerrors.ErrInvalidInput):
		http.Error(w, "invalid input", http.StatusBadRequest)
	case errors.Is(err, pkgerrors.ErrUsernameTaken):
		http.Error(w, "username already exists", http.StatusConflict)
	case errors.Is(err, pkgerrors.ErrInvalidCredentials):
		http.Error(w, "invalid login or password", http.StatusUnauthorized)
	case errors.Is(err, pkgerrors.ErrInvalidToken):
		http.Error(w, "invalid token", http.StatusUnauthorized)
	case errors.Is(err, pkgerrors.ErrFavoritesBusy):
		http.Error(w, "favorites list is busy, retry later", http.StatusConflict)
	case errors.Is(err, pkgerrors.ErrCatalogSchema):
		http.Error(w, "unexpected catalog response", http.StatusBadGateway)
	case errors.Is(err, pkgerrors.ErrCatalogUnavailable):
		http.Error(w, "catalog unavailable", http.StatusInternalServerError)
	case errors.Is(err, pkgerrors.ErrUserNotFound):
		http.Error(w, "user not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tmpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tmpl
			}
		}

		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		status := fmt.Sprintf("%d", recorder.status)
		RequestCounter.WithLabelValues(r.Method, endpoint, status).Inc()
		RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder captures the response status for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}
