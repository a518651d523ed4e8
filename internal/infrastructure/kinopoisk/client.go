package kinopoisk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/mkravch/kinofav/internal/infrastructure/observability"
	"github.com/mkravch/kinofav/internal/models"
	pkgerrors "github.com/mkravch/kinofav/pkg/errors"
)

// Catalog is the narrow interface the service layer depends on.
type Catalog interface {
	SearchByKeyword(ctx context.Context, keyword string) ([]models.MovieSummary, error)
	GetByID(ctx context.Context, kinopoiskID int64) (json.RawMessage, error)
}

// Client talks to the external movie catalog. Every call is a single
// best-effort attempt: no retries, no caching at this layer.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{},
	}
}

type searchFilm struct {
	FilmID int64  `json:"filmId"`
	NameEn string `json:"nameEn"`
	NameRu string `json:"nameRu"`
	Year   string `json:"year"`
}

type searchResponse struct {
	Films *[]searchFilm `json:"films"`
}

func (c *Client) SearchByKeyword(ctx context.Context, keyword string) ([]models.MovieSummary, error) {
	u := fmt.Sprintf("%s/api/v2.1/films/search-by-keyword?keyword=%s",
		c.baseURL, url.QueryEscape(keyword))

	body, err := c.get(ctx, "search", u)
	if err != nil {
		return nil, err
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		slog.Error("failed to decode catalog search response", "keyword", keyword, "error", err)
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrCatalogSchema, err)
	}
	if parsed.Films == nil {
		slog.Error("catalog search response has no films list", "keyword", keyword)
		return nil, fmt.Errorf("%w: missing films list", pkgerrors.ErrCatalogSchema)
	}

	movies := make([]models.MovieSummary, 0, len(*parsed.Films))
	for _, film := range *parsed.Films {
		movies = append(movies, models.MovieSummary{
			FilmKinopoiskID: film.FilmID,
			NameEn:          film.NameEn,
			NameRu:          film.NameRu,
			Year:            film.Year,
		})
	}
	return movies, nil
}

// GetByID returns the catalog record unmodified.
func (c *Client) GetByID(ctx context.Context, kinopoiskID int64) (json.RawMessage, error) {
	u := fmt.Sprintf("%s/api/v2.2/films/%d", c.baseURL, kinopoiskID)
	return c.get(ctx, "get_by_id", u)
}

func (c *Client) get(ctx context.Context, operation, u string) ([]byte, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrCatalogUnavailable, err)
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		observability.CatalogRequests.WithLabelValues(operation, "error").Inc()
		slog.Error("catalog request failed", "operation", operation, "error", err)
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	observability.CatalogRequests.WithLabelValues(operation, fmt.Sprintf("%d", resp.StatusCode)).Inc()
	observability.CatalogDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		slog.Error("catalog returned non-2xx status", "operation", operation, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", pkgerrors.ErrCatalogUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrCatalogUnavailable, err)
	}
	return body, nil
}
