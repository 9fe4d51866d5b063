// iTunes Search API implementation of [Catalog]
//
// Response types based on https://performance-partners.apple.com/search-api
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/aria-player/aria/internal/models"
	"github.com/aria-player/aria/internal/shared"
)

const (
	itunesBaseURL      = "https://itunes.apple.com"
	itunesDefaultLimit = 25
)

// itunesResult represents one entry of an iTunes search response.
type itunesResult struct {
	TrackID          int64  `json:"trackId"`
	TrackName        string `json:"trackName"`
	ArtistName       string `json:"artistName"`
	CollectionName   string `json:"collectionName"`
	PrimaryGenreName string `json:"primaryGenreName"`
	ArtworkURL100    string `json:"artworkUrl100"`
	PreviewURL       string `json:"previewUrl"`
	TrackViewURL     string `json:"trackViewUrl"`
	TrackTimeMillis  int    `json:"trackTimeMillis"`
}

// itunesResponse represents an iTunes search response envelope.
type itunesResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []itunesResult `json:"results"`
}

// CatalogClient implements [Catalog] against the iTunes Search API. The API
// needs no authentication but is rate limited, so every search waits on a
// client-side limiter first.
type CatalogClient struct {
	baseURL    string
	limit      int
	limiter    *rate.Limiter
	httpClient *http.Client
	logger     *log.Logger
}

// NewCatalogClient creates a catalog client from configuration. A nil
// httpClient falls back to http.DefaultClient.
func NewCatalogClient(cfg shared.CatalogConfig, httpClient *http.Client, logger *log.Logger) *CatalogClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = itunesBaseURL
	}
	limit := cfg.Limit
	if limit <= 0 || limit > 200 {
		limit = itunesDefaultLimit
	}
	rps := cfg.RateLimit
	if rps <= 0 {
		rps = 1
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &CatalogClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		limit:      limit,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		httpClient: httpClient,
		logger:     logger,
	}
}

// SearchTracks queries the song entity for the given term.
func (c *CatalogClient) SearchTracks(ctx context.Context, term string) ([]models.Track, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: empty search term", shared.ErrInvalidInput)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("term", term)
	params.Set("media", "music")
	params.Set("entity", "song")
	params.Set("limit", strconv.Itoa(c.limit))

	searchURL := c.baseURL + "/search?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: catalog search status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var payload itunesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	tracks := make([]models.Track, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.PreviewURL == "" {
			// Nothing to stream; the player cannot use it.
			continue
		}
		tracks = append(tracks, models.Track{
			ID:        strconv.FormatInt(r.TrackID, 10),
			Title:     r.TrackName,
			Artist:    r.ArtistName,
			Album:     r.CollectionName,
			Genre:     r.PrimaryGenreName,
			CoverURL:  upsizeArtwork(r.ArtworkURL100),
			SourceRef: r.PreviewURL,
			ViewURL:   r.TrackViewURL,
			Duration:  r.TrackTimeMillis / 1000,
		})
	}

	c.logger.Debug("catalog search", "term", term, "results", len(tracks))
	return tracks, nil
}

// upsizeArtwork rewrites the 100x100 artwork URL the API returns into the
// 600x600 variant the same CDN serves.
func upsizeArtwork(u string) string {
	return strings.Replace(u, "100x100bb", "600x600bb", 1)
}
