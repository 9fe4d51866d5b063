// Hosted profile/likes store client.
//
// The backing service exposes a PostgREST-style REST surface: table reads
// via query-string filters, writes as JSON rows, stored procedures under
// /rpc. Authentication is an API key header plus a bearer token carried by
// an [oauth2] client.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/aria-player/aria/internal/library"
	"github.com/aria-player/aria/internal/models"
	"github.com/aria-player/aria/internal/shared"
)

// likedRow mirrors the liked_tracks table.
type likedRow struct {
	TrackID   string `json:"track_id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	CoverURL  string `json:"cover_url"`
	SourceRef string `json:"source_ref"`
	Duration  int    `json:"duration"`
}

// profileRow mirrors the profiles table.
type profileRow struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	FullName        string `json:"full_name"`
	AvatarURL       string `json:"avatar_url"`
	MinutesListened int    `json:"minutes_listened"`
}

// playlistRow mirrors the playlists table.
type playlistRow struct {
	Name    string          `json:"name"`
	Prompt  string          `json:"prompt"`
	Payload json.RawMessage `json:"payload"`
}

// RemoteStore is the client for the hosted profile/likes service. It
// implements [library.RemoteLikes] and [library.ProfileSink].
type RemoteStore struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *log.Logger
}

var (
	_ library.RemoteLikes = (*RemoteStore)(nil)
	_ library.ProfileSink = (*RemoteStore)(nil)
)

// NewRemoteStore creates a store client from configuration. Returns an
// error when the configuration carries no access token, which callers treat
// as an anonymous session.
func NewRemoteStore(ctx context.Context, cfg shared.RemoteConfig, logger *log.Logger) (*RemoteStore, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: remote base_url", shared.ErrMissingConfig)
	}
	if cfg.AccessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken})

	return &RemoteStore{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: oauth2.NewClient(ctx, source),
		logger:     logger,
	}, nil
}

// doJSON performs one request against the REST surface. result may be nil
// for write calls whose response body is irrelevant.
func (r *RemoteStore) doJSON(ctx context.Context, method, path string, body, result any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.apiKey != "" {
		req.Header.Set("apikey", r.apiKey)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: status %d", shared.ErrNotAuthenticated, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s status %d", shared.ErrAPIRequest, method, path, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// FetchLiked returns the user's liked tracks, oldest first.
func (r *RemoteStore) FetchLiked(ctx context.Context) ([]models.Track, error) {
	var rows []likedRow
	if err := r.doJSON(ctx, http.MethodGet, "/rest/v1/liked_tracks?select=*&order=created_at.asc", nil, &rows); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(rows))
	for _, row := range rows {
		tracks = append(tracks, models.Track{
			ID:        row.TrackID,
			Title:     row.Title,
			Artist:    row.Artist,
			CoverURL:  row.CoverURL,
			SourceRef: row.SourceRef,
			Duration:  row.Duration,
		})
	}
	return tracks, nil
}

// InsertLike appends a track to the user's liked set.
func (r *RemoteStore) InsertLike(ctx context.Context, track models.Track) error {
	row := likedRow{
		TrackID:   track.ID,
		Title:     track.Title,
		Artist:    track.Artist,
		CoverURL:  track.CoverURL,
		SourceRef: track.SourceRef,
		Duration:  track.Duration,
	}
	return r.doJSON(ctx, http.MethodPost, "/rest/v1/liked_tracks", row, nil)
}

// DeleteLike removes a track from the user's liked set by track ID.
func (r *RemoteStore) DeleteLike(ctx context.Context, trackID string) error {
	path := "/rest/v1/liked_tracks?track_id=eq." + url.QueryEscape(trackID)
	return r.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// FetchProfile returns the signed-in user's profile.
func (r *RemoteStore) FetchProfile(ctx context.Context) (*models.Profile, error) {
	var rows []profileRow
	if err := r.doJSON(ctx, http.MethodGet, "/rest/v1/profiles?select=*&limit=1", nil, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no profile row", shared.ErrAPIRequest)
	}

	row := rows[0]
	return &models.Profile{
		ID:              row.ID,
		Username:        row.Username,
		FullName:        row.FullName,
		AvatarURL:       row.AvatarURL,
		MinutesListened: row.MinutesListened,
	}, nil
}

// AddMinutes increments the profile's listening-time counter through a
// stored procedure, so concurrent sessions cannot clobber each other with a
// read-modify-write.
func (r *RemoteStore) AddMinutes(ctx context.Context, minutes int) error {
	if minutes <= 0 {
		return nil
	}
	body := map[string]int{"minutes": minutes}
	return r.doJSON(ctx, http.MethodPost, "/rest/v1/rpc/add_minutes_listened", body, nil)
}

// SavePlaylist stores a curated playlist under the user's account.
func (r *RemoteStore) SavePlaylist(ctx context.Context, name, prompt string, tracks []models.Track) error {
	payload, err := json.Marshal(tracks)
	if err != nil {
		return fmt.Errorf("failed to encode playlist payload: %w", err)
	}
	row := playlistRow{Name: name, Prompt: prompt, Payload: payload}
	return r.doJSON(ctx, http.MethodPost, "/rest/v1/playlists", row, nil)
}
