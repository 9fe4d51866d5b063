package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aria-player/aria/internal/shared"
)

const searchPayload = `{
	"resultCount": 2,
	"results": [
		{
			"trackId": 123,
			"trackName": "Take Five",
			"artistName": "The Dave Brubeck Quartet",
			"collectionName": "Time Out",
			"primaryGenreName": "Jazz",
			"artworkUrl100": "https://cdn.example.com/art/100x100bb.jpg",
			"previewUrl": "https://cdn.example.com/preview/take-five.m4a",
			"trackViewUrl": "https://example.com/take-five",
			"trackTimeMillis": 324000
		},
		{
			"trackId": 456,
			"trackName": "No Preview",
			"artistName": "Unknown",
			"artworkUrl100": "https://cdn.example.com/art/100x100bb.jpg",
			"trackTimeMillis": 1000
		}
	]
}`

func TestCatalogClient(t *testing.T) {
	t.Run("Search Tracks", func(t *testing.T) {
		var gotPath, gotQuery string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotQuery = r.URL.Query().Get("term")
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(searchPayload))
		}))
		defer server.Close()

		client := NewCatalogClient(shared.CatalogConfig{BaseURL: server.URL, Limit: 10, RateLimit: 100}, nil, nil)

		tracks, err := client.SearchTracks(context.Background(), "take five")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if gotPath != "/search" {
			t.Errorf("expected /search path, got %s", gotPath)
		}
		if gotQuery != "take five" {
			t.Errorf("expected term forwarded, got %s", gotQuery)
		}

		if len(tracks) != 1 {
			t.Fatalf("expected 1 playable track, got %d", len(tracks))
		}

		track := tracks[0]
		if track.ID != "123" {
			t.Errorf("expected ID 123, got %s", track.ID)
		}
		if track.Title != "Take Five" {
			t.Errorf("unexpected title %s", track.Title)
		}
		if track.SourceRef != "https://cdn.example.com/preview/take-five.m4a" {
			t.Errorf("expected preview URL as source ref, got %s", track.SourceRef)
		}
		if track.Duration != 324 {
			t.Errorf("expected duration in seconds, got %d", track.Duration)
		}
		if track.CoverURL != "https://cdn.example.com/art/600x600bb.jpg" {
			t.Errorf("expected upsized artwork, got %s", track.CoverURL)
		}
	})

	t.Run("Empty Term Rejected", func(t *testing.T) {
		client := NewCatalogClient(shared.CatalogConfig{RateLimit: 100}, nil, nil)

		_, err := client.SearchTracks(context.Background(), "   ")
		if err == nil {
			t.Error("expected error for empty term")
		}
	})

	t.Run("API Error Mapped", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := NewCatalogClient(shared.CatalogConfig{BaseURL: server.URL, RateLimit: 100}, nil, nil)

		_, err := client.SearchTracks(context.Background(), "anything")
		if err == nil {
			t.Error("expected error for non-2xx response")
		}
	})

	t.Run("Defaults Applied", func(t *testing.T) {
		client := NewCatalogClient(shared.CatalogConfig{}, nil, nil)

		if client.baseURL != itunesBaseURL {
			t.Errorf("expected default base URL, got %s", client.baseURL)
		}
		if client.limit != itunesDefaultLimit {
			t.Errorf("expected default limit, got %d", client.limit)
		}
	})
}

func TestUpsizeArtwork(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "rewrites standard artwork",
			in:   "https://cdn.example.com/a/100x100bb.jpg",
			want: "https://cdn.example.com/a/600x600bb.jpg",
		},
		{
			name: "leaves other urls alone",
			in:   "https://cdn.example.com/a/cover.jpg",
			want: "https://cdn.example.com/a/cover.jpg",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := upsizeArtwork(tt.in); got != tt.want {
				t.Errorf("upsizeArtwork() = %v, want %v", got, tt.want)
			}
		})
	}
}
