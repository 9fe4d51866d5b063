package services

import (
	"context"

	"github.com/aria-player/aria/internal/models"
)

// Catalog searches a public track catalog for streamable tracks.
type Catalog interface {
	// SearchTracks returns tracks matching the free-text term, best match
	// first. An empty result is not an error.
	SearchTracks(ctx context.Context, term string) ([]models.Track, error)
}

// Curator turns a natural-language prompt into playlist suggestions.
type Curator interface {
	// Suggest produces a playlist idea for the prompt. localTracks is the
	// user's own library, offered to the model so it can pick from it.
	Suggest(ctx context.Context, prompt string, localTracks []models.Track) (*PlaylistIdea, error)
}

// PlaylistIdea is a curator response: a name and an ordered list of
// suggested tracks that still need resolving against the catalog.
type PlaylistIdea struct {
	Name        string              `json:"name"`
	Suggestions []models.Suggestion `json:"suggestions"`
}
