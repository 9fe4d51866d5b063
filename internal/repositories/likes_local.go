package repositories

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aria-player/aria/internal/library"
	"github.com/aria-player/aria/internal/models"
	"github.com/aria-player/aria/internal/shared"
)

// LocalLikesAdapter implements library.LocalLikes using LikedTrackRepository.
//
// Put is idempotent via the track_id UNIQUE constraint: liking an already
// liked track is silently ignored. Remove tolerates missing rows so the
// in-memory set and the database cannot get stuck disagreeing.
type LocalLikesAdapter struct {
	repo *LikedTrackRepository
}

var _ library.LocalLikes = (*LocalLikesAdapter)(nil)

// NewLocalLikesAdapter creates a new LocalLikesAdapter with the given repository
func NewLocalLikesAdapter(repo *LikedTrackRepository) *LocalLikesAdapter {
	return &LocalLikesAdapter{repo: repo}
}

// Put stores a liked track. Returns nil if the track is already stored.
func (a *LocalLikesAdapter) Put(track models.Track) error {
	existing, err := a.repo.GetByTrackID(track.ID)
	if err == nil && existing != nil {
		return nil
	}

	err = a.repo.Create(models.NewLikedTrack(0, track))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return nil
		}
		return fmt.Errorf("failed to store liked track: %w", err)
	}

	return nil
}

// Remove drops a liked track by track ID. Returns nil if it was not stored.
func (a *LocalLikesAdapter) Remove(trackID string) error {
	err := a.repo.DeleteByTrackID(trackID)
	if err != nil && !errors.Is(err, shared.ErrTrackNotFound) {
		return fmt.Errorf("failed to remove liked track: %w", err)
	}
	return nil
}

// All returns the stored liked tracks in like order.
func (a *LocalLikesAdapter) All() ([]models.Track, error) {
	liked, err := a.repo.List(nil)
	if err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(liked))
	for _, l := range liked {
		tracks = append(tracks, l.Track())
	}
	return tracks, nil
}
