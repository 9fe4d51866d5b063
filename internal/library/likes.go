package library

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/aria-player/aria/internal/models"
	"github.com/aria-player/aria/internal/shared"
)

// RemoteLikes is the remote persistence boundary for the liked set. Nil
// when no authenticated identity is present.
type RemoteLikes interface {
	FetchLiked(ctx context.Context) ([]models.Track, error)
	InsertLike(ctx context.Context, track models.Track) error
	DeleteLike(ctx context.Context, trackID string) error
}

// LocalLikes is the durable local fallback used when running anonymously.
type LocalLikes interface {
	Put(track models.Track) error
	Remove(trackID string) error
	All() ([]models.Track, error)
}

// LikeStore maintains the set of liked tracks.
//
// Mutations are optimistic: in-memory state flips synchronously and is
// authoritative for reads regardless of persistence outcome. Remote writes
// are issued asynchronously and never rolled back on failure — the remote
// set becomes eventually consistent on the next successful call. Without an
// identity every mutation is written through to the local store instead.
type LikeStore struct {
	mu     sync.Mutex
	order  []string
	byID   map[string]models.Track
	remote RemoteLikes
	local  LocalLikes
	logger *log.Logger
}

// NewLikeStore creates a LikeStore. remote may be nil (anonymous session);
// local must not be.
func NewLikeStore(remote RemoteLikes, local LocalLikes, logger *log.Logger) *LikeStore {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &LikeStore{
		byID:   make(map[string]models.Track),
		remote: remote,
		local:  local,
		logger: logger,
	}
}

// Load populates the set: remote first when an identity exists, local
// fallback on remote failure or absence of identity. Remote and local state
// are never merged. Load never returns an error; an empty set is a valid
// degraded outcome.
func (s *LikeStore) Load(ctx context.Context) {
	if s.remote != nil {
		tracks, err := s.remote.FetchLiked(ctx)
		if err == nil {
			s.reset(tracks)
			return
		}
		s.logger.Warn("remote liked fetch failed, using local fallback", "err", err)
	}

	tracks, err := s.local.All()
	if err != nil {
		s.logger.Warn("local liked load failed", "err", err)
		return
	}
	s.reset(tracks)
}

func (s *LikeStore) reset(tracks []models.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = s.order[:0]
	s.byID = make(map[string]models.Track, len(tracks))
	for _, t := range tracks {
		if _, ok := s.byID[t.ID]; ok {
			continue
		}
		s.order = append(s.order, t.ID)
		s.byID[t.ID] = t
	}
}

// IsLiked reports membership by track ID.
func (s *LikeStore) IsLiked(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byID[id]
	return ok
}

// Liked returns the liked tracks in insertion order.
func (s *LikeStore) Liked() []models.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Track, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// ToggleLike flips membership for the given track and returns the new
// state. The in-memory flip is synchronous; persistence follows per the
// store policy and its outcome never affects the returned state.
func (s *LikeStore) ToggleLike(ctx context.Context, track models.Track) bool {
	s.mu.Lock()
	_, liked := s.byID[track.ID]
	if liked {
		delete(s.byID, track.ID)
		for i, id := range s.order {
			if id == track.ID {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	} else {
		s.byID[track.ID] = track
		s.order = append(s.order, track.ID)
	}
	nowLiked := !liked
	s.mu.Unlock()

	if s.remote != nil {
		go s.persistRemote(ctx, track, nowLiked)
	} else {
		s.persistLocal(track, nowLiked)
	}

	return nowLiked
}

// persistRemote issues the remote insert/delete matching the toggle
// direction. Failures are logged, never rolled back.
func (s *LikeStore) persistRemote(ctx context.Context, track models.Track, liked bool) {
	var err error
	if liked {
		err = s.remote.InsertLike(ctx, track)
	} else {
		err = s.remote.DeleteLike(ctx, track.ID)
	}
	if err != nil {
		s.logger.Warn("remote like write failed, keeping local state", "track", track.ID, "liked", liked, "err", err)
	}
}

// persistLocal writes through to the durable local store.
func (s *LikeStore) persistLocal(track models.Track, liked bool) {
	var err error
	if liked {
		err = s.local.Put(track)
	} else {
		err = s.local.Remove(track.ID)
	}
	if err != nil {
		s.logger.Warn("local like write failed", "track", track.ID, "liked", liked, "err", err)
	}
}
