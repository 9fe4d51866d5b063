package models

import (
	"fmt"
	"time"
)

// LikedTrack wraps a Track with persistence metadata for the local fallback
// store. Insertion order is preserved via the sequence number so the liked
// set can be displayed (and played) in the order tracks were liked.
type LikedTrack struct {
	id        string
	sequence  int
	track     Track
	createdAt time.Time
	deletedAt *time.Time
}

// NewLikedTrack creates a LikedTrack for the given track.
func NewLikedTrack(sequence int, track Track) *LikedTrack {
	return &LikedTrack{
		sequence:  sequence,
		track:     track,
		createdAt: time.Now(),
	}
}

func (l *LikedTrack) ID() string            { return l.id }
func (l *LikedTrack) Sequence() int         { return l.sequence }
func (l *LikedTrack) Track() Track          { return l.track }
func (l *LikedTrack) CreatedAt() time.Time  { return l.createdAt }
func (l *LikedTrack) UpdatedAt() time.Time  { return l.createdAt }
func (l *LikedTrack) DeletedAt() *time.Time { return l.deletedAt }

func (l *LikedTrack) SetID(id string)           { l.id = id }
func (l *LikedTrack) SetSequence(seq int)       { l.sequence = seq }
func (l *LikedTrack) SetCreatedAt(t time.Time)  { l.createdAt = t }
func (l *LikedTrack) SetDeletedAt(t *time.Time) { l.deletedAt = t }

// Validate checks that the wrapped track carries an identity and a title.
func (l *LikedTrack) Validate() error {
	if l.track.ID == "" {
		return fmt.Errorf("liked track requires a track ID")
	}
	if l.track.Title == "" {
		return fmt.Errorf("liked track requires a title")
	}
	return nil
}

// PlaylistRecord is a stored playlist (typically AI-generated) with its
// resolved tracks kept as a JSON payload in the local store.
type PlaylistRecord struct {
	id        string
	sequence  int
	name      string
	prompt    string
	tracks    []Track
	createdAt time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewPlaylistRecord creates a PlaylistRecord with the given name, originating
// prompt and resolved tracks.
func NewPlaylistRecord(sequence int, name, prompt string, tracks []Track) *PlaylistRecord {
	now := time.Now()
	return &PlaylistRecord{
		sequence:  sequence,
		name:      name,
		prompt:    prompt,
		tracks:    tracks,
		createdAt: now,
		updatedAt: now,
	}
}

func (p *PlaylistRecord) ID() string            { return p.id }
func (p *PlaylistRecord) Sequence() int         { return p.sequence }
func (p *PlaylistRecord) Name() string          { return p.name }
func (p *PlaylistRecord) Prompt() string        { return p.prompt }
func (p *PlaylistRecord) CreatedAt() time.Time  { return p.createdAt }
func (p *PlaylistRecord) UpdatedAt() time.Time  { return p.updatedAt }
func (p *PlaylistRecord) DeletedAt() *time.Time { return p.deletedAt }

// Tracks returns a copy of the playlist's tracks.
func (p *PlaylistRecord) Tracks() []Track {
	out := make([]Track, len(p.tracks))
	copy(out, p.tracks)
	return out
}

func (p *PlaylistRecord) SetID(id string)           { p.id = id }
func (p *PlaylistRecord) SetSequence(seq int)       { p.sequence = seq }
func (p *PlaylistRecord) SetName(name string)       { p.name = name }
func (p *PlaylistRecord) SetTracks(tracks []Track)  { p.tracks = tracks }
func (p *PlaylistRecord) SetCreatedAt(t time.Time)  { p.createdAt = t }
func (p *PlaylistRecord) SetUpdatedAt(t time.Time)  { p.updatedAt = t }
func (p *PlaylistRecord) SetDeletedAt(t *time.Time) { p.deletedAt = t }

// Validate checks that the playlist carries a name.
func (p *PlaylistRecord) Validate() error {
	if p.name == "" {
		return fmt.Errorf("playlist requires a name")
	}
	return nil
}
