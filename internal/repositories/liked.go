package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aria-player/aria/internal/models"
	"github.com/aria-player/aria/internal/shared"
)

// LikedTrackRepository implements models.Repository[*models.LikedTrack] for
// the local liked-track store used by anonymous sessions.
//
// The track_id column carries a UNIQUE constraint, so liking the same track
// twice cannot produce duplicate rows.
type LikedTrackRepository struct {
	db *sql.DB
}

// NewLikedTrackRepository creates a new LikedTrackRepository with the given database connection
func NewLikedTrackRepository(db *sql.DB) *LikedTrackRepository {
	return &LikedTrackRepository{db: db}
}

// Create inserts a new [models.LikedTrack] into the database with generated ID and sequence
func (r *LikedTrackRepository) Create(liked *models.LikedTrack) error {
	sequence, err := NextSequence(r.db, "liked_tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	liked.SetID(id)
	liked.SetSequence(sequence)

	if err := liked.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	track := liked.Track()
	query := `
		INSERT INTO liked_tracks (id, sequence, track_id, title, artist, cover_url, source_ref, duration, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		track.ID,
		track.Title,
		track.Artist,
		track.CoverURL,
		track.SourceRef,
		track.Duration,
		liked.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert liked track: %w", err)
	}

	return nil
}

// Get retrieves a liked track by row ID, excluding soft-deleted rows
func (r *LikedTrackRepository) Get(id string) (*models.LikedTrack, error) {
	query := `
		SELECT id, sequence, track_id, title, artist, cover_url, source_ref, duration, created_at, deleted_at
		FROM liked_tracks
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByTrackID retrieves a liked track by the track's own identity
func (r *LikedTrackRepository) GetByTrackID(trackID string) (*models.LikedTrack, error) {
	query := `
		SELECT id, sequence, track_id, title, artist, cover_url, source_ref, duration, created_at, deleted_at
		FROM liked_tracks
		WHERE track_id = ? AND deleted_at IS NULL
	`

	return r.scanOne(r.db.QueryRow(query, trackID))
}

// Update modifies the stored track metadata for an existing row
func (r *LikedTrackRepository) Update(liked *models.LikedTrack) error {
	if err := liked.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	track := liked.Track()
	query := `
		UPDATE liked_tracks
		SET title = ?, artist = ?, cover_url = ?, source_ref = ?, duration = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		track.Title,
		track.Artist,
		track.CoverURL,
		track.SourceRef,
		track.Duration,
		liked.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update liked track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, liked.ID())
	}

	return nil
}

// Delete soft-deletes a liked track by row ID
func (r *LikedTrackRepository) Delete(id string) error {
	return r.softDelete("id", id)
}

// DeleteByTrackID soft-deletes a liked track by the track's own identity
func (r *LikedTrackRepository) DeleteByTrackID(trackID string) error {
	return r.softDelete("track_id", trackID)
}

func (r *LikedTrackRepository) softDelete(column, value string) error {
	query := fmt.Sprintf(`
		UPDATE liked_tracks
		SET deleted_at = ?
		WHERE %s = ? AND deleted_at IS NULL
	`, column)

	result, err := r.db.Exec(query, time.Now(), value)
	if err != nil {
		return fmt.Errorf("failed to delete liked track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrTrackNotFound, value)
	}

	return nil
}

// List retrieves all liked tracks in like order, excluding soft-deleted rows.
// No filter criteria are supported.
func (r *LikedTrackRepository) List(criteria map[string]any) ([]*models.LikedTrack, error) {
	query := `
		SELECT id, sequence, track_id, title, artist, cover_url, source_ref, duration, created_at, deleted_at
		FROM liked_tracks
		WHERE deleted_at IS NULL
		ORDER BY sequence ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query liked tracks: %w", err)
	}
	defer rows.Close()

	var liked []*models.LikedTrack
	for rows.Next() {
		l, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		liked = append(liked, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return liked, nil
}

type likedScanner interface {
	Scan(dest ...any) error
}

func (r *LikedTrackRepository) scan(s likedScanner) (*models.LikedTrack, error) {
	var (
		id        string
		sequence  int
		trackID   string
		title     string
		artist    string
		coverURL  string
		sourceRef string
		duration  int
		createdAt time.Time
		deletedAt sql.NullTime
	)

	err := s.Scan(&id, &sequence, &trackID, &title, &artist, &coverURL, &sourceRef, &duration, &createdAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrTrackNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan liked track: %w", err)
	}

	dto := models.Track{
		ID:        trackID,
		Title:     title,
		Artist:    artist,
		CoverURL:  coverURL,
		SourceRef: sourceRef,
		Duration:  duration,
	}

	liked := models.NewLikedTrack(sequence, dto)
	liked.SetID(id)
	liked.SetCreatedAt(createdAt)
	if deletedAt.Valid {
		liked.SetDeletedAt(&deletedAt.Time)
	}

	return liked, nil
}

func (r *LikedTrackRepository) scanOne(row *sql.Row) (*models.LikedTrack, error) {
	return r.scan(row)
}

func (r *LikedTrackRepository) scanRow(rows *sql.Rows) (*models.LikedTrack, error) {
	return r.scan(rows)
}
