package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aria-player/aria/internal/models"
	"github.com/aria-player/aria/internal/shared"
)

// PlaylistRepository implements models.Repository[*models.PlaylistRecord]
// for locally stored playlists.
//
// Resolved tracks are stored as a JSON payload column rather than a join
// table: playlists are read and written whole, never queried per-track.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new [models.PlaylistRecord] into the database with generated ID and sequence
func (r *PlaylistRepository) Create(playlist *models.PlaylistRecord) error {
	sequence, err := NextSequence(r.db, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	playlist.SetID(id)
	playlist.SetSequence(sequence)

	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	payload, err := json.Marshal(playlist.Tracks())
	if err != nil {
		return fmt.Errorf("failed to encode playlist payload: %w", err)
	}

	query := `
		INSERT INTO playlists (id, sequence, name, prompt, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		playlist.Name(),
		playlist.Prompt(),
		string(payload),
		playlist.CreatedAt(),
		playlist.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	return nil
}

// Get retrieves a playlist by ID, excluding soft-deleted playlists
func (r *PlaylistRepository) Get(id string) (*models.PlaylistRecord, error) {
	query := `
		SELECT id, sequence, name, prompt, payload, created_at, updated_at, deleted_at
		FROM playlists
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.scan(r.db.QueryRow(query, id))
}

// Update modifies an existing playlist's name and payload
func (r *PlaylistRepository) Update(playlist *models.PlaylistRecord) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	payload, err := json.Marshal(playlist.Tracks())
	if err != nil {
		return fmt.Errorf("failed to encode playlist payload: %w", err)
	}

	now := time.Now()
	playlist.SetUpdatedAt(now)

	query := `
		UPDATE playlists
		SET name = ?, payload = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, playlist.Name(), string(payload), now, playlist.ID())
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlist.ID())
	}

	return nil
}

// Delete soft-deletes a playlist by ID
func (r *PlaylistRepository) Delete(id string) error {
	query := `
		UPDATE playlists
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)
	}

	return nil
}

// List retrieves all playlists in creation order, excluding soft-deleted
// playlists. No filter criteria are supported.
func (r *PlaylistRepository) List(criteria map[string]any) ([]*models.PlaylistRecord, error) {
	query := `
		SELECT id, sequence, name, prompt, payload, created_at, updated_at, deleted_at
		FROM playlists
		WHERE deleted_at IS NULL
		ORDER BY sequence ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.PlaylistRecord
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

type playlistScanner interface {
	Scan(dest ...any) error
}

func (r *PlaylistRepository) scan(s playlistScanner) (*models.PlaylistRecord, error) {
	var (
		id        string
		sequence  int
		name      string
		prompt    string
		payload   string
		createdAt time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := s.Scan(&id, &sequence, &name, &prompt, &payload, &createdAt, &updatedAt, &deletedAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrPlaylistNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	var tracks []models.Track
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &tracks); err != nil {
			return nil, fmt.Errorf("failed to decode playlist payload: %w", err)
		}
	}

	playlist := models.NewPlaylistRecord(sequence, name, prompt, tracks)
	playlist.SetID(id)
	playlist.SetCreatedAt(createdAt)
	playlist.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		playlist.SetDeletedAt(&deletedAt.Time)
	}

	return playlist, nil
}
