package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/aria-player/aria/internal/formatter"
	"github.com/aria-player/aria/internal/models"
	"github.com/aria-player/aria/internal/repositories"
	"github.com/aria-player/aria/internal/shared"
)

// PlaylistsList prints the saved playlists.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	playlists, err := repositories.NewPlaylistRepository(db).List(nil)
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}

	if cmd.Bool("json") {
		rows := make([]map[string]any, len(playlists))
		for i, p := range playlists {
			rows[i] = map[string]any{
				"id":     p.ID(),
				"name":   p.Name(),
				"prompt": p.Prompt(),
				"tracks": len(p.Tracks()),
			}
		}
		return r.writeJSON(rows, true)
	}

	if len(playlists) == 0 {
		r.writePlain("No saved playlists. Try 'aria curate \"rainy day jazz\" --save'\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Saved Playlists (%d)", len(playlists)))
	for i, p := range playlists {
		r.writePlain("%d. %s (%d tracks)\n", i+1, p.Name(), len(p.Tracks()))
		if p.Prompt() != "" {
			r.writePlain("   prompt: %s\n", p.Prompt())
		}
		r.writePlain("   id: %s\n", p.ID())
	}

	return nil
}

// PlaylistsShow prints one saved playlist with its tracks.
func (r *Runner) PlaylistsShow(ctx context.Context, cmd *cli.Command) error {
	record, db, err := r.getPlaylist(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	defer db.Close()

	r.writePlainHeader(record.Name())
	if record.Prompt() != "" {
		r.writePlain("Prompt: %s\n\n", record.Prompt())
	}
	for i, track := range record.Tracks() {
		r.writePlain("%d. %s - %s [%s]\n", i+1, track.Artist, track.Title, shared.FormatClock(float64(track.Duration)))
	}

	return nil
}

// PlaylistsDelete removes a saved playlist.
func (r *Runner) PlaylistsDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: playlist ID is required", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repositories.NewPlaylistRepository(db).Delete(id); err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	r.writePlain("Deleted playlist %s\n", id)
	return nil
}

// PlaylistsExport writes a saved playlist to CSV, Markdown or plain text.
func (r *Runner) PlaylistsExport(ctx context.Context, cmd *cli.Command) error {
	record, db, err := r.getPlaylist(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	defer db.Close()

	return r.exportTracks(record.Name(), record.Prompt(), cmd.String("format"), cmd.String("output"), record.Tracks())
}

// getPlaylist loads one playlist record; the caller owns the returned db.
func (r *Runner) getPlaylist(id string) (*models.PlaylistRecord, *sql.DB, error) {
	if id == "" {
		return nil, nil, fmt.Errorf("%w: playlist ID is required", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return nil, nil, err
	}

	record, err := repositories.NewPlaylistRepository(db).Get(id)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to load playlist: %w", err)
	}
	return record, db, nil
}

// exportTracks dispatches on the export format shared by likes and playlists.
func (r *Runner) exportTracks(name, prompt, format, output string, tracks []models.Track) error {
	switch format {
	case "csv":
		file, err := formatter.WriteCSVExport(name, tracks, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d tracks to %s\n", len(tracks), file)
	case "md", "markdown":
		coverURL := ""
		if len(tracks) > 0 {
			coverURL = tracks[0].CoverURL
		}
		result, err := formatter.WriteMarkdownExport(name, prompt, tracks, output, coverURL)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d tracks to %s\n", len(tracks), result.Directory)
	case "txt", "text":
		file, err := formatter.WriteTextExport(name, tracks, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d tracks to %s\n", len(tracks), file)
	default:
		return fmt.Errorf("%w: unknown format %q (must be csv, md or txt)", shared.ErrInvalidArgument, format)
	}

	return nil
}
