package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/aria-player/aria/internal/models"
	"github.com/aria-player/aria/internal/shared"
)

// LikesList prints the liked set: remote when signed in, local otherwise.
func (r *Runner) LikesList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	store := r.likeStore(db, r.logger)
	store.Load(ctx)
	tracks := store.Liked()

	if cmd.Bool("json") {
		return r.writeJSON(tracks, true)
	}

	if len(tracks) == 0 {
		r.writePlain("No liked tracks yet. Try 'aria likes add \"song name\"'\n")
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Liked Tracks (%d)", len(tracks)))
	for i, track := range tracks {
		r.writePlain("%d. %s - %s", i+1, track.Artist, track.Title)
		if track.Album != "" {
			r.writePlain(" (%s)", track.Album)
		}
		r.writePlain(" [%s]\n", shared.FormatClock(float64(track.Duration)))
	}

	return nil
}

// LikesAdd resolves a search term against the catalog and likes the best
// match. Unlike the player's toggle, the CLI writes synchronously so the
// command cannot exit before the store was updated.
func (r *Runner) LikesAdd(ctx context.Context, cmd *cli.Command) error {
	term := cmd.StringArg("term")
	if strings.TrimSpace(term) == "" {
		return fmt.Errorf("%w: search term is required", shared.ErrMissingArgument)
	}
	if r.catalog == nil {
		return fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	matches, err := r.catalog.SearchTracks(ctx, term)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("%w: no playable match for %q", shared.ErrTrackNotFound, term)
	}

	track := matches[0]
	if err := r.persistLike(ctx, track); err != nil {
		return err
	}

	r.writePlain("♥ Liked: %s - %s\n", track.Artist, track.Title)
	return nil
}

// LikesRemove removes a track from the liked set by its track ID.
func (r *Runner) LikesRemove(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: track ID is required", shared.ErrMissingArgument)
	}

	if r.remote != nil {
		if err := r.remote.DeleteLike(ctx, id); err != nil {
			return fmt.Errorf("failed to remove remote like: %w", err)
		}
	} else {
		db, err := r.openDatabase()
		if err != nil {
			return err
		}
		defer db.Close()

		if err := r.localLikes(db).Remove(id); err != nil {
			return fmt.Errorf("failed to remove like: %w", err)
		}
	}

	r.writePlain("Removed %s from liked tracks\n", id)
	return nil
}

// LikesExport writes the liked set to CSV, Markdown or plain text.
func (r *Runner) LikesExport(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	store := r.likeStore(db, r.logger)
	store.Load(ctx)
	tracks := store.Liked()

	if len(tracks) == 0 {
		return fmt.Errorf("%w: nothing to export", shared.ErrTrackNotFound)
	}

	return r.exportTracks("liked", "", cmd.String("format"), cmd.String("output"), tracks)
}

// persistLike writes one liked track through to the active store.
func (r *Runner) persistLike(ctx context.Context, track models.Track) error {
	if r.remote != nil {
		if err := r.remote.InsertLike(ctx, track); err != nil {
			return fmt.Errorf("failed to save remote like: %w", err)
		}
		return nil
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := r.localLikes(db).Put(track); err != nil {
		return fmt.Errorf("failed to save like: %w", err)
	}
	return nil
}
