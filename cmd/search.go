package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/aria-player/aria/internal/shared"
)

// Search searches the public catalog and prints playable matches.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	term := cmd.StringArg("term")
	if strings.TrimSpace(term) == "" {
		return fmt.Errorf("%w: search term is required", shared.ErrMissingArgument)
	}
	if r.catalog == nil {
		return fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	r.logger.Info("searching catalog", "term", term)

	tracks, err := r.catalog.SearchTracks(ctx, term)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	if len(tracks) == 0 {
		r.writePlain("No playable tracks found for %q\n", term)
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("Results for %q", term))
	for i, track := range tracks {
		r.writePlain("%d. %s - %s", i+1, track.Artist, track.Title)
		if track.Album != "" {
			r.writePlain(" (%s)", track.Album)
		}
		r.writePlain(" [%s]\n", shared.FormatClock(float64(track.Duration)))
	}

	return nil
}
