package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/aria-player/aria/internal/models"
	"github.com/aria-player/aria/internal/repositories"
	"github.com/aria-player/aria/internal/shared"
	"github.com/aria-player/aria/internal/tasks"
)

// Curate generates a playlist from a natural-language prompt, resolving the
// curator's suggestions against the local library and the public catalog.
func (r *Runner) Curate(ctx context.Context, cmd *cli.Command) error {
	prompt := cmd.StringArg("prompt")
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("%w: prompt is required", shared.ErrMissingArgument)
	}
	if r.curator == nil {
		return fmt.Errorf("%w: curator not configured, set credentials.gemini.api_key", shared.ErrServiceUnavailable)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	engine := tasks.NewCuratorEngine(r.curator, r.catalog, r.localLikes(db))

	r.logger.Info("starting curation", "prompt", prompt)
	r.writePlain("Curating: %s\n\n", prompt)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.GatherLibrary, tasks.Prompting:
				r.writePlain("🎵 %s\n", update.Message)
			case tasks.Resolving:
				if update.Step == 0 {
					r.writePlain("\n🔍 %s\n", update.Message)
				} else {
					r.writePlain("   %s\n", update.Message)
				}
			}
		}
	}()

	result, err := engine.Run(ctx, prompt, progressCh)
	close(progressCh)

	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(result, true)
	}

	r.writePlain("\n")
	r.writePlainHeader(result.Name)
	r.writePlain("Resolved: %d/%d suggestions\n\n", result.ResolvedCount, result.Total)

	for i, track := range result.Tracks {
		r.writePlain("%d. %s - %s [%s]\n", i+1, track.Artist, track.Title, shared.FormatClock(float64(track.Duration)))
	}

	if result.FailedCount > 0 {
		r.writePlain("\nNo playable match for %d suggestions:\n", result.FailedCount)
		for _, res := range result.Results {
			if res.Error != nil {
				r.writePlain("  - %s - %s\n", res.Suggestion.Artist, res.Suggestion.Title)
			}
		}
	}

	if cmd.Bool("save") {
		if err := r.saveCurated(ctx, repositories.NewPlaylistRepository(db), result); err != nil {
			return err
		}
	}

	return nil
}

// saveCurated persists a curation result locally and mirrors it remotely
// when signed in.
func (r *Runner) saveCurated(ctx context.Context, repo *repositories.PlaylistRepository, result *tasks.CuratorRunResult) error {
	record := models.NewPlaylistRecord(0, result.Name, result.Prompt, result.Tracks)
	if err := repo.Create(record); err != nil {
		return fmt.Errorf("failed to save playlist: %w", err)
	}
	r.writePlain("\n✓ Saved playlist %q (%s)\n", result.Name, record.ID())

	if r.remote != nil {
		if err := r.remote.SavePlaylist(ctx, result.Name, result.Prompt, result.Tracks); err != nil {
			r.logger.Warn("remote playlist save failed, kept local copy", "err", err)
		}
	}
	return nil
}
