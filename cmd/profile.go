package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/aria-player/aria/internal/shared"
)

// Profile shows the signed-in user's listening profile.
func (r *Runner) Profile(ctx context.Context, cmd *cli.Command) error {
	if r.remote == nil {
		return fmt.Errorf("%w: sign in by setting credentials.remote in config.toml", shared.ErrNotAuthenticated)
	}

	profile, err := r.remote.FetchProfile(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch profile: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(profile, true)
	}

	r.writePlainHeader(profile.Username)
	if profile.FullName != "" {
		r.writePlain("Name: %s\n", profile.FullName)
	}
	hours := profile.MinutesListened / 60
	minutes := profile.MinutesListened % 60
	r.writePlain("Listening time: %dh %dm\n", hours, minutes)

	return nil
}
