package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/aria-player/aria/internal/services"
	"github.com/aria-player/aria/internal/shared"
)

const configPath = "config.toml"

// buildRemoteStore returns the hosted store client, nil for anonymous
// sessions. Running anonymously by choice is silent; a failure while an
// access token is configured is logged so a signed-in user can tell why
// their likes went local.
func buildRemoteStore(ctx context.Context, config *shared.Config, logger *log.Logger) *services.RemoteStore {
	remote, err := services.NewRemoteStore(ctx, config.Credentials.Remote, logger)
	if err == nil {
		return remote
	}
	if config.Credentials.Remote.AccessToken != "" {
		logger.Warn("remote store unavailable, running locally", "err", err)
	}
	return nil
}

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "error", err)
		}
	}

	catalog := services.NewCatalogClient(config.Catalog, nil, logger)

	var curator services.Curator
	if c, err := services.NewGeminiCurator(config.Credentials.Gemini, nil, logger); err == nil {
		curator = c
	}

	remote := buildRemoteStore(context.Background(), config, logger)

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Catalog:    catalog,
		Curator:    curator,
		Remote:     remote,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "aria",
		Usage:    "Music player with liked tracks, catalog search & AI curation",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
