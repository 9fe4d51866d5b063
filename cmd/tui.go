package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/aria-player/aria/internal/library"
	"github.com/aria-player/aria/internal/media"
	"github.com/aria-player/aria/internal/player"
	"github.com/aria-player/aria/internal/shared"
	"github.com/aria-player/aria/internal/tasks"
	"github.com/aria-player/aria/internal/ui"
)

// Play launches the interactive player TUI on top of the media backend.
func (r *Runner) Play(ctx context.Context, cmd *cli.Command) error {
	socket := cmd.String("socket")
	if socket == "" {
		socket = r.config.Player.Socket
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/aria-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	backend, err := media.DialBridge(socket, fileLogger)
	if err != nil {
		return fmt.Errorf("failed to reach media backend at %s: %w", socket, err)
	}

	adapter := media.NewAdapter(backend, fileLogger)
	engine := player.NewEngine(player.EngineOpts{
		Adapter: adapter,
		Logger:  fileLogger,
		Volume:  r.config.Player.Volume,
	})
	adapter.Bind(media.Events{
		OnReady:         engine.HandleReady,
		OnStateChange:   engine.HandleStateChange,
		OnTimeTick:      engine.HandleTimeTick,
		OnDurationKnown: engine.HandleDurationKnown,
		OnLoadError:     engine.HandleLoadError,
	})

	likes := r.likeStore(db, fileLogger)
	likes.Load(ctx)

	listening := library.NewAccumulator(r.profileSink(), fileLogger)

	facade := player.NewFacade(player.FacadeOpts{
		Engine:    engine,
		Likes:     likes,
		Listening: listening,
		Logger:    fileLogger,
	})
	defer facade.Close()

	var curatorEngine *tasks.CuratorEngine
	if r.curator != nil {
		curatorEngine = tasks.NewCuratorEngine(r.curator, r.catalog, r.localLikes(db))
	}

	model := ui.NewModel(ctx, facade, r.catalog, curatorEngine)
	p := tea.NewProgram(model, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
