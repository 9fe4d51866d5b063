package ui

import (
	"github.com/aria-player/aria/internal/models"
	"github.com/aria-player/aria/internal/tasks"
)

// tickMsg drives the transport refresh; the handler re-arms the timer.
type tickMsg struct{}

// searchDoneMsg carries the outcome of a catalog search.
type searchDoneMsg struct {
	tracks []models.Track
	err    error
}

// curateProgressMsg carries one progress update from a running curation.
type curateProgressMsg tasks.ProgressUpdate

// curateDoneMsg carries the final outcome of a curation run.
type curateDoneMsg struct {
	result *tasks.CuratorRunResult
	err    error
}
