package tasks

import (
	"fmt"

	"github.com/aria-player/aria/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	GatherLibrary Phase = iota
	Prompting
	Resolving
	Resolved
)

func (p Phase) String() string {
	switch p {
	case GatherLibrary:
		return "gather_library"
	case Prompting:
		return "prompting"
	case Resolving:
		return "resolving"
	case Resolved:
		return "resolved"
	default:
		return ""
	}
}

func gatherLibraryUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   GatherLibrary,
		Step:    1,
		Total:   1,
		Message: "Gathering local library...",
	}
}

func promptingUpdate(prompt string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Prompting,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Asking the curator: %s", prompt),
	}
}

func resolvingUpdate(step, total int, s *models.Suggestion) ProgressUpdate {
	if s == nil {
		return ProgressUpdate{
			Phase:   Resolving,
			Step:    step,
			Total:   total,
			Message: "Resolving suggestions against the catalog...",
		}
	}
	return ProgressUpdate{
		Phase:   Resolving,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s - %s", step, total, s.Artist, s.Title),
	}
}

func resolvedUpdate(resolved, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Resolved,
		Step:    resolved,
		Total:   total,
		Message: fmt.Sprintf("Resolved %d of %d suggestions", resolved, total),
	}
}
