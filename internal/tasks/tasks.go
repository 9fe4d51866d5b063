// package tasks implements the AI playlist curation flow.
//
// The core abstraction is CuratorEngine, which turns a natural-language
// prompt into a playable playlist: the curator proposes tracks, then each
// suggestion is resolved against the user's own library first and the public
// catalog second. Operations emit progress updates via channels for
// non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/aria-player/aria/internal/models"
	"github.com/aria-player/aria/internal/services"
	"github.com/aria-player/aria/internal/shared"
)

// resolveWorkers bounds concurrent catalog lookups during resolution.
const resolveWorkers = 4

// LocalLibrary lists the user's own tracks available for curation.
type LocalLibrary interface {
	All() ([]models.Track, error)
}

// SuggestionResult represents the outcome of resolving a single suggestion.
type SuggestionResult struct {
	Suggestion models.Suggestion // Original curator suggestion
	Resolved   *models.Track     // Resolved playable track (nil if not found)
	Error      error             // Error if resolution failed
}

// CuratorRunResult contains all data from a full curation run.
type CuratorRunResult struct {
	Name          string             // Playlist name chosen by the curator
	Prompt        string             // Originating prompt
	Results       []SuggestionResult // Per-suggestion outcomes, in curator order
	Tracks        []models.Track     // Resolved tracks, in curator order
	ResolvedCount int                // Suggestions that produced a playable track
	FailedCount   int                // Suggestions with no playable match
	Total         int                // Total suggestions proposed
}

// CuratorEngine orchestrates prompt-to-playlist curation.
type CuratorEngine struct {
	curator services.Curator
	catalog services.Catalog
	local   LocalLibrary
}

// NewCuratorEngine creates a new CuratorEngine with the provided services.
// local may be nil when no local library exists.
func NewCuratorEngine(curator services.Curator, catalog services.Catalog, local LocalLibrary) *CuratorEngine {
	return &CuratorEngine{
		curator: curator,
		catalog: catalog,
		local:   local,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *CuratorEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Run performs a full curation: prompt to suggestions to resolved tracks.
//
// A run only fails when the curator itself fails; individual suggestions
// that cannot be resolved are recorded and skipped.
func (e *CuratorEngine) Run(ctx context.Context, prompt string, progress chan<- ProgressUpdate) (*CuratorRunResult, error) {
	if e.curator == nil {
		return nil, fmt.Errorf("%w: curator not initialized", shared.ErrServiceUnavailable)
	}
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	e.sendProgress(progress, gatherLibraryUpdate())
	localTracks := e.localTracks()

	e.sendProgress(progress, promptingUpdate(prompt))
	idea, err := e.curator.Suggest(ctx, prompt, localTracks)
	if err != nil {
		return nil, fmt.Errorf("curation failed: %w", err)
	}

	total := len(idea.Suggestions)
	result := &CuratorRunResult{
		Name:    idea.Name,
		Prompt:  prompt,
		Results: make([]SuggestionResult, total),
		Total:   total,
	}

	e.sendProgress(progress, resolvingUpdate(0, total, nil))

	// Worker pool with indexed results: lookups run concurrently, the
	// playlist keeps the curator's order.
	type job struct {
		index      int
		suggestion models.Suggestion
	}

	localByKey := make(map[string]models.Track, len(localTracks))
	for _, t := range localTracks {
		localByKey[shared.NormalizeTrackKey(t.Title, t.Artist)] = t
	}

	jobs := make(chan job, total)
	var wg sync.WaitGroup

	for range resolveWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				e.sendProgress(progress, resolvingUpdate(j.index+1, total, &j.suggestion))
				resolved, err := e.resolve(ctx, j.suggestion, localByKey)
				result.Results[j.index] = SuggestionResult{
					Suggestion: j.suggestion,
					Resolved:   resolved,
					Error:      err,
				}
			}
		}()
	}

	for i, s := range idea.Suggestions {
		jobs <- job{index: i, suggestion: s}
	}
	close(jobs)
	wg.Wait()

	for _, r := range result.Results {
		if r.Resolved != nil {
			result.Tracks = append(result.Tracks, *r.Resolved)
			result.ResolvedCount++
		} else {
			result.FailedCount++
		}
	}

	e.sendProgress(progress, resolvedUpdate(result.ResolvedCount, total))
	return result, nil
}

// resolve finds a playable track for one suggestion: the local library by
// normalized title/artist key first, then the catalog's best match.
func (e *CuratorEngine) resolve(ctx context.Context, s models.Suggestion, localByKey map[string]models.Track) (*models.Track, error) {
	if t, ok := localByKey[shared.NormalizeTrackKey(s.Title, s.Artist)]; ok {
		return &t, nil
	}
	if s.IsLocal {
		// The curator claimed a library track that is not actually there;
		// fall through to the catalog rather than dropping it.
		s.IsLocal = false
	}

	matches, err := e.catalog.SearchTracks(ctx, s.Title+" "+s.Artist)
	if err != nil {
		return nil, fmt.Errorf("catalog lookup failed: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: %s by %s", shared.ErrTrackNotFound, s.Title, s.Artist)
	}

	t := matches[0]
	return &t, nil
}

// localTracks loads the user's library, degrading to empty on failure.
func (e *CuratorEngine) localTracks() []models.Track {
	if e.local == nil {
		return nil
	}
	tracks, err := e.local.All()
	if err != nil {
		return nil
	}
	return tracks
}
