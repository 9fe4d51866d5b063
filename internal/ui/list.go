package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"

	"github.com/aria-player/aria/internal/models"
	"github.com/aria-player/aria/internal/tasks"
)

var (
	_ list.Item = trackItem{}
	_ list.Item = suggestionItem{}
)

// trackItem wraps [models.Track] to implement [list.Item]. The marker
// distinguishes the queue entry that is currently loaded in the player.
type trackItem struct {
	track  models.Track
	marker string
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.marker + i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return desc
}

// suggestionItem wraps [tasks.SuggestionResult] to implement [list.Item],
// showing whether the curator's pick resolved to a playable track.
type suggestionItem struct {
	result tasks.SuggestionResult
}

func (i suggestionItem) FilterValue() string { return i.result.Suggestion.Title }

func (i suggestionItem) Title() string {
	mark := "✗"
	if i.result.Resolved != nil {
		mark = "✓"
	}
	return fmt.Sprintf("%s %s • %s", mark, i.result.Suggestion.Title, i.result.Suggestion.Artist)
}

func (i suggestionItem) Description() string {
	if i.result.Error != nil {
		return fmt.Sprintf("no match: %v", i.result.Error)
	}
	return i.result.Suggestion.Reason
}

// trackItems builds list items from tracks, marking the entry at current.
func trackItems(tracks []models.Track, current int) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		marker := ""
		if i == current {
			marker = "▸ "
		}
		items[i] = trackItem{track: t, marker: marker}
	}
	return items
}
