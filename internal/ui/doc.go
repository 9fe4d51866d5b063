// Package ui implements the interactive player interface using bubbletea's Elm architecture.
//
// The TUI is organized as four views over a persistent transport bar:
//  1. [QueueView] : Browse the play queue and jump to a track
//  2. [LikesView] : Browse liked tracks and play or enqueue them
//  3. [SearchView] : Search the public catalog and add results to the queue
//  4. [CurateView] : Describe a playlist in natural language and monitor curation
//
// The [Model] implements bubbletea/Elm's standard Init/Update/View pattern. A
// half-second tick refreshes the playback snapshot from the facade, so the
// transport bar tracks position without the engine knowing about the UI.
// Curation progress flows through a channel from the CuratorEngine, providing
// non-blocking status reporting while suggestions resolve.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) plus
// transport keys (space, n/p, arrows) with contextual help displayed via
// charmbracelet/bubbles/help.
package ui
