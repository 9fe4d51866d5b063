// Package media wraps the embedded third-party media player.
//
// Backend is the low-level contract of the embedded player process; Bridge
// implements it over a newline-delimited JSON IPC socket. Adapter sits on
// top of a Backend and gives the playback engine the contract it needs:
// commands issued before the backend is ready are remembered and re-applied
// on readiness, positions are polled on a short interval while a track is
// loaded, and load failures surface as explicit events instead of hangs.
//
// Every adapter event carries the generation token of the load it belongs
// to, so a consumer can discard callbacks from superseded loads.
package media
