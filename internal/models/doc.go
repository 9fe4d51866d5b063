// Package models defines the data model for the music player.
//
// Track is the unit of playback everywhere in the app: the queue, the like
// store, playlist records and service boundaries all traffic in Track values.
// Persisted wrappers (LikedTrack, PlaylistRecord) add identity and lifecycle
// metadata for the local fallback database.
package models
