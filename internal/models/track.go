package models

// Track represents a playable item. Immutable once placed in the queue;
// replacing a track means removing and re-adding it.
//
// ID may be a catalog ID or a locally generated one. SourceRef is whatever
// reference the media backend needs to load the track (a URL or a
// backend-specific identifier).
type Track struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Album     string `json:"album,omitempty"`
	Genre     string `json:"genre,omitempty"`
	CoverURL  string `json:"cover_url,omitempty"`
	SourceRef string `json:"source_ref"`
	ViewURL   string `json:"view_url,omitempty"`
	Duration  int    `json:"duration,omitempty"` // seconds, hint only; the backend is authoritative
}

// Suggestion is one entry of an AI-curated playlist, to be resolved against
// the local library or the public catalog before it becomes playable.
type Suggestion struct {
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	Reason  string `json:"reason"`
	IsLocal bool   `json:"isLocal"`
}

// Profile represents the remote user profile record.
type Profile struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	FullName        string `json:"full_name"`
	AvatarURL       string `json:"avatar_url"`
	MinutesListened int    `json:"minutes_listened"`
}
