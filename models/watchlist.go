package models

import "time"

// MediaType identifies whether a watchlist entry is a film or a series.
type MediaType string

const (
	MediaTypeMovie MediaType = "movie"
	MediaTypeShow  MediaType = "show"
)

// Valid reports whether the media type is one the backend understands.
func (m MediaType) Valid() bool {
	return m == MediaTypeMovie || m == MediaTypeShow
}

// WatchStatus tracks viewing progress for a watchlist entry.
type WatchStatus string

const (
	StatusPlanned  WatchStatus = "planned"
	StatusWatching WatchStatus = "watching"
	StatusFinished WatchStatus = "finished"
)

// Valid reports whether the status is one of the known values.
func (s WatchStatus) Valid() bool {
	switch s {
	case StatusPlanned, StatusWatching, StatusFinished:
		return true
	}
	return false
}

// Label returns the human readable form used in action messages.
func (s WatchStatus) Label() string {
	switch s {
	case StatusPlanned:
		return "Planned"
	case StatusWatching:
		return "Watching"
	case StatusFinished:
		return "Finished"
	}
	return string(s)
}

// WatchlistItem mirrors a title stored on the user's remote watchlist.
type WatchlistItem struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Type       MediaType   `json:"type"`
	Status     WatchStatus `json:"status"`
	Year       int         `json:"year,omitempty"`
	ExternalID int         `json:"tmdb_id,omitempty"` // title database id, 0 when unknown
	IMDBID     string      `json:"imdb_id,omitempty"`
	Tags       []string    `json:"tags,omitempty"`
	AddedAt    time.Time   `json:"added_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// HasExternalID reports whether availability can be resolved for the item.
func (w WatchlistItem) HasExternalID() bool {
	return w.ExternalID > 0
}

// ImportRowError describes one CSV row the backend rejected during import.
type ImportRowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ImportResult summarises a completed bulk import.
type ImportResult struct {
	Imported   int              `json:"imported"`
	Duplicates int              `json:"duplicates"`
	Errors     []ImportRowError `json:"errors,omitempty"`
}
