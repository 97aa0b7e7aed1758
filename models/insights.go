package models

// TierGroup lists the matching providers offering a title under one tier.
type TierGroup struct {
	Tier      AccessTier `json:"tier"`
	Providers []Provider `json:"providers"`
}

// Match is a watchlist item streamable on at least one active service.
type Match struct {
	Item      WatchlistItem `json:"item"`
	Providers []Provider    `json:"providers"`
	Groups    []TierGroup   `json:"groups"`
}

// Stat keys in display order.
const (
	StatWatchlistItems    = "watchlist_items"
	StatCurrentlyWatching = "currently_watching"
	StatAvailable         = "available_to_stream"
	StatFinished          = "finished_titles"
	StatServicesConnected = "services_connected"
)

// Stat is one derived dashboard counter.
type Stat struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Value   int    `json:"value"`
	Loading bool   `json:"loading"`
}
