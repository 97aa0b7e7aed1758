package models

// AccessTier classifies how a provider offers a title.
type AccessTier string

const (
	AccessSubscription AccessTier = "subscription"
	AccessFree         AccessTier = "free"
	AccessAds          AccessTier = "ads"
)

// Provider is one streaming provider currently offering a title.
type Provider struct {
	Code        string       `json:"code"`
	Name        string       `json:"name"`
	LogoPath    string       `json:"logo_path,omitempty"`
	Link        string       `json:"link,omitempty"`
	AccessTiers []AccessTier `json:"access,omitempty"`
}

// AvailabilityRecord is the resolved availability of one watchlist item.
type AvailabilityRecord struct {
	ItemID                string     `json:"item_id"`
	Region                string     `json:"region"`
	Providers             []Provider `json:"providers"`
	UnmatchedServiceNames []string   `json:"unmatched_user_services"`
}

// ResolutionState is the lifecycle of availability resolution for one item.
type ResolutionState string

const (
	ResolutionUnresolved ResolutionState = "unresolved"
	ResolutionLoading    ResolutionState = "loading"
	ResolutionResolved   ResolutionState = "resolved"
	ResolutionFailed     ResolutionState = "failed"
)

// ItemAvailability is the externally visible resolution state of one item.
type ItemAvailability struct {
	ItemID string              `json:"item_id"`
	State  ResolutionState     `json:"state"`
	Record *AvailabilityRecord `json:"record,omitempty"`
	Error  string              `json:"error,omitempty"`
}
