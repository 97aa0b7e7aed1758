package reconcile

import "watchwise/models"

// TierOrder is the fixed priority of access tiers, strictest first.
var TierOrder = []models.AccessTier{
	models.AccessSubscription,
	models.AccessFree,
	models.AccessAds,
}

// DefaultTier is assumed for providers that declare no access tier.
const DefaultTier = models.AccessSubscription

// Rank returns the position of tier in TierOrder. Unknown tiers rank last.
func Rank(tier models.AccessTier) int {
	for i, t := range TierOrder {
		if t == tier {
			return i
		}
	}
	return len(TierOrder)
}

// KnownTier reports whether tier is one of TierOrder.
func KnownTier(tier models.AccessTier) bool {
	return Rank(tier) < len(TierOrder)
}

// NormalizeTiers returns the known tiers of in, deduplicated and in TierOrder.
// An empty result falls back to DefaultTier.
func NormalizeTiers(in []models.AccessTier) []models.AccessTier {
	var seen [3]bool
	for _, tier := range in {
		if r := Rank(tier); r < len(TierOrder) {
			seen[r] = true
		}
	}
	out := make([]models.AccessTier, 0, len(TierOrder))
	for i, ok := range seen {
		if ok {
			out = append(out, TierOrder[i])
		}
	}
	if len(out) == 0 {
		out = append(out, DefaultTier)
	}
	return out
}

// PrimaryTier is the strictest tier a provider is offered under.
func PrimaryTier(p models.Provider) models.AccessTier {
	return NormalizeTiers(p.AccessTiers)[0]
}
