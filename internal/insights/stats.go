// Package insights derives dashboard counters from the watchlist, the user's
// services and the reconciled availability view. Nothing here is stored; it is
// recomputed from its sources every time.
package insights

import (
	"sort"

	"watchwise/models"

	"golang.org/x/text/cases"
)

// Sources is the snapshot every counter is derived from.
type Sources struct {
	Items     []models.WatchlistItem
	Services  []models.Service
	Available []models.Match

	WatchlistLoading    bool
	ServicesLoading     bool
	AvailabilityLoading bool
}

// AvailableSectionLoading reports whether the available-for-you view is still
// waiting on any of its inputs.
func (s Sources) AvailableSectionLoading() bool {
	return s.WatchlistLoading || s.ServicesLoading || s.AvailabilityLoading
}

// Compute returns the dashboard counters in display order. Each loading flag
// only reflects the sources that counter depends on.
func Compute(src Sources) []models.Stat {
	return []models.Stat{
		{
			Key:     models.StatWatchlistItems,
			Label:   "Watchlist Items",
			Value:   len(src.Items),
			Loading: src.WatchlistLoading,
		},
		{
			Key:     models.StatCurrentlyWatching,
			Label:   "Currently Watching",
			Value:   CountStatus(src.Items, models.StatusWatching),
			Loading: src.WatchlistLoading,
		},
		{
			Key:     models.StatAvailable,
			Label:   "Available to Stream",
			Value:   len(src.Available),
			Loading: src.AvailableSectionLoading(),
		},
		{
			Key:     models.StatFinished,
			Label:   "Finished Titles",
			Value:   CountStatus(src.Items, models.StatusFinished),
			Loading: src.WatchlistLoading,
		},
		{
			Key:     models.StatServicesConnected,
			Label:   "Services Connected",
			Value:   len(ActiveServices(src.Services)),
			Loading: src.ServicesLoading,
		},
	}
}

// CountStatus counts items with the given status.
func CountStatus(items []models.WatchlistItem, status models.WatchStatus) int {
	n := 0
	for _, item := range items {
		if item.Status == status {
			n++
		}
	}
	return n
}

// ActiveServices filters services down to the active ones, keeping order.
func ActiveServices(services []models.Service) []models.Service {
	out := make([]models.Service, 0, len(services))
	for _, svc := range services {
		if svc.Active {
			out = append(out, svc)
		}
	}
	return out
}

// SortServices returns a copy with active services first, then by name.
func SortServices(services []models.Service) []models.Service {
	out := append([]models.Service(nil), services...)
	fold := cases.Fold()
	keys := make(map[string]string, len(out))
	key := func(name string) string {
		k, ok := keys[name]
		if !ok {
			k = fold.String(name)
			keys[name] = k
		}
		return k
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Active != out[j].Active {
			return out[i].Active
		}
		return key(out[i].Name) < key(out[j].Name)
	})
	return out
}
