// Package reconcile joins watchlist items, the user's active services and
// per-item availability records into the "available for you" view.
//
// Everything here is pure: no I/O and no shared state, so callers may memoise
// the output on the identity of the inputs.
package reconcile

import (
	"sort"
	"strings"

	"watchwise/models"

	"golang.org/x/text/cases"
)

// DefaultHeadlineSize is the number of matches shown in compact views.
const DefaultHeadlineSize = 5

// NormalizeCode canonicalises provider and service codes for comparison.
func NormalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// ActiveCodes returns the set of codes for services marked active.
func ActiveCodes(services []models.Service) map[string]struct{} {
	codes := make(map[string]struct{}, len(services))
	for _, svc := range services {
		if !svc.Active {
			continue
		}
		if code := NormalizeCode(svc.Code); code != "" {
			codes[code] = struct{}{}
		}
	}
	return codes
}

// DedupProviders merges providers sharing a code into a single entry carrying
// the union of their access tiers. The first non-empty name, logo and link win.
// Output order follows first appearance.
func DedupProviders(in []models.Provider) []models.Provider {
	if len(in) == 0 {
		return nil
	}
	index := make(map[string]int, len(in))
	out := make([]models.Provider, 0, len(in))
	for _, p := range in {
		code := NormalizeCode(p.Code)
		if code == "" {
			continue
		}
		i, ok := index[code]
		if !ok {
			merged := p
			merged.Code = code
			merged.AccessTiers = append([]models.AccessTier(nil), p.AccessTiers...)
			index[code] = len(out)
			out = append(out, merged)
			continue
		}
		existing := &out[i]
		if existing.Name == "" {
			existing.Name = p.Name
		}
		if existing.LogoPath == "" {
			existing.LogoPath = p.LogoPath
		}
		if existing.Link == "" {
			existing.Link = p.Link
		}
		existing.AccessTiers = append(existing.AccessTiers, p.AccessTiers...)
	}
	for i := range out {
		out[i].AccessTiers = NormalizeTiers(out[i].AccessTiers)
	}
	return out
}

// Reconcile returns every item that is streamable on at least one active
// service, in watchlist order. Items without a record are skipped.
func Reconcile(items []models.WatchlistItem, services []models.Service, records map[string]models.AvailabilityRecord) []models.Match {
	active := ActiveCodes(services)
	if len(items) == 0 || len(active) == 0 || len(records) == 0 {
		return []models.Match{}
	}

	sorter := newNameSorter()
	matches := make([]models.Match, 0)
	for _, item := range items {
		record, ok := records[item.ID]
		if !ok {
			continue
		}
		providers := filterActive(DedupProviders(record.Providers), active)
		if len(providers) == 0 {
			continue
		}
		sorter.sortByTier(providers)
		matches = append(matches, models.Match{
			Item:      item,
			Providers: providers,
			Groups:    groupByTier(providers, sorter),
		})
	}
	return matches
}

// Headline returns at most n leading matches without re-deriving the order.
func Headline(matches []models.Match, n int) []models.Match {
	if n < 0 {
		n = 0
	}
	if len(matches) <= n {
		return matches
	}
	return matches[:n]
}

// GroupByTier groups providers under each tier they carry, in TierOrder.
// Empty groups are omitted.
func GroupByTier(providers []models.Provider) []models.TierGroup {
	return groupByTier(DedupProviders(providers), newNameSorter())
}

func filterActive(providers []models.Provider, active map[string]struct{}) []models.Provider {
	out := providers[:0]
	for _, p := range providers {
		if _, ok := active[p.Code]; ok {
			out = append(out, p)
		}
	}
	return out
}

func groupByTier(providers []models.Provider, sorter *nameSorter) []models.TierGroup {
	groups := make([]models.TierGroup, 0, len(TierOrder))
	for _, tier := range TierOrder {
		var members []models.Provider
		for _, p := range providers {
			for _, t := range p.AccessTiers {
				if t == tier {
					members = append(members, p)
					break
				}
			}
		}
		if len(members) == 0 {
			continue
		}
		sorter.sortByName(members)
		groups = append(groups, models.TierGroup{Tier: tier, Providers: members})
	}
	return groups
}

// nameSorter orders providers by case-folded display name, then code.
// A cases.Caser is stateful, so each reconciliation builds its own.
type nameSorter struct {
	caser cases.Caser
	keys  map[string]string
}

func newNameSorter() *nameSorter {
	return &nameSorter{caser: cases.Fold(), keys: make(map[string]string)}
}

func (s *nameSorter) key(p models.Provider) string {
	if k, ok := s.keys[p.Name]; ok {
		return k
	}
	k := s.caser.String(p.Name)
	s.keys[p.Name] = k
	return k
}

func (s *nameSorter) less(a, b models.Provider) bool {
	ka, kb := s.key(a), s.key(b)
	if ka != kb {
		return ka < kb
	}
	return a.Code < b.Code
}

func (s *nameSorter) sortByName(providers []models.Provider) {
	sort.SliceStable(providers, func(i, j int) bool {
		return s.less(providers[i], providers[j])
	})
}

func (s *nameSorter) sortByTier(providers []models.Provider) {
	sort.SliceStable(providers, func(i, j int) bool {
		ri, rj := Rank(providers[i].AccessTiers[0]), Rank(providers[j].AccessTiers[0])
		if ri != rj {
			return ri < rj
		}
		return s.less(providers[i], providers[j])
	})
}
