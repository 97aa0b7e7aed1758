package reconcile_test

import (
	"testing"

	"watchwise/internal/reconcile"
	"watchwise/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func movie(id string, externalID int) models.WatchlistItem {
	return models.WatchlistItem{ID: id, Title: "Title " + id, Type: models.MediaTypeMovie, Status: models.StatusPlanned, ExternalID: externalID}
}

func tiers(t ...models.AccessTier) []models.AccessTier { return t }

func TestReconcileSingleMatch(t *testing.T) {
	items := []models.WatchlistItem{movie("a", 101)}
	services := []models.Service{{Code: "netflix", Name: "Netflix", Active: true}}
	records := map[string]models.AvailabilityRecord{
		"a": {
			ItemID: "a",
			Region: "US",
			Providers: []models.Provider{
				{Code: "netflix", Name: "Netflix", AccessTiers: tiers(models.AccessSubscription)},
			},
		},
	}

	matches := reconcile.Reconcile(items, services, records)
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].Item.ID)
	require.Len(t, matches[0].Providers, 1)
	assert.Equal(t, "netflix", matches[0].Providers[0].Code)
	require.Len(t, matches[0].Groups, 1)
	assert.Equal(t, models.AccessSubscription, matches[0].Groups[0].Tier)
}

func TestReconcileNoActiveServices(t *testing.T) {
	items := []models.WatchlistItem{movie("a", 101)}
	services := []models.Service{{Code: "netflix", Name: "Netflix", Active: false}}
	records := map[string]models.AvailabilityRecord{
		"a": {ItemID: "a", Providers: []models.Provider{{Code: "netflix", Name: "Netflix"}}},
	}

	assert.Empty(t, reconcile.Reconcile(items, services, records))
	assert.Empty(t, reconcile.Reconcile(items, nil, records))
}

func TestReconcileSkipsItemsWithoutActiveMatch(t *testing.T) {
	items := []models.WatchlistItem{movie("a", 1), movie("b", 2), movie("c", 3)}
	services := []models.Service{{Code: "hulu", Active: true}, {Code: "max", Active: false}}
	records := map[string]models.AvailabilityRecord{
		"a": {Providers: []models.Provider{{Code: "max", Name: "Max"}}},
		"b": {Providers: []models.Provider{{Code: "HULU", Name: "Hulu"}, {Code: "max", Name: "Max"}}},
	}

	matches := reconcile.Reconcile(items, services, records)
	require.Len(t, matches, 1)
	assert.Equal(t, "b", matches[0].Item.ID)
	require.Len(t, matches[0].Providers, 1)
	assert.Equal(t, "hulu", matches[0].Providers[0].Code)
}

func TestDedupMergesTiersAndIsIdempotent(t *testing.T) {
	in := []models.Provider{
		{Code: "prime_video", Name: "Prime Video", AccessTiers: tiers(models.AccessAds)},
		{Code: "netflix", Name: "Netflix"},
		{Code: "prime_video", Name: "", LogoPath: "/p.png", AccessTiers: tiers(models.AccessSubscription, models.AccessAds)},
	}

	once := reconcile.DedupProviders(in)
	require.Len(t, once, 2)
	assert.Equal(t, "prime_video", once[0].Code)
	assert.Equal(t, "Prime Video", once[0].Name)
	assert.Equal(t, "/p.png", once[0].LogoPath)
	assert.Equal(t, tiers(models.AccessSubscription, models.AccessAds), once[0].AccessTiers)
	assert.Equal(t, tiers(models.AccessSubscription), once[1].AccessTiers, "missing tier defaults to subscription")

	twice := reconcile.DedupProviders(once)
	assert.Equal(t, once, twice)
	assert.Equal(t, reconcile.GroupByTier(once), reconcile.GroupByTier(twice))
}

func TestGroupsFollowTierOrderAndOmitEmpty(t *testing.T) {
	in := []models.Provider{
		{Code: "tubi", Name: "Tubi", AccessTiers: tiers(models.AccessAds)},
		{Code: "pluto", Name: "pluto tv", AccessTiers: tiers(models.AccessAds)},
		{Code: "prime_video", Name: "Prime Video", AccessTiers: tiers(models.AccessAds, models.AccessSubscription)},
		{Code: "netflix", Name: "Netflix", AccessTiers: tiers(models.AccessSubscription)},
	}

	groups := reconcile.GroupByTier(in)
	require.Len(t, groups, 2)
	assert.Equal(t, models.AccessSubscription, groups[0].Tier)
	assert.Equal(t, models.AccessAds, groups[1].Tier)

	var subs, ads []string
	for _, p := range groups[0].Providers {
		subs = append(subs, p.Code)
	}
	for _, p := range groups[1].Providers {
		ads = append(ads, p.Code)
	}
	assert.Equal(t, []string{"netflix", "prime_video"}, subs)
	assert.Equal(t, []string{"pluto", "prime_video", "tubi"}, ads, "case-insensitive name order")
}

func TestProvidersSortedByPrimaryTierThenName(t *testing.T) {
	items := []models.WatchlistItem{movie("a", 1)}
	services := []models.Service{{Code: "a1", Active: true}, {Code: "b1", Active: true}, {Code: "c1", Active: true}, {Code: "d1", Active: true}}
	records := map[string]models.AvailabilityRecord{
		"a": {Providers: []models.Provider{
			{Code: "d1", Name: "Same", AccessTiers: tiers(models.AccessFree)},
			{Code: "a1", Name: "Zeta", AccessTiers: tiers(models.AccessAds)},
			{Code: "c1", Name: "Same", AccessTiers: tiers(models.AccessFree)},
			{Code: "b1", Name: "alpha", AccessTiers: tiers("premium")},
		}},
	}

	matches := reconcile.Reconcile(items, services, records)
	require.Len(t, matches, 1)
	var codes []string
	for _, p := range matches[0].Providers {
		codes = append(codes, p.Code)
	}
	assert.Equal(t, []string{"b1", "c1", "d1", "a1"}, codes)
}

func TestHeadlineIsPrefix(t *testing.T) {
	matches := make([]models.Match, 7)
	for i := range matches {
		matches[i].Item.ID = string(rune('a' + i))
	}
	head := reconcile.Headline(matches, reconcile.DefaultHeadlineSize)
	require.Len(t, head, 5)
	assert.Equal(t, matches[:5], head)
	assert.Len(t, reconcile.Headline(matches[:2], 5), 2)
	assert.Empty(t, reconcile.Headline(matches, -1))
}

func TestNormalizeTiers(t *testing.T) {
	assert.Equal(t, tiers(models.AccessSubscription), reconcile.NormalizeTiers(nil))
	assert.Equal(t, tiers(models.AccessSubscription), reconcile.NormalizeTiers(tiers("rent")))
	assert.Equal(t, tiers(models.AccessFree, models.AccessAds), reconcile.NormalizeTiers(tiers(models.AccessAds, models.AccessFree, models.AccessAds)))
	assert.Equal(t, models.AccessFree, reconcile.PrimaryTier(models.Provider{AccessTiers: tiers(models.AccessAds, models.AccessFree)}))
	assert.Equal(t, 3, reconcile.Rank("rent"))
}
