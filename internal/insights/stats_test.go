package insights_test

import (
	"testing"

	"watchwise/internal/insights"
	"watchwise/models"
)

func statByKey(t *testing.T, stats []models.Stat, key string) models.Stat {
	t.Helper()
	for _, s := range stats {
		if s.Key == key {
			return s
		}
	}
	t.Fatalf("stat %q not found", key)
	return models.Stat{}
}

func TestComputeCounts(t *testing.T) {
	src := insights.Sources{
		Items: []models.WatchlistItem{
			{ID: "1", Status: models.StatusWatching},
			{ID: "2", Status: models.StatusFinished},
			{ID: "3", Status: models.StatusWatching},
			{ID: "4", Status: models.StatusPlanned},
		},
		Services: []models.Service{
			{Code: "netflix", Active: true},
			{Code: "hulu", Active: false},
			{Code: "max", Active: true},
		},
		Available: []models.Match{{Item: models.WatchlistItem{ID: "1"}}},
	}

	stats := insights.Compute(src)
	if len(stats) != 5 {
		t.Fatalf("expected 5 stats, got %d", len(stats))
	}
	want := map[string]int{
		models.StatWatchlistItems:    4,
		models.StatCurrentlyWatching: 2,
		models.StatAvailable:         1,
		models.StatFinished:          1,
		models.StatServicesConnected: 2,
	}
	for key, value := range want {
		if got := statByKey(t, stats, key).Value; got != value {
			t.Fatalf("%s: expected %d, got %d", key, value, got)
		}
	}
	if stats[0].Key != models.StatWatchlistItems || stats[4].Key != models.StatServicesConnected {
		t.Fatalf("unexpected stat order: %+v", stats)
	}
}

func TestLoadingFlagsAreIndependent(t *testing.T) {
	stats := insights.Compute(insights.Sources{AvailabilityLoading: true})
	if statByKey(t, stats, models.StatFinished).Loading {
		t.Fatal("finished titles must not wait for availability")
	}
	if statByKey(t, stats, models.StatServicesConnected).Loading {
		t.Fatal("services connected must not wait for availability")
	}
	if !statByKey(t, stats, models.StatAvailable).Loading {
		t.Fatal("available count should be loading while availability resolves")
	}

	stats = insights.Compute(insights.Sources{ServicesLoading: true})
	if statByKey(t, stats, models.StatWatchlistItems).Loading {
		t.Fatal("watchlist count must not wait for services")
	}
	if !statByKey(t, stats, models.StatServicesConnected).Loading {
		t.Fatal("services count should be loading")
	}
	if !statByKey(t, stats, models.StatAvailable).Loading {
		t.Fatal("available count depends on services")
	}
}

func TestSortServices(t *testing.T) {
	in := []models.Service{
		{Code: "max", Name: "Max", Active: false},
		{Code: "netflix", Name: "netflix", Active: true},
		{Code: "hulu", Name: "Hulu", Active: true},
		{Code: "apple", Name: "Apple TV+", Active: false},
	}
	out := insights.SortServices(in)
	got := []string{out[0].Code, out[1].Code, out[2].Code, out[3].Code}
	want := []string{"hulu", "netflix", "apple", "max"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
	if in[0].Code != "max" {
		t.Fatal("SortServices must not reorder its input")
	}
}

func TestSortServicesFoldsCase(t *testing.T) {
	out := insights.SortServices([]models.Service{
		{Code: "strasz", Name: "Strasz", Active: true},
		{Code: "strasse", Name: "Straße", Active: true},
	})
	if out[0].Code != "strasse" {
		t.Fatalf("expected folded name %q first, got %q", "Straße", out[0].Name)
	}
}
