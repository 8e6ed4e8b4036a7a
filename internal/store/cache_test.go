package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"options-backtester/internal/models"
)

func newTestCache(t *testing.T) *ObservationCache {
	t.Helper()
	cache, err := NewObservationCache(filepath.Join(t.TempDir(), "observations.db"))
	if err != nil {
		t.Fatalf("NewObservationCache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })
	return cache
}

func testObservation(date string, price string) models.Observation {
	day, err := time.ParseInLocation("2006-01-02", date, time.UTC)
	if err != nil {
		panic(err)
	}
	p := decimal.RequireFromString(price)
	return models.Observation{
		Symbol:    "SPY",
		Timestamp: day,
		Price:     p,
		Bid:       p.Sub(decimal.RequireFromString("0.1")),
		Ask:       p.Add(decimal.RequireFromString("0.1")),
		Volume:    1000000,
	}
}

func TestCachePutGetRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	put := []models.Observation{
		testObservation("2024-01-02", "472.65"),
		testObservation("2024-01-03", "468.79"),
		testObservation("2024-01-04", "467.28"),
	}
	if err := cache.Put(ctx, "SPY", put); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := cache.Get(ctx, "SPY",
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("cached count = %d, want 3", len(got))
	}
	for i := range got {
		if !got[i].Timestamp.Equal(put[i].Timestamp) {
			t.Errorf("row %d timestamp = %s, want %s", i, got[i].Timestamp, put[i].Timestamp)
		}
		if !got[i].Price.Equal(put[i].Price) {
			t.Errorf("row %d price = %s, want %s", i, got[i].Price, put[i].Price)
		}
		if !got[i].Bid.Equal(put[i].Bid) || !got[i].Ask.Equal(put[i].Ask) {
			t.Errorf("row %d bid/ask mismatch", i)
		}
		if got[i].Volume != put[i].Volume {
			t.Errorf("row %d volume = %d, want %d", i, got[i].Volume, put[i].Volume)
		}
	}
}

func TestCacheGetFiltersRange(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	if err := cache.Put(ctx, "SPY", []models.Observation{
		testObservation("2024-01-02", "472.65"),
		testObservation("2024-01-03", "468.79"),
		testObservation("2024-01-04", "467.28"),
	}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := cache.Get(ctx, "SPY",
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("filtered count = %d, want 1", len(got))
	}
}

func TestCacheGetUnknownSymbol(t *testing.T) {
	cache := newTestCache(t)

	got, err := cache.Get(context.Background(), "QQQ",
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("unknown symbol count = %d, want 0", len(got))
	}
}

func TestCachePutUpserts(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	if err := cache.Put(ctx, "SPY", []models.Observation{testObservation("2024-01-02", "472.65")}); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	if err := cache.Put(ctx, "SPY", []models.Observation{testObservation("2024-01-02", "473.10")}); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	got, err := cache.Get(ctx, "SPY",
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("count after upsert = %d, want 1", len(got))
	}
	if !got[0].Price.Equal(decimal.RequireFromString("473.10")) {
		t.Errorf("price after upsert = %s, want 473.10", got[0].Price)
	}
}
