package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tripzydevops/hotel-sub000/internal/domain"
	"github.com/tripzydevops/hotel-sub000/internal/roomtype"
)

type fakeCache struct {
	store map[string]any
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, ok := c.store[key]
	if !ok {
		return false, nil
	}
	switch d := dst.(type) {
	case *domain.MarketAnalysis:
		*d = v.(domain.MarketAnalysis)
	case *[]domain.Alert:
		*d = v.([]domain.Alert)
	}
	return true, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string]any{}
	}
	c.store[key] = v
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.dels = append(c.dels, key)
	delete(c.store, key)
	return nil
}

func testQueries(store *fakeStore, cache *fakeCache, now time.Time) *QueryService {
	engine := NewContinuityEngine(store)
	engine.now = func() time.Time { return now }
	analysis := NewAnalysisService(store, engine, &fakeEmbed{}, &fakeNotifier{},
		roomtype.NewProvider(nil, 0), NewConverter(nil))
	analysis.now = func() time.Time { return now }
	return NewQueryService(analysis, store, cache, 5*time.Minute)
}

func TestQueryMarketAnalysisCacheAside(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	seedHotel(store, 1, "Target", true)
	seedPrior(store, 1, 90, now.Add(-time.Hour))

	cache := &fakeCache{}
	q := testQueries(store, cache, now)

	from, to := day(2026, 8, 20), day(2026, 8, 21)
	first, err := q.GetMarketAnalysis(context.Background(), 1, "", from, to)
	if err != nil {
		t.Fatal(err)
	}
	if len(cache.store) != 1 {
		t.Fatal("miss must populate the cache")
	}

	// Mutate the store; the cached copy must keep serving.
	store.hotels = nil
	second, err := q.GetMarketAnalysis(context.Background(), 1, "", from, to)
	if err != nil {
		t.Fatal(err)
	}
	if len(second.Hotels) != len(first.Hotels) {
		t.Fatal("expected the cached analysis")
	}
}

func TestQueryListAlertsAndMarkRead(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	store.alerts = []domain.Alert{{ID: 9, TenantID: 1, Kind: domain.AlertThresholdBreach}}

	cache := &fakeCache{}
	q := testQueries(store, cache, now)

	alerts, err := q.ListAlerts(context.Background(), 1, 50)
	if err != nil || len(alerts) != 1 {
		t.Fatalf("alerts = %v, err = %v", alerts, err)
	}

	if err := q.MarkAlertRead(context.Background(), 1, 9); err != nil {
		t.Fatal(err)
	}
	if !store.alerts[0].IsRead {
		t.Fatal("alert not marked read")
	}
	if len(cache.dels) == 0 {
		t.Fatal("cached alert lists must be invalidated")
	}

	if err := q.MarkAlertRead(context.Background(), 1, 404); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestQueryMarkAlertReadIsTenantScoped(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	store.alerts = []domain.Alert{{ID: 9, TenantID: 1, Kind: domain.AlertThresholdBreach}}

	q := testQueries(store, &fakeCache{}, now)

	// Another tenant guessing the id must not flip the flag.
	if err := q.MarkAlertRead(context.Background(), 2, 9); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound for a foreign tenant", err)
	}
	if store.alerts[0].IsRead {
		t.Fatal("alert flipped by a foreign tenant")
	}

	if err := q.MarkAlertRead(context.Background(), 1, 9); err != nil {
		t.Fatal(err)
	}
	if !store.alerts[0].IsRead {
		t.Fatal("owning tenant could not mark the alert read")
	}
}
