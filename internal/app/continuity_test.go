package app

import (
	"context"
	"testing"
	"time"

	"github.com/tripzydevops/hotel-sub000/internal/domain"
)

func seedHistory(store *fakeStore, hotelID int64, checkIn time.Time, recorded time.Time, prices ...float64) {
	for i, p := range prices {
		store.nextID++
		store.obs = append(store.obs, domain.PriceObservation{
			ID:          store.nextID,
			HotelID:     hotelID,
			Price:       p,
			Currency:    "USD",
			CheckInDate: checkIn,
			RecordedAt:  recorded.Add(time.Duration(i) * time.Minute),
			Source:      "scrape",
		})
	}
}

func testEngine(store *fakeStore, now time.Time) *ContinuityEngine {
	e := NewContinuityEngine(store)
	e.now = func() time.Time { return now }
	return e
}

func successResult(hotelID int64, price float64) domain.ScrapeResult {
	return domain.ScrapeResult{
		HotelID: hotelID,
		Status:  domain.ScrapeSuccess,
		Data:    &domain.PriceData{Price: price, Currency: "USD"},
	}
}

func TestReconcileAcceptsPlausiblePrice(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	checkIn := day(2026, 8, 21)
	seedHistory(store, 7, checkIn, now.Add(-48*time.Hour), 100, 100, 100)

	e := testEngine(store, now)
	hotel := domain.HotelTarget{ID: 7, Currency: "USD"}

	obs, err := e.Reconcile(context.Background(), hotel, successResult(7, 95), checkIn)
	if err != nil {
		t.Fatal(err)
	}
	if obs.Price != 95 || obs.IsEstimated || obs.Source != "scrape" {
		t.Fatalf("obs = %+v", obs)
	}
}

func TestReconcileOutlierBoundary(t *testing.T) {
	// History mean is 100: exactly half is accepted, a hair below is not.
	store := newFakeStore()
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	checkIn := day(2026, 8, 21)
	seedHistory(store, 7, checkIn, now.Add(-48*time.Hour), 90, 100, 110)

	e := testEngine(store, now)
	hotel := domain.HotelTarget{ID: 7, Currency: "USD"}

	obs, err := e.Reconcile(context.Background(), hotel, successResult(7, 50), checkIn)
	if err != nil {
		t.Fatal(err)
	}
	if obs.Price != 50 || obs.IsEstimated {
		t.Fatalf("p == mean/2 must be accepted, got %+v", obs)
	}

	obs, err = e.Reconcile(context.Background(), hotel, successResult(7, 49.99), checkIn)
	if err != nil {
		t.Fatal(err)
	}
	if !obs.IsEstimated || obs.Source != "repair" {
		t.Fatalf("p < mean/2 must be rejected and repaired, got %+v", obs)
	}
	if obs.Price != 110 {
		t.Fatalf("repair price = %v, want newest valid 110", obs.Price)
	}
}

func TestReconcileFirstPriceTrustedWithoutHistory(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	e := testEngine(store, now)

	obs, err := e.Reconcile(context.Background(), domain.HotelTarget{ID: 1, Currency: "USD"},
		successResult(1, 9.99), day(2026, 8, 21))
	if err != nil {
		t.Fatal(err)
	}
	if obs.Price != 9.99 || obs.IsEstimated {
		t.Fatalf("first observation should be trusted, got %+v", obs)
	}
}

func TestReconcileVerticalFillPrefersSameDate(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	wanted := day(2026, 8, 25)
	other := day(2026, 8, 26)
	seedHistory(store, 3, other, now.Add(-24*time.Hour), 300)
	seedHistory(store, 3, wanted, now.Add(-48*time.Hour), 200)

	e := testEngine(store, now)
	obs, err := e.Reconcile(context.Background(), domain.HotelTarget{ID: 3, Currency: "USD"},
		domain.ScrapeResult{HotelID: 3, Status: domain.ScrapeError, Err: "timeout"}, wanted)
	if err != nil {
		t.Fatal(err)
	}
	if obs.Price != 200 || !obs.IsEstimated || obs.Source != "repair" {
		t.Fatalf("want same-date repair at 200, got %+v", obs)
	}
}

func TestReconcileAnyDateFallback(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	seedHistory(store, 3, day(2026, 8, 18), now.Add(-24*time.Hour), 175)

	e := testEngine(store, now)
	obs, err := e.Reconcile(context.Background(), domain.HotelTarget{ID: 3, Currency: "USD"},
		domain.ScrapeResult{HotelID: 3, Status: domain.ScrapeNotFound}, day(2026, 8, 25))
	if err != nil {
		t.Fatal(err)
	}
	if obs.Price != 175 || !obs.IsEstimated {
		t.Fatalf("want any-date repair at 175, got %+v", obs)
	}
}

func TestReconcileLookbackExpires(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	// Eight days old: just outside the repair window.
	seedHistory(store, 3, day(2026, 8, 10), now.Add(-8*24*time.Hour), 175)

	e := testEngine(store, now)
	obs, err := e.Reconcile(context.Background(), domain.HotelTarget{ID: 3, Currency: "USD"},
		domain.ScrapeResult{HotelID: 3, Status: domain.ScrapeError, Err: "timeout"}, day(2026, 8, 25))
	if err != nil {
		t.Fatal(err)
	}
	if obs.Price != 0 || obs.IsEstimated {
		t.Fatalf("want verified failure (0, not estimated), got %+v", obs)
	}
}

func TestReconcilePulseSourcePreserved(t *testing.T) {
	store := newFakeStore()
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	e := testEngine(store, now)

	ext := "prov-55"
	res := domain.ScrapeResult{
		HotelID: 9,
		Status:  domain.ScrapeSuccess,
		Data:    &domain.PriceData{Price: 120, Currency: "EUR", ExternalID: &ext, FromCache: true},
	}
	obs, err := e.Reconcile(context.Background(), domain.HotelTarget{ID: 9, Currency: "USD"}, res, day(2026, 8, 21))
	if err != nil {
		t.Fatal(err)
	}
	if obs.Source != "pulse" || obs.Currency != "EUR" {
		t.Fatalf("obs = %+v", obs)
	}
	if obs.ExternalID == nil || *obs.ExternalID != ext {
		t.Fatal("external id must ride along")
	}
}

func TestFillForward(t *testing.T) {
	from := day(2026, 8, 10)
	to := day(2026, 8, 15)
	today := day(2026, 8, 13)

	obs := []domain.PriceObservation{
		{HotelID: 1, Price: 100, CheckInDate: day(2026, 8, 10), RecordedAt: day(2026, 8, 10)},
		{HotelID: 1, Price: 0, CheckInDate: day(2026, 8, 12), RecordedAt: day(2026, 8, 12)}, // sellout
	}

	grid := FillForward(obs, from, to, today)
	if len(grid) != 6 {
		t.Fatalf("len = %d, want 6", len(grid))
	}

	// Aug 10: direct observation.
	if grid[0].Price == nil || *grid[0].Price != 100 || grid[0].Estimated {
		t.Fatalf("day0 = %+v", grid[0])
	}
	// Aug 11: carried forward, flagged estimated.
	if grid[1].Price == nil || *grid[1].Price != 100 || !grid[1].Estimated {
		t.Fatalf("day1 = %+v", grid[1])
	}
	// Aug 12: explicit sellout, and it clears the carry.
	if !grid[2].Sellout || grid[2].Price == nil || *grid[2].Price != 0 {
		t.Fatalf("day2 = %+v", grid[2])
	}
	// Aug 13: nothing to carry after the sellout.
	if grid[3].Price != nil {
		t.Fatalf("day3 = %+v, want unknown", grid[3])
	}
	// Aug 14-15 are beyond today: never fabricated even if a carry existed.
	if grid[4].Price != nil || grid[5].Price != nil {
		t.Fatalf("future days must stay unknown: %+v %+v", grid[4], grid[5])
	}
}

func TestFillForwardStopsAtToday(t *testing.T) {
	from := day(2026, 8, 10)
	to := day(2026, 8, 14)
	today := day(2026, 8, 11)

	obs := []domain.PriceObservation{
		{HotelID: 1, Price: 80, CheckInDate: day(2026, 8, 10), RecordedAt: day(2026, 8, 10)},
	}
	grid := FillForward(obs, from, to, today)
	if grid[1].Price == nil || !grid[1].Estimated {
		t.Fatalf("today should carry, got %+v", grid[1])
	}
	for i := 2; i < len(grid); i++ {
		if grid[i].Price != nil {
			t.Fatalf("day %d beyond today must be nil, got %+v", i, grid[i])
		}
	}
}

func TestFillForwardNewestObservationWinsPerDate(t *testing.T) {
	d := day(2026, 8, 10)
	obs := []domain.PriceObservation{
		{HotelID: 1, Price: 100, CheckInDate: d, RecordedAt: d.Add(1 * time.Hour)},
		{HotelID: 1, Price: 120, CheckInDate: d, RecordedAt: d.Add(5 * time.Hour)},
	}
	grid := FillForward(obs, d, d, d)
	if grid[0].Price == nil || *grid[0].Price != 120 {
		t.Fatalf("want the later recording (120), got %+v", grid[0])
	}
}
