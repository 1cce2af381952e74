package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tripzydevops/hotel-sub000/internal/domain"
)

const (
	// outlierWindow is how many prior valid observations feed the mean.
	outlierWindow = 10
	// outlierFloor rejects a candidate below this fraction of the mean.
	outlierFloor = 0.5
	// lookbackDays bounds vertical fill.
	lookbackDays = 7
)

// ContinuityEngine turns raw scrape outcomes into observations fit to
// persist: it rejects statistical outliers at write time and repairs
// missing/zero prices from recent history.
type ContinuityEngine struct {
	store domain.Storage
	now   func() time.Time
}

func NewContinuityEngine(store domain.Storage) *ContinuityEngine {
	return &ContinuityEngine{store: store, now: time.Now}
}

// Reconcile builds the observation to persist for one scan result. The
// returned observation always exists, whatever the scrape outcome:
//
//   - a plausible scraped price is stored as-is;
//   - an implausible (outlier) or missing price falls through to vertical
//     fill, and the substitute is flagged IsEstimated;
//   - with no usable history the observation records price 0 and
//     IsEstimated=false — a verified failure, distinct from "never tried".
func (e *ContinuityEngine) Reconcile(ctx context.Context, hotel domain.HotelTarget, res domain.ScrapeResult, checkIn time.Time) (domain.PriceObservation, error) {
	day := checkIn.Truncate(24 * time.Hour)
	obs := domain.PriceObservation{
		HotelID:     hotel.ID,
		ExternalID:  hotel.ExternalID,
		Currency:    hotel.Currency,
		CheckInDate: day,
		RecordedAt:  e.now(),
		Source:      "scrape",
	}

	var candidate float64
	if res.Status == domain.ScrapeSuccess && res.Data != nil {
		candidate = res.Data.Price
		obs.Currency = res.Data.Currency
		obs.RoomTypes = res.Data.Rooms
		if res.Data.Vendor != "" {
			v := res.Data.Vendor
			obs.Vendor = &v
		}
		if res.Data.SearchRank > 0 {
			r := res.Data.SearchRank
			obs.SearchRank = &r
		}
		if res.Data.ExternalID != nil {
			obs.ExternalID = res.Data.ExternalID
		}
		if res.Data.FromCache {
			obs.Source = "pulse"
		}
	}

	if candidate > 0 {
		ok, err := e.plausible(ctx, hotel.ID, obs.Currency, candidate)
		if err != nil {
			return domain.PriceObservation{}, err
		}
		if ok {
			obs.Price = candidate
			return obs, nil
		}
		log.Warn().Int64("hotel", hotel.ID).Float64("price", candidate).
			Msg("outlier price rejected, attempting repair")
	}

	// Vertical fill: same check-in date first, then any date, both within
	// the lookback window.
	cutoff := e.now().AddDate(0, 0, -lookbackDays)
	for _, f := range []domain.ObservationFilter{
		{HotelID: &hotel.ID, CheckIn: &day, RecordedAfter: &cutoff, ValidOnly: true, Limit: 1},
		{HotelID: &hotel.ID, RecordedAfter: &cutoff, ValidOnly: true, Limit: 1},
	} {
		prior, err := e.store.QueryObservations(ctx, f)
		if err != nil {
			return domain.PriceObservation{}, err
		}
		if len(prior) > 0 {
			obs.Price = prior[0].Price
			obs.Currency = prior[0].Currency
			obs.IsEstimated = true
			obs.Source = "repair"
			return obs, nil
		}
	}

	// Verified failure: nothing to repair from.
	obs.Price = 0
	obs.IsEstimated = false
	return obs, nil
}

// plausible applies the write-time outlier guard: reject iff the candidate
// is below half the mean of the last K valid same-currency prices. With no
// history the candidate is trusted unconditionally.
func (e *ContinuityEngine) plausible(ctx context.Context, hotelID int64, currency string, p float64) (bool, error) {
	prior, err := e.store.QueryObservations(ctx, domain.ObservationFilter{
		HotelID:   &hotelID,
		Currency:  &currency,
		ValidOnly: true,
		Limit:     outlierWindow,
	})
	if err != nil {
		return false, err
	}
	if len(prior) == 0 {
		return true, nil
	}
	var sum float64
	for _, o := range prior {
		sum += o.Price
	}
	mean := sum / float64(len(prior))
	return p >= outlierFloor*mean, nil
}

// FillForward materializes a contiguous [from, to] price grid from the
// observations of a single hotel. For a date with no direct observation the
// last known price is carried forward, but only up to today: future dates
// stay unknown rather than fabricated. today is the caller's date anchor
// (UTC day in production).
func FillForward(obs []domain.PriceObservation, from, to, today time.Time) []domain.PricePoint {
	from = from.Truncate(24 * time.Hour)
	to = to.Truncate(24 * time.Hour)
	today = today.Truncate(24 * time.Hour)

	// Most recent observation wins per date.
	byDate := make(map[time.Time]domain.PriceObservation)
	for _, o := range obs {
		d := o.CheckInDate.Truncate(24 * time.Hour)
		if cur, ok := byDate[d]; !ok || o.RecordedAt.After(cur.RecordedAt) {
			byDate[d] = o
		}
	}

	var out []domain.PricePoint
	var carry *float64
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		pt := domain.PricePoint{Date: d}
		if o, ok := byDate[d]; ok {
			v := o.Price
			pt.Price = &v
			pt.Estimated = o.IsEstimated
			if o.Price == 0 && !o.IsEstimated {
				// Explicit sellout: surfaced, never silently dropped.
				pt.Sellout = true
				carry = nil
			} else {
				c := o.Price
				carry = &c
			}
		} else if carry != nil && !d.After(today) {
			v := *carry
			pt.Price = &v
			pt.Estimated = true
		}
		out = append(out, pt)
	}
	return out
}
