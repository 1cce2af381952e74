package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/tripzydevops/hotel-sub000/internal/adapters/observability"
	"github.com/tripzydevops/hotel-sub000/internal/domain"
	"github.com/tripzydevops/hotel-sub000/internal/roomtype"
)

// maxInFlight caps concurrent outbound provider calls across one scan.
const maxInFlight = 10

type ScanOptions struct {
	CheckIn  *time.Time
	CheckOut *time.Time
	Adults   int
	RoomType string
}

// ScanService fans a tenant's hotel list out under a bounded worker pool.
// Hotels are independent: one failure never aborts the batch, and the full
// result set always comes back.
type ScanService struct {
	store    domain.Storage
	provider domain.ProviderClient
	pulse    *PulseCache
	aliases  *roomtype.Provider
	workers  int64
	now      func() time.Time
}

func NewScanService(store domain.Storage, provider domain.ProviderClient, pulse *PulseCache, aliases *roomtype.Provider) *ScanService {
	return &ScanService{
		store:    store,
		provider: provider,
		pulse:    pulse,
		aliases:  aliases,
		workers:  maxInFlight,
		now:      time.Now,
	}
}

// RunScan scrapes every hotel and returns one result per hotel, in input
// order. When sessionID is set, the session transitions running -> completed
// (all hotels succeeded) or partial, with a reasoning trace of what each
// hotel resolved to.
func (s *ScanService) RunScan(ctx context.Context, tenantID int64, hotels []domain.HotelTarget, opts ScanOptions, sessionID *int64) []domain.ScrapeResult {
	checkIn, checkOut := s.effectiveDates(opts)

	trace := newTrace()
	trace.addf("scan start: tenant=%d hotels=%d check_in=%s", tenantID, len(hotels), checkIn.Format("2006-01-02"))
	if sessionID != nil {
		if err := s.store.UpdateSessionStatus(ctx, *sessionID, domain.SessionRunning, trace.lines()); err != nil {
			log.Error().Err(err).Int64("session", *sessionID).Msg("session update failed")
		}
	}

	sem := semaphore.NewWeighted(s.workers)
	var wg sync.WaitGroup
	results := make([]domain.ScrapeResult, len(hotels))

	for i, h := range hotels {
		i, h := i, h

		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = domain.ScrapeResult{HotelID: h.ID, Status: domain.ScrapeError, Err: err.Error()}
			trace.addf("hotel %d: aborted before start: %v", h.ID, err)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			defer func() {
				if r := recover(); r != nil {
					results[i] = domain.ScrapeResult{HotelID: h.ID, Status: domain.ScrapeError, Err: fmt.Sprintf("panic: %v", r)}
					trace.addf("hotel %d: panic: %v", h.ID, r)
				}
				observability.ObserveScrape(string(results[i].Status))
			}()
			results[i] = s.scrapeOne(ctx, h, opts, checkIn, checkOut, trace)
		}()
	}
	wg.Wait()

	if sessionID != nil {
		status := domain.SessionCompleted
		for _, r := range results {
			if r.Status != domain.ScrapeSuccess {
				status = domain.SessionPartial
				break
			}
		}
		trace.addf("scan done: status=%s", status)
		if err := s.store.UpdateSessionStatus(ctx, *sessionID, status, trace.lines()); err != nil {
			log.Error().Err(err).Int64("session", *sessionID).Msg("session finalize failed")
		}
	}
	return results
}

func (s *ScanService) scrapeOne(ctx context.Context, h domain.HotelTarget, opts ScanOptions, checkIn, checkOut time.Time, trace *scanTrace) domain.ScrapeResult {
	// Shared pulse cache first; any tenant's fresh scrape of the same
	// property can answer.
	if h.ExternalID != nil && *h.ExternalID != "" {
		hit, ok, err := s.pulse.Lookup(ctx, *h.ExternalID, checkIn, opts.RoomType)
		if err != nil {
			log.Warn().Err(err).Int64("hotel", h.ID).Msg("pulse lookup failed, falling back to provider")
		} else if ok {
			trace.addf("hotel %d: pulse hit (recorded %s)", h.ID, hit.RecordedAt.Format(time.RFC3339))
			vendor := ""
			if hit.Vendor != nil {
				vendor = *hit.Vendor
			}
			return domain.ScrapeResult{
				HotelID: h.ID,
				Status:  domain.ScrapeSuccess,
				Data: &domain.PriceData{
					Price:      hit.Price,
					Currency:   hit.Currency,
					Vendor:     vendor,
					ExternalID: h.ExternalID,
					CheckIn:    checkIn,
					CheckOut:   checkOut,
					Rooms:      hit.RoomTypes,
					FromCache:  true,
				},
			}
		}
	}

	adults := opts.Adults
	if adults <= 0 {
		adults = h.DefaultAdults
	}
	if adults <= 0 {
		adults = 2
	}

	data, err := s.provider.FetchPrice(ctx, domain.ProviderQuery{
		HotelName:  h.Name,
		Location:   h.Location,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Adults:     adults,
		Currency:   h.Currency,
		ExternalID: h.ExternalID,
	})
	switch {
	case err == nil:
		tbl := s.aliases.Table(ctx)
		for i := range data.Rooms {
			c := roomtype.Canonicalize(tbl, data.Rooms[i].Name)
			data.Rooms[i].CanonicalCode = c.Code
			data.Rooms[i].CanonicalName = c.Name
		}
		trace.addf("hotel %d: provider price %.2f %s (%d rooms)", h.ID, data.Price, data.Currency, len(data.Rooms))
		return domain.ScrapeResult{HotelID: h.ID, Status: domain.ScrapeSuccess, Data: &data}

	case errors.Is(err, domain.ErrNotFound):
		trace.addf("hotel %d: not found after fallback ladder", h.ID)
		return domain.ScrapeResult{HotelID: h.ID, Status: domain.ScrapeNotFound}

	default:
		trace.addf("hotel %d: provider error: %v", h.ID, err)
		return domain.ScrapeResult{HotelID: h.ID, Status: domain.ScrapeError, Err: err.Error()}
	}
}

// effectiveDates resolves the scan window. An unset check-in defaults to
// tomorrow; a same-day check-in is pushed to tomorrow after 18:00 local,
// since late same-day rates are unreliable.
func (s *ScanService) effectiveDates(opts ScanOptions) (time.Time, time.Time) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var checkIn time.Time
	switch {
	case opts.CheckIn == nil:
		checkIn = today.AddDate(0, 0, 1)
	default:
		checkIn = opts.CheckIn.Truncate(24 * time.Hour)
		if checkIn.Equal(today) && now.Hour() >= 18 {
			checkIn = today.AddDate(0, 0, 1)
		}
	}

	checkOut := checkIn.AddDate(0, 0, 1)
	if opts.CheckOut != nil && opts.CheckOut.After(checkIn) {
		checkOut = opts.CheckOut.Truncate(24 * time.Hour)
	}
	return checkIn, checkOut
}

// scanTrace is the session's append-only reasoning log; tasks write to it
// concurrently.
type scanTrace struct {
	mu    sync.Mutex
	steps []string
}

func newTrace() *scanTrace { return &scanTrace{} }

func (t *scanTrace) addf(format string, args ...any) {
	t.mu.Lock()
	t.steps = append(t.steps, fmt.Sprintf(format, args...))
	t.mu.Unlock()
}

func (t *scanTrace) lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.steps))
	copy(out, t.steps)
	return out
}
