package app

import (
	"context"
	"strings"
	"time"

	"github.com/tripzydevops/hotel-sub000/internal/adapters/observability"
	"github.com/tripzydevops/hotel-sub000/internal/domain"
	"github.com/tripzydevops/hotel-sub000/internal/roomtype"
)

// PulseTTL bounds how long a scraped observation may satisfy lookups from
// other tenants.
const PulseTTL = 180 * time.Minute

// PulseCache is the cross-tenant shared result cache. It is not a separate
// store: any recent-enough observation for the same (external id, check-in)
// pair can answer a lookup, whichever tenant wrote it. Observations are
// append-only and reads tolerate staleness up to the TTL, so no locking is
// involved; the newest write within the window wins.
type PulseCache struct {
	store   domain.Storage
	aliases *roomtype.Provider
	ttl     time.Duration
	now     func() time.Time
}

func NewPulseCache(store domain.Storage, aliases *roomtype.Provider) *PulseCache {
	return &PulseCache{store: store, aliases: aliases, ttl: PulseTTL, now: time.Now}
}

// Lookup returns the freshest valid observation for the property and date,
// anonymized: the writing tenant's internal hotel id never leaves this
// function. When requestedRoomType is non-empty and resolves against the
// cached room list, that room's price and currency are substituted in.
func (p *PulseCache) Lookup(ctx context.Context, externalID string, checkIn time.Time, requestedRoomType string) (domain.CachedResult, bool, error) {
	if externalID == "" {
		return domain.CachedResult{}, false, nil
	}
	cutoff := p.now().Add(-p.ttl)
	day := checkIn.Truncate(24 * time.Hour)
	obs, err := p.store.QueryObservations(ctx, domain.ObservationFilter{
		ExternalID:    &externalID,
		CheckIn:       &day,
		RecordedAfter: &cutoff,
		ValidOnly:     true,
		Limit:         1,
	})
	if err != nil {
		return domain.CachedResult{}, false, err
	}
	if len(obs) == 0 {
		observability.ObserveCache("pulse", "miss")
		return domain.CachedResult{}, false, nil
	}
	o := obs[0]

	res := domain.CachedResult{
		ExternalID: externalID,
		CheckIn:    o.CheckInDate,
		Price:      o.Price,
		Currency:   o.Currency,
		Vendor:     o.Vendor,
		RoomTypes:  o.RoomTypes,
		RecordedAt: o.RecordedAt,
	}

	if requestedRoomType != "" {
		if offer, ok := p.resolveRoom(ctx, o.RoomTypes, requestedRoomType); ok {
			res.Price = offer.Price
			res.Currency = offer.Currency
		}
	}

	observability.ObserveCache("pulse", "hit")
	return res, true, nil
}

// resolveRoom tries an exact canonical-code match first, then falls back to
// a name substring in either direction.
func (p *PulseCache) resolveRoom(ctx context.Context, rooms []domain.RoomOffer, requested string) (domain.RoomOffer, bool) {
	tbl := p.aliases.Table(ctx)
	want := roomtype.Canonicalize(tbl, requested)

	if want.Code != roomtype.CodeOther && want.Code != roomtype.CodeUnknown {
		for _, r := range rooms {
			if r.CanonicalCode == want.Code {
				return r, true
			}
		}
	}

	needle := strings.ToLower(strings.TrimSpace(requested))
	for _, r := range rooms {
		name := strings.ToLower(r.Name)
		canon := strings.ToLower(r.CanonicalName)
		if needle != "" && (strings.Contains(name, needle) || strings.Contains(canon, needle) ||
			(canon != "" && strings.Contains(needle, canon))) {
			return r, true
		}
	}
	return domain.RoomOffer{}, false
}
