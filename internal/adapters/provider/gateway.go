// Package provider talks to the external rate-search API through a rotating
// credential pool.
package provider

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tripzydevops/hotel-sub000/internal/adapters/observability"
	"github.com/tripzydevops/hotel-sub000/internal/domain"
)

type Gateway struct {
	base string
	hc   *http.Client
	ring *KeyRing
	rl   *rate.Limiter
}

func New(base string, keys []string, rps int) (*Gateway, error) {
	ring := NewKeyRing(keys)
	if ring.Size() == 0 {
		return nil, fmt.Errorf("at least one API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Gateway{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		ring: ring,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// FetchPrice resolves a hotel's rate through the query fallback ladder:
// exact external-id lookup, then fuzzy name+location search, then name-only
// search. The first non-empty result wins.
func (g *Gateway) FetchPrice(ctx context.Context, q domain.ProviderQuery) (domain.PriceData, error) {
	dates := fmt.Sprintf("check_in=%s&check_out=%s&adults=%d&currency=%s",
		q.CheckIn.Format("2006-01-02"), q.CheckOut.Format("2006-01-02"), q.Adults, url.QueryEscape(q.Currency))

	var candidates []string
	if q.ExternalID != nil && *q.ExternalID != "" {
		candidates = append(candidates,
			fmt.Sprintf("%s/v1/properties/%s/rates?%s", g.base, url.PathEscape(*q.ExternalID), dates))
	}
	candidates = append(candidates,
		fmt.Sprintf("%s/v1/rates/search?q=%s&%s", g.base, url.QueryEscape(q.HotelName+" "+q.Location), dates),
		fmt.Sprintf("%s/v1/rates/search?q=%s&%s", g.base, url.QueryEscape(q.HotelName), dates),
	)

	last := domain.ErrNotFound
	for _, u := range candidates {
		var payload map[string]any
		if err := g.call(ctx, u, &payload); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				last = err
				continue // next rung of the ladder
			}
			return domain.PriceData{}, err
		}
		pd, ok := mapPriceData(payload, q)
		if !ok {
			last = domain.ErrNotFound
			continue
		}
		return pd, nil
	}
	return domain.PriceData{}, last
}

// call runs one request under the active credential, rotating and retrying
// once on quota exhaustion (hard rotation, 24h cooldown) or a transient
// failure (soft rotation).
func (g *Gateway) call(ctx context.Context, u string, out any) error {
	key, err := g.ring.Current()
	if err != nil {
		return err
	}
	err = g.get(ctx, u, key, out)
	switch {
	case errors.Is(err, domain.ErrQuotaExceeded):
		next, rerr := g.ring.MarkExhausted(key)
		if rerr != nil {
			return rerr
		}
		if !sleepCtx(ctx, backoff(0)) {
			return ctx.Err()
		}
		return g.get(ctx, u, next, out)

	case errors.Is(err, domain.ErrProviderTransient):
		next, rerr := g.ring.Rotate(key)
		if rerr != nil {
			return rerr
		}
		if !sleepCtx(ctx, backoff(0)) {
			return ctx.Err()
		}
		return g.get(ctx, u, next, out)
	}
	return err
}

// get performs a single GET with client-side rate limiting and classifies
// the response into the domain error taxonomy.
func (g *Gateway) get(ctx context.Context, u, key string, out any) error {
	if err := g.rl.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-API-Key", key)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "ratepulse/1.0")

	start := time.Now()
	resp, err := g.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		observability.ObserveExternal("rates", endpointLabel(u), 0, time.Since(start))
		return fmt.Errorf("%w: %v", domain.ErrProviderTransient, err)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("rates", endpointLabel(u), resp.StatusCode, time.Since(start))

	switch resp.StatusCode {
	case http.StatusOK:
		return json.NewDecoder(resp.Body).Decode(out)

	case http.StatusNotFound:
		return domain.ErrNotFound

	case http.StatusPaymentRequired:
		return domain.ErrQuotaExceeded

	case http.StatusTooManyRequests:
		// 429 is ambiguous: the provider reports daily-quota exhaustion and
		// plain rate limiting through the same status. The body tells them
		// apart.
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if strings.Contains(strings.ToLower(string(b)), "quota") {
			return domain.ErrQuotaExceeded
		}
		return fmt.Errorf("%w: remote 429", domain.ErrProviderTransient)

	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: remote %d", domain.ErrProviderTransient, resp.StatusCode)

	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
}

func endpointLabel(u string) string {
	if strings.Contains(u, "/rates/search") {
		return "search"
	}
	return "property_rates"
}

// sleepCtx waits for d or returns false if ctx is done first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// backoff returns an exponential delay with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
