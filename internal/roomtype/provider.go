package roomtype

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Source fetches an externally managed alias table (ops can add words
// without a deploy). Implementations live in internal/adapters.
type Source interface {
	GetAliasTable(ctx context.Context) (Table, error)
}

// Provider hands out the current alias table, refreshing it from a Source on
// a TTL. Fetch failures fall back to the last good table, or the built-in
// defaults if nothing was ever fetched. Safe for concurrent use.
type Provider struct {
	source Source
	ttl    time.Duration
	now    func() time.Time

	mu        sync.RWMutex
	current   Table
	fetchedAt time.Time
}

func NewProvider(src Source, ttl time.Duration) *Provider {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Provider{
		source:  src,
		ttl:     ttl,
		now:     time.Now,
		current: DefaultTable(),
	}
}

// Table returns the active alias table, refreshing it when stale.
func (p *Provider) Table(ctx context.Context) Table {
	p.mu.RLock()
	fresh := p.now().Sub(p.fetchedAt) < p.ttl
	tbl := p.current
	p.mu.RUnlock()
	if fresh || p.source == nil {
		return tbl
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Another goroutine may have refreshed while we waited for the lock.
	if p.now().Sub(p.fetchedAt) < p.ttl {
		return p.current
	}
	next, err := p.source.GetAliasTable(ctx)
	// Stamp even on failure so a dead source is retried once per TTL, not
	// once per call.
	p.fetchedAt = p.now()
	if err != nil || len(next.Aliases) == 0 {
		log.Warn().Err(err).Msg("alias table refresh failed, keeping previous table")
		return p.current
	}
	p.current = next
	log.Info().Int("aliases", len(next.Aliases)).Msg("alias table refreshed")
	return p.current
}
