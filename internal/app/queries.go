package app

import (
	"context"
	"time"

	redisad "github.com/tripzydevops/hotel-sub000/internal/adapters/redis"
	"github.com/tripzydevops/hotel-sub000/internal/domain"
)

// QueryService fronts the API's read paths with a cache-aside redis layer.
// Analysis is expensive (per-hotel resolution plus grid fill), so even a
// short TTL takes real load off the store.
type QueryService struct {
	analysis *AnalysisService
	store    domain.Storage
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(analysis *AnalysisService, store domain.Storage, cache domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{analysis: analysis, store: store, cache: cache, cacheTTL: ttl}
}

func (s *QueryService) GetMarketAnalysis(ctx context.Context, tenantID int64, roomType string, from, to time.Time) (domain.MarketAnalysis, error) {
	key := redisad.AnalysisKey(tenantID, roomType, from, to)
	var ma domain.MarketAnalysis
	if ok, _ := s.cache.Get(ctx, key, &ma); ok {
		return ma, nil
	}
	ma, err := s.analysis.GetMarketAnalysis(ctx, tenantID, roomType, from, to)
	if err != nil {
		return domain.MarketAnalysis{}, err
	}
	_ = s.cache.Set(ctx, key, ma, int(s.cacheTTL.Seconds()))
	return ma, nil
}

func (s *QueryService) ListAlerts(ctx context.Context, tenantID int64, limit int) ([]domain.Alert, error) {
	key := redisad.AlertsKey(tenantID, limit)
	var out []domain.Alert
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}
	alerts, err := s.store.ListAlerts(ctx, tenantID, limit)
	if err != nil {
		return nil, err
	}
	// copy to avoid aliasing the repo's backing array into the cache
	cp := make([]domain.Alert, len(alerts))
	copy(cp, alerts)
	_ = s.cache.Set(ctx, key, cp, int(s.cacheTTL.Seconds()))
	return cp, nil
}

// MarkAlertRead mutates the only mutable alert field and drops the common
// cached list variants so readers don't see a stale unread flag.
func (s *QueryService) MarkAlertRead(ctx context.Context, tenantID, alertID int64) error {
	if err := s.store.MarkAlertRead(ctx, tenantID, alertID); err != nil {
		return err
	}
	for _, lim := range []int{50, 100, 200} {
		_ = s.cache.Del(ctx, redisad.AlertsKey(tenantID, lim))
	}
	return nil
}
