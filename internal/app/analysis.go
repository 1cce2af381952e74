package app

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tripzydevops/hotel-sub000/internal/adapters/observability"
	"github.com/tripzydevops/hotel-sub000/internal/domain"
	"github.com/tripzydevops/hotel-sub000/internal/roomtype"
)

// AnalysisService owns the write path after a scan (reconcile, persist,
// alert, broadcast) and the read path for market analysis.
type AnalysisService struct {
	store    domain.Storage
	engine   *ContinuityEngine
	embed    domain.EmbeddingClient
	notifier domain.Notifier
	aliases  *roomtype.Provider
	fx       *Converter
	now      func() time.Time
}

func NewAnalysisService(store domain.Storage, engine *ContinuityEngine, embed domain.EmbeddingClient, notifier domain.Notifier, aliases *roomtype.Provider, fx *Converter) *AnalysisService {
	return &AnalysisService{
		store:    store,
		engine:   engine,
		embed:    embed,
		notifier: notifier,
		aliases:  aliases,
		fx:       fx,
		now:      time.Now,
	}
}

// AnalyzeResults reconciles a scan's results into observations, persists
// them, fires alerts, enriches hotel metadata, and kicks off the
// cross-tenant broadcast. Per-hotel failures land in PartialFailures; only
// broken orchestration (storage insert, settings load) returns an error.
func (s *AnalysisService) AnalyzeResults(ctx context.Context, tenantID int64, results []domain.ScrapeResult, threshold float64, sessionID *int64) (domain.AnalysisOutcome, error) {
	var out domain.AnalysisOutcome

	hotels, err := s.store.ListHotels(ctx, tenantID)
	if err != nil {
		return out, fmt.Errorf("list hotels: %w", err)
	}
	byID := make(map[int64]domain.HotelTarget, len(hotels))
	ids := make([]int64, 0, len(hotels))
	names := make(map[int64]string, len(hotels))
	for _, h := range hotels {
		byID[h.ID] = h
		ids = append(ids, h.ID)
		names[h.ID] = h.Name
	}

	settings, err := s.store.GetTenantSettings(ctx, tenantID)
	if err != nil {
		return out, fmt.Errorf("tenant settings: %w", err)
	}
	if threshold <= 0 {
		threshold = settings.AlertThreshold
	}

	// One batch pre-fetch of every hotel's pre-scan latest observation; the
	// per-hotel loop below must not issue N lookups of its own.
	prior, err := s.store.LatestObservations(ctx, ids)
	if err != nil {
		return out, fmt.Errorf("latest observations: %w", err)
	}

	var batch []domain.PriceObservation
	for _, r := range results {
		h, ok := byID[r.HotelID]
		if !ok {
			continue
		}
		checkIn := s.now().AddDate(0, 0, 1)
		if r.Data != nil && !r.Data.CheckIn.IsZero() {
			checkIn = r.Data.CheckIn
		}
		obs, err := s.engine.Reconcile(ctx, h, r, checkIn)
		if err != nil {
			out.PartialFailures = append(out.PartialFailures, fmt.Sprintf("hotel %d: reconcile: %v", h.ID, err))
			continue
		}
		batch = append(batch, obs)
	}

	out.Alerts = append(out.Alerts, s.thresholdAlerts(tenantID, settings, threshold, batch, prior, byID)...)
	out.Alerts = append(out.Alerts, s.undercutAlerts(tenantID, settings, hotels, batch, prior)...)

	// Enrichment: soft-fail per hotel, capped inside the embed client.
	for _, r := range results {
		if r.Status != domain.ScrapeSuccess || r.Data == nil {
			continue
		}
		h := byID[r.HotelID]
		vec, embErr := s.embed.GetEmbedding(ctx, h.Name+", "+h.Location)
		if embErr != nil {
			out.PartialFailures = append(out.PartialFailures, fmt.Sprintf("hotel %d: embedding: %v", h.ID, embErr))
		}
		meta := domain.HotelMetadata{Embedding: vec}
		if r.Data.ExternalID != nil {
			meta.ExternalID = r.Data.ExternalID
		}
		if err := s.store.UpsertHotelMetadata(ctx, h.ID, meta); err != nil {
			out.PartialFailures = append(out.PartialFailures, fmt.Sprintf("hotel %d: metadata: %v", h.ID, err))
		}
	}

	if len(batch) > 0 {
		if err := s.store.InsertObservations(ctx, batch); err != nil {
			return out, fmt.Errorf("insert observations: %w", err)
		}
		out.PricesUpdated = len(batch)
	}

	if len(out.Alerts) > 0 {
		if err := s.store.InsertAlerts(ctx, out.Alerts); err != nil {
			return out, fmt.Errorf("insert alerts: %w", err)
		}
		for _, a := range out.Alerts {
			observability.ObserveAlert(string(a.Kind))
		}
		go func(alerts []domain.Alert) {
			if err := s.notifier.DispatchAlerts(context.WithoutCancel(ctx), alerts, settings, names); err != nil {
				log.Warn().Err(err).Int64("tenant", tenantID).Msg("alert dispatch failed")
			}
		}(out.Alerts)
	}

	// Cross-tenant pulse broadcast rides on fresh direct scrapes only.
	var broadcastable []domain.PriceObservation
	for _, o := range batch {
		if o.ExternalID != nil && *o.ExternalID != "" && o.Price > 0 && !o.IsEstimated {
			broadcastable = append(broadcastable, o)
		}
	}
	if len(broadcastable) > 0 {
		go s.Broadcast(context.WithoutCancel(ctx), tenantID, broadcastable)
	}

	return out, nil
}

func (s *AnalysisService) thresholdAlerts(tenantID int64, settings domain.TenantSettings, threshold float64, batch []domain.PriceObservation, prior map[int64]domain.PriceObservation, byID map[int64]domain.HotelTarget) []domain.Alert {
	var alerts []domain.Alert
	if threshold <= 0 {
		return nil
	}
	for _, o := range batch {
		p, ok := prior[o.HotelID]
		if !ok || p.Price <= 0 || o.Price <= 0 {
			continue
		}
		oldC := s.fx.Convert(p.Price, p.Currency, settings.Currency)
		newC := s.fx.Convert(o.Price, o.Currency, settings.Currency)
		if oldC <= 0 {
			continue
		}
		pct := (newC - oldC) / oldC * 100
		if math.Abs(pct) < threshold {
			continue
		}
		h := byID[o.HotelID]
		alerts = append(alerts, domain.Alert{
			TenantID: tenantID,
			HotelID:  o.HotelID,
			Kind:     domain.AlertThresholdBreach,
			OldPrice: oldC,
			NewPrice: newC,
			Message: fmt.Sprintf("%s moved %.1f%% (%.2f -> %.2f %s), beyond your %.1f%% threshold",
				h.Name, pct, oldC, newC, settings.Currency, threshold),
		})
	}
	return alerts
}

// undercutAlerts fires only on the transition: a competitor that was at or
// above the target's price and has now dropped below it. A sustained
// undercut across scans produces no further alerts.
func (s *AnalysisService) undercutAlerts(tenantID int64, settings domain.TenantSettings, hotels []domain.HotelTarget, batch []domain.PriceObservation, prior map[int64]domain.PriceObservation) []domain.Alert {
	var target *domain.HotelTarget
	for i := range hotels {
		if hotels[i].IsTarget {
			target = &hotels[i]
			break
		}
	}
	if target == nil {
		return nil
	}

	current := make(map[int64]domain.PriceObservation, len(batch))
	for _, o := range batch {
		current[o.HotelID] = o
	}

	targetPrice := 0.0
	if o, ok := current[target.ID]; ok && o.Price > 0 {
		targetPrice = s.fx.Convert(o.Price, o.Currency, settings.Currency)
	} else if p, ok := prior[target.ID]; ok && p.Price > 0 {
		targetPrice = s.fx.Convert(p.Price, p.Currency, settings.Currency)
	}
	if targetPrice <= 0 {
		return nil
	}

	var alerts []domain.Alert
	for _, h := range hotels {
		if h.ID == target.ID {
			continue
		}
		o, ok := current[h.ID]
		if !ok || o.Price <= 0 {
			continue
		}
		newC := s.fx.Convert(o.Price, o.Currency, settings.Currency)
		if newC >= targetPrice {
			continue
		}
		// Transition check: the competitor's immediately prior price must
		// not already have been below the target.
		if p, ok := prior[h.ID]; ok && p.Price > 0 {
			if s.fx.Convert(p.Price, p.Currency, settings.Currency) < targetPrice {
				continue
			}
		}
		oldC := 0.0
		if p, ok := prior[h.ID]; ok {
			oldC = s.fx.Convert(p.Price, p.Currency, settings.Currency)
		}
		alerts = append(alerts, domain.Alert{
			TenantID: tenantID,
			HotelID:  h.ID,
			Kind:     domain.AlertCompetitorUndercut,
			OldPrice: oldC,
			NewPrice: newC,
			Message: fmt.Sprintf("%s dropped to %.2f %s, undercutting %s at %.2f %s",
				h.Name, newC, settings.Currency, target.Name, targetPrice, settings.Currency),
		})
	}
	return alerts
}

// Broadcast re-evaluates each tenant tracking the same external property
// against their own threshold and last known price. Tenants are processed
// in parallel and in isolation: one tenant's failure is collected and
// logged, never propagated to the others or to the triggering tenant.
func (s *AnalysisService) Broadcast(ctx context.Context, sourceTenant int64, batch []domain.PriceObservation) {
	var wg sync.WaitGroup
	var mu sync.Mutex
	var failures []error

	for _, o := range batch {
		trackers, err := s.store.ListTrackersByExternalID(ctx, *o.ExternalID, sourceTenant)
		if err != nil {
			log.Warn().Err(err).Str("external_id", *o.ExternalID).Msg("broadcast tracker lookup failed")
			continue
		}
		for _, t := range trackers {
			t, o := t, o
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := s.broadcastToTenant(ctx, t, o); err != nil {
					mu.Lock()
					failures = append(failures, fmt.Errorf("tenant %d hotel %d: %w", t.TenantID, t.ID, err))
					mu.Unlock()
				}
			}()
		}
	}
	wg.Wait()

	for _, err := range failures {
		log.Warn().Err(err).Msg("cross-tenant broadcast failed")
	}
}

func (s *AnalysisService) broadcastToTenant(ctx context.Context, tracker domain.HotelTarget, o domain.PriceObservation) error {
	settings, err := s.store.GetTenantSettings(ctx, tracker.TenantID)
	if err != nil {
		return err
	}
	if settings.AlertThreshold <= 0 {
		return nil
	}
	prior, err := s.store.LatestObservations(ctx, []int64{tracker.ID})
	if err != nil {
		return err
	}
	p, ok := prior[tracker.ID]
	if !ok || p.Price <= 0 {
		return nil
	}

	oldC := s.fx.Convert(p.Price, p.Currency, settings.Currency)
	newC := s.fx.Convert(o.Price, o.Currency, settings.Currency)
	if oldC <= 0 {
		return nil
	}
	pct := (newC - oldC) / oldC * 100
	if math.Abs(pct) < settings.AlertThreshold {
		return nil
	}

	alert := domain.Alert{
		TenantID: tracker.TenantID,
		HotelID:  tracker.ID,
		Kind:     domain.AlertThresholdBreach,
		OldPrice: oldC,
		NewPrice: newC,
		Message: fmt.Sprintf("%s moved %.1f%% (%.2f -> %.2f %s), beyond your %.1f%% threshold",
			tracker.Name, pct, oldC, newC, settings.Currency, settings.AlertThreshold),
	}
	if err := s.store.InsertAlerts(ctx, []domain.Alert{alert}); err != nil {
		return err
	}
	observability.ObserveAlert(string(alert.Kind))
	if err := s.notifier.DispatchAlerts(ctx, []domain.Alert{alert}, settings, map[int64]string{tracker.ID: tracker.Name}); err != nil {
		log.Warn().Err(err).Int64("tenant", tracker.TenantID).Msg("broadcast dispatch failed")
	}
	return nil
}
