package app

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tripzydevops/hotel-sub000/internal/domain"
	"github.com/tripzydevops/hotel-sub000/internal/roomtype"
)

// Quadrant labels around the 100/100 ARI-sentiment midpoint.
const (
	QuadrantPremiumKing  = "Premium King"
	QuadrantValueLeader  = "Value Leader"
	QuadrantDangerZone   = "Danger Zone"
	QuadrantBudget       = "Budget/Economy"
	QuadrantInsufficient = "Insufficient Data"
)

var quadrantAdvice = map[string]string{
	QuadrantPremiumKing:  "You charge above market with the reputation to back it up. Hold rates and protect review quality.",
	QuadrantValueLeader:  "Guests rate you above market while you price below it. There is headroom to raise rates.",
	QuadrantDangerZone:   "You price above market without the sentiment to support it. Expect pressure on occupancy.",
	QuadrantBudget:       "You compete on price. Watch competitor drops closely; margin is your main exposure.",
	QuadrantInsufficient: "Not enough data to position you against the market yet. More scans or review volume needed.",
}

// GetMarketAnalysis builds the tenant's competitive picture: per-hotel
// resolved prices, ARI, sentiment index, rank, quadrant, and a
// forward-filled price grid over the date range.
func (s *AnalysisService) GetMarketAnalysis(ctx context.Context, tenantID int64, roomType string, from, to time.Time) (domain.MarketAnalysis, error) {
	ma := domain.MarketAnalysis{TenantID: tenantID, RoomType: roomType, Quadrant: QuadrantInsufficient}

	hotels, err := s.store.ListHotels(ctx, tenantID)
	if err != nil {
		return ma, fmt.Errorf("list hotels: %w", err)
	}
	if len(hotels) == 0 {
		ma.Advice = quadrantAdvice[QuadrantInsufficient]
		return ma, nil
	}
	settings, err := s.store.GetTenantSettings(ctx, tenantID)
	if err != nil {
		return ma, fmt.Errorf("tenant settings: %w", err)
	}

	ids := make([]int64, 0, len(hotels))
	for _, h := range hotels {
		ids = append(ids, h.ID)
	}
	latest, err := s.store.LatestObservations(ctx, ids)
	if err != nil {
		return ma, fmt.Errorf("latest observations: %w", err)
	}

	// One range query covers every hotel's grid; the API serves this per
	// dashboard load, so per-hotel queries would multiply with fleet size.
	rangeObs, err := s.store.QueryObservations(ctx, domain.ObservationFilter{
		HotelIDs:    ids,
		CheckInFrom: &from,
		CheckInTo:   &to,
	})
	if err != nil {
		return ma, fmt.Errorf("observations in range: %w", err)
	}
	byHotel := make(map[int64][]domain.PriceObservation, len(hotels))
	for _, o := range rangeObs {
		byHotel[o.HotelID] = append(byHotel[o.HotelID], o)
	}

	tbl := s.aliases.Table(ctx)
	today := s.now().UTC().Truncate(24 * time.Hour)

	var (
		targetPrice *float64
		targetIdx   = -1
		compPrices  []float64
	)
	ma.Grid = make(map[int64][]domain.PricePoint, len(hotels))

	for _, h := range hotels {
		snap := domain.HotelSnapshot{
			HotelID:     h.ID,
			Name:        h.Name,
			IsTarget:    h.IsTarget,
			Rating:      h.Rating,
			ReviewCount: h.ReviewCount,
		}

		if o, ok := latest[h.ID]; ok {
			price, matched, conf := s.resolveForAnalysis(tbl, o, roomType)
			if price != nil {
				converted := s.fx.Convert(*price, o.Currency, settings.Currency)
				snap.Price = &converted
				snap.MatchedRoom = matched
				snap.Confidence = conf
			}
		}

		if h.IsTarget {
			targetPrice = snap.Price
			targetIdx = len(ma.Hotels)
		} else if snap.Price != nil {
			compPrices = append(compPrices, *snap.Price)
		}

		// Read-time horizontal fill for the display grid.
		ma.Grid[h.ID] = FillForward(byHotel[h.ID], from, to, today)

		ma.Hotels = append(ma.Hotels, snap)
	}

	if targetPrice != nil && len(compPrices) > 0 {
		ari := *targetPrice / mean(compPrices) * 100
		ma.ARI = &ari
	}
	ma.SentimentIndex = sentimentIndex(hotels)
	ma.Rank = priceRank(ma.Hotels, targetIdx)
	ma.Quadrant = classifyQuadrant(ma.ARI, ma.SentimentIndex)
	ma.Advice = quadrantAdvice[ma.Quadrant]
	return ma, nil
}

// resolveForAnalysis picks the price to compare. With no room type requested
// the observation's headline price stands; otherwise the matcher ladder
// decides, and an unresolvable premium request yields no price at all.
func (s *AnalysisService) resolveForAnalysis(tbl roomtype.Table, o domain.PriceObservation, roomType string) (*float64, *string, float64) {
	if roomType == "" {
		if o.Price <= 0 {
			return nil, nil, 0
		}
		p := o.Price
		return &p, nil, 1.0
	}
	m := ResolveRoomPrice(tbl, o, roomType)
	if m == nil {
		return nil, nil, 0
	}
	name := m.Name
	return &m.Price, &name, m.Confidence
}

// weightedRating dampens low-volume ratings: log10(reviews+10)/2 is 0.5 at
// zero reviews and ~1.0 near a thousand.
func weightedRating(rating float64, reviews int64) float64 {
	return rating * math.Log10(float64(reviews)+10) / 2
}

func sentimentIndex(hotels []domain.HotelTarget) *float64 {
	var target *float64
	var market []float64
	for _, h := range hotels {
		if h.Rating == nil {
			continue
		}
		var reviews int64
		if h.ReviewCount != nil {
			reviews = *h.ReviewCount
		}
		w := weightedRating(*h.Rating, reviews)
		if h.IsTarget {
			target = &w
		} else {
			market = append(market, w)
		}
	}
	if target == nil || len(market) == 0 {
		return nil
	}
	m := mean(market)
	if m == 0 {
		return nil
	}
	idx := *target / m * 100
	return &idx
}

// priceRank is the 1-based position of the target's price in ascending
// order among all priced hotels; 0 when the target has no price.
func priceRank(snaps []domain.HotelSnapshot, targetIdx int) int {
	if targetIdx < 0 || targetIdx >= len(snaps) || snaps[targetIdx].Price == nil {
		return 0
	}
	t := *snaps[targetIdx].Price
	rank := 1
	for i, s := range snaps {
		if i == targetIdx || s.Price == nil {
			continue
		}
		if *s.Price < t {
			rank++
		}
	}
	return rank
}

func classifyQuadrant(ari, sentiment *float64) string {
	if ari == nil || sentiment == nil {
		return QuadrantInsufficient
	}
	switch {
	case *ari >= 100 && *sentiment >= 100:
		return QuadrantPremiumKing
	case *ari < 100 && *sentiment >= 100:
		return QuadrantValueLeader
	case *ari >= 100 && *sentiment < 100:
		return QuadrantDangerZone
	default:
		return QuadrantBudget
	}
}

func mean(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
