package app

import (
	"strings"

	"github.com/tripzydevops/hotel-sub000/internal/domain"
	"github.com/tripzydevops/hotel-sub000/internal/roomtype"
)

// RoomMatch is a resolved room price with the strategy's confidence score.
type RoomMatch struct {
	Price      float64
	Name       string
	Confidence float64
}

type roomRequest struct {
	raw       string // lower-cased original
	canonical roomtype.Canonical
	table     roomtype.Table
	generic   bool
	premium   bool
}

// matcher is one pure strategy; nil means "no match, try the next one".
type matcher func(req roomRequest, obs domain.PriceObservation) *RoomMatch

// Strategies in strict priority order. The order is data, not control flow,
// so it can be asserted in tests directly.
var roomMatchers = []matcher{
	matchCanonicalCode,
	matchCanonicalName,
	matchRawWithSynonyms,
	matchCheapestFallback,
}

// ResolveRoomPrice finds the price of the requested room type inside an
// observation's room list. Premium requests (suite, villa, presidential)
// never resolve through the cheapest-room fallback: if no true match exists
// the result is nil.
func ResolveRoomPrice(tbl roomtype.Table, obs domain.PriceObservation, requestedRoomType string) *RoomMatch {
	trimmed := strings.TrimSpace(requestedRoomType)
	if trimmed == "" || len(obs.RoomTypes) == 0 {
		return nil
	}
	canon := roomtype.Canonicalize(tbl, trimmed)
	req := roomRequest{
		raw:       strings.ToLower(trimmed),
		canonical: canon,
		table:     tbl,
		generic:   roomtype.IsGenericCode(canon.Code),
		premium:   roomtype.IsPremiumCode(canon.Code),
	}
	for _, m := range roomMatchers {
		if hit := m(req, obs); hit != nil {
			return hit
		}
	}
	return nil
}

func matchCanonicalCode(req roomRequest, obs domain.PriceObservation) *RoomMatch {
	if req.canonical.Code == roomtype.CodeOther || req.canonical.Code == roomtype.CodeUnknown {
		return nil
	}
	for _, r := range obs.RoomTypes {
		if r.CanonicalCode == req.canonical.Code && r.Price > 0 {
			return &RoomMatch{Price: r.Price, Name: r.Name, Confidence: 0.95}
		}
	}
	return nil
}

func matchCanonicalName(req roomRequest, obs domain.PriceObservation) *RoomMatch {
	if req.canonical.Code == roomtype.CodeOther || req.canonical.Code == roomtype.CodeUnknown {
		return nil
	}
	want := strings.ToLower(req.canonical.Name)
	for _, r := range obs.RoomTypes {
		have := strings.ToLower(r.CanonicalName)
		if have == "" || r.Price <= 0 {
			continue
		}
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return &RoomMatch{Price: r.Price, Name: r.Name, Confidence: 0.9}
		}
	}
	return nil
}

// matchRawWithSynonyms checks the provider's raw room names, expanding each
// requested word into its locale synonyms ("sea" also tries "deniz",
// "ocean", ...), so an English request can hit a Turkish room list.
func matchRawWithSynonyms(req roomRequest, obs domain.PriceObservation) *RoomMatch {
	words := strings.Fields(req.raw)
	needles := make([]string, 0, len(words)*3)
	for _, w := range words {
		needles = append(needles, w)
		needles = append(needles, req.table.SynonymsFor(w)...)
	}
	for _, r := range obs.RoomTypes {
		if r.Price <= 0 {
			continue
		}
		name := strings.ToLower(r.Name)
		for _, n := range needles {
			if len(n) >= 3 && strings.Contains(name, n) {
				return &RoomMatch{Price: r.Price, Name: r.Name, Confidence: 0.85}
			}
		}
	}
	return nil
}

// matchCheapestFallback applies only to generic requests. Confidence is 0.7
// when the cheapest room itself looks generic, 0.65 otherwise.
func matchCheapestFallback(req roomRequest, obs domain.PriceObservation) *RoomMatch {
	if req.premium || !req.generic {
		return nil
	}
	var best *domain.RoomOffer
	for i := range obs.RoomTypes {
		r := &obs.RoomTypes[i]
		if r.Price <= 0 {
			continue
		}
		if best == nil || r.Price < best.Price {
			best = r
		}
	}
	if best == nil {
		return nil
	}
	conf := 0.65
	if roomtype.IsGenericCode(best.CanonicalCode) {
		conf = 0.7
	}
	return &RoomMatch{Price: best.Price, Name: best.Name, Confidence: conf}
}
