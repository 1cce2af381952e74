package provider

import (
	"strconv"
	"strings"

	"github.com/tripzydevops/hotel-sub000/internal/domain"
)

// Provider payloads vary between the property-rates and search endpoints and
// drift over time, so fields are resolved through alias paths instead of
// rigid structs.

var priceAliases = map[string][]string{
	"price":    {"price", "rate", "lowest_rate", "rates.lowest", "pricing.total"},
	"currency": {"currency", "currency_code", "pricing.currency"},
	"vendor":   {"vendor", "source", "ota", "provider"},
	"external": {"property_id", "external_id", "id"},
}

var roomAliases = map[string][]string{
	"name":     {"name", "room_type", "title", "description"},
	"price":    {"price", "rate", "amount"},
	"currency": {"currency", "currency_code"},
}

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

func firstString(m map[string]any, paths ...string) string {
	for _, p := range paths {
		switch v := lookupAny(m, p).(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// firstPrice accepts numbers or localized price strings.
func firstPrice(m map[string]any, paths ...string) (float64, bool) {
	for _, p := range paths {
		switch v := lookupAny(m, p).(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case string:
			if f, err := ParsePrice(v); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

func firstInt(m map[string]any, paths ...string) (int, bool) {
	for _, p := range paths {
		switch v := lookupAny(m, p).(type) {
		case float64:
			return int(v), true
		case int:
			return v, true
		}
	}
	return 0, false
}

// mapPriceData normalizes a payload into PriceData. Search responses wrap
// matches in a "results" array; the property-rates endpoint returns the
// object directly. Returns ok=false for empty result sets.
func mapPriceData(payload map[string]any, q domain.ProviderQuery) (domain.PriceData, bool) {
	obj := payload
	if raw, ok := lookupAny(payload, "results").([]any); ok {
		if len(raw) == 0 {
			return domain.PriceData{}, false
		}
		first, ok := raw[0].(map[string]any)
		if !ok {
			return domain.PriceData{}, false
		}
		obj = first
	}

	price, ok := firstPrice(obj, priceAliases["price"]...)
	if !ok {
		return domain.PriceData{}, false
	}

	pd := domain.PriceData{
		Price:    price,
		Currency: strings.ToUpper(firstString(obj, priceAliases["currency"]...)),
		Vendor:   firstString(obj, priceAliases["vendor"]...),
		CheckIn:  q.CheckIn,
		CheckOut: q.CheckOut,
	}
	if pd.Currency == "" {
		pd.Currency = q.Currency
	}
	if rank, ok := firstInt(obj, "rank", "position", "search_rank"); ok {
		pd.SearchRank = rank
	}
	if ext := firstString(obj, priceAliases["external"]...); ext != "" {
		pd.ExternalID = &ext
	} else {
		pd.ExternalID = q.ExternalID
	}

	if raw, ok := lookupAny(obj, "rooms").([]any); ok {
		pd.Rooms = mapRooms(raw, pd.Currency)
	} else if raw, ok := lookupAny(obj, "offers").([]any); ok {
		pd.Rooms = mapRooms(raw, pd.Currency)
	}
	return pd, true
}

func mapRooms(raw []any, defaultCurrency string) []domain.RoomOffer {
	out := make([]domain.RoomOffer, 0, len(raw))
	for _, it := range raw {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		name := firstString(m, roomAliases["name"]...)
		if name == "" {
			continue
		}
		price, _ := firstPrice(m, roomAliases["price"]...)
		cur := strings.ToUpper(firstString(m, roomAliases["currency"]...))
		if cur == "" {
			cur = defaultCurrency
		}
		out = append(out, domain.RoomOffer{Name: name, Price: price, Currency: cur})
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
