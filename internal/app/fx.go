package app

import "strings"

// Converter does static-table currency conversion for index math. Rates are
// expressed as units per USD and injected at wiring time; cross rates go
// through USD.
type Converter struct {
	perUSD map[string]float64
}

func NewConverter(perUSD map[string]float64) *Converter {
	if perUSD == nil {
		perUSD = map[string]float64{
			"USD": 1.0,
			"EUR": 0.92,
			"GBP": 0.79,
			"TRY": 41.0,
			"JPY": 147.0,
		}
	}
	return &Converter{perUSD: perUSD}
}

// Convert returns amount unchanged when either currency is unknown; index
// math degrades gracefully instead of erroring out mid-analysis.
func (c *Converter) Convert(amount float64, from, to string) float64 {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to || from == "" || to == "" {
		return amount
	}
	fr, ok1 := c.perUSD[from]
	tr, ok2 := c.perUSD[to]
	if !ok1 || !ok2 || fr == 0 {
		return amount
	}
	return amount / fr * tr
}
