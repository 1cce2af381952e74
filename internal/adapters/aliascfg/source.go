// Package aliascfg fetches the room-type alias table from a remote config
// endpoint, letting ops extend the vocabulary without a deploy.
package aliascfg

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tripzydevops/hotel-sub000/internal/adapters/observability"
	"github.com/tripzydevops/hotel-sub000/internal/roomtype"
)

type HTTPSource struct {
	url string
	hc  *http.Client
}

func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{url: url, hc: &http.Client{Timeout: 10 * time.Second}}
}

// Wire format: {"aliases": {"deniz": {"code":"SV","name":"Sea View","category":"view"}, ...}}
type wireToken struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

var categories = map[string]roomtype.Category{
	"bed":       roomtype.CatBed,
	"class":     roomtype.CatClass,
	"view":      roomtype.CatView,
	"attribute": roomtype.CatAttribute,
}

func (s *HTTPSource) GetAliasTable(ctx context.Context) (roomtype.Table, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return roomtype.Table{}, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("aliascfg", "fetch", 0, time.Since(start))
		return roomtype.Table{}, err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("aliascfg", "fetch", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return roomtype.Table{}, fmt.Errorf("alias config status %d", resp.StatusCode)
	}

	var payload struct {
		Aliases map[string]wireToken `json:"aliases"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return roomtype.Table{}, err
	}

	tbl := roomtype.Table{Aliases: make(map[string]roomtype.Token, len(payload.Aliases))}
	for word, wt := range payload.Aliases {
		cat, ok := categories[wt.Category]
		if !ok || wt.Code == "" || word == "" {
			continue // skip malformed rows rather than failing the whole table
		}
		tbl.Aliases[word] = roomtype.Token{Code: wt.Code, Name: wt.Name, Category: cat}
	}
	if len(tbl.Aliases) == 0 {
		return roomtype.Table{}, fmt.Errorf("alias config contained no usable aliases")
	}
	return tbl, nil
}
