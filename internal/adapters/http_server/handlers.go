// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/tripzydevops/hotel-sub000/internal/app"
)

type Handlers struct{ Q *app.QueryService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/tenants/{tenantID}/market-analysis", h.getMarketAnalysis)
	s.mux.Get("/v1/tenants/{tenantID}/alerts", h.listAlerts)
	s.mux.Post("/v1/tenants/{tenantID}/alerts/{id}/read", h.markAlertRead)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func parseDate(s string, def time.Time) time.Time {
	if s == "" {
		return def
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return def
	}
	return t
}

func (h *Handlers) getMarketAnalysis(w http.ResponseWriter, r *http.Request) {
	tenantID, err := strconv.ParseInt(chi.URLParam(r, "tenantID"), 10, 64)
	if err != nil || tenantID <= 0 {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid tenant id")
		return
	}

	now := time.Now().UTC().Truncate(24 * time.Hour)
	from := parseDate(r.URL.Query().Get("from"), now)
	to := parseDate(r.URL.Query().Get("to"), now.AddDate(0, 0, 7))
	if to.Before(from) {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "to precedes from")
		return
	}
	roomType := r.URL.Query().Get("room_type")

	ma, err := h.Q.GetMarketAnalysis(r.Context(), tenantID, roomType, from, to)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "analysis failed")
		return
	}

	etag, body := calcETagAndBody(ma)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func (h *Handlers) listAlerts(w http.ResponseWriter, r *http.Request) {
	tenantID, err := strconv.ParseInt(chi.URLParam(r, "tenantID"), 10, 64)
	if err != nil || tenantID <= 0 {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid tenant id")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	alerts, err := h.Q.ListAlerts(r.Context(), tenantID, limit)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "alert listing failed")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{"items": alerts}); err != nil {
		log.Error().Err(err).Msg("write alerts response failed")
	}
}

func (h *Handlers) markAlertRead(w http.ResponseWriter, r *http.Request) {
	tenantID, err := strconv.ParseInt(chi.URLParam(r, "tenantID"), 10, 64)
	if err != nil || tenantID <= 0 {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid tenant id")
		return
	}
	alertID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || alertID <= 0 {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "invalid alert id")
		return
	}
	if err := h.Q.MarkAlertRead(r.Context(), tenantID, alertID); err != nil {
		writeProblem(w, http.StatusNotFound, "Not Found", "alert not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
