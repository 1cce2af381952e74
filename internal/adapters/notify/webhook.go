// Package notify delivers alert batches to tenant-configured webhooks.
// Delivery is fire-and-forget: errors are logged, never propagated into the
// scan pipeline.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tripzydevops/hotel-sub000/internal/adapters/observability"
	"github.com/tripzydevops/hotel-sub000/internal/domain"
)

type Webhook struct {
	hc *http.Client
}

func NewWebhook() *Webhook {
	return &Webhook{hc: &http.Client{Timeout: 10 * time.Second}}
}

type alertPayload struct {
	Kind      string  `json:"kind"`
	HotelName string  `json:"hotel_name"`
	OldPrice  float64 `json:"old_price"`
	NewPrice  float64 `json:"new_price"`
	Message   string  `json:"message"`
}

func (w *Webhook) DispatchAlerts(ctx context.Context, alerts []domain.Alert, settings domain.TenantSettings, hotelNames map[int64]string) error {
	if len(alerts) == 0 || settings.WebhookURL == "" {
		return nil
	}

	payload := make([]alertPayload, 0, len(alerts))
	for _, a := range alerts {
		payload = append(payload, alertPayload{
			Kind:      string(a.Kind),
			HotelName: hotelNames[a.HotelID],
			OldPrice:  a.OldPrice,
			NewPrice:  a.NewPrice,
			Message:   a.Message,
		})
	}
	body, _ := json.Marshal(map[string]any{"tenant_id": settings.TenantID, "alerts": payload})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, settings.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := w.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("notifier", "webhook", 0, time.Since(start))
		log.Warn().Err(err).Int64("tenant", settings.TenantID).Msg("alert webhook failed")
		return err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("notifier", "webhook", resp.StatusCode, time.Since(start))

	if resp.StatusCode >= 300 {
		err := fmt.Errorf("webhook status %d", resp.StatusCode)
		log.Warn().Err(err).Int64("tenant", settings.TenantID).Msg("alert webhook rejected")
		return err
	}
	return nil
}
