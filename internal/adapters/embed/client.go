// Package embed calls the embedding service used to enrich hotel metadata.
package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/tripzydevops/hotel-sub000/internal/adapters/observability"
)

const (
	// Dim is the vector width the service returns.
	Dim = 768
	// callTimeout caps a single embedding call; enrichment must never stall
	// a scan session.
	callTimeout = 10 * time.Second
)

type Client struct {
	base string
	hc   *http.Client
	key  string
}

func New(base, key string) *Client {
	return &Client{base: base, hc: &http.Client{Timeout: callTimeout}, key: key}
}

// GetEmbedding fails soft: on any error (including timeout) it returns an
// all-zero vector alongside the error, so callers can persist something and
// record a partial failure.
func (c *Client) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	zero := make([]float32, Dim)

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	body, _ := json.Marshal(map[string]string{"input": text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/v1/embeddings", bytes.NewReader(body))
	if err != nil {
		return zero, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.key != "" {
		req.Header.Set("Authorization", "Bearer "+c.key)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("embeddings", "embed", 0, time.Since(start))
		return zero, err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("embeddings", "embed", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return zero, fmt.Errorf("embedding service status %d", resp.StatusCode)
	}

	var payload struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return zero, err
	}
	if len(payload.Embedding) != Dim {
		return zero, fmt.Errorf("unexpected embedding width %d", len(payload.Embedding))
	}
	return payload.Embedding, nil
}
