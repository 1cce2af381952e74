package domain

import (
	"context"
	"time"
)

// ObservationFilter narrows QueryObservations. Nil fields are ignored.
// Results are always newest-first (recorded_at DESC, id DESC).
type ObservationFilter struct {
	HotelID       *int64
	HotelIDs      []int64 // batch variant of HotelID; empty means no constraint
	ExternalID    *string
	CheckIn       *time.Time // exact check-in date
	CheckInFrom   *time.Time
	CheckInTo     *time.Time
	RecordedAfter *time.Time
	Currency      *string
	// ValidOnly keeps directly observed non-zero prices: price > 0 and
	// is_estimated = false. Repairs and sellouts are excluded.
	ValidOnly bool
	Limit     int
}

type Storage interface {
	// Write paths
	InsertObservations(ctx context.Context, batch []PriceObservation) error
	CreateSession(ctx context.Context, s *ScanSession) error
	UpdateSessionStatus(ctx context.Context, id int64, status SessionStatus, trace []string) error
	InsertAlerts(ctx context.Context, batch []Alert) error
	// MarkAlertRead flips the read flag for an alert owned by tenantID;
	// ErrNotFound for ids outside the tenant.
	MarkAlertRead(ctx context.Context, tenantID, id int64) error
	UpsertHotelMetadata(ctx context.Context, hotelID int64, fields HotelMetadata) error

	// Read paths
	QueryObservations(ctx context.Context, f ObservationFilter) ([]PriceObservation, error)
	// LatestObservations returns the most recent observation per hotel in one
	// round trip (batch pre-fetch before per-hotel loops).
	LatestObservations(ctx context.Context, hotelIDs []int64) (map[int64]PriceObservation, error)
	ListHotels(ctx context.Context, tenantID int64) ([]HotelTarget, error)
	// ListTrackersByExternalID finds every live hotel row, across tenants
	// other than excludeTenant, tracking the given provider property.
	ListTrackersByExternalID(ctx context.Context, externalID string, excludeTenant int64) ([]HotelTarget, error)
	GetTenantSettings(ctx context.Context, tenantID int64) (TenantSettings, error)
	ListAlerts(ctx context.Context, tenantID int64, limit int) ([]Alert, error)
	ListActiveTenants(ctx context.Context) ([]int64, error)
}

// HotelMetadata is the single reconciliation write path for enrichment
// fields; observations remain the source of truth for prices.
type HotelMetadata struct {
	ExternalID  *string
	Rating      *float64
	ReviewCount *int64
	Embedding   []float32
}

type ProviderQuery struct {
	HotelName  string
	Location   string
	CheckIn    time.Time
	CheckOut   time.Time
	Adults     int
	Currency   string
	ExternalID *string
}

type ProviderClient interface {
	FetchPrice(ctx context.Context, q ProviderQuery) (PriceData, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// EmbeddingClient returns a 768-dim vector. Implementations fail soft: on
// error the returned vector is all zeros alongside the error.
type EmbeddingClient interface {
	GetEmbedding(ctx context.Context, text string) ([]float32, error)
}

// Notifier delivery is fire-and-forget; callers log errors and move on.
type Notifier interface {
	DispatchAlerts(ctx context.Context, alerts []Alert, settings TenantSettings, hotelNames map[int64]string) error
}
