package domain

import "time"

// HotelTarget is one hotel tracked by a tenant. At most one target hotel
// (IsTarget=true) exists per tenant. Rows are tombstoned, never hard-deleted,
// so historical observations keep a valid parent.
type HotelTarget struct {
	ID            int64
	TenantID      int64
	ExternalID    *string // provider's property id; join key for cross-tenant sharing
	Name          string
	Location      string
	IsTarget      bool
	Currency      string
	DefaultAdults int
	Rating        *float64
	ReviewCount   *int64
	Embedding     []float32
	DeletedAt     *time.Time
}

type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionPartial   SessionStatus = "partial"
	SessionFailed    SessionStatus = "failed"
)

type ScanSession struct {
	ID          int64
	TenantID    int64
	Status      SessionStatus
	HotelsCount int
	CreatedAt   time.Time
	CompletedAt *time.Time
	Trace       []string // append-only reasoning log
}

// RoomOffer is a single room rate embedded in an observation. Name is the
// provider's raw text; the canonical fields come from the room-type table.
type RoomOffer struct {
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
	CanonicalCode string  `json:"canonical_code"`
	CanonicalName string  `json:"canonical_name"`
}

// PriceObservation is append-only: never mutated after insert. The "current"
// price for a (hotel, check-in date) is the most recent observation.
// Price==0 with IsEstimated=false is a verified failure/sellout; "never
// attempted" is the absence of a row.
type PriceObservation struct {
	ID          int64
	HotelID     int64
	ExternalID  *string
	Price       float64
	Currency    string
	CheckInDate time.Time // date only, midnight UTC
	RecordedAt  time.Time
	Source      string // scrape | pulse | repair
	Vendor      *string
	SearchRank  *int
	RoomTypes   []RoomOffer
	IsEstimated bool
}

type AlertKind string

const (
	AlertThresholdBreach    AlertKind = "threshold_breach"
	AlertCompetitorUndercut AlertKind = "competitor_undercut"
)

type Alert struct {
	ID        int64
	TenantID  int64
	HotelID   int64
	Kind      AlertKind
	OldPrice  float64
	NewPrice  float64
	Message   string
	IsRead    bool
	CreatedAt time.Time
}

type ScrapeStatus string

const (
	ScrapeSuccess  ScrapeStatus = "success"
	ScrapeNotFound ScrapeStatus = "not_found"
	ScrapeError    ScrapeStatus = "error"
)

// PriceData is the normalized outcome of a provider call or a pulse-cache hit.
type PriceData struct {
	Price      float64
	Currency   string
	Vendor     string
	SearchRank int
	ExternalID *string
	CheckIn    time.Time
	CheckOut   time.Time
	Rooms      []RoomOffer
	FromCache  bool
}

// ScrapeResult is the tagged per-hotel outcome of a scan. Exactly one result
// exists per hotel in the batch; Data is set only for ScrapeSuccess.
type ScrapeResult struct {
	HotelID int64
	Status  ScrapeStatus
	Data    *PriceData
	Err     string
}

// CachedResult is an anonymized pulse-cache hit: it carries no internal hotel
// id from the writing tenant.
type CachedResult struct {
	ExternalID string
	CheckIn    time.Time
	Price      float64
	Currency   string
	Vendor     *string
	RoomTypes  []RoomOffer
	RecordedAt time.Time
}

type TenantSettings struct {
	TenantID       int64
	AlertThreshold float64 // percent; breach at |change| >= threshold
	Currency       string
	WebhookURL     string
}

// PricePoint is one cell of a materialized date-range price grid.
// Price==nil means unknown (never fabricated for future dates); Sellout marks
// an explicit zero-price observation.
type PricePoint struct {
	Date      time.Time
	Price     *float64
	Estimated bool
	Sellout   bool
}

type HotelSnapshot struct {
	HotelID     int64
	Name        string
	IsTarget    bool
	Price       *float64 // converted to the tenant currency
	MatchedRoom *string
	Confidence  float64
	Rating      *float64
	ReviewCount *int64
}

type MarketAnalysis struct {
	TenantID       int64
	RoomType       string
	ARI            *float64
	SentimentIndex *float64
	Rank           int // 1-based among tracked hotels; 0 when undefined
	Quadrant       string
	Advice         string
	Hotels         []HotelSnapshot
	Grid           map[int64][]PricePoint // hotel id -> per-date points
}

type AnalysisOutcome struct {
	PricesUpdated   int
	Alerts          []Alert
	PartialFailures []string
}
