package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/tripzydevops/hotel-sub000/internal/domain"
)

// fakeStore is an in-memory Storage good enough for service tests: it honors
// ObservationFilter semantics including newest-first ordering.
type fakeStore struct {
	mu       sync.Mutex
	obs      []domain.PriceObservation
	hotels   []domain.HotelTarget
	settings map[int64]domain.TenantSettings
	alerts   []domain.Alert
	sessions map[int64]*domain.ScanSession
	trackers map[string][]domain.HotelTarget
	metadata map[int64]domain.HotelMetadata
	nextID   int64

	insertObsErr error
	queryErr     error
	queryCalls   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		settings: map[int64]domain.TenantSettings{},
		sessions: map[int64]*domain.ScanSession{},
		trackers: map[string][]domain.HotelTarget{},
		metadata: map[int64]domain.HotelMetadata{},
	}
}

func (f *fakeStore) InsertObservations(ctx context.Context, batch []domain.PriceObservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertObsErr != nil {
		return f.insertObsErr
	}
	for _, o := range batch {
		f.nextID++
		o.ID = f.nextID
		f.obs = append(f.obs, o)
	}
	return nil
}

func (f *fakeStore) CreateSession(ctx context.Context, s *domain.ScanSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	s.ID = f.nextID
	cp := *s
	f.sessions[s.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateSessionStatus(ctx context.Context, id int64, status domain.SessionStatus, trace []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return domain.ErrNotFound
	}
	s.Status = status
	s.Trace = trace
	return nil
}

func (f *fakeStore) InsertAlerts(ctx context.Context, batch []domain.Alert) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, batch...)
	return nil
}

func (f *fakeStore) MarkAlertRead(ctx context.Context, tenantID, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.alerts {
		if f.alerts[i].ID == id && f.alerts[i].TenantID == tenantID {
			f.alerts[i].IsRead = true
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeStore) UpsertHotelMetadata(ctx context.Context, hotelID int64, fields domain.HotelMetadata) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metadata[hotelID] = fields
	return nil
}

func (f *fakeStore) QueryObservations(ctx context.Context, flt domain.ObservationFilter) ([]domain.PriceObservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryCalls++
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	var out []domain.PriceObservation
	for _, o := range f.obs {
		if flt.HotelID != nil && o.HotelID != *flt.HotelID {
			continue
		}
		if len(flt.HotelIDs) > 0 {
			found := false
			for _, id := range flt.HotelIDs {
				if o.HotelID == id {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		if flt.ExternalID != nil && (o.ExternalID == nil || *o.ExternalID != *flt.ExternalID) {
			continue
		}
		if flt.CheckIn != nil && !o.CheckInDate.Equal(flt.CheckIn.Truncate(24*time.Hour)) {
			continue
		}
		if flt.CheckInFrom != nil && o.CheckInDate.Before(*flt.CheckInFrom) {
			continue
		}
		if flt.CheckInTo != nil && o.CheckInDate.After(*flt.CheckInTo) {
			continue
		}
		if flt.RecordedAfter != nil && !o.RecordedAt.After(*flt.RecordedAfter) {
			continue
		}
		if flt.Currency != nil && o.Currency != *flt.Currency {
			continue
		}
		if flt.ValidOnly && (o.Price <= 0 || o.IsEstimated) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RecordedAt.Equal(out[j].RecordedAt) {
			return out[i].RecordedAt.After(out[j].RecordedAt)
		}
		return out[i].ID > out[j].ID
	})
	if flt.Limit > 0 && len(out) > flt.Limit {
		out = out[:flt.Limit]
	}
	return out, nil
}

func (f *fakeStore) LatestObservations(ctx context.Context, hotelIDs []int64) (map[int64]domain.PriceObservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[int64]domain.PriceObservation)
	for _, id := range hotelIDs {
		for _, o := range f.obs {
			if o.HotelID != id {
				continue
			}
			if cur, ok := out[id]; !ok || o.RecordedAt.After(cur.RecordedAt) {
				out[id] = o
			}
		}
	}
	return out, nil
}

func (f *fakeStore) ListHotels(ctx context.Context, tenantID int64) ([]domain.HotelTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.HotelTarget
	for _, h := range f.hotels {
		if h.TenantID == tenantID && h.DeletedAt == nil {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeStore) ListTrackersByExternalID(ctx context.Context, externalID string, excludeTenant int64) ([]domain.HotelTarget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.HotelTarget
	for _, h := range f.trackers[externalID] {
		if h.TenantID != excludeTenant {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeStore) GetTenantSettings(ctx context.Context, tenantID int64) (domain.TenantSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.settings[tenantID]; ok {
		return s, nil
	}
	return domain.TenantSettings{TenantID: tenantID, AlertThreshold: 5.0, Currency: "USD"}, nil
}

func (f *fakeStore) ListAlerts(ctx context.Context, tenantID int64, limit int) ([]domain.Alert, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Alert
	for _, a := range f.alerts {
		if a.TenantID == tenantID {
			out = append(out, a)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) ListActiveTenants(ctx context.Context) ([]int64, error) {
	return []int64{1}, nil
}

func (f *fakeStore) alertsSnapshot() []domain.Alert {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Alert, len(f.alerts))
	copy(out, f.alerts)
	return out
}

// fakeProvider answers FetchPrice from a canned per-hotel-name script.
type fakeProvider struct {
	mu      sync.Mutex
	byName  map[string]domain.PriceData
	errs    map[string]error
	calls   []string
	panicOn string
}

func (f *fakeProvider) FetchPrice(ctx context.Context, q domain.ProviderQuery) (domain.PriceData, error) {
	f.mu.Lock()
	f.calls = append(f.calls, q.HotelName)
	f.mu.Unlock()
	if q.HotelName == f.panicOn {
		panic("provider blew up")
	}
	if err, ok := f.errs[q.HotelName]; ok {
		return domain.PriceData{}, err
	}
	if pd, ok := f.byName[q.HotelName]; ok {
		pd.CheckIn = q.CheckIn
		pd.CheckOut = q.CheckOut
		return pd, nil
	}
	return domain.PriceData{}, domain.ErrNotFound
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeEmbed struct {
	err error
}

func (f *fakeEmbed) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return make([]float32, 768), f.err
	}
	v := make([]float32, 768)
	v[0] = 1
	return v, nil
}

type fakeNotifier struct {
	mu      sync.Mutex
	batches [][]domain.Alert
	err     error
}

func (f *fakeNotifier) DispatchAlerts(ctx context.Context, alerts []domain.Alert, settings domain.TenantSettings, names map[int64]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, alerts)
	return f.err
}

var errBoom = errors.New("boom")

func strptr(s string) *string   { return &s }
func f64ptr(v float64) *float64 { return &v }
func i64ptr(v int64) *int64     { return &v }
func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
