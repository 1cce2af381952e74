package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tripzydevops/hotel-sub000/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt(p *int) any {
	if p == nil {
		return nil
	}
	return *p
}
func valInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}
func valF64(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) InsertObservations(ctx context.Context, batch []domain.PriceObservation) error {
	if len(batch) == 0 {
		return nil
	}
	values := make([]string, 0, len(batch))
	args := make([]any, 0, len(batch)*11)
	for _, o := range batch {
		rooms, _ := json.Marshal(o.RoomTypes)
		values = append(values, "(?,?,?,?,?,?,?,?,?,?,?)")
		args = append(args,
			o.HotelID,
			valStr(o.ExternalID),
			o.Price,
			o.Currency,
			o.CheckInDate.Format("2006-01-02"),
			o.RecordedAt,
			o.Source,
			valStr(o.Vendor),
			valInt(o.SearchRank),
			string(rooms),
			o.IsEstimated,
		)
	}
	_, err := r.db.ExecContext(ctx, insertObservationsPrefix+strings.Join(values, ","), args...)
	return err
}

func (r *Repo) CreateSession(ctx context.Context, s *domain.ScanSession) error {
	trace, _ := json.Marshal(s.Trace)
	res, err := r.db.ExecContext(ctx, createSessionSQL, s.TenantID, string(s.Status), s.HotelsCount, string(trace))
	if err != nil {
		return err
	}
	s.ID, err = res.LastInsertId()
	return err
}

func (r *Repo) UpdateSessionStatus(ctx context.Context, id int64, status domain.SessionStatus, trace []string) error {
	b, _ := json.Marshal(trace)
	_, err := r.db.ExecContext(ctx, updateSessionSQL, string(status), string(b), string(status), id)
	return err
}

func (r *Repo) InsertAlerts(ctx context.Context, batch []domain.Alert) error {
	if len(batch) == 0 {
		return nil
	}
	values := make([]string, 0, len(batch))
	args := make([]any, 0, len(batch)*7)
	for _, a := range batch {
		values = append(values, "(?,?,?,?,?,?,?)")
		args = append(args, a.TenantID, a.HotelID, string(a.Kind), a.OldPrice, a.NewPrice, a.Message, a.IsRead)
	}
	_, err := r.db.ExecContext(ctx, insertAlertsPrefix+strings.Join(values, ","), args...)
	return err
}

// MarkAlertRead is tenant-scoped: an id belonging to another tenant reads as
// not found rather than silently mutating foreign rows.
func (r *Repo) MarkAlertRead(ctx context.Context, tenantID, id int64) error {
	res, err := r.db.ExecContext(ctx, markAlertReadSQL, id, tenantID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Repo) UpsertHotelMetadata(ctx context.Context, hotelID int64, fields domain.HotelMetadata) error {
	var emb any
	if len(fields.Embedding) > 0 {
		b, _ := json.Marshal(fields.Embedding)
		emb = string(b)
	}
	_, err := r.db.ExecContext(ctx, upsertHotelMetadataSQL,
		valStr(fields.ExternalID),
		valF64(fields.Rating),
		valInt64(fields.ReviewCount),
		emb,
		hotelID,
	)
	return err
}

func (r *Repo) QueryObservations(ctx context.Context, f domain.ObservationFilter) ([]domain.PriceObservation, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, vs ...any) {
		where = append(where, cond)
		args = append(args, vs...)
	}
	if f.HotelID != nil {
		add("hotel_id = ?", *f.HotelID)
	}
	if len(f.HotelIDs) > 0 {
		ph := strings.TrimSuffix(strings.Repeat("?,", len(f.HotelIDs)), ",")
		vs := make([]any, len(f.HotelIDs))
		for i, id := range f.HotelIDs {
			vs[i] = id
		}
		add("hotel_id IN ("+ph+")", vs...)
	}
	if f.ExternalID != nil {
		add("external_id = ?", *f.ExternalID)
	}
	if f.CheckIn != nil {
		add("check_in_date = ?", f.CheckIn.Format("2006-01-02"))
	}
	if f.CheckInFrom != nil {
		add("check_in_date >= ?", f.CheckInFrom.Format("2006-01-02"))
	}
	if f.CheckInTo != nil {
		add("check_in_date <= ?", f.CheckInTo.Format("2006-01-02"))
	}
	if f.RecordedAfter != nil {
		add("recorded_at >= ?", *f.RecordedAfter)
	}
	if f.Currency != nil {
		add("currency = ?", *f.Currency)
	}
	if f.ValidOnly {
		add("price > 0 AND is_estimated = 0")
	}

	q := "SELECT " + observationColumns + " FROM price_observations"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY recorded_at DESC, id DESC"
	if f.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanObservations(rows)
}

func (r *Repo) LatestObservations(ctx context.Context, hotelIDs []int64) (map[int64]domain.PriceObservation, error) {
	out := make(map[int64]domain.PriceObservation, len(hotelIDs))
	if len(hotelIDs) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(hotelIDs)), ",")
	args := make([]any, len(hotelIDs))
	for i, id := range hotelIDs {
		args[i] = id
	}
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(latestObservationsSQL, placeholders), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	obs, err := scanObservations(rows)
	if err != nil {
		return nil, err
	}
	for _, o := range obs {
		out[o.HotelID] = o
	}
	return out, nil
}

func scanObservations(rows *sql.Rows) ([]domain.PriceObservation, error) {
	var out []domain.PriceObservation
	for rows.Next() {
		var (
			o          domain.PriceObservation
			externalID sql.NullString
			vendor     sql.NullString
			rank       sql.NullInt64
			checkIn    sql.NullTime
			roomsJSON  []byte
		)
		if err := rows.Scan(
			&o.ID, &o.HotelID, &externalID, &o.Price, &o.Currency,
			&checkIn, &o.RecordedAt, &o.Source, &vendor, &rank,
			&roomsJSON, &o.IsEstimated,
		); err != nil {
			return nil, err
		}
		if externalID.Valid {
			s := externalID.String
			o.ExternalID = &s
		}
		if vendor.Valid {
			s := vendor.String
			o.Vendor = &s
		}
		if rank.Valid {
			n := int(rank.Int64)
			o.SearchRank = &n
		}
		if checkIn.Valid {
			o.CheckInDate = checkIn.Time
		}
		_ = json.Unmarshal(roomsJSON, &o.RoomTypes)
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repo) ListHotels(ctx context.Context, tenantID int64) ([]domain.HotelTarget, error) {
	rows, err := r.db.QueryContext(ctx, listHotelsSQL, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHotels(rows)
}

func (r *Repo) ListTrackersByExternalID(ctx context.Context, externalID string, excludeTenant int64) ([]domain.HotelTarget, error) {
	rows, err := r.db.QueryContext(ctx, listTrackersSQL, externalID, excludeTenant)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanHotels(rows)
}

func scanHotels(rows *sql.Rows) ([]domain.HotelTarget, error) {
	var out []domain.HotelTarget
	for rows.Next() {
		var (
			h          domain.HotelTarget
			externalID sql.NullString
			rating     sql.NullFloat64
			reviews    sql.NullInt64
			deletedAt  sql.NullTime
		)
		if err := rows.Scan(
			&h.ID, &h.TenantID, &externalID, &h.Name, &h.Location, &h.IsTarget,
			&h.Currency, &h.DefaultAdults, &rating, &reviews, &deletedAt,
		); err != nil {
			return nil, err
		}
		if externalID.Valid {
			s := externalID.String
			h.ExternalID = &s
		}
		if rating.Valid {
			f := rating.Float64
			h.Rating = &f
		}
		if reviews.Valid {
			n := reviews.Int64
			h.ReviewCount = &n
		}
		if deletedAt.Valid {
			t := deletedAt.Time
			h.DeletedAt = &t
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *Repo) GetTenantSettings(ctx context.Context, tenantID int64) (domain.TenantSettings, error) {
	row := r.db.QueryRowContext(ctx, getTenantSettingsSQL, tenantID)
	var (
		ts      domain.TenantSettings
		webhook sql.NullString
	)
	err := row.Scan(&ts.TenantID, &ts.AlertThreshold, &ts.Currency, &webhook)
	if errors.Is(err, sql.ErrNoRows) {
		// sensible defaults for tenants that never touched settings
		return domain.TenantSettings{TenantID: tenantID, AlertThreshold: 5.0, Currency: "USD"}, nil
	}
	if err != nil {
		return domain.TenantSettings{}, err
	}
	if webhook.Valid {
		ts.WebhookURL = webhook.String
	}
	return ts, nil
}

func (r *Repo) ListAlerts(ctx context.Context, tenantID int64, limit int) ([]domain.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, listAlertsSQL, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Alert
	for rows.Next() {
		var a domain.Alert
		var kind string
		if err := rows.Scan(&a.ID, &a.TenantID, &a.HotelID, &kind, &a.OldPrice, &a.NewPrice, &a.Message, &a.IsRead, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Kind = domain.AlertKind(kind)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repo) ListActiveTenants(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, listActiveTenantsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
