package mysql

const insertObservationsPrefix = `
INSERT INTO price_observations
  (hotel_id, external_id, price, currency, check_in_date, recorded_at, source, vendor, search_rank, room_types, is_estimated)
VALUES `

// Observations are append-only: plain INSERT, no ON DUPLICATE clause.

const createSessionSQL = `
INSERT INTO scan_sessions (tenant_id, status, hotels_count, trace)
VALUES (?, ?, ?, ?)
`

const updateSessionSQL = `
UPDATE scan_sessions
SET status = ?,
    trace = ?,
    completed_at = CASE WHEN ? IN ('completed','partial','failed') THEN CURRENT_TIMESTAMP ELSE completed_at END
WHERE id = ?
`

const insertAlertsPrefix = `
INSERT INTO alerts (tenant_id, hotel_id, kind, old_price, new_price, message, is_read)
VALUES `

const markAlertReadSQL = `
UPDATE alerts SET is_read = 1 WHERE id = ? AND tenant_id = ?
`

// COALESCE keeps existing metadata when the new value is NULL; this is the
// single reconciliation write path for enrichment fields.
const upsertHotelMetadataSQL = `
UPDATE hotel_targets
SET external_id  = COALESCE(?, external_id),
    rating       = COALESCE(?, rating),
    review_count = COALESCE(?, review_count),
    embedding    = COALESCE(?, embedding),
    updated_at   = CURRENT_TIMESTAMP
WHERE id = ?
`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const observationColumns = `
  id, hotel_id, external_id, price, currency, check_in_date, recorded_at,
  source, vendor, search_rank, room_types, is_estimated
`

// One row per hotel: the newest observation wins.
const latestObservationsSQL = `
SELECT ` + observationColumns + `
FROM (
  SELECT o.*, ROW_NUMBER() OVER (PARTITION BY hotel_id ORDER BY recorded_at DESC, id DESC) AS rn
  FROM price_observations o
  WHERE hotel_id IN (%s)
) ranked
WHERE rn = 1
`

const listHotelsSQL = `
SELECT id, tenant_id, external_id, name, location, is_target, currency,
       default_adults, rating, review_count, deleted_at
FROM hotel_targets
WHERE tenant_id = ? AND deleted_at IS NULL
ORDER BY id
`

const listTrackersSQL = `
SELECT id, tenant_id, external_id, name, location, is_target, currency,
       default_adults, rating, review_count, deleted_at
FROM hotel_targets
WHERE external_id = ? AND tenant_id <> ? AND deleted_at IS NULL
ORDER BY tenant_id, id
`

const getTenantSettingsSQL = `
SELECT tenant_id, alert_threshold, currency, webhook_url
FROM tenant_settings
WHERE tenant_id = ?
`

const listAlertsSQL = `
SELECT id, tenant_id, hotel_id, kind, old_price, new_price, message, is_read, created_at
FROM alerts
WHERE tenant_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`

const listActiveTenantsSQL = `
SELECT tenant_id FROM tenant_settings WHERE is_active = 1 ORDER BY tenant_id
`
