package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"rentinvest/models"
	"rentinvest/utils"
)

// PostgresLoader loads condensed CSV files into the relational schema:
// three lookup tables (status, style, location) resolved with get-or-create
// semantics, and a properties fact table upserted on (property_url, mls_id).
type PostgresLoader struct {
	db     *sql.DB
	store  *CSVStore
	logger *utils.Logger
}

// locationKey is the natural key of the locations lookup.
type locationKey struct {
	City    string
	State   string
	ZipCode string
}

// NewPostgresLoader opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use loader.
func NewPostgresLoader(dsn string, store *CSVStore, logger *utils.Logger) (*PostgresLoader, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	ping := &utils.RetryConfig{MaxAttempts: 10, BaseDelay: 2 * time.Second, Logger: logger}
	if err := ping.Do("postgres-ping", db.Ping); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	l := &PostgresLoader{db: db, store: store, logger: logger}
	if err := l.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}
	return l, nil
}

func (l *PostgresLoader) migrate() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS property_status (
			status_id   SERIAL PRIMARY KEY,
			status_name TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS property_style (
			style_id   SERIAL PRIMARY KEY,
			style_name TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS locations (
			location_id SERIAL PRIMARY KEY,
			city        TEXT NOT NULL DEFAULT '',
			state       TEXT NOT NULL DEFAULT '',
			zip_code    TEXT NOT NULL DEFAULT '',
			UNIQUE (city, state, zip_code)
		);

		CREATE TABLE IF NOT EXISTS properties (
			property_url   TEXT   NOT NULL,
			mls_id         BIGINT NOT NULL,
			mls            TEXT,
			status_id      INT REFERENCES property_status(status_id),
			style_id       INT REFERENCES property_style(style_id),
			location_id    INT REFERENCES locations(location_id),
			street         TEXT,
			unit           TEXT,
			beds           BIGINT,
			full_baths     BIGINT,
			half_baths     BIGINT,
			sqft           BIGINT,
			year_built     BIGINT,
			days_on_mls    BIGINT,
			list_price     BIGINT,
			list_date      TEXT,
			sold_price     BIGINT,
			last_sold_date TEXT,
			lot_sqft       BIGINT,
			price_per_sqft BIGINT,
			latitude       DOUBLE PRECISION,
			longitude      DOUBLE PRECISION,
			stories        BIGINT,
			hoa_fee        BIGINT,
			parking_garage BIGINT,
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (property_url, mls_id)
		);

		CREATE INDEX IF NOT EXISTS idx_properties_status   ON properties(status_id);
		CREATE INDEX IF NOT EXISTS idx_properties_location ON properties(location_id);
		CREATE INDEX IF NOT EXISTS idx_properties_sold     ON properties(last_sold_date);
	`)
	return err
}

// Load persists one condensed file. The whole load is a single transaction:
// any failure rolls back fully and is surfaced to the caller.
func (l *PostgresLoader) Load(ctx context.Context, condensedFile string) error {
	records, err := l.store.ReadRecords(condensedFile)
	if err != nil {
		return fmt.Errorf("postgres: read %q: %w", condensedFile, err)
	}
	if len(records) == 0 {
		l.logger.Warn("[load] %s is empty, nothing to do", condensedFile)
		return nil
	}

	// Period files keep both versions of a re-scraped listing (full-row
	// dedupe only). The fact table is keyed, so collapse to the last
	// occurrence per (property_url, mls_id) before staging.
	records = lastPerKey(records)

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	statusIDs, err := l.resolveStatusIDs(ctx, tx, records)
	if err != nil {
		return err
	}
	styleIDs, err := l.resolveStyleIDs(ctx, tx, records)
	if err != nil {
		return err
	}
	locationIDs, err := l.resolveLocationIDs(ctx, tx, records)
	if err != nil {
		return err
	}

	if err := l.stageAndUpsert(ctx, tx, records, statusIDs, styleIDs, locationIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}

	l.logger.Info("[load] %s — %d rows upserted", condensedFile, len(records))
	return nil
}

// Close releases the database connection.
func (l *PostgresLoader) Close() error {
	return l.db.Close()
}

// resolveStatusIDs maps every distinct status string to its surrogate id,
// creating missing rows. Insert-or-ignore followed by a select keeps the id
// stable even if a concurrent loader inserts the same key in between.
func (l *PostgresLoader) resolveStatusIDs(ctx context.Context, tx *sql.Tx, records []*models.ListingRecord) (map[string]int64, error) {
	ids := make(map[string]int64)
	for _, r := range records {
		if r.Status == "" {
			continue
		}
		if _, ok := ids[r.Status]; ok {
			continue
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO property_status (status_name) VALUES ($1) ON CONFLICT (status_name) DO NOTHING`,
			r.Status); err != nil {
			return nil, fmt.Errorf("postgres: insert status %q: %w", r.Status, err)
		}

		var id int64
		if err := tx.QueryRowContext(ctx,
			`SELECT status_id FROM property_status WHERE status_name = $1`,
			r.Status).Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: select status %q: %w", r.Status, err)
		}
		ids[r.Status] = id
	}
	return ids, nil
}

func (l *PostgresLoader) resolveStyleIDs(ctx context.Context, tx *sql.Tx, records []*models.ListingRecord) (map[string]int64, error) {
	ids := make(map[string]int64)
	for _, r := range records {
		if r.Style == "" {
			continue
		}
		if _, ok := ids[r.Style]; ok {
			continue
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO property_style (style_name) VALUES ($1) ON CONFLICT (style_name) DO NOTHING`,
			r.Style); err != nil {
			return nil, fmt.Errorf("postgres: insert style %q: %w", r.Style, err)
		}

		var id int64
		if err := tx.QueryRowContext(ctx,
			`SELECT style_id FROM property_style WHERE style_name = $1`,
			r.Style).Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: select style %q: %w", r.Style, err)
		}
		ids[r.Style] = id
	}
	return ids, nil
}

func (l *PostgresLoader) resolveLocationIDs(ctx context.Context, tx *sql.Tx, records []*models.ListingRecord) (map[locationKey]int64, error) {
	ids := make(map[locationKey]int64)
	for _, r := range records {
		key := locationKey{City: r.City, State: r.State, ZipCode: r.ZipCode}
		if key == (locationKey{}) {
			continue
		}
		if _, ok := ids[key]; ok {
			continue
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO locations (city, state, zip_code) VALUES ($1, $2, $3)
			 ON CONFLICT (city, state, zip_code) DO NOTHING`,
			key.City, key.State, key.ZipCode); err != nil {
			return nil, fmt.Errorf("postgres: insert location %v: %w", key, err)
		}

		var id int64
		if err := tx.QueryRowContext(ctx,
			`SELECT location_id FROM locations WHERE city = $1 AND state = $2 AND zip_code = $3`,
			key.City, key.State, key.ZipCode).Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: select location %v: %w", key, err)
		}
		ids[key] = id
	}
	return ids, nil
}

// factColumns is the properties column list in staging/upsert order.
var factColumns = []string{
	"property_url", "mls_id", "mls", "status_id", "style_id", "location_id",
	"street", "unit", "beds", "full_baths", "half_baths", "sqft",
	"year_built", "days_on_mls", "list_price", "list_date", "sold_price",
	"last_sold_date", "lot_sqft", "price_per_sqft", "latitude", "longitude",
	"stories", "hoa_fee", "parking_garage",
}

func (l *PostgresLoader) stageAndUpsert(ctx context.Context, tx *sql.Tx,
	records []*models.ListingRecord,
	statusIDs, styleIDs map[string]int64, locationIDs map[locationKey]int64) error {

	if _, err := tx.ExecContext(ctx, `
		CREATE TEMP TABLE properties_stage
		(LIKE properties INCLUDING DEFAULTS)
		ON COMMIT DROP
	`); err != nil {
		return fmt.Errorf("postgres: create staging table: %w", err)
	}

	const batchSize = 40
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := l.stageBatch(ctx, tx, records[i:end], statusIDs, styleIDs, locationIDs); err != nil {
			return err
		}
	}

	cols := strings.Join(factColumns, ", ")
	var assigns []string
	for _, c := range factColumns[2:] {
		assigns = append(assigns, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}
	assigns = append(assigns, "updated_at = NOW()")

	upsert := fmt.Sprintf(`
		INSERT INTO properties (%s)
		SELECT %s FROM properties_stage
		ON CONFLICT (property_url, mls_id) DO UPDATE SET %s
	`, cols, cols, strings.Join(assigns, ", "))

	if _, err := tx.ExecContext(ctx, upsert); err != nil {
		return fmt.Errorf("postgres: upsert properties: %w", err)
	}
	return nil
}

func (l *PostgresLoader) stageBatch(ctx context.Context, tx *sql.Tx,
	batch []*models.ListingRecord,
	statusIDs, styleIDs map[string]int64, locationIDs map[locationKey]int64) error {

	nCols := len(factColumns)
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*nCols)

	for idx, r := range batch {
		placeholders := make([]string, nCols)
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", idx*nCols+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")

		valueArgs = append(valueArgs,
			r.PropertyURL, r.MlsID, nullString(r.MLS),
			lookupID(statusIDs, r.Status),
			lookupID(styleIDs, r.Style),
			locationID(locationIDs, r),
			nullString(r.Street), nullString(r.Unit),
			r.Beds, r.FullBaths, r.HalfBaths, r.Sqft,
			r.YearBuilt, r.DaysOnMls, r.ListPrice, nullString(r.ListDate),
			r.SoldPrice, nullString(r.LastSoldDate),
			r.LotSqft, r.PricePerSqft, r.Latitude, r.Longitude,
			r.Stories, r.HoaFee, r.ParkingGarage,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO properties_stage (%s)
		VALUES %s
	`, strings.Join(factColumns, ", "), strings.Join(valueStrings, ","))

	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("postgres: stage batch: %w", err)
	}
	return nil
}

// lastPerKey keeps the last occurrence of each (property_url, mls_id) pair,
// preserving first-seen order.
func lastPerKey(records []*models.ListingRecord) []*models.ListingRecord {
	type key struct {
		URL   string
		MlsID int64
	}
	index := make(map[key]int, len(records))
	out := make([]*models.ListingRecord, 0, len(records))

	for _, r := range records {
		k := key{URL: r.PropertyURL, MlsID: r.MlsID}
		if pos, ok := index[k]; ok {
			out[pos] = r
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}

func lookupID(ids map[string]int64, name string) sql.NullInt64 {
	if id, ok := ids[name]; ok {
		return sql.NullInt64{Int64: id, Valid: true}
	}
	return sql.NullInt64{}
}

func locationID(ids map[locationKey]int64, r *models.ListingRecord) sql.NullInt64 {
	key := locationKey{City: r.City, State: r.State, ZipCode: r.ZipCode}
	if id, ok := ids[key]; ok {
		return sql.NullInt64{Int64: id, Valid: true}
	}
	return sql.NullInt64{}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
