package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"forecastd/internal/models"
)

// PostgresStore implements ForecastStore on PostgreSQL. Concurrent upserts to
// the same identity are resolved by the unique constraint on
// (city, state, date); last writer wins without application-level locking.
type PostgresStore struct {
	db *sqlx.DB
}

// Compile-time check
var _ ForecastStore = (*PostgresStore)(nil)

// Open connects to PostgreSQL, pings, and runs migrations.
func Open(dsn string) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, classify(err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &PostgresStore{db: db}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStore wraps an existing connection. Used by tests.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Ping checks database reachability. Used by the health handler.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS forecasts (
			id BIGSERIAL PRIMARY KEY,
			city TEXT NOT NULL,
			state TEXT NOT NULL,
			date DATE NOT NULL,
			temperature DOUBLE PRECISION NOT NULL,
			feels_like DOUBLE PRECISION NOT NULL,
			conditions TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			precip_chance INT NOT NULL DEFAULT 0 CHECK (precip_chance BETWEEN 0 AND 100),
			humidity INT NOT NULL DEFAULT 0 CHECK (humidity BETWEEN 0 AND 100),
			wind_speed DOUBLE PRECISION NOT NULL DEFAULT 0,
			icon TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (city, state, date)
		);`,
		"CREATE INDEX IF NOT EXISTS idx_forecasts_location ON forecasts(city, state);",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return classify(err)
		}
	}
	return nil
}

const forecastColumns = `id, city, state, date, temperature, feels_like, conditions,
	description, precip_chance, humidity, wind_speed, icon, created_at, updated_at`

// upsertQuery fully replaces non-identity fields on conflict; a second save
// under the same identity advances updated_at but keeps created_at.
const upsertQuery = `
	INSERT INTO forecasts (
		city, state, date, temperature, feels_like, conditions,
		description, precip_chance, humidity, wind_speed, icon
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (city, state, date) DO UPDATE SET
		temperature = EXCLUDED.temperature,
		feels_like = EXCLUDED.feels_like,
		conditions = EXCLUDED.conditions,
		description = EXCLUDED.description,
		precip_chance = EXCLUDED.precip_chance,
		humidity = EXCLUDED.humidity,
		wind_speed = EXCLUDED.wind_speed,
		icon = EXCLUDED.icon,
		updated_at = NOW()
	RETURNING ` + forecastColumns

// FindOne returns the record for the identity triple, or found=false when no
// row exists. Absence is not an error.
func (s *PostgresStore) FindOne(ctx context.Context, city, state string, date time.Time) (models.ForecastRecord, bool, error) {
	var rec models.ForecastRecord
	query := `SELECT ` + forecastColumns + ` FROM forecasts WHERE city = $1 AND state = $2 AND date = $3`
	err := s.db.GetContext(ctx, &rec, query, city, state, models.DayOf(date))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ForecastRecord{}, false, nil
		}
		return models.ForecastRecord{}, false, classify(err)
	}
	return rec, true, nil
}

// FindAllForLocation returns every stored record for a location ordered by
// ascending date. An empty slice means no data, not failure.
func (s *PostgresStore) FindAllForLocation(ctx context.Context, city, state string) ([]models.ForecastRecord, error) {
	recs := []models.ForecastRecord{}
	query := `SELECT ` + forecastColumns + ` FROM forecasts WHERE city = $1 AND state = $2 ORDER BY date ASC`
	if err := s.db.SelectContext(ctx, &recs, query, city, state); err != nil {
		return nil, classify(err)
	}
	return recs, nil
}

// Save upserts one record and returns the persisted row including generated
// identity and timestamps.
func (s *PostgresStore) Save(ctx context.Context, rec models.ForecastRecord) (models.ForecastRecord, error) {
	var saved models.ForecastRecord
	err := s.db.GetContext(ctx, &saved, upsertQuery,
		rec.City, rec.State, models.DayOf(rec.Date),
		rec.Temperature, rec.FeelsLike, rec.Conditions, rec.Description,
		rec.PrecipChance, rec.Humidity, rec.WindSpeed, rec.Icon,
	)
	if err != nil {
		return models.ForecastRecord{}, classify(err)
	}
	return saved, nil
}

// SaveBatch upserts every record inside one transaction: either all records
// are durably saved or none are. A forecast window is one fetch result and
// must never be partially visible.
func (s *PostgresStore) SaveBatch(ctx context.Context, recs []models.ForecastRecord) ([]models.ForecastRecord, error) {
	if len(recs) == 0 {
		return []models.ForecastRecord{}, nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, classify(err)
	}
	defer tx.Rollback()

	saved := make([]models.ForecastRecord, 0, len(recs))
	for _, rec := range recs {
		var out models.ForecastRecord
		err := tx.GetContext(ctx, &out, upsertQuery,
			rec.City, rec.State, models.DayOf(rec.Date),
			rec.Temperature, rec.FeelsLike, rec.Conditions, rec.Description,
			rec.PrecipChance, rec.Humidity, rec.WindSpeed, rec.Icon,
		)
		if err != nil {
			return nil, classify(err)
		}
		saved = append(saved, out)
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(err)
	}
	return saved, nil
}
