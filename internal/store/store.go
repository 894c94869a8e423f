package store

import (
	"context"
	"time"

	"forecastd/internal/models"
)

// ForecastStore persists forecast records keyed by (city, state, date).
// Lookups signal absence with a false bool or an empty slice, never an error;
// write failures are returned as *errs.StoreError.
type ForecastStore interface {
	FindOne(ctx context.Context, city, state string, date time.Time) (models.ForecastRecord, bool, error)
	FindAllForLocation(ctx context.Context, city, state string) ([]models.ForecastRecord, error)
	Save(ctx context.Context, rec models.ForecastRecord) (models.ForecastRecord, error)
	SaveBatch(ctx context.Context, recs []models.ForecastRecord) ([]models.ForecastRecord, error)
}
