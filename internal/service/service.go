package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"forecastd/internal/client"
	"forecastd/internal/errs"
	"forecastd/internal/models"
	"forecastd/internal/observability"
	"forecastd/internal/store"
)

// DefaultWindowDays is the provider fetch window used on a cache miss.
const DefaultWindowDays = 3

// ForecastService implements the cache-first retrieval policy and the
// explicit-save path. Provider results are never persisted by Retrieve;
// callers decide what enters the store.
type ForecastService struct {
	client     client.ForecastClient
	store      store.ForecastStore
	windowDays int
}

// NewForecastService creates a ForecastService. windowDays <= 0 falls back to
// the default 3-day window.
func NewForecastService(forecastClient client.ForecastClient, forecastStore store.ForecastStore, windowDays int) *ForecastService {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &ForecastService{
		client:     forecastClient,
		store:      forecastStore,
		windowDays: windowDays,
	}
}

// loggerFromContext extracts a zap.Logger from request context if present.
// Returns nil if logger is not found or context is invalid.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

// Retrieve answers "what is the forecast for (city, state) on date". With a
// date it checks the store first and falls back to the provider on a miss;
// without a date it always fetches the full provider window. A requested date
// outside the provider horizon yields an empty result, not an error. Store
// and provider failures propagate unchanged; no retry happens at this layer.
func (s *ForecastService) Retrieve(ctx context.Context, city, state string, date *time.Time) ([]models.ForecastRecord, error) {
	city = models.NormalizeLocation(city)
	state = models.NormalizeLocation(state)
	logger := loggerFromContext(ctx)

	if date != nil {
		day := models.DayOf(*date)
		rec, found, err := s.store.FindOne(ctx, city, state, day)
		if err != nil {
			recordStoreError("find_one", err)
			return nil, err
		}
		if found {
			observability.StoreLookupsTotal.WithLabelValues("hit").Inc()
			observability.ForecastRetrievalsTotal.WithLabelValues("cache_hit").Inc()
			if logger != nil {
				logger.Debug("forecast cache hit",
					zap.String("city", city), zap.String("state", state),
					zap.Time("date", day))
			}
			return []models.ForecastRecord{rec}, nil
		}
		observability.StoreLookupsTotal.WithLabelValues("miss").Inc()
		if logger != nil {
			logger.Debug("forecast cache miss, fetching provider",
				zap.String("city", city), zap.String("state", state),
				zap.Time("date", day))
		}
	}

	samples, err := s.client.FetchWindow(ctx, city, state, s.windowDays)
	if err != nil {
		return nil, err
	}
	window, err := client.DailyRecords(samples, city, state, s.windowDays)
	if err != nil {
		return nil, err
	}
	observability.ForecastRetrievalsTotal.WithLabelValues("provider_fetch").Inc()

	if date == nil {
		return window, nil
	}

	day := models.DayOf(*date)
	for _, rec := range window {
		if rec.Date.Equal(day) {
			return []models.ForecastRecord{rec}, nil
		}
	}
	// Requested date is outside the provider horizon: a valid empty outcome.
	observability.ForecastRetrievalsTotal.WithLabelValues("date_not_found").Inc()
	if logger != nil {
		logger.Debug("requested date not in provider window",
			zap.String("city", city), zap.String("state", state),
			zap.Time("date", day))
	}
	return []models.ForecastRecord{}, nil
}

// Save normalizes the record identity and upserts it. Saving is always an
// explicit caller action, never a side effect of Retrieve.
func (s *ForecastService) Save(ctx context.Context, rec models.ForecastRecord) (models.ForecastRecord, error) {
	rec.City = models.NormalizeLocation(rec.City)
	rec.State = models.NormalizeLocation(rec.State)
	saved, err := s.store.Save(ctx, rec)
	if err != nil {
		recordStoreError("save", err)
		return models.ForecastRecord{}, err
	}
	if logger := loggerFromContext(ctx); logger != nil {
		logger.Debug("forecast saved",
			zap.String("city", saved.City), zap.String("state", saved.State),
			zap.Time("date", saved.Date))
	}
	return saved, nil
}

// SaveBatch upserts a forecast window as one atomic unit.
func (s *ForecastService) SaveBatch(ctx context.Context, recs []models.ForecastRecord) ([]models.ForecastRecord, error) {
	for i := range recs {
		recs[i].City = models.NormalizeLocation(recs[i].City)
		recs[i].State = models.NormalizeLocation(recs[i].State)
	}
	saved, err := s.store.SaveBatch(ctx, recs)
	if err != nil {
		recordStoreError("save_batch", err)
		return nil, err
	}
	return saved, nil
}

// ListSaved returns every stored record for a location, oldest first.
func (s *ForecastService) ListSaved(ctx context.Context, city, state string) ([]models.ForecastRecord, error) {
	city = models.NormalizeLocation(city)
	state = models.NormalizeLocation(state)
	recs, err := s.store.FindAllForLocation(ctx, city, state)
	if err != nil {
		recordStoreError("find_all", err)
		return nil, err
	}
	return recs, nil
}

// recordStoreError increments the store error counter with the classified kind.
func recordStoreError(operation string, err error) {
	kind := "query"
	if se, ok := errs.AsStoreError(err); ok {
		kind = string(se.Kind)
	}
	observability.StoreErrorsTotal.WithLabelValues(operation, kind).Inc()
}
