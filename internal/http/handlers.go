package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"forecastd/internal/errs"
	"forecastd/internal/lifecycle"
	"forecastd/internal/models"
	"forecastd/internal/service"
	"forecastd/internal/validation"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	forecasts *service.ForecastService
	storePing func(ctx context.Context) error
	logger    *zap.Logger
	validate  *validator.Validate
}

// NewHandler returns a new Handler. storePing may be nil when the health
// endpoint should not check the database.
func NewHandler(forecasts *service.ForecastService, storePing func(ctx context.Context) error, logger *zap.Logger) *Handler {
	return &Handler{
		forecasts: forecasts,
		storePing: storePing,
		logger:    logger,
		validate:  validator.New(),
	}
}

// saveForecastRequest is the explicit-save body. Temperature is a pointer so
// zero degrees passes the required check; feelsLike defaults to temperature
// and description to conditions when omitted.
type saveForecastRequest struct {
	City         string   `json:"city" validate:"required,max=80"`
	State        string   `json:"state" validate:"required,max=80"`
	Date         string   `json:"date" validate:"required,datetime=2006-01-02"`
	Temperature  *float64 `json:"temperature" validate:"required"`
	FeelsLike    *float64 `json:"feelsLike"`
	Conditions   string   `json:"conditions" validate:"required,max=120"`
	Description  string   `json:"description"`
	PrecipChance int      `json:"precipitationChance" validate:"gte=0,lte=100"`
	Humidity     int      `json:"humidity" validate:"gte=0,lte=100"`
	WindSpeed    float64  `json:"windSpeed" validate:"gte=0"`
	Icon         string   `json:"icon"`
}

type saveBatchRequest struct {
	Records []saveForecastRequest `json:"records" validate:"required,min=1,dive"`
}

func (req *saveForecastRequest) toRecord() models.ForecastRecord {
	date, _ := time.Parse(models.DateLayout, req.Date)
	feelsLike := *req.Temperature
	if req.FeelsLike != nil {
		feelsLike = *req.FeelsLike
	}
	description := req.Description
	if description == "" {
		description = req.Conditions
	}
	return models.ForecastRecord{
		City:         req.City,
		State:        req.State,
		Date:         date.UTC(),
		Temperature:  *req.Temperature,
		FeelsLike:    feelsLike,
		Conditions:   req.Conditions,
		Description:  description,
		PrecipChance: req.PrecipChance,
		Humidity:     req.Humidity,
		WindSpeed:    req.WindSpeed,
		Icon:         req.Icon,
	}
}

// forecastPayload is the wire shape of a forecast record. Dates render as
// YYYY-MM-DD; persistence timestamps are omitted for transient records.
type forecastPayload struct {
	ID           int64   `json:"id,omitempty"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	Date         string  `json:"date"`
	Temperature  float64 `json:"temperature"`
	FeelsLike    float64 `json:"feelsLike"`
	Conditions   string  `json:"conditions"`
	Description  string  `json:"description"`
	PrecipChance int     `json:"precipitationChance"`
	Humidity     int     `json:"humidity"`
	WindSpeed    float64 `json:"windSpeed"`
	Icon         string  `json:"icon"`
	CreatedAt    string  `json:"createdAt,omitempty"`
	UpdatedAt    string  `json:"updatedAt,omitempty"`
}

func toPayload(rec models.ForecastRecord) forecastPayload {
	p := forecastPayload{
		ID:           rec.ID,
		City:         rec.City,
		State:        rec.State,
		Date:         rec.Date.Format(models.DateLayout),
		Temperature:  rec.Temperature,
		FeelsLike:    rec.FeelsLike,
		Conditions:   rec.Conditions,
		Description:  rec.Description,
		PrecipChance: rec.PrecipChance,
		Humidity:     rec.Humidity,
		WindSpeed:    rec.WindSpeed,
		Icon:         rec.Icon,
	}
	if !rec.CreatedAt.IsZero() {
		p.CreatedAt = rec.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !rec.UpdatedAt.IsZero() {
		p.UpdatedAt = rec.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return p
}

func toPayloads(recs []models.ForecastRecord) []forecastPayload {
	out := make([]forecastPayload, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toPayload(rec))
	}
	return out
}

// GetForecast handles GET /forecast/{city}/{state} with an optional
// ?date=YYYY-MM-DD. An empty result is a valid 200, not a 404.
func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	city, err := validation.ValidateLocationPart(vars["city"])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_LOCATION", err.Error())
		return
	}
	state, err := validation.ValidateLocationPart(vars["state"])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_LOCATION", err.Error())
		return
	}
	date, err := validation.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_DATE", err.Error())
		return
	}

	recs, err := h.forecasts.Retrieve(r.Context(), city, state, date)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayloads(recs))
}

// GetSavedForecasts handles GET /forecast/{city}/{state}/saved.
func (h *Handler) GetSavedForecasts(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	city, err := validation.ValidateLocationPart(vars["city"])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_LOCATION", err.Error())
		return
	}
	state, err := validation.ValidateLocationPart(vars["state"])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_LOCATION", err.Error())
		return
	}

	recs, err := h.forecasts.ListSaved(r.Context(), city, state)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayloads(recs))
}

// SaveForecast handles POST /forecast.
func (h *Handler) SaveForecast(w http.ResponseWriter, r *http.Request) {
	var req saveForecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", validationMessage(err))
		return
	}

	saved, err := h.forecasts.Save(r.Context(), req.toRecord())
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayload(saved))
}

// SaveForecastBatch handles POST /forecast/batch. The batch persists as one
// all-or-nothing unit.
func (h *Handler) SaveForecastBatch(w http.ResponseWriter, r *http.Request) {
	var req saveBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", "request body is not valid JSON")
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_BODY", validationMessage(err))
		return
	}

	recs := make([]models.ForecastRecord, 0, len(req.Records))
	for i := range req.Records {
		recs = append(recs, req.Records[i].toRecord())
	}
	saved, err := h.forecasts.SaveBatch(r.Context(), recs)
	if err != nil {
		writeCoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayloads(saved))
}

// GetHealth handles GET /health. Reports 503 while draining or when the
// database is unreachable.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	statusCode := http.StatusOK
	checks := make(map[string]string)

	if lifecycle.IsShuttingDown() {
		status = "shutting-down"
		statusCode = http.StatusServiceUnavailable
	} else if h.storePing != nil {
		pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.storePing(pingCtx); err != nil {
			checks["database"] = "unhealthy"
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
			h.logger.Warn("health: database unreachable", zap.Error(err))
		} else {
			checks["database"] = "healthy"
		}
	}

	writeJSON(w, statusCode, map[string]interface{}{
		"status":    status,
		"service":   "forecastd",
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// validationMessage flattens the first validator failure into a short message.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return "invalid field: " + verrs[0].Namespace()
	}
	return "request failed validation"
}

// writeCoreError maps core error types onto response codes: provider failures
// are 502, store failures 500. Absence never reaches here; it is an empty 200.
func writeCoreError(w http.ResponseWriter, r *http.Request, err error) {
	logger, _ := r.Context().Value("logger").(*zap.Logger)

	if pe, ok := errs.AsProviderError(err); ok {
		if logger != nil {
			logger.Warn("provider failure",
				zap.String("provider", pe.Provider),
				zap.Int("status", pe.StatusCode),
				zap.Error(err))
		}
		writeError(w, r, http.StatusBadGateway, "UPSTREAM_UNAVAILABLE", "Unable to fetch forecast from provider")
		return
	}
	if errors.Is(err, errs.ErrInvalidProviderResponse) {
		if logger != nil {
			logger.Warn("provider returned malformed payload", zap.Error(err))
		}
		writeError(w, r, http.StatusBadGateway, "UPSTREAM_INVALID", "Provider returned an unreadable forecast")
		return
	}
	if se, ok := errs.AsStoreError(err); ok {
		if logger != nil {
			logger.Error("store failure", zap.String("kind", string(se.Kind)), zap.Error(err))
		}
		writeError(w, r, http.StatusInternalServerError, "STORAGE_FAILURE", "Unable to access forecast storage")
		return
	}

	if logger != nil {
		logger.Error("unexpected failure", zap.Error(err))
	}
	writeError(w, r, http.StatusInternalServerError, "INTERNAL", "Internal error")
}

// writeJSON writes a JSON response with the specified HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code,
// message, and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	corrID := ""
	if v := r.Context().Value("correlation_id"); v != nil {
		corrID, _ = v.(string)
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": corrID,
		},
	})
}
