package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"forecastd/internal/errs"
	"forecastd/internal/models"
	"forecastd/internal/observability"
)

// ProviderName identifies the upstream forecast provider in errors and logs.
const ProviderName = "openweathermap"

// samplesPerDay is the upstream resolution: one sample every three hours.
const samplesPerDay = 8

// ForecastClient fetches a raw forecast window from the external provider.
type ForecastClient interface {
	FetchWindow(ctx context.Context, city, state string, days int) ([]models.ProviderSample, error)
}

var ErrInvalidAPIKey = errors.New("invalid API key")

// BreakerConfig tunes the circuit breaker around upstream calls.
// Zero values disable the breaker.
type BreakerConfig struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// OpenWeatherClient fetches 3-hour forecast samples from the OpenWeatherMap
// 5-day forecast API.
type OpenWeatherClient struct {
	apiKey  string
	apiURL  string
	timeout time.Duration
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// NewOpenWeatherClient validates the API key and constructs a client with a
// bounded request timeout and an optional circuit breaker.
func NewOpenWeatherClient(apiKey, apiURL string, timeout time.Duration, breakerCfg BreakerConfig) (*OpenWeatherClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	if len(apiKey) < 10 {
		return nil, fmt.Errorf("%w: API key appears invalid (too short)", ErrInvalidAPIKey)
	}

	c := &OpenWeatherClient{
		apiKey:  apiKey,
		apiURL:  apiURL,
		timeout: timeout,
		client: &http.Client{
			Timeout: timeout,
		},
	}
	if breakerCfg.ConsecutiveFailures > 0 && breakerCfg.OpenTimeout > 0 {
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    ProviderName,
			Timeout: breakerCfg.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerCfg.ConsecutiveFailures
			},
		})
	}
	return c, nil
}

// forecastResponse mirrors the subset of the OpenWeatherMap 3-hour forecast
// payload the service depends on. Decoding is strict about presence of
// timestamps and condition labels; anything else fails closed.
type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp      float64  `json:"temp"`
			FeelsLike *float64 `json:"feels_like"`
			Humidity  int      `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Pop float64 `json:"pop"`
	} `json:"list"`
}

// FetchWindow requests days*8 samples for (city, state). On timeout, non-2xx
// response, or transport error it returns a *errs.ProviderError; it never
// returns partial or fabricated data. Payload shape mismatches return
// errs.ErrInvalidProviderResponse.
func (c *OpenWeatherClient) FetchWindow(ctx context.Context, city, state string, days int) ([]models.ProviderSample, error) {
	if c.breaker == nil {
		return c.callAPI(ctx, city, state, days)
	}
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.callAPI(ctx, city, state, days)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			observability.ProviderCircuitOpenTotal.Inc()
			return nil, &errs.ProviderError{Provider: ProviderName, Err: err}
		}
		return nil, err
	}
	return result.([]models.ProviderSample), nil
}

func (c *OpenWeatherClient) callAPI(ctx context.Context, city, state string, days int) ([]models.ProviderSample, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(reqCtx, city, state, days)
	if err != nil {
		observability.ProviderAPICallsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.ProviderAPICallsTotal.WithLabelValues("error").Inc()
		observability.ProviderAPIDuration.WithLabelValues("error").Observe(duration)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, &errs.ProviderError{Provider: ProviderName, Err: fmt.Errorf("request timeout: %w", err)}
		}
		return nil, &errs.ProviderError{Provider: ProviderName, Err: fmt.Errorf("http request failed: %w", err)}
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.ProviderAPICallsTotal.WithLabelValues(status).Inc()
	observability.ProviderAPIDuration.WithLabelValues(status).Observe(duration)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.ProviderError{Provider: ProviderName, StatusCode: resp.StatusCode, Err: fmt.Errorf("read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &errs.ProviderError{
			Provider:   ProviderName,
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Err:        errors.New("unexpected status"),
		}
	}

	return decodeSamples(body)
}

// decodeSamples converts the raw payload into provider samples, failing closed
// on shape mismatch. A missing feels_like defaults to the sample temperature.
func decodeSamples(body []byte) ([]models.ProviderSample, error) {
	var apiResp forecastResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("%w: parse body: %v", errs.ErrInvalidProviderResponse, err)
	}
	if len(apiResp.List) == 0 {
		return nil, fmt.Errorf("%w: empty forecast list", errs.ErrInvalidProviderResponse)
	}

	samples := make([]models.ProviderSample, 0, len(apiResp.List))
	for i, item := range apiResp.List {
		if item.Dt <= 0 {
			return nil, fmt.Errorf("%w: item %d missing timestamp", errs.ErrInvalidProviderResponse, i)
		}
		if len(item.Weather) == 0 {
			return nil, fmt.Errorf("%w: item %d missing weather conditions", errs.ErrInvalidProviderResponse, i)
		}
		feelsLike := item.Main.Temp
		if item.Main.FeelsLike != nil {
			feelsLike = *item.Main.FeelsLike
		}
		conditions := make([]models.ConditionLabel, 0, len(item.Weather))
		for _, w := range item.Weather {
			conditions = append(conditions, models.ConditionLabel{
				Main:        w.Main,
				Description: w.Description,
				Icon:        w.Icon,
			})
		}
		samples = append(samples, models.ProviderSample{
			Timestamp:   time.Unix(item.Dt, 0).UTC(),
			Temperature: item.Main.Temp,
			FeelsLike:   feelsLike,
			Humidity:    item.Main.Humidity,
			WindSpeed:   item.Wind.Speed,
			Pop:         item.Pop,
			Conditions:  conditions,
		})
	}
	return samples, nil
}

func (c *OpenWeatherClient) buildRequest(ctx context.Context, city, state string, days int) (*http.Request, error) {
	baseURL, err := url.Parse(c.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params := url.Values{}
	params.Set("q", city+","+state)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")
	params.Set("cnt", strconv.Itoa(days*samplesPerDay))
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	return req, nil
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
