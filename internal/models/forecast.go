package models

import (
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates (query params, JSON bodies).
const DateLayout = "2006-01-02"

// ForecastRecord is one day of forecast for a location. The (City, State, Date)
// triple is the unique identity; City and State are stored lowercase and trimmed.
type ForecastRecord struct {
	ID          int64     `db:"id" json:"id,omitempty"`
	City        string    `db:"city" json:"city"`
	State       string    `db:"state" json:"state"`
	Date        time.Time `db:"date" json:"date"`
	Temperature float64   `db:"temperature" json:"temperature"`
	FeelsLike   float64   `db:"feels_like" json:"feelsLike"`
	Conditions  string    `db:"conditions" json:"conditions"`
	Description string    `db:"description" json:"description"`
	// PrecipChance and Humidity are percentages (0-100).
	PrecipChance int       `db:"precip_chance" json:"precipitationChance"`
	Humidity     int       `db:"humidity" json:"humidity"`
	WindSpeed    float64   `db:"wind_speed" json:"windSpeed"`
	Icon         string    `db:"icon" json:"icon"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt,omitempty"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt,omitempty"`
}

// ConditionLabel is one weather condition attached to a provider sample.
type ConditionLabel struct {
	Main        string
	Description string
	Icon        string
}

// ProviderSample is a single 3-hour-resolution observation from the upstream
// forecast API. Pop is a precipitation probability in [0, 1].
type ProviderSample struct {
	Timestamp   time.Time
	Temperature float64
	FeelsLike   float64
	Humidity    int
	WindSpeed   float64
	Pop         float64
	Conditions  []ConditionLabel
}

// NormalizeLocation lowercases and trims a city or state so that equivalent
// spellings resolve to the same stored identity.
func NormalizeLocation(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// DayOf truncates a timestamp to its UTC calendar day.
func DayOf(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
