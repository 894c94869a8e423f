package client

import (
	"errors"
	"testing"
	"time"

	"forecastd/internal/errs"
	"forecastd/internal/models"
)

func sampleAt(t time.Time, temp float64) models.ProviderSample {
	return models.ProviderSample{
		Timestamp:   t,
		Temperature: temp,
		FeelsLike:   temp,
		Humidity:    50,
		WindSpeed:   5,
		Pop:         0.2,
		Conditions:  []models.ConditionLabel{{Main: "Clouds", Description: "scattered clouds", Icon: "03d"}},
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TestDailyRecords_NoonSelection verifies that the sample closest to 12:00 UTC
// represents its day.
func TestDailyRecords_NoonSelection(t *testing.T) {
	d := day(2025, time.November, 25)
	samples := []models.ProviderSample{
		sampleAt(d.Add(9*time.Hour), 10.0),
		sampleAt(d.Add(12*time.Hour), 20.0),
		sampleAt(d.Add(15*time.Hour), 30.0),
	}

	records, err := DailyRecords(samples, "fresno", "california", 3)
	if err != nil {
		t.Fatalf("DailyRecords() error = %v, want nil", err)
	}
	if len(records) != 1 {
		t.Fatalf("DailyRecords() returned %d records, want 1", len(records))
	}
	if records[0].Temperature != 20.0 {
		t.Errorf("selected sample temperature = %v, want 20.0 (the noon sample)", records[0].Temperature)
	}
}

// TestDailyRecords_TieBreak verifies that equally-close candidates resolve to
// the first-encountered sample: 10:00 and 14:00 are both 2h from noon and
// 10:00 wins.
func TestDailyRecords_TieBreak(t *testing.T) {
	d := day(2025, time.November, 25)
	samples := []models.ProviderSample{
		sampleAt(d.Add(10*time.Hour), 11.0),
		sampleAt(d.Add(14*time.Hour), 22.0),
	}

	records, err := DailyRecords(samples, "fresno", "california", 1)
	if err != nil {
		t.Fatalf("DailyRecords() error = %v, want nil", err)
	}
	if records[0].Temperature != 11.0 {
		t.Errorf("tie resolved to temperature %v, want 11.0 (first encountered)", records[0].Temperature)
	}
}

// TestDailyRecords_Bucketing verifies one record per day, ascending by date.
func TestDailyRecords_Bucketing(t *testing.T) {
	d1 := day(2025, time.November, 25)
	d2 := day(2025, time.November, 26)
	d3 := day(2025, time.November, 27)
	// Deliberately out of day order to prove sorting, with uneven sample counts.
	samples := []models.ProviderSample{
		sampleAt(d2.Add(11*time.Hour), 2),
		sampleAt(d1.Add(6*time.Hour), 1),
		sampleAt(d1.Add(12*time.Hour), 1),
		sampleAt(d3.Add(18*time.Hour), 3),
		sampleAt(d2.Add(23*time.Hour), 2),
	}

	records, err := DailyRecords(samples, "fresno", "california", 5)
	if err != nil {
		t.Fatalf("DailyRecords() error = %v, want nil", err)
	}
	if len(records) != 3 {
		t.Fatalf("DailyRecords() returned %d records, want 3", len(records))
	}
	for i, want := range []time.Time{d1, d2, d3} {
		if !records[i].Date.Equal(want) {
			t.Errorf("records[%d].Date = %v, want %v", i, records[i].Date, want)
		}
	}
}

// TestDailyRecords_TruncatesToRequestedDays verifies that extra days are cut
// oldest-first and that fewer available days is not an error.
func TestDailyRecords_TruncatesToRequestedDays(t *testing.T) {
	d1 := day(2025, time.November, 25)
	d2 := day(2025, time.November, 26)
	d3 := day(2025, time.November, 27)
	samples := []models.ProviderSample{
		sampleAt(d1.Add(12*time.Hour), 1),
		sampleAt(d2.Add(12*time.Hour), 2),
		sampleAt(d3.Add(12*time.Hour), 3),
	}

	records, err := DailyRecords(samples, "fresno", "california", 2)
	if err != nil {
		t.Fatalf("DailyRecords() error = %v, want nil", err)
	}
	if len(records) != 2 {
		t.Fatalf("DailyRecords() returned %d records, want 2", len(records))
	}
	if !records[0].Date.Equal(d1) || !records[1].Date.Equal(d2) {
		t.Errorf("truncation kept %v and %v, want the two oldest days", records[0].Date, records[1].Date)
	}

	// Fewer days than requested: return what's available, no error.
	records, err = DailyRecords(samples[:1], "fresno", "california", 3)
	if err != nil {
		t.Fatalf("DailyRecords() error = %v, want nil", err)
	}
	if len(records) != 1 {
		t.Errorf("DailyRecords() returned %d records, want 1", len(records))
	}
}

// TestDailyRecords_FieldMapping verifies the rounding and defaulting rules on
// a known sample.
func TestDailyRecords_FieldMapping(t *testing.T) {
	d := day(2025, time.November, 25)
	samples := []models.ProviderSample{
		{
			Timestamp:   d.Add(12 * time.Hour),
			Temperature: 18.53,
			FeelsLike:   17.24,
			Humidity:    45,
			WindSpeed:   12.46,
			Pop:         0.10,
			Conditions:  []models.ConditionLabel{{Main: "Clear", Description: "clear sky", Icon: "01d"}},
		},
	}

	records, err := DailyRecords(samples, "fresno", "california", 1)
	if err != nil {
		t.Fatalf("DailyRecords() error = %v, want nil", err)
	}
	rec := records[0]
	if rec.Temperature != 18.5 {
		t.Errorf("Temperature = %v, want 18.5", rec.Temperature)
	}
	if rec.FeelsLike != 17.2 {
		t.Errorf("FeelsLike = %v, want 17.2", rec.FeelsLike)
	}
	if rec.WindSpeed != 12.5 {
		t.Errorf("WindSpeed = %v, want 12.5", rec.WindSpeed)
	}
	if rec.PrecipChance != 10 {
		t.Errorf("PrecipChance = %v, want 10", rec.PrecipChance)
	}
	if rec.Humidity != 45 {
		t.Errorf("Humidity = %v, want 45", rec.Humidity)
	}
	if rec.Conditions != "Clear" {
		t.Errorf("Conditions = %q, want Clear", rec.Conditions)
	}
	if rec.Description != "clear sky" {
		t.Errorf("Description = %q, want clear sky", rec.Description)
	}
	if rec.Icon != "01d" {
		t.Errorf("Icon = %q, want 01d", rec.Icon)
	}
	if rec.City != "fresno" || rec.State != "california" {
		t.Errorf("identity = (%q, %q), want (fresno, california)", rec.City, rec.State)
	}
}

// TestDailyRecords_DescriptionDefaultsToConditions verifies the fallback when
// the long text is missing.
func TestDailyRecords_DescriptionDefaultsToConditions(t *testing.T) {
	d := day(2025, time.November, 25)
	samples := []models.ProviderSample{
		{
			Timestamp:  d.Add(12 * time.Hour),
			Conditions: []models.ConditionLabel{{Main: "Rain"}},
		},
	}

	records, err := DailyRecords(samples, "fresno", "california", 1)
	if err != nil {
		t.Fatalf("DailyRecords() error = %v, want nil", err)
	}
	if records[0].Description != "Rain" {
		t.Errorf("Description = %q, want Rain", records[0].Description)
	}
}

// TestDailyRecords_InvalidInput verifies that empty or malformed sample sets
// fail closed.
func TestDailyRecords_InvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		samples []models.ProviderSample
	}{
		{
			name:    "empty",
			samples: nil,
		},
		{
			name: "missing timestamp",
			samples: []models.ProviderSample{
				{Conditions: []models.ConditionLabel{{Main: "Clear"}}},
			},
		},
		{
			name: "missing conditions",
			samples: []models.ProviderSample{
				{Timestamp: day(2025, time.November, 25).Add(12 * time.Hour)},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DailyRecords(tc.samples, "fresno", "california", 3)
			if !errors.Is(err, errs.ErrInvalidProviderResponse) {
				t.Fatalf("DailyRecords() error = %v, want ErrInvalidProviderResponse", err)
			}
		})
	}
}

// TestDailyRecords_Deterministic verifies that identical inputs always yield
// identical outputs.
func TestDailyRecords_Deterministic(t *testing.T) {
	d := day(2025, time.November, 25)
	samples := []models.ProviderSample{
		sampleAt(d.Add(9*time.Hour), 10),
		sampleAt(d.Add(15*time.Hour), 30),
		sampleAt(d.Add(21*time.Hour), 40),
		sampleAt(d.Add(24*time.Hour+12*time.Hour), 50),
	}

	first, err := DailyRecords(samples, "fresno", "california", 3)
	if err != nil {
		t.Fatalf("DailyRecords() error = %v, want nil", err)
	}
	for i := 0; i < 10; i++ {
		again, err := DailyRecords(samples, "fresno", "california", 3)
		if err != nil {
			t.Fatalf("DailyRecords() error = %v, want nil", err)
		}
		if len(again) != len(first) {
			t.Fatalf("run %d returned %d records, want %d", i, len(again), len(first))
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("run %d record %d = %+v, want %+v", i, j, again[j], first[j])
			}
		}
	}
}
