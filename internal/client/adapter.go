package client

import (
	"fmt"
	"math"
	"sort"
	"time"

	"forecastd/internal/errs"
	"forecastd/internal/models"
)

// noonHour is the target hour for selecting each day's representative sample.
const noonHour = 12

// DailyRecords collapses an ordered-but-irregular sequence of 3-hour samples
// into at most days ForecastRecords, one per UTC calendar day, oldest first.
// For each day the sample whose hour is closest to noon represents the day;
// equally-close candidates resolve to the first one encountered. The function
// is pure: identical inputs always produce identical outputs.
func DailyRecords(samples []models.ProviderSample, city, state string, days int) ([]models.ForecastRecord, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: empty sample list", errs.ErrInvalidProviderResponse)
	}

	type candidate struct {
		sample models.ProviderSample
		diff   int
	}
	byDay := make(map[time.Time]*candidate)
	for _, s := range samples {
		if s.Timestamp.IsZero() {
			return nil, fmt.Errorf("%w: sample missing timestamp", errs.ErrInvalidProviderResponse)
		}
		if len(s.Conditions) == 0 {
			return nil, fmt.Errorf("%w: sample at %s has no conditions", errs.ErrInvalidProviderResponse, s.Timestamp.Format(time.RFC3339))
		}
		day := models.DayOf(s.Timestamp)
		diff := noonDistance(s.Timestamp)
		best, ok := byDay[day]
		if !ok {
			byDay[day] = &candidate{sample: s, diff: diff}
			continue
		}
		// Strict less-than keeps the earliest-encountered sample on ties.
		if diff < best.diff {
			best.sample = s
			best.diff = diff
		}
	}

	daysAvailable := make([]time.Time, 0, len(byDay))
	for day := range byDay {
		daysAvailable = append(daysAvailable, day)
	}
	sort.Slice(daysAvailable, func(i, j int) bool { return daysAvailable[i].Before(daysAvailable[j]) })

	if days < 0 {
		days = 0
	}
	if days < len(daysAvailable) {
		daysAvailable = daysAvailable[:days]
	}

	records := make([]models.ForecastRecord, 0, len(daysAvailable))
	for _, day := range daysAvailable {
		records = append(records, recordFromSample(byDay[day].sample, city, state, day))
	}
	return records, nil
}

// noonDistance returns the absolute distance in whole hours between the
// sample's UTC hour and noon.
func noonDistance(t time.Time) int {
	d := t.UTC().Hour() - noonHour
	if d < 0 {
		return -d
	}
	return d
}

// recordFromSample maps one provider sample onto the canonical daily record.
func recordFromSample(s models.ProviderSample, city, state string, day time.Time) models.ForecastRecord {
	label := s.Conditions[0]
	description := label.Description
	if description == "" {
		description = label.Main
	}
	return models.ForecastRecord{
		City:         city,
		State:        state,
		Date:         day,
		Temperature:  round1(s.Temperature),
		FeelsLike:    round1(s.FeelsLike),
		Conditions:   label.Main,
		Description:  description,
		PrecipChance: int(math.Round(s.Pop * 100)),
		Humidity:     s.Humidity,
		WindSpeed:    round1(s.WindSpeed),
		Icon:         label.Icon,
	}
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
