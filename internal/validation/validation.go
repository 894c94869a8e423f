package validation

import (
	"errors"
	"strings"
	"time"
	"unicode"

	"forecastd/internal/models"
)

// ErrLocationEmpty is returned when a city or state is empty after trimming.
var ErrLocationEmpty = errors.New("city and state are required")

// ErrLocationTooLong is returned when a city or state exceeds the maximum length.
var ErrLocationTooLong = errors.New("location component too long")

// ErrLocationInvalidChars is returned when a city or state contains disallowed characters.
var ErrLocationInvalidChars = errors.New("location contains invalid characters")

// ErrInvalidDate is returned when a date query parameter is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("date must be formatted as YYYY-MM-DD")

// MaxLocationLength bounds city and state inputs (runes).
const MaxLocationLength = 80

// ValidateLocationPart trims the input and restricts it to letters (Unicode),
// digits, space, comma, period, and hyphen. Returns the trimmed string or an
// error suitable for a 400 response. Lowercasing is left to the service layer.
func ValidateLocationPart(input string) (string, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	if len(r) == 0 {
		return "", ErrLocationEmpty
	}
	if len(r) > MaxLocationLength {
		return "", ErrLocationTooLong
	}
	for _, c := range r {
		if !isAllowedLocationRune(c) {
			return "", ErrLocationInvalidChars
		}
	}
	return s, nil
}

// ParseDate parses an optional YYYY-MM-DD query parameter. An empty string is
// a valid absence and returns (nil, nil).
func ParseDate(input string) (*time.Time, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return nil, ErrInvalidDate
	}
	t = t.UTC()
	return &t, nil
}

// isAllowedLocationRune returns true for letters (Unicode), digits, space,
// comma, period, hyphen.
func isAllowedLocationRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	switch r {
	case ' ', ',', '.', '-':
		return true
	}
	return false
}
