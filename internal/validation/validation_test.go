package validation

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidateLocationPart(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "simple", input: "fresno", want: "fresno"},
		{name: "trims whitespace", input: "  Fresno  ", want: "Fresno"},
		{name: "keeps case", input: "San Jose", want: "San Jose"},
		{name: "comma and period", input: "St. Louis, MO", want: "St. Louis, MO"},
		{name: "hyphen", input: "Winston-Salem", want: "Winston-Salem"},
		{name: "unicode letters", input: "São Paulo", want: "São Paulo"},
		{name: "empty", input: "", wantErr: ErrLocationEmpty},
		{name: "only spaces", input: "   ", wantErr: ErrLocationEmpty},
		{name: "too long", input: strings.Repeat("a", MaxLocationLength+1), wantErr: ErrLocationTooLong},
		{name: "max length ok", input: strings.Repeat("a", MaxLocationLength), want: strings.Repeat("a", MaxLocationLength)},
		{name: "semicolon", input: "fres;no", wantErr: ErrLocationInvalidChars},
		{name: "sql quote", input: "fresno'--", wantErr: ErrLocationInvalidChars},
		{name: "slash", input: "a/b", wantErr: ErrLocationInvalidChars},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateLocationPart(tc.input)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("ValidateLocationPart(%q) error = %v, want %v", tc.input, err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateLocationPart(%q) unexpected error: %v", tc.input, err)
			}
			if got != tc.want {
				t.Errorf("ValidateLocationPart(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	t.Run("empty is absence", func(t *testing.T) {
		got, err := ParseDate("")
		if err != nil {
			t.Fatalf("ParseDate(\"\") error = %v, want nil", err)
		}
		if got != nil {
			t.Fatalf("ParseDate(\"\") = %v, want nil", got)
		}
	})

	t.Run("valid date", func(t *testing.T) {
		got, err := ParseDate("2025-11-25")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := time.Date(2025, time.November, 25, 0, 0, 0, 0, time.UTC)
		if got == nil || !got.Equal(want) {
			t.Errorf("ParseDate = %v, want %v", got, want)
		}
	})

	t.Run("trims whitespace", func(t *testing.T) {
		got, err := ParseDate(" 2025-11-25 ")
		if err != nil || got == nil {
			t.Fatalf("ParseDate with padding: got %v, err %v", got, err)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		for _, input := range []string{"25-11-2025", "2025/11/25", "2025-13-01", "2025-11-32", "yesterday"} {
			if _, err := ParseDate(input); !errors.Is(err, ErrInvalidDate) {
				t.Errorf("ParseDate(%q) error = %v, want ErrInvalidDate", input, err)
			}
		}
	})
}
