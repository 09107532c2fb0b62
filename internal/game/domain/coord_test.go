package domain

import (
	"errors"
	"testing"

	apperrors "github.com/battledinghy/battledinghy/internal/errors"
)

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		raw  string
		size int
		want Coord
	}{
		{"A1", 5, Coord{Row: 0, Col: 0}},
		{"a1", 5, Coord{Row: 0, Col: 0}},
		{"E5", 5, Coord{Row: 4, Col: 4}},
		{"c3", 6, Coord{Row: 2, Col: 2}},
		{"F6", 6, Coord{Row: 5, Col: 5}},
		{" b2 ", 5, Coord{Row: 1, Col: 1}},
		{"B2!", 5, Coord{Row: 1, Col: 1}},
	}
	for _, tt := range tests {
		got, err := ParseCoordinate(tt.raw, tt.size)
		if err != nil {
			t.Fatalf("ParseCoordinate(%q, %d): %v", tt.raw, tt.size, err)
		}
		if got != tt.want {
			t.Fatalf("ParseCoordinate(%q, %d) = %+v, want %+v", tt.raw, tt.size, got, tt.want)
		}
	}
}

func TestParseCoordinateRejectsMalformed(t *testing.T) {
	malformed := []string{
		"", "A", "1", "G1", "A0", "A6", "F6", "AA", "11", "A1B2C3D4E5F6",
		"fire", "💥", "Z99",
	}
	for _, raw := range malformed {
		_, err := ParseCoordinate(raw, 5)
		if err == nil {
			t.Fatalf("ParseCoordinate(%q, 5): expected error", raw)
		}
		if !errors.Is(err, apperrors.New(apperrors.CodeInvalidCoordinate, "")) {
			t.Fatalf("ParseCoordinate(%q, 5): code = %v, want %s", raw, err, apperrors.CodeInvalidCoordinate)
		}
	}
}

func TestCoordString(t *testing.T) {
	if got := (Coord{Row: 0, Col: 0}).String(); got != "A1" {
		t.Fatalf("String() = %q, want %q", got, "A1")
	}
	if got := (Coord{Row: 3, Col: 4}).String(); got != "D5" {
		t.Fatalf("String() = %q, want %q", got, "D5")
	}
}
