package geo

import (
	"errors"
	"math"
	"testing"
)

func TestEncodePlusCode_Known(t *testing.T) {
	tests := []struct {
		lat, lng float64
		want     string
	}{
		{47.365590, 8.524997, "8FVC9G8F+6X"},
		{-90, -180, "22222222+22"},
	}

	for _, tt := range tests {
		if got := EncodePlusCode(tt.lat, tt.lng); got != tt.want {
			t.Errorf("EncodePlusCode(%v, %v) = %q, want %q", tt.lat, tt.lng, got, tt.want)
		}
	}
}

func TestPlusCode_RoundTrip(t *testing.T) {
	points := []Point{
		{Lat: 51.5074, Lng: -0.1278},
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 0, Lng: 0},
		{Lat: 90, Lng: 180},
		{Lat: -90, Lng: -180},
		{Lat: 89.99999, Lng: 179.99999},
		{Lat: 12.3456, Lng: -98.7654},
	}

	for _, p := range points {
		code := EncodePlusCode(p.Lat, p.Lng)
		decoded, err := DecodePlusCode(code)
		if err != nil {
			t.Fatalf("DecodePlusCode(%q): %v", code, err)
		}

		// 180 normalises to -180.
		lng := p.Lng
		if lng == 180 {
			lng = -180
		}
		if math.Abs(decoded.Lat-p.Lat) > PlusCodePrecision || math.Abs(decoded.Lng-lng) > PlusCodePrecision {
			t.Errorf("round trip of %v via %q gave %v", p, code, decoded)
		}
	}
}

func TestDecodePlusCode_CaseInsensitive(t *testing.T) {
	upper, err := DecodePlusCode("8FVC9G8F+6X")
	if err != nil {
		t.Fatal(err)
	}
	lower, err := DecodePlusCode(" 8fvc9g8f+6x ")
	if err != nil {
		t.Fatal(err)
	}
	if upper != lower {
		t.Errorf("lower-case decode %v differs from %v", lower, upper)
	}
}

func TestDecodePlusCode_Refinement(t *testing.T) {
	base, _ := DecodePlusCode("8FVC9G8F+6X")
	refined, err := DecodePlusCode("8FVC9G8F+6XQQ")
	if err != nil {
		t.Fatalf("DecodePlusCode: %v", err)
	}
	if math.Abs(base.Lat-refined.Lat) > PlusCodePrecision || math.Abs(base.Lng-refined.Lng) > PlusCodePrecision {
		t.Errorf("refined code %v left the base cell %v", refined, base)
	}
}

func TestDecodePlusCode_Invalid(t *testing.T) {
	codes := []string{
		"",
		"8FVC9G8F",
		"8FVC9G8F+",
		"8FVC9G8F+6",
		"8FVC0000+",
		"8FVC9G+8F6X",
		"8FVC9G8F+6X+",
		"8FVC9G8F+6A",
		"XFVC9G8F+6X",
		"8XVC9G8F+6X",
		"8FVC9G8F+6X23456789",
	}

	for _, code := range codes {
		if _, err := DecodePlusCode(code); !errors.Is(err, ErrInvalidPlusCode) {
			t.Errorf("DecodePlusCode(%q) error = %v, want ErrInvalidPlusCode", code, err)
		}
		if IsValidPlusCode(code) {
			t.Errorf("IsValidPlusCode(%q) = true", code)
		}
	}
}
