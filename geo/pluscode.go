package geo

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Open Location Code alphabet and layout. A full code has eight digits, the
// separator, then at least two more digits. The first ten digits are five
// interleaved latitude/longitude pairs in base 20; any further digits refine
// the cell on a 4x5 grid.
const (
	plusCodeAlphabet  = "23456789CFGHJMPQRVWX"
	plusCodeSeparator = '+'
	plusCodePadding   = '0'
	plusCodeSepPos    = 8
	plusCodePairLen   = 10
	plusCodeMaxLen    = 15
	plusCodeBase      = 20
	gridRows          = 5
	gridCols          = 4

	// pairResolution is the number of cells per degree after ten digits.
	pairResolution = 8000
)

// PlusCodePrecision is the cell size in degrees of a ten digit code.
const PlusCodePrecision = 1.0 / pairResolution

// ErrInvalidPlusCode is returned for malformed, padded or short codes.
var ErrInvalidPlusCode = errors.New("invalid plus code")

// EncodePlusCode encodes a coordinate as a ten digit plus code such as
// "8FVC9G8F+6X". Latitude is clipped to [-90, 90] and longitude normalised
// to [-180, 180).
func EncodePlusCode(lat, lng float64) string {
	lat = math.Max(-90, math.Min(90, lat))
	if lat >= 90 {
		lat = 90 - PlusCodePrecision
	}
	for lng < -180 {
		lng += 360
	}
	for lng >= 180 {
		lng -= 360
	}

	latVal := cellIndex(lat + 90)
	lngVal := cellIndex(lng + 180)

	digits := make([]byte, plusCodePairLen)
	for i := plusCodePairLen/2 - 1; i >= 0; i-- {
		digits[2*i] = plusCodeAlphabet[latVal%plusCodeBase]
		digits[2*i+1] = plusCodeAlphabet[lngVal%plusCodeBase]
		latVal /= plusCodeBase
		lngVal /= plusCodeBase
	}

	var b strings.Builder
	b.Grow(plusCodePairLen + 1)
	b.Write(digits[:plusCodeSepPos])
	b.WriteByte(plusCodeSeparator)
	b.Write(digits[plusCodeSepPos:])
	return b.String()
}

// DecodePlusCode returns the centre of the cell described by a full plus
// code. Codes are case-insensitive.
func DecodePlusCode(code string) (Point, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if err := validatePlusCode(code); err != nil {
		return Point{}, err
	}

	digits := strings.Replace(code, string(plusCodeSeparator), "", 1)

	var latVal, lngVal int64
	for i := 0; i < plusCodePairLen; i += 2 {
		latVal = latVal*plusCodeBase + int64(strings.IndexByte(plusCodeAlphabet, digits[i]))
		lngVal = lngVal*plusCodeBase + int64(strings.IndexByte(plusCodeAlphabet, digits[i+1]))
	}

	latLo := float64(latVal)/pairResolution - 90
	lngLo := float64(lngVal)/pairResolution - 180
	latSize := PlusCodePrecision
	lngSize := PlusCodePrecision

	for _, c := range digits[plusCodePairLen:] {
		idx := strings.IndexRune(plusCodeAlphabet, c)
		latSize /= gridRows
		lngSize /= gridCols
		latLo += float64(idx/gridCols) * latSize
		lngLo += float64(idx%gridCols) * lngSize
	}

	return Point{
		Lat: latLo + latSize/2,
		Lng: lngLo + lngSize/2,
	}, nil
}

// IsValidPlusCode reports whether code is a decodable full plus code.
func IsValidPlusCode(code string) bool {
	return validatePlusCode(strings.ToUpper(strings.TrimSpace(code))) == nil
}

func validatePlusCode(code string) error {
	if len(code) > plusCodeMaxLen+1 {
		return fmt.Errorf("%w: %q is too long", ErrInvalidPlusCode, code)
	}
	if strings.Count(code, string(plusCodeSeparator)) != 1 || strings.IndexByte(code, plusCodeSeparator) != plusCodeSepPos {
		return fmt.Errorf("%w: %q must have the separator after eight digits", ErrInvalidPlusCode, code)
	}
	if strings.IndexByte(code, plusCodePadding) >= 0 {
		return fmt.Errorf("%w: %q is padded", ErrInvalidPlusCode, code)
	}
	if len(code) < plusCodePairLen+1 {
		return fmt.Errorf("%w: %q is too short", ErrInvalidPlusCode, code)
	}

	for i := 0; i < len(code); i++ {
		if i == plusCodeSepPos {
			continue
		}
		if strings.IndexByte(plusCodeAlphabet, code[i]) < 0 {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidPlusCode, code, code[i])
		}
	}

	// First latitude digit covers 0-180 degrees, first longitude 0-360.
	if strings.IndexByte(plusCodeAlphabet, code[0]) > 8 || strings.IndexByte(plusCodeAlphabet, code[1]) > 17 {
		return fmt.Errorf("%w: %q is out of range", ErrInvalidPlusCode, code)
	}
	return nil
}

// cellIndex converts a non-negative degree offset to a count of
// 1/8000-degree cells. The intermediate rounding keeps values such as
// 0.3*8000 from flooring one cell low.
func cellIndex(offset float64) int64 {
	return int64(math.Floor(math.Round(offset*pairResolution*1e6) / 1e6))
}
