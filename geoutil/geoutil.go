// Package geoutil holds the geographic conversion helpers consumed by the
// filter standardizer: point-format normalization, distance-string parsing
// and geohash decoding.  All functions are pure.
package geoutil

import "errors"

var (
	// ErrUnrecognizedPointFormat is returned when a value matches none of the
	// supported point encodings.
	ErrUnrecognizedPointFormat = errors.New("unrecognized point format")
	// ErrInvalidDistanceFormat is returned when a distance string cannot be
	// parsed into a number and a known unit.
	ErrInvalidDistanceFormat = errors.New("invalid distance format")
)

// Point is a normalized geographic coordinate pair, degrees.
type Point struct {
	Lat float64
	Lon float64
}
