package geoutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var distancePattern = regexp.MustCompile(`^\s*([-+]?\d+(?:[.,]\d+)?)\s*([a-zA-Z]*)\s*$`)

// metersPerUnit maps every accepted unit spelling to its length in meters.
// A bare number is taken as meters.
var metersPerUnit = map[string]float64{
	"":           1,
	"m":          1,
	"meter":      1,
	"meters":     1,
	"km":         1000,
	"kilometer":  1000,
	"kilometers": 1000,
	"mi":         1609.344,
	"mile":       1609.344,
	"miles":      1609.344,
	"ft":         0.3048,
	"feet":       0.3048,
	"foot":       0.3048,
	"yd":         0.9144,
	"yard":       0.9144,
	"yards":      0.9144,
}

// DistanceFromString parses a distance such as "10km" or "132,23 yd" into
// meters.  The decimal separator may be a dot or a comma; unit names are
// case-insensitive.
func DistanceFromString(text string) (float64, error) {
	m := distancePattern.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDistanceFormat, text)
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDistanceFormat, text)
	}

	factor, ok := metersPerUnit[strings.ToLower(m[2])]
	if !ok {
		return 0, fmt.Errorf("%w: unknown unit %q", ErrInvalidDistanceFormat, m[2])
	}
	return value * factor, nil
}
