package geoutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mmcloughlin/geohash"
)

var (
	// coordinatePair matches a strict "lat, lon" decimal pair.
	coordinatePair = regexp.MustCompile(`^\s*([-+]?\d+(?:\.\d+)?)\s*,\s*([-+]?\d+(?:\.\d+)?)\s*$`)

	// canonicalKeys folds the tolerated key casings (top_left, TopLeft,
	// topleft, ...) onto the canonical camelCase names.
	canonicalKeys = map[string]string{
		"lat":         "lat",
		"lon":         "lon",
		"latlon":      "latLon",
		"top":         "top",
		"left":        "left",
		"bottom":      "bottom",
		"right":       "right",
		"topleft":     "topLeft",
		"bottomright": "bottomRight",
	}
)

// NormalizeKeyCasing returns a copy of obj with alternate capitalizations and
// snake_case spellings of the known geo attribute names folded onto their
// canonical form.  Unknown keys are carried over unchanged.
func NormalizeKeyCasing(obj map[string]any) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		folded := strings.ToLower(strings.ReplaceAll(k, "_", ""))
		if canonical, ok := canonicalKeys[folded]; ok {
			out[canonical] = v
			continue
		}
		out[k] = v
	}
	return out
}

// PointFromAny normalizes any supported point encoding into a Point:
//
//   - an object {lat, lon} (casing-tolerant)
//   - an object {latLon: <any supported encoding>}
//   - a two-element [lat, lon] numeric array
//   - a "lat, lon" decimal-pair string
//   - a geohash string, length >= 4
func PointFromAny(value any) (Point, error) {
	switch v := value.(type) {
	case map[string]any:
		obj := NormalizeKeyCasing(v)
		lat, okLat := toFloat(obj["lat"])
		lon, okLon := toFloat(obj["lon"])
		if okLat && okLon {
			return Point{Lat: lat, Lon: lon}, nil
		}
		if nested, ok := obj["latLon"]; ok {
			return PointFromAny(nested)
		}
	case []any:
		if len(v) == 2 {
			lat, okLat := toFloat(v[0])
			lon, okLon := toFloat(v[1])
			if okLat && okLon {
				return Point{Lat: lat, Lon: lon}, nil
			}
		}
	case string:
		if m := coordinatePair.FindStringSubmatch(v); m != nil {
			lat, _ := strconv.ParseFloat(m[1], 64)
			lon, _ := strconv.ParseFloat(m[2], 64)
			return Point{Lat: lat, Lon: lon}, nil
		}
		if isGeohash(v) {
			return GeohashDecode(v)
		}
	}
	return Point{}, fmt.Errorf("%w: %v", ErrUnrecognizedPointFormat, value)
}

// GeohashDecode decodes a geohash string into a Point.
func GeohashDecode(hash string) (Point, error) {
	if !isGeohash(hash) {
		return Point{}, fmt.Errorf("%w: invalid geohash %q", ErrUnrecognizedPointFormat, hash)
	}
	lat, lon := geohash.Decode(strings.ToLower(hash))
	return Point{Lat: lat, Lon: lon}, nil
}

// isGeohash reports whether s could be a geohash: at least four characters,
// all within the geohash base32 alphabet (which omits a, i, l and o).
func isGeohash(s string) bool {
	if len(s) < 4 {
		return false
	}
	for _, r := range strings.ToLower(s) {
		if !strings.ContainsRune("0123456789bcdefghjkmnpqrstuvwxyz", r) {
			return false
		}
	}
	return true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
