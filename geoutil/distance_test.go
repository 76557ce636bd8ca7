package geoutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDistanceFromString(t *testing.T) {
	t.Run("accepted formats", func(t *testing.T) {
		for text, meters := range map[string]float64{
			"100":       100,
			"100m":      100,
			"1.5 km":    1500,
			"10km":      10000,
			"2 Miles":   3218.688,
			"132,50 yd": 121.158,
			"3 feet":    0.9144,
			"+10km":     10000,
		} {
			got, err := DistanceFromString(text)
			require.NoError(t, err, "text: %q", text)
			require.InDelta(t, meters, got, 1e-6, "text: %q", text)
		}
	})

	t.Run("rejected formats", func(t *testing.T) {
		for _, text := range []string{
			"",
			"ten km",
			"10 parsecs",
			"km10",
			"10 km m",
		} {
			_, err := DistanceFromString(text)
			require.ErrorIs(t, err, ErrInvalidDistanceFormat, "text: %q", text)
		}
	})
}
