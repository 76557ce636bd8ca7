package filters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCachingStandardizer_CachesSame(t *testing.T) {
	c := NewCachingStandardizer()

	a := []byte(`{"equals":{"city":"Bergen"}}`)
	b := []byte(`{"equals":{"city":"Oslo"}}`)

	var prev map[string]any

	t.Run("With an uncached filter", func(t *testing.T) {
		var err error
		prev, err = c.Standardize(a)
		require.NoError(t, err)
		require.NotNil(t, prev)
		require.EqualValues(t, 0, c.Hits())
		require.EqualValues(t, 1, c.Misses())
	})

	t.Run("With a cached filter", func(t *testing.T) {
		tree, err := c.Standardize(a)
		require.NoError(t, err)

		// The exact same tree is shared, not re-standardized.
		require.Equal(t, prev, tree)
		require.EqualValues(t, 1, c.Hits())
		require.EqualValues(t, 1, c.Misses())
	})

	t.Run("With another uncached filter", func(t *testing.T) {
		tree, err := c.Standardize(b)
		require.NoError(t, err)
		require.NotEqual(t, prev, tree)
		require.EqualValues(t, 1, c.Hits())
		require.EqualValues(t, 2, c.Misses())
	})
}

func TestCachingStandardizer_CachesFailures(t *testing.T) {
	c := NewCachingStandardizer()

	bad := []byte(`{"range":{"age":{"gt":10,"lt":5}}}`)

	_, err := c.Standardize(bad)
	requireReason(t, err, ReasonInvalidRangeBounds)
	require.EqualValues(t, 1, c.Misses())

	_, err = c.Standardize(bad)
	requireReason(t, err, ReasonInvalidRangeBounds)
	require.EqualValues(t, 1, c.Hits())
	require.EqualValues(t, 1, c.Misses())
}

func TestCachingStandardizer_TTL(t *testing.T) {
	c := NewCachingStandardizer(WithCacheTTL(time.Nanosecond), WithCacheSize(16))

	raw := []byte(`{"exists":{"field":"a"}}`)

	_, err := c.Standardize(raw)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)

	_, err = c.Standardize(raw)
	require.NoError(t, err)
	require.EqualValues(t, 0, c.Hits())
	require.EqualValues(t, 2, c.Misses())
}
