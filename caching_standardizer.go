package filters

import (
	"strconv"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/karlseguin/ccache/v2"
)

const (
	defaultCacheSize = 10_000
	defaultCacheTTL  = time.Hour
)

// CachingStandardizer caches standardization results keyed by a hash of the
// raw filter, improving registration throughput when many subscribers reuse
// the same filter.  Validation failures are cached too: a malformed filter
// stays malformed.
//
// Cached trees are shared between callers, which is safe because canonical
// trees are immutable by contract.
type CachingStandardizer struct {
	cache *ccache.Cache
	ttl   time.Duration

	hits   int64
	misses int64
}

// CacheOption configures a CachingStandardizer.
type CacheOption func(*CachingStandardizer)

// WithCacheSize sets the maximum number of cached filters.
func WithCacheSize(size int64) CacheOption {
	return func(c *CachingStandardizer) {
		c.cache = ccache.New(ccache.Configure().MaxSize(size))
	}
}

// WithCacheTTL sets how long a cached result stays valid.
func WithCacheTTL(ttl time.Duration) CacheOption {
	return func(c *CachingStandardizer) {
		c.ttl = ttl
	}
}

func NewCachingStandardizer(opts ...CacheOption) *CachingStandardizer {
	c := &CachingStandardizer{
		cache: ccache.New(ccache.Configure().MaxSize(defaultCacheSize)),
		ttl:   defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type cachedResult struct {
	tree map[string]any
	err  error
}

// Standardize decodes and standardizes a raw JSON filter, returning a cached
// canonical tree when the same bytes were seen before.
func (c *CachingStandardizer) Standardize(raw []byte) (map[string]any, error) {
	key := strconv.FormatUint(xxhash.Sum64(raw), 36)

	if item := c.cache.Get(key); item != nil && !item.Expired() {
		atomic.AddInt64(&c.hits, 1)
		res := item.Value().(cachedResult)
		return res.tree, res.err
	}

	tree, err := StandardizeJSON(raw)
	c.cache.Set(key, cachedResult{tree: tree, err: err}, c.ttl)

	atomic.AddInt64(&c.misses, 1)
	return tree, err
}

func (c *CachingStandardizer) Hits() int64 {
	return atomic.LoadInt64(&c.hits)
}

func (c *CachingStandardizer) Misses() int64 {
	return atomic.LoadInt64(&c.misses)
}
