package providers

import (
	"barcodedrop/internal/structures"
	"strings"
)

// MetricsCacheProvider counts export cache hits and misses per format.
// Export keys are "<format>:<user>:<version>".
type MetricsCacheProvider struct {
	inner   CacheProviderInterface
	metrics MetricsProviderInterface
}

func (c *MetricsCacheProvider) Get(key string) ([]byte, bool) {
	val, ok := c.inner.Get(key)
	format := exportFormatOf(key)
	if ok {
		c.metrics.IncCacheHits(format)
	} else {
		c.metrics.IncCacheMisses(format)
	}
	return val, ok
}

func (c *MetricsCacheProvider) Set(key string, value []byte) {
	c.inner.Set(key, value)
}

func exportFormatOf(key string) string {
	format, _, found := strings.Cut(key, ":")
	if !found || format == "" {
		return "unknown"
	}
	return format
}

// NewInstrumentedCacheProvider wraps the export cache with hit/miss counters.
// A disabled cache is returned bare so every export doesn't count as a miss.
func NewInstrumentedCacheProvider(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) CacheProviderInterface {
	inner := NewCacheProvider(conf, logger)
	if !conf.Cache.Enabled {
		return inner
	}
	return &MetricsCacheProvider{
		inner:   inner,
		metrics: metrics,
	}
}
