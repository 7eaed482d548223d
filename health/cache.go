package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/sitetokens/cache"
)

// StatsSource exposes fragment cache statistics. cache.Loader implements it.
type StatsSource interface {
	Stats() cache.Stats
}

// CacheCheckerConfig configures a CacheChecker.
type CacheCheckerConfig struct {
	// MinHitRate is the hit rate below which the cache is reported as
	// degraded. Zero disables the check.
	MinHitRate float64

	// MinLookups is the number of lookups required before the hit rate is
	// judged. Default: 100
	MinLookups int64
}

// CacheChecker reports fragment cache statistics. It is degraded when the
// hit rate falls below the configured floor.
type CacheChecker struct {
	source StatsSource
	config CacheCheckerConfig
}

// NewCacheChecker creates a checker over source.
func NewCacheChecker(source StatsSource, config CacheCheckerConfig) *CacheChecker {
	if config.MinLookups <= 0 {
		config.MinLookups = 100
	}
	return &CacheChecker{source: source, config: config}
}

// Name returns the name of this checker.
func (c *CacheChecker) Name() string { return "fragment_cache" }

// Check reports cache statistics.
func (c *CacheChecker) Check(ctx context.Context) Result {
	if err := ctx.Err(); err != nil {
		return Unhealthy("context cancelled", err)
	}
	st := c.source.Stats()
	details := map[string]any{
		"entries":     st.Entries,
		"hits":        st.Hits,
		"misses":      st.Misses,
		"loads":       st.Loads,
		"stale_loads": st.StaleLoads,
		"evictions":   st.Evictions,
		"hit_rate":    st.HitRate(),
	}
	if c.config.MinHitRate > 0 && st.Lookups() >= c.config.MinLookups && st.HitRate() < c.config.MinHitRate {
		return Degraded(fmt.Sprintf("hit rate %.2f below %.2f", st.HitRate(), c.config.MinHitRate)).
			WithDetails(details)
	}
	return Healthy(fmt.Sprintf("%d entries", st.Entries)).WithDetails(details)
}
