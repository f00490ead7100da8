package mapbox

import (
	"context"

	"github.com/ernestobalbinse/HurriAid/internal/cache"
	"github.com/ernestobalbinse/HurriAid/internal/domain"
	"github.com/ernestobalbinse/HurriAid/internal/observability"
)

// CachedResolver wraps a ZIPResolver with an in-memory LRU cache.
type CachedResolver struct {
	inner   domain.ZIPResolver
	cache   *cache.LRU[string, domain.ZIPLocation]
	metrics *observability.Metrics
}

// NewCachedResolver creates a cache decorator around a resolver.
func NewCachedResolver(inner domain.ZIPResolver, maxEntries int, metrics *observability.Metrics) *CachedResolver {
	return &CachedResolver{
		inner:   inner,
		cache:   cache.New[string, domain.ZIPLocation](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedResolver) ResolveZIP(ctx context.Context, zip string) (domain.ZIPLocation, error) {
	if loc, ok := c.cache.Get(zip); ok {
		c.metrics.ZIPCache.WithLabelValues("hit").Inc()
		return loc, nil
	}
	c.metrics.ZIPCache.WithLabelValues("miss").Inc()

	loc, err := c.inner.ResolveZIP(ctx, zip)
	if err != nil {
		// Failures are not cached so transient errors and newly added ZIPs can be retried.
		return loc, err
	}
	c.cache.Put(zip, loc)
	return loc, nil
}
