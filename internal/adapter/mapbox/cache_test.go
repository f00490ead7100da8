package mapbox

import (
	"context"
	"errors"
	"testing"

	"github.com/ernestobalbinse/HurriAid/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingResolver struct {
	calls  int
	result domain.ZIPLocation
	err    error
}

func (m *countingResolver) ResolveZIP(_ context.Context, zip string) (domain.ZIPLocation, error) {
	m.calls++
	if m.err != nil {
		return domain.ZIPLocation{}, m.err
	}
	r := m.result
	r.ZIP = zip
	return r, nil
}

// --- CachedResolver tests ---

func TestCachedResolver_CacheHit(t *testing.T) {
	inner := &countingResolver{
		result: domain.ZIPLocation{Point: domain.Point{Lat: 25.77, Lon: -80.19}, Place: "Miami", Source: "mapbox"},
	}
	metrics := testMetrics()
	cached := NewCachedResolver(inner, 10, metrics)

	r1, err := cached.ResolveZIP(context.Background(), "33101")
	require.NoError(t, err)
	assert.Equal(t, "Miami", r1.Place)

	r2, err := cached.ResolveZIP(context.Background(), "33101")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ZIPCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ZIPCache.WithLabelValues("miss")))
}

func TestCachedResolver_DifferentKeysMiss(t *testing.T) {
	inner := &countingResolver{result: domain.ZIPLocation{Place: "Place"}}
	cached := NewCachedResolver(inner, 10, testMetrics())

	_, _ = cached.ResolveZIP(context.Background(), "33101")
	_, _ = cached.ResolveZIP(context.Background(), "33139")

	assert.Equal(t, 2, inner.calls)
}

func TestCachedResolver_ErrorsAreNotCached(t *testing.T) {
	inner := &countingResolver{err: domain.ErrZIPNotFound}
	cached := NewCachedResolver(inner, 10, testMetrics())

	_, err := cached.ResolveZIP(context.Background(), "99999")
	require.ErrorIs(t, err, domain.ErrZIPNotFound)

	inner.err = errors.New("boom")
	_, err = cached.ResolveZIP(context.Background(), "99999")
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
}
