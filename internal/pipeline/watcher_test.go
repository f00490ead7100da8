package pipeline_test

import (
	"context"
	"testing"

	"github.com/ernestobalbinse/HurriAid/internal/domain"
	"github.com/ernestobalbinse/HurriAid/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_Watch_HappyPath(t *testing.T) {
	f := newFixture()

	res := f.watcher().Watch(context.Background(), pipeline.WatchRequest{ZIP: " 33101 ", Offline: true})
	require.NoError(t, res.Err)
	require.NoError(t, res.ShelterErr)

	assert.Equal(t, "33101", res.ZIP)
	assert.Equal(t, domain.RiskHigh, res.Risk.Level)
	assert.Equal(t, "You are inside the advisory zone and close to the center.", res.Risk.Why)
	assert.True(t, res.Risk.Proximity.Inside)
	assert.Equal(t, domain.ProximityOf(miami, testAdvisory()), res.Risk.Proximity)
	require.NotNil(t, res.Location)
	assert.Equal(t, "table", res.Location.Source)
	assert.Len(t, res.Shelters, 3)
	assert.Equal(t, 1, f.oracle.callCount(domain.OpRisk))
}

func TestWatcher_Watch_OnlineSources(t *testing.T) {
	f := newFixture()
	f.online.advisory.Category = domain.CategoryCAT5

	res := f.watcher().Watch(context.Background(), pipeline.WatchRequest{ZIP: "33101"})
	require.NoError(t, res.Err)
	assert.Equal(t, "mapbox", res.Location.Source)
	assert.Equal(t, domain.CategoryCAT5, res.Advisory.Category)
	assert.Len(t, res.Shelters, 3, "online mode falls back to offline shelters")
}

func TestWatcher_Watch_InvalidZIP(t *testing.T) {
	f := newFixture()

	res := f.watcher().Watch(context.Background(), pipeline.WatchRequest{ZIP: "33a01", Offline: true})
	require.ErrorIs(t, res.Err, domain.ErrInvalidZIP)
	assert.Equal(t, domain.RiskError, res.Risk.Level)
	assert.Nil(t, res.Location)
	assert.Nil(t, res.Advisory)
	assert.Zero(t, f.oracle.callCount(domain.OpRisk))
}

func TestWatcher_Watch_UnknownZIP(t *testing.T) {
	f := newFixture()

	res := f.watcher().Watch(context.Background(), pipeline.WatchRequest{ZIP: "99999", Offline: true})
	require.ErrorIs(t, res.Err, domain.ErrZIPNotFound)
	assert.Contains(t, res.Err.Error(), "unknown ZIP 99999")
	assert.Equal(t, domain.RiskError, res.Risk.Level)
	assert.Nil(t, res.Location)
	assert.NotNil(t, res.Advisory)
}

func TestWatcher_Watch_AdvisoryError(t *testing.T) {
	f := newFixture()
	f.offline.err = &domain.AdvisoryError{Field: "radius_km", Reason: "missing"}

	res := f.watcher().Watch(context.Background(), pipeline.WatchRequest{ZIP: "33101", Offline: true})
	require.ErrorIs(t, res.Err, domain.ErrMalformedAdvisory)
	assert.Equal(t, domain.RiskError, res.Risk.Level)
	assert.Nil(t, res.Advisory)
}

func TestWatcher_Watch_ShelterErrorIsNotTerminal(t *testing.T) {
	f := newFixture()
	f.shelters.err = &domain.ShelterError{Index: 0, Reason: "missing name"}

	res := f.watcher().Watch(context.Background(), pipeline.WatchRequest{ZIP: "33101", Offline: true})
	require.NoError(t, res.Err)
	require.ErrorIs(t, res.ShelterErr, domain.ErrMalformedShelters)
	assert.Equal(t, domain.RiskHigh, res.Risk.Level)
}

func TestWatcher_Watch_InactiveAdvisoryIsSafe(t *testing.T) {
	f := newFixture()
	f.offline.advisory.Active = false

	res := f.watcher().Watch(context.Background(), pipeline.WatchRequest{ZIP: "33101", Offline: true})
	require.NoError(t, res.Err)
	assert.Equal(t, domain.RiskSafe, res.Risk.Level)
	assert.NotNil(t, res.Location)
	assert.Zero(t, f.oracle.callCount(domain.OpRisk), "no model call without an active advisory")
}

func TestWatcher_Watch_ModelFailures(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		err     error
		wantErr error
	}{
		{name: "not configured", err: domain.ErrOracleNotConfigured, wantErr: domain.ErrOracleNotConfigured},
		{name: "timeout", err: domain.ErrOracleTimeout, wantErr: domain.ErrOracleTimeout},
		{name: "bad label", reply: `{"risk":"EXTREME","why":"Very bad."}`, wantErr: domain.ErrInvalidModelOutput},
		{name: "missing why", reply: `{"risk":"LOW"}`, wantErr: domain.ErrInvalidModelOutput},
		{name: "prose", reply: "It looks risky.", wantErr: domain.ErrInvalidModelOutput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.oracle.replies[domain.OpRisk] = tt.reply
			if tt.err != nil {
				f.oracle.errs[domain.OpRisk] = tt.err
			}

			res := f.watcher().Watch(context.Background(), pipeline.WatchRequest{ZIP: "33101", Offline: true})
			require.ErrorIs(t, res.Err, tt.wantErr)
			assert.Equal(t, domain.RiskError, res.Risk.Level)
			assert.Empty(t, res.Risk.Why)
			assert.NotNil(t, res.Location, "location is still reported for the map")
		})
	}
}

func TestWatcher_Watch_ResolverError(t *testing.T) {
	f := newFixture()
	f.remote.err = errBoom

	res := f.watcher().Watch(context.Background(), pipeline.WatchRequest{ZIP: "33101"})
	require.ErrorIs(t, res.Err, errBoom)
	assert.Contains(t, res.Err.Error(), "resolve ZIP 33101")
}
