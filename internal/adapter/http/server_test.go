package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpadapter "github.com/ernestobalbinse/HurriAid/internal/adapter/http"
	"github.com/ernestobalbinse/HurriAid/internal/domain"
	"github.com/ernestobalbinse/HurriAid/internal/pipeline"
	"github.com/ernestobalbinse/HurriAid/internal/rumor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockAssessor struct {
	readyErr    error
	advisory    domain.Advisory
	advisoryErr error
	lastReq     pipeline.AssessRequest
	lastOffline bool
}

func (m *mockAssessor) Assess(_ context.Context, req pipeline.AssessRequest) domain.Assessment {
	m.lastReq = req
	a := domain.Assessment{ID: "a-1", ZIP: req.ZIP, Offline: req.Offline, TimingsMS: map[string]int64{"total_ms": 3}}
	if req.ZIP == "bad" {
		a.Risk.Level = domain.RiskError
		a.Errors = map[string]string{domain.StageWatcher: domain.ErrInvalidZIP.Error()}
		return a
	}
	a.Risk = domain.Risk{Level: domain.RiskLow, Why: "Far from the center."}
	return a
}

func (m *mockAssessor) LoadAdvisory(_ context.Context, offline bool) (domain.Advisory, error) {
	m.lastOffline = offline
	return m.advisory, m.advisoryErr
}

func (m *mockAssessor) CheckReadiness(context.Context) error { return m.readyErr }

type mockRumors struct {
	report  domain.RumorReport
	err     error
	lastReq rumor.Request
}

func (m *mockRumors) Check(_ context.Context, req rumor.Request) (domain.RumorReport, error) {
	m.lastReq = req
	return m.report, m.err
}

func newTestServer(a *mockAssessor, r *mockRumors) *httpadapter.Server {
	return httpadapter.NewServer(":0", a, r, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

// --- health ---

func TestHealthzReturns200(t *testing.T) {
	rec := do(t, newTestServer(&mockAssessor{}, &mockRumors{}), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := do(t, newTestServer(&mockAssessor{}, &mockRumors{}), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(&mockAssessor{readyErr: fmt.Errorf("offline advisory: missing")}, &mockRumors{})
	rec := do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestServer(&mockAssessor{}, &mockRumors{}), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- assessments ---

func TestAssess_Success(t *testing.T) {
	a := &mockAssessor{}
	rec := do(t, newTestServer(a, &mockRumors{}), http.MethodPost, "/api/v1/assessments", `{"zip":"33101","offline":true}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pipeline.AssessRequest{ZIP: "33101", Offline: true}, a.lastReq)

	var got domain.Assessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, domain.RiskLow, got.Risk.Level)
	assert.Empty(t, got.Errors)
}

func TestAssess_StageErrorsStill200(t *testing.T) {
	rec := do(t, newTestServer(&mockAssessor{}, &mockRumors{}), http.MethodPost, "/api/v1/assessments", `{"zip":"bad"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Assessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, domain.RiskError, got.Risk.Level)
	assert.Contains(t, got.Errors[domain.StageWatcher], "5-digit")
}

func TestAssess_MalformedBody(t *testing.T) {
	rec := do(t, newTestServer(&mockAssessor{}, &mockRumors{}), http.MethodPost, "/api/v1/assessments", `{"zip":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- advisory ---

func TestAdvisory_Success(t *testing.T) {
	a := &mockAssessor{advisory: domain.Advisory{
		Center:   domain.Point{Lat: 25.7, Lon: -80.3},
		RadiusKM: 50,
		Category: domain.CategoryCAT1,
		Active:   true,
	}}
	rec := do(t, newTestServer(a, &mockRumors{}), http.MethodGet, "/api/v1/advisory?offline=true", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, a.lastOffline)

	var body struct {
		Advisory  domain.Advisory  `json:"advisory"`
		Freshness domain.Freshness `json:"freshness"`
		Area      [][2]float64     `json:"area"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, domain.CategoryCAT1, body.Advisory.Category)
	assert.Equal(t, domain.FreshnessUnknown, body.Freshness.Status)
	assert.Len(t, body.Area, 73)
	assert.Equal(t, body.Area[0], body.Area[72])
}

func TestAdvisory_LoadFailure(t *testing.T) {
	a := &mockAssessor{advisoryErr: &domain.AdvisoryError{Field: "category", Reason: "unknown category"}}
	rec := do(t, newTestServer(a, &mockRumors{}), http.MethodGet, "/api/v1/advisory", "")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.False(t, a.lastOffline)
	assert.Contains(t, rec.Body.String(), "category")
}

func TestAdvisory_BadOfflineParam(t *testing.T) {
	rec := do(t, newTestServer(&mockAssessor{}, &mockRumors{}), http.MethodGet, "/api/v1/advisory?offline=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- rumors ---

func TestRumorCheck_Success(t *testing.T) {
	r := &mockRumors{report: domain.RumorReport{
		Overall: domain.OverallFalse,
		Source:  "model",
		Matches: []domain.RumorMatch{{Claim: "Drink seawater", Verdict: domain.VerdictFalse, Note: "Seawater dehydrates you."}},
	}}
	rec := do(t, newTestServer(&mockAssessor{}, r), http.MethodPost, "/api/v1/rumors/check", `{"text":"Drink seawater","offline":false}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, rumor.Request{Text: "Drink seawater"}, r.lastReq)

	var got domain.RumorReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, r.report, got)
}

func TestRumorCheck_ClaimsList(t *testing.T) {
	r := &mockRumors{report: domain.RumorReport{Overall: domain.OverallClear, Matches: []domain.RumorMatch{}, Source: "rules"}}
	rec := do(t, newTestServer(&mockAssessor{}, r), http.MethodPost, "/api/v1/rumors/check", `{"claims":["a","b"],"offline":true}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, rumor.Request{Claims: []string{"a", "b"}, Offline: true}, r.lastReq)
}

func TestRumorCheck_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not configured", domain.ErrOracleNotConfigured, http.StatusServiceUnavailable},
		{"timeout", fmt.Errorf("check rumors: %w", domain.ErrOracleTimeout), http.StatusGatewayTimeout},
		{"bad output", fmt.Errorf("%w: got 1 verdicts for 2 claims", domain.ErrInvalidModelOutput), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, newTestServer(&mockAssessor{}, &mockRumors{err: tt.err}), http.MethodPost, "/api/v1/rumors/check", `{"text":"x"}`)
			assert.Equal(t, tt.want, rec.Code)
			assert.Contains(t, rec.Body.String(), "error")
		})
	}
}

func TestRumorCheck_MalformedBody(t *testing.T) {
	rec := do(t, newTestServer(&mockAssessor{}, &mockRumors{}), http.MethodPost, "/api/v1/rumors/check", `nope`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
