package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/ernestobalbinse/HurriAid/internal/domain"
	"github.com/ernestobalbinse/HurriAid/internal/observability"
	"github.com/ernestobalbinse/HurriAid/internal/pipeline"
	"github.com/jonboulle/clockwork"
)

// --- mocks ---

type mockOracle struct {
	mu      sync.Mutex
	replies map[domain.Operation]string
	errs    map[domain.Operation]error
	calls   map[domain.Operation]int
}

func newMockOracle() *mockOracle {
	return &mockOracle{
		replies: map[domain.Operation]string{
			domain.OpRisk:      `{"risk":"HIGH","why":"You are inside the advisory zone and close to the center."}`,
			domain.OpChecklist: `["Water (3 days)","Medications","Flashlight","Batteries","Phone charger","Important documents","Cash","First aid kit","Fuel the car"]`,
			domain.OpRoute:     `{"guidance":"Leave now and take the main road north."}`,
		},
		errs:  map[domain.Operation]error{},
		calls: map[domain.Operation]int{},
	}
}

func (m *mockOracle) Generate(_ context.Context, p domain.Prompt) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[p.Operation]++
	if err := m.errs[p.Operation]; err != nil {
		return "", err
	}
	return m.replies[p.Operation], nil
}

func (m *mockOracle) callCount(op domain.Operation) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

type mockAdvisorySource struct {
	advisory domain.Advisory
	err      error
}

func (m *mockAdvisorySource) LoadAdvisory(context.Context) (domain.Advisory, error) {
	return m.advisory, m.err
}

type mockShelterSource struct {
	shelters []domain.Shelter
	err      error
}

func (m *mockShelterSource) LoadShelters(context.Context) ([]domain.Shelter, error) {
	return m.shelters, m.err
}

type mockResolver struct {
	locations map[string]domain.Point
	source    string
	err       error
}

func (m *mockResolver) ResolveZIP(_ context.Context, zip string) (domain.ZIPLocation, error) {
	if m.err != nil {
		return domain.ZIPLocation{}, m.err
	}
	p, ok := m.locations[zip]
	if !ok {
		return domain.ZIPLocation{}, domain.ErrZIPNotFound
	}
	return domain.ZIPLocation{ZIP: zip, Point: p, Source: m.source}, nil
}

type mockPublisher struct {
	mu        sync.Mutex
	published []domain.Assessment
	err       error
}

func (m *mockPublisher) Publish(_ context.Context, a domain.Assessment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.published = append(m.published, a)
	return nil
}

// --- fixtures ---

var testNow = time.Date(2025, 9, 1, 12, 10, 0, 0, time.UTC)

func testAdvisory() domain.Advisory {
	return domain.Advisory{
		Center:   domain.Point{Lat: 25.7, Lon: -80.3},
		RadiusKM: 120,
		Category: domain.CategoryCAT3,
		IssuedAt: "2025-09-01T12:00:00Z",
		Active:   true,
	}
}

func testShelters() []domain.Shelter {
	return []domain.Shelter{
		{Name: "Civic Center", Lat: 25.79, Lon: -80.21, Open: false},
		{Name: "North High", Lat: 25.90, Lon: -80.20, Open: true},
		{Name: "Far Away", Lat: 27.0, Lon: -81.0, Open: true},
	}
}

var miami = domain.Point{Lat: 25.7791, Lon: -80.1978}

type fixture struct {
	oracle   *mockOracle
	offline  *mockAdvisorySource
	online   *mockAdvisorySource
	shelters *mockShelterSource
	table    *mockResolver
	remote   *mockResolver
	clock    *clockwork.FakeClock
	metrics  *observability.Metrics
}

func newFixture() *fixture {
	return &fixture{
		oracle:   newMockOracle(),
		offline:  &mockAdvisorySource{advisory: testAdvisory()},
		online:   &mockAdvisorySource{advisory: testAdvisory()},
		shelters: &mockShelterSource{shelters: testShelters()},
		table:    &mockResolver{locations: map[string]domain.Point{"33101": miami}, source: "table"},
		remote:   &mockResolver{locations: map[string]domain.Point{"33101": miami}, source: "mapbox"},
		clock:    clockwork.NewFakeClockAt(testNow),
		metrics:  observability.NewMetricsForTesting(),
	}
}

func (f *fixture) sources() pipeline.SourceSet {
	return pipeline.SourceSet{
		Offline: pipeline.Sources{Advisory: f.offline, Shelters: f.shelters, ZIPs: f.table},
		Online:  pipeline.Sources{Advisory: f.online, ZIPs: f.remote},
	}
}

func (f *fixture) watcher() *pipeline.Watcher {
	return pipeline.NewWatcher(f.sources(), f.oracle, f.clock, discardLogger())
}

func (f *fixture) coordinator(pub pipeline.Publisher) *pipeline.Coordinator {
	return pipeline.NewCoordinator(
		f.watcher(),
		pipeline.NewChecklistGenerator(f.oracle),
		pipeline.NewPlanner(f.oracle),
		pub,
		f.clock,
		f.metrics,
		discardLogger(),
	)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errBoom = errors.New("boom")

func fixedClock(t *testing.T) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(testNow))
	t.Cleanup(func() { domain.SetClock(clockwork.NewRealClock()) })
}
