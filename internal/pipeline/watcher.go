package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ernestobalbinse/HurriAid/internal/domain"
	"github.com/jonboulle/clockwork"
)

// WatchRequest selects the ZIP code and source mode for one watcher run.
type WatchRequest struct {
	ZIP     string
	Offline bool
}

// WatchTimings records how long each watcher step took.
type WatchTimings struct {
	Read    time.Duration
	Resolve time.Duration
	Analyze time.Duration
	Total   time.Duration
}

// WatchResult is everything the watcher learned about the ZIP code.
// Err is set when the risk could not be determined; ShelterErr is set when
// the shelter list could not be loaded, which only affects the planner.
type WatchResult struct {
	ZIP        string
	Advisory   *domain.Advisory
	Location   *domain.ZIPLocation
	Shelters   []domain.Shelter
	ShelterErr error
	Risk       domain.Risk
	Err        error
	Timings    WatchTimings
}

// Watcher loads the advisory, resolves the ZIP code and classifies risk.
type Watcher struct {
	sources SourceSet
	oracle  domain.Oracle
	clock   clockwork.Clock
	logger  *slog.Logger
}

// NewWatcher creates a Watcher.
func NewWatcher(sources SourceSet, oracle domain.Oracle, clock clockwork.Clock, logger *slog.Logger) *Watcher {
	return &Watcher{sources: sources, oracle: oracle, clock: clock, logger: logger}
}

// Watch runs the watcher once. It never returns a partial risk: any failure
// yields risk level ERROR with the cause in Err.
func (w *Watcher) Watch(ctx context.Context, req WatchRequest) (res WatchResult) {
	start := w.clock.Now()
	res = WatchResult{ZIP: req.ZIP, Risk: domain.Risk{Level: domain.RiskError}}
	defer func() { res.Timings.Total = w.clock.Since(start) }()

	zip, err := domain.NormalizeZIP(req.ZIP)
	if err != nil {
		res.Err = err
		return res
	}
	res.ZIP = zip
	src := w.sources.Select(req.Offline)

	readStart := w.clock.Now()
	adv, err := src.Advisory.LoadAdvisory(ctx)
	if err != nil {
		res.Timings.Read = w.clock.Since(readStart)
		res.Err = fmt.Errorf("load advisory: %w", err)
		return res
	}
	res.Advisory = &adv
	res.Shelters, res.ShelterErr = src.Shelters.LoadShelters(ctx)
	if res.ShelterErr != nil {
		res.ShelterErr = fmt.Errorf("load shelters: %w", res.ShelterErr)
		w.logger.Warn("shelter list unavailable", "error", res.ShelterErr)
	}
	res.Timings.Read = w.clock.Since(readStart)

	resolveStart := w.clock.Now()
	loc, err := src.ZIPs.ResolveZIP(ctx, zip)
	res.Timings.Resolve = w.clock.Since(resolveStart)
	if err != nil {
		if errors.Is(err, domain.ErrZIPNotFound) {
			err = fmt.Errorf("unknown ZIP %s: %w", zip, err)
		} else {
			err = fmt.Errorf("resolve ZIP %s: %w", zip, err)
		}
		res.Err = err
		return res
	}
	res.Location = &loc

	prox := domain.ProximityOf(loc.Point, adv)
	res.Risk.Proximity = prox

	if !adv.Active {
		res.Risk.Level = domain.RiskSafe
		res.Risk.Why = "No active hurricane advisory."
		return res
	}

	analyzeStart := w.clock.Now()
	reply, err := w.oracle.Generate(ctx, domain.RiskPrompt(zip, adv, prox))
	if err == nil {
		res.Risk.Level, res.Risk.Why, err = domain.ParseRiskResponse(reply)
	}
	res.Timings.Analyze = w.clock.Since(analyzeStart)
	if err != nil {
		res.Risk.Level = domain.RiskError
		res.Err = fmt.Errorf("classify risk: %w", err)
		return res
	}

	w.logger.Debug("risk classified",
		"zip", zip,
		"risk", res.Risk.Level,
		"distance_km", prox.DistanceKM,
		"inside", prox.Inside,
	)
	return res
}
