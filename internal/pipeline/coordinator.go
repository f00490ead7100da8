package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ernestobalbinse/HurriAid/internal/domain"
	"github.com/ernestobalbinse/HurriAid/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Publisher delivers finished assessments downstream.
type Publisher interface {
	Publish(ctx context.Context, a domain.Assessment) error
}

// AssessRequest is one assessment cycle request.
type AssessRequest struct {
	ZIP     string
	Offline bool
}

// Coordinator runs the watcher, then the checklist generator and planner in
// parallel, and merges everything into one Assessment.
type Coordinator struct {
	watcher   *Watcher
	checklist *ChecklistGenerator
	planner   *Planner
	publisher Publisher
	clock     clockwork.Clock
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewCoordinator creates a Coordinator. Pass a nil publisher to disable publishing.
func NewCoordinator(w *Watcher, c *ChecklistGenerator, p *Planner, pub Publisher, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		watcher:   w,
		checklist: c,
		planner:   p,
		publisher: pub,
		clock:     clock,
		metrics:   metrics,
		logger:    logger,
	}
}

// CheckReadiness reports whether the offline advisory can be loaded.
func (c *Coordinator) CheckReadiness(ctx context.Context) error {
	src := c.watcher.sources.Offline.Advisory
	if src == nil {
		return errors.New("no offline advisory source configured")
	}
	if _, err := src.LoadAdvisory(ctx); err != nil {
		return fmt.Errorf("offline advisory: %w", err)
	}
	return nil
}

// LoadAdvisory returns the advisory for the requested mode.
func (c *Coordinator) LoadAdvisory(ctx context.Context, offline bool) (domain.Advisory, error) {
	return c.watcher.sources.Select(offline).Advisory.LoadAdvisory(ctx)
}

// Assess runs one full cycle. Stage failures are reported in the returned
// Assessment's Errors map; the results that depend on a failed stage are omitted.
func (c *Coordinator) Assess(ctx context.Context, req AssessRequest) domain.Assessment {
	start := c.clock.Now()
	a := domain.Assessment{
		ID:        uuid.NewString(),
		ZIP:       req.ZIP,
		Offline:   req.Offline,
		CreatedAt: start.UTC(),
		Errors:    make(map[string]string),
		TimingsMS: make(map[string]int64),
	}

	w := c.watcher.Watch(ctx, WatchRequest(req))
	c.mergeWatch(&a, w)

	if w.Err == nil {
		c.runParallel(ctx, &a, w)
	}

	total := c.clock.Since(start)
	a.TimingsMS["total_ms"] = total.Milliseconds()
	c.metrics.StageDuration.WithLabelValues("total").Observe(total.Seconds())
	c.metrics.AssessmentsTotal.WithLabelValues(string(a.Risk.Level)).Inc()
	if len(a.Errors) == 0 {
		a.Errors = nil
	}

	c.logger.Info("assessment complete",
		"id", a.ID,
		"zip", a.ZIP,
		"offline", a.Offline,
		"risk", a.Risk.Level,
		"errors", len(a.Errors),
		"total_ms", a.TimingsMS["total_ms"],
	)
	c.publish(ctx, a)
	return a
}

func (c *Coordinator) mergeWatch(a *domain.Assessment, w WatchResult) {
	a.ZIP = w.ZIP
	a.Risk = w.Risk
	a.Advisory = w.Advisory
	a.Location = w.Location
	a.Shelters = w.Shelters
	if w.Advisory != nil {
		f := w.Advisory.Freshness()
		a.Freshness = &f
	}
	if w.Location != nil && w.Err == nil {
		a.Summary = w.Risk.Summary(w.ZIP)
	}

	if w.Err != nil {
		a.Errors[domain.StageWatcher] = w.Err.Error()
		c.metrics.StageErrors.WithLabelValues(domain.StageWatcher).Inc()
	}
	if w.ShelterErr != nil {
		a.Errors[domain.StageShelters] = w.ShelterErr.Error()
		c.metrics.StageErrors.WithLabelValues(domain.StageShelters).Inc()
	}

	a.TimingsMS["watcher_read_ms"] = w.Timings.Read.Milliseconds()
	a.TimingsMS["watcher_resolve_ms"] = w.Timings.Resolve.Milliseconds()
	a.TimingsMS["watcher_analyze_ms"] = w.Timings.Analyze.Milliseconds()
	a.TimingsMS["watcher_ms"] = w.Timings.Total.Milliseconds()
	c.metrics.StageDuration.WithLabelValues(domain.StageWatcher).Observe(w.Timings.Total.Seconds())
}

func (c *Coordinator) runParallel(ctx context.Context, a *domain.Assessment, w WatchResult) {
	var (
		checklist []string
		route     domain.Route
	)
	stage := RunParallel(ctx, c.clock,
		Task{Name: domain.StageChecklist, Run: func(ctx context.Context) error {
			var err error
			checklist, err = c.checklist.Generate(ctx, w)
			return err
		}},
		Task{Name: domain.StagePlanner, Run: func(ctx context.Context) error {
			var err error
			route, err = c.planner.Plan(ctx, w)
			return err
		}},
	)

	if err := stage.Errors[domain.StageChecklist]; err != nil {
		a.Errors[domain.StageChecklist] = err.Error()
		c.metrics.StageErrors.WithLabelValues(domain.StageChecklist).Inc()
	} else {
		a.Checklist = checklist
	}
	if err := stage.Errors[domain.StagePlanner]; err != nil {
		a.Errors[domain.StagePlanner] = err.Error()
		c.metrics.StageErrors.WithLabelValues(domain.StagePlanner).Inc()
	} else {
		a.Route = &route
	}

	for name, d := range stage.Durations {
		a.TimingsMS[name+"_ms"] = d.Milliseconds()
		c.metrics.StageDuration.WithLabelValues(name).Observe(d.Seconds())
	}
	a.TimingsMS["parallel_ms"] = stage.Total.Milliseconds()
	c.metrics.StageDuration.WithLabelValues("parallel").Observe(stage.Total.Seconds())
}

func (c *Coordinator) publish(ctx context.Context, a domain.Assessment) {
	if c.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := c.publisher.Publish(pubCtx, a); err != nil {
		c.metrics.AssessmentsPublish.WithLabelValues("error").Inc()
		c.logger.Warn("publish assessment failed", "id", a.ID, "error", err)
		return
	}
	c.metrics.AssessmentsPublish.WithLabelValues("success").Inc()
}
