// Package rumor checks hurricane rumors against the language model or, in
// offline mode, a local rule list.
package rumor

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/ernestobalbinse/HurriAid/internal/cache"
	"github.com/ernestobalbinse/HurriAid/internal/domain"
	"github.com/ernestobalbinse/HurriAid/internal/observability"
)

// RuleSource loads offline rumor rules.
type RuleSource interface {
	LoadRumorRules(ctx context.Context) ([]domain.RumorRule, error)
}

// Request is a block of claims to check. Claims takes precedence over Text,
// which is split into one claim per line.
type Request struct {
	Text    string
	Claims  []string
	Offline bool
}

// Checker produces per-claim verdicts with an overall rollup.
type Checker struct {
	oracle  domain.Oracle
	rules   RuleSource
	cache   *cache.LRU[string, domain.RumorReport]
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewChecker creates a Checker. Model reports are memoized in an LRU of cacheSize entries.
func NewChecker(oracle domain.Oracle, rules RuleSource, cacheSize int, metrics *observability.Metrics, logger *slog.Logger) *Checker {
	return &Checker{
		oracle:  oracle,
		rules:   rules,
		cache:   cache.New[string, domain.RumorReport](cacheSize),
		metrics: metrics,
		logger:  logger,
	}
}

// Check returns the verdicts for every claim in the request.
func (c *Checker) Check(ctx context.Context, req Request) (domain.RumorReport, error) {
	claims := domain.CleanClaims(req.Claims)
	if len(claims) == 0 {
		claims = domain.SplitClaims(req.Text)
	}

	var (
		report domain.RumorReport
		err    error
	)
	if req.Offline {
		report, err = c.checkRules(ctx, claims)
	} else {
		report, err = c.checkModel(ctx, claims)
	}
	if err != nil {
		return domain.RumorReport{}, err
	}

	c.metrics.RumorChecks.WithLabelValues(report.Source, string(report.Overall)).Inc()
	c.logger.Debug("rumor check complete",
		"claims", len(claims),
		"source", report.Source,
		"overall", report.Overall,
	)
	return report, nil
}

func (c *Checker) checkRules(ctx context.Context, claims []string) (domain.RumorReport, error) {
	rules, err := c.rules.LoadRumorRules(ctx)
	if err != nil {
		return domain.RumorReport{}, fmt.Errorf("load rumor rules: %w", err)
	}
	return domain.MatchRules(claims, rules), nil
}

func (c *Checker) checkModel(ctx context.Context, claims []string) (domain.RumorReport, error) {
	if len(claims) == 0 {
		return domain.RumorReport{Overall: domain.OverallClear, Matches: []domain.RumorMatch{}, Source: "model"}, nil
	}

	key := strings.Join(claims, "\n")
	if cached, ok := c.cache.Get(key); ok {
		c.metrics.RumorCache.WithLabelValues("hit").Inc()
		cached.Matches = slices.Clone(cached.Matches)
		return cached, nil
	}
	c.metrics.RumorCache.WithLabelValues("miss").Inc()

	reply, err := c.oracle.Generate(ctx, domain.RumorPrompt(claims))
	if err != nil {
		return domain.RumorReport{}, fmt.Errorf("check rumors: %w", err)
	}
	matches, err := domain.ParseRumorResponse(reply, claims)
	if err != nil {
		return domain.RumorReport{}, err
	}

	// The model's own overall verdict is ignored; the rollup is recomputed.
	report := domain.RumorReport{Overall: domain.Rollup(matches), Matches: matches, Source: "model"}
	c.cache.Put(key, report)
	return domain.RumorReport{Overall: report.Overall, Matches: slices.Clone(matches), Source: report.Source}, nil
}
