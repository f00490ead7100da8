package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/ernestobalbinse/HurriAid/internal/domain"
)

var errNoRisk = errors.New("risk is not available")

// ChecklistGenerator asks the model for a preparation checklist sized to the risk.
type ChecklistGenerator struct {
	oracle domain.Oracle
}

// NewChecklistGenerator creates a ChecklistGenerator.
func NewChecklistGenerator(oracle domain.Oracle) *ChecklistGenerator {
	return &ChecklistGenerator{oracle: oracle}
}

// Generate returns a normalized checklist whose length is within the bounds
// for the watcher's risk level.
func (g *ChecklistGenerator) Generate(ctx context.Context, w WatchResult) ([]string, error) {
	if w.Err != nil || w.Advisory == nil || w.Risk.Level == domain.RiskError {
		return nil, errNoRisk
	}

	reply, err := g.oracle.Generate(ctx, domain.ChecklistPrompt(w.ZIP, w.Risk.Level, *w.Advisory, w.Risk.Proximity))
	if err != nil {
		return nil, fmt.Errorf("generate checklist: %w", err)
	}
	items, err := domain.ParseChecklistResponse(reply)
	if err != nil {
		return nil, err
	}
	return domain.NormalizeChecklist(w.Risk.Level, items)
}
