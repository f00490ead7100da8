package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/ernestobalbinse/HurriAid/internal/domain"
)

// Planner picks the nearest open shelter and asks the model for travel guidance.
type Planner struct {
	oracle domain.Oracle
}

// NewPlanner creates a Planner.
func NewPlanner(oracle domain.Oracle) *Planner {
	return &Planner{oracle: oracle}
}

// Plan returns the route to the nearest open shelter. The shelter choice,
// distance and ETA are computed locally; only the guidance comes from the model.
func (p *Planner) Plan(ctx context.Context, w WatchResult) (domain.Route, error) {
	if w.Location == nil || w.Advisory == nil {
		return domain.Route{}, errors.New("ZIP location is not available")
	}
	if w.ShelterErr != nil {
		return domain.Route{}, fmt.Errorf("shelters unavailable: %w", w.ShelterErr)
	}

	route, err := domain.PlanRoute(w.Location.Point, w.Shelters, w.Advisory.Category)
	if err != nil {
		return domain.Route{}, err
	}

	reply, err := p.oracle.Generate(ctx, domain.RoutePrompt(w.ZIP, w.Risk.Level, w.Advisory.Category, route))
	if err != nil {
		return domain.Route{}, fmt.Errorf("route guidance: %w", err)
	}
	route.Guidance, err = domain.ParseRouteGuidance(reply)
	if err != nil {
		return domain.Route{}, err
	}
	return route, nil
}
