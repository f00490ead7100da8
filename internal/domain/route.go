package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrNoOpenShelter is returned when no shelter in the list is open.
var ErrNoOpenShelter = errors.New("no open shelter available")

const minETAMinutes = 2

// Route is the suggested evacuation target for a ZIP code.
type Route struct {
	Shelter       Shelter `json:"shelter"`
	DistanceKM    float64 `json:"distance_km"`
	DistanceMi    float64 `json:"distance_mi"`
	ETAMinutes    int     `json:"eta_min"`
	DirectionsURL string  `json:"directions_url"`
	Guidance      string  `json:"guidance,omitempty"`
}

// PlanRoute picks the nearest open shelter from origin and estimates the
// travel time using the evacuation speed for the storm category.
func PlanRoute(origin Point, shelters []Shelter, category Category) (Route, error) {
	var (
		best  Shelter
		bestD = math.Inf(1)
	)
	for _, s := range shelters {
		if !s.Open {
			continue
		}
		if d := HaversineKM(origin, s.Point()); d < bestD {
			best, bestD = s, d
		}
	}
	if math.IsInf(bestD, 1) {
		return Route{}, ErrNoOpenShelter
	}

	eta := int(math.Round(bestD / category.EvacuationSpeedKMH() * 60))
	return Route{
		Shelter:       best,
		DistanceKM:    round1(bestD),
		DistanceMi:    round1(KMToMiles(bestD)),
		ETAMinutes:    max(minETAMinutes, eta),
		DirectionsURL: DirectionsURL(best.Point()),
	}, nil
}

// DirectionsURL returns a Google Maps directions link to p.
func DirectionsURL(p Point) string {
	return fmt.Sprintf("https://www.google.com/maps/dir/?api=1&destination=%.6f,%.6f", p.Lat, p.Lon)
}
