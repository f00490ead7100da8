package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RiskLevel is the hurricane risk label for a ZIP code.
type RiskLevel string

const (
	RiskSafe   RiskLevel = "SAFE"
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
	RiskError  RiskLevel = "ERROR"
)

// Proximity is the geometric relation between a ZIP point and the advisory.
type Proximity struct {
	DistanceKM float64 `json:"distance_km"`
	Inside     bool    `json:"inside"`
	RadiusKM   float64 `json:"radius_km"`
}

// ProximityOf computes the Haversine distance from p to the advisory center.
func ProximityOf(p Point, a Advisory) Proximity {
	d := HaversineKM(p, a.Center)
	return Proximity{
		DistanceKM: round1(d),
		Inside:     d <= a.RadiusKM,
		RadiusKM:   a.RadiusKM,
	}
}

// Risk is the watcher's risk result.
type Risk struct {
	Level     RiskLevel `json:"level"`
	Why       string    `json:"why"`
	Proximity Proximity `json:"proximity"`
}

// ParseRiskResponse reads a model reply of the form
// {"risk":"LOW|MEDIUM|HIGH","why":"..."}. Code fences are tolerated.
func ParseRiskResponse(reply string) (RiskLevel, string, error) {
	body, ok := extractJSON(reply)
	if !ok {
		return "", "", fmt.Errorf("%w: risk reply has no JSON object", ErrInvalidModelOutput)
	}
	var out struct {
		Risk string `json:"risk"`
		Why  string `json:"why"`
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return "", "", fmt.Errorf("%w: risk reply: %v", ErrInvalidModelOutput, err)
	}

	level := RiskLevel(strings.ToUpper(strings.TrimSpace(out.Risk)))
	switch level {
	case RiskLow, RiskMedium, RiskHigh:
	default:
		return "", "", fmt.Errorf("%w: unexpected risk label %q", ErrInvalidModelOutput, out.Risk)
	}

	why := collapseSpace(out.Why)
	if why == "" {
		return "", "", fmt.Errorf("%w: risk reply has no rationale", ErrInvalidModelOutput)
	}
	return level, why, nil
}

// Summary renders the watcher result as short human-readable lines.
func (r Risk) Summary(zip string) string {
	area := "Outside"
	if r.Proximity.Inside {
		area = "Inside"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Risk ZIP: %s\n", zip)
	fmt.Fprintf(&b, "Risk: %s\n", r.Level)
	fmt.Fprintf(&b, "Distance to storm center: %.1f km (%.1f mi)\n",
		r.Proximity.DistanceKM, KMToMiles(r.Proximity.DistanceKM))
	fmt.Fprintf(&b, "Advisory area: %s (radius ≈ %.1f km)", area, r.Proximity.RadiusKM)
	return b.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
