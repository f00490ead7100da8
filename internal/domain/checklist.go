package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ChecklistBounds is the allowed number of checklist items for a risk level.
type ChecklistBounds struct {
	Min int
	Max int
}

var checklistBounds = map[RiskLevel]ChecklistBounds{
	RiskSafe:   {Min: 0, Max: 2},
	RiskLow:    {Min: 3, Max: 4},
	RiskMedium: {Min: 5, Max: 7},
	RiskHigh:   {Min: 8, Max: 12},
}

// BoundsFor returns the checklist size bounds for level. ERROR allows no items.
func BoundsFor(level RiskLevel) ChecklistBounds {
	return checklistBounds[level]
}

// ParseChecklistResponse extracts items from a model reply: a JSON array of
// strings, an object with an "items" array, or "- " bullet lines.
func ParseChecklistResponse(reply string) ([]string, error) {
	if body, ok := extractJSON(reply); ok {
		var items []string
		if strings.HasPrefix(body, "[") {
			if err := json.Unmarshal([]byte(body), &items); err != nil {
				return nil, fmt.Errorf("%w: checklist array: %v", ErrInvalidModelOutput, err)
			}
			return items, nil
		}
		var obj struct {
			Items []string `json:"items"`
		}
		if err := json.Unmarshal([]byte(body), &obj); err != nil {
			return nil, fmt.Errorf("%w: checklist object: %v", ErrInvalidModelOutput, err)
		}
		return obj.Items, nil
	}

	var items []string
	for _, line := range strings.Split(StripCodeFences(reply), "\n") {
		line = strings.TrimSpace(line)
		if item, ok := strings.CutPrefix(line, "- "); ok {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: checklist reply has no items", ErrInvalidModelOutput)
	}
	return items, nil
}

// NormalizeChecklist trims, deduplicates (case-insensitively, keeping the
// first occurrence), and caps items at the bound for level. Fewer items than
// the minimum is an error.
func NormalizeChecklist(level RiskLevel, items []string) ([]string, error) {
	bounds, ok := checklistBounds[level]
	if !ok {
		return nil, fmt.Errorf("no checklist for risk %s", level)
	}

	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, bounds.Max)
	for _, item := range items {
		item = collapseSpace(strings.TrimLeft(item, "-*• \t"))
		if item == "" {
			continue
		}
		key := strings.ToLower(item)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
		if len(out) == bounds.Max {
			break
		}
	}

	if len(out) < bounds.Min {
		return nil, fmt.Errorf("%w: checklist has %d items, %s risk needs at least %d",
			ErrInvalidModelOutput, len(out), level, bounds.Min)
	}
	return out, nil
}
