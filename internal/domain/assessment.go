package domain

import "time"

// Error keys used in Assessment.Errors.
const (
	StageWatcher   = "watcher"
	StageShelters  = "shelters"
	StageChecklist = "checklist"
	StagePlanner   = "planner"
)

// Assessment is the merged result of one coordinator cycle for a ZIP code.
// Results that could not be produced are nil or empty and the reason is in Errors.
type Assessment struct {
	ID        string            `json:"id"`
	ZIP       string            `json:"zip"`
	Offline   bool              `json:"offline"`
	CreatedAt time.Time         `json:"created_at"`
	Advisory  *Advisory         `json:"advisory,omitempty"`
	Freshness *Freshness        `json:"freshness,omitempty"`
	Location  *ZIPLocation      `json:"location,omitempty"`
	Risk      Risk              `json:"risk"`
	Summary   string            `json:"summary,omitempty"`
	Shelters  []Shelter         `json:"shelters,omitempty"`
	Checklist []string          `json:"checklist,omitempty"`
	Route     *Route            `json:"route,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
	TimingsMS map[string]int64  `json:"timings_ms"`
}

// Failed reports whether any stage recorded an error.
func (a Assessment) Failed() bool {
	return len(a.Errors) > 0
}
