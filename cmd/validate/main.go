// Command validate checks the integrity of a HurriAid data directory: the
// advisory, the shelter list, the ZIP centroid table, and the rumor rules. It
// also verifies that every ZIP in the table can reach an open shelter.
//
// Usage:
//
//	go run ./cmd/validate -data-dir data -now 2025-09-01T12:00:00Z
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ernestobalbinse/HurriAid/internal/adapter/filestore"
	"github.com/ernestobalbinse/HurriAid/internal/adapter/ziptable"
	"github.com/ernestobalbinse/HurriAid/internal/domain"
	"github.com/ernestobalbinse/HurriAid/internal/observability"
	"github.com/jonboulle/clockwork"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data-dir", "data", "directory containing the HurriAid data files")
	now := flag.String("now", "", "RFC 3339 time used for advisory freshness (default: current time)")
	flag.Parse()

	os.Exit(run(*dataDir, *now, os.Stdout))
}

func run(dataDir, now string, out io.Writer) int {
	if now != "" {
		ts, err := time.Parse(time.RFC3339, now)
		if err != nil {
			fmt.Fprintf(out, "FATAL: invalid -now: %v\n", err)
			return 2
		}
		domain.SetClock(clockwork.NewFakeClockAt(ts))
		defer domain.SetClock(nil)
	}

	fmt.Fprintln(out, "=== HurriAid Data Validation ===")
	fmt.Fprintf(out, "Data directory: %s\n\n", dataDir)

	ctx := context.Background()
	store := filestore.New(dataDir, slog.New(slog.NewTextHandler(io.Discard, nil)))

	advisory, advPhase := validateAdvisory(ctx, store)
	shelters, shelterPhase := validateShelters(ctx, store)
	table, zipPhase := validateZIPTable(dataDir)
	phases := []*phase{
		advPhase,
		shelterPhase,
		zipPhase,
		validateRumorRules(ctx, store, dataDir),
		validateCoverage(table, shelters, advisory),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-32s %s\n", p.name, status)
		for _, n := range p.notes {
			fmt.Fprintf(out, "      %s\n", n)
		}
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func validateAdvisory(ctx context.Context, store *filestore.Store) (*domain.Advisory, *phase) {
	p := &phase{name: "Advisory"}
	adv, err := store.LoadAdvisory(ctx)
	if err != nil {
		p.errorf("%v", err)
		return nil, p
	}

	f := adv.Freshness()
	p.notef("category %s, radius %.0f km, active %t", adv.Category, adv.RadiusKM, adv.Active)
	p.notef("issued %q: %s (%s)", adv.IssuedAt, f.Status, f.Detail)
	if adv.Active && f.Status == domain.FreshnessUnknown {
		p.errorf("active advisory has no usable issued_at timestamp")
	}
	return &adv, p
}

func validateShelters(ctx context.Context, store *filestore.Store) ([]domain.Shelter, *phase) {
	p := &phase{name: "Shelters"}
	shelters, err := store.LoadShelters(ctx)
	if err != nil {
		p.errorf("%v", err)
		return nil, p
	}

	seen := make(map[string]int, len(shelters))
	for i, s := range shelters {
		key := strings.ToLower(s.Name)
		if j, dup := seen[key]; dup {
			p.errorf("shelter %d %q duplicates shelter %d", i, s.Name, j)
		}
		seen[key] = i
		if !validPoint(s.Point()) {
			p.errorf("shelter %q: coordinates out of range (%.4f, %.4f)", s.Name, s.Lat, s.Lon)
		}
	}

	open := domain.OpenShelters(shelters)
	p.notef("%d shelters, %d open", len(shelters), len(open))
	if len(open) == 0 {
		p.errorf("no open shelters")
	}
	return shelters, p
}

func validateZIPTable(dataDir string) (*ziptable.Table, *phase) {
	p := &phase{name: "ZIP centroid table"}
	table, err := ziptable.Load(filepath.Join(dataDir, ziptable.FileName), observability.NewMetricsForTesting())
	if err != nil {
		p.errorf("%v", err)
		return nil, p
	}
	if table.Len() == 0 {
		p.errorf("table has no entries")
	}
	for _, loc := range table.Locations() {
		if !validPoint(loc.Point) {
			p.errorf("ZIP %s: coordinates out of range (%.4f, %.4f)", loc.ZIP, loc.Point.Lat, loc.Point.Lon)
		}
	}
	p.notef("%d ZIP codes", table.Len())
	return table, p
}

func validateRumorRules(ctx context.Context, store *filestore.Store, dataDir string) *phase {
	p := &phase{name: "Rumor rules"}
	if _, err := os.Stat(filepath.Join(dataDir, filestore.RumorsFile)); errors.Is(err, os.ErrNotExist) {
		p.notef("%s not found, built-in rules apply", filestore.RumorsFile)
		return p
	}

	rules, err := store.LoadRumorRules(ctx)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	if len(rules) == 0 {
		p.errorf("rules file has no usable rules")
	}
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		key := strings.ToLower(r.Pattern)
		if seen[key] {
			p.errorf("duplicate pattern %q", r.Pattern)
		}
		seen[key] = true
		if strings.TrimSpace(r.Note) == "" {
			p.errorf("pattern %q has no note", r.Pattern)
		}
	}
	p.notef("%d rules", len(rules))
	return p
}

// validateCoverage checks that every ZIP in the table has an open shelter to
// route to, and reports how many fall inside the advisory radius.
func validateCoverage(table *ziptable.Table, shelters []domain.Shelter, adv *domain.Advisory) *phase {
	p := &phase{name: "Route coverage"}
	if table == nil || shelters == nil || adv == nil {
		p.errorf("skipped: an earlier phase failed")
		return p
	}

	inside := 0
	var longest domain.Route
	for _, loc := range table.Locations() {
		if domain.ProximityOf(loc.Point, *adv).Inside {
			inside++
		}
		route, err := domain.PlanRoute(loc.Point, shelters, adv.Category)
		if err != nil {
			p.errorf("ZIP %s: %v", loc.ZIP, err)
			continue
		}
		if route.ETAMinutes > longest.ETAMinutes {
			longest = route
		}
	}
	p.notef("%d of %d ZIP codes inside the advisory radius", inside, table.Len())
	if longest.ETAMinutes > 0 {
		p.notef("longest ETA %d min to %s", longest.ETAMinutes, longest.Shelter.Name)
	}
	return p
}

func validPoint(pt domain.Point) bool {
	return pt.Lat >= -90 && pt.Lat <= 90 && pt.Lon >= -180 && pt.Lon <= 180
}
