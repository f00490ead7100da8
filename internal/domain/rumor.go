package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Verdict is the rating of a single rumor claim.
type Verdict string

const (
	VerdictTrue       Verdict = "TRUE"
	VerdictFalse      Verdict = "FALSE"
	VerdictMisleading Verdict = "MISLEADING"
	VerdictCaution    Verdict = "CAUTION"
)

// Overall is the rollup of all verdicts in a rumor check.
type Overall string

const (
	OverallClear      Overall = "CLEAR"
	OverallSafe       Overall = "SAFE"
	OverallFalse      Overall = "FALSE"
	OverallMisleading Overall = "MISLEADING"
	OverallCaution    Overall = "CAUTION"
)

const maxNoteLen = 240

// RumorMatch is the verdict for one claim.
type RumorMatch struct {
	Claim   string  `json:"claim"`
	Verdict Verdict `json:"verdict"`
	Note    string  `json:"note"`
	Rule    string  `json:"rule,omitempty"` // matched offline rule pattern
}

// RumorReport is the result of checking a block of claims.
type RumorReport struct {
	Overall Overall      `json:"overall"`
	Matches []RumorMatch `json:"matches"`
	Source  string       `json:"source"` // "model" or "rules"
}

// SplitClaims splits text into trimmed, non-empty lines.
func SplitClaims(text string) []string {
	return CleanClaims(strings.Split(text, "\n"))
}

// CleanClaims trims each claim and drops blanks.
func CleanClaims(lines []string) []string {
	claims := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			claims = append(claims, line)
		}
	}
	return claims
}

// ParseVerdict upper-cases v; anything outside the vocabulary becomes CAUTION.
func ParseVerdict(v string) Verdict {
	switch verdict := Verdict(strings.ToUpper(strings.TrimSpace(v))); verdict {
	case VerdictTrue, VerdictFalse, VerdictMisleading, VerdictCaution:
		return verdict
	default:
		return VerdictCaution
	}
}

// Rollup combines per-claim verdicts into the overall verdict.
func Rollup(matches []RumorMatch) Overall {
	if len(matches) == 0 {
		return OverallClear
	}
	allTrue := true
	anyMisleading := false
	for _, m := range matches {
		switch m.Verdict {
		case VerdictFalse:
			return OverallFalse
		case VerdictMisleading:
			anyMisleading = true
		}
		if m.Verdict != VerdictTrue {
			allTrue = false
		}
	}
	switch {
	case allTrue:
		return OverallSafe
	case anyMisleading:
		return OverallMisleading
	default:
		return OverallCaution
	}
}

var verdictEchoRe = regexp.MustCompile(`(?i)^(true|false|misleading|caution)\s*(—|-|:|\.)\s*`)

// CleanNote normalizes a model-written note: whitespace is collapsed, a
// leading verdict word is removed, shouting is toned down, and the result is
// capped at 240 characters.
func CleanNote(s string) string {
	s = collapseSpace(s)
	s = verdictEchoRe.ReplaceAllString(s, "")
	if s == "" {
		return ""
	}

	if isShouting(s) {
		s = strings.ToLower(s)
	}
	r, size := utf8.DecodeRuneInString(s)
	s = string(unicode.ToUpper(r)) + s[size:]

	if utf8.RuneCountInString(s) > maxNoteLen {
		runes := []rune(s)
		s = strings.TrimRightFunc(string(runes[:maxNoteLen-3]), unicode.IsSpace) + "…"
	}
	return s
}

// isShouting reports whether s has letters and all of them are upper case.
func isShouting(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			hasLetter = true
		}
	}
	return hasLetter
}

// ParseRumorResponse reads the model's per-claim verdicts. The reply holds
// {"matches":[{"pattern","verdict","note"}]} with one entry per claim, in order.
// Claims are authoritative; the model's echo of each claim is ignored.
func ParseRumorResponse(reply string, claims []string) ([]RumorMatch, error) {
	body, ok := extractJSON(reply)
	if !ok {
		return nil, fmt.Errorf("%w: rumor reply has no JSON", ErrInvalidModelOutput)
	}
	var out struct {
		Matches []struct {
			Verdict string `json:"verdict"`
			Note    string `json:"note"`
		} `json:"matches"`
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, fmt.Errorf("%w: rumor reply: %v", ErrInvalidModelOutput, err)
	}
	if len(out.Matches) != len(claims) {
		return nil, fmt.Errorf("%w: got %d verdicts for %d claims",
			ErrInvalidModelOutput, len(out.Matches), len(claims))
	}

	matches := make([]RumorMatch, len(claims))
	for i, m := range out.Matches {
		matches[i] = RumorMatch{
			Claim:   claims[i],
			Verdict: ParseVerdict(m.Verdict),
			Note:    CleanNote(m.Note),
		}
	}
	return matches, nil
}

// RumorRule flags claims containing Pattern (case-insensitive).
type RumorRule struct {
	Pattern string  `json:"pattern"`
	Verdict Verdict `json:"verdict"`
	Note    string  `json:"note"`
}

// DefaultRumorRules are used when no rules file is available.
func DefaultRumorRules() []RumorRule {
	return []RumorRule{
		{Pattern: "drink seawater", Verdict: VerdictFalse, Note: "Seawater dehydrates you."},
		{Pattern: "open windows during hurricane", Verdict: VerdictFalse, Note: "Keep windows closed; board if advised."},
		{Pattern: "taping windows", Verdict: VerdictMisleading, Note: "Tape is not a substitute for proper shutters."},
	}
}

// ParseRumorRules decodes a {"rules":[...]} document.
func ParseRumorRules(data []byte) ([]RumorRule, error) {
	var doc struct {
		Rules []RumorRule `json:"rules"`
	}
	if err := json.Unmarshal(bytes.TrimPrefix(data, utf8BOM), &doc); err != nil {
		return nil, fmt.Errorf("parse rumor rules: %w", err)
	}
	rules := make([]RumorRule, 0, len(doc.Rules))
	for _, r := range doc.Rules {
		if r.Pattern = strings.TrimSpace(r.Pattern); r.Pattern == "" {
			continue
		}
		r.Verdict = ParseVerdict(string(r.Verdict))
		rules = append(rules, r)
	}
	return rules, nil
}

// MatchRules checks each claim against the rules. Only claims that hit a
// rule appear in the report. Overall is CLEAR with no hits, FALSE when every
// hit is FALSE, and CAUTION otherwise.
func MatchRules(claims []string, rules []RumorRule) RumorReport {
	matches := make([]RumorMatch, 0)
	for _, claim := range claims {
		lower := strings.ToLower(claim)
		for _, r := range rules {
			if strings.Contains(lower, strings.ToLower(r.Pattern)) {
				matches = append(matches, RumorMatch{Claim: claim, Verdict: r.Verdict, Note: r.Note, Rule: r.Pattern})
			}
		}
	}

	overall := OverallClear
	if len(matches) > 0 {
		overall = OverallFalse
		for _, m := range matches {
			if m.Verdict != VerdictFalse {
				overall = OverallCaution
				break
			}
		}
	}
	return RumorReport{Overall: overall, Matches: matches, Source: "rules"}
}
