package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

const riskInstruction = `You are a hurricane risk classifier and explainer.
Return JSON ONLY on one line: {"risk":"LOW|MEDIUM|HIGH","why":"<1-2 sentences, 20-45 words, clear and relatable>"}

Style rules:
- Sound natural and empathetic, not robotic.
- Use concrete details from the facts (distance, radius, category).
- No emojis, no prefixes, no markdown, no extra keys.
- Do NOT invent places or people; stick strictly to the facts provided.

Example:
Input facts: zip=32226, category=CAT2, radius_km=80, distance_km=140.0, inside_radius=FALSE
Output: {"risk":"LOW","why":"You're outside the advisory radius and roughly 140 km from the center. Expect periods of rain and breezes, but damaging winds are unlikely at this distance."}
`

// RiskPrompt asks the model to classify risk for a ZIP given the geometry.
func RiskPrompt(zip string, a Advisory, p Proximity) Prompt {
	var b strings.Builder
	b.WriteString(riskInstruction)
	b.WriteString("\nFacts:\n")
	fmt.Fprintf(&b, "- zip: %s\n", zip)
	fmt.Fprintf(&b, "- category: %s\n", a.Category)
	fmt.Fprintf(&b, "- radius_km: %.1f\n", a.RadiusKM)
	fmt.Fprintf(&b, "- distance_km: %.1f\n", p.DistanceKM)
	fmt.Fprintf(&b, "- inside_radius: %s\n", strings.ToUpper(fmt.Sprint(p.Inside)))
	return Prompt{Operation: OpRisk, Text: b.String(), Temperature: 0.65, MaxTokens: 180, JSON: true}
}

// ChecklistPrompt asks for a checklist sized to the risk bounds.
func ChecklistPrompt(zip string, level RiskLevel, a Advisory, p Proximity) Prompt {
	bounds := BoundsFor(level)
	var b strings.Builder
	b.WriteString("You are a preparedness assistant.\n\n")
	b.WriteString("Read the Facts block and produce a short, practical hurricane checklist tailored to the stated risk and proximity.\n\n")
	fmt.Fprintf(&b, "OUTPUT FORMAT (STRICT): return ONLY a JSON array of %d-%d short strings. No objects. No markdown.\n", bounds.Min, bounds.Max)
	b.WriteString(`Example: ["Water (3 days)","Medications","Flashlight & batteries"]` + "\n\n")
	b.WriteString("Facts:\n")
	fmt.Fprintf(&b, "- zip: %s\n- risk: %s\n- category: %s\n- radius_km: %.1f\n- distance_km: %.1f\n",
		zip, level, a.Category, a.RadiusKM, p.DistanceKM)
	return Prompt{Operation: OpChecklist, Text: b.String(), Temperature: 0.3, MaxTokens: 256, JSON: true}
}

// RoutePrompt asks for one sentence of travel guidance to the chosen shelter.
func RoutePrompt(zip string, level RiskLevel, category Category, r Route) Prompt {
	var b strings.Builder
	b.WriteString("You are an evacuation planner. The nearest open shelter has already been chosen.\n")
	b.WriteString(`Return JSON ONLY: {"guidance":"<one sentence, at most 30 words, practical travel advice>"}` + "\n")
	b.WriteString("Do not change the shelter, distance, or ETA. No markdown.\n\nFacts:\n")
	fmt.Fprintf(&b, "- zip: %s\n- risk: %s\n- category: %s\n", zip, level, category)
	fmt.Fprintf(&b, "- shelter: %s\n- distance_km: %.1f\n- eta_min: %d\n", r.Shelter.Name, r.DistanceKM, r.ETAMinutes)
	return Prompt{Operation: OpRoute, Text: b.String(), Temperature: 0.4, MaxTokens: 120, JSON: true}
}

// ParseRouteGuidance reads {"guidance":"..."} from a model reply.
func ParseRouteGuidance(reply string) (string, error) {
	body, ok := extractJSON(reply)
	if !ok {
		return "", fmt.Errorf("%w: route reply has no JSON object", ErrInvalidModelOutput)
	}
	var out struct {
		Guidance string `json:"guidance"`
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return "", fmt.Errorf("%w: route reply: %v", ErrInvalidModelOutput, err)
	}
	g := collapseSpace(out.Guidance)
	if g == "" {
		return "", fmt.Errorf("%w: route reply has no guidance", ErrInvalidModelOutput)
	}
	return g, nil
}

const rumorInstruction = `You are HurriAid Verifier, checking hurricane preparation and response statements.

Return ONLY JSON with this exact shape:
{
  "matches": [
    { "pattern": "<original statement>", "verdict": "TRUE|FALSE|MISLEADING|CAUTION", "note": "<at most 30 words, no verdict words>" }
  ]
}

Rules:
- Return exactly one match per item, in the same order as the items.
- If a statement is outside hurricane-prep scope, use CAUTION with a short reason.
- Notes should be sentence-case, at most 30 words, no ALL CAPS, and must not repeat the verdict word.
`

// RumorPrompt asks the model to rate each claim.
func RumorPrompt(claims []string) Prompt {
	text := rumorInstruction + "\nItems:\n```\n" + strings.Join(claims, "\n") + "\n```\n"
	return Prompt{Operation: OpRumor, Text: text, Temperature: 0.2, MaxTokens: 1024, JSON: true}
}
