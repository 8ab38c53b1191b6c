// Package fallback is the deterministic keyword extractor used whenever the
// LLM adapter fails. Every complaint must end up with populated
// ViolationDetails, so this path can never error.
package fallback

import (
	"strings"

	"github.com/AdityaBS04/GrabHackProper-sub000/models"
)

// SourceName labels resolutions produced via the keyword path.
const SourceName = "Keyword"

var criticalKeywords = []string{
	"food poisoning", "poisoning", "sick", "hospital", "raw ", "undercooked",
	"spoiled", "rotten", "expired", "allerg", "vomit", "mold",
}

var severeKeywords = []string{
	"accident", "harass", "unsafe", "threat", "thawed", "melted ice cream",
	"warm frozen", "leaking", "crash", "injur",
}

var minorKeywords = []string{
	"late", "delay", "slow", "cold food", "lukewarm", "packaging", "soggy",
}

var typeKeywords = []struct {
	violationType string
	words         []string
}{
	{"safety", []string{"poisoning", "sick", "raw", "undercooked", "allerg", "unsafe", "accident", "harass", "threat", "injur", "crash"}},
	{"cold_chain", []string{"thawed", "melted", "warm frozen", "not cold", "defrosted", "temperature"}},
	{"portion", []string{"portion", "half empty", "less than", "short", "missing quantity", "underweight", "grams"}},
	{"wrong_item", []string{"wrong item", "wrong order", "different item", "not what i ordered", "substitut"}},
	{"damaged", []string{"damaged", "broken", "crushed", "leaking", "torn", "shattered"}},
	{"timing", []string{"late", "delay", "slow", "hours", "never arrived"}},
	{"behavior", []string{"rude", "harass", "driver behav", "agent behav", "shouted", "abusive"}},
}

var repeatKeywords = []string{
	"again", "every time", "second time", "third time", "keeps happening",
	"as usual", "once more",
}

var measurementKeywords = []string{
	"grams", " kg", "weighed", "receipt", "scale", "°c", " degrees", "measured",
}

// Extract derives ViolationDetails from the raw complaint text alone.
// Defaults are severity=moderate, evidence_level=customer_claim; keywords
// only ever move severity, never drop fields.
func Extract(complaint string, hasEvidence bool) models.ViolationDetails {
	text := strings.ToLower(complaint)

	severity := models.SeverityModerate
	switch {
	case containsAny(text, criticalKeywords):
		severity = models.SeverityCritical
	case containsAny(text, severeKeywords):
		severity = models.SeveritySevere
	case containsAny(text, minorKeywords):
		severity = models.SeverityMinor
	}

	evidence := models.EvidenceCustomerClaim
	if containsAny(text, measurementKeywords) {
		evidence = models.EvidenceMeasurement
	} else if hasEvidence {
		evidence = models.EvidencePhoto
	}

	violationType := "quality"
	for _, tk := range typeKeywords {
		if containsAny(text, tk.words) {
			violationType = tk.violationType
			break
		}
	}

	summary := strings.TrimSpace(complaint)
	if len(summary) > 200 {
		summary = summary[:200]
	}

	return models.ViolationDetails{
		Type:             violationType,
		Severity:         severity,
		EvidenceLevel:    evidence,
		RepeatOccurrence: containsAny(text, repeatKeywords),
		Summary:          summary,
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
