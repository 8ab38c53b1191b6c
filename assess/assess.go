// Package assess converts a structured complaint analysis into a weighted
// violation score and a coarse tier. Pure; no I/O.
package assess

import (
	"github.com/AdityaBS04/GrabHackProper-sub000/models"
)

// Weighted contributions. Each input can only add to the score, never
// subtract, so the score is non-decreasing as any input worsens.
var severityWeights = map[models.Severity]int{
	models.SeverityMinor:    2,
	models.SeverityModerate: 4,
	models.SeveritySevere:   7,
	models.SeverityCritical: 10,
}

var evidenceWeights = map[models.EvidenceLevel]int{
	models.EvidenceCustomerClaim: 1,
	models.EvidencePhoto:         3,
	models.EvidenceMeasurement:   5,
}

var historyWeights = map[models.HistoryPattern]int{
	models.HistoryNone:      0,
	models.HistoryModerate:  4,
	models.HistoryRecurring: 6,
	models.HistoryFrequent:  8,
}

const repeatWeight = 4

// Assess computes the violation score for details against the actor's
// credibility and complaint history, maps it to a tier and sets the tier's
// flag bundle. recentViolations is the count of violations confirmed against
// the actor in the recent window.
func Assess(details models.ViolationDetails, credibility int, history models.ComplaintAggregate, recentViolations int) models.Assessment {
	score := severityWeights[details.Severity]
	score += evidenceWeights[details.EvidenceLevel]

	pattern := history.Pattern()
	score += historyWeights[pattern]

	if details.RepeatOccurrence {
		score += repeatWeight
	}

	switch {
	case credibility <= 3:
		score += 6
	case credibility <= 5:
		score += 4
	case credibility <= 7:
		score += 2
	}

	switch {
	case recentViolations >= 5:
		score += 6
	case recentViolations >= 3:
		score += 4
	case recentViolations >= 1:
		score += 2
	}

	hasPattern := pattern != models.HistoryNone || details.RepeatOccurrence || recentViolations > 0
	tier := tierFor(score, hasPattern)

	return models.Assessment{
		ViolationScore: score,
		Tier:           tier,
		Flags:          flagsFor(tier),
	}
}

// tierFor maps a score to its band. The pattern tiers describe repeated
// misbehavior, so they are only reachable when some pattern signal is
// present; a high one-off score tops out at SEVERE.
func tierFor(score int, hasPattern bool) models.Tier {
	if hasPattern {
		switch {
		case score >= 20:
			return models.TierCriticalPattern
		case score >= 15:
			return models.TierSeverePattern
		case score >= 10:
			return models.TierPatternViolation
		}
	}
	switch {
	case score >= 6:
		return models.TierSevere
	case score >= 3:
		return models.TierModerate
	default:
		return models.TierMinor
	}
}

// flagsFor returns the flag bundle for a tier. Flags accumulate strictly
// upward: a flag set at a lower tier is set at every higher tier.
func flagsFor(tier models.Tier) models.Flags {
	var f models.Flags
	switch tier {
	case models.TierCriticalPattern:
		f.HealthSafetyNotification = true
		fallthrough
	case models.TierSeverePattern:
		f.ImmediateAction = true
		fallthrough
	case models.TierPatternViolation:
		fallthrough
	case models.TierSevere:
		f.AuditRequired = true
		fallthrough
	case models.TierModerate:
		f.TrainingRequired = true
	}
	return f
}
