// Package decision maps an assessment to corrective actions. Pure; the same
// (Assessment, credibility) input always yields the same output.
package decision

import (
	"github.com/AdityaBS04/GrabHackProper-sub000/models"
	"github.com/shopspring/decimal"
)

// baseActions is the fixed per-tier table of base figures.
var baseActions = map[models.Tier]models.CorrectiveActions{
	models.TierMinor: {
		CustomerRefund: decimal.NewFromInt(5),
	},
	models.TierModerate: {
		CustomerRefund:         decimal.NewFromInt(10),
		ActorPenalty:           decimal.NewFromInt(25),
		VisibilityReductionPct: 10,
	},
	models.TierSevere: {
		CustomerRefund:         decimal.NewFromInt(15),
		ActorPenalty:           decimal.NewFromInt(75),
		ComplianceBond:         decimal.NewFromInt(200),
		SuspensionDays:         1,
		VisibilityReductionPct: 25,
	},
	models.TierPatternViolation: {
		CustomerRefund:         decimal.NewFromInt(15),
		ActorPenalty:           decimal.NewFromInt(150),
		ComplianceBond:         decimal.NewFromInt(500),
		SuspensionDays:         3,
		VisibilityReductionPct: 40,
	},
	models.TierSeverePattern: {
		CustomerRefund:         decimal.NewFromInt(20),
		ActorPenalty:           decimal.NewFromInt(300),
		ComplianceBond:         decimal.NewFromInt(1000),
		SuspensionDays:         7,
		VisibilityReductionPct: 60,
	},
	models.TierCriticalPattern: {
		CustomerRefund:         decimal.NewFromInt(25),
		ActorPenalty:           decimal.NewFromInt(500),
		ComplianceBond:         decimal.NewFromInt(2000),
		SuspensionDays:         14,
		VisibilityReductionPct: 80,
	},
}

// CredibilityModifier returns the multiplier applied to the penalty and bond
// charged to the actor under review. Lower credibility means a harsher
// multiplier; high credibility earns a discount.
func CredibilityModifier(credibility int) decimal.Decimal {
	switch {
	case credibility <= 3:
		return decimal.NewFromFloat(1.5)
	case credibility <= 5:
		return decimal.NewFromFloat(1.25)
	case credibility >= 8:
		return decimal.NewFromFloat(0.8)
	default:
		return decimal.NewFromInt(1)
	}
}

// Decide looks up the base figures for the assessment's tier and applies the
// credibility modifier. The modifier scales ActorPenalty and ComplianceBond
// only; CustomerRefund is what the harmed party recovers and is never scaled
// by the credibility of the actor under review.
func Decide(assessment models.Assessment, credibility int) models.CorrectiveActions {
	base, ok := baseActions[assessment.Tier]
	if !ok {
		base = baseActions[models.TierMinor]
	}

	mod := CredibilityModifier(credibility)
	return models.CorrectiveActions{
		CustomerRefund:         base.CustomerRefund,
		ActorPenalty:           base.ActorPenalty.Mul(mod).Round(2),
		ComplianceBond:         base.ComplianceBond.Mul(mod).Round(2),
		SuspensionDays:         base.SuspensionDays,
		VisibilityReductionPct: base.VisibilityReductionPct,
	}
}
