// Package respond renders a decided complaint into the customer-facing reply
// text. No decision logic lives here; it is pure presentation over the
// figures computed upstream.
package respond

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/AdityaBS04/GrabHackProper-sub000/models"
	"github.com/shopspring/decimal"
)

// tierTemplates is the lead-in message per tier. The figures block appended
// by Render is identical across tiers so replies stay machine-recoverable.
var tierTemplates = map[models.Tier]string{
	models.TierMinor: "Thank you for flagging the %s issue. We reviewed your report and have issued a goodwill credit. " +
		"No further action against the partner is warranted at this time.",
	models.TierModerate: "We're sorry about the %s issue with your order. Our review confirmed the problem and the partner " +
		"has been notified and enrolled in corrective training.",
	models.TierSevere: "We sincerely apologize for the %s issue. Our review confirmed a serious violation; the partner has " +
		"been penalized and a quality audit has been scheduled.",
	models.TierPatternViolation: "We sincerely apologize for the %s issue. Our review found this is part of a repeated pattern " +
		"of violations, and escalated corrective measures have been applied to the partner.",
	models.TierSeverePattern: "We sincerely apologize for the %s issue. This partner has shown a severe pattern of violations. " +
		"Immediate corrective action is underway, including temporary suspension.",
	models.TierCriticalPattern: "We sincerely apologize for the %s issue. This has been escalated as a critical safety matter: " +
		"the partner is suspended pending a full investigation and health and safety authorities have been notified.",
}

const (
	labelRefund     = "Refund issued"
	labelPenalty    = "Partner penalty"
	labelBond       = "Compliance bond"
	labelSuspension = "Suspension"
	labelVisibility = "Visibility reduction"
)

// Render produces the reply text for a decided complaint. The figures block
// always carries all five lines, zero-valued or not, so ParseActions can
// recover the exact CorrectiveActions from the text.
func Render(tier models.Tier, actions models.CorrectiveActions, details models.ViolationDetails) string {
	tmpl, ok := tierTemplates[tier]
	if !ok {
		tmpl = tierTemplates[models.TierMinor]
	}

	issue := details.Type
	if issue == "" {
		issue = "reported"
	}
	issue = strings.ReplaceAll(issue, "_", " ")

	var b strings.Builder
	fmt.Fprintf(&b, tmpl, issue)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s: $%s\n", labelRefund, actions.CustomerRefund.StringFixed(2))
	fmt.Fprintf(&b, "%s: $%s\n", labelPenalty, actions.ActorPenalty.StringFixed(2))
	fmt.Fprintf(&b, "%s: $%s\n", labelBond, actions.ComplianceBond.StringFixed(2))
	fmt.Fprintf(&b, "%s: %d days\n", labelSuspension, actions.SuspensionDays)
	fmt.Fprintf(&b, "%s: %d%%\n", labelVisibility, actions.VisibilityReductionPct)
	return b.String()
}

// RequestEvidence is the reply used when a scenario requires a photo and none
// was attached. Not an error: the caller gets an explicit ask instead.
func RequestEvidence(issue string) string {
	issue = strings.ReplaceAll(issue, "_", " ")
	return fmt.Sprintf("To resolve your %s complaint we need a photo of the issue. "+
		"Please attach a clear picture of the item as received and resubmit.", issue)
}

var (
	moneyLineRe = regexp.MustCompile(`(?m)^([A-Za-z ]+): \$([0-9]+\.[0-9]{2})$`)
	daysLineRe  = regexp.MustCompile(`(?m)^` + labelSuspension + `: ([0-9]+) days$`)
	pctLineRe   = regexp.MustCompile(`(?m)^` + labelVisibility + `: ([0-9]+)%$`)
)

// ParseActions recovers the CorrectiveActions figures from rendered reply
// text. Render followed by ParseActions is exact for currency and day counts.
func ParseActions(text string) (models.CorrectiveActions, error) {
	var actions models.CorrectiveActions

	money := map[string]decimal.Decimal{}
	for _, m := range moneyLineRe.FindAllStringSubmatch(text, -1) {
		v, err := decimal.NewFromString(m[2])
		if err != nil {
			return actions, fmt.Errorf("bad currency value %q: %w", m[2], err)
		}
		money[m[1]] = v
	}
	for _, label := range []string{labelRefund, labelPenalty, labelBond} {
		if _, ok := money[label]; !ok {
			return actions, fmt.Errorf("missing %q line in response text", label)
		}
	}
	actions.CustomerRefund = money[labelRefund]
	actions.ActorPenalty = money[labelPenalty]
	actions.ComplianceBond = money[labelBond]

	dm := daysLineRe.FindStringSubmatch(text)
	if dm == nil {
		return actions, fmt.Errorf("missing %q line in response text", labelSuspension)
	}
	days, err := strconv.Atoi(dm[1])
	if err != nil {
		return actions, fmt.Errorf("bad suspension days %q: %w", dm[1], err)
	}
	actions.SuspensionDays = days

	pm := pctLineRe.FindStringSubmatch(text)
	if pm == nil {
		return actions, fmt.Errorf("missing %q line in response text", labelVisibility)
	}
	pct, err := strconv.Atoi(pm[1])
	if err != nil {
		return actions, fmt.Errorf("bad visibility reduction %q: %w", pm[1], err)
	}
	actions.VisibilityReductionPct = pct

	return actions, nil
}
