package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role identifies the party whose behavior is being evaluated.
type Role string

const (
	RoleCustomer      Role = "customer"
	RoleRestaurant    Role = "restaurant"
	RoleDarkStore     Role = "dark_store"
	RoleDriver        Role = "driver"
	RoleDeliveryAgent Role = "delivery_agent"
)

// ServiceLine is the platform vertical a complaint belongs to.
type ServiceLine string

const (
	ServiceFood    ServiceLine = "food"
	ServiceMart    ServiceLine = "mart"
	ServiceCabs    ServiceLine = "cabs"
	ServiceExpress ServiceLine = "express"
)

// Severity of a single violation.
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityModerate Severity = "moderate"
	SeveritySevere   Severity = "severe"
	SeverityCritical Severity = "critical"
)

// EvidenceLevel ranks how strong the proof behind a complaint is.
// Ordering: claim < photo < measurement/receipt.
type EvidenceLevel string

const (
	EvidenceCustomerClaim EvidenceLevel = "customer_claim"
	EvidencePhoto         EvidenceLevel = "photo_provided"
	EvidenceMeasurement   EvidenceLevel = "measurement"
)

// HistoryPattern buckets how often similar complaints have landed against
// the same actor in the lookback window.
type HistoryPattern string

const (
	HistoryNone      HistoryPattern = "none"
	HistoryModerate  HistoryPattern = "moderate"
	HistoryRecurring HistoryPattern = "recurring"
	HistoryFrequent  HistoryPattern = "frequent"
)

// Tier is the discrete severity bucket a violation score maps to.
type Tier string

const (
	TierMinor            Tier = "MINOR"
	TierModerate         Tier = "MODERATE"
	TierSevere           Tier = "SEVERE"
	TierPatternViolation Tier = "PATTERN_VIOLATION"
	TierSeverePattern    Tier = "SEVERE_PATTERN"
	TierCriticalPattern  Tier = "CRITICAL_PATTERN"
)

// Valid reports whether t is one of the closed set of tiers.
func (t Tier) Valid() bool {
	switch t {
	case TierMinor, TierModerate, TierSevere, TierPatternViolation, TierSeverePattern, TierCriticalPattern:
		return true
	}
	return false
}

// Actor is the durable party record. CredibilityScore is mutated by the
// scorer after each scoring pass.
type Actor struct {
	ID               string    `json:"id"`
	Role             Role      `json:"role"`
	CredibilityScore int       `json:"credibility_score"`
	CreatedAt        time.Time `json:"created_at"`
}

// OrderAggregate is a read-only view over the orders table scoped to one
// actor and a lookback window.
type OrderAggregate struct {
	TotalOrders     int             `json:"total_orders"`
	CompletedOrders int             `json:"completed_orders"`
	CancelledOrders int             `json:"cancelled_orders"`
	RefundedOrders  int             `json:"refunded_orders"`
	AvgOrderValue   decimal.Decimal `json:"avg_order_value"`
	FirstOrderDate  time.Time       `json:"first_order_date"`
	LastOrderDate   time.Time       `json:"last_order_date"`
}

// CompletionRate returns completed/total, or 1.0 when there is no history.
func (a OrderAggregate) CompletionRate() float64 {
	if a.TotalOrders == 0 {
		return 1.0
	}
	return float64(a.CompletedOrders) / float64(a.TotalOrders)
}

// CancellationRate returns cancelled/total, or 0.0 when there is no history.
func (a OrderAggregate) CancellationRate() float64 {
	if a.TotalOrders == 0 {
		return 0.0
	}
	return float64(a.CancelledOrders) / float64(a.TotalOrders)
}

// RefundRate returns refunded/total, or 0.0 when there is no history.
func (a OrderAggregate) RefundRate() float64 {
	if a.TotalOrders == 0 {
		return 0.0
	}
	return float64(a.RefundedOrders) / float64(a.TotalOrders)
}

// ComplaintAggregate counts complaints by category plus the share that were
// resolved, scoped to one actor and a lookback window.
type ComplaintAggregate struct {
	ByCategory     map[string]int `json:"by_category"`
	Total          int            `json:"total"`
	Resolved       int            `json:"resolved"`
	ResolutionRate float64        `json:"resolution_rate"`
}

// Pattern buckets the aggregate into a HistoryPattern.
func (a ComplaintAggregate) Pattern() HistoryPattern {
	switch {
	case a.Total >= 8:
		return HistoryFrequent
	case a.Total >= 5:
		return HistoryRecurring
	case a.Total >= 3:
		return HistoryModerate
	default:
		return HistoryNone
	}
}

// ViolationDetails is the structured complaint analysis produced once per
// complaint by extraction (LLM or keyword fallback). Immutable for the life
// of the request.
type ViolationDetails struct {
	Type             string        `json:"violation_type"`
	Severity         Severity      `json:"severity"`
	EvidenceLevel    EvidenceLevel `json:"evidence_level"`
	RepeatOccurrence bool          `json:"repeat_occurrence"`
	Summary          string        `json:"summary"`
}

// Assessment is the deterministic result of weighing ViolationDetails against
// credibility and complaint history. Request scoped, never persisted as a
// first-class record.
type Assessment struct {
	ViolationScore int   `json:"violation_score"`
	Tier           Tier  `json:"tier"`
	Flags          Flags `json:"flags"`
}

// Flags is the bundle of booleans a tier switches on. Higher tiers only ever
// add flags, never remove them.
type Flags struct {
	TrainingRequired         bool `json:"training_required"`
	AuditRequired            bool `json:"audit_required"`
	ImmediateAction          bool `json:"immediate_action"`
	HealthSafetyNotification bool `json:"health_safety_notification"`
}

// CorrectiveActions is the resolved outcome per tier and credibility.
// CustomerRefund is never scaled by credibility; only the penalty charged to
// the actor under review is.
type CorrectiveActions struct {
	CustomerRefund         decimal.Decimal `json:"customer_refund"`
	ActorPenalty           decimal.Decimal `json:"actor_penalty"`
	ComplianceBond         decimal.Decimal `json:"compliance_bond"`
	SuspensionDays         int             `json:"suspension_days"`
	VisibilityReductionPct int             `json:"visibility_reduction_pct"`
}

// Resolution is the persisted complaint log row: the request-scoped pieces
// folded together once a complaint has been decided.
type Resolution struct {
	ID             int64             `json:"id"`
	Service        ServiceLine       `json:"service"`
	Role           Role              `json:"role"`
	ActorID        string            `json:"actor_id"`
	IssueType      string            `json:"issue_type"`
	Query          string            `json:"query"`
	Source         string            `json:"source"`
	Details        ViolationDetails  `json:"details"`
	Credibility    int               `json:"credibility"`
	ViolationScore int               `json:"violation_score"`
	Tier           Tier              `json:"tier"`
	Actions        CorrectiveActions `json:"actions"`
	Response       string            `json:"response"`
	CreatedAt      time.Time         `json:"created_at"`
}
