// Package scoring computes the 1-10 credibility score for an actor from its
// order and complaint history, and writes the recomputed score back.
package scoring

import (
	"context"

	"github.com/apex/log"
	"github.com/shopspring/decimal"

	"github.com/AdityaBS04/GrabHackProper-sub000/metrics"
	"github.com/AdityaBS04/GrabHackProper-sub000/models"
)

// Store is the persistence surface the scorer depends on. database.Database
// satisfies it; tests inject fakes.
type Store interface {
	GetActor(ctx context.Context, role models.Role, id string) (*models.Actor, error)
	AggregateOrders(ctx context.Context, role models.Role, id string, windowDays int) (models.OrderAggregate, error)
	AggregateComplaints(ctx context.Context, role models.Role, id string, windowDays int) (models.ComplaintAggregate, error)
	UpdateCredibility(ctx context.Context, role models.Role, id string, score int) error
}

const (
	baseScore        = 7
	anonymousPenalty = 2
	minScore         = 1
	maxScore         = 10
)

// Scorer computes credibility scores over a Store.
type Scorer struct {
	store        Store
	lookbackDays int
	anonymousID  string
}

// NewScorer creates a scorer with the given lookback window.
func NewScorer(store Store, lookbackDays int, anonymousID string) *Scorer {
	return &Scorer{
		store:        store,
		lookbackDays: lookbackDays,
		anonymousID:  anonymousID,
	}
}

// Score computes the credibility score for an actor and persists it. It never
// returns an error: when storage is unreachable it degrades to a
// deterministic heuristic on the actor id and skips the write-back.
func (s *Scorer) Score(ctx context.Context, role models.Role, actorID string) int {
	if actorID == "" || actorID == s.anonymousID {
		// Anonymous actors start from base and take a fixed penalty; stored
		// history, if any, is ignored.
		return clamp(baseScore - anonymousPenalty)
	}

	actor, err := s.store.GetActor(ctx, role, actorID)
	if err != nil {
		log.Warnf("scoring %s/%s: storage unavailable, using heuristic: %v", role, actorID, err)
		return s.heuristicScore(actorID)
	}

	score := baseScore
	if actor != nil {
		score = actor.CredibilityScore
	}

	orders, err := s.store.AggregateOrders(ctx, role, actorID, s.lookbackDays)
	if err != nil {
		log.Warnf("scoring %s/%s: order aggregation failed, using heuristic: %v", role, actorID, err)
		return s.heuristicScore(actorID)
	}

	complaints, err := s.store.AggregateComplaints(ctx, role, actorID, s.lookbackDays)
	if err != nil {
		log.Warnf("scoring %s/%s: complaint aggregation failed, using heuristic: %v", role, actorID, err)
		return s.heuristicScore(actorID)
	}

	score += completionAdjustment(role, orders.CompletionRate())
	score += cancellationAdjustment(orders.CancellationRate())
	if refundRateApplies(role) {
		score += refundAdjustment(orders.RefundRate())
	}
	score += volumeAdjustment(orders.TotalOrders)
	score += orderValueAdjustment(orders.AvgOrderValue)
	score += tenureAdjustment(actor, orders)
	score += complaintCategoryAdjustment(complaints)
	score += resolutionRateAdjustment(complaints)

	score = clamp(score)

	if err := s.store.UpdateCredibility(ctx, role, actorID, score); err != nil {
		// Best effort: the computed score is still valid for this request.
		log.Warnf("scoring %s/%s: failed to persist score %d: %v", role, actorID, score, err)
	}

	return score
}

// heuristicScore is the degraded-mode score for when storage is unreachable:
// a deterministic spread over [4,8] keyed on the actor id, so repeated calls
// for the same actor stay stable without touching storage.
func (s *Scorer) heuristicScore(actorID string) int {
	metrics.ScoringDegradedTotal.Inc()
	var sum int
	for _, b := range []byte(actorID) {
		sum += int(b)
	}
	return 4 + sum%5
}

// Completion-rate brackets. Supplier-side roles are held to stricter cutoffs
// than customers.
func completionAdjustment(role models.Role, rate float64) int {
	strict := role == models.RoleRestaurant || role == models.RoleDarkStore
	if strict {
		switch {
		case rate >= 0.99:
			return 3
		case rate >= 0.97:
			return 2
		case rate >= 0.93:
			return 1
		case rate >= 0.88:
			return 0
		case rate >= 0.85:
			return -1
		default:
			return -3
		}
	}
	switch {
	case rate >= 0.98:
		return 3
	case rate >= 0.95:
		return 2
	case rate >= 0.90:
		return 1
	case rate >= 0.85:
		return 0
	case rate >= 0.80:
		return -1
	default:
		return -3
	}
}

func cancellationAdjustment(rate float64) int {
	switch {
	case rate <= 0.02:
		return 1
	case rate <= 0.05:
		return 0
	case rate <= 0.10:
		return -1
	case rate <= 0.20:
		return -2
	default:
		return -3
	}
}

// refundRateApplies reports whether the refund-rate bracket applies to a
// role. Customers requesting refunds are scored through the complaint
// history instead.
func refundRateApplies(role models.Role) bool {
	switch role {
	case models.RoleRestaurant, models.RoleDarkStore, models.RoleDriver:
		return true
	}
	return false
}

func refundAdjustment(rate float64) int {
	switch {
	case rate <= 0.02:
		return 1
	case rate <= 0.05:
		return 0
	case rate <= 0.10:
		return -2
	default:
		return -3
	}
}

func volumeAdjustment(totalOrders int) int {
	switch {
	case totalOrders >= 100:
		return 2
	case totalOrders >= 30:
		return 1
	case totalOrders >= 3:
		return 0
	default:
		return -1
	}
}

var (
	highOrderValue = decimal.NewFromInt(200)
	goodOrderValue = decimal.NewFromInt(50)
)

func orderValueAdjustment(avg decimal.Decimal) int {
	switch {
	case avg.GreaterThanOrEqual(highOrderValue):
		return 2
	case avg.GreaterThanOrEqual(goodOrderValue):
		return 1
	default:
		return 0
	}
}

// tenureAdjustment rewards account/business age. Falls back to first-order
// date when the actor record is unknown.
func tenureAdjustment(actor *models.Actor, orders models.OrderAggregate) int {
	since := orders.FirstOrderDate
	if actor != nil && !actor.CreatedAt.IsZero() {
		since = actor.CreatedAt
	}
	if since.IsZero() {
		return 0
	}
	days := int(orders.LastOrderDate.Sub(since).Hours() / 24)
	switch {
	case days >= 730:
		return 2
	case days >= 180:
		return 1
	default:
		return 0
	}
}

// complaintCategoryAdjustment penalizes complaint history, weighting
// safety-related categories heavier than timing ones.
func complaintCategoryAdjustment(agg models.ComplaintAggregate) int {
	adj := 0

	safety := agg.ByCategory["safety"] + agg.ByCategory["cold_chain"]
	switch {
	case safety >= 3:
		adj -= 4
	case safety >= 1:
		adj -= 2
	}

	quality := agg.ByCategory["quality"] + agg.ByCategory["portion"] +
		agg.ByCategory["wrong_item"] + agg.ByCategory["damaged"]
	switch {
	case quality >= 5:
		adj -= 2
	case quality >= 2:
		adj -= 1
	}

	if agg.ByCategory["timing"] >= 3 {
		adj -= 1
	}

	return adj
}

func resolutionRateAdjustment(agg models.ComplaintAggregate) int {
	if agg.Total < 3 {
		return 0
	}
	switch {
	case agg.ResolutionRate >= 0.8:
		return 1
	case agg.ResolutionRate < 0.4:
		return -1
	default:
		return 0
	}
}

func clamp(score int) int {
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}
