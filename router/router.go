// Package router dispatches a complaint to its scenario configuration and
// runs the resolution pipeline: extract -> score -> assess -> decide ->
// format. One parameterized handler covers every scenario; the per-scenario
// differences live in the registry table.
package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"

	"github.com/AdityaBS04/GrabHackProper-sub000/assess"
	"github.com/AdityaBS04/GrabHackProper-sub000/config"
	"github.com/AdityaBS04/GrabHackProper-sub000/decision"
	"github.com/AdityaBS04/GrabHackProper-sub000/fallback"
	"github.com/AdityaBS04/GrabHackProper-sub000/llm"
	"github.com/AdityaBS04/GrabHackProper-sub000/metrics"
	"github.com/AdityaBS04/GrabHackProper-sub000/models"
	"github.com/AdityaBS04/GrabHackProper-sub000/parser"
	"github.com/AdityaBS04/GrabHackProper-sub000/respond"
	"github.com/AdityaBS04/GrabHackProper-sub000/scoring"
)

// ErrUnknownScenario is returned when no handler is registered for the
// (service, role, issue) combination. This is the only failure surfaced to
// the caller; everything else degrades to a best-effort answer.
var ErrUnknownScenario = errors.New("unrecognized complaint scenario")

// Store is the persistence surface the handler depends on.
type Store interface {
	scoring.Store
	RecentViolationCount(ctx context.Context, role models.Role, id string, windowDays int) (int, error)
	SaveResolution(ctx context.Context, r *models.Resolution) (int64, error)
}

// Publisher publishes resolved complaints to the message broker.
type Publisher interface {
	Publish(message interface{}) error
}

// ScenarioConfig parameterizes one complaint scenario: which actor is under
// review and what the scenario demands of the complaint.
type ScenarioConfig struct {
	Service       models.ServiceLine
	Role          models.Role
	IssueType     string
	RequiresPhoto bool
}

type scenarioKey struct {
	service models.ServiceLine
	role    models.Role
	issue   string
}

// Registry holds the fixed scenario table.
type Registry struct {
	scenarios map[scenarioKey]ScenarioConfig
}

// NewRegistry builds the full scenario table for every service line.
func NewRegistry() *Registry {
	r := &Registry{scenarios: map[scenarioKey]ScenarioConfig{}}

	add := func(service models.ServiceLine, role models.Role, issue string, photo bool) {
		r.scenarios[scenarioKey{service, role, issue}] = ScenarioConfig{
			Service:       service,
			Role:          role,
			IssueType:     issue,
			RequiresPhoto: photo,
		}
	}

	// Food delivery: complaints against restaurants and delivery agents.
	add(models.ServiceFood, models.RoleRestaurant, "quality", true)
	add(models.ServiceFood, models.RoleRestaurant, "safety", false)
	add(models.ServiceFood, models.RoleRestaurant, "portion", true)
	add(models.ServiceFood, models.RoleRestaurant, "wrong_item", true)
	add(models.ServiceFood, models.RoleDeliveryAgent, "timing", false)
	add(models.ServiceFood, models.RoleDeliveryAgent, "damaged", true)
	add(models.ServiceFood, models.RoleDeliveryAgent, "behavior", false)

	// Mart: dark stores additionally handle perishables (cold chain).
	add(models.ServiceMart, models.RoleDarkStore, "quality", true)
	add(models.ServiceMart, models.RoleDarkStore, "safety", false)
	add(models.ServiceMart, models.RoleDarkStore, "cold_chain", true)
	add(models.ServiceMart, models.RoleDarkStore, "portion", true)
	add(models.ServiceMart, models.RoleDarkStore, "wrong_item", true)
	add(models.ServiceMart, models.RoleDeliveryAgent, "timing", false)
	add(models.ServiceMart, models.RoleDeliveryAgent, "damaged", true)
	add(models.ServiceMart, models.RoleDeliveryAgent, "behavior", false)

	// Cabs: complaints against drivers.
	add(models.ServiceCabs, models.RoleDriver, "safety", false)
	add(models.ServiceCabs, models.RoleDriver, "timing", false)
	add(models.ServiceCabs, models.RoleDriver, "behavior", false)

	// Express parcels.
	add(models.ServiceExpress, models.RoleDeliveryAgent, "timing", false)
	add(models.ServiceExpress, models.RoleDeliveryAgent, "damaged", true)
	add(models.ServiceExpress, models.RoleDeliveryAgent, "wrong_item", true)
	add(models.ServiceExpress, models.RoleDeliveryAgent, "behavior", false)

	return r
}

// Lookup finds the scenario for a (service, role, issue) combination.
func (r *Registry) Lookup(service models.ServiceLine, role models.Role, issue string) (ScenarioConfig, bool) {
	cfg, ok := r.scenarios[scenarioKey{service, role, issue}]
	return cfg, ok
}

// Request is one complaint to resolve.
type Request struct {
	Service   models.ServiceLine
	Role      models.Role
	IssueType string
	Query     string
	Evidence  []byte
	ActorID   string
}

// Result is the outcome of handling a complaint.
type Result struct {
	Text          string
	NeedsEvidence bool
	// Resolution is nil when the reply is a request for more evidence.
	Resolution *models.Resolution
}

// Handler runs the resolution pipeline for every registered scenario.
type Handler struct {
	registry         *Registry
	store            Store
	scorer           *scoring.Scorer
	llmClient        llm.Client
	publisher        Publisher
	lookbackDays     int
	recentWindowDays int
}

// NewHandler wires the pipeline. publisher may be nil; resolutions are then
// only persisted, not published.
func NewHandler(store Store, llmClient llm.Client, publisher Publisher, cfg *config.Config) *Handler {
	return &Handler{
		registry:         NewRegistry(),
		store:            store,
		scorer:           scoring.NewScorer(store, cfg.LookbackDays, cfg.AnonymousActorID),
		llmClient:        llmClient,
		publisher:        publisher,
		lookbackDays:     cfg.LookbackDays,
		recentWindowDays: cfg.RecentWindowDays,
	}
}

// Resolve is the caller-facing entry point: it returns the formatted reply
// text for a complaint. Unknown scenarios are the only error.
func (h *Handler) Resolve(ctx context.Context, service models.ServiceLine, role models.Role, issueType, query string, evidence []byte, actorID string) (string, error) {
	result, err := h.Handle(ctx, Request{
		Service:   service,
		Role:      role,
		IssueType: issueType,
		Query:     query,
		Evidence:  evidence,
		ActorID:   actorID,
	})
	if err != nil {
		return "", err
	}
	return result.Text, nil
}

// Handle resolves a complaint and returns the structured result.
func (h *Handler) Handle(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	cfg, ok := h.registry.Lookup(req.Service, req.Role, req.IssueType)
	if !ok {
		metrics.ComplaintsTotal.WithLabelValues("unknown_scenario").Inc()
		return nil, fmt.Errorf("%w: %s/%s/%s", ErrUnknownScenario, req.Service, req.Role, req.IssueType)
	}

	if cfg.RequiresPhoto && len(req.Evidence) == 0 {
		metrics.ComplaintsTotal.WithLabelValues("needs_evidence").Inc()
		return &Result{
			Text:          respond.RequestEvidence(req.IssueType),
			NeedsEvidence: true,
		}, nil
	}

	details, source := h.extract(req)
	credibility := h.scorer.Score(ctx, cfg.Role, req.ActorID)

	// History failures degrade to an empty aggregate: the complaint is then
	// scored as a first offense rather than being rejected.
	history, err := h.store.AggregateComplaints(ctx, cfg.Role, req.ActorID, h.lookbackDays)
	if err != nil {
		log.Warnf("handle %s/%s: complaint history unavailable: %v", cfg.Role, req.ActorID, err)
		history = models.ComplaintAggregate{ByCategory: map[string]int{}}
	}
	recent, err := h.store.RecentViolationCount(ctx, cfg.Role, req.ActorID, h.recentWindowDays)
	if err != nil {
		log.Warnf("handle %s/%s: recent violation count unavailable: %v", cfg.Role, req.ActorID, err)
		recent = 0
	}

	assessment := assess.Assess(details, credibility, history, recent)
	actions := decision.Decide(assessment, credibility)
	text := respond.Render(assessment.Tier, actions, details)

	resolution := &models.Resolution{
		Service:        req.Service,
		Role:           cfg.Role,
		ActorID:        req.ActorID,
		IssueType:      req.IssueType,
		Query:          req.Query,
		Source:         source,
		Details:        details,
		Credibility:    credibility,
		ViolationScore: assessment.ViolationScore,
		Tier:           assessment.Tier,
		Actions:        actions,
		Response:       text,
	}

	if id, err := h.store.SaveResolution(ctx, resolution); err != nil {
		log.Errorf("handle %s/%s: failed to persist resolution: %v", cfg.Role, req.ActorID, err)
	} else {
		resolution.ID = id
	}

	h.publishResolution(resolution)

	metrics.ComplaintsTotal.WithLabelValues("resolved").Inc()
	metrics.DecisionTierTotal.WithLabelValues(string(assessment.Tier)).Inc()
	metrics.HandleDurationSeconds.WithLabelValues(string(req.Service)).Observe(time.Since(start).Seconds())

	return &Result{Text: text, Resolution: resolution}, nil
}

// extract produces ViolationDetails for the request. The LLM path is best
// effort; every failure falls through to the keyword extractor so downstream
// scoring always has populated details.
func (h *Handler) extract(req Request) (models.ViolationDetails, string) {
	if h.llmClient != nil {
		response, err := h.llmClient.AnalyzeComplaint(req.Evidence, req.Query)
		if err == nil {
			details, perr := parser.ParseViolation(response)
			if perr == nil {
				return *details, h.llmClient.SourceName()
			}
			log.Warnf("extract: failed to parse LLM response, using keyword fallback: %v", perr)
		} else {
			log.Warnf("extract: LLM call failed, using keyword fallback: %v", err)
		}
	}

	metrics.ExtractionFallbackTotal.Inc()
	return fallback.Extract(req.Query, len(req.Evidence) > 0), fallback.SourceName
}

func (h *Handler) publishResolution(r *models.Resolution) {
	if h.publisher == nil {
		return
	}
	if err := h.publisher.Publish(r); err != nil {
		log.Warnf("failed to publish resolution for %s/%s: %v", r.Role, r.ActorID, err)
	}
}
