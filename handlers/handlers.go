package handlers

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/AdityaBS04/GrabHackProper-sub000/database"
	"github.com/AdityaBS04/GrabHackProper-sub000/models"
	"github.com/AdityaBS04/GrabHackProper-sub000/router"
	"github.com/AdityaBS04/GrabHackProper-sub000/scoring"
)

// Handlers represents the HTTP handlers
type Handlers struct {
	db      *database.Database
	handler *router.Handler
	scorer  *scoring.Scorer
}

// NewHandlers creates new HTTP handlers
func NewHandlers(db *database.Database, handler *router.Handler, scorer *scoring.Scorer) *Handlers {
	return &Handlers{db: db, handler: handler, scorer: scorer}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "complaint-resolution",
	})
}

// ComplaintRequest is the POST /complaints body.
type ComplaintRequest struct {
	Service   string `json:"service" binding:"required"`
	Role      string `json:"role" binding:"required"`
	IssueType string `json:"issue_type" binding:"required"`
	ActorID   string `json:"actor_id" binding:"required"`
	Query     string `json:"query" binding:"required"`
	Evidence  string `json:"evidence"` // base64-encoded image, optional
}

// ResolveComplaint runs the resolution pipeline for one complaint
func (h *Handlers) ResolveComplaint(c *gin.Context) {
	var req ComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return
	}

	var evidence []byte
	if req.Evidence != "" {
		decoded, err := base64.StdEncoding.DecodeString(req.Evidence)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Evidence must be base64-encoded",
			})
			return
		}
		evidence = decoded
	}

	result, err := h.handler.Handle(c.Request.Context(), router.Request{
		Service:   models.ServiceLine(req.Service),
		Role:      models.Role(req.Role),
		IssueType: req.IssueType,
		Query:     req.Query,
		Evidence:  evidence,
		ActorID:   req.ActorID,
	})
	if err != nil {
		if errors.Is(err, router.ErrUnknownScenario) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to resolve complaint",
		})
		return
	}

	if result.NeedsEvidence {
		c.JSON(http.StatusOK, gin.H{
			"response":       result.Text,
			"needs_evidence": true,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"response":        result.Text,
		"resolution_id":   result.Resolution.ID,
		"tier":            result.Resolution.Tier,
		"violation_score": result.Resolution.ViolationScore,
		"credibility":     result.Resolution.Credibility,
		"actions":         result.Resolution.Actions,
	})
}

// GetCredibility recomputes and returns the credibility score for an actor
func (h *Handlers) GetCredibility(c *gin.Context) {
	role := models.Role(c.Param("role"))
	id := c.Param("id")

	score := h.scorer.Score(c.Request.Context(), role, id)
	c.JSON(http.StatusOK, gin.H{
		"role":              role,
		"actor_id":          id,
		"credibility_score": score,
	})
}

// GetResolution returns a stored resolution by id
func (h *Handlers) GetResolution(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid resolution id",
		})
		return
	}

	resolution, err := h.db.GetResolution(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Resolution not found",
		})
		return
	}

	c.JSON(http.StatusOK, resolution)
}

// GetStats returns statistics about resolved complaints
func (h *Handlers) GetStats(c *gin.Context) {
	stats, err := h.db.GetResolutionStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get resolution stats",
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}
