package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/AdityaBS04/GrabHackProper-sub000/config"
	"github.com/AdityaBS04/GrabHackProper-sub000/database"
	"github.com/AdityaBS04/GrabHackProper-sub000/router"
	"github.com/AdityaBS04/GrabHackProper-sub000/scoring"
)

func newTestServer(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}

	cfg := &config.Config{
		LookbackDays:     90,
		RecentWindowDays: 30,
		AnonymousActorID: "anonymous",
	}
	db := database.NewFromDB(mockDB)
	handler := router.NewHandler(db, nil, nil, cfg)
	scorer := scoring.NewScorer(db, cfg.LookbackDays, cfg.AnonymousActorID)
	h := NewHandlers(db, handler, scorer)

	r := gin.New()
	r.GET("/health", h.HealthCheck)
	api := r.Group("/api/v3")
	{
		api.POST("/complaints", h.ResolveComplaint)
		api.GET("/credibility/:role/:id", h.GetCredibility)
		api.GET("/resolutions/:id", h.GetResolution)
		api.GET("/stats", h.GetStats)
	}
	return r, mock, mockDB
}

func TestHealthCheck(t *testing.T) {
	r, _, mockDB := newTestServer(t)
	defer mockDB.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestResolveComplaintInvalidBody(t *testing.T) {
	r, _, mockDB := newTestServer(t)
	defer mockDB.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v3/complaints", bytes.NewBufferString(`{"service": "food"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResolveComplaintBadEvidenceEncoding(t *testing.T) {
	r, _, mockDB := newTestServer(t)
	defer mockDB.Close()

	body, _ := json.Marshal(ComplaintRequest{
		Service:   "food",
		Role:      "restaurant",
		IssueType: "quality",
		ActorID:   "rest-1",
		Query:     "stale food",
		Evidence:  "not-base64!!!",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v3/complaints", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "base64")
}

func TestResolveComplaintUnknownScenario(t *testing.T) {
	r, _, mockDB := newTestServer(t)
	defer mockDB.Close()

	body, _ := json.Marshal(ComplaintRequest{
		Service:   "cabs",
		Role:      "restaurant",
		IssueType: "quality",
		ActorID:   "rest-1",
		Query:     "bad ride food",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v3/complaints", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResolveComplaintAnonymous(t *testing.T) {
	r, mock, mockDB := newTestServer(t)
	defer mockDB.Close()

	// History lookups degrade to a first offense; the resolution insert goes
	// through.
	mock.ExpectQuery("FROM complaints").
		WillReturnRows(sqlmock.NewRows([]string{"category", "count", "resolved"}))
	mock.ExpectQuery("FROM complaints").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO complaint_resolutions").
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectExec("INSERT INTO complaints").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	body, _ := json.Marshal(ComplaintRequest{
		Service:   "food",
		Role:      "restaurant",
		IssueType: "safety",
		ActorID:   "anonymous",
		Query:     "I got food poisoning and was sick all night",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v3/complaints", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Response       string `json:"response"`
		ResolutionID   int64  `json:"resolution_id"`
		Tier           string `json:"tier"`
		ViolationScore int    `json:"violation_score"`
		Credibility    int    `json:"credibility"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.Credibility)
	assert.Equal(t, "SEVERE", resp.Tier)
	assert.Equal(t, 15, resp.ViolationScore)
	assert.Equal(t, int64(9), resp.ResolutionID)
	assert.Contains(t, resp.Response, "Refund issued: $")
}

func TestResolveComplaintNeedsEvidence(t *testing.T) {
	r, _, mockDB := newTestServer(t)
	defer mockDB.Close()

	body, _ := json.Marshal(ComplaintRequest{
		Service:   "mart",
		Role:      "dark_store",
		IssueType: "cold_chain",
		ActorID:   "store-1",
		Query:     "frozen goods arrived thawed",
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v3/complaints", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Response      string `json:"response"`
		NeedsEvidence bool   `json:"needs_evidence"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.NeedsEvidence)
	assert.Contains(t, resp.Response, "photo")
}

func TestGetCredibilityAnonymous(t *testing.T) {
	r, _, mockDB := newTestServer(t)
	defer mockDB.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v3/credibility/customer/anonymous", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		CredibilityScore int `json:"credibility_score"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 5, resp.CredibilityScore)
}

func TestGetResolutionInvalidID(t *testing.T) {
	r, _, mockDB := newTestServer(t)
	defer mockDB.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v3/resolutions/abc", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetResolutionNotFound(t *testing.T) {
	r, mock, mockDB := newTestServer(t)
	defer mockDB.Close()

	mock.ExpectQuery("FROM complaint_resolutions").
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v3/resolutions/99", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetStats(t *testing.T) {
	r, mock, mockDB := newTestServer(t)
	defer mockDB.Close()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("GROUP BY tier").
		WillReturnRows(sqlmock.NewRows([]string{"tier", "count"}).AddRow("MINOR", 2))
	mock.ExpectQuery("GROUP BY service").
		WillReturnRows(sqlmock.NewRows([]string{"service", "count"}).AddRow("food", 2))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v3/stats", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":2`)

	var stats struct {
		Total  int            `json:"total"`
		ByTier map[string]int `json:"by_tier"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &stats)
	assert.Equal(t, 2, stats.ByTier["MINOR"])

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// Unexpected query errors from the stats path surface as a 500 rather than a
// partial body.
func TestGetStatsStorageFailure(t *testing.T) {
	r, mock, mockDB := newTestServer(t)
	defer mockDB.Close()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnError(sql.ErrConnDone)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v3/stats", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
