package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
	"github.com/shopspring/decimal"

	"github.com/AdityaBS04/GrabHackProper-sub000/models"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
)

func setUp() {
	db, mock, _ = sqlmock.New()
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

func TestGetActor(t *testing.T) {
	it(func() {
		created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		mock.ExpectQuery("SELECT id, role, credibility_score, created_at FROM actors").
			WithArgs("restaurant", "rest-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "role", "credibility_score", "created_at"}).
				AddRow("rest-1", "restaurant", 6, created))

		d := NewFromDB(db)
		actor, err := d.GetActor(context.Background(), models.RoleRestaurant, "rest-1")
		if err != nil {
			t.Fatalf("GetActor: %v", err)
		}
		if actor == nil {
			t.Fatal("expected an actor")
		}
		if actor.ID != "rest-1" || actor.Role != models.RoleRestaurant || actor.CredibilityScore != 6 {
			t.Errorf("unexpected actor: %+v", actor)
		}
		if !actor.CreatedAt.Equal(created) {
			t.Errorf("CreatedAt = %v, want %v", actor.CreatedAt, created)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestGetActorUnknown(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT id, role, credibility_score, created_at FROM actors").
			WithArgs("driver", "ghost").
			WillReturnError(sql.ErrNoRows)

		d := NewFromDB(db)
		actor, err := d.GetActor(context.Background(), models.RoleDriver, "ghost")
		if err != nil {
			t.Fatalf("GetActor: %v", err)
		}
		if actor != nil {
			t.Errorf("expected nil actor for unknown id, got %+v", actor)
		}
	})
}

func TestUpdateCredibility(t *testing.T) {
	it(func() {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT credibility_score FROM actors").
			WithArgs("restaurant", "rest-1").
			WillReturnRows(sqlmock.NewRows([]string{"credibility_score"}).AddRow(6))
		mock.ExpectExec("UPDATE actors SET credibility_score").
			WithArgs(4, "restaurant", "rest-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		d := NewFromDB(db)
		if err := d.UpdateCredibility(context.Background(), models.RoleRestaurant, "rest-1", 4); err != nil {
			t.Fatalf("UpdateCredibility: %v", err)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestUpdateCredibilityInsertsMissingActor(t *testing.T) {
	it(func() {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT credibility_score FROM actors").
			WithArgs("customer", "new-user").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectExec("INSERT INTO actors").
			WithArgs("new-user", "customer", 8).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		d := NewFromDB(db)
		if err := d.UpdateCredibility(context.Background(), models.RoleCustomer, "new-user", 8); err != nil {
			t.Fatalf("UpdateCredibility: %v", err)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestAggregateOrders(t *testing.T) {
	it(func() {
		first := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
		last := time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC)
		mock.ExpectQuery("FROM orders").
			WithArgs("dark_store", "store-3", 90).
			WillReturnRows(sqlmock.NewRows([]string{
				"total", "completed", "cancelled", "refunded", "avg_value", "first", "last",
			}).AddRow(50, 47, 2, 1, "55.40", first, last))

		d := NewFromDB(db)
		agg, err := d.AggregateOrders(context.Background(), models.RoleDarkStore, "store-3", 90)
		if err != nil {
			t.Fatalf("AggregateOrders: %v", err)
		}
		if agg.TotalOrders != 50 || agg.CompletedOrders != 47 || agg.CancelledOrders != 2 || agg.RefundedOrders != 1 {
			t.Errorf("unexpected counts: %+v", agg)
		}
		if !agg.AvgOrderValue.Equal(decimal.RequireFromString("55.40")) {
			t.Errorf("AvgOrderValue = %s, want 55.40", agg.AvgOrderValue)
		}
		if got := agg.CompletionRate(); got != 0.94 {
			t.Errorf("CompletionRate = %v, want 0.94", got)
		}
	})
}

func TestAggregateComplaints(t *testing.T) {
	it(func() {
		mock.ExpectQuery("FROM complaints").
			WithArgs("restaurant", "rest-1", 90).
			WillReturnRows(sqlmock.NewRows([]string{"category", "count", "resolved"}).
				AddRow("safety", 2, 1).
				AddRow("quality", 3, 3))

		d := NewFromDB(db)
		agg, err := d.AggregateComplaints(context.Background(), models.RoleRestaurant, "rest-1", 90)
		if err != nil {
			t.Fatalf("AggregateComplaints: %v", err)
		}
		if agg.Total != 5 || agg.Resolved != 4 {
			t.Errorf("Total/Resolved = %d/%d, want 5/4", agg.Total, agg.Resolved)
		}
		if agg.ByCategory["safety"] != 2 || agg.ByCategory["quality"] != 3 {
			t.Errorf("unexpected categories: %v", agg.ByCategory)
		}
		if agg.ResolutionRate != 0.8 {
			t.Errorf("ResolutionRate = %v, want 0.8", agg.ResolutionRate)
		}
		if agg.Pattern() != models.HistoryRecurring {
			t.Errorf("Pattern = %s, want %s", agg.Pattern(), models.HistoryRecurring)
		}
	})
}

func TestRecentViolationCount(t *testing.T) {
	it(func() {
		mock.ExpectQuery("FROM complaints").
			WithArgs("driver", "drv-2", 30).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		d := NewFromDB(db)
		count, err := d.RecentViolationCount(context.Background(), models.RoleDriver, "drv-2", 30)
		if err != nil {
			t.Fatalf("RecentViolationCount: %v", err)
		}
		if count != 3 {
			t.Errorf("count = %d, want 3", count)
		}
	})
}

func TestSaveResolution(t *testing.T) {
	it(func() {
		testCases := []struct {
			name          string
			tier          models.Tier
			wantViolation bool
		}{
			{"violation tier marks the complaint", models.TierSevere, true},
			{"minor tier does not", models.TierMinor, false},
		}

		for _, tc := range testCases {
			mock.ExpectBegin()
			mock.ExpectExec("INSERT INTO complaint_resolutions").
				WillReturnResult(sqlmock.NewResult(7, 1))
			mock.ExpectExec("INSERT INTO complaints").
				WithArgs("rest-1", "restaurant", "food", "quality", tc.wantViolation).
				WillReturnResult(sqlmock.NewResult(100, 1))
			mock.ExpectCommit()

			d := NewFromDB(db)
			id, err := d.SaveResolution(context.Background(), &models.Resolution{
				Service:   models.ServiceFood,
				Role:      models.RoleRestaurant,
				ActorID:   "rest-1",
				IssueType: "quality",
				Query:     "The food was stale",
				Source:    "Keyword",
				Details: models.ViolationDetails{
					Type:          "quality",
					Severity:      models.SeveritySevere,
					EvidenceLevel: models.EvidencePhoto,
					Summary:       "Stale food with photo evidence",
				},
				Credibility:    7,
				ViolationScore: 12,
				Tier:           tc.tier,
				Actions: models.CorrectiveActions{
					CustomerRefund: decimal.NewFromInt(15),
					ActorPenalty:   decimal.NewFromInt(75),
					ComplianceBond: decimal.NewFromInt(200),
					SuspensionDays: 1,
				},
				Response: "We sincerely apologize...",
			})
			if err != nil {
				t.Fatalf("%s: SaveResolution: %v", tc.name, err)
			}
			if id != 7 {
				t.Errorf("%s: id = %d, want 7", tc.name, id)
			}
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestGetResolution(t *testing.T) {
	it(func() {
		created := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)
		details := `{"violation_type":"safety","severity":"critical","evidence_level":"customer_claim","repeat_occurrence":false,"summary":"Food poisoning reported"}`
		mock.ExpectQuery("FROM complaint_resolutions").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "service", "actor_role", "actor_id", "issue_type", "query", "source", "details",
				"credibility", "violation_score", "tier",
				"customer_refund", "actor_penalty", "compliance_bond",
				"suspension_days", "visibility_reduction_pct", "response", "created_at",
			}).AddRow(
				7, "food", "restaurant", "rest-1", "safety", "I got food poisoning", "Keyword", details,
				5, 15, "SEVERE",
				"15.00", "93.75", "250.00",
				1, 25, "We sincerely apologize...", created,
			))

		d := NewFromDB(db)
		r, err := d.GetResolution(context.Background(), 7)
		if err != nil {
			t.Fatalf("GetResolution: %v", err)
		}
		if r.ID != 7 || r.Service != models.ServiceFood || r.Tier != models.TierSevere {
			t.Errorf("unexpected resolution: %+v", r)
		}
		if r.Details.Severity != models.SeverityCritical {
			t.Errorf("Details.Severity = %s, want critical", r.Details.Severity)
		}
		if !r.Actions.ActorPenalty.Equal(decimal.RequireFromString("93.75")) {
			t.Errorf("ActorPenalty = %s, want 93.75", r.Actions.ActorPenalty)
		}
		if r.Actions.SuspensionDays != 1 || r.Actions.VisibilityReductionPct != 25 {
			t.Errorf("unexpected suspension/visibility: %+v", r.Actions)
		}
	})
}

func TestGetResolutionStats(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT COUNT").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))
		mock.ExpectQuery("GROUP BY tier").
			WillReturnRows(sqlmock.NewRows([]string{"tier", "count"}).
				AddRow("MINOR", 5).
				AddRow("SEVERE", 4).
				AddRow("CRITICAL_PATTERN", 3))
		mock.ExpectQuery("GROUP BY service").
			WillReturnRows(sqlmock.NewRows([]string{"service", "count"}).
				AddRow("food", 8).
				AddRow("mart", 4))

		d := NewFromDB(db)
		stats, err := d.GetResolutionStats(context.Background())
		if err != nil {
			t.Fatalf("GetResolutionStats: %v", err)
		}
		if stats.Total != 12 {
			t.Errorf("Total = %d, want 12", stats.Total)
		}
		if stats.ByTier["SEVERE"] != 4 || stats.ByService["food"] != 8 {
			t.Errorf("unexpected stats: %+v", stats)
		}
	})
}

func TestMigrateTablesSkipsExistingColumns(t *testing.T) {
	it(func() {
		for i := 0; i < 3; i++ {
			mock.ExpectQuery("FROM INFORMATION_SCHEMA.COLUMNS").
				WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		}

		d := NewFromDB(db)
		if err := d.MigrateTables(); err != nil {
			t.Fatalf("MigrateTables: %v", err)
		}

		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}
