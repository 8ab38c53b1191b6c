package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"github.com/AdityaBS04/GrabHackProper-sub000/config"
	"github.com/AdityaBS04/GrabHackProper-sub000/models"
)

// Database represents the database connection
type Database struct {
	db *sql.DB
}

// NewDatabase creates a new database connection
func NewDatabase(cfg *config.Config) (*Database, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection with exponential backoff retry
	deadline := time.Now().Add(60 * time.Second)
	waitInterval := 1 * time.Second
	for {
		pingErr := db.Ping()
		if pingErr == nil {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("database ping timeout: %w", pingErr)
		}
		log.Warnf("Database connection failed, retrying in %v: %v", waitInterval, pingErr)
		time.Sleep(waitInterval)
		waitInterval *= 2
		if waitInterval > 30*time.Second {
			waitInterval = 30 * time.Second
		}
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Database{db: db}, nil
}

// NewFromDB wraps an existing connection. Used by tests.
func NewFromDB(db *sql.DB) *Database {
	return &Database{db: db}
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// GetDB returns the underlying sql.DB for direct queries
func (d *Database) GetDB() *sql.DB {
	return d.db
}

// CreateTables creates the service tables if they don't exist
func (d *Database) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS actors (
			id VARCHAR(255) NOT NULL,
			role ENUM('customer', 'restaurant', 'dark_store', 'driver', 'delivery_agent') NOT NULL,
			credibility_score INT NOT NULL DEFAULT 7,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (role, id)
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			actor_id VARCHAR(255) NOT NULL,
			actor_role ENUM('customer', 'restaurant', 'dark_store', 'driver', 'delivery_agent') NOT NULL,
			service ENUM('food', 'mart', 'cabs', 'express') NOT NULL,
			status ENUM('completed', 'cancelled', 'refunded') NOT NULL,
			order_value DECIMAL(10,2) NOT NULL DEFAULT 0.00,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_orders_actor (actor_role, actor_id),
			INDEX idx_orders_created_at (created_at)
		)`,
		`CREATE TABLE IF NOT EXISTS complaints (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			actor_id VARCHAR(255) NOT NULL,
			actor_role ENUM('customer', 'restaurant', 'dark_store', 'driver', 'delivery_agent') NOT NULL,
			service ENUM('food', 'mart', 'cabs', 'express') NOT NULL,
			category VARCHAR(64) NOT NULL,
			resolved BOOLEAN NOT NULL DEFAULT FALSE,
			violation BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_complaints_actor (actor_role, actor_id),
			INDEX idx_complaints_category (category),
			INDEX idx_complaints_created_at (created_at)
		)`,
		`CREATE TABLE IF NOT EXISTS complaint_resolutions (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			service ENUM('food', 'mart', 'cabs', 'express') NOT NULL,
			actor_role ENUM('customer', 'restaurant', 'dark_store', 'driver', 'delivery_agent') NOT NULL,
			actor_id VARCHAR(255) NOT NULL,
			issue_type VARCHAR(64) NOT NULL,
			query TEXT,
			source VARCHAR(64) NOT NULL,
			details JSON,
			credibility INT NOT NULL,
			violation_score INT NOT NULL,
			tier VARCHAR(32) NOT NULL,
			customer_refund DECIMAL(10,2) NOT NULL DEFAULT 0.00,
			actor_penalty DECIMAL(10,2) NOT NULL DEFAULT 0.00,
			compliance_bond DECIMAL(10,2) NOT NULL DEFAULT 0.00,
			suspension_days INT NOT NULL DEFAULT 0,
			visibility_reduction_pct INT NOT NULL DEFAULT 0,
			response TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_resolutions_actor (actor_role, actor_id),
			INDEX idx_resolutions_tier (tier),
			INDEX idx_resolutions_service (service)
		)`,
	}

	for _, query := range queries {
		if _, err := d.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	log.Info("service tables created/verified successfully")
	return nil
}

// columnExists checks if a column exists in a table
func (d *Database) columnExists(tableName, columnName string) (bool, error) {
	query := `
	SELECT COUNT(*)
	FROM INFORMATION_SCHEMA.COLUMNS
	WHERE TABLE_SCHEMA = DATABASE()
	AND TABLE_NAME = ?
	AND COLUMN_NAME = ?`

	var count int
	err := d.db.QueryRow(query, tableName, columnName).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check if column exists: %w", err)
	}

	return count > 0, nil
}

// MigrateTables backfills columns added after the initial schema
func (d *Database) MigrateTables() error {
	migrations := []struct {
		table, column, ddl string
	}{
		{"complaints", "violation", "ALTER TABLE complaints ADD COLUMN violation BOOLEAN NOT NULL DEFAULT FALSE"},
		{"complaint_resolutions", "response", "ALTER TABLE complaint_resolutions ADD COLUMN response TEXT"},
		{"complaint_resolutions", "source", "ALTER TABLE complaint_resolutions ADD COLUMN source VARCHAR(64) NOT NULL DEFAULT ''"},
	}

	for _, m := range migrations {
		exists, err := d.columnExists(m.table, m.column)
		if err != nil {
			return fmt.Errorf("failed to check if %s.%s exists: %w", m.table, m.column, err)
		}
		if exists {
			log.Debugf("%s.%s already exists, skipping migration", m.table, m.column)
			continue
		}
		log.Infof("Adding %s column to %s table...", m.column, m.table)
		if _, err := d.db.Exec(m.ddl); err != nil {
			return fmt.Errorf("failed to add %s.%s: %w", m.table, m.column, err)
		}
	}

	return nil
}

// GetActor fetches an actor record. Returns (nil, nil) when unknown.
func (d *Database) GetActor(ctx context.Context, role models.Role, id string) (*models.Actor, error) {
	query := `SELECT id, role, credibility_score, created_at FROM actors WHERE role = ? AND id = ?`

	var actor models.Actor
	err := d.db.QueryRowContext(ctx, query, string(role), id).Scan(
		&actor.ID,
		&actor.Role,
		&actor.CredibilityScore,
		&actor.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch actor %s/%s: %w", role, id, err)
	}

	return &actor, nil
}

// UpsertActor inserts an actor or leaves an existing row untouched.
func (d *Database) UpsertActor(ctx context.Context, actor *models.Actor) error {
	query := `
	INSERT INTO actors (id, role, credibility_score)
	VALUES (?, ?, ?)
	ON DUPLICATE KEY UPDATE id = id`

	_, err := d.db.ExecContext(ctx, query, actor.ID, string(actor.Role), actor.CredibilityScore)
	if err != nil {
		return fmt.Errorf("failed to upsert actor %s/%s: %w", actor.Role, actor.ID, err)
	}
	return nil
}

// UpdateCredibility writes a recomputed score back to the actor row inside a
// single transaction, locking the row to avoid lost updates under concurrent
// complaints for the same actor.
func (d *Database) UpdateCredibility(ctx context.Context, role models.Role, id string, score int) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin credibility tx: %w", err)
	}
	defer tx.Rollback()

	var current int
	err = tx.QueryRowContext(ctx,
		`SELECT credibility_score FROM actors WHERE role = ? AND id = ? FOR UPDATE`,
		string(role), id).Scan(&current)
	if err != nil {
		if err == sql.ErrNoRows {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO actors (id, role, credibility_score) VALUES (?, ?, ?)`,
				id, string(role), score); err != nil {
				return fmt.Errorf("failed to insert actor for credibility update: %w", err)
			}
			return tx.Commit()
		}
		return fmt.Errorf("failed to lock actor row: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE actors SET credibility_score = ? WHERE role = ? AND id = ?`,
		score, string(role), id); err != nil {
		return fmt.Errorf("failed to update credibility for %s/%s: %w", role, id, err)
	}

	return tx.Commit()
}

// AggregateOrders returns the order aggregate for one actor over the
// lookback window.
func (d *Database) AggregateOrders(ctx context.Context, role models.Role, id string, windowDays int) (models.OrderAggregate, error) {
	query := `
	SELECT
		COUNT(*),
		COALESCE(SUM(status = 'completed'), 0),
		COALESCE(SUM(status = 'cancelled'), 0),
		COALESCE(SUM(status = 'refunded'), 0),
		COALESCE(AVG(order_value), 0),
		COALESCE(MIN(created_at), NOW()),
		COALESCE(MAX(created_at), NOW())
	FROM orders
	WHERE actor_role = ? AND actor_id = ? AND created_at >= DATE_SUB(NOW(), INTERVAL ? DAY)`

	var agg models.OrderAggregate
	var avgValue string
	err := d.db.QueryRowContext(ctx, query, string(role), id, windowDays).Scan(
		&agg.TotalOrders,
		&agg.CompletedOrders,
		&agg.CancelledOrders,
		&agg.RefundedOrders,
		&avgValue,
		&agg.FirstOrderDate,
		&agg.LastOrderDate,
	)
	if err != nil {
		return agg, fmt.Errorf("failed to aggregate orders for %s/%s: %w", role, id, err)
	}

	avg, err := decimal.NewFromString(avgValue)
	if err != nil {
		return agg, fmt.Errorf("failed to parse avg order value %q: %w", avgValue, err)
	}
	agg.AvgOrderValue = avg

	return agg, nil
}

// AggregateComplaints returns per-category complaint counts and the
// resolution rate for one actor over the lookback window.
func (d *Database) AggregateComplaints(ctx context.Context, role models.Role, id string, windowDays int) (models.ComplaintAggregate, error) {
	agg := models.ComplaintAggregate{ByCategory: map[string]int{}}

	query := `
	SELECT category, COUNT(*), COALESCE(SUM(resolved), 0)
	FROM complaints
	WHERE actor_role = ? AND actor_id = ? AND created_at >= DATE_SUB(NOW(), INTERVAL ? DAY)
	GROUP BY category`

	rows, err := d.db.QueryContext(ctx, query, string(role), id, windowDays)
	if err != nil {
		return agg, fmt.Errorf("failed to aggregate complaints for %s/%s: %w", role, id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var category string
		var count, resolved int
		if err := rows.Scan(&category, &count, &resolved); err != nil {
			return agg, fmt.Errorf("failed to scan complaint aggregate: %w", err)
		}
		agg.ByCategory[category] = count
		agg.Total += count
		agg.Resolved += resolved
	}
	if err := rows.Err(); err != nil {
		return agg, fmt.Errorf("failed to iterate complaint aggregates: %w", err)
	}

	if agg.Total > 0 {
		agg.ResolutionRate = float64(agg.Resolved) / float64(agg.Total)
	}

	return agg, nil
}

// RecentViolationCount counts confirmed violations against an actor in the
// recent window.
func (d *Database) RecentViolationCount(ctx context.Context, role models.Role, id string, windowDays int) (int, error) {
	query := `
	SELECT COUNT(*)
	FROM complaints
	WHERE actor_role = ? AND actor_id = ? AND violation = TRUE
	  AND created_at >= DATE_SUB(NOW(), INTERVAL ? DAY)`

	var count int
	err := d.db.QueryRowContext(ctx, query, string(role), id, windowDays).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent violations for %s/%s: %w", role, id, err)
	}
	return count, nil
}

// SaveResolution folds a decided complaint into the complaints log and the
// resolutions table. Returns the new resolution id.
func (d *Database) SaveResolution(ctx context.Context, r *models.Resolution) (int64, error) {
	detailsJSON, err := json.Marshal(r.Details)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal violation details: %w", err)
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin resolution tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
	INSERT INTO complaint_resolutions (
		service, actor_role, actor_id, issue_type, query, source, details,
		credibility, violation_score, tier,
		customer_refund, actor_penalty, compliance_bond,
		suspension_days, visibility_reduction_pct, response
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(r.Service),
		string(r.Role),
		r.ActorID,
		r.IssueType,
		r.Query,
		r.Source,
		string(detailsJSON),
		r.Credibility,
		r.ViolationScore,
		string(r.Tier),
		r.Actions.CustomerRefund.StringFixed(2),
		r.Actions.ActorPenalty.StringFixed(2),
		r.Actions.ComplianceBond.StringFixed(2),
		r.Actions.SuspensionDays,
		r.Actions.VisibilityReductionPct,
		r.Response,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save resolution: %w", err)
	}

	violation := r.Tier != models.TierMinor
	if _, err := tx.ExecContext(ctx, `
	INSERT INTO complaints (actor_id, actor_role, service, category, resolved, violation)
	VALUES (?, ?, ?, ?, TRUE, ?)`,
		r.ActorID, string(r.Role), string(r.Service), r.IssueType, violation,
	); err != nil {
		return 0, fmt.Errorf("failed to append complaint log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit resolution: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get resolution id: %w", err)
	}
	return id, nil
}

// GetResolution fetches a stored resolution by id.
func (d *Database) GetResolution(ctx context.Context, id int64) (*models.Resolution, error) {
	query := `
	SELECT id, service, actor_role, actor_id, issue_type, query, source, details,
	       credibility, violation_score, tier,
	       customer_refund, actor_penalty, compliance_bond,
	       suspension_days, visibility_reduction_pct, response, created_at
	FROM complaint_resolutions
	WHERE id = ?`

	var r models.Resolution
	var detailsJSON sql.NullString
	var query_, response sql.NullString
	var refund, penalty, bond string

	err := d.db.QueryRowContext(ctx, query, id).Scan(
		&r.ID,
		&r.Service,
		&r.Role,
		&r.ActorID,
		&r.IssueType,
		&query_,
		&r.Source,
		&detailsJSON,
		&r.Credibility,
		&r.ViolationScore,
		&r.Tier,
		&refund,
		&penalty,
		&bond,
		&r.Actions.SuspensionDays,
		&r.Actions.VisibilityReductionPct,
		&response,
		&r.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("resolution %d not found", id)
		}
		return nil, fmt.Errorf("failed to fetch resolution %d: %w", id, err)
	}

	r.Query = query_.String
	r.Response = response.String
	if detailsJSON.Valid && detailsJSON.String != "" {
		if err := json.Unmarshal([]byte(detailsJSON.String), &r.Details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal details for resolution %d: %w", id, err)
		}
	}
	if r.Actions.CustomerRefund, err = decimal.NewFromString(refund); err != nil {
		return nil, fmt.Errorf("failed to parse refund for resolution %d: %w", id, err)
	}
	if r.Actions.ActorPenalty, err = decimal.NewFromString(penalty); err != nil {
		return nil, fmt.Errorf("failed to parse penalty for resolution %d: %w", id, err)
	}
	if r.Actions.ComplianceBond, err = decimal.NewFromString(bond); err != nil {
		return nil, fmt.Errorf("failed to parse bond for resolution %d: %w", id, err)
	}

	return &r, nil
}

// ResolutionStats summarizes resolved complaints for the stats endpoint.
type ResolutionStats struct {
	Total     int            `json:"total"`
	ByTier    map[string]int `json:"by_tier"`
	ByService map[string]int `json:"by_service"`
}

// GetResolutionStats returns totals broken down by tier and service.
func (d *Database) GetResolutionStats(ctx context.Context) (*ResolutionStats, error) {
	stats := &ResolutionStats{
		ByTier:    map[string]int{},
		ByService: map[string]int{},
	}

	if err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM complaint_resolutions`).Scan(&stats.Total); err != nil {
		return nil, fmt.Errorf("failed to count resolutions: %w", err)
	}

	rows, err := d.db.QueryContext(ctx, `
	SELECT tier, COUNT(*) FROM complaint_resolutions GROUP BY tier`)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions by tier: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tier string
		var count int
		if err := rows.Scan(&tier, &count); err != nil {
			continue
		}
		stats.ByTier[tier] = count
	}

	srows, err := d.db.QueryContext(ctx, `
	SELECT service, COUNT(*) FROM complaint_resolutions GROUP BY service`)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolutions by service: %w", err)
	}
	defer srows.Close()
	for srows.Next() {
		var service string
		var count int
		if err := srows.Scan(&service, &count); err != nil {
			continue
		}
		stats.ByService[service] = count
	}

	return stats, nil
}
