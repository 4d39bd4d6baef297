package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the sqlite connection with pooling configuration.
type DB struct {
	*sql.DB
	pool *ConnectionPool
}

// ConnectionPool manages database connection pooling.
type ConnectionPool struct {
	db           *sql.DB
	maxOpenConns int
	maxIdleConns int
	maxLifetime  time.Duration
}

// NewConnectionPool applies pool limits to the connection.
func NewConnectionPool(db *sql.DB, maxOpen, maxIdle int, maxLifetime time.Duration) *ConnectionPool {
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(maxLifetime)

	return &ConnectionPool{
		db:           db,
		maxOpenConns: maxOpen,
		maxIdleConns: maxIdle,
		maxLifetime:  maxLifetime,
	}
}

// GetStats returns connection pool statistics.
func (cp *ConnectionPool) GetStats() map[string]interface{} {
	stats := cp.db.Stats()

	return map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": cp.maxOpenConns,
		"max_idle_connections": cp.maxIdleConns,
		"max_lifetime_seconds": cp.maxLifetime.Seconds(),
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
}

// NewDB opens the sqlite database under dataDir and runs migrations.
func NewDB(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "forge.db")
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	pool := NewConnectionPool(db, 25, 5, 5*time.Minute)

	database := &DB{DB: db, pool: pool}
	if err := database.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("Database initialized",
		"path", dbPath,
		"max_open_conns", pool.maxOpenConns,
		"max_idle_conns", pool.maxIdleConns)

	return database, nil
}

// GetPoolStats exposes pool statistics for the stats endpoints.
func (db *DB) GetPoolStats() map[string]interface{} {
	return db.pool.GetStats()
}

func (db *DB) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS builders (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			availability TEXT NOT NULL DEFAULT 'open_to_opportunities',
			hours_per_week INTEGER NOT NULL DEFAULT 0,
			roles TEXT NOT NULL DEFAULT '[]',
			skill_frontend INTEGER NOT NULL DEFAULT 0,
			skill_backend INTEGER NOT NULL DEFAULT 0,
			skill_product INTEGER NOT NULL DEFAULT 0,
			skill_design INTEGER NOT NULL DEFAULT 0,
			skill_execution INTEGER NOT NULL DEFAULT 0,
			forge_score INTEGER NOT NULL DEFAULT 0,
			confidence_score INTEGER NOT NULL DEFAULT 0,
			reliability_score INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS deliveries (
			id TEXT PRIMARY KEY,
			builder_id TEXT NOT NULL,
			title TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'in_progress',
			started_at DATETIME,
			completed_at DATETIME,
			deployment_url TEXT NOT NULL DEFAULT '',
			repo_url TEXT NOT NULL DEFAULT '',
			stack TEXT NOT NULL DEFAULT '[]',
			project_id TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			FOREIGN KEY (builder_id) REFERENCES builders(id)
		)`,

		`CREATE TABLE IF NOT EXISTS evidence (
			id TEXT PRIMARY KEY,
			delivery_id TEXT NOT NULL,
			evidence_type TEXT NOT NULL,
			url TEXT NOT NULL DEFAULT '',
			verified BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (delivery_id) REFERENCES deliveries(id)
		)`,

		`CREATE TABLE IF NOT EXISTS verifications (
			id TEXT PRIMARY KEY,
			delivery_id TEXT NOT NULL UNIQUE,
			deployment_reachable BOOLEAN,
			repo_exists BOOLEAN,
			timeline_verified BOOLEAN,
			collaborator_confirmed BOOLEAN,
			overall_status TEXT NOT NULL DEFAULT 'pending',
			last_checked_at DATETIME NOT NULL,
			FOREIGN KEY (delivery_id) REFERENCES deliveries(id)
		)`,

		`CREATE TABLE IF NOT EXISTS forge_scores (
			builder_id TEXT PRIMARY KEY,
			score INTEGER NOT NULL,
			delivery_success_component INTEGER NOT NULL,
			reliability_component INTEGER NOT NULL,
			quality_component INTEGER NOT NULL,
			consistency_component INTEGER NOT NULL,
			confidence INTEGER NOT NULL,
			effective_score INTEGER NOT NULL,
			model TEXT NOT NULL,
			computed_at DATETIME NOT NULL,
			FOREIGN KEY (builder_id) REFERENCES builders(id)
		)`,

		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL,
			title TEXT NOT NULL,
			required_skills TEXT NOT NULL DEFAULT '[]',
			roles_needed TEXT NOT NULL DEFAULT '[]',
			hours_per_week_min INTEGER NOT NULL DEFAULT 0,
			hours_per_week_max INTEGER NOT NULL DEFAULT 0,
			team_size_target INTEGER NOT NULL DEFAULT 0,
			timeline_weeks INTEGER NOT NULL DEFAULT 0,
			category TEXT NOT NULL DEFAULT '',
			stage TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'open',
			created_at DATETIME NOT NULL,
			FOREIGN KEY (owner_id) REFERENCES builders(id)
		)`,

		`CREATE TABLE IF NOT EXISTS invitations (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			builder_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			expires_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (project_id) REFERENCES projects(id)
		)`,

		`CREATE TABLE IF NOT EXISTS team_memberships (
			builder_id TEXT NOT NULL,
			project_id TEXT NOT NULL,
			joined_at DATETIME NOT NULL,
			left_at DATETIME,
			PRIMARY KEY (builder_id, project_id)
		)`,

		`CREATE TABLE IF NOT EXISTS activity_events (
			id TEXT PRIMARY KEY,
			builder_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			created_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_deliveries_builder ON deliveries(builder_id)`,
		`CREATE INDEX IF NOT EXISTS idx_deliveries_status ON deliveries(status)`,
		`CREATE INDEX IF NOT EXISTS idx_evidence_delivery ON evidence(delivery_id)`,
		`CREATE INDEX IF NOT EXISTS idx_invitations_builder ON invitations(builder_id)`,
		`CREATE INDEX IF NOT EXISTS idx_invitations_project ON invitations(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_memberships_project ON team_memberships(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_builder ON activity_events(builder_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_forge_scores_effective ON forge_scores(effective_score DESC)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}

	return nil
}
