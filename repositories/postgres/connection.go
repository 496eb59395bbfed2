package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"

	"github.com/upb/qms-dashboard/config"
)

// DB wraps the sql.DB connection pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB creates a new database connection pool
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()))

	return Wrap(db, logger), nil
}

// Wrap adapts an open *sql.DB
func Wrap(db *sql.DB, logger *zap.Logger) *DB {
	return &DB{DB: db, logger: logger}
}

// Close closes the database connection pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck performs a health check on the database
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	// Check if we can query
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}

	return nil
}

// InitSchema initializes the database schema
func (db *DB) InitSchema(ctx context.Context) error {
	schema := `
		-- Facility audits
		CREATE TABLE IF NOT EXISTS audits (
			id SERIAL PRIMARY KEY,
			facility VARCHAR(255) NOT NULL,
			type VARCHAR(100) NOT NULL,
			auditor VARCHAR(255) NOT NULL,
			scheduled_date DATE NOT NULL,
			status VARCHAR(50) NOT NULL,
			priority VARCHAR(20) NOT NULL,
			score INTEGER,
			findings INTEGER NOT NULL DEFAULT 0
		);

		-- Corrective and preventive actions
		CREATE TABLE IF NOT EXISTS capas (
			id SERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			facility VARCHAR(255) NOT NULL,
			owner VARCHAR(255) NOT NULL,
			due_date DATE NOT NULL,
			status VARCHAR(50) NOT NULL,
			priority VARCHAR(20) NOT NULL,
			source_audit_id INTEGER REFERENCES audits(id) ON DELETE SET NULL
		);

		-- Report templates
		CREATE TABLE IF NOT EXISTS report_templates (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category VARCHAR(100) NOT NULL DEFAULT '',
			format VARCHAR(10) NOT NULL,
			frequency VARCHAR(50) NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL DEFAULT 'Draft'
		);

		-- Generated reports
		CREATE TABLE IF NOT EXISTS reports (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			template_id INTEGER NOT NULL REFERENCES report_templates(id) ON DELETE CASCADE,
			format VARCHAR(10) NOT NULL,
			generated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			generated_by VARCHAR(100) NOT NULL,
			size_bytes BIGINT NOT NULL DEFAULT 0
		);

		-- Activity trail
		CREATE TABLE IF NOT EXISTS activity_logs (
			id UUID PRIMARY KEY,
			kind VARCHAR(50) NOT NULL,
			session_id VARCHAR(64),
			role VARCHAR(100),
			resource VARCHAR(20),
			action VARCHAR(20),
			record_id INTEGER,
			outcome VARCHAR(30),
			details JSONB,
			request_id VARCHAR(255),
			timestamp TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_audits_scheduled_date ON audits(scheduled_date);
		CREATE INDEX IF NOT EXISTS idx_capas_due_date ON capas(due_date);
		CREATE INDEX IF NOT EXISTS idx_capas_source_audit_id ON capas(source_audit_id);
		CREATE INDEX IF NOT EXISTS idx_reports_template_id ON reports(template_id);
		CREATE INDEX IF NOT EXISTS idx_reports_generated_at ON reports(generated_at);
		CREATE INDEX IF NOT EXISTS idx_activity_logs_timestamp ON activity_logs(timestamp);
	`

	err := db.WithTransaction(ctx, func(ctx context.Context) error {
		_, err := GetExecutor(ctx, db).ExecContext(ctx, schema)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	db.logger.Info("database schema initialized successfully")
	return nil
}
