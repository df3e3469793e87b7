package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore persists pass history in SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Config holds SQLite store configuration.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new SQLite store instance.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	return &SQLiteStore{path: cfg.Path}, nil
}

// Open creates, initializes, and migrates a store in one step.
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	store, err := NewSQLiteStore(Config{Path: path})
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// Init initializes the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_txlock=immediate", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// Foreign keys are a connection-level setting.
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// HealthCheck verifies the database connection is alive.
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.db.PingContext(ctx)
}

// Migrate runs database migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// CreatePass inserts a new pass record.
func (s *SQLiteStore) CreatePass(ctx context.Context, pass *Pass) error {
	query := `
		INSERT INTO passes (id, started_at, completed_at, success, rules_total, rules_succeeded, rules_failed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		pass.ID,
		pass.StartedAt,
		pass.CompletedAt,
		pass.Success,
		pass.RulesTotal,
		pass.RulesSucceeded,
		pass.RulesFailed,
		pass.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create pass: %w", err)
	}
	return nil
}

// GetPass retrieves a pass by ID.
func (s *SQLiteStore) GetPass(ctx context.Context, id string) (*Pass, error) {
	query := `
		SELECT id, started_at, completed_at, success, rules_total, rules_succeeded, rules_failed, created_at
		FROM passes
		WHERE id = ?
	`

	pass := &Pass{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&pass.ID,
		&pass.StartedAt,
		&pass.CompletedAt,
		&pass.Success,
		&pass.RulesTotal,
		&pass.RulesSucceeded,
		&pass.RulesFailed,
		&pass.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("pass not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pass: %w", err)
	}
	return pass, nil
}

// ListPasses returns the most recent passes, newest first.
func (s *SQLiteStore) ListPasses(ctx context.Context, limit int) ([]Pass, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, started_at, completed_at, success, rules_total, rules_succeeded, rules_failed, created_at
		FROM passes
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list passes: %w", err)
	}
	defer rows.Close()

	var passes []Pass
	for rows.Next() {
		var pass Pass
		if err := rows.Scan(
			&pass.ID,
			&pass.StartedAt,
			&pass.CompletedAt,
			&pass.Success,
			&pass.RulesTotal,
			&pass.RulesSucceeded,
			&pass.RulesFailed,
			&pass.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pass: %w", err)
		}
		passes = append(passes, pass)
	}
	return passes, rows.Err()
}

// AddRuleResult inserts one rule result for a pass.
func (s *SQLiteStore) AddRuleResult(ctx context.Context, result *RuleResult) error {
	query := `
		INSERT INTO rule_results (pass_id, rule, success, duration_ms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	res, err := s.db.ExecContext(ctx, query,
		result.PassID,
		result.Rule,
		result.Success,
		result.DurationMS,
		result.Error,
		result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to add rule result: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		result.ID = id
	}
	return nil
}

// GetRuleResults retrieves all rule results for a pass.
func (s *SQLiteStore) GetRuleResults(ctx context.Context, passID string) ([]RuleResult, error) {
	query := `
		SELECT id, pass_id, rule, success, duration_ms, error, created_at
		FROM rule_results
		WHERE pass_id = ?
		ORDER BY rule
	`

	rows, err := s.db.QueryContext(ctx, query, passID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rule results: %w", err)
	}
	defer rows.Close()

	var results []RuleResult
	for rows.Next() {
		var r RuleResult
		if err := rows.Scan(
			&r.ID,
			&r.PassID,
			&r.Rule,
			&r.Success,
			&r.DurationMS,
			&r.Error,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan rule result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
