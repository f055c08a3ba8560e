package db

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	embeddedmigrations "github.com/solatis/predicates/migrations"
)

/*
 * Schema migrations for the rule store.
 *
 * Migrations are embedded SQL files, one set per driver, applied in filename
 * order. Each applied file is recorded in the migrations table with its
 * SHA256 checksum; an applied file whose embedded content changed, or that no
 * longer exists, stops MigrateUp before anything else runs.
 *
 * Every migration runs in its own transaction together with its
 * bookkeeping row, so a failed file leaves no partial state behind.
 */

// MigrationStatus represents the state of a single migration.
type MigrationStatus struct {
	ID          string
	Checksum    string
	Applied     bool
	AppliedAt   *time.Time
	ExecutionMs int64
}

// migration is one embedded SQL file.
type migration struct {
	ID       string
	Checksum string
	SQL      string
}

// migrationsTableDDL mirrors the migrations table of 001_initial_schema.sql,
// so the table exists before the first file runs.
var migrationsTableDDL = map[string]string{
	"sqlite3": `CREATE TABLE IF NOT EXISTS migrations (
		migration_id TEXT PRIMARY KEY,
		checksum TEXT NOT NULL,
		applied_at TEXT NOT NULL,
		execution_ms INTEGER NOT NULL,
		CHECK (applied_at LIKE '____-__-__T__:__:__Z')
	)`,
	"postgres": `CREATE TABLE IF NOT EXISTS migrations (
		migration_id TEXT PRIMARY KEY,
		checksum TEXT NOT NULL,
		applied_at TIMESTAMP WITHOUT TIME ZONE NOT NULL,
		execution_ms INTEGER NOT NULL
	)`,
}

// migrator pairs a database with the embedded migrations for its driver.
type migrator struct {
	db    *sqlx.DB
	files []migration
}

// newMigrator loads the embedded set for db's driver and ensures the
// bookkeeping table exists.
func newMigrator(ctx context.Context, db *sqlx.DB) (*migrator, error) {
	var (
		fsys fs.FS
		dir  string
	)
	switch db.DriverName() {
	case "sqlite3":
		fsys, dir = embeddedmigrations.SqliteMigrations, "sqlite"
	case "postgres":
		fsys, dir = embeddedmigrations.PostgresMigrations, "postgres"
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", db.DriverName())
	}

	if _, err := db.ExecContext(ctx, migrationsTableDDL[db.DriverName()]); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}

	files, err := loadMigrations(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to parse migrations: %w", err)
	}
	return &migrator{db: db, files: files}, nil
}

// MigrateUp verifies the checksums of applied migrations and applies the
// pending ones in order.
func MigrateUp(ctx context.Context, db *sqlx.DB) error {
	m, err := newMigrator(ctx, db)
	if err != nil {
		return err
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}
	if err := m.verify(applied); err != nil {
		return fmt.Errorf("migration checksum validation failed: %w", err)
	}

	for _, file := range m.files {
		if _, ok := applied[file.ID]; ok {
			continue
		}
		if err := m.apply(ctx, file); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", file.ID, err)
		}
	}
	return nil
}

// MigrateStatus reports every embedded migration as applied or pending.
func MigrateStatus(ctx context.Context, db *sqlx.DB) ([]MigrationStatus, error) {
	m, err := newMigrator(ctx, db)
	if err != nil {
		return nil, err
	}

	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	statuses := make([]MigrationStatus, 0, len(m.files))
	for _, file := range m.files {
		status, ok := applied[file.ID]
		if !ok {
			status = MigrationStatus{ID: file.ID, Checksum: file.Checksum}
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// applied reads the bookkeeping table keyed by migration ID.
func (m *migrator) applied(ctx context.Context) (map[string]MigrationStatus, error) {
	rows, err := m.db.QueryxContext(ctx, "SELECT migration_id, checksum, applied_at, execution_ms FROM migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer rows.Close()

	out := make(map[string]MigrationStatus)
	for rows.Next() {
		var (
			status    = MigrationStatus{Applied: true}
			appliedAt any
		)
		if err := rows.Scan(&status.ID, &status.Checksum, &appliedAt, &status.ExecutionMs); err != nil {
			return nil, err
		}
		status.AppliedAt = parseAppliedAt(appliedAt)
		out[status.ID] = status
	}
	return out, rows.Err()
}

// verify checks applied rows against the embedded files.
func (m *migrator) verify(applied map[string]MigrationStatus) error {
	embedded := make(map[string]string, len(m.files))
	for _, file := range m.files {
		embedded[file.ID] = file.Checksum
	}

	for id, status := range applied {
		want, ok := embedded[id]
		if !ok {
			return fmt.Errorf("migration %s exists in database but not in embedded files", id)
		}
		if status.Checksum != want {
			return fmt.Errorf("checksum mismatch for migration %s: expected %s, got %s", id, want, status.Checksum)
		}
	}
	return nil
}

// apply runs one file and records it in a single transaction.
func (m *migrator) apply(ctx context.Context, file migration) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	start := time.Now()
	for _, stmt := range splitStatements(file.SQL) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement failed: %w", err)
		}
	}

	now := time.Now().UTC()
	var appliedAt any = now
	if m.db.DriverName() == "sqlite3" {
		appliedAt = now.Format(time.RFC3339)
	}
	insert := tx.Rebind("INSERT INTO migrations (migration_id, checksum, applied_at, execution_ms) VALUES (?, ?, ?, ?)")
	if _, err := tx.ExecContext(ctx, insert, file.ID, file.Checksum, appliedAt, time.Since(start).Milliseconds()); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit()
}

// loadMigrations reads the .sql files of dir sorted by name.
func loadMigrations(fsys fs.FS, dir string) ([]migration, error) {
	names, err := fs.Glob(fsys, path.Join(dir, "*.sql"))
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	files := make([]migration, 0, len(names))
	for _, name := range names {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		sum := sha256.Sum256(content)
		files = append(files, migration{
			ID:       path.Base(name),
			Checksum: hex.EncodeToString(sum[:]),
			SQL:      string(content),
		})
	}
	return files, nil
}

// parseAppliedAt normalizes applied_at: SQLite stores RFC3339 text,
// PostgreSQL returns a timestamp.
func parseAppliedAt(v any) *time.Time {
	var text string
	switch t := v.(type) {
	case time.Time:
		return &t
	case string:
		text = t
	case []byte:
		text = string(t)
	default:
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, text)
	if err != nil {
		return nil
	}
	return &parsed
}

// splitStatements drops "--" comment lines and splits on semicolons.
// lib/pq doesn't support multiple statements in single Exec.
func splitStatements(sql string) []string {
	var b strings.Builder
	for _, line := range strings.Split(sql, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	var statements []string
	for _, stmt := range strings.Split(b.String(), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
