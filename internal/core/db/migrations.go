package db

import (
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	embeddedmigrations "github.com/solatis/surveylogic/migrations"
)

/*
 * Schema migrations.
 *
 * Each driver has its own embedded directory of numbered .sql files. Applied
 * files are tracked in the migrations table with a SHA-256 checksum; an
 * applied file that later changes, or disappears from the binary, fails every
 * subsequent run.
 *
 * Each file runs in its own transaction together with its bookkeeping row.
 * Statements are split on ";" because lib/pq rejects multi-statement Exec.
 */

// MigrationStatus represents the state of a single migration.
type MigrationStatus struct {
	ID          string
	Checksum    string
	Applied     bool
	AppliedAt   *time.Time
	ExecutionMs int64
}

// dialect holds the per-driver migration set and bookkeeping DDL.
type dialect struct {
	files       embed.FS
	dir         string
	createTable string
	// timestamp converts applied_at to the column's storage form.
	timestamp func(time.Time) any
}

// The migrations table here must match 001_initial_schema.sql for each driver.
var dialects = map[string]dialect{
	"sqlite3": {
		files: embeddedmigrations.SqliteMigrations,
		dir:   "sqlite",
		createTable: `CREATE TABLE IF NOT EXISTS migrations (
			migration_id TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TEXT NOT NULL,
			execution_ms INTEGER NOT NULL,
			CHECK (applied_at LIKE '____-__-__T__:__:__Z')
		)`,
		timestamp: func(t time.Time) any { return t.Format(time.RFC3339) },
	},
	"postgres": {
		files: embeddedmigrations.PostgresMigrations,
		dir:   "postgres",
		createTable: `CREATE TABLE IF NOT EXISTS migrations (
			migration_id TEXT PRIMARY KEY,
			checksum TEXT NOT NULL,
			applied_at TIMESTAMP WITHOUT TIME ZONE NOT NULL,
			execution_ms INTEGER NOT NULL
		)`,
		timestamp: func(t time.Time) any { return t },
	},
}

// migration is one embedded schema file.
type migration struct {
	ID       string
	Checksum string
	SQL      string
}

// appliedRow is one row of the migrations table.
type appliedRow struct {
	ID          string         `db:"migration_id"`
	Checksum    string         `db:"checksum"`
	AppliedAt   sql.NullString `db:"applied_at"`
	ExecutionMs int64          `db:"execution_ms"`
}

type migrator struct {
	db         *sqlx.DB
	dialect    dialect
	migrations []migration
}

// newMigrator selects the driver's dialect, ensures the tracking table exists
// and loads the embedded files in ID order.
func newMigrator(db *sqlx.DB) (*migrator, error) {
	d, ok := dialects[db.DriverName()]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %s", db.DriverName())
	}
	if _, err := db.Exec(d.createTable); err != nil {
		return nil, fmt.Errorf("failed to create migrations table: %w", err)
	}
	migrations, err := loadMigrations(d.files, d.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to parse migrations: %w", err)
	}
	return &migrator{db: db, dialect: d, migrations: migrations}, nil
}

// MigrateUp verifies checksums of applied migrations and applies pending ones in order.
func MigrateUp(db *sqlx.DB) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}

	applied, err := m.applied()
	if err != nil {
		return fmt.Errorf("failed to query applied migrations: %w", err)
	}
	if err := m.verify(applied); err != nil {
		return fmt.Errorf("migration checksum validation failed: %w", err)
	}

	for _, mig := range m.migrations {
		if _, ok := applied[mig.ID]; ok {
			continue
		}
		if err := m.apply(mig); err != nil {
			return err
		}
	}
	return nil
}

// MigrateStatus returns every embedded migration with its applied state.
func MigrateStatus(db *sqlx.DB) ([]MigrationStatus, error) {
	m, err := newMigrator(db)
	if err != nil {
		return nil, err
	}

	applied, err := m.applied()
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}

	statuses := make([]MigrationStatus, 0, len(m.migrations))
	for _, mig := range m.migrations {
		row, ok := applied[mig.ID]
		if !ok {
			statuses = append(statuses, MigrationStatus{ID: mig.ID, Checksum: mig.Checksum})
			continue
		}
		st := MigrationStatus{
			ID:          row.ID,
			Checksum:    row.Checksum,
			Applied:     true,
			ExecutionMs: row.ExecutionMs,
		}
		// sqlite stores RFC3339 text; postgres timestamps scan as RFC3339Nano
		if ts, err := time.Parse(time.RFC3339Nano, row.AppliedAt.String); err == nil {
			st.AppliedAt = &ts
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

func (m *migrator) applied() (map[string]appliedRow, error) {
	var rows []appliedRow
	if err := m.db.Select(&rows, "SELECT migration_id, checksum, applied_at, execution_ms FROM migrations"); err != nil {
		return nil, err
	}
	out := make(map[string]appliedRow, len(rows))
	for _, r := range rows {
		out[r.ID] = r
	}
	return out, nil
}

// verify fails when an applied migration is missing from the binary or changed.
func (m *migrator) verify(applied map[string]appliedRow) error {
	embedded := make(map[string]string, len(m.migrations))
	for _, mig := range m.migrations {
		embedded[mig.ID] = mig.Checksum
	}

	ids := make([]string, 0, len(applied))
	for id := range applied {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		want, ok := embedded[id]
		if !ok {
			return fmt.Errorf("migration %s exists in database but not in embedded files", id)
		}
		if got := applied[id].Checksum; got != want {
			return fmt.Errorf("checksum mismatch for migration %s: expected %s, got %s", id, want, got)
		}
	}
	return nil
}

// apply runs one migration and records it in the same transaction.
func (m *migrator) apply(mig migration) error {
	start := time.Now()

	tx, err := m.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for migration %s: %w", mig.ID, err)
	}
	defer tx.Rollback()

	for _, stmt := range strings.Split(stripComments(mig.SQL), ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", mig.ID, err)
		}
	}

	_, err = tx.Exec(
		tx.Rebind("INSERT INTO migrations (migration_id, checksum, applied_at, execution_ms) VALUES (?, ?, ?, ?)"),
		mig.ID, mig.Checksum, m.dialect.timestamp(time.Now().UTC()), time.Since(start).Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record migration %s: %w", mig.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", mig.ID, err)
	}
	return nil
}

// loadMigrations reads dir's .sql files sorted by file name.
func loadMigrations(files embed.FS, dir string) ([]migration, error) {
	paths, err := fs.Glob(files, dir+"/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	migrations := make([]migration, 0, len(paths))
	for _, p := range paths {
		content, err := files.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		sum := sha256.Sum256(content)
		migrations = append(migrations, migration{
			ID:       path.Base(p),
			Checksum: hex.EncodeToString(sum[:]),
			SQL:      string(content),
		})
	}
	return migrations, nil
}

// stripComments drops full-line "--" comments so a statement preceded by a
// comment block is not mistaken for a comment itself.
func stripComments(src string) string {
	lines := strings.Split(src, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}
