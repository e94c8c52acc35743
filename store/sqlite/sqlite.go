/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  One database file backs both storage contracts of the allocation engine:

  allocation.Persistence:  the whole dataset as one JSON document
  allocation.RemoteStore:  relational consultants, projects and allocations

KEY TABLES:
  datasets:     key -> JSON document, one row per stored dataset
  consultants:  id (uuid), unique name
  projects:     id (uuid), unique name, start/end ISO week
  allocations:  one row per (consultant, project, period type, period start)

INDEXES:
  - idx_allocations_unique_cell: upsert target, one percent per cell
  - idx_allocations_consultant_period: QueryAllocations (hot path)

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. ":memory:" databases are pinned to
  a single connection, otherwise every pooled connection would see its
  own empty database.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): readers don't block the
  single writer.

USAGE:
  db, err := sqlite.New("./data/allocation.db")
  if err != nil {
      log.Fatal(err)
  }
  defer db.Close()

  store, err := allocation.Open(ctx, db, roster.Default().Seeder(), logger)

SEE ALSO:
  - allocation/persistence.go: Interface definitions
  - allocation/store/memory.go: In-memory Persistence for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/allocation-engine/allocation"
	"github.com/warp/allocation-engine/calendar"
)

// DefaultDatasetKey is the row the Persistence methods read and write.
const DefaultDatasetKey = "current"

// Store implements allocation.Persistence and allocation.RemoteStore.
type Store struct {
	db         *sql.DB
	mu         sync.RWMutex
	datasetKey string
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, datasetKey: DefaultDatasetKey}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS datasets (
		key TEXT PRIMARY KEY,
		document TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS consultants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		start_week TEXT,
		end_week TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS allocations (
		consultant_id TEXT NOT NULL REFERENCES consultants(id) ON DELETE CASCADE,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		period_type TEXT NOT NULL,
		period_start TEXT NOT NULL,
		percent INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_allocations_unique_cell
		ON allocations(consultant_id, project_id, period_type, period_start);

	CREATE INDEX IF NOT EXISTS idx_allocations_consultant_period
		ON allocations(consultant_id, period_type, period_start);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// DATASET DOCUMENT (allocation.Persistence interface)
// =============================================================================

// Load returns the stored dataset, (nil, nil) when none is stored. A
// document that does not decode is reported as malformed state.
func (s *Store) Load(ctx context.Context) (*allocation.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc string
	err := s.db.QueryRowContext(ctx,
		"SELECT document FROM datasets WHERE key = ?", s.datasetKey,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	var ds allocation.Dataset
	if err := json.Unmarshal([]byte(doc), &ds); err != nil {
		return nil, fmt.Errorf("%w: %v", allocation.ErrMalformedState, err)
	}
	return &ds, nil
}

// Save replaces the stored dataset document.
func (s *Store) Save(ctx context.Context, ds *allocation.Dataset) error {
	doc, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("failed to encode dataset: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO datasets (key, document, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			document = excluded.document,
			updated_at = excluded.updated_at
	`, s.datasetKey, string(doc), now())
	if err != nil {
		return fmt.Errorf("failed to save dataset: %w", err)
	}
	return nil
}

// SaveRaw stores a document verbatim. Used to plant corrupt documents.
func (s *Store) SaveRaw(ctx context.Context, doc string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO datasets (key, document, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at
	`, s.datasetKey, doc, now())
	return err
}

// =============================================================================
// CONSULTANTS (allocation.RemoteStore interface)
// =============================================================================

// ListConsultants returns all consultants ordered by name.
func (s *Store) ListConsultants(ctx context.Context) ([]allocation.Consultant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at FROM consultants ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	consultants := []allocation.Consultant{}
	for rows.Next() {
		var c allocation.Consultant
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		consultants = append(consultants, c)
	}
	return consultants, rows.Err()
}

// CreateConsultant inserts a consultant with a fresh id.
func (s *Store) CreateConsultant(ctx context.Context, name string) (allocation.Consultant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return allocation.Consultant{}, fmt.Errorf("%w: name must not be empty", allocation.ErrInvalidName)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := allocation.Consultant{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO consultants (id, name, created_at) VALUES (?, ?, ?)",
		c.ID, c.Name, c.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return allocation.Consultant{}, &allocation.DuplicateEntityError{Kind: allocation.KindConsultant, Name: name}
		}
		return allocation.Consultant{}, fmt.Errorf("failed to create consultant: %w", err)
	}
	return c, nil
}

// DeleteConsultant removes a consultant and, by cascade, its allocations.
func (s *Store) DeleteConsultant(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM consultants WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete consultant: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &allocation.NotFoundError{Kind: allocation.KindConsultant, Name: id}
	}
	return nil
}

// =============================================================================
// PROJECTS (allocation.RemoteStore interface)
// =============================================================================

// ListProjects returns all projects ordered by name.
func (s *Store) ListProjects(ctx context.Context) ([]allocation.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, start_week, end_week, created_at FROM projects ORDER BY name",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []allocation.Project{}
	for rows.Next() {
		var p allocation.Project
		var start, end sql.NullString
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Name, &start, &end, &createdAt); err != nil {
			return nil, err
		}
		p.Start = calendar.PeriodID(start.String)
		p.End = calendar.PeriodID(end.String)
		p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// CreateProject inserts a project. An empty ID is replaced by a fresh one.
func (s *Store) CreateProject(ctx context.Context, p allocation.Project) (allocation.Project, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return allocation.Project{}, fmt.Errorf("%w: name must not be empty", allocation.ErrInvalidName)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now().UTC().Truncate(time.Second)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO projects (id, name, start_week, end_week, created_at) VALUES (?, ?, ?, ?, ?)",
		p.ID, p.Name, nullString(string(p.Start)), nullString(string(p.End)), p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return allocation.Project{}, &allocation.DuplicateEntityError{Kind: allocation.KindProject, Name: p.Name}
		}
		return allocation.Project{}, fmt.Errorf("failed to create project: %w", err)
	}
	return p, nil
}

// =============================================================================
// ALLOCATIONS (allocation.RemoteStore interface)
// =============================================================================

// UpsertAllocation writes one cell, replacing an existing percent.
func (s *Store) UpsertAllocation(ctx context.Context, rec allocation.AllocationRecord) error {
	pt, err := calendar.ParsePeriodType(string(rec.PeriodType))
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO allocations (consultant_id, project_id, period_type, period_start, percent, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(consultant_id, project_id, period_type, period_start) DO UPDATE SET
			percent = excluded.percent,
			updated_at = excluded.updated_at
	`,
		rec.ConsultantID, rec.ProjectID, string(pt),
		rec.PeriodStart.String(), rec.Percent, now(),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("%w: unknown consultant %q or project %q", allocation.ErrNotFound, rec.ConsultantID, rec.ProjectID)
		}
		return fmt.Errorf("failed to upsert allocation: %w", err)
	}
	return nil
}

// QueryAllocations returns one consultant's rows of one period type whose
// period start lies in [q.Start, q.End], joined with names.
func (s *Store) QueryAllocations(ctx context.Context, q allocation.AllocationQuery) ([]allocation.AllocationRow, error) {
	if q.Start.After(q.End) {
		return nil, fmt.Errorf("%w: %s > %s", allocation.ErrInvalidRange, q.Start, q.End)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT a.consultant_id, a.project_id, a.period_type, a.period_start, a.percent,
		       c.name, p.name
		FROM allocations a
		JOIN consultants c ON c.id = a.consultant_id
		JOIN projects p ON p.id = a.project_id
		WHERE a.consultant_id = ? AND a.period_type = ?
		  AND a.period_start >= ? AND a.period_start <= ?
		ORDER BY a.period_start, p.name
	`, q.ConsultantID, string(q.PeriodType), q.Start.String(), q.End.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []allocation.AllocationRow{}
	for rows.Next() {
		var r allocation.AllocationRow
		var periodType, periodStart string
		if err := rows.Scan(&r.ConsultantID, &r.ProjectID, &periodType, &periodStart, &r.Percent,
			&r.ConsultantName, &r.ProjectName); err != nil {
			return nil, err
		}
		r.PeriodType = calendar.PeriodType(periodType)
		if r.PeriodStart, err = calendar.ParseDate(periodStart); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"allocations", "projects", "consultants", "datasets"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
