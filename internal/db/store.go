package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/entity-resolver/internal/adjudicate"
	"github.com/entity-resolver/internal/logging"
	"github.com/entity-resolver/internal/match"
)

const schema = `
CREATE TABLE IF NOT EXISTS resolution_run (
	run_id          UUID PRIMARY KEY,
	label           TEXT NOT NULL DEFAULT '',
	name_threshold  INTEGER NOT NULL,
	addr_threshold  INTEGER NOT NULL,
	record_count    INTEGER NOT NULL,
	entity_count    INTEGER NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS resolved_entity (
	run_id     UUID NOT NULL REFERENCES resolution_run(run_id) ON DELETE CASCADE,
	entity_id  TEXT NOT NULL,
	party_id   TEXT NOT NULL,
	name       TEXT NOT NULL,
	address    TEXT NOT NULL,
	PRIMARY KEY (run_id, entity_id)
);

CREATE TABLE IF NOT EXISTS entity_member (
	run_id     UUID NOT NULL,
	entity_id  TEXT NOT NULL,
	record_id  TEXT NOT NULL,
	position   INTEGER NOT NULL,
	PRIMARY KEY (run_id, entity_id, position),
	FOREIGN KEY (run_id, entity_id) REFERENCES resolved_entity(run_id, entity_id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS adjudication_decision (
	run_id      UUID NOT NULL REFERENCES resolution_run(run_id) ON DELETE CASCADE,
	record_1    TEXT NOT NULL,
	record_2    TEXT NOT NULL,
	score       DOUBLE PRECISION NOT NULL,
	merge       BOOLEAN NOT NULL,
	decided_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_entity_member_record ON entity_member(record_id);
`

// ErrRunNotFound is returned when a run ID has no resolution_run row.
var ErrRunNotFound = errors.New("run not found")

// Run is one persisted resolution run.
type Run struct {
	ID            uuid.UUID
	Label         string
	NameThreshold int
	AddrThreshold int
	RecordCount   int
	Entities      []match.Entity
	Decisions     []adjudicate.Decision
	CreatedAt     time.Time
}

// NewRun stamps a run with a fresh identifier.
func NewRun(label string, cfg match.EngineConfig, recordCount int, entities []match.Entity) Run {
	return Run{
		ID:            uuid.New(),
		Label:         label,
		NameThreshold: cfg.NameThreshold,
		AddrThreshold: cfg.AddrThreshold,
		RecordCount:   recordCount,
		Entities:      entities,
		CreatedAt:     time.Now().UTC(),
	}
}

// Store reads and writes resolution runs.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates a new store
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logging.OrDiscard(logger)}
}

// EnsureSchema creates the run tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveRun writes a run, its entities, memberships and decisions in one
// transaction.
func (s *Store) SaveRun(ctx context.Context, run Run) (err error) {
	done := logging.Timing(s.logger, "save run")
	defer done()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO resolution_run (run_id, label, name_threshold, addr_threshold, record_count, entity_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, run.ID, run.Label, run.NameThreshold, run.AddrThreshold, run.RecordCount, len(run.Entities), run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	if err = insertEntities(ctx, tx, run); err != nil {
		return err
	}
	if err = insertMembers(ctx, tx, run); err != nil {
		return err
	}
	if err = insertDecisions(ctx, tx, run.ID, run.Decisions); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	s.logger.Info("saved resolution run", "run_id", run.ID, "entities", len(run.Entities), "decisions", len(run.Decisions))
	return nil
}

func insertEntities(ctx context.Context, tx *sql.Tx, run Run) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO resolved_entity (run_id, entity_id, party_id, name, address)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare entity insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range run.Entities {
		if _, err := stmt.ExecContext(ctx, run.ID, e.EntityID, e.ID, e.Name, e.Address); err != nil {
			return fmt.Errorf("failed to insert entity %s: %w", e.EntityID, err)
		}
	}
	return nil
}

// insertMembers bulk-loads memberships with COPY.
func insertMembers(ctx context.Context, tx *sql.Tx, run Run) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("entity_member", "run_id", "entity_id", "record_id", "position"))
	if err != nil {
		return fmt.Errorf("failed to prepare member copy: %w", err)
	}

	for _, e := range run.Entities {
		for pos, id := range e.Members {
			if _, err := stmt.ExecContext(ctx, run.ID.String(), e.EntityID, id, pos); err != nil {
				stmt.Close()
				return fmt.Errorf("failed to copy member %s: %w", id, err)
			}
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("failed to flush member copy: %w", err)
	}
	return stmt.Close()
}

func insertDecisions(ctx context.Context, tx *sql.Tx, runID uuid.UUID, decisions []adjudicate.Decision) error {
	if len(decisions) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO adjudication_decision (run_id, record_1, record_2, score, merge)
		VALUES ($1, $2, $3, $4, $5)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare decision insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range decisions {
		if _, err := stmt.ExecContext(ctx, runID, d.Record1.ID, d.Record2.ID, d.Score, d.Merge); err != nil {
			return fmt.Errorf("failed to insert decision %s/%s: %w", d.Record1.ID, d.Record2.ID, err)
		}
	}
	return nil
}

// SaveDecisions appends oracle decisions to an existing run.
func (s *Store) SaveDecisions(ctx context.Context, runID uuid.UUID, decisions []adjudicate.Decision) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var exists bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM resolution_run WHERE run_id = $1)`, runID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to look up run: %w", err)
	}
	if !exists {
		err = fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		return err
	}

	if err = insertDecisions(ctx, tx, runID, decisions); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit decisions: %w", err)
	}
	s.logger.Info("saved adjudication decisions", "run_id", runID, "decisions", len(decisions))
	return nil
}

// LoadDecisions returns a run's oracle decisions in the order they were
// stored. Only record IDs, score and verdict are kept.
func (s *Store) LoadDecisions(ctx context.Context, runID uuid.UUID) ([]adjudicate.Decision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT record_1, record_2, score, merge
		FROM adjudication_decision
		WHERE run_id = $1
		ORDER BY decided_at, ctid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query decisions: %w", err)
	}
	defer rows.Close()

	var decisions []adjudicate.Decision
	for rows.Next() {
		var d adjudicate.Decision
		if err := rows.Scan(&d.Record1.ID, &d.Record2.ID, &d.Score, &d.Merge); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}

// LoadEntities returns a run's entities with their members, ordered as they
// were resolved.
func (s *Store) LoadEntities(ctx context.Context, runID uuid.UUID) ([]match.Entity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.entity_id, e.party_id, e.name, e.address,
		       COALESCE(array_agg(m.record_id ORDER BY m.position) FILTER (WHERE m.record_id IS NOT NULL), '{}')
		FROM resolved_entity e
		LEFT JOIN entity_member m ON m.run_id = e.run_id AND m.entity_id = e.entity_id
		WHERE e.run_id = $1
		GROUP BY e.entity_id, e.party_id, e.name, e.address
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	var entities []match.Entity
	for rows.Next() {
		var e match.Entity
		if err := rows.Scan(&e.EntityID, &e.ID, &e.Name, &e.Address, pq.Array(&e.Members)); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(entities, func(a, b int) bool {
		return match.LessID(entities[a].ID, entities[b].ID)
	})
	return entities, nil
}

// RunSummary is a row of resolution_run.
type RunSummary struct {
	ID            uuid.UUID `json:"run_id"`
	Label         string    `json:"label"`
	NameThreshold int       `json:"name_threshold"`
	AddrThreshold int       `json:"addr_threshold"`
	RecordCount   int       `json:"record_count"`
	EntityCount   int       `json:"entity_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListRuns returns the most recent runs first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, label, name_threshold, addr_threshold, record_count, entity_count, created_at
		FROM resolution_run
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.Label, &r.NameThreshold, &r.AddrThreshold, &r.RecordCount, &r.EntityCount, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
