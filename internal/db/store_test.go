package db

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/entity-resolver/internal/adjudicate"
	"github.com/entity-resolver/internal/match"
	"github.com/entity-resolver/internal/normalize"
)

func TestNewRun(t *testing.T) {
	entities := []match.Entity{{EntityID: "entity_0", ID: "1", Members: []string{"1"}}}
	run := NewRun("nightly", match.DefaultEngineConfig(), 3, entities)

	if run.ID == uuid.Nil {
		t.Error("NewRun() left the run ID empty")
	}
	if run.NameThreshold != 85 || run.AddrThreshold != 75 {
		t.Errorf("thresholds = %d/%d, want 85/75", run.NameThreshold, run.AddrThreshold)
	}
	if run.RecordCount != 3 || len(run.Entities) != 1 || run.CreatedAt.IsZero() {
		t.Errorf("NewRun() = %+v", run)
	}
	if other := NewRun("nightly", match.DefaultEngineConfig(), 3, entities); other.ID == run.ID {
		t.Error("two runs share an ID")
	}
}

// openTestStore connects to RESOLVER_TEST_DSN or skips.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("RESOLVER_TEST_DSN")
	if dsn == "" {
		t.Skip("RESOLVER_TEST_DSN not set")
	}
	conn, err := Open(context.Background(), dsn, 2)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	store := NewStore(conn.DB, nil)
	if err := store.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	return store
}

func TestSaveAndLoadRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	entities := []match.Entity{
		{EntityID: "entity_1", ID: "9", Name: "Gamma", Address: "1 Elm St", Members: []string{"9"}},
		{EntityID: "entity_0", ID: "14", Name: "Alpha Company", Address: "123 North Main Street", Members: []string{"14", "15"}},
	}
	run := NewRun("test", match.DefaultEngineConfig(), 3, entities)
	run.Decisions = []adjudicate.Decision{{
		Request: match.ScoredPair{
			Record1: normalize.Record{ID: "14"},
			Record2: normalize.Record{ID: "9"},
			Score:   0.7,
		},
		Merge: false,
	}}
	t.Cleanup(func() {
		store.db.Exec(`DELETE FROM resolution_run WHERE run_id = $1`, run.ID)
	})

	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	got, err := store.LoadEntities(ctx, run.ID)
	if err != nil {
		t.Fatalf("LoadEntities() error = %v", err)
	}
	if !reflect.DeepEqual(got, entities) {
		t.Errorf("LoadEntities() = %+v, want %+v", got, entities)
	}

	decisions, err := store.LoadDecisions(ctx, run.ID)
	if err != nil {
		t.Fatalf("LoadDecisions() error = %v", err)
	}
	if len(decisions) != 1 || decisions[0].Record1.ID != "14" || decisions[0].Record2.ID != "9" ||
		decisions[0].Score != 0.7 || decisions[0].Merge {
		t.Errorf("LoadDecisions() = %+v", decisions)
	}

	runs, err := store.ListRuns(ctx, 50)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	found := false
	for _, r := range runs {
		if r.ID == run.ID {
			found = true
			if r.EntityCount != 2 || r.RecordCount != 3 {
				t.Errorf("run summary = %+v", r)
			}
		}
	}
	if !found {
		t.Errorf("ListRuns() did not include %s", run.ID)
	}
}

func TestSaveRunRollsBack(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	dup := match.Entity{EntityID: "entity_0", ID: "1", Name: "A", Address: "x", Members: []string{"1"}}
	run := NewRun("dup", match.DefaultEngineConfig(), 2, []match.Entity{dup, dup})
	if err := store.SaveRun(ctx, run); err == nil {
		t.Fatal("SaveRun() with duplicate entity IDs succeeded")
	}

	var n int
	if err := store.db.QueryRowContext(ctx, `SELECT count(*) FROM resolution_run WHERE run_id = $1`, run.ID).Scan(&n); err != nil {
		t.Fatalf("count runs: %v", err)
	}
	if n != 0 {
		t.Errorf("failed run left %d rows behind", n)
	}
}

func TestSaveDecisionsOnExistingRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	run := NewRun("adjudicate", match.DefaultEngineConfig(), 0, nil)
	t.Cleanup(func() {
		store.db.Exec(`DELETE FROM resolution_run WHERE run_id = $1`, run.ID)
	})
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	decisions := []adjudicate.Decision{
		{Request: match.ScoredPair{Record1: normalize.Record{ID: "1"}, Record2: normalize.Record{ID: "2"}, Score: 0.75}, Merge: true},
		{Request: match.ScoredPair{Record1: normalize.Record{ID: "3"}, Record2: normalize.Record{ID: "4"}, Score: 0.62}, Merge: false},
	}
	if err := store.SaveDecisions(ctx, run.ID, decisions); err != nil {
		t.Fatalf("SaveDecisions() error = %v", err)
	}

	got, err := store.LoadDecisions(ctx, run.ID)
	if err != nil {
		t.Fatalf("LoadDecisions() error = %v", err)
	}
	if !reflect.DeepEqual(got, decisions) {
		t.Errorf("LoadDecisions() = %+v, want %+v", got, decisions)
	}
}

func TestSaveDecisionsUnknownRun(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	missing := uuid.New()
	decisions := []adjudicate.Decision{
		{Request: match.ScoredPair{Record1: normalize.Record{ID: "1"}, Record2: normalize.Record{ID: "2"}, Score: 0.7}, Merge: true},
	}
	err := store.SaveDecisions(ctx, missing, decisions)
	if !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("SaveDecisions() error = %v, want ErrRunNotFound", err)
	}

	var n int
	if err := store.db.QueryRowContext(ctx, `SELECT count(*) FROM adjudication_decision WHERE run_id = $1`, missing).Scan(&n); err != nil {
		t.Fatalf("count decisions: %v", err)
	}
	if n != 0 {
		t.Errorf("unknown run left %d decisions behind", n)
	}
}
