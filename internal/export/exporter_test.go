package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/entity-resolver/internal/adjudicate"
	"github.com/entity-resolver/internal/match"
	"github.com/entity-resolver/internal/normalize"
)

var sampleEntities = []match.Entity{
	{EntityID: "entity_0", ID: "14", Name: "Alpha Company", Address: "123 North Main Street, Springfield, Illinois", Members: []string{"14", "15"}},
	{EntityID: "entity_2", ID: "16", Name: "Omega & Sons", Address: "9 Harbor Blvd", Members: []string{"16"}},
}

func TestWriteEntitiesCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEntities(&buf, sampleEntities, FormatCSV); err != nil {
		t.Fatalf("WriteEntities() error = %v", err)
	}

	want := "entity_id,id,name,address,members\n" +
		"entity_0,14,Alpha Company,\"123 North Main Street, Springfield, Illinois\",14;15\n" +
		"entity_2,16,Omega & Sons,9 Harbor Blvd,16\n"
	if got := buf.String(); got != want {
		t.Errorf("CSV output =\n%s\nwant\n%s", got, want)
	}
}

func TestWriteEntitiesJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEntities(&buf, sampleEntities, FormatJSON); err != nil {
		t.Fatalf("WriteEntities() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Omega & Sons") {
		t.Errorf("JSON output escaped '&': %s", buf.String())
	}

	var got []match.Entity
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(got) != 2 || got[0].EntityID != "entity_0" || len(got[0].Members) != 2 {
		t.Errorf("decoded entities = %+v", got)
	}
}

func TestWriteEntitiesTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteEntities(&buf, sampleEntities, FormatTable); err != nil {
		t.Fatalf("WriteEntities() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{"entity_0", "Alpha Company", "Omega & Sons", "14, 15"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "╭") {
		t.Errorf("non-terminal output should be unstyled:\n%s", out)
	}
}

func TestRenderEntitiesStyled(t *testing.T) {
	if out := RenderEntities(sampleEntities, true); !strings.Contains(out, "╭") {
		t.Errorf("styled output lacks rounded borders:\n%s", out)
	}
}

func TestEntityColumnsMatchJSON(t *testing.T) {
	data, err := json.Marshal(sampleEntities[0])
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	for _, col := range EntityColumns {
		if _, ok := fields[col]; !ok {
			t.Errorf("column %q has no matching JSON field in %s", col, data)
		}
	}

	out := strings.ToLower(RenderEntities(sampleEntities, false))
	for _, col := range EntityColumns {
		if !strings.Contains(out, col) {
			t.Errorf("table header lacks %q:\n%s", col, out)
		}
	}
	if strings.Contains(out, "partyname") {
		t.Errorf("table header still uses source column names:\n%s", out)
	}
}

func TestWriteEntitiesUnknownFormat(t *testing.T) {
	if err := WriteEntities(&bytes.Buffer{}, sampleEntities, "yaml"); err == nil {
		t.Error("WriteEntities() accepted an unknown format")
	}
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
}

func TestWriteTriage(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	ex, err := NewExporter(dir, nil)
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}

	ambiguous := match.ScoredPair{
		Record1: normalize.Record{ID: "1", Name: "Acme", Address: "1 Main"},
		Record2: normalize.Record{ID: "2", Name: "Acme Inc", Address: "1 Main St"},
		Score:   0.72,
	}
	if err := ex.WriteTriage(match.Triage{Ambiguous: []match.ScoredPair{ambiguous}}); err != nil {
		t.Fatalf("WriteTriage() error = %v", err)
	}

	var got []match.ScoredPair
	readJSON(t, filepath.Join(dir, AmbiguousFile), &got)
	if len(got) != 1 || got[0] != ambiguous {
		t.Errorf("%s = %+v, want [%+v]", AmbiguousFile, got, ambiguous)
	}

	for _, name := range []string{MergeFile, DiscardFile} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if strings.TrimSpace(string(data)) != "[]" {
			t.Errorf("%s = %s, want []", name, data)
		}
	}
}

func TestWriteAdjudication(t *testing.T) {
	dir := t.TempDir()
	ex, err := NewExporter(dir, nil)
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}

	req := match.ScoredPair{
		Record1: normalize.Record{ID: "1", Name: "A"},
		Record2: normalize.Record{ID: "2", Name: "B"},
		Score:   0.7,
	}
	res := adjudicate.Result{
		Decisions: []adjudicate.Decision{{Request: req, Merge: true}},
		Failures:  []adjudicate.Failure{{Request: req, Err: errors.New("timeout")}},
	}
	if err := ex.WriteAdjudication(res); err != nil {
		t.Fatalf("WriteAdjudication() error = %v", err)
	}

	var decisions []map[string]any
	readJSON(t, filepath.Join(dir, DecisionsFile), &decisions)
	if len(decisions) != 1 || decisions[0]["merge"] != true || decisions[0]["score"] != 0.7 {
		t.Errorf("%s = %v", DecisionsFile, decisions)
	}

	var failures []map[string]any
	readJSON(t, filepath.Join(dir, AdjudErrorsFile), &failures)
	if len(failures) != 1 || failures[0]["error"] != "timeout" {
		t.Errorf("%s = %v", AdjudErrorsFile, failures)
	}
}
