package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/entity-resolver/internal/export"
	"github.com/entity-resolver/internal/match"
)

var testEntities = []match.Entity{
	{EntityID: "entity_0", ID: "14", Name: "Alpha Company", Address: "123 North Main Street", Members: []string{"14", "15"}},
}

func TestWriteEntitiesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "entities.csv")
	var stdout bytes.Buffer

	if err := writeEntities(&stdout, path, export.FormatCSV, testEntities); err != nil {
		t.Fatalf("writeEntities() error = %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want nothing when --out is set", stdout.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "entity_id,id,name,address,members\nentity_0,14,Alpha Company,123 North Main Street,14;15\n"
	if string(data) != want {
		t.Errorf("file =\n%s\nwant\n%s", data, want)
	}
}

func TestWriteEntitiesErrors(t *testing.T) {
	missingDir := filepath.Join(t.TempDir(), "missing", "entities.csv")
	if err := writeEntities(&bytes.Buffer{}, missingDir, export.FormatCSV, testEntities); err == nil {
		t.Error("writeEntities() into a missing directory returned nil error")
	}

	path := filepath.Join(t.TempDir(), "entities.txt")
	if err := writeEntities(&bytes.Buffer{}, path, "yaml", testEntities); err == nil {
		t.Error("writeEntities() with an unknown format returned nil error")
	}
}

func TestWriteEntitiesStdoutHeading(t *testing.T) {
	var stdout bytes.Buffer
	if err := writeEntities(&stdout, "", export.FormatTable, testEntities); err != nil {
		t.Fatalf("writeEntities() error = %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "\nCanonical entities:\n") {
		t.Errorf("stdout = %q, want the table heading first", stdout.String())
	}
}
