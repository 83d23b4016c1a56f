// Package export writes resolved entities, triaged pair lists and
// adjudication outcomes.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/entity-resolver/internal/adjudicate"
	"github.com/entity-resolver/internal/logging"
	"github.com/entity-resolver/internal/match"
)

// Output file names.
const (
	MergeFile       = "merge.json"
	DiscardFile     = "discard.json"
	AmbiguousFile   = "ambiguous.json"
	DecisionsFile   = "final_decisions.json"
	AdjudErrorsFile = "adjudication_errors.json"
)

// Formats accepted by WriteEntities.
const (
	FormatTable = "table"
	FormatCSV   = "csv"
	FormatJSON  = "json"
)

// EntityColumns names the entity table columns shared by the CSV and console
// outputs. They match the JSON field names.
var EntityColumns = []string{"entity_id", "id", "name", "address", "members"}

// WriteEntities writes entities to w in the given format.
func WriteEntities(w io.Writer, entities []match.Entity, format string) error {
	switch strings.ToLower(format) {
	case FormatTable, "":
		_, err := io.WriteString(w, RenderEntities(entities, isTerminal(w))+"\n")
		return err
	case FormatCSV:
		return WriteEntitiesCSV(w, entities)
	case FormatJSON:
		return writeJSON(w, entities)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteEntitiesCSV writes one row per entity; members are joined with ';'.
func WriteEntitiesCSV(w io.Writer, entities []match.Entity) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(EntityColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, e := range entities {
		row := []string{e.EntityID, e.ID, e.Name, e.Address, strings.Join(e.Members, ";")}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write entity %s: %w", e.EntityID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Exporter writes named JSON artefacts into an output directory.
type Exporter struct {
	dir    string
	logger *slog.Logger
}

// NewExporter creates a new exporter, creating dir if needed.
func NewExporter(dir string, logger *slog.Logger) (*Exporter, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Exporter{dir: dir, logger: logging.OrDiscard(logger)}, nil
}

// Dir returns the output directory.
func (e *Exporter) Dir() string {
	return e.dir
}

// WriteJSON writes v as indented JSON to name inside the output directory
// and returns the file path.
func (e *Exporter) WriteJSON(name string, v any) (string, error) {
	path := filepath.Join(e.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := writeJSON(f, v); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}

// WriteTriage writes the merge, discard and ambiguous lists.
func (e *Exporter) WriteTriage(t match.Triage) error {
	for _, out := range []struct {
		name  string
		pairs []match.ScoredPair
	}{
		{MergeFile, t.Merge},
		{DiscardFile, t.Discard},
		{AmbiguousFile, t.Ambiguous},
	} {
		pairs := out.pairs
		if pairs == nil {
			pairs = []match.ScoredPair{}
		}
		path, err := e.WriteJSON(out.name, pairs)
		if err != nil {
			return err
		}
		e.logger.Info("wrote pair list", "path", path, "pairs", len(pairs))
	}
	return nil
}

// WriteAdjudication writes decided pairs to final_decisions.json and
// undecided pairs to adjudication_errors.json.
func (e *Exporter) WriteAdjudication(res adjudicate.Result) error {
	decisions := res.Decisions
	if decisions == nil {
		decisions = []adjudicate.Decision{}
	}
	failures := res.Failures
	if failures == nil {
		failures = []adjudicate.Failure{}
	}

	path, err := e.WriteJSON(DecisionsFile, decisions)
	if err != nil {
		return err
	}
	e.logger.Info("wrote decisions", "path", path, "decisions", len(decisions))

	path, err = e.WriteJSON(AdjudErrorsFile, failures)
	if err != nil {
		return err
	}
	if len(failures) > 0 {
		e.logger.Warn("some pairs were not adjudicated", "path", path, "failures", len(failures))
	}
	return nil
}
