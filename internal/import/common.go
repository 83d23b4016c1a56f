// Package import_pkg reads source records from CSV, gzip JSON-lines and
// XLSX tables.
package import_pkg

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/entity-resolver/internal/logging"
	"github.com/entity-resolver/internal/normalize"
)

// ErrMissingColumn is returned when a table header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// Columns names the header cells holding each record field.
type Columns struct {
	ID      string
	Name    string
	Address string
}

// DefaultColumns returns the standard party table layout.
func DefaultColumns() Columns {
	return Columns{
		ID:      "PartyId",
		Name:    "PartyName",
		Address: "Address",
	}
}

// Importer reads record tables using a fixed column mapping.
type Importer struct {
	cols   Columns
	logger *slog.Logger
}

// NewImporter creates a new importer. Empty column names fall back to the
// defaults.
func NewImporter(cols Columns, logger *slog.Logger) *Importer {
	def := DefaultColumns()
	if cols.ID == "" {
		cols.ID = def.ID
	}
	if cols.Name == "" {
		cols.Name = def.Name
	}
	if cols.Address == "" {
		cols.Address = def.Address
	}
	return &Importer{cols: cols, logger: logging.OrDiscard(logger)}
}

// ReadFile picks a reader from the file extension: .xlsx, .jsonl, .json.gz
// or .jsonl.gz for business JSON-lines, anything else as CSV.
func (im *Importer) ReadFile(path string) ([]normalize.Record, error) {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") {
		return im.ReadXLSX(path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	im.logger.Info("importing records", "path", path)
	switch {
	case strings.HasSuffix(lower, ".jsonl"), strings.HasSuffix(lower, ".json.gz"), strings.HasSuffix(lower, ".jsonl.gz"):
		return im.ReadJSONLines(file, filepath.Ext(lower) == ".gz")
	default:
		return im.ReadCSV(file)
	}
}

// columnIndex holds the header positions of the record fields.
type columnIndex struct {
	id, name, address int
}

func (im *Importer) indexHeader(header []string) (columnIndex, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	var idx columnIndex
	var missing []string
	for _, c := range []struct {
		name string
		dst  *int
	}{
		{im.cols.ID, &idx.id},
		{im.cols.Name, &idx.name},
		{im.cols.Address, &idx.address},
	} {
		i, ok := pos[c.name]
		if !ok {
			missing = append(missing, c.name)
			continue
		}
		*c.dst = i
	}
	if len(missing) > 0 {
		return idx, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return idx, nil
}

// record maps a row onto a Record. Short rows yield empty fields.
func (idx columnIndex) record(row []string) normalize.Record {
	return normalize.Record{
		ID:      field(row, idx.id),
		Name:    field(row, idx.name),
		Address: field(row, idx.address),
	}
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
