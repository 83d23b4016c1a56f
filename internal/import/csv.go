package import_pkg

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/entity-resolver/internal/normalize"
)

// ReadCSV reads a header row followed by records. Rows the CSV reader
// cannot parse are logged and skipped.
func (im *Importer) ReadCSV(r io.Reader) ([]normalize.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read header: empty table")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	idx, err := im.indexHeader(header)
	if err != nil {
		return nil, err
	}

	var records []normalize.Record
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			im.logger.Warn("error reading CSV record", "error", err)
			skipped++
			continue
		}
		records = append(records, idx.record(row))
	}

	im.logger.Info("import complete", "records", len(records), "skipped", skipped)
	return records, nil
}
