package import_pkg

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/entity-resolver/internal/normalize"
)

// ReadXLSX reads records from the first sheet of a workbook. The first row
// is the header.
func (im *Importer) ReadXLSX(path string) ([]normalize.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("failed to read header: empty sheet %s", sheets[0])
	}

	idx, err := im.indexHeader(rows[0])
	if err != nil {
		return nil, err
	}
	records := make([]normalize.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		records = append(records, idx.record(row))
	}

	im.logger.Info("import complete", "path", path, "sheet", sheets[0], "records", len(records))
	return records, nil
}
