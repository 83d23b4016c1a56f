package import_pkg

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/entity-resolver/internal/normalize"
)

// businessRow is one line of the business directory dump.
type businessRow struct {
	BusinessID string `json:"business_id"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

func (b businessRow) complete() bool {
	for _, v := range []string{b.BusinessID, b.Name, b.Address, b.City, b.State, b.PostalCode} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// ReadJSONLines reads business records, one JSON object per line, from r,
// decompressing first when gzipped is set. Lines with any blank field are
// dropped. The address is assembled as "address, city, state postal_code".
func (im *Importer) ReadJSONLines(r io.Reader, gzipped bool) ([]normalize.Record, error) {
	if gzipped {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var records []normalize.Record
	line, dropped := 0, 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var row businessRow
		if err := json.Unmarshal([]byte(text), &row); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !row.complete() {
			dropped++
			continue
		}
		records = append(records, normalize.Record{
			ID:      row.BusinessID,
			Name:    row.Name,
			Address: fmt.Sprintf("%s, %s, %s %s", row.Address, row.City, row.State, row.PostalCode),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read lines: %w", err)
	}

	im.logger.Info("import complete", "records", len(records), "dropped", dropped)
	return records, nil
}
