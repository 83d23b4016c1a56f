package import_pkg

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/entity-resolver/internal/match"
)

// ReadPairs loads a JSON array of {record_1, record_2, score} objects, the
// format written for merge, discard and ambiguous lists.
func ReadPairs(path string) ([]match.ScoredPair, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	var pairs []match.ScoredPair
	if err := json.Unmarshal(data, &pairs); err != nil {
		return nil, fmt.Errorf("failed to decode pairs from %s: %w", path, err)
	}
	for i, p := range pairs {
		if p.Score < 0 || p.Score > 1 {
			return nil, fmt.Errorf("pair %d in %s: score %v outside 0-1", i, path, p.Score)
		}
	}
	return pairs, nil
}
