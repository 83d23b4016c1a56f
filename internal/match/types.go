package match

import (
	"log/slog"

	"github.com/entity-resolver/internal/normalize"
)

// Entity is one resolved cluster: a stable label plus the representative
// identifier, name and address chosen from its members.
type Entity struct {
	EntityID string   `json:"entity_id"`
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Members  []string `json:"members,omitempty"`
}

// ScoredPair is a pair of records with a similarity score on the 0–1 scale.
// Its JSON form is the adjudication request handed to an external oracle.
type ScoredPair struct {
	Record1 normalize.Record `json:"record_1"`
	Record2 normalize.Record `json:"record_2"`
	Score   float64          `json:"score"`
}

// Tiers holds the classifier bounds on the 0–1 scale.
type Tiers struct {
	High float64 // >= High: auto-merge
	Low  float64 // <= Low: auto-discard
}

// DefaultTiers returns the standard triage bounds.
func DefaultTiers() Tiers {
	return Tiers{
		High: 0.85,
		Low:  0.60,
	}
}

// Triage is the classifier's three-way split.
type Triage struct {
	Merge     []ScoredPair `json:"merge"`
	Discard   []ScoredPair `json:"discard"`
	Ambiguous []ScoredPair `json:"ambiguous"`
}

// EngineConfig holds configuration for the resolution engine.
type EngineConfig struct {
	NameThreshold int // minimum name score (0–100) to merge
	AddrThreshold int // minimum address score (0–100) to merge
	Workers       int
	Logger        *slog.Logger
}

// DefaultEngineConfig returns the standard merge gate: name 85, address 75.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		NameThreshold: 85,
		AddrThreshold: 75,
		Workers:       1,
	}
}
