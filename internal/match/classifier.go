package match

import (
	"log/slog"

	"github.com/entity-resolver/internal/logging"
)

// Classifier splits scored pairs into auto-merge, auto-discard and
// ambiguous tiers. It works on any upstream score on the 0–1 scale.
type Classifier struct {
	tiers  Tiers
	logger *slog.Logger
}

// NewClassifier creates a classifier with the given bounds.
func NewClassifier(tiers Tiers, logger *slog.Logger) *Classifier {
	return &Classifier{
		tiers:  tiers,
		logger: logging.OrDiscard(logger),
	}
}

// Tiers returns the classifier bounds.
func (c *Classifier) Tiers() Tiers {
	return c.tiers
}

// Decide returns "merge", "discard" or "ambiguous" for a score. Both bounds
// are inclusive on their own side.
func (c *Classifier) Decide(score float64) string {
	switch {
	case score >= c.tiers.High:
		return "merge"
	case score <= c.tiers.Low:
		return "discard"
	default:
		return "ambiguous"
	}
}

// Classify triages pairs. Input order is kept within each tier and ambiguous
// pairs are passed through unchanged for adjudication.
func (c *Classifier) Classify(pairs []ScoredPair) Triage {
	t := Triage{
		Merge:     []ScoredPair{},
		Discard:   []ScoredPair{},
		Ambiguous: []ScoredPair{},
	}
	for _, pair := range pairs {
		switch c.Decide(pair.Score) {
		case "merge":
			t.Merge = append(t.Merge, pair)
		case "discard":
			t.Discard = append(t.Discard, pair)
		default:
			t.Ambiguous = append(t.Ambiguous, pair)
		}
	}

	c.logger.Info("classified pairs",
		"pairs", len(pairs),
		"merge", len(t.Merge),
		"discard", len(t.Discard),
		"ambiguous", len(t.Ambiguous),
		"high", c.tiers.High,
		"low", c.tiers.Low,
	)
	return t
}
