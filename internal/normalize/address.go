package normalize

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/entity-resolver/internal/logging"
)

// Component is one labelled span produced by an address parser.
type Component struct {
	Value string
	Label string
}

// Parser splits free text into labelled address components.
type Parser interface {
	Parse(ctx context.Context, text string) ([]Component, error)
}

// Expander expands address abbreviations, returning candidate expansions in
// preference order.
type Expander interface {
	Expand(ctx context.Context, text string) ([]string, error)
}

// ErrNoExpansion is returned by expanders that produced no candidates.
var ErrNoExpansion = errors.New("no expansion candidates")

// Components holds one value per address label the canonicaliser understands.
// Labels outside this set are dropped when the parser output is folded in.
type Components struct {
	HouseNumber string
	Road        string
	Unit        string
	City        string
	State       string
	Postcode    string
	RoadPrefix  string
	RoadType    string
}

// ComponentsFrom folds parser output into Components. Values are lowercased
// and a label seen twice keeps its last value.
func ComponentsFrom(parsed []Component) Components {
	var c Components
	for _, comp := range parsed {
		value := strings.ToLower(comp.Value)
		switch comp.Label {
		case "house_number":
			c.HouseNumber = value
		case "road":
			c.Road = value
		case "unit":
			c.Unit = value
		case "city":
			c.City = value
		case "state":
			c.State = value
		case "postcode":
			c.Postcode = value
		case "road_prefix":
			c.RoadPrefix = value
		case "road_type":
			c.RoadType = value
		}
	}
	return c
}

// MergeRoad folds RoadPrefix and RoadType into Road unless Road already
// carries them as tokens, then clears both.
func (c *Components) MergeRoad() {
	road := c.Road
	if c.RoadPrefix != "" && !containsToken(road, c.RoadPrefix) {
		road = strings.TrimSpace(c.RoadPrefix + " " + road)
	}
	if c.RoadType != "" && !containsToken(road, c.RoadType) {
		road = strings.TrimSpace(road + " " + c.RoadType)
	}
	c.Road = road
	c.RoadPrefix = ""
	c.RoadType = ""
}

// NormalizeState replaces a spelled-out state with its postal code.
func (c *Components) NormalizeState() {
	c.State = StateCode(c.State)
}

// NormalizeRoad drops directional tokens and folds road-type synonyms.
func (c *Components) NormalizeRoad() {
	tokens := strings.Fields(c.Road)
	if len(tokens) > 0 && directionTokens[tokens[0]] {
		tokens = tokens[1:]
	}

	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if directionTokens[tok] {
			continue
		}
		if canonical, ok := roadTypes[tok]; ok {
			tok = canonical
		}
		kept = append(kept, tok)
	}
	c.Road = strings.Join(kept, " ")
}

var reNonAlnum = regexp.MustCompile(`[^a-z0-9 ]`)

// String assembles the components in fixed order: house number, road, unit,
// city, state, postcode. Empty components are omitted.
func (c Components) String() string {
	ordered := []string{c.HouseNumber, c.Road, c.Unit, c.City, c.State, c.Postcode}
	parts := make([]string, 0, len(ordered))
	for _, value := range ordered {
		if cleaned := cleanValue(value); cleaned != "" {
			parts = append(parts, cleaned)
		}
	}
	return strings.Join(parts, " ")
}

func cleanValue(value string) string {
	return strings.Join(strings.Fields(reNonAlnum.ReplaceAllString(value, " ")), " ")
}

func containsToken(s, token string) bool {
	for _, tok := range strings.Fields(s) {
		if tok == token {
			return true
		}
	}
	return false
}

// CanonicalizerOptions configures a Canonicalizer.
type CanonicalizerOptions struct {
	// Concurrency bounds simultaneous calls into the address service.
	Concurrency int
	Logger      *slog.Logger
}

// Canonicalizer turns raw address strings into component-ordered canonical
// strings using an external parser and expander.
type Canonicalizer struct {
	parser   Parser
	expander Expander
	gate     *semaphore.Weighted
	logger   *slog.Logger
}

// NewCanonicalizer creates a canonicaliser. A nil expander skips expansion.
func NewCanonicalizer(parser Parser, expander Expander, opts CanonicalizerOptions) *Canonicalizer {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Canonicalizer{
		parser:   parser,
		expander: expander,
		gate:     semaphore.NewWeighted(int64(opts.Concurrency)),
		logger:   logging.OrDiscard(opts.Logger),
	}
}

// CanonicalAddress returns a canonical single-string address suitable for
// fuzzy matching. It never fails: when expansion fails the raw text is
// parsed instead, and when parsing fails the cleaned raw text is returned.
func (c *Canonicalizer) CanonicalAddress(ctx context.Context, raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	expanded := strings.ToLower(c.expand(ctx, raw))

	parsed, err := c.parse(ctx, expanded)
	if err != nil {
		c.logger.Warn("address parse failed, using raw address", "address", raw, "error", err)
		return cleanValue(strings.ToLower(raw))
	}

	comps := ComponentsFrom(parsed)
	comps.MergeRoad()
	comps.NormalizeState()
	comps.NormalizeRoad()

	canonical := comps.String()
	c.logger.Debug("canonical address", "raw", raw, "expanded", expanded, "canonical", canonical)
	return canonical
}

// Components parses raw without expansion and returns the folded components.
func (c *Canonicalizer) Components(ctx context.Context, raw string) (Components, error) {
	parsed, err := c.parse(ctx, raw)
	if err != nil {
		return Components{}, err
	}
	return ComponentsFrom(parsed), nil
}

func (c *Canonicalizer) expand(ctx context.Context, raw string) string {
	if c.expander == nil {
		return raw
	}
	if err := c.gate.Acquire(ctx, 1); err != nil {
		return raw
	}
	defer c.gate.Release(1)

	candidates, err := c.expander.Expand(ctx, raw)
	if err == nil && len(candidates) == 0 {
		err = ErrNoExpansion
	}
	if err != nil {
		c.logger.Debug("address expansion failed, using raw address", "address", raw, "error", err)
		return raw
	}
	return candidates[0]
}

func (c *Canonicalizer) parse(ctx context.Context, text string) ([]Component, error) {
	if c.parser == nil {
		return nil, errors.New("no address parser configured")
	}
	if err := c.gate.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.gate.Release(1)

	return c.parser.Parse(ctx, text)
}
