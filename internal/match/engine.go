package match

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"unicode/utf8"

	"github.com/entity-resolver/internal/logging"
	"github.com/entity-resolver/internal/normalize"
)

// Engine resolves normalised records into entities by pairwise comparison
// and union-find clustering.
type Engine struct {
	cfg    EngineConfig
	logger *slog.Logger
}

// Comparison is the outcome of scoring one record pair.
type Comparison struct {
	I, J      int
	NameScore int
	AddrScore int
	Merge     bool
}

// NewEngine creates a new resolution engine
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Engine{
		cfg:    cfg,
		logger: logging.OrDiscard(cfg.Logger),
	}
}

// Config returns the engine's configuration.
func (e *Engine) Config() EngineConfig {
	return e.cfg
}

// recordKeys holds a record's prepared name and address keys.
type recordKeys struct {
	name, addr SortKey
}

func keysOf(rec normalize.NormalizedRecord) recordKeys {
	return recordKeys{name: NewSortKey(rec.NormName), addr: NewSortKey(rec.NormAddr)}
}

func prepareKeys(records []normalize.NormalizedRecord) []recordKeys {
	keys := make([]recordKeys, len(records))
	for i, rec := range records {
		keys[i] = keysOf(rec)
	}
	return keys
}

// Compare scores records i and j and applies the merge gate: both the name
// and the address score must reach their thresholds.
func (e *Engine) Compare(records []normalize.NormalizedRecord, i, j int) Comparison {
	return e.compare(records, keysOf(records[i]), keysOf(records[j]), i, j)
}

func (e *Engine) compare(records []normalize.NormalizedRecord, ki, kj recordKeys, i, j int) Comparison {
	c := Comparison{
		I:         i,
		J:         j,
		NameScore: ki.name.Ratio(kj.name),
		AddrScore: ki.addr.Ratio(kj.addr),
	}
	c.Merge = c.NameScore >= e.cfg.NameThreshold && c.AddrScore >= e.cfg.AddrThreshold

	e.logger.Debug("comparison",
		"record_1", records[i].ID,
		"record_2", records[j].ID,
		"name_score", c.NameScore,
		"addr_score", c.AddrScore,
		"merged", c.Merge,
	)
	return c
}

// Resolve compares every unordered record pair once, merging pairs that pass
// the gate, and returns one entity per resulting cluster sorted by
// representative identifier. Pairs already in the same cluster are skipped.
func (e *Engine) Resolve(ctx context.Context, records []normalize.NormalizedRecord) ([]Entity, error) {
	done := logging.Timing(e.logger, "resolve")
	defer done()

	p, err := e.Cluster(ctx, records)
	if err != nil {
		return nil, err
	}
	entities := Materialize(records, p)

	e.logger.Info("resolution complete", "records", len(records), "entities", len(entities))
	return entities, nil
}

// Cluster runs the pairwise comparison and returns the final partition.
func (e *Engine) Cluster(ctx context.Context, records []normalize.NormalizedRecord) (*Partition, error) {
	p := NewPartition(len(records))
	if e.cfg.Workers == 1 || len(records) < 3 {
		return p, e.clusterSequential(ctx, records, p)
	}
	return p, e.clusterParallel(ctx, records, p)
}

func (e *Engine) clusterSequential(ctx context.Context, records []normalize.NormalizedRecord, p *Partition) error {
	n := len(records)
	keys := prepareKeys(records)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for j := i + 1; j < n; j++ {
			if p.Same(i, j) {
				continue
			}
			if e.compare(records, keys[i], keys[j], i, j).Merge {
				p.Union(i, j)
			}
		}
	}
	return nil
}

// clusterParallel hands rows of the pair space to a worker pool. Scoring runs
// unlocked; the partition is only touched under mu. A stale "not yet merged"
// read costs a redundant comparison, never a wrong merge, so the final
// clusters match the sequential run.
func (e *Engine) clusterParallel(ctx context.Context, records []normalize.NormalizedRecord, p *Partition) error {
	n := len(records)
	keys := prepareKeys(records)
	rows := make(chan int)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for w := 0; w < e.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range rows {
				for j := i + 1; j < n; j++ {
					mu.Lock()
					same := p.Same(i, j)
					mu.Unlock()
					if same {
						continue
					}
					if e.compare(records, keys[i], keys[j], i, j).Merge {
						mu.Lock()
						p.Union(i, j)
						mu.Unlock()
					}
				}
			}
		}()
	}

	var err error
feed:
	for i := 0; i < n-1; i++ {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case rows <- i:
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		}
	}
	close(rows)
	wg.Wait()
	return err
}

// ScorePairs scores every unordered pair and reports min(name, address) on
// the 0–1 scale, the gate collapsed into one number, so the classifier can
// triage this engine's own output. The result grows quadratically with the
// input, so callers serving untrusted input cap the record count first.
func (e *Engine) ScorePairs(ctx context.Context, records []normalize.NormalizedRecord) ([]ScoredPair, error) {
	n := len(records)
	keys := prepareKeys(records)
	var pairs []ScoredPair
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for j := i + 1; j < n; j++ {
			c := e.compare(records, keys[i], keys[j], i, j)
			pairs = append(pairs, ScoredPair{
				Record1: records[i].Record,
				Record2: records[j].Record,
				Score:   float64(min(c.NameScore, c.AddrScore)) / 100,
			})
		}
	}
	return pairs, nil
}

// Materialize turns a finished partition into entities. Each entity carries
// the identifier of its first member in input order and the longest name and
// address among its members (first wins on ties). The label is derived from
// the first member's position so it does not depend on merge order.
func Materialize(records []normalize.NormalizedRecord, p *Partition) []Entity {
	groups := p.Groups()
	entities := make([]Entity, 0, len(groups))

	for _, group := range groups {
		first := records[group[0]]
		ent := Entity{
			EntityID: fmt.Sprintf("entity_%d", group[0]),
			ID:       first.ID,
			Members:  make([]string, 0, len(group)),
		}
		nameLen, addrLen := -1, -1
		for _, idx := range group {
			rec := records[idx]
			ent.Members = append(ent.Members, rec.ID)
			if l := utf8.RuneCountInString(rec.Name); l > nameLen {
				ent.Name, nameLen = rec.Name, l
			}
			if l := utf8.RuneCountInString(rec.Address); l > addrLen {
				ent.Address, addrLen = rec.Address, l
			}
		}
		entities = append(entities, ent)
	}

	sort.SliceStable(entities, func(a, b int) bool {
		return LessID(entities[a].ID, entities[b].ID)
	})
	return entities
}

// LessID orders identifiers numerically when both are integers and
// lexically otherwise. Integers sort before non-integers.
func LessID(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}
