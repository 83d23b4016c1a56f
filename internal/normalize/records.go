package normalize

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Record is one source row: a stable identifier plus raw name and address.
type Record struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// NormalizedRecord pairs a record with its canonical name and address.
type NormalizedRecord struct {
	Record
	NormName string `json:"norm_name"`
	NormAddr string `json:"norm_addr"`
}

// NormalizeRecord canonicalises a single record.
func (c *Canonicalizer) NormalizeRecord(ctx context.Context, rec Record) NormalizedRecord {
	return NormalizedRecord{
		Record:   rec,
		NormName: NormalizeName(rec.Name),
		NormAddr: c.CanonicalAddress(ctx, rec.Address),
	}
}

// NormalizeRecords canonicalises records on up to workers goroutines. Output
// order matches input order. The only error is ctx's.
func (c *Canonicalizer) NormalizeRecords(ctx context.Context, records []Record, workers int) ([]NormalizedRecord, error) {
	if workers < 1 {
		workers = 1
	}
	out := make([]NormalizedRecord, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range records {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = c.NormalizeRecord(gctx, records[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
