package adjudicate

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/entity-resolver/internal/logging"
)

// Options controls an adjudication run.
type Options struct {
	// RatePerSecond caps oracle calls; zero or negative means unlimited.
	RatePerSecond float64
	Logger        *slog.Logger
}

// Result holds the outcome of every request, in request order within each
// slice. len(Decisions)+len(Failures) always equals the number of requests.
type Result struct {
	Decisions []Decision `json:"decisions"`
	Failures  []Failure  `json:"failures"`
}

// Run asks the oracle about each request once. Oracle errors are recorded as
// failures and never retried. If ctx ends early the undecided requests are
// recorded as failures carrying ctx's error, which is also returned.
func Run(ctx context.Context, oracle Oracle, requests []Request, opts Options) (Result, error) {
	logger := logging.OrDiscard(opts.Logger)
	done := logging.Timing(logger, "adjudicate")
	defer done()

	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	limiter := rate.NewLimiter(limit, 1)

	res := Result{
		Decisions: make([]Decision, 0, len(requests)),
		Failures:  []Failure{},
	}

	for i, req := range requests {
		if err := limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			for _, rest := range requests[i:] {
				res.Failures = append(res.Failures, Failure{Request: rest, Err: err})
			}
			logger.Warn("adjudication interrupted", "undecided", len(requests)-i, "error", err)
			return res, err
		}

		merge, err := oracle.Decide(ctx, req)
		if err != nil {
			logger.Warn("oracle failed",
				"record_1", req.Record1.ID,
				"record_2", req.Record2.ID,
				"error", err,
			)
			res.Failures = append(res.Failures, Failure{Request: req, Err: err})
			continue
		}
		logger.Debug("oracle decision",
			"record_1", req.Record1.ID,
			"record_2", req.Record2.ID,
			"score", req.Score,
			"merge", merge,
		)
		res.Decisions = append(res.Decisions, Decision{Request: req, Merge: merge})
	}

	logger.Info("adjudication complete", "decided", len(res.Decisions), "failed", len(res.Failures))
	return res, nil
}
