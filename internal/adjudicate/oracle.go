// Package adjudicate resolves ambiguous record pairs through an external
// decision process and keeps every pair accounted for, decided or failed.
package adjudicate

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/entity-resolver/internal/match"
)

// ErrOracleUnavailable marks failures reaching the decision service itself,
// as opposed to a malformed answer.
var ErrOracleUnavailable = errors.New("oracle unavailable")

// Request is one ambiguous pair awaiting a decision.
type Request = match.ScoredPair

// Oracle answers whether two records describe the same entity.
type Oracle interface {
	Decide(ctx context.Context, req Request) (bool, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, req Request) (bool, error)

// Decide calls f.
func (f OracleFunc) Decide(ctx context.Context, req Request) (bool, error) {
	return f(ctx, req)
}

// Decision is a request plus the oracle's verdict.
type Decision struct {
	Request
	Merge bool `json:"merge"`
}

// Failure is a request the oracle could not decide.
type Failure struct {
	Request
	Err error `json:"-"`
}

// MarshalJSON writes the request fields plus an "error" message.
func (f Failure) MarshalJSON() ([]byte, error) {
	msg := ""
	if f.Err != nil {
		msg = f.Err.Error()
	}
	return json.Marshal(struct {
		Request
		Error string `json:"error"`
	}{f.Request, msg})
}
