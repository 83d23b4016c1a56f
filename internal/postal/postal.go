// Package postal adapts libpostal, through gopostal, to the address parser
// and expander interfaces used by normalization.
package postal

import (
	"context"
	"fmt"

	"github.com/openvenues/gopostal/expand"
	"github.com/openvenues/gopostal/parser"

	"github.com/entity-resolver/internal/normalize"
)

// Service parses and expands addresses with libpostal. The zero value is
// ready to use; libpostal loads its models on first call.
type Service struct{}

// New returns a libpostal-backed service.
func New() *Service {
	return &Service{}
}

// Parse labels the components of text.
func (s *Service) Parse(ctx context.Context, text string) (comps []normalize.Component, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			comps, err = nil, fmt.Errorf("libpostal parse %q: %v", text, r)
		}
	}()

	parsed := parser.ParseAddress(text)
	comps = make([]normalize.Component, 0, len(parsed))
	for _, c := range parsed {
		comps = append(comps, normalize.Component{Value: c.Value, Label: c.Label})
	}
	return comps, nil
}

// Expand returns the normalised expansions of text, best candidate first.
func (s *Service) Expand(ctx context.Context, text string) (out []string, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("libpostal expand %q: %v", text, r)
		}
	}()

	out = expand.ExpandAddress(text)
	if len(out) == 0 {
		return nil, normalize.ErrNoExpansion
	}
	return out, nil
}

var (
	_ normalize.Parser   = (*Service)(nil)
	_ normalize.Expander = (*Service)(nil)
)
