package normalize

import (
	"context"
	"fmt"
	"sync"
)

type fakeParser struct {
	mu      sync.Mutex
	results map[string][]Component
	err     error
	calls   int
}

func (p *fakeParser) Parse(_ context.Context, text string) ([]Component, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if p.err != nil {
		return nil, p.err
	}
	if r, ok := p.results[text]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("unexpected parse input %q", text)
}

type fakeExpander struct {
	results map[string][]string
	err     error
}

func (e *fakeExpander) Expand(_ context.Context, text string) ([]string, error) {
	if e.err != nil {
		return nil, e.err
	}
	return e.results[text], nil
}
