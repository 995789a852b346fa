package bot

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/csml-lang/interpreter/internal/lexer"
	"github.com/csml-lang/interpreter/internal/parser"
	"github.com/csml-lang/interpreter/pkg/ast"
)

// FlowCache lazily lexes and parses a Bundle's flows on first reference,
// keyed by flow name, per spec.md §2's "AST cache (per flow, keyed by flow
// name) ... populated lazily inside a single interpret invocation". A
// FlowCache is scoped to one Interpret call and must not be reused across
// turns (spec.md §5: "the AST cache built during one interpret call is
// local to that call").
type FlowCache struct {
	sources map[string]string

	mu     sync.RWMutex
	parsed map[string]*ast.Flow

	group singleflight.Group
}

// NewFlowCache builds an empty cache over bundle's flow sources.
func NewFlowCache(bundle *Bundle) *FlowCache {
	sources := make(map[string]string, len(bundle.Flows))
	for _, f := range bundle.Flows {
		sources[f.Name] = f.Content
	}
	return &FlowCache{sources: sources, parsed: make(map[string]*ast.Flow)}
}

// Flow returns the parsed Flow named name, parsing and caching it on first
// request. Concurrent requests for the same name are deduplicated via
// singleflight so a second caller never re-lexes source the first is
// already parsing.
func (c *FlowCache) Flow(name string) (*ast.Flow, error) {
	c.mu.RLock()
	flow, ok := c.parsed[name]
	c.mu.RUnlock()
	if ok {
		return flow, nil
	}

	src, ok := c.sources[name]
	if !ok {
		return nil, fmt.Errorf("UnknownFlow: %q", name)
	}

	result, err, _ := c.group.Do(name, func() (any, error) {
		toks := lexer.Lex([]byte(src))
		flow, err := parser.Parse(toks)
		if err != nil {
			return nil, fmt.Errorf("ParseError: flow %q: %w", name, err)
		}
		flow.Name = name

		c.mu.Lock()
		c.parsed[name] = flow
		c.mu.Unlock()
		return flow, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*ast.Flow), nil
}

// Names returns every flow name in the bundle, parsed or not, used to
// resolve a from_flow-less import across the whole bundle.
func (c *FlowCache) Names() []string {
	names := make([]string, 0, len(c.sources))
	for name := range c.sources {
		names = append(names, name)
	}
	return names
}
