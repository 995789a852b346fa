// Package mock provides in-memory mock implementations of
// [evaluator.Sender] and [evaluator.FlowProvider] for evaluator tests,
// following the teacher's injectable-result mock style (pkg/audio/mock).
package mock

import (
	"fmt"

	"github.com/csml-lang/interpreter/internal/evaluator"
	"github.com/csml-lang/interpreter/pkg/ast"
)

// Sender records every [evaluator.SenderEvent] sent to it, in order.
type Sender struct {
	Events []evaluator.SenderEvent
}

var _ evaluator.Sender = (*Sender)(nil)

// Send appends ev to Events.
func (s *Sender) Send(ev evaluator.SenderEvent) {
	s.Events = append(s.Events, ev)
}

// FlowProvider is a mock [evaluator.FlowProvider] backed by a fixed map of
// already-parsed flows, for tests that want to exercise the evaluator
// directly without going through internal/bot's lexer/parser-backed cache.
type FlowProvider map[string]*ast.Flow

var _ evaluator.FlowProvider = (FlowProvider)(nil)

// Flow returns the flow registered under name, or an UnknownFlow error.
func (p FlowProvider) Flow(name string) (*ast.Flow, error) {
	flow, ok := p[name]
	if !ok {
		return nil, fmt.Errorf("UnknownFlow: %q", name)
	}
	return flow, nil
}

// Names returns every registered flow name, satisfying the optional
// "Names() []string" capability internal/evaluator's import resolution
// type-asserts for.
func (p FlowProvider) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	return names
}
