package ast

import "github.com/csml-lang/interpreter/pkg/token"

// Step is one labelled block of statements inside a Flow.
type Step struct {
	Label string
	Body  []Expr
	Pos   token.Interval
}

// FunctionDef is a user-defined function declared inside a flow.
type FunctionDef struct {
	Name string
	Args []string
	Body []Expr
	Pos  token.Interval
}

// Import is one `import` declaration: bring a name (function or step)
// from another flow (or, if FromFlow is empty, from any flow in the
// bundle) into scope, optionally under a local alias.
type Import struct {
	Name     string
	Alias    string // empty when not renamed; resolved name is Alias if set, else Name
	FromFlow string // empty means "search every flow in the bundle"
	Pos      token.Interval
}

// Flow is the parsed, immutable representation of one CSML source file.
//
// Accept holds the last `flow` header's accept-expression list found in the
// source (per spec.md §4.2, "the last flow header wins"). instructions,
// built by Finalize, maps a step or function name to its statement list; Steps preserves
// declaration order for deterministic linting and driver iteration.
type Flow struct {
	Name         string
	Accept       []Expr
	Steps        []Step
	Functions    []FunctionDef
	Imports      []Import
	instructions map[string][]Expr // step/function name -> body, built by Finalize
	functionArgs map[string][]string
}

// Finalize indexes Steps and Functions into lookup maps. The parser calls
// this once after building a Flow; callers that hand-construct a Flow (e.g.
// tests) must call it too before passing the Flow to the evaluator.
func (f *Flow) Finalize() {
	f.instructions = make(map[string][]Expr, len(f.Steps)+len(f.Functions))
	f.functionArgs = make(map[string][]string, len(f.Functions))
	for _, s := range f.Steps {
		f.instructions[s.Label] = s.Body
	}
	for _, fn := range f.Functions {
		f.instructions[fn.Name] = fn.Body
		f.functionArgs[fn.Name] = fn.Args
	}
}

// StepBody returns the statement list for a step or function name and
// whether it was found.
func (f *Flow) StepBody(name string) ([]Expr, bool) {
	body, ok := f.instructions[name]
	return body, ok
}

// FunctionArgs returns the declared parameter names for a function name.
func (f *Flow) FunctionArgs(name string) ([]string, bool) {
	args, ok := f.functionArgs[name]
	return args, ok
}

// HasStep reports whether name is a declared step label (not a function).
func (f *Flow) HasStep(name string) bool {
	for _, s := range f.Steps {
		if s.Label == name {
			return true
		}
	}
	return false
}

// StepNames returns every declared step label, in declaration order.
func (f *Flow) StepNames() []string {
	names := make([]string, len(f.Steps))
	for i, s := range f.Steps {
		names[i] = s.Label
	}
	return names
}
