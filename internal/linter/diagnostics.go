// Package linter statically checks a parsed CSML bundle without executing
// it: undefined goto targets, unresolved imports, duplicate declarations,
// and unused remembered values.
package linter

import (
	"fmt"
	"sort"

	"github.com/csml-lang/interpreter/pkg/ast"
	"github.com/csml-lang/interpreter/pkg/token"
)

// Severity distinguishes a finding that blocks execution from one that is
// merely informational.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is one positioned finding. Kind matches the error taxonomy
// tags named in spec.md §7 where applicable (UnknownStep, UnknownFlow,
// LintError); unused-remember warnings use "UnusedRemember" since the
// taxonomy has no dedicated tag for it.
type Diagnostic struct {
	Severity Severity
	Kind     string
	Flow     string
	Message  string
	Pos      token.Interval
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s:%d:%d: %s [%s]", d.Severity, d.Flow, d.Pos.StartLine, d.Pos.StartColumn, d.Message, d.Kind)
}

// Result is the linter's output: the bundle it checked plus the
// diagnostics found, split by severity. Per spec.md §4.3, linting never
// throws — a Result is always returned, even for a bundle riddled with
// errors.
type Result struct {
	Flows    map[string]*ast.Flow
	Warnings []Diagnostic
	Errors   []Diagnostic
}

// OK reports whether the bundle has no errors (warnings do not block
// execution).
func (r *Result) OK() bool { return len(r.Errors) == 0 }

func sortDiagnostics(diags []Diagnostic) {
	sort.Slice(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Flow != b.Flow {
			return a.Flow < b.Flow
		}
		if a.Pos.StartLine != b.Pos.StartLine {
			return a.Pos.StartLine < b.Pos.StartLine
		}
		return a.Pos.StartColumn < b.Pos.StartColumn
	})
}
