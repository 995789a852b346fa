package linter

import (
	"fmt"

	"github.com/csml-lang/interpreter/pkg/ast"
)

// checkGotoTargets warns when a `goto` names neither a step in the
// current flow nor a flow in the bundle.
func checkGotoTargets(names []string, flows map[string]*ast.Flow) []Diagnostic {
	var diags []Diagnostic
	for _, name := range names {
		flow := flows[name]
		stepNames := flow.StepNames()
		valid := make(map[string]bool, len(stepNames)+len(names))
		candidates := make([]string, 0, len(stepNames)+len(names))
		for _, s := range stepNames {
			valid[s] = true
			candidates = append(candidates, s)
		}
		for _, f := range names {
			if !valid[f] {
				valid[f] = true
				candidates = append(candidates, f)
			}
		}
		for _, body := range bodies(flow) {
			walkAll(body, func(e ast.Expr) {
				g, ok := e.(ast.GotoExpr)
				if !ok || valid[g.Target] {
					return
				}
				diags = append(diags, Diagnostic{
					Severity: SeverityWarning,
					Kind:     "UnknownStep",
					Flow:     name,
					Pos:      g.Interval(),
					Message: withSuggestion(
						fmt.Sprintf("goto target %q is neither a step in flow %q nor a flow in the bundle", g.Target, name),
						g.Target, candidates),
				})
			})
		}
	}
	return diags
}

// checkImports reports an import whose symbol cannot be found in its
// declared source flow (or anywhere in the bundle, when no source flow is
// named).
func checkImports(names []string, flows map[string]*ast.Flow) []Diagnostic {
	var diags []Diagnostic
	for _, name := range names {
		flow := flows[name]
		for _, imp := range flow.Imports {
			if imp.FromFlow != "" {
				src, ok := flows[imp.FromFlow]
				if !ok {
					diags = append(diags, Diagnostic{
						Severity: SeverityError,
						Kind:     "UnknownFlow",
						Flow:     name,
						Pos:      imp.Pos,
						Message:  withSuggestion(fmt.Sprintf("import from_flow %q not found in bundle", imp.FromFlow), imp.FromFlow, names),
					})
					continue
				}
				if _, ok := src.StepBody(imp.Name); !ok {
					diags = append(diags, Diagnostic{
						Severity: SeverityError,
						Kind:     "UnknownStep",
						Flow:     name,
						Pos:      imp.Pos,
						Message:  fmt.Sprintf("import %q not found in flow %q", imp.Name, imp.FromFlow),
					})
				}
				continue
			}
			found := false
			for _, candidate := range flows {
				if _, ok := candidate.StepBody(imp.Name); ok {
					found = true
					break
				}
			}
			if !found {
				diags = append(diags, Diagnostic{
					Severity: SeverityError,
					Kind:     "UnknownStep",
					Flow:     name,
					Pos:      imp.Pos,
					Message:  fmt.Sprintf("import %q not found in any flow in the bundle", imp.Name),
				})
			}
		}
	}
	return diags
}

// checkDuplicates reports duplicate step labels and duplicate function
// definitions within a single flow.
func checkDuplicates(names []string, flows map[string]*ast.Flow) []Diagnostic {
	var diags []Diagnostic
	for _, name := range names {
		flow := flows[name]
		seenSteps := make(map[string]bool, len(flow.Steps))
		for _, s := range flow.Steps {
			if seenSteps[s.Label] {
				diags = append(diags, Diagnostic{
					Severity: SeverityError,
					Kind:     "LintError",
					Flow:     name,
					Pos:      s.Pos,
					Message:  fmt.Sprintf("duplicate step label %q in flow %q", s.Label, name),
				})
				continue
			}
			seenSteps[s.Label] = true
		}
		seenFuncs := make(map[string]bool, len(flow.Functions))
		for _, fn := range flow.Functions {
			if seenFuncs[fn.Name] {
				diags = append(diags, Diagnostic{
					Severity: SeverityError,
					Kind:     "LintError",
					Flow:     name,
					Pos:      fn.Pos,
					Message:  fmt.Sprintf("duplicate function definition %q in flow %q", fn.Name, name),
				})
				continue
			}
			seenFuncs[fn.Name] = true
		}
	}
	return diags
}

// checkUnusedRemember warns on a `remember` whose name is never read
// anywhere else in the same flow.
func checkUnusedRemember(names []string, flows map[string]*ast.Flow) []Diagnostic {
	var diags []Diagnostic
	for _, name := range names {
		flow := flows[name]
		var remembers []ast.RememberExpr
		reads := make(map[string]bool)
		for _, body := range bodies(flow) {
			walkAll(body, func(e ast.Expr) {
				switch n := e.(type) {
				case ast.RememberExpr:
					remembers = append(remembers, n)
				case ast.IdentExpr:
					reads[n.Name] = true
				}
			})
		}
		for _, r := range remembers {
			if !reads[r.Name] {
				diags = append(diags, Diagnostic{
					Severity: SeverityWarning,
					Kind:     "UnusedRemember",
					Flow:     name,
					Pos:      r.Interval(),
					Message:  fmt.Sprintf("remembered value %q is never read in flow %q", r.Name, name),
				})
			}
		}
	}
	return diags
}
