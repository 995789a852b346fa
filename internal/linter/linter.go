package linter

import (
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/csml-lang/interpreter/pkg/ast"
)

// Lint statically checks every flow in a bundle. The four checks named in
// spec.md §4.3 (goto targets, imports, duplicate declarations, unused
// remembers) are independent of one another, so they run concurrently via
// errgroup and their diagnostics are merged once all four finish. Lint
// never returns an error: a malformed bundle is reported through Result,
// not through a Go error return, matching "linting never throws".
func Lint(flows map[string]*ast.Flow, defaultFlow string) *Result {
	names := make([]string, 0, len(flows))
	for name := range flows {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := []func([]string, map[string]*ast.Flow) []Diagnostic{
		checkGotoTargets,
		checkImports,
		checkDuplicates,
		checkUnusedRemember,
	}
	found := make([][]Diagnostic, len(checks))
	var mu sync.Mutex // guards nothing shared beyond each goroutine's own slot; kept for clarity if checks grow shared state
	var g errgroup.Group
	for i, check := range checks {
		i, check := i, check
		g.Go(func() error {
			diags := check(names, flows)
			mu.Lock()
			found[i] = diags
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // checks never return an error

	result := &Result{Flows: flows}
	for _, diags := range found {
		for _, d := range diags {
			if d.Severity == SeverityError {
				result.Errors = append(result.Errors, d)
			} else {
				result.Warnings = append(result.Warnings, d)
			}
		}
	}

	if _, ok := flows[defaultFlow]; !ok {
		result.Errors = append(result.Errors, Diagnostic{
			Severity: SeverityError,
			Kind:     "UnknownFlow",
			Flow:     defaultFlow,
			Message:  fmt.Sprintf("default flow %q not found in bundle", defaultFlow),
		})
	}

	sortDiagnostics(result.Warnings)
	sortDiagnostics(result.Errors)
	return result
}
