// Package builtin implements CSML's fixed builtin set and argument
// binding. Evaluating an argument's expression is the evaluator's job;
// this package only binds already-evaluated values to declared parameter
// names and constructs the component Value a builtin call produces.
package builtin

import (
	"fmt"

	"github.com/csml-lang/interpreter/pkg/ast"
	"github.com/csml-lang/interpreter/pkg/value"
)

// Names lists the fixed builtin set named in spec.md §4.5. say/ask/retry
// are lexed as ReservedFunc tokens and never reach this package directly;
// goto/remember/as are their own ast.Expr kinds (GotoExpr/RememberExpr/
// ObjectExpr). hold, use, extension, and the component builtins below are
// the ones the evaluator actually dispatches through its dispatchBuiltin.
var Names = map[string]bool{
	"hold":      true,
	"use":       true,
	"extension": true,
	"Text":      true,
	"Image":     true,
	"Video":     true,
	"Audio":     true,
	"File":      true,
	"Button":    true,
	"Question":  true,
	"Card":      true,
	"Carousel":  true,
	"Url":       true,
}

// Param is one declared parameter of a builtin's call signature.
type Param struct {
	Name     string
	Required bool
}

// Spec is a builtin's call signature: the name used in error messages and
// its ordered parameter list (the order positional arguments bind by).
type Spec struct {
	Name   string
	Params []Param
}

// Bind matches already-evaluated argument values against spec's
// parameters. args supplies the call shape (positional vs named, and
// which name each value was written under); values holds the
// corresponding evaluated value.Value for each args.Args entry, in the
// same order. A positional argument binds to spec.Params by its index
// among the positional arguments (the grammar only allows positional
// arguments before any named one, so this index is unambiguous); a named
// argument binds by name directly.
func Bind(spec Spec, args ast.ArgList, values []value.Value) (map[string]value.Value, error) {
	if len(args.Args) != len(values) {
		return nil, fmt.Errorf("InternalError: %s: %d args but %d evaluated values", spec.Name, len(args.Args), len(values))
	}
	bound := make(map[string]value.Value, len(spec.Params))
	positionalIndex := 0
	for i, a := range args.Args {
		if a.Name == "" {
			if positionalIndex >= len(spec.Params) {
				return nil, fmt.Errorf("ArgBindingError: %s: too many positional arguments", spec.Name)
			}
			bound[spec.Params[positionalIndex].Name] = values[i]
			positionalIndex++
			continue
		}
		if !hasParam(spec, a.Name) {
			return nil, fmt.Errorf("ArgBindingError: %s: unknown argument %q", spec.Name, a.Name)
		}
		bound[a.Name] = values[i]
	}
	for _, p := range spec.Params {
		if p.Required {
			if _, ok := bound[p.Name]; !ok {
				return nil, fmt.Errorf("ArgBindingError: %s: missing required argument %q", spec.Name, p.Name)
			}
		}
	}
	return bound, nil
}

func hasParam(spec Spec, name string) bool {
	for _, p := range spec.Params {
		if p.Name == name {
			return true
		}
	}
	return false
}
