package builtin

import (
	"fmt"

	"github.com/csml-lang/interpreter/pkg/ast"
	"github.com/csml-lang/interpreter/pkg/value"
)

// HoldSpec is the `hold` builtin: takes no arguments, suspends evaluation
// at the caller's current instruction index.
var HoldSpec = Spec{Name: "hold"}

// UseSpec binds a single positional value into step_vars under a new
// name, the "Use-kind memory" binding spec.md §4.6 describes for
// function-call arguments.
var UseSpec = Spec{Name: "use", Params: []Param{{Name: "value", Required: true}}}

// BindExtensionArgs separates the `extension(name=…, …)` call's "name"
// selector from its forwarded payload: every other argument (positional
// or named) passes through untouched, since internal/extension's callees
// define their own argument shape that this package has no visibility
// into. "name" may be given positionally (the first argument) or by its
// own name.
func BindExtensionArgs(args ast.ArgList, values []value.Value) (name string, forwarded map[string]value.Value, err error) {
	if len(args.Args) != len(values) {
		return "", nil, fmt.Errorf("InternalError: extension: %d args but %d evaluated values", len(args.Args), len(values))
	}
	forwarded = make(map[string]value.Value, len(args.Args))
	haveName := false
	for i, a := range args.Args {
		key := a.Name
		if key == "" && !haveName {
			key = "name"
		}
		if key == "name" {
			if values[i].Kind != value.KindString {
				return "", nil, fmt.Errorf("TypeError: extension: \"name\" must be a string")
			}
			name = values[i].Str
			haveName = true
			continue
		}
		forwarded[key] = values[i]
	}
	if !haveName {
		return "", nil, fmt.Errorf("ArgBindingError: extension: missing required argument \"name\"")
	}
	return name, forwarded, nil
}
