package evaluator

import (
	"fmt"
	"strings"

	"github.com/csml-lang/interpreter/pkg/ast"
	"github.com/csml-lang/interpreter/pkg/token"
	"github.com/csml-lang/interpreter/pkg/value"
)

// applyPath resolves a chain of field/index/method accesses against root,
// in order, per spec.md §4.4/§4.6. Path access on a non-object is a
// TypeError; an array index out of bounds is an IndexError; a missing
// object key yields null rather than an error.
func applyPath(f *Frame, root value.Value, path []ast.PathStep) (value.Value, error) {
	cur := root
	for _, step := range path {
		var err error
		switch s := step.State.(type) {
		case ast.FieldAccess:
			cur, err = applyFieldAccess(f, cur, s, step.Pos)
		case ast.IndexAccess:
			cur, err = applyIndexAccess(f, cur, s, step.Pos)
		case ast.MethodCall:
			cur, err = applyMethodCall(f, cur, s, step.Pos)
		default:
			err = f.fail(step.Pos, fmt.Errorf("InternalError: unknown path state %T", step.State))
		}
		if err != nil {
			return value.Value{}, err
		}
	}
	return cur, nil
}

func applyFieldAccess(f *Frame, root value.Value, s ast.FieldAccess, pos token.Interval) (value.Value, error) {
	if root.Kind != value.KindObject {
		return value.Value{}, f.fail(pos, fmt.Errorf("TypeError: cannot access field %q on %s", s.Name, root.Kind))
	}
	val, _ := root.Get(s.Name)
	return val, nil
}

func applyIndexAccess(f *Frame, root value.Value, s ast.IndexAccess, pos token.Interval) (value.Value, error) {
	if root.Kind != value.KindArray {
		return value.Value{}, f.fail(pos, fmt.Errorf("TypeError: cannot index into %s", root.Kind))
	}
	idxVal, err := Eval(f, s.Index)
	if err != nil {
		return value.Value{}, err
	}
	if idxVal.Kind != value.KindInt {
		return value.Value{}, f.fail(pos, fmt.Errorf("TypeError: array index must be an int, got %s", idxVal.Kind))
	}
	val, ok := root.Index(int(idxVal.Int))
	if !ok {
		return value.Value{}, f.fail(pos, fmt.Errorf("IndexError: index %d out of bounds", idxVal.Int))
	}
	return val, nil
}

// applyMethodCall dispatches one of the small set of built-in methods
// callable at the end of a path chain. Neither spec.md nor the retrieved
// original_source enumerates this set (resolve_path/exec_path_actions were
// not part of the retrieved sources), so this is a minimal, documented
// selection covering the operations every CSML script realistically needs:
// length/contains on strings and arrays, and keys on objects.
func applyMethodCall(f *Frame, root value.Value, s ast.MethodCall, pos token.Interval) (value.Value, error) {
	args := make([]value.Value, len(s.Args.Args))
	for i, a := range s.Args.Args {
		val, err := Eval(f, a.Value)
		if err != nil {
			return value.Value{}, err
		}
		args[i] = val
	}

	switch s.Name {
	case "length":
		switch root.Kind {
		case value.KindString:
			return value.NewInt(int64(len([]rune(root.Str)))), nil
		case value.KindArray:
			return value.NewInt(int64(len(root.Array))), nil
		case value.KindObject:
			return value.NewInt(int64(len(root.Keys))), nil
		default:
			return value.Value{}, f.fail(pos, fmt.Errorf("TypeError: %s has no length", root.Kind))
		}
	case "contains":
		if len(args) != 1 {
			return value.Value{}, f.fail(pos, fmt.Errorf("ArgBindingError: contains: expected 1 argument, got %d", len(args)))
		}
		switch root.Kind {
		case value.KindString:
			if args[0].Kind != value.KindString {
				return value.Value{}, f.fail(pos, fmt.Errorf("TypeError: contains: expected a string argument"))
			}
			return value.NewBool(strings.Contains(root.Str, args[0].Str)), nil
		case value.KindArray:
			for _, item := range root.Array {
				if item.Equal(args[0]) {
					return value.NewBool(true), nil
				}
			}
			return value.NewBool(false), nil
		default:
			return value.Value{}, f.fail(pos, fmt.Errorf("TypeError: %s has no contains method", root.Kind))
		}
	case "keys":
		if root.Kind != value.KindObject {
			return value.Value{}, f.fail(pos, fmt.Errorf("TypeError: %s has no keys", root.Kind))
		}
		items := make([]value.Value, len(root.Keys))
		for i, k := range root.Keys {
			items[i] = value.NewString(k)
		}
		return value.NewArray(items), nil
	default:
		return value.Value{}, f.fail(pos, fmt.Errorf("UnknownBuiltin: method %q", s.Name))
	}
}

