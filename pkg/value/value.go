// Package value implements the CSML runtime value model: the tagged
// Primitive union, truthiness/equality/ordering rules, per-conversation
// Context, suspension markers, and the three-tier memory scope used to
// resolve an identifier against step-local, persistent, and metadata
// memory.
package value

import (
	"fmt"
	"strings"

	"github.com/csml-lang/interpreter/pkg/token"
)

// Kind identifies the primitive variant carried by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindBool
	KindString
	KindArray
	KindObject
	KindClosure
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindClosure:
		return "closure"
	default:
		return "unknown"
	}
}

// Closure is a reference to a named, callable function: a user-defined
// function in FlowName, or an imported one resolved through it.
type Closure struct {
	FlowName string
	FuncName string
}

// Value is one CSML runtime value. Exactly the fields matching Kind are
// meaningful; the rest are zero. ContentType is a free-form domain tag
// (e.g. "question", "text") carried by component-producing builtins for
// the host renderer; it is empty for ordinary data values.
type Value struct {
	Kind        Kind
	ContentType string
	Pos         token.Interval

	Int     int64
	Float   float64
	Bool    bool
	Str     string
	Array   []Value
	Keys    []string // Object key order, preserved from construction
	Object  map[string]Value
	Closure Closure
}

// Null is the shared null value.
var Null = Value{Kind: KindNull}

func NewInt(n int64) Value         { return Value{Kind: KindInt, Int: n} }
func NewFloat(f float64) Value     { return Value{Kind: KindFloat, Float: f} }
func NewBool(b bool) Value         { return Value{Kind: KindBool, Bool: b} }
func NewString(s string) Value     { return Value{Kind: KindString, Str: s} }
func NewArray(items []Value) Value { return Value{Kind: KindArray, Array: items} }

// NewClosure builds a Closure-kind value referencing a function by name,
// optionally scoped to the flow it was declared in.
func NewClosure(flow, fn string) Value {
	return Value{Kind: KindClosure, Closure: Closure{FlowName: flow, FuncName: fn}}
}

// NewObject builds an Object value from ordered keys and their values.
// keys and values must be the same length; duplicate keys keep the last
// occurrence's value but the first occurrence's position in Keys.
func NewObject(contentType string, keys []string, values map[string]Value) Value {
	ordered := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		ordered = append(ordered, k)
	}
	return Value{Kind: KindObject, ContentType: contentType, Keys: ordered, Object: values}
}

// Get reads a field from an Object value. Reading a missing key, or
// indexing a non-object, returns Null and false: the evaluator maps a
// missing key to Null per spec, and a non-object root is rejected earlier
// by the path-access TypeError check.
func (v Value) Get(name string) (Value, bool) {
	if v.Kind != KindObject {
		return Null, false
	}
	val, ok := v.Object[name]
	return val, ok
}

// Index reads a positional element from an Array value. The caller is
// responsible for the IndexError out-of-bounds check; Index itself just
// reports whether i is in range.
func (v Value) Index(i int) (Value, bool) {
	if v.Kind != KindArray || i < 0 || i >= len(v.Array) {
		return Null, false
	}
	return v.Array[i], true
}

// Truthy implements the falsy set named in spec.md §4.4: null, false, 0,
// 0.0, empty string, and empty array/object are falsy; everything else
// (including a non-empty array of falsy elements) is truthy.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindBool:
		return v.Bool
	case KindInt:
		return v.Int != 0
	case KindFloat:
		return v.Float != 0
	case KindString:
		return v.Str != ""
	case KindArray:
		return len(v.Array) != 0
	case KindObject:
		return len(v.Object) != 0
	case KindClosure:
		return true
	default:
		return false
	}
}

// Equal implements structural equality on compatible primitives. Values
// of incompatible kinds compare unequal rather than erroring, per
// spec.md §4.4 ("on incompatible types it is false (not an error)").
// Int and Float are compatible with each other for equality purposes,
// matching how the reference interpreter compares numeric literals.
func (a Value) Equal(b Value) bool {
	if a.Kind == KindInt && b.Kind == KindFloat {
		return float64(a.Int) == b.Float
	}
	if a.Kind == KindFloat && b.Kind == KindInt {
		return a.Float == float64(b.Int)
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindInt:
		return a.Int == b.Int
	case KindFloat:
		return a.Float == b.Float
	case KindBool:
		return a.Bool == b.Bool
	case KindString:
		return a.Str == b.Str
	case KindArray:
		if len(a.Array) != len(b.Array) {
			return false
		}
		for i := range a.Array {
			if !a.Array[i].Equal(b.Array[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.Object) != len(b.Object) {
			return false
		}
		for k, av := range a.Object {
			bv, ok := b.Object[k]
			if !ok || !av.Equal(bv) {
				return false
			}
		}
		return true
	case KindClosure:
		return a.Closure == b.Closure
	default:
		return false
	}
}

// numeric reports whether v can participate in an ordered comparison and
// its value as a float64.
func (v Value) numeric() (float64, bool) {
	switch v.Kind {
	case KindInt:
		return float64(v.Int), true
	case KindFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

// Compare evaluates a strictly-ordered comparison (<, >, <=, >=) between
// two values. Per spec.md §4.4, ordering on non-numeric or mixed-kind
// operands is a runtime TypeError rather than a silent false.
func Compare(a, b Value) (int, error) {
	af, aok := a.numeric()
	bf, bok := b.numeric()
	if !aok || !bok {
		return 0, fmt.Errorf("TypeError: cannot order %s and %s", a.Kind, b.Kind)
	}
	switch {
	case af < bf:
		return -1, nil
	case af > bf:
		return 1, nil
	default:
		return 0, nil
	}
}

// CoerceString renders v as the text CSML substitutes into a
// ComplexLiteral splice segment. Composite kinds fall back to a compact
// JSON-ish rendering; no Go author-visible implementation detail (e.g.
// Go's %v struct formatting) leaks through.
func (v Value) CoerceString() string {
	switch v.Kind {
	case KindNull:
		return ""
	case KindInt:
		return fmt.Sprintf("%d", v.Int)
	case KindFloat:
		return fmt.Sprintf("%g", v.Float)
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindString:
		return v.Str
	case KindArray:
		parts := make([]string, len(v.Array))
		for i, item := range v.Array {
			parts[i] = item.CoerceString()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindObject:
		parts := make([]string, 0, len(v.Keys))
		for _, k := range v.Keys {
			parts = append(parts, k+": "+v.Object[k].CoerceString())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindClosure:
		return v.Closure.FuncName
	default:
		return ""
	}
}
