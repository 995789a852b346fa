package evaluator

import (
	"fmt"
	"strings"

	"github.com/csml-lang/interpreter/pkg/ast"
	"github.com/csml-lang/interpreter/pkg/value"
)

// evalReserved evaluates one of the lexer-level reserved calls:
// say/ask/retry/import, per spec.md §4.1/§4.5.
//
// import is a no-op at runtime: it is lexed as an ordinary ReservedFunc and
// parsed like any other reserved call (internal/parser's collectImports
// comment), but its only effect is the static Flow.Imports index the
// parser already built; evaluating it produces nothing.
//
// say emits its argument as one or more messages. ask and retry do the
// same, then suspend exactly like the `hold` builtin (spec.md §8 scenario
// 4: "ask ... issues a Hold"); retry shares ask's contract since nothing in
// the retrieved corpus distinguishes them beyond the name, and both read
// naturally as "pose this to the user and wait for a reply".
func evalReserved(f *Frame, n ast.ReservedExpr) (value.Value, error) {
	switch n.Func {
	case "import":
		return value.Null, nil

	case "say", "ask", "retry":
		if err := emitReservedArg(f, n.Arg); err != nil {
			return value.Value{}, err
		}
		if n.Func != "say" {
			f.Msg.SetExit(value.ExitHold)
		}
		return value.Null, nil

	default:
		return value.Value{}, f.fail(n.Pos, fmt.Errorf("InternalError: unknown reserved function %q", n.Func))
	}
}

// emitReservedArg runs arg per spec.md's reserved grammar
// (`RESERVED_FUNC (block | call_group | var_expr)`). A nil arg emits
// nothing. A VecExpr — whether it came from a brace block of statements or
// a parenthesized call_group of values — has each item evaluated in order
// as a full statement, so conditionals/remembers inside a say block run
// for effect while value-producing items are each emitted as their own
// message; evaluation stops early if an item sets a terminal exit
// condition. Any other arg shape is evaluated once and emitted as a single
// message.
func emitReservedArg(f *Frame, arg ast.Expr) error {
	if arg == nil {
		return nil
	}
	vec, ok := arg.(ast.VecExpr)
	if !ok {
		val, err := Eval(f, arg)
		if err != nil {
			return err
		}
		emitValueAsMessage(f, val)
		return nil
	}
	for _, item := range vec.Items {
		val, err := Eval(f, item)
		if err != nil {
			return err
		}
		if f.Msg.Exit != value.ExitNone || f.PendingGoto != "" {
			return nil
		}
		if isValueProducing(item) {
			emitValueAsMessage(f, val)
		}
	}
	return nil
}

// isValueProducing reports whether item's evaluation represents a message
// payload rather than a control-flow or memory statement run purely for
// effect.
func isValueProducing(item ast.Expr) bool {
	switch item.(type) {
	case ast.GotoExpr, ast.RememberExpr, ast.IfExpr:
		return false
	default:
		return true
	}
}

// emitValueAsMessage streams val with a content type derived from its own
// ContentType tag (lower-cased, e.g. a Text(...) component), falling back
// to "text" for a plain value such as a string literal.
func emitValueAsMessage(f *Frame, val value.Value) {
	contentType := strings.ToLower(val.ContentType)
	if contentType == "" {
		contentType = "text"
	}
	f.EmitMessage(contentType, val)
}
