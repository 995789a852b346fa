package parser

import (
	"fmt"

	"github.com/csml-lang/interpreter/pkg/token"
)

// Error is a positioned grammar violation. The evaluator's error taxonomy
// reports this under the ParseError kind.
type Error struct {
	Pos token.Interval
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at line %d, column %d: %s", e.Pos.StartLine, e.Pos.StartColumn, e.Msg)
}

func newError(pos token.Interval, format string, args ...any) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
