package value

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/csml-lang/interpreter/pkg/token"
)

// knownKinds is the error taxonomy named in spec.md §7. Every error that
// crosses a package boundary inside this module is formatted with one of
// these tags as a "Kind: message" prefix, the convention pkg/value and
// internal/builtin already use for their own fmt.Errorf calls.
var knownKinds = map[string]bool{
	"LexError":         true,
	"ParseError":       true,
	"LintError":        true,
	"TypeError":        true,
	"IndexError":       true,
	"UnknownBuiltin":   true,
	"UnknownExtension": true,
	"UnknownFlow":      true,
	"UnknownStep":      true,
	"ArgBindingError":  true,
	"ExtensionError":   true,
	"InternalError":    true,
}

// RuntimeError is a positioned runtime error: the thing a failed step or
// expression evaluation turns into per spec.md §7 ("Parse, lint, and
// runtime errors are all positioned: they carry {flow, interval}").
type RuntimeError struct {
	Kind    string
	Flow    string
	Pos     token.Interval
	Message string
}

// Error implements the standard error interface in addition to
// RuntimeError's JSON shape, per spec.md §7's "positioned CSML errors
// implement the standard error interface in addition to carrying
// {Kind, Flow, Interval}".
func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s: %s:%d:%d: %s", e.Kind, e.Flow, e.Pos.StartLine, e.Pos.StartColumn, e.Message)
}

// NewRuntimeError positions err inside flow at pos. If err is already a
// *RuntimeError it is returned unchanged (the innermost position wins); err
// carrying a known "Kind: " prefix (the convention used by pkg/value and
// internal/builtin) has that prefix promoted to Kind and stripped from
// Message, otherwise Kind defaults to InternalError — the taxonomy's
// catch-all for "an invariant was broken".
func NewRuntimeError(flow string, pos token.Interval, err error) *RuntimeError {
	if re, ok := err.(*RuntimeError); ok {
		return re
	}
	msg := err.Error()
	kind := "InternalError"
	if idx := strings.Index(msg, ": "); idx > 0 {
		if candidate := msg[:idx]; knownKinds[candidate] {
			kind = candidate
			msg = msg[idx+2:]
		}
	}
	return &RuntimeError{Kind: kind, Flow: flow, Pos: pos, Message: msg}
}

type errorPosition struct {
	Flow     string        `json:"flow"`
	Interval token.Interval `json:"interval"`
}

type errorWire struct {
	Kind     string         `json:"kind"`
	Position errorPosition  `json:"position"`
	Message  string         `json:"message"`
}

// MarshalJSON renders e per spec.md §6's error JSON shape:
// {"kind":string, "position":{"flow":…,"interval":…}, "message":string}.
func (e *RuntimeError) MarshalJSON() ([]byte, error) {
	return json.Marshal(errorWire{
		Kind:     e.Kind,
		Position: errorPosition{Flow: e.Flow, Interval: e.Pos},
		Message:  e.Message,
	})
}
