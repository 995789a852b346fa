// Package bot implements the top-level driver named in spec.md §4.7: the
// opaque bot bundle, a per-call lazy flow cache, and the outer loop that
// drives goto/hold/end transitions between steps until a turn reaches a
// terminal condition.
package bot

import (
	"github.com/csml-lang/interpreter/internal/builtin"
	"github.com/csml-lang/interpreter/internal/extension"
)

// FlowSource is one flow's raw source text, keyed by its declared name.
type FlowSource struct {
	Name    string
	Content string
}

// Bundle is the evaluator's view of a bot, per spec.md §6's "Bot bundle
// input: {flows, native_components?, custom_components?, default_flow}".
// Persistence, versioning, and the host API surface that produces a Bundle
// are out of scope (spec.md §1's "opaque bot-loader"); internal/store
// supplies one concrete Loader.
type Bundle struct {
	Flows       []FlowSource
	DefaultFlow string

	// NativeComponents are host-declared, schema-validated components
	// (images, cards, anything the host renders from typed data).
	NativeComponents builtin.Registry

	// CustomComponents are host-supplied in-process callables, registered
	// into the evaluator's extension.Host under their own names rather than
	// validated against a schema — the "custom" counterpart to
	// NativeComponents' declarative data shapes.
	CustomComponents map[string]extension.Func
}
