package value

// StepKind distinguishes the three shapes a Context's current position can
// take, mirroring original_source/csml_interpreter/src/data/context.rs's
// ContextStepInfo enum.
type StepKind int

const (
	// StepNormal is an ordinary step lookup within the current flow.
	StepNormal StepKind = iota
	// StepUnknownFlow marks a step requested in a flow that does not
	// exist; the evaluator still carries a step name so diagnostics stay
	// positioned, but resolution will fail with UnknownFlow.
	StepUnknownFlow
	// StepInserted marks a step injected from another flow (a `goto`
	// across flow boundaries), carrying that flow's name alongside the
	// step.
	StepInserted
)

// StepInfo names the step the interpreter is at or transitioning to.
type StepInfo struct {
	Kind StepKind
	Step string
	Flow string // meaningful only when Kind == StepInserted
}

// NewStep builds an ordinary StepNormal reference.
func NewStep(name string) StepInfo { return StepInfo{Kind: StepNormal, Step: name} }

// GetStep returns the step name regardless of Kind.
func (s StepInfo) GetStep() string { return s.Step }

// IsStep reports whether s names the given step.
func (s StepInfo) IsStep(name string) bool { return s.Step == name }

// Hold is the suspension marker created by the `hold` builtin and consumed
// on resume. Index addresses an instruction position within the exact
// scope named by (FlowName, StepName); StepVars is a snapshot of the
// step-local memory at the moment of suspension.
type Hold struct {
	Index    int
	StepVars map[string]Value
	StepName string
	FlowName string
}

// PreviousBot records the bot/flow/step a conversation was transferred
// from, carried across a cross-bot handoff.
type PreviousBot struct {
	Bot  string
	Flow string
	Step string
}

// APIInfo is host-supplied ambient context (endpoint/credentials) made
// available to extensions and native components without threading it
// through every call explicitly.
type APIInfo struct {
	AppsEndpoint string
	ClientID     string
}

// Context is the per-conversation mutable state threaded through every
// evaluator turn. Current and Metadata are keyed value maps; Current
// survives across steps and turns (it is the persistent memory written by
// `remember`), Metadata is read-only input supplied with the triggering
// event.
type Context struct {
	Current     map[string]Value
	Metadata    map[string]Value
	APIInfo     *APIInfo
	Hold        *Hold
	Step        StepInfo
	Flow        string
	PreviousBot *PreviousBot
}

// NewContext builds a fresh Context positioned at the start of flow/step,
// with empty persistent and metadata memory.
func NewContext(flow, step string) *Context {
	return &Context{
		Current:  make(map[string]Value),
		Metadata: make(map[string]Value),
		Step:     NewStep(step),
		Flow:     flow,
	}
}

// Child builds the Context for a pushed evaluation frame (a function or
// imported-function call): it inherits APIInfo, Step, and Flow, per
// spec.md §4.6 ("push a new Data frame with a fresh Context inheriting
// api_info, step, flow"), but shares the same Current/Metadata maps,
// since those are conversation-wide persistent state, not step-local.
func (c *Context) Child() *Context {
	return &Context{
		Current:     c.Current,
		Metadata:    c.Metadata,
		APIInfo:     c.APIInfo,
		Step:        c.Step,
		Flow:        c.Flow,
		PreviousBot: c.PreviousBot,
	}
}
