// Package evaluator implements the CSML tree-walking interpreter: expression
// evaluation, path application, call dispatch (native component / builtin /
// local function / imported function), and single-step execution with
// goto/hold control flow, per spec.md §4.6.
//
// The package never reads or parses CSML source itself; it is handed already
//-parsed flows through the [FlowProvider] it is constructed with, mirroring
// the teacher's layering where the interpreter loop never owns I/O.
package evaluator

import (
	"context"
	"sync"

	"github.com/csml-lang/interpreter/internal/builtin"
	"github.com/csml-lang/interpreter/internal/extension"
	"github.com/csml-lang/interpreter/internal/observe"
	"github.com/csml-lang/interpreter/internal/resilience"
	"github.com/csml-lang/interpreter/pkg/ast"
	"github.com/csml-lang/interpreter/pkg/token"
	"github.com/csml-lang/interpreter/pkg/value"
)

// FlowProvider resolves a flow by name to its parsed AST, lazily parsing and
// caching on a cache miss. internal/bot supplies the concrete implementation;
// the evaluator only depends on this interface so it never imports the
// lexer or parser directly.
type FlowProvider interface {
	Flow(name string) (*ast.Flow, error)
}

// SenderEvent is one unit of streamed output, per spec.md §5's "Message,
// Next{flow?, step?}, Hold, Error, End" channel events.
type SenderEvent struct {
	Kind    SenderEventKind
	Message value.Message
	Flow    string
	Step    string
	Err     *value.RuntimeError
}

// SenderEventKind distinguishes the events enqueued on a Sender.
type SenderEventKind int

const (
	SenderMessage SenderEventKind = iota
	SenderNext
	SenderHold
	SenderError
	SenderEnd
)

// Sender is the optional streaming sink described in spec.md §5 and §9
// ("an optional sink with a non-blocking send; the evaluator must be correct
// when the sink is absent"). Implementations must not block the evaluator
// and must tolerate a dropped or absent receiver.
type Sender interface {
	Send(SenderEvent)
}

// Frame is the evaluator's "Data" evaluation frame (spec.md §3): everything
// needed to evaluate one expression or run one step. A function call or
// imported-function call pushes a child Frame with a fresh Scope over a
// child Context, sharing everything else.
type Frame struct {
	Flows      FlowProvider
	FlowName   string
	Context    *value.Context
	Scope      *value.Scope
	Event      *value.Event
	Msg        *value.MessageData
	Sender     Sender
	Natives    builtin.Registry
	Extensions extension.Host
	Breakers   *BreakerGroup
	Metrics    *observe.Metrics

	// PendingGoto and PendingGotoIsFlow record a goto's resolved target once
	// evalGoto sets exit condition Goto; internal/bot's outer driver reads
	// these to mutate Context, then clears PendingGoto before the next step.
	PendingGoto       string
	PendingGotoIsFlow bool

	ctx context.Context
}

// NewFrame builds the root evaluation frame for one interpret call. metrics
// may be nil, in which case the evaluator records no counters/histograms,
// per the same "correct when absent" rule spec.md §9 states for Sender.
func NewFrame(ctx context.Context, flows FlowProvider, flowName string, cctx *value.Context, ev *value.Event, sender Sender, natives builtin.Registry, extensions extension.Host, metrics *observe.Metrics) *Frame {
	return &Frame{
		Flows:      flows,
		FlowName:   flowName,
		Context:    cctx,
		Scope:      value.NewScope(cctx),
		Event:      ev,
		Msg:        &value.MessageData{},
		Sender:     sender,
		Natives:    natives,
		Extensions: extensions,
		Breakers:   NewBreakerGroup(),
		Metrics:    metrics,
		ctx:        ctx,
	}
}

// Child builds the pushed frame for a user-defined or imported function
// call: a fresh Scope over a child Context, inheriting everything else, per
// spec.md §4.6 ("push a new Data frame with a fresh Context inheriting
// api_info, step, flow").
func (f *Frame) Child(flowName string) *Frame {
	child := *f
	child.FlowName = flowName
	child.Context = f.Context.Child()
	child.Scope = value.NewScope(child.Context)
	return &child
}

// Emit streams ev on Sender if one is set; a nil Sender silently drops it,
// matching spec.md §9's "correct when the sink is absent". Frame's own
// message emission goes through EmitMessage below.
func (f *Frame) Emit(ev SenderEvent) {
	if f.Sender != nil {
		f.Sender.Send(ev)
	}
}

// EmitMessage appends a message to Msg and streams it, in that order, so
// the two never observe a different sequence.
func (f *Frame) EmitMessage(contentType string, content value.Value) {
	f.Msg.Emit(contentType, content)
	f.Emit(SenderEvent{Kind: SenderMessage, Message: value.Message{ContentType: contentType, Content: content}})
	if f.Metrics != nil {
		f.Metrics.RecordMessageEmitted(f.ctx, contentType)
	}
}

// BreakerGroup lazily allocates one [resilience.RetryBudget] per extension
// name, so a failing extension cannot be called in a tight failure loop
// without backing off, while healthy extensions are unaffected. Each
// budget allows a bounded number of immediate retries on top of its own
// circuit breaker; CSML has no second extension to fail over to (an
// `extension(name=…)` call always names exactly one callable), so there is
// no fallback chain here, only retry-then-give-up.
type BreakerGroup struct {
	mu      sync.Mutex
	budgets map[string]*resilience.RetryBudget
}

// NewBreakerGroup builds an empty BreakerGroup.
func NewBreakerGroup() *BreakerGroup {
	return &BreakerGroup{budgets: make(map[string]*resilience.RetryBudget)}
}

// Get returns the retry budget for name, creating it with default tuning
// on first use.
func (g *BreakerGroup) Get(name string) *resilience.RetryBudget {
	g.mu.Lock()
	defer g.mu.Unlock()
	rb, ok := g.budgets[name]
	if !ok {
		rb = resilience.NewRetryBudget("extension:"+name, 2, resilience.CircuitBreakerConfig{})
		g.budgets[name] = rb
	}
	return rb
}

// fail builds a positioned *value.RuntimeError from err at pos, the single
// chokepoint every evaluator error path routes through.
func (f *Frame) fail(pos token.Interval, err error) *value.RuntimeError {
	return value.NewRuntimeError(f.FlowName, pos, err)
}

// Fail positions err (at a step boundary, so an empty interval), records it
// on Msg as the turn's terminal condition, and streams the matching
// SenderError/SenderEnd pair, per spec.md §7 ("a runtime error aborts the
// current step ... sets exit_condition = Error"). internal/bot's outer
// driver calls this for both evaluation errors and its own UnknownFlow/
// UnknownStep failures, so every error path funnels through one place.
func (f *Frame) Fail(err error) *value.RuntimeError {
	re := f.fail(token.Interval{}, err)
	f.Msg.SetError(re)
	f.Emit(SenderEvent{Kind: SenderError, Flow: f.FlowName, Err: re})
	f.Emit(SenderEvent{Kind: SenderEnd, Flow: f.FlowName})
	if f.Metrics != nil {
		f.Metrics.RecordRuntimeError(f.ctx, re.Kind)
	}
	return re
}

// End marks the turn terminal with exit condition End and streams the
// matching SenderEnd event. stepName is the step the turn ended at, used
// only to label the event.
func (f *Frame) End(stepName string) {
	f.Msg.SetExit(value.ExitEnd)
	f.Emit(SenderEvent{Kind: SenderEnd, Flow: f.FlowName, Step: stepName})
}

// Fallthrough records the implicit End reached when a step's body runs to
// completion without a goto or hold, per spec.md §4.6 ("fallthrough: set
// context.step = "end", exit condition End, emit a Next{step:"end"}"). An
// explicit `goto end` never reaches this path: ExecuteStep's own Goto
// handling already streams that transition's SenderNext, so Fallthrough
// only needs to synthesize one for the implicit case.
func (f *Frame) Fallthrough(stepName string) {
	f.Emit(SenderEvent{Kind: SenderNext, Flow: f.FlowName, Step: "end"})
	f.End(stepName)
}
