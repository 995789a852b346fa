package evaluator

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/csml-lang/interpreter/internal/observe"
	"github.com/csml-lang/interpreter/pkg/ast"
	"github.com/csml-lang/interpreter/pkg/value"
)

// ExecuteStep runs body starting at startIndex (0 on a fresh step entry,
// Hold.Index on resume), stopping at the first statement that sets a
// terminal exit condition, per spec.md §4.6 ("the evaluator iterates them
// from instruction_index ... evaluating a terminal statement sets
// msg.exit_condition and returns immediately").
//
// Returning with f.Msg.Exit == value.ExitNone means body ran to completion
// without a goto/hold; the caller (internal/bot's outer driver) treats
// that as the implicit End fallthrough named in spec.md §4.6.
//
// When f.Metrics is set, ExecuteStep opens one child span per step
// execution and records a step-transition counter keyed by how the step
// ended (goto_step/goto_flow/hold/end/fallthrough/error), per SPEC_FULL.md B.1
// ("one child span per step execution" / "steps executed, holds created,
// errors raised").
func ExecuteStep(f *Frame, body []ast.Expr, startIndex int) error {
	ctx := f.ctx
	if f.Metrics != nil {
		var span trace.Span
		ctx, span = observe.StartSpan(ctx, "csml.step.execute")
		defer span.End()
	}

	for i := startIndex; i < len(body); i++ {
		if _, err := Eval(f, body[i]); err != nil {
			f.recordStepTransition(ctx, "error")
			return err
		}
		if f.Msg.Exit == value.ExitHold {
			f.Context.Hold = &value.Hold{
				Index:    i + 1,
				StepVars: f.Scope.Snapshot(),
				StepName: f.Context.Step.GetStep(),
				FlowName: f.FlowName,
			}
			f.Emit(SenderEvent{Kind: SenderHold, Flow: f.FlowName, Step: f.Context.Step.GetStep()})
			f.recordStepTransition(ctx, "hold")
			return nil
		}
		if f.Msg.Exit == value.ExitGoto {
			next := SenderEvent{Kind: SenderNext, Flow: f.FlowName}
			kind := "goto_step"
			if f.PendingGotoIsFlow {
				next.Flow = f.PendingGoto
				kind = "goto_flow"
			} else {
				next.Step = f.PendingGoto
			}
			f.Emit(next)
			f.recordStepTransition(ctx, kind)
			return nil
		}
		if f.Msg.Exit != value.ExitNone {
			f.recordStepTransition(ctx, "end")
			return nil
		}
	}
	f.recordStepTransition(ctx, "fallthrough")
	return nil
}

// recordStepTransition increments Metrics.StepTransitions when Metrics is
// set; a nil Metrics is a no-op, matching Sender's "correct when absent"
// rule spec.md §9 states for the streaming sink.
func (f *Frame) recordStepTransition(ctx context.Context, kind string) {
	if f.Metrics == nil {
		return
	}
	f.Metrics.RecordStepTransition(ctx, kind)
}
