package bot

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/csml-lang/interpreter/internal/evaluator"
	"github.com/csml-lang/interpreter/internal/extension"
	"github.com/csml-lang/interpreter/internal/observe"
	"github.com/csml-lang/interpreter/pkg/value"
)

// Interpret runs one turn of a bot bundle against cctx/ev, per spec.md
// §4.6/§4.7's outer loop: resolve the active step, run it, then follow
// Goto/Hold/End/Error to either drive another step or return. cctx is
// mutated in place (Flow, Step, Hold) so the caller can persist it as the
// bot's memory for the next turn; the returned MessageData is this turn's
// output.
//
// extensions may be nil, in which case a bare [extension.Registry] is
// created and populated from bundle.CustomComponents; sender may be nil,
// per spec.md §5's "correct when the sink is absent". metrics may also be
// nil, in which case no span or counter is recorded for this turn.
//
// When metrics is set, Interpret opens one span covering the whole call
// per SPEC_FULL.md B.1 ("one span per interpret() call"); internal/evaluator
// opens the per-step child spans underneath it.
func Interpret(ctx context.Context, bundle *Bundle, cctx *value.Context, ev *value.Event, sender evaluator.Sender, extensions extension.Host, metrics *observe.Metrics) *value.MessageData {
	if metrics != nil {
		var span trace.Span
		ctx, span = observe.StartSpan(ctx, "csml.interpret")
		defer span.End()
	}

	if cctx.Flow == "" {
		cctx.Flow = bundle.DefaultFlow
	}
	if cctx.Step.GetStep() == "" {
		cctx.Step = value.NewStep("start")
	}

	if extensions == nil {
		extensions = extension.NewRegistry()
	}
	for name, fn := range bundle.CustomComponents {
		extensions.RegisterFunc(name, fn)
	}

	cache := NewFlowCache(bundle)
	f := evaluator.NewFrame(ctx, cache, cctx.Flow, cctx, ev, sender, bundle.NativeComponents, extensions, metrics)

	for {
		stepName := cctx.Step.GetStep()
		if stepName == "end" {
			// Reached via an explicit `goto end`: ExecuteStep already streamed
			// that transition's SenderNext, so only the terminal End remains.
			f.End(stepName)
			return f.Msg
		}

		flow, err := cache.Flow(f.FlowName)
		if err != nil {
			f.Fail(err)
			return f.Msg
		}

		body, ok := flow.StepBody(stepName)
		if !ok {
			f.Fail(fmt.Errorf("UnknownStep: %q", stepName))
			return f.Msg
		}

		startIndex := 0
		if cctx.Hold != nil && cctx.Hold.FlowName == f.FlowName && cctx.Hold.StepName == stepName {
			startIndex = cctx.Hold.Index
			f.Scope.Restore(cctx.Hold.StepVars)
			cctx.Hold = nil
		} else {
			f.Scope.Reset()
		}

		f.PendingGoto = ""
		f.PendingGotoIsFlow = false

		if err := evaluator.ExecuteStep(f, body, startIndex); err != nil {
			f.Fail(err)
			return f.Msg
		}

		switch f.Msg.Exit {
		case value.ExitHold:
			return f.Msg

		case value.ExitGoto:
			if f.PendingGotoIsFlow {
				cctx.Flow = f.PendingGoto
				cctx.Step = value.NewStep("start")
			} else {
				cctx.Step = value.NewStep(f.PendingGoto)
			}
			f.FlowName = cctx.Flow
			f.Msg.Exit = value.ExitNone
			continue

		case value.ExitNone:
			f.Fallthrough(stepName)
			cctx.Step = value.NewStep("end")
			return f.Msg

		default:
			return f.Msg
		}
	}
}
