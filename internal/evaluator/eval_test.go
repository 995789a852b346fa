package evaluator_test

import (
	"context"
	"testing"

	"github.com/csml-lang/interpreter/internal/evaluator"
	evmock "github.com/csml-lang/interpreter/internal/evaluator/mock"
	extmock "github.com/csml-lang/interpreter/internal/extension/mock"
	"github.com/csml-lang/interpreter/internal/lexer"
	"github.com/csml-lang/interpreter/internal/parser"
	"github.com/csml-lang/interpreter/pkg/ast"
	"github.com/csml-lang/interpreter/pkg/value"
)

func parseFlow(t *testing.T, name, src string) *ast.Flow {
	t.Helper()
	flow, err := parser.Parse(lexer.Lex([]byte(src)))
	if err != nil {
		t.Fatalf("parse(%q): %v", src, err)
	}
	flow.Name = name
	return flow
}

func newFrame(t *testing.T, flows evmock.FlowProvider, flowName string, sender evaluator.Sender) *evaluator.Frame {
	t.Helper()
	cctx := value.NewContext(flowName, "start")
	ev := &value.Event{ContentType: "text", Content: value.NewString("yes")}
	return evaluator.NewFrame(context.Background(), flows, flowName, cctx, ev, sender, nil, extmock.New(), nil)
}

func TestEval_InfixComparisons(t *testing.T) {
	t.Parallel()
	flow := parseFlow(t, "default", `start: if (1 < 2) { remember ok = True }`)
	f := newFrame(t, evmock.FlowProvider{"default": flow}, "default", nil)

	body, _ := flow.StepBody("start")
	if err := evaluator.ExecuteStep(f, body, 0); err != nil {
		t.Fatalf("ExecuteStep: %v", err)
	}
	if ok, _ := f.Scope.Resolve("ok"); !ok.Truthy() {
		t.Fatalf("expected ok to be remembered truthy, got %#v", ok)
	}
}

func TestEval_EventIdentifier(t *testing.T) {
	t.Parallel()
	flow := parseFlow(t, "default", `start: if (event == "yes") { remember matched = True }`)
	f := newFrame(t, evmock.FlowProvider{"default": flow}, "default", nil)

	body, _ := flow.StepBody("start")
	if err := evaluator.ExecuteStep(f, body, 0); err != nil {
		t.Fatalf("ExecuteStep: %v", err)
	}
	if v, ok := f.Scope.Resolve("matched"); !ok || !v.Truthy() {
		t.Fatalf("expected matched, got %#v ok=%v", v, ok)
	}
}

func TestEval_PathIndexOutOfBounds(t *testing.T) {
	t.Parallel()
	flow := parseFlow(t, "default", `start: remember list = [1, 2] say list[5]`)
	f := newFrame(t, evmock.FlowProvider{"default": flow}, "default", nil)

	body, _ := flow.StepBody("start")
	err := evaluator.ExecuteStep(f, body, 0)
	if err == nil {
		t.Fatal("expected an IndexError")
	}
}

func TestEval_UnknownBuiltinDispatch(t *testing.T) {
	t.Parallel()
	flow := parseFlow(t, "default", `start: NotARealComponent(value="x")`)
	f := newFrame(t, evmock.FlowProvider{"default": flow}, "default", nil)

	body, _ := flow.StepBody("start")
	err := evaluator.ExecuteStep(f, body, 0)
	if err == nil {
		t.Fatal("expected UnknownBuiltin")
	}
}

func TestEval_ExtensionCallThroughMockHost(t *testing.T) {
	t.Parallel()
	flow := parseFlow(t, "default", `start: extension(name="greet", who="Ada")`)

	host := extmock.New()
	host.Results["greet"] = value.NewString("hello Ada")

	cctx := value.NewContext("default", "start")
	sender := &evmock.Sender{}
	f := evaluator.NewFrame(context.Background(), evmock.FlowProvider{"default": flow}, "default", cctx, &value.Event{}, sender, nil, host, nil)

	body, _ := flow.StepBody("start")
	if err := evaluator.ExecuteStep(f, body, 0); err != nil {
		t.Fatalf("ExecuteStep: %v", err)
	}
	if len(host.Calls) != 1 || host.Calls[0].Name != "greet" {
		t.Fatalf("host.Calls = %#v", host.Calls)
	}
	if host.Calls[0].Args["who"].Str != "Ada" {
		t.Fatalf("forwarded args = %#v", host.Calls[0].Args)
	}
}
