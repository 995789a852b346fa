package bot_test

import (
	"context"
	"testing"

	"github.com/csml-lang/interpreter/internal/bot"
	"github.com/csml-lang/interpreter/pkg/value"
)

func newBundle(flows map[string]string, defaultFlow string) *bot.Bundle {
	b := &bot.Bundle{DefaultFlow: defaultFlow}
	for name, content := range flows {
		b.Flows = append(b.Flows, bot.FlowSource{Name: name, Content: content})
	}
	return b
}

func TestInterpret_Hello(t *testing.T) {
	t.Parallel()
	bundle := newBundle(map[string]string{
		"default": `start: say "hi" goto end`,
	}, "default")

	cctx := value.NewContext("default", "start")
	msg := bot.Interpret(context.Background(), bundle, cctx, &value.Event{}, nil, nil, nil)

	if msg.Exit != value.ExitEnd {
		t.Fatalf("exit = %v, want End", msg.Exit)
	}
	if len(msg.Messages) != 1 || msg.Messages[0].ContentType != "text" {
		t.Fatalf("messages = %#v", msg.Messages)
	}
	if msg.Messages[0].Content.Str != "hi" {
		t.Fatalf("content = %#v", msg.Messages[0].Content)
	}
}

func TestInterpret_HoldAndResume(t *testing.T) {
	t.Parallel()
	bundle := newBundle(map[string]string{
		"default": `
start: ask "what is your name" remember name = event goto next
next: say name goto end
`,
	}, "default")

	cctx := value.NewContext("default", "start")
	msg := bot.Interpret(context.Background(), bundle, cctx, &value.Event{}, nil, nil, nil)
	if msg.Exit != value.ExitHold {
		t.Fatalf("exit = %v, want Hold", msg.Exit)
	}
	if cctx.Hold == nil {
		t.Fatal("expected Hold to be recorded on the context")
	}

	resumeEvent := &value.Event{ContentType: "text", Content: value.NewString("Ada")}
	msg = bot.Interpret(context.Background(), bundle, cctx, resumeEvent, nil, nil, nil)
	if msg.Exit != value.ExitEnd {
		t.Fatalf("exit after resume = %v, want End", msg.Exit)
	}
	if len(msg.Messages) != 1 || msg.Messages[0].Content.Str != "Ada" {
		t.Fatalf("messages after resume = %#v", msg.Messages)
	}
	if got := cctx.Current["name"].Str; got != "Ada" {
		t.Fatalf("remembered name = %q, want Ada", got)
	}
}

func TestInterpret_UnknownStep(t *testing.T) {
	t.Parallel()
	bundle := newBundle(map[string]string{
		"default": `start: goto nowhere`,
	}, "default")

	cctx := value.NewContext("default", "start")
	msg := bot.Interpret(context.Background(), bundle, cctx, &value.Event{}, nil, nil, nil)
	if msg.Exit != value.ExitError {
		t.Fatalf("exit = %v, want Error", msg.Exit)
	}
	if msg.Err == nil || msg.Err.Kind != "UnknownStep" {
		t.Fatalf("err = %#v, want UnknownStep", msg.Err)
	}
}

func TestInterpret_GotoAnotherFlow(t *testing.T) {
	t.Parallel()
	bundle := newBundle(map[string]string{
		"default": `start: goto other`,
		"other":   `start: say "from other" goto end`,
	}, "default")

	cctx := value.NewContext("default", "start")
	msg := bot.Interpret(context.Background(), bundle, cctx, &value.Event{}, nil, nil, nil)
	if msg.Exit != value.ExitEnd {
		t.Fatalf("exit = %v, want End", msg.Exit)
	}
	if len(msg.Messages) != 1 || msg.Messages[0].Content.Str != "from other" {
		t.Fatalf("messages = %#v", msg.Messages)
	}
	if cctx.Flow != "other" {
		t.Fatalf("cctx.Flow = %q, want other", cctx.Flow)
	}
}
