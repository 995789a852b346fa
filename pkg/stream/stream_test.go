package stream_test

import (
	"testing"
	"time"

	"github.com/csml-lang/interpreter/internal/evaluator"
	"github.com/csml-lang/interpreter/pkg/stream"
)

func TestSender_PreservesOrder(t *testing.T) {
	s := stream.New(stream.WithBufferSize(8))
	for i := range 5 {
		s.Send(evaluator.SenderEvent{Kind: evaluator.SenderMessage, Flow: string(rune('a' + i))})
	}
	s.Close()

	var got []string
	for ev := range s.Events() {
		got = append(got, ev.Flow)
	}
	want := []string{"a", "b", "c", "d", "e"}
	if len(got) != len(want) {
		t.Fatalf("got %d events, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: got %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSender_NeverBlocks(t *testing.T) {
	s := stream.New(stream.WithBufferSize(2))
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 100 {
			s.Send(evaluator.SenderEvent{Kind: evaluator.SenderMessage})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked with no reader draining the channel")
	}

	if s.Dropped() == 0 {
		t.Error("expected some events to be dropped once the buffer filled")
	}
}

func TestSender_CloseIsIdempotent(t *testing.T) {
	s := stream.New()
	s.Close()
	s.Close()
}

func TestSender_SendAfterCloseIsNoop(t *testing.T) {
	s := stream.New(stream.WithBufferSize(1))
	s.Close()
	s.Send(evaluator.SenderEvent{Kind: evaluator.SenderEnd})
	if s.Dropped() != 0 {
		t.Errorf("send-after-close should not count as a drop, got %d", s.Dropped())
	}
}

func TestDrain_ConsumesAllEvents(t *testing.T) {
	s := stream.New(stream.WithBufferSize(4))
	s.Send(evaluator.SenderEvent{Kind: evaluator.SenderMessage})
	s.Send(evaluator.SenderEvent{Kind: evaluator.SenderEnd})
	s.Close()

	done := make(chan struct{})
	go func() {
		stream.Drain(s.Events())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Drain did not return after channel close")
	}
}
