package value

import "encoding/json"

// ExitCondition names why a turn's evaluation stopped producing messages,
// per spec.md §3's MessageData ("an ordered list of messages ... plus an
// optional exit_condition").
type ExitCondition int

const (
	// ExitNone means the turn has not (yet) reached a terminal condition;
	// MessageData in this state is an in-progress accumulator, never the
	// final result returned to a host.
	ExitNone ExitCondition = iota
	ExitGoto
	ExitHold
	ExitEnd
	ExitBreak
	ExitError
)

func (e ExitCondition) String() string {
	switch e {
	case ExitGoto:
		return "Goto"
	case ExitHold:
		return "Hold"
	case ExitEnd:
		return "End"
	case ExitBreak:
		return "Break"
	case ExitError:
		return "Error"
	default:
		return ""
	}
}

// Message is one host-renderable output unit produced by the evaluator.
type Message struct {
	ContentType string
	Content     Value
}

// MessageData is the evaluator's output for one turn: the ordered messages
// produced so far, plus the terminal ExitCondition once evaluation stops.
// An evaluator-internal MessageData is mutated in place across step/flow
// transitions via Emit and SetExit; only the value handed back to the host
// at the end of bot.Interpret is considered final.
type MessageData struct {
	Messages []Message
	Exit     ExitCondition
	Err      *RuntimeError
}

// Emit appends one message, in production order. Per spec.md §5 ("Ordering:
// messages appear on the channel in the exact order they were produced"),
// callers must never reorder or buffer-then-sort this slice.
func (m *MessageData) Emit(contentType string, content Value) {
	m.Messages = append(m.Messages, Message{ContentType: contentType, Content: content})
}

// SetExit records the terminal condition for this turn. Calling SetExit a
// second time is a no-op: the first terminal condition reached wins, since
// the evaluator's outer loop stops driving further steps once one is set.
func (m *MessageData) SetExit(exit ExitCondition) {
	if m.Exit == ExitNone {
		m.Exit = exit
	}
}

// SetError records exit as ExitError and the positioned failure that caused
// it, per spec.md §7 ("a runtime error aborts the current step ... and sets
// exit_condition = Error").
func (m *MessageData) SetError(err *RuntimeError) {
	m.Exit = ExitError
	m.Err = err
}

type messageWire struct {
	ContentType   string `json:"content_type"`
	Content       Value  `json:"content"`
	ExitCondition string `json:"exit_condition,omitempty"`
}

// MarshalJSON renders MessageData as the ordered array of {content_type,
// content} objects named in spec.md §6, with the terminal exit_condition
// attached to the final element ("the final one carries any
// exit_condition"). A turn that produced no messages but did reach a
// terminal condition (e.g. an immediate UnknownStep error) still emits one
// element carrying only the exit_condition.
func (m MessageData) MarshalJSON() ([]byte, error) {
	wires := make([]messageWire, len(m.Messages))
	for i, msg := range m.Messages {
		wires[i] = messageWire{ContentType: msg.ContentType, Content: msg.Content}
	}
	if m.Exit != ExitNone {
		if len(wires) == 0 {
			wires = append(wires, messageWire{Content: Null})
		}
		wires[len(wires)-1].ExitCondition = m.Exit.String()
	}
	return json.Marshal(wires)
}
