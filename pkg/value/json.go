package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ParseJSON decodes a JSON document into a Value, using json.Number
// throughout so an integral literal ("3") round-trips as KindInt rather
// than collapsing every number into KindFloat the way encoding/json's
// default interface{} decoding would.
func ParseJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, err
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null, nil
	case bool:
		return NewBool(t), nil
	case string:
		return NewString(t), nil
	case json.Number:
		return numberToValue(t), nil
	case json.Delim:
		switch t {
		case '[':
			var items []Value
			for dec.More() {
				item, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return Value{}, err
			}
			return NewArray(items), nil
		case '{':
			var keys []string
			obj := make(map[string]Value)
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("TypeError: object key must be a string")
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, err
				}
				keys = append(keys, key)
				obj[key] = val
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return Value{}, err
			}
			return NewObject("", keys, obj), nil
		}
	}
	return Value{}, fmt.Errorf("InternalError: unexpected JSON token %v", tok)
}

func numberToValue(n json.Number) Value {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return NewInt(i)
		}
	}
	f, _ := n.Float64()
	return NewFloat(f)
}

// MarshalJSON renders v as plain JSON: the wire shape the Context
// "current"/"metadata" maps and event/message content fields use. Object
// key order is preserved via Keys rather than Go's randomized map
// iteration.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindNull:
		return []byte("null"), nil
	case KindInt:
		return json.Marshal(v.Int)
	case KindFloat:
		return json.Marshal(v.Float)
	case KindBool:
		return json.Marshal(v.Bool)
	case KindString:
		return json.Marshal(v.Str)
	case KindArray:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.Array {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindObject:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range v.Keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := v.Object[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	case KindClosure:
		return json.Marshal(map[string]string{"flow": v.Closure.FlowName, "func": v.Closure.FuncName})
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes into v via ParseJSON's json.Number-preserving path.
func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := ParseJSON(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

type stepWire struct {
	Step string `json:"step"`
	Flow string `json:"flow,omitempty"`
}

// MarshalJSON renders StepInfo as the structured object form spec.md's
// Open Question resolution mandates for the Context wire boundary: a
// bare string is never emitted, only {"step":..., "flow":...} (Flow
// present only for an inserted cross-flow step).
func (s StepInfo) MarshalJSON() ([]byte, error) {
	w := stepWire{Step: s.Step}
	if s.Kind == StepInserted {
		w.Flow = s.Flow
	}
	return json.Marshal(w)
}

// UnmarshalJSON rejects the bare-string step form (a TypeError per
// spec.md's Open Question resolution) and otherwise decodes the
// structured {"step":..., "flow":...} object, inferring StepInserted from
// the presence of a non-empty flow field.
func (s *StepInfo) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		return fmt.Errorf("TypeError: context.step must be the structured {step, flow} form, not a bare string")
	}
	var w stepWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Flow != "" {
		*s = StepInfo{Kind: StepInserted, Step: w.Step, Flow: w.Flow}
	} else {
		*s = StepInfo{Kind: StepNormal, Step: w.Step}
	}
	return nil
}

type holdWire struct {
	Index    int              `json:"index"`
	StepVars map[string]Value `json:"step_vars"`
	StepName string           `json:"step_name"`
	FlowName string           `json:"flow_name"`
}

func (h Hold) MarshalJSON() ([]byte, error) {
	return json.Marshal(holdWire{Index: h.Index, StepVars: h.StepVars, StepName: h.StepName, FlowName: h.FlowName})
}

func (h *Hold) UnmarshalJSON(data []byte) error {
	var w holdWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*h = Hold{Index: w.Index, StepVars: w.StepVars, StepName: w.StepName, FlowName: w.FlowName}
	return nil
}

type contextWire struct {
	Current     map[string]Value `json:"current"`
	Metadata    map[string]Value `json:"metadata"`
	Flow        string           `json:"flow"`
	Step        StepInfo         `json:"step"`
	Hold        *Hold            `json:"hold"`
	PreviousBot *PreviousBot     `json:"previous_bot,omitempty"`
}

// MarshalJSON renders Context per spec.md §6's Context JSON shape.
func (c Context) MarshalJSON() ([]byte, error) {
	return json.Marshal(contextWire{
		Current:     c.Current,
		Metadata:    c.Metadata,
		Flow:        c.Flow,
		Step:        c.Step,
		Hold:        c.Hold,
		PreviousBot: c.PreviousBot,
	})
}

// UnmarshalJSON decodes Context per spec.md §6; APIInfo is host-process
// state, never carried on the wire, and is left nil.
func (c *Context) UnmarshalJSON(data []byte) error {
	var w contextWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Current == nil {
		w.Current = make(map[string]Value)
	}
	if w.Metadata == nil {
		w.Metadata = make(map[string]Value)
	}
	*c = Context{
		Current:     w.Current,
		Metadata:    w.Metadata,
		Flow:        w.Flow,
		Step:        w.Step,
		Hold:        w.Hold,
		PreviousBot: w.PreviousBot,
	}
	return nil
}
