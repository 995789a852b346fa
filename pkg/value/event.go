package value

import "encoding/json"

// Event is the incoming trigger for one evaluator turn, per spec.md §6.
// Content carries the event payload (e.g. the user's text, or a button
// payload); Metadata is read-only ambient data merged into the evaluation
// Scope's lowest-priority lookup tier.
type Event struct {
	ContentType string
	Content     Value
	Metadata    map[string]Value
	TTLDuration *int
}

type eventWire struct {
	ContentType string           `json:"content_type"`
	Content     Value            `json:"content"`
	Metadata    map[string]Value `json:"metadata,omitempty"`
	TTLDuration *int             `json:"ttl_duration,omitempty"`
}

// MarshalJSON renders Event per spec.md §6's Event JSON shape.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventWire{
		ContentType: e.ContentType,
		Content:     e.Content,
		Metadata:    e.Metadata,
		TTLDuration: e.TTLDuration,
	})
}

// UnmarshalJSON decodes Event per spec.md §6.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w eventWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Metadata == nil {
		w.Metadata = make(map[string]Value)
	}
	*e = Event{
		ContentType: w.ContentType,
		Content:     w.Content,
		Metadata:    w.Metadata,
		TTLDuration: w.TTLDuration,
	}
	return nil
}
