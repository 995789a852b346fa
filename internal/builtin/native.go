package builtin

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/csml-lang/interpreter/pkg/value"
)

// NativeComponent is a host-registered component name and its declared
// argument schema. The evaluator routes a call to an unrecognised builtin
// name found in a Registry through Build instead of failing with
// UnknownBuiltin, per spec.md §4.5 ("the evaluator routes unknown builtin
// names that appear in this map through a single generic native_builtin
// that validates args against the schema").
type NativeComponent struct {
	Name   string
	Schema *jsonschema.Schema

	resolved *jsonschema.Resolved
}

// Registry is the host-supplied mapping from component name to its schema.
type Registry map[string]*NativeComponent

// NewNativeComponent registers a native component under name with an
// optional schema; a nil schema skips validation entirely.
func NewNativeComponent(name string, schema *jsonschema.Schema) *NativeComponent {
	return &NativeComponent{Name: name, Schema: schema}
}

func (c *NativeComponent) resolve() (*jsonschema.Resolved, error) {
	if c.Schema == nil {
		return nil, nil
	}
	if c.resolved != nil {
		return c.resolved, nil
	}
	resolved, err := c.Schema.Resolve(nil)
	if err != nil {
		return nil, fmt.Errorf("InternalError: native component %q has an invalid schema: %w", c.Name, err)
	}
	c.resolved = resolved
	return resolved, nil
}

// Build validates bound against the component's declared schema (if any)
// and produces the Object value the call returns, tagged with
// ContentType == c.Name.
func (c *NativeComponent) Build(bound map[string]value.Value) (value.Value, error) {
	resolved, err := c.resolve()
	if err != nil {
		return value.Value{}, err
	}
	keys := keysOf(bound)
	if resolved != nil {
		instance, err := toJSONInstance(keys, bound)
		if err != nil {
			return value.Value{}, fmt.Errorf("InternalError: native component %q: %w", c.Name, err)
		}
		if err := resolved.Validate(instance); err != nil {
			return value.Value{}, fmt.Errorf("ArgBindingError: native component %q: %w", c.Name, err)
		}
	}
	return value.NewObject(c.Name, keys, bound), nil
}

func toJSONInstance(keys []string, bound map[string]value.Value) (any, error) {
	raw, err := value.NewObject("", keys, bound).MarshalJSON()
	if err != nil {
		return nil, err
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return nil, err
	}
	return instance, nil
}

func keysOf(m map[string]value.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
