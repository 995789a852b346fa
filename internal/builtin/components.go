package builtin

import "github.com/csml-lang/interpreter/pkg/value"

// componentSpecs declares the ordered parameters of every component-
// forming builtin named in spec.md §4.5. "value" is the common first
// positional parameter across nearly all of them, matching the reference
// interpreter's builtins (each component wraps one primary payload plus a
// handful of optional named fields).
var componentSpecs = map[string]Spec{
	"Text":     {Name: "Text", Params: []Param{{Name: "value", Required: true}}},
	"Image":    {Name: "Image", Params: []Param{{Name: "value", Required: true}, {Name: "title"}}},
	"Video":    {Name: "Video", Params: []Param{{Name: "value", Required: true}, {Name: "title"}}},
	"Audio":    {Name: "Audio", Params: []Param{{Name: "value", Required: true}}},
	"File":     {Name: "File", Params: []Param{{Name: "value", Required: true}, {Name: "name"}}},
	"Url":      {Name: "Url", Params: []Param{{Name: "value", Required: true}, {Name: "title"}}},
	"Button":   {Name: "Button", Params: []Param{{Name: "title", Required: true}, {Name: "payload"}, {Name: "accepts"}}},
	"Question": {Name: "Question", Params: []Param{{Name: "buttons", Required: true}, {Name: "title"}}},
	"Card":     {Name: "Card", Params: []Param{{Name: "title", Required: true}, {Name: "buttons"}, {Name: "image"}}},
	"Carousel": {Name: "Carousel", Params: []Param{{Name: "cards", Required: true}}},
}

// ComponentSpec returns the declared signature for a component-forming
// builtin name, and whether name is one of them.
func ComponentSpec(name string) (Spec, bool) {
	spec, ok := componentSpecs[name]
	return spec, ok
}

// BuildComponent turns a bound argument map into the Object value a
// component builtin call produces: an ordered Object tagged with
// ContentType == name, the shape the host renderer switches on.
func BuildComponent(name string, bound map[string]value.Value) value.Value {
	spec := componentSpecs[name]
	keys := make([]string, 0, len(bound))
	for _, p := range spec.Params {
		if _, ok := bound[p.Name]; ok {
			keys = append(keys, p.Name)
		}
	}
	return value.NewObject(name, keys, bound)
}
