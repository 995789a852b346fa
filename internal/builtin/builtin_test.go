package builtin_test

import (
	"testing"

	"github.com/csml-lang/interpreter/internal/builtin"
	"github.com/csml-lang/interpreter/pkg/ast"
	"github.com/csml-lang/interpreter/pkg/value"
)

func TestBindPositional(t *testing.T) {
	t.Parallel()
	spec := builtin.Spec{Name: "Text", Params: []builtin.Param{{Name: "value", Required: true}}}
	args := ast.ArgList{Kind: ast.ArgsNormal, Args: []ast.Arg{{Value: nil}}}
	bound, err := builtin.Bind(spec, args, []value.Value{value.NewString("hi")})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if bound["value"].Str != "hi" {
		t.Fatalf("bound = %#v", bound)
	}
}

func TestBindNamed(t *testing.T) {
	t.Parallel()
	spec := builtin.Spec{Name: "Button", Params: []builtin.Param{{Name: "title", Required: true}, {Name: "payload"}}}
	args := ast.ArgList{Kind: ast.ArgsNamed, Args: []ast.Arg{{Name: "payload"}, {Name: "title"}}}
	bound, err := builtin.Bind(spec, args, []value.Value{value.NewString("p"), value.NewString("t")})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if bound["title"].Str != "t" || bound["payload"].Str != "p" {
		t.Fatalf("bound = %#v", bound)
	}
}

func TestBindPositionalThenNamed(t *testing.T) {
	t.Parallel()
	spec := builtin.Spec{Name: "Image", Params: []builtin.Param{{Name: "value", Required: true}, {Name: "title"}}}
	args := ast.ArgList{Kind: ast.ArgsNamed, Args: []ast.Arg{{Name: ""}, {Name: "title"}}}
	bound, err := builtin.Bind(spec, args, []value.Value{value.NewString("img.png"), value.NewString("cover")})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if bound["value"].Str != "img.png" || bound["title"].Str != "cover" {
		t.Fatalf("bound = %#v", bound)
	}
}

func TestBindMissingRequired(t *testing.T) {
	t.Parallel()
	spec := builtin.Spec{Name: "Text", Params: []builtin.Param{{Name: "value", Required: true}}}
	_, err := builtin.Bind(spec, ast.ArgList{}, nil)
	if err == nil {
		t.Fatal("expected ArgBindingError for missing required argument")
	}
}

func TestBindUnknownNamedArgument(t *testing.T) {
	t.Parallel()
	spec := builtin.Spec{Name: "Text", Params: []builtin.Param{{Name: "value", Required: true}}}
	args := ast.ArgList{Kind: ast.ArgsNamed, Args: []ast.Arg{{Name: "bogus"}}}
	_, err := builtin.Bind(spec, args, []value.Value{value.NewString("x")})
	if err == nil {
		t.Fatal("expected ArgBindingError for unknown named argument")
	}
}

func TestBindTooManyPositional(t *testing.T) {
	t.Parallel()
	spec := builtin.Spec{Name: "Audio", Params: []builtin.Param{{Name: "value", Required: true}}}
	args := ast.ArgList{Args: []ast.Arg{{}, {}}}
	_, err := builtin.Bind(spec, args, []value.Value{value.NewString("a"), value.NewString("b")})
	if err == nil {
		t.Fatal("expected ArgBindingError for too many positional arguments")
	}
}

func TestBuildComponent(t *testing.T) {
	t.Parallel()
	v := builtin.BuildComponent("Text", map[string]value.Value{"value": value.NewString("hi")})
	if v.ContentType != "Text" {
		t.Fatalf("ContentType = %q, want Text", v.ContentType)
	}
	got, ok := v.Get("value")
	if !ok || got.Str != "hi" {
		t.Fatalf("value = %#v, %v", got, ok)
	}
}

func TestComponentSpecLookup(t *testing.T) {
	t.Parallel()
	if _, ok := builtin.ComponentSpec("Text"); !ok {
		t.Fatal("expected Text to be a known component")
	}
	if _, ok := builtin.ComponentSpec("Bogus"); ok {
		t.Fatal("expected Bogus to be unknown")
	}
}

func TestBindExtensionArgsPositionalName(t *testing.T) {
	t.Parallel()
	args := ast.ArgList{Args: []ast.Arg{{}, {Name: "query"}}}
	name, forwarded, err := builtin.BindExtensionArgs(args, []value.Value{value.NewString("lookup"), value.NewString("weather")})
	if err != nil {
		t.Fatalf("BindExtensionArgs: %v", err)
	}
	if name != "lookup" {
		t.Fatalf("name = %q, want lookup", name)
	}
	if forwarded["query"].Str != "weather" {
		t.Fatalf("forwarded = %#v", forwarded)
	}
}

func TestBindExtensionArgsNamedName(t *testing.T) {
	t.Parallel()
	args := ast.ArgList{Kind: ast.ArgsNamed, Args: []ast.Arg{{Name: "name"}, {Name: "query"}}}
	name, forwarded, err := builtin.BindExtensionArgs(args, []value.Value{value.NewString("lookup"), value.NewString("weather")})
	if err != nil {
		t.Fatalf("BindExtensionArgs: %v", err)
	}
	if name != "lookup" || forwarded["query"].Str != "weather" {
		t.Fatalf("name=%q forwarded=%#v", name, forwarded)
	}
}

func TestBindExtensionArgsMissingName(t *testing.T) {
	t.Parallel()
	_, _, err := builtin.BindExtensionArgs(ast.ArgList{}, nil)
	if err == nil {
		t.Fatal("expected ArgBindingError for missing name")
	}
}

func TestNativeComponentWithoutSchemaSkipsValidation(t *testing.T) {
	t.Parallel()
	c := builtin.NewNativeComponent("weather_widget", nil)
	v, err := c.Build(map[string]value.Value{"city": value.NewString("ankara")})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if v.ContentType != "weather_widget" {
		t.Fatalf("ContentType = %q", v.ContentType)
	}
}
