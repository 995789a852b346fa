// Package mock provides an in-memory mock implementation of
// [extension.Host] for use in evaluator and bot tests.
//
// Set Results/Errors before use; inspect Calls after, following the
// teacher's injectable-result mock style (pkg/audio/mock).
package mock

import (
	"context"
	"sync"

	"github.com/csml-lang/interpreter/internal/extension"
	"github.com/csml-lang/interpreter/pkg/token"
	"github.com/csml-lang/interpreter/pkg/value"
)

// Call records the arguments of a single Host.Call invocation.
type Call struct {
	Name string
	Args map[string]value.Value
	Pos  token.Interval
}

// Host is a mock implementation of [extension.Host].
type Host struct {
	mu sync.Mutex

	// Results maps an extension name to the Value its call returns.
	Results map[string]value.Value

	// Errors maps an extension name to the error its call returns. Checked
	// before Results.
	Errors map[string]error

	// Registered tracks every name registered via RegisterFunc or
	// RegisterServer (the latter recorded as "server:<cfg.Name>").
	Registered []string

	// Calls records every Host.Call invocation, in order.
	Calls []Call

	// CloseCalled records whether Close was invoked.
	CloseCalled bool
}

var _ extension.Host = (*Host)(nil)

// New returns a ready-to-use mock Host.
func New() *Host {
	return &Host{Results: map[string]value.Value{}, Errors: map[string]error{}}
}

func (h *Host) RegisterServer(_ context.Context, cfg extension.ServerConfig) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Registered = append(h.Registered, "server:"+cfg.Name)
	return nil
}

func (h *Host) RegisterFunc(name string, _ extension.Func) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Registered = append(h.Registered, name)
}

func (h *Host) Names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	names := make([]string, 0, len(h.Results)+len(h.Registered))
	seen := map[string]bool{}
	for _, n := range h.Registered {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	return names
}

// Call records the invocation and returns the configured Errors[name] (if
// set) or Results[name], mirroring a real Host's UnknownExtension error for
// a name with neither configured.
func (h *Host) Call(_ context.Context, name string, args map[string]value.Value, pos token.Interval, _ *extension.Data) (value.Value, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Calls = append(h.Calls, Call{Name: name, Args: args, Pos: pos})
	if err, ok := h.Errors[name]; ok {
		return value.Value{}, err
	}
	if v, ok := h.Results[name]; ok {
		return v, nil
	}
	return value.Value{}, &UnknownExtensionError{Name: name}
}

func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.CloseCalled = true
	return nil
}

// UnknownExtensionError mirrors the real Registry's UnknownExtension error
// shape for a mock with no configured result for the called name.
type UnknownExtensionError struct{ Name string }

func (e *UnknownExtensionError) Error() string {
	return "UnknownExtension: " + e.Name
}
