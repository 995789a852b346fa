package store

import (
	"context"
	"fmt"

	"github.com/csml-lang/interpreter/internal/bot"
)

// Loader adapts a [Store] into a [bot.Loader], resolving a bot ID to its
// latest stored version. Custom in-process components
// ([bot.Bundle.CustomComponents]) are never persisted — they're Go
// callables the host supplies at startup — so Loader always returns a
// Bundle with a nil CustomComponents map; callers that need custom
// components should wrap Loader or populate the returned Bundle themselves.
type Loader struct {
	store Store
}

// Compile-time interface check.
var _ bot.Loader = (*Loader)(nil)

// NewLoader builds a Loader over store.
func NewLoader(store Store) *Loader {
	return &Loader{store: store}
}

// Load resolves botID to its latest stored version and returns it as a
// [bot.Bundle]. Returns an error if the bot has no stored versions.
func (l *Loader) Load(ctx context.Context, botID string) (*bot.Bundle, error) {
	v, err := l.store.Latest(ctx, botID)
	if err != nil {
		return nil, fmt.Errorf("store: load %q: %w", botID, err)
	}
	if v == nil {
		return nil, fmt.Errorf("InternalError: unknown bot id %q", botID)
	}
	return &bot.Bundle{
		Flows:            v.Flows,
		DefaultFlow:      v.DefaultFlow,
		NativeComponents: v.NativeComponents,
	}, nil
}
