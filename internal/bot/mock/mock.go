// Package mock provides a mock implementation of [bot.Loader] for tests,
// following the teacher's injectable-result mock style (pkg/audio/mock,
// internal/agent/mock).
package mock

import (
	"context"
	"sync"

	"github.com/csml-lang/interpreter/internal/bot"
)

// Loader is a [bot.Loader] over a map of pre-built bundles, with call
// recording for assertions.
type Loader struct {
	mu sync.Mutex

	// Bundles maps a bot ID to the bundle Load returns for it.
	Bundles map[string]*bot.Bundle

	// Errors maps a bot ID to the error Load returns for it, checked
	// before Bundles.
	Errors map[string]error

	// Calls records every bot ID passed to Load, in order.
	Calls []string
}

var _ bot.Loader = (*Loader)(nil)

// New returns a ready-to-use mock Loader.
func New() *Loader {
	return &Loader{Bundles: map[string]*bot.Bundle{}, Errors: map[string]error{}}
}

// Load records botID and returns the configured Errors[botID] (if set) or
// Bundles[botID].
func (l *Loader) Load(_ context.Context, botID string) (*bot.Bundle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Calls = append(l.Calls, botID)
	if err, ok := l.Errors[botID]; ok {
		return nil, err
	}
	return l.Bundles[botID], nil
}
