// Package extension defines the host-callable capability interface CSML
// scripts reach through the `extension(name=…, …)` builtin, and a
// concrete implementation backed by Model Context Protocol servers.
//
// Lifecycle:
//
//  1. Call [Registry.RegisterServer] for each MCP server to connect to, or
//     [Registry.RegisterFunc] for an in-process Go callable.
//  2. Use [Registry.Names] to see what is currently callable.
//  3. Use [Registry.Call] to invoke an extension on behalf of the evaluator.
//  4. Call [Registry.Close] to release all connections.
//
// Implementations must be safe for concurrent use: the evaluator may run
// several conversations against the same Registry at once.
package extension

import (
	"context"

	"github.com/csml-lang/interpreter/pkg/token"
	"github.com/csml-lang/interpreter/pkg/value"
)

// ServerConfig describes how to connect to a single extension-providing
// MCP server, mirroring the teacher's mcp.ServerConfig.
type ServerConfig struct {
	// Name is this server's unique identifier within a Registry.
	Name string

	// Transport selects the connection mechanism: "stdio" or
	// "streamable-http".
	Transport Transport

	// Command is the executable (and arguments) spawned when Transport is
	// TransportStdio. Ignored otherwise.
	Command string

	// URL is the endpoint address used when Transport is
	// TransportStreamableHTTP. Ignored otherwise.
	URL string

	// Env holds additional environment variables for a stdio server
	// process. May be nil.
	Env map[string]string
}

// Transport selects the connection mechanism for an extension server.
type Transport string

const (
	TransportStdio          Transport = "stdio"
	TransportStreamableHTTP Transport = "streamable-http"
)

// IsValid reports whether t is a recognised transport.
func (t Transport) IsValid() bool {
	return t == TransportStdio || t == TransportStreamableHTTP
}

// Data is the calling-convention context handed to every extension
// invocation: the evaluator's live current scope (so an extension can read
// conversation memory, and Set or Remember on it change that memory) and a
// callback to stream out a message immediately rather than waiting for the step to finish, per spec.md's
// "(args, interval, data, messages, sender) → Value | Error" convention.
//
// Data intentionally holds no reference to the evaluator or extension
// packages, so that internal/evaluator can construct one without
// internal/extension ever importing internal/evaluator back.
type Data struct {
	Scope *value.Scope
	Emit  func(value.Value)
}

// Send streams msg out through Data's emit callback, if one is set. A nil
// Emit silently drops the message; callers that care about delivery must
// set Emit before invoking an extension.
func (d *Data) Send(msg value.Value) {
	if d == nil || d.Emit == nil {
		return
	}
	d.Emit(msg)
}

// Func is an in-process extension callable, registered via
// [Registry.RegisterFunc]. args carries the already-evaluated, forwarded
// call arguments (the extension's own shape, opaque to the dispatcher);
// pos is the call site, for error reporting.
type Func func(ctx context.Context, args map[string]value.Value, pos token.Interval, data *Data) (value.Value, error)

// Host is the capability surface the evaluator dispatches
// `extension(name=…, …)` calls through. Implementations must be safe for
// concurrent use.
type Host interface {
	// RegisterServer connects to the MCP server described by cfg and
	// imports its tool catalogue as callable extensions. Re-registering an
	// existing Name reconnects and replaces its tools.
	RegisterServer(ctx context.Context, cfg ServerConfig) error

	// RegisterFunc registers an in-process Go callable under name.
	RegisterFunc(name string, fn Func)

	// Names returns every currently callable extension name.
	Names() []string

	// Call invokes the named extension. Returns an UnknownExtension error
	// if name is not registered.
	Call(ctx context.Context, name string, args map[string]value.Value, pos token.Interval, data *Data) (value.Value, error)

	// Close releases all server connections. After Close the Host must
	// not be used again.
	Close() error
}
