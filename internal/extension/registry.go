package extension

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/csml-lang/interpreter/pkg/token"
	"github.com/csml-lang/interpreter/pkg/value"
)

// entry holds everything Registry knows about a single callable extension.
type entry struct {
	serverName string // non-empty for an MCP-backed tool
	toolName   string // the name to pass to CallTool; equals the registry key unless aliased
	fn         Func   // non-nil for an in-process extension

	health *rollingWindow
}

// serverConn is a live connection to an external MCP server.
type serverConn struct {
	session *mcpsdk.ClientSession
}

// Registry is the concrete, MCP-backed implementation of [Host]. It also
// accepts in-process Go callables registered via RegisterFunc, the
// equivalent of the teacher's RegisterBuiltin tools. The zero value is not
// usable; construct with [NewRegistry].
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	servers map[string]serverConn

	client *mcpsdk.Client
}

var _ Host = (*Registry)(nil)

// NewRegistry creates an empty, ready-to-use Registry.
func NewRegistry() *Registry {
	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "csml-extension-host", Version: "1.0.0"}, nil)
	return &Registry{
		entries: make(map[string]*entry),
		servers: make(map[string]serverConn),
		client:  client,
	}
}

// RegisterServer connects to the MCP server described by cfg and imports
// its tool catalogue as callable extensions, keyed by tool name. If a
// server with the same Name is already registered, the old connection is
// closed and its tools are replaced.
func (r *Registry) RegisterServer(ctx context.Context, cfg ServerConfig) error {
	if cfg.Name == "" {
		return fmt.Errorf("InternalError: extension server config must have a non-empty name")
	}
	if !cfg.Transport.IsValid() {
		return fmt.Errorf("InternalError: unknown transport %q for extension server %q", cfg.Transport, cfg.Name)
	}

	var transport mcpsdk.Transport
	switch cfg.Transport {
	case TransportStdio:
		executable, args := splitCommand(cfg.Command)
		if executable == "" {
			return fmt.Errorf("InternalError: stdio extension server %q requires a non-empty Command", cfg.Name)
		}
		cmd := exec.CommandContext(ctx, executable, args...)
		for k, v := range cfg.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
		transport = &mcpsdk.CommandTransport{Command: cmd}
	case TransportStreamableHTTP:
		if cfg.URL == "" {
			return fmt.Errorf("InternalError: streamable-http extension server %q requires a non-empty URL", cfg.Name)
		}
		transport = &mcpsdk.StreamableClientTransport{Endpoint: cfg.URL}
	}

	session, err := r.client.Connect(ctx, transport, nil)
	if err != nil {
		return fmt.Errorf("ExtensionError: failed to connect to extension server %q: %w", cfg.Name, err)
	}

	var discovered []mcpsdk.Tool
	for tool, err := range session.Tools(ctx, nil) {
		if err != nil {
			_ = session.Close()
			return fmt.Errorf("ExtensionError: failed to list tools for extension server %q: %w", cfg.Name, err)
		}
		discovered = append(discovered, *tool)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.servers[cfg.Name]; ok {
		_ = old.session.Close()
		for name, e := range r.entries {
			if e.serverName == cfg.Name {
				delete(r.entries, name)
			}
		}
	}
	r.servers[cfg.Name] = serverConn{session: session}

	for _, t := range discovered {
		r.entries[t.Name] = &entry{
			serverName: cfg.Name,
			toolName:   t.Name,
			health:     newRollingWindow(defaultWindowSize),
		}
	}
	return nil
}

// RegisterFunc registers an in-process Go callable under name, replacing
// any previous registration (MCP-backed or not) under the same name.
func (r *Registry) RegisterFunc(name string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = &entry{fn: fn, health: newRollingWindow(defaultWindowSize)}
}

// Names returns every currently callable extension name, in no particular
// order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	return names
}

// Call invokes the named extension, routing to the in-process Func or the
// owning MCP server session.
func (r *Registry) Call(ctx context.Context, name string, args map[string]value.Value, pos token.Interval, data *Data) (value.Value, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()
	if !ok {
		return value.Value{}, fmt.Errorf("UnknownExtension: %q at %s", name, pos)
	}

	var result value.Value
	var err error
	if e.fn != nil {
		result, err = e.fn(ctx, args, pos, data)
	} else {
		result, err = r.callMCPTool(ctx, e, args, pos)
	}
	e.health.Record(0, err != nil)
	if err != nil {
		return value.Value{}, fmt.Errorf("ExtensionError: %q: %w", name, err)
	}
	return result, nil
}

// callMCPTool converts args to the SDK's argument shape, invokes the tool,
// and parses its textual result back into a Value.
func (r *Registry) callMCPTool(ctx context.Context, e *entry, args map[string]value.Value, pos token.Interval) (value.Value, error) {
	r.mu.RLock()
	conn, ok := r.servers[e.serverName]
	r.mu.RUnlock()
	if !ok {
		return value.Value{}, fmt.Errorf("extension server %q is not connected", e.serverName)
	}

	argsMap, err := toArgsMap(args)
	if err != nil {
		return value.Value{}, err
	}

	callResult, err := conn.session.CallTool(ctx, &mcpsdk.CallToolParams{Name: e.toolName, Arguments: argsMap})
	if err != nil {
		return value.Value{}, err
	}

	var sb strings.Builder
	for _, c := range callResult.Content {
		if tc, ok := c.(*mcpsdk.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	if callResult.IsError {
		return value.Value{}, fmt.Errorf("%s", sb.String())
	}

	text := sb.String()
	if text == "" {
		return value.Null, nil
	}
	if v, err := value.ParseJSON([]byte(text)); err == nil {
		return v, nil
	}
	return value.NewString(text), nil
}

// toArgsMap round-trips a bound argument map through the Value JSON codec
// into the plain map[string]any the SDK expects.
func toArgsMap(args map[string]value.Value) (map[string]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	raw, err := value.NewObject("", keys, args).MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// ErrorRate returns the fraction of recent calls to name that failed, or 0
// if name has never been called or is unknown.
func (r *Registry) ErrorRate(name string) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok {
		return 0
	}
	return e.health.ErrorRate()
}

// Close shuts down all server connections. After Close the Registry must
// not be used again.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var firstErr error
	for name, conn := range r.servers {
		if err := conn.session.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("error closing extension server %q: %w", name, err)
		}
		delete(r.servers, name)
	}
	r.entries = make(map[string]*entry)
	return firstErr
}

func splitCommand(command string) (executable string, args []string) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return "", nil
	}
	return parts[0], parts[1:]
}
