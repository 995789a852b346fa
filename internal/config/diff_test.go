package config_test

import (
	"testing"

	"github.com/csml-lang/interpreter/internal/config"
)

func TestDiff_NoChanges(t *testing.T) {
	t.Parallel()
	cfg := &config.Config{
		Server: config.ServerConfig{LogLevel: config.LogLevelInfo},
		Bot:    config.BotConfig{BundleDir: "./flows", DefaultFlow: "start"},
		Extensions: config.ExtensionsConfig{Servers: []config.ExtensionServerConfig{
			{Name: "tools", Transport: "stdio", Command: "/bin/tools"},
		}},
	}
	d := config.Diff(cfg, cfg)
	if d.ExtensionsChanged {
		t.Error("expected ExtensionsChanged=false for identical configs")
	}
	if d.LogLevelChanged {
		t.Error("expected LogLevelChanged=false for identical configs")
	}
	if d.BotChanged {
		t.Error("expected BotChanged=false for identical configs")
	}
	if len(d.ExtensionChanges) != 0 {
		t.Errorf("expected 0 extension changes, got %d", len(d.ExtensionChanges))
	}
}

func TestDiff_LogLevelChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Server: config.ServerConfig{LogLevel: config.LogLevelInfo}}
	new := &config.Config{Server: config.ServerConfig{LogLevel: config.LogLevelDebug}}

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Error("expected LogLevelChanged=true")
	}
	if d.NewLogLevel != config.LogLevelDebug {
		t.Errorf("expected NewLogLevel=debug, got %q", d.NewLogLevel)
	}
}

func TestDiff_BotChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Bot: config.BotConfig{BundleDir: "./flows", DefaultFlow: "start"}}
	new := &config.Config{Bot: config.BotConfig{BundleDir: "./flows", DefaultFlow: "greeting"}}

	d := config.Diff(old, new)
	if !d.BotChanged {
		t.Error("expected BotChanged=true")
	}
}

func TestDiff_ExtensionTransportChanged(t *testing.T) {
	t.Parallel()
	old := &config.Config{Extensions: config.ExtensionsConfig{Servers: []config.ExtensionServerConfig{
		{Name: "tools", Transport: "stdio", Command: "/bin/v1"},
	}}}
	new := &config.Config{Extensions: config.ExtensionsConfig{Servers: []config.ExtensionServerConfig{
		{Name: "tools", Transport: "stdio", Command: "/bin/v2"},
	}}}

	d := config.Diff(old, new)
	if !d.ExtensionsChanged {
		t.Error("expected ExtensionsChanged=true")
	}
	found := false
	for _, ec := range d.ExtensionChanges {
		if ec.Name == "tools" && ec.TransportOrURL {
			found = true
		}
	}
	if !found {
		t.Error("expected tools TransportOrURL=true")
	}
}

func TestDiff_ExtensionAdded(t *testing.T) {
	t.Parallel()
	old := &config.Config{Extensions: config.ExtensionsConfig{Servers: []config.ExtensionServerConfig{
		{Name: "tools", Transport: "stdio", Command: "/bin/tools"},
	}}}
	new := &config.Config{Extensions: config.ExtensionsConfig{Servers: []config.ExtensionServerConfig{
		{Name: "tools", Transport: "stdio", Command: "/bin/tools"},
		{Name: "web", Transport: "streamable-http", URL: "https://example.com"},
	}}}

	d := config.Diff(old, new)
	if !d.ExtensionsChanged {
		t.Error("expected ExtensionsChanged=true")
	}
	found := false
	for _, ec := range d.ExtensionChanges {
		if ec.Name == "web" && ec.Added {
			found = true
		}
	}
	if !found {
		t.Error("expected web Added=true")
	}
}

func TestDiff_ExtensionRemoved(t *testing.T) {
	t.Parallel()
	old := &config.Config{Extensions: config.ExtensionsConfig{Servers: []config.ExtensionServerConfig{
		{Name: "tools", Transport: "stdio", Command: "/bin/tools"},
		{Name: "web", Transport: "streamable-http", URL: "https://example.com"},
	}}}
	new := &config.Config{Extensions: config.ExtensionsConfig{Servers: []config.ExtensionServerConfig{
		{Name: "tools", Transport: "stdio", Command: "/bin/tools"},
	}}}

	d := config.Diff(old, new)
	if !d.ExtensionsChanged {
		t.Error("expected ExtensionsChanged=true")
	}
	found := false
	for _, ec := range d.ExtensionChanges {
		if ec.Name == "web" && ec.Removed {
			found = true
		}
	}
	if !found {
		t.Error("expected web Removed=true")
	}
}

func TestDiff_MultipleChanges(t *testing.T) {
	t.Parallel()
	old := &config.Config{
		Server: config.ServerConfig{LogLevel: config.LogLevelInfo},
		Extensions: config.ExtensionsConfig{Servers: []config.ExtensionServerConfig{
			{Name: "a", Transport: "stdio", Command: "/bin/a"},
			{Name: "b", Transport: "stdio", Command: "/bin/b"},
		}},
	}
	new := &config.Config{
		Server: config.ServerConfig{LogLevel: config.LogLevelWarn},
		Extensions: config.ExtensionsConfig{Servers: []config.ExtensionServerConfig{
			{Name: "a", Transport: "stdio", Command: "/bin/a2"},
			{Name: "c", Transport: "stdio", Command: "/bin/c"},
		}},
	}

	d := config.Diff(old, new)
	if !d.LogLevelChanged {
		t.Error("expected LogLevelChanged=true")
	}
	if !d.ExtensionsChanged {
		t.Error("expected ExtensionsChanged=true")
	}
	// a: command changed, b: removed, c: added
	changes := make(map[string]config.ExtensionDiff)
	for _, ec := range d.ExtensionChanges {
		changes[ec.Name] = ec
	}
	if !changes["a"].TransportOrURL {
		t.Error("expected a TransportOrURL=true")
	}
	if !changes["b"].Removed {
		t.Error("expected b Removed=true")
	}
	if !changes["c"].Added {
		t.Error("expected c Added=true")
	}
}
