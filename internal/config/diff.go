package config

// ConfigDiff describes what changed between two configs: the log level,
// the bot settings and the extension-server list. cmd/csml applies only a
// log-level change live; the other two take effect after a restart.
type ConfigDiff struct {
	LogLevelChanged   bool
	NewLogLevel       LogLevel
	BotChanged        bool // default flow or bundle directory changed; requires reloading parsed flows
	ExtensionsChanged bool
	ExtensionChanges  []ExtensionDiff // per-server diffs
}

// ExtensionDiff describes what changed for a single extension server
// between two configs.
type ExtensionDiff struct {
	Name           string
	TransportOrURL bool
	Added          bool
	Removed        bool
}

// Diff compares old and new configs and returns what changed in the
// fields ConfigDiff tracks.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	// Log level
	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Bot != new.Bot {
		d.BotChanged = true
	}

	// Build extension-server lookup maps keyed by name.
	oldServers := make(map[string]*ExtensionServerConfig, len(old.Extensions.Servers))
	for i := range old.Extensions.Servers {
		oldServers[old.Extensions.Servers[i].Name] = &old.Extensions.Servers[i]
	}
	newServers := make(map[string]*ExtensionServerConfig, len(new.Extensions.Servers))
	for i := range new.Extensions.Servers {
		newServers[new.Extensions.Servers[i].Name] = &new.Extensions.Servers[i]
	}

	// Detect modified and removed servers.
	for name, oldSrv := range oldServers {
		newSrv, exists := newServers[name]
		if !exists {
			d.ExtensionChanges = append(d.ExtensionChanges, ExtensionDiff{Name: name, Removed: true})
			d.ExtensionsChanged = true
			continue
		}
		ed := diffExtensionServer(name, oldSrv, newSrv)
		if ed.TransportOrURL {
			d.ExtensionChanges = append(d.ExtensionChanges, ed)
			d.ExtensionsChanged = true
		}
	}

	// Detect added servers.
	for name := range newServers {
		if _, exists := oldServers[name]; !exists {
			d.ExtensionChanges = append(d.ExtensionChanges, ExtensionDiff{Name: name, Added: true})
			d.ExtensionsChanged = true
		}
	}

	return d
}

// diffExtensionServer compares two extension server configs with the same name.
func diffExtensionServer(name string, old, new *ExtensionServerConfig) ExtensionDiff {
	ed := ExtensionDiff{Name: name}

	if old.Transport != new.Transport || old.Command != new.Command || old.URL != new.URL {
		ed.TransportOrURL = true
		return ed
	}
	if len(old.Env) != len(new.Env) {
		ed.TransportOrURL = true
		return ed
	}
	for k, v := range old.Env {
		if new.Env[k] != v {
			ed.TransportOrURL = true
			return ed
		}
	}

	return ed
}
