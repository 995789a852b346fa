package config_test

import (
	"strings"
	"testing"

	"github.com/csml-lang/interpreter/internal/config"
)

func TestValidate_MultipleErrors(t *testing.T) {
	t.Parallel()
	yaml := `
bot:
  bundle_dir: ./flows
  default_flow: start
extensions:
  servers:
    - name: tools
      transport: stdio
    - name: tools
      transport: streamable-http
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected errors, got nil")
	}
	// Should contain both the duplicate-name and the missing-command/url errors.
	errStr := err.Error()
	if !strings.Contains(errStr, "duplicate") {
		t.Errorf("error should mention duplicate, got: %v", err)
	}
	if !strings.Contains(errStr, "command") {
		t.Errorf("error should mention command, got: %v", err)
	}
}

func TestValidate_MissingDefaultFlow(t *testing.T) {
	t.Parallel()
	yaml := `
bot:
  bundle_dir: ./flows
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing default_flow, got nil")
	}
	if !strings.Contains(err.Error(), "default_flow") {
		t.Errorf("error should mention default_flow, got: %v", err)
	}
}

func TestValidate_MissingBundleDir(t *testing.T) {
	t.Parallel()
	yaml := `
bot:
  default_flow: start
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing bundle_dir, got nil")
	}
	if !strings.Contains(err.Error(), "bundle_dir") {
		t.Errorf("error should mention bundle_dir, got: %v", err)
	}
}

func TestValidate_NoExtensionsIsValid(t *testing.T) {
	t.Parallel()
	yaml := `
bot:
  bundle_dir: ./flows
  default_flow: start
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
