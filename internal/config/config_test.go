package config

import (
	"testing"
)

func parseConfig(t *testing.T, src string) *Config {
	t.Helper()
	cfg, err := Parse([]byte(src), "pylift.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := parseConfig(t, "")
	if len(cfg.Worker.Command) == 0 || cfg.Worker.Command[0] != "python3" {
		t.Fatalf("worker command = %v", cfg.Worker.Command)
	}
	if cfg.Worker.Protocol != DefaultWorkerProtocol {
		t.Fatalf("protocol = %q", cfg.Worker.Protocol)
	}
	if cfg.Strict {
		t.Fatal("strict must default to off")
	}
}

func TestFullConfig(t *testing.T) {
	cfg := parseConfig(t, `
worker:
  command: ["python3.12", "-m", "pylift_worker"]
  protocol: "^1.5"
emit:
  dir: out
  overwrite: true
strict: true
`)
	if cfg.Worker.Command[0] != "python3.12" {
		t.Fatalf("command = %v", cfg.Worker.Command)
	}
	if cfg.Worker.Protocol != "^1.5" {
		t.Fatalf("protocol = %q", cfg.Worker.Protocol)
	}
	if !cfg.Emit.Overwrite || cfg.Emit.Dir != "out" {
		t.Fatalf("emit = %+v", cfg.Emit)
	}
	if !cfg.Strict {
		t.Fatal("strict not set")
	}
	if _, err := cfg.ProtocolConstraint(); err != nil {
		t.Fatalf("constraint did not parse: %v", err)
	}
}

func TestInvalidProtocol(t *testing.T) {
	_, err := Parse([]byte("worker:\n  protocol: \"not-a-version\"\n"), "pylift.yaml")
	if err == nil {
		t.Fatal("expected an error for a bad constraint")
	}
}
