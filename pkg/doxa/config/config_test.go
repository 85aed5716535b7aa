package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/doxa/pkg/doxa/internalerr"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doxa.yaml")
	src := `
distribute: false
trace: /tmp/doxa-trace.db
scripts:
  - a.doxa
  - b.doxa
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Distribute == nil || *cfg.Distribute {
		t.Error("distribute should be false")
	}
	if cfg.Trace != "/tmp/doxa-trace.db" {
		t.Errorf("trace = %q", cfg.Trace)
	}
	if len(cfg.Scripts) != 2 || cfg.Scripts[0] != "a.doxa" {
		t.Errorf("scripts = %v", cfg.Scripts)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("distribute: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected invalid-config error, got %v", err)
	}
}

func TestLoaderDefaults(t *testing.T) {
	l := &Loader{}
	ctx, cfg, cleanup, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer cleanup()
	if ctx == nil || cfg == nil {
		t.Fatal("loader should produce a context and a config")
	}
	if !ctx.Distribute() {
		t.Error("distribute should default to true")
	}
}

func TestLoaderOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doxa.yaml")
	if err := os.WriteFile(path, []byte("distribute: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	off := false
	l := &Loader{ConfigPath: path, Distribute: &off}
	ctx, _, cleanup, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer cleanup()
	if ctx.Distribute() {
		t.Error("loader override should win over the config file")
	}
}
