// Package config loads the YAML run configuration and assembles a ready
// Context from it.
package config

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/doxa/pkg/doxa"
	"github.com/cognicore/doxa/pkg/doxa/internalerr"
	"github.com/cognicore/doxa/pkg/doxa/trace"
	tracesqlite "github.com/cognicore/doxa/pkg/doxa/trace/sqlite"
)

// Config is the run configuration.
type Config struct {
	// Distribute toggles modal distribution at normalization. Unset means
	// true.
	Distribute *bool `yaml:"distribute"`
	// Trace is the path of the SQLite trace database. Empty disables
	// tracing.
	Trace string `yaml:"trace"`
	// Scripts are batch files to run before anything else.
	Scripts []string `yaml:"scripts"`
}

// Load reads a configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	return &cfg, nil
}

// Loader assembles components from a configuration.
type Loader struct {
	ConfigPath string
	// TracePath overrides the configured trace database.
	TracePath string
	// Distribute overrides the configured distribute flag.
	Distribute *bool
}

// Load reads the configuration, opens the trace sink, and returns a ready
// Context together with the configuration and a cleanup function.
func (l *Loader) Load(ctx context.Context) (*doxa.Context, *Config, func(), error) {
	cfg := &Config{}
	if l.ConfigPath != "" {
		var err error
		cfg, err = Load(l.ConfigPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("load config: %w", err)
		}
	}

	tracePath := cfg.Trace
	if l.TracePath != "" {
		tracePath = l.TracePath
	}
	var sink trace.Sink = trace.Nop{}
	cleanup := func() {}
	if tracePath != "" {
		store, err := tracesqlite.Open(ctx, tracePath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open trace: %w", err)
		}
		sink = store
		cleanup = func() { store.Close() }
	}

	distribute := cfg.Distribute
	if l.Distribute != nil {
		distribute = l.Distribute
	}

	dctx := doxa.New(doxa.Options{Trace: sink, Distribute: distribute})
	return dctx, cfg, cleanup, nil
}
