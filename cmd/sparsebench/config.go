// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/sparsegraph/assembly"
)

// Config is the sparsebench configuration file.
type Config struct {
	Mesh     assembly.RandomConfig `yaml:"mesh"`
	Workers  int                   `yaml:"workers"`
	Strategy string                `yaml:"strategy"`
	Kinds    []string              `yaml:"kinds"`
	Reorder  bool                  `yaml:"reorder"`
	Output   OutputConfig          `yaml:"output"`
	Log      LogConfig             `yaml:"log"`
}

// OutputConfig selects where built patterns are saved. Empty paths disable
// the corresponding sink.
type OutputConfig struct {
	File      string `yaml:"file"`
	BadgerDir string `yaml:"badger_dir"`
	Compress  bool   `yaml:"compress"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

var validKinds = map[string]bool{"map": true, "contiguous": true}

func defaultConfig() Config {
	return Config{
		Mesh:     assembly.DefaultRandomConfig(),
		Strategy: assembly.Shared.String(),
		Kinds:    []string{"map", "contiguous"},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// loadConfig overlays the YAML file at path on the defaults. An empty path
// returns the defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if err := c.Mesh.Validate(); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative (%d)", c.Workers)
	}
	if _, err := assembly.ParseStrategy(c.Strategy); err != nil {
		return err
	}
	if len(c.Kinds) == 0 {
		return errors.New("at least one graph kind is required")
	}
	for _, k := range c.Kinds {
		if !validKinds[k] {
			return fmt.Errorf("unknown graph kind %q (want map or contiguous)", k)
		}
	}
	return nil
}

// newLogger builds a text or JSON slog handler writing to w.
func newLogger(c LogConfig, w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Level)); err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(c.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", c.Format)
	}
}
