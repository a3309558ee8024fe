package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

const defaultFilename = "aegis.yaml"

// Initialize loads configDir/aegis.yaml (if present), expands environment
// references, merges it over Defaults(), and validates the result —
// grounded on the teacher's pkg/config/loader.go Initialize → load →
// validate pipeline, collapsed from tarsy's multi-file agent/chain/MCP
// registry shape to this module's single config tree.
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	cfg := Defaults()

	loaded, err := load(filepath.Join(configDir, defaultFilename))
	if err != nil {
		return nil, err
	}
	if loaded != nil {
		if err := mergo.Merge(&cfg, loaded, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("config: merging %s over defaults: %w", defaultFilename, err)
		}
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// load reads and parses path, returning (nil, nil) if the file does not
// exist — an absent config file means "run on defaults alone", matching
// the teacher's tolerant-missing-file loader behavior.
func load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	expanded := ExpandEnv(raw)

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return &cfg, nil
}
