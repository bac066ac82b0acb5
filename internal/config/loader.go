package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// Load reads the configuration at path, or the first default file found in
// dir when path is empty, overlays the environment, applies defaults and
// validates the result. A missing default file yields the default
// configuration.
func Load(ctx context.Context, path, dir string) (*Config, error) {
	return load(ctx, path, dir, envconfig.OsLookuper())
}

func load(ctx context.Context, path, dir string, lookuper envconfig.Lookuper) (*Config, error) {
	if path == "" {
		found, err := FindConfigFile(dir)
		if err != nil {
			return nil, err
		}
		path = found
	}

	cfg := &Config{}
	if path != "" {
		loaded, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if err := ApplyEnvironment(ctx, cfg, lookuper); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FindConfigFile returns the first of DefaultConfigFileNames present in dir,
// or "" when there is none.
func FindConfigFile(dir string) (string, error) {
	for _, name := range DefaultConfigFileNames {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("checking config file %s: %w", candidate, err)
		}
		if !info.IsDir() {
			return candidate, nil
		}
	}
	return "", nil
}

// LoadFromFile reads and parses a gitconverge configuration file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses gitconverge configuration from raw YAML bytes.
// Unknown keys are rejected.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// ApplyEnvironment fills the fields cfg left empty from the environment
// variables named by their env tags.
func ApplyEnvironment(ctx context.Context, cfg *Config, lookuper envconfig.Lookuper) error {
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   cfg,
		Lookuper: lookuper,
	}); err != nil {
		return fmt.Errorf("reading environment: %w", err)
	}
	return nil
}
