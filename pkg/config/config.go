// Package config loads the optional .cxxpp.yaml project configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"cxxpp/pkg/preprocessor"
)

// FileName is the configuration file looked up next to the sources
const FileName = ".cxxpp.yaml"

// Config mirrors the .cxxpp.yaml structure
type Config struct {
	IncludePaths      []string          `yaml:"include_paths,omitempty"`
	Defines           map[string]string `yaml:"defines,omitempty"`
	MaxIncludeDepth   int               `yaml:"max_include_depth,omitempty"`
	PragmaPassthrough bool              `yaml:"pragma_passthrough,omitempty"`
	KeepComments      bool              `yaml:"keep_comments,omitempty"`
	Strict            bool              `yaml:"strict,omitempty"`
}

// Load reads the configuration file from the given directory. A missing
// file is not an error; it returns (nil, nil) so callers can fall back
// to defaults.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Engine converts the file configuration into an engine configuration.
// Paths are resolved relative to the directory the file was loaded from.
func (c *Config) Engine(dir string) preprocessor.Config {
	engineCfg := preprocessor.Config{
		Defines:           c.Defines,
		MaxIncludeDepth:   c.MaxIncludeDepth,
		PragmaPassthrough: c.PragmaPassthrough,
		KeepComments:      c.KeepComments,
	}
	for _, p := range c.IncludePaths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		engineCfg.SearchPaths = append(engineCfg.SearchPaths, p)
	}
	return engineCfg
}
