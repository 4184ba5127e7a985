// Package config provides the tool registry configuration.
package config

import (
	"github.com/effective-security/x/configloader"
)

// Config specifies the registry configuration
type Config struct {
	// Tools specifies per-tool overrides, keyed by tool name
	Tools map[string]*ToolConfig `json:"tools,omitempty" yaml:"tools,omitempty"`
}

// ToolConfig specifies the tool overrides
type ToolConfig struct {
	// Disabled tools are not registered
	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty"`
	// Description overrides the tool description, to be used in the prompt
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Tool returns the configuration of a tool, or nil
func (c *Config) Tool(name string) *ToolConfig {
	if c == nil {
		return nil
	}
	return c.Tools[name]
}

// Load returns the configuration from file,
// an empty configuration is returned if the file is not specified.
func Load(file string) (*Config, error) {
	cfg := new(Config)
	if file == "" {
		return cfg, nil
	}

	err := configloader.UnmarshalAndExpand(file, cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
