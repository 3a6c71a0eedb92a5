// Package cli provides the operator-facing Cobra command trees for both
// processes this repository builds: a compute node (cmd/node) and the
// ring registry (cmd/registry). Grounded on the teacher's
// internal/cli.go: a YAML config struct loaded with gopkg.in/yaml.v3,
// a Cobra root command with persistent flags, and one subcommand per
// operator action.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

var log = slog.Default()

// NodeConfig is a compute node's YAML config file shape.
type NodeConfig struct {
	Node struct {
		Host string `yaml:"host"`
	} `yaml:"node"`

	Registry struct {
		Address string `yaml:"address"`
	} `yaml:"registry"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"metrics"`
}

// RegistryConfig is the registry process's YAML config file shape.
type RegistryConfig struct {
	Registry struct {
		Host         string `yaml:"host"`
		Port         int    `yaml:"port"`
		ExpectedSize int    `yaml:"expected_size"`
	} `yaml:"registry"`
}

func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cli: failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("cli: failed to parse config YAML: %w", err)
	}
	return nil
}

// LoadNodeConfig reads and parses a node config file.
func LoadNodeConfig(path string) (*NodeConfig, error) {
	var cfg NodeConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadRegistryConfig reads and parses a registry config file.
func LoadRegistryConfig(path string) (*RegistryConfig, error) {
	var cfg RegistryConfig
	if err := loadYAML(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
