package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// FileName is the project configuration file searched for by LoadConfig
const FileName = "stitch.json"

const (
	DefaultNamespace = "default"
	DefaultSchema    = "./overall.nadel"
	DefaultPort      = 8080
	DefaultIDs       = "counter"
)

// Config represents the stitch.json configuration file
type Config struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	// Namespaces maps a namespace to the overall schema file served under it
	Namespaces map[string]string `json:"namespaces"`
	Serve      ServeConfig       `json:"serve"`
	Recorder   RecorderConfig    `json:"recorder"`
}

// ServeConfig contains gateway server configuration
type ServeConfig struct {
	Port    int      `json:"port"`
	Watch   []string `json:"watch"`
	Exclude []string `json:"exclude"`
}

// RecorderConfig configures type info recording
type RecorderConfig struct {
	// IDs selects the identifier generator: counter or uuid
	IDs string `json:"ids"`
}

// LoadConfig loads the stitch.json configuration from the current directory or a parent directory
func LoadConfig() (*Config, string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get current directory: %w", err)
	}

	return loadConfigFromDir(dir)
}

// LoadConfigFromPath loads the stitch.json configuration from a specific path
func LoadConfigFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()
	return &config, nil
}

func (c *Config) applyDefaults() {
	if len(c.Namespaces) == 0 {
		c.Namespaces = map[string]string{DefaultNamespace: DefaultSchema}
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = DefaultPort
	}
	if len(c.Serve.Watch) == 0 {
		c.Serve.Watch = []string{"*.nadel", "**/*.nadel", "*.graphql", "**/*.graphql"}
	}
	if len(c.Serve.Exclude) == 0 {
		c.Serve.Exclude = []string{".git/", "node_modules/", "build/"}
	}
	if c.Recorder.IDs == "" {
		c.Recorder.IDs = DefaultIDs
	}
}

// Default returns the configuration written by `stitch init`
func Default(name string) *Config {
	c := &Config{Name: name, Version: "0.1.0"}
	c.applyDefaults()
	return c
}

// NamespaceNames returns the configured namespaces in sorted order
func (c *Config) NamespaceNames() []string {
	names := make([]string, 0, len(c.Namespaces))
	for name := range c.Namespaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SchemaPath resolves the schema file of a namespace against the project root
func (c *Config) SchemaPath(projectRoot, namespace string) (string, error) {
	path, ok := c.Namespaces[namespace]
	if !ok {
		return "", fmt.Errorf("namespace %q is not configured", namespace)
	}
	if filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Join(projectRoot, path), nil
}

// loadConfigFromDir searches for stitch.json in the given directory and its parents
func loadConfigFromDir(startDir string) (*Config, string, error) {
	dir := startDir
	for {
		configPath := filepath.Join(dir, FileName)
		if _, err := os.Stat(configPath); err == nil {
			config, err := LoadConfigFromPath(configPath)
			if err != nil {
				return nil, "", err
			}
			return config, dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}

	return nil, "", fmt.Errorf("no %s found in %s or any parent directory", FileName, startDir)
}
