package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromPath(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{
			name: "valid config with all fields",
			config: Config{
				Name:    "pets-gateway",
				Version: "1.0.0",
				Namespaces: map[string]string{
					"pets":   "./schemas/pets.nadel",
					"owners": "/etc/stitch/owners.nadel",
				},
				Serve: ServeConfig{
					Port:    9090,
					Watch:   []string{"schemas/*.nadel"},
					Exclude: []string{"tmp/"},
				},
				Recorder: RecorderConfig{IDs: "uuid"},
			},
		},
		{
			name: "config with defaults",
			config: Config{
				Name:    "minimal-gateway",
				Version: "0.1.0",
			},
		},
		{
			name:   "empty config file",
			config: Config{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Create temp file
			tmpDir := t.TempDir()
			configPath := filepath.Join(tmpDir, FileName)

			data, err := json.MarshalIndent(tt.config, "", "  ")
			require.NoError(t, err)

			err = os.WriteFile(configPath, data, 0644)
			require.NoError(t, err)

			// Test loading
			got, err := LoadConfigFromPath(configPath)
			require.NoError(t, err)
			require.NotNil(t, got)

			// Verify loaded config
			assert.Equal(t, tt.config.Name, got.Name)
			assert.Equal(t, tt.config.Version, got.Version)

			// Check defaults were applied
			if len(tt.config.Namespaces) == 0 {
				assert.Equal(t, map[string]string{"default": "./overall.nadel"}, got.Namespaces)
			} else {
				assert.Equal(t, tt.config.Namespaces, got.Namespaces)
			}
			if tt.config.Serve.Port == 0 {
				assert.Equal(t, 8080, got.Serve.Port)
			}
			if len(tt.config.Serve.Watch) == 0 {
				assert.Contains(t, got.Serve.Watch, "*.nadel")
				assert.Contains(t, got.Serve.Watch, "**/*.graphql")
			}
			if len(tt.config.Serve.Exclude) == 0 {
				assert.Contains(t, got.Serve.Exclude, ".git/")
			}
			if tt.config.Recorder.IDs == "" {
				assert.Equal(t, "counter", got.Recorder.IDs)
			} else {
				assert.Equal(t, tt.config.Recorder.IDs, got.Recorder.IDs)
			}
		})
	}
}

func TestLoadConfigFromPath_Errors(t *testing.T) {
	tests := []struct {
		name        string
		setupFunc   func(string) string
		errContains string
	}{
		{
			name: "file not found",
			setupFunc: func(tmpDir string) string {
				return filepath.Join(tmpDir, "nonexistent.json")
			},
			errContains: "failed to read config file",
		},
		{
			name: "invalid json",
			setupFunc: func(tmpDir string) string {
				path := filepath.Join(tmpDir, FileName)
				os.WriteFile(path, []byte("invalid json"), 0644)
				return path
			},
			errContains: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			configPath := tt.setupFunc(tmpDir)

			_, err := LoadConfigFromPath(configPath)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	// Test finding stitch.json in parent directory
	t.Run("config in parent dir", func(t *testing.T) {
		tmpDir := t.TempDir()
		subDir := filepath.Join(tmpDir, "schemas")
		err := os.MkdirAll(subDir, 0755)
		require.NoError(t, err)

		config := Config{Name: "parent-dir-gateway", Version: "1.0.0"}
		data, _ := json.MarshalIndent(config, "", "  ")
		err = os.WriteFile(filepath.Join(tmpDir, FileName), data, 0644)
		require.NoError(t, err)

		// Change to subdirectory
		oldWd, _ := os.Getwd()
		defer os.Chdir(oldWd)
		err = os.Chdir(subDir)
		require.NoError(t, err)

		// Load config
		got, projectRoot, err := LoadConfig()
		require.NoError(t, err)
		assert.Equal(t, config.Name, got.Name)
		// Use filepath.EvalSymlinks to resolve any symlinks for comparison
		expectedRoot, _ := filepath.EvalSymlinks(tmpDir)
		actualRoot, _ := filepath.EvalSymlinks(projectRoot)
		assert.Equal(t, expectedRoot, actualRoot)
	})

	// Test no stitch.json found
	t.Run("no config found", func(t *testing.T) {
		tmpDir := t.TempDir()

		oldWd, _ := os.Getwd()
		defer os.Chdir(oldWd)
		err := os.Chdir(tmpDir)
		require.NoError(t, err)

		_, _, err = LoadConfig()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no stitch.json found")
	})
}

func TestConfig_Namespaces(t *testing.T) {
	c := &Config{Namespaces: map[string]string{
		"pets":   "./pets.nadel",
		"owners": "/abs/owners.nadel",
	}}

	assert.Equal(t, []string{"owners", "pets"}, c.NamespaceNames())

	path, err := c.SchemaPath("/project", "pets")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/project", "pets.nadel"), path)

	path, err = c.SchemaPath("/project", "owners")
	require.NoError(t, err)
	assert.Equal(t, "/abs/owners.nadel", path)

	_, err = c.SchemaPath("/project", "missing")
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	c := Default("my-gateway")
	assert.Equal(t, "my-gateway", c.Name)
	assert.Equal(t, "0.1.0", c.Version)
	assert.Equal(t, DefaultSchema, c.Namespaces[DefaultNamespace])
	assert.Equal(t, DefaultPort, c.Serve.Port)
	assert.Equal(t, DefaultIDs, c.Recorder.IDs)
}
