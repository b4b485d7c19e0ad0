// Package commands contains the CLI commands for the application
package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/okra-platform/stitch/internal/config"
	"github.com/okra-platform/stitch/internal/graph"
	"github.com/okra-platform/stitch/internal/schema"
)

type Flags struct {
	LogLevel string
}

type Controller struct {
	Flags *Flags
	// Out receives command output; stdout when nil
	Out io.Writer
}

func (c *Controller) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// project is the configuration commands run under. Commands work without a
// stitch.json when every input is given on the command line.
type project struct {
	config *config.Config
	root   string
}

func loadProject() (*project, error) {
	cfg, root, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &project{config: cfg, root: root}, nil
}

// schemaPath returns path when set, otherwise the default namespace schema
// of the enclosing project
func schemaPath(path string) (string, *project, error) {
	if path != "" {
		return path, nil, nil
	}
	p, err := loadProject()
	if err != nil {
		return "", nil, fmt.Errorf("no --schema given and %w", err)
	}
	resolved, err := p.config.SchemaPath(p.root, config.DefaultNamespace)
	if err != nil {
		return "", nil, err
	}
	return resolved, p, nil
}

// loadSchemaFile reads an overall schema file and builds its graph
func loadSchemaFile(path string) (*schema.Definition, *graph.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return schema.Load(filepath.Base(path), string(data))
}
