package commands

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/okra-platform/stitch/internal/config"
)

//go:embed templates/*
var templatesFS embed.FS

type InitOptions struct {
	ProjectName string
	Template    string
}

type FileSystem interface {
	Stat(name string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	WriteFile(name string, data []byte, perm os.FileMode) error
}

type osFileSystem struct{}

func (fs *osFileSystem) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (fs *osFileSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

func (fs *osFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

type InitCommand struct {
	filesystem  FileSystem
	templatesFS fs.FS
	// For testing: if set, skip prompting
	testOptions *InitOptions
}

func NewInitCommand() *InitCommand {
	return &InitCommand{
		filesystem:  &osFileSystem{},
		templatesFS: templatesFS,
	}
}

func (c *Controller) Init(ctx context.Context) error {
	cmd := NewInitCommand()
	return cmd.Run(ctx)
}

func (ic *InitCommand) Run(ctx context.Context) error {
	return ic.RunWithOptions(ctx)
}

func (ic *InitCommand) RunWithOptions(ctx context.Context, opts ...tea.ProgramOption) error {
	var options *InitOptions
	var err error

	// For testing: use provided options instead of prompting
	if ic.testOptions != nil {
		options = ic.testOptions
	} else {
		options, err = ic.promptInitOptions(opts...)
		if err != nil {
			return fmt.Errorf("failed to get init options: %w", err)
		}
	}

	if err := ic.validateProjectName(options.ProjectName); err != nil {
		return err
	}
	root := path.Join("templates", options.Template)
	if _, err := fs.Stat(ic.templatesFS, root); err != nil {
		return fmt.Errorf("unknown template %q", options.Template)
	}

	if err := ic.filesystem.MkdirAll(options.ProjectName, 0755); err != nil {
		return fmt.Errorf("failed to create project directory: %w", err)
	}

	if err := ic.renderTemplate(root, options.ProjectName); err != nil {
		return fmt.Errorf("failed to render template: %w", err)
	}

	if err := ic.writeConfig(options.ProjectName); err != nil {
		return err
	}

	fmt.Printf("✅ Successfully created %s gateway project: %s\n", options.Template, options.ProjectName)
	return nil
}

func (ic *InitCommand) promptInitOptions(opts ...tea.ProgramOption) (*InitOptions, error) {
	var projectName string
	var template string

	form := ic.createInitForm(&projectName, &template)

	if len(opts) > 0 {
		// For testing: run with provided options
		program := tea.NewProgram(form, opts...)
		if _, err := program.Run(); err != nil {
			return nil, err
		}
	} else {
		if err := form.Run(); err != nil {
			return nil, err
		}
	}

	return &InitOptions{
		ProjectName: projectName,
		Template:    template,
	}, nil
}

func (ic *InitCommand) createInitForm(projectName *string, template *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Project name").
				Description("Name of your new gateway project").
				Value(projectName).
				Validate(ic.validateProjectName),

			huh.NewSelect[string]().
				Title("Template").
				Description("Choose an overall schema to start from").
				Options(
					huh.NewOption("Pets and owners example", "pets"),
					huh.NewOption("Empty", "empty"),
				).
				Value(template),
		),
	)
}

func (ic *InitCommand) validateProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("project name cannot be empty")
	}
	if _, err := ic.filesystem.Stat(name); err == nil {
		return fmt.Errorf("directory %s already exists", name)
	}
	return nil
}

// renderTemplate copies a template directory into the project directory,
// filling in the project and service names
func (ic *InitCommand) renderTemplate(root, projectName string) error {
	replacer := strings.NewReplacer(
		"{{project_name}}", projectName,
		"{{service_name}}", serviceName(projectName),
	)

	return fs.WalkDir(ic.templatesFS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == root {
			return nil
		}

		relPath := strings.TrimPrefix(p, root+"/")
		destPath := filepath.Join(projectName, filepath.FromSlash(relPath))

		if d.IsDir() {
			return ic.filesystem.MkdirAll(destPath, 0755)
		}

		data, err := fs.ReadFile(ic.templatesFS, p)
		if err != nil {
			return err
		}

		return ic.filesystem.WriteFile(destPath, []byte(replacer.Replace(string(data))), 0644)
	})
}

func (ic *InitCommand) writeConfig(projectName string) error {
	data, err := json.MarshalIndent(config.Default(projectName), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := ic.filesystem.WriteFile(filepath.Join(projectName, config.FileName), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// serviceName turns a project name like "pet-store" into "PetStoreService"
func serviceName(projectName string) string {
	var b strings.Builder
	upper := true
	for _, r := range projectName {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if b.Len() == 0 && unicode.IsDigit(r) {
			b.WriteString("S")
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String() + "Service"
}
