package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/okra-platform/stitch/internal/transform"
)

// InspectOptions contains options for the inspect command
type InspectOptions struct {
	Schema string
}

// Inspect lists the services of an overall schema and the transformations
// declared on its fields
func (c *Controller) Inspect(ctx context.Context, opts InspectOptions) error {
	path, _, err := schemaPath(opts.Schema)
	if err != nil {
		return err
	}
	def, s, err := loadSchemaFile(path)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.out(), 0, 4, 2, ' ', 0)

	fmt.Fprintf(w, "Services (%d)\n", len(def.Services))
	for _, service := range def.Services {
		fmt.Fprintf(w, "  %s\t%s\n", service.Name, strings.Join(service.Types, ", "))
	}

	fields := s.Transformations()
	fmt.Fprintf(w, "\nTransformations (%d)\n", len(fields))
	for _, field := range fields {
		t, _ := field.Transformation()
		owner, ok := def.Owner(field.Coordinate())
		if !ok {
			owner = "-"
		}
		fmt.Fprintf(w, "  %s\t%s\t%s\n", field, owner, describe(t))
	}

	return w.Flush()
}

// describe renders a transformation the way it is declared
func describe(t *transform.FieldTransformation) string {
	if m, ok := t.FieldMappingDefinition(); ok {
		return "renamed from " + strings.Join(m.InputPath, ".")
	}

	h, _ := t.UnderlyingServiceHydration()
	args := make([]string, 0, len(h.Arguments))
	for _, a := range h.Arguments {
		args = append(args, a.Name+": "+a.Source.String())
	}

	var b strings.Builder
	fmt.Fprintf(&b, "hydrated from %s.%s(%s)", h.ServiceName, strings.Join(h.FieldPath(), "."), strings.Join(args, ", "))
	if h.ObjectIdentifier != "" {
		fmt.Fprintf(&b, " object identified by %s", h.ObjectIdentifier)
	}
	if h.BatchSize > 0 {
		fmt.Fprintf(&b, " batch size %d", h.BatchSize)
	}
	return b.String()
}
