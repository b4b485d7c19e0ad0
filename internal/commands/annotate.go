package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/rs/zerolog/log"

	"github.com/okra-platform/stitch/internal/graph"
	"github.com/okra-platform/stitch/internal/language"
	"github.com/okra-platform/stitch/internal/typeinfo"
)

// Output formats of the annotate command
const (
	FormatJSON = "json"
	FormatDump = "dump"
)

// AnnotateOptions contains options for the annotate command
type AnnotateOptions struct {
	// Schema is the overall schema file; the project's default namespace when empty
	Schema string
	// Type records the query's selection set against this output type
	// instead of the operation's root type
	Type string
	// IDs names the identifier generator; the project's setting when empty
	IDs    string
	Format string
	// Query is the operation file, or "-" for stdin
	Query string
	Stdin io.Reader
}

// dumpConfig renders records without addresses so output is stable
var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

func (c *Controller) Annotate(ctx context.Context, opts AnnotateOptions) error {
	path, p, err := schemaPath(opts.Schema)
	if err != nil {
		return err
	}
	_, s, err := loadSchemaFile(path)
	if err != nil {
		return err
	}

	ids := opts.IDs
	if ids == "" && p != nil {
		ids = p.config.Recorder.IDs
	}
	gen, err := typeinfo.GeneratorFor(ids)
	if err != nil {
		return err
	}

	query, err := readQuery(opts.Query, opts.Stdin)
	if err != nil {
		return err
	}

	recorder := typeinfo.NewRecorder(typeinfo.WithLogger(log.Logger), typeinfo.WithIDs(gen))
	root, table, err := annotate(recorder, s, query, opts.Type)
	if err != nil {
		return err
	}

	views, err := typeinfo.BuildReport(root, table)
	if err != nil {
		return err
	}

	switch opts.Format {
	case "", FormatJSON:
		enc := json.NewEncoder(c.out())
		enc.SetIndent("", "  ")
		return enc.Encode(views)
	case FormatDump:
		dumpConfig.Fdump(c.out(), views)
		return nil
	default:
		return fmt.Errorf("unknown format %q (expected %s or %s)", opts.Format, FormatJSON, FormatDump)
	}
}

// annotate records a whole validated document, or only the selection set of
// its first operation when typeName is given
func annotate(recorder *typeinfo.Recorder, s *graph.Schema, query, typeName string) (language.Node, *typeinfo.Table, error) {
	if typeName == "" {
		doc, err := language.LoadQuery(s.Source(), query)
		if err != nil {
			return nil, nil, err
		}
		return recorder.Record(doc, s, nil)
	}

	root, ok := s.Type(typeName)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", typeinfo.ErrUnknownType, typeName)
	}
	doc, err := language.Parse(query)
	if err != nil {
		return nil, nil, err
	}
	op, ok := doc.Operation("")
	if !ok {
		return nil, nil, fmt.Errorf("query has no selection set to record against %s", typeName)
	}
	return recorder.Record(op.SelectionSet, s, root)
}

func readQuery(path string, stdin io.Reader) (string, error) {
	if path == "" {
		return "", fmt.Errorf("query file required")
	}

	var (
		data []byte
		err  error
	)
	if path == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read query: %w", err)
	}
	return string(data), nil
}
