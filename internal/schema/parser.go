package schema

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wundergraph/graphql-go-tools/v2/pkg/ast"
	"github.com/wundergraph/graphql-go-tools/v2/pkg/astparser"

	"github.com/okra-platform/stitch/internal/graph"
	"github.com/okra-platform/stitch/internal/language"
	"github.com/okra-platform/stitch/internal/transform"
)

const (
	serviceDirective  = "service"
	renamedDirective  = "renamed"
	hydratedDirective = "hydrated"
)

// repeatedTypeRegex matches object type definitions at the start of a
// masked line, optionally preceded by a single line description
var repeatedTypeRegex = regexp.MustCompile(`(?m)^[ \t]*(?:"+ *"+[ \t]*)?(type)[ \t]+(\w+)`)

// ParseSchema parses an overall schema file into its services and field transformations
func ParseSchema(input string) (*Definition, error) {
	// First preprocess the input
	preprocessed, blocks := preprocess(input)

	seen := make(map[string]bool, len(blocks))
	for _, name := range blocks {
		if seen[name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateService, name)
		}
		seen[name] = true
	}
	masked, _ := maskLiterals(preprocessed)
	lines := strings.Split(preprocessed, "\n")
	for i, code := range strings.Split(masked, "\n") {
		if strings.Contains(code, "=>") {
			return nil, fmt.Errorf("%w: line %d: %s", ErrInvalidDeclaration, i+1, strings.TrimSpace(lines[i]))
		}
	}

	sdl := mergeRepeatedTypes(preprocessed)

	// Parse the GraphQL document
	doc, report := astparser.ParseGraphqlDocumentString(sdl)
	if report.HasErrors() {
		return nil, fmt.Errorf("%w: failed to parse GraphQL: %s", ErrInvalidDeclaration, report.Error())
	}

	p := &parser{
		doc:   &doc,
		lines: strings.Split(input, "\n"),
		def: &Definition{
			Services:        []Service{},
			Transformations: make(map[graph.Coordinate]*transform.FieldTransformation),
			Ownership:       make(map[graph.Coordinate]string),
			SDL:             sdl,
		},
	}
	for _, name := range blocks {
		p.def.Services = append(p.def.Services, Service{Name: name, Types: []string{}})
	}

	// Walk through definitions
	for i := range doc.RootNodes {
		if err := p.rootNode(doc.RootNodes[i]); err != nil {
			return nil, err
		}
	}

	return p.def, nil
}

// mergeRepeatedTypes turns every repeated `type X` into `extend type X`, so
// services can each contribute fields to shared types such as Query.
// Extensions cannot carry descriptions, so the description of a repeated
// definition is blanked out.
func mergeRepeatedTypes(sdl string) string {
	masked, spans := maskLiterals(sdl)

	type edit struct {
		from, to int
		text     string
	}
	var edits []edit
	declared := make(map[string]bool)
	for _, m := range repeatedTypeRegex.FindAllStringSubmatchIndex(masked, -1) {
		name := masked[m[4]:m[5]]
		if !declared[name] {
			declared[name] = true
			continue
		}
		if span, ok := descriptionBefore(masked, spans, m[2]); ok {
			edits = append(edits, edit{from: span[0], to: span[1], text: blankOut(sdl[span[0]:span[1]])})
		}
		edits = append(edits, edit{from: m[2], to: m[3], text: "extend type"})
	}

	var b strings.Builder
	last := 0
	for _, e := range edits {
		b.WriteString(sdl[last:e.from])
		b.WriteString(e.text)
		last = e.to
	}
	b.WriteString(sdl[last:])
	return b.String()
}

// descriptionBefore returns the string literal that directly precedes the
// keyword at offset, if any
func descriptionBefore(masked string, spans [][2]int, offset int) ([2]int, bool) {
	end := len(strings.TrimRight(masked[:offset], " \t\r\n,"))
	if end == 0 || masked[end-1] != '"' {
		return [2]int{}, false
	}
	for _, span := range spans {
		if span[1] == end {
			return span, true
		}
	}
	return [2]int{}, false
}

// blankOut replaces everything but newlines with spaces
func blankOut(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' {
			return r
		}
		return ' '
	}, s)
}

type parser struct {
	doc   *ast.Document
	lines []string
	def   *Definition
}

func (p *parser) rootNode(node ast.Node) error {
	switch node.Kind {
	case ast.NodeKindObjectTypeDefinition:
		def := p.doc.ObjectTypeDefinitions[node.Ref]
		return p.fieldsContainer(p.doc.Input.ByteSliceString(def.Name), def.Directives, def.FieldsDefinition)
	case ast.NodeKindObjectTypeExtension:
		ext := p.doc.ObjectTypeExtensions[node.Ref]
		return p.fieldsContainer(p.doc.Input.ByteSliceString(ext.Name), ext.Directives, ext.FieldsDefinition)
	case ast.NodeKindInterfaceTypeDefinition:
		def := p.doc.InterfaceTypeDefinitions[node.Ref]
		return p.fieldsContainer(p.doc.Input.ByteSliceString(def.Name), def.Directives, def.FieldsDefinition)
	case ast.NodeKindInputObjectTypeDefinition:
		def := p.doc.InputObjectTypeDefinitions[node.Ref]
		_, err := p.declare(p.doc.Input.ByteSliceString(def.Name), def.Directives)
		return err
	case ast.NodeKindEnumTypeDefinition:
		def := p.doc.EnumTypeDefinitions[node.Ref]
		_, err := p.declare(p.doc.Input.ByteSliceString(def.Name), def.Directives)
		return err
	case ast.NodeKindUnionTypeDefinition:
		def := p.doc.UnionTypeDefinitions[node.Ref]
		_, err := p.declare(p.doc.Input.ByteSliceString(def.Name), def.Directives)
		return err
	case ast.NodeKindScalarTypeDefinition:
		def := p.doc.ScalarTypeDefinitions[node.Ref]
		_, err := p.declare(p.doc.Input.ByteSliceString(def.Name), def.Directives)
		return err
	}
	return nil
}

// declare registers typeName with the service named by its @service directive
func (p *parser) declare(typeName string, directives ast.DirectiveList) (string, error) {
	var service string
	for _, ref := range directives.Refs {
		if p.directiveName(ref) != serviceDirective {
			continue
		}
		args := p.directiveArgs(ref)
		name, ok := p.stringValue(args["name"])
		if !ok || name == "" {
			return "", fmt.Errorf("%w: @service on %s needs a name", ErrInvalidDeclaration, typeName)
		}
		service = name
	}
	if service == "" {
		return "", nil
	}

	s, ok := p.def.Service(service)
	if !ok {
		p.def.Services = append(p.def.Services, Service{Name: service, Types: []string{}})
		s = &p.def.Services[len(p.def.Services)-1]
	}
	s.Types = append(s.Types, typeName)
	return service, nil
}

func (p *parser) fieldsContainer(typeName string, directives ast.DirectiveList, fields ast.FieldDefinitionList) error {
	service, err := p.declare(typeName, directives)
	if err != nil {
		return err
	}

	for _, fieldRef := range fields.Refs {
		fieldDef := p.doc.FieldDefinitions[fieldRef]
		coord := graph.Coordinate{Type: typeName, Field: p.doc.Input.ByteSliceString(fieldDef.Name)}
		if service != "" {
			p.def.Ownership[coord] = service
		}

		t, err := p.transformation(coord, fieldDef.Directives)
		if err != nil {
			return err
		}
		if t == nil {
			continue
		}
		if _, exists := p.def.Transformations[coord]; exists {
			return fmt.Errorf("%w: %s declares more than one transformation", ErrInvalidDeclaration, coord)
		}
		p.def.Transformations[coord] = t
	}
	return nil
}

// transformation builds the transformation declared by a field's directives, if any
func (p *parser) transformation(coord graph.Coordinate, directives ast.DirectiveList) (*transform.FieldTransformation, error) {
	var (
		mapping   *transform.FieldMappingDefinition
		hydration *transform.UnderlyingServiceHydration
		at        ast.Directive
	)
	for _, ref := range directives.Refs {
		var err error
		switch p.directiveName(ref) {
		case renamedDirective:
			if mapping != nil {
				return nil, fmt.Errorf("%w: %s is renamed twice", ErrInvalidDeclaration, coord)
			}
			mapping, err = p.mapping(ref)
		case hydratedDirective:
			if hydration != nil {
				return nil, fmt.Errorf("%w: %s is hydrated twice", ErrInvalidDeclaration, coord)
			}
			hydration, err = p.hydration(ref)
		default:
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", coord, err)
		}
		at = p.doc.Directives[ref]
	}
	if mapping == nil && hydration == nil {
		return nil, nil
	}

	line := int(at.At.LineStart)
	t, err := transform.New(mapping, hydration,
		transform.WithLocation(language.Location{Line: line, Column: int(at.At.CharStart)}),
		transform.WithComments(p.commentsAbove(line)...),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidDeclaration, coord, err)
	}
	return t, nil
}

func (p *parser) mapping(ref int) (*transform.FieldMappingDefinition, error) {
	args := p.directiveArgs(ref)
	from, ok := p.stringValue(args["from"])
	if !ok {
		return nil, fmt.Errorf("%w: @renamed needs a from path", ErrInvalidDeclaration)
	}
	return &transform.FieldMappingDefinition{InputPath: strings.Split(from, ".")}, nil
}

func (p *parser) hydration(ref int) (*transform.UnderlyingServiceHydration, error) {
	args := p.directiveArgs(ref)
	h := &transform.UnderlyingServiceHydration{}

	h.ServiceName, _ = p.stringValue(args["service"])
	field, ok := p.stringValue(args["field"])
	if !ok {
		return nil, fmt.Errorf("%w: @hydrated needs a field", ErrInvalidDeclaration)
	}
	switch path := strings.Split(field, "."); len(path) {
	case 1:
		h.TopLevelField = path[0]
	case 2:
		h.SyntheticField, h.TopLevelField = path[0], path[1]
	default:
		return nil, fmt.Errorf("%w: hydration field %q is nested too deeply", ErrInvalidDeclaration, field)
	}

	arguments, ok := args["arguments"]
	if !ok || arguments.Kind != ast.ValueKindList {
		return nil, fmt.Errorf("%w: @hydrated needs a list of arguments", ErrInvalidDeclaration)
	}
	for _, valueRef := range p.doc.ListValues[arguments.Ref].Refs {
		arg, err := p.remoteArgument(p.doc.Values[valueRef])
		if err != nil {
			return nil, err
		}
		h.Arguments = append(h.Arguments, arg)
	}

	h.ObjectIdentifier, _ = p.stringValue(args["identifiedBy"])
	if v, ok := args["batchSize"]; ok {
		if v.Kind != ast.ValueKindInteger {
			return nil, fmt.Errorf("%w: batchSize must be an integer", ErrInvalidDeclaration)
		}
		h.BatchSize = int(p.doc.IntValueAsInt(v.Ref))
	}
	return h, nil
}

func (p *parser) remoteArgument(value ast.Value) (transform.RemoteArgument, error) {
	if value.Kind != ast.ValueKindObject {
		return transform.RemoteArgument{}, fmt.Errorf("%w: hydration arguments must be objects", ErrInvalidDeclaration)
	}
	fields := make(map[string]ast.Value)
	for _, ref := range p.doc.ObjectValues[value.Ref].Refs {
		field := p.doc.ObjectFields[ref]
		fields[p.doc.Input.ByteSliceString(field.Name)] = field.Value
	}

	name, ok := p.stringValue(fields["name"])
	if !ok {
		return transform.RemoteArgument{}, fmt.Errorf("%w: hydration argument needs a name", ErrInvalidDeclaration)
	}
	raw, ok := p.stringValue(fields["value"])
	if !ok {
		return transform.RemoteArgument{}, fmt.Errorf("%w: hydration argument %s needs a value", ErrInvalidDeclaration, name)
	}
	source, err := transform.ParseRemoteArgumentSource(raw)
	if err != nil {
		return transform.RemoteArgument{}, err
	}
	return transform.RemoteArgument{Name: name, Source: source}, nil
}

func (p *parser) directiveName(ref int) string {
	return p.doc.Input.ByteSliceString(p.doc.Directives[ref].Name)
}

func (p *parser) directiveArgs(ref int) map[string]ast.Value {
	args := make(map[string]ast.Value)
	for _, argRef := range p.doc.Directives[ref].Arguments.Refs {
		name := p.doc.Input.ByteSliceString(p.doc.Arguments[argRef].Name)
		args[name] = p.doc.ArgumentValue(argRef)
	}
	return args
}

func (p *parser) stringValue(value ast.Value) (string, bool) {
	if value.Kind != ast.ValueKindString {
		return "", false
	}
	return p.doc.StringValueContentString(value.Ref), true
}

// commentsAbove collects the # comment lines directly above a 1-indexed line
func (p *parser) commentsAbove(line int) []string {
	var comments []string
	for i := line - 2; i >= 0 && i < len(p.lines); i-- {
		trimmed := strings.TrimSpace(p.lines[i])
		if !strings.HasPrefix(trimmed, "#") {
			break
		}
		comments = append([]string{trimmed}, comments...)
	}
	return comments
}
