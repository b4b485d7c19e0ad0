package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// serviceStartRegex matches service declarations at the start of a line.
// Captures the service name which must be a valid GraphQL identifier.
var serviceStartRegex = regexp.MustCompile(`^\s*service\s+(\w+)\s*{\s*$`)

// typeStartRegex matches a type system definition inside a service block,
// optionally preceded by a single line description
var typeStartRegex = regexp.MustCompile(`^(\s*(?:"+ *"+\s*)?(?:extend\s+)?(?:type|interface|input|enum|union|scalar)\s+\w+)`)

// renamedRegex matches `=> renamed from a.b.c`
var renamedRegex = regexp.MustCompile(`^=>\s*renamed\s+from\s+([\w.]+)$`)

// hydratedRegex matches `=> hydrated from Service.[synthetic.]field(args) [object identified by x] [batch size n]`
var hydratedRegex = regexp.MustCompile(`^=>\s*hydrated\s+from\s+(\w+)\.([\w.]+)\s*\(([^)]*)\)(?:\s+object\s+identified\s+by\s+(\w+))?(?:\s+batch\s+size\s+(\d+))?$`)

// hydrationArgRegex matches one `name: $source.path` binding
var hydrationArgRegex = regexp.MustCompile(`^\s*(\w+)\s*:\s*(\$\w+(?:\.\w+)+)\s*$`)

// PreprocessGraphQL rewrites `service` blocks and `=>` field transformations
// into plain GraphQL carrying @service, @renamed and @hydrated directives.
// Line numbers are preserved so parse errors point at the original source.
func PreprocessGraphQL(input string) string {
	out, _ := preprocess(input)
	return out
}

// preprocess also returns the service blocks in declaration order
func preprocess(input string) (string, []string) {
	lines := strings.Split(input, "\n")
	masked, _ := maskLiterals(input)
	codes := strings.Split(masked, "\n")
	var services []string

	service := ""
	depth := 0
	for i, line := range lines {
		code := codes[i]
		if service == "" {
			if m := serviceStartRegex.FindStringSubmatch(code); m != nil {
				service = m[1]
				services = append(services, service)
				depth = 0
				lines[i] = ""
				continue
			}
		} else {
			if depth == 0 && strings.TrimSpace(code) == "}" {
				service = ""
				lines[i] = ""
				continue
			}
			if depth == 0 {
				line, code = tagDefinition(line, code, service)
			}
			depth += strings.Count(code, "{") - strings.Count(code, "}")
		}
		lines[i] = rewriteTransformation(line, code)
	}

	return strings.Join(lines, "\n"), services
}

// tagDefinition adds @service to a type definition line. code is line with
// its literals masked; both are returned with the directive inserted.
func tagDefinition(line, code, service string) (string, string) {
	m := typeStartRegex.FindStringIndex(code)
	if m == nil {
		return line, code
	}
	directive := fmt.Sprintf(` @service(name: %q)`, service)
	if i := strings.IndexAny(code[m[1]:], "{="); i >= 0 {
		body := m[1] + i
		at := len(strings.TrimRight(code[:body], " "))
		directive += " "
		return line[:at] + directive + line[body:], code[:at] + strings.Repeat(" ", len(directive)) + code[body:]
	}
	at := len(strings.TrimRight(code, " \t"))
	return line[:at] + directive + line[at:], code[:at] + strings.Repeat(" ", len(directive)) + code[at:]
}

// rewriteTransformation turns a trailing `=>` declaration into a directive.
// Arrows inside descriptions, strings and comments are ignored.
func rewriteTransformation(line, code string) string {
	i := strings.Index(code, "=>")
	if i < 0 {
		return line
	}
	head, decl := strings.TrimRight(line[:i], " \t"), strings.TrimSpace(code[i:])
	if m := renamedRegex.FindStringSubmatch(decl); m != nil {
		return fmt.Sprintf(`%s @renamed(from: %q)`, head, m[1])
	}
	if m := hydratedRegex.FindStringSubmatch(decl); m != nil {
		args, ok := hydrationArguments(m[3])
		if !ok {
			return line
		}
		var b strings.Builder
		fmt.Fprintf(&b, `%s @hydrated(service: %q, field: %q, arguments: [%s]`, head, m[1], m[2], args)
		if m[4] != "" {
			fmt.Fprintf(&b, `, identifiedBy: %q`, m[4])
		}
		if m[5] != "" {
			fmt.Fprintf(&b, `, batchSize: %s`, m[5])
		}
		b.WriteString(")")
		return b.String()
	}
	// left as is; the parser reports the line
	return line
}

func hydrationArguments(list string) (string, bool) {
	var out []string
	for _, binding := range strings.Split(list, ",") {
		m := hydrationArgRegex.FindStringSubmatch(binding)
		if m == nil {
			return "", false
		}
		out = append(out, fmt.Sprintf(`{name: %q, value: %q}`, m[1], m[2]))
	}
	return strings.Join(out, ", "), true
}

// maskLiterals blanks the contents of strings, block strings and comments,
// keeping quotes and newlines so offsets and line numbers still match src.
// It also returns the byte span of every string literal, quotes included.
func maskLiterals(src string) (string, [][2]int) {
	out := []byte(src)
	var spans [][2]int
	blank := func(from, to int) {
		for j := from; j < to; j++ {
			if out[j] != '\n' {
				out[j] = ' '
			}
		}
	}

	for i := 0; i < len(src); {
		switch {
		case src[i] == '#':
			end := strings.IndexByte(src[i:], '\n')
			if end < 0 {
				end = len(src)
			} else {
				end += i
			}
			blank(i, end)
			i = end
		case strings.HasPrefix(src[i:], `"""`):
			j := i + 3
			for j < len(src) && !strings.HasPrefix(src[j:], `"""`) {
				if strings.HasPrefix(src[j:], `\"""`) {
					j += 4
					continue
				}
				j++
			}
			blank(i+3, j)
			end := min(j+3, len(src))
			spans = append(spans, [2]int{i, end})
			i = end
		case src[i] == '"':
			j := i + 1
			for j < len(src) && src[j] != '"' && src[j] != '\n' {
				if src[j] == '\\' && j+1 < len(src) {
					j++
				}
				j++
			}
			blank(i+1, j)
			end := j
			if j < len(src) && src[j] == '"' {
				end++
			}
			spans = append(spans, [2]int{i, end})
			i = end
		default:
			i++
		}
	}

	return string(out), spans
}
