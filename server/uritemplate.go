package server

import (
	"regexp"
	"strings"
)

// placeholderPattern matches {name} placeholders in a URI template.
var placeholderPattern = regexp.MustCompile(`\{([^}]+)\}`)

// Template is a compiled URI template. Placeholders match one or more
// non-slash characters; everything else must match literally. A template
// with no placeholders matches only the literal URI.
type Template struct {
	raw   string
	re    *regexp.Regexp
	names []string
}

// CompileTemplate compiles a URI template like "files://{path}/{name}".
func CompileTemplate(template string) (*Template, error) {
	matches := placeholderPattern.FindAllStringSubmatch(template, -1)

	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}

	pattern := regexp.QuoteMeta(template)
	pattern = strings.ReplaceAll(pattern, `\{`, "{")
	pattern = strings.ReplaceAll(pattern, `\}`, "}")
	pattern = placeholderPattern.ReplaceAllString(pattern, `([^/]+)`)
	pattern = "^" + pattern + "$"

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	return &Template{raw: template, re: re, names: names}, nil
}

// Raw returns the original template string.
func (t *Template) Raw() string {
	return t.raw
}

// Names returns the placeholder names in declaration order.
func (t *Template) Names() []string {
	return append([]string(nil), t.names...)
}

// Match extracts named variables from a concrete URI. The second return
// value is false when the URI does not match; a non-matching URI never
// produces a partial variable map.
func (t *Template) Match(uri string) (map[string]string, bool) {
	groups := t.re.FindStringSubmatch(uri)
	if groups == nil {
		return nil, false
	}

	vars := make(map[string]string, len(t.names))
	for i, name := range t.names {
		vars[name] = groups[i+1]
	}
	return vars, true
}
