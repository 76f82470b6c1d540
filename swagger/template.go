package swagger

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrTemplate is returned for malformed route templates.
var ErrTemplate = errors.New("invalid route template")

// macroFormats maps route placeholder macros to Swagger type and format.
var macroFormats = map[string][2]string{
	"uuid":     {"string", "uuid"},
	"int":      {"integer", "int64"},
	"float":    {"number", "double"},
	"slug":     {"string", ""},
	"alpha":    {"string", ""},
	"alphanum": {"string", ""},
	"date":     {"string", "date"},
	"hex":      {"string", ""},
	"domain":   {"string", "hostname"},
}

// pathVarRegexp matches route variables in the form {name} or {name:macro}.
var pathVarRegexp = regexp.MustCompile(`\{([^}]*)\}`)

// Template is a normalized route template.
type Template struct {
	// Path is the route with macros stripped, e.g. "/widgets/{id}".
	Path string

	// PathVars lists path placeholders in order of appearance.
	PathVars []TemplateVar

	// QueryVars lists query placeholders ("?key={var}") in order.
	QueryVars []TemplateVar
}

// TemplateVar is one placeholder of a route template.
type TemplateVar struct {
	// Name is the placeholder variable name.
	Name string

	// Key is the query string key bound to the variable. Empty for
	// path variables.
	Key string

	// Type and Format come from a known macro; both are empty otherwise.
	Type   string
	Format string
}

// PathVar returns the path placeholder named name.
func (t Template) PathVar(name string) (TemplateVar, bool) {
	for _, v := range t.PathVars {
		if v.Name == name {
			return v, true
		}
	}
	return TemplateVar{}, false
}

// QueryVar returns the query placeholder whose variable is name.
func (t Template) QueryVar(name string) (TemplateVar, bool) {
	for _, v := range t.QueryVars {
		if v.Name == name {
			return v, true
		}
	}
	return TemplateVar{}, false
}

// ParseTemplate joins route under prefix, normalizes the result and
// extracts its placeholders. The returned Path always starts with "/",
// never contains empty segments and has no trailing slash unless it is
// the root.
func ParseTemplate(prefix, route string) (Template, error) {
	route, query, _ := strings.Cut(route, "?")

	var tpl Template
	var parseErr error

	path := pathVarRegexp.ReplaceAllStringFunc(JoinRoute(prefix, route), func(match string) string {
		inner := match[1 : len(match)-1]
		name, macro, _ := strings.Cut(inner, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			parseErr = fmt.Errorf("%w: empty placeholder in %q", ErrTemplate, route)
			return match
		}
		if _, dup := tpl.PathVar(name); dup {
			parseErr = fmt.Errorf("%w: duplicate placeholder %q", ErrTemplate, name)
			return match
		}

		v := TemplateVar{Name: name}
		if info, ok := macroFormats[macro]; ok {
			v.Type, v.Format = info[0], info[1]
		}
		tpl.PathVars = append(tpl.PathVars, v)
		return "{" + name + "}"
	})
	if parseErr != nil {
		return Template{}, parseErr
	}
	tpl.Path = path

	if query == "" {
		return tpl, nil
	}

	for pair := range strings.SplitSeq(query, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		m := pathVarRegexp.FindStringSubmatch(value)
		if m == nil || m[0] != value {
			// Literal query values are part of the route, not parameters.
			continue
		}
		name, _, _ := strings.Cut(m[1], ":")
		if key == "" || name == "" {
			return Template{}, fmt.Errorf("%w: bad query placeholder %q", ErrTemplate, pair)
		}
		tpl.QueryVars = append(tpl.QueryVars, TemplateVar{Name: name, Key: key})
	}

	return tpl, nil
}

// RouteKey returns path with placeholder names erased, so "/w/{id}" and
// "/w/{key}" share a key. Swagger treats such templates as one route.
func RouteKey(path string) string {
	return pathVarRegexp.ReplaceAllString(path, "{}")
}

// JoinRoute joins route segments with single slashes. The result starts
// with "/" and has no trailing slash unless it is the root.
func JoinRoute(parts ...string) string {
	var segments []string
	for _, part := range parts {
		for seg := range strings.SplitSeq(part, "/") {
			if seg != "" {
				segments = append(segments, seg)
			}
		}
	}
	return "/" + strings.Join(segments, "/")
}
