package swagger

import (
	"encoding/json"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Exampler can be implemented by definition types to provide an example
// value. The returned value is set as the "example" field of the
// definition.
//
//	func (w Widget) SwaggerExample() any {
//	    return Widget{ID: 1, Name: "sprocket"}
//	}
type Exampler interface {
	SwaggerExample() any
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
	rawJSONType = reflect.TypeOf(json.RawMessage(nil))
)

// Resolver converts Go types to Swagger schemas and collects named
// struct types into a flat definitions table. One Resolver serves one
// document build; every distinct type is registered exactly once.
//
// See: https://swagger.io/specification/v2/#schema-object
// See: https://swagger.io/specification/v2/#definitions-object
type Resolver struct {
	filter    TagFilter
	defs      map[string]*Schema
	visited   map[reflect.Type]bool
	resolving map[reflect.Type]bool   // named containers being resolved
	typeNames map[reflect.Type]string // type -> chosen definition name
	nameTypes map[string]reflect.Type // definition name -> type that claimed it
}

// NewResolver creates a resolver applying filter to named struct types.
func NewResolver(filter TagFilter) *Resolver {
	return &Resolver{
		filter:    filter,
		defs:      make(map[string]*Schema),
		visited:   make(map[reflect.Type]bool),
		resolving: make(map[reflect.Type]bool),
		typeNames: make(map[reflect.Type]string),
		nameTypes: make(map[string]reflect.Type),
	}
}

// Definitions returns the collected definitions sorted by name.
func (r *Resolver) Definitions() []*Definition {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)

	defs := make([]*Definition, 0, len(names))
	for _, name := range names {
		defs = append(defs, &Definition{Name: name, Schema: r.defs[name]})
	}
	return defs
}

// Resolve produces a schema for t. Named struct types are registered as
// definitions and returned as references. A nil result means the type
// cannot be described (hidden or filtered out, or a kind such as chan
// or func) and callers must omit the reference.
func (r *Resolver) Resolve(t reflect.Type) *Schema {
	if t == nil {
		return nil
	}
	return r.resolveType(t)
}

// IsPrimitive reports whether t resolves to an inline scalar fragment
// and never to a definition. Pointers to primitives are primitive.
func IsPrimitive(t reflect.Type) bool {
	_, _, ok := Primitive(t)
	return ok
}

// Primitive returns the Swagger type and format for scalar Go types.
//
// See: https://swagger.io/specification/v2/#data-types
func Primitive(t reflect.Type) (typ, format string, ok bool) {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t {
	case timeType:
		return "string", "date-time", true
	case uuidType:
		return "string", "uuid", true
	}

	switch t.Kind() {
	case reflect.Bool:
		return "boolean", "", true
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return "integer", "int32", true
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64:
		return "integer", "int64", true
	case reflect.Float32:
		return "number", "float", true
	case reflect.Float64:
		return "number", "double", true
	case reflect.String:
		return "string", "", true
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 && t != rawJSONType {
			return "string", "byte", true
		}
	}
	return "", "", false
}

// resolveType produces a schema using references for named struct types
// and self-referencing named containers, and inline schemas for
// everything else.
func (r *Resolver) resolveType(t reflect.Type) *Schema {
	nullable := false
	if t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}

	if t.Kind() == reflect.Struct && t != timeType && t.Name() != "" && t.PkgPath() != "" {
		if !r.filter.Admits(sanitizeSchemaName(t.Name())) {
			return nil
		}

		name := r.schemaName(t)
		if !r.visited[t] {
			r.visited[t] = true

			// Register before descending so self references resolve
			// to the name instead of recursing.
			schema := &Schema{}
			r.defs[name] = schema
			r.fillStruct(t, schema)

			if ex, ok := reflect.New(t).Interface().(Exampler); ok {
				schema.Example = ex.SwaggerExample()
			}
		}
		return RefTo(name)
	}

	var schema *Schema
	if isNamedContainer(t) {
		if ref, ok := r.resolveContainer(t); ok {
			return ref
		}
		schema = r.resolveNamedInline(t)
	} else {
		schema = r.resolveInline(t)
	}

	if nullable && schema != nil {
		schema.Nullable = true
	}
	return schema
}

func isNamedContainer(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return t.Name() != "" && t.PkgPath() != ""
	}
	return false
}

// resolveContainer handles a named map, slice or array type reached
// again while it is still being resolved, as in
// "type Tree map[string]Tree". Such a type is registered as a
// definition and referenced by name. The placeholder is filled by the
// outer resolveNamedInline call.
func (r *Resolver) resolveContainer(t reflect.Type) (*Schema, bool) {
	if name, ok := r.typeNames[t]; ok {
		if _, defined := r.defs[name]; defined {
			return RefTo(name), true
		}
	}
	if !r.resolving[t] {
		return nil, false
	}
	if !r.filter.Admits(sanitizeSchemaName(t.Name())) {
		return nil, true
	}

	name := r.schemaName(t)
	r.defs[name] = &Schema{}
	return RefTo(name), true
}

// resolveNamedInline resolves a named container inline unless it turned
// out to refer to itself, in which case its definition is filled in and
// a reference is returned.
func (r *Resolver) resolveNamedInline(t reflect.Type) *Schema {
	r.resolving[t] = true
	schema := r.resolveInline(t)
	delete(r.resolving, t)

	name, ok := r.typeNames[t]
	if !ok {
		return schema
	}
	placeholder, ok := r.defs[name]
	if !ok {
		return schema
	}
	if schema == nil {
		delete(r.defs, name)
		return nil
	}
	*placeholder = *schema
	return RefTo(name)
}

// resolveInline maps scalar and container types to inline schemas.
func (r *Resolver) resolveInline(t reflect.Type) *Schema {
	if typ, format, ok := Primitive(t); ok {
		return &Schema{Type: typ, Format: format}
	}

	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		if t == rawJSONType {
			return &Schema{}
		}
		items := r.resolveType(t.Elem())
		if items == nil {
			return nil
		}
		return &Schema{Type: "array", Items: items}

	case reflect.Map:
		schema := &Schema{Type: "object"}
		if t.Key().Kind() == reflect.String {
			schema.AdditionalProperties = r.resolveType(t.Elem())
		}
		return schema

	case reflect.Struct:
		schema := &Schema{}
		r.fillStruct(t, schema)
		return schema

	case reflect.Interface:
		return &Schema{}
	}

	return nil
}

// fillStruct builds an object schema from struct fields in place.
func (r *Resolver) fillStruct(t reflect.Type, schema *Schema) {
	schema.Type = "object"
	r.collectFields(t, schema, false)
}

// collectFields collects struct fields into the schema, following
// encoding/json naming rules. When allOptional is true every field is
// optional; this covers pointer-embedded structs, which may be nil and
// drop all their fields from the JSON output.
func (r *Resolver) collectFields(t reflect.Type, schema *Schema, allOptional bool) {
	for i := range t.NumField() {
		field := t.Field(i)

		if field.Anonymous {
			ft := field.Type
			isPtr := ft.Kind() == reflect.Pointer
			if isPtr {
				ft = ft.Elem()
			}
			// Embedded structs of unexported types still promote
			// their exported fields.
			if !field.IsExported() && ft.Kind() != reflect.Struct {
				continue
			}
			jsonName, _ := parseJSONTag(field.Tag.Get("json"))
			if jsonName == "" && ft.Kind() == reflect.Struct {
				r.collectFields(ft, schema, allOptional || isPtr)
				continue
			}
		} else if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		name, opts := parseJSONTag(jsonTag)
		if name == "" {
			name = field.Name
		}

		fieldSchema := r.resolveType(field.Type)
		if fieldSchema == nil {
			continue
		}

		// $ref siblings are ignored by Swagger 2.0 tooling.
		if fieldSchema.Ref == "" {
			applySwaggerTag(fieldSchema, field.Tag.Get("swagger"))
			if opts.stringEncode {
				fieldSchema.Type = "string"
				fieldSchema.Format = ""
			}
		}

		setProperty(schema, name, fieldSchema)

		if !opts.omitempty && !allOptional && !slices.Contains(schema.Required, name) {
			schema.Required = append(schema.Required, name)
		}
	}
}

// setProperty adds or replaces a property, keeping declaration order.
func setProperty(schema *Schema, name string, s *Schema) {
	for _, p := range schema.Properties {
		if p.Name == name {
			p.Schema = s
			return
		}
	}
	schema.Properties = append(schema.Properties, &Property{Name: name, Schema: s})
}

type jsonTagOpts struct {
	omitempty    bool
	stringEncode bool // encoding/json ",string" option
}

func parseJSONTag(tag string) (string, jsonTagOpts) {
	if tag == "" {
		return "", jsonTagOpts{}
	}
	name, rest, _ := strings.Cut(tag, ",")
	return name, jsonTagOpts{
		omitempty:    strings.Contains(rest, "omitempty") || strings.Contains(rest, "omitzero"),
		stringEncode: strings.Contains(rest, "string"),
	}
}

// applySwaggerTag parses the `swagger` struct tag and applies schema
// keywords. Unknown keys are ignored. Values containing commas are
// wrapped in single quotes.
//
//	Name string `json:"name" swagger:"description=Display name,minLength=1"`
//	Note string `json:"note" swagger:"description='Free text, may be empty'"`
//
// See: https://swagger.io/specification/v2/#schema-object
func applySwaggerTag(schema *Schema, tag string) {
	if tag == "" {
		return
	}

	for _, part := range splitTagOptions(tag) {
		key, raw, _ := strings.Cut(part, "=")
		key = strings.TrimSpace(key)
		raw = strings.TrimSpace(raw)
		value := unquoteTagValue(raw)

		switch key {
		case "description":
			schema.Description = value
		case "title":
			schema.Title = value
		case "example":
			schema.Example = parseTagValue(schema, value)
		case "default":
			schema.Default = parseTagValue(schema, value)
		case "format":
			schema.Format = value
		case "minimum":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				schema.Minimum = &v
			}
		case "maximum":
			if v, err := strconv.ParseFloat(value, 64); err == nil {
				schema.Maximum = &v
			}
		case "minLength":
			if v, err := strconv.Atoi(value); err == nil {
				schema.MinLength = &v
			}
		case "maxLength":
			if v, err := strconv.Atoi(value); err == nil {
				schema.MaxLength = &v
			}
		case "minItems":
			if v, err := strconv.Atoi(value); err == nil {
				schema.MinItems = &v
			}
		case "maxItems":
			if v, err := strconv.Atoi(value); err == nil {
				schema.MaxItems = &v
			}
		case "pattern":
			schema.Pattern = value
		case "enum":
			values := strings.Split(raw, "|")
			schema.Enum = make([]any, len(values))
			for i, v := range values {
				schema.Enum[i] = parseTagValue(schema, unquoteTagValue(v))
			}
		case "readOnly":
			schema.ReadOnly = true
		}
	}
}

// splitTagOptions splits a tag on commas outside single quotes.
func splitTagOptions(tag string) []string {
	var parts []string
	quoted, start := false, 0
	for i := 0; i < len(tag); i++ {
		switch tag[i] {
		case '\'':
			quoted = !quoted
		case ',':
			if !quoted {
				parts = append(parts, tag[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, tag[start:])
}

func unquoteTagValue(value string) string {
	if len(value) >= 2 && value[0] == '\'' && value[len(value)-1] == '\'' {
		return value[1 : len(value)-1]
	}
	return value
}

// parseTagValue converts a tag value to a Go value matching the schema
// type, falling back to the raw string.
func parseTagValue(schema *Schema, value string) any {
	switch schema.Type {
	case "integer":
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	case "number":
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	case "boolean":
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	}
	return value
}

// schemaName returns a unique definition name for t. When two types from
// different packages share a simple name, the later one gets its
// package's last path segment as a prefix ("ApiUser"); if that still
// collides a numeric suffix is appended ("ApiUser2").
func (r *Resolver) schemaName(t reflect.Type) string {
	if name, ok := r.typeNames[t]; ok {
		return name
	}

	simple := sanitizeSchemaName(t.Name())
	name := simple
	if existing, ok := r.nameTypes[name]; ok && existing != t {
		name = pkgPrefix(t.PkgPath()) + simple
		if existing, ok := r.nameTypes[name]; ok && existing != t {
			base := name
			for i := 2; ; i++ {
				candidate := base + strconv.Itoa(i)
				if _, ok := r.nameTypes[candidate]; !ok {
					name = candidate
					break
				}
			}
		}
	}

	r.typeNames[t] = name
	r.nameTypes[name] = t
	return name
}

// pkgPrefix extracts the last segment of a Go package path and
// capitalizes it for use as a definition name prefix ("net/http" -> "Http").
func pkgPrefix(pkgPath string) string {
	if idx := strings.LastIndexByte(pkgPath, '/'); idx >= 0 {
		pkgPath = pkgPath[idx+1:]
	}
	if len(pkgPath) == 0 {
		return ""
	}
	pkgPath = strings.ReplaceAll(pkgPath, "-", "_")
	pkgPath = strings.ReplaceAll(pkgPath, ".", "_")
	return strings.ToUpper(pkgPath[:1]) + pkgPath[1:]
}

// sanitizeSchemaName turns generic type names into definition keys:
// "Page[User]" becomes "PageUser", "Page[[]User]" becomes
// "PageUserList" and "Pair[a.X,b.Y]" becomes "PairXY". Type arguments
// are handled recursively and package paths in them are stripped.
func sanitizeSchemaName(name string) string {
	idx := strings.IndexByte(name, '[')
	if idx < 0 {
		return name
	}
	end := strings.LastIndexByte(name, ']')
	if end < idx {
		return name[:idx]
	}

	var b strings.Builder
	b.WriteString(name[:idx])
	for _, arg := range splitTypeArgs(name[idx+1 : end]) {
		b.WriteString(typeArgName(arg))
	}
	return b.String()
}

// splitTypeArgs splits a type argument list on commas that are not
// nested inside brackets.
func splitTypeArgs(list string) []string {
	var args []string
	depth, start := 0, 0
	for i := 0; i < len(list); i++ {
		switch list[i] {
		case '[':
			depth++
		case ']':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, list[start:i])
				start = i + 1
			}
		}
	}
	return append(args, list[start:])
}

// typeArgName renders one type argument as a name fragment.
func typeArgName(arg string) string {
	arg = strings.TrimSpace(arg)

	switch {
	case arg == "":
		return ""
	case strings.HasPrefix(arg, "*"):
		return typeArgName(arg[1:])
	case strings.HasPrefix(arg, "["):
		// Slices and arrays: "[]T", "[4]T".
		if end := strings.IndexByte(arg, ']'); end >= 0 {
			return typeArgName(arg[end+1:]) + "List"
		}
	case strings.HasPrefix(arg, "map["):
		depth := 0
		for i := 3; i < len(arg); i++ {
			switch arg[i] {
			case '[':
				depth++
			case ']':
				depth--
				if depth == 0 {
					return typeArgName(arg[i+1:]) + "Map"
				}
			}
		}
	}

	head := arg
	if idx := strings.IndexByte(arg, '['); idx >= 0 {
		head = arg[:idx]
	}
	if dot := strings.LastIndexByte(head, '.'); dot >= 0 {
		arg = arg[dot+1:]
	}
	return sanitizeSchemaName(arg)
}
