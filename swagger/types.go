package swagger

import (
	"net/http"
	"sort"
	"strconv"
)

// Version is the value of the root "swagger" field.
//
// See: https://swagger.io/specification/v2/#swagger-object
const Version = "2.0"

// Document represents the root of a Swagger 2.0 document. Paths and
// Definitions are kept in build order; the serializer imposes the
// canonical order.
//
// See: https://swagger.io/specification/v2/#swagger-object
type Document struct {
	Swagger     string
	Info        *Info
	Host        string
	BasePath    string
	Schemes     []string
	Paths       []*Path
	Definitions []*Definition

	// Name identifies the document when a process exposes several
	// services. It is never serialized.
	Name string

	// Key is the package path and type name of the service the document
	// was built from. Unlike Name it is unique within a build. It is
	// never serialized.
	Key string
}

// NewDocument returns an empty document with the version field set.
func NewDocument() *Document {
	return &Document{Swagger: Version}
}

// Definition looks up a definition by name.
func (d *Document) Definition(name string) (*Definition, bool) {
	for _, def := range d.Definitions {
		if def.Name == name {
			return def, true
		}
	}
	return nil, false
}

// Path looks up a path entry by its route id.
func (d *Document) Path(id string) (*Path, bool) {
	for _, p := range d.Paths {
		if p.ID == id {
			return p, true
		}
	}
	return nil, false
}

// WithInfo returns a shallow copy of the document carrying info.
// The receiver is left untouched.
func (d *Document) WithInfo(info *Info) *Document {
	cp := *d
	cp.Info = info
	return &cp
}

// Info provides metadata about the API. Every field is optional.
//
// See: https://swagger.io/specification/v2/#info-object
type Info struct {
	Title          string
	Description    string
	TermsOfService string
	Contact        *Contact
	License        *License
	Version        string
}

// Contact represents contact information for the API.
//
// See: https://swagger.io/specification/v2/#contact-object
type Contact struct {
	Name  string
	URL   string
	Email string
}

// License represents license information for the API.
//
// See: https://swagger.io/specification/v2/#license-object
type License struct {
	Name string
	URL  string
}

// Path holds the operations available on a single normalized route.
// ID is the route string used as the key under "paths".
//
// See: https://swagger.io/specification/v2/#path-item-object
type Path struct {
	ID         string
	Operations map[string]*Operation // keyed by upper-case HTTP method
}

// NewPath creates an empty path entry for the given route id.
func NewPath(id string) *Path {
	return &Path{ID: id, Operations: make(map[string]*Operation)}
}

// methodOrder is the order in which operations of a path are written.
var methodOrder = []string{
	http.MethodGet,
	http.MethodPut,
	http.MethodPost,
	http.MethodDelete,
	http.MethodOptions,
	http.MethodHead,
	http.MethodPatch,
}

// IsMethod reports whether method is an HTTP verb a Path Item can hold.
func IsMethod(method string) bool {
	for _, m := range methodOrder {
		if m == method {
			return true
		}
	}
	return false
}

// Operation describes a single API operation on a path.
//
// See: https://swagger.io/specification/v2/#operation-object
type Operation struct {
	Tags        []string
	Summary     string
	Description string
	OperationID string
	Consumes    []string
	Produces    []string
	Parameters  []*Parameter
	Responses   map[int]*Response
	Deprecated  bool
}

// statusCodes returns the response status codes in ascending order.
func (o *Operation) statusCodes() []int {
	codes := make([]int, 0, len(o.Responses))
	for code := range o.Responses {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

// Parameter locations.
//
// See: https://swagger.io/specification/v2/#parameter-object
const (
	InPath   = "path"
	InQuery  = "query"
	InHeader = "header"
	InBody   = "body"
)

// Parameter describes a single operation parameter. Body parameters
// carry Schema; all other locations carry Type/Format/Items inline.
//
// See: https://swagger.io/specification/v2/#parameter-object
type Parameter struct {
	Name             string
	In               string
	Description      string
	Required         bool
	Schema           *Schema
	Type             string
	Format           string
	Items            *Schema
	CollectionFormat string
}

// Response describes a single response from an API operation.
// Description is required by the format; DescribeStatus supplies
// a default.
//
// See: https://swagger.io/specification/v2/#response-object
type Response struct {
	Description string
	Schema      *Schema
}

// DescribeStatus returns the standard reason phrase for code, or the
// code itself when none is known.
func DescribeStatus(code int) string {
	if text := http.StatusText(code); text != "" {
		return text
	}
	return strconv.Itoa(code)
}

// Definition is a named entry of the root "definitions" table.
//
// See: https://swagger.io/specification/v2/#definitions-object
type Definition struct {
	Name   string
	Schema *Schema
}

// Schema is the Swagger 2.0 subset of JSON Schema used for payloads
// and definitions.
//
// See: https://swagger.io/specification/v2/#schema-object
type Schema struct {
	Ref         string
	Type        string
	Format      string
	Title       string
	Description string
	Default     any
	Example     any
	Enum        []any

	Minimum   *float64
	Maximum   *float64
	MinLength *int
	MaxLength *int
	Pattern   string
	MinItems  *int
	MaxItems  *int

	Items                *Schema
	Properties           []*Property // declaration order
	AdditionalProperties *Schema
	Required             []string

	ReadOnly bool
	Nullable bool // written as x-nullable
}

// Property is a named member of an object schema.
type Property struct {
	Name   string
	Schema *Schema
}

// Property returns the named property schema, or nil.
func (s *Schema) Property(name string) *Schema {
	for _, p := range s.Properties {
		if p.Name == name {
			return p.Schema
		}
	}
	return nil
}

// RefTo builds a reference schema pointing at a definition.
//
// See: https://swagger.io/specification/v2/#reference-object
func RefTo(name string) *Schema {
	return &Schema{Ref: DefinitionPrefix + name}
}

// DefinitionPrefix is the JSON Pointer prefix of definition references.
const DefinitionPrefix = "#/definitions/"
