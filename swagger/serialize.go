package swagger

import (
	"bytes"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Serialize renders doc as canonical, indented JSON. The output is a
// pure function of the document: paths are sorted by route id,
// definitions by name, and absent or empty fields are omitted.
//
// See: https://swagger.io/specification/v2/#swagger-object
func Serialize(doc *Document) ([]byte, error) {
	w := NewJSONWriter()
	doc.Write(w)
	return w.Bytes()
}

// SerializeYAML renders doc as YAML with the same ordering as Serialize.
func SerializeYAML(doc *Document) ([]byte, error) {
	w := NewYAMLWriter()
	doc.Write(w)
	node, err := w.Node()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler using the canonical layout.
func (d *Document) MarshalJSON() ([]byte, error) {
	return Serialize(d)
}

// MarshalYAML implements yaml.Marshaler using the canonical layout.
func (d *Document) MarshalYAML() (any, error) {
	w := NewYAMLWriter()
	d.Write(w)
	return w.Node()
}

// Write emits the document through w in canonical order:
// swagger, info, host, basePath, schemes, paths, definitions.
func (d *Document) Write(w Writer) {
	w.BeginObject()

	version := d.Swagger
	if version == "" {
		version = Version
	}
	w.Name("swagger")
	w.Value(version)

	if d.Info != nil {
		w.Name("info")
		d.Info.write(w)
	}

	writeString(w, "host", d.Host)
	writeString(w, "basePath", d.BasePath)
	writeStrings(w, "schemes", d.Schemes)

	if len(d.Paths) > 0 {
		paths := make([]*Path, len(d.Paths))
		copy(paths, d.Paths)
		sort.SliceStable(paths, func(i, j int) bool {
			return paths[i].ID < paths[j].ID
		})

		w.Name("paths")
		w.BeginObject()
		for _, p := range paths {
			w.Name(p.ID)
			p.write(w)
		}
		w.EndObject()
	}

	if len(d.Definitions) > 0 {
		defs := make([]*Definition, len(d.Definitions))
		copy(defs, d.Definitions)
		sort.SliceStable(defs, func(i, j int) bool {
			return defs[i].Name < defs[j].Name
		})

		w.Name("definitions")
		w.BeginObject()
		for _, def := range defs {
			w.Name(def.Name)
			def.Schema.write(w)
		}
		w.EndObject()
	}

	w.EndObject()
}

func (i *Info) write(w Writer) {
	w.BeginObject()
	writeString(w, "title", i.Title)
	writeString(w, "description", i.Description)
	writeString(w, "termsOfService", i.TermsOfService)
	if i.Contact != nil {
		w.Name("contact")
		w.BeginObject()
		writeString(w, "name", i.Contact.Name)
		writeString(w, "url", i.Contact.URL)
		writeString(w, "email", i.Contact.Email)
		w.EndObject()
	}
	if i.License != nil {
		w.Name("license")
		w.BeginObject()
		writeString(w, "name", i.License.Name)
		writeString(w, "url", i.License.URL)
		w.EndObject()
	}
	writeString(w, "version", i.Version)
	w.EndObject()
}

func (p *Path) write(w Writer) {
	w.BeginObject()
	for _, method := range methodOrder {
		op, ok := p.Operations[method]
		if !ok || op == nil {
			continue
		}
		w.Name(strings.ToLower(method))
		op.write(w)
	}
	w.EndObject()
}

func (o *Operation) write(w Writer) {
	w.BeginObject()
	writeStrings(w, "tags", o.Tags)
	writeString(w, "summary", o.Summary)
	writeString(w, "description", o.Description)
	writeString(w, "operationId", o.OperationID)
	writeStrings(w, "consumes", o.Consumes)
	writeStrings(w, "produces", o.Produces)

	if len(o.Parameters) > 0 {
		w.Name("parameters")
		w.BeginArray()
		for _, param := range o.Parameters {
			param.write(w)
		}
		w.EndArray()
	}

	if len(o.Responses) > 0 {
		w.Name("responses")
		w.BeginObject()
		for _, code := range o.statusCodes() {
			w.Name(strconv.Itoa(code))
			o.Responses[code].write(w, code)
		}
		w.EndObject()
	}

	if o.Deprecated {
		w.Name("deprecated")
		w.Value(true)
	}
	w.EndObject()
}

func (p *Parameter) write(w Writer) {
	w.BeginObject()
	writeString(w, "name", p.Name)
	writeString(w, "in", p.In)
	writeString(w, "description", p.Description)
	if p.Required || p.In == InPath {
		w.Name("required")
		w.Value(true)
	}
	if p.Schema != nil {
		w.Name("schema")
		p.Schema.write(w)
	}
	writeString(w, "type", p.Type)
	writeString(w, "format", p.Format)
	if p.Items != nil {
		w.Name("items")
		p.Items.write(w)
	}
	writeString(w, "collectionFormat", p.CollectionFormat)
	w.EndObject()
}

func (r *Response) write(w Writer, code int) {
	desc := r.Description
	if desc == "" {
		desc = DescribeStatus(code)
	}

	w.BeginObject()
	w.Name("description")
	w.Value(desc)
	if r.Schema != nil {
		w.Name("schema")
		r.Schema.write(w)
	}
	w.EndObject()
}

func (s *Schema) write(w Writer) {
	w.BeginObject()
	if s.Ref != "" {
		w.Name("$ref")
		w.Value(s.Ref)
		w.EndObject()
		return
	}

	writeString(w, "type", s.Type)
	writeString(w, "format", s.Format)
	writeString(w, "title", s.Title)
	writeString(w, "description", s.Description)

	if len(s.Enum) > 0 {
		w.Name("enum")
		w.BeginArray()
		for _, v := range s.Enum {
			w.Value(v)
		}
		w.EndArray()
	}
	if s.Default != nil {
		w.Name("default")
		w.Value(s.Default)
	}

	writeNumber(w, "minimum", s.Minimum)
	writeNumber(w, "maximum", s.Maximum)
	writeInt(w, "minLength", s.MinLength)
	writeInt(w, "maxLength", s.MaxLength)
	writeString(w, "pattern", s.Pattern)
	writeInt(w, "minItems", s.MinItems)
	writeInt(w, "maxItems", s.MaxItems)

	if s.Items != nil {
		w.Name("items")
		s.Items.write(w)
	}

	if len(s.Properties) > 0 {
		w.Name("properties")
		w.BeginObject()
		for _, p := range s.Properties {
			w.Name(p.Name)
			p.Schema.write(w)
		}
		w.EndObject()
	}

	if s.AdditionalProperties != nil {
		w.Name("additionalProperties")
		s.AdditionalProperties.write(w)
	}

	writeStrings(w, "required", s.Required)

	if s.ReadOnly {
		w.Name("readOnly")
		w.Value(true)
	}
	if s.Nullable {
		w.Name("x-nullable")
		w.Value(true)
	}
	if s.Example != nil {
		w.Name("example")
		w.Value(s.Example)
	}
	w.EndObject()
}

func writeString(w Writer, name, value string) {
	if value == "" {
		return
	}
	w.Name(name)
	w.Value(value)
}

func writeStrings(w Writer, name string, values []string) {
	if len(values) == 0 {
		return
	}
	w.Name(name)
	w.BeginArray()
	for _, v := range values {
		w.Value(v)
	}
	w.EndArray()
}

func writeNumber(w Writer, name string, v *float64) {
	if v == nil {
		return
	}
	w.Name(name)
	w.Value(*v)
}

func writeInt(w Writer, name string, v *int) {
	if v == nil {
		return
	}
	w.Name(name)
	w.Value(*v)
}
