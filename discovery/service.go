package discovery

import (
	"fmt"
	"reflect"
	"strings"
)

// Service marks a struct type as an exposed service. Embed it with a
// swagger tag naming the route prefix and options:
//
//	discovery.Service `swagger:"widgets,name=Widgets,method=GET,tags=shop|public"`
type Service struct{}

// Operation declares one exposed member of a service.
type Operation struct {
	// Name is the exported Go method implementing the operation.
	Name string

	// Method is the HTTP verb. Empty falls back to the service default.
	Method string

	// Route is the template relative to the service prefix, e.g.
	// "/{id:int}" or "/search?q={term}". Defaults to "/<Name>".
	Route string

	// Params binds the method arguments, after an optional leading
	// context.Context, in order.
	Params []Param

	Tags        []string
	Summary     string
	Description string

	// Status overrides the documented success status.
	Status int

	Deprecated bool
}

// Param binds one method argument.
type Param struct {
	Name string

	// In is path, query, header or body. Empty classifies by the route
	// template and falls back to query.
	In string

	Required    bool
	Description string
}

// Operator is implemented by service types to list their operations in
// declaration order.
type Operator interface {
	SwaggerOperations() []Operation
}

// ServiceInfo is the parsed service annotation of a type.
type ServiceInfo struct {
	Type   reflect.Type
	Prefix string

	// Name is the display name; empty when the annotation has none.
	Name string

	// Method is the default HTTP verb of the service's operations.
	Method string

	Tags []string
}

// Title returns the display name, falling back to the type name.
func (s ServiceInfo) Title() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Type.Name()
}

// Member is one declared operation resolved against its Go method.
type Member struct {
	Operation

	// Func is the method; its type includes the receiver as the first
	// argument.
	Func reflect.Method
}

// Inspector reads service metadata from types.
type Inspector interface {
	// Service reports whether t carries the service annotation.
	Service(t reflect.Type) (ServiceInfo, bool)

	// Members returns the declared operations of a service type in
	// declaration order.
	Members(t reflect.Type) ([]Member, error)
}

var serviceType = reflect.TypeOf(Service{})

// ReflectInspector is the Inspector backed by struct tags and the
// Operator interface.
type ReflectInspector struct{}

// Service implements Inspector.
func (ReflectInspector) Service(t reflect.Type) (ServiceInfo, bool) {
	if t == nil || t.Kind() != reflect.Struct {
		return ServiceInfo{}, false
	}

	for i := range t.NumField() {
		field := t.Field(i)
		if !field.Anonymous || field.Type != serviceType {
			continue
		}
		info := parseServiceTag(field.Tag.Get("swagger"))
		info.Type = t
		return info, true
	}
	return ServiceInfo{}, false
}

// Members implements Inspector.
func (ReflectInspector) Members(t reflect.Type) ([]Member, error) {
	op, ok := reflect.New(t).Interface().(Operator)
	if !ok {
		return nil, nil
	}

	ptr := reflect.PointerTo(t)
	ops := op.SwaggerOperations()
	members := make([]Member, 0, len(ops))
	for _, o := range ops {
		m, ok := ptr.MethodByName(o.Name)
		if !ok {
			return nil, &MappingError{
				Service: t,
				Member:  o.Name,
				Err:     fmt.Errorf("%w: no exported method %q", ErrUnknownMethod, o.Name),
			}
		}
		members = append(members, Member{Operation: o, Func: m})
	}
	return members, nil
}

// parseServiceTag parses "prefix,name=X,method=GET,tags=a|b".
func parseServiceTag(tag string) ServiceInfo {
	parts := strings.Split(tag, ",")
	info := ServiceInfo{Prefix: strings.TrimSpace(parts[0])}

	for _, part := range parts[1:] {
		key, value, _ := strings.Cut(part, "=")
		value = strings.TrimSpace(value)

		switch strings.TrimSpace(key) {
		case "name":
			info.Name = value
		case "method":
			info.Method = strings.ToUpper(value)
		case "tags":
			for name := range strings.SplitSeq(value, "|") {
				if name = strings.TrimSpace(name); name != "" {
					info.Tags = append(info.Tags, name)
				}
			}
		}
	}
	return info
}
