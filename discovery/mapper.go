package discovery

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/vitalvas/svcdoc/swagger"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

const mimeJSON = "application/json"

// Mapper turns the operations of one service into path entries.
type Mapper struct {
	Filter swagger.TagFilter
}

// Map maps members of svc in declaration order. Schemas are collected
// by resolver and every non-primitive parameter or result type is
// appended once to refs. Operations sharing a route are merged into one
// path entry; paths keep the order of their first operation.
//
// Two operations with the same method and route fail the whole service
// with ErrRouteConflict, as do two routes that differ only in
// placeholder names.
func (m Mapper) Map(svc ServiceInfo, members []Member, resolver *swagger.Resolver, refs *[]reflect.Type) ([]*swagger.Path, error) {
	var paths []*swagger.Path
	byKey := make(map[string]*swagger.Path)

	for _, member := range members {
		if m.Filter.IsHidden(member.Tags...) {
			continue
		}

		verb, id, op, err := m.mapMember(svc, member, resolver, refs)
		if err != nil {
			return nil, &MappingError{Service: svc.Type, Member: member.Name, Err: err}
		}

		key := swagger.RouteKey(id)
		path, ok := byKey[key]
		if !ok {
			path = swagger.NewPath(id)
			byKey[key] = path
			paths = append(paths, path)
		}
		if path.ID != id {
			return nil, &MappingError{
				Service: svc.Type,
				Member:  member.Name,
				Err:     fmt.Errorf("%w: %s differs from %s only in placeholder names", ErrRouteConflict, id, path.ID),
			}
		}
		if _, dup := path.Operations[verb]; dup {
			return nil, &MappingError{
				Service: svc.Type,
				Member:  member.Name,
				Err:     fmt.Errorf("%w: %s %s", ErrRouteConflict, verb, id),
			}
		}
		path.Operations[verb] = op
	}

	return paths, nil
}

func (m Mapper) mapMember(svc ServiceInfo, member Member, resolver *swagger.Resolver, refs *[]reflect.Type) (string, string, *swagger.Operation, error) {
	route := member.Route
	if route == "" {
		route = "/" + member.Name
	}
	tpl, err := swagger.ParseTemplate(svc.Prefix, route)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %w", ErrParamBinding, err)
	}

	ft := member.Func.Type
	args := arguments(ft)
	if len(args) != len(member.Params) {
		return "", "", nil, fmt.Errorf("%w: %d bindings for %d arguments", ErrParamBinding, len(member.Params), len(args))
	}

	op := &swagger.Operation{
		Tags:        operationTags(svc, member.Operation),
		Summary:     member.Summary,
		Description: member.Description,
		OperationID: member.Name,
		Deprecated:  member.Deprecated,
	}

	boundPath := make(map[string]bool)
	boundQuery := make(map[string]bool)
	hasBody := false
	for i, p := range member.Params {
		if strings.EqualFold(p.In, swagger.InBody) {
			if hasBody {
				return "", "", nil, fmt.Errorf("%w: %q", ErrMultipleBodies, p.Name)
			}
			hasBody = true
		}

		param, err := mapParam(tpl, p, args[i], resolver)
		if err != nil {
			return "", "", nil, err
		}
		addRef(refs, args[i])

		if param == nil {
			continue
		}
		switch param.In {
		case swagger.InPath:
			boundPath[p.Name] = true
		case swagger.InQuery:
			boundQuery[p.Name] = true
		}
		op.Parameters = append(op.Parameters, param)
	}

	for _, v := range tpl.PathVars {
		if !boundPath[v.Name] {
			return "", "", nil, fmt.Errorf("%w: path placeholder %q is not bound", ErrParamBinding, v.Name)
		}
	}
	for _, v := range tpl.QueryVars {
		if !boundQuery[v.Name] {
			return "", "", nil, fmt.Errorf("%w: query placeholder %q is not bound", ErrParamBinding, v.Name)
		}
	}

	result, err := resultType(ft)
	if err != nil {
		return "", "", nil, err
	}

	status := member.Status
	resp := &swagger.Response{}
	if result != nil {
		addRef(refs, result)
		resp.Schema = resolver.Resolve(result)
		op.Produces = []string{mimeJSON}
		if status == 0 {
			status = http.StatusOK
		}
	} else if status == 0 {
		status = http.StatusNoContent
	}
	op.Responses = map[int]*swagger.Response{status: resp}

	if hasBody {
		op.Consumes = []string{mimeJSON}
	}

	verb := strings.ToUpper(member.Method)
	if verb == "" {
		verb = strings.ToUpper(svc.Method)
	}
	if verb == "" {
		verb = http.MethodGet
		if hasBody {
			verb = http.MethodPost
		}
	}
	if !swagger.IsMethod(verb) {
		return "", "", nil, fmt.Errorf("%w: %q", ErrInvalidMethod, verb)
	}

	return verb, tpl.Path, op, nil
}

// mapParam builds the parameter for one argument. A nil parameter means
// the argument's type is filtered out of the document.
func mapParam(tpl swagger.Template, p Param, t reflect.Type, resolver *swagger.Resolver) (*swagger.Parameter, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("%w: unnamed parameter", ErrParamBinding)
	}

	param := &swagger.Parameter{
		Name:        p.Name,
		In:          strings.ToLower(p.In),
		Description: p.Description,
		Required:    p.Required,
	}

	pathVar, inPath := tpl.PathVar(p.Name)
	queryVar, inQuery := tpl.QueryVar(p.Name)

	if param.In == "" {
		param.In = swagger.InQuery
		if inPath {
			param.In = swagger.InPath
		}
	}

	switch param.In {
	case swagger.InPath:
		if !inPath {
			return nil, fmt.Errorf("%w: %q has no path placeholder", ErrParamBinding, p.Name)
		}
		param.Required = true
	case swagger.InQuery:
		if inQuery {
			param.Name = queryVar.Key
		}
	case swagger.InHeader:
	case swagger.InBody:
		if !describable(t) {
			return nil, fmt.Errorf("%w: %q is %s", ErrUnsupportedParam, p.Name, t)
		}
		param.Schema = resolver.Resolve(t)
		if param.Schema == nil {
			return nil, nil
		}
		return param, nil
	default:
		return nil, fmt.Errorf("%w: %q has unknown location %q", ErrParamBinding, p.Name, p.In)
	}

	if typ, format, ok := swagger.Primitive(t); ok {
		param.Type, param.Format = typ, format
		if typ == "string" && pathVar.Format != "" {
			param.Format = pathVar.Format
		}
		return param, nil
	}

	elem := t
	if elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	if elem.Kind() == reflect.Slice && param.In != swagger.InPath {
		if typ, format, ok := swagger.Primitive(elem.Elem()); ok {
			param.Type = "array"
			param.Items = &swagger.Schema{Type: typ, Format: format}
			param.CollectionFormat = "multi"
			if param.In == swagger.InHeader {
				param.CollectionFormat = "csv"
			}
			return param, nil
		}
	}

	return nil, fmt.Errorf("%w: %s parameter %q is %s", ErrUnsupportedParam, param.In, p.Name, t)
}

// arguments returns the bindable arguments of a method type, skipping
// the receiver and a leading context.Context.
func arguments(ft reflect.Type) []reflect.Type {
	var args []reflect.Type
	for i := 1; i < ft.NumIn(); i++ {
		if i == 1 && ft.In(i) == contextType {
			continue
		}
		args = append(args, ft.In(i))
	}
	return args
}

// resultType returns the documented result of a method type, or nil for
// (), (error).
func resultType(ft reflect.Type) (reflect.Type, error) {
	var result reflect.Type
	switch ft.NumOut() {
	case 0:
		return nil, nil
	case 1:
		if ft.Out(0) == errorType {
			return nil, nil
		}
		result = ft.Out(0)
	case 2:
		if ft.Out(1) != errorType {
			return nil, fmt.Errorf("%w: second result must be error", ErrUnsupportedResult)
		}
		result = ft.Out(0)
	default:
		return nil, fmt.Errorf("%w: %d results", ErrUnsupportedResult, ft.NumOut())
	}

	if !describable(result) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedResult, result)
	}
	return result, nil
}

// describable reports whether t can appear in a document at all.
func describable(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Chan, reflect.Func, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return false
	}
	return true
}

func operationTags(svc ServiceInfo, op Operation) []string {
	if len(op.Tags) > 0 {
		return op.Tags
	}
	if len(svc.Tags) > 0 {
		return svc.Tags
	}
	return []string{svc.Title()}
}

// addRef appends non-primitive types to refs once.
func addRef(refs *[]reflect.Type, t reflect.Type) {
	if refs == nil || swagger.IsPrimitive(t) {
		return
	}
	for _, r := range *refs {
		if r == t {
			return
		}
	}
	*refs = append(*refs, t)
}
