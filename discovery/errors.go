package discovery

import (
	"errors"
	"fmt"
	"reflect"
)

// Mapping errors. They are wrapped in *MappingError.
var (
	ErrUnknownMethod     = errors.New("operation has no matching exported method")
	ErrParamBinding      = errors.New("parameter bindings do not match method")
	ErrUnsupportedParam  = errors.New("unsupported parameter type")
	ErrMultipleBodies    = errors.New("more than one body parameter")
	ErrUnsupportedResult = errors.New("unsupported result signature")
	ErrInvalidMethod     = errors.New("invalid HTTP method")
	ErrRouteConflict     = errors.New("duplicate method and route")
)

// MappingError reports a service whose operations could not be mapped.
// The service is left out of the build.
type MappingError struct {
	Service reflect.Type
	Member  string
	Err     error
}

func (e *MappingError) Error() string {
	name := "<nil>"
	if e.Service != nil {
		name = e.Service.String()
	}
	if e.Member == "" {
		return fmt.Sprintf("discovery: service %s: %v", name, e.Err)
	}
	return fmt.Sprintf("discovery: service %s: operation %s: %v", name, e.Member, e.Err)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}
