package discovery

import (
	"reflect"
	"sync"
)

// FrameworkPath is the import path platform modules must require to be
// scanned.
const FrameworkPath = "github.com/vitalvas/svcdoc/discovery"

// Module is one loaded program module.
type Module struct {
	// Path is the module import path.
	Path string

	// Platform marks modules shipped with the runtime or toolchain. They
	// are only scanned when Requires contains FrameworkPath.
	Platform bool

	// Requires lists the import paths the module depends on.
	Requires []string

	// Load returns the types declared by the module. A failing Load
	// skips the module.
	Load func() ([]reflect.Type, error)
}

// Types returns the module's declared types.
func (m Module) Types() ([]reflect.Type, error) {
	if m.Load == nil {
		return nil, nil
	}
	return m.Load()
}

// Source supplies the modules of the running program.
type Source interface {
	Modules() []Module
}

// Catalog is a Source modules register themselves with. It is safe for
// concurrent use.
type Catalog struct {
	mu      sync.RWMutex
	modules []Module
}

// NewCatalog creates a catalog holding modules.
func NewCatalog(modules ...Module) *Catalog {
	return &Catalog{modules: modules}
}

// Register adds a module.
func (c *Catalog) Register(m Module) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.modules = append(c.modules, m)
}

// Add registers a module that depends on the framework and declares the
// types of values. Pointers are dereferenced, so (*T)(nil) names T.
func (c *Catalog) Add(path string, values ...any) {
	types := TypesOf(values...)
	c.Register(Module{
		Path:     path,
		Requires: []string{FrameworkPath},
		Load: func() ([]reflect.Type, error) {
			return types, nil
		},
	})
}

// Modules implements Source. The returned slice is a copy.
func (c *Catalog) Modules() []Module {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Module, len(c.modules))
	copy(out, c.modules)
	return out
}

// TypesOf returns the types of values, dereferencing pointers.
func TypesOf(values ...any) []reflect.Type {
	types := make([]reflect.Type, 0, len(values))
	for _, v := range values {
		t := reflect.TypeOf(v)
		if t == nil {
			continue
		}
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		types = append(types, t)
	}
	return types
}

var defaultCatalog = NewCatalog()

// Default returns the process-wide catalog used by Register and Add.
func Default() *Catalog {
	return defaultCatalog
}

// Register adds a module to the default catalog.
func Register(m Module) {
	defaultCatalog.Register(m)
}

// Add registers service types with the default catalog. Host programs
// usually call it from an init function:
//
//	func init() {
//	    discovery.Add("example.com/shop", (*WidgetService)(nil))
//	}
func Add(path string, values ...any) {
	defaultCatalog.Add(path, values...)
}
