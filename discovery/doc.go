// Package discovery finds annotated service types in registered program
// modules and turns them into Swagger 2.0 documents.
//
// Go cannot enumerate the types of a running program, so modules are
// registered explicitly with a Source. A service type embeds the Service
// marker and lists its operations through SwaggerOperations:
//
//	type WidgetService struct {
//	    discovery.Service `swagger:"widgets,name=Widgets"`
//	}
//
//	func (s *WidgetService) SwaggerOperations() []discovery.Operation {
//	    return []discovery.Operation{
//	        {Name: "Get", Route: "/{id:int}", Params: []discovery.Param{{Name: "id"}}},
//	    }
//	}
//
//	func (s *WidgetService) Get(id int) (Widget, error) { ... }
//
// BuildAll runs the whole pipeline: the Scanner discovers services, the
// Mapper turns each operation into a path entry, a per-service
// swagger.Resolver collects definitions and Assemble applies settings.
package discovery
