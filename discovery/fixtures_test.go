package discovery

import (
	"context"
	"errors"
	"reflect"
	"time"

	"github.com/google/uuid"
)

type Widget struct {
	ID   int    `json:"Id"`
	Name string `json:"Name"`
}

type Category struct {
	Name     string     `json:"name"`
	Parent   *Category  `json:"parent,omitempty"`
	Children []Category `json:"children,omitempty"`
}

type Secret struct {
	Key string `json:"key"`
}

type Envelope struct {
	Widget Widget  `json:"widget"`
	Secret *Secret `json:"secret,omitempty"`
}

type SampleService struct {
	Service `swagger:"Sample,name=Sample"`
}

func (s *SampleService) SwaggerOperations() []Operation {
	return []Operation{
		{Name: "GetWidget", Method: "get", Route: "/widget"},
	}
}

func (s *SampleService) GetWidget() Widget {
	return Widget{ID: 1, Name: "sprocket"}
}

type WidgetService struct {
	Service `swagger:"/widgets/,name=Widgets"`
}

func (s *WidgetService) SwaggerOperations() []Operation {
	return []Operation{
		{Name: "List", Route: "/", Summary: "List widgets"},
		{Name: "Create", Route: "/", Params: []Param{{Name: "widget", In: "body", Required: true}}, Status: 201},
		{Name: "Get", Route: "/{id:int}", Params: []Param{{Name: "id", Description: "Widget id"}}},
		{Name: "Delete", Method: "DELETE", Route: "/{id}", Params: []Param{{Name: "id"}}, Tags: []string{"admin"}},
		{Name: "Search", Route: "/search?q={term}", Params: []Param{
			{Name: "term"},
			{Name: "limit"},
			{Name: "ids"},
			{Name: "X-Trace", In: "header"},
		}},
		{Name: "Purge", Method: "POST", Route: "/purge", Tags: []string{"internal"}},
	}
}

func (s *WidgetService) List(context.Context) ([]Widget, error) {
	return nil, nil
}

func (s *WidgetService) Create(_ context.Context, w Widget) (*Widget, error) {
	return &w, nil
}

func (s *WidgetService) Get(_ context.Context, id int) (Widget, error) {
	return Widget{ID: id}, nil
}

func (s *WidgetService) Delete(int) error {
	return nil
}

func (s *WidgetService) Search(string, *int, []uuid.UUID, string) []Widget {
	return nil
}

func (s *WidgetService) Purge() {}

type TreeService struct {
	Service `swagger:"tree,method=GET"`
}

func (s *TreeService) SwaggerOperations() []Operation {
	return []Operation{
		{Name: "Root"},
		{Name: "Wrap", Params: []Param{{Name: "env", In: "body"}}},
		{Name: "Since", Route: "/since/{day:date}", Params: []Param{{Name: "day"}}},
	}
}

func (s *TreeService) Root() (Category, error) {
	return Category{}, nil
}

func (s *TreeService) Wrap(env Envelope) Envelope {
	return env
}

func (s *TreeService) Since(string) (map[string]time.Time, error) {
	return nil, nil
}

type SecretService struct {
	Service `swagger:"secret"`
}

func (s *SecretService) SwaggerOperations() []Operation {
	return []Operation{{Name: "Reveal"}}
}

func (s *SecretService) Reveal() Secret { return Secret{} }

type TaggedService struct {
	Service `swagger:"tagged,tags=shop"`
}

func (s *TaggedService) SwaggerOperations() []Operation {
	return []Operation{{Name: "Ping"}}
}

func (s *TaggedService) Ping() {}

// Plain has no service marker.
type Plain struct{}

func (p *Plain) SwaggerOperations() []Operation {
	return []Operation{{Name: "Nothing"}}
}

type ConflictService struct {
	Service `swagger:"conflict"`
}

func (s *ConflictService) SwaggerOperations() []Operation {
	return []Operation{
		{Name: "First", Route: "/same"},
		{Name: "Second", Route: "/same/"},
	}
}

func (s *ConflictService) First() string  { return "" }
func (s *ConflictService) Second() string { return "" }

type MissingService struct {
	Service `swagger:"missing"`
}

func (s *MissingService) SwaggerOperations() []Operation {
	return []Operation{{Name: "DoesNotExist"}}
}

var errLoad = errors.New("unresolved dependency")

func failingModule(path string) Module {
	return Module{
		Path: path,
		Load: func() ([]reflect.Type, error) {
			return nil, errLoad
		},
	}
}

// shapes carries one method per signature shape the mapper handles.
type shapes struct{}

func (shapes) Plain()                              {}
func (shapes) Text(string) string                  { return "" }
func (shapes) TwoBodies(Widget, Widget)            {}
func (shapes) Object(w Widget) (Widget, error)     { return w, nil }
func (shapes) BadResult() (Widget, string)         { return Widget{}, "" }
func (shapes) TooMany() (int, int, error)          { return 0, 0, nil }
func (shapes) Callback() func()                    { return nil }
func (shapes) StructQuery(Widget)                  {}
func (shapes) ChanBody(chan int)                   {}
func (shapes) ByID(int)                            {}
func (shapes) Hidden(Secret) Secret                { return Secret{} }
func (shapes) Context(context.Context, string) int { return 0 }

var shapesType = reflect.TypeOf(shapes{})

func shapesMember(op Operation) Member {
	m, ok := reflect.PointerTo(shapesType).MethodByName(op.Name)
	if !ok {
		panic("shapes has no method " + op.Name)
	}
	return Member{Operation: op, Func: m}
}
