package swagger

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleDocument() *Document {
	doc := NewDocument()
	doc.Info = &Info{Title: "Widgets", Version: "1.0"}
	doc.Schemes = []string{"https", "http"}

	widgets := NewPath("/widgets")
	widgets.Operations[http.MethodPost] = &Operation{
		OperationID: "CreateWidget",
		Parameters: []*Parameter{
			{Name: "widget", In: InBody, Required: true, Schema: RefTo("Widget")},
		},
		Responses: map[int]*Response{200: {Schema: RefTo("Widget")}},
	}
	widgets.Operations[http.MethodGet] = &Operation{
		OperationID: "ListWidgets",
		Responses: map[int]*Response{
			404: {},
			200: {Schema: &Schema{Type: "array", Items: RefTo("Widget")}},
		},
	}

	byID := NewPath("/widgets/{id}")
	byID.Operations[http.MethodDelete] = &Operation{
		OperationID: "DeleteWidget",
		Parameters: []*Parameter{
			{Name: "id", In: InPath, Type: "integer", Format: "int64"},
		},
		Responses: map[int]*Response{204: {}},
	}

	// Build order is deliberately not canonical.
	doc.Paths = []*Path{byID, widgets, NewPath("/a")}
	doc.Definitions = []*Definition{
		{Name: "Widget", Schema: &Schema{
			Type: "object",
			Properties: []*Property{
				{Name: "Id", Schema: &Schema{Type: "integer", Format: "int64"}},
				{Name: "Name", Schema: &Schema{Type: "string"}},
			},
			Required: []string{"Id", "Name"},
		}},
		{Name: "Gadget", Schema: &Schema{Type: "object"}},
	}
	return doc
}

func TestSerialize(t *testing.T) {
	t.Run("settings only", func(t *testing.T) {
		doc := NewDocument()
		doc.Info = &Info{Title: "X"}
		doc.BasePath = "/v1"

		data, err := Serialize(doc)
		require.NoError(t, err)
		assert.Equal(t, "{\n  \"swagger\": \"2.0\",\n  \"info\": {\n    \"title\": \"X\"\n  },\n  \"basePath\": \"/v1\"\n}", string(data))
	})

	t.Run("empty document", func(t *testing.T) {
		data, err := Serialize(&Document{})
		require.NoError(t, err)
		assert.Equal(t, "{\n  \"swagger\": \"2.0\"\n}", string(data))
	})

	t.Run("empty info", func(t *testing.T) {
		doc := NewDocument()
		doc.Info = &Info{}

		data, err := Serialize(doc)
		require.NoError(t, err)
		assert.Equal(t, "{\n  \"swagger\": \"2.0\",\n  \"info\": {}\n}", string(data))
	})

	t.Run("key order", func(t *testing.T) {
		doc := sampleDocument()
		doc.Host = "api.example.com"
		doc.BasePath = "/v1"

		data, err := Serialize(doc)
		require.NoError(t, err)
		out := string(data)

		assertOrdered(t, out,
			`"swagger"`, `"info"`, `"host"`, `"basePath"`, `"schemes"`, `"paths"`, `"definitions"`)
		assertOrdered(t, out, `"https"`, `"http"`)
	})

	t.Run("paths and definitions sorted", func(t *testing.T) {
		data, err := Serialize(sampleDocument())
		require.NoError(t, err)
		out := string(data)

		assertOrdered(t, out, `"/a"`, `"/widgets"`, `"/widgets/{id}"`)
		assertOrdered(t, out, `"Gadget": {`, `"Widget": {`)
		assertOrdered(t, out, `"get"`, `"post"`, `"delete"`)
		assertOrdered(t, out, `"200"`, `"404"`)
	})

	t.Run("defaults", func(t *testing.T) {
		data, err := Serialize(sampleDocument())
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(data, &decoded))

		paths := decoded["paths"].(map[string]any)
		assert.Equal(t, map[string]any{}, paths["/a"])

		del := paths["/widgets/{id}"].(map[string]any)["delete"].(map[string]any)
		param := del["parameters"].([]any)[0].(map[string]any)
		assert.Equal(t, true, param["required"])

		responses := del["responses"].(map[string]any)
		assert.Equal(t, map[string]any{"description": "No Content"}, responses["204"])

		get := paths["/widgets"].(map[string]any)["get"].(map[string]any)
		notFound := get["responses"].(map[string]any)["404"].(map[string]any)
		assert.Equal(t, "Not Found", notFound["description"])
	})

	t.Run("schema keywords", func(t *testing.T) {
		minimum := 1.0
		maxLen := 8
		doc := NewDocument()
		doc.Definitions = []*Definition{{Name: "Thing", Schema: &Schema{
			Type: "object",
			Properties: []*Property{
				{Name: "code", Schema: &Schema{Type: "string", MaxLength: &maxLen, Pattern: "^[a-z]+$", Example: "abc"}},
				{Name: "level", Schema: &Schema{Type: "integer", Minimum: &minimum, Enum: []any{1, 2}, Default: 1}},
				{Name: "note", Schema: &Schema{Type: "string", Nullable: true, ReadOnly: true}},
				{Name: "tags", Schema: &Schema{Type: "object", AdditionalProperties: &Schema{Type: "string"}}},
			},
		}}}

		data, err := Serialize(doc)
		require.NoError(t, err)

		var decoded struct {
			Definitions map[string]struct {
				Properties map[string]map[string]any `json:"properties"`
			} `json:"definitions"`
		}
		require.NoError(t, json.Unmarshal(data, &decoded))

		props := decoded.Definitions["Thing"].Properties
		assert.Equal(t, map[string]any{"type": "string", "maxLength": 8.0, "pattern": "^[a-z]+$", "example": "abc"}, props["code"])
		assert.Equal(t, map[string]any{"type": "integer", "minimum": 1.0, "enum": []any{1.0, 2.0}, "default": 1.0}, props["level"])
		assert.Equal(t, map[string]any{"type": "string", "readOnly": true, "x-nullable": true}, props["note"])
		assert.Equal(t, map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "string"}}, props["tags"])
	})

	t.Run("html is not escaped", func(t *testing.T) {
		doc := NewDocument()
		doc.Info = &Info{Description: "<b>a & b</b>"}

		data, err := Serialize(doc)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"<b>a & b</b>"`)
	})

	t.Run("unencodable value", func(t *testing.T) {
		doc := NewDocument()
		doc.Definitions = []*Definition{{Name: "Bad", Schema: &Schema{Example: make(chan int)}}}

		_, err := Serialize(doc)
		assert.Error(t, err)
	})
}

func TestSerializeDeterministic(t *testing.T) {
	first, err := Serialize(sampleDocument())
	require.NoError(t, err)

	doc := sampleDocument()
	var wg sync.WaitGroup
	results := make([][]byte, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := Serialize(doc)
			assert.NoError(t, err)
			results[i] = data
		}()
	}
	wg.Wait()

	for _, data := range results {
		assert.Equal(t, first, data)
	}
}

func TestDocumentMarshalJSON(t *testing.T) {
	doc := sampleDocument()

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	canonical, err := Serialize(doc)
	require.NoError(t, err)
	assert.JSONEq(t, string(canonical), string(data))
}

func TestSerializeYAML(t *testing.T) {
	t.Run("settings only", func(t *testing.T) {
		doc := NewDocument()
		doc.Info = &Info{Title: "X"}
		doc.BasePath = "/v1"

		data, err := SerializeYAML(doc)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, yaml.Unmarshal(data, &decoded))
		assert.Equal(t, "2.0", decoded["swagger"])
		assert.Equal(t, map[string]any{"title": "X"}, decoded["info"])
		assert.Equal(t, "/v1", decoded["basePath"])

		assertOrdered(t, string(data), "swagger:", "info:", "basePath:")
	})

	t.Run("same content as json", func(t *testing.T) {
		doc := sampleDocument()

		yamlData, err := SerializeYAML(doc)
		require.NoError(t, err)
		jsonData, err := Serialize(doc)
		require.NoError(t, err)

		var fromYAML, fromJSON any
		require.NoError(t, yaml.Unmarshal(yamlData, &fromYAML))
		require.NoError(t, json.Unmarshal(jsonData, &fromJSON))

		// Normalize through JSON so integer and map types line up.
		normalized, err := json.Marshal(fromYAML)
		require.NoError(t, err)
		var again any
		require.NoError(t, json.Unmarshal(normalized, &again))

		assert.Equal(t, fromJSON, again)
		assertOrdered(t, string(yamlData), "/a:", "/widgets:", "/widgets/{id}")
	})

	t.Run("marshal yaml", func(t *testing.T) {
		doc := sampleDocument()

		data, err := yaml.Marshal(doc)
		require.NoError(t, err)
		assertOrdered(t, string(data), "swagger:", "info:", "schemes:", "paths:", "definitions:")
	})
}

func assertOrdered(t *testing.T, s string, parts ...string) {
	t.Helper()

	last := -1
	for _, part := range parts {
		idx := strings.Index(s, part)
		if !assert.GreaterOrEqual(t, idx, 0, "missing %q", part) {
			return
		}
		assert.Greater(t, idx, last, "%q out of order", part)
		last = idx
	}
}
