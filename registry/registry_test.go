package registry

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitalvas/svcdoc/discovery"
	"github.com/vitalvas/svcdoc/swagger"
)

func namedDocs(names ...string) []*swagger.Document {
	docs := make([]*swagger.Document, len(names))
	for i, name := range names {
		doc := swagger.NewDocument()
		doc.Name = name
		docs[i] = doc
	}
	return docs
}

func TestRegistryBuildsOnce(t *testing.T) {
	var calls atomic.Int32
	r := New(func() ([]*swagger.Document, error) {
		calls.Add(1)
		return namedDocs("a", "b"), nil
	})

	var wg sync.WaitGroup
	for range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			docs, err := r.Documents()
			assert.NoError(t, err)
			assert.Len(t, docs, 2)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestRegistryDocumentsCopy(t *testing.T) {
	r := New(func() ([]*swagger.Document, error) {
		return namedDocs("a"), nil
	})

	docs, err := r.Documents()
	require.NoError(t, err)
	docs[0] = nil

	again, err := r.Documents()
	require.NoError(t, err)
	assert.NotNil(t, again[0])
}

func TestRegistryBuildError(t *testing.T) {
	buildErr := errors.New("service left out")
	r := New(func() ([]*swagger.Document, error) {
		return namedDocs("good"), buildErr
	})

	assert.NoError(t, r.Err())

	docs, err := r.Documents()
	assert.ErrorIs(t, err, buildErr)
	assert.Len(t, docs, 1)

	_, err = r.Documents()
	assert.ErrorIs(t, err, buildErr)
	assert.ErrorIs(t, r.Err(), buildErr)

	doc, ok := r.Lookup("good")
	assert.True(t, ok)
	assert.Equal(t, "good", doc.Name)
}

func TestRegistryObservers(t *testing.T) {
	t.Run("notified once after build", func(t *testing.T) {
		r := New(func() ([]*swagger.Document, error) {
			return namedDocs("a"), nil
		})

		var calls int
		r.OnBuilt(func(docs []*swagger.Document) {
			calls++
			assert.Len(t, docs, 1)
		})
		assert.Equal(t, 0, calls)

		_, _ = r.Documents()
		_, _ = r.Documents()
		assert.Equal(t, 1, calls)
	})

	t.Run("late observer runs immediately", func(t *testing.T) {
		r := New(func() ([]*swagger.Document, error) {
			return namedDocs("a", "b"), nil
		})
		_, _ = r.Documents()

		var got []*swagger.Document
		r.OnBuilt(func(docs []*swagger.Document) {
			got = docs
		})
		assert.Len(t, got, 2)
	})

	t.Run("failed build", func(t *testing.T) {
		r := New(func() ([]*swagger.Document, error) {
			return nil, errors.New("boom")
		})

		called := false
		r.OnBuilt(func([]*swagger.Document) { called = true })
		_, _ = r.Documents()
		r.OnBuilt(func([]*swagger.Document) { called = true })
		assert.False(t, called)
	})

	t.Run("partial build", func(t *testing.T) {
		r := New(func() ([]*swagger.Document, error) {
			return namedDocs("a"), errors.New("b left out")
		})

		var calls int
		r.OnBuilt(func(docs []*swagger.Document) {
			calls++
			assert.Len(t, docs, 1)
			assert.Error(t, r.Err())
		})
		_, _ = r.Documents()
		r.OnBuilt(func([]*swagger.Document) { calls++ })
		assert.Equal(t, 2, calls)
	})
}

func TestRegistryLookup(t *testing.T) {
	r := New(func() ([]*swagger.Document, error) {
		return namedDocs("", "Widgets", "Gadgets"), nil
	})

	t.Run("case insensitive", func(t *testing.T) {
		doc, ok := r.Lookup("widgets")
		require.True(t, ok)
		assert.Equal(t, "Widgets", doc.Name)

		doc, ok = r.Lookup("GADGETS")
		require.True(t, ok)
		assert.Equal(t, "Gadgets", doc.Name)
	})

	t.Run("missing", func(t *testing.T) {
		doc, ok := r.Lookup("nope")
		assert.False(t, ok)
		assert.Nil(t, doc)
	})

	t.Run("default", func(t *testing.T) {
		doc, ok := r.Default()
		require.True(t, ok)
		assert.Empty(t, doc.Name)
	})

	t.Run("empty", func(t *testing.T) {
		empty := New(func() ([]*swagger.Document, error) { return nil, nil })
		_, ok := empty.Default()
		assert.False(t, ok)
		_, ok = empty.Lookup("")
		assert.False(t, ok)
	})
}

func TestRegistryConfigure(t *testing.T) {
	var calls atomic.Int32
	r := New(func() ([]*swagger.Document, error) {
		calls.Add(1)
		docs := namedDocs("a", "b")
		docs[0].BasePath = "/v1"
		docs[0].Paths = []*swagger.Path{swagger.NewPath("/x")}
		return docs, nil
	})

	before, _ := r.Default()

	r.Configure(&swagger.Info{Title: "First"})
	r.Configure(&swagger.Info{Title: "Second", Version: "2"})

	docs, err := r.Documents()
	require.NoError(t, err)
	require.Len(t, docs, 2)
	for _, doc := range docs {
		assert.Equal(t, &swagger.Info{Title: "Second", Version: "2"}, doc.Info)
	}
	assert.Equal(t, "/v1", docs[0].BasePath)
	assert.Len(t, docs[0].Paths, 1)

	assert.Nil(t, before.Info)
	assert.Equal(t, int32(1), calls.Load())
}

type pingService struct {
	discovery.Service `swagger:"ping,name=Ping"`
}

func (s *pingService) SwaggerOperations() []discovery.Operation {
	return []discovery.Operation{{Name: "Ping"}}
}

func (s *pingService) Ping() string { return "pong" }

func TestNewFromSource(t *testing.T) {
	src := discovery.NewCatalog()
	src.Add("example.com/ping", (*pingService)(nil))

	r := NewFromSource(src, discovery.Options{
		Settings: swagger.Settings{"InfoTitle": "Ping API"},
	})

	doc, ok := r.Lookup("ping")
	require.True(t, ok)
	assert.Equal(t, "Ping API", doc.Info.Title)

	_, ok = doc.Path("/ping/Ping")
	assert.True(t, ok)
}
