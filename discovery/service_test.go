package discovery

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServiceTag(t *testing.T) {
	tests := []struct {
		tag  string
		want ServiceInfo
	}{
		{"", ServiceInfo{}},
		{"widgets", ServiceInfo{Prefix: "widgets"}},
		{"/api/widgets/, name = Widgets", ServiceInfo{Prefix: "/api/widgets/", Name: "Widgets"}},
		{"w,method=get", ServiceInfo{Prefix: "w", Method: "GET"}},
		{"w,tags=shop| public|", ServiceInfo{Prefix: "w", Tags: []string{"shop", "public"}}},
		{"w,unknown=1", ServiceInfo{Prefix: "w"}},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, parseServiceTag(tt.tag))
		})
	}
}

func TestReflectInspectorService(t *testing.T) {
	inspector := ReflectInspector{}

	t.Run("annotated", func(t *testing.T) {
		info, ok := inspector.Service(reflect.TypeOf(SampleService{}))
		require.True(t, ok)
		assert.Equal(t, reflect.TypeOf(SampleService{}), info.Type)
		assert.Equal(t, "Sample", info.Prefix)
		assert.Equal(t, "Sample", info.Name)
		assert.Equal(t, "Sample", info.Title())
	})

	t.Run("title falls back to type name", func(t *testing.T) {
		info, ok := inspector.Service(reflect.TypeOf(SecretService{}))
		require.True(t, ok)
		assert.Empty(t, info.Name)
		assert.Equal(t, "SecretService", info.Title())
	})

	t.Run("not annotated", func(t *testing.T) {
		_, ok := inspector.Service(reflect.TypeOf(Plain{}))
		assert.False(t, ok)

		_, ok = inspector.Service(reflect.TypeOf(0))
		assert.False(t, ok)

		_, ok = inspector.Service(nil)
		assert.False(t, ok)
	})
}

func TestReflectInspectorMembers(t *testing.T) {
	inspector := ReflectInspector{}

	t.Run("declaration order", func(t *testing.T) {
		members, err := inspector.Members(reflect.TypeOf(WidgetService{}))
		require.NoError(t, err)

		var names []string
		for _, m := range members {
			names = append(names, m.Name)
			assert.Equal(t, m.Name, m.Func.Name)
		}
		assert.Equal(t, []string{"List", "Create", "Get", "Delete", "Search", "Purge"}, names)
	})

	t.Run("no operations", func(t *testing.T) {
		members, err := inspector.Members(reflect.TypeOf(Widget{}))
		require.NoError(t, err)
		assert.Empty(t, members)
	})

	t.Run("unknown method", func(t *testing.T) {
		_, err := inspector.Members(reflect.TypeOf(MissingService{}))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownMethod)

		var me *MappingError
		require.True(t, errors.As(err, &me))
		assert.Equal(t, "DoesNotExist", me.Member)
		assert.Contains(t, err.Error(), "MissingService")
	})
}

func TestMappingError(t *testing.T) {
	err := &MappingError{Service: reflect.TypeOf(SampleService{}), Err: ErrRouteConflict}
	assert.Equal(t, "discovery: service discovery.SampleService: duplicate method and route", err.Error())
	assert.ErrorIs(t, err, ErrRouteConflict)

	err = &MappingError{Service: reflect.TypeOf(SampleService{}), Member: "GetWidget", Err: ErrParamBinding}
	assert.Equal(t, "discovery: service discovery.SampleService: operation GetWidget: parameter bindings do not match method", err.Error())
}
