package selector_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aspectrt/aspectrt/metadata"
	"github.com/aspectrt/aspectrt/selector"
)

type widget struct{}

func (widget) Render(name string) string { return name }

func TestWildcardMatchesEverything(t *testing.T) {
	m := selector.New("*", true, metadata.New())

	require.True(t, m.Filter(reflect.TypeOf(widget{})))

	method := reflect.ValueOf(widget{}).MethodByName("Render")
	require.True(t, m.Matches(method, "Render", reflect.TypeOf(widget{}), []any{"x"}))
	require.True(t, m.Matches(reflect.Value{}, "", nil, nil))
}

func TestAttributeEqualsOnMethodName(t *testing.T) {
	m := selector.New("[name=Render]", false, metadata.New())

	require.True(t, m.Matches(reflect.Value{}, "Render", nil, nil))
	require.False(t, m.Matches(reflect.Value{}, "Other", nil, nil))
}

func TestAttributePrefixOperator(t *testing.T) {
	m := selector.New("[name^=Ren]", false, metadata.New())

	require.True(t, m.Matches(reflect.Value{}, "Render", nil, nil))
	require.False(t, m.Matches(reflect.Value{}, "Draw", nil, nil))
}

func TestTypeSelectorNamespaced(t *testing.T) {
	store := metadata.New()
	store.Set(reflect.TypeOf(widget{}), "namespace", "ui")

	m := selector.New("ui|widget", true, store)
	require.True(t, m.Filter(reflect.TypeOf(widget{})))
}

func TestMatchArgumentsTypeCheck(t *testing.T) {
	m := selector.New("[name=Render]", false, metadata.New())
	method := reflect.ValueOf(widget{}).MethodByName("Render")

	require.True(t, m.Matches(method, "Render", reflect.TypeOf(widget{}), []any{"hello"}))
}
