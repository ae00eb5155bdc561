package joinpoint_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aspectrt/aspectrt/joinpoint"
)

type greeter struct{}

func (greeter) Greet(name string) string { return "hello " + name }

func TestJoinPointAccessors(t *testing.T) {
	target := greeter{}
	jp := joinpoint.New(target, "Greet", []any{"world"})

	require.Equal(t, target, jp.Target())
	require.Equal(t, []any{"world"}, jp.Args())
	require.Equal(t, "Greet", jp.Signature())
	require.Equal(t, "greeter", jp.OwnerType().Name())
	require.True(t, jp.MethodValue().IsValid())
	require.NotEqual(t, jp.ID().String(), joinpoint.New(target, "Greet", nil).ID().String())
}

func TestJoinPointStringClassOnly(t *testing.T) {
	jp := joinpoint.New(greeter{}, "", nil)
	require.Equal(t, "greeter class", jp.String())
}

func TestJoinPointStringWithMethod(t *testing.T) {
	jp := joinpoint.New(greeter{}, "Greet", []any{"world"})
	require.Equal(t, "Greet.Greet(world)", jp.String())
}
