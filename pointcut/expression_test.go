package pointcut_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aspectrt/aspectrt/pointcut"
)

func TestParseUnknownTokenFails(t *testing.T) {
	_, err := pointcut.Parse("fooBar(x)", pointcut.NewRegistry())
	require.Error(t, err)

	var perr *pointcut.ParseError
	require.ErrorAs(t, err, &perr)
	require.Equal(t, "fooBar(x)", perr.Token)
}

type greetServiceOwner struct{}

func TestExecutionPatternWithSpaces(t *testing.T) {
	expr, err := pointcut.Parse("execution(* greetServiceOwner.greet(..))", pointcut.NewRegistry())
	require.NoError(t, err)

	c := pointcut.Candidate{FuncName: "greet", FuncOwner: reflect.TypeOf(greetServiceOwner{})}
	require.True(t, expr.Evaluate(c))
}

type greetService struct{}
type otherThing struct{}

func TestWithinPattern(t *testing.T) {
	expr, err := pointcut.Parse("within(*Service)", pointcut.NewRegistry())
	require.NoError(t, err)

	require.True(t, expr.Evaluate(pointcut.Candidate{TargetType: reflect.TypeOf(greetService{})}))
	require.False(t, expr.Evaluate(pointcut.Candidate{TargetType: reflect.TypeOf(otherThing{})}))
}

func TestAndOrLeftToRight(t *testing.T) {
	reg := pointcut.NewRegistry()

	// "bean(x) || ! bean(x)" is always true; "bean(x) && ! bean(x)" always false.
	always, err := pointcut.Parse("bean(x) || ! bean(x)", reg)
	require.NoError(t, err)
	never, err := pointcut.Parse("bean(x) && ! bean(x)", reg)
	require.NoError(t, err)
	reg.Set("T", always)
	reg.Set("F", never)

	expr, err := pointcut.Parse("T && F || T", reg)
	require.NoError(t, err)
	// Left-to-right, no precedence: ((T && F) || T) = (false || true) = true.
	require.True(t, expr.Evaluate(pointcut.Candidate{}))
}

func TestNegationBindsToNextToken(t *testing.T) {
	expr, err := pointcut.Parse("! target(Foo)", pointcut.NewRegistry())
	require.NoError(t, err)

	type Foo struct{}
	require.False(t, expr.Evaluate(pointcut.Candidate{TargetType: reflect.TypeOf(Foo{})}))

	type Bar struct{}
	require.True(t, expr.Evaluate(pointcut.Candidate{TargetType: reflect.TypeOf(Bar{})}))
}

func TestDeterministic(t *testing.T) {
	expr, err := pointcut.Parse("target(Foo)", pointcut.NewRegistry())
	require.NoError(t, err)

	type Foo struct{}
	c := pointcut.Candidate{TargetType: reflect.TypeOf(Foo{})}
	first := expr.Evaluate(c)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, expr.Evaluate(c))
	}
}

func TestNamedReferenceResolution(t *testing.T) {
	reg := pointcut.NewRegistry()
	named, err := pointcut.Parse("within(*Service)", reg)
	require.NoError(t, err)
	reg.Set("isService", named)

	expr, err := pointcut.Parse("isService", reg)
	require.NoError(t, err)

	require.True(t, expr.Evaluate(pointcut.Candidate{TargetType: reflect.TypeOf(greetService{})}))
}

func TestUnknownNamedReferenceFails(t *testing.T) {
	_, err := pointcut.Parse("neverRegistered", pointcut.NewRegistry())
	require.Error(t, err)
}
