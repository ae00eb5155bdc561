package advice_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aspectrt/aspectrt/advice"
	"github.com/aspectrt/aspectrt/joinpoint"
)

func TestAdvisorClassFilterFires(t *testing.T) {
	target := greetSvc{}
	advisor := &advice.Advisor{
		ClassFilter: func(t reflect.Type) bool { return t == reflect.TypeOf(target) },
		Advice:      func(any, []any) (any, error) { return "replaced", nil },
	}

	jp := joinpoint.New(target, "Greet", []any{"world"})
	result, fired, err := advisor.Execute(jp)

	require.NoError(t, err)
	require.True(t, fired)
	require.Equal(t, "replaced", result)
	require.True(t, advisor.LastFired())
}

func TestAdvisorMethodMatcherFires(t *testing.T) {
	target := greetSvc{}
	advisor := &advice.Advisor{
		MethodMatcher: func(_ reflect.Value, methodName string, _ reflect.Type, _ []any) bool {
			return methodName == "Greet"
		},
		Advice: func(any, []any) (any, error) { return "replaced", nil },
	}

	jp := joinpoint.New(target, "Greet", nil)
	result, fired, err := advisor.Execute(jp)

	require.NoError(t, err)
	require.True(t, fired)
	require.Equal(t, "replaced", result)
}

func TestAdvisorNoMatchDoesNotFire(t *testing.T) {
	target := greetSvc{}
	advisor := &advice.Advisor{
		ClassFilter: func(reflect.Type) bool { return false },
		Advice:      func(any, []any) (any, error) { return "replaced", nil },
	}

	jp := joinpoint.New(target, "Greet", nil)
	_, fired, err := advisor.Execute(jp)

	require.NoError(t, err)
	require.False(t, fired)
	require.False(t, advisor.LastFired())
}

func TestCompositeMatcherRequiresBoth(t *testing.T) {
	target := greetSvc{}

	classOnlyWrong := &advice.Advisor{
		Composite: &advice.CompositeMatcher{
			ClassFilter:   func(reflect.Type) bool { return false },
			MethodMatcher: func(reflect.Value, string, reflect.Type, []any) bool { return true },
		},
		Advice: func(any, []any) (any, error) { return "replaced", nil },
	}
	jp := joinpoint.New(target, "Greet", nil)
	_, fired, err := classOnlyWrong.Execute(jp)
	require.NoError(t, err)
	require.False(t, fired, "composite must not fire when the class filter rejects")

	both := &advice.Advisor{
		Composite: &advice.CompositeMatcher{
			ClassFilter:   func(t reflect.Type) bool { return t == reflect.TypeOf(target) },
			MethodMatcher: func(_ reflect.Value, methodName string, _ reflect.Type, _ []any) bool { return methodName == "Greet" },
		},
		Advice: func(any, []any) (any, error) { return "replaced", nil },
	}
	result, fired, err := both.Execute(jp)
	require.NoError(t, err)
	require.True(t, fired)
	require.Equal(t, "replaced", result)
}
