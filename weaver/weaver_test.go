package weaver_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gotest.tools/v3/assert"

	"github.com/aspectrt/aspectrt/advice"
	"github.com/aspectrt/aspectrt/weaver"
)

type greeter struct{}

func (greeter) Greet(name string) string { return "hello " + name }

type addService struct{}

func (addService) Add(a, b int) int { return a + b }

func TestBootWeavesAndFiresAdvice(t *testing.T) {
	var log []string
	w := weaver.New()

	err := w.Boot(weaver.AopConfig{
		Aspects: []weaver.AspectConfig{
			{
				ID:     "log-greet",
				Target: greeter{},
				Advices: []weaver.AdviceConfig{
					{
						Kind:     advice.Before,
						Method:   "Greet",
						Pointcut: "execution(* greeter.greet(..))",
						Func: func(bindings map[string]any) (any, error) {
							log = append(log, "before")
							return nil, nil
						},
					},
				},
			},
		},
	})
	require.NoError(t, err)

	proxies := w.LiveProxies()
	require.Len(t, proxies, 1)

	result, err := proxies[0].Call("Greet", "world")
	require.NoError(t, err)
	require.Equal(t, "hello world", result)
	require.Equal(t, []string{"before"}, log)
}

// §8 property 1 / S5-adjacent: booting an aspect that references a
// missing named pointcut fails with a reference error naming it.
func TestBootFailsOnMissingPointcutRef(t *testing.T) {
	w := weaver.New()

	err := w.Boot(weaver.AopConfig{
		Aspects: []weaver.AspectConfig{
			{
				ID:     "broken",
				Target: greeter{},
				Advices: []weaver.AdviceConfig{
					{Kind: advice.Before, Method: "Greet", PointcutRef: "missing"},
				},
			},
		},
	})

	require.Error(t, err)
	var refErr *weaver.ReferenceError
	require.ErrorAs(t, err, &refErr)
	require.Equal(t, "missing", refErr.Name)
}

func TestBootFailsOnMissingMethod(t *testing.T) {
	w := weaver.New()

	err := w.Boot(weaver.AopConfig{
		Aspects: []weaver.AspectConfig{
			{
				ID:     "broken",
				Target: greeter{},
				Advices: []weaver.AdviceConfig{
					{Kind: advice.Before, Method: "DoesNotExist", Pointcut: "execution(* greeter.greet(..))"},
				},
			},
		},
	})

	require.Error(t, err)
	var refErr *weaver.ReferenceError
	require.ErrorAs(t, err, &refErr)
	require.Equal(t, "DoesNotExist", refErr.Name)
}

// S6: aspects with lower order weave (and therefore fire) before
// higher-order aspects.
func TestAspectsOrderedByOrderAscending(t *testing.T) {
	var log []string
	w := weaver.New()

	mkAdvice := func(name string) advice.AdviceFunc {
		return func(bindings map[string]any) (any, error) {
			log = append(log, name)
			return nil, nil
		}
	}

	err := w.Boot(weaver.AopConfig{
		Aspects: []weaver.AspectConfig{
			{
				ID: "B", Target: greeter{}, Order: 2,
				Advices: []weaver.AdviceConfig{{Kind: advice.Before, Method: "Greet", Pointcut: "execution(* greeter.greet(..))", Func: mkAdvice("B")}},
			},
			{
				ID: "A", Target: greeter{}, Order: 1,
				Advices: []weaver.AdviceConfig{{Kind: advice.Before, Method: "Greet", Pointcut: "execution(* greeter.greet(..))", Func: mkAdvice("A")}},
			},
		},
	})
	require.NoError(t, err)

	records := w.Records()
	require.Len(t, records, 2)
	assert.DeepEqual(t, []string{records[0].AspectID, records[1].AspectID}, []string{"A", "B"})

	// Both aspects install a before advice on greeter under the same
	// pointcut text, so one call through either proxy replays both
	// records in installation (weave) order.
	_, err = w.LiveProxies()[0].Call("Greet", "world")
	require.NoError(t, err)
	assert.DeepEqual(t, log, []string{"A", "B"})
}

func TestAdvisorWeavesViaMethodMatcher(t *testing.T) {
	var fired bool
	w := weaver.New()

	err := w.Boot(weaver.AopConfig{
		Advisors: []weaver.AdvisorConfig{
			{
				ID:       "add-advisor",
				Target:   addService{},
				Method:   "Add",
				Pointcut: "execution(* addService.add(..))",
				Advice: func(target any, args []any) (any, error) {
					fired = true
					return 0, nil
				},
				MethodMatcher: &weaver.MethodMatcherConfig{Pattern: "^Add$"},
			},
		},
	})
	require.NoError(t, err)

	proxies := w.LiveProxies()
	require.Len(t, proxies, 1)

	result, err := proxies[0].Call("Add", 1, 2)
	require.NoError(t, err)
	require.Equal(t, 0, result)
	require.True(t, fired)
}

func TestDisposeRevokesLiveProxiesAndClearsRegistry(t *testing.T) {
	w := weaver.New()
	require.NoError(t, w.Boot(weaver.AopConfig{
		Pointcuts: []weaver.PointcutConfig{{ID: "isGreeter", Expression: "within(*Greeter)"}},
		Aspects: []weaver.AspectConfig{
			{
				ID:     "log-greet",
				Target: greeter{},
				Advices: []weaver.AdviceConfig{
					{Kind: advice.Before, Method: "Greet", PointcutRef: "isGreeter"},
				},
			},
		},
	}))

	proxies := w.LiveProxies()
	require.Len(t, proxies, 1)

	require.NoError(t, w.Dispose())

	_, err := proxies[0].Call("Greet", "world")
	require.Error(t, err)

	require.False(t, w.Registry().Has("isGreeter"))
	require.Empty(t, w.LiveProxies())
}
