package proxy_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aspectrt/aspectrt/advice"
	"github.com/aspectrt/aspectrt/joinpoint"
	"github.com/aspectrt/aspectrt/proxy"
)

type calc struct{}

func (calc) Add(a, b int) int { return a + b }

type boundary struct{}

func (boundary) Fail() (string, error) { return "", errors.New("boom") }

func TestCallDispatchesToRealMethod(t *testing.T) {
	f := proxy.NewFactory(calc{})
	p := f.Proxy()

	result, err := p.Call("Add", 2, 3)
	require.NoError(t, err)
	require.Equal(t, 5, result)
}

func TestCallRunsInstalledAdvice(t *testing.T) {
	f := proxy.NewFactory(calc{})
	var log []string

	interceptor := func(jp *joinpoint.JoinPoint, proceedFn func() (any, error)) (any, error) {
		log = append(log, "before")
		return proceedFn()
	}
	require.NoError(t, f.AddAdvice("Add", advice.Interceptor(interceptor)))

	p := f.Proxy()
	result, err := p.Call("Add", 2, 3)

	require.NoError(t, err)
	require.Equal(t, 5, result)
	require.Equal(t, []string{"before"}, log)
}

func TestTrailingErrorReturnPropagates(t *testing.T) {
	f := proxy.NewFactory(boundary{})
	p := f.Proxy()

	_, err := p.Call("Fail")
	require.Error(t, err)
}

func TestFrozenFactoryRefusesMutation(t *testing.T) {
	f := proxy.NewFactory(calc{})
	f.Freeze()

	err := f.AddAdvice("Add", func(jp *joinpoint.JoinPoint, proceedFn func() (any, error)) (any, error) {
		return proceedFn()
	})
	require.ErrorIs(t, err, proxy.ErrFrozen)
}

// §8 property 6: dispose causes any subsequent access through a
// previously obtained proxy handle to fail.
func TestDisposeRevokesExistingHandle(t *testing.T) {
	f := proxy.NewFactory(calc{})
	p := f.Proxy()

	f.Dispose()

	_, err := p.Call("Add", 1, 2)
	require.ErrorIs(t, err, proxy.ErrDisposed)
}

func TestExposedProxyVisibleDuringCall(t *testing.T) {
	f := proxy.NewFactory(calc{})
	require.NoError(t, f.SetExposed(true))
	p := f.Proxy()

	var seenDuringCall *proxy.Proxy
	require.NoError(t, f.AddAdvice("Add", func(jp *joinpoint.JoinPoint, proceedFn func() (any, error)) (any, error) {
		seenDuringCall = proxy.CurrentProxy()
		return proceedFn()
	}))

	_, err := p.Call("Add", 1, 2)
	require.NoError(t, err)
	require.Same(t, p, seenDuringCall)
	require.Nil(t, proxy.CurrentProxy())
}
