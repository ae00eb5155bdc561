// Package proxy implements ProxyFactory (§4.9): the object that holds
// a target plus its installed advice bindings and produces the handle
// call sites actually invoke.
//
// §9's design note on interception strategy observes that the source
// mixes three proxy modes (a transparent revocable proxy, a
// prototype-overlay "class proxy", and an AspectJ-style mode that adds
// its own per-access containment-based dispatch) and suggests
// collapsing them. Go has no prototype chain and no property-access
// trap to hang a third mode off of, so useClassProxy and
// useAspectJStyle are kept as inert policy flags for config
// round-tripping only: every ProxyFactory here dispatches through the
// single Proxy.Call method regardless of their value. There is no
// substring-containment matcher either: advice runs for every call to
// the method it was installed on, and the installed Interceptor picks
// its advice records by exact pointcut text (advice.Registry.Lookup).
// The pointcut expression itself is not evaluated against the call.
package proxy

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/aspectrt/aspectrt/advice"
	"github.com/aspectrt/aspectrt/joinpoint"
)

// ErrFrozen is the policy-violation error (§7) a mutator returns once
// the factory has been frozen.
var ErrFrozen = errors.New("proxy: factory is frozen")

// ErrDisposed is returned by Call once the owning factory has been
// disposed (§8 property 6: access through a previous proxy handle
// must fail afterwards).
var ErrDisposed = errors.New("proxy: factory has been disposed")

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// ProxyFactory holds one target plus its installed advice bindings and
// policy flags (§4.9). A factory is shared by every Proxy handle it
// produces: a handle obtained before Dispose observes the same
// disposed state as one obtained after.
type ProxyFactory struct {
	mu sync.RWMutex

	target  any
	advices map[string][]advice.Interceptor

	useClassProxy   bool
	useAspectJStyle bool
	frozen          bool
	exposed         bool
	disposed        bool
	interfaces      []reflect.Type
}

// NewFactory constructs a factory over target. No advice is installed
// and no policy flag is set.
func NewFactory(target any) *ProxyFactory {
	return &ProxyFactory{
		target:  target,
		advices: make(map[string][]advice.Interceptor),
	}
}

// AddAdvice appends interceptor to the chain run for calls to
// methodName. Installation order is firing order (§8 property 4):
// advice added first wraps advice added later.
func (f *ProxyFactory) AddAdvice(methodName string, interceptor advice.Interceptor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frozen {
		return ErrFrozen
	}
	f.advices[methodName] = append(f.advices[methodName], interceptor)
	return nil
}

// AddInterface records that the proxy should be considered to
// implement t. Go proxies dispatch by method name rather than by
// interface satisfaction, so this is bookkeeping only (exposed via
// Interfaces for diagnostics), kept for config fidelity with the
// source's addedInterfaces list.
func (f *ProxyFactory) AddInterface(t reflect.Type) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frozen {
		return ErrFrozen
	}
	f.interfaces = append(f.interfaces, t)
	return nil
}

func (f *ProxyFactory) Interfaces() []reflect.Type {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]reflect.Type(nil), f.interfaces...)
}

// SetUseClassProxy, SetUseAspectJStyle, and SetExposed mirror the
// three §4.9 policy flags. All three refuse once the factory is
// frozen.
func (f *ProxyFactory) SetUseClassProxy(v bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frozen {
		return ErrFrozen
	}
	f.useClassProxy = v
	return nil
}

func (f *ProxyFactory) SetUseAspectJStyle(v bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frozen {
		return ErrFrozen
	}
	f.useAspectJStyle = v
	return nil
}

func (f *ProxyFactory) SetExposed(v bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.frozen {
		return ErrFrozen
	}
	f.exposed = v
	return nil
}

// Freeze raises frozen. Freezing itself is never refused.
func (f *ProxyFactory) Freeze() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frozen = true
}

func (f *ProxyFactory) Frozen() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.frozen
}

// Proxy produces a handle over the factory's current state. Every
// handle shares the factory's advice chains and disposed flag, so
// advice installed (or Dispose called) after Proxy returns is still
// observed by handles obtained earlier.
func (f *ProxyFactory) Proxy() *Proxy {
	return &Proxy{factory: f}
}

// Dispose revokes every proxy handle produced by this factory, clears
// installed advice and interfaces, and resets policy flags (§4.9).
func (f *ProxyFactory) Dispose() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disposed = true
	f.advices = make(map[string][]advice.Interceptor)
	f.interfaces = nil
	f.useClassProxy = false
	f.useAspectJStyle = false
	f.frozen = false
	f.exposed = false
}

// Proxy is the handle call sites hold. It has no state of its own
// beyond a pointer back to its factory, so disposing the factory
// revokes every outstanding Proxy at once.
type Proxy struct {
	factory *ProxyFactory
}

// Call dispatches methodName through the installed advice chain and,
// ultimately, the real method on the target via reflection — the
// single collapsed strategy described in the package doc comment.
func (p *Proxy) Call(methodName string, args ...any) (any, error) {
	f := p.factory

	f.mu.RLock()
	if f.disposed {
		f.mu.RUnlock()
		return nil, ErrDisposed
	}
	chain := append([]advice.Interceptor(nil), f.advices[methodName]...)
	exposed := f.exposed
	target := f.target
	f.mu.RUnlock()

	if exposed {
		prev := setCurrentProxy(p)
		defer restoreCurrentProxy(prev)
	}

	jp := joinpoint.New(target, methodName, args)
	proceed := func() (any, error) { return callMethod(target, methodName, args) }
	for i := len(chain) - 1; i >= 0; i-- {
		interceptor := chain[i]
		next := proceed
		proceed = func() (any, error) { return interceptor(jp, next) }
	}
	return proceed()
}

// Target returns the wrapped object, e.g. so an around advice can
// inspect it directly rather than only through proceed.
func (p *Proxy) Target() any {
	return p.factory.target
}

var currentProxyMu sync.Mutex
var currentProxySlot *Proxy

// CurrentProxy returns the proxy currently dispatching a call, when
// that proxy's factory has exposed set (§4.9, §5). The slot is scoped
// to the synchronous call extent only: the runtime's single-threaded
// cooperative model (§5) means it is restored the moment Call returns,
// with no guarantee across a suspended advice body.
func CurrentProxy() *Proxy {
	currentProxyMu.Lock()
	defer currentProxyMu.Unlock()
	return currentProxySlot
}

func setCurrentProxy(p *Proxy) *Proxy {
	currentProxyMu.Lock()
	defer currentProxyMu.Unlock()
	prev := currentProxySlot
	currentProxySlot = p
	return prev
}

func restoreCurrentProxy(prev *Proxy) {
	currentProxyMu.Lock()
	defer currentProxyMu.Unlock()
	currentProxySlot = prev
}

// Invoke calls methodName on target via reflection without going
// through any advice chain. It is exported so other packages that
// need the same "call a method named by a string, adapt its results
// to (any, error)" behavior can reuse it instead of re-implementing
// the reflection and result-splitting.
func Invoke(target any, methodName string, args []any) (any, error) {
	return callMethod(target, methodName, args)
}

func callMethod(target any, methodName string, args []any) (any, error) {
	method := reflect.ValueOf(target).MethodByName(methodName)
	if !method.IsValid() {
		return nil, fmt.Errorf("proxy: target %T has no method %q", target, methodName)
	}

	in := make([]reflect.Value, len(args))
	mt := method.Type()
	for i, a := range args {
		if a == nil && i < mt.NumIn() {
			in[i] = reflect.Zero(mt.In(i))
			continue
		}
		in[i] = reflect.ValueOf(a)
	}

	return splitResults(method.Call(in))
}

// splitResults adapts a reflect.Value result tuple to the (any, error)
// shape every Interceptor and Proxy.Call method deals in, recognizing
// the idiomatic Go convention of a trailing error return.
func splitResults(out []reflect.Value) (any, error) {
	if len(out) == 0 {
		return nil, nil
	}

	last := out[len(out)-1]
	if last.Type().Implements(errorType) {
		var err error
		if !last.IsNil() {
			err, _ = last.Interface().(error)
		}
		rest := out[:len(out)-1]
		switch len(rest) {
		case 0:
			return nil, err
		case 1:
			return rest[0].Interface(), err
		default:
			vals := make([]any, len(rest))
			for i, v := range rest {
				vals[i] = v.Interface()
			}
			return vals, err
		}
	}

	if len(out) == 1 {
		return out[0].Interface(), nil
	}
	vals := make([]any, len(out))
	for i, v := range out {
		vals[i] = v.Interface()
	}
	return vals, nil
}
