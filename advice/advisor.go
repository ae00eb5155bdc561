package advice

import (
	"reflect"
	"sync"

	"github.com/aspectrt/aspectrt/joinpoint"
)

// AdvisorFunc is an advisor's advice body (§4.7): called with the
// join point's target as receiver and its actual arguments, unlike
// AdviceFunc which receives resolved name bindings. The spec describes
// this call as "call the advice with joinPoint.target as receiver and
// args" — no argNames resolution happens for an Advisor.
type AdvisorFunc func(target any, args []any) (any, error)

// ClassFilter is a matcher that only looks at the owner type.
type ClassFilter func(t reflect.Type) bool

// MethodMatcher is a matcher that also looks at the method and args.
type MethodMatcher func(method reflect.Value, methodName string, ownerType reflect.Type, args []any) bool

// CompositeMatcher matches a join point only when both a class filter
// and a method matcher accept it. §4.7 only describes an Advisor's
// matcher as "either a class filter... or a method matcher"; this adds
// the "and" composition bean(name) pointcuts need when they must
// additionally restrict by owner type, grounded in the same "matches
// any of {class, method, args}" shape §4.4 already gives SelectorMatcher.
type CompositeMatcher struct {
	ClassFilter   ClassFilter
	MethodMatcher MethodMatcher
}

func (c CompositeMatcher) matches(method reflect.Value, methodName string, ownerType reflect.Type, args []any) bool {
	return c.ClassFilter != nil && c.MethodMatcher != nil &&
		c.ClassFilter(ownerType) && c.MethodMatcher(method, methodName, ownerType, args)
}

// Advisor pairs one AdvisorFunc with one matcher — a ClassFilter, a
// MethodMatcher, or a Composite of both (§3 "Advisor") — and exposes a
// lastFired flag a decorator can consult after Execute returns.
type Advisor struct {
	Advice        AdvisorFunc
	ClassFilter   ClassFilter
	MethodMatcher MethodMatcher
	Composite     *CompositeMatcher

	mu        sync.Mutex
	lastFired bool
}

// LastFired reports whether the most recent Execute call ran the
// advice.
func (a *Advisor) LastFired() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastFired
}

// Execute implements the four steps of §4.7: clear lastFired, try the
// class filter, then the method matcher, running the advice and
// setting lastFired on whichever one fires first. fired reports
// whether either matcher selected this join point; when it is false
// the caller should treat result as the "unset" value the spec
// describes.
func (a *Advisor) Execute(jp *joinpoint.JoinPoint) (result any, fired bool, err error) {
	a.mu.Lock()
	a.lastFired = false
	a.mu.Unlock()

	switch {
	case a.Composite != nil && a.Composite.matches(jp.MethodValue(), jp.Signature(), jp.OwnerType(), jp.Args()):
		result, err = a.Advice(jp.Target(), jp.Args())
	case a.ClassFilter != nil && a.ClassFilter(jp.OwnerType()):
		result, err = a.Advice(jp.Target(), jp.Args())
	case a.MethodMatcher != nil && a.MethodMatcher(jp.MethodValue(), jp.Signature(), jp.OwnerType(), jp.Args()):
		result, err = a.Advice(jp.Target(), jp.Args())
	default:
		return nil, false, nil
	}

	a.mu.Lock()
	a.lastFired = true
	a.mu.Unlock()
	return result, true, err
}
