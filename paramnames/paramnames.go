// Package paramnames resolves the formal parameter names of a target
// method (§4.2). The core ships two strategies and queries them in a
// fixed order, the first non-unknown answer wins.
package paramnames

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/aspectrt/aspectrt/metadata"
)

// Discoverer answers "unknown" by returning ok=false.
type Discoverer interface {
	Discover(target any, methodName string) (names []string, ok bool)
}

// AnnotationDiscoverer reads the "argNames" method annotation (a
// comma-separated string) recorded in a metadata.Store with SetMethod.
// The advice decorators do not write this annotation; they read an
// advice's own argNames directly before falling back to discovery.
type AnnotationDiscoverer struct {
	Store *metadata.Store
}

func (d AnnotationDiscoverer) Discover(target any, methodName string) ([]string, bool) {
	if d.Store == nil || target == nil {
		return nil, false
	}
	raw, ok := d.Store.ArgNames(reflect.TypeOf(target), methodName)
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, false
	}

	parts := strings.Split(raw, ",")
	names := make([]string, len(parts))
	for i, p := range parts {
		names[i] = strings.TrimSpace(p)
	}
	return names, true
}

// ReflectiveDiscoverer falls back to the host reflection layer. Go
// erases formal parameter names at compile time, so unlike a dynamic
// host this strategy cannot recover the names the source used; it
// synthesizes positional names ("arg0", "arg1", ...) from the method's
// declared parameter count, which is the most a pure reflect.Type-based
// strategy can offer.
type ReflectiveDiscoverer struct{}

func (ReflectiveDiscoverer) Discover(target any, methodName string) ([]string, bool) {
	if target == nil {
		return nil, false
	}
	method := reflect.ValueOf(target).MethodByName(methodName)
	if !method.IsValid() {
		return nil, false
	}

	n := method.Type().NumIn()
	names := make([]string, n)
	for i := 0; i < n; i++ {
		names[i] = fmt.Sprintf("arg%d", i)
	}
	return names, true
}

// Default is the fixed strategy order the spec ships: annotation first,
// reflective second.
func Default(store *metadata.Store) []Discoverer {
	return []Discoverer{
		AnnotationDiscoverer{Store: store},
		ReflectiveDiscoverer{},
	}
}

// ErrUnresolvable is returned by GetParameterNames when no strategy
// could answer.
type ErrUnresolvable struct {
	MethodName string
}

func (e *ErrUnresolvable) Error() string {
	return fmt.Sprintf("paramnames: unresolvable parameter names for method %q", e.MethodName)
}

// GetParameterNames consults strategies in order and fails with
// ErrUnresolvable if none succeeds.
func GetParameterNames(strategies []Discoverer, target any, methodName string) ([]string, error) {
	for _, s := range strategies {
		if names, ok := s.Discover(target, methodName); ok {
			return names, nil
		}
	}
	return nil, &ErrUnresolvable{MethodName: methodName}
}
