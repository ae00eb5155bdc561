package pointcut

import (
	"fmt"
	"reflect"
	"strings"
)

// Predicate is a closed, side-effect-free test over a Candidate.
type Predicate func(Candidate) bool

// primitiveBuilder compiles the parenthesized body of a primitive token
// into a Predicate.
type primitiveBuilder func(body string) (Predicate, error)

var primitives = map[string]primitiveBuilder{
	"execution":   buildExecution,
	"within":      buildWithin,
	"this":        buildThis,
	"target":      buildTarget,
	"args":        buildArgs,
	"@target":     buildAtTarget,
	"@within":     buildAtWithin,
	"@annotation": buildAtAnnotation,
	"@args":       buildAtArgs,
	"bean":        buildBean,
}

func buildExecution(body string) (Predicate, error) {
	re, err := compilePattern(strings.TrimSpace(body))
	if err != nil {
		return nil, fmt.Errorf("pointcut: invalid execution() pattern %q: %w", body, err)
	}
	return func(c Candidate) bool {
		return matchPattern(re, c.FuncString())
	}, nil
}

func buildWithin(body string) (Predicate, error) {
	re, err := compilePattern(strings.TrimSpace(body))
	if err != nil {
		return nil, fmt.Errorf("pointcut: invalid within() pattern %q: %w", body, err)
	}
	return func(c Candidate) bool {
		return matchPattern(re, c.TargetTypeName())
	}, nil
}

func buildThis(body string) (Predicate, error) {
	name := strings.TrimSpace(body)
	return func(c Candidate) bool {
		return c.ProxyTypeName() == name
	}, nil
}

func buildTarget(body string) (Predicate, error) {
	name := strings.TrimSpace(body)
	return func(c Candidate) bool {
		return c.TargetTypeName() == name
	}, nil
}

func buildArgs(body string) (Predicate, error) {
	types := splitArgs(body)
	return func(c Candidate) bool {
		if len(c.Args) != len(types) {
			return false
		}
		for i, want := range types {
			if want == "*" {
				continue
			}
			if actualTypeName(c.Args[i]) != want {
				return false
			}
		}
		return true
	}, nil
}

func buildAtTarget(body string) (Predicate, error) {
	key := strings.TrimSpace(body)
	return func(c Candidate) bool {
		if c.Store == nil || c.TargetType == nil {
			return false
		}
		return c.Store.Has(c.TargetType, key)
	}, nil
}

func buildAtWithin(body string) (Predicate, error) {
	key := strings.TrimSpace(body)
	return func(c Candidate) bool {
		if c.Store == nil || c.TargetType == nil {
			return false
		}
		return c.Store.Has(c.TargetType, key)
	}, nil
}

func buildAtAnnotation(body string) (Predicate, error) {
	key := strings.TrimSpace(body)
	return func(c Candidate) bool {
		if c.Store == nil || c.FuncOwner == nil || c.FuncName == "" {
			return false
		}
		return c.Store.HasMethod(c.FuncOwner, c.FuncName, key)
	}, nil
}

func buildAtArgs(body string) (Predicate, error) {
	keys := splitArgs(body)
	return func(c Candidate) bool {
		if len(c.Args) != len(keys) {
			return false
		}
		if c.Store == nil {
			return false
		}
		for i, key := range keys {
			t := reflect.TypeOf(c.Args[i])
			if t == nil || !c.Store.Has(t, key) {
				return false
			}
		}
		return true
	}, nil
}

func buildBean(body string) (Predicate, error) {
	name := strings.TrimSpace(body)
	return func(c Candidate) bool {
		return c.BeanName == name
	}, nil
}

func splitArgs(body string) []string {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}
	parts := strings.Split(body, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func actualTypeName(v any) string {
	if v == nil {
		return "nil"
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.Kind().String()
}
