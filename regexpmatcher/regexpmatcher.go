// Package regexpmatcher implements RegexpMatcher (§4.5): an ordered
// sequence of regular expressions tested against a method's name, with
// an optional argument-shape check layered on top.
package regexpmatcher

import (
	"reflect"

	"github.com/dlclark/regexp2"
)

// Matcher holds the compiled form of each configured pattern alongside
// its original source, since a literal "*" source short-circuits the
// whole match regardless of what it would compile to.
type Matcher struct {
	sources []string
	regexes []*regexp2.Regexp
}

// New compiles patterns in order. A pattern that fails to compile is
// dropped rather than failing construction outright: RegexpMatcher has
// no parse-error contract of its own in §4.5, unlike PointcutExpression
// (§4.3), so a malformed entry simply never contributes a match.
func New(patterns ...string) *Matcher {
	m := &Matcher{sources: patterns}
	for _, p := range patterns {
		re, err := regexp2.Compile(p, regexp2.None)
		if err != nil {
			m.regexes = append(m.regexes, nil)
			continue
		}
		m.regexes = append(m.regexes, re)
	}
	return m
}

// Matches returns true if any configured pattern is the literal "*"
// wildcard, or if any compiled pattern matches methodName. When args is
// non-nil the name test alone is not sufficient: each actual argument
// must additionally be an instance of the method's corresponding
// declared parameter type, or share its primitive type name, mirroring
// SelectorMatcher's matchArguments (§4.4) since both read "declared
// parameter (by reflective metadata)" the same way.
func (m *Matcher) Matches(method reflect.Value, methodName string, args []any) bool {
	matched := false
	for i, src := range m.sources {
		if src == "*" {
			matched = true
			break
		}
		re := m.regexes[i]
		if re == nil {
			continue
		}
		ok, err := re.MatchString(methodName)
		if err == nil && ok {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	if args != nil && method.IsValid() {
		return matchArguments(method, args)
	}
	return true
}

func matchArguments(method reflect.Value, args []any) bool {
	mt := method.Type()
	if len(args) != mt.NumIn() {
		return false
	}
	for i, a := range args {
		declared := mt.In(i)
		if a == nil {
			continue
		}
		actual := reflect.TypeOf(a)
		if actual.AssignableTo(declared) {
			continue
		}
		if primitiveTypeName(actual) != declared.Name() {
			return false
		}
	}
	return true
}

func primitiveTypeName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.Kind().String()
}
