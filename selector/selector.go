// Package selector implements SelectorMatcher (§4.4): an attribute/id/
// type/instance selector engine, parsed once from a single expression
// string and then evaluated either statically (against a method alone)
// or dynamically (against a method, its owner type, and call
// arguments).
package selector

import (
	"reflect"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/aspectrt/aspectrt/metadata"
)

type formKind int

const (
	formAttribute formKind = iota
	formID
	formInstance
	formType
	formWildcard
)

// Matcher is a parsed selector expression.
type Matcher struct {
	runtime bool
	raw     string
	kind    formKind

	// id/instance/type forms
	name      string
	namespace string // for namespaced type selectors (ns|Name)
	hasNS     bool

	// attribute form
	attr  string
	op    string
	value string
	flag  byte // 'i', 's', or 0

	store *metadata.Store
}

var attrRE = regexp2.MustCompile(`^\[\s*([\w-]+)\s*(?:(=|~=|\|=|\^=|\$=|\*=)\s*"?([^"\]]*)"?)?\s*(?:\s(i|s))?\s*\]$`, regexp2.None)

// New parses expression against store, which resolves @-style
// metadata lookups used by the attribute form. runtime selects whether
// Matches consults owner-type/argument context (true) or only the
// method-side attribute test (false).
func New(expression string, runtime bool, store *metadata.Store) *Matcher {
	m := &Matcher{runtime: runtime, raw: expression, store: store}

	switch {
	case expression == "*":
		m.kind = formWildcard
	case strings.HasPrefix(expression, "#"):
		m.kind = formID
		m.name = expression[1:]
	case strings.HasPrefix(expression, "&"):
		m.kind = formInstance
		m.name = expression[1:]
	case strings.HasPrefix(expression, ":"):
		m.kind = formType
		m.parseTypeName(expression[1:])
	case strings.HasPrefix(expression, "|"):
		m.kind = formType
		m.name = expression[1:]
	case strings.Contains(expression, "|") && !strings.HasPrefix(expression, "["):
		m.kind = formType
		m.parseTypeName(expression)
	case strings.HasPrefix(expression, "["):
		m.kind = formAttribute
		m.parseAttribute(expression)
	default:
		m.kind = formAttribute
		m.attr = "name"
		m.op = "="
		m.value = expression
	}

	return m
}

func (m *Matcher) parseTypeName(s string) {
	if idx := strings.Index(s, "|"); idx >= 0 {
		m.hasNS = true
		m.namespace = s[:idx]
		m.name = s[idx+1:]
		return
	}
	m.name = s
}

func (m *Matcher) parseAttribute(expr string) {
	match, err := attrRE.FindStringMatch(expr)
	if err != nil || match == nil {
		// Malformed attribute selectors degrade to "never matches"
		// rather than panicking; callers parse ahead of time in
		// practice so this only affects hand-built expressions.
		m.attr = ""
		return
	}
	groups := match.Groups()
	m.attr = groups[1].String()
	m.op = groups[2].String()
	m.value = groups[3].String()
	if f := groups[4].String(); f != "" {
		m.flag = f[0]
	}
}

// hasStructuralPrefix reports whether expr is one of the id/instance/
// type/wildcard sub-forms (§3) rather than a bare attribute selector.
// §4.4 names "#, &, :, *" as the structural prefixes, but §3 also
// classifies the unprefixed namespaced-type forms ("ns|Name", "|Name")
// as "type" sub-forms; a selector that parsed as formType/formID/
// formInstance/formWildcard is treated as structural regardless of
// which literal character it started with, so namespaced type
// selectors actually dispatch to type matching instead of silently
// falling through to an always-false attribute test.
func hasStructuralPrefix(expr string) bool {
	if expr == "*" {
		return true
	}
	if len(expr) == 0 {
		return false
	}
	switch expr[0] {
	case '#', '&', ':':
		return true
	}
	return strings.Contains(expr, "|") && !strings.HasPrefix(expr, "[")
}

// Filter is used when the selector targets a class (§4.4).
func (m *Matcher) Filter(t reflect.Type) bool {
	if m.kind == formWildcard {
		return true
	}
	if m.runtime && hasStructuralPrefix(m.raw) {
		return m.classSideMatch(t)
	}
	return m.attributeMatch(typeName(t), t, "")
}

// Matches is used when the selector targets a method invocation (§4.4).
// method may be the zero Value if no reflect.Value is available (the
// arguments are still checked against the method's declared parameter
// types when method is valid).
func (m *Matcher) Matches(method reflect.Value, methodName string, ownerType reflect.Type, args []any) bool {
	if m.kind == formWildcard {
		return true
	}

	if m.runtime && len(args) >= 2 && hasStructuralPrefix(m.raw) {
		if !m.classSideMatch(ownerType) {
			return false
		}
	} else if !m.attributeMatch(methodName, ownerType, methodName) {
		return false
	}

	if args != nil && method.IsValid() {
		if !matchArguments(method, args) {
			return false
		}
	}

	return true
}

func (m *Matcher) classSideMatch(t reflect.Type) bool {
	switch m.kind {
	case formID:
		if m.store == nil || t == nil {
			return false
		}
		id, _ := m.store.Get(t, "id")
		return id == m.name
	case formType:
		name := typeName(t)
		if m.hasNS {
			ns, _ := m.store.Get(t, "namespace")
			nsStr, _ := ns.(string)
			if m.namespace != "*" && nsStr != m.namespace {
				return false
			}
		}
		return name == m.name
	case formInstance:
		return isAssignableByName(t, m.name)
	default:
		return true
	}
}

func (m *Matcher) attributeMatch(candidateName string, t reflect.Type, methodName string) bool {
	if m.attr == "" {
		return false
	}

	attrValue := m.resolveAttrValue(candidateName, t, methodName)

	if m.op == "" {
		return truthy(attrValue)
	}

	caseInsensitive := m.flag != 's' && !isReservedAttr(m.attr)
	cmp := candidateName
	val := m.value
	if caseInsensitive {
		cmp = strings.ToLower(cmp)
		val = strings.ToLower(val)
	}

	switch m.op {
	case "=":
		return cmp == val
	case "~=":
		for _, tok := range strings.Fields(cmp) {
			if tok == val {
				return true
			}
		}
		return false
	case "|=":
		return cmp == val || strings.HasPrefix(cmp, val+"-")
	case "^=":
		return strings.HasPrefix(cmp, val)
	case "$=":
		return strings.HasSuffix(cmp, val)
	case "*=":
		return strings.Contains(cmp, val)
	default:
		return false
	}
}

// resolveAttrValue binds the attribute name in the selector to the
// candidate's own name unless the attribute refers to stored metadata.
func (m *Matcher) resolveAttrValue(candidateName string, t reflect.Type, methodName string) string {
	if m.attr == "name" || m.attr == "" {
		return candidateName
	}
	if m.store == nil || t == nil {
		return ""
	}
	var v any
	var ok bool
	if methodName != "" {
		v, ok = m.store.GetMethod(t, methodName, m.attr)
	} else {
		v, ok = m.store.Get(t, m.attr)
	}
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func isReservedAttr(attr string) bool {
	switch attr {
	case "id", "class", "role":
		return true
	}
	return strings.HasPrefix(attr, "data-") || strings.HasPrefix(attr, "aria-")
}

func truthy(s string) bool {
	return s != ""
}

func typeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

func isAssignableByName(t reflect.Type, name string) bool {
	return typeName(t) == name
}

// matchArguments requires each actual to be an instance of the
// corresponding declared parameter type, or to have a primitive type
// name equal to that declared type (§4.4).
func matchArguments(method reflect.Value, args []any) bool {
	mt := method.Type()
	numIn := mt.NumIn()
	offset := 0
	if method.Kind() == reflect.Func && mt.NumIn() > 0 {
		// Bound methods obtained via reflect.Value.MethodByName already
		// drop the receiver, so no offset is applied; a raw
		// reflect.Type-derived func counts its receiver as a parameter.
		offset = 0
	}

	if len(args) != numIn-offset {
		return false
	}

	for i, a := range args {
		declared := mt.In(i + offset)
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
