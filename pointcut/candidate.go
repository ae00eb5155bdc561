package pointcut

import (
	"fmt"
	"reflect"

	"github.com/aspectrt/aspectrt/metadata"
)

// Candidate is whatever a Predicate is asked to evaluate: depending on
// which primitives compose the expression, only a subset of its fields
// is actually read. Building one Candidate per call site and handing it
// to every primitive keeps PointcutExpression.Evaluate a single,
// allocation-light call regardless of how many primitives an expression
// mixes together.
type Candidate struct {
	// ProxyType is the type name this() compares against: normally the
	// same as TargetType, but distinct once a proxy wraps the target in
	// another type.
	ProxyType reflect.Type
	// TargetType is the type target()/within()/@target()/@within() match
	// against.
	TargetType reflect.Type
	// Target is the receiving object, needed to look up its metadata.
	Target any
	// FuncName/FuncOwner/Func describe the method being considered for
	// execution()/@annotation().
	FuncName  string
	FuncOwner reflect.Type
	Func      reflect.Value
	// Args are the actual call arguments, for args()/@args().
	Args []any
	// BeanName is the logical name a bean(name) pointcut compares.
	BeanName string
	// Store is the metadata side channel consulted by every @-prefixed
	// primitive.
	Store *metadata.Store
}

// FuncString is the textual form execution() patterns match against:
// "<ownerType>.<methodName>(<args>)" when the owner type is known
// (falling back to "<methodName>.<methodName>(<args>)", the bare
// JoinPoint.String convention of §4.1, when it is not).
func (c Candidate) FuncString() string {
	owner := c.FuncName
	if name := typeName(c.FuncOwner); name != "" {
		owner = name
	}

	parts := make([]string, len(c.Args))
	for i, a := range c.Args {
		parts[i] = fmt.Sprintf("%v", a)
	}
	joined := ""
	for i, p := range parts {
		if i > 0 {
			joined += ","
		}
		joined += p
	}
	return fmt.Sprintf("%s.%s(%s)", owner, c.FuncName, joined)
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

// TargetTypeName is the unqualified type name within() and target()
// compare against.
func (c Candidate) TargetTypeName() string {
	return typeName(c.TargetType)
}

// ProxyTypeName is the unqualified type name this() compares against.
func (c Candidate) ProxyTypeName() string {
	return typeName(c.ProxyType)
}
