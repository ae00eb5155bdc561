// Package joinpoint defines the immutable value object describing a
// single interception event (§4.1 of the weaver design).
package joinpoint

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/google/uuid"
)

// JoinPoint is a snapshot of one method invocation: the receiving
// object, the name of the method being called (empty for class-only
// aspects), and the ordered actual arguments. It is created fresh for
// every call and never mutated afterwards.
type JoinPoint struct {
	id         uuid.UUID
	target     any
	methodName string
	args       []any
}

// New builds a JoinPoint for a call to methodName on target with args.
// methodName may be empty for aspects that only match on type.
func New(target any, methodName string, args []any) *JoinPoint {
	return &JoinPoint{
		id:         uuid.New(),
		target:     target,
		methodName: methodName,
		args:       args,
	}
}

// ID uniquely identifies this occurrence, so a log line or an event bus
// message can name one specific call without repeating its arguments.
func (jp *JoinPoint) ID() uuid.UUID {
	return jp.id
}

// Target returns the receiving object.
func (jp *JoinPoint) Target() any {
	return jp.target
}

// Args returns the ordered actual arguments. Callers must not mutate
// the returned slice.
func (jp *JoinPoint) Args() []any {
	return jp.args
}

// OwnerType returns the dynamic type of the target.
func (jp *JoinPoint) OwnerType() reflect.Type {
	if jp.target == nil {
		return nil
	}
	return reflect.TypeOf(jp.target)
}

// Signature returns the method name, or "" for a class-only join point.
func (jp *JoinPoint) Signature() string {
	return jp.methodName
}

// MethodValue resolves the method named by Signature on the target,
// returning the zero Value if there is no method by that name or no
// method name was recorded.
func (jp *JoinPoint) MethodValue() reflect.Value {
	if jp.methodName == "" || jp.target == nil {
		return reflect.Value{}
	}
	return reflect.ValueOf(jp.target).MethodByName(jp.methodName)
}

// String renders the join point as "<methodName>.<signature>(<args>)"
// when a method name is present, or "<owner-type name> class" for
// class-only join points. Pointcut primitives do not match against it:
// execution() uses pointcut.Candidate.FuncString and within() the
// target type name.
func (jp *JoinPoint) String() string {
	if jp.methodName == "" {
		return fmt.Sprintf("%s class", typeName(jp.OwnerType()))
	}

	parts := make([]string, len(jp.args))
	for i, a := range jp.args {
		parts[i] = fmt.Sprintf("%v", a)
	}
	return fmt.Sprintf("%s.%s(%s)", jp.methodName, jp.methodName, strings.Join(parts, ","))
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
