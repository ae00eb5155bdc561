package weaver

import "fmt"

// ReferenceError is §7's "Reference error": an unknown pointcut ref, a
// missing target method, or a missing target/module, discovered while
// weaving.
type ReferenceError struct {
	Kind string // "pointcut", "method", "target", or "advice"
	Name string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("weaver: unknown %s %q", e.Kind, e.Name)
}
