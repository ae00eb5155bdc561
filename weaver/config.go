package weaver

import "github.com/aspectrt/aspectrt/advice"

// AopConfig is the declarative configuration Weaver.Boot consumes
// (§6). A reference implementation over a dynamic host resolves
// AspectConfig.Ref/AdvisorConfig.Ref by loading a module at that
// locator; this Go rendering prefers the typed Target field (§9
// design note 2: "prefer symbol or functor references passed directly
// in the configuration structure") and falls back to looking Ref up in
// Targets, a named registry supplied alongside the rest of the
// configuration for config loaded from external files.
type AopConfig struct {
	Pointcuts []PointcutConfig
	Aspects   []AspectConfig
	Advisors  []AdvisorConfig
	Targets   map[string]any

	ProxyTargetClass bool
	UseAspectJ       bool
	Frozen           bool
	ExposeProxy      bool
}

// PointcutConfig names one pointcut expression for global (or
// aspect-local) registration.
type PointcutConfig struct {
	ID         string
	Expression string
}

// AspectConfig describes one woven target (§6). The spec's "module"
// conflates the aspect and the business object it advises; here Target
// (or the Ref it's looked up by) is the concrete object whose methods
// get intercepted, and each AdviceConfig.Func is the advice body
// itself, resolving the ambiguity the source leaves underspecified.
type AspectConfig struct {
	ID        string
	Target    any
	Ref       string
	Order     int
	Pointcuts []PointcutConfig
	Advices   []AdviceConfig
}

// AdviceConfig is one advice binding within an aspect (§6). Method
// names the target method being advised; Func is the advice body,
// supplied directly rather than resolved by looking up a method name
// on an "aspect module" (§9 design note 2).
type AdviceConfig struct {
	Kind   advice.Kind
	Method string
	Func   advice.AdviceFunc

	Pointcut    string
	PointcutRef string
	ArgNames    string
}

// ClassFilterConfig builds an advice.ClassFilter that matches by exact
// unqualified type name.
type ClassFilterConfig struct {
	TypeName string
}

// MethodMatcherConfig builds an advice.MethodMatcher from a
// RegexpMatcher pattern (C5), giving AdvisorConfig a concrete way to
// express "expression: MethodMatcherConfig" (§6) without inventing a
// second pointcut grammar.
type MethodMatcherConfig struct {
	Pattern string
}

// AdvisorConfig describes one Advisor (§4.7) to weave via a synthetic
// before-advice aspect (§4.10 step 3). Exactly one of ClassFilter,
// MethodMatcher, or both ClassFilter+MethodMatcher together (which
// builds an advice.CompositeMatcher — SPEC_FULL's "bean(name) pointcuts
// that must additionally restrict by type") should be set; if none are
// set the advisor never fires.
type AdvisorConfig struct {
	ID     string
	Target any
	Ref    string
	Method string

	Pointcut    string
	PointcutRef string

	Advice advice.AdvisorFunc

	ClassFilter   *ClassFilterConfig
	MethodMatcher *MethodMatcherConfig
}
