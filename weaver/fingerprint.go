package weaver

import (
	"github.com/aspectrt/aspectrt/internal/fingerprint"
)

// hash feeds the config shapes that need a stable, content-derived
// identity into a fingerprint.Hasher (the wrapper types below adapt it
// to fingerprint.Hashable): a config author who leaves
// AspectConfig.ID/AdvisorConfig.ID blank still gets the same woven
// identity across repeated boots of an unchanged configuration,
// without the weaver needing a separate ID allocator or any persisted
// state (§1 non-goals: "persistence of aspect state" is explicitly
// out of scope, and a pure function of the config avoids needing any).
func (pc PointcutConfig) hash(h *fingerprint.Hasher) error {
	return h.Named("pointcut", fingerprint.String(pc.ID), fingerprint.String(pc.Expression))
}

func (ac AdviceConfig) hash(h *fingerprint.Hasher) error {
	return h.Named("advice",
		fingerprint.String(string(ac.Kind)),
		fingerprint.String(ac.Method),
		fingerprint.String(ac.Pointcut),
		fingerprint.String(ac.PointcutRef),
		fingerprint.String(ac.ArgNames),
	)
}

func (ac AspectConfig) hash(h *fingerprint.Hasher) error {
	return h.Named("aspect",
		fingerprint.String(ac.Ref),
		fingerprint.Int(ac.Order),
		fingerprint.Cast(ac.Pointcuts, func(pc PointcutConfig) pointcutHashable { return pointcutHashable{pc} }),
		fingerprint.Cast(ac.Advices, func(a AdviceConfig) adviceHashable { return adviceHashable{a} }),
	)
}

func (ac AdvisorConfig) hash(h *fingerprint.Hasher) error {
	var classFilter, pattern string
	if ac.ClassFilter != nil {
		classFilter = ac.ClassFilter.TypeName
	}
	if ac.MethodMatcher != nil {
		pattern = ac.MethodMatcher.Pattern
	}
	return h.Named("advisor",
		fingerprint.String(ac.Ref),
		fingerprint.String(ac.Method),
		fingerprint.String(ac.Pointcut),
		fingerprint.String(ac.PointcutRef),
		fingerprint.String(classFilter),
		fingerprint.String(pattern),
	)
}

// pointcutHashable and adviceHashable adapt the hash methods above
// (unexported, so they can't accidentally satisfy fingerprint.Hashable
// on the public config types and get hashed somewhere unintended) to
// fingerprint.Hashable for use inside fingerprint.Cast/List.
type (
	pointcutHashable struct{ v PointcutConfig }
	adviceHashable    struct{ v AdviceConfig }
)

func (p pointcutHashable) Hash(h *fingerprint.Hasher) error { return p.v.hash(h) }
func (a adviceHashable) Hash(h *fingerprint.Hasher) error   { return a.v.hash(h) }

type aspectHashable struct{ v AspectConfig }
type advisorHashable struct{ v AdvisorConfig }

func (a aspectHashable) Hash(h *fingerprint.Hasher) error  { return a.v.hash(h) }
func (a advisorHashable) Hash(h *fingerprint.Hasher) error { return a.v.hash(h) }

// fingerprintID returns a stable, content-derived identifier for cfg,
// used in place of a blank explicit ID.
func fingerprintID(hashable fingerprint.Hashable) (string, error) {
	return fingerprint.Fingerprint(hashable)
}
