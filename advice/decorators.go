package advice

import (
	"reflect"
	"strings"
	"time"

	"github.com/aspectrt/aspectrt/eventbus"
	"github.com/aspectrt/aspectrt/internal/log"
	"github.com/aspectrt/aspectrt/joinpoint"
	"github.com/aspectrt/aspectrt/metadata"
	"github.com/aspectrt/aspectrt/paramnames"
)

// Interceptor is the wrapper an advice decorator installs around a
// target method (§4.8): given the join point for one call and a
// proceed thunk that invokes the original method, it returns whatever
// the caller of the intercepted method should observe.
type Interceptor func(jp *joinpoint.JoinPoint, proceed func() (any, error)) (any, error)

// DecoratorConfig carries everything a decorator needs to install and
// later replay one advice binding: where to record it (Registry,
// TargetType), how to resolve parameter names (Store, Discoverers),
// which textual pointcut it was installed under, and the advice body
// itself.
type DecoratorConfig struct {
	Registry    *Registry
	Store       *metadata.Store
	Discoverers []paramnames.Discoverer
	TargetType  reflect.Type
	MethodName  string

	PointcutText string
	ArgNames     string
	Advice       AdviceFunc

	// AspectID and Sink are optional: when Sink is non-nil, each fired
	// advice publishes a "fire" lifecycle event tagged with AspectID
	// (§9 design note "weave lifecycle event bus"). Left nil, firing
	// has no event-bus cost at all.
	AspectID string
	Sink     eventbus.Sink
}

// scopeFire opens a log.PushScope tagged with jp's identity for the
// duration of one advice firing, so nested firings (an advice body
// calling back into another advised method, which §5 allows since
// advice bodies are arbitrary) are distinguishable in the log instead
// of all sharing one untagged "firing" line.
func scopeFire(jp *joinpoint.JoinPoint) func() {
	return log.PushScope("joinpoint", jp.ID().String())
}

func (cfg DecoratorConfig) publishFire(kind Kind, jp *joinpoint.JoinPoint) {
	if cfg.Sink == nil {
		return
	}
	_ = cfg.Sink.Publish(eventbus.Event{
		Kind:      eventbus.KindFire,
		AspectID:  cfg.AspectID,
		Target:    cfg.TargetType.String(),
		Detail:    string(kind) + ":" + jp.String(),
		Timestamp: time.Now(),
	})
}

// DecorateBefore installs a before-advice wrapper (§4.8, §4.7 step on advisor
// fire-then-replace). If advisor is non-nil, its fire/replace
// semantics are the only ones the spec assigns to `before`; the other
// four kinds ignore the advisor's return value per §9 open question 4.
func DecorateBefore(cfg DecoratorConfig, advisor *Advisor) Interceptor {
	cfg.Registry.Append(cfg.TargetType, Before, Record{PointcutText: cfg.PointcutText, ArgNames: cfg.ArgNames, Advice: cfg.Advice})
	log.Debugf("advice: installed before on %s.%s (pointcut=%q)", cfg.TargetType, cfg.MethodName, cfg.PointcutText)

	return func(jp *joinpoint.JoinPoint, proceed func() (any, error)) (any, error) {
		defer scopeFire(jp)()
		log.Tracef("advice: firing before for %s", jp)
		cfg.publishFire(Before, jp)
		if err := runAdviceRecords(cfg, jp, Before, nil); err != nil {
			log.Warnf("advice: before advice on %s failed: %v", jp, err)
			return nil, err
		}

		if advisor != nil {
			if result, fired, err := advisor.Execute(jp); err != nil {
				return nil, err
			} else if fired {
				return result, nil
			}
		}

		return proceed()
	}
}

// DecorateAfter installs an after-advice wrapper that runs regardless of
// whether the original call returned or errored (§4.8 "guaranteed-
// release phase").
func DecorateAfter(cfg DecoratorConfig) Interceptor {
	cfg.Registry.Append(cfg.TargetType, After, Record{PointcutText: cfg.PointcutText, ArgNames: cfg.ArgNames, Advice: cfg.Advice})
	log.Debugf("advice: installed after on %s.%s (pointcut=%q)", cfg.TargetType, cfg.MethodName, cfg.PointcutText)

	return func(jp *joinpoint.JoinPoint, proceed func() (any, error)) (any, error) {
		defer scopeFire(jp)()
		result, procErr := proceed()
		log.Tracef("advice: firing after for %s", jp)
		cfg.publishFire(After, jp)
		if afterErr := runAdviceRecords(cfg, jp, After, nil); afterErr != nil && procErr == nil {
			log.Warnf("advice: after advice on %s failed: %v", jp, afterErr)
			return result, afterErr
		}
		return result, procErr
	}
}

// DecorateAfterReturning installs an after-returning wrapper: the advice runs
// only when the original call returns normally, and receives `result`
// bound if its resolved parameter names include it.
func DecorateAfterReturning(cfg DecoratorConfig) Interceptor {
	cfg.Registry.Append(cfg.TargetType, AfterReturning, Record{PointcutText: cfg.PointcutText, ArgNames: cfg.ArgNames, Advice: cfg.Advice})
	log.Debugf("advice: installed afterReturning on %s.%s (pointcut=%q)", cfg.TargetType, cfg.MethodName, cfg.PointcutText)

	return func(jp *joinpoint.JoinPoint, proceed func() (any, error)) (any, error) {
		defer scopeFire(jp)()
		result, err := proceed()
		if err != nil {
			return result, err
		}
		log.Tracef("advice: firing afterReturning for %s (result=%v)", jp, result)
		cfg.publishFire(AfterReturning, jp)
		if runErr := runAdviceRecords(cfg, jp, AfterReturning, map[string]any{"result": result}); runErr != nil {
			log.Warnf("advice: afterReturning advice on %s failed: %v", jp, runErr)
			return result, runErr
		}
		return result, nil
	}
}

// DecorateAfterThrowing installs an after-throwing wrapper: the advice runs
// only when the original call terminates abruptly, receives `error`,
// and the error still propagates to the caller afterwards.
func DecorateAfterThrowing(cfg DecoratorConfig) Interceptor {
	cfg.Registry.Append(cfg.TargetType, AfterThrowing, Record{PointcutText: cfg.PointcutText, ArgNames: cfg.ArgNames, Advice: cfg.Advice})
	log.Debugf("advice: installed afterThrowing on %s.%s (pointcut=%q)", cfg.TargetType, cfg.MethodName, cfg.PointcutText)

	return func(jp *joinpoint.JoinPoint, proceed func() (any, error)) (any, error) {
		defer scopeFire(jp)()
		result, err := proceed()
		if err == nil {
			return result, nil
		}
		log.Tracef("advice: firing afterThrowing for %s (error=%v)", jp, err)
		cfg.publishFire(AfterThrowing, jp)
		if runErr := runAdviceRecords(cfg, jp, AfterThrowing, map[string]any{"error": err}); runErr != nil {
			log.Warnf("advice: afterThrowing advice on %s failed: %v", jp, runErr)
		}
		return result, err
	}
}

// DecorateAround installs an around wrapper: installed advice runs in place
// of the original call, each receiving a `proceed` binding as the
// thunk that invokes whatever is next in the chain (the next
// installed around advice, or finally the original method).
// Installation order equals firing order (§8 property 4): the
// first-installed advice is the outermost wrapper.
func DecorateAround(cfg DecoratorConfig) Interceptor {
	cfg.Registry.Append(cfg.TargetType, Around, Record{PointcutText: cfg.PointcutText, ArgNames: cfg.ArgNames, Advice: cfg.Advice})
	log.Debugf("advice: installed around on %s.%s (pointcut=%q)", cfg.TargetType, cfg.MethodName, cfg.PointcutText)

	return func(jp *joinpoint.JoinPoint, proceed func() (any, error)) (any, error) {
		defer scopeFire(jp)()
		log.Tracef("advice: firing around for %s", jp)
		cfg.publishFire(Around, jp)
		records := cfg.Registry.Lookup(cfg.TargetType, Around, cfg.PointcutText)
		if len(records) == 0 {
			return proceed()
		}

		next := proceed
		for i := len(records) - 1; i >= 0; i-- {
			rec := records[i]
			inner := next
			next = func() (any, error) {
				return invokeAround(cfg, jp, rec, inner)
			}
		}
		return next()
	}
}

func invokeAround(cfg DecoratorConfig, jp *joinpoint.JoinPoint, rec Record, proceed func() (any, error)) (any, error) {
	names, err := resolveNames(rec, cfg, jp)
	if err != nil {
		return nil, err
	}
	bindings := buildBindings(jp, names, map[string]any{"proceed": proceed})
	return rec.Advice(bindings)
}

func runAdviceRecords(cfg DecoratorConfig, jp *joinpoint.JoinPoint, kind Kind, extra map[string]any) error {
	records := cfg.Registry.Lookup(cfg.TargetType, kind, cfg.PointcutText)
	for _, rec := range records {
		names, err := resolveNames(rec, cfg, jp)
		if err != nil {
			return err
		}
		bindings := buildBindings(jp, names, extra)
		if _, err := rec.Advice(bindings); err != nil {
			return err
		}
	}
	return nil
}

// resolveNames prefers the record's own argNames, then the decorator
// config's, then falls back to parameter-name discovery (§4.2).
func resolveNames(rec Record, cfg DecoratorConfig, jp *joinpoint.JoinPoint) ([]string, error) {
	argNames := rec.ArgNames
	if strings.TrimSpace(argNames) == "" {
		argNames = cfg.ArgNames
	}
	if strings.TrimSpace(argNames) != "" {
		parts := strings.Split(argNames, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts, nil
	}
	return paramnames.GetParameterNames(cfg.Discoverers, jp.Target(), jp.Signature())
}

// buildBindings threads the join point's actual arguments through the
// resolved names, binding the three reserved names (joinPoint, result,
// error) and proceed (around only) from extra, and everything else
// positionally from the call's actual arguments (§4.8 step 3).
func buildBindings(jp *joinpoint.JoinPoint, names []string, extra map[string]any) map[string]any {
	bindings := make(map[string]any, len(names)+1)
	args := jp.Args()
	pos := 0

	for _, name := range names {
		switch name {
		case "joinPoint":
			bindings[name] = jp
		case "result", "error", "proceed":
			if v, ok := extra[name]; ok {
				bindings[name] = v
			}
		default:
			if pos < len(args) {
				bindings[name] = args[pos]
				pos++
			}
		}
	}

	if v, ok := extra["proceed"]; ok {
		bindings["proceed"] = v
	}
	return bindings
}
