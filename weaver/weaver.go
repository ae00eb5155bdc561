// Package weaver implements the Weaver top-level coordinator (§4.10):
// it ingests an AopConfig, resolves pointcut and target references,
// orders aspects, installs proxies, and tears everything down again.
package weaver

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/aspectrt/aspectrt/advice"
	"github.com/aspectrt/aspectrt/eventbus"
	"github.com/aspectrt/aspectrt/internal/log"
	"github.com/aspectrt/aspectrt/metadata"
	"github.com/aspectrt/aspectrt/paramnames"
	"github.com/aspectrt/aspectrt/pointcut"
	"github.com/aspectrt/aspectrt/proxy"
	"github.com/aspectrt/aspectrt/regexpmatcher"
)

// WeaveRecord is a supplemented diagnostic (beyond §3/§4.10's literal
// text): one entry per woven aspect or advisor, recording which
// advices ended up installed on which target in which order, so a
// caller (or the weaverctl "graph" subcommand) can explain a boot
// without re-deriving it from the config.
type WeaveRecord struct {
	AspectID   string
	TargetType reflect.Type
	Order      int
	Advices    []string // "<kind>:<method>", in installation order
}

// Weaver is the top-level coordinator (§4.10). Its pointcut registry,
// advice registry, and live proxy list are process-wide only in the
// sense that a single Weaver value owns them; independent Weaver
// instances (e.g. one per test) never interfere (§9 "Global
// singletons").
type Weaver struct {
	mu sync.Mutex

	store          *metadata.Store
	registry       *pointcut.Registry
	adviceRegistry *advice.Registry
	discoverers    []paramnames.Discoverer

	proxyTargetClass bool
	useAspectJ       bool
	frozen           bool
	exposeProxy      bool

	factories []*proxy.ProxyFactory
	records   []WeaveRecord

	sink eventbus.Sink

	bootGroup singleflight.Group
}

// New constructs a Weaver with its own metadata store, pointcut
// registry, and advice registry.
func New() *Weaver {
	store := metadata.New()
	return &Weaver{
		store:          store,
		registry:       pointcut.NewRegistry(),
		adviceRegistry: advice.NewRegistry(),
		discoverers:    paramnames.Default(store),
	}
}

// SetSink injects the eventbus.Sink boot/weave/fire/dispose lifecycle
// events are published through. Left unset, no events are published
// (equivalent to eventbus.NopSink) at zero cost.
func (w *Weaver) SetSink(sink eventbus.Sink) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.sink = sink
}

// Store exposes the metadata side channel (§9) so callers can populate
// @target/@within/@annotation/@args keys before booting.
func (w *Weaver) Store() *metadata.Store {
	return w.store
}

// Registry exposes the named-pointcut registry (§4.3 "Registry").
func (w *Weaver) Registry() *pointcut.Registry {
	return w.registry
}

// Records returns a snapshot of every weave recorded since the Weaver
// was created or last disposed, in weave order. A Boot that fails part
// way keeps the records of the weaves it completed.
func (w *Weaver) Records() []WeaveRecord {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]WeaveRecord(nil), w.records...)
}

// LiveProxies returns a fresh Proxy handle for each live aspect or
// advisor target, in weave order.
func (w *Weaver) LiveProxies() []*proxy.Proxy {
	w.mu.Lock()
	defer w.mu.Unlock()
	proxies := make([]*proxy.Proxy, len(w.factories))
	for i, f := range w.factories {
		proxies[i] = f.Proxy()
	}
	return proxies
}

// Boot ingests cfg (§4.10). Concurrent Boot calls on the same Weaver
// collapse via singleflight into a single actual boot; every caller
// observes the same result, consistent with §5's "boot... must be
// called from a single caller" — this makes accidental concurrent
// double-boot safe rather than racing on the shared registries.
func (w *Weaver) Boot(cfg AopConfig) error {
	_, err, _ := w.bootGroup.Do("boot", func() (any, error) {
		return nil, w.boot(cfg)
	})
	return err
}

func (w *Weaver) boot(cfg AopConfig) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	log.Infof("weaver: booting %d aspect(s), %d advisor(s), %d named pointcut(s)",
		len(cfg.Aspects), len(cfg.Advisors), len(cfg.Pointcuts))

	w.proxyTargetClass = cfg.ProxyTargetClass
	w.useAspectJ = cfg.UseAspectJ
	w.frozen = cfg.Frozen
	w.exposeProxy = cfg.ExposeProxy

	if err := w.registerPointcuts(cfg.Pointcuts); err != nil {
		return err
	}

	for _, ac := range cfg.Advisors {
		if err := w.weaveAdvisor(cfg, ac); err != nil {
			log.Errorf("weaver: weaving advisor %q failed: %v", ac.ID, err)
			return fmt.Errorf("weaver: advisor %q: %w", ac.ID, err)
		}
	}

	aspects := append([]AspectConfig(nil), cfg.Aspects...)
	sort.SliceStable(aspects, func(i, j int) bool { return aspects[i].Order < aspects[j].Order })

	for _, ac := range aspects {
		if err := w.weaveAspect(cfg, ac); err != nil {
			log.Errorf("weaver: weaving aspect %q failed: %v", ac.ID, err)
			return fmt.Errorf("weaver: aspect %q: %w", ac.ID, err)
		}
	}

	log.Infof("weaver: boot complete, %d proxy(ies) live", len(w.factories))
	if w.sink != nil {
		_ = w.sink.Publish(eventbus.Event{
			Kind:      eventbus.KindBoot,
			Detail:    "boot complete",
			Timestamp: time.Now(),
			Extra:     map[string]any{"proxies": len(w.factories)},
		})
	}
	return nil
}

// registerPointcuts parses and registers every pointcut in pcs,
// aggregating every parse failure (via go-multierror) rather than
// stopping at the first: each named pointcut is independent, so a
// config author fixing a batch of typos benefits from seeing all of
// them at once. Aspect/advisor weaving (§4.10 step 6) is fail-fast by
// contrast, since later aspects may depend on earlier ones having woven.
func (w *Weaver) registerPointcuts(pcs []PointcutConfig) error {
	var result *multierror.Error
	for _, pc := range pcs {
		expr, err := pointcut.Parse(pc.Expression, w.registry)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		w.registry.Set(pc.ID, expr)
	}
	return result.ErrorOrNil()
}

func (w *Weaver) resolveTarget(cfg AopConfig, target any, ref string) (any, error) {
	if target != nil {
		return target, nil
	}
	if ref != "" {
		if t, ok := cfg.Targets[ref]; ok {
			return t, nil
		}
	}
	return nil, &ReferenceError{Kind: "target", Name: ref}
}

func (w *Weaver) resolvePointcutText(inline, ref string) (string, error) {
	if inline != "" {
		return inline, nil
	}
	if ref != "" {
		expr, ok := w.registry.Get(ref)
		if !ok {
			return "", &ReferenceError{Kind: "pointcut", Name: ref}
		}
		return expr.Text(), nil
	}
	return "", &ReferenceError{Kind: "pointcut", Name: ""}
}

// weaveAspect implements the §4.10 "Weave step" for one aspect: tag
// the target, register its local pointcuts, build a ProxyFactory with
// the weaver's policy flags copied in, and install every advice.
func (w *Weaver) weaveAspect(cfg AopConfig, ac AspectConfig) error {
	target, err := w.resolveTarget(cfg, ac.Target, ac.Ref)
	if err != nil {
		return err
	}
	targetType := reflect.TypeOf(target)

	aspectID := ac.ID
	if aspectID == "" {
		id, err := fingerprintID(aspectHashable{ac})
		if err != nil {
			return err
		}
		aspectID = id
	}

	w.store.Set(targetType, "aspect", true)
	w.store.Set(targetType, "order", ac.Order)
	defer log.PushScope("aspect", aspectID)()
	log.Debugf("weaver: weaving aspect %q onto %s (order=%d)", aspectID, targetType, ac.Order)

	if err := w.registerPointcuts(ac.Pointcuts); err != nil {
		return err
	}

	factory := proxy.NewFactory(target)
	_ = factory.SetUseClassProxy(w.proxyTargetClass)
	_ = factory.SetUseAspectJStyle(w.useAspectJ)
	_ = factory.SetExposed(w.exposeProxy)

	record := WeaveRecord{AspectID: aspectID, TargetType: targetType, Order: ac.Order}

	for _, adv := range ac.Advices {
		if err := w.installAdvice(factory, targetType, adv, nil, aspectID); err != nil {
			return err
		}
		record.Advices = append(record.Advices, string(adv.Kind)+":"+adv.Method)
	}

	if w.frozen {
		factory.Freeze()
	}

	w.factories = append(w.factories, factory)
	w.records = append(w.records, record)
	w.publishWeave(aspectID, targetType, "aspect")
	return nil
}

// weaveAdvisor implements §4.10 step 3: an advisor weaves as a
// synthetic before-advice aspect (only `before` consults an Advisor's
// fire/replace result, §9 open question 4), with its matcher built
// from either a ClassFilterConfig or a MethodMatcherConfig (§4.7).
func (w *Weaver) weaveAdvisor(cfg AopConfig, ac AdvisorConfig) error {
	target, err := w.resolveTarget(cfg, ac.Target, ac.Ref)
	if err != nil {
		return err
	}
	targetType := reflect.TypeOf(target)

	advisorID := ac.ID
	if advisorID == "" {
		id, err := fingerprintID(advisorHashable{ac})
		if err != nil {
			return err
		}
		advisorID = id
	}
	defer log.PushScope("advisor", advisorID)()
	log.Debugf("weaver: weaving advisor %q onto %s", advisorID, targetType)

	pointcutText, err := w.resolvePointcutText(ac.Pointcut, ac.PointcutRef)
	if err != nil {
		return err
	}

	advisor := &advice.Advisor{Advice: ac.Advice}
	switch {
	case ac.ClassFilter != nil && ac.MethodMatcher != nil:
		want := ac.ClassFilter.TypeName
		rm := regexpmatcher.New(ac.MethodMatcher.Pattern)
		advisor.Composite = &advice.CompositeMatcher{
			ClassFilter: func(t reflect.Type) bool { return typeName(t) == want },
			MethodMatcher: func(method reflect.Value, methodName string, ownerType reflect.Type, args []any) bool {
				return rm.Matches(method, methodName, args)
			},
		}
	case ac.ClassFilter != nil:
		want := ac.ClassFilter.TypeName
		advisor.ClassFilter = func(t reflect.Type) bool { return typeName(t) == want }
	case ac.MethodMatcher != nil:
		rm := regexpmatcher.New(ac.MethodMatcher.Pattern)
		advisor.MethodMatcher = func(method reflect.Value, methodName string, ownerType reflect.Type, args []any) bool {
			return rm.Matches(method, methodName, args)
		}
	}

	factory := proxy.NewFactory(target)
	_ = factory.SetUseClassProxy(w.proxyTargetClass)
	_ = factory.SetUseAspectJStyle(w.useAspectJ)
	_ = factory.SetExposed(w.exposeProxy)

	adv := AdviceConfig{Kind: advice.Before, Method: ac.Method, Pointcut: pointcutText}
	if err := w.installAdvice(factory, targetType, adv, advisor, "advisor:"+advisorID); err != nil {
		return err
	}

	if w.frozen {
		factory.Freeze()
	}

	w.factories = append(w.factories, factory)
	w.records = append(w.records, WeaveRecord{
		AspectID:   "advisor:" + advisorID,
		TargetType: targetType,
		Advices:    []string{"before:" + ac.Method},
	})
	w.publishWeave("advisor:"+advisorID, targetType, "advisor")
	return nil
}

func (w *Weaver) publishWeave(aspectID string, targetType reflect.Type, detail string) {
	if w.sink == nil {
		return
	}
	_ = w.sink.Publish(eventbus.Event{
		Kind:      eventbus.KindWeave,
		AspectID:  aspectID,
		Target:    targetType.String(),
		Detail:    detail,
		Timestamp: time.Now(),
	})
}

// installAdvice resolves adv's pointcut text, confirms Method exists
// on targetType, and applies the matching C8 decorator to factory.
// advisor is non-nil only for the synthetic before-advice advisors
// weaveAdvisor builds.
func (w *Weaver) installAdvice(factory *proxy.ProxyFactory, targetType reflect.Type, adv AdviceConfig, advisor *advice.Advisor, aspectID string) error {
	if _, ok := targetType.MethodByName(adv.Method); !ok {
		return &ReferenceError{Kind: "method", Name: adv.Method}
	}

	pointcutText, err := w.resolvePointcutText(adv.Pointcut, adv.PointcutRef)
	if err != nil {
		return err
	}

	adviceFn := adv.Func
	if adviceFn == nil {
		adviceFn = func(map[string]any) (any, error) { return nil, nil }
	}

	decCfg := advice.DecoratorConfig{
		Registry:     w.adviceRegistry,
		Store:        w.store,
		Discoverers:  w.discoverers,
		TargetType:   targetType,
		MethodName:   adv.Method,
		PointcutText: pointcutText,
		ArgNames:     adv.ArgNames,
		Advice:       adviceFn,
		AspectID:     aspectID,
		Sink:         w.sink,
	}

	var interceptor advice.Interceptor
	switch adv.Kind {
	case advice.Before:
		interceptor = advice.DecorateBefore(decCfg, advisor)
	case advice.After:
		interceptor = advice.DecorateAfter(decCfg)
	case advice.AfterReturning:
		interceptor = advice.DecorateAfterReturning(decCfg)
	case advice.AfterThrowing:
		interceptor = advice.DecorateAfterThrowing(decCfg)
	case advice.Around:
		interceptor = advice.DecorateAround(decCfg)
	default:
		return &ReferenceError{Kind: "advice", Name: string(adv.Kind)}
	}

	return factory.AddAdvice(adv.Method, interceptor)
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

// Dispose implements the §4.10 dispose contract: every live proxy is
// disposed, the live set and pointcut registry are cleared, and policy
// flags reset. Disposing each factory is independent, so it runs
// concurrently via errgroup — real deployments may back a factory's
// teardown with I/O (closing a connection an advice held open, for
// instance), and there is no reason one slow teardown should delay
// the rest.
func (w *Weaver) Dispose() error {
	w.mu.Lock()
	factories := w.factories
	w.factories = nil
	w.records = nil
	w.mu.Unlock()

	log.Infof("weaver: disposing %d live proxy(ies)", len(factories))

	var g errgroup.Group
	for _, f := range factories {
		f := f
		g.Go(func() error {
			f.Dispose()
			return nil
		})
	}
	err := g.Wait()

	w.mu.Lock()
	defer w.mu.Unlock()
	w.registry.Clear()
	w.proxyTargetClass = false
	w.useAspectJ = false
	w.frozen = false
	w.exposeProxy = false

	if w.sink != nil {
		_ = w.sink.Publish(eventbus.Event{
			Kind:      eventbus.KindDispose,
			Detail:    "dispose complete",
			Timestamp: time.Now(),
			Extra:     map[string]any{"proxies": len(factories)},
		})
	}
	return err
}
