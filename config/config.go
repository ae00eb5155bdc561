// Package config is the external configuration loader (§1 non-goals:
// "the configuration file loader and schema validation" is explicitly
// kept out of the weaver's own core, which only ever consumes an
// already-built weaver.AopConfig). It decodes a YAML document into
// that shape.
//
// A YAML document cannot carry Go func values or live object
// references, so the fields of AopConfig that require them
// (AspectConfig/AdvisorConfig.Target, AdviceConfig.Func, and
// AdvisorConfig.Advice) are left unset by Load: aspects and advisors
// from a file always go through the Ref fallback (§9 design note 2), resolved against
// weaver.AopConfig.Targets at boot time, and advice without a Func
// installs as a no-op body — useful on its own for an advisor-driven
// aspect, or as a skeleton a caller fills in after Load returns.
package config

import (
	"fmt"
	"io"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aspectrt/aspectrt/advice"
	"github.com/aspectrt/aspectrt/config/schema"
	"github.com/aspectrt/aspectrt/weaver"
)

// File is the on-disk shape of an AopConfig (§6). Load first parses
// YAML into a generic map so an optional schema.Validator can check it
// while it is still plain JSON-shaped data, then uses mapstructure to
// bind that map onto File by its yaml tags.
type File struct {
	Pointcuts []PointcutFile `yaml:"pointcuts"`
	Aspects   []AspectFile   `yaml:"aspects"`
	Advisors  []AdvisorFile  `yaml:"advisors"`

	ProxyTargetClass bool `yaml:"proxyTargetClass"`
	UseAspectJ       bool `yaml:"useAspectJ"`
	Frozen           bool `yaml:"frozen"`
	ExposeProxy      bool `yaml:"exposeProxy"`
}

type PointcutFile struct {
	ID         string `yaml:"id"`
	Expression string `yaml:"expression"`
}

// AdviceFile has no fields for the "returning" and "throwing" keys the
// schema accepts on an advice, so Load drops them.
type AdviceFile struct {
	Kind        string `yaml:"type"`
	Method      string `yaml:"method"`
	Pointcut    string `yaml:"pointcut"`
	PointcutRef string `yaml:"pointcutRef"`
	ArgNames    string `yaml:"argNames"`
}

type AspectFile struct {
	ID        string         `yaml:"id"`
	Ref       string         `yaml:"ref"`
	Order     int            `yaml:"order"`
	Pointcuts []PointcutFile `yaml:"pointcuts"`
	Advices   []AdviceFile   `yaml:"advices"`
}

type ClassFilterFile struct {
	TypeName string `yaml:"typeName"`
}

type MethodMatcherFile struct {
	Pattern string `yaml:"pattern"`
}

type AdvisorFile struct {
	ID          string `yaml:"id"`
	Ref         string `yaml:"ref"`
	Method      string `yaml:"method"`
	Pointcut    string `yaml:"pointcut"`
	PointcutRef string `yaml:"pointcutRef"`

	ClassFilter   *ClassFilterFile   `yaml:"classFilter"`
	MethodMatcher *MethodMatcherFile `yaml:"methodMatcher"`
}

// Load reads a YAML AopConfig document from r. If validator is
// non-nil, the decoded generic document is checked against it before
// being bound onto File.
func Load(r io.Reader, validator *schema.Validator) (weaver.AopConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return weaver.AopConfig{}, fmt.Errorf("config: read: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return weaver.AopConfig{}, fmt.Errorf("config: parse yaml: %w", err)
	}

	if validator != nil {
		if err := validator.Validate(raw); err != nil {
			return weaver.AopConfig{}, err
		}
	}

	var file File
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &file,
		TagName:          "yaml",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return weaver.AopConfig{}, fmt.Errorf("config: build decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return weaver.AopConfig{}, fmt.Errorf("config: decode: %w", err)
	}

	return file.Build()
}

// Build translates the on-disk shape into weaver.AopConfig.
func (f File) Build() (weaver.AopConfig, error) {
	cfg := weaver.AopConfig{
		ProxyTargetClass: f.ProxyTargetClass,
		UseAspectJ:       f.UseAspectJ,
		Frozen:           f.Frozen,
		ExposeProxy:      f.ExposeProxy,
	}

	for _, pc := range f.Pointcuts {
		cfg.Pointcuts = append(cfg.Pointcuts, pc.build())
	}

	for _, a := range f.Aspects {
		aspect := weaver.AspectConfig{ID: a.ID, Ref: a.Ref, Order: a.Order}
		for _, pc := range a.Pointcuts {
			aspect.Pointcuts = append(aspect.Pointcuts, pc.build())
		}
		for _, adv := range a.Advices {
			kind, err := parseKind(adv.Kind)
			if err != nil {
				return weaver.AopConfig{}, fmt.Errorf("config: aspect %q: %w", a.ID, err)
			}
			aspect.Advices = append(aspect.Advices, weaver.AdviceConfig{
				Kind:        kind,
				Method:      adv.Method,
				Pointcut:    adv.Pointcut,
				PointcutRef: adv.PointcutRef,
				ArgNames:    adv.ArgNames,
			})
		}
		cfg.Aspects = append(cfg.Aspects, aspect)
	}

	for _, ad := range f.Advisors {
		advisor := weaver.AdvisorConfig{
			ID:          ad.ID,
			Ref:         ad.Ref,
			Method:      ad.Method,
			Pointcut:    ad.Pointcut,
			PointcutRef: ad.PointcutRef,
		}
		if ad.ClassFilter != nil {
			advisor.ClassFilter = &weaver.ClassFilterConfig{TypeName: ad.ClassFilter.TypeName}
		}
		if ad.MethodMatcher != nil {
			advisor.MethodMatcher = &weaver.MethodMatcherConfig{Pattern: ad.MethodMatcher.Pattern}
		}
		cfg.Advisors = append(cfg.Advisors, advisor)
	}

	return cfg, nil
}

// LoadValidated reads and decodes r the same way Load does, but always
// validates against the package's embedded default schema first — the
// convenience entry point weaverctl and other callers reach for when
// they have no custom schema of their own.
func LoadValidated(r io.Reader) (weaver.AopConfig, error) {
	validator, err := schema.Default()
	if err != nil {
		return weaver.AopConfig{}, fmt.Errorf("config: load default schema: %w", err)
	}
	return Load(r, validator)
}

func (pc PointcutFile) build() weaver.PointcutConfig {
	return weaver.PointcutConfig{ID: pc.ID, Expression: pc.Expression}
}

func parseKind(s string) (advice.Kind, error) {
	switch s {
	case "before":
		return advice.Before, nil
	case "after":
		return advice.After, nil
	case "afterReturning":
		return advice.AfterReturning, nil
	case "afterThrowing":
		return advice.AfterThrowing, nil
	case "around":
		return advice.Around, nil
	default:
		return "", fmt.Errorf("unknown advice type %q", s)
	}
}
