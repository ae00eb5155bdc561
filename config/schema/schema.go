// Package schema validates a decoded AopConfig document against an
// embedded JSON schema before the config package binds it onto typed
// Go structs. This is the "schema validation" the core spec (§1) lists
// as an external collaborator kept out of the weaver itself.
package schema

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dlclark/regexp2"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema.json
var schemaBytes []byte

// Validator wraps a compiled jsonschema.Schema.
type Validator struct {
	schema *jsonschema.Schema
}

var (
	shared     *Validator
	sharedOnce sync.Once
	sharedErr  error
)

// Default returns the package-wide Validator compiled from the
// embedded schema, compiling it on first use.
func Default() (*Validator, error) {
	sharedOnce.Do(func() {
		shared, sharedErr = compile(schemaBytes)
	})
	return shared, sharedErr
}

// Compile builds a Validator from caller-supplied schema bytes, for
// callers that want to validate against a custom/extended schema
// rather than the embedded default.
func Compile(raw []byte) (*Validator, error) {
	return compile(raw)
}

func compile(raw []byte) (*Validator, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("schema: parse: %w", err)
	}

	id, _ := doc["$id"].(string)

	compiler := jsonschema.NewCompiler()
	compiler.UseRegexpEngine(regexpEngine)
	if err := compiler.AddResource(id, doc); err != nil {
		return nil, fmt.Errorf("schema: add resource: %w", err)
	}

	compiled, err := compiler.Compile(id)
	if err != nil {
		return nil, fmt.Errorf("schema: compile: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

// Validate checks doc (as produced by yaml.Unmarshal into a
// map[string]any) against the schema, returning a jsonschema
// *ValidationError (wrapped) naming every offending field on failure.
func (v *Validator) Validate(doc map[string]any) error {
	if err := v.schema.Validate(doc); err != nil {
		return fmt.Errorf("config: schema validation failed: %w", err)
	}
	return nil
}

// re2 adapts github.com/dlclark/regexp2 to jsonschema.Regexp so the
// "pattern" keyword uses the same regexp2 engine the rest of this
// module uses for pointcut and selector matching (§4.3, §4.4), rather
// than RE2. Here patterns compile with regexp2's ECMAScript option;
// the pointcut, selector and regexpmatcher packages use its default
// syntax.
type re2 regexp2.Regexp

func (re *re2) MatchString(s string) bool {
	matched, err := (*regexp2.Regexp)(re).MatchString(s)
	return err == nil && matched
}

func (re *re2) String() string {
	return (*regexp2.Regexp)(re).String()
}

func regexpEngine(pattern string) (jsonschema.Regexp, error) {
	re, err := regexp2.Compile(pattern, regexp2.ECMAScript)
	if err != nil {
		return nil, err
	}
	return (*re2)(re), nil
}
