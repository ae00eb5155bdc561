package schema_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aspectrt/aspectrt/config/schema"
)

func validDoc() map[string]any {
	return map[string]any{
		"aspects": []any{
			map[string]any{
				"id":  "log-greet",
				"ref": "greeter",
				"advices": []any{
					map[string]any{
						"type":     "before",
						"method":   "Greet",
						"pointcut": "execution(* greeter.greet(..))",
					},
				},
			},
		},
	}
}

func TestDefaultValidatorAcceptsWellFormedConfig(t *testing.T) {
	v, err := schema.Default()
	require.NoError(t, err)
	require.NoError(t, v.Validate(validDoc()))
}

func TestDefaultValidatorRejectsUnknownAdviceType(t *testing.T) {
	v, err := schema.Default()
	require.NoError(t, err)

	doc := validDoc()
	aspects := doc["aspects"].([]any)
	advices := aspects[0].(map[string]any)["advices"].([]any)
	advices[0].(map[string]any)["type"] = "whenever"

	require.Error(t, v.Validate(doc))
}

func TestDefaultValidatorRejectsMissingRequiredField(t *testing.T) {
	v, err := schema.Default()
	require.NoError(t, err)

	doc := validDoc()
	aspects := doc["aspects"].([]any)
	delete(aspects[0].(map[string]any), "advices")

	require.Error(t, v.Validate(doc))
}

func TestDefaultValidatorRejectsAdviceWithNoPointcut(t *testing.T) {
	v, err := schema.Default()
	require.NoError(t, err)

	doc := validDoc()
	aspects := doc["aspects"].([]any)
	advices := aspects[0].(map[string]any)["advices"].([]any)
	delete(advices[0].(map[string]any), "pointcut")

	require.Error(t, v.Validate(doc))
}
