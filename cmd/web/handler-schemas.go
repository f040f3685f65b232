package main

import (
	"net/http"

	"github.com/invopop/jsonschema"
	"github.com/myrjola/fitplan/internal/plan"
)

// requestSchemas are the request bodies clients can validate against before submitting.
//
//nolint:gochecknoglobals // read-only lookup table.
var requestSchemas = map[string]func() *jsonschema.Schema{
	"credentials": generateSchema[credentialsRequest],
	"onboarding":  generateSchema[plan.OnboardingInput],
	"profile":     generateSchema[plan.OnboardingInput],
	"weight-log":  generateSchema[plan.WeightLogInput],
}

func generateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

func (app *application) schemaGET(w http.ResponseWriter, r *http.Request) {
	generate, ok := requestSchemas[r.PathValue("name")]
	if !ok {
		app.notFound(w, r)
		return
	}
	app.writeJSON(w, r, http.StatusOK, generate())
}
