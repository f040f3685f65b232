package main

import (
	"net/http"
	"slices"
	"testing"

	"github.com/myrjola/fitplan/internal/e2etest"
)

func Test_application_schemaGET(t *testing.T) {
	t.Parallel()
	server := startTestServer(t)
	client := server.Client()

	type schema struct {
		Type                 string         `json:"type"`
		Properties           map[string]any `json:"properties"`
		Required             []string       `json:"required"`
		AdditionalProperties *bool          `json:"additionalProperties"`
	}
	tests := []struct {
		name         string
		wantRequired []string
		wantOptional []string
	}{
		{"credentials", []string{"email", "password"}, nil},
		{"onboarding", []string{"age", "height", "goals", "medical_conditions", "exercise_locations"}, nil},
		{"profile", []string{"current_weight", "target_weight", "gender"}, nil},
		{"weight-log", []string{"weight"}, []string{"notes", "date"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got schema
			if err := client.Do(t.Context(), http.MethodGet, "/api/schemas/"+tt.name, nil, &got); err != nil {
				t.Fatalf("get schema: %v", err)
			}
			if got.Type != "object" {
				t.Errorf("type = %q, want object", got.Type)
			}
			if got.AdditionalProperties == nil || *got.AdditionalProperties {
				t.Error("schema allows additional properties")
			}
			for _, field := range tt.wantRequired {
				if _, ok := got.Properties[field]; !ok {
					t.Errorf("missing property %q", field)
				}
				if !slices.Contains(got.Required, field) {
					t.Errorf("%q is not required", field)
				}
			}
			for _, field := range tt.wantOptional {
				if _, ok := got.Properties[field]; !ok {
					t.Errorf("missing property %q", field)
				}
				if slices.Contains(got.Required, field) {
					t.Errorf("%q should be optional", field)
				}
			}
		})
	}

	if err := client.Do(t.Context(), http.MethodGet, "/api/schemas/unknown", nil, nil); e2etest.StatusCode(err) != http.StatusNotFound {
		t.Errorf("unknown schema: got %v, want 404", err)
	}
}

func Test_application_healthy(t *testing.T) {
	t.Parallel()
	server := startTestServer(t)
	var got struct {
		Status string `json:"status"`
	}
	if err := server.Client().Do(t.Context(), http.MethodGet, "/api/healthy", nil, &got); err != nil {
		t.Fatalf("healthy: %v", err)
	}
	if got.Status != "ok" {
		t.Errorf("status = %q, want ok", got.Status)
	}
}
