package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backendDoc mimics a small FastAPI document with a Result schema.
func backendDoc(post string) Document {
	return Document{
		"openapi": "3.1.0",
		"paths": map[string]any{
			"/" + post: map[string]any{
				"post": map[string]any{
					"requestBody": map[string]any{
						"content": map[string]any{
							"application/json": map[string]any{
								"schema": map[string]any{"$ref": "#/components/schemas/Input"},
							},
						},
					},
					"responses": map[string]any{
						"200": map[string]any{
							"content": map[string]any{
								"application/json": map[string]any{
									"schema": map[string]any{"$ref": "#/components/schemas/Result"},
								},
							},
						},
					},
				},
			},
			"/_ping": map[string]any{"get": map[string]any{}},
		},
		"components": map[string]any{
			"schemas": map[string]any{
				"Input": map[string]any{"type": "object"},
				"Result": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"items": map[string]any{
							"type":  "array",
							"items": map[string]any{"$ref": "#/components/schemas/Input"},
						},
					},
				},
			},
		},
	}
}

func TestMergeQualifiesCollidingSchemas(t *testing.T) {
	local := LocalDocument("test")
	merged, err := Merge(local, []Part{
		{Name: "svcA", PostSubdomain: "run", Doc: backendDoc("run")},
		{Name: "svcB", PostSubdomain: "predict", Doc: backendDoc("predict")},
	})
	require.NoError(t, err)

	schemas := merged["components"].(map[string]any)["schemas"].(map[string]any)
	for _, key := range []string{"svcA-Result", "svcB-Result", "svcA-Input", "svcB-Input", GatewayErrorSchema} {
		assert.Contains(t, schemas, key)
	}
	assert.NotContains(t, schemas, "Result")

	paths := merged["paths"].(map[string]any)
	assert.Contains(t, paths, "/svcA")
	assert.Contains(t, paths, "/svcB")
	assert.Contains(t, paths, "/_ping")
	assert.NotContains(t, paths, "/run")

	raw, err := json.Marshal(merged)
	require.NoError(t, err)
	assert.Equal(t, 0, strings.Count(string(raw), `"#/components/schemas/Result"`))
	assert.Equal(t, 0, strings.Count(string(raw), `"#/components/schemas/Input"`))
	assert.Equal(t, 2, strings.Count(string(raw), `"#/components/schemas/svcA-Input"`))

	// every remaining reference resolves
	var walk func(any)
	walk = func(n any) {
		switch v := n.(type) {
		case map[string]any:
			if ref, ok := v["$ref"].(string); ok {
				assert.Contains(t, schemas, strings.TrimPrefix(ref, schemaRefPrefix), "dangling %s", ref)
			}
			for _, c := range v {
				walk(c)
			}
		case []any:
			for _, c := range v {
				walk(c)
			}
		}
	}
	walk(merged)
}

func TestMergeDoesNotModifyInputs(t *testing.T) {
	local := LocalDocument("test")
	doc := backendDoc("run")

	_, err := Merge(local, []Part{{Name: "svc", PostSubdomain: "run", Doc: doc}})
	require.NoError(t, err)

	assert.NotContains(t, local["paths"].(map[string]any), "/svc")
	ref := doc["components"].(map[string]any)["schemas"].(map[string]any)["Result"].(map[string]any)["properties"].(map[string]any)["items"].(map[string]any)["items"].(map[string]any)["$ref"]
	assert.Equal(t, "#/components/schemas/Input", ref)
}

func TestMergeErrors(t *testing.T) {
	tests := []struct {
		name string
		part Part
	}{
		{name: "missing paths", part: Part{Name: "svc", PostSubdomain: "run", Doc: Document{}}},
		{name: "missing post path", part: Part{Name: "svc", PostSubdomain: "other", Doc: backendDoc("run")}},
		{name: "path collision", part: Part{Name: "_ping", PostSubdomain: "run", Doc: backendDoc("run")}},
		{
			name: "schemas not an object",
			part: Part{Name: "svc", PostSubdomain: "run", Doc: Document{
				"paths":      map[string]any{"/run": map[string]any{}},
				"components": map[string]any{"schemas": []any{}},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Merge(LocalDocument("test"), []Part{tt.part})
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestMergeWithoutComponents(t *testing.T) {
	merged, err := Merge(LocalDocument("test"), []Part{{
		Name:          "svc",
		PostSubdomain: "run",
		Doc:           Document{"paths": map[string]any{"/run": map[string]any{"post": map[string]any{}}}},
	}})
	require.NoError(t, err)
	assert.Contains(t, merged["paths"].(map[string]any), "/svc")
}

func TestLocalDocument(t *testing.T) {
	doc := LocalDocument("1.2.3")
	info := doc["info"].(map[string]any)
	assert.Equal(t, "Kidra", info["title"])
	assert.Equal(t, "1.2.3", info["version"])
	assert.Equal(t, "A unified API for Python AI services", info["description"])
	for _, p := range []string{"/_ping", "/v3/api-docs", "/metrics", "/infra", "/reload"} {
		assert.Contains(t, doc["paths"].(map[string]any), p)
	}
}
