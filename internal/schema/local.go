package schema

import "github.com/openeduhub/kidra/internal/version"

// GatewayErrorSchema is the component name of the gateway's error body.
const GatewayErrorSchema = "GatewayError"

// LocalDocument describes the gateway's own routes.
// Backend documents are merged into a copy of it.
func LocalDocument(ver string) Document {
	errorRef := map[string]any{"$ref": schemaRefPrefix + GatewayErrorSchema}

	return Document{
		"openapi": "3.1.0",
		"info": map[string]any{
			"title":       version.Title,
			"version":     ver,
			"description": version.Description,
		},
		"paths": map[string]any{
			"/_ping": map[string]any{
				"get": operation("Ping", "Always answers 200 with an empty body.", nil),
			},
			"/v3/api-docs": map[string]any{
				"get": operation("Merged API document", "OpenAPI document of the gateway and every backend.",
					map[string]any{"type": "object"}),
			},
			"/metrics": map[string]any{
				"get": operation("Prometheus metrics", "Metrics in the Prometheus text format.", nil),
			},
			"/infra": map[string]any{
				"get": operation("Infrastructure status", "Backend readiness, schema cache state and usage counters.",
					map[string]any{"type": "object"}),
			},
			"/reload": map[string]any{
				"post": map[string]any{
					"summary":     "Reload",
					"description": "Drops the merged document and triggers a health sweep.",
					"responses": map[string]any{
						"202": map[string]any{"description": "Reload triggered"},
						"429": map[string]any{
							"description": "A reload is already queued",
							"content":     jsonContent(errorRef),
						},
					},
				},
			},
		},
		"components": map[string]any{
			"schemas": map[string]any{
				GatewayErrorSchema: map[string]any{
					"title":    GatewayErrorSchema,
					"type":     "object",
					"required": []any{"detail"},
					"properties": map[string]any{
						"detail": map[string]any{"title": "Detail"},
					},
				},
			},
		},
	}
}

func operation(summary, description string, body map[string]any) map[string]any {
	ok := map[string]any{"description": "Successful Response"}
	if body != nil {
		ok["content"] = jsonContent(body)
	}
	return map[string]any{
		"summary":     summary,
		"description": description,
		"responses":   map[string]any{"200": ok},
	}
}

func jsonContent(schema map[string]any) map[string]any {
	return map[string]any{
		"application/json": map[string]any{"schema": schema},
	}
}
