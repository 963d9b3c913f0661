package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQualifyRefs(t *testing.T) {
	in := map[string]any{
		"$ref":  "#/components/schemas/Result",
		"other": "#/components/parameters/Limit",
		"items": []any{
			map[string]any{"$ref": "#/components/schemas/Item"},
			"#/components/schemas/svc-Already",
			42,
		},
	}

	out := QualifyRefs(in, "svc").(map[string]any)

	assert.Equal(t, "#/components/schemas/svc-Result", out["$ref"])
	assert.Equal(t, "#/components/parameters/Limit", out["other"])
	items := out["items"].([]any)
	assert.Equal(t, "#/components/schemas/svc-Item", items[0].(map[string]any)["$ref"])
	assert.Equal(t, "#/components/schemas/svc-Already", items[1])
	assert.Equal(t, 42, items[2])

	// input untouched
	assert.Equal(t, "#/components/schemas/Result", in["$ref"])
	assert.Equal(t, "#/components/schemas/Item", in["items"].([]any)[0].(map[string]any)["$ref"])
}

func TestQualifyRefsIsIdempotent(t *testing.T) {
	in := map[string]any{"$ref": "#/components/schemas/Result"}
	once := QualifyRefs(in, "svc")
	twice := QualifyRefs(once, "svc")
	assert.Equal(t, once, twice)
}

func TestRewriteLeavesKeys(t *testing.T) {
	in := map[string]any{"#/components/schemas/Key": "x"}
	out := QualifyRefs(in, "svc").(map[string]any)
	assert.Contains(t, out, "#/components/schemas/Key")
}
