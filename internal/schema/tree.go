package schema

import "strings"

// Document is a decoded OpenAPI document.
type Document = map[string]any

const schemaRefPrefix = "#/components/schemas/"

// Rewrite returns a copy of node with fn applied to every string value.
// Maps and lists are copied recursively, keys are left alone and node is never modified.
func Rewrite(node any, fn func(string) string) any {
	switch n := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			out[k] = Rewrite(v, fn)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, v := range n {
			out[i] = Rewrite(v, fn)
		}
		return out
	case string:
		return fn(n)
	default:
		return n
	}
}

// QualifyRefs returns a copy of node in which every schema reference
// "#/components/schemas/X" reads "#/components/schemas/<name>-X".
// References that already carry the prefix are kept, so applying it twice is harmless.
func QualifyRefs(node any, name string) any {
	qualified := schemaRefPrefix + name + "-"
	return Rewrite(node, func(s string) string {
		if !strings.HasPrefix(s, schemaRefPrefix) || strings.HasPrefix(s, qualified) {
			return s
		}
		return qualified + strings.TrimPrefix(s, schemaRefPrefix)
	})
}

func deepCopy(node any) any {
	return Rewrite(node, func(s string) string { return s })
}
