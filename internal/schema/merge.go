package schema

import "fmt"

// Part is one backend document to be merged.
type Part struct {
	Name          string // service name, becomes the path and schema prefix
	PostSubdomain string // path of the backend operation to expose
	Doc           Document
}

// Merge returns a new document: a copy of local with, for every part in order,
// the backend's "/<PostSubdomain>" path grafted under "/<Name>" and its schemas
// added as "<Name>-<key>". Neither local nor the parts are modified.
func Merge(local Document, parts []Part) (Document, error) {
	out := deepCopy(local).(map[string]any)
	paths := childMap(out, "paths")
	schemas := childMap(childMap(out, "components"), "schemas")

	for _, p := range parts {
		if err := graft(paths, schemas, p); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func graft(paths, schemas map[string]any, p Part) error {
	backendPaths, ok := p.Doc["paths"].(map[string]any)
	if !ok {
		return fmt.Errorf("%w: %s: no paths object", ErrMalformed, p.Name)
	}
	entry, ok := backendPaths["/"+p.PostSubdomain]
	if !ok {
		return fmt.Errorf("%w: %s: path /%s not found", ErrMalformed, p.Name, p.PostSubdomain)
	}

	target := "/" + p.Name
	if _, taken := paths[target]; taken {
		return fmt.Errorf("%w: %s: path %s already defined", ErrMalformed, p.Name, target)
	}
	paths[target] = QualifyRefs(entry, p.Name)

	backendSchemas, err := componentSchemas(p)
	if err != nil {
		return err
	}
	for key, s := range backendSchemas {
		schemas[p.Name+"-"+key] = QualifyRefs(s, p.Name)
	}
	return nil
}

// componentSchemas returns components.schemas, which may be absent.
func componentSchemas(p Part) (map[string]any, error) {
	raw, ok := p.Doc["components"]
	if !ok || raw == nil {
		return nil, nil
	}
	components, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: components is not an object", ErrMalformed, p.Name)
	}
	raw, ok = components["schemas"]
	if !ok || raw == nil {
		return nil, nil
	}
	schemas, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s: components.schemas is not an object", ErrMalformed, p.Name)
	}
	return schemas, nil
}

// childMap returns m[key] as a map, creating it when absent.
func childMap(m map[string]any, key string) map[string]any {
	if child, ok := m[key].(map[string]any); ok {
		return child
	}
	child := make(map[string]any)
	m[key] = child
	return child
}
