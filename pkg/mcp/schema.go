package mcp

import "strings"

// CleanSchema reduces a raw JSON-schema object to the subset the
// argument extractor and validator understand: $ref resolved against
// $defs, anyOf [T, null] collapsed to T, title/default/$defs dropped,
// enum/type and nested properties preserved.
func CleanSchema(schema map[string]any) map[string]any {
	defs, _ := schema["$defs"].(map[string]any)
	return cleanNode(schema, defs, 0)
}

// maxSchemaDepth guards against cyclic $ref chains.
const maxSchemaDepth = 32

func cleanNode(node map[string]any, defs map[string]any, depth int) map[string]any {
	if depth > maxSchemaDepth {
		return map[string]any{}
	}

	// Resolve local $ref first; sibling keys of a $ref are ignored, as in
	// draft JSON schema.
	if ref, ok := node["$ref"].(string); ok {
		if resolved := resolveRef(ref, defs); resolved != nil {
			return cleanNode(resolved, defs, depth+1)
		}
		return map[string]any{}
	}

	// Collapse anyOf [T, null] to T merged with remaining siblings.
	if variants, ok := node["anyOf"].([]any); ok {
		if t := nonNullVariant(variants); t != nil {
			merged := cleanNode(t, defs, depth+1)
			for k, v := range cleanSiblings(node, defs, depth) {
				if _, exists := merged[k]; !exists {
					merged[k] = v
				}
			}
			return merged
		}
	}

	return cleanSiblings(node, defs, depth)
}

// cleanSiblings copies a node's keys minus the dropped ones, recursing
// into properties and items.
func cleanSiblings(node map[string]any, defs map[string]any, depth int) map[string]any {
	out := make(map[string]any, len(node))
	for k, v := range node {
		switch k {
		case "title", "default", "$defs", "anyOf", "$ref":
			continue
		case "properties":
			if props, ok := v.(map[string]any); ok {
				cleaned := make(map[string]any, len(props))
				for name, sub := range props {
					if subMap, ok := sub.(map[string]any); ok {
						cleaned[name] = cleanNode(subMap, defs, depth+1)
					}
				}
				out[k] = cleaned
				continue
			}
			out[k] = v
		case "items":
			if subMap, ok := v.(map[string]any); ok {
				out[k] = cleanNode(subMap, defs, depth+1)
				continue
			}
			out[k] = v
		default:
			out[k] = v
		}
	}
	return out
}

// nonNullVariant returns the single non-null variant of an anyOf, or nil
// when the union is not of the [T, null] shape.
func nonNullVariant(variants []any) map[string]any {
	var found map[string]any
	for _, v := range variants {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		if t, _ := m["type"].(string); t == "null" {
			continue
		}
		if found != nil {
			return nil // more than one real variant, leave untouched
		}
		found = m
	}
	return found
}

// resolveRef resolves "#/$defs/Name" against the schema's $defs.
func resolveRef(ref string, defs map[string]any) map[string]any {
	name, ok := strings.CutPrefix(ref, "#/$defs/")
	if !ok || defs == nil {
		return nil
	}
	resolved, _ := defs[name].(map[string]any)
	return resolved
}
