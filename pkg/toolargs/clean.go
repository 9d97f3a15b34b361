package toolargs

// Clean prunes an argument object by the tool's cleaned schema: only
// declared properties survive, empty values are dropped, enum membership
// is enforced on scalars and list items, and integer/number/string type
// mismatches are rejected. Nested objects recurse. Clean is idempotent.
func Clean(args, schema map[string]any) map[string]any {
	props := asObject(schema["properties"])
	out := make(map[string]any, len(args))
	for key, value := range args {
		prop := asObject(props[key])
		if prop == nil {
			continue
		}
		if cleaned, ok := cleanValue(value, prop); ok {
			out[key] = cleaned
		}
	}
	return out
}

func cleanValue(value any, prop map[string]any) (any, bool) {
	if isEmpty(value) {
		return nil, false
	}

	if enum, ok := prop["enum"].([]any); ok {
		return cleanEnum(value, enum)
	}

	switch prop["type"] {
	case "integer":
		return cleanInteger(value)
	case "number":
		switch value.(type) {
		case int, int64, float64:
			return value, true
		default:
			return nil, false
		}
	case "string":
		s, ok := value.(string)
		return s, ok
	case "object":
		obj, ok := value.(map[string]any)
		if !ok {
			return nil, false
		}
		nested := Clean(obj, prop)
		if len(nested) == 0 {
			return nil, false
		}
		return nested, true
	case "array":
		list, ok := value.([]any)
		if !ok {
			return nil, false
		}
		if items := asObject(prop["items"]); items != nil {
			kept := make([]any, 0, len(list))
			for _, item := range list {
				if cleaned, ok := cleanValue(item, items); ok {
					kept = append(kept, cleaned)
				}
			}
			if len(kept) == 0 {
				return nil, false
			}
			return kept, true
		}
		return list, true
	default:
		return value, true
	}
}

// cleanEnum keeps a scalar only when it is a member, and filters list
// values down to members.
func cleanEnum(value any, enum []any) (any, bool) {
	if list, ok := value.([]any); ok {
		kept := make([]any, 0, len(list))
		for _, item := range list {
			if enumContains(enum, item) {
				kept = append(kept, item)
			}
		}
		if len(kept) == 0 {
			return nil, false
		}
		return kept, true
	}
	if enumContains(enum, value) {
		return value, true
	}
	return nil, false
}

func enumContains(enum []any, value any) bool {
	for _, member := range enum {
		if member == value {
			return true
		}
		// JSON decoding yields float64; tolerate int callers
		if mi, ok1 := intValue(member); ok1 {
			if vi, ok2 := intValue(value); ok2 && mi == vi {
				return true
			}
		}
	}
	return false
}

// cleanInteger accepts ints and whole-valued floats.
func cleanInteger(value any) (any, bool) {
	switch n := value.(type) {
	case int, int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return n, true
		}
		return nil, false
	default:
		return nil, false
	}
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}
