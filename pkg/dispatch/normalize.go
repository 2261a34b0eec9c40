package dispatch

// NormalizeParams flattens the accepted parameter shapes into one map.
// Callers may pass arguments flat, or nested under a "params" key, or
// both. On key collision the flat value wins.
func NormalizeParams(params map[string]any) map[string]any {
	if params == nil {
		return map[string]any{}
	}

	nested, hasNested := params["params"].(map[string]any)
	if !hasNested {
		return params
	}

	out := make(map[string]any, len(nested)+len(params))
	for k, v := range nested {
		out[k] = v
	}
	for k, v := range params {
		if k == "params" {
			continue
		}
		out[k] = v
	}
	return out
}
