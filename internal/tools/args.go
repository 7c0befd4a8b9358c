package tools

// Typed accessors for tool arguments. JSON decoding delivers numbers as
// float64 and objects as map[string]any; these helpers normalize that and
// turn type mismatches into validation errors.

// StringArg returns a required string argument.
func StringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", NewValidationError(key, "required argument missing")
	}
	s, ok := v.(string)
	if !ok {
		return "", NewValidationError(key, "must be a string, got %T", v)
	}
	if s == "" {
		return "", NewValidationError(key, "must not be empty")
	}
	return s, nil
}

// OptStringArg returns an optional string argument, or def when absent.
func OptStringArg(args map[string]any, key, def string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", NewValidationError(key, "must be a string, got %T", v)
	}
	return s, nil
}

// IntArg returns a required integer argument.
func IntArg(args map[string]any, key string) (int, error) {
	v, ok := args[key]
	if !ok {
		return 0, NewValidationError(key, "required argument missing")
	}
	return toInt(key, v)
}

// OptIntArg returns an optional integer argument, or def when absent.
func OptIntArg(args map[string]any, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	return toInt(key, v)
}

// Int64Arg returns a required int64 argument, for upstream numeric ids.
func Int64Arg(args map[string]any, key string) (int64, error) {
	v, ok := args[key]
	if !ok {
		return 0, NewValidationError(key, "required argument missing")
	}
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	default:
		return 0, NewValidationError(key, "must be an integer, got %T", v)
	}
}

// OptBoolArg returns an optional boolean argument, or def when absent.
func OptBoolArg(args map[string]any, key string, def bool) (bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, NewValidationError(key, "must be a boolean, got %T", v)
	}
	return b, nil
}

// OptMapArg returns an optional object argument, or nil when absent.
func OptMapArg(args map[string]any, key string) (map[string]any, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, NewValidationError(key, "must be an object, got %T", v)
	}
	return m, nil
}

// OptSliceArg returns an optional array argument, or nil when absent.
func OptSliceArg(args map[string]any, key string) ([]any, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.([]any)
	if !ok {
		return nil, NewValidationError(key, "must be an array, got %T", v)
	}
	return s, nil
}

// StringMapArg converts an optional object argument to map[string]string.
func StringMapArg(args map[string]any, key string) (map[string]string, error) {
	m, err := OptMapArg(args, key)
	if err != nil || m == nil {
		return nil, err
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		s, ok := v.(string)
		if !ok {
			return nil, NewValidationError(key, "value for %q must be a string, got %T", k, v)
		}
		out[k] = s
	}
	return out, nil
}

func toInt(key string, v any) (int, error) {
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return 0, NewValidationError(key, "must be an integer, got %T", v)
	}
}
