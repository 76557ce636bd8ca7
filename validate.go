package filters

// Generic shape checks shared by every keyword validator.  All of them
// fail fast: the first violated precondition aborts validation, and no
// partial results are reported.

// mustBeNonEmptyObject asserts that value is a non-array object with at least
// one attribute, returning its attribute names.  Order is unspecified; callers
// treat the result as a set.
func mustBeNonEmptyObject(value any, path string) ([]string, map[string]any, error) {
	obj, ok := value.(map[string]any)
	if !ok {
		return nil, nil, newError(ReasonInvalidAttributeShape, path, "attribute must be an object")
	}
	if len(obj) == 0 {
		return nil, nil, newError(ReasonInvalidAttributeShape, path, "attribute cannot be empty")
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	return keys, obj, nil
}

// onlyOneFieldAttribute asserts the keyword addresses exactly one document
// field.
func onlyOneFieldAttribute(keys []string, path string) error {
	if len(keys) > 1 {
		return newError(ReasonTooManyAttributes, path, "can contain only one attribute at most")
	}
	return nil
}

// requireAttribute asserts obj carries attr with a usable value.  Absent, nil
// and empty-string values all count as missing.
func requireAttribute(obj map[string]any, path, attr string) error {
	v, ok := obj[attr]
	if !ok || v == nil {
		return newError(ReasonMissingAttribute, path, "requires the following attribute: %s", attr)
	}
	if s, isStr := v.(string); isStr && s == "" {
		return newError(ReasonMissingAttribute, path, "requires the following attribute: %s", attr)
	}
	return nil
}

func mustBeString(obj map[string]any, path, attr string) (string, error) {
	s, ok := obj[attr].(string)
	if !ok {
		return "", newError(ReasonWrongType, path, "attribute %s must be a string", attr)
	}
	return s, nil
}

func mustBeNonEmptyArray(obj map[string]any, path, attr string) ([]any, error) {
	arr, ok := obj[attr].([]any)
	if !ok {
		return nil, newError(ReasonWrongType, path, "attribute %s must be an array", attr)
	}
	if len(arr) == 0 {
		return nil, newError(ReasonEmptyArray, path, "attribute %s cannot be empty", attr)
	}
	return arr, nil
}

// asNumber widens the numeric types a decoded filter may carry.  ojg yields
// int64 for integral JSON numbers and float64 otherwise; literals built in Go
// may use int.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
