package filters

import (
	"math"
	"regexp"
	"strings"
)

// Leaf predicate validators.  Each takes the keyword's content, validates its
// shape, and returns a freshly allocated canonical node.  Predicates
// expressible as disjunctions (ids, in) are rewritten into an or of equals
// leaves at standardization time.

func standardizeExists(content any) (map[string]any, error) {
	keys, obj, err := mustBeNonEmptyObject(content, KeywordExists)
	if err != nil {
		return nil, err
	}
	if err := onlyOneFieldAttribute(keys, KeywordExists); err != nil {
		return nil, err
	}
	if err := requireAttribute(obj, KeywordExists, "field"); err != nil {
		return nil, err
	}
	field, err := mustBeString(obj, KeywordExists, "field")
	if err != nil {
		return nil, err
	}
	return map[string]any{
		KeywordExists: map[string]any{"field": field},
	}, nil
}

// standardizeMissing rewrites missing as the negation of exists.
func standardizeMissing(content any) (map[string]any, error) {
	exists, err := standardizeExists(content)
	if err != nil {
		return nil, err
	}
	return map[string]any{KeywordNot: exists}, nil
}

func standardizeIDs(content any) (map[string]any, error) {
	keys, obj, err := mustBeNonEmptyObject(content, KeywordIDs)
	if err != nil {
		return nil, err
	}
	if err := onlyOneFieldAttribute(keys, KeywordIDs); err != nil {
		return nil, err
	}
	if err := requireAttribute(obj, KeywordIDs, "values"); err != nil {
		return nil, err
	}
	values, err := mustBeNonEmptyArray(obj, KeywordIDs, "values")
	if err != nil {
		return nil, err
	}

	children := make([]any, 0, len(values))
	for _, v := range values {
		id, ok := v.(string)
		if !ok {
			return nil, newError(ReasonWrongType, KeywordIDs, "array values must hold string values")
		}
		children = append(children, map[string]any{
			KeywordEquals: map[string]any{"_id": id},
		})
	}
	return disjunction(children), nil
}

func standardizeEquals(content any) (map[string]any, error) {
	keys, obj, err := mustBeNonEmptyObject(content, KeywordEquals)
	if err != nil {
		return nil, err
	}
	if err := onlyOneFieldAttribute(keys, KeywordEquals); err != nil {
		return nil, err
	}
	field, err := fieldName(keys, KeywordEquals)
	if err != nil {
		return nil, err
	}
	value, ok := obj[field].(string)
	if !ok {
		return nil, newError(ReasonWrongType, KeywordEquals+"."+field, "attribute %s must be a string", field)
	}
	return map[string]any{
		KeywordEquals: map[string]any{field: value},
	}, nil
}

func standardizeIn(content any) (map[string]any, error) {
	keys, obj, err := mustBeNonEmptyObject(content, KeywordIn)
	if err != nil {
		return nil, err
	}
	if err := onlyOneFieldAttribute(keys, KeywordIn); err != nil {
		return nil, err
	}
	field, err := fieldName(keys, KeywordIn)
	if err != nil {
		return nil, err
	}
	values, err := mustBeNonEmptyArray(obj, KeywordIn+"."+field, field)
	if err != nil {
		return nil, err
	}

	children := make([]any, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			return nil, newError(ReasonWrongType, KeywordIn+"."+field, "array values must hold string values")
		}
		children = append(children, map[string]any{
			KeywordEquals: map[string]any{field: str},
		})
	}
	return disjunction(children), nil
}

// disjunction wraps equals rewrites in an or node.  A single value needs no
// combinator: singleton and/or nodes are never emitted.
func disjunction(children []any) map[string]any {
	if len(children) == 1 {
		return children[0].(map[string]any)
	}
	return map[string]any{
		KeywordOr: children,
		leafAttr:  true,
	}
}

var rangeBounds = map[string]bool{
	// value: true when the bound is a lower bound
	"gt":  true,
	"gte": true,
	"lt":  false,
	"lte": false,
}

func standardizeRange(content any) (map[string]any, error) {
	keys, obj, err := mustBeNonEmptyObject(content, KeywordRange)
	if err != nil {
		return nil, err
	}
	if err := onlyOneFieldAttribute(keys, KeywordRange); err != nil {
		return nil, err
	}
	field, err := fieldName(keys, KeywordRange)
	if err != nil {
		return nil, err
	}
	path := KeywordRange + "." + field

	_, bounds, err := mustBeNonEmptyObject(obj[field], path)
	if err != nil {
		return nil, err
	}

	var (
		low     = math.Inf(-1)
		high    = math.Inf(1)
		lowSet  bool
		highSet bool
		out     = make(map[string]any, len(bounds))
	)
	for name, value := range bounds {
		lower, known := rangeBounds[name]
		if !known {
			return nil, newError(ReasonInvalidRangeAttributes, path, "unknown range attribute: %s", name)
		}
		n, ok := asNumber(value)
		if !ok {
			return nil, newError(ReasonInvalidRangeBoundType, path, "attribute %s must be a number", name)
		}
		if lower {
			if lowSet {
				return nil, newError(ReasonDuplicateRangeBound, path, "only one lower bound allowed")
			}
			lowSet, low = true, n
		} else {
			if highSet {
				return nil, newError(ReasonDuplicateRangeBound, path, "only one upper bound allowed")
			}
			highSet, high = true, n
		}
		out[name] = value
	}
	if high <= low {
		return nil, newError(ReasonInvalidRangeBounds, path, "lower bound must be strictly below upper bound")
	}

	return map[string]any{
		KeywordRange: map[string]any{field: out},
	}, nil
}

func standardizeRegexp(content any) (map[string]any, error) {
	keys, obj, err := mustBeNonEmptyObject(content, KeywordRegexp)
	if err != nil {
		return nil, err
	}
	if err := onlyOneFieldAttribute(keys, KeywordRegexp); err != nil {
		return nil, err
	}
	field, err := fieldName(keys, KeywordRegexp)
	if err != nil {
		return nil, err
	}
	path := KeywordRegexp + "." + field

	attrs, body, err := mustBeNonEmptyObject(obj[field], path)
	if err != nil {
		return nil, err
	}
	for _, attr := range attrs {
		if attr != "value" && attr != "flags" {
			return nil, newError(ReasonInvalidAttributeShape, path, "unknown regexp attribute: %s", attr)
		}
	}
	if err := requireAttribute(body, path, "value"); err != nil {
		return nil, err
	}
	pattern, err := mustBeString(body, path, "value")
	if err != nil {
		return nil, err
	}

	out := map[string]any{"value": pattern}
	var flags string
	if raw, ok := body["flags"]; ok {
		flags, ok = raw.(string)
		if !ok {
			return nil, newError(ReasonWrongType, path, "attribute flags must be a string")
		}
		out["flags"] = flags
	}

	// Compile once to confirm validity; the compiled form is discarded, the
	// matching engine owns evaluation.
	if err := compileRegexp(pattern, flags); err != nil {
		return nil, newError(ReasonInvalidRegularExpression, path, "cannot compile regular expression: %s", err)
	}

	return map[string]any{
		KeywordRegexp: map[string]any{field: out},
	}, nil
}

// compileRegexp validates a pattern with its flag string.  Flags use the
// single-letter form (i, m, s); anything else is rejected before compiling.
func compileRegexp(pattern, flags string) error {
	for _, f := range flags {
		if !strings.ContainsRune("ims", f) {
			return newError(ReasonInvalidRegularExpression, KeywordRegexp, "unsupported flag: %c", f)
		}
	}
	if flags != "" {
		pattern = "(?" + flags + ")" + pattern
	}
	_, err := regexp.Compile(pattern)
	return err
}

// fieldName extracts the single document field a predicate addresses.
func fieldName(keys []string, keyword string) (string, error) {
	if keys[0] == "" {
		return "", newError(ReasonInvalidAttributeShape, keyword, "field name cannot be empty")
	}
	return keys[0], nil
}
