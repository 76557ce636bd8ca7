package filters

// Boolean combinator validators.  and/or share a flattening fold that splices
// same-operand children into their parent, so chained expressions of one
// operand never nest, and accumulates the leaf flag the matching engine uses
// to pick a flat evaluation strategy.

func standardizeAnd(content any) (map[string]any, error) {
	return standardizeCombinator(KeywordAnd, content)
}

func standardizeOr(content any) (map[string]any, error) {
	return standardizeCombinator(KeywordOr, content)
}

func standardizeCombinator(operand string, content any) (map[string]any, error) {
	children, err := combinatorOperands(operand, content)
	if err != nil {
		return nil, err
	}

	results := make([]map[string]any, 0, len(children))
	for _, child := range children {
		std, err := Standardize(child)
		if err != nil {
			// Child errors surface unchanged so the root cause stays visible.
			return nil, err
		}
		results = append(results, std)
	}
	return flatten(operand, results), nil
}

// combinatorOperands asserts the and/or content is a non-empty array of
// non-array, non-empty objects.
func combinatorOperands(operand string, content any) ([]map[string]any, error) {
	arr, ok := content.([]any)
	if !ok {
		return nil, newError(ReasonWrongType, operand, "attribute must be an array")
	}
	if len(arr) == 0 {
		return nil, newError(ReasonEmptyArray, operand, "attribute cannot be empty")
	}
	children := make([]map[string]any, 0, len(arr))
	for _, el := range arr {
		obj, ok := el.(map[string]any)
		if !ok {
			return nil, newError(ReasonInvalidAttributeShape, operand, "each condition must be an object")
		}
		if len(obj) == 0 {
			return nil, newError(ReasonInvalidAttributeShape, operand, "conditions cannot be empty")
		}
		children = append(children, obj)
	}
	return children, nil
}

// flatten folds standardized sub-results into a single operand node.
//
// A sub-result whose own keyword equals operand is spliced: its children join
// the accumulator directly and its leaf flag is ANDed into the running flag.
// Any other nested and/or forces the node off the leaf fast path.  A single
// accumulated child is returned unwrapped: singleton combinators are never
// emitted.
func flatten(operand string, results []map[string]any) map[string]any {
	acc := make([]any, 0, len(results))
	leaf := true

	for _, res := range results {
		keyword := rootKeyword(res)
		if keyword == operand {
			acc = append(acc, res[operand].([]any)...)
			leaf = leaf && isLeaf(res)
			continue
		}
		acc = append(acc, res)
		if keyword == KeywordAnd || keyword == KeywordOr {
			leaf = false
		}
	}

	if len(acc) == 1 {
		return acc[0].(map[string]any)
	}
	return map[string]any{
		operand:  acc,
		leafAttr: leaf,
	}
}

func standardizeNot(content any) (map[string]any, error) {
	keys, obj, err := mustBeNonEmptyObject(content, KeywordNot)
	if err != nil {
		return nil, err
	}
	if len(keys) > 1 {
		return nil, newError(ReasonInvalidFilterSyntax, KeywordNot, "expects one nested keyword at most")
	}

	// Shape-check the nested content before recursing so the error path names
	// the negation.
	keyword := keys[0]
	path := KeywordNot + "." + keyword
	if keyword == KeywordAnd || keyword == KeywordOr {
		if _, err := combinatorOperands(keyword, obj[keyword]); err != nil {
			return nil, err
		}
	} else if _, _, err := mustBeNonEmptyObject(obj[keyword], path); err != nil {
		return nil, err
	}

	std, err := Standardize(obj)
	if err != nil {
		return nil, err
	}
	return map[string]any{KeywordNot: std}, nil
}

var boolAttributes = []string{"must", "must_not", "should", "should_not"}

// standardizeBool lowers the bool sugar onto and/or/not.  must becomes an and,
// must_not a negated or, should an or appended to the and accumulator, and
// should_not a negated and.  Any attribute besides those four is rejected.
func standardizeBool(content any) (map[string]any, error) {
	keys, obj, err := mustBeNonEmptyObject(content, KeywordBool)
	if err != nil {
		return nil, err
	}
	for _, k := range keys {
		known := false
		for _, attr := range boolAttributes {
			if k == attr {
				known = true
				break
			}
		}
		if !known {
			return nil, newError(ReasonUnknownBoolAttribute, KeywordBool, "unknown bool attribute: %s", k)
		}
	}

	var (
		parts      []map[string]any
		anyNonMust bool
	)
	if raw, ok := obj["must"]; ok {
		std, err := standardizeAnd(raw)
		if err != nil {
			return nil, err
		}
		parts = append(parts, std)
	}
	if raw, ok := obj["must_not"]; ok {
		std, err := standardizeOr(raw)
		if err != nil {
			return nil, err
		}
		parts = append(parts, map[string]any{KeywordNot: std})
		anyNonMust = true
	}
	if raw, ok := obj["should"]; ok {
		std, err := standardizeOr(raw)
		if err != nil {
			return nil, err
		}
		parts = append(parts, std)
		anyNonMust = true
	}
	if raw, ok := obj["should_not"]; ok {
		std, err := standardizeAnd(raw)
		if err != nil {
			return nil, err
		}
		parts = append(parts, map[string]any{KeywordNot: std})
		anyNonMust = true
	}

	out := flatten(KeywordAnd, parts)
	if _, isAnd := out[KeywordAnd]; isAnd && anyNonMust {
		out[leafAttr] = false
	}
	return out, nil
}
