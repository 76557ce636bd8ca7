// Package filters standardizes the filter DSL used for content-based
// pub/sub subscriptions.
//
// Clients register interest in documents through a small declarative query
// language whose grammar is deliberately permissive: the same predicate can be
// written several ways (a geographic bounding box alone has five encodings).
// Standardize validates a raw filter and compiles it into one canonical
// boolean tree - flattened and/or chains, missing/ids/in rewritten in terms of
// not/equals, geo shapes normalized to lat/lon - which is the only form the
// downstream subscription-matching engine consumes.
//
// The standardizer is purely functional: it has no state, performs no I/O,
// never mutates its input, and is safe to call from any number of goroutines.
package filters

import (
	"github.com/ohler55/ojg/oj"
)

// DSL keywords recognized at the top level of a filter expression.
const (
	KeywordAnd            = "and"
	KeywordOr             = "or"
	KeywordNot            = "not"
	KeywordBool           = "bool"
	KeywordExists         = "exists"
	KeywordMissing        = "missing"
	KeywordIDs            = "ids"
	KeywordEquals         = "equals"
	KeywordIn             = "in"
	KeywordRange          = "range"
	KeywordRegexp         = "regexp"
	KeywordGeoBoundingBox = "geoBoundingBox"
	KeywordGeoDistance    = "geoDistance"
	KeywordGeoDistRange   = "geoDistanceRange"
	KeywordGeoPolygon     = "geoPolygon"

	// KeywordGeospatial is an output-only keyword: the canonical wrapper for
	// every normalized geo predicate.  It is not accepted as input.
	KeywordGeospatial = "geospatial"

	// leafAttr marks standardized and/or nodes whose subtree contains no
	// further and/or nesting, letting the matching engine evaluate the node as
	// a flat predicate list instead of a general tree walk.
	leafAttr = "leaf"
)

// validators is the closed dispatch table mapping each input keyword to its
// validator.  Keyword lookup is an explicit map rather than anything
// reflective, so the set of accepted keywords is enumerable.
var validators map[string]func(content any) (map[string]any, error)

// The map is filled in init rather than in its declaration because the
// combinator validators call Standardize, which reads the map back: a
// declaration-site literal would be an initialization cycle.
func init() {
	validators = map[string]func(content any) (map[string]any, error){
		KeywordAnd:            standardizeAnd,
		KeywordOr:             standardizeOr,
		KeywordNot:            standardizeNot,
		KeywordBool:           standardizeBool,
		KeywordExists:         standardizeExists,
		KeywordMissing:        standardizeMissing,
		KeywordIDs:            standardizeIDs,
		KeywordEquals:         standardizeEquals,
		KeywordIn:             standardizeIn,
		KeywordRange:          standardizeRange,
		KeywordRegexp:         standardizeRegexp,
		KeywordGeoBoundingBox: standardizeGeoBoundingBox,
		KeywordGeoDistance:    standardizeGeoDistance,
		KeywordGeoDistRange:   standardizeGeoDistanceRange,
		KeywordGeoPolygon:     standardizeGeoPolygon,
	}
}

// Standardize validates a raw filter expression and returns its canonical
// boolean tree.
//
// A nil or empty filter matches everything and standardizes to an empty map.
// More than one top-level keyword is always invalid.  The returned tree is
// freshly allocated, never aliases the input, and must be treated as
// immutable by callers.
//
// Standardization is one-way: the canonical tree uses output-only markers
// (the geospatial wrapper, the leaf flag) that are not input keywords, so
// feeding a standardized tree back into Standardize is not supported.
func Standardize(filter map[string]any) (map[string]any, error) {
	if len(filter) == 0 {
		return map[string]any{}, nil
	}
	if len(filter) > 1 {
		return nil, newError(ReasonInvalidFilterSyntax, "filter", "a filter can have one top-level keyword at most")
	}

	var keyword string
	for k := range filter {
		keyword = k
	}

	validate, ok := validators[keyword]
	if !ok {
		return nil, newError(ReasonUnknownKeyword, keyword, "unknown filter keyword: %s", keyword)
	}
	return validate(filter[keyword])
}

// StandardizeJSON decodes a raw JSON filter and standardizes it.  A JSON
// null decodes to a match-everything filter.
func StandardizeJSON(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	parsed, err := oj.Parse(raw)
	if err != nil {
		return nil, newError(ReasonInvalidFilterSyntax, "filter", "malformed filter: %s", err)
	}
	switch f := parsed.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return Standardize(f)
	default:
		return nil, newError(ReasonInvalidFilterSyntax, "filter", "a filter must be an object")
	}
}

// rootKeyword returns the single semantic keyword of a standardized node,
// skipping the leaf marker carried by and/or nodes.  An empty node (the
// match-everything filter) yields "".
func rootKeyword(node map[string]any) string {
	for k := range node {
		if k != leafAttr {
			return k
		}
	}
	return ""
}

// isLeaf reports the leaf flag of a standardized node.  Nodes without the
// marker (plain predicates, not nodes) are implicitly leaves.
func isLeaf(node map[string]any) bool {
	if v, ok := node[leafAttr].(bool); ok {
		return v
	}
	return true
}
