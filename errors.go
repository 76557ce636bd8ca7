package filters

import "fmt"

// Reason identifies the precondition a filter violated.  Every standardization
// failure carries exactly one reason, letting callers map validation errors to
// API error codes without parsing message text.
type Reason int

const (
	ReasonNone Reason = iota

	// ReasonInvalidFilterSyntax is returned when a filter object carries more
	// than one top-level keyword, or none where one was required.
	ReasonInvalidFilterSyntax
	// ReasonUnknownKeyword is returned when the single top-level keyword is not
	// part of the DSL.
	ReasonUnknownKeyword
	ReasonInvalidAttributeShape
	ReasonTooManyAttributes
	ReasonMissingAttribute
	ReasonWrongType
	ReasonEmptyArray
	ReasonInvalidRangeAttributes
	ReasonInvalidRangeBoundType
	ReasonDuplicateRangeBound
	// ReasonInvalidRangeBounds is returned when the resolved upper bound is not
	// strictly greater than the resolved lower bound.
	ReasonInvalidRangeBounds
	ReasonInvalidRegularExpression
	ReasonUnrecognizedGeoFormat
	ReasonInsufficientPolygonPoints
	// ReasonInvalidDistanceRange is returned when a geoDistanceRange "from"
	// distance is not strictly smaller than its "to" distance.
	ReasonInvalidDistanceRange
	ReasonUnknownBoolAttribute
)

func (r Reason) String() string {
	switch r {
	case ReasonInvalidFilterSyntax:
		return "invalid filter syntax"
	case ReasonUnknownKeyword:
		return "unknown keyword"
	case ReasonInvalidAttributeShape:
		return "invalid attribute shape"
	case ReasonTooManyAttributes:
		return "too many attributes"
	case ReasonMissingAttribute:
		return "missing attribute"
	case ReasonWrongType:
		return "wrong type"
	case ReasonEmptyArray:
		return "empty array"
	case ReasonInvalidRangeAttributes:
		return "invalid range attributes"
	case ReasonInvalidRangeBoundType:
		return "invalid range bound type"
	case ReasonDuplicateRangeBound:
		return "duplicate range bound"
	case ReasonInvalidRangeBounds:
		return "invalid range bounds"
	case ReasonInvalidRegularExpression:
		return "invalid regular expression"
	case ReasonUnrecognizedGeoFormat:
		return "unrecognized geo format"
	case ReasonInsufficientPolygonPoints:
		return "insufficient polygon points"
	case ReasonInvalidDistanceRange:
		return "invalid distance range"
	case ReasonUnknownBoolAttribute:
		return "unknown bool attribute"
	default:
		return "unknown reason"
	}
}

// ValidationError is the single error kind produced by standardization.  Path
// names the offending keyword chain (eg. "range.age").
//
// Child errors propagate unchanged through combinator recursion so the root
// cause is never obscured; use errors.As to recover the reason.
type ValidationError struct {
	Reason Reason
	Path   string
	msg    string
}

func (e *ValidationError) Error() string {
	if e.msg == "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.msg)
}

// Is reports whether target is a ValidationError carrying the same reason,
// allowing errors.Is checks against a bare &ValidationError{Reason: r}.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	if !ok {
		return false
	}
	return t.Reason == e.Reason && (t.Path == "" || t.Path == e.Path)
}

func newError(reason Reason, path, format string, args ...any) *ValidationError {
	return &ValidationError{
		Reason: reason,
		Path:   path,
		msg:    fmt.Sprintf(format, args...),
	}
}
