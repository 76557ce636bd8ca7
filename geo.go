package filters

import (
	"github.com/subwatch/filters/geoutil"
)

// Geo predicate validators.  Every normalized geo predicate is wrapped under
// the canonical geospatial keyword, and coordinates survive standardization
// only as {lat, lon} pairs or {top, left, bottom, right} rectangles.

// boundingBox is the canonical rectangle: top is the maximum latitude, left
// the minimum longitude, bottom the minimum latitude, right the maximum
// longitude.
type boundingBox struct {
	top, left, bottom, right float64
}

// standardizeGeoBoundingBox accepts five encodings of the same rectangle,
// tried in a fixed priority order.  Each attempt either produces a rectangle
// or declines so the next encoding can try; only exhaustion is an error.
func standardizeGeoBoundingBox(content any) (map[string]any, error) {
	field, body, err := geoField(KeywordGeoBoundingBox, content)
	if err != nil {
		return nil, err
	}
	obj := geoutil.NormalizeKeyCasing(body)

	rect, ok := bboxFromCorners(obj)
	if !ok {
		return nil, newError(ReasonUnrecognizedGeoFormat, KeywordGeoBoundingBox+"."+field,
			"unrecognized geo bounding box format for field %s", field)
	}

	return geospatial(KeywordGeoBoundingBox, field, map[string]any{
		"top":    rect.top,
		"left":   rect.left,
		"bottom": rect.bottom,
		"right":  rect.right,
	}), nil
}

func bboxFromCorners(obj map[string]any) (boundingBox, bool) {
	// Flat numeric {top, left, bottom, right}.
	if top, ok := asNumber(obj["top"]); ok {
		left, okL := asNumber(obj["left"])
		bottom, okB := asNumber(obj["bottom"])
		right, okR := asNumber(obj["right"])
		if okL && okB && okR {
			return boundingBox{top, left, bottom, right}, true
		}
	}

	tl, hasTL := obj["topLeft"]
	br, hasBR := obj["bottomRight"]
	if !hasTL || !hasBR {
		return boundingBox{}, false
	}

	// The corner encodings ({lat,lon} objects, [lat,lon] arrays, "lat, lon"
	// strings, geohashes) all normalize through the point collaborator, which
	// tries them in that same priority order.
	tlPoint, err := geoutil.PointFromAny(tl)
	if err != nil {
		return boundingBox{}, false
	}
	brPoint, err := geoutil.PointFromAny(br)
	if err != nil {
		return boundingBox{}, false
	}
	return boundingBox{
		top:    tlPoint.Lat,
		left:   tlPoint.Lon,
		bottom: brPoint.Lat,
		right:  brPoint.Lon,
	}, true
}

func standardizeGeoDistance(content any) (map[string]any, error) {
	keys, obj, err := mustBeNonEmptyObject(content, KeywordGeoDistance)
	if err != nil {
		return nil, err
	}
	field, err := geoAttributes(KeywordGeoDistance, keys, "distance")
	if err != nil {
		return nil, err
	}
	path := KeywordGeoDistance + "." + field

	distText, err := mustBeString(obj, path, "distance")
	if err != nil {
		return nil, err
	}
	point, err := geoutil.PointFromAny(obj[field])
	if err != nil {
		return nil, newError(ReasonUnrecognizedGeoFormat, path, "unrecognized point format for field %s", field)
	}
	// Distance parsing failures surface as-is: the collaborator owns the
	// unit grammar and its error text.
	distance, err := geoutil.DistanceFromString(distText)
	if err != nil {
		return nil, err
	}

	return geospatial(KeywordGeoDistance, field, map[string]any{
		"lat":      point.Lat,
		"lon":      point.Lon,
		"distance": distance,
	}), nil
}

func standardizeGeoDistanceRange(content any) (map[string]any, error) {
	keys, obj, err := mustBeNonEmptyObject(content, KeywordGeoDistRange)
	if err != nil {
		return nil, err
	}
	field, err := geoAttributes(KeywordGeoDistRange, keys, "from", "to")
	if err != nil {
		return nil, err
	}
	path := KeywordGeoDistRange + "." + field

	fromText, err := mustBeString(obj, path, "from")
	if err != nil {
		return nil, err
	}
	toText, err := mustBeString(obj, path, "to")
	if err != nil {
		return nil, err
	}
	point, err := geoutil.PointFromAny(obj[field])
	if err != nil {
		return nil, newError(ReasonUnrecognizedGeoFormat, path, "unrecognized point format for field %s", field)
	}
	from, err := geoutil.DistanceFromString(fromText)
	if err != nil {
		return nil, err
	}
	to, err := geoutil.DistanceFromString(toText)
	if err != nil {
		return nil, err
	}
	if from >= to {
		return nil, newError(ReasonInvalidDistanceRange, path, "from must be strictly below to")
	}

	return geospatial(KeywordGeoDistRange, field, map[string]any{
		"lat":  point.Lat,
		"lon":  point.Lon,
		"from": from,
		"to":   to,
	}), nil
}

func standardizeGeoPolygon(content any) (map[string]any, error) {
	field, body, err := geoField(KeywordGeoPolygon, content)
	if err != nil {
		return nil, err
	}
	path := KeywordGeoPolygon + "." + field

	if err := requireAttribute(body, path, "points"); err != nil {
		return nil, err
	}
	raw, err := mustBeNonEmptyArray(body, path, "points")
	if err != nil {
		return nil, err
	}
	if len(raw) < 3 {
		return nil, newError(ReasonInsufficientPolygonPoints, path, "at least 3 points are required, got %d", len(raw))
	}

	points := make([]any, 0, len(raw))
	for _, p := range raw {
		point, err := geoutil.PointFromAny(p)
		if err != nil {
			return nil, newError(ReasonUnrecognizedGeoFormat, path, "unrecognized point format for field %s", field)
		}
		points = append(points, []any{point.Lat, point.Lon})
	}

	return geospatial(KeywordGeoPolygon, field, points), nil
}

// geoField extracts the single document field of a geo predicate and the
// object it maps to.
func geoField(keyword string, content any) (string, map[string]any, error) {
	keys, obj, err := mustBeNonEmptyObject(content, keyword)
	if err != nil {
		return "", nil, err
	}
	if err := onlyOneFieldAttribute(keys, keyword); err != nil {
		return "", nil, err
	}
	field, err := fieldName(keys, keyword)
	if err != nil {
		return "", nil, err
	}
	_, body, err := mustBeNonEmptyObject(obj[field], keyword+"."+field)
	if err != nil {
		return "", nil, err
	}
	return field, body, nil
}

// geoAttributes resolves the document field of a geo predicate whose content
// mixes the field with fixed attributes (distance, from, to).  The attribute
// count must be exact: the field plus every fixed attribute, nothing else.
func geoAttributes(keyword string, keys []string, fixed ...string) (string, error) {
	if len(keys) > len(fixed)+1 {
		return "", newError(ReasonTooManyAttributes, keyword, "expects exactly %d attributes", len(fixed)+1)
	}

	field := ""
	for _, k := range keys {
		isFixed := false
		for _, f := range fixed {
			if k == f {
				isFixed = true
				break
			}
		}
		if !isFixed {
			field = k
		}
	}
	if field == "" {
		return "", newError(ReasonMissingAttribute, keyword, "missing document field attribute")
	}
	for _, f := range fixed {
		found := false
		for _, k := range keys {
			if k == f {
				found = true
				break
			}
		}
		if !found {
			return "", newError(ReasonMissingAttribute, keyword, "requires the following attribute: %s", f)
		}
	}
	return field, nil
}

func geospatial(keyword, field string, value any) map[string]any {
	return map[string]any{
		KeywordGeospatial: map[string]any{
			keyword: map[string]any{field: value},
		},
	}
}
