package filters

import (
	"testing"

	"github.com/ohler55/ojg/oj"
	"github.com/stretchr/testify/require"
)

func requireReason(t *testing.T, err error, reason Reason) {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, reason, verr.Reason)
}

func TestStandardize_MatchEverything(t *testing.T) {
	t.Run("nil filter", func(t *testing.T) {
		res, err := Standardize(nil)
		require.NoError(t, err)
		require.Equal(t, map[string]any{}, res)
	})

	t.Run("empty filter", func(t *testing.T) {
		res, err := Standardize(map[string]any{})
		require.NoError(t, err)
		require.Equal(t, map[string]any{}, res)
	})
}

func TestStandardize_Dispatch(t *testing.T) {
	t.Run("multiple top-level keywords", func(t *testing.T) {
		_, err := Standardize(map[string]any{
			"exists": map[string]any{"field": "a"},
			"equals": map[string]any{"a": "b"},
		})
		requireReason(t, err, ReasonInvalidFilterSyntax)
	})

	t.Run("unknown keyword", func(t *testing.T) {
		_, err := Standardize(map[string]any{"fuzzy": map[string]any{}})
		requireReason(t, err, ReasonUnknownKeyword)
	})

	t.Run("output-only keywords are not input", func(t *testing.T) {
		// Standardization is one-way: the geospatial wrapper never parses.
		_, err := Standardize(map[string]any{KeywordGeospatial: map[string]any{}})
		requireReason(t, err, ReasonUnknownKeyword)
	})
}

func TestStandardize_Exists(t *testing.T) {
	t.Run("passthrough", func(t *testing.T) {
		res, err := Standardize(map[string]any{"exists": map[string]any{"field": "name"}})
		require.NoError(t, err)
		require.Equal(t, map[string]any{"exists": map[string]any{"field": "name"}}, res)
	})

	t.Run("missing field attribute", func(t *testing.T) {
		_, err := Standardize(map[string]any{"exists": map[string]any{"fields": "name"}})
		requireReason(t, err, ReasonMissingAttribute)
	})

	t.Run("empty field name", func(t *testing.T) {
		_, err := Standardize(map[string]any{"exists": map[string]any{"field": ""}})
		requireReason(t, err, ReasonMissingAttribute)
	})

	t.Run("non-string field", func(t *testing.T) {
		_, err := Standardize(map[string]any{"exists": map[string]any{"field": 42}})
		requireReason(t, err, ReasonWrongType)
	})

	t.Run("too many attributes", func(t *testing.T) {
		_, err := Standardize(map[string]any{"exists": map[string]any{"field": "a", "other": "b"}})
		requireReason(t, err, ReasonTooManyAttributes)
	})

	t.Run("not an object", func(t *testing.T) {
		_, err := Standardize(map[string]any{"exists": []any{"field"}})
		requireReason(t, err, ReasonInvalidAttributeShape)
	})
}

func TestStandardize_Missing(t *testing.T) {
	res, err := Standardize(map[string]any{"missing": map[string]any{"field": "f"}})
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"not": map[string]any{"exists": map[string]any{"field": "f"}},
	}, res)
}

func TestStandardize_IDs(t *testing.T) {
	t.Run("rewrites to an or of equals on _id", func(t *testing.T) {
		res, err := Standardize(map[string]any{"ids": map[string]any{"values": []any{"a", "b"}}})
		require.NoError(t, err)
		require.Equal(t, map[string]any{
			"or": []any{
				map[string]any{"equals": map[string]any{"_id": "a"}},
				map[string]any{"equals": map[string]any{"_id": "b"}},
			},
			"leaf": true,
		}, res)
	})

	t.Run("single value needs no combinator", func(t *testing.T) {
		res, err := Standardize(map[string]any{"ids": map[string]any{"values": []any{"a"}}})
		require.NoError(t, err)
		require.Equal(t, map[string]any{"equals": map[string]any{"_id": "a"}}, res)
	})

	t.Run("empty values", func(t *testing.T) {
		_, err := Standardize(map[string]any{"ids": map[string]any{"values": []any{}}})
		requireReason(t, err, ReasonEmptyArray)
	})

	t.Run("non-string values", func(t *testing.T) {
		_, err := Standardize(map[string]any{"ids": map[string]any{"values": []any{"a", 2}}})
		requireReason(t, err, ReasonWrongType)
	})

	t.Run("missing values attribute", func(t *testing.T) {
		_, err := Standardize(map[string]any{"ids": map[string]any{"ids": []any{"a"}}})
		requireReason(t, err, ReasonMissingAttribute)
	})
}

func TestStandardize_Equals(t *testing.T) {
	t.Run("passthrough", func(t *testing.T) {
		res, err := Standardize(map[string]any{"equals": map[string]any{"name": "grace"}})
		require.NoError(t, err)
		require.Equal(t, map[string]any{"equals": map[string]any{"name": "grace"}}, res)
	})

	t.Run("non-string value", func(t *testing.T) {
		_, err := Standardize(map[string]any{"equals": map[string]any{"name": 1}})
		requireReason(t, err, ReasonWrongType)
	})

	t.Run("several fields", func(t *testing.T) {
		_, err := Standardize(map[string]any{"equals": map[string]any{"a": "1", "b": "2"}})
		requireReason(t, err, ReasonTooManyAttributes)
	})
}

func TestStandardize_In(t *testing.T) {
	t.Run("rewrites to an or of equals", func(t *testing.T) {
		res, err := Standardize(map[string]any{"in": map[string]any{"name": []any{"a", "b"}}})
		require.NoError(t, err)
		require.Equal(t, map[string]any{
			"or": []any{
				map[string]any{"equals": map[string]any{"name": "a"}},
				map[string]any{"equals": map[string]any{"name": "b"}},
			},
			"leaf": true,
		}, res)
	})

	t.Run("non-array value", func(t *testing.T) {
		_, err := Standardize(map[string]any{"in": map[string]any{"name": "a"}})
		requireReason(t, err, ReasonWrongType)
	})
}

func TestStandardize_Range(t *testing.T) {
	t.Run("passthrough", func(t *testing.T) {
		res, err := Standardize(map[string]any{
			"range": map[string]any{"age": map[string]any{"gte": 0.0, "lte": 120.0}},
		})
		require.NoError(t, err)
		require.Equal(t, map[string]any{
			"range": map[string]any{"age": map[string]any{"gte": 0.0, "lte": 120.0}},
		}, res)
	})

	t.Run("integral bounds from JSON", func(t *testing.T) {
		res, err := StandardizeJSON([]byte(`{"range":{"age":{"gt":10,"lt":20}}}`))
		require.NoError(t, err)
		require.Equal(t, map[string]any{
			"range": map[string]any{"age": map[string]any{"gt": int64(10), "lt": int64(20)}},
		}, res)
	})

	t.Run("inverted bounds", func(t *testing.T) {
		_, err := Standardize(map[string]any{
			"range": map[string]any{"age": map[string]any{"gt": 10.0, "lt": 5.0}},
		})
		requireReason(t, err, ReasonInvalidRangeBounds)
	})

	t.Run("equal bounds", func(t *testing.T) {
		_, err := Standardize(map[string]any{
			"range": map[string]any{"age": map[string]any{"gte": 5.0, "lte": 5.0}},
		})
		requireReason(t, err, ReasonInvalidRangeBounds)
	})

	t.Run("two lower bounds", func(t *testing.T) {
		_, err := Standardize(map[string]any{
			"range": map[string]any{"age": map[string]any{"gt": 1.0, "gte": 2.0}},
		})
		requireReason(t, err, ReasonDuplicateRangeBound)
	})

	t.Run("two upper bounds", func(t *testing.T) {
		_, err := Standardize(map[string]any{
			"range": map[string]any{"age": map[string]any{"lt": 10.0, "lte": 20.0}},
		})
		requireReason(t, err, ReasonDuplicateRangeBound)
	})

	t.Run("unknown bound", func(t *testing.T) {
		_, err := Standardize(map[string]any{
			"range": map[string]any{"age": map[string]any{"between": 10.0}},
		})
		requireReason(t, err, ReasonInvalidRangeAttributes)
	})

	t.Run("non-numeric bound", func(t *testing.T) {
		_, err := Standardize(map[string]any{
			"range": map[string]any{"age": map[string]any{"gt": "10"}},
		})
		requireReason(t, err, ReasonInvalidRangeBoundType)
	})

	t.Run("single bound defaults the other to infinity", func(t *testing.T) {
		_, err := Standardize(map[string]any{
			"range": map[string]any{"age": map[string]any{"gt": 10.0}},
		})
		require.NoError(t, err)
	})
}

func TestStandardize_Regexp(t *testing.T) {
	t.Run("passthrough with flags", func(t *testing.T) {
		res, err := Standardize(map[string]any{
			"regexp": map[string]any{"name": map[string]any{"value": "^gr.*$", "flags": "i"}},
		})
		require.NoError(t, err)
		require.Equal(t, map[string]any{
			"regexp": map[string]any{"name": map[string]any{"value": "^gr.*$", "flags": "i"}},
		}, res)
	})

	t.Run("value required", func(t *testing.T) {
		_, err := Standardize(map[string]any{
			"regexp": map[string]any{"name": map[string]any{"flags": "i"}},
		})
		requireReason(t, err, ReasonMissingAttribute)
	})

	t.Run("unknown sub-attribute", func(t *testing.T) {
		_, err := Standardize(map[string]any{
			"regexp": map[string]any{"name": map[string]any{"value": "a", "options": "i"}},
		})
		requireReason(t, err, ReasonInvalidAttributeShape)
	})

	t.Run("uncompilable pattern", func(t *testing.T) {
		_, err := Standardize(map[string]any{
			"regexp": map[string]any{"name": map[string]any{"value": "(unclosed"}},
		})
		requireReason(t, err, ReasonInvalidRegularExpression)
	})

	t.Run("unsupported flag", func(t *testing.T) {
		_, err := Standardize(map[string]any{
			"regexp": map[string]any{"name": map[string]any{"value": "a", "flags": "g"}},
		})
		requireReason(t, err, ReasonInvalidRegularExpression)
	})
}

func TestStandardizeJSON(t *testing.T) {
	t.Run("null matches everything", func(t *testing.T) {
		res, err := StandardizeJSON([]byte(`null`))
		require.NoError(t, err)
		require.Equal(t, map[string]any{}, res)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		_, err := StandardizeJSON([]byte(`{"exists":`))
		requireReason(t, err, ReasonInvalidFilterSyntax)
	})

	t.Run("non-object filter", func(t *testing.T) {
		_, err := StandardizeJSON([]byte(`[1, 2]`))
		requireReason(t, err, ReasonInvalidFilterSyntax)
	})
}

// The canonical tree must survive its at-rest serialization unchanged: we
// persist subscription definitions as JSON and hand the reloaded tree to the
// matching engine as-is.
func TestStandardize_SerializationRoundTrip(t *testing.T) {
	fixtures := []string{
		`{"and":[{"equals":{"a":"1"}},{"exists":{"field":"b"}},{"range":{"age":{"gt":2,"lte":40}}}]}`,
		`{"bool":{"must":[{"in":{"city":["NYC","London"]}}],"should":[{"regexp":{"name":{"value":"^a"}}},{"missing":{"field":"alias"}}]}}`,
		`{"geoBoundingBox":{"location":{"top":1.5,"left":2.5,"bottom":-3.5,"right":4.5}}}`,
		`{"not":{"ids":{"values":["x","y"]}}}`,
	}

	for _, raw := range fixtures {
		canonical, err := StandardizeJSON([]byte(raw))
		require.NoError(t, err)

		reparsed, err := oj.Parse([]byte(oj.JSON(canonical)))
		require.NoError(t, err)
		require.Equal(t, canonical, reparsed, "filter: %s", raw)
	}
}

// Standardize must never touch the caller's filter.
func TestStandardize_InputNotMutated(t *testing.T) {
	in := map[string]any{
		"and": []any{
			map[string]any{"and": []any{
				map[string]any{"exists": map[string]any{"field": "a"}},
			}},
			map[string]any{"range": map[string]any{"age": map[string]any{"gt": 1.0}}},
		},
	}
	snapshot := canonicalJSON(in)

	_, err := Standardize(in)
	require.NoError(t, err)
	require.Equal(t, snapshot, canonicalJSON(in))
}

func BenchmarkStandardize(b *testing.B) {
	filter := map[string]any{
		"bool": map[string]any{
			"must": []any{
				map[string]any{"equals": map[string]any{"city": "Istanbul"}},
				map[string]any{"range": map[string]any{"age": map[string]any{"gte": 21.0, "lt": 42.0}}},
			},
			"should": []any{
				map[string]any{"exists": map[string]any{"field": "hobby"}},
				map[string]any{"in": map[string]any{"status": []any{"idle", "away"}}},
			},
		},
	}
	b.ReportAllocs()
	for n := 0; n < b.N; n++ {
		if _, err := Standardize(filter); err != nil {
			b.Fatal(err)
		}
	}
}
