package filters

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/cockroachdb/pebble/v2"
	"github.com/ohler55/ojg/oj"
)

// PebbleStore persists subscription filter definitions in a pebble keyspace,
// keyed by scope and filter ID.  Definitions are stored as the canonical
// nested-mapping shape serialized to JSON; loading one back yields a tree
// structurally identical to the one Standardize produced.
type PebbleStore struct {
	db     *pebble.DB
	logger *slog.Logger
	writes *pebble.WriteOptions
}

// PebbleOption configures a PebbleStore.
type PebbleOption func(*PebbleStore)

// WithLogger sets the structured logger used for store events.  Defaults to
// slog.Default.
func WithLogger(logger *slog.Logger) PebbleOption {
	return func(s *PebbleStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNoSync disables fsync on writes, trading durability of the most recent
// registrations for write throughput.
func WithNoSync() PebbleOption {
	return func(s *PebbleStore) {
		s.writes = pebble.NoSync
	}
}

// OpenPebbleStore opens (or creates) a filter store at path.
func OpenPebbleStore(path string, opts ...PebbleOption) (*PebbleStore, error) {
	s := &PebbleStore{
		logger: slog.Default(),
		writes: pebble.Sync,
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("opening filter store: %w", err)
	}
	s.db = db
	return s, nil
}

func (s *PebbleStore) Close() error {
	return s.db.Close()
}

// Add standardizes filter and persists it under its deterministic ID.
func (s *PebbleStore) Add(index, collection string, filter map[string]any) (*StoredFilter, error) {
	canonical, err := Standardize(filter)
	if err != nil {
		return nil, err
	}

	stored := &StoredFilter{
		ID:         FilterID(index, collection, canonical),
		Index:      index,
		Collection: collection,
		Filter:     canonical,
	}
	value := canonicalJSON(map[string]any{
		"id":         stored.ID,
		"index":      stored.Index,
		"collection": stored.Collection,
		"filter":     stored.Filter,
	})

	if err := s.db.Set(storeKey(index, collection, stored.ID), []byte(value), s.writes); err != nil {
		return nil, fmt.Errorf("persisting filter %s: %w", stored.ID, err)
	}
	s.logger.Debug("filter persisted",
		"filter_id", stored.ID,
		"index", index,
		"collection", collection,
	)
	return stored, nil
}

// Get loads one filter definition.
func (s *PebbleStore) Get(index, collection, filterID string) (*StoredFilter, error) {
	value, closer, err := s.db.Get(storeKey(index, collection, filterID))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrFilterNotFound, filterID)
		}
		return nil, fmt.Errorf("loading filter %s: %w", filterID, err)
	}
	defer func() {
		_ = closer.Close()
	}()
	return decodeStoredFilter(value)
}

// Remove deletes one filter definition.  Removing an absent filter is not an
// error.
func (s *PebbleStore) Remove(index, collection, filterID string) error {
	if err := s.db.Delete(storeKey(index, collection, filterID), s.writes); err != nil {
		return fmt.Errorf("deleting filter %s: %w", filterID, err)
	}
	return nil
}

// List loads every filter definition within an index/collection scope,
// ordered by filter ID.
func (s *PebbleStore) List(index, collection string) ([]*StoredFilter, error) {
	prefix := scopePrefix(index, collection)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("scanning filters: %w", err)
	}
	defer func() {
		_ = iter.Close()
	}()

	out := []*StoredFilter{}
	for iter.First(); iter.Valid(); iter.Next() {
		stored, err := decodeStoredFilter(iter.Value())
		if err != nil {
			return nil, err
		}
		out = append(out, stored)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("scanning filters: %w", err)
	}
	return out, nil
}

// Keys are scope-prefixed so a List only touches one index/collection range.
// NUL separators keep scopes from shadowing each other.
func scopePrefix(index, collection string) []byte {
	key := make([]byte, 0, len(index)+len(collection)+4)
	key = append(key, 'f', 0x00)
	key = append(key, index...)
	key = append(key, 0x00)
	key = append(key, collection...)
	key = append(key, 0x00)
	return key
}

func storeKey(index, collection, filterID string) []byte {
	return append(scopePrefix(index, collection), filterID...)
}

// prefixUpperBound returns the smallest key greater than every key carrying
// the prefix.
func prefixUpperBound(prefix []byte) []byte {
	upper := make([]byte, len(prefix))
	copy(upper, prefix)
	for i := len(upper) - 1; i >= 0; i-- {
		if upper[i] < 0xff {
			upper[i]++
			return upper[:i+1]
		}
	}
	return nil
}

func decodeStoredFilter(value []byte) (*StoredFilter, error) {
	parsed, err := oj.Parse(value)
	if err != nil {
		return nil, fmt.Errorf("decoding stored filter: %w", err)
	}
	doc, ok := parsed.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("decoding stored filter: not an object")
	}
	filter, _ := doc["filter"].(map[string]any)
	id, _ := doc["id"].(string)
	index, _ := doc["index"].(string)
	collection, _ := doc["collection"].(string)
	if id == "" || filter == nil {
		return nil, fmt.Errorf("decoding stored filter: malformed record")
	}
	return &StoredFilter{
		ID:         id,
		Index:      index,
		Collection: collection,
		Filter:     filter,
	}, nil
}
