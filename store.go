package filters

import (
	"context"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	"github.com/sourcegraph/conc/pool"
	"github.com/tidwall/btree"
)

var (
	ErrFilterNotFound     = fmt.Errorf("filter not found")
	ErrSubscriberNotFound = fmt.Errorf("subscriber not found")
)

// StoredFilter is a registered subscription filter: the canonical tree plus
// the index/collection scope it watches.  The tree is shared and must not be
// mutated.
type StoredFilter struct {
	ID         string
	Index      string
	Collection string
	Filter     map[string]any
}

// FilterID derives the deterministic identifier of a filter within its
// index/collection scope.  Equivalent filters registered by different
// subscribers hash to the same ID, so the matching engine evaluates each
// distinct filter once.  Object keys are serialized sorted, making the hash
// independent of map iteration order.
func FilterID(index, collection string, canonical map[string]any) string {
	h := xxhash.New()
	_, _ = h.WriteString(index)
	_, _ = h.WriteString("/")
	_, _ = h.WriteString(collection)
	_, _ = h.WriteString("/")
	_, _ = h.WriteString(canonicalJSON(canonical))
	return fmt.Sprintf("%x", h.Sum64())
}

// canonicalJSON serializes a canonical tree with sorted object keys.  This is
// the at-rest shape of a subscription definition.
func canonicalJSON(tree map[string]any) string {
	return oj.JSON(tree, &ojg.Options{Sort: true})
}

// MemoryStore keeps subscription filters in memory, deduplicated by filter ID,
// with per-subscriber handles.  All methods are safe for concurrent use.
type MemoryStore struct {
	lock *sync.RWMutex

	filters     btree.Map[string, *StoredFilter]
	subscribers map[string]map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lock:        &sync.RWMutex{},
		subscribers: map[string]map[string]struct{}{},
	}
}

// Add standardizes filter and registers it under its deterministic ID,
// returning the stored definition.  Registering an equivalent filter twice
// returns the existing entry.
func (s *MemoryStore) Add(ctx context.Context, index, collection string, filter map[string]any) (*StoredFilter, error) {
	canonical, err := Standardize(filter)
	if err != nil {
		return nil, err
	}

	id := FilterID(index, collection, canonical)

	s.lock.Lock()
	defer s.lock.Unlock()

	if existing, ok := s.filters.Get(id); ok {
		return existing, nil
	}
	stored := &StoredFilter{
		ID:         id,
		Index:      index,
		Collection: collection,
		Filter:     canonical,
	}
	s.filters.Set(id, stored)
	return stored, nil
}

// AddBatch registers many filters concurrently.  The first validation failure
// aborts the batch.  Result order is not guaranteed.
func (s *MemoryStore) AddBatch(ctx context.Context, index, collection string, batch []map[string]any) ([]*StoredFilter, error) {
	p := pool.NewWithResults[*StoredFilter]().WithContext(ctx)
	for _, filter := range batch {
		filter := filter
		p.Go(func(ctx context.Context) (*StoredFilter, error) {
			return s.Add(ctx, index, collection, filter)
		})
	}
	return p.Wait()
}

// Subscribe attaches a new subscriber to a registered filter and returns its
// handle.
func (s *MemoryStore) Subscribe(filterID string) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.filters.Get(filterID); !ok {
		return "", fmt.Errorf("%w: %s", ErrFilterNotFound, filterID)
	}
	subID := uuid.NewString()
	subs, ok := s.subscribers[filterID]
	if !ok {
		subs = map[string]struct{}{}
		s.subscribers[filterID] = subs
	}
	subs[subID] = struct{}{}
	return subID, nil
}

// Unsubscribe detaches a subscriber.  The filter itself is dropped once its
// last subscriber leaves, and the remaining subscriber count is returned.
func (s *MemoryStore) Unsubscribe(filterID, subscriberID string) (int, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	subs, ok := s.subscribers[filterID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrFilterNotFound, filterID)
	}
	if _, ok := subs[subscriberID]; !ok {
		return 0, fmt.Errorf("%w: %s", ErrSubscriberNotFound, subscriberID)
	}
	delete(subs, subscriberID)
	if len(subs) == 0 {
		delete(s.subscribers, filterID)
		s.filters.Delete(filterID)
	}
	return len(subs), nil
}

func (s *MemoryStore) Get(filterID string) (*StoredFilter, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.filters.Get(filterID)
}

func (s *MemoryStore) Remove(filterID string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.filters.Delete(filterID)
	delete(s.subscribers, filterID)
}

// List returns the stored filters scoped to an index/collection pair, ordered
// by filter ID.
func (s *MemoryStore) List(index, collection string) []*StoredFilter {
	s.lock.RLock()
	defer s.lock.RUnlock()

	out := []*StoredFilter{}
	s.filters.Scan(func(id string, f *StoredFilter) bool {
		if f.Index == index && f.Collection == collection {
			out = append(out, f)
		}
		return true
	})
	return out
}

func (s *MemoryStore) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.filters.Len()
}
