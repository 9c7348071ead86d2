package lstore

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/kvs/lib/store"
	"github.com/VictoriaMetrics/metrics"
	"github.com/hashicorp/golang-lru/simplelru"
	"github.com/pkg/errors"
)

// EvictionPolicy selects the key a full bounded store discards
type EvictionPolicy uint8

const (
	EvictFIFO EvictionPolicy = iota + 1
	EvictLIFO
	EvictLRU
	EvictMRU
)

// String returns the name of the policy as used on the command line
func (p EvictionPolicy) String() string {
	switch p {
	case EvictFIFO:
		return "fifo"
	case EvictLIFO:
		return "lifo"
	case EvictLRU:
		return "lru"
	case EvictMRU:
		return "mru"
	default:
		return fmt.Sprintf("EvictionPolicy(%d)", p)
	}
}

// ParseEvictionPolicy returns the policy with the given name (case-insensitive)
func ParseEvictionPolicy(name string) (EvictionPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fifo":
		return EvictFIFO, nil
	case "lifo":
		return EvictLIFO, nil
	case "lru":
		return EvictLRU, nil
	case "mru":
		return EvictMRU, nil
	default:
		return 0, errors.Errorf("unknown eviction policy %q (valid: fifo, lifo, lru, mru)", name)
	}
}

// boundedStore keeps its keys in a simplelru list ordered from oldest to newest.
// What counts as "newer" depends on the policy: fifo never reorders an existing key,
// lifo reorders on writes, lru and mru reorder on reads and writes.
type boundedStore struct {
	mu       sync.Mutex // simplelru is not thread safe, reads reorder the list
	items    *simplelru.LRU
	maxItems int
	policy   EvictionPolicy
	index    atomic.Uint64

	evictions *metrics.Counter
}

// NewBoundedStore creates a local store that holds at most maxItems keys
func NewBoundedStore(maxItems int, policy EvictionPolicy) (store.IStore, error) {
	if maxItems <= 0 {
		return nil, errors.Errorf("max items must be positive, got %d", maxItems)
	}
	if _, err := ParseEvictionPolicy(policy.String()); err != nil {
		return nil, err
	}

	// evictions are done by hand before adding a key, the list itself never overflows
	items, err := simplelru.NewLRU(maxItems, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create key list")
	}

	return &boundedStore{
		items:     items,
		maxItems:  maxItems,
		policy:    policy,
		evictions: metrics.GetOrCreateCounter(fmt.Sprintf(`kvs_store_evictions_total{policy=%q}`, policy)),
	}, nil
}

func (s *boundedStore) Set(key string, value []byte) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	idx := s.index.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.items.Peek(key); ok {
		if s.policy == EvictFIFO {
			// keep the insertion position
			e := old.(*entry)
			e.value, e.writeIndex = stored, idx
		} else {
			s.items.Add(key, &entry{value: stored, writeIndex: idx})
		}
		Logger.Debugf("set %q at index %d", key, idx)
		return nil
	}

	if s.items.Len() >= s.maxItems {
		s.evictLocked()
	}
	s.items.Add(key, &entry{value: stored, writeIndex: idx})
	Logger.Debugf("set %q at index %d", key, idx)
	return nil
}

func (s *boundedStore) Delete(key string) error {
	s.index.Add(1)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items.Remove(key)
	return nil
}

func (s *boundedStore) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var v interface{}
	var ok bool
	switch s.policy {
	case EvictLRU, EvictMRU:
		v, ok = s.items.Get(key)
	default:
		v, ok = s.items.Peek(key)
	}
	if !ok {
		return nil, false, nil
	}
	e := v.(*entry)
	Logger.Debugf("get %q written at index %d", key, e.writeIndex)
	return e.value, true, nil
}

// evictLocked discards one key according to the policy
func (s *boundedStore) evictLocked() {
	var victim interface{}
	var found bool
	switch s.policy {
	case EvictFIFO, EvictLRU:
		victim, _, found = s.items.GetOldest()
	default:
		if keys := s.items.Keys(); len(keys) > 0 {
			victim, found = keys[len(keys)-1], true
		}
	}
	if !found {
		return
	}

	v, _ := s.items.Peek(victim)
	s.items.Remove(victim)
	s.evictions.Inc()
	Logger.Infof("DISCARD: %s", victim)
	if e, ok := v.(*entry); ok {
		Logger.Debugf("discarded %q written at index %d (%s)", victim, e.writeIndex, s.policy)
	}
}
