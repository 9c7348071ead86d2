package lstore

import (
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/VictoriaMetrics/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// op is one step of an eviction scenario: "put K" or "get K"
type op struct {
	put bool
	key string
}

func put(key string) op { return op{put: true, key: key} }
func get(key string) op { return op{key: key} }

func evictions(policy EvictionPolicy) uint64 {
	return metrics.GetOrCreateCounter(fmt.Sprintf(`kvs_store_evictions_total{policy=%q}`, policy)).Get()
}

func TestBoundedStoreEviction(t *testing.T) {
	testCases := []struct {
		policy  EvictionPolicy
		ops     []op
		evicted []string
		kept    []string
	}{
		{
			policy:  EvictFIFO,
			ops:     []op{put("A"), put("B"), put("C"), put("D"), put("E"), put("C"), put("F")},
			evicted: []string{"A", "B"},
			kept:    []string{"C", "D", "E", "F"},
		},
		{
			policy:  EvictLIFO,
			ops:     []op{put("A"), put("B"), put("C"), put("D"), put("E"), put("C"), put("F"), put("G")},
			evicted: []string{"D", "C", "F"},
			kept:    []string{"A", "B", "E", "G"},
		},
		{
			policy:  EvictLRU,
			ops:     []op{put("A"), put("B"), put("C"), put("D"), get("A"), get("B"), put("E"), put("F")},
			evicted: []string{"C", "D"},
			kept:    []string{"A", "B", "E", "F"},
		},
		{
			policy:  EvictMRU,
			ops:     []op{put("A"), put("B"), put("C"), put("D"), put("E"), get("B"), put("F")},
			evicted: []string{"D", "B"},
			kept:    []string{"A", "C", "E", "F"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.policy.String(), func(t *testing.T) {
			s, err := NewBoundedStore(4, tc.policy)
			require.NoError(t, err)
			before := evictions(tc.policy)

			for _, o := range tc.ops {
				if o.put {
					require.NoError(t, s.Set(o.key, []byte("v-"+o.key)))
				} else {
					_, ok, err := s.Get(o.key)
					require.NoError(t, err)
					require.True(t, ok, "%s must be present before it is read", o.key)
				}
			}

			for _, key := range tc.evicted {
				_, ok, err := s.Get(key)
				require.NoError(t, err)
				assert.False(t, ok, "%s should have been discarded", key)
			}
			for _, key := range tc.kept {
				v, ok, err := s.Get(key)
				require.NoError(t, err)
				assert.True(t, ok, "%s should still be stored", key)
				assert.Equal(t, "v-"+key, string(v))
			}
			assert.Equal(t, uint64(len(tc.evicted)), evictions(tc.policy)-before)
		})
	}
}

func TestBoundedStoreUpdateDoesNotEvict(t *testing.T) {
	for _, policy := range []EvictionPolicy{EvictFIFO, EvictLIFO, EvictLRU, EvictMRU} {
		t.Run(policy.String(), func(t *testing.T) {
			s, err := NewBoundedStore(2, policy)
			require.NoError(t, err)
			before := evictions(policy)

			require.NoError(t, s.Set("A", []byte("1")))
			require.NoError(t, s.Set("B", []byte("2")))
			require.NoError(t, s.Set("A", []byte("3")))

			v, ok, _ := s.Get("A")
			assert.True(t, ok)
			assert.Equal(t, "3", string(v))
			_, ok, _ = s.Get("B")
			assert.True(t, ok)
			assert.Equal(t, uint64(0), evictions(policy)-before)
		})
	}
}

func TestBoundedStoreDeleteFreesSlot(t *testing.T) {
	s, err := NewBoundedStore(2, EvictFIFO)
	require.NoError(t, err)
	before := evictions(EvictFIFO)

	require.NoError(t, s.Set("A", []byte("1")))
	require.NoError(t, s.Set("B", []byte("2")))
	require.NoError(t, s.Delete("A"))
	require.NoError(t, s.Delete("missing"))
	require.NoError(t, s.Set("C", []byte("3")))

	_, ok, _ := s.Get("B")
	assert.True(t, ok)
	_, ok, _ = s.Get("C")
	assert.True(t, ok)
	assert.Equal(t, uint64(0), evictions(EvictFIFO)-before)
}

func TestBoundedStoreEmptyKeyAndValue(t *testing.T) {
	s, err := NewBoundedStore(1, EvictLRU)
	require.NoError(t, err)

	require.NoError(t, s.Set("", nil))
	v, ok, err := s.Get("")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, v)

	// the empty key is discarded like any other key
	require.NoError(t, s.Set("A", []byte("1")))
	_, ok, _ = s.Get("")
	assert.False(t, ok)
}

func TestNewBoundedStoreValidation(t *testing.T) {
	_, err := NewBoundedStore(0, EvictLRU)
	assert.Error(t, err)

	_, err = NewBoundedStore(4, EvictionPolicy(42))
	assert.Error(t, err)
}

func TestParseEvictionPolicy(t *testing.T) {
	for _, policy := range []EvictionPolicy{EvictFIFO, EvictLIFO, EvictLRU, EvictMRU} {
		got, err := ParseEvictionPolicy(policy.String())
		require.NoError(t, err)
		assert.Equal(t, policy, got)
	}

	got, err := ParseEvictionPolicy(" MRU ")
	require.NoError(t, err)
	assert.Equal(t, EvictMRU, got)

	_, err = ParseEvictionPolicy("random")
	assert.ErrorContains(t, err, "unknown eviction policy")
}

func TestBoundedStoreConcurrentAccess(t *testing.T) {
	s, err := NewBoundedStore(16, EvictLRU)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := strconv.Itoa(i*100 + j)
				assert.NoError(t, s.Set(key, []byte(key)))
				_, _, err := s.Get(key)
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 16, s.(*boundedStore).items.Len())
}
