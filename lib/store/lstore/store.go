package lstore

import (
	"github.com/ValentinKolb/kvs/lib/store"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"sync/atomic"
)

var Logger = logger.GetLogger("store")

// entry is a stored value together with the write index of the write that produced it
type entry struct {
	value      []byte
	writeIndex uint64
}

type storeImpl struct {
	data  *xsync.MapOf[string, entry]
	index atomic.Uint64
}

// NewLocalStore creates a new local store instance.
// This store implementation is not distributed and only works on a single node.
func NewLocalStore() store.IStore {
	return &storeImpl{
		data: xsync.NewMapOf[string, entry](),
	}
}

// incAndGetIndex increments the index and returns the new value.
// It is used to ensure that each write operation has a unique index.
//
// Thread-safety: This method is thread-safe since it uses atomic operations.
func (s *storeImpl) incAndGetIndex() uint64 {
	return s.index.Add(1)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Set(key string, value []byte) error {
	// the caller may reuse its buffer
	stored := make([]byte, len(value))
	copy(stored, value)

	idx := s.incAndGetIndex()
	s.data.Store(key, entry{value: stored, writeIndex: idx})
	Logger.Debugf("set %q at index %d", key, idx)
	return nil
}

func (s *storeImpl) Delete(key string) error {
	s.incAndGetIndex()
	s.data.Delete(key)
	return nil
}

func (s *storeImpl) Get(key string) ([]byte, bool, error) {
	e, ok := s.data.Load(key)
	if !ok {
		return nil, false, nil
	}
	Logger.Debugf("get %q written at index %d", key, e.writeIndex)
	return e.value, true, nil
}
