// Package lstore implements a local, in-memory, single-node key-value store based on the
// store.IStore interface. Data is not persisted between process restarts.
//
// NewLocalStore returns an unbounded store backed by an xsync.MapOf.
// NewBoundedStore returns a store holding at most a fixed number of keys. Once it is full,
// writing a new key first discards an existing one, chosen by the EvictionPolicy:
//
//	fifo  the key that was inserted first, updates keep the insertion position
//	lifo  the key that was inserted or updated last
//	lru   the key that was read or written least recently
//	mru   the key that was read or written most recently
//
// Every write advances an atomic write index, stored alongside the value, which gives a
// monotonically increasing logical timestamp for the writes of a store.
//
// Any string is a valid key, the empty string included, and any byte slice a valid value.
//
// Thread Safety:
//
//	All operations are thread-safe.
package lstore
