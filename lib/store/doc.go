// Package store defines the IStore interface shared by the two sides of kvs:
// the local in-memory store served by the RPC server (package lstore) and the
// blocking facade a client builds on top of a session (package rpc/client).
//
// Errors reported by a store are *Error values carrying a RetCode, so callers
// can tell an invalid operation from an internal failure.
package store
