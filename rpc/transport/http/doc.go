// Package http implements an HTTP-based transport for kvs.
//
// Every request is sent as POST /{shardId} with the request id in the
// X-Request-Id header. The client performs each POST in its own goroutine
// and publishes the response as a reply event, so several requests may be
// in flight at once. Connect probes GET /health, a failed probe means the
// store is not reachable.
//
// Thread Safety:
//
//	The client transport is thread-safe. A reconnect or Close cancels all
//	requests still in flight; their replies are dropped.
package http
