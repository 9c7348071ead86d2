// Package transport defines the interfaces for RPC communication in kvs.
//
// The client side is deliberately asynchronous: IRPCClientTransport.Send only
// writes a request tagged with a request id, and replies arrive as events on
// the Replies channel. Matching replies to requests is the job of the caller
// (see lib/session), the transport only carries the id back.
//
// Key Components:
//
//   - IRPCClientTransport: Client-side transport (connect, send, reply events, close).
//
//   - Reply: A reply event, either data for a request id or a transport error.
//
//   - IRPCServerTransport: Server-side transport that receives requests and routes
//     them to the registered ServerHandleFunc.
package transport
