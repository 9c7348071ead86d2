// Package cmd implements the command-line interface of kvs. It provides commands
// for running a store server and for talking to it through a client session.
//
// The package is organized into several subpackages:
//
//   - kv: Key-value operations (set, get, del) and a load generator (perf)
//   - demo: A short scripted session that connects, reads, writes and reads again
//   - serve: Starts and configures the kvs server
//   - util: Shared utilities for flags, configuration and sessions (internal use)
//
// Every flag can also be set as environment variable KVS_<FLAG> (e.g. KVS_LOG_LEVEL=debug),
// .env and .env.local files in the working directory are loaded on start.
//
// See kvs -help for a list of all commands.
package cmd
