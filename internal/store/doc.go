// Package store provides the SQLite persistence behind the event engine.
//
// The store is append-mostly: notes are inserted once and never rewritten,
// except that replaceable notes are flagged superseded when a newer version
// arrives. Every note gets a monotonically increasing integer key on insert,
// which doubles as the arrival order used by subscriptions.
//
// # Tables
//
//   - notes:    one row per stored event, raw JSON kept verbatim
//   - tags:     (note_key, pos, name, value) for tag filters
//   - profiles: latest kind-0 metadata per pubkey with a normalized search name
//
// # Connections
//
// Two pools share one database file:
//
//   - writer: a single connection; SQLite allows one writer at a time, so
//     concurrent WriteNote calls are serialized here
//   - reader: query-only connections; ReadTx pins one for a WAL snapshot,
//     so reads never block on, or observe half of, a concurrent write
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
