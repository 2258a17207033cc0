// Package native is the database engine's flat call surface.
//
// Every resource the engine hands out (database, transaction, filter
// builder, filter) is an opaque int64 handle into a process-wide table.
// A handle packs the resource kind, a slot index and the slot's generation,
// so a destroyed handle can never alias the next resource placed in the
// same slot. Subscriptions are plain per-database ids instead.
//
// The surface mimics a foreign library:
//
//   - failures are reported with sentinels: a zero handle, a nil buffer, a
//     false flag or a negative count
//   - a zero handle argument is rejected with the sentinel
//   - a stale, destroyed or wrong-kind handle is undefined behaviour and
//     panics; callers must contain the panic at the boundary
//   - filter builder operations consume the handle they are given and
//     return a replacement
//
// Result lists use the layouts of package codec.
package native
