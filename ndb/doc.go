// Package ndb binds the embedded note database.
//
// Every engine resource is held by a Go value that owns exactly one opaque
// handle and releases it exactly once:
//
//	db, err := ndb.Open(dir)
//	defer db.Close()
//
//	filter, err := ndb.NewFilterBuilder().Kinds(1).Limit(20).Build()
//	defer filter.Close()
//
//	err = db.View(func(txn *ndb.Transaction) error {
//		notes, err := db.QueryNotes(txn, filter, 20)
//		...
//	})
//
// # Safety
//
// Arguments are validated before any engine call: ids and pubkeys must be
// 32 bytes and limits must satisfy 0 < n <= MaxLimit. Use of a closed
// resource fails with CLOSED_HANDLE_USE without reaching the engine. A
// fault inside the engine is contained and returned as NATIVE_FAULT.
// Close never fails; teardown faults are logged and swallowed.
//
// # Ownership and threads
//
// A Database is safe for concurrent use. Transactions, filter builders,
// filters and subscriptions are not; confine each to one goroutine.
//
// The engine allows at most one open transaction per OS thread. Goroutines
// migrate between threads, so prefer View, which pins the goroutine to its
// thread for the life of the transaction and always closes it.
//
// A Database must outlive every resource derived from it. Closing it first
// leaves those resources dangling; using them afterwards is a fault.
package ndb
