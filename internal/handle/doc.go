// Package handle models references to resources that live on the far side
// of the database boundary.
//
// A Handle is an opaque non-zero int64 tagged with the Kind of resource it
// names; the zero value is never live. Handles are not safely duplicable:
// exactly one Guard owns each live handle and is the only way to reach it.
//
// # Guard
//
// Guard gives a handle close-exactly-once semantics:
//
//	g := handle.NewGuard(h, destroy)
//	err := g.Use(func(h handle.Handle) error { ... }) // fails once closed
//	g.Close()                                         // destroy runs once
//	g.Close()                                         // no-op
//
// Close is safe from any goroutine and waits for in-flight Use calls to
// return before the destroy function runs, so a stale id is never forwarded
// across the boundary. Use must not be nested on the same guard.
//
// Two extra transitions serve consuming builders: Mutate installs the
// replacement handle a boundary call returned in place of the consumed one,
// and Take hands ownership of the handle to a finalizing call without
// destroying it.
package handle
