// Package boundary contains every call that crosses into the storage
// engine.
//
// Call runs one boundary call and converts an abnormal termination inside
// it (a panic) into a *Fault carrying the operation name, the panic value
// and the stack. Nothing escapes to the host goroutine. Teardown does the
// same for destroy-style calls but never returns an error: a fault during
// teardown is logged and counted, nothing more.
//
// Sentinel interpretation (zero handle, negative count, nil buffer) stays
// with the caller, who knows which typed error an operation maps to.
//
// Each call is counted in the ndb_boundary_* prometheus metrics; register
// them with Register.
package boundary
