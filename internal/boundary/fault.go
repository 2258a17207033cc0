package boundary

import (
	"errors"
	"fmt"
)

// Fault is an abnormal termination intercepted at the boundary.
type Fault struct {
	Op    string // boundary operation, e.g. "filterKinds"
	Value any    // recovered panic value
	Stack []byte // goroutine stack at recovery
}

func (f *Fault) Error() string {
	return fmt.Sprintf("native fault in %s: %v", f.Op, f.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (f *Fault) Unwrap() error {
	if err, ok := f.Value.(error); ok {
		return err
	}
	return nil
}

// IsFault reports whether err wraps a *Fault.
func IsFault(err error) bool {
	var f *Fault
	return errors.As(err, &f)
}
