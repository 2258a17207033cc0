package handle

import (
	"errors"
	"fmt"
)

// Kind identifies the type of resource a handle names.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindDatabase
	KindTransaction
	KindFilterBuilder
	KindFilter
	KindSubscription
)

func (k Kind) String() string {
	switch k {
	case KindDatabase:
		return "database"
	case KindTransaction:
		return "transaction"
	case KindFilterBuilder:
		return "filter builder"
	case KindFilter:
		return "filter"
	case KindSubscription:
		return "subscription"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Handle is an opaque reference to a boundary resource.
type Handle struct {
	ID   int64
	Kind Kind
}

// Valid reports whether the handle names a live resource.
func (h Handle) Valid() bool {
	return h.ID != 0
}

func (h Handle) String() string {
	return fmt.Sprintf("%s#%x", h.Kind, uint64(h.ID))
}

// ErrClosed is matched by every ClosedError.
var ErrClosed = errors.New("handle closed")

// ClosedError reports use of a guard after it was closed.
type ClosedError struct {
	Kind Kind
}

func (e *ClosedError) Error() string {
	return e.Kind.String() + " is closed"
}

func (e *ClosedError) Is(target error) bool {
	return target == ErrClosed
}
