package ndb

import (
	"github.com/roach88/ndb/internal/handle"
)

// Transaction is a read snapshot of a Database. Not safe for concurrent
// use.
type Transaction struct {
	guard *handle.Guard
}

// IsOpen reports whether Close has not been called.
func (t *Transaction) IsOpen() bool {
	return t.guard.IsOpen()
}

// Close ends the transaction. Only the first call has an effect; Close
// never fails.
func (t *Transaction) Close() error {
	t.guard.Close()
	return nil
}
