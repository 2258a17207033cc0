package ndb

import (
	"github.com/roach88/ndb/internal/boundary"
	"github.com/roach88/ndb/internal/codec"
	"github.com/roach88/ndb/internal/handle"
	"github.com/roach88/ndb/internal/native"
)

// Subscription delivers keys of notes that match a filter and arrive after
// the subscription was created. Each key is delivered at most once. The
// position is held in memory only and does not survive a restart.
//
// Not safe for concurrent use.
type Subscription struct {
	db    *Database
	guard *handle.Guard
}

// Subscribe registers filter for notes arriving from now on. Notes already
// stored are not delivered. The filter may be closed afterwards.
func (db *Database) Subscribe(filter *Filter) (*Subscription, error) {
	const op = "subscribe"
	if filter == nil {
		return nil, invalidArgument(op, "nil filter")
	}

	var sub *Subscription
	err := db.use(op, func(dbh int64) error {
		return filter.use(op, func(fh int64) error {
			id, err := boundary.Call(op, func() int64 { return native.Subscribe(dbh, fh) })
			if err != nil {
				return translate(op, CodeSubscriptionFailure, err)
			}
			if id == 0 {
				return failure(CodeSubscriptionFailure, op, "engine could not subscribe")
			}
			sub = &Subscription{db: db}
			sub.guard = handle.NewGuard(handle.Handle{ID: id, Kind: handle.KindSubscription}, sub.unsubscribe)
			db.log.Debug("subscribed", "sub", id)
			return nil
		})
	})
	return sub, err
}

// PollForNotes is sub.Poll(maxNotes).
func (db *Database) PollForNotes(sub *Subscription, maxNotes int) ([]int64, error) {
	if sub == nil {
		return nil, invalidArgument("pollForNotes", "nil subscription")
	}
	return sub.Poll(maxNotes)
}

// Unsubscribe is sub.Close().
func (db *Database) Unsubscribe(sub *Subscription) error {
	if sub == nil {
		return nil
	}
	return sub.Close()
}

// ID returns the engine's subscription id, or 0 once closed.
func (s *Subscription) ID() int64 {
	h, err := s.guard.Handle()
	if err != nil {
		return 0
	}
	return h.ID
}

// IsActive reports whether the subscription has not been closed.
func (s *Subscription) IsActive() bool {
	return s.guard.IsOpen()
}

// Poll returns up to maxNotes keys of notes that matched since the last
// poll, oldest first.
func (s *Subscription) Poll(maxNotes int) ([]int64, error) {
	const op = "pollForNotes"
	if err := checkLimit(op, maxNotes); err != nil {
		return nil, err
	}

	var keys []int64
	err := s.guard.Use(func(h handle.Handle) error {
		return s.db.use(op, func(dbh int64) error {
			buf, err := boundary.Call(op, func() []byte {
				return native.PollForNotes(dbh, h.ID, int32(maxNotes))
			})
			if err != nil {
				return translate(op, CodeSubscriptionFailure, err)
			}
			if buf == nil {
				return failure(CodeSubscriptionFailure, op, "engine does not know subscription")
			}
			keys = codec.DecodeKeys(buf)
			return nil
		})
	})
	return keys, translate(op, CodeSubscriptionFailure, err)
}

// PollDefault is Poll with DefaultPollLimit.
func (s *Subscription) PollDefault() ([]int64, error) {
	return s.Poll(DefaultPollLimit)
}

// Close unsubscribes. Only the first call has an effect; Close never
// fails.
func (s *Subscription) Close() error {
	s.guard.Close()
	return nil
}

func (s *Subscription) unsubscribe(h handle.Handle) {
	err := s.db.guard.Use(func(dbh handle.Handle) error {
		s.db.teardown("unsubscribe", func() { native.Unsubscribe(dbh.ID, h.ID) })
		return nil
	})
	if err != nil {
		s.db.log.Debug("unsubscribe skipped, database closed", "sub", h.ID)
	}
}
