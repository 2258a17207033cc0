package native

import (
	"context"
	"sync"

	"github.com/roach88/ndb/internal/codec"
)

type subscription struct {
	mu        sync.Mutex
	filter    filterState
	fp        uint64
	watermark int64
}

// Subscribe registers interest in notes matching filter that arrive after
// this call. Already stored notes are never delivered. Returns a
// subscription id, or 0 on failure.
//
// The subscription copies the filter; the filter handle may be destroyed
// afterwards.
func Subscribe(db, filter int64) int64 {
	if db == 0 || filter == 0 {
		return 0
	}
	d := getDB(db)
	f := getFilter(filter)

	tip, err := d.store.MaxKey(context.Background())
	if err != nil {
		log().Error("subscribe failed", "filter_fp", f.fp, "error", err)
		return 0
	}

	id := d.nextSub.Add(1)
	d.subs.Store(id, &subscription{
		filter:    f.clone(),
		fp:        f.fp,
		watermark: tip,
	})
	log().Debug("subscribed", "sub", id, "filter_fp", f.fp, "watermark", tip)
	return id
}

// PollForNotes returns up to maxNotes keys of notes that matched the
// subscription since the previous poll, in arrival order, and advances its
// watermark past them. Returns nil for an unknown subscription.
func PollForNotes(db, sub int64, maxNotes int32) []byte {
	if db == 0 {
		return nil
	}
	d := getDB(db)
	s, ok := d.subs.Load(sub)
	if !ok {
		return nil
	}
	if maxNotes <= 0 {
		return codec.EncodeKeys(nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := d.store.KeysAfter(context.Background(), s.filter.spec, s.watermark, int(maxNotes))
	if err != nil {
		log().Error("poll failed", "sub", sub, "filter_fp", s.fp, "error", err)
		return nil
	}
	if n := len(keys); n > 0 {
		s.watermark = keys[n-1]
	}
	return codec.EncodeKeys(keys)
}

// Unsubscribe removes a subscription. Returns false if it did not exist.
func Unsubscribe(db, sub int64) bool {
	if db == 0 {
		return false
	}
	_, ok := getDB(db).subs.LoadAndDelete(sub)
	return ok
}
