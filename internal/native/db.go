package native

import (
	"bufio"
	"bytes"
	"context"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/roach88/ndb/internal/store"
	"github.com/roach88/ndb/nostr"
)

// DefaultNoteCacheSize is the number of note payloads cached per database
// when Config.NoteCacheSize is not positive.
const DefaultNoteCacheSize = 4096

// maxEventSize bounds a single line of a batch ingest.
const maxEventSize = 4 << 20

// Config tunes an opened database.
type Config struct {
	NoteCacheSize int
}

type database struct {
	store   *store.Store
	notes   *lru.Cache[int64, []byte]
	subs    *xsync.MapOf[int64, *subscription]
	nextSub atomic.Int64
}

// Open opens or creates the database stored in directory path.
// Returns 0 if the path is unusable.
func Open(path string, cfg Config) int64 {
	s, err := store.Open(path)
	if err != nil {
		log().Error("open failed", "path", path, "error", err)
		return 0
	}

	size := cfg.NoteCacheSize
	if size <= 0 {
		size = DefaultNoteCacheSize
	}
	cache, err := lru.New[int64, []byte](size)
	if err != nil {
		s.Close()
		log().Error("open failed", "path", path, "error", err)
		return 0
	}

	db := &database{
		store: s,
		notes: cache,
		subs:  xsync.NewMapOf[int64, *subscription](),
	}
	h := handles.insert(kindDatabase, db)
	log().Debug("database opened", "path", path, "handle", h)
	return h
}

// Close destroys a database handle and drops its subscriptions.
// Transactions and filters derived from it must already be destroyed.
func Close(db int64) {
	if db == 0 {
		return
	}
	d := handles.remove(db, kindDatabase).(*database)
	d.subs.Clear()
	if err := d.store.Close(); err != nil {
		log().Warn("close failed", "handle", db, "error", err)
	}
}

func getDB(h int64) *database {
	return handles.get(h, kindDatabase).(*database)
}

// ProcessEvent ingests one JSON event. Returns false only for a zero
// handle, JSON that is not an event, or a storage failure. Events that
// parse but fail validation are dropped silently and still report true;
// so are duplicates.
func ProcessEvent(db int64, json []byte) bool {
	if db == 0 {
		return false
	}
	return getDB(db).ingest(json)
}

// ProcessEvents ingests newline-delimited JSON events, skipping blank
// lines. Returns the number of lines ProcessEvent would have accepted, or
// -1 if db is zero or the batch cannot be read.
func ProcessEvents(db int64, ldjson []byte) int32 {
	if db == 0 {
		return -1
	}
	d := getDB(db)

	sc := bufio.NewScanner(bytes.NewReader(ldjson))
	sc.Buffer(make([]byte, 0, 64<<10), maxEventSize)

	var count int32
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if d.ingest(line) {
			count++
		}
	}
	if err := sc.Err(); err != nil {
		log().Error("batch ingest aborted", "error", err, "accepted", count)
		return -1
	}
	return count
}

func (d *database) ingest(raw []byte) bool {
	n, err := nostr.ParseNote(raw)
	if err != nil {
		log().Debug("event rejected", "error", err)
		return false
	}
	if err := nostr.Validate(n); err != nil {
		log().Debug("event dropped", "id", n.ID, "reason", err)
		return true
	}

	key, inserted, err := d.store.WriteNote(context.Background(), n, raw)
	if err != nil {
		log().Error("event write failed", "id", n.ID, "error", err)
		return false
	}
	if inserted {
		log().Debug("event stored", "id", n.ID, "key", key, "kind", n.Kind)
	}
	return true
}
