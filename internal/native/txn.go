package native

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/roach88/ndb/internal/codec"
	"github.com/roach88/ndb/internal/store"
	"github.com/roach88/ndb/nostr"
)

// searchWindowFactor scales the result limit into the number of search
// candidates ranked. The scaled value must fit an int32.
const searchWindowFactor = 10

type transaction struct {
	db *database
	rx *store.ReadTx
}

// BeginTransaction opens a read snapshot on db. Returns 0 on failure.
//
// At most one transaction may be open per calling thread.
func BeginTransaction(db int64) int64 {
	if db == 0 {
		return 0
	}
	d := getDB(db)
	rx, err := d.store.BeginRead(context.Background())
	if err != nil {
		log().Error("begin transaction failed", "error", err)
		return 0
	}
	return handles.insert(kindTransaction, &transaction{db: d, rx: rx})
}

// EndTransaction destroys a transaction handle.
func EndTransaction(txn int64) {
	if txn == 0 {
		return
	}
	t := handles.remove(txn, kindTransaction).(*transaction)
	if err := t.rx.Close(); err != nil {
		log().Warn("end transaction failed", "error", err)
	}
}

// getTxn resolves a (database, transaction) pair. A transaction used with
// a database other than its own is undefined behaviour.
func getTxn(db, txn int64) (*database, *transaction) {
	d := getDB(db)
	t := handles.get(txn, kindTransaction).(*transaction)
	if t.db != d {
		panic(fmt.Sprintf("native: transaction %#x does not belong to database %#x", txn, db))
	}
	return d, t
}

// GetNoteByID returns the JSON of the note with the given 32-byte id, or
// nil if there is none.
func GetNoteByID(db, txn int64, id []byte) []byte {
	if db == 0 || txn == 0 || len(id) != 32 {
		return nil
	}
	_, t := getTxn(db, txn)
	raw, _, found, err := t.rx.NoteByID(context.Background(), nostr.EncodeHex(id))
	if err != nil {
		log().Error("get note by id failed", "error", err)
		return nil
	}
	if !found {
		return nil
	}
	return raw
}

// GetNoteByKey returns the JSON of the note stored under key, or nil.
func GetNoteByKey(db, txn int64, key int64) []byte {
	if db == 0 || txn == 0 {
		return nil
	}
	d, t := getTxn(db, txn)
	ctx := context.Background()

	// The cache is shared across snapshots; only serve keys this one can see.
	visible, err := t.rx.MaxKey(ctx)
	if err != nil {
		log().Error("get note by key failed", "key", key, "error", err)
		return nil
	}
	if key > visible {
		return nil
	}
	if raw, ok := d.notes.Get(key); ok {
		return raw
	}
	raw, found, err := t.rx.NoteByKey(ctx, key)
	if err != nil {
		log().Error("get note by key failed", "key", key, "error", err)
		return nil
	}
	if !found {
		return nil
	}
	d.notes.Add(key, raw)
	return raw
}

// Query returns the keys of notes matching filter, newest first, as a key
// list. At most limit keys are returned, fewer if the filter carries a
// smaller limit of its own. Returns nil on failure.
//
// A search filter ranks limit*10 candidates by term frequency. The engine
// does not guard that multiplication; a limit whose scaled value overflows
// int32 faults.
func Query(db, txn, filter int64, limit int32) []byte {
	if db == 0 || txn == 0 || filter == 0 {
		return nil
	}
	_, t := getTxn(db, txn)
	f := getFilter(filter)

	if f.limit > 0 && f.limit < limit {
		limit = f.limit
	}
	if limit <= 0 {
		return codec.EncodeKeys(nil)
	}

	ctx := context.Background()
	if f.spec.Search == "" {
		keys, err := t.rx.Query(ctx, f.spec, int(limit))
		if err != nil {
			log().Error("query failed", "filter_fp", f.fp, "error", err)
			return nil
		}
		return codec.EncodeKeys(keys)
	}

	window := scaleWindow(limit)
	cands, err := t.rx.SearchCandidates(ctx, f.spec, int(window))
	if err != nil {
		log().Error("search failed", "filter_fp", f.fp, "error", err)
		return nil
	}
	return codec.EncodeKeys(rank(cands, f.spec.Search, int(limit)))
}

func scaleWindow(limit int32) int32 {
	if limit > math.MaxInt32/searchWindowFactor {
		panic(fmt.Sprintf("native: search window overflow: %d * %d exceeds int32", limit, searchWindowFactor))
	}
	return limit * searchWindowFactor
}

// rank orders candidates by total occurrences of the search terms,
// keeping recency order among equals, and returns the first limit keys.
func rank(cands []store.Candidate, search string, limit int) []int64 {
	terms := strings.Fields(strings.ToLower(search))
	scores := make([]int, len(cands))
	for i, c := range cands {
		content := strings.ToLower(c.Content)
		for _, term := range terms {
			scores[i] += strings.Count(content, term)
		}
	}

	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if len(order) > limit {
		order = order[:limit]
	}
	keys := make([]int64, len(order))
	for i, idx := range order {
		keys[i] = cands[idx].Key
	}
	return keys
}

// GetProfile returns the profile JSON for a 32-byte pubkey, or nil.
func GetProfile(db, txn int64, pubkey []byte) []byte {
	if db == 0 || txn == 0 || len(pubkey) != 32 {
		return nil
	}
	_, t := getTxn(db, txn)
	content, found, err := t.rx.ProfileByPubKey(context.Background(), nostr.EncodeHex(pubkey))
	if err != nil {
		log().Error("get profile failed", "error", err)
		return nil
	}
	if !found {
		return nil
	}
	return content
}

// SearchProfiles returns a pubkey list of profiles whose name matches
// query. Returns nil on failure.
func SearchProfiles(db, txn int64, query string, limit int32) []byte {
	if db == 0 || txn == 0 {
		return nil
	}
	_, t := getTxn(db, txn)
	if limit <= 0 {
		return codec.EncodePubKeys(nil)
	}

	hexKeys, err := t.rx.SearchProfiles(context.Background(), query, int(limit))
	if err != nil {
		log().Error("search profiles failed", "error", err)
		return nil
	}
	keys := make([][32]byte, 0, len(hexKeys))
	for _, hk := range hexKeys {
		b, err := nostr.DecodeHex(hk)
		if err != nil || len(b) != 32 {
			continue
		}
		keys = append(keys, [32]byte(b))
	}
	return codec.EncodePubKeys(keys)
}
