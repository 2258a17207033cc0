package ndb

import (
	"github.com/roach88/ndb/internal/boundary"
	"github.com/roach88/ndb/internal/codec"
	"github.com/roach88/ndb/internal/handle"
	"github.com/roach88/ndb/internal/native"
	"github.com/roach88/ndb/nostr"
)

const idSize = 32

// read pins db and txn, then runs fn with both handles.
func (db *Database) read(op string, txn *Transaction, fn func(dbh, txnh int64) error) error {
	if txn == nil {
		return invalidArgument(op, "nil transaction")
	}
	return db.use(op, func(dbh int64) error {
		err := txn.guard.Use(func(h handle.Handle) error {
			return fn(dbh, h.ID)
		})
		return translate(op, CodeQueryFailure, err)
	})
}

// readJSON runs a lookup returning a JSON payload, nil meaning not found.
func (db *Database) readJSON(op string, txn *Transaction, call func(dbh, txnh int64) []byte) ([]byte, error) {
	var out []byte
	err := db.read(op, txn, func(dbh, txnh int64) error {
		buf, err := boundary.Call(op, func() []byte { return call(dbh, txnh) })
		if err != nil {
			return translate(op, CodeQueryFailure, err)
		}
		out = buf
		return nil
	})
	return out, err
}

// GetNoteByID looks up a note by its 32-byte id. found is false if the
// database has no such note.
func (db *Database) GetNoteByID(txn *Transaction, id []byte) (note nostr.Note, found bool, err error) {
	const op = "getNoteById"
	if len(id) != idSize {
		return nostr.Note{}, false, invalidArgument(op, "note id must be %d bytes, got %d", idSize, len(id))
	}
	raw, err := db.readJSON(op, txn, func(dbh, txnh int64) []byte {
		return native.GetNoteByID(dbh, txnh, id)
	})
	return parseNote(op, raw, err)
}

// GetNoteByIDHex is GetNoteByID with a hex-encoded id.
func (db *Database) GetNoteByIDHex(txn *Transaction, id string) (nostr.Note, bool, error) {
	b, err := nostr.DecodeHex(id)
	if err != nil {
		return nostr.Note{}, false, invalidArgument("getNoteById", "note id: %v", err)
	}
	return db.GetNoteByID(txn, b)
}

// GetNoteByKey looks up a note by its database key.
func (db *Database) GetNoteByKey(txn *Transaction, key int64) (nostr.Note, bool, error) {
	const op = "getNoteByKey"
	raw, err := db.readJSON(op, txn, func(dbh, txnh int64) []byte {
		return native.GetNoteByKey(dbh, txnh, key)
	})
	return parseNote(op, raw, err)
}

func parseNote(op string, raw []byte, err error) (nostr.Note, bool, error) {
	if err != nil || raw == nil {
		return nostr.Note{}, false, err
	}
	n, err := nostr.ParseNote(raw)
	if err != nil {
		return nostr.Note{}, false, &Error{Code: CodeQueryFailure, Op: op, Message: "malformed note payload", Err: err}
	}
	return n, true, nil
}

// Query returns the keys of notes matching filter, newest first, at most
// limit of them.
func (db *Database) Query(txn *Transaction, filter *Filter, limit int) ([]int64, error) {
	const op = "query"
	if err := checkLimit(op, limit); err != nil {
		return nil, err
	}
	if filter == nil {
		return nil, invalidArgument(op, "nil filter")
	}

	var keys []int64
	err := db.read(op, txn, func(dbh, txnh int64) error {
		return filter.use(op, func(fh int64) error {
			buf, err := boundary.Call(op, func() []byte {
				return native.Query(dbh, txnh, fh, int32(limit))
			})
			if err != nil {
				return translate(op, CodeQueryFailure, err)
			}
			if buf == nil {
				return failure(CodeQueryFailure, op, "engine query failed")
			}
			keys = codec.DecodeKeys(buf)
			return nil
		})
	})
	return keys, err
}

// QueryDefault is Query with DefaultQueryLimit.
func (db *Database) QueryDefault(txn *Transaction, filter *Filter) ([]int64, error) {
	return db.Query(txn, filter, DefaultQueryLimit)
}

// QueryNotes runs Query and fetches each note. Keys whose note cannot be
// found are skipped.
func (db *Database) QueryNotes(txn *Transaction, filter *Filter, limit int) ([]nostr.Note, error) {
	keys, err := db.Query(txn, filter, limit)
	if err != nil {
		return nil, err
	}
	notes := make([]nostr.Note, 0, len(keys))
	for _, key := range keys {
		n, found, err := db.GetNoteByKey(txn, key)
		if err != nil {
			return nil, err
		}
		if found {
			notes = append(notes, n)
		}
	}
	return notes, nil
}

// GetProfile returns the profile published by a 32-byte pubkey.
func (db *Database) GetProfile(txn *Transaction, pubkey []byte) (profile nostr.Profile, found bool, err error) {
	const op = "getProfile"
	if len(pubkey) != idSize {
		return nostr.Profile{}, false, invalidArgument(op, "pubkey must be %d bytes, got %d", idSize, len(pubkey))
	}
	raw, err := db.readJSON(op, txn, func(dbh, txnh int64) []byte {
		return native.GetProfile(dbh, txnh, pubkey)
	})
	if err != nil || raw == nil {
		return nostr.Profile{}, false, err
	}
	p, err := nostr.ParseProfile(raw)
	if err != nil {
		return nostr.Profile{}, false, &Error{Code: CodeQueryFailure, Op: op, Message: "malformed profile payload", Err: err}
	}
	return p, true, nil
}

// GetProfileHex is GetProfile with a hex-encoded pubkey.
func (db *Database) GetProfileHex(txn *Transaction, pubkey string) (nostr.Profile, bool, error) {
	b, err := nostr.DecodeHex(pubkey)
	if err != nil {
		return nostr.Profile{}, false, invalidArgument("getProfile", "pubkey: %v", err)
	}
	return db.GetProfile(txn, b)
}

// SearchProfiles returns the pubkeys of profiles whose name matches query.
func (db *Database) SearchProfiles(txn *Transaction, query string, limit int) ([][32]byte, error) {
	const op = "searchProfiles"
	if err := checkLimit(op, limit); err != nil {
		return nil, err
	}

	var keys [][32]byte
	err := db.read(op, txn, func(dbh, txnh int64) error {
		buf, err := boundary.Call(op, func() []byte {
			return native.SearchProfiles(dbh, txnh, query, int32(limit))
		})
		if err != nil {
			return translate(op, CodeQueryFailure, err)
		}
		if buf == nil {
			return failure(CodeQueryFailure, op, "engine search failed")
		}
		keys = codec.DecodePubKeys(buf)
		return nil
	})
	return keys, err
}
