package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/ndb/internal/querysql"
)

// TagFilter matches notes carrying a tag named Name whose value is any of
// Values.
type TagFilter struct {
	Name   string
	Values []string
}

// Filter is the storage-level form of a note filter. Zero values mean
// "no constraint".
type Filter struct {
	Kinds   []int
	Authors []string // lowercase hex pubkeys
	Tags    []TagFilter
	Since   *int64
	Until   *int64
	Search  string
}

// Candidate is a search hit handed back to the engine for ranking.
type Candidate struct {
	Key     int64
	Content string
}

// ReadTx is a read-only snapshot of the store. Every read made through the
// same ReadTx observes the same committed state.
type ReadTx struct {
	tx *sql.Tx

	maxKey   int64
	maxKnown bool
}

// BeginRead opens a read snapshot. The caller must call Close.
func (s *Store) BeginRead(ctx context.Context) (*ReadTx, error) {
	tx, err := s.reader.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin read: %w", err)
	}
	return &ReadTx{tx: tx}, nil
}

// Close releases the snapshot. Safe to call more than once.
func (r *ReadTx) Close() error {
	if r.tx == nil {
		return nil
	}
	err := r.tx.Rollback()
	r.tx = nil
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// NoteByID returns the raw JSON and key of the note with the given hex id.
// found is false if no such note is stored.
func (r *ReadTx) NoteByID(ctx context.Context, id string) (raw []byte, key int64, found bool, err error) {
	err = r.tx.QueryRowContext(ctx, `SELECT key, raw FROM notes WHERE id = ?`, id).Scan(&key, &raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("note by id: %w", err)
	}
	return raw, key, true, nil
}

// MaxKey returns the largest note key visible to the snapshot, 0 if it
// holds no notes. Keys are never reused and a note's raw JSON never
// changes, so a key is visible to the snapshot exactly when it is at most
// MaxKey and stored.
func (r *ReadTx) MaxKey(ctx context.Context) (int64, error) {
	if r.maxKnown {
		return r.maxKey, nil
	}
	if err := r.tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(key), 0) FROM notes`).Scan(&r.maxKey); err != nil {
		return 0, fmt.Errorf("max key: %w", err)
	}
	r.maxKnown = true
	return r.maxKey, nil
}

// NoteByKey returns the raw JSON of the note with the given key.
func (r *ReadTx) NoteByKey(ctx context.Context, key int64) ([]byte, bool, error) {
	var raw []byte
	err := r.tx.QueryRowContext(ctx, `SELECT raw FROM notes WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("note by key: %w", err)
	}
	return raw, true, nil
}

// Query returns the keys of live notes matching f, newest first
// (created_at DESC, key DESC), at most limit of them.
func (r *ReadTx) Query(ctx context.Context, f Filter, limit int) ([]int64, error) {
	q, args, err := noteSelect([]string{"n.key"}, notePredicate(f), newestFirst, limit)
	if err != nil {
		return nil, err
	}
	rows, err := r.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	return scanKeys(rows)
}

// SearchCandidates returns up to window notes matching f together with
// their content, newest first. f.Search must be non-empty.
func (r *ReadTx) SearchCandidates(ctx context.Context, f Filter, window int) ([]Candidate, error) {
	q, args, err := noteSelect([]string{"n.key", "n.content"}, notePredicate(f), newestFirst, window)
	if err != nil {
		return nil, err
	}
	rows, err := r.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("search candidates: %w", err)
	}
	defer rows.Close()

	cands := []Candidate{}
	for rows.Next() {
		var c Candidate
		if err := rows.Scan(&c.Key, &c.Content); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		cands = append(cands, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return cands, nil
}

// ProfileByPubKey returns the kind-0 content indexed for pubkey.
func (r *ReadTx) ProfileByPubKey(ctx context.Context, pubkey string) ([]byte, bool, error) {
	var content []byte
	err := r.tx.QueryRowContext(ctx, `SELECT content FROM profiles WHERE pubkey = ?`, pubkey).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("profile by pubkey: %w", err)
	}
	return content, true, nil
}

// SearchProfiles returns pubkeys whose normalized name contains query.
// Prefix matches rank ahead of infix matches; ties go to the most recent
// profile, then pubkey order.
func (r *ReadTx) SearchProfiles(ctx context.Context, query string, limit int) ([]string, error) {
	q := querysql.EscapeLike(Normalize(strings.TrimSpace(query)))
	rows, err := r.tx.QueryContext(ctx, `
		SELECT pubkey FROM profiles
		WHERE search_name LIKE '%' || ? || '%' ESCAPE '\'
		ORDER BY (search_name LIKE ? || '%' ESCAPE '\') DESC, created_at DESC, pubkey ASC
		LIMIT ?
	`, q, q, limit)
	if err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}
	defer rows.Close()

	pubkeys := []string{}
	for rows.Next() {
		var pk string
		if err := rows.Scan(&pk); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		pubkeys = append(pubkeys, pk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return pubkeys, nil
}

// KeysAfter returns keys greater than after of live notes matching f, in
// ascending key order, at most limit of them. Used by subscription polling,
// outside any read snapshot.
func (s *Store) KeysAfter(ctx context.Context, f Filter, after int64, limit int) ([]int64, error) {
	where := notePredicate(f, querysql.Compare{Field: "n.key", Op: querysql.OpGT, Value: after})
	q, args, err := noteSelect([]string{"n.key"}, where, []querysql.Order{{Field: "n.key"}}, limit)
	if err != nil {
		return nil, err
	}
	rows, err := s.reader.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("keys after: %w", err)
	}
	return scanKeys(rows)
}

// notePredicate expresses f as conditions over the notes table aliased n.
// Superseded versions of replaceable notes never match.
func notePredicate(f Filter, extra ...querysql.Predicate) querysql.Predicate {
	preds := []querysql.Predicate{querysql.Equals{Field: "n.superseded", Value: 0}}

	if len(f.Kinds) > 0 {
		preds = append(preds, querysql.In{Field: "n.kind", Values: anySlice(f.Kinds)})
	}
	if len(f.Authors) > 0 {
		preds = append(preds, querysql.In{Field: "n.pubkey", Values: anySlice(f.Authors)})
	}
	for _, tf := range f.Tags {
		if len(tf.Values) == 0 {
			continue
		}
		preds = append(preds, querysql.Exists{Sub: querysql.Select{
			From:  "tags",
			Alias: "t",
			Where: querysql.And{Predicates: []querysql.Predicate{
				querysql.ColumnEquals{Left: "t.note_key", Right: "n.key"},
				querysql.Equals{Field: "t.name", Value: tf.Name},
				querysql.In{Field: "t.value", Values: anySlice(tf.Values)},
			}},
		}})
	}
	if f.Since != nil {
		preds = append(preds, querysql.Compare{Field: "n.created_at", Op: querysql.OpGE, Value: *f.Since})
	}
	if f.Until != nil {
		preds = append(preds, querysql.Compare{Field: "n.created_at", Op: querysql.OpLE, Value: *f.Until})
	}
	for _, term := range strings.Fields(f.Search) {
		preds = append(preds, querysql.Contains{Field: "n.content", Substring: term})
	}

	return querysql.And{Predicates: append(preds, extra...)}
}

// newestFirst is the order of query results.
var newestFirst = []querysql.Order{
	{Field: "n.created_at", Desc: true},
	{Field: "n.key", Desc: true},
}

func noteSelect(columns []string, where querysql.Predicate, order []querysql.Order, limit int) (string, []any, error) {
	q, args, err := querysql.Compile(querysql.Select{
		Columns: columns,
		From:    "notes",
		Alias:   "n",
		Where:   where,
		OrderBy: order,
		Limit:   limit,
	})
	if err != nil {
		return "", nil, fmt.Errorf("compile note query: %w", err)
	}
	return q, args, nil
}

func anySlice[T any](vs []T) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}

func scanKeys(rows *sql.Rows) ([]int64, error) {
	defer rows.Close()

	keys := []int64{}
	for rows.Next() {
		var k int64
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return keys, nil
}
