package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/ndb/nostr"
)

// WriteNote stores a validated note together with its raw JSON.
//
// Returns the note key and whether a new row was inserted. A note whose id
// is already stored is ignored and its existing key is returned with
// inserted=false.
//
// Replaceable and parameterized replaceable notes supersede the live
// version for the same (pubkey, kind[, d tag]). An incoming note that is
// older than the live version is stored already superseded, so lookups by
// id still find it but queries and subscriptions do not.
//
// A live kind-0 note also updates the author's profile row.
func (s *Store) WriteNote(ctx context.Context, n nostr.Note, raw []byte) (int64, bool, error) {
	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("write note: begin: %w", err)
	}
	defer tx.Rollback()

	var existing int64
	err = tx.QueryRowContext(ctx, `SELECT key FROM notes WHERE id = ?`, n.ID).Scan(&existing)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, sql.ErrNoRows):
		return 0, false, fmt.Errorf("write note: lookup id: %w", err)
	}

	var dTag sql.NullString
	superseded := false
	if n.IsReplaceable() || n.IsParameterizedReplaceable() {
		dTag.Valid = true
		if n.IsParameterizedReplaceable() {
			dTag.String, _ = n.TagValue("d")
		}
		superseded, err = supersede(ctx, tx, n, dTag.String)
		if err != nil {
			return 0, false, fmt.Errorf("write note: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO notes (id, pubkey, created_at, kind, content, d_tag, superseded, raw)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.PubKey, n.CreatedAt, n.Kind, n.Content, dTag, boolToInt(superseded), string(raw))
	if err != nil {
		return 0, false, fmt.Errorf("write note: insert: %w", err)
	}
	key, err := res.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("write note: key: %w", err)
	}

	for pos, tag := range n.Tags {
		if len(tag) < 2 {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO tags (note_key, pos, name, value) VALUES (?, ?, ?, ?)
		`, key, pos, tag[0], tag[1]); err != nil {
			return 0, false, fmt.Errorf("write note: insert tag: %w", err)
		}
	}

	if n.Kind == nostr.KindMetadata && !superseded {
		if err := upsertProfile(ctx, tx, n, key); err != nil {
			return 0, false, fmt.Errorf("write note: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("write note: commit: %w", err)
	}
	return key, true, nil
}

// supersede resolves a replaceable note against the live version for its
// address. Returns true if the incoming note loses and must be stored as
// superseded; otherwise the previous live version is flagged.
//
// The newer created_at wins; on a tie the lexically lowest id wins.
func supersede(ctx context.Context, tx *sql.Tx, n nostr.Note, dTag string) (bool, error) {
	var (
		key       int64
		id        string
		createdAt int64
	)
	err := tx.QueryRowContext(ctx, `
		SELECT key, id, created_at FROM notes
		WHERE pubkey = ? AND kind = ? AND d_tag = ? AND superseded = 0
	`, n.PubKey, n.Kind, dTag).Scan(&key, &id, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup replaceable: %w", err)
	}

	if createdAt > n.CreatedAt || (createdAt == n.CreatedAt && id < n.ID) {
		return true, nil
	}
	if _, err := tx.ExecContext(ctx, `UPDATE notes SET superseded = 1 WHERE key = ?`, key); err != nil {
		return false, fmt.Errorf("supersede: %w", err)
	}
	return false, nil
}

// upsertProfile indexes kind-0 metadata. Content that is not a JSON object
// is kept on the note but not indexed.
func upsertProfile(ctx context.Context, tx *sql.Tx, n nostr.Note, key int64) error {
	p, err := nostr.ParseProfile([]byte(n.Content))
	if err != nil {
		return nil
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO profiles (pubkey, note_key, created_at, content, search_name)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(pubkey) DO UPDATE SET
			note_key = excluded.note_key,
			created_at = excluded.created_at,
			content = excluded.content,
			search_name = excluded.search_name
	`, n.PubKey, key, n.CreatedAt, n.Content, SearchName(p))
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// SearchName is the normalized text a profile is matched on.
func SearchName(p nostr.Profile) string {
	return Normalize(strings.TrimSpace(p.Name + " " + p.DisplayName))
}

// Normalize folds case and compatibility forms so that profile search is
// insensitive to both ("Ａlice" matches "alice").
func Normalize(s string) string {
	return cases.Fold().String(norm.NFKC.String(s))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
