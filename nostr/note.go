package nostr

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tag is a single tag array: name followed by values.
type Tag []string

// Name returns the tag name or "" for an empty tag.
func (t Tag) Name() string {
	if len(t) == 0 {
		return ""
	}
	return t[0]
}

// Value returns the first value of the tag.
// Tags with fewer than two elements have no value.
func (t Tag) Value() (string, bool) {
	if len(t) < 2 {
		return "", false
	}
	return t[1], true
}

// Tags is the ordered tag list of a note.
type Tags []Tag

// Note is an event record as stored by the database.
type Note struct {
	ID        string `json:"id"`
	PubKey    string `json:"pubkey"`
	CreatedAt int64  `json:"created_at"`
	Kind      int    `json:"kind"`
	Tags      Tags   `json:"tags"`
	Content   string `json:"content"`
	Sig       string `json:"sig"`
}

// ParseNote decodes a note from its JSON form.
// Unknown fields are ignored.
func ParseNote(data []byte) (Note, error) {
	var n Note
	if err := json.Unmarshal(data, &n); err != nil {
		return Note{}, fmt.Errorf("parse note: %w", err)
	}
	if n.Tags == nil {
		n.Tags = Tags{}
	}
	return n, nil
}

// MarshalJSON keeps tags as [] rather than null for notes without tags.
func (n Note) MarshalJSON() ([]byte, error) {
	type plain Note
	p := plain(n)
	if p.Tags == nil {
		p.Tags = Tags{}
	}
	return json.Marshal(p)
}

// IDBytes decodes the hex id.
func (n Note) IDBytes() ([]byte, error) {
	return DecodeHex(n.ID)
}

// PubKeyBytes decodes the hex public key.
func (n Note) PubKeyBytes() ([]byte, error) {
	return DecodeHex(n.PubKey)
}

// TagValue returns the second element of the first tag named name.
func (n Note) TagValue(name string) (string, bool) {
	for _, tag := range n.Tags {
		if tag.Name() != name {
			continue
		}
		if v, ok := tag.Value(); ok {
			return v, true
		}
	}
	return "", false
}

// TagValues returns the second element of every tag named name, in order.
// Returns an empty slice (not nil) when nothing matches.
func (n Note) TagValues(name string) []string {
	values := []string{}
	for _, tag := range n.Tags {
		if tag.Name() != name {
			continue
		}
		if v, ok := tag.Value(); ok {
			values = append(values, v)
		}
	}
	return values
}

// IsReplaceable reports whether newer notes of the same kind by the same
// author supersede older ones.
func (n Note) IsReplaceable() bool {
	return n.Kind == KindMetadata || n.Kind == KindContacts ||
		(n.Kind >= 10000 && n.Kind < 20000)
}

// IsParameterizedReplaceable reports whether the note is superseded by newer
// notes sharing its kind, author and "d" tag value.
func (n Note) IsParameterizedReplaceable() bool {
	return n.Kind >= 30000 && n.Kind < 40000
}

// Well-known kinds.
const (
	KindMetadata = 0
	KindTextNote = 1
	KindContacts = 3
)

// String returns a short summary safe for logs.
func (n Note) String() string {
	content := n.Content
	if len(content) > 50 {
		content = truncateRunes(content, 50) + "..."
	}
	return fmt.Sprintf("Note{id=%s, kind=%d, pubkey=%s, created_at=%d, content=%q}",
		abbrev(n.ID), n.Kind, abbrev(n.PubKey), n.CreatedAt, content)
}

func abbrev(hex string) string {
	if len(hex) <= 8 {
		return hex
	}
	return hex[:8] + "..."
}

func truncateRunes(s string, n int) string {
	var b strings.Builder
	count := 0
	for _, r := range s {
		if count == n {
			break
		}
		b.WriteRune(r)
		count++
	}
	return b.String()
}
