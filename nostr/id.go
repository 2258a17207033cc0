package nostr

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
)

// Validation errors returned by Validate.
var (
	ErrInvalidID     = errors.New("nostr: id must be 32 bytes of lowercase hex")
	ErrInvalidPubKey = errors.New("nostr: pubkey must be 32 bytes of lowercase hex")
	ErrInvalidSig    = errors.New("nostr: sig must be 64 bytes of lowercase hex")
	ErrIDMismatch    = errors.New("nostr: id does not match event content")
)

// Serialize produces the NIP-01 commitment for a note:
//
//	[0,<pubkey>,<created_at>,<kind>,<tags>,<content>]
//
// Strings are escaped exactly as NIP-01 requires: only the quote, the
// backslash and the six control characters \b \t \n \f \r are escaped; all
// other characters are written raw.
func Serialize(n Note) []byte {
	buf := make([]byte, 0, 128+len(n.Content))
	buf = append(buf, `[0,`...)
	buf = appendString(buf, n.PubKey)
	buf = append(buf, ',')
	buf = strconv.AppendInt(buf, n.CreatedAt, 10)
	buf = append(buf, ',')
	buf = strconv.AppendInt(buf, int64(n.Kind), 10)
	buf = append(buf, ",["...)
	for i, tag := range n.Tags {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, '[')
		for j, s := range tag {
			if j > 0 {
				buf = append(buf, ',')
			}
			buf = appendString(buf, s)
		}
		buf = append(buf, ']')
	}
	buf = append(buf, "],"...)
	buf = appendString(buf, n.Content)
	buf = append(buf, ']')
	return buf
}

// ComputeID returns the hex sha256 of the note's NIP-01 serialization.
func ComputeID(n Note) string {
	sum := sha256.Sum256(Serialize(n))
	return hex.EncodeToString(sum[:])
}

// Validate checks field shapes and that the id commits to the content.
// Signature math is not checked here.
func Validate(n Note) error {
	if !isFixedHex(n.ID, 32) {
		return ErrInvalidID
	}
	if !isFixedHex(n.PubKey, 32) {
		return ErrInvalidPubKey
	}
	if !isFixedHex(n.Sig, 64) {
		return ErrInvalidSig
	}
	if n.Kind < 0 || n.Kind > 65535 {
		return fmt.Errorf("nostr: kind %d out of range", n.Kind)
	}
	if n.CreatedAt < 0 {
		return fmt.Errorf("nostr: negative created_at %d", n.CreatedAt)
	}
	if got := ComputeID(n); got != n.ID {
		return ErrIDMismatch
	}
	return nil
}

func appendString(buf []byte, s string) []byte {
	buf = append(buf, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			buf = append(buf, '\\', '"')
		case '\\':
			buf = append(buf, '\\', '\\')
		case '\b':
			buf = append(buf, '\\', 'b')
		case '\t':
			buf = append(buf, '\\', 't')
		case '\n':
			buf = append(buf, '\\', 'n')
		case '\f':
			buf = append(buf, '\\', 'f')
		case '\r':
			buf = append(buf, '\\', 'r')
		default:
			buf = append(buf, c)
		}
	}
	return append(buf, '"')
}
