package testutil

import (
	"encoding/json"
	"strings"

	"github.com/roach88/ndb/nostr"
)

// Fixture keys. Signatures are never checked by the engine, so a zero
// signature of the right shape is enough.
var (
	AlicePubKey = strings.Repeat("a1", 32)
	BobPubKey   = strings.Repeat("b0", 32)
	ZeroSig     = strings.Repeat("0", 128)
)

// EventFactory builds well-formed events with correct ids.
//
// Timestamps come from a DeterministicClock, so the same sequence of calls
// always yields the same ids.
type EventFactory struct {
	Clock  *DeterministicClock
	PubKey string
}

// NewEventFactory creates a factory authoring events as AlicePubKey.
func NewEventFactory() *EventFactory {
	return &EventFactory{
		Clock:  NewDeterministicClock(DefaultEpoch),
		PubKey: AlicePubKey,
	}
}

// As returns a factory sharing the same clock but authoring as pubkey.
func (f *EventFactory) As(pubkey string) *EventFactory {
	return &EventFactory{Clock: f.Clock, PubKey: pubkey}
}

// Note builds a note of the given kind with the next timestamp.
func (f *EventFactory) Note(kind int, content string, tags ...nostr.Tag) nostr.Note {
	return f.NoteAt(f.Clock.Next(), kind, content, tags...)
}

// NoteAt builds a note with an explicit created_at.
func (f *EventFactory) NoteAt(createdAt int64, kind int, content string, tags ...nostr.Tag) nostr.Note {
	if tags == nil {
		tags = nostr.Tags{}
	}
	n := nostr.Note{
		PubKey:    f.PubKey,
		CreatedAt: createdAt,
		Kind:      kind,
		Tags:      tags,
		Content:   content,
		Sig:       ZeroSig,
	}
	n.ID = nostr.ComputeID(n)
	return n
}

// TextNote builds a kind-1 note.
func (f *EventFactory) TextNote(content string, tags ...nostr.Tag) nostr.Note {
	return f.Note(nostr.KindTextNote, content, tags...)
}

// Metadata builds a kind-0 note whose content is p encoded as JSON.
func (f *EventFactory) Metadata(p nostr.Profile) nostr.Note {
	b, err := json.Marshal(p)
	if err != nil {
		panic(err)
	}
	return f.Note(nostr.KindMetadata, string(b))
}

// JSON encodes n as a single line.
func JSON(n nostr.Note) string {
	b, err := json.Marshal(n)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// Batch encodes notes as newline-delimited JSON.
func Batch(notes ...nostr.Note) string {
	lines := make([]string, len(notes))
	for i, n := range notes {
		lines[i] = JSON(n)
	}
	return strings.Join(lines, "\n")
}
