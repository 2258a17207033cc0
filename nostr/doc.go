// Package nostr defines the plain data-transfer records that cross the
// database boundary as JSON: events (Note) and kind-0 metadata (Profile).
//
// These are values, not resources. They carry no handles and need no
// closing. The package also computes NIP-01 event ids, which the engine
// uses to reject records whose id does not match their content.
//
// # Tag lookup
//
// Tags are ordered string arrays. TagValue returns the second element of
// the first tag whose name matches; TagValues returns the second element of
// every matching tag in original order:
//
//	n.TagValue("p")  // first "p" reference, if any
//	n.TagValues("e") // every "e" reference
package nostr
