// Package codec encodes and decodes the small binary buffers that carry
// result lists across the database boundary.
//
// Two layouts exist, both little-endian and prefixed by a 4-byte count:
//
//	key list:    [count u32][key i64] x count
//	pubkey list: [count u32][key 32B] x count
//
// Decoding is lenient: a nil, empty or truncated buffer decodes to an
// empty list, which callers treat as "no results".
package codec

import "encoding/binary"

const (
	countSize  = 4
	keySize    = 8
	pubKeySize = 32
)

// EncodeKeys writes keys in key-list layout.
func EncodeKeys(keys []int64) []byte {
	buf := make([]byte, countSize, countSize+len(keys)*keySize)
	binary.LittleEndian.PutUint32(buf, uint32(len(keys)))
	for _, k := range keys {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(k))
	}
	return buf
}

// DecodeKeys reads a key-list buffer. Returns an empty slice (not nil)
// when the buffer is too short for the count it declares.
func DecodeKeys(buf []byte) []int64 {
	count, ok := readCount(buf, keySize)
	if !ok {
		return []int64{}
	}
	keys := make([]int64, count)
	body := buf[countSize:]
	for i := range keys {
		keys[i] = int64(binary.LittleEndian.Uint64(body[i*keySize:]))
	}
	return keys
}

// EncodePubKeys writes 32-byte keys in pubkey-list layout.
func EncodePubKeys(keys [][32]byte) []byte {
	buf := make([]byte, countSize, countSize+len(keys)*pubKeySize)
	binary.LittleEndian.PutUint32(buf, uint32(len(keys)))
	for _, k := range keys {
		buf = append(buf, k[:]...)
	}
	return buf
}

// DecodePubKeys reads a pubkey-list buffer. Returns an empty slice (not
// nil) when the buffer is too short for the count it declares.
func DecodePubKeys(buf []byte) [][32]byte {
	count, ok := readCount(buf, pubKeySize)
	if !ok {
		return [][32]byte{}
	}
	keys := make([][32]byte, count)
	body := buf[countSize:]
	for i := range keys {
		copy(keys[i][:], body[i*pubKeySize:(i+1)*pubKeySize])
	}
	return keys
}

// readCount returns the declared count if buf holds that many records.
// The length check is done in uint64 so a hostile count cannot overflow.
func readCount(buf []byte, recordSize int) (int, bool) {
	if len(buf) < countSize {
		return 0, false
	}
	count := binary.LittleEndian.Uint32(buf)
	need := uint64(countSize) + uint64(count)*uint64(recordSize)
	if uint64(len(buf)) < need {
		return 0, false
	}
	return int(count), true
}
