package native

import (
	"fmt"
	"sync"
)

type kind uint8

const (
	kindDatabase kind = iota + 1
	kindTransaction
	kindFilterBuilder
	kindFilter
)

func (k kind) String() string {
	switch k {
	case kindDatabase:
		return "database"
	case kindTransaction:
		return "transaction"
	case kindFilterBuilder:
		return "filter builder"
	case kindFilter:
		return "filter"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Handle layout:
//
//	bits 56..62  kind
//	bits 32..55  generation
//	bits  0..31  slot index + 1
const (
	indexBits = 32
	genBits   = 24
	genMask   = 1<<genBits - 1
	indexMask = 1<<indexBits - 1
)

func pack(k kind, gen uint32, idx int) int64 {
	return int64(k)<<(indexBits+genBits) | int64(gen&genMask)<<indexBits | int64(idx+1)
}

func unpack(h int64) (kind, uint32, int) {
	return kind(h >> (indexBits + genBits)), uint32(h>>indexBits) & genMask, int(h&indexMask) - 1
}

type slot struct {
	value any
	kind  kind
	gen   uint32
	live  bool
}

// table is a generation-checked slot table. Freed slots are reused; each
// reuse bumps the slot's generation.
type table struct {
	mu    sync.Mutex
	slots []slot
	free  []int
}

func newTable() *table {
	return &table{
		slots: make([]slot, 0, 64),
		free:  make([]int, 0, 16),
	}
}

var handles = newTable()

func (t *table) insert(k kind, v any) int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n := len(t.free); n > 0 {
		idx := t.free[n-1]
		t.free = t.free[:n-1]
		s := &t.slots[idx]
		s.value, s.kind, s.live = v, k, true
		return pack(k, s.gen, idx)
	}

	t.slots = append(t.slots, slot{value: v, kind: k, live: true})
	return pack(k, 0, len(t.slots)-1)
}

// lookup returns the live slot for h. Caller holds t.mu.
func (t *table) lookup(h int64, want kind) *slot {
	k, gen, idx := unpack(h)
	if k != want {
		panic(fmt.Sprintf("native: handle %#x is a %s, expected %s", h, k, want))
	}
	if idx < 0 || idx >= len(t.slots) {
		panic(fmt.Sprintf("native: invalid %s handle %#x", want, h))
	}
	s := &t.slots[idx]
	if !s.live || s.gen&genMask != gen {
		panic(fmt.Sprintf("native: use of destroyed %s handle %#x", want, h))
	}
	return s
}

// get returns the value behind h. Panics if h is not a live handle of kind
// want.
func (t *table) get(h int64, want kind) any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lookup(h, want).value
}

// remove destroys h and returns its value. Panics like get.
func (t *table) remove(h int64, want kind) any {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := t.lookup(h, want)
	v := s.value
	s.value = nil
	s.live = false
	s.gen++
	_, _, idx := unpack(h)
	t.free = append(t.free, idx)
	return v
}

// live counts live handles of kind k.
func (t *table) live(k kind) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := 0
	for _, s := range t.slots {
		if s.live && s.kind == k {
			n++
		}
	}
	return n
}
