package native

import (
	"encoding/binary"
	"encoding/json"
	"slices"

	"github.com/cespare/xxhash/v2"

	"github.com/roach88/ndb/internal/store"
	"github.com/roach88/ndb/nostr"
)

// filterState is the criteria carried by a builder or a finalized filter.
type filterState struct {
	spec  store.Filter
	limit int32
}

type filter struct {
	filterState
	fp uint64
}

func (s filterState) clone() filterState {
	c := filterState{spec: s.spec, limit: s.limit}
	c.spec.Kinds = slices.Clone(s.spec.Kinds)
	c.spec.Authors = slices.Clone(s.spec.Authors)
	c.spec.Tags = make([]store.TagFilter, len(s.spec.Tags))
	for i, tf := range s.spec.Tags {
		c.spec.Tags[i] = store.TagFilter{Name: tf.Name, Values: slices.Clone(tf.Values)}
	}
	if s.spec.Since != nil {
		v := *s.spec.Since
		c.spec.Since = &v
	}
	if s.spec.Until != nil {
		v := *s.spec.Until
		c.spec.Until = &v
	}
	return c
}

// fingerprint identifies a filter's criteria in logs.
func (s filterState) fingerprint() uint64 {
	b, err := json.Marshal(struct {
		Spec  store.Filter
		Limit int32
	}{s.spec, s.limit})
	if err != nil {
		return 0
	}
	return xxhash.Sum64(b)
}

// FilterNew allocates an empty filter builder.
func FilterNew() int64 {
	return handles.insert(kindFilterBuilder, &filterState{})
}

// replaceBuilder consumes b and, if apply succeeds, returns a new builder
// handle holding the updated criteria. On failure the old builder is gone
// and 0 is returned.
func replaceBuilder(b int64, apply func(*filterState) bool) int64 {
	if b == 0 {
		return 0
	}
	st := handles.remove(b, kindFilterBuilder).(*filterState)
	next := st.clone()
	if !apply(&next) {
		return 0
	}
	return handles.insert(kindFilterBuilder, &next)
}

// FilterKinds adds kinds given as little-endian uint32s.
func FilterKinds(b int64, kinds []byte) int64 {
	return replaceBuilder(b, func(s *filterState) bool {
		if len(kinds)%4 != 0 {
			return false
		}
		for i := 0; i < len(kinds); i += 4 {
			s.spec.Kinds = append(s.spec.Kinds, int(binary.LittleEndian.Uint32(kinds[i:])))
		}
		return true
	})
}

// FilterAuthors adds authors given as concatenated 32-byte pubkeys.
func FilterAuthors(b int64, pubkeys []byte) int64 {
	return replaceBuilder(b, func(s *filterState) bool {
		if len(pubkeys)%32 != 0 {
			return false
		}
		for i := 0; i < len(pubkeys); i += 32 {
			s.spec.Authors = append(s.spec.Authors, nostr.EncodeHex(pubkeys[i:i+32]))
		}
		return true
	})
}

// FilterTag adds an exact-match constraint on tag name. Repeated calls for
// the same name widen the accepted values.
func FilterTag(b int64, name string, values []string) int64 {
	return replaceBuilder(b, func(s *filterState) bool {
		if name == "" {
			return false
		}
		for i := range s.spec.Tags {
			if s.spec.Tags[i].Name == name {
				s.spec.Tags[i].Values = append(s.spec.Tags[i].Values, values...)
				return true
			}
		}
		s.spec.Tags = append(s.spec.Tags, store.TagFilter{Name: name, Values: slices.Clone(values)})
		return true
	})
}

// FilterSince sets the inclusive lower created_at bound.
func FilterSince(b int64, since int64) int64 {
	return replaceBuilder(b, func(s *filterState) bool {
		s.spec.Since = &since
		return true
	})
}

// FilterUntil sets the inclusive upper created_at bound.
func FilterUntil(b int64, until int64) int64 {
	return replaceBuilder(b, func(s *filterState) bool {
		s.spec.Until = &until
		return true
	})
}

// FilterLimit caps the number of results a query with this filter returns.
func FilterLimit(b int64, limit int32) int64 {
	return replaceBuilder(b, func(s *filterState) bool {
		if limit <= 0 {
			return false
		}
		s.limit = limit
		return true
	})
}

// FilterSearch sets the full-text search terms.
func FilterSearch(b int64, search string) int64 {
	return replaceBuilder(b, func(s *filterState) bool {
		s.spec.Search = search
		return true
	})
}

// FilterBuild consumes the builder and returns an immutable filter.
func FilterBuild(b int64) int64 {
	if b == 0 {
		return 0
	}
	st := handles.remove(b, kindFilterBuilder).(*filterState)
	f := &filter{filterState: st.clone()}
	f.fp = f.fingerprint()
	return handles.insert(kindFilter, f)
}

// FilterBuilderDestroy releases a builder that was never built.
func FilterBuilderDestroy(b int64) {
	if b == 0 {
		return
	}
	handles.remove(b, kindFilterBuilder)
}

// FilterDestroy releases a filter.
func FilterDestroy(f int64) {
	if f == 0 {
		return
	}
	handles.remove(f, kindFilter)
}

func getFilter(h int64) *filter {
	return handles.get(h, kindFilter).(*filter)
}
