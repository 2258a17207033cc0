package ndb

import (
	"encoding/binary"
	"errors"

	"github.com/roach88/ndb/internal/boundary"
	"github.com/roach88/ndb/internal/handle"
	"github.com/roach88/ndb/internal/native"
	"github.com/roach88/ndb/nostr"
)

// Single-letter tag names with shorthand builder methods.
const (
	TagPubKey     = "p"
	TagEvent      = "e"
	TagIdentifier = "d"
)

// FilterBuilder accumulates note criteria.
//
// Each mutator hands the engine the current builder handle and stores the
// replacement it returns; the previous handle is never used again. The
// first error sticks: later mutators are no-ops and Build returns it.
// After Build, successful or not, the builder is terminal: every further
// call fails with BUILDER_TERMINAL, which replaces any earlier error.
//
// A FilterBuilder is not safe for concurrent use.
type FilterBuilder struct {
	guard *handle.Guard
	built bool
	err   error
}

// NewFilterBuilder starts an empty filter.
func NewFilterBuilder() *FilterBuilder {
	id, err := boundary.Call("filterNew", native.FilterNew)
	b := &FilterBuilder{
		guard: handle.NewGuard(handle.Handle{ID: id, Kind: handle.KindFilterBuilder}, func(h handle.Handle) {
			boundary.Teardown("filterBuilderDestroy", func() { native.FilterBuilderDestroy(h.ID) })
		}),
	}
	switch {
	case err != nil:
		b.err = translate("filterNew", CodeFilterBuildFailure, err)
	case id == 0:
		b.err = failure(CodeFilterBuildFailure, "filterNew", "engine could not allocate builder")
	}
	return b
}

// Err returns the sticky error, if any.
func (b *FilterBuilder) Err() error {
	return b.err
}

// IsOpen reports whether the builder still owns a handle.
func (b *FilterBuilder) IsOpen() bool {
	return b.guard.IsOpen()
}

func (b *FilterBuilder) fail(err error) *FilterBuilder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// ready reports whether a mutator may proceed, recording why not.
func (b *FilterBuilder) ready(op string) bool {
	if b.built {
		b.err = failure(CodeBuilderTerminal, op, "filter builder already built")
		return false
	}
	return b.err == nil
}

// replace passes the current handle to call and installs its result.
func (b *FilterBuilder) replace(op string, call func(h int64) int64) *FilterBuilder {
	err := b.guard.Mutate(func(h handle.Handle) (handle.Handle, error) {
		next, err := boundary.Call(op, func() int64 { return call(h.ID) })
		return handle.Handle{ID: next, Kind: handle.KindFilterBuilder}, err
	})
	if errors.Is(err, handle.ErrConsumed) {
		return b.fail(failure(CodeFilterBuildFailure, op, "engine rejected criteria"))
	}
	if err != nil {
		return b.fail(translate(op, CodeFilterBuildFailure, err))
	}
	return b
}

// Kinds restricts matches to the given event kinds. No kinds is a no-op.
func (b *FilterBuilder) Kinds(kinds ...int) *FilterBuilder {
	const op = "filterKinds"
	if !b.ready(op) || len(kinds) == 0 {
		return b
	}
	buf := make([]byte, 0, 4*len(kinds))
	for _, k := range kinds {
		if k < 0 || k > 65535 {
			return b.fail(invalidArgument(op, "kind %d out of range", k))
		}
		buf = binary.LittleEndian.AppendUint32(buf, uint32(k))
	}
	return b.replace(op, func(h int64) int64 { return native.FilterKinds(h, buf) })
}

// Authors restricts matches to the given 32-byte pubkeys. No authors is a
// no-op.
func (b *FilterBuilder) Authors(pubkeys ...[]byte) *FilterBuilder {
	const op = "filterAuthors"
	if !b.ready(op) || len(pubkeys) == 0 {
		return b
	}
	buf := make([]byte, 0, idSize*len(pubkeys))
	for i, pk := range pubkeys {
		if len(pk) != idSize {
			return b.fail(invalidArgument(op, "author %d must be %d bytes, got %d", i, idSize, len(pk)))
		}
		buf = append(buf, pk...)
	}
	return b.replace(op, func(h int64) int64 { return native.FilterAuthors(h, buf) })
}

// AuthorsHex is Authors with hex-encoded pubkeys.
func (b *FilterBuilder) AuthorsHex(pubkeys ...string) *FilterBuilder {
	if !b.ready("filterAuthors") {
		return b
	}
	raw := make([][]byte, len(pubkeys))
	for i, s := range pubkeys {
		pk, err := nostr.DecodeHex(s)
		if err != nil {
			return b.fail(invalidArgument("filterAuthors", "author %d: %v", i, err))
		}
		raw[i] = pk
	}
	return b.Authors(raw...)
}

// Tag matches notes carrying tag name with any of values. An empty name
// or no values is a no-op.
func (b *FilterBuilder) Tag(name string, values ...string) *FilterBuilder {
	const op = "filterTag"
	if !b.ready(op) || name == "" || len(values) == 0 {
		return b
	}
	vals := append([]string(nil), values...)
	return b.replace(op, func(h int64) int64 { return native.FilterTag(h, name, vals) })
}

// PTag matches notes referencing any of the given hex pubkeys.
func (b *FilterBuilder) PTag(pubkeys ...string) *FilterBuilder {
	return b.Tag(TagPubKey, pubkeys...)
}

// ETag matches notes referencing any of the given hex event ids.
func (b *FilterBuilder) ETag(ids ...string) *FilterBuilder {
	return b.Tag(TagEvent, ids...)
}

// DTag matches parameterized replaceable notes by identifier.
func (b *FilterBuilder) DTag(identifiers ...string) *FilterBuilder {
	return b.Tag(TagIdentifier, identifiers...)
}

// Since matches notes created at or after ts (unix seconds).
func (b *FilterBuilder) Since(ts int64) *FilterBuilder {
	const op = "filterSince"
	if !b.ready(op) {
		return b
	}
	return b.replace(op, func(h int64) int64 { return native.FilterSince(h, ts) })
}

// Until matches notes created at or before ts (unix seconds).
func (b *FilterBuilder) Until(ts int64) *FilterBuilder {
	const op = "filterUntil"
	if !b.ready(op) {
		return b
	}
	return b.replace(op, func(h int64) int64 { return native.FilterUntil(h, ts) })
}

// Limit caps how many notes a query with this filter returns. n must
// satisfy 0 < n <= MaxLimit.
func (b *FilterBuilder) Limit(n int) *FilterBuilder {
	const op = "filterLimit"
	if !b.ready(op) {
		return b
	}
	if err := checkLimit(op, n); err != nil {
		return b.fail(err)
	}
	return b.replace(op, func(h int64) int64 { return native.FilterLimit(h, int32(n)) })
}

// Search matches notes whose content contains every whitespace-separated
// term. An empty query is a no-op.
func (b *FilterBuilder) Search(query string) *FilterBuilder {
	const op = "filterSearch"
	if !b.ready(op) || query == "" {
		return b
	}
	return b.replace(op, func(h int64) int64 { return native.FilterSearch(h, query) })
}

// Build finalizes the criteria into a Filter. The builder becomes
// terminal whether or not Build succeeds.
func (b *FilterBuilder) Build() (*Filter, error) {
	const op = "filterBuild"
	if b.built {
		return nil, failure(CodeBuilderTerminal, op, "filter builder already built")
	}
	b.built = true

	if b.err != nil {
		b.guard.Close()
		return nil, b.err
	}
	h, err := b.guard.Take()
	if err != nil {
		return nil, translate(op, CodeFilterBuildFailure, err)
	}

	id, err := boundary.Call(op, func() int64 { return native.FilterBuild(h.ID) })
	if err != nil {
		return nil, translate(op, CodeFilterBuildFailure, err)
	}
	if id == 0 {
		return nil, failure(CodeFilterBuildFailure, op, "engine could not build filter")
	}
	return newFilter(id), nil
}

// Close releases a builder that will not be built. Idempotent; a no-op
// after Build.
func (b *FilterBuilder) Close() error {
	b.guard.Close()
	return nil
}

// Filter is finalized, immutable note criteria. Not safe for concurrent
// use.
type Filter struct {
	guard *handle.Guard
}

func newFilter(id int64) *Filter {
	return &Filter{
		guard: handle.NewGuard(handle.Handle{ID: id, Kind: handle.KindFilter}, func(h handle.Handle) {
			boundary.Teardown("filterDestroy", func() { native.FilterDestroy(h.ID) })
		}),
	}
}

// IsOpen reports whether Close has not been called.
func (f *Filter) IsOpen() bool {
	return f.guard.IsOpen()
}

// Close releases the filter. Subscriptions created from it keep working.
func (f *Filter) Close() error {
	f.guard.Close()
	return nil
}

func (f *Filter) use(op string, fn func(fh int64) error) error {
	err := f.guard.Use(func(h handle.Handle) error {
		return fn(h.ID)
	})
	return translate(op, CodeQueryFailure, err)
}
