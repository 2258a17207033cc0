package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sort"

	"github.com/roach88/ndb/internal/testutil"
	"github.com/roach88/ndb/ndb"
	"github.com/roach88/ndb/nostr"
)

// aliases maps scenario author names to fixture pubkeys.
var aliases = map[string]string{
	"alice": testutil.AlicePubKey,
	"bob":   testutil.BobPubKey,
}

// Harness executes one scenario against one database.
type Harness struct {
	db      *ndb.Database
	factory *testutil.EventFactory
	subs    map[string]*ndb.Subscription
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh temporary directory that is removed
// afterwards. An error is returned only when the scenario cannot be run at
// all; failed expectations are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "ndb-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario dir: %w", err)
	}
	defer os.RemoveAll(dir)

	db, err := ndb.Open(dir, ndb.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	h := &Harness{
		db:      db,
		factory: testutil.NewEventFactory(),
		subs:    make(map[string]*ndb.Subscription),
	}
	defer h.closeSubs()

	if len(scenario.Setup) > 0 {
		if _, err := db.ProcessEvents(h.batch(scenario.Setup)); err != nil {
			return nil, fmt.Errorf("failed to ingest setup notes: %w", err)
		}
	}

	result := NewResult()
	for i, step := range scenario.Flow {
		ev, err := h.execute(step)
		if err != nil {
			return nil, fmt.Errorf("flow[%d]: %w", i, err)
		}
		ev = result.record(ev)
		if step.Expect != nil {
			checkExpect(result, ev, step.Expect)
		}
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) closeSubs() {
	for _, sub := range h.subs {
		sub.Close()
	}
}

func (h *Harness) execute(step Step) (TraceEvent, error) {
	ev := TraceEvent{Step: step.Step, Sub: step.Sub}
	switch step.Step {
	case StepIngest:
		n, err := h.db.ProcessEvents(h.batch(step.Notes))
		ev.Count = n
		ev.Error = errorCode(err)

	case StepIngestRaw:
		if err := h.db.ProcessEvent(step.Raw); err != nil {
			ev.Error = errorCode(err)
		} else {
			ev.Count = 1
		}

	case StepQuery:
		limit := step.Limit
		if limit == 0 {
			limit = ndb.DefaultQueryLimit
		}
		contents, err := h.query(step.Filter, limit)
		ev.Count = len(contents)
		ev.Contents = contents
		ev.Error = errorCode(err)

	case StepSubscribe:
		if _, dup := h.subs[step.Sub]; dup {
			return ev, fmt.Errorf("subscription %q already exists", step.Sub)
		}
		sub, err := h.subscribe(step.Filter)
		if err == nil {
			h.subs[step.Sub] = sub
		}
		ev.Error = errorCode(err)

	case StepPoll:
		sub, ok := h.subs[step.Sub]
		if !ok {
			return ev, fmt.Errorf("unknown subscription %q", step.Sub)
		}
		limit := step.Limit
		if limit == 0 {
			limit = ndb.DefaultPollLimit
		}
		contents, err := h.poll(sub, limit)
		ev.Count = len(contents)
		ev.Contents = contents
		ev.Error = errorCode(err)

	case StepUnsubscribe:
		sub, ok := h.subs[step.Sub]
		if !ok {
			return ev, fmt.Errorf("unknown subscription %q", step.Sub)
		}
		ev.Error = errorCode(h.db.Unsubscribe(sub))

	case StepProfile:
		var p nostr.Profile
		var found bool
		err := h.db.View(func(txn *ndb.Transaction) error {
			var err error
			p, found, err = h.db.GetProfileHex(txn, resolveAuthor(step.Author))
			return err
		})
		if found {
			ev.Count = 1
			ev.Contents = []string{p.BestDisplayName()}
		}
		ev.Error = errorCode(err)

	case StepSearchProfiles:
		limit := step.Limit
		if limit == 0 {
			limit = ndb.DefaultQueryLimit
		}
		var keys [][32]byte
		err := h.db.View(func(txn *ndb.Transaction) error {
			var err error
			keys, err = h.db.SearchProfiles(txn, step.Query, limit)
			return err
		})
		for _, k := range keys {
			ev.Contents = append(ev.Contents, authorName(nostr.EncodeHex(k[:])))
		}
		ev.Count = len(keys)
		ev.Error = errorCode(err)

	case StepClose:
		ev.Error = errorCode(h.db.Close())

	default:
		return ev, fmt.Errorf("unknown step %q", step.Step)
	}
	return ev, nil
}

func (h *Harness) query(spec *FilterSpec, limit int) ([]string, error) {
	filter, err := buildFilter(spec)
	if err != nil {
		return nil, err
	}
	defer filter.Close()

	var contents []string
	err = h.db.View(func(txn *ndb.Transaction) error {
		notes, err := h.db.QueryNotes(txn, filter, limit)
		if err != nil {
			return err
		}
		for _, n := range notes {
			contents = append(contents, n.Content)
		}
		return nil
	})
	return contents, err
}

func (h *Harness) subscribe(spec *FilterSpec) (*ndb.Subscription, error) {
	filter, err := buildFilter(spec)
	if err != nil {
		return nil, err
	}
	defer filter.Close()
	return h.db.Subscribe(filter)
}

func (h *Harness) poll(sub *ndb.Subscription, limit int) ([]string, error) {
	keys, err := h.db.PollForNotes(sub, limit)
	if err != nil || len(keys) == 0 {
		return nil, err
	}

	var contents []string
	err = h.db.View(func(txn *ndb.Transaction) error {
		for _, key := range keys {
			n, found, err := h.db.GetNoteByKey(txn, key)
			if err != nil {
				return err
			}
			if found {
				contents = append(contents, n.Content)
			}
		}
		return nil
	})
	return contents, err
}

func (h *Harness) batch(specs []NoteSpec) string {
	notes := make([]nostr.Note, len(specs))
	for i, spec := range specs {
		notes[i] = h.note(spec)
	}
	return testutil.Batch(notes...)
}

func (h *Harness) note(spec NoteSpec) nostr.Note {
	f := h.factory.As(resolveAuthor(spec.As))
	var tags nostr.Tags
	for _, t := range spec.Tags {
		tag := slices.Clone(t)
		if len(tag) >= 2 && tag[0] == ndb.TagPubKey {
			tag[1] = resolveAuthor(tag[1])
		}
		tags = append(tags, nostr.Tag(tag))
	}
	if spec.At != nil {
		return f.NoteAt(testutil.DefaultEpoch+*spec.At, spec.Kind, spec.Content, tags...)
	}
	return f.Note(spec.Kind, spec.Content, tags...)
}

func buildFilter(spec *FilterSpec) (*ndb.Filter, error) {
	b := ndb.NewFilterBuilder()
	if len(spec.Kinds) > 0 {
		b.Kinds(spec.Kinds...)
	}
	if len(spec.Authors) > 0 {
		authors := make([]string, len(spec.Authors))
		for i, a := range spec.Authors {
			authors[i] = resolveAuthor(a)
		}
		b.AuthorsHex(authors...)
	}

	names := make([]string, 0, len(spec.Tags))
	for name := range spec.Tags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		values := spec.Tags[name]
		if name == ndb.TagPubKey {
			values = make([]string, len(spec.Tags[name]))
			for i, v := range spec.Tags[name] {
				values[i] = resolveAuthor(v)
			}
		}
		b.Tag(name, values...)
	}

	if spec.Since != nil {
		b.Since(testutil.DefaultEpoch + *spec.Since)
	}
	if spec.Until != nil {
		b.Until(testutil.DefaultEpoch + *spec.Until)
	}
	if spec.Limit != 0 {
		b.Limit(spec.Limit)
	}
	if spec.Search != "" {
		b.Search(spec.Search)
	}
	return b.Build()
}

// resolveAuthor maps an alias to its pubkey. An empty name is alice.
func resolveAuthor(name string) string {
	if name == "" {
		return testutil.AlicePubKey
	}
	if pk, ok := aliases[name]; ok {
		return pk
	}
	return name
}

func authorName(pubkey string) string {
	for name, pk := range aliases {
		if pk == pubkey {
			return name
		}
	}
	return pubkey
}

// errorCode reduces err to its ndb error code for the trace.
func errorCode(err error) string {
	if err == nil {
		return ""
	}
	var e *ndb.Error
	if errors.As(err, &e) {
		return string(e.Code)
	}
	return err.Error()
}

func checkExpect(result *Result, ev TraceEvent, want *Expect) {
	if ev.Error != want.Error {
		result.AddError(fmt.Sprintf("step %d (%s): expected error %q, got %q", ev.Seq, ev.Step, want.Error, ev.Error))
		return
	}
	if want.Count != nil && ev.Count != *want.Count {
		result.AddError(fmt.Sprintf("step %d (%s): expected count %d, got %d", ev.Seq, ev.Step, *want.Count, ev.Count))
	}
	if want.Contents != nil && !slices.Equal(ev.Contents, want.Contents) {
		result.AddError(fmt.Sprintf("step %d (%s): expected contents %q, got %q", ev.Seq, ev.Step, want.Contents, ev.Contents))
	}
}
