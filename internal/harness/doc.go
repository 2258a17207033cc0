// Package harness runs declarative ndb scenarios against a real database.
//
// A scenario is a YAML file listing notes to ingest and reads to perform:
// queries, subscriptions, polls, profile lookups. Each step is executed
// through the public ndb package in a fresh temporary directory and
// recorded as a TraceEvent. Steps may carry inline expectations, and a
// scenario may add assertions over the whole trace.
//
// Timestamps are deterministic. A note without an explicit "at" takes the
// next tick of a testutil.DeterministicClock; "at", "since" and "until" are
// offsets in seconds from testutil.DefaultEpoch. The same scenario therefore
// always produces the same note ids and the same trace, which makes traces
// suitable for golden-file comparison (see RunWithGolden).
//
// Authors are written as aliases ("alice", "bob") or as 64-character hex.
package harness
