package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s count=%d", ev.Seq, ev.Step, ev.Count)
		if ev.Error != "" {
			fmt.Fprintf(&buf, " error=%s", ev.Error)
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against the result's trace and
// returns one message per failure.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result.Trace, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return failures
}

func evaluate(trace []TraceEvent, a Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(trace, a)
	case AssertTraceCount:
		return assertTraceCount(trace, a)
	case AssertNoErrors:
		return assertNoErrors(trace)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertTraceContains checks that some step, optionally restricted to
// a.Step, returned a.Content.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if a.Step != "" && ev.Step != a.Step {
			continue
		}
		if slices.Contains(ev.Contents, a.Content) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("content %q in trace", a.Content),
		Actual:   "not found",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the listed steps occur in order, not
// necessarily adjacent.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(a.Steps) && ev.Step == a.Steps[next] {
			next++
		}
	}
	if next == len(a.Steps) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("steps in order %v", a.Steps),
		Actual:   fmt.Sprintf("missing %q after %v", a.Steps[next], a.Steps[:next]),
		Trace:    trace,
	}
}

// assertTraceCount checks the total count returned by all a.Step steps.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	total := 0
	for _, ev := range trace {
		if ev.Step == a.Step {
			total += ev.Count
		}
	}
	if total == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: fmt.Sprintf("%s total count %d", a.Step, a.Count),
		Actual:   fmt.Sprintf("%d", total),
		Trace:    trace,
	}
}

func assertNoErrors(trace []TraceEvent) error {
	for _, ev := range trace {
		if ev.Error != "" {
			return &AssertionError{
				Type:     AssertNoErrors,
				Expected: "no step errors",
				Actual:   fmt.Sprintf("step %d (%s) failed with %s", ev.Seq, ev.Step, ev.Error),
				Trace:    trace,
			}
		}
	}
	return nil
}
