package harness

// Step names recorded in the trace.
const (
	StepIngest         = "ingest"
	StepIngestRaw      = "ingest_raw"
	StepQuery          = "query"
	StepSubscribe      = "subscribe"
	StepPoll           = "poll"
	StepUnsubscribe    = "unsubscribe"
	StepProfile        = "profile"
	StepSearchProfiles = "search_profiles"
	StepClose          = "close"
)

// TraceEvent records the observable outcome of one scenario step.
type TraceEvent struct {
	Seq      int      `json:"seq"`
	Step     string   `json:"step"`
	Sub      string   `json:"sub,omitempty"`
	Count    int      `json:"count"`
	Contents []string `json:"contents,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// Result is the outcome of running a scenario.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool

	// Trace holds one event per executed step, in order.
	Trace []TraceEvent

	// Errors lists expectation and assertion failures.
	Errors []string
}

// NewResult creates a passing result with an empty trace.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Pass = false
	r.Errors = append(r.Errors, msg)
}

func (r *Result) record(ev TraceEvent) TraceEvent {
	ev.Seq = len(r.Trace) + 1
	r.Trace = append(r.Trace, ev)
	return ev
}
