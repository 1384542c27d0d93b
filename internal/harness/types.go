package harness

// Trace event kinds.
const (
	KindCall       = "call"
	KindState      = "state"
	KindNotice     = "notice"
	KindNavigation = "navigation"
	KindPrompt     = "prompt"
)

// TraceEvent is one observable effect of a scenario: a gateway call, a
// published view-model state, a notice, a navigation request or a
// confirmation prompt.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	Kind   string `json:"kind"`
	Screen string `json:"screen,omitempty"`
	Detail string `json:"detail"`
}

// ScreenState is the final state of one view-model.
type ScreenState struct {
	Phase   string   `json:"phase"`
	Message string   `json:"message,omitempty"`
	Names   []string `json:"names"`
	Summary string   `json:"summary"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace holds every event in the order it happened.
	Trace []TraceEvent `json:"trace"`

	Errors []string `json:"errors,omitempty"`

	// States holds the final state of each screen the flow used.
	States map[string]ScreenState `json:"states,omitempty"`

	// Calls holds the gateway calls in order, as Call.String renders them.
	Calls []string `json:"calls"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		States: make(map[string]ScreenState),
		Calls:  []string{},
	}
}

// AddError adds an error message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// record appends an event with the next sequence number.
func (r *Result) record(kind, screen, detail string) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:    int64(len(r.Trace) + 1),
		Kind:   kind,
		Screen: screen,
		Detail: detail,
	})
}
