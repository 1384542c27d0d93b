package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails. It carries the
// trace for context.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", event.Seq, event.Kind, event.Detail)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns
// the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertState:
		return assertState(result, a)
	case AssertNotice:
		return assertNotice(result.Trace, a)
	case AssertCalls:
		return assertCalls(result, a)
	case AssertCallCount:
		return assertCallCount(result, a)
	case AssertNavigation:
		return assertNavigation(result.Trace, a)
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
}

func assertState(result *Result, a Assertion) error {
	st, ok := result.States[a.Screen]
	if !ok {
		return &AssertionError{
			Type:     AssertState,
			Expected: fmt.Sprintf("%s screen in phase %s", a.Screen, a.Phase),
			Actual:   "screen never activated",
		}
	}
	if st.Phase != a.Phase || (a.Message != "" && st.Message != a.Message) {
		return &AssertionError{
			Type:     AssertState,
			Expected: fmt.Sprintf("%s %s %q", a.Screen, a.Phase, a.Message),
			Actual:   fmt.Sprintf("%s %s %q", a.Screen, st.Phase, st.Message),
			Trace:    result.Trace,
		}
	}
	if a.Names != nil && !slices.Equal(st.Names, a.Names) {
		return &AssertionError{
			Type:     AssertState,
			Expected: fmt.Sprintf("%s showing %v", a.Screen, a.Names),
			Actual:   fmt.Sprintf("%s showing %v", a.Screen, st.Names),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertNotice looks for a notice with the given title; message and
// level are compared only when set.
func assertNotice(trace []TraceEvent, a Assertion) error {
	for _, event := range trace {
		if event.Kind != KindNotice {
			continue
		}
		level, rest, _ := strings.Cut(event.Detail, " ")
		title, message, _ := strings.Cut(rest, ": ")
		if title != a.Title {
			continue
		}
		if a.Message != "" && message != a.Message {
			continue
		}
		if a.Level != "" && level != a.Level {
			continue
		}
		return nil
	}

	return &AssertionError{
		Type:     AssertNotice,
		Expected: fmt.Sprintf("notice %q %q", a.Title, a.Message),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

func assertCalls(result *Result, a Assertion) error {
	if slices.Equal(result.Calls, a.Calls) {
		return nil
	}
	return &AssertionError{
		Type:     AssertCalls,
		Expected: fmt.Sprintf("%v", a.Calls),
		Actual:   fmt.Sprintf("%v", result.Calls),
	}
}

func assertCallCount(result *Result, a Assertion) error {
	count := 0
	for _, c := range result.Calls {
		if c == a.Method || strings.HasPrefix(c, a.Method+"(") {
			count++
		}
	}
	if count == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertCallCount,
		Expected: fmt.Sprintf("%s called %d times", a.Method, a.Count),
		Actual:   fmt.Sprintf("called %d times", count),
		Trace:    result.Trace,
	}
}

func assertNavigation(trace []TraceEvent, a Assertion) error {
	want := "back"
	if !a.Back {
		want = a.Target
		if a.ID != 0 {
			want = fmt.Sprintf("%s id=%d", a.Target, a.ID)
		}
	}
	for _, event := range trace {
		if event.Kind == KindNavigation && event.Detail == want {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertNavigation,
		Expected: "navigation to " + want,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}
