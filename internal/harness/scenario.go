package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/storefront/internal/gateway"
	"github.com/roach88/storefront/internal/testutil"
)

// Scenario drives the catalog view-models against a scripted gateway.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Gateway maps a gateway method name (ListEntries, GetEntry,
	// DeleteEntry, UpsertEntry) to the replies it gives, in order.
	Gateway map[string][]Reply `yaml:"gateway,omitempty"`

	// Confirm lists the answers to confirmation prompts, in order. Prompts
	// beyond the list are declined.
	Confirm []bool `yaml:"confirm,omitempty"`

	Flow       []FlowStep  `yaml:"flow"`
	Assertions []Assertion `yaml:"assertions"`
}

// Reply is one scripted gateway reply.
type Reply struct {
	Entries []EntryFixture `yaml:"entries,omitempty"`
	Entry   *EntryFixture  `yaml:"entry,omitempty"`
	Error   *ErrorFixture  `yaml:"error,omitempty"`
}

// EntryFixture is a catalog entry with its price as text.
type EntryFixture struct {
	ID          int64  `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	Price       string `yaml:"price"`
}

// ErrorFixture becomes a *gateway.DataError.
type ErrorFixture struct {
	Code    string `yaml:"code"`
	Message string `yaml:"message"`
	Status  int    `yaml:"status,omitempty"`
}

// FlowStep is one call on a view-model.
type FlowStep struct {
	// Screen is list, detail or form.
	Screen string `yaml:"screen"`
	Action string `yaml:"action"`

	// ID is the entry for delete, open and edit on the list, and the
	// entry a detail or form is created for on activate.
	ID int64 `yaml:"id,omitempty"`

	// Input is the form content for submit.
	Input *FormFixture `yaml:"input,omitempty"`
}

// FormFixture is the text typed into the form.
type FormFixture struct {
	Name        string `yaml:"name"`
	Price       string `yaml:"price"`
	Description string `yaml:"description,omitempty"`
}

// Assertion checks the trace or the final state.
type Assertion struct {
	// Type is one of state, notice, calls, call_count, navigation.
	Type string `yaml:"type"`

	// state: Screen's final Phase, and optionally its Message and the
	// names of the entries it shows.
	Screen  string   `yaml:"screen,omitempty"`
	Phase   string   `yaml:"phase,omitempty"`
	Message string   `yaml:"message,omitempty"`
	Names   []string `yaml:"names,omitempty"`

	// notice: a notice with this Title (and Message and Level when set)
	// was shown.
	Title string `yaml:"title,omitempty"`
	Level string `yaml:"level,omitempty"`

	// calls: the exact gateway calls made.
	Calls []string `yaml:"calls,omitempty"`

	// call_count: Method was called Count times.
	Method string `yaml:"method,omitempty"`
	Count  int    `yaml:"count,omitempty"`

	// navigation: a navigation to Target (with ID when set) was
	// requested, or a back navigation when Back is true.
	Target string `yaml:"target,omitempty"`
	ID     int64  `yaml:"id,omitempty"`
	Back   bool   `yaml:"back,omitempty"`
}

// Assertion types.
const (
	AssertState      = "state"
	AssertNotice     = "notice"
	AssertCalls      = "calls"
	AssertCallCount  = "call_count"
	AssertNavigation = "navigation"
)

// Screens a flow step may target.
const (
	ScreenList   = "list"
	ScreenDetail = "detail"
	ScreenForm   = "form"
)

var screenActions = map[string][]string{
	ScreenList:   {"activate", "refresh", "delete", "deactivate", "open", "edit", "add"},
	ScreenDetail: {"activate", "retry", "edit", "back", "deactivate"},
	ScreenForm:   {"activate", "submit", "deactivate"},
}

var scriptedMethods = []string{
	testutil.MethodListEntries,
	testutil.MethodGetEntry,
	testutil.MethodDeleteEntry,
	testutil.MethodUpsertEntry,
}

var errorCodes = []gateway.DataErrorCode{
	gateway.DataNotFound,
	gateway.DataTransport,
	gateway.DataMalformed,
	gateway.DataInvalid,
	gateway.DataUnauthorized,
	gateway.DataRejected,
	gateway.DataServer,
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for method, replies := range s.Gateway {
		if !slices.Contains(scriptedMethods, method) {
			return fmt.Errorf("gateway: unknown method %q", method)
		}
		for i, r := range replies {
			if r.Error != nil && !slices.Contains(errorCodes, gateway.DataErrorCode(r.Error.Code)) {
				return fmt.Errorf("gateway.%s[%d]: unknown error code %q", method, i, r.Error.Code)
			}
		}
	}

	for i, step := range s.Flow {
		actions, ok := screenActions[step.Screen]
		if !ok {
			return fmt.Errorf("flow[%d]: unknown screen %q", i, step.Screen)
		}
		if !slices.Contains(actions, step.Action) {
			return fmt.Errorf("flow[%d]: screen %s has no action %q", i, step.Screen, step.Action)
		}
		if step.Action == "submit" && step.Input == nil {
			return fmt.Errorf("flow[%d]: input is required for submit", i)
		}
		if step.Screen == ScreenList && (step.Action == "delete" || step.Action == "open" || step.Action == "edit") && step.ID <= 0 {
			return fmt.Errorf("flow[%d]: id is required for %s", i, step.Action)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertState:
		if _, ok := screenActions[a.Screen]; !ok {
			return fmt.Errorf("assertions[%d]: unknown screen %q for state", index, a.Screen)
		}
		if a.Phase == "" {
			return fmt.Errorf("assertions[%d]: phase is required for state", index)
		}
	case AssertNotice:
		if a.Title == "" {
			return fmt.Errorf("assertions[%d]: title is required for notice", index)
		}
	case AssertCalls:
		if a.Calls == nil {
			return fmt.Errorf("assertions[%d]: calls list is required for calls (use [] for none)", index)
		}
	case AssertCallCount:
		if a.Method == "" {
			return fmt.Errorf("assertions[%d]: method is required for call_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for call_count", index)
		}
	case AssertNavigation:
		if a.Target == "" && !a.Back {
			return fmt.Errorf("assertions[%d]: target or back is required for navigation", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
