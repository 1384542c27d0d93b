package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		scenario, err := LoadScenario(file)
		require.NoError(t, err, file)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, strings.Join(result.Errors, "\n"))
		})
	}
}

func TestRun_DeleteConfirmed(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/delete_confirmed.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, []string{"ListEntries(name.asc)", "DeleteEntry(id=2)", "ListEntries(name.asc)"}, result.Calls)
	assert.Equal(t, ScreenState{
		Phase:   "ready",
		Names:   []string{"Caneca"},
		Summary: "ready [#1 Caneca 25]",
	}, result.States[ScreenList])
	assert.NotContains(t, result.States, ScreenDetail)
}

func TestRun_FailingAssertionsAreReported(t *testing.T) {
	scenario := &Scenario{
		Name:        "wrong_expectations",
		Description: "Assertions that do not hold",
		Gateway: map[string][]Reply{
			"ListEntries": {{Entries: []EntryFixture{{ID: 1, Name: "Caneca", Price: "25"}}}},
		},
		Flow: []FlowStep{{Screen: ScreenList, Action: "activate"}},
		Assertions: []Assertion{
			{Type: AssertState, Screen: ScreenList, Phase: "error"},
			{Type: AssertState, Screen: ScreenList, Phase: "ready", Names: []string{"Livro"}},
			{Type: AssertState, Screen: ScreenForm, Phase: "ready"},
			{Type: AssertNotice, Title: "Success"},
			{Type: AssertCalls, Calls: []string{}},
			{Type: AssertCallCount, Method: "ListEntries", Count: 2},
			{Type: AssertNavigation, Target: "ProductDetailScreen", ID: 1},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 7)
	assert.Contains(t, result.Errors[0], `Actual: list ready ""`)
	assert.Contains(t, result.Errors[1], "list showing [Caneca]")
	assert.Contains(t, result.Errors[2], "screen never activated")
	assert.Contains(t, result.Errors[5], "called 1 times")
	assert.Contains(t, result.Errors[6], "navigation to ProductDetailScreen id=1")
}

func TestRun_UnscriptedCallFailsLikeTheBackend(t *testing.T) {
	scenario := &Scenario{
		Name:        "unscripted",
		Description: "No replies queued",
		Flow:        []FlowStep{{Screen: ScreenList, Action: "activate"}},
		Assertions:  []Assertion{{Type: AssertState, Screen: ScreenList, Phase: "error"}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass, result.Errors)
	assert.Equal(t, "error: fake gateway: no scripted response for ListEntries", result.States[ScreenList].Summary)
}

func TestRun_DeactivatedListIgnoresRefresh(t *testing.T) {
	scenario := &Scenario{
		Name:        "deactivated",
		Description: "Refresh after deactivate does nothing",
		Gateway: map[string][]Reply{
			"ListEntries": {{}, {}},
		},
		Flow: []FlowStep{
			{Screen: ScreenList, Action: "activate"},
			{Screen: ScreenList, Action: "deactivate"},
			{Screen: ScreenList, Action: "refresh"},
		},
		Assertions: []Assertion{{Type: AssertCallCount, Method: "ListEntries", Count: 1}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
	assert.Len(t, result.Trace, 3)
}

func TestRun_Navigation(t *testing.T) {
	scenario := &Scenario{
		Name:        "navigation",
		Description: "List navigation requests",
		Flow: []FlowStep{
			{Screen: ScreenList, Action: "open", ID: 4},
			{Screen: ScreenList, Action: "edit", ID: 4},
			{Screen: ScreenList, Action: "add"},
		},
		Assertions: []Assertion{
			{Type: AssertNavigation, Target: "ProductDetailScreen", ID: 4},
			{Type: AssertNavigation, Target: "ProductFormScreen", ID: 4},
			{Type: AssertNavigation, Target: "ProductFormScreen"},
			{Type: AssertCalls, Calls: []string{}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, result.Errors)
}

func TestRun_StepBeforeActivate(t *testing.T) {
	scenario := &Scenario{
		Name:        "early",
		Description: "Retry before the detail exists",
		Flow:        []FlowStep{{Screen: ScreenDetail, Action: "retry"}},
		Assertions:  []Assertion{{Type: AssertCalls, Calls: []string{}}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flow step 0: detail retry before activate")
}

func TestRun_BadFixturePrice(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_price",
		Description: "Fixture price is not a number",
		Gateway: map[string][]Reply{
			"ListEntries": {{Entries: []EntryFixture{{ID: 1, Name: "A", Price: "abc"}}}},
		},
		Flow:       []FlowStep{{Screen: ScreenList, Action: "activate"}},
		Assertions: []Assertion{{Type: AssertCalls, Calls: []string{}}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gateway.ListEntries: reply 0: entry 1")
}
