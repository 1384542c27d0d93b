package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/roach88/storefront/internal/catalog"
	"github.com/roach88/storefront/internal/gateway"
	"github.com/roach88/storefront/internal/testutil"
	"github.com/roach88/storefront/internal/viewmodel"
)

// Harness runs one scenario. It plays the UI around the view-models: it
// records every navigation request, notice and prompt into the trace and
// answers prompts from the scenario's script.
//
// Flow steps run one after another on the calling goroutine, so the trace
// order is deterministic.
type Harness struct {
	mu      sync.Mutex
	result  *Result
	answers []bool

	fake   *testutil.FakeGateway
	gw     *tracingGateway
	logger *slog.Logger

	list   *viewmodel.CatalogList
	detail *viewmodel.EntryDetail
	form   *viewmodel.EntryForm
}

var (
	_ viewmodel.Navigator = (*Harness)(nil)
	_ viewmodel.Notifier  = (*Harness)(nil)
	_ viewmodel.Confirmer = (*Harness)(nil)
)

// Run executes a scenario and evaluates its assertions.
func Run(scenario *Scenario) (*Result, error) {
	fake := testutil.NewFakeGateway()
	for _, method := range scriptedMethods {
		replies, err := buildReplies(scenario.Gateway[method])
		if err != nil {
			return nil, fmt.Errorf("gateway.%s: %w", method, err)
		}
		fake.Script(method, replies...)
	}

	h := &Harness{
		result:  NewResult(),
		answers: append([]bool(nil), scenario.Confirm...),
		fake:    fake,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	h.gw = &tracingGateway{FakeGateway: fake, h: h}
	h.list = viewmodel.NewCatalogList(h.gw, h, h, h, viewmodel.WithLogger(h.logger))
	h.list.Subscribe(func(st viewmodel.ListState) {
		h.record(KindState, ScreenList, describeList(st))
	})

	ctx := context.Background()
	for i, step := range scenario.Flow {
		if err := h.execute(ctx, step); err != nil {
			return nil, fmt.Errorf("flow step %d: %w", i, err)
		}
		h.logger.Info("flow step completed", "step", i, "screen", step.Screen, "action", step.Action)
	}

	result := h.finish()
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) execute(ctx context.Context, step FlowStep) error {
	switch step.Screen {
	case ScreenList:
		switch step.Action {
		case "activate":
			h.list.OnActivate(ctx)
		case "refresh":
			h.list.Refresh(ctx)
		case "delete":
			h.list.RequestDelete(ctx, step.ID)
		case "deactivate":
			h.list.Deactivate()
		case "open":
			h.list.Open(step.ID)
		case "edit":
			h.list.Edit(step.ID)
		case "add":
			h.list.Add()
		}

	case ScreenDetail:
		if step.Action == "activate" {
			if h.detail != nil {
				h.detail.Deactivate()
			}
			d := viewmodel.NewEntryDetail(h.gw, step.ID, h, h, viewmodel.WithLogger(h.logger))
			d.Subscribe(func(st viewmodel.DetailState) {
				h.record(KindState, ScreenDetail, describeDetail(st))
			})
			h.detail = d
			d.OnActivate(ctx)
			return nil
		}
		if h.detail == nil {
			return fmt.Errorf("detail %s before activate", step.Action)
		}
		switch step.Action {
		case "retry":
			h.detail.Retry(ctx)
		case "edit":
			h.detail.Edit()
		case "back":
			h.detail.Back()
		case "deactivate":
			h.detail.Deactivate()
		}

	case ScreenForm:
		if step.Action == "activate" {
			if h.form != nil {
				h.form.Deactivate()
			}
			f := viewmodel.NewEntryForm(h.gw, step.ID, h, h, viewmodel.WithLogger(h.logger))
			f.Subscribe(func(st viewmodel.FormState) {
				h.record(KindState, ScreenForm, describeForm(st))
			})
			h.form = f
			f.OnActivate(ctx)
			return nil
		}
		if h.form == nil {
			return fmt.Errorf("form %s before activate", step.Action)
		}
		switch step.Action {
		case "submit":
			in := viewmodel.FormInput{Name: step.Input.Name, Price: step.Input.Price, Description: step.Input.Description}
			_, _ = h.form.Submit(ctx, in)
		case "deactivate":
			h.form.Deactivate()
		}
	}
	return nil
}

// finish fills in the final states and calls.
func (h *Harness) finish() *Result {
	h.mu.Lock()
	defer h.mu.Unlock()

	r := h.result
	r.States[ScreenList] = listSnapshot(h.list.State())
	if h.detail != nil {
		r.States[ScreenDetail] = detailSnapshot(h.detail.State())
	}
	if h.form != nil {
		r.States[ScreenForm] = formSnapshot(h.form.State())
	}
	for _, c := range h.fake.Calls() {
		r.Calls = append(r.Calls, c.String())
	}
	return r
}

func (h *Harness) record(kind, screen, detail string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.result.record(kind, screen, detail)
}

// NavigateTo implements viewmodel.Navigator.
func (h *Harness) NavigateTo(screen viewmodel.Screen, params viewmodel.Params) {
	detail := string(screen)
	if params.ProductID != 0 {
		detail = fmt.Sprintf("%s id=%d", screen, params.ProductID)
	}
	h.record(KindNavigation, "", detail)
}

// GoBack implements viewmodel.Navigator.
func (h *Harness) GoBack() {
	h.record(KindNavigation, "", "back")
}

// Notify implements viewmodel.Notifier.
func (h *Harness) Notify(n viewmodel.Notice) {
	h.record(KindNotice, "", fmt.Sprintf("%s %s: %s", n.Level, n.Title, n.Message))
}

// Confirm implements viewmodel.Confirmer with the scripted answers.
func (h *Harness) Confirm(_ context.Context, p viewmodel.Prompt) (bool, error) {
	h.mu.Lock()
	answer := false
	if len(h.answers) > 0 {
		answer, h.answers = h.answers[0], h.answers[1:]
	}
	h.mu.Unlock()

	reply := "no"
	if answer {
		reply = "yes"
	}
	h.record(KindPrompt, "", fmt.Sprintf("%s: %s -> %s", p.Title, p.Message, reply))
	return answer, nil
}

// tracingGateway records each catalog call into the trace as it returns,
// between the loading state and the outcome it produces.
type tracingGateway struct {
	*testutil.FakeGateway
	h *Harness
}

func (g *tracingGateway) traceLast() {
	calls := g.FakeGateway.Calls()
	if len(calls) > 0 {
		g.h.record(KindCall, "", calls[len(calls)-1].String())
	}
}

func (g *tracingGateway) ListEntries(ctx context.Context, orderBy string, ascending bool) ([]catalog.Entry, error) {
	defer g.traceLast()
	return g.FakeGateway.ListEntries(ctx, orderBy, ascending)
}

func (g *tracingGateway) GetEntry(ctx context.Context, id int64) (catalog.Entry, error) {
	defer g.traceLast()
	return g.FakeGateway.GetEntry(ctx, id)
}

func (g *tracingGateway) DeleteEntry(ctx context.Context, id int64) error {
	defer g.traceLast()
	return g.FakeGateway.DeleteEntry(ctx, id)
}

func (g *tracingGateway) UpsertEntry(ctx context.Context, draft catalog.Draft) (catalog.Entry, error) {
	defer g.traceLast()
	return g.FakeGateway.UpsertEntry(ctx, draft)
}

func buildReplies(replies []Reply) ([]testutil.Response, error) {
	out := make([]testutil.Response, 0, len(replies))
	for i, r := range replies {
		var resp testutil.Response
		if r.Error != nil {
			resp.Err = &gateway.DataError{
				Code:    gateway.DataErrorCode(r.Error.Code),
				Message: r.Error.Message,
				Status:  r.Error.Status,
			}
		}
		if r.Entries != nil {
			resp.Entries = make([]catalog.Entry, 0, len(r.Entries))
			for _, f := range r.Entries {
				e, err := f.entry()
				if err != nil {
					return nil, fmt.Errorf("reply %d: %w", i, err)
				}
				resp.Entries = append(resp.Entries, e)
			}
		}
		if r.Entry != nil {
			e, err := r.Entry.entry()
			if err != nil {
				return nil, fmt.Errorf("reply %d: %w", i, err)
			}
			resp.Entry = e
		}
		out = append(out, resp)
	}
	return out, nil
}

func (f EntryFixture) entry() (catalog.Entry, error) {
	price, err := catalog.ParsePrice(f.Price)
	if err != nil {
		return catalog.Entry{}, fmt.Errorf("entry %d: price %q: %w", f.ID, f.Price, err)
	}
	return catalog.Entry{ID: f.ID, Name: f.Name, Description: f.Description, Price: price}, nil
}

func describeList(st viewmodel.ListState) string {
	switch {
	case st.IsError():
		return "error: " + st.Message()
	case st.IsLoading():
		if bg, ok := st.Background(); ok {
			return "loading over " + describeEntries(bg)
		}
		return "loading"
	}
	entries, _ := st.Value()
	return "ready " + describeEntries(entries)
}

func describeDetail(st viewmodel.DetailState) string {
	switch {
	case st.IsError():
		return "error: " + st.Message()
	case st.IsLoading():
		return "loading"
	}
	e, _ := st.Value()
	return "ready " + describeEntries([]catalog.Entry{e})
}

func describeForm(st viewmodel.FormState) string {
	switch {
	case st.IsError():
		return "error: " + st.Message()
	case st.IsLoading():
		return "loading"
	}
	d, _ := st.Value()
	if d.IsNew() && d.Name == "" {
		return "ready new"
	}
	return fmt.Sprintf("ready [#%d %s %s]", d.ID, d.Name, d.Price.String())
}

func describeEntries(entries []catalog.Entry) string {
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = fmt.Sprintf("#%d %s %s", e.ID, e.Name, e.Price.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func listSnapshot(st viewmodel.ListState) ScreenState {
	out := ScreenState{Phase: string(st.Phase()), Message: st.Message(), Summary: describeList(st), Names: []string{}}
	entries, ok := st.Value()
	if !ok {
		entries, _ = st.Background()
	}
	for _, e := range entries {
		out.Names = append(out.Names, e.Name)
	}
	return out
}

func detailSnapshot(st viewmodel.DetailState) ScreenState {
	out := ScreenState{Phase: string(st.Phase()), Message: st.Message(), Summary: describeDetail(st), Names: []string{}}
	if e, ok := st.Value(); ok {
		out.Names = append(out.Names, e.Name)
	}
	return out
}

func formSnapshot(st viewmodel.FormState) ScreenState {
	out := ScreenState{Phase: string(st.Phase()), Message: st.Message(), Summary: describeForm(st), Names: []string{}}
	if d, ok := st.Value(); ok && d.Name != "" {
		out.Names = append(out.Names, d.Name)
	}
	return out
}
