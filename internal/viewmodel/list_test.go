package viewmodel_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storefront/internal/catalog"
	"github.com/roach88/storefront/internal/gateway"
	"github.com/roach88/storefront/internal/testutil"
	"github.com/roach88/storefront/internal/viewmodel"
)

type listFixture struct {
	gw      *testutil.FakeGateway
	rec     *testutil.Recorder
	confirm *testutil.ScriptedConfirmer
	list    *viewmodel.CatalogList
}

func newListFixture(answers ...bool) *listFixture {
	f := &listFixture{
		gw:      testutil.NewFakeGateway(),
		rec:     testutil.NewRecorder(),
		confirm: testutil.NewScriptedConfirmer(answers...),
	}
	f.list = viewmodel.NewCatalogList(f.gw, f.rec, f.rec, f.confirm)
	return f
}

func names(t *testing.T, s viewmodel.ListState) []string {
	t.Helper()
	entries, ok := s.Value()
	require.True(t, ok, "state is %s, want Ready", s)
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func TestCatalogList_InitialStateIsLoading(t *testing.T) {
	f := newListFixture()
	assert.True(t, f.list.State().IsLoading())
}

func TestCatalogList_FetchReady(t *testing.T) {
	f := newListFixture()
	f.gw.Script(testutil.MethodListEntries, testutil.Response{Entries: []catalog.Entry{
		testutil.Entry(1, "A", "10"),
		testutil.Entry(2, "B", "20"),
	}})

	state := f.list.OnActivate(context.Background())

	assert.Equal(t, []string{"A", "B"}, names(t, state))
	assert.Empty(t, state.Message())
	assert.Equal(t, []testutil.Call{{Method: testutil.MethodListEntries, Arg: "name.asc"}}, f.gw.Calls())
}

func TestCatalogList_EmptyIsReadyNotError(t *testing.T) {
	f := newListFixture()
	f.gw.Script(testutil.MethodListEntries, testutil.Response{})

	state := f.list.OnActivate(context.Background())

	assert.True(t, state.IsReady())
	assert.False(t, state.IsError())
	assert.True(t, viewmodel.IsEmptyList(state))
}

func TestCatalogList_FetchFailure(t *testing.T) {
	f := newListFixture()
	f.gw.Script(testutil.MethodListEntries, testutil.Response{
		Err: &gateway.DataError{Code: gateway.DataTransport, Message: "network unreachable"},
	})

	state := f.list.OnActivate(context.Background())

	require.True(t, state.IsError())
	assert.Equal(t, "network unreachable", state.Message())
	_, ok := state.Value()
	assert.False(t, ok)

	n, ok := f.rec.LastNotice()
	require.True(t, ok)
	assert.Equal(t, viewmodel.NoticeError, n.Level)
	assert.Equal(t, "network unreachable", n.Message)
}

func TestCatalogList_RetryAfterError(t *testing.T) {
	f := newListFixture()
	f.gw.Script(testutil.MethodListEntries,
		testutil.Response{Err: errors.New("network unreachable")},
		testutil.Response{Entries: []catalog.Entry{testutil.Entry(1, "A", "10")}},
	)
	ctx := context.Background()

	require.True(t, f.list.OnActivate(ctx).IsError())
	assert.Equal(t, []string{"A"}, names(t, f.list.Refresh(ctx)))
}

func TestCatalogList_DeleteConfirmed(t *testing.T) {
	f := newListFixture(true)
	f.gw.Script(testutil.MethodListEntries,
		testutil.Response{Entries: []catalog.Entry{testutil.Entry(1, "A", "10"), testutil.Entry(2, "B", "20")}},
		testutil.Response{Entries: []catalog.Entry{testutil.Entry(1, "A", "10")}},
	)
	f.gw.Script(testutil.MethodDeleteEntry, testutil.Response{})
	ctx := context.Background()

	var seen []viewmodel.Phase
	var mu sync.Mutex
	f.list.Subscribe(func(s viewmodel.ListState) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, s.Phase())
	})

	f.list.OnActivate(ctx)
	deleted, err := f.list.RequestDelete(ctx, 2)

	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, []string{"A"}, names(t, f.list.State()))
	assert.Equal(t, []testutil.Call{
		{Method: testutil.MethodListEntries, Arg: "name.asc"},
		{Method: testutil.MethodDeleteEntry, Arg: "id=2"},
		{Method: testutil.MethodListEntries, Arg: "name.asc"},
	}, f.gw.Calls())

	mu.Lock()
	assert.Equal(t, []viewmodel.Phase{
		viewmodel.PhaseLoading, viewmodel.PhaseReady,
		viewmodel.PhaseLoading, viewmodel.PhaseLoading, viewmodel.PhaseReady,
	}, seen)
	mu.Unlock()

	n, _ := f.rec.LastNotice()
	assert.Equal(t, "Product deleted successfully.", n.Message)
	require.Len(t, f.confirm.Prompts(), 1)
}

func TestCatalogList_DeleteCancelled(t *testing.T) {
	f := newListFixture(false)
	f.gw.Script(testutil.MethodListEntries, testutil.Response{Entries: []catalog.Entry{testutil.Entry(1, "A", "10")}})
	ctx := context.Background()

	f.list.OnActivate(ctx)
	before := f.list.State()

	deleted, err := f.list.RequestDelete(ctx, 1)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Equal(t, before, f.list.State())
	assert.Zero(t, f.gw.CallCount(testutil.MethodDeleteEntry))
	assert.Empty(t, f.rec.Notices())
}

func TestCatalogList_DeleteFailureKeepsList(t *testing.T) {
	f := newListFixture(true)
	f.gw.Script(testutil.MethodListEntries, testutil.Response{Entries: []catalog.Entry{
		testutil.Entry(1, "A", "10"), testutil.Entry(2, "B", "20"),
	}})
	f.gw.Script(testutil.MethodDeleteEntry, testutil.Response{
		Err: &gateway.DataError{Code: gateway.DataUnauthorized, Message: "permission denied"},
	})
	ctx := context.Background()

	f.list.OnActivate(ctx)
	deleted, err := f.list.RequestDelete(ctx, 2)
	assert.False(t, deleted)
	var de *gateway.DataError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, gateway.DataUnauthorized, de.Code)

	assert.Equal(t, []string{"A", "B"}, names(t, f.list.State()))
	assert.Equal(t, 1, f.gw.CallCount(testutil.MethodListEntries))

	n, ok := f.rec.LastNotice()
	require.True(t, ok)
	assert.Equal(t, viewmodel.NoticeError, n.Level)
	assert.Equal(t, "permission denied", n.Message)
}

func TestCatalogList_DeleteBeforeActivateIsIgnored(t *testing.T) {
	f := newListFixture(true)
	deleted, err := f.list.RequestDelete(context.Background(), 1)
	assert.NoError(t, err)
	assert.False(t, deleted)
	assert.Empty(t, f.confirm.Prompts())
}

func TestCatalogList_RefreshKeepsBackground(t *testing.T) {
	f := newListFixture()
	release := make(chan struct{})
	f.gw.Script(testutil.MethodListEntries,
		testutil.Response{Entries: []catalog.Entry{testutil.Entry(1, "A", "10")}},
		testutil.Response{Entries: []catalog.Entry{testutil.Entry(1, "A", "10"), testutil.Entry(2, "B", "20")}, Wait: release},
	)
	ctx := context.Background()
	f.list.OnActivate(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.list.Refresh(ctx)
	}()

	require.Eventually(t, func() bool { return f.gw.CallCount(testutil.MethodListEntries) == 2 }, time.Second, time.Millisecond)
	state := f.list.State()
	require.True(t, state.IsLoading())
	bg, ok := state.Background()
	require.True(t, ok)
	assert.Len(t, bg, 1)

	close(release)
	<-done
	assert.Equal(t, []string{"A", "B"}, names(t, f.list.State()))
}

func TestCatalogList_OverlappingFetchesLastWriterWins(t *testing.T) {
	f := newListFixture()
	slow := make(chan struct{})
	f.gw.Script(testutil.MethodListEntries,
		testutil.Response{Entries: []catalog.Entry{testutil.Entry(9, "stale", "1")}, Wait: slow},
		testutil.Response{Entries: []catalog.Entry{testutil.Entry(1, "fresh", "1")}},
	)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.list.OnActivate(ctx)
	}()
	require.Eventually(t, func() bool { return f.gw.CallCount(testutil.MethodListEntries) == 1 }, time.Second, time.Millisecond)

	f.list.Refresh(ctx)
	assert.Equal(t, []string{"fresh"}, names(t, f.list.State()))

	close(slow)
	<-done
	assert.Equal(t, []string{"fresh"}, names(t, f.list.State()))
}

func TestCatalogList_DeactivateDiscardsInFlight(t *testing.T) {
	f := newListFixture()
	release := make(chan struct{})
	f.gw.Script(testutil.MethodListEntries, testutil.Response{
		Err:  errors.New("network unreachable"),
		Wait: release,
	})
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.list.OnActivate(ctx)
	}()
	require.Eventually(t, func() bool { return f.gw.CallCount(testutil.MethodListEntries) == 1 }, time.Second, time.Millisecond)

	f.list.Deactivate()
	close(release)
	<-done

	assert.True(t, f.list.State().IsLoading())
	assert.Empty(t, f.rec.Notices())

	// Refresh on an inactive screen does nothing.
	f.list.Refresh(ctx)
	assert.Equal(t, 1, f.gw.CallCount(testutil.MethodListEntries))
}

func TestCatalogList_ReactivateRefetches(t *testing.T) {
	f := newListFixture()
	f.gw.Script(testutil.MethodListEntries,
		testutil.Response{Entries: []catalog.Entry{testutil.Entry(1, "A", "10")}},
		testutil.Response{Entries: []catalog.Entry{testutil.Entry(1, "A", "10"), testutil.Entry(3, "C", "5")}},
	)
	ctx := context.Background()

	f.list.OnActivate(ctx)
	f.list.Deactivate()
	assert.Equal(t, []string{"A", "C"}, names(t, f.list.OnActivate(ctx)))
}

func TestCatalogList_Navigation(t *testing.T) {
	f := newListFixture()

	f.list.Open(4)
	f.list.Edit(5)
	f.list.Add()

	assert.Equal(t, []testutil.Navigation{
		{Screen: viewmodel.ProductDetailScreen, Params: viewmodel.Params{ProductID: 4}},
		{Screen: viewmodel.ProductFormScreen, Params: viewmodel.Params{ProductID: 5}},
		{Screen: viewmodel.ProductFormScreen},
	}, f.rec.Navigations())
}

func TestCatalogList_Unsubscribe(t *testing.T) {
	f := newListFixture()
	f.gw.Script(testutil.MethodListEntries, testutil.Response{}, testutil.Response{})
	ctx := context.Background()

	count := 0
	unsubscribe := f.list.Subscribe(func(viewmodel.ListState) { count++ })
	f.list.OnActivate(ctx)
	unsubscribe()
	f.list.Refresh(ctx)

	assert.Equal(t, 2, count)
}
