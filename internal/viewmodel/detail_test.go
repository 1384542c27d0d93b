package viewmodel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storefront/internal/gateway"
	"github.com/roach88/storefront/internal/testutil"
	"github.com/roach88/storefront/internal/viewmodel"
)

func TestEntryDetail_MissingID(t *testing.T) {
	gw := testutil.NewFakeGateway()
	rec := testutil.NewRecorder()
	d := viewmodel.NewEntryDetail(gw, 0, rec, rec)

	state := d.OnActivate(context.Background())

	require.True(t, state.IsError())
	assert.Equal(t, viewmodel.ErrMissingProductID, state.Message())
	assert.Empty(t, gw.Calls())
}

func TestEntryDetail_Loads(t *testing.T) {
	gw := testutil.NewFakeGateway()
	rec := testutil.NewRecorder()
	gw.Script(testutil.MethodGetEntry, testutil.Response{Entry: testutil.Entry(3, "Caneca", "25")})
	d := viewmodel.NewEntryDetail(gw, 3, rec, rec)

	state := d.OnActivate(context.Background())

	entry, ok := state.Value()
	require.True(t, ok)
	assert.Equal(t, "Caneca", entry.Name)
	assert.Equal(t, []testutil.Call{{Method: testutil.MethodGetEntry, Arg: "id=3"}}, gw.Calls())

	d.Edit()
	d.Back()
	assert.Equal(t, []testutil.Navigation{
		{Screen: viewmodel.ProductFormScreen, Params: viewmodel.Params{ProductID: 3}},
		{Back: true},
	}, rec.Navigations())
}

func TestEntryDetail_NotFound(t *testing.T) {
	gw := testutil.NewFakeGateway()
	rec := testutil.NewRecorder()
	gw.Script(testutil.MethodGetEntry,
		testutil.Response{Err: &gateway.DataError{Code: gateway.DataNotFound, Message: "product 3 not found"}},
		testutil.Response{Entry: testutil.Entry(3, "Caneca", "25")},
	)
	d := viewmodel.NewEntryDetail(gw, 3, rec, rec)
	ctx := context.Background()

	state := d.OnActivate(ctx)
	require.True(t, state.IsError())
	assert.Equal(t, "product 3 not found", state.Message())

	n, ok := rec.LastNotice()
	require.True(t, ok)
	assert.Equal(t, "Error loading product", n.Title)

	// Edit is unavailable until the entry is shown.
	d.Edit()
	assert.Empty(t, rec.Navigations())

	assert.True(t, d.Retry(ctx).IsReady())
}
