package viewmodel_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storefront/internal/catalog"
	"github.com/roach88/storefront/internal/gateway"
	"github.com/roach88/storefront/internal/testutil"
	"github.com/roach88/storefront/internal/viewmodel"
)

func TestEntryForm_CreateMode(t *testing.T) {
	gw := testutil.NewFakeGateway()
	rec := testutil.NewRecorder()
	f := viewmodel.NewEntryForm(gw, 0, rec, rec)
	ctx := context.Background()

	state := f.OnActivate(ctx)
	draft, ok := state.Value()
	require.True(t, ok)
	assert.True(t, draft.IsNew())
	assert.False(t, f.Editing())

	gw.Script(testutil.MethodUpsertEntry, testutil.Response{Entry: testutil.Entry(10, "Caneca", "10.50")})
	entry, err := f.Submit(ctx, viewmodel.FormInput{Name: " Caneca ", Description: " azul ", Price: "10,50"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), entry.ID)

	assert.Equal(t, []testutil.Call{{Method: testutil.MethodUpsertEntry, Arg: "id=0 name=Caneca price=10.5"}}, gw.Calls())
	assert.Equal(t, []testutil.Navigation{{Back: true}}, rec.Navigations())
	n, _ := rec.LastNotice()
	assert.Equal(t, "Product created successfully.", n.Message)
}

func TestEntryForm_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input viewmodel.FormInput
		field string
		msg   string
	}{
		{"empty name", viewmodel.FormInput{Name: "  ", Price: "1"}, "name", "Name is required."},
		{"missing price", viewmodel.FormInput{Name: "x"}, "price", "Price is required."},
		{"junk price", viewmodel.FormInput{Name: "x", Price: "abc"}, "price", "Price must be a number, e.g. 10,50."},
		{"negative price", viewmodel.FormInput{Name: "x", Price: "-1"}, "price", "Price must not be negative."},
		{"sub-cent price", viewmodel.FormInput{Name: "x", Price: "2,675"}, "price", "Price must have at most 2 decimal places."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := testutil.NewFakeGateway()
			rec := testutil.NewRecorder()
			f := viewmodel.NewEntryForm(gw, 0, rec, rec)

			_, err := f.Submit(context.Background(), tt.input)

			var verr *viewmodel.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.Equal(t, tt.msg, verr.Message)
			assert.Empty(t, gw.Calls())
			assert.Empty(t, rec.Navigations())
		})
	}
}

func TestEntryForm_EditModePrefills(t *testing.T) {
	gw := testutil.NewFakeGateway()
	rec := testutil.NewRecorder()
	existing := catalog.Entry{ID: 4, Name: "Agenda", Description: "2025", Price: catalog.MustPrice("12.90")}
	gw.Script(testutil.MethodGetEntry, testutil.Response{Entry: existing})
	f := viewmodel.NewEntryForm(gw, 4, rec, rec)
	ctx := context.Background()

	draft, ok := f.OnActivate(ctx).Value()
	require.True(t, ok)
	assert.Equal(t, catalog.DraftFrom(existing), draft)

	gw.Script(testutil.MethodUpsertEntry, testutil.Response{Entry: existing})
	_, err := f.Submit(ctx, viewmodel.FormInput{Name: "Agenda", Price: "12,90"})
	require.NoError(t, err)
	n, _ := rec.LastNotice()
	assert.Equal(t, "Product updated successfully.", n.Message)
	assert.Equal(t, "id=4 name=Agenda price=12.9", gw.Calls()[1].Arg)
}

func TestEntryForm_SaveFailureKeepsForm(t *testing.T) {
	gw := testutil.NewFakeGateway()
	rec := testutil.NewRecorder()
	f := viewmodel.NewEntryForm(gw, 0, rec, rec)
	ctx := context.Background()
	f.OnActivate(ctx)
	before := f.State()

	gw.Script(testutil.MethodUpsertEntry, testutil.Response{
		Err: &gateway.DataError{Code: gateway.DataRejected, Message: "duplicate key value"},
	})
	_, err := f.Submit(ctx, viewmodel.FormInput{Name: "x", Price: "1"})

	require.Error(t, err)
	assert.Equal(t, before, f.State())
	assert.Empty(t, rec.Navigations())
	n, _ := rec.LastNotice()
	assert.Equal(t, "Save failed", n.Title)
	assert.Equal(t, "duplicate key value", n.Message)
}
