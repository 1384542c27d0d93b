package viewmodel

import (
	"context"
	"log/slog"

	"github.com/roach88/storefront/internal/catalog"
	"github.com/roach88/storefront/internal/gateway"
)

// ErrMissingProductID is the error message shown when the detail screen
// is opened without an entry id.
const ErrMissingProductID = "product id not provided"

// EntryDetail drives the product detail screen.
type EntryDetail struct {
	gw       gateway.CatalogGateway
	nav      Navigator
	notifier Notifier
	logger   *slog.Logger
	id       int64
	screen   *screen[catalog.Entry]
}

// NewEntryDetail creates the detail view-model for entry id.
func NewEntryDetail(gw gateway.CatalogGateway, id int64, nav Navigator, notifier Notifier, opts ...Option) *EntryDetail {
	o := buildOptions(opts)
	return &EntryDetail{
		gw:       gw,
		nav:      nav,
		notifier: notifier,
		logger:   o.logger,
		id:       id,
		screen:   newScreen[catalog.Entry](),
	}
}

// ID returns the entry the screen shows.
func (d *EntryDetail) ID() int64 {
	return d.id
}

func (d *EntryDetail) State() DetailState {
	return d.screen.current()
}

func (d *EntryDetail) Subscribe(fn func(DetailState)) func() {
	return d.screen.subscribe(fn)
}

// OnActivate loads the entry.
func (d *EntryDetail) OnActivate(ctx context.Context) DetailState {
	d.screen.activate()
	d.load(ctx)
	return d.State()
}

// Retry loads the entry again after an error.
func (d *EntryDetail) Retry(ctx context.Context) DetailState {
	d.load(ctx)
	return d.State()
}

func (d *EntryDetail) Deactivate() {
	d.screen.deactivate()
}

// Edit navigates to the form for the loaded entry.
func (d *EntryDetail) Edit() {
	if !d.State().IsReady() {
		return
	}
	d.nav.NavigateTo(ProductFormScreen, Params{ProductID: d.id})
}

// Back returns to the previous screen.
func (d *EntryDetail) Back() {
	d.nav.GoBack()
}

func (d *EntryDetail) load(ctx context.Context) {
	if d.id == 0 {
		d.screen.begin(func(DetailState) DetailState { return Failed[catalog.Entry](ErrMissingProductID) })
		return
	}

	seq, _, ok := d.screen.begin(func(DetailState) DetailState { return Loading[catalog.Entry]() })
	if !ok {
		return
	}

	entry, err := d.gw.GetEntry(ctx, d.id)
	if err != nil {
		msg := gateway.Message(err)
		if d.screen.apply(seq, Failed[catalog.Entry](msg)) {
			d.notifier.Notify(Notice{Level: NoticeError, Title: "Error loading product", Message: msg})
		}
		return
	}
	if !d.screen.apply(seq, Ready(entry)) {
		d.logger.Debug("discarding stale entry", "id", d.id, "seq", seq)
	}
}
