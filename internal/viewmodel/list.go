package viewmodel

import (
	"context"
	"log/slog"

	"github.com/roach88/storefront/internal/catalog"
	"github.com/roach88/storefront/internal/gateway"
)

// CatalogList drives the product list screen.
type CatalogList struct {
	gw        gateway.CatalogGateway
	nav       Navigator
	notifier  Notifier
	confirmer Confirmer
	logger    *slog.Logger
	screen    *screen[[]catalog.Entry]
}

// NewCatalogList creates the list view-model. The screen starts inactive
// in the Loading state; call OnActivate when it becomes visible.
func NewCatalogList(gw gateway.CatalogGateway, nav Navigator, notifier Notifier, confirmer Confirmer, opts ...Option) *CatalogList {
	o := buildOptions(opts)
	return &CatalogList{
		gw:        gw,
		nav:       nav,
		notifier:  notifier,
		confirmer: confirmer,
		logger:    o.logger,
		screen:    newScreen[[]catalog.Entry](),
	}
}

// State returns the current list state.
func (c *CatalogList) State() ListState {
	return c.screen.current()
}

// Subscribe registers fn to receive every state change. The returned
// function removes the subscription.
func (c *CatalogList) Subscribe(fn func(ListState)) func() {
	return c.screen.subscribe(fn)
}

// OnActivate is called each time the screen becomes visible. It enters
// Loading and fetches the list.
func (c *CatalogList) OnActivate(ctx context.Context) ListState {
	c.screen.activate()
	c.fetch(ctx, false)
	return c.State()
}

// Refresh refetches the list keeping the current entries visible behind
// the loading indicator.
func (c *CatalogList) Refresh(ctx context.Context) ListState {
	c.fetch(ctx, true)
	return c.State()
}

// Deactivate marks the screen as gone. Results of requests still in
// flight are discarded.
func (c *CatalogList) Deactivate() {
	c.screen.deactivate()
}

// RequestDelete asks for confirmation and deletes entry id. On success
// the list is fetched again; on failure a notice is shown and the list
// shown before the request is restored.
//
// It reports whether the entry was deleted. The error is the gateway
// failure or the confirmer's error; a declined prompt or an inactive
// screen returns false and nil.
func (c *CatalogList) RequestDelete(ctx context.Context, id int64) (bool, error) {
	if !c.screen.isActive() {
		return false, nil
	}

	ok, err := c.confirmer.Confirm(ctx, Prompt{
		Title:   "Confirm deletion",
		Message: "Are you sure you want to delete this product?",
		Confirm: "Delete",
		Cancel:  "Cancel",
	})
	if err != nil {
		c.logger.Debug("delete confirmation aborted", "id", id, "error", err)
		return false, err
	}
	if !ok {
		return false, nil
	}

	seq, prev, started := c.screen.begin(withBackground[[]catalog.Entry])
	if !started {
		return false, nil
	}

	if err := c.gw.DeleteEntry(ctx, id); err != nil {
		c.logger.Debug("delete failed", "id", id, "error", err)
		restored := false
		if !prev.IsLoading() {
			restored = c.screen.apply(seq, prev)
		}
		if c.screen.isActive() {
			c.notifier.Notify(Notice{Level: NoticeError, Title: "Delete failed", Message: gateway.Message(err)})
		}
		if !restored && c.screen.live(seq) {
			// Nothing to go back to: the delete superseded a fetch.
			c.fetch(ctx, true)
		}
		return false, err
	}

	if c.screen.isActive() {
		c.notifier.Notify(Notice{Level: NoticeInfo, Title: "Success", Message: "Product deleted successfully."})
	}
	if c.screen.live(seq) {
		c.fetch(ctx, true)
	}
	return true, nil
}

// Open navigates to the detail screen of entry id.
func (c *CatalogList) Open(id int64) {
	c.nav.NavigateTo(ProductDetailScreen, Params{ProductID: id})
}

// Edit navigates to the form prefilled with entry id.
func (c *CatalogList) Edit(id int64) {
	c.nav.NavigateTo(ProductFormScreen, Params{ProductID: id})
}

// Add navigates to an empty form.
func (c *CatalogList) Add() {
	c.nav.NavigateTo(ProductFormScreen, Params{})
}

func (c *CatalogList) fetch(ctx context.Context, keepBackground bool) {
	loading := func(State[[]catalog.Entry]) ListState { return Loading[[]catalog.Entry]() }
	if keepBackground {
		loading = withBackground[[]catalog.Entry]
	}

	seq, _, ok := c.screen.begin(loading)
	if !ok {
		return
	}

	entries, err := c.gw.ListEntries(ctx, catalog.FieldName, true)
	if err != nil {
		msg := gateway.Message(err)
		if c.screen.apply(seq, Failed[[]catalog.Entry](msg)) {
			c.notifier.Notify(Notice{Level: NoticeError, Title: "Error loading products", Message: msg})
		} else {
			c.logger.Debug("discarding stale list failure", "seq", seq, "error", err)
		}
		return
	}
	if entries == nil {
		entries = []catalog.Entry{}
	}
	if !c.screen.apply(seq, Ready(entries)) {
		c.logger.Debug("discarding stale list", "seq", seq, "count", len(entries))
	}
}

// withBackground keeps whatever prev displays behind the loading
// indicator.
func withBackground[T any](prev State[T]) State[T] {
	if v, ok := prev.Value(); ok {
		return LoadingOver(v)
	}
	if bg, ok := prev.Background(); ok {
		return LoadingOver(bg)
	}
	return Loading[T]()
}
