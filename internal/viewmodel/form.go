package viewmodel

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/roach88/storefront/internal/catalog"
	"github.com/roach88/storefront/internal/gateway"
)

// ErrSubmitInProgress is returned by Submit while an earlier submission
// has not finished.
var ErrSubmitInProgress = errors.New("a submission is already in progress")

// FormState is the state of the product form: the draft being edited.
type FormState = State[catalog.Draft]

// FormInput is the raw text typed into the form.
type FormInput struct {
	Name        string
	Description string
	Price       string
}

// EntryForm drives the product form screen, creating an entry when id is
// zero and editing entry id otherwise.
type EntryForm struct {
	gw         gateway.CatalogGateway
	nav        Navigator
	notifier   Notifier
	logger     *slog.Logger
	id         int64
	screen     *screen[catalog.Draft]
	submitting atomic.Bool
}

// NewEntryForm creates the form view-model.
func NewEntryForm(gw gateway.CatalogGateway, id int64, nav Navigator, notifier Notifier, opts ...Option) *EntryForm {
	o := buildOptions(opts)
	return &EntryForm{
		gw:       gw,
		nav:      nav,
		notifier: notifier,
		logger:   o.logger,
		id:       id,
		screen:   newScreen[catalog.Draft](),
	}
}

// Editing reports whether the form edits an existing entry.
func (f *EntryForm) Editing() bool {
	return f.id != 0
}

func (f *EntryForm) State() FormState {
	return f.screen.current()
}

func (f *EntryForm) Subscribe(fn func(FormState)) func() {
	return f.screen.subscribe(fn)
}

// OnActivate prepares the form. In edit mode the entry is loaded to
// prefill the fields.
func (f *EntryForm) OnActivate(ctx context.Context) FormState {
	f.screen.activate()
	if !f.Editing() {
		f.screen.begin(func(FormState) FormState { return Ready(catalog.Draft{}) })
		return f.State()
	}

	seq, _, ok := f.screen.begin(func(FormState) FormState { return Loading[catalog.Draft]() })
	if !ok {
		return f.State()
	}
	entry, err := f.gw.GetEntry(ctx, f.id)
	if err != nil {
		msg := gateway.Message(err)
		if f.screen.apply(seq, Failed[catalog.Draft](msg)) {
			f.notifier.Notify(Notice{Level: NoticeError, Title: "Error loading product", Message: msg})
		}
		return f.State()
	}
	f.screen.apply(seq, Ready(catalog.DraftFrom(entry)))
	return f.State()
}

func (f *EntryForm) Deactivate() {
	f.screen.deactivate()
}

// Submit validates in and saves it. Validation failures return a
// *ValidationError without calling the backend. On success the form
// navigates back; on failure the typed input stays as it was.
func (f *EntryForm) Submit(ctx context.Context, in FormInput) (catalog.Entry, error) {
	draft, verr := f.validate(in)
	if verr != nil {
		f.notifier.Notify(Notice{Level: NoticeError, Title: "Invalid product", Message: verr.Message})
		return catalog.Entry{}, verr
	}

	if !f.submitting.CompareAndSwap(false, true) {
		return catalog.Entry{}, ErrSubmitInProgress
	}
	defer f.submitting.Store(false)

	entry, err := f.gw.UpsertEntry(ctx, draft)
	if err != nil {
		f.logger.Debug("save failed", "id", f.id, "error", err)
		f.notifier.Notify(Notice{Level: NoticeError, Title: "Save failed", Message: gateway.Message(err)})
		return catalog.Entry{}, err
	}

	msg := "Product created successfully."
	if f.Editing() {
		msg = "Product updated successfully."
	}
	f.notifier.Notify(Notice{Level: NoticeInfo, Title: "Success", Message: msg})
	if f.screen.isActive() {
		f.nav.GoBack()
	}
	return entry, nil
}

func (f *EntryForm) validate(in FormInput) (catalog.Draft, *ValidationError) {
	name := catalog.NormalizeName(in.Name)
	if name == "" {
		return catalog.Draft{}, &ValidationError{Field: "name", Message: "Name is required."}
	}

	price, err := catalog.ParsePrice(in.Price)
	switch {
	case errors.Is(err, catalog.ErrMissingPrice):
		return catalog.Draft{}, &ValidationError{Field: "price", Message: "Price is required."}
	case errors.Is(err, catalog.ErrNegativePrice):
		return catalog.Draft{}, &ValidationError{Field: "price", Message: "Price must not be negative."}
	case errors.Is(err, catalog.ErrPricePrecision):
		return catalog.Draft{}, &ValidationError{Field: "price", Message: "Price must have at most 2 decimal places."}
	case err != nil:
		return catalog.Draft{}, &ValidationError{Field: "price", Message: "Price must be a number, e.g. 10,50."}
	}

	return catalog.Draft{
		ID:          f.id,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       price,
	}, nil
}
