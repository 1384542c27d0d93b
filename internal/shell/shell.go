// Package shell is an interactive terminal front end for the
// view-models.
//
// It plays the part of the UI framework: a single goroutine (Run) owns
// the output and the screen stack and processes events in FIFO order.
// View-model calls run on their own goroutines and report back through
// the queue as state changes, notices, navigation requests and prompts.
//
// Input lines are taken one at a time. A line is only handled once every
// background operation started by the previous line has finished, unless
// an operation is waiting for a confirmation, in which case the line is
// the answer.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/text/language"

	"github.com/roach88/storefront/internal/gateway"
	"github.com/roach88/storefront/internal/viewmodel"
)

// ErrClosed is returned by Confirm once the shell has stopped.
var ErrClosed = errors.New("shell closed")

// Config wires a Shell.
type Config struct {
	In       io.Reader
	Out      io.Writer
	Gateway  gateway.Gateway
	Sessions viewmodel.SessionKeeper

	// Locale and Currency control price rendering.
	Locale   language.Tag
	Currency string

	MinPasswordLength int
	Logger            *slog.Logger
}

type frame struct {
	screen viewmodel.Screen
	params viewmodel.Params
}

// Shell is the interactive loop. Create it with New and call Run once.
type Shell struct {
	in       io.Reader
	out      io.Writer
	gw       gateway.Gateway
	logger   *slog.Logger
	locale   language.Tag
	currency string

	queue *eventQueue
	list  *viewmodel.CatalogList
	auth  *viewmodel.Auth

	// Owned by the Run goroutine.
	stack       []frame
	detail      *viewmodel.EntryDetail
	form        *viewmodel.EntryForm
	unsubscribe func()
	pendingForm *viewmodel.FormInput
	backlog     []Event
	pending     chan<- bool
	inflight    int

	opCtx     context.Context
	cancelOps context.CancelFunc
	wg        sync.WaitGroup
}

var (
	_ viewmodel.Navigator = (*Shell)(nil)
	_ viewmodel.Notifier  = (*Shell)(nil)
	_ viewmodel.Confirmer = (*Shell)(nil)
)

// New creates a shell.
func New(cfg Config) *Shell {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Shell{
		in:       cfg.In,
		out:      cfg.Out,
		gw:       cfg.Gateway,
		logger:   logger,
		locale:   cfg.Locale,
		currency: cfg.Currency,
		queue:    newEventQueue(),
	}

	opts := []viewmodel.Option{viewmodel.WithLogger(logger)}
	if cfg.MinPasswordLength > 0 {
		opts = append(opts, viewmodel.WithMinPasswordLength(cfg.MinPasswordLength))
	}
	s.list = viewmodel.NewCatalogList(cfg.Gateway, s, s, s, opts...)
	s.auth = viewmodel.NewAuth(cfg.Gateway, cfg.Sessions, s, s, opts...)
	s.list.Subscribe(func(st viewmodel.ListState) {
		s.queue.Enqueue(Event{Type: EventListState, List: st})
	})
	return s
}

// Run restores the session, shows the first screen and processes events
// until the user quits, input ends, or ctx is cancelled.
func (s *Shell) Run(ctx context.Context) error {
	s.opCtx, s.cancelOps = context.WithCancel(ctx)
	defer s.cancelOps()

	go s.readInput()

	fmt.Fprintln(s.out, "storefront shell. Type 'help' for commands.")
	s.start(func(ctx context.Context) {
		if _, ok := s.auth.Restore(ctx); ok {
			s.NavigateTo(viewmodel.ProductListScreen, viewmodel.Params{})
			return
		}
		s.NavigateTo(viewmodel.LoginScreen, viewmodel.Params{})
	})

	for {
		if event, ok := s.queue.TryDequeue(); ok {
			s.process(event)
			continue
		}

		if s.ready() && len(s.backlog) > 0 {
			line := s.backlog[0]
			s.backlog = s.backlog[1:]
			if quit := s.handleInput(line); quit {
				s.shutdown()
				return nil
			}
			continue
		}

		select {
		case <-ctx.Done():
			s.logger.Debug("shell stopping: context cancelled")
			s.shutdown()
			return ctx.Err()
		case <-s.queue.Wait():
		}
	}
}

func (s *Shell) shutdown() {
	s.cancelOps()
	s.leave()
	s.queue.Close()
	s.wg.Wait()
}

func (s *Shell) readInput() {
	scanner := bufio.NewScanner(s.in)
	for scanner.Scan() {
		if !s.queue.Enqueue(Event{Type: EventInput, Line: scanner.Text()}) {
			return
		}
	}
	s.queue.Enqueue(Event{Type: EventInput, EOF: true})
}

// ready reports whether the next input line may be handled.
func (s *Shell) ready() bool {
	return s.pending != nil || s.inflight == 0
}

// start runs fn on its own goroutine as a tracked operation.
func (s *Shell) start(fn func(ctx context.Context)) {
	s.inflight++
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.queue.Enqueue(Event{Type: EventOpDone})
		fn(s.opCtx)
	}()
}

// process handles one event. Called only from Run.
func (s *Shell) process(e Event) {
	switch e.Type {
	case EventInput:
		s.backlog = append(s.backlog, e)
	case EventOpDone:
		s.inflight--
	case EventListState:
		if s.top().screen == viewmodel.ProductListScreen {
			s.renderList(e.List)
		}
	case EventDetailState:
		if d, ok := e.Source.(*viewmodel.EntryDetail); ok && d == s.detail {
			s.renderDetail(e.Detail)
		}
	case EventFormState:
		if f, ok := e.Source.(*viewmodel.EntryForm); ok && f == s.form {
			s.renderForm(f, e.Form)
		}
	case EventNotice:
		s.renderNotice(e.Notice)
	case EventNavigate:
		if e.Back {
			s.back()
		} else {
			s.navigate(frame{screen: e.Screen, params: e.Params})
		}
	case EventPrompt:
		s.pending = e.Answer
		fmt.Fprintf(s.out, "%s: %s [y/N] ", e.Prompt.Title, e.Prompt.Message)
	default:
		s.logger.Warn("unknown shell event", "type", e.Type)
	}
}

// NavigateTo implements viewmodel.Navigator.
func (s *Shell) NavigateTo(screen viewmodel.Screen, params viewmodel.Params) {
	s.queue.Enqueue(Event{Type: EventNavigate, Screen: screen, Params: params})
}

// GoBack implements viewmodel.Navigator.
func (s *Shell) GoBack() {
	s.queue.Enqueue(Event{Type: EventNavigate, Back: true})
}

// Notify implements viewmodel.Notifier.
func (s *Shell) Notify(n viewmodel.Notice) {
	s.queue.Enqueue(Event{Type: EventNotice, Notice: n})
}

// Confirm implements viewmodel.Confirmer. The next input line answers.
func (s *Shell) Confirm(ctx context.Context, p viewmodel.Prompt) (bool, error) {
	answer := make(chan bool, 1)
	if !s.queue.Enqueue(Event{Type: EventPrompt, Prompt: p, Answer: answer}) {
		return false, ErrClosed
	}
	select {
	case a := <-answer:
		return a, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (s *Shell) top() frame {
	if len(s.stack) == 0 {
		return frame{}
	}
	return s.stack[len(s.stack)-1]
}

// navigate pushes a screen. The login and list screens are roots and
// replace the whole stack.
func (s *Shell) navigate(to frame) {
	s.leave()
	switch to.screen {
	case viewmodel.LoginScreen, viewmodel.ProductListScreen:
		s.stack = []frame{to}
	default:
		s.stack = append(s.stack, to)
	}
	s.enter()
}

func (s *Shell) back() {
	if len(s.stack) <= 1 {
		return
	}
	s.leave()
	s.stack = s.stack[:len(s.stack)-1]
	s.enter()
}

// leave deactivates the view-model of the current screen.
func (s *Shell) leave() {
	switch s.top().screen {
	case viewmodel.ProductListScreen:
		s.list.Deactivate()
	case viewmodel.ProductDetailScreen:
		if s.detail != nil {
			s.detail.Deactivate()
		}
	case viewmodel.ProductFormScreen:
		if s.form != nil {
			s.form.Deactivate()
		}
	}
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.detail, s.form = nil, nil
}

// enter activates the view-model of the current screen.
func (s *Shell) enter() {
	top := s.top()
	opts := []viewmodel.Option{viewmodel.WithLogger(s.logger)}

	switch top.screen {
	case viewmodel.LoginScreen:
		fmt.Fprintln(s.out, "== Login ==")
		fmt.Fprintln(s.out, "login <email> <password>   or   signup <name>;<email>;<password>;<confirmation>")

	case viewmodel.SignUpScreen:
		fmt.Fprintln(s.out, "== Sign up ==")
		fmt.Fprintln(s.out, "signup <name>;<email>;<password>;<confirmation>")

	case viewmodel.ProductListScreen:
		fmt.Fprintln(s.out, "== Products ==")
		s.start(func(ctx context.Context) { s.list.OnActivate(ctx) })

	case viewmodel.ProductDetailScreen:
		d := viewmodel.NewEntryDetail(s.gw, top.params.ProductID, s, s, opts...)
		s.detail = d
		s.unsubscribe = d.Subscribe(func(st viewmodel.DetailState) {
			s.queue.Enqueue(Event{Type: EventDetailState, Detail: st, Source: d})
		})
		fmt.Fprintln(s.out, "== Product ==")
		s.start(func(ctx context.Context) { d.OnActivate(ctx) })

	case viewmodel.ProductFormScreen:
		f := viewmodel.NewEntryForm(s.gw, top.params.ProductID, s, s, opts...)
		s.form = f
		s.unsubscribe = f.Subscribe(func(st viewmodel.FormState) {
			s.queue.Enqueue(Event{Type: EventFormState, Form: st, Source: f})
		})
		if f.Editing() {
			fmt.Fprintf(s.out, "== Edit product #%d ==\n", top.params.ProductID)
		} else {
			fmt.Fprintln(s.out, "== New product ==")
		}
		input := s.pendingForm
		s.pendingForm = nil
		s.start(func(ctx context.Context) {
			if st := f.OnActivate(ctx); !st.IsReady() || input == nil {
				return
			}
			_, _ = f.Submit(ctx, *input)
		})
	}
}
