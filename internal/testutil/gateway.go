package testutil

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/roach88/storefront/internal/catalog"
	"github.com/roach88/storefront/internal/gateway"
	"github.com/roach88/storefront/internal/session"
)

// Gateway method names, as recorded in Call.Method.
const (
	MethodSignUp      = "SignUp"
	MethodSignIn      = "SignIn"
	MethodSignOut     = "SignOut"
	MethodRefresh     = "Refresh"
	MethodListEntries = "ListEntries"
	MethodGetEntry    = "GetEntry"
	MethodDeleteEntry = "DeleteEntry"
	MethodUpsertEntry = "UpsertEntry"
)

// Call is one recorded gateway call.
type Call struct {
	Method string `json:"method"`
	Arg    string `json:"arg,omitempty"`
}

func (c Call) String() string {
	if c.Arg == "" {
		return c.Method
	}
	return c.Method + "(" + c.Arg + ")"
}

// Response is one scripted gateway reply. Only the fields relevant to
// the method are read.
type Response struct {
	Entries []catalog.Entry
	Entry   catalog.Entry
	Session session.Session
	Outcome gateway.SessionOutcome
	Err     error

	// Wait, when set, holds the reply until it is closed or the call's
	// context ends.
	Wait <-chan struct{}
}

// FakeGateway is a scripted gateway.Gateway.
//
// Each method pops the next Response queued for it with Script. A method
// with nothing queued fails with an error naming it, except SignOut which
// succeeds.
//
// Thread-safety: safe for concurrent use.
type FakeGateway struct {
	mu     sync.Mutex
	script map[string][]Response
	calls  []Call
}

var _ gateway.Gateway = (*FakeGateway)(nil)

// NewFakeGateway creates a gateway with an empty script.
func NewFakeGateway() *FakeGateway {
	return &FakeGateway{script: map[string][]Response{}}
}

// Script queues replies for method.
func (f *FakeGateway) Script(method string, replies ...Response) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script[method] = append(f.script[method], replies...)
}

// Calls returns the calls received so far, in order.
func (f *FakeGateway) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallCount returns how many times method was called.
func (f *FakeGateway) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (f *FakeGateway) next(ctx context.Context, method, arg string) (Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Method: method, Arg: arg})
	queue := f.script[method]
	if len(queue) == 0 {
		f.mu.Unlock()
		if method == MethodSignOut {
			return Response{}, nil
		}
		return Response{}, fmt.Errorf("fake gateway: no scripted response for %s", method)
	}
	r := queue[0]
	f.script[method] = queue[1:]
	f.mu.Unlock()

	if r.Wait != nil {
		select {
		case <-r.Wait:
		case <-ctx.Done():
			return Response{}, ctx.Err()
		}
	}
	return r, r.Err
}

func (f *FakeGateway) SignUp(ctx context.Context, name, email, password string) (gateway.SessionOutcome, error) {
	r, err := f.next(ctx, MethodSignUp, "email="+email)
	if err != nil {
		return gateway.SessionOutcome{}, err
	}
	return r.Outcome, nil
}

func (f *FakeGateway) SignIn(ctx context.Context, email, password string) (session.Session, error) {
	r, err := f.next(ctx, MethodSignIn, "email="+email)
	if err != nil {
		return session.Session{}, err
	}
	return r.Session, nil
}

func (f *FakeGateway) SignOut(ctx context.Context) error {
	_, err := f.next(ctx, MethodSignOut, "")
	return err
}

func (f *FakeGateway) Refresh(ctx context.Context, refreshToken string) (session.Session, error) {
	r, err := f.next(ctx, MethodRefresh, "")
	if err != nil {
		return session.Session{}, err
	}
	return r.Session, nil
}

func (f *FakeGateway) ListEntries(ctx context.Context, orderBy string, ascending bool) ([]catalog.Entry, error) {
	dir := "desc"
	if ascending {
		dir = "asc"
	}
	r, err := f.next(ctx, MethodListEntries, orderBy+"."+dir)
	if err != nil {
		return nil, err
	}
	return r.Entries, nil
}

func (f *FakeGateway) GetEntry(ctx context.Context, id int64) (catalog.Entry, error) {
	r, err := f.next(ctx, MethodGetEntry, "id="+strconv.FormatInt(id, 10))
	if err != nil {
		return catalog.Entry{}, err
	}
	return r.Entry, nil
}

func (f *FakeGateway) DeleteEntry(ctx context.Context, id int64) error {
	_, err := f.next(ctx, MethodDeleteEntry, "id="+strconv.FormatInt(id, 10))
	return err
}

func (f *FakeGateway) UpsertEntry(ctx context.Context, draft catalog.Draft) (catalog.Entry, error) {
	r, err := f.next(ctx, MethodUpsertEntry, fmt.Sprintf("id=%d name=%s price=%s", draft.ID, draft.Name, draft.Price.String()))
	if err != nil {
		return catalog.Entry{}, err
	}
	return r.Entry, nil
}

// Entry builds a catalog entry with a price given as text, for scripts.
func Entry(id int64, name, price string) catalog.Entry {
	return catalog.Entry{ID: id, Name: name, Price: catalog.MustPrice(price)}
}
