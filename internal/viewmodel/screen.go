package viewmodel

import "sync"

// screen holds the state of one view-model, its subscribers, and the
// request clock that decides which results may still be applied.
type screen[T any] struct {
	mu     sync.Mutex
	state  State[T]
	active bool
	clock  *Clock

	subs    map[int]func(State[T])
	nextSub int
}

func newScreen[T any]() *screen[T] {
	return &screen[T]{
		state: Loading[T](),
		clock: NewClock(),
		subs:  map[int]func(State[T]){},
	}
}

func (s *screen[T]) current() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *screen[T]) activate() {
	s.mu.Lock()
	s.active = true
	s.mu.Unlock()
}

// deactivate marks the screen unmounted and invalidates outstanding
// requests.
func (s *screen[T]) deactivate() {
	s.mu.Lock()
	s.active = false
	s.clock.Next()
	s.mu.Unlock()
}

// begin starts a request: it takes a sequence number and sets the
// loading state computed from the current one. It returns false when the
// screen is not active.
func (s *screen[T]) begin(loading func(prev State[T]) State[T]) (int64, State[T], bool) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return 0, State[T]{}, false
	}
	prev := s.state
	seq := s.clock.Next()
	s.state = loading(prev)
	next, subs := s.state, s.subscribersLocked()
	s.mu.Unlock()

	publish(subs, next)
	return seq, prev, true
}

// apply installs st if seq is still the latest request of an active
// screen. It reports whether st was applied.
func (s *screen[T]) apply(seq int64, st State[T]) bool {
	s.mu.Lock()
	if !s.active || !s.clock.IsLatest(seq) {
		s.mu.Unlock()
		return false
	}
	s.state = st
	subs := s.subscribersLocked()
	s.mu.Unlock()

	publish(subs, st)
	return true
}

// live reports whether seq is still the latest request of an active
// screen.
func (s *screen[T]) live(seq int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active && s.clock.IsLatest(seq)
}

func (s *screen[T]) isActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *screen[T]) subscribe(fn func(State[T])) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *screen[T]) subscribersLocked() []func(State[T]) {
	if len(s.subs) == 0 {
		return nil
	}
	out := make([]func(State[T]), 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			out = append(out, fn)
		}
	}
	return out
}

func publish[T any](subs []func(State[T]), st State[T]) {
	for _, fn := range subs {
		fn(st)
	}
}
