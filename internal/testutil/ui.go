package testutil

import (
	"context"
	"sync"

	"github.com/roach88/storefront/internal/viewmodel"
)

// Navigation is one recorded navigation request. Back is set for GoBack.
type Navigation struct {
	Screen viewmodel.Screen `json:"screen,omitempty"`
	Params viewmodel.Params `json:"params,omitempty"`
	Back   bool             `json:"back,omitempty"`
}

// Recorder records navigation requests and notices.
//
// Thread-safety: safe for concurrent use.
type Recorder struct {
	mu          sync.Mutex
	navigations []Navigation
	notices     []viewmodel.Notice
}

var (
	_ viewmodel.Navigator = (*Recorder)(nil)
	_ viewmodel.Notifier  = (*Recorder)(nil)
)

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) NavigateTo(screen viewmodel.Screen, params viewmodel.Params) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navigations = append(r.navigations, Navigation{Screen: screen, Params: params})
}

func (r *Recorder) GoBack() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.navigations = append(r.navigations, Navigation{Back: true})
}

func (r *Recorder) Notify(n viewmodel.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *Recorder) Navigations() []Navigation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Navigation(nil), r.navigations...)
}

func (r *Recorder) Notices() []viewmodel.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]viewmodel.Notice(nil), r.notices...)
}

// LastNotice returns the most recent notice.
func (r *Recorder) LastNotice() (viewmodel.Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notices) == 0 {
		return viewmodel.Notice{}, false
	}
	return r.notices[len(r.notices)-1], true
}

// ScriptedConfirmer answers confirmation prompts from a fixed list of
// answers, then declines.
//
// Thread-safety: safe for concurrent use.
type ScriptedConfirmer struct {
	mu      sync.Mutex
	answers []bool
	prompts []viewmodel.Prompt
}

var _ viewmodel.Confirmer = (*ScriptedConfirmer)(nil)

func NewScriptedConfirmer(answers ...bool) *ScriptedConfirmer {
	return &ScriptedConfirmer{answers: answers}
}

func (c *ScriptedConfirmer) Confirm(ctx context.Context, p viewmodel.Prompt) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, p)
	if len(c.answers) == 0 {
		return false, nil
	}
	answer := c.answers[0]
	c.answers = c.answers[1:]
	return answer, nil
}

// Prompts returns the prompts shown so far.
func (c *ScriptedConfirmer) Prompts() []viewmodel.Prompt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]viewmodel.Prompt(nil), c.prompts...)
}
