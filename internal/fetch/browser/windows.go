package browserfetch

import (
	"context"
	"sync"
)

// window is one browser tab, addressed through its chromedp context.
type window struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// windowStack tracks window focus explicitly. The home window sits at the
// bottom and is never popped; the top of the stack is the window the next
// lookup targets. The resolver and extractor must return the stack to home
// before proceeding, or subsequent lookups would target the wrong window.
type windowStack struct {
	mu    sync.Mutex
	stack []*window
}

func newWindowStack(home *window) *windowStack {
	return &windowStack{stack: []*window{home}}
}

func (s *windowStack) push(w *window) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stack = append(s.stack, w)
}

func (s *windowStack) pop() *window {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.stack) <= 1 {
		return nil
	}
	w := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return w
}

func (s *windowStack) top() *window {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stack[len(s.stack)-1]
}

// unwindTo cancels every window above home, restoring focus to it.
func (s *windowStack) unwindTo(home *window) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.stack) > 0 {
		w := s.stack[len(s.stack)-1]
		if w == home {
			return
		}
		w.cancel()
		s.stack = s.stack[:len(s.stack)-1]
	}
}
