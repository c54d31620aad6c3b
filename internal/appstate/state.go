// Package appstate holds process-wide UI state shared by the HTTP views.
package appstate

import (
	"context"
	"sync"
	"sync/atomic"
)

// State carries the force-query counter: views that list or search notes
// re-run their query whenever it moves.
type State struct {
	forceQuery atomic.Int64

	mu   sync.Mutex
	subs map[chan int64]struct{}
}

func New() *State {
	return &State{subs: make(map[chan int64]struct{})}
}

// ForceQuery returns the current counter value.
func (s *State) ForceQuery() int64 { return s.forceQuery.Load() }

// BumpForceQuery increments the counter and notifies subscribers. Slow
// subscribers miss intermediate values; they always get a newer one.
func (s *State) BumpForceQuery() int64 {
	v := s.forceQuery.Add(1)
	s.mu.Lock()
	for ch := range s.subs {
		select {
		case ch <- v:
		default:
			// Drop the stale value and retry once.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
	s.mu.Unlock()
	return v
}

// Subscribe streams counter values until ctx is done; the channel is then
// closed.
func (s *State) Subscribe(ctx context.Context) <-chan int64 {
	ch := make(chan int64, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, ch)
		close(ch)
		s.mu.Unlock()
	}()
	return ch
}
