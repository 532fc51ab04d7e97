package session

import (
	"context"
	"sync"
)

// sequencer tags every dispatch with a monotonically increasing tick and
// cancels the previous in-flight dispatch. Only the latest tick may settle
// into view state.
type sequencer struct {
	mu     sync.Mutex
	tick   int64
	cancel context.CancelFunc
}

// begin starts a dispatch and returns its context and tick.
func (s *sequencer) begin(ctx context.Context) (context.Context, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	s.tick++
	ctx, s.cancel = context.WithCancel(ctx)
	return ctx, s.tick
}

// settle reports whether tick is still the latest dispatch and releases
// its context if so.
func (s *sequencer) settle(tick int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tick != s.tick {
		return false
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return true
}

// current returns the latest tick.
func (s *sequencer) current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tick
}
