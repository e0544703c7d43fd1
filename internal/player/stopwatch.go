package player

import (
	"sync"
	"time"
)

// Stopwatch is a wall-clock playback position for when no audio player
// is attached. Load rewinds to zero and starts running.
type Stopwatch struct {
	mu      sync.Mutex
	now     func() time.Time
	offset  time.Duration
	started time.Time
	running bool
}

func NewStopwatch() *Stopwatch {
	return &Stopwatch{now: time.Now}
}

func (s *Stopwatch) Load(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = 0
	s.started = s.now()
	s.running = true
	return nil
}

func (s *Stopwatch) Position() (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position(), nil
}

func (s *Stopwatch) position() time.Duration {
	if !s.running {
		return s.offset
	}
	return s.offset + s.now().Sub(s.started)
}

func (s *Stopwatch) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		s.started = s.now()
		s.running = true
	}
	return nil
}

func (s *Stopwatch) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset = s.position()
	s.running = false
	return nil
}

// Seek jumps to position, keeping the running state.
func (s *Stopwatch) Seek(position time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if position < 0 {
		position = 0
	}
	s.offset = position
	s.started = s.now()
	return nil
}
