package streaming

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/markdave123-py/Paperlens/internal/core"
	"github.com/markdave123-py/Paperlens/internal/models"
)

// State of one streaming session: Idle -> Streaming -> Completed | Failed.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Session tracks one streaming generation call.
type Session struct {
	ID     string
	Source models.SourceRef

	mu      sync.Mutex
	state   State
	chunks  int
	err     error
	started time.Time
	ended   time.Time
}

func NewSession(id string, ref models.SourceRef) *Session {
	return &Session{ID: id, Source: ref}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err is the failure that ended the session, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Session) Chunks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chunks
}

// Duration is the time between start and end, or start and now while streaming.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started.IsZero() {
		return 0
	}
	if s.ended.IsZero() {
		return time.Since(s.started)
	}
	return s.ended.Sub(s.started)
}

func (s *Session) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return fmt.Errorf("session %s already %s", s.ID, s.state)
	}
	s.state = StateStreaming
	s.started = time.Now()
	return nil
}

func (s *Session) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateStreaming {
		return
	}
	s.ended = time.Now()
	if err != nil {
		s.state = StateFailed
		s.err = err
		return
	}
	s.state = StateCompleted
}

func (s *Session) counted() {
	s.mu.Lock()
	s.chunks++
	s.mu.Unlock()
}

// Relay publishes every chunk of a generation stream to b, in arrival order,
// and ends with exactly one complete or failed event. It drains chunks until
// the producer closes the channel and returns the failure, if any.
// Chunks already delivered are never retracted.
func Relay(b *Broadcaster, sess *Session, chunks <-chan core.Chunk) error {
	if err := sess.start(); err != nil {
		return err
	}

	var final error
	terminated := false
	for c := range chunks {
		if terminated {
			continue
		}
		switch {
		case c.Err != nil:
			final = c.Err
			terminated = true
		case c.Done:
			terminated = true
		default:
			sess.counted()
			b.Publish(models.StreamEvent{Event: models.EventChunk, SessionID: sess.ID, Text: c.Text})
		}
	}
	if !terminated {
		final = core.GenerationFailure("stream", io.ErrUnexpectedEOF)
	}

	sess.finish(final)
	if final != nil {
		b.Publish(models.StreamEvent{
			Event:     models.EventFailed,
			SessionID: sess.ID,
			Error:     final.Error(),
			Kind:      core.ErrorKind(final),
		})
		return final
	}
	b.Publish(models.StreamEvent{Event: models.EventComplete, SessionID: sess.ID})
	return nil
}
