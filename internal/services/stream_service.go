package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/Paperlens/internal/core"
	"github.com/markdave123-py/Paperlens/internal/core/streaming"
	"github.com/markdave123-py/Paperlens/internal/models"
)

// ErrStreamsClosed is returned by StartStream once Close has begun.
var ErrStreamsClosed = errors.New("stream service closed")

// StreamService starts streaming generation sessions and relays their chunks
// through the broadcaster. Streams create no reports.
type StreamService struct {
	sources     core.SourceRepository
	files       core.FileStore
	extractor   core.TextExtractor
	generator   core.Generator
	broadcaster *streaming.Broadcaster
	logger      *zap.Logger

	base   context.Context
	cancel context.CancelFunc
	group  errgroup.Group
	mu     sync.Mutex
	closed bool
	active map[string]*streaming.Session
}

// StreamDeps groups the collaborators of StreamService.
type StreamDeps struct {
	Sources     core.SourceRepository
	Files       core.FileStore
	Extractor   core.TextExtractor
	Generator   core.Generator
	Broadcaster *streaming.Broadcaster
	Logger      *zap.Logger
}

func NewStreamService(d StreamDeps) *StreamService {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	base, cancel := context.WithCancel(context.Background())
	return &StreamService{
		sources:     d.Sources,
		files:       d.Files,
		extractor:   d.Extractor,
		generator:   d.Generator,
		broadcaster: d.Broadcaster,
		logger:      d.Logger,
		base:        base,
		cancel:      cancel,
		active:      make(map[string]*streaming.Session),
	}
}

// StartStream resolves the source and opens the backend stream before
// returning, so lookup and connection failures reach the caller. Chunks are
// then relayed in the background under sessionID, or a fresh id when empty.
func (s *StreamService) StartStream(ctx context.Context, ref models.SourceRef, sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	doc, err := s.sources.FindSource(ctx, ref)
	if err != nil {
		return "", err
	}

	docContext := doc.Content
	if strings.TrimSpace(docContext) == "" {
		if docContext, err = extractSource(ctx, s.files, s.extractor, doc); err != nil {
			return "", err
		}
	}

	sess := streaming.NewSession(sessionID, ref)
	if err := s.claim(sess); err != nil {
		return "", err
	}

	// the stream outlives the request that started it and ends on Close
	streamCtx, stop := context.WithCancel(s.base)
	chunks, err := s.generator.Stream(streamCtx, docContext)
	if err != nil {
		stop()
		s.release(sessionID)
		return "", err
	}

	started := s.spawn(func() error {
		defer stop()
		defer s.release(sessionID)
		err := streaming.Relay(s.broadcaster, sess, chunks)
		fields := []zap.Field{
			zap.String("session", sessionID),
			zap.Stringer("source", ref),
			zap.Int("chunks", sess.Chunks()),
			zap.Duration("duration", sess.Duration()),
		}
		if err != nil {
			s.logger.Warn("stream failed", append(fields, zap.String("kind", core.ErrorKind(err)), zap.Error(err))...)
			return nil
		}
		s.logger.Info("stream completed", fields...)
		return nil
	})
	if !started {
		stop()
		s.release(sessionID)
		go drain(chunks)
		return "", ErrStreamsClosed
	}
	s.logger.Info("stream started", zap.String("session", sessionID), zap.Stringer("source", ref))
	return sessionID, nil
}

// Active reports whether sessionID is still streaming.
func (s *StreamService) Active(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[sessionID]
	return ok
}

// Wait blocks until every running stream has ended.
func (s *StreamService) Wait() error {
	return s.group.Wait()
}

// Close cancels running streams and waits for their relays to finish. Each
// cancelled stream still ends with a failed event.
func (s *StreamService) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.cancel()
	return s.group.Wait()
}

// spawn runs fn in the group unless Close has begun. Holding mu across Go
// keeps every Go ahead of the Wait in Close.
func (s *StreamService) spawn(fn func() error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.group.Go(fn)
	return true
}

func drain(chunks <-chan core.Chunk) {
	for range chunks {
	}
}

func (s *StreamService) claim(sess *streaming.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamsClosed
	}
	if _, ok := s.active[sess.ID]; ok {
		return fmt.Errorf("%w: session %q is already streaming", core.ErrInvalidInput, sess.ID)
	}
	s.active[sess.ID] = sess
	return nil
}

func (s *StreamService) release(id string) {
	s.mu.Lock()
	delete(s.active, id)
	s.mu.Unlock()
}
