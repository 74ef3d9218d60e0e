package streaming

import (
	"sync"

	"go.uber.org/zap"

	"github.com/markdave123-py/Paperlens/internal/models"
)

const DefaultBuffer = 256

// Listener receives the events of one session, or of every session when it
// subscribed with an empty session id.
type Listener struct {
	id      uint64
	session string
	events  chan models.StreamEvent
	b       *Broadcaster
}

// Events is closed when the listener is unsubscribed or evicted.
func (l *Listener) Events() <-chan models.StreamEvent { return l.events }

func (l *Listener) Session() string { return l.session }

// Close unsubscribes the listener. Safe to call more than once.
func (l *Listener) Close() { l.b.remove(l.id) }

func (l *Listener) wants(session string) bool {
	return l.session == "" || l.session == session
}

// Broadcaster fans stream events out to subscribed listeners. Publish never
// blocks: a listener whose buffer is full is evicted and its channel closed.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners map[uint64]*Listener
	nextID    uint64
	buffer    int
	closed    bool
	logger    *zap.Logger
}

func NewBroadcaster(buffer int, logger *zap.Logger) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{
		listeners: make(map[uint64]*Listener),
		buffer:    buffer,
		logger:    logger,
	}
}

// Subscribe registers a listener for session ("" means all sessions).
// Subscribing after Close returns a listener whose channel is already closed.
func (b *Broadcaster) Subscribe(session string) *Listener {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	l := &Listener{
		id:      b.nextID,
		session: session,
		events:  make(chan models.StreamEvent, b.buffer),
		b:       b,
	}
	if b.closed {
		close(l.events)
		return l
	}
	b.listeners[l.id] = l
	b.logger.Debug("stream listener subscribed", zap.Uint64("listener", l.id), zap.String("session", session))
	return l
}

// Publish delivers ev to every listener interested in ev.SessionID and
// returns how many received it.
func (b *Broadcaster) Publish(ev models.StreamEvent) int {
	var slow []uint64
	delivered := 0

	b.mu.RLock()
	for id, l := range b.listeners {
		if !l.wants(ev.SessionID) {
			continue
		}
		select {
		case l.events <- ev:
			delivered++
		default:
			slow = append(slow, id)
		}
	}
	b.mu.RUnlock()

	for _, id := range slow {
		b.logger.Warn("evicting slow stream listener", zap.Uint64("listener", id), zap.String("session", ev.SessionID))
		b.remove(id)
	}
	return delivered
}

// ListenerCount reports the current number of subscribed listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Close evicts every listener; later subscriptions are closed immediately.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, l := range b.listeners {
		delete(b.listeners, id)
		close(l.events)
	}
	b.closed = true
}

func (b *Broadcaster) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	l, ok := b.listeners[id]
	if !ok {
		return
	}
	delete(b.listeners, id)
	close(l.events)
	b.logger.Debug("stream listener removed", zap.Uint64("listener", id), zap.String("session", l.session))
}
