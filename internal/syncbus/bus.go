package syncbus

import (
	"sync"

	"urban-bites/internal/domain/models"
	"urban-bites/internal/xpkg/logger"
)

// Bus fans out order notifications to every open display in the same process.
// Delivery is best effort and at most once: a subscriber whose buffer is full
// misses the message and catches up on its next poll tick. Nothing is
// persisted or replayed.
type Bus struct {
	mylog logger.Logger

	mu     sync.RWMutex
	subs   map[int]chan models.SyncMessage
	nextID int
	closed bool
}

func New(mylog logger.Logger) *Bus {
	return &Bus{
		mylog: mylog.With("component", "syncbus"),
		subs:  make(map[int]chan models.SyncMessage),
	}
}

// Subscribe registers a display. The returned cancel func is idempotent and
// must be called on teardown; the channel closes with it.
func (b *Bus) Subscribe(buffer int) (<-chan models.SyncMessage, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan models.SyncMessage, buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
			b.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish is fire and forget: the publisher never blocks on delivery.
func (b *Bus) Publish(msg models.SyncMessage) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- msg:
		default:
			b.mylog.Action("message_dropped").With("type", msg.Type).Debug("Subscriber buffer full, message dropped")
		}
	}
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
