package hub

import (
	"sync"

	"go.uber.org/zap"
)

type subscription[T any] struct {
	id int
	fn func(T)
}

// Topic delivers values to subscribers in publish order on a dedicated
// goroutine. Publish never waits for subscribers.
type Topic[T any] struct {
	name   string
	clone  func(T) T
	logger *zap.Logger

	mu     sync.Mutex
	work   *sync.Cond
	idle   *sync.Cond
	subs   []subscription[T]
	nextID int
	queue  []T
	busy   bool
	closed bool
}

func newTopic[T any](name string, clone func(T) T, logger *zap.Logger) *Topic[T] {
	t := &Topic[T]{
		name:   name,
		clone:  clone,
		logger: logger.With(zap.String("topic", name)),
	}
	t.work = sync.NewCond(&t.mu)
	t.idle = sync.NewCond(&t.mu)
	go t.run()
	return t
}

// Subscribe registers fn and returns a function that removes it.
func (t *Topic[T]) Subscribe(fn func(T)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.nextID++
	id := t.nextID
	t.subs = append(t.subs, subscription[T]{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { t.unsubscribe(id) })
	}
}

func (t *Topic[T]) unsubscribe(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i, s := range t.subs {
		if s.id == id {
			t.subs = append(t.subs[:i:i], t.subs[i+1:]...)
			return
		}
	}
}

// Publish queues v for delivery. Values published after Close are dropped.
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	t.queue = append(t.queue, v)
	t.work.Signal()
}

// Flush blocks until every value queued so far has been delivered. It
// must not be called from a subscriber of the same topic.
func (t *Topic[T]) Flush() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for len(t.queue) > 0 || t.busy {
		t.idle.Wait()
	}
}

// Close stops the delivery goroutine once the queue drains.
func (t *Topic[T]) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	t.work.Broadcast()
}

func (t *Topic[T]) run() {
	for {
		t.mu.Lock()
		for len(t.queue) == 0 && !t.closed {
			t.work.Wait()
		}
		if len(t.queue) == 0 {
			t.idle.Broadcast()
			t.mu.Unlock()
			return
		}

		v := t.queue[0]
		var zero T
		t.queue[0] = zero
		t.queue = t.queue[1:]
		subs := append([]subscription[T](nil), t.subs...)
		t.busy = true
		t.mu.Unlock()

		for _, s := range subs {
			t.deliver(s, v)
		}

		t.mu.Lock()
		t.busy = false
		if len(t.queue) == 0 {
			t.idle.Broadcast()
		}
		t.mu.Unlock()
	}
}

func (t *Topic[T]) deliver(s subscription[T], v T) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("Subscriber panicked", zap.Int("subscriber", s.id), zap.Any("panic", r))
		}
	}()

	if t.clone != nil {
		v = t.clone(v)
	}
	s.fn(v)
}
