package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultDeliverTimeout bounds one Sink.Emit call made by the dispatcher.
const DefaultDeliverTimeout = 5 * time.Second

// Config controls dispatcher buffering behavior.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
	// NextID stamps events that arrive without an ID.
	NextID func() string
	// Now stamps events that arrive without a timestamp.
	Now func() time.Time
	// DeliverTimeout bounds each sink delivery. Zero uses DefaultDeliverTimeout.
	DeliverTimeout time.Duration
}

// Dispatcher relays audit events from request goroutines to a Sink on a
// single worker, so a slow sink never sits on the login or refresh path.
type Dispatcher struct {
	cfg  Config
	sink Sink

	// mu guards queue against a send racing Close. Senders hold the read
	// lock; Close takes the write lock only after quit has released them.
	mu      sync.RWMutex
	queue   chan Event
	quit    chan struct{}
	stopped chan struct{}
	closed  bool
	once    sync.Once

	dropped atomic.Uint64
	failed  atomic.Uint64
}

// NewDispatcher starts the worker. It returns nil when cfg is disabled; a nil
// Dispatcher accepts and discards events.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.DeliverTimeout <= 0 {
		cfg.DeliverTimeout = DefaultDeliverTimeout
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:     cfg,
		sink:    sink,
		queue:   make(chan Event, cfg.BufferSize),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go d.work()
	return d
}

// work delivers until Close closes the queue, then returns once the buffered
// events are out.
func (d *Dispatcher) work() {
	defer close(d.stopped)
	for ev := range d.queue {
		d.deliver(ev)
	}
}

func (d *Dispatcher) deliver(ev Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.cfg.DeliverTimeout)
	defer cancel()
	defer func() {
		if recover() != nil {
			d.failed.Add(1)
		}
	}()
	d.sink.Emit(ctx, ev)
}

func (d *Dispatcher) stamp(ev Event) Event {
	if ev.ID == "" && d.cfg.NextID != nil {
		ev.ID = d.cfg.NextID()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = d.cfg.Now().UTC()
	}
	return ev
}

// Emit queues ev. With DropIfFull a full buffer drops and counts the event;
// otherwise Emit waits for room until ctx ends or the dispatcher closes.
// Events emitted after Close are discarded.
func (d *Dispatcher) Emit(ctx context.Context, ev Event) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	ev = d.stamp(ev)

	if d.cfg.DropIfFull {
		select {
		case d.queue <- ev:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.queue <- ev:
	case <-ctx.Done():
	case <-d.quit:
	}
}

// Close stops intake, releases blocked emitters and waits for the worker to
// deliver what is already buffered.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		close(d.quit)
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
		<-d.stopped
	})
}

// Dropped reports events discarded because the buffer was full.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}

// Failed reports deliveries that panicked inside the sink.
func (d *Dispatcher) Failed() uint64 {
	if d == nil {
		return 0
	}
	return d.failed.Load()
}
