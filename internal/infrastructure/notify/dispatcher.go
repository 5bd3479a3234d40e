// Package notify delivers change messages to administrators without holding
// up the operation that produced them.
package notify

import (
	"context"
	"log/slog"
	"sync/atomic"

	"rotabot/internal/ports/output"
)

// Sink delivers one message. It is called from the dispatcher goroutine only.
type Sink interface {
	Send(ctx context.Context, text string) error
}

var _ output.Notifier = (*Dispatcher)(nil)

// Dispatcher queues messages in a bounded buffer drained by Run. Notify never
// blocks: when the buffer is full the message is dropped and logged. Failed
// deliveries are logged and not retried.
type Dispatcher struct {
	queue  chan string
	sink   Sink
	logger *slog.Logger

	dropped atomic.Int64
	failed  atomic.Int64
}

func NewDispatcher(sink Sink, size int, logger *slog.Logger) *Dispatcher {
	if size <= 0 {
		size = 1
	}
	return &Dispatcher{
		queue:  make(chan string, size),
		sink:   sink,
		logger: logger,
	}
}

// Notify enqueues text for delivery.
func (d *Dispatcher) Notify(_ context.Context, text string) error {
	select {
	case d.queue <- text:
	default:
		d.dropped.Add(1)
		d.logger.Warn("notification dropped, queue full", "text", text)
	}
	return nil
}

// Run delivers queued messages until ctx is cancelled. Messages still queued
// at that point are logged and discarded.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.drain()
			return nil
		case text := <-d.queue:
			d.deliver(ctx, text)
		}
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case text := <-d.queue:
			d.logger.Info("notification not delivered at shutdown", "text", text)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, text string) {
	if err := d.sink.Send(ctx, text); err != nil {
		d.failed.Add(1)
		d.logger.Warn("notification delivery failed", "error", err)
	}
}

// Dropped is the number of messages discarded because the queue was full.
func (d *Dispatcher) Dropped() int64 { return d.dropped.Load() }

// Failed is the number of messages the sink rejected.
func (d *Dispatcher) Failed() int64 { return d.failed.Load() }
