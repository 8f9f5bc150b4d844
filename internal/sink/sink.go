package sink

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"firestige.xyz/bpsniff/internal/event"
	"firestige.xyz/bpsniff/internal/log"
)

// Sink consumes batches of events.
type Sink interface {
	Name() string
	Send(ctx context.Context, evs []event.Event) error
	Close() error
}

// Dispatcher drains a Queue and fans each batch out to every sink. It is the
// queue's only consumer.
type Dispatcher struct {
	queue *Queue
	sinks []Sink
	log   *logrus.Entry
}

// NewDispatcher creates a dispatcher for q.
func NewDispatcher(q *Queue, sinks ...Sink) *Dispatcher {
	return &Dispatcher{queue: q, sinks: sinks, log: log.WithComponent("sink")}
}

// Run delivers events until ctx is done. Whatever is still queued at that
// point is delivered before the sinks are closed.
func (d *Dispatcher) Run(ctx context.Context) error {
	for _, s := range d.sinks {
		d.log.WithField("sink", s.Name()).Info("sink started")
	}

	for {
		select {
		case <-ctx.Done():
			d.deliver(context.Background(), d.queue.Drain())
			return d.close()
		case <-d.queue.Ready():
			d.deliver(ctx, d.queue.Drain())
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, evs []event.Event) {
	if len(evs) == 0 {
		return
	}
	for _, s := range d.sinks {
		if err := s.Send(ctx, evs); err != nil {
			d.log.WithError(err).WithField("sink", s.Name()).Warn("sink send failed")
		}
	}
}

func (d *Dispatcher) close() error {
	var errs []error
	for _, s := range d.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
