package uow

import (
	"errors"

	"github.com/ingvionio/fullstack/internal/domain/shared"
)

// Outbox collects events raised inside a unit of work. Handlers publish
// them only after Do returned nil, so subscribers never observe rolled
// back state.
type Outbox struct {
	events []shared.Event
}

// Add appends events.
func (o *Outbox) Add(events ...shared.Event) {
	o.events = append(o.events, events...)
}

// Events returns the collected events in order.
func (o *Outbox) Events() []shared.Event {
	return o.events
}

// Len returns the number of collected events.
func (o *Outbox) Len() int {
	return len(o.events)
}

// Reset drops collected events.
func (o *Outbox) Reset() {
	o.events = o.events[:0]
}

// PublishTo publishes every event in order and joins the errors.
// A nil publisher is a no-op.
func (o *Outbox) PublishTo(p shared.EventPublisher) error {
	if p == nil {
		return nil
	}
	var errs []error
	for _, e := range o.events {
		if err := p.Publish(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
