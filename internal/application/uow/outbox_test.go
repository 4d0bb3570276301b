package uow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ingvionio/fullstack/internal/domain/shared"
)

type recorder struct {
	got  []shared.EventType
	fail bool
}

func (r *recorder) Publish(e shared.Event) error {
	r.got = append(r.got, e.EventType())
	if r.fail {
		return errors.New("closed")
	}
	return nil
}

func TestOutbox_PublishesInOrder(t *testing.T) {
	now := time.Now()
	var o Outbox
	o.Add(shared.NewPointCreatedEvent(1, nil, now))
	o.Add(shared.NewXPGainedEvent(2, "anna", 50, 50, 1, "point", now), shared.NewUserDeletedEvent(2, now))

	r := &recorder{}
	assert.NoError(t, o.PublishTo(r))
	assert.Equal(t, []shared.EventType{shared.EventPointCreated, shared.EventXPGained, shared.EventUserDeleted}, r.got)
	assert.Equal(t, 3, o.Len())

	o.Reset()
	assert.Zero(t, o.Len())
}

func TestOutbox_JoinsErrors(t *testing.T) {
	var o Outbox
	o.Add(shared.NewUserDeletedEvent(1, time.Now()), shared.NewUserDeletedEvent(2, time.Now()))

	r := &recorder{fail: true}
	assert.Error(t, o.PublishTo(r))
	assert.Len(t, r.got, 2)
	assert.NoError(t, o.PublishTo(nil))
}
