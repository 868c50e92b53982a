package querylist

import (
	"github.com/sarpt/query-list-changes/internal/common"
)

type signalSubscriber struct {
	handler SignalHandler
}

func (s *signalSubscriber) Receive(_ struct{}) error {
	return s.handler()
}

// Emitter is a Signal which can be fired by its owner.
type Emitter struct {
	broadcaster *common.Broadcaster[struct{}]
}

// NewEmitter constructs an Emitter without any handlers.
func NewEmitter() *Emitter {
	return &Emitter{
		broadcaster: common.NewBroadcaster[struct{}](),
	}
}

// Subscribe registers handler to be called on every Emit. Satisfies Signal.
func (e *Emitter) Subscribe(handler SignalHandler) func() {
	id := e.broadcaster.Subscribe(&signalSubscriber{handler})

	return func() {
		e.broadcaster.Unsubscribe(id)
	}
}

// Emit synchronously calls all handlers, returning joined errors of the failed ones.
func (e *Emitter) Emit() error {
	return e.broadcaster.Send(struct{}{})
}

// Handlers returns number of currently subscribed handlers.
func (e *Emitter) Handlers() int {
	return e.broadcaster.Len()
}
