package common

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

type Subscriber[CT any] interface {
	Receive(change CT) error
}

// SubscriberFunc allows plain functions to be used as a Subscriber.
type SubscriberFunc[CT any] func(change CT) error

// Receive calls f with the change. Satisfies Subscriber.
func (f SubscriberFunc[CT]) Receive(change CT) error {
	return f(change)
}

type subscription[CT any] struct {
	id         string
	subscriber Subscriber[CT]
}

// Broadcaster distributes changes to all of its subscribers.
// Delivery is synchronous: Send returns only after every subscriber received the change.
type Broadcaster[CT any] struct {
	lock          *sync.RWMutex
	subscriptions []subscription[CT]
}

func NewBroadcaster[CT any]() *Broadcaster[CT] {
	return &Broadcaster[CT]{
		lock:          &sync.RWMutex{},
		subscriptions: []subscription[CT]{},
	}
}

// Subscribe adds subscriber to the end of the delivery list and returns
// an id which can be used to Unsubscribe.
func (cb *Broadcaster[CT]) Subscribe(sub Subscriber[CT]) string {
	id := uuid.New().String()

	cb.lock.Lock()
	defer cb.lock.Unlock()

	cb.subscriptions = append(cb.subscriptions, subscription[CT]{
		id:         id,
		subscriber: sub,
	})

	return id
}

// Unsubscribe removes subscriber with provided id.
// Returns false when no such subscription exists.
func (cb *Broadcaster[CT]) Unsubscribe(id string) bool {
	cb.lock.Lock()
	defer cb.lock.Unlock()

	for idx, sub := range cb.subscriptions {
		if sub.id != id {
			continue
		}

		subscriptions := make([]subscription[CT], 0, len(cb.subscriptions)-1)
		subscriptions = append(subscriptions, cb.subscriptions[:idx]...)
		cb.subscriptions = append(subscriptions, cb.subscriptions[idx+1:]...)

		return true
	}

	return false
}

// Send delivers payload to every subscriber in subscription order.
// Subscribers added during Send do not receive the payload, and subscribers removed during Send
// stop receiving it immediately.
// Errors returned by subscribers do not stop the delivery; they are joined and returned.
func (cb *Broadcaster[CT]) Send(payload CT) error {
	cb.lock.RLock()
	subscriptions := cb.subscriptions
	cb.lock.RUnlock()

	var errs []error
	for _, sub := range subscriptions {
		if !cb.subscribed(sub.id) {
			continue
		}

		err := sub.subscriber.Receive(payload)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (cb *Broadcaster[CT]) subscribed(id string) bool {
	cb.lock.RLock()
	defer cb.lock.RUnlock()

	for _, sub := range cb.subscriptions {
		if sub.id == id {
			return true
		}
	}

	return false
}

// Len returns number of current subscribers.
func (cb *Broadcaster[CT]) Len() int {
	cb.lock.RLock()
	defer cb.lock.RUnlock()

	return len(cb.subscriptions)
}
