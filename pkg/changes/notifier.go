// Package changes turns bare "collection changed" signals of live collections
// into notifications about items added since the previous signal.
package changes

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sarpt/query-list-changes/internal/common"
	"github.com/sarpt/query-list-changes/pkg/querylist"
)

var (
	ErrBatchDeliveryFailed = errors.New("could not deliver added items to all subscribers")
)

// SubscriberCB is called with every published Batch.
type SubscriberCB[T any] func(batch Batch[T]) error

type batchSubscriber[T any] struct {
	cb SubscriberCB[T]
}

func (s *batchSubscriber[T]) Receive(batch Batch[T]) error {
	return s.cb(batch)
}

// Stream allows subscribing to batches published by the Notifier, without the ability to publish.
type Stream[T any] interface {
	Subscribe(cb SubscriberCB[T]) (unsubscribe func())
}

type stream[T any] struct {
	broadcaster *common.Broadcaster[Batch[T]]
}

func (s stream[T]) Subscribe(cb SubscriberCB[T]) func() {
	id := s.broadcaster.Subscribe(&batchSubscriber[T]{cb})

	return func() {
		s.broadcaster.Unsubscribe(id)
	}
}

type addedFn[T any] func(previous, current []T) []T

// Notifier wraps a live collection and publishes a Batch with newly added items
// each time the collection signals a change which introduced new items.
// Removals only drop items from the cached snapshot and are never published.
//
// Batches are delivered synchronously, before the collection's signal returns.
// Subscribers must not fire the collection's signal from within their callback.
type Notifier[T any] struct {
	added       addedFn[T]
	broadcaster *common.Broadcaster[Batch[T]]
	collection  querylist.Live[T]
	lock        *sync.Mutex
	snapshot    []T
	unsubscribe func()
}

// New constructs Notifier comparing items of the collection with the == operator.
func New[T comparable](collection querylist.Live[T]) *Notifier[T] {
	return newNotifier(collection, Added[T])
}

// NewFunc constructs Notifier comparing items of the collection with eq.
func NewFunc[T any](collection querylist.Live[T], eq func(a, b T) bool) *Notifier[T] {
	return newNotifier(collection, func(previous, current []T) []T {
		return AddedFunc(previous, current, eq)
	})
}

func newNotifier[T any](collection querylist.Live[T], added addedFn[T]) *Notifier[T] {
	n := &Notifier[T]{
		added:       added,
		broadcaster: common.NewBroadcaster[Batch[T]](),
		collection:  collection,
		lock:        &sync.Mutex{},
		snapshot:    collection.ToSlice(),
	}
	n.unsubscribe = collection.Changes().Subscribe(n.handleCollectionChange)

	return n
}

// Changes returns a stream of batches with added items.
func (n *Notifier[T]) Changes() Stream[T] {
	return stream[T]{n.broadcaster}
}

// Close stops listening to the collection's change signal. Batches are no longer published afterwards.
func (n *Notifier[T]) Close() {
	n.unsubscribe()
}

func (n *Notifier[T]) Len() int {
	return n.collection.Len()
}

func (n *Notifier[T]) First() (T, bool) {
	return n.collection.First()
}

func (n *Notifier[T]) Last() (T, bool) {
	return n.collection.Last()
}

func (n *Notifier[T]) ToSlice() []T {
	return n.collection.ToSlice()
}

func (n *Notifier[T]) ForEach(fn func(item T, idx int)) {
	n.collection.ForEach(fn)
}

func (n *Notifier[T]) Some(fn func(item T, idx int) bool) bool {
	return n.collection.Some(fn)
}

func (n *Notifier[T]) Find(fn func(item T, idx int) bool) (T, bool) {
	return n.collection.Find(fn)
}

func (n *Notifier[T]) Filter(fn func(item T, idx int) bool) []T {
	return n.collection.Filter(fn)
}

// handleCollectionChange diffs current membership against the cached snapshot and publishes added items, if any.
// The snapshot is replaced regardless of the publishing result.
func (n *Notifier[T]) handleCollectionChange() error {
	n.lock.Lock()
	defer n.lock.Unlock()

	current := n.collection.ToSlice()
	added := n.added(n.snapshot, current)
	n.snapshot = current

	if len(added) == 0 {
		return nil
	}

	err := n.broadcaster.Send(NewBatch(n.collection, added))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBatchDeliveryFailed, err)
	}

	return nil
}
