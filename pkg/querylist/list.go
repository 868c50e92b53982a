package querylist

import (
	"sync"
)

// Option changes behaviour of the List.
type Option[T any] func(l *List[T])

// EmitDistinctChangesOnly makes NotifyOnChanges fire the signal only when the most recent Reset
// changed ordered contents of the list, as compared by eq.
func EmitDistinctChangesOnly[T any](eq func(a, b T) bool) Option[T] {
	return func(l *List[T]) {
		l.eq = eq
	}
}

// List is an in-memory live collection. The owner replaces its contents with Reset
// and informs subscribers about them with NotifyOnChanges.
// All methods are safe for concurrent use.
type List[T any] struct {
	changed bool
	dirty   bool
	emitter *Emitter
	eq      func(a, b T) bool
	items   []T
	lock    *sync.RWMutex
}

// New constructs an empty, dirty List.
func New[T any](opts ...Option[T]) *List[T] {
	l := &List[T]{
		dirty:   true,
		emitter: NewEmitter(),
		items:   []T{},
		lock:    &sync.RWMutex{},
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Reset replaces contents of the list with a copy of items and clears the dirty flag.
// Subscribers are not notified until NotifyOnChanges is called.
func (l *List[T]) Reset(items []T) {
	newItems := make([]T, len(items))
	copy(newItems, items)

	l.lock.Lock()
	defer l.lock.Unlock()

	l.changed = l.changed || l.eq == nil || !l.sameItems(newItems)
	l.items = newItems
	l.dirty = false
}

// NotifyOnChanges fires the change signal. With EmitDistinctChangesOnly the signal is fired
// only when contents changed since the last notification.
func (l *List[T]) NotifyOnChanges() error {
	l.lock.Lock()
	shouldEmit := l.eq == nil || l.changed
	l.changed = false
	l.lock.Unlock()

	if !shouldEmit {
		return nil
	}

	return l.emitter.Emit()
}

// MarkDirty flags the list as requiring a Reset.
func (l *List[T]) MarkDirty() {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.dirty = true
}

// Dirty reports whether the list contents are stale.
func (l *List[T]) Dirty() bool {
	l.lock.RLock()
	defer l.lock.RUnlock()

	return l.dirty
}

// Changes returns a signal fired by NotifyOnChanges. Satisfies Live.
func (l *List[T]) Changes() Signal {
	return l.emitter
}

// ToSlice returns a copy of current contents.
func (l *List[T]) ToSlice() []T {
	l.lock.RLock()
	defer l.lock.RUnlock()

	items := make([]T, len(l.items))
	copy(items, l.items)

	return items
}

func (l *List[T]) Len() int {
	l.lock.RLock()
	defer l.lock.RUnlock()

	return len(l.items)
}

// First returns the first item, or false when the list is empty.
func (l *List[T]) First() (T, bool) {
	l.lock.RLock()
	defer l.lock.RUnlock()

	var item T
	if len(l.items) == 0 {
		return item, false
	}

	return l.items[0], true
}

// Last returns the last item, or false when the list is empty.
func (l *List[T]) Last() (T, bool) {
	l.lock.RLock()
	defer l.lock.RUnlock()

	var item T
	if len(l.items) == 0 {
		return item, false
	}

	return l.items[len(l.items)-1], true
}

// ForEach calls fn for every item, iterating over a copy so fn may access the list.
func (l *List[T]) ForEach(fn func(item T, idx int)) {
	for idx, item := range l.ToSlice() {
		fn(item, idx)
	}
}

// Some reports whether fn returns true for any item.
func (l *List[T]) Some(fn func(item T, idx int) bool) bool {
	_, found := l.Find(fn)

	return found
}

// Find returns the first item for which fn returns true.
func (l *List[T]) Find(fn func(item T, idx int) bool) (T, bool) {
	for idx, item := range l.ToSlice() {
		if fn(item, idx) {
			return item, true
		}
	}

	var zero T
	return zero, false
}

// Filter returns items for which fn returns true, in list order.
func (l *List[T]) Filter(fn func(item T, idx int) bool) []T {
	filtered := []T{}
	for idx, item := range l.ToSlice() {
		if fn(item, idx) {
			filtered = append(filtered, item)
		}
	}

	return filtered
}

func (l *List[T]) sameItems(items []T) bool {
	if len(items) != len(l.items) {
		return false
	}

	for idx := range items {
		if !l.eq(items[idx], l.items[idx]) {
			return false
		}
	}

	return true
}
