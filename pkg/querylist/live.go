// Package querylist describes live collections - containers whose contents are maintained
// by an external system and which signal every change of their membership.
package querylist

//go:generate mockgen -destination=../../internal/mocks/mock_signal.go -package=mocks github.com/sarpt/query-list-changes/pkg/querylist Signal

// SignalHandler is called on every change signalled by a live collection.
// Error returned by the handler is propagated to whoever fired the signal.
type SignalHandler func() error

// Signal notifies about membership changes of a live collection, without any detail on what changed.
type Signal interface {
	Subscribe(handler SignalHandler) (unsubscribe func())
}

// Live is a read-only view of a collection which is kept up-to-date by an external system.
type Live[T any] interface {
	// ToSlice materializes current membership as an ordered slice.
	ToSlice() []T
	Len() int
	First() (T, bool)
	Last() (T, bool)
	ForEach(fn func(item T, idx int))
	Some(fn func(item T, idx int) bool) bool
	Find(fn func(item T, idx int) bool) (T, bool)
	Filter(fn func(item T, idx int) bool) []T
	// Changes returns a signal fired whenever membership of the collection changes.
	Changes() Signal
}
