package sse

import (
	"github.com/sarpt/query-list-changes/internal/common"
	"github.com/sarpt/query-list-changes/pkg/changes"
)

// ChangeHandler receives changes distributed on a channel.
type ChangeHandler func(change common.Change) error

// Channel is a named source of changes which SSE observers can listen to.
type Channel interface {
	Subscribe(handler ChangeHandler) (unsubscribe func())
	Variant() string
}

type batchesChannel[T any] struct {
	stream  changes.Stream[T]
	variant string
}

// NewChannel adapts a stream of added items batches to a Channel named variant.
func NewChannel[T any](variant string, stream changes.Stream[T]) Channel {
	return &batchesChannel[T]{
		stream:  stream,
		variant: variant,
	}
}

func (c *batchesChannel[T]) Subscribe(handler ChangeHandler) func() {
	return c.stream.Subscribe(func(batch changes.Batch[T]) error {
		return handler(batch)
	})
}

func (c *batchesChannel[T]) Variant() string {
	return c.variant
}
