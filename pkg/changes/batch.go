package changes

import (
	"encoding/json"

	"github.com/sarpt/query-list-changes/internal/common"
	"github.com/sarpt/query-list-changes/pkg/querylist"
)

const (
	// AddedItemsChange notifies about items which appeared in the live collection since the previous notification.
	AddedItemsChange common.ChangeVariant = "added"
)

type batchJSON[T any] struct {
	Variant common.ChangeVariant `json:"variant"`
	Items   []T                  `json:"items"`
}

// Batch holds information about items added to the live collection between two change signals.
// Batch is immutable; it owns a copy of added items.
type Batch[T any] struct {
	addedItems []T
	source     querylist.Live[T]
}

// NewBatch constructs Batch for source with a copy of added items.
func NewBatch[T any](source querylist.Live[T], added []T) Batch[T] {
	addedItems := make([]T, len(added))
	copy(addedItems, added)

	return Batch[T]{
		addedItems: addedItems,
		source:     source,
	}
}

// Source returns the live collection the batch was computed for.
func (b Batch[T]) Source() querylist.Live[T] {
	return b.source
}

// AddedItems returns a copy of added items, in the order they appear in the live collection.
func (b Batch[T]) AddedItems() []T {
	addedItems := make([]T, len(b.addedItems))
	copy(addedItems, b.addedItems)

	return addedItems
}

func (b Batch[T]) Len() int {
	return len(b.addedItems)
}

func (b Batch[T]) Variant() common.ChangeVariant {
	return AddedItemsChange
}

// MarshalJSON returns added items in JSON format. Satisfies json.Marshaller.
func (b Batch[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(batchJSON[T]{
		Variant: b.Variant(),
		Items:   b.addedItems,
	})
}
