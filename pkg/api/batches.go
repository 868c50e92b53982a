package api

import (
	"log"

	"github.com/sarpt/query-list-changes/pkg/changes"
)

func logAddedItems[T any](outLog *log.Logger, variant string) changes.SubscriberCB[T] {
	return func(batch changes.Batch[T]) error {
		outLog.Printf("%s: %d item(s) added, %d total: %v\n", variant, batch.Len(), batch.Source().Len(), batch.AddedItems())

		return nil
	}
}
