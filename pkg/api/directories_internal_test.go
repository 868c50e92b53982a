package api

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sarpt/query-list-changes/pkg/changes"
	"github.com/sarpt/query-list-changes/pkg/fswatch"
)

func TestDirectoryWatcherClose_StopsNotifier(t *testing.T) {
	// given
	root := t.TempDir()
	dir, err := fswatch.NewDirectory(fswatch.Config{
		ErrWriter: io.Discard,
		OutWriter: io.Discard,
		Path:      root,
	})
	if err != nil {
		t.Fatalf("Unexpected error reported for creating directory: %s", err)
	}

	notifier := changes.New[string](dir)
	batches := 0
	notifier.Changes().Subscribe(func(batch changes.Batch[string]) error {
		batches++
		return nil
	})

	uut := directoryWatcher{dir, notifier}

	// when
	err = uut.Close()

	// then
	if err != nil {
		t.Fatalf("Unexpected error reported for close: %s", err)
	}

	err = os.WriteFile(filepath.Join(root, "a.mkv"), []byte{}, 0o644)
	if err != nil {
		t.Fatalf("Unexpected error reported for writing file: %s", err)
	}

	err = dir.Refresh()
	if err != nil {
		t.Fatalf("Unexpected error reported for refresh: %s", err)
	}

	if dir.Len() != 1 {
		t.Errorf("Expected directory length %d to equal 1", dir.Len())
	}

	if batches != 0 {
		t.Errorf("Expected no batches after close, got %d", batches)
	}
}
