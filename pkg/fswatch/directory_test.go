package fswatch_test

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/sarpt/query-list-changes/pkg/changes"
	"github.com/sarpt/query-list-changes/pkg/fswatch"
)

const (
	eventTimeout = 5 * time.Second
)

func createFile(t *testing.T, path string) {
	t.Helper()

	err := os.WriteFile(path, []byte{}, 0640)
	if err != nil {
		t.Fatalf("Could not create file %s: %s", path, err)
	}
}

func newDirectory(t *testing.T, cfg fswatch.Config) *fswatch.Directory {
	t.Helper()

	cfg.OutWriter = io.Discard
	cfg.ErrWriter = io.Discard
	dir, err := fswatch.NewDirectory(cfg)
	if err != nil {
		t.Fatalf("Unexpected error reported for directory creation: %s", err)
	}
	t.Cleanup(func() { dir.Close() })

	return dir
}

func TestNewDirectory_ScansMatchingFiles(t *testing.T) {
	// given
	root := t.TempDir()
	createFile(t, filepath.Join(root, "b.mkv"))
	createFile(t, filepath.Join(root, "a.mkv"))
	createFile(t, filepath.Join(root, "notes.txt"))
	err := os.Mkdir(filepath.Join(root, "nested"), 0750)
	if err != nil {
		t.Fatalf("Could not create nested directory: %s", err)
	}
	createFile(t, filepath.Join(root, "nested", "c.mkv"))

	// when
	uut := newDirectory(t, fswatch.Config{
		Path:     root,
		Patterns: []string{"*.mkv"},
	})

	// then
	expected := []string{filepath.Join(root, "a.mkv"), filepath.Join(root, "b.mkv")}
	if got := uut.ToSlice(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected files %v to equal %v", got, expected)
	}
}

func TestNewDirectory_Recursive(t *testing.T) {
	// given
	root := t.TempDir()
	err := os.Mkdir(filepath.Join(root, "nested"), 0750)
	if err != nil {
		t.Fatalf("Could not create nested directory: %s", err)
	}
	createFile(t, filepath.Join(root, "nested", "c.mkv"))

	// when
	uut := newDirectory(t, fswatch.Config{
		Path:      root,
		Recursive: true,
	})

	// then
	expected := []string{filepath.Join(root, "nested", "c.mkv")}
	if got := uut.ToSlice(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected files %v to equal %v", got, expected)
	}
}

func TestNewDirectory_InvalidPattern(t *testing.T) {
	// when
	_, err := fswatch.NewDirectory(fswatch.Config{
		Path:     t.TempDir(),
		Patterns: []string{"[unclosed"},
	})

	// then
	if !errors.Is(err, fswatch.ErrInvalidPattern) {
		t.Errorf("Expected error %v to be %v", err, fswatch.ErrInvalidPattern)
	}
}

func TestRefresh_PublishesAddedFiles(t *testing.T) {
	// given
	root := t.TempDir()
	createFile(t, filepath.Join(root, "a.mkv"))
	dir := newDirectory(t, fswatch.Config{Path: root})

	notifier := changes.New[string](dir)
	var batches []changes.Batch[string]
	notifier.Changes().Subscribe(func(batch changes.Batch[string]) error {
		batches = append(batches, batch)
		return nil
	})

	// when
	createFile(t, filepath.Join(root, "b.mkv"))
	err := dir.Refresh()
	if err != nil {
		t.Fatalf("Unexpected error reported for refresh: %s", err)
	}

	err = os.Remove(filepath.Join(root, "a.mkv"))
	if err != nil {
		t.Fatalf("Could not remove file: %s", err)
	}
	err = dir.Refresh()
	if err != nil {
		t.Fatalf("Unexpected error reported for refresh: %s", err)
	}

	// then
	if len(batches) != 1 {
		t.Fatalf("Expected 1 batch, got %d", len(batches))
	}

	expected := []string{filepath.Join(root, "b.mkv")}
	if added := batches[0].AddedItems(); !reflect.DeepEqual(added, expected) {
		t.Errorf("Expected added files %v to equal %v", added, expected)
	}

	if got := dir.ToSlice(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected files %v to equal %v", got, expected)
	}
}

func TestWatch_PublishesCreatedFiles(t *testing.T) {
	// given
	root := t.TempDir()
	dir := newDirectory(t, fswatch.Config{
		Path:     root,
		Patterns: []string{"*.mkv"},
	})

	notifier := changes.New[string](dir)
	batches := make(chan changes.Batch[string], 8)
	notifier.Changes().Subscribe(func(batch changes.Batch[string]) error {
		batches <- batch
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	watchDone := make(chan error, 1)
	go func() {
		watchDone <- dir.Watch(ctx)
	}()

	// when
	createFile(t, filepath.Join(root, "ignored.txt"))
	createFile(t, filepath.Join(root, "movie.mkv"))

	// then
	select {
	case batch := <-batches:
		expected := []string{filepath.Join(root, "movie.mkv")}
		if added := batch.AddedItems(); !reflect.DeepEqual(added, expected) {
			t.Errorf("Expected added files %v to equal %v", added, expected)
		}
	case <-time.After(eventTimeout):
		t.Fatalf("No batch published within %s", eventTimeout)
	}

	cancel()
	select {
	case err := <-watchDone:
		if err != nil {
			t.Errorf("Unexpected error reported for watch: %s", err)
		}
	case <-time.After(eventTimeout):
		t.Errorf("Watch did not finish within %s after cancellation", eventTimeout)
	}
}
