// Package fswatch provides a live collection of files present in a watched directory.
package fswatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sarpt/query-list-changes/pkg/querylist"
)

const (
	logPrefix = "fswatch.Directory#"
)

var (
	ErrInvalidPattern       = errors.New("invalid file name pattern")
	ErrWatcherInitFailed    = errors.New("could not initialize filesystem watcher")
	ErrDirectoryWatchFailed = errors.New("could not watch directory")
	ErrDirectoryScanFailed  = errors.New("could not scan directory")
)

// Config controls which files belong to the Directory collection.
type Config struct {
	ErrWriter io.Writer
	OutWriter io.Writer
	Path      string
	// Patterns are matched against file base names; a file belongs to the collection
	// when it matches any of them. Empty Patterns match every file.
	Patterns  []string
	Recursive bool
}

// Directory is a live collection of paths of files under a directory, sorted lexically.
// Membership is refreshed on filesystem events while Watch is running.
type Directory struct {
	errLog    *log.Logger
	items     *querylist.List[string]
	outLog    *log.Logger
	path      string
	patterns  []string
	recursive bool
	watched   map[string]bool
	watchLock *sync.Mutex
	watcher   *fsnotify.Watcher
}

// NewDirectory prepares a Directory with its initial membership already scanned.
func NewDirectory(cfg Config) (*Directory, error) {
	if cfg.OutWriter == nil {
		cfg.OutWriter = os.Stdout
	}
	if cfg.ErrWriter == nil {
		cfg.ErrWriter = os.Stderr
	}

	for _, pattern := range cfg.Patterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, fmt.Errorf("%w '%s': %w", ErrInvalidPattern, pattern, err)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWatcherInitFailed, err)
	}

	d := &Directory{
		errLog: log.New(cfg.ErrWriter, logPrefix, log.LstdFlags),
		items: querylist.New[string](querylist.EmitDistinctChangesOnly(func(a, b string) bool {
			return a == b
		})),
		outLog:    log.New(cfg.OutWriter, logPrefix, log.LstdFlags),
		path:      filepath.Clean(cfg.Path),
		patterns:  cfg.Patterns,
		recursive: cfg.Recursive,
		watched:   map[string]bool{},
		watchLock: &sync.Mutex{},
		watcher:   watcher,
	}

	paths, err := d.scan()
	if err != nil {
		watcher.Close()
		return nil, err
	}
	d.items.Reset(paths)
	if err := d.items.NotifyOnChanges(); err != nil {
		watcher.Close()
		return nil, err
	}

	return d, nil
}

// Refresh rescans the directory and fires the change signal when membership changed.
// Errors returned by the signal handlers are propagated.
func (d *Directory) Refresh() error {
	paths, err := d.scan()
	if err != nil {
		return err
	}

	d.items.Reset(paths)
	return d.items.NotifyOnChanges()
}

// Watch handles filesystem events until ctx is done or the Directory is closed.
func (d *Directory) Watch(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-d.watcher.Events:
			if !ok {
				return nil
			}

			err := d.handleFsEvent(event)
			if err != nil {
				d.errLog.Printf("could not handle event '%s' due to an error: %s\n", event, err)
			}
		case err, ok := <-d.watcher.Errors:
			if !ok {
				return nil
			}

			d.errLog.Printf("fs watcher returned an error: %s\n", err)
		}
	}
}

// Close stops the filesystem watcher.
func (d *Directory) Close() error {
	return d.watcher.Close()
}

func (d *Directory) Path() string {
	return d.path
}

func (d *Directory) Changes() querylist.Signal {
	return d.items.Changes()
}

func (d *Directory) ToSlice() []string {
	return d.items.ToSlice()
}

func (d *Directory) Len() int {
	return d.items.Len()
}

func (d *Directory) First() (string, bool) {
	return d.items.First()
}

func (d *Directory) Last() (string, bool) {
	return d.items.Last()
}

func (d *Directory) ForEach(fn func(path string, idx int)) {
	d.items.ForEach(fn)
}

func (d *Directory) Some(fn func(path string, idx int) bool) bool {
	return d.items.Some(fn)
}

func (d *Directory) Find(fn func(path string, idx int) bool) (string, bool) {
	return d.items.Find(fn)
}

func (d *Directory) Filter(fn func(path string, idx int) bool) []string {
	return d.items.Filter(fn)
}

func (d *Directory) handleFsEvent(event fsnotify.Event) error {
	if event.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
		d.forgetDirectory(event.Name)
	}

	if !affectsMembership(event.Op) {
		return nil
	}

	d.outLog.Printf("refreshing after '%s' on '%s'\n", event.Op, event.Name)
	return d.Refresh()
}

// scan lists matching files and starts watching every visited directory.
func (d *Directory) scan() ([]string, error) {
	var paths []string

	err := filepath.WalkDir(d.path, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			if path != d.path && !d.recursive {
				return filepath.SkipDir
			}

			return d.watchDirectory(path)
		}

		if d.matches(entry.Name()) {
			paths = append(paths, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w '%s': %w", ErrDirectoryScanFailed, d.path, err)
	}

	sort.Strings(paths)
	return paths, nil
}

func (d *Directory) matches(name string) bool {
	if len(d.patterns) == 0 {
		return true
	}

	for _, pattern := range d.patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}

	return false
}

func (d *Directory) watchDirectory(path string) error {
	d.watchLock.Lock()
	defer d.watchLock.Unlock()

	if d.watched[path] {
		return nil
	}

	err := d.watcher.Add(path)
	if err != nil {
		return fmt.Errorf("%w '%s': %w", ErrDirectoryWatchFailed, path, err)
	}

	d.watched[path] = true
	return nil
}

func (d *Directory) forgetDirectory(path string) {
	d.watchLock.Lock()
	defer d.watchLock.Unlock()

	delete(d.watched, path)
}

func affectsMembership(op fsnotify.Op) bool {
	return op&(fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
}
