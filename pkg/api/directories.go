package api

import (
	"fmt"

	"github.com/sarpt/query-list-changes/internal/sse"
	"github.com/sarpt/query-list-changes/pkg/changes"
	"github.com/sarpt/query-list-changes/pkg/fswatch"
)

const (
	filesChannelPrefix = "files"
)

type directoryWatcher struct {
	*fswatch.Directory
	notifier *changes.Notifier[string]
}

func (w directoryWatcher) Close() error {
	w.notifier.Close()

	return w.Directory.Close()
}

// DirectoryConfig specifies which files of a directory should be watched.
type DirectoryConfig struct {
	Path      string
	Patterns  []string
	Recursive bool
}

// AddDirectories starts tracking files of provided directories. Each directory gets its own SSE channel
// and REST collection named "files:<path>".
func (s *Server) AddDirectories(directories []DirectoryConfig) error {
	for _, directory := range directories {
		err := s.addDirectory(directory)
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *Server) addDirectory(cfg DirectoryConfig) error {
	dir, err := fswatch.NewDirectory(fswatch.Config{
		ErrWriter: s.errWriter,
		OutWriter: s.outWriter,
		Path:      cfg.Path,
		Patterns:  cfg.Patterns,
		Recursive: cfg.Recursive,
	})
	if err != nil {
		return fmt.Errorf("could not add directory '%s': %w", cfg.Path, err)
	}

	variant := fmt.Sprintf("%s:%s", filesChannelPrefix, dir.Path())
	notifier := changes.New[string](dir)
	notifier.Changes().Subscribe(logAddedItems[string](s.outLog, variant))

	err = s.sseServer.AddChannel(sse.NewChannel(variant, notifier.Changes()))
	if err == nil {
		err = s.restServer.AddCollection(variant, func() any {
			return notifier.ToSlice()
		})
	}
	if err != nil {
		notifier.Close()
		dir.Close()
		return err
	}

	s.outLog.Printf("watching %d file(s) in '%s'\n", notifier.Len(), dir.Path())
	s.addWatcher(directoryWatcher{dir, notifier})

	return nil
}
