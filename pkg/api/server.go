// Package api wires live collections, their added-items notifiers and the SSE server together.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/sarpt/query-list-changes/internal/rest"
	"github.com/sarpt/query-list-changes/internal/sse"
	"golang.org/x/sync/errgroup"
)

const (
	logPrefix = "api.Server#"

	shutdownTimeout = 5 * time.Second
)

var (
	ErrNothingToWatch = errors.New("neither directories nor selectors were provided for watching")
)

type watcher interface {
	Watch(ctx context.Context) error
	Close() error
}

// Server holds live collections and serves their added items to the output log and SSE observers.
// Current contents of the collections are served by the REST server.
type Server struct {
	address    string
	browser    *rod.Browser
	browserURL string
	errLog     *log.Logger
	errWriter  io.Writer
	lock       *sync.Mutex
	outLog     *log.Logger
	outWriter  io.Writer
	restServer *rest.Server
	sseServer  *sse.Server
	watchers   []watcher
}

// Config controls behaviour of the api server.
type Config struct {
	// Address on which SSE observers are served. Empty Address disables the SSE server.
	Address   string
	AllowCORS bool
	// BrowserURL is the DevTools WebSocket URL of a running browser.
	// When empty, a local headless browser is launched on first use.
	BrowserURL string
	ErrWriter  io.Writer
	OutWriter  io.Writer
}

// NewServer prepares and returns a server without any live collections.
func NewServer(cfg Config) *Server {
	if cfg.OutWriter == nil {
		cfg.OutWriter = os.Stdout
	}
	if cfg.ErrWriter == nil {
		cfg.ErrWriter = os.Stderr
	}

	restCfg := rest.Config{
		AllowCORS: cfg.AllowCORS,
		ErrWriter: cfg.ErrWriter,
		OutWriter: cfg.OutWriter,
	}

	sseCfg := sse.Config{
		AllowCORS: cfg.AllowCORS,
		ErrWriter: cfg.ErrWriter,
		OutWriter: cfg.OutWriter,
	}

	return &Server{
		address:    cfg.Address,
		browserURL: cfg.BrowserURL,
		errLog:     log.New(cfg.ErrWriter, logPrefix, log.LstdFlags),
		errWriter:  cfg.ErrWriter,
		lock:       &sync.Mutex{},
		outLog:     log.New(cfg.OutWriter, logPrefix, log.LstdFlags),
		outWriter:  cfg.OutWriter,
		restServer: rest.NewServer(restCfg),
		sseServer:  sse.NewServer(sseCfg),
	}
}

// Serve watches all added live collections and, when address was provided, serves SSE observers.
// Blocks until ctx is done or any of the watchers or the http server fails.
func (s *Server) Serve(ctx context.Context) error {
	s.lock.Lock()
	watchers := s.watchers
	s.lock.Unlock()

	if len(watchers) == 0 {
		return ErrNothingToWatch
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, w := range watchers {
		group.Go(func() error {
			return w.Watch(groupCtx)
		})
	}

	if s.address != "" {
		group.Go(func() error {
			return s.serveHTTP(groupCtx)
		})
	}

	return group.Wait()
}

// Close releases all watchers and the browser connection.
func (s *Server) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	var errs []error
	for _, w := range s.watchers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (s *Server) addWatcher(w watcher) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.watchers = append(s.watchers, w)
}

func (s *Server) serveHTTP(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle(fmt.Sprintf("/%s/", s.restServer.PathBase()), s.restServer.Handler())
	mux.Handle(fmt.Sprintf("/%s/", s.sseServer.PathBase()), s.sseServer.Handler())

	serv := &http.Server{
		Addr:    s.address,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := serv.Shutdown(shutdownCtx)
		if err != nil {
			s.errLog.Printf("could not shutdown http server gracefully: %s\n", err)
		}
	}()

	s.outLog.Printf("running server at %s\n", s.address)
	err := serv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
