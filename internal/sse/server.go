package sse

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/sarpt/query-list-changes/internal/common"
)

const (
	logPrefix = "sse.Server#"

	pathBase = "sse"
)

var (
	registerPath = fmt.Sprintf("/%s/channels", pathBase)

	ErrChannelAlreadyExists = errors.New("channel with provided variant already exists")
)

// Server holds information about channels available to SSE observers.
type Server struct {
	allowCORS bool
	channels  map[string]Channel
	errLog    *log.Logger
	lock      *sync.RWMutex
	outLog    *log.Logger
}

// Config controls behaviour of the SSE server.
type Config struct {
	AllowCORS bool
	ErrWriter io.Writer
	OutWriter io.Writer
}

// NewServer prepares and returns SSE server without any channels.
func NewServer(cfg Config) *Server {
	if cfg.OutWriter == nil {
		cfg.OutWriter = os.Stdout
	}
	if cfg.ErrWriter == nil {
		cfg.ErrWriter = os.Stderr
	}

	return &Server{
		allowCORS: cfg.AllowCORS,
		channels:  map[string]Channel{},
		errLog:    log.New(cfg.ErrWriter, logPrefix, log.LstdFlags),
		lock:      &sync.RWMutex{},
		outLog:    log.New(cfg.OutWriter, logPrefix, log.LstdFlags),
	}
}

// AddChannel makes channel available for observation under its variant.
func (s *Server) AddChannel(channel Channel) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.channels[channel.Variant()]; ok {
		return fmt.Errorf("%w: %s", ErrChannelAlreadyExists, channel.Variant())
	}

	s.channels[channel.Variant()] = channel
	return nil
}

// Handler returns handler serving SSE connections, with channels selected by "channel" query arguments.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(registerPath, common.PathHandler(common.PathHandlerConfig{
		MethodHandlers: common.MethodHandlers{
			http.MethodGet: s.createSseRegisterHandler(),
		},
		AllowCORS: s.allowCORS,
	}))

	return mux
}

func (s *Server) PathBase() string {
	return pathBase
}
