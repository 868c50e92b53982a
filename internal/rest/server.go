package rest

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

const (
	logPrefix = "rest.Server#"

	pathBase = "rest"
)

var (
	ErrCollectionAlreadyExists = errors.New("collection with provided variant already exists")
)

// Snapshot returns current items of a live collection, ready for JSON encoding.
type Snapshot func() any

// Server is responsible for serving current contents of live collections.
type Server struct {
	allowCORS   bool
	collections map[string]Snapshot
	errLog      *log.Logger
	lock        *sync.RWMutex
	outLog      *log.Logger
}

// Config controls behaviour of the REST server.
type Config struct {
	AllowCORS bool
	ErrWriter io.Writer
	OutWriter io.Writer
}

// NewServer returns rest.Server instance.
func NewServer(cfg Config) *Server {
	if cfg.OutWriter == nil {
		cfg.OutWriter = os.Stdout
	}
	if cfg.ErrWriter == nil {
		cfg.ErrWriter = os.Stderr
	}

	return &Server{
		allowCORS:   cfg.AllowCORS,
		collections: map[string]Snapshot{},
		errLog:      log.New(cfg.ErrWriter, logPrefix, log.LstdFlags),
		lock:        &sync.RWMutex{},
		outLog:      log.New(cfg.OutWriter, logPrefix, log.LstdFlags),
	}
}

// AddCollection makes current contents of a collection available under its variant.
func (s *Server) AddCollection(variant string, snapshot Snapshot) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if _, ok := s.collections[variant]; ok {
		return fmt.Errorf("%w: %s", ErrCollectionAlreadyExists, variant)
	}

	s.collections[variant] = snapshot
	s.outLog.Printf("serving contents of %s\n", variant)

	return nil
}

func (s *Server) PathBase() string {
	return pathBase
}
