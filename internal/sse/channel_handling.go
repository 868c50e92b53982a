package sse

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/sarpt/query-list-changes/internal/common"
)

var (
	errResponseJSONCreationFailed = errors.New("could not create JSON for response")
	errClientWritingFailed        = errors.New("could not write to the client")
	errConvertToFlusherFailed     = errors.New("could not instantiate http sse flusher")
	errObserverLagging            = errors.New("observer is not keeping up with changes, change dropped")
)

const (
	sseChannelArg = "channel"

	// observerBufferSize is the number of changes queued for a single observer before new ones are dropped.
	observerBufferSize = 32
)

func (s *Server) createSseRegisterHandler() http.HandlerFunc {
	return func(res http.ResponseWriter, req *http.Request) {
		sseResWriter, err := newResponseWriter(res)
		if err != nil {
			res.WriteHeader(http.StatusBadRequest)
			return
		}

		var observed []Channel
		s.lock.RLock()
		for _, variant := range req.URL.Query()[sseChannelArg] {
			channel, ok := s.channels[variant]
			if !ok {
				continue
			}

			observed = append(observed, channel)
		}
		s.lock.RUnlock()

		if len(observed) == 0 {
			res.WriteHeader(http.StatusNotFound)
			return
		}

		var observers []*observer
		for _, channel := range observed {
			observers = append(observers, s.addObserver(req.RemoteAddr, channel))
		}

		res.WriteHeader(http.StatusOK)
		sseResWriter.flusher.Flush()

		wg := &sync.WaitGroup{}
		for _, obs := range observers {
			wg.Add(1)
			go s.serveObserver(sseResWriter, req, obs, wg)
		}

		wg.Wait()
		s.outLog.Printf("all sse channels closed for %s", req.RemoteAddr)
	}
}

// observer queues changes of a channel for a single client.
// Subscriber must not block the publisher, so changes are written to the client by serveObserver.
type observer struct {
	changes     chan common.Change
	remoteAddr  string
	unsubscribe func()
	variant     string
}

func (s *Server) addObserver(remoteAddr string, channel Channel) *observer {
	obs := &observer{
		changes:    make(chan common.Change, observerBufferSize),
		remoteAddr: remoteAddr,
		variant:    channel.Variant(),
	}
	obs.unsubscribe = channel.Subscribe(func(change common.Change) error {
		select {
		case obs.changes <- change:
			return nil
		default:
			return fmt.Errorf("%w: %s on %s", errObserverLagging, remoteAddr, obs.variant)
		}
	})

	s.outLog.Printf("added %s observer with addr %s\n", obs.variant, remoteAddr)
	return obs
}

func (s *Server) serveObserver(res ResponseWriter, req *http.Request, obs *observer, wg *sync.WaitGroup) {
	defer wg.Done()
	defer obs.unsubscribe()

	for {
		select {
		case change := <-obs.changes:
			err := res.SendChange(change, obs.variant, string(change.Variant()))
			if err != nil {
				s.errLog.Println(err.Error())
			}
		case <-req.Context().Done():
			s.outLog.Printf("removing %s observer with addr %s\n", obs.variant, obs.remoteAddr)

			return
		}
	}
}
