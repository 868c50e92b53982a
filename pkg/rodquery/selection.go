// Package rodquery provides a live collection of DOM elements matching a CSS selector on a browser page.
package rodquery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sarpt/query-list-changes/pkg/querylist"
)

const (
	logPrefix = "rodquery.Selection#"
)

var (
	ErrDOMTrackingFailed = errors.New("could not enable DOM tracking")
	ErrQueryFailed       = errors.New("could not query elements")
	ErrDescribeFailed    = errors.New("could not describe element")
)

// Node identifies a DOM element for the lifetime of the document.
type Node struct {
	BackendNodeID proto.DOMBackendNodeID `json:"backendNodeId"`
	NodeName      string                 `json:"nodeName"`
	LocalName     string                 `json:"localName"`
}

// Config controls logging of the Selection.
type Config struct {
	ErrWriter io.Writer
	OutWriter io.Writer
}

// Selection is a live collection of elements matching selector on page, in document order.
// Membership is refreshed on DOM mutations while Watch is running.
type Selection struct {
	errLog   *log.Logger
	items    *querylist.List[Node]
	outLog   *log.Logger
	page     *rod.Page
	selector string
}

// New constructs an empty Selection. Call Refresh or Watch to populate it.
func New(page *rod.Page, selector string, cfg Config) *Selection {
	if cfg.OutWriter == nil {
		cfg.OutWriter = os.Stdout
	}
	if cfg.ErrWriter == nil {
		cfg.ErrWriter = os.Stderr
	}

	return &Selection{
		errLog: log.New(cfg.ErrWriter, logPrefix, log.LstdFlags),
		items: querylist.New[Node](querylist.EmitDistinctChangesOnly(func(a, b Node) bool {
			return a == b
		})),
		outLog:   log.New(cfg.OutWriter, logPrefix, log.LstdFlags),
		page:     page,
		selector: selector,
	}
}

// Refresh queries the page for matching elements and fires the change signal when membership changed.
func (s *Selection) Refresh() error {
	nodes, err := s.query()
	if err != nil {
		return err
	}

	s.items.Reset(nodes)
	return s.items.NotifyOnChanges()
}

// Watch enables DOM tracking on the page and refreshes the selection on every DOM mutation
// until ctx is done.
func (s *Selection) Watch(ctx context.Context) error {
	page := s.page.Context(ctx)

	err := proto.DOMEnable{}.Call(page)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDOMTrackingFailed, err)
	}

	// child node events are reported only for nodes already known to the client
	depth := -1
	_, err = proto.DOMGetDocument{Depth: &depth, Pierce: true}.Call(page)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDOMTrackingFailed, err)
	}

	err = s.Refresh()
	if err != nil {
		return err
	}

	wait := page.EachEvent(
		func(e *proto.DOMChildNodeInserted) {
			s.handleMutation("child node inserted")
		},
		func(e *proto.DOMChildNodeRemoved) {
			s.handleMutation("child node removed")
		},
		func(e *proto.DOMAttributeModified) {
			s.handleMutation("attribute modified")
		},
		func(e *proto.DOMAttributeRemoved) {
			s.handleMutation("attribute removed")
		},
		func(e *proto.DOMDocumentUpdated) {
			s.trackDocument(page)
			s.handleMutation("document updated")
		},
	)
	wait()

	return nil
}

func (s *Selection) Selector() string {
	return s.selector
}

func (s *Selection) Changes() querylist.Signal {
	return s.items.Changes()
}

func (s *Selection) ToSlice() []Node {
	return s.items.ToSlice()
}

func (s *Selection) Len() int {
	return s.items.Len()
}

func (s *Selection) First() (Node, bool) {
	return s.items.First()
}

func (s *Selection) Last() (Node, bool) {
	return s.items.Last()
}

func (s *Selection) ForEach(fn func(node Node, idx int)) {
	s.items.ForEach(fn)
}

func (s *Selection) Some(fn func(node Node, idx int) bool) bool {
	return s.items.Some(fn)
}

func (s *Selection) Find(fn func(node Node, idx int) bool) (Node, bool) {
	return s.items.Find(fn)
}

func (s *Selection) Filter(fn func(node Node, idx int) bool) []Node {
	return s.items.Filter(fn)
}

func (s *Selection) handleMutation(reason string) {
	err := s.Refresh()
	if err != nil {
		s.errLog.Printf("could not refresh '%s' after %s: %s\n", s.selector, reason, err)
	}
}

func (s *Selection) trackDocument(page *rod.Page) {
	depth := -1
	_, err := proto.DOMGetDocument{Depth: &depth, Pierce: true}.Call(page)
	if err != nil {
		s.errLog.Printf("could not track replaced document: %s\n", err)
		return
	}

	s.outLog.Printf("tracking replaced document for '%s'\n", s.selector)
}

func (s *Selection) query() ([]Node, error) {
	elements, err := s.page.Elements(s.selector)
	if err != nil {
		return nil, fmt.Errorf("%w '%s': %w", ErrQueryFailed, s.selector, err)
	}

	defer s.release(elements)

	nodes := make([]Node, 0, len(elements))
	for _, element := range elements {
		description, err := element.Describe(0, false)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDescribeFailed, err)
		}

		nodes = append(nodes, nodeFromDescription(description))
	}

	return nodes, nil
}

// release frees remote objects held by the page for queried elements.
// Nodes are identified by backend ids, so the elements are not needed after being described.
func (s *Selection) release(elements rod.Elements) {
	for _, element := range elements {
		err := element.Release()
		if err != nil {
			s.errLog.Printf("could not release element of '%s': %s\n", s.selector, err)
		}
	}
}

func nodeFromDescription(description *proto.DOMNode) Node {
	return Node{
		BackendNodeID: description.BackendNodeID,
		NodeName:      description.NodeName,
		LocalName:     description.LocalName,
	}
}
