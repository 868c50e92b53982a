package api

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sarpt/query-list-changes/internal/sse"
	"github.com/sarpt/query-list-changes/pkg/changes"
	"github.com/sarpt/query-list-changes/pkg/rodquery"
)

const (
	elementsChannelPrefix = "elements"

	navigationTimeout = 30 * time.Second
)

// SelectorsConfig specifies a page and CSS selectors whose matched elements should be watched.
type SelectorsConfig struct {
	PageURL   string
	Selectors []string
}

type selectionWatcher struct {
	*rodquery.Selection
	notifier *changes.Notifier[rodquery.Node]
}

func (w selectionWatcher) Close() error {
	w.notifier.Close()

	return nil
}

// AddSelectors opens the page and starts tracking elements matched by every selector. Each selector gets
// its own SSE channel and REST collection named "elements:<selector>".
func (s *Server) AddSelectors(ctx context.Context, cfg SelectorsConfig) error {
	page, err := s.openPage(ctx, cfg.PageURL)
	if err != nil {
		return err
	}

	for _, selector := range cfg.Selectors {
		selection := rodquery.New(page, selector, rodquery.Config{
			ErrWriter: s.errWriter,
			OutWriter: s.outWriter,
		})

		variant := fmt.Sprintf("%s:%s", elementsChannelPrefix, selector)
		notifier := changes.New[rodquery.Node](selection)
		notifier.Changes().Subscribe(logAddedItems[rodquery.Node](s.outLog, variant))

		err := s.sseServer.AddChannel(sse.NewChannel(variant, notifier.Changes()))
		if err == nil {
			err = s.restServer.AddCollection(variant, func() any {
				return notifier.ToSlice()
			})
		}
		if err != nil {
			notifier.Close()
			return err
		}

		s.addWatcher(selectionWatcher{selection, notifier})
	}

	return nil
}

func (s *Server) openPage(ctx context.Context, pageURL string) (*rod.Page, error) {
	browser, err := s.connectBrowser()
	if err != nil {
		return nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("could not create page: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, navigationTimeout)
	defer cancel()

	err = page.Context(navCtx).Navigate(pageURL)
	if err != nil {
		page.Close()
		return nil, fmt.Errorf("could not navigate to %s: %w", pageURL, err)
	}

	err = page.Context(navCtx).WaitLoad()
	if err != nil {
		s.errLog.Printf("page %s did not finish loading: %s\n", pageURL, err)
	}

	return page, nil
}

func (s *Server) connectBrowser() (*rod.Browser, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.browser != nil {
		return s.browser, nil
	}

	controlURL := s.browserURL
	if controlURL == "" {
		u, err := launcher.New().Headless(true).Launch()
		if err != nil {
			return nil, fmt.Errorf("could not launch browser: %w", err)
		}

		s.outLog.Printf("launched local browser at %s\n", u)
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL)
	err := browser.Connect()
	if err != nil {
		return nil, fmt.Errorf("could not connect to browser: %w", err)
	}

	s.browser = browser
	return browser, nil
}
