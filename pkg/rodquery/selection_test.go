package rodquery_test

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sarpt/query-list-changes/pkg/rodquery"
)

const (
	itemsDocument = `<html><body><ul><li class="item">A</li><li class="item">B</li><li>C</li></ul></body></html>`

	appendItemScript = `() => {
		const item = document.createElement("li");
		item.className = "item";
		item.textContent = "D";
		document.querySelector("ul").appendChild(item);
	}`

	removeItemsScript = `() => document.querySelectorAll("li.item").forEach((item) => item.remove())`

	signalTimeout = 10 * time.Second
)

// openPage returns a blank page of a local headless browser, skipping the test when no browser is installed.
func openPage(t *testing.T) *rod.Page {
	t.Helper()

	bin, found := launcher.LookPath()
	if !found {
		t.Skip("no browser available")
	}

	controlURL, err := launcher.New().Bin(bin).Headless(true).Launch()
	if err != nil {
		t.Skipf("could not launch browser: %s", err)
	}

	browser := rod.New().ControlURL(controlURL)
	err = browser.Connect()
	if err != nil {
		t.Fatalf("Unexpected error reported for connecting to browser: %s", err)
	}
	t.Cleanup(func() {
		browser.Close()
	})

	page, err := browser.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		t.Fatalf("Unexpected error reported for creating page: %s", err)
	}

	err = page.SetDocumentContent(itemsDocument)
	if err != nil {
		t.Fatalf("Unexpected error reported for setting document: %s", err)
	}

	return page
}

func newSelection(page *rod.Page) *rodquery.Selection {
	return rodquery.New(page, "li.item", rodquery.Config{
		ErrWriter: io.Discard,
		OutWriter: io.Discard,
	})
}

func TestRefresh_CollectsMatchingElements(t *testing.T) {
	// given
	page := openPage(t)
	uut := newSelection(page)

	signals := 0
	uut.Changes().Subscribe(func() error {
		signals++
		return nil
	})

	// when
	err := uut.Refresh()

	// then
	if err != nil {
		t.Fatalf("Unexpected error reported for refresh: %s", err)
	}

	if uut.Len() != 2 {
		t.Fatalf("Expected selection length %d to equal 2", uut.Len())
	}

	for idx, node := range uut.ToSlice() {
		if node.LocalName != "li" || node.BackendNodeID == 0 {
			t.Errorf("Expected node %d to be an identified li element, got %+v", idx, node)
		}
	}

	if signals != 1 {
		t.Errorf("Expected signals count %d to equal 1", signals)
	}
}

func TestRefresh_RepeatedWithoutMutationKeepsIdentityAndDoesNotSignal(t *testing.T) {
	// given
	page := openPage(t)
	uut := newSelection(page)

	err := uut.Refresh()
	if err != nil {
		t.Fatalf("Unexpected error reported for refresh: %s", err)
	}
	before := uut.ToSlice()

	signals := 0
	uut.Changes().Subscribe(func() error {
		signals++
		return nil
	})

	// when
	for range 3 {
		err = uut.Refresh()
		if err != nil {
			t.Fatalf("Unexpected error reported for refresh: %s", err)
		}
	}

	// then
	after := uut.ToSlice()
	if len(after) != len(before) {
		t.Fatalf("Expected selection length %d to equal %d", len(after), len(before))
	}

	for idx := range before {
		if before[idx] != after[idx] {
			t.Errorf("Expected node %+v to equal %+v", after[idx], before[idx])
		}
	}

	if signals != 0 {
		t.Errorf("Expected no signals for unchanged membership, got %d", signals)
	}
}

func TestRefresh_ReleasesQueriedElements(t *testing.T) {
	// given
	page := openPage(t)
	errOut := &bytes.Buffer{}
	uut := rodquery.New(page, "li.item", rodquery.Config{
		ErrWriter: errOut,
		OutWriter: io.Discard,
	})

	// when
	for range 5 {
		err := uut.Refresh()
		if err != nil {
			t.Fatalf("Unexpected error reported for refresh: %s", err)
		}
	}

	// then
	if errOut.Len() != 0 {
		t.Errorf("Expected no errors while releasing elements, got %q", errOut.String())
	}

	if uut.Len() != 2 {
		t.Errorf("Expected selection length %d to equal 2", uut.Len())
	}
}

func TestWatch_TracksInsertedAndRemovedElements(t *testing.T) {
	// given
	page := openPage(t)
	uut := newSelection(page)

	signalled := make(chan int, 16)
	uut.Changes().Subscribe(func() error {
		signalled <- uut.Len()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watchDone := make(chan error, 1)
	go func() {
		watchDone <- uut.Watch(ctx)
	}()

	waitForLength(t, signalled, 2)

	// when
	_, err := page.Eval(appendItemScript)
	if err != nil {
		t.Fatalf("Unexpected error reported for appending item: %s", err)
	}

	// then
	waitForLength(t, signalled, 3)

	// when
	_, err = page.Eval(removeItemsScript)
	if err != nil {
		t.Fatalf("Unexpected error reported for removing items: %s", err)
	}

	// then
	waitForLength(t, signalled, 0)

	cancel()
	select {
	case err := <-watchDone:
		if err != nil {
			t.Errorf("Unexpected error reported for watch: %s", err)
		}
	case <-time.After(signalTimeout):
		t.Errorf("Watch did not finish after context cancellation")
	}
}

func waitForLength(t *testing.T, signalled <-chan int, expected int) {
	t.Helper()

	timeout := time.After(signalTimeout)
	for {
		select {
		case length := <-signalled:
			if length == expected {
				return
			}
		case <-timeout:
			t.Fatalf("Expected selection to reach length %d before timeout", expected)
		}
	}
}
