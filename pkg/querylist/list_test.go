package querylist_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/sarpt/query-list-changes/pkg/querylist"
)

func stringsEqual(a, b string) bool {
	return a == b
}

func TestReset_CopiesItems(t *testing.T) {
	// given
	uut := querylist.New[string]()
	items := []string{"a", "b"}

	// when
	uut.Reset(items)
	items[0] = "changed"

	// then
	if got := uut.ToSlice(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Expected items %v to equal [a b]", got)
	}

	if uut.Dirty() {
		t.Errorf("Expected list not to be dirty after reset")
	}
}

func TestAccessors(t *testing.T) {
	// given
	uut := querylist.New[int]()
	uut.Reset([]int{1, 2, 3, 4})

	// then
	if uut.Len() != 4 {
		t.Errorf("Expected length %d to equal 4", uut.Len())
	}

	if first, ok := uut.First(); !ok || first != 1 {
		t.Errorf("Expected first %d to equal 1", first)
	}

	if last, ok := uut.Last(); !ok || last != 4 {
		t.Errorf("Expected last %d to equal 4", last)
	}

	even := uut.Filter(func(item int, _ int) bool { return item%2 == 0 })
	if !reflect.DeepEqual(even, []int{2, 4}) {
		t.Errorf("Expected filtered %v to equal [2 4]", even)
	}

	found, ok := uut.Find(func(item int, _ int) bool { return item > 2 })
	if !ok || found != 3 {
		t.Errorf("Expected found %d to equal 3", found)
	}

	if uut.Some(func(item int, _ int) bool { return item > 4 }) {
		t.Errorf("Expected no item greater than 4")
	}

	var indices []int
	uut.ForEach(func(_ int, idx int) {
		indices = append(indices, idx)
	})
	if !reflect.DeepEqual(indices, []int{0, 1, 2, 3}) {
		t.Errorf("Expected visited indices %v to equal [0 1 2 3]", indices)
	}
}

func TestFirstLast_EmptyList(t *testing.T) {
	// given
	uut := querylist.New[string]()

	// then
	if _, ok := uut.First(); ok {
		t.Errorf("Expected no first item in an empty list")
	}

	if _, ok := uut.Last(); ok {
		t.Errorf("Expected no last item in an empty list")
	}
}

func TestNotifyOnChanges_EmitsEveryTimeByDefault(t *testing.T) {
	// given
	uut := querylist.New[string]()
	signals := 0
	uut.Changes().Subscribe(func() error {
		signals++
		return nil
	})

	// when
	uut.Reset([]string{"a"})
	uut.NotifyOnChanges()
	uut.Reset([]string{"a"})
	uut.NotifyOnChanges()

	// then
	if signals != 2 {
		t.Errorf("Expected 2 signals, got %d", signals)
	}
}

func TestNotifyOnChanges_DistinctChangesOnly(t *testing.T) {
	// given
	uut := querylist.New(querylist.EmitDistinctChangesOnly(stringsEqual))
	signals := 0
	uut.Changes().Subscribe(func() error {
		signals++
		return nil
	})

	// when
	uut.Reset([]string{"a", "b"})
	uut.NotifyOnChanges()
	uut.Reset([]string{"a", "b"})
	uut.NotifyOnChanges()
	uut.Reset([]string{"b", "a"})
	uut.NotifyOnChanges()

	// then
	if signals != 2 {
		t.Errorf("Expected 2 signals for distinct contents, got %d", signals)
	}
}

func TestNotifyOnChanges_PropagatesHandlerErrors(t *testing.T) {
	// given
	uut := querylist.New[string]()
	errHandler := errors.New("handler failed")
	uut.Changes().Subscribe(func() error {
		return errHandler
	})

	// when
	err := uut.NotifyOnChanges()

	// then
	if !errors.Is(err, errHandler) {
		t.Errorf("Expected error %v to be %v", err, errHandler)
	}
}

func TestChangesSubscribe_Unsubscribe(t *testing.T) {
	// given
	uut := querylist.New[string]()
	signals := 0
	unsubscribe := uut.Changes().Subscribe(func() error {
		signals++
		return nil
	})

	// when
	unsubscribe()
	uut.NotifyOnChanges()

	// then
	if signals != 0 {
		t.Errorf("Expected no signals after unsubscribing, got %d", signals)
	}
}

func TestMarkDirty(t *testing.T) {
	// given
	uut := querylist.New[string]()
	if !uut.Dirty() {
		t.Fatalf("Expected new list to be dirty")
	}
	uut.Reset(nil)

	// when
	uut.MarkDirty()

	// then
	if !uut.Dirty() {
		t.Errorf("Expected list to be dirty after MarkDirty")
	}
}
