package widget

import (
	"testing"

	"github.com/johnsonlee/testpilot/shim/view"
)

type countingAdapter struct {
	count       int
	instantiate []int
	destroy     []int
}

func (a *countingAdapter) Count() int { return a.count }
func (a *countingAdapter) InstantiateItem(pos int) any {
	a.instantiate = append(a.instantiate, pos)
	return pos
}
func (a *countingAdapter) DestroyItem(pos int, item any) { a.destroy = append(a.destroy, pos) }
func (a *countingAdapter) IsViewFromObject(v *view.View, item any) bool { return false }

func TestViewPagerEvictionWithLimitOne(t *testing.T) {
	adapter := &countingAdapter{count: 5}
	pager := NewViewPager(adapter, 1)

	if got := pager.Instantiated(); len(got) != 2 || !got[0] || !got[1] {
		t.Fatalf("initial window = %v, want {0,1}", got)
	}

	adapter.destroy = nil
	pager.SetCurrentItem(3)

	destroyed := map[int]bool{}
	for _, p := range adapter.destroy {
		destroyed[p] = true
	}
	if !destroyed[0] || !destroyed[1] {
		t.Fatalf("destroyed = %v, want superset of {0,1}", adapter.destroy)
	}

	got := pager.Instantiated()
	for _, want := range []int{2, 3, 4} {
		if !got[want] {
			t.Fatalf("instantiated set %v missing position %d", got, want)
		}
	}
}
