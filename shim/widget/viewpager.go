package widget

import "github.com/johnsonlee/testpilot/shim/view"

// PagerAdapter supplies and reclaims page views ViewPager
// eviction policy.
type PagerAdapter interface {
	Count() int
	InstantiateItem(position int) any
	DestroyItem(position int, item any)
	IsViewFromObject(v *view.View, item any) bool
}

// ViewPager maintains a window of instantiated pages around the current
// position, sized by OffscreenPageLimit.
type ViewPager struct {
	view.Group
	Adapter PagerAdapter
	OffscreenPageLimit int
	current int
	instantiated map[int]any
}

// NewViewPager returns a ViewPager backed by adapter with the given
// offscreen page limit k, instantiating the initial window around position 0.
func NewViewPager(adapter PagerAdapter, k int) *ViewPager {
	p := &ViewPager{Adapter: adapter, OffscreenPageLimit: k, instantiated: map[int]any{}}
	p.applyWindow()
	return p
}

// CurrentItem returns the pager's current position.
func (p *ViewPager) CurrentItem() int { return p.current }

// SetCurrentItem moves to position, instantiating pages that enter the new
// window and destroying those that leave it.
func (p *ViewPager) SetCurrentItem(position int) {
	p.current = position
	p.applyWindow()
}

// Instantiated returns the set of currently instantiated page positions.
func (p *ViewPager) Instantiated() map[int]bool {
	out := make(map[int]bool, len(p.instantiated))
	for k := range p.instantiated {
		out[k] = true
	}
	return out
}

func (p *ViewPager) applyWindow() {
	count := p.Adapter.Count()
	lo := p.current - p.OffscreenPageLimit
	if lo < 0 {
		lo = 0
	}
	hi := p.current + p.OffscreenPageLimit
	if hi > count-1 {
		hi = count - 1
	}

	for pos := range p.instantiated {
		if pos < lo || pos > hi {
			p.Adapter.DestroyItem(pos, p.instantiated[pos])
			delete(p.instantiated, pos)
		}
	}
	for pos := lo; pos <= hi; pos++ {
		if _, ok := p.instantiated[pos]; !ok {
			p.instantiated[pos] = p.Adapter.InstantiateItem(pos)
		}
	}
}
