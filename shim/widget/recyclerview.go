package widget

import "github.com/johnsonlee/testpilot/shim/view"

// RecyclerView hosts items positioned by a LayoutManager; testpilot models
// only the layout-manager contract real guest code depends on (arranging
// already-bound item views), not view recycling itself, since nothing in
// this runtime's scope exercises scroll-driven recycling.
type RecyclerView struct {
	view.Group
	Manager LayoutManager
}

// LayoutManager positions a RecyclerView's children.
type LayoutManager interface {
	Arrange(rv *RecyclerView, w, h int)
}

// LinearLayoutManager is RecyclerView's namesake nested type, matching the
// rewriter's mapping table entry `.../widget/RecyclerView$LinearLayoutManager`.
type LinearLayoutManager struct {
	Orientation Orientation
}

func (m *LinearLayoutManager) Arrange(rv *RecyclerView, w, h int) {
	if m.Orientation == Horizontal {
		view.HorizontalArrange(&rv.Group, w, h)
		return
	}
	view.VerticalArrange(&rv.Group, w, h)
}

// NewRecyclerView returns a RecyclerView using m to position its children.
func NewRecyclerView(m LayoutManager) *RecyclerView {
	rv := &RecyclerView{Manager: m}
	rv.Arrange = func(g *view.Group, w, h int) { m.Arrange(rv, w, h) }
	return rv
}
