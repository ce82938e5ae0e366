package view

import "testing"

func TestMeasureSpecRoundTrip(t *testing.T) {
	modes := []Mode{Unspecified, Exactly, AtMost}
	sizes := []int{0, 1, 1023, 1 << 20}
	for _, m := range modes {
		for _, s := range sizes {
			spec := Make(s, m)
			if got := spec.GetMode(); got != m {
				t.Errorf("GetMode(Make(%d,%d)) = %d, want %d", s, m, got, m)
			}
			if got := spec.GetSize(); got != s {
				t.Errorf("GetSize(Make(%d,%d)) = %d, want %d", s, m, got, s)
			}
		}
	}
}

func TestChildMeasureSpecDerivation(t *testing.T) {
	parent := Make(500, Exactly)
	if got := ChildMeasureSpec(parent, 0, 100); got.GetMode() != Exactly || got.GetSize() != 100 {
		t.Errorf("specific child dim: got mode=%d size=%d", got.GetMode(), got.GetSize())
	}
	if got := ChildMeasureSpec(parent, 10, MatchParent); got.GetMode() != Exactly || got.GetSize() != 490 {
		t.Errorf("match_parent under EXACTLY: got mode=%d size=%d", got.GetMode(), got.GetSize())
	}
	if got := ChildMeasureSpec(parent, 0, WrapContent); got.GetMode() != AtMost || got.GetSize() != 500 {
		t.Errorf("wrap_content under EXACTLY: got mode=%d size=%d", got.GetMode(), got.GetSize())
	}

	unspecified := Make(0, Unspecified)
	if got := ChildMeasureSpec(unspecified, 0, MatchParent); got.GetMode() != Unspecified {
		t.Errorf("match_parent under UNSPECIFIED: got mode=%d", got.GetMode())
	}
}

func TestGroupLayoutChildWithinBounds(t *testing.T) {
	root := &Group{Arrange: HorizontalArrange}
	root.LayoutParams = LayoutParams{Width: MatchParent, Height: MatchParent}
	child := &View{LayoutParams: LayoutParams{Width: 200, Height: 100}, Clickable: true}
	root.AddChild(child)

	root.Measure(Make(480, Exactly), Make(800, Exactly))
	root.Layout(0, 0, 480, 800)

	if child.Geometry.Right < child.Geometry.Left || child.Geometry.Bottom < child.Geometry.Top {
		t.Fatalf("degenerate child rect: %+v", child.Geometry)
	}
	if child.Geometry.Right > root.Geometry.Right || child.Geometry.Bottom > root.Geometry.Bottom {
		t.Fatalf("child rect %+v escapes parent rect %+v", child.Geometry, root.Geometry)
	}
}

func TestFindViewByIDDescendsContainers(t *testing.T) {
	root := &Group{}
	inner := &Group{}
	leaf := &View{ID: 42}
	inner.AsView().ID = 7
	inner.AddChild(leaf)
	root.AddChild(inner)

	if found := FindViewByID(root, 42); found != leaf {
		t.Fatalf("FindViewByID did not find nested leaf")
	}
	if found := FindViewByID(root, 7); found != inner.AsView() {
		t.Fatalf("FindViewByID did not find intermediate container")
	}
	if found := FindViewByID(root, 999); found != nil {
		t.Fatalf("FindViewByID found a nonexistent id")
	}
}
