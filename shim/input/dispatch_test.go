package input

import (
	"testing"

	"github.com/johnsonlee/testpilot/shim/view"
)

func buildWindow() (*view.Group, *view.View) {
	root := &view.Group{}
	root.Geometry = view.Rect{Left: 0, Top: 0, Right: 480, Bottom: 800}
	child := &view.View{Clickable: true}
	child.Geometry = view.Rect{Left: 0, Top: 0, Right: 200, Bottom: 100}
	child.Visibility = view.Visible
	root.AddChild(child)
	return root, child
}

func TestTapHitsChildAtCenter(t *testing.T) {
	root, child := buildWindow()
	clicks := 0
	child.OnClick = func(v *view.View) { clicks++ }

	d := &Dispatcher{}
	d.Dispatch(root, view.MotionEvent{Action: view.ActionDown, X: 100, Y: 50})
	d.Dispatch(root, view.MotionEvent{Action: view.ActionUp, X: 100, Y: 50})

	if clicks != 1 {
		t.Fatalf("clicks = %d, want 1", clicks)
	}
}

func TestTapOutsideProducesNoClick(t *testing.T) {
	root, child := buildWindow()
	clicks := 0
	child.OnClick = func(v *view.View) { clicks++ }

	d := &Dispatcher{}
	d.Dispatch(root, view.MotionEvent{Action: view.ActionDown, X: 300, Y: 200})
	d.Dispatch(root, view.MotionEvent{Action: view.ActionUp, X: 300, Y: 200})

	if clicks != 0 {
		t.Fatalf("clicks = %d, want 0", clicks)
	}
}

func TestTouchCaptureInvariant(t *testing.T) {
	root, child := buildWindow()
	d := &Dispatcher{}

	d.Dispatch(root, view.MotionEvent{Action: view.ActionDown, X: 100, Y: 50})
	if d.target != child {
		t.Fatalf("ACTION_DOWN did not capture the child as touch target")
	}

	d.Dispatch(root, view.MotionEvent{Action: view.ActionMove, X: 1000, Y: 1000})
	if d.target != child {
		t.Fatalf("touch target released before ACTION_UP/CANCEL")
	}

	d.Dispatch(root, view.MotionEvent{Action: view.ActionUp, X: 1000, Y: 1000})
	if d.target != nil {
		t.Fatalf("touch target not released on ACTION_UP")
	}
}
