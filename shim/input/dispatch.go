// Package input implements motion-event dispatch through a view tree:
// touch-target capture on ACTION_DOWN, intercept/click/listener
// handling, and target release on ACTION_UP/CANCEL.
package input

import "github.com/johnsonlee/testpilot/shim/view"

// Dispatcher tracks the captured touch target across a gesture's events,
// one per root view (a window owns exactly one Dispatcher).
type Dispatcher struct {
	target view.Elem
}

// Dispatch routes ev starting at root and returns whether some view
// consumed the event.
func (d *Dispatcher) Dispatch(root view.Elem, ev view.MotionEvent) bool {
	if ev.Action == view.ActionDown {
		d.target = nil
	}
	handled := d.dispatchTo(root, ev)
	if ev.Action == view.ActionUp || ev.Action == view.ActionCancel {
		d.target = nil
	}
	return handled
}

func (d *Dispatcher) dispatchTo(node view.Elem, ev view.MotionEvent) bool {
	v := node.AsView()

	if d.target != nil {
		// A gesture already has a captured target: keep routing to it
		// regardless of where the point now falls, per the touch-capture
		// invariant.
		if d.target == node {
			return handleLocally(v, ev)
		}
		if c, ok := node.(view.Container); ok {
			for _, child := range c.Children() {
				if d.isAncestorOf(child, d.target) || child == d.target {
					cv := child.AsView()
					return d.dispatchTo(child, ev.Translated(cv.Geometry.Left, cv.Geometry.Top))
				}
			}
		}
		return false
	}

	if v.OnIntercept != nil && v.OnIntercept(ev) {
		return handleLocally(v, ev)
	}

	if ev.Action == view.ActionDown {
		if c, ok := node.(view.Container); ok {
			children := c.Children()
			for i := len(children) - 1; i >= 0; i-- {
				child := children[i]
				cv := child.AsView()
				if cv.Visibility != view.Visible {
					continue
				}
				if cv.Geometry.Contains(ev.X, ev.Y) {
					d.target = child
					return d.dispatchTo(child, ev.Translated(cv.Geometry.Left, cv.Geometry.Top))
				}
			}
		}
	}

	return handleLocally(v, ev)
}

func (d *Dispatcher) isAncestorOf(candidate view.Elem, target view.Elem) bool {
	c, ok := candidate.(view.Container)
	if !ok {
		return false
	}
	for _, child := range c.Children() {
		if child == target || d.isAncestorOf(child, target) {
			return true
		}
	}
	return false
}

func handleLocally(v *view.View, ev view.MotionEvent) bool {
	if v.OnTouch != nil && v.OnTouch(v, ev) {
		return true
	}
	if v.Clickable && ev.Action == view.ActionUp {
		return v.PerformClick()
	}
	return false
}
