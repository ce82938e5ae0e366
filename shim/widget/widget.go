// Package widget provides the concrete widget types guest code references
// after rewriting (TextView, Button, LinearLayout, FrameLayout, RecyclerView
// and its LinearLayoutManager, ViewPager), built on shim/view's pipeline.
package widget

import "github.com/johnsonlee/testpilot/shim/view"

// TextView displays Text; it has no children.
type TextView struct {
	view.View
}

// NewTextView returns a TextView with text set.
func NewTextView(text string) *TextView {
	t := &TextView{}
	t.Text = text
	return t
}

// Button is a clickable TextView.
type Button struct {
	view.View
}

// NewButton returns a clickable Button labeled text.
func NewButton(text string) *Button {
	b := &Button{}
	b.Text = text
	b.Clickable = true
	return b
}

// Orientation selects a LinearLayout's child arrangement axis.
type Orientation int

const (
	Vertical Orientation = iota
	Horizontal
)

// LinearLayout arranges children along one axis.
type LinearLayout struct {
	view.Group
}

// NewLinearLayout returns a LinearLayout arranging children along o.
func NewLinearLayout(o Orientation) *LinearLayout {
	l := &LinearLayout{}
	if o == Horizontal {
		l.Arrange = view.HorizontalArrange
	} else {
		l.Arrange = view.VerticalArrange
	}
	return l
}

// FrameLayout stacks children at its origin default arrangement.
type FrameLayout struct {
	view.Group
}

// NewFrameLayout returns a FrameLayout.
func NewFrameLayout() *FrameLayout {
	f := &FrameLayout{}
	f.Arrange = view.StackArrange
	return f
}

// ImageView has no children and renders only its background/placeholder.
type ImageView struct {
	view.View
}
