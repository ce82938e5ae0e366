package view

// Group is a composite view with children laid out by an Arrange function.
// LinearLayout/FrameLayout are Groups configured with different Arrange
// strategies rather than separate types, keeping the container behavior
// (measure/layout/draw recursion, ) in one place.
type Group struct {
	View
	children []Elem
	Arrange func(g *Group, w, h int)
}

func (g *Group) Children() []Elem { return g.children }
func (g *Group) AsView() *View { return &g.View }

// AddChild appends a child in insertion order.
func (g *Group) AddChild(c Elem) {
	if v := c.AsView(); v != nil {
		v.Parent = g
	}
	g.children = append(g.children, c)
}

// Measure measures every non-GONE child against a derived child spec, then
// resolves its own size the same way a plain View would (subclasses with
// intrinsic wrap-content sizing can override).
func (g *Group) Measure(widthSpec, heightSpec MeasureSpec) {
	for _, c := range g.children {
		v := c.AsView()
		if v.Visibility == Gone {
			continue
		}
		cw := ChildMeasureSpec(widthSpec, g.Padding.Left+g.Padding.Right, v.LayoutParams.Width)
		ch := ChildMeasureSpec(heightSpec, g.Padding.Top+g.Padding.Bottom, v.LayoutParams.Height)
		c.Measure(cw, ch)
	}
	g.View.Measure(widthSpec, heightSpec)
}

// Layout writes its own geometry, then invokes Arrange (if set) to position
// children, then recurses into every child's own Layout.
func (g *Group) Layout(l, t, r, b int) {
	g.View.Layout(l, t, r, b)
	if g.Arrange != nil {
		g.Arrange(g, r-l, b-t)
	}
	for _, c := range g.children {
		v := c.AsView()
		c.Layout(v.Geometry.Left, v.Geometry.Top, v.Geometry.Left+v.MeasuredW, v.Geometry.Top+v.MeasuredH)
	}
}

// Draw emits Save; Translate(child.left, child.top); child.Draw; Restore
// for every non-GONE child in insertion order.
func (g *Group) Draw(ops *[]DrawOp) {
	g.View.Draw(ops)
	for _, c := range g.children {
		v := c.AsView()
		if v.Visibility == Gone {
			continue
		}
		*ops = append(*ops, DrawOp{Kind: OpSave})
		*ops = append(*ops, DrawOp{Kind: OpTranslate, X: v.Geometry.Left, Y: v.Geometry.Top})
		c.Draw(ops)
		*ops = append(*ops, DrawOp{Kind: OpRestore})
	}
}

// StackArrange positions every child at the group's origin, sized to its
// own measured dimensions; FrameLayout's default arrangement.
func StackArrange(g *Group, w, h int) {
	for _, c := range g.children {
		v := c.AsView()
		v.Geometry = Rect{Left: g.Padding.Left, Top: g.Padding.Top, Right: g.Padding.Left + v.MeasuredW, Bottom: g.Padding.Top + v.MeasuredH}
	}
}

// VerticalArrange stacks children top to bottom; LinearLayout's vertical
// orientation.
func VerticalArrange(g *Group, w, h int) {
	y := g.Padding.Top
	for _, c := range g.children {
		v := c.AsView()
		v.Geometry = Rect{Left: g.Padding.Left, Top: y, Right: g.Padding.Left + v.MeasuredW, Bottom: y + v.MeasuredH}
		y += v.MeasuredH
	}
}

// HorizontalArrange places children left to right; LinearLayout's
// horizontal orientation.
func HorizontalArrange(g *Group, w, h int) {
	x := g.Padding.Left
	for _, c := range g.children {
		v := c.AsView()
		v.Geometry = Rect{Left: x, Top: g.Padding.Top, Right: x + v.MeasuredW, Bottom: g.Padding.Top + v.MeasuredH}
		x += v.MeasuredW
	}
}
