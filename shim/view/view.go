package view

// Visibility is a view's visibility enum.
type Visibility int

const (
	Visible Visibility = iota
	Invisible
	Gone
)

// Padding is a four-sided inset.
type Padding struct{ Left, Top, Right, Bottom int }

// LayoutParams declares a child's requested dimensions within its parent.
type LayoutParams struct {
	Width, Height DimSpec // either >= 0 (pixels), MatchParent, or WrapContent
}

// Rect is an axis-aligned rectangle in parent-relative coordinates after
// layout.
type Rect struct{ Left, Top, Right, Bottom int }

func (r Rect) Width() int { return r.Right - r.Left }
func (r Rect) Height() int { return r.Bottom - r.Top }

// Contains reports whether (x, y) falls within r, using half-open bounds
// (left/top inclusive, right/bottom exclusive) matching hit-test semantics.
func (r Rect) Contains(x, y int) bool {
	return x >= r.Left && x < r.Right && y >= r.Top && y < r.Bottom
}

// ClickListener is invoked by performClick when the view is tapped.
type ClickListener func(v *View)

// TouchListener intercepts dispatch before click handling; returning true
// consumes the event.
type TouchListener func(v *View, ev MotionEvent) bool

// View is one node in the view tree.
type View struct {
	ID int
	Parent Container
	Visibility Visibility
	Geometry Rect
	Padding Padding
	LayoutParams LayoutParams
	MeasuredW, MeasuredH int

	Clickable bool
	OnClick ClickListener
	OnTouch TouchListener
	OnIntercept func(ev MotionEvent) bool

	// draw customizes what this view records into the command list beyond
	// the background it may set via Background.
	Background *Color
	Text string
}

// Elem is anything that can take part in the measure/layout/draw pipeline:
// every *View and every *Group satisfies it, so a Group's children can hold
// a mix of leaf views and nested groups with correct dynamic dispatch.
type Elem interface {
	Measure(widthSpec, heightSpec MeasureSpec)
	Layout(l, t, r, b int)
	Draw(ops *[]DrawOp)
	AsView() *View
}

// Container is the interface a composite view (one with children)
// satisfies; View itself has no children, so container types embed View and
// add child management.
type Container interface {
	Elem
	Children() []Elem
}

// AsView returns the receiver, satisfying Elem for leaf views.
func (v *View) AsView() *View { return v }

// Measure records the view's measured dimensions honoring spec
// contract: EXACTLY requires the exact size, AT_MOST an upper bound,
// UNSPECIFIED no bound. The base View has no intrinsic content size, so it
// measures to the bound implied by spec (0 when unspecified).
func (v *View) Measure(widthSpec, heightSpec MeasureSpec) {
	v.MeasuredW = resolveDim(widthSpec)
	v.MeasuredH = resolveDim(heightSpec)
}

func resolveDim(spec MeasureSpec) int {
	switch spec.GetMode() {
	case Exactly, AtMost:
		return spec.GetSize()
	default:
		return 0
	}
}

// Layout writes the view's geometry. Plain views have no children to
// recurse into; containers override this to also layout their children.
func (v *View) Layout(l, t, r, b int) {
	v.Geometry = Rect{Left: l, Top: t, Right: r, Bottom: b}
}

// FindViewByID performs the recursive descent find(id) operation from,
// returning the first match (pre-order, first wins).
func FindViewByID(root Elem, id int) *View {
	if root == nil {
		return nil
	}
	if v := root.AsView(); v != nil && v.ID == id {
		return v
	}
	if c, ok := root.(Container); ok {
		for _, child := range c.Children() {
			if found := FindViewByID(child, id); found != nil {
				return found
			}
		}
	}
	return nil
}

// PerformClick fires the installed click listener, if any, and reports
// whether the view actually handled the click.
func (v *View) PerformClick() bool {
	if !v.Clickable {
		return false
	}
	if v.OnClick != nil {
		v.OnClick(v)
	}
	return true
}

// Color is an RGBA draw color (0-255 per channel); used by DrawOp.
type Color struct{ R, G, B, A uint8 }

// DrawOp is one entry in a recorded draw command list
// (Save, Restore, Translate, Color, Rect, RoundRect, Text) vocabulary.
type DrawOp struct {
	Kind DrawOpKind
	X, Y int // Translate offset, or Rect/RoundRect/Text origin
	W, H int // Rect/RoundRect extent
	Rx, Ry int // RoundRect corner radii
	Color Color
	Text string
}

type DrawOpKind int

const (
	OpSave DrawOpKind = iota
	OpRestore
	OpTranslate
	OpColor
	OpRect
	OpRoundRect
	OpText
)

func (k DrawOpKind) String() string {
	return [...]string{"Save", "Restore", "Translate", "Color", "Rect", "RoundRect", "Text"}[k]
}

// Draw appends this view's own draw commands (a filled background rect and
// optional text) to ops. Containers override Draw to additionally emit
// Save/Translate/child.Draw/Restore per non-GONE child, in insertion order.
func (v *View) Draw(ops *[]DrawOp) {
	if v.Visibility == Gone {
		return
	}
	if v.Background != nil {
		*ops = append(*ops, DrawOp{Kind: OpColor, Color: *v.Background})
		*ops = append(*ops, DrawOp{Kind: OpRect, W: v.MeasuredW, H: v.MeasuredH})
	}
	if v.Text != "" {
		*ops = append(*ops, DrawOp{Kind: OpText, Text: v.Text})
	}
}
