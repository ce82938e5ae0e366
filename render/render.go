// Package render rasterizes a recorded draw-command list into an
// image.RGBA, giving the driver's screenshot() operation something concrete
// to return. Text metrics use golang.org/x/image/font/basicfont's fixed
// grid rather than a full font shaping stack: real text metrics are an
// approximation regardless of engine (character count × size × constant),
// so width comparisons in tests should tolerate a small delta.
package render

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/johnsonlee/testpilot/shim/view"
)

// Canvas rasterizes a view.DrawOp list into a fixed-size RGBA image.
type Canvas struct {
	img *image.RGBA
}

// NewCanvas returns a Canvas of the given pixel dimensions, initialized to
// transparent black.
func NewCanvas(width, height int) *Canvas {
	return &Canvas{img: image.NewRGBA(image.Rect(0, 0, width, height))}
}

// Image returns the canvas's current pixels, reflecting whatever ops have
// been replayed onto it so far.
func (c *Canvas) Image() *image.RGBA { return c.img }

// Render replays ops onto the canvas and returns the resulting image. The
// interpreter keeps a translation-offset stack for Save/Translate/Restore
// and a current fill color for Color/Rect/RoundRect/Text, mirroring a
// minimal Canvas API.
func (c *Canvas) Render(ops []view.DrawOp) *image.RGBA {
	type state struct{ ox, oy int }
	stack := []state{{0, 0}}
	cur := color.RGBA{A: 0xff}

	top := func() state { return stack[len(stack)-1] }

	for _, op := range ops {
		switch op.Kind {
		case view.OpSave:
			s := top()
			stack = append(stack, s)
		case view.OpRestore:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case view.OpTranslate:
			stack[len(stack)-1].ox += op.X
			stack[len(stack)-1].oy += op.Y
		case view.OpColor:
			cur = color.RGBA{R: op.Color.R, G: op.Color.G, B: op.Color.B, A: op.Color.A}
		case view.OpRect:
			s := top()
			r := image.Rect(s.ox+op.X, s.oy+op.Y, s.ox+op.X+op.W, s.oy+op.Y+op.H)
			draw.Draw(c.img, r.Intersect(c.img.Bounds()), &image.Uniform{C: cur}, image.Point{}, draw.Src)
		case view.OpRoundRect:
			// Rounded corners are approximated as a plain rect: testpilot's
			// rasterizer is for test assertions on layout/color, not pixel-
			// perfect cosmetic fidelity.
			s := top()
			r := image.Rect(s.ox+op.X, s.oy+op.Y, s.ox+op.X+op.W, s.oy+op.Y+op.H)
			draw.Draw(c.img, r.Intersect(c.img.Bounds()), &image.Uniform{C: cur}, image.Point{}, draw.Src)
		case view.OpText:
			s := top()
			drawText(c.img, s.ox+op.X, s.oy+op.Y, op.Text, cur)
		}
	}
	return c.img
}

var face = basicfont.Face7x13

func drawText(dst *image.RGBA, x, y int, text string, col color.RGBA) {
	d := &font.Drawer{
		Dst: dst,
		Src: &image.Uniform{C: col},
		Face: face,
		Dot: fixed.P(x, y+face.Ascent),
	}
	d.DrawString(text)
}

// TextWidth approximates the pixel width text would occupy in the face used
// by drawText.
func TextWidth(text string) int {
	return font.MeasureString(face, text).Round()
}
