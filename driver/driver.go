package driver

import (
	"bytes"
	"fmt"

	apk "github.com/johnsonlee/testpilot"
	"github.com/johnsonlee/testpilot/internal/arsc"
	"github.com/johnsonlee/testpilot/internal/axml"
	"github.com/johnsonlee/testpilot/internal/dex"
	"github.com/johnsonlee/testpilot/internal/hostvm"
	"github.com/johnsonlee/testpilot/internal/resconfig"
	"github.com/johnsonlee/testpilot/internal/rewrite"
	"github.com/johnsonlee/testpilot/internal/translate"
	"github.com/johnsonlee/testpilot/render"
	"github.com/johnsonlee/testpilot/shim/activity"
	"github.com/johnsonlee/testpilot/shim/input"
	"github.com/johnsonlee/testpilot/shim/res"
	"github.com/johnsonlee/testpilot/shim/view"
)

const androidNS = "http://schemas.android.com/apk/res/android"

// Handle owns one loaded, transformed APK session plus its runtime state:
// the active Activity controller, its Window, and the input dispatcher.
// Close releases the underlying extraction session.
type Handle struct {
	session *apk.Session
	manifest *axml.Document
	classes map[string]*hostvm.Class
	stats []translate.Stats

	resources *arsc.Table
	facade *res.Facade

	controller *activity.Controller
	window *Window
	dispatcher input.Dispatcher
}

// Window owns the window size and the root view; Screenshot records the
// draw-command list afresh on each call.
type Window struct {
	Width, Height int
	Root view.Elem
}

// Load opens path, decodes its manifest and resource table, and translates
// every DEX file's classes through the translator and rewriter. profile may
// be nil, in which case resource resolution targets an all-"any" Config: on
// most qualifiers an unqualified default variant is then preferred when one
// exists, but on density a variant that specifies one wins over one that
// does not.
func Load(path string, profile *DeviceProfile) (*Handle, error) {
	session, err := apk.Open(path, apk.OpenOptions{})
	if err != nil {
		return nil, fmt.Errorf("driver: load: %w", err)
	}

	var doc *axml.Document
	if len(session.Manifest) > 0 {
		d, err := axml.Decode(bytes.NewReader(session.Manifest))
		if err != nil {
			session.Close()
			return nil, fmt.Errorf("driver: decoding manifest: %w", err)
		}
		doc = d
	}

	h := &Handle{session: session, manifest: doc, classes: map[string]*hostvm.Class{}, facade: &res.Facade{}}

	if len(session.Resources) > 0 {
		table, err := arsc.Decode(bytes.NewReader(session.Resources))
		if err == nil {
			h.resources = table
			target := resconfig.Config{}
			if profile != nil {
				target = profile.Config()
			}
			h.facade.Bind(&tableResolver{table: table, target: target})
		}
		// A resource table that fails to decode leaves h.facade unbound;
		// resource lookups then report ResourceMissing rather than aborting
		// the whole load.
	}

	for _, blob := range session.Dex {
		df, err := dex.Decode(blob)
		if err != nil {
			continue // malformed classes*.dex: the container reader already validated presence, but a corrupt file still shouldn't abort the whole load
		}
		units, stats := translate.File(df)
		h.stats = append(h.stats, stats)
		for _, u := range units {
			rewrite.Class(u)
			h.classes[u.Name] = u
		}
	}

	return h, nil
}

// Close releases the handle's extraction session.
func (h *Handle) Close() error {
	if h.session == nil {
		return nil
	}
	return h.session.Close()
}

// TranslationStats reports the per-DEX-file success/failure class counts
// accumulated during Load reporting contract.
func (h *Handle) TranslationStats() []translate.Stats { return h.stats }

// StringResource resolves a string resource by id against the device
// configuration Load was given, following references and applying the
// configuration matcher.
func (h *Handle) StringResource(id uint32) (string, error) { return h.facade.String(id) }

// IntResource resolves an integer resource by id.
func (h *Handle) IntResource(id uint32) (int32, error) { return h.facade.Int(id) }

// BoolResource resolves a boolean resource by id.
func (h *Handle) BoolResource(id uint32) (bool, error) { return h.facade.Bool(id) }

// ColorResource resolves a color resource by id.
func (h *Handle) ColorResource(id uint32) (uint32, error) { return h.facade.Color(id) }

// DimensionResource resolves a dimension resource by id.
func (h *Handle) DimensionResource(id uint32) (float32, error) { return h.facade.Dimension(id) }

// FindView performs the recursive find(id) operation against the current
// window's root view.
func (h *Handle) FindView(id int) *view.View {
	if h.window == nil {
		return nil
	}
	return view.FindViewByID(h.window.Root, id)
}

// Pause, Resume, Stop, and Destroy forward to the active Activity's lifecycle
// controller lifecycle-verb surface.
func (h *Handle) Pause() error { return h.controller.Pause() }
func (h *Handle) Resume() error { return h.controller.Resume() }
func (h *Handle) Stop() error { return h.controller.Stop() }
func (h *Handle) Destroy() error { return h.controller.Destroy() }

// LifecycleEvent reports the lifecycle event associated with the active
// Activity's current state, if any.
func (h *Handle) LifecycleEvent() (activity.Event, bool) { return h.controller.CurrentEvent() }

// Screenshot rasterizes the window's recorded draw-command list.
func (h *Handle) Screenshot() (*render.Canvas, []view.DrawOp, error) {
	if h.window == nil {
		return nil, nil, fmt.Errorf("driver: screenshot: no window; call Launch first")
	}
	var ops []view.DrawOp
	h.window.Root.Draw(&ops)
	canvas := render.NewCanvas(h.window.Width, h.window.Height)
	canvas.Render(ops)
	return canvas, ops, nil
}

// Tap synthesizes ACTION_DOWN+ACTION_UP at (x, y).
func (h *Handle) Tap(x, y int) bool {
	if h.window == nil {
		return false
	}
	if x < 0 || y < 0 || x >= h.window.Width || y >= h.window.Height {
		return false // InputOutOfBounds: silently ignored
	}
	down := view.MotionEvent{Action: view.ActionDown, X: x, Y: y}
	up := view.MotionEvent{Action: view.ActionUp, X: x, Y: y}
	h.dispatcher.Dispatch(h.window.Root, down)
	return h.dispatcher.Dispatch(h.window.Root, up)
}

// TapView synthesizes a tap at the center of the view with the given id.
func (h *Handle) TapView(id int) bool {
	v := h.FindView(id)
	if v == nil {
		return false
	}
	cx := v.Geometry.Left + v.Geometry.Width()/2
	cy := v.Geometry.Top + v.Geometry.Height()/2
	return h.Tap(cx, cy)
}
