package driver

import (
	"fmt"

	"github.com/johnsonlee/testpilot/internal/axml"
	"github.com/johnsonlee/testpilot/shim/activity"
	"github.com/johnsonlee/testpilot/shim/view"
)

// defaultWindowWidth/Height are the window size Launch always uses; a
// DeviceProfile's screen width and height feed resource matching only and
// do not change the window size.
const (
	defaultWindowWidth = 1080
	defaultWindowHeight = 1920
)

// Launch drives the named activity (or, if name is empty, the manifest's
// declared MAIN+LAUNCHER entry point) to Resumed. Discovery searches
// both <activity> and <activity-alias> elements, resolving an alias via its
// targetActivity attribute.
func (h *Handle) Launch(name string) error {
	if name == "" {
		found, err := findLauncherActivity(h.manifest)
		if err != nil {
			return fmt.Errorf("driver: launch: %w", err)
		}
		name = found
	}

	root := &view.Group{}
	root.LayoutParams = view.LayoutParams{Width: view.MatchParent, Height: view.MatchParent}
	h.window = &Window{Width: defaultWindowWidth, Height: defaultWindowHeight, Root: root}
	root.Geometry = view.Rect{Left: 0, Top: 0, Right: h.window.Width, Bottom: h.window.Height}

	h.controller = activity.NewController(activity.Hooks{})
	if cls, ok := h.classes[name]; ok {
		_ = cls // the translated class is available for a future binder that
		// instantiates it and runs its lifecycle-method bodies through an
		// interpreter over hostvm.Method.Code; testpilot's scope ends at
		// producing that translated, rewritten class unit.
	}
	return h.controller.Resume()
}

// findLauncherActivity searches the manifest's <application> for the
// activity (or activity-alias, resolved via targetActivity) carrying an
// intent-filter with action MAIN and category LAUNCHER.
func findLauncherActivity(doc *axml.Document) (string, error) {
	if doc == nil || doc.Root == nil {
		return "", fmt.Errorf("no manifest loaded")
	}
	apps := doc.Root.ChildrenNamed("application")
	if len(apps) == 0 {
		return "", fmt.Errorf("manifest has no <application>")
	}
	app := apps[0]

	for _, el := range append(app.ChildrenNamed("activity"), app.ChildrenNamed("activity-alias")...) {
		if !hasLauncherIntentFilter(el) {
			continue
		}
		if el.Name == "activity-alias" {
			if target, ok := el.Attr(androidNS, "targetActivity"); ok {
				return target.RawValue, nil
			}
			continue
		}
		if nameAttr, ok := el.Attr(androidNS, "name"); ok {
			return nameAttr.RawValue, nil
		}
	}
	return "", fmt.Errorf("no activity declares a MAIN/LAUNCHER intent filter")
}

func hasLauncherIntentFilter(el *axml.Element) bool {
	for _, filter := range el.ChildrenNamed("intent-filter") {
		hasMain, hasLauncher := false, false
		for _, action := range filter.ChildrenNamed("action") {
			if n, ok := action.Attr(androidNS, "name"); ok && n.RawValue == "android.intent.action.MAIN" {
				hasMain = true
			}
		}
		for _, cat := range filter.ChildrenNamed("category") {
			if n, ok := cat.Attr(androidNS, "name"); ok && n.RawValue == "android.intent.category.LAUNCHER" {
				hasLauncher = true
			}
		}
		if hasMain && hasLauncher {
			return true
		}
	}
	return false
}
