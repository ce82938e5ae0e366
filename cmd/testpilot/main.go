// Command testpilot loads an APK, launches its entry activity, and
// optionally taps a point and writes a screenshot, a thin CLI front end
// over the driver package, in the spirit of the Go tool's own build-command
// wrappers.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log"
	"os"

	"github.com/johnsonlee/testpilot/driver"
)

func main() {
	apkPath := flag.String("apk", "", "path to the APK to load")
	activity := flag.String("activity", "", "fully-qualified activity internal name; defaults to the manifest's MAIN/LAUNCHER entry")
	profilePath := flag.String("device-profile", "", "optional YAML device profile")
	tapX := flag.Int("tap-x", -1, "x coordinate to tap after launch")
	tapY := flag.Int("tap-y", -1, "y coordinate to tap after launch")
	screenshotOut := flag.String("screenshot", "", "write a PNG screenshot to this path after launch")
	flag.Parse()

	if *apkPath == "" {
		log.Fatal("testpilot: -apk is required")
	}

	var profile *driver.DeviceProfile
	if *profilePath != "" {
		p, err := driver.LoadDeviceProfile(*profilePath)
		if err != nil {
			log.Fatalf("testpilot: %v", err)
		}
		profile = p
	}

	h, err := driver.Load(*apkPath, profile)
	if err != nil {
		log.Fatalf("testpilot: %v", err)
	}
	defer h.Close()

	if err := h.Launch(*activity); err != nil {
		log.Fatalf("testpilot: %v", err)
	}

	for _, st := range h.TranslationStats() {
		fmt.Printf("translated: %d succeeded, %d failed\n", st.Succeeded, st.Failed)
	}

	if *tapX >= 0 && *tapY >= 0 {
		handled := h.Tap(*tapX, *tapY)
		fmt.Printf("tap(%d,%d) handled=%v\n", *tapX, *tapY, handled)
	}

	if *screenshotOut != "" {
		canvas, _, err := h.Screenshot()
		if err != nil {
			log.Fatalf("testpilot: %v", err)
		}
		f, err := os.Create(*screenshotOut)
		if err != nil {
			log.Fatalf("testpilot: %v", err)
		}
		defer f.Close()
		if err := png.Encode(f, canvas.Image()); err != nil {
			log.Fatalf("testpilot: %v", err)
		}
	}
}
