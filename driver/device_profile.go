// Package driver exposes the programmatic surface for working with an APK:
// load, launch, tap, findView, screenshot, and the lifecycle verbs, wired on
// top of the container reader, the binary-format decoders, the translator,
// the rewriter, and the shim.
package driver

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/johnsonlee/testpilot/internal/resconfig"
)

// DeviceProfile is an optional YAML-configured device description feeding
// the Configuration Matcher's target Config, letting tests pin a locale,
// density, or SDK level without constructing a resconfig.Config by hand.
type DeviceProfile struct {
	Locale string `yaml:"locale"`
	DensityDPI uint16 `yaml:"density_dpi"`
	Orientation string `yaml:"orientation"`
	SDKVersion uint16 `yaml:"sdk_version"`
	ScreenWidth uint16 `yaml:"screen_width"`
	ScreenHeight uint16 `yaml:"screen_height"`
}

// LoadDeviceProfile reads and parses a YAML device profile file.
func LoadDeviceProfile(path string) (*DeviceProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("driver: reading device profile: %w", err)
	}
	var p DeviceProfile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("driver: parsing device profile: %w", err)
	}
	return &p, nil
}

// Config converts the profile into a resconfig.Config suitable as the
// Configuration Matcher's target.
func (p *DeviceProfile) Config() resconfig.Config {
	c := resconfig.Config{
		Density: p.DensityDPI,
		SDKVersion: p.SDKVersion,
		ScreenWidth: p.ScreenWidth,
		ScreenHeight: p.ScreenHeight,
	}
	if len(p.Locale) >= 2 {
		c.Language = p.Locale[:2]
	}
	if len(p.Locale) >= 5 {
		c.Country = p.Locale[3:5]
	}
	switch p.Orientation {
	case "port":
		c.Orientation = resconfig.OrientationPort
	case "land":
		c.Orientation = resconfig.OrientationLand
	}
	return c
}
