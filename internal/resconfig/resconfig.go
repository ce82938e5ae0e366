// Package resconfig decodes Android's ResTable_config qualifier struct and
// implements the configuration-matching algorithm resources.arsc entries are
// selected by: given a device configuration and a set of configuration
// variants for one resource entry, pick the single best match.
//
// ResTable_config has grown new trailing fields across platform revisions,
// and its declared size varies accordingly (aapt has shipped 28-, 32-, 36-,
// 48-, 52-, 56-, and 64-byte versions of this struct). Decode reads exactly
// size bytes and only interprets the fields that fit, matching the
// "tolerant of unknown trailing fields" handling in androidbinary's and
// apkparser's table decoders.
package resconfig

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Config is the subset of device-configuration qualifiers the matcher and
// the rest of testpilot care about. Zero values mean "any" (the qualifier
// was absent from the entry's configuration): a resource with no qualifier
// for an axis matches every device value on that axis.
type Config struct {
	MCC, MNC              uint16
	Language, Country     string // ISO codes, empty means "any"
	Orientation           uint8
	Touchscreen           uint8
	Density               uint16
	Keyboard              uint8
	Navigation            uint8
	InputFlags            uint8
	ScreenWidth           uint16
	ScreenHeight          uint16
	SDKVersion            uint16
	ScreenLayout          uint8
	UIMode                uint8
	SmallestScreenWidthDp uint16
	ScreenWidthDp         uint16
	ScreenHeightDp        uint16
}

const (
	OrientationAny    uint8 = 0x00
	OrientationPort   uint8 = 0x01
	OrientationLand   uint8 = 0x02
	OrientationSquare uint8 = 0x03

	screenLayoutSizeMask uint8 = 0x0f
	uiModeNightMask      uint8 = 0x30
)

// ScreenSize extracts the screen-layout-size nibble (small/normal/large/xlarge).
func (c Config) ScreenSize() uint8 { return c.ScreenLayout & screenLayoutSizeMask }

// Night reports the uiMode night-mode bits (UI_MODE_NIGHT_YES/NO/UNDEFINED).
func (c Config) Night() uint8 { return c.UIMode & uiModeNightMask }

// Decode reads one ResTable_config: a leading size field followed by as many
// of the qualifier fields as fit within that size. r is consumed exactly
// size bytes regardless of how many fields this decoder understands, so the
// caller's position stays correct for later, newer struct layouts too.
func Decode(r io.Reader) (Config, int, error) {
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return Config{}, 0, err
	}
	if size < 4 {
		return Config{}, 0, fmt.Errorf("resconfig: implausible size %d", size)
	}
	buf := make([]byte, size-4)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Config{}, 0, fmt.Errorf("resconfig: reading %d qualifier bytes: %w", size-4, err)
	}

	br := bytes.NewReader(buf)
	var c Config

	readU16 := func(dst *uint16) bool {
		if br.Len() < 2 {
			return false
		}
		binary.Read(br, binary.LittleEndian, dst)
		return true
	}
	readU8 := func(dst *uint8) bool {
		if br.Len() < 1 {
			return false
		}
		binary.Read(br, binary.LittleEndian, dst)
		return true
	}
	skip := func(n int) bool {
		if br.Len() < n {
			return false
		}
		br.Seek(int64(n), io.SeekCurrent)
		return true
	}
	readLocaleChars := func(n int) string {
		if br.Len() < n {
			return ""
		}
		raw := make([]byte, n)
		br.Read(raw)
		end := 0
		for end < n && raw[end] != 0 {
			end++
		}
		return string(raw[:end])
	}

	if !readU16(&c.MCC) || !readU16(&c.MNC) {
		return c, int(size), nil
	}
	c.Language = readLocaleChars(2)
	c.Country = readLocaleChars(2)
	if !readU8(&c.Orientation) || !readU8(&c.Touchscreen) || !readU16(&c.Density) {
		return c, int(size), nil
	}
	if !readU8(&c.Keyboard) || !readU8(&c.Navigation) || !readU8(&c.InputFlags) {
		return c, int(size), nil
	}
	skip(1) // inputPad0
	if !readU16(&c.ScreenWidth) || !readU16(&c.ScreenHeight) {
		return c, int(size), nil
	}
	if !readU16(&c.SDKVersion) {
		return c, int(size), nil
	}
	skip(2) // minorVersion, always 0
	if !readU8(&c.ScreenLayout) || !readU8(&c.UIMode) {
		return c, int(size), nil
	}
	readU16(&c.SmallestScreenWidthDp)
	readU16(&c.ScreenWidthDp)
	readU16(&c.ScreenHeightDp)
	// Remaining fields (localeScript, localeVariant, screenLayout2,
	// colorMode, localeScriptWasComputed, localeNumberingSystem) are not
	// consulted by the matcher below; leaving them unread is fine since the
	// caller already accounted for the whole declared size.
	return c, int(size), nil
}

// Best selects, among candidates (each a Config with an associated index),
// the one that is the closest match to target. It eliminates candidates
// axis by axis in the priority order locale, night mode, density,
// orientation, screen layout size, SDK version, the same order real
// resource resolution applies, discarding any candidate whose qualifier for
// the current axis disagrees with target once at least one surviving
// candidate specifies that axis. A candidate with "any" (zero value) on an
// axis is never eliminated by it, but loses ties to a candidate with an
// exact match. Density and screen layout size don't narrow by equality:
// density keeps the nearest distance to target (a tie prefers scaling down
// over scaling up), and screen size keeps the largest variant that doesn't
// exceed target's size. Among the SDK versions that don't exceed target's,
// the highest wins.
//
// candidates must be non-empty; Best panics otherwise, mirroring Go slice
// semantics for other single-element accessors.
func Best(target Config, candidates []Config) int {
	indices := make([]int, len(candidates))
	for i := range indices {
		indices[i] = i
	}

	type axis struct {
		specified func(Config) bool
		matches   func(Config) bool
	}
	narrow := func(ax axis) {
		if len(indices) <= 1 {
			return
		}
		anySpecified := false
		for _, i := range indices {
			if ax.specified(candidates[i]) {
				anySpecified = true
				break
			}
		}
		if !anySpecified {
			return
		}
		var kept []int
		for _, i := range indices {
			if !ax.specified(candidates[i]) || ax.matches(candidates[i]) {
				kept = append(kept, i)
			}
		}
		if len(kept) > 0 {
			// Prefer candidates that actually specify this axis over "any"
			// survivors, matching the platform's exact-beats-any tie rule.
			var exact []int
			for _, i := range kept {
				if ax.specified(candidates[i]) {
					exact = append(exact, i)
				}
			}
			if len(exact) > 0 {
				kept = exact
			}
			indices = kept
		}
	}

	narrow(axis{
		specified: func(c Config) bool { return c.Language != "" },
		matches:   func(c Config) bool { return c.Language == target.Language },
	})
	narrow(axis{
		specified: func(c Config) bool { return c.Country != "" },
		matches:   func(c Config) bool { return c.Country == target.Country },
	})
	narrow(axis{
		specified: func(c Config) bool { return c.Night() != 0 },
		matches:   func(c Config) bool { return c.Night() == target.Night() },
	})
	indices = narrowByDensity(candidates, indices, target)
	narrow(axis{
		specified: func(c Config) bool { return c.Orientation != OrientationAny },
		matches:   func(c Config) bool { return c.Orientation == target.Orientation },
	})
	indices = narrowByScreenSize(candidates, indices, target)
	narrow(axis{
		specified: func(c Config) bool { return c.SDKVersion != 0 },
		matches:   func(c Config) bool { return c.SDKVersion <= target.SDKVersion },
	})
	// Among the SDK survivors, the highest version wins.
	var highest []int
	for _, i := range indices {
		switch {
		case len(highest) == 0 || candidates[i].SDKVersion > candidates[highest[0]].SDKVersion:
			highest = []int{i}
		case candidates[i].SDKVersion == candidates[highest[0]].SDKVersion:
			highest = append(highest, i)
		}
	}
	indices = highest

	return indices[0]
}

func densityDistance(d, target uint16) int {
	diff := int(d) - int(target)
	if diff < 0 {
		diff = -diff
	}
	return diff
}

// narrowByDensity keeps the candidates among indices whose density is
// closest to target's. A tie at the same distance prefers a candidate
// scaling down (density <= target) over one scaling up.
func narrowByDensity(candidates []Config, indices []int, target Config) []int {
	if len(indices) <= 1 {
		return indices
	}
	var specified []int
	for _, i := range indices {
		if candidates[i].Density != 0 {
			specified = append(specified, i)
		}
	}
	if len(specified) == 0 {
		return indices
	}

	minDist := densityDistance(candidates[specified[0]].Density, target.Density)
	for _, i := range specified[1:] {
		if d := densityDistance(candidates[i].Density, target.Density); d < minDist {
			minDist = d
		}
	}
	var nearest []int
	for _, i := range specified {
		if densityDistance(candidates[i].Density, target.Density) == minDist {
			nearest = append(nearest, i)
		}
	}
	var scaleDown []int
	for _, i := range nearest {
		if candidates[i].Density <= target.Density {
			scaleDown = append(scaleDown, i)
		}
	}
	if len(scaleDown) > 0 {
		nearest = scaleDown
	}
	return nearest
}

// narrowByScreenSize keeps the largest-size candidates among indices that
// don't exceed target's screen size; a candidate whose size exceeds
// target's is eliminated outright rather than treated as a mismatch to
// fall back from. If no specified size fits, the candidates without a size
// qualifier are kept; only when there are none of those either is the set
// returned unchanged.
func narrowByScreenSize(candidates []Config, indices []int, target Config) []int {
	if len(indices) <= 1 {
		return indices
	}
	var specified []int
	for _, i := range indices {
		if candidates[i].ScreenSize() != 0 {
			specified = append(specified, i)
		}
	}
	if len(specified) == 0 {
		return indices
	}
	var notExceeding []int
	for _, i := range specified {
		if candidates[i].ScreenSize() <= target.ScreenSize() {
			notExceeding = append(notExceeding, i)
		}
	}
	if len(notExceeding) == 0 {
		var unspecified []int
		for _, i := range indices {
			if candidates[i].ScreenSize() == 0 {
				unspecified = append(unspecified, i)
			}
		}
		if len(unspecified) > 0 {
			return unspecified
		}
		return indices
	}
	best := candidates[notExceeding[0]].ScreenSize()
	for _, i := range notExceeding[1:] {
		if s := candidates[i].ScreenSize(); s > best {
			best = s
		}
	}
	var largest []int
	for _, i := range notExceeding {
		if candidates[i].ScreenSize() == best {
			largest = append(largest, i)
		}
	}
	return largest
}
