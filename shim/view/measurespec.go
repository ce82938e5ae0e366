// Package view implements the measure/layout/draw pipeline: measure-spec
// packing, child measure-spec derivation, and draw-command recording.
package view

const (
	Unspecified Mode = 0
	Exactly Mode = 1
	AtMost Mode = 2

	modeShift = 30
	modeMask uint32 = 0x3 << modeShift
	sizeMask uint32 = (1 << modeShift) - 1
)

// Mode is a measure-spec's two-bit mode.
type Mode int

// MeasureSpec is a packed (mode, size) value 32-bit encoding. Unsigned so
// the top two bits (the mode) don't overflow a signed 32-bit constant.
type MeasureSpec uint32

// Make packs size and mode into one MeasureSpec. size must be < 2^30.
func Make(size int, mode Mode) MeasureSpec {
	return MeasureSpec(uint32(size)&sizeMask | (uint32(mode) << modeShift))
}

// GetMode unpacks the mode.
func (s MeasureSpec) GetMode() Mode { return Mode((uint32(s) & modeMask) >> modeShift) }

// GetSize unpacks the size.
func (s MeasureSpec) GetSize() int { return int(uint32(s) & sizeMask) }

// DimSpec is a child's requested dimension, either a specific size in
// pixels (>= 0) or one of the two sentinel values below.
type DimSpec int

const (
	MatchParent DimSpec = -1
	WrapContent DimSpec = -2
)

// ChildMeasureSpec derives the MeasureSpec a parent passes to one child,
// derivation table.
func ChildMeasureSpec(parentSpec MeasureSpec, padding int, childDim DimSpec) MeasureSpec {
	parentMode := parentSpec.GetMode()
	parentSize := parentSpec.GetSize()
	available := parentSize - padding
	if available < 0 {
		available = 0
	}

	switch {
	case childDim >= 0:
		return Make(int(childDim), Exactly)
	case childDim == MatchParent:
		switch parentMode {
		case Exactly:
			return Make(available, Exactly)
		case AtMost:
			return Make(available, AtMost)
		default: // Unspecified
			return Make(0, Unspecified)
		}
	default: // WrapContent
		switch parentMode {
		case Exactly, AtMost:
			return Make(available, AtMost)
		default:
			return Make(0, Unspecified)
		}
	}
}
