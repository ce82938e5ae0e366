package driver

import (
	"fmt"

	apk "github.com/johnsonlee/testpilot"
	"github.com/johnsonlee/testpilot/internal/arsc"
	"github.com/johnsonlee/testpilot/internal/resconfig"
)

// tableResolver is the loader's concrete res.Resolver: it wraps a decoded
// arsc.Table and a target resconfig.Config, following reference values
// transitively with a visited-set cycle guard.
type tableResolver struct {
	table  *arsc.Table
	target resconfig.Config
}

func (r *tableResolver) resolve(id uint32) (arsc.Value, error) {
	return r.resolveVisited(id, map[uint32]bool{})
}

func (r *tableResolver) resolveVisited(id uint32, visited map[uint32]bool) (arsc.Value, error) {
	if visited[id] {
		return arsc.Value{}, apk.NewError(apk.KindCycleDetected, "resolve", fmt.Errorf("resource 0x%08x", id))
	}
	visited[id] = true

	variants, err := r.table.Lookup(id)
	if err != nil {
		return arsc.Value{}, apk.NewError(apk.KindResourceMissing, "resolve", err)
	}
	if len(variants) == 0 {
		return arsc.Value{}, apk.NewError(apk.KindResourceMissing, "resolve", fmt.Errorf("resource 0x%08x has no variants", id))
	}

	configs := make([]resconfig.Config, len(variants))
	for i, v := range variants {
		configs[i] = v.Config
	}
	best := variants[resconfig.Best(r.target, configs)].Entry
	if best.Simple == nil {
		return arsc.Value{}, apk.NewError(apk.KindResourceMissing, "resolve", fmt.Errorf("resource 0x%08x is a complex (style/map) entry", id))
	}

	v := *best.Simple
	if v.IsReference() {
		if v.Data == 0 {
			return arsc.Value{Type: arsc.ValueNull}, nil
		}
		return r.resolveVisited(v.Data, visited)
	}
	return v, nil
}

func (r *tableResolver) String(id uint32) (string, error) {
	v, err := r.resolve(id)
	if err != nil {
		return "", err
	}
	if v.Type != arsc.ValueString {
		return "", apk.NewError(apk.KindResourceMissing, "string", fmt.Errorf("resource 0x%08x is not a string", id))
	}
	return v.Str, nil
}

func (r *tableResolver) Int(id uint32) (int32, error) {
	v, err := r.resolve(id)
	if err != nil {
		return 0, err
	}
	switch v.Type {
	case arsc.ValueIntDec, arsc.ValueIntHex, arsc.ValueIntBool:
		return int32(v.Data), nil
	default:
		return 0, apk.NewError(apk.KindResourceMissing, "int", fmt.Errorf("resource 0x%08x is not an integer", id))
	}
}

func (r *tableResolver) Bool(id uint32) (bool, error) {
	v, err := r.resolve(id)
	if err != nil {
		return false, err
	}
	if v.Type != arsc.ValueIntBool {
		return false, apk.NewError(apk.KindResourceMissing, "bool", fmt.Errorf("resource 0x%08x is not a boolean", id))
	}
	return v.Data != 0, nil
}

func (r *tableResolver) Color(id uint32) (uint32, error) {
	v, err := r.resolve(id)
	if err != nil {
		return 0, err
	}
	if v.Type != arsc.ValueIntColorARGB8 {
		return 0, apk.NewError(apk.KindResourceMissing, "color", fmt.Errorf("resource 0x%08x is not a color", id))
	}
	return v.Data, nil
}

// dimension fixed-point decoding constants, mirroring TypedValue.complexToFloat:
// an 8.24 fixed-point mantissa scaled by one of four radix points selected by
// two bits just above the low 4-bit unit field.
const (
	complexMantissaMask  = 0xffffff
	complexMantissaShift = 8
	complexRadixShift    = 4
	complexRadixMask     = 0x3
)

var radixMults = [4]float32{
	1.0 / (1 << complexMantissaShift),
	1.0 / (1 << 7) / (1 << complexMantissaShift),
	1.0 / (1 << 15) / (1 << complexMantissaShift),
	1.0 / (1 << 23) / (1 << complexMantissaShift),
}

func complexToFloat(data uint32) float32 {
	mantissa := data & (complexMantissaMask << complexMantissaShift)
	radix := (data >> complexRadixShift) & complexRadixMask
	return float32(mantissa) * radixMults[radix]
}

func (r *tableResolver) Dimension(id uint32) (float32, error) {
	v, err := r.resolve(id)
	if err != nil {
		return 0, err
	}
	if v.Type != arsc.ValueDimension {
		return 0, apk.NewError(apk.KindResourceMissing, "dimension", fmt.Errorf("resource 0x%08x is not a dimension", id))
	}
	return complexToFloat(v.Data), nil
}
