// Package translate lowers decoded DEX classes into hostvm class units: a
// per-method mapping from Dalvik virtual registers to host locals followed
// by a per-opcode emission of an equivalent host-VM sequence.
//
// The real Dalvik instruction set has well over two hundred opcodes; this
// translator implements the operationally significant families (moves,
// constants, instance-field access, invocations, integer arithmetic,
// comparison branches, gotos, returns, object creation) and treats every
// other opcode, array access and monitor-enter/exit included,
// as unsupported, skipping and counting the enclosing class rather than
// aborting the whole batch.
package translate

import (
	"fmt"

	"github.com/johnsonlee/testpilot/internal/dex"
	"github.com/johnsonlee/testpilot/internal/hostvm"
)

// Stats accumulates per-file translation outcomes: successful/failed class
// counts, without aborting the batch on a single class's failure.
type Stats struct {
	Succeeded int
	Failed int
	Failures []ClassFailure
}

// ClassFailure names a class that failed translation and why.
type ClassFailure struct {
	Class string
	Err error
}

// File translates every class in f, returning the successfully translated
// units alongside failure accounting. A class failing translation is
// skipped; it never aborts translation of the remaining classes.
func File(f *dex.File) ([]*hostvm.Class, Stats) {
	var out []*hostvm.Class
	var stats Stats
	for _, c := range f.Classes {
		hc, err := class(c, f)
		if err != nil {
			stats.Failed++
			stats.Failures = append(stats.Failures, ClassFailure{Class: c.Name, Err: err})
			continue
		}
		stats.Succeeded++
		out = append(out, hc)
	}
	return out, stats
}

func class(c dex.Class, f *dex.File) (*hostvm.Class, error) {
	hc := &hostvm.Class{
		Name: c.Name,
		SuperName: c.SuperName,
		Interfaces: append([]string(nil), c.Interfaces...),
	}
	for _, f := range c.InstanceFields {
		hc.Fields = append(hc.Fields, hostvm.Field{Name: f.Field.Name, Descriptor: typeDescriptor(f.Field.Type), AccessFlags: f.AccessFlags})
	}
	for _, f := range c.StaticFields {
		hc.Fields = append(hc.Fields, hostvm.Field{Name: f.Field.Name, Descriptor: typeDescriptor(f.Field.Type), AccessFlags: f.AccessFlags})
	}
	for _, m := range c.DirectMethods {
		hm, err := method(m, f)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", m.Method.Name, err)
		}
		hc.Methods = append(hc.Methods, hm)
	}
	for _, m := range c.VirtualMethods {
		hm, err := method(m, f)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", m.Method.Name, err)
		}
		hc.Methods = append(hc.Methods, hm)
	}
	return hc, nil
}

func method(m dex.EncodedMethod, f *dex.File) (hostvm.Method, error) {
	hm := hostvm.Method{
		Name: m.Method.Name,
		Descriptor: descriptor(m.Method.Proto),
		AccessFlags: m.AccessFlags,
	}
	if m.AccessFlags&(dex.AccNative|dex.AccAbstract) != 0 || m.Code == nil {
		// Native and abstract methods emit no body.
		return hm, nil
	}

	localBase := int(m.Code.RegistersSize) - int(m.Code.InsSize)
	if localBase < 0 {
		localBase = 0
	}

	code, err := lowerInstructions(m.Code.Insns, f)
	if err != nil {
		return hostvm.Method{}, err
	}
	hm.Code = code
	for _, t := range m.Code.Tries {
		for _, h := range t.Handlers {
			hm.Handlers = append(hm.Handlers, hostvm.ExceptionHandler{
				Start: int(t.StartAddr),
				End: int(t.StartAddr + t.InsnCount),
				Handler: int(h.Addr),
				TypeName: h.TypeName,
			})
		}
	}
	hm.ComputeMaxes()
	return hm, nil
}

func descriptor(p dex.Proto) string {
	d := "("
	for _, param := range p.Params {
		d += typeDescriptor(param)
	}
	return d + ")" + typeDescriptor(p.ReturnType)
}

// typeDescriptor turns a dex internal name back into a descriptor: class
// names get their L...; wrapping, while primitives and arrays already are
// descriptors.
func typeDescriptor(name string) string {
	if len(name) > 1 && name[0] != '[' {
		return "L" + name + ";"
	}
	return name
}

// unsupportedOp reports a Dalvik opcode this translator does not lower. It
// raises a translation error for the enclosing method rather than silently
// emitting a partial body, so the per-class failure accounting in Stats
// stays meaningful (see DESIGN.md).
type unsupportedOp struct{ opcode uint8 }

func (e unsupportedOp) Error() string { return fmt.Sprintf("unsupported dalvik opcode 0x%02x", e.opcode) }

// lowerInstructions walks one method's 16-bit Dalvik instruction units and
// emits the equivalent hostvm.Instr sequence. Register operands translate
// directly to local-slot indices (Dalvik's registers and the host's locals
// share numbering; the translator does not repack them).
func lowerInstructions(insns []uint16, f *dex.File) ([]hostvm.Instr, error) {
	stringAt := func(idx uint16) string {
		if int(idx) < len(f.Strings) {
			return f.Strings[idx]
		}
		return ""
	}
	typeAt := func(idx uint16) string {
		if int(idx) < len(f.Types) {
			return f.Types[idx]
		}
		return ""
	}
	fieldOwnerAt := func(idx uint16) string {
		if int(idx) < len(f.Fields) {
			return f.Fields[idx].Class
		}
		return ""
	}
	methodOwnerAt := func(idx uint16) string {
		if int(idx) < len(f.Methods) {
			return f.Methods[idx].Class
		}
		return ""
	}

	var out []hostvm.Instr
	i := 0
	for i < len(insns) {
		unit := insns[i]
		opcode := uint8(unit)
		switch opcode {
		case 0x00: // nop
			out = append(out, hostvm.Instr{Op: hostvm.OpNop})
			i++
		case 0x0e: // return-void
			out = append(out, hostvm.Instr{Op: hostvm.OpReturnVoid})
			i++
		case 0x0f, 0x10, 0x11: // return, return-wide, return-object
			reg := int(unit >> 8)
			out = append(out, hostvm.Instr{Op: hostvm.OpLoadLocal, A: reg})
			out = append(out, hostvm.Instr{Op: hostvm.OpReturn})
			i++
		case 0x01, 0x02, 0x03: // move, move/from16, move/16 (12x/22x/32x): load+store
			dst, src, width := int(unit>>8&0xf), int(unit>>12), 1
			switch opcode {
			case 0x02:
				dst, src, width = int(unit>>8), int(insns[i+1]), 2
			case 0x03:
				dst, src, width = int(insns[i+1]), int(insns[i+2]), 3
			}
			out = append(out, hostvm.Instr{Op: hostvm.OpLoadLocal, A: src})
			out = append(out, hostvm.Instr{Op: hostvm.OpStoreLocal, A: dst})
			i += width
		case 0x12: // const/4
			dst := int(unit >> 8 & 0xf)
			lit := int(int8(unit>>12) << 4 >> 4)
			out = append(out, hostvm.Instr{Op: hostvm.OpPushConst, A: lit})
			out = append(out, hostvm.Instr{Op: hostvm.OpStoreLocal, A: dst})
			i++
		case 0x13: // const/16
			dst := int(unit >> 8)
			lit := int(int16(insns[i+1]))
			out = append(out, hostvm.Instr{Op: hostvm.OpPushConst, A: lit})
			out = append(out, hostvm.Instr{Op: hostvm.OpStoreLocal, A: dst})
			i += 2
		case 0x1a: // const-string
			dst := int(unit >> 8)
			out = append(out, hostvm.Instr{Op: hostvm.OpPushConst, Ref: stringAt(insns[i+1])})
			out = append(out, hostvm.Instr{Op: hostvm.OpStoreLocal, A: dst})
			i += 2
		case 0x22: // new-instance
			dst := int(unit >> 8)
			out = append(out, hostvm.Instr{Op: hostvm.OpNew, Ref: typeAt(insns[i+1])})
			out = append(out, hostvm.Instr{Op: hostvm.OpStoreLocal, A: dst})
			i += 2
		case 0x52, 0x53, 0x54, 0x55, 0x56, 0x57, 0x58: // iget family
			dst := int(unit >> 8 & 0xf)
			obj := int(unit >> 12)
			out = append(out, hostvm.Instr{Op: hostvm.OpLoadLocal, A: obj})
			out = append(out, hostvm.Instr{Op: hostvm.OpGetField, Ref: fieldOwnerAt(insns[i+1])})
			out = append(out, hostvm.Instr{Op: hostvm.OpStoreLocal, A: dst})
			i += 2
		case 0x59, 0x5a, 0x5b, 0x5c, 0x5d, 0x5e, 0x5f: // iput family
			src := int(unit >> 8 & 0xf)
			obj := int(unit >> 12)
			out = append(out, hostvm.Instr{Op: hostvm.OpLoadLocal, A: obj})
			out = append(out, hostvm.Instr{Op: hostvm.OpLoadLocal, A: src})
			out = append(out, hostvm.Instr{Op: hostvm.OpPutField, Ref: fieldOwnerAt(insns[i+1])})
			i += 2
		case 0x90, 0x91, 0x92, 0x93, 0x94: // add/sub/mul/div/rem-int (23x; 2addr and bitwise forms excluded here)
			dst := int(unit >> 8)
			out = append(out, hostvm.Instr{Op: hostvm.OpLoadLocal, A: int(insns[i+1] & 0xff)})
			out = append(out, hostvm.Instr{Op: hostvm.OpLoadLocal, A: int(insns[i+1] >> 8)})
			out = append(out, hostvm.Instr{Op: arithOpFor(opcode)})
			out = append(out, hostvm.Instr{Op: hostvm.OpStoreLocal, A: dst})
			i += 2
		case 0x28: // goto
			offset := int(int8(unit >> 8))
			out = append(out, hostvm.Instr{Op: hostvm.OpGoto, A: i + offset})
			i++
		case 0x32, 0x33, 0x34, 0x35, 0x36, 0x37: // if-test family
			a := int(unit >> 8 & 0xf)
			b := int(unit >> 12)
			offset := int(int16(insns[i+1]))
			out = append(out, hostvm.Instr{Op: hostvm.OpLoadLocal, A: a})
			out = append(out, hostvm.Instr{Op: hostvm.OpLoadLocal, A: b})
			out = append(out, hostvm.Instr{Op: hostvm.OpCompare})
			out = append(out, hostvm.Instr{Op: hostvm.OpIfTrue, A: i + offset})
			i += 2
		case 0x6e, 0x6f, 0x70, 0x71, 0x72: // invoke-{virtual,super,direct,static,interface}
			argWordCount := int(unit >> 12)
			methodIdx := insns[i+1]
			yields := 1
			if int(methodIdx) < len(f.Methods) && f.Methods[methodIdx].Proto.ReturnType == "V" {
				yields = 0
			}
			out = append(out, hostvm.Instr{Op: invokeOpFor(opcode), A: argWordCount, B: yields, Ref: methodOwnerAt(methodIdx)})
			i += 3
		default:
			return nil, unsupportedOp{opcode: opcode}
		}
	}
	return out, nil
}

func arithOpFor(opcode uint8) hostvm.Op {
	switch opcode {
	case 0x90:
		return hostvm.OpAdd
	case 0x91:
		return hostvm.OpSub
	case 0x92:
		return hostvm.OpMul
	case 0x93:
		return hostvm.OpDiv
	case 0x94:
		return hostvm.OpRem
	default:
		return hostvm.OpNop
	}
}

func invokeOpFor(opcode uint8) hostvm.Op {
	switch opcode {
	case 0x6e:
		return hostvm.OpInvokeVirtual
	case 0x6f:
		return hostvm.OpInvokeSpecial
	case 0x70:
		return hostvm.OpInvokeSpecial
	case 0x71:
		return hostvm.OpInvokeStatic
	case 0x72:
		return hostvm.OpInvokeInterface
	default:
		return hostvm.OpInvokeVirtual
	}
}
