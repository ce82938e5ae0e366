// Package dex decodes the Dalvik executable container: a header, six shared
// constant pools (strings, types, prototypes, fields, methods, classes), and
// per-class code items holding a register-based instruction stream.
//
// Grounded on the general shape of soong's java/dex.go build-glue (which
// documents the pool layout and ordering soong expects from `dx`/`d8`
// output) combined with the standard DEX file-format layout.
package dex

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

var magicPrefix = []byte("dex\n")

const headerSize = 0x70

// Header holds the subset of the DEX header needed to locate every pool.
type Header struct {
	Checksum       uint32
	StringIDsSize  uint32
	StringIDsOff   uint32
	TypeIDsSize    uint32
	TypeIDsOff     uint32
	ProtoIDsSize   uint32
	ProtoIDsOff    uint32
	FieldIDsSize   uint32
	FieldIDsOff    uint32
	MethodIDsSize  uint32
	MethodIDsOff   uint32
	ClassDefsSize  uint32
	ClassDefsOff   uint32
}

// Proto is a method prototype: return type plus ordered parameter types.
type Proto struct {
	ReturnType string
	Params     []string
}

// Field is a field reference: owning class, type, and name.
type Field struct {
	Class, Type, Name string
}

// MethodRef is a method reference: owning class, prototype, and name.
type MethodRef struct {
	Class, Name string
	Proto       Proto
}

// TryItem is one exception-handler range within a code item.
type TryItem struct {
	StartAddr, InsnCount uint32
	Handlers             []CatchHandler
}

// CatchHandler maps an exception type (empty string means catch-all) to a
// handler address.
type CatchHandler struct {
	TypeName string
	Addr     uint32
}

// Code is a method's register machine body.
type Code struct {
	RegistersSize, InsSize, OutsSize uint16
	Insns                            []uint16
	Tries                            []TryItem
}

// EncodedField is a field_id index plus access flags.
type EncodedField struct {
	Field       Field
	AccessFlags uint32
}

// EncodedMethod is a method_id index plus access flags and, unless native
// or abstract, a decoded Code body.
type EncodedMethod struct {
	Method      MethodRef
	AccessFlags uint32
	Code        *Code // nil for native/abstract methods
}

const (
	AccNative   uint32 = 0x0100
	AccAbstract uint32 = 0x0400
)

// Class is one fully resolved class_def_item: every type/field/method
// reference has already been looked up in the shared pools.
type Class struct {
	Name            string
	SuperName       string // empty for java.lang.Object's own def, if present
	Interfaces      []string
	AccessFlags     uint32
	StaticFields    []EncodedField
	InstanceFields  []EncodedField
	DirectMethods   []EncodedMethod
	VirtualMethods  []EncodedMethod
}

// File is the fully decoded, cross-reference-resolved DEX content of one
// classes*.dex entry. Strings, Types, Fields, and Methods are the raw pools
// in on-disk order, exposed so a per-instruction operand index (string_idx,
// type_idx, field_idx, method_idx) can be resolved directly by indexing.
type File struct {
	Classes []Class
	Strings []string
	Types   []string
	Fields  []Field
	Methods []MethodRef
}

// Decode parses one DEX file's raw bytes.
func Decode(data []byte) (*File, error) {
	if len(data) < headerSize || !bytes.Equal(data[:4], magicPrefix) {
		return nil, fmt.Errorf("dex: bad magic")
	}

	var h Header
	read := func(off int) uint32 { return binary.LittleEndian.Uint32(data[off:]) }
	h.Checksum = read(8)
	h.StringIDsSize, h.StringIDsOff = read(0x38), read(0x3c)
	h.TypeIDsSize, h.TypeIDsOff = read(0x40), read(0x44)
	h.ProtoIDsSize, h.ProtoIDsOff = read(0x48), read(0x4c)
	h.FieldIDsSize, h.FieldIDsOff = read(0x50), read(0x54)
	h.MethodIDsSize, h.MethodIDsOff = read(0x58), read(0x5c)
	h.ClassDefsSize, h.ClassDefsOff = read(0x60), read(0x64)

	strs, err := readStringPool(data, h.StringIDsOff, h.StringIDsSize)
	if err != nil {
		return nil, fmt.Errorf("dex: string pool: %w", err)
	}

	typeIdx := make([]uint32, h.TypeIDsSize)
	for i := range typeIdx {
		typeIdx[i] = read(int(h.TypeIDsOff) + i*4)
	}
	typeName := func(i uint32) string {
		if int(i) >= len(typeIdx) {
			return ""
		}
		return descriptorToName(strs[typeIdx[i]])
	}
	types := make([]string, len(typeIdx))
	for i := range types {
		types[i] = typeName(uint32(i))
	}

	protos := make([]Proto, h.ProtoIDsSize)
	for i := range protos {
		base := int(h.ProtoIDsOff) + i*12
		shortyIdx := read(base)
		_ = shortyIdx
		returnTypeIdx := read(base + 4)
		paramsOff := read(base + 8)
		protos[i] = Proto{ReturnType: typeName(returnTypeIdx)}
		if paramsOff != 0 {
			count := binary.LittleEndian.Uint32(data[paramsOff:])
			for j := uint32(0); j < count; j++ {
				tIdx := binary.LittleEndian.Uint16(data[paramsOff+4+j*2:])
				protos[i].Params = append(protos[i].Params, typeName(uint32(tIdx)))
			}
		}
	}

	fields := make([]Field, h.FieldIDsSize)
	for i := range fields {
		base := int(h.FieldIDsOff) + i*8
		classIdx := binary.LittleEndian.Uint16(data[base:])
		typeIdx2 := binary.LittleEndian.Uint16(data[base+2:])
		nameIdx := binary.LittleEndian.Uint32(data[base+4:])
		fields[i] = Field{Class: typeName(uint32(classIdx)), Type: typeName(uint32(typeIdx2)), Name: strs[nameIdx]}
	}

	methods := make([]MethodRef, h.MethodIDsSize)
	for i := range methods {
		base := int(h.MethodIDsOff) + i*8
		classIdx := binary.LittleEndian.Uint16(data[base:])
		protoIdx := binary.LittleEndian.Uint16(data[base+2:])
		nameIdx := binary.LittleEndian.Uint32(data[base+4:])
		methods[i] = MethodRef{Class: typeName(uint32(classIdx)), Name: strs[nameIdx], Proto: protos[protoIdx]}
	}

	file := &File{Strings: strs, Types: types, Fields: fields, Methods: methods}
	for i := uint32(0); i < h.ClassDefsSize; i++ {
		base := int(h.ClassDefsOff) + int(i)*32
		classIdx := read(base)
		accessFlags := read(base + 4)
		superclassIdx := read(base + 8)
		interfacesOff := read(base + 12)
		classDataOff := read(base + 24)

		cls := Class{Name: typeName(classIdx), AccessFlags: accessFlags}
		if superclassIdx != 0xffffffff {
			cls.SuperName = typeName(superclassIdx)
		}
		if interfacesOff != 0 {
			count := binary.LittleEndian.Uint32(data[interfacesOff:])
			for j := uint32(0); j < count; j++ {
				tIdx := binary.LittleEndian.Uint16(data[interfacesOff+4+j*2:])
				cls.Interfaces = append(cls.Interfaces, typeName(uint32(tIdx)))
			}
		}
		if classDataOff != 0 {
			if err := decodeClassData(data, classDataOff, fields, methods, typeName, &cls); err != nil {
				return nil, fmt.Errorf("dex: class %q: %w", cls.Name, err)
			}
		}
		file.Classes = append(file.Classes, cls)
	}

	return file, nil
}

// descriptorToName converts a type descriptor ("Lcom/foo/Bar;", "I", "[I")
// into the internal name used elsewhere in testpilot (just the class
// descriptor's inner slash-path for reference types; primitives/arrays pass
// through as their raw descriptor, since neither the translator nor the
// rewriter needs to rewrite those).
func descriptorToName(d string) string {
	if len(d) >= 2 && d[0] == 'L' && d[len(d)-1] == ';' {
		return d[1 : len(d)-1]
	}
	return d
}

func readStringPool(data []byte, off, count uint32) ([]string, error) {
	ids := make([]uint32, count)
	for i := range ids {
		ids[i] = binary.LittleEndian.Uint32(data[int(off)+i*4:])
	}
	out := make([]string, count)
	for i, dataOff := range ids {
		n, consumed := readULEB128(data, int(dataOff))
		start := int(dataOff) + consumed
		s, err := readMUTF8(data, start, int(n))
		if err != nil {
			return nil, fmt.Errorf("string[%d]: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

func readULEB128(data []byte, off int) (uint32, int) {
	var result uint32
	var shift uint
	n := 0
	for {
		b := data[off+n]
		result |= uint32(b&0x7f) << shift
		n++
		if b&0x80 == 0 {
			break
		}
		shift += 7
	}
	return result, n
}

// readMUTF8 decodes count UTF-16 code units' worth of Modified UTF-8,
// treating it as ordinary UTF-8 since testpilot does not round-trip the
// embedded-NUL / supplementary-plane edge cases MUTF-8 exists for.
func readMUTF8(data []byte, off, count int) (string, error) {
	// Walk count UTF-16 units by their MUTF-8 lead bytes: each unit takes 1
	// to 3 bytes, and a surrogate pair is two units of 3 bytes each.
	end := off
	units := 0
	for units < count && end < len(data) {
		b := data[end]
		switch {
		case b&0x80 == 0:
			end++
		case b&0xe0 == 0xc0:
			end += 2
		case b&0xf0 == 0xe0:
			end += 3
		default:
			end++
		}
		units++
	}
	if end > len(data) {
		return "", fmt.Errorf("mutf8 string at %d exceeds data", off)
	}
	return string(data[off:end]), nil
}

func decodeClassData(data []byte, off uint32, fields []Field, methods []MethodRef, typeName func(uint32) string, cls *Class) error {
	pos := int(off)
	readUL := func() uint32 {
		v, n := readULEB128(data, pos)
		pos += n
		return v
	}

	staticFieldsSize := readUL()
	instanceFieldsSize := readUL()
	directMethodsSize := readUL()
	virtualMethodsSize := readUL()

	readEncodedFields := func(n uint32) []EncodedField {
		out := make([]EncodedField, 0, n)
		var idx uint32
		for i := uint32(0); i < n; i++ {
			idx += readUL()
			accessFlags := readUL()
			f := Field{}
			if int(idx) < len(fields) {
				f = fields[idx]
			}
			out = append(out, EncodedField{Field: f, AccessFlags: accessFlags})
		}
		return out
	}
	readEncodedMethods := func(n uint32) []EncodedMethod {
		out := make([]EncodedMethod, 0, n)
		var idx uint32
		for i := uint32(0); i < n; i++ {
			idx += readUL()
			accessFlags := readUL()
			codeOff := readUL()
			m := MethodRef{}
			if int(idx) < len(methods) {
				m = methods[idx]
			}
			enc := EncodedMethod{Method: m, AccessFlags: accessFlags}
			if codeOff != 0 && accessFlags&(AccNative|AccAbstract) == 0 {
				code, err := decodeCodeItem(data, codeOff, typeName)
				if err == nil {
					enc.Code = code
				}
			}
			out = append(out, enc)
		}
		return out
	}

	cls.StaticFields = readEncodedFields(staticFieldsSize)
	cls.InstanceFields = readEncodedFields(instanceFieldsSize)
	cls.DirectMethods = readEncodedMethods(directMethodsSize)
	cls.VirtualMethods = readEncodedMethods(virtualMethodsSize)
	return nil
}

func decodeCodeItem(data []byte, off uint32, typeName func(uint32) string) (*Code, error) {
	if int(off)+16 > len(data) {
		return nil, fmt.Errorf("code item at %d out of range", off)
	}
	registersSize := binary.LittleEndian.Uint16(data[off:])
	insSize := binary.LittleEndian.Uint16(data[off+2:])
	outsSize := binary.LittleEndian.Uint16(data[off+4:])
	triesSize := binary.LittleEndian.Uint16(data[off+6:])
	insnsSize := binary.LittleEndian.Uint32(data[off+12:])

	insnsStart := int(off) + 16
	insnsEnd := insnsStart + int(insnsSize)*2
	if insnsEnd > len(data) {
		return nil, fmt.Errorf("instruction stream at %d exceeds data", insnsStart)
	}
	insns := make([]uint16, insnsSize)
	for i := range insns {
		insns[i] = binary.LittleEndian.Uint16(data[insnsStart+i*2:])
	}

	code := &Code{RegistersSize: registersSize, InsSize: insSize, OutsSize: outsSize, Insns: insns}

	if triesSize > 0 {
		triesStart := insnsEnd
		if insnsSize%2 == 1 {
			triesStart += 2 // padding to align tries on a 4-byte boundary
		}
		handlersListStart := triesStart + int(triesSize)*8
		pos := handlersListStart
		_, n := readULEB128(data, pos)
		pos += n // handler list size, unused: we re-derive per-try below

		for i := 0; i < int(triesSize); i++ {
			tBase := triesStart + i*8
			startAddr := binary.LittleEndian.Uint32(data[tBase:])
			insnCount := binary.LittleEndian.Uint16(data[tBase+4:])
			handlerOff := binary.LittleEndian.Uint16(data[tBase+6:])
			handlers, _ := decodeHandlers(data, handlersListStart+int(handlerOff), typeName)
			code.Tries = append(code.Tries, TryItem{StartAddr: startAddr, InsnCount: uint32(insnCount), Handlers: handlers})
		}
	}

	return code, nil
}

func decodeHandlers(data []byte, off int, typeName func(uint32) string) ([]CatchHandler, int) {
	size, n := readULEB128(data, off)
	// encoded_catch_handler.size is a signed LEB128: sign-extend from bit 6
	// of its last byte.
	if shift := uint(7 * n); shift < 32 && size&(1<<(shift-1)) != 0 {
		size |= ^uint32(0) << shift
	}
	pos := off + n
	signed := int32(size)
	count := signed
	if signed < 0 {
		count = -signed
	}
	var out []CatchHandler
	for i := int32(0); i < count; i++ {
		typeIdx, n := readULEB128(data, pos)
		pos += n
		addr, n2 := readULEB128(data, pos)
		pos += n2
		out = append(out, CatchHandler{TypeName: typeName(typeIdx), Addr: addr})
	}
	if signed <= 0 {
		addr, n := readULEB128(data, pos)
		pos += n
		out = append(out, CatchHandler{TypeName: "", Addr: addr})
	}
	return out, pos - off
}
