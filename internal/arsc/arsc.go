// Package arsc decodes resources.arsc: the binary index that maps resource
// identifiers to configuration-dependent values.
//
// The chunk layout nests three levels deep: an outer RES_TABLE_TYPE chunk
// containing one global string pool followed by one or more RES_PACKAGE_TYPE
// chunks; each package chunk holds its own type-strings and key-strings
// pools followed by interleaved RES_TABLE_TYPE_SPEC_TYPE and
// RES_TABLE_TYPE_TYPE chunks, one pair (or more type chunks) per
// configuration variant of that type, the same nested-chunk walk performed
// by androidbinary/apkparser-family resources.arsc decoders.
package arsc

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/johnsonlee/testpilot/internal/resconfig"
	"github.com/johnsonlee/testpilot/internal/respool"
)

const (
	chunkTable = 0x0002
	chunkPackage = 0x0200
	chunkTypeSpec = 0x0202
	chunkType = 0x0201
	// chunkStringPool reuses the ResChunk_header type 0x0001 shared with axml.
	chunkStringPool = 0x0001
)

// ValueType is the ResTable's Res_value.dataType discriminant. It shares its
// numbering with axml.AttrType (both trace back to the same Res_value
// struct) but is kept as a distinct type so each package can evolve its own
// helper methods without entangling the two decoders.
type ValueType uint8

const (
	ValueNull ValueType = 0x00
	ValueReference ValueType = 0x01
	ValueString ValueType = 0x03
	ValueFloat ValueType = 0x04
	ValueDimension ValueType = 0x05
	ValueFraction ValueType = 0x06
	ValueIntDec ValueType = 0x10
	ValueIntHex ValueType = 0x11
	ValueIntBool ValueType = 0x12
	ValueIntColorARGB8 ValueType = 0x1c
)

// Value is one resolved (but not yet reference-followed) resource value.
type Value struct {
	Type ValueType
	Data uint32
	Str string // populated when Type == ValueString
}

// IsReference reports whether this value must be chased to another entry.
func (v Value) IsReference() bool { return v.Type == ValueReference }

// ComplexValue is a style/map entry: an attribute id to Value mapping.
type ComplexValue struct {
	Parent uint32 // resource id of the parent style, 0 if none
	Map map[uint32]Value
}

// Entry is either a simple Value or a ComplexValue.
type Entry struct {
	Key string // the entry's name, from the package's key-string pool
	Simple *Value
	Complex *ComplexValue
}

// Variant pairs one configuration with the entry available under it.
type Variant struct {
	Config resconfig.Config
	Entry Entry
}

// TypeTable holds, for one (package, type), every entry index's configuration
// variants. Entry indices are dense and stable across variants;
// Variants[i] is nil if entry i has no value in any configuration seen so
// far (an absent offset in some chunk).
type TypeTable struct {
	Name string
	Variants [][]Variant
}

// Package is one ARSC package chunk's decoded contents.
type Package struct {
	ID uint8
	Name string
	// Types maps a 1-based type index (into TypeStrings) to its TypeTable.
	Types map[uint8]*TypeTable
}

// Table is the fully decoded resources.arsc.
type Table struct {
	Packages []*Package
}

// PackageByID returns the package with the given 8-bit package id (the high
// byte of a resource identifier), or nil.
func (t *Table) PackageByID(id uint8) *Package {
	for _, p := range t.Packages {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Lookup returns every configuration variant recorded for resource id
// (package:8 | type:8 | entry:16) 32-bit identifier layout.
func (t *Table) Lookup(resID uint32) ([]Variant, error) {
	pkgID := uint8(resID >> 24)
	typeID := uint8(resID >> 16)
	entryID := uint16(resID)

	pkg := t.PackageByID(pkgID)
	if pkg == nil {
		return nil, fmt.Errorf("arsc: no package 0x%02x", pkgID)
	}
	tt, ok := pkg.Types[typeID]
	if !ok {
		return nil, fmt.Errorf("arsc: package 0x%02x has no type 0x%02x", pkgID, typeID)
	}
	if int(entryID) >= len(tt.Variants) {
		return nil, fmt.Errorf("arsc: entry %d out of range for type %q (%d entries)", entryID, tt.Name, len(tt.Variants))
	}
	return tt.Variants[entryID], nil
}

// Decode parses one resources.arsc blob.
func Decode(r io.Reader) (*Table, error) {
	id, _, totalLen, err := respool.ReadChunkHeader(r)
	if err != nil {
		return nil, fmt.Errorf("arsc: reading top header: %w", err)
	}
	if id != chunkTable {
		return nil, fmt.Errorf("arsc: unexpected top chunk id 0x%04x", id)
	}

	var packageCount uint32
	if err := binary.Read(r, binary.LittleEndian, &packageCount); err != nil {
		return nil, fmt.Errorf("arsc: reading package count: %w", err)
	}

	table := &Table{}
	var globalStrings respool.Pool
	remaining := int64(totalLen) - respool.ChunkHeaderSize - 4

	for remaining > 0 {
		cid, _, clen, err := respool.ReadChunkHeader(r)
		if err != nil {
			return nil, fmt.Errorf("arsc: reading chunk header: %w", err)
		}
		body := &io.LimitedReader{R: r, N: int64(clen) - respool.ChunkHeaderSize}

		switch cid {
		case chunkStringPool:
			globalStrings, err = respool.ParseStringPool(body)
		case chunkPackage:
			var pkg *Package
			pkg, err = decodePackage(body, clen)
			if err == nil {
				table.Packages = append(table.Packages, pkg)
			}
		default:
			err = fmt.Errorf("arsc: unknown top-level chunk id 0x%04x", cid)
		}
		if err != nil {
			return nil, fmt.Errorf("arsc: chunk 0x%04x: %w", cid, err)
		}
		// Package chunks consume bytes beyond their own declared chunkSize
		// is never true; but a package chunk's body reader is independently
		// limited inside decodePackage, so drain any remainder here so the
		// outer loop's byte accounting stays correct regardless.
		io.CopyN(io.Discard, body, body.N)

		remaining -= int64(clen)
	}

	for _, pkg := range table.Packages {
		resolvePackageStrings(pkg, globalStrings)
	}
	return table, nil
}

// resolvePackageStrings fills in Value.Str for every ValueString entry and
// map value already decoded into pkg from the table's global string pool.
// Reference values are left as they are; following them is the resolver's
// job.
func resolvePackageStrings(pkg *Package, globalStrings respool.Pool) {
	fill := func(v *Value) {
		if v.Type == ValueString {
			v.Str, _ = globalStrings.Get(v.Data)
		}
	}
	for _, tt := range pkg.Types {
		for _, variants := range tt.Variants {
			for i := range variants {
				e := &variants[i].Entry
				if e.Simple != nil {
					fill(e.Simple)
				}
				if e.Complex != nil {
					for k, v := range e.Complex.Map {
						fill(&v)
						e.Complex.Map[k] = v
					}
				}
			}
		}
	}
}

func decodePackage(r *io.LimitedReader, chunkSize uint32) (*Package, error) {
	var id uint32
	if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
		return nil, err
	}
	nameUTF16 := make([]byte, 256) // 128 UTF-16 code units, fixed-width package name field
	if _, err := io.ReadFull(r, nameUTF16); err != nil {
		return nil, err
	}
	name := decodeFixedUTF16(nameUTF16)

	var typeStringsOffset, lastPublicType, keyStringsOffset, lastPublicKey, typeIDOffset uint32
	for _, f := range []*uint32{&typeStringsOffset, &lastPublicType, &keyStringsOffset, &lastPublicKey} {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}
	// typeIdOffset was added in a later platform revision, growing the
	// header from 284 to 288 bytes. typeStringsOffset (relative to the
	// chunk start) marks where the header ends, so the field is read only
	// when the header is long enough to hold it, and any further header
	// bytes are skipped.
	headerRead := uint32(respool.ChunkHeaderSize + 4 + 256 + 16)
	if typeStringsOffset >= headerRead+4 {
		binary.Read(r, binary.LittleEndian, &typeIDOffset)
		headerRead += 4
	}
	if typeStringsOffset > headerRead {
		io.CopyN(io.Discard, r, int64(typeStringsOffset-headerRead))
	}

	pkg := &Package{ID: uint8(id), Name: name, Types: map[uint8]*TypeTable{}}

	var typeStrings, keyStrings respool.Pool
	specs := map[uint8][]uint32{} // type index -> per-entry flags (unused beyond presence)

	for r.N > 0 {
		cid, _, clen, err := respool.ReadChunkHeader(r)
		if err != nil {
			return nil, fmt.Errorf("package %q: %w", name, err)
		}
		body := &io.LimitedReader{R: r, N: int64(clen) - respool.ChunkHeaderSize}

		switch cid {
		case chunkStringPool:
			var pool respool.Pool
			pool, err = respool.ParseStringPool(body)
			if err == nil {
				if typeStringsOffset != 0 && len(typeStrings.Strings) == 0 {
					typeStrings = pool
				} else {
					keyStrings = pool
				}
			}
		case chunkTypeSpec:
			err = decodeTypeSpec(body, specs)
		case chunkType:
			err = decodeType(body, pkg, typeStrings, keyStrings)
		default:
			err = fmt.Errorf("package %q: unknown chunk id 0x%04x", name, cid)
		}
		if err != nil {
			return nil, err
		}
		io.CopyN(io.Discard, body, body.N)
	}

	return pkg, nil
}

func decodeFixedUTF16(b []byte) string {
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(b[i*2:])
		if units[i] == 0 {
			units = units[:i]
			break
		}
	}
	return string(utf16Decode(units))
}

func utf16Decode(units []uint16) []rune {
	out := make([]rune, 0, len(units))
	for i := 0; i < len(units); i++ {
		r := rune(units[i])
		if r >= 0xD800 && r <= 0xDBFF && i+1 < len(units) {
			r2 := rune(units[i+1])
			if r2 >= 0xDC00 && r2 <= 0xDFFF {
				out = append(out, ((r-0xD800)<<10|(r2-0xDC00))+0x10000)
				i++
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func decodeTypeSpec(r *io.LimitedReader, specs map[uint8][]uint32) error {
	var typeID uint8
	var res0 uint8
	var res1 uint16
	var entryCount uint32
	if err := binary.Read(r, binary.LittleEndian, &typeID); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &res0); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &res1); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &entryCount); err != nil {
		return err
	}
	flags := make([]uint32, entryCount)
	for i := range flags {
		if err := binary.Read(r, binary.LittleEndian, &flags[i]); err != nil {
			return err
		}
	}
	specs[typeID] = flags
	return nil
}

func decodeType(r *io.LimitedReader, pkg *Package, typeStrings, keyStrings respool.Pool) error {
	var typeID uint8
	var res0 uint8
	var res1 uint16
	var entryCount uint32
	var entriesStart uint32
	if err := binary.Read(r, binary.LittleEndian, &typeID); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &res0); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &res1); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &entryCount); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &entriesStart); err != nil {
		return err
	}

	cfg, cfgBytes, err := resconfig.Decode(r)
	if err != nil {
		return fmt.Errorf("decoding ResTable_config: %w", err)
	}
	_ = cfgBytes

	offsets := make([]uint32, entryCount)
	for i := range offsets {
		if err := binary.Read(r, binary.LittleEndian, &offsets[i]); err != nil {
			return err
		}
	}

	// The remainder of the chunk is the entry blob region; read it whole so
	// offsets (relative to entriesStart, i.e. relative to right here) index
	// directly into it.
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	tt, ok := pkg.Types[typeID]
	if !ok {
		name := ""
		if int(typeID) >= 1 && int(typeID)-1 < len(typeStrings.Strings) {
			name = typeStrings.Strings[typeID-1]
		}
		tt = &TypeTable{Name: name}
		pkg.Types[typeID] = tt
	}
	for len(tt.Variants) < int(entryCount) {
		tt.Variants = append(tt.Variants, nil)
	}

	for i, off := range offsets {
		if off == 0xFFFFFFFF {
			continue // no value for this entry in this configuration
		}
		entry, err := decodeEntry(data, int(off), keyStrings)
		if err != nil {
			return fmt.Errorf("type %q entry %d: %w", tt.Name, i, err)
		}
		tt.Variants[i] = append(tt.Variants[i], Variant{Config: cfg, Entry: entry})
	}

	return nil
}

const complexEntryFlag = 0x0001

func decodeEntry(data []byte, off int, keyStrings respool.Pool) (Entry, error) {
	if off+8 > len(data) {
		return Entry{}, fmt.Errorf("entry offset %d out of range", off)
	}
	size := binary.LittleEndian.Uint16(data[off:])
	flags := binary.LittleEndian.Uint16(data[off+2:])
	keyIdx := binary.LittleEndian.Uint32(data[off+4:])
	key, _ := keyStrings.Get(keyIdx)

	body := off + int(size)
	if flags&complexEntryFlag == 0 {
		v, err := decodeValue(data, body)
		if err != nil {
			return Entry{}, err
		}
		return Entry{Key: key, Simple: &v}, nil
	}

	if body+8 > len(data) {
		return Entry{}, fmt.Errorf("complex entry at %d out of range", off)
	}
	parent := binary.LittleEndian.Uint32(data[body:])
	count := binary.LittleEndian.Uint32(data[body+4:])
	cv := &ComplexValue{Parent: parent, Map: map[uint32]Value{}}
	pos := body + 8
	for i := uint32(0); i < count; i++ {
		if pos+4 > len(data) {
			return Entry{}, fmt.Errorf("complex entry map[%d] out of range", i)
		}
		attrID := binary.LittleEndian.Uint32(data[pos:])
		v, err := decodeValue(data, pos+4)
		if err != nil {
			return Entry{}, err
		}
		cv.Map[attrID] = v
		pos += 4 + 8
	}
	return Entry{Key: key, Complex: cv}, nil
}

func decodeValue(data []byte, off int) (Value, error) {
	if off+8 > len(data) {
		return Value{}, fmt.Errorf("Res_value at %d out of range", off)
	}
	// size(2) + padding(1) + dataType(1) + data(4)
	dataType := ValueType(data[off+3])
	dataVal := binary.LittleEndian.Uint32(data[off+4:])
	return Value{Type: dataType, Data: dataVal}, nil
}
