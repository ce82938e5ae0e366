// Package respool implements the chunk-header and shared string-pool
// reading routines common to both the binary-XML format and the resource
// table format: both are built from the same ResChunk_header framing and
// the same ResStringPool_header + offset-table + string-data layout. The
// platform's own parser (frameworks/base/libs/androidfw) shares this code
// between AXML and ARSC parsing; testpilot's axml and arsc decoders do the
// same by depending on this package instead of each re-implementing it.
package respool

import (
	"encoding/binary"
	"fmt"
	"io"
	"unicode/utf16"
)

// ChunkHeaderSize is the size of a ResChunk_header: type(u16) + headerSize(u16) + size(u32).
const ChunkHeaderSize = 8

const utf8PoolFlag = 1 << 8

// ReadChunkHeader reads one ResChunk_header. Every chunk in either format is
// framed this way; callers must size subsequent reads off the returned
// chunkSize/headerSize rather than assuming a fixed struct length, since
// later schema revisions add trailing fields.
func ReadChunkHeader(r io.Reader) (id uint16, headerSize uint16, chunkSize uint32, err error) {
	var hdr [ChunkHeaderSize]byte
	if _, err = io.ReadFull(r, hdr[:]); err != nil {
		return 0, 0, 0, err
	}
	id = binary.LittleEndian.Uint16(hdr[0:2])
	headerSize = binary.LittleEndian.Uint16(hdr[2:4])
	chunkSize = binary.LittleEndian.Uint32(hdr[4:8])
	return id, headerSize, chunkSize, nil
}

// Pool is a decoded ResStringPool: an ordered, 0-indexed list of strings.
type Pool struct {
	Strings []string
}

// Get returns the string at idx, treating 0xFFFFFFFF (Android's "no value")
// sentinel as an empty string rather than an error.
func (p Pool) Get(idx uint32) (string, error) {
	if idx == 0xFFFFFFFF {
		return "", nil
	}
	if int(idx) >= len(p.Strings) {
		return "", fmt.Errorf("respool: string index %d out of range (%d strings)", idx, len(p.Strings))
	}
	return p.Strings[idx], nil
}

// ParseStringPool reads a ResStringPool_header's fields (string count,
// style count, flags, strings offset, styles offset), the offset table, and
// the pool's string data, starting immediately after the chunk's common
// ResChunk_header. r must be limited to exactly this chunk's remaining
// bytes.
func ParseStringPool(r io.Reader) (Pool, error) {
	var stringCount, styleCount, flags, stringsStart, stylesStart uint32
	for _, f := range []*uint32{&stringCount, &styleCount, &flags, &stringsStart, &stylesStart} {
		if err := binary.Read(r, binary.LittleEndian, f); err != nil {
			return Pool{}, err
		}
	}

	offsets := make([]uint32, stringCount)
	for i := range offsets {
		if err := binary.Read(r, binary.LittleEndian, &offsets[i]); err != nil {
			return Pool{}, err
		}
	}
	styleOffsets := make([]uint32, styleCount)
	for i := range styleOffsets {
		if err := binary.Read(r, binary.LittleEndian, &styleOffsets[i]); err != nil {
			return Pool{}, err
		}
	}

	// The remainder of the chunk is string data (then style data, unused
	// here); offsets are relative to its start, which is exactly where we
	// are positioned now.
	data, err := io.ReadAll(r)
	if err != nil {
		return Pool{}, err
	}

	utf8 := flags&utf8PoolFlag != 0
	pool := Pool{Strings: make([]string, stringCount)}
	for i, off := range offsets {
		var s string
		var err error
		if utf8 {
			s, err = readUTF8String(data, int(off))
		} else {
			s, err = readUTF16String(data, int(off))
		}
		if err != nil {
			return Pool{}, fmt.Errorf("respool: string[%d]: %w", i, err)
		}
		pool.Strings[i] = s
	}
	return pool, nil
}

func readUTF16String(data []byte, off int) (string, error) {
	if off+2 > len(data) {
		return "", fmt.Errorf("offset %d out of range", off)
	}
	length := int(binary.LittleEndian.Uint16(data[off:]))
	off += 2
	if length&0x8000 != 0 {
		if off+2 > len(data) {
			return "", fmt.Errorf("offset %d out of range (extended length)", off)
		}
		length = ((length & 0x7fff) << 16) | int(binary.LittleEndian.Uint16(data[off:]))
		off += 2
	}
	end := off + length*2
	if end > len(data) {
		return "", fmt.Errorf("string of length %d at offset %d exceeds pool data", length, off)
	}
	units := make([]uint16, length)
	for i := 0; i < length; i++ {
		units[i] = binary.LittleEndian.Uint16(data[off+i*2:])
	}
	return string(utf16.Decode(units)), nil
}

func readUTF8String(data []byte, off int) (string, error) {
	_, n, err := readUTF8Varint(data, off)
	if err != nil {
		return "", err
	}
	off += n
	byteLen, n, err := readUTF8Varint(data, off)
	if err != nil {
		return "", err
	}
	off += n
	end := off + byteLen
	if end > len(data) {
		return "", fmt.Errorf("utf8 string of length %d at offset %d exceeds pool data", byteLen, off)
	}
	return string(data[off:end]), nil
}

func readUTF8Varint(data []byte, off int) (value int, consumed int, err error) {
	if off >= len(data) {
		return 0, 0, fmt.Errorf("offset %d out of range", off)
	}
	first := int(data[off])
	if first&0x80 == 0 {
		return first, 1, nil
	}
	if off+1 >= len(data) {
		return 0, 0, fmt.Errorf("offset %d out of range (extended varint)", off)
	}
	return ((first & 0x7f) << 8) | int(data[off+1]), 2, nil
}
