// Package axml decodes Android's binary XML format: the chunked encoding
// used for AndroidManifest.xml and compiled layout/resource XML files inside
// an APK.
//
// The format is a sequence of length-prefixed chunks. Each chunk begins with
// a ResChunk_header: a type (u16), a header size (u16), and a total chunk
// size (u32), all little-endian. Readers must key every subsequent read off
// the chunk's declared size, not a hardcoded struct length; later schema
// revisions have added trailing fields that old parsers must skip rather
// than choke on.
//
// The best public account of this format is the Android platform's own
// ResourceTypes.h; this decoder follows the chunk walk that
// avast/apkparser's binxml.go performs against real-world manifests,
// restructured to build a typed tree instead of re-emitting encoding/xml
// tokens.
package axml

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/johnsonlee/testpilot/internal/respool"
)

// Chunk type constants, from the ResChunk_header.type field.
const (
	chunkStringPool = 0x0001
	chunkXML = 0x0003
	chunkResourceMap = 0x0180
	chunkNSStart = 0x0100
	chunkNSEnd = 0x0101
	chunkTagStart = 0x0102
	chunkTagEnd = 0x0103
	chunkText = 0x0104

	chunkMaskXML = 0x0100
)

// AttrType is the typed-value discriminant carried by each attribute's
// Res_value documented enumeration.
type AttrType uint8

const (
	AttrTypeNull AttrType = 0x00
	AttrTypeReference AttrType = 0x01
	AttrTypeAttribute AttrType = 0x02
	AttrTypeString AttrType = 0x03
	AttrTypeFloat AttrType = 0x04
	AttrTypeDimension AttrType = 0x05
	AttrTypeFraction AttrType = 0x06
	AttrTypeIntDec AttrType = 0x10
	AttrTypeIntHex AttrType = 0x11
	AttrTypeIntBool AttrType = 0x12
	AttrTypeIntColorARGB8 AttrType = 0x1c
	AttrTypeIntColorRGB8 AttrType = 0x1d
	AttrTypeIntColorARGB4 AttrType = 0x1e
	AttrTypeIntColorRGB4 AttrType = 0x1f
)

// Attr is one decoded attribute of a Element, in source order.
type Attr struct {
	Namespace string
	Name string
	RawValue string
	Type AttrType
	Data uint32
}

// IntValue interprets Data as a signed 32-bit integer, valid for
// AttrTypeIntDec/IntHex/IntBool and the color types.
func (a Attr) IntValue() int32 { return int32(a.Data) }

// BoolValue interprets Data per AttrTypeIntBool.
func (a Attr) BoolValue() bool { return a.Data != 0 }

// Element is one node of the decoded document tree. Attribute and child
// order match the source document "preserving sibling order".
type Element struct {
	Namespace string
	Name string
	Attrs []Attr
	Children []Node
	Line uint32
}

// Attr looks up the first attribute with the given local name, optionally
// scoped to a namespace URI (empty matches any namespace).
func (e *Element) Attr(namespace, name string) (Attr, bool) {
	for _, a := range e.Attrs {
		if a.Name == name && (namespace == "" || a.Namespace == namespace) {
			return a, true
		}
	}
	return Attr{}, false
}

// ChildrenNamed returns the direct child elements with the given local
// name.
func (e *Element) ChildrenNamed(name string) []*Element {
	var out []*Element
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok && el.Name == name {
			out = append(out, el)
		}
	}
	return out
}

// Node is either an *Element or CharData.
type Node interface{ isNode() }

// CharData is a run of text between elements.
type CharData string

func (CharData) isNode() {}
func (*Element) isNode() {}

// Document is the decoded binary-XML tree. Root is the document's top-level
// element itself (e.g. <manifest>); if the stream holds more than one
// top-level element, Root is the last of them.
type Document struct {
	Root *Element
}

// ErrUnbalanced is returned when the element stack is non-empty at
// end-of-stream: "The decoder rejects a document whose element
// stack is non-empty at end-of-stream."
var ErrUnbalanced = errors.New("axml: unbalanced element stack at end of stream")

type decoder struct {
	r io.Reader

	strings respool.Pool
	resIDs []uint32

	nsStack []nsEntry
	stack []*Element
	root *Element
}

type nsEntry struct {
	prefix string
	uri string
}

// Decode reads one binary-XML stream and returns its document tree.
func Decode(r io.Reader) (*Document, error) {
	d := &decoder{r: r}

	id, _, totalLen, err := respool.ReadChunkHeader(r)
	if err != nil {
		return nil, fmt.Errorf("axml: reading top header: %w", err)
	}
	_ = id // Android's parser does not actually validate this is chunkXML.

	remaining := int64(totalLen) - respool.ChunkHeaderSize
	for remaining > 0 {
		cid, _, clen, err := respool.ReadChunkHeader(r)
		if err != nil {
			return nil, fmt.Errorf("axml: reading chunk header: %w", err)
		}
		body := &io.LimitedReader{R: r, N: int64(clen) - respool.ChunkHeaderSize}

		switch cid {
		case chunkStringPool:
			d.strings, err = respool.ParseStringPool(body)
		case chunkResourceMap:
			err = d.parseResourceMap(body)
		default:
			if cid&chunkMaskXML == 0 {
				return nil, fmt.Errorf("axml: unknown chunk id 0x%x", cid)
			}
			// Every XML node chunk begins with a (lineNumber, comment) u32 pair
			// beyond the common header, reserved for tooling; we skip it.
			if _, err = io.CopyN(io.Discard, body, 8); err != nil {
				break
			}
			switch cid {
			case chunkNSStart:
				err = d.parseNSStart(body)
			case chunkNSEnd:
				err = d.parseNSEnd(body)
			case chunkTagStart:
				err = d.parseTagStart(body)
			case chunkTagEnd:
				err = d.parseTagEnd(body)
			case chunkText:
				err = d.parseText(body)
			default:
				err = fmt.Errorf("axml: unknown xml chunk id 0x%x", cid)
			}
		}
		if err != nil {
			return nil, fmt.Errorf("axml: chunk 0x%04x: %w", cid, err)
		}
		if body.N != 0 {
			return nil, fmt.Errorf("axml: chunk 0x%04x: %d trailing bytes not consumed", cid, body.N)
		}

		remaining -= int64(clen)
	}

	if len(d.stack) != 0 {
		return nil, ErrUnbalanced
	}

	return &Document{Root: d.root}, nil
}

func (d *decoder) parseResourceMap(r *io.LimitedReader) error {
	if r.N%4 != 0 {
		return fmt.Errorf("resource map size %d not a multiple of 4", r.N)
	}
	count := r.N / 4
	d.resIDs = make([]uint32, 0, count)
	var id uint32
	for i := int64(0); i < count; i++ {
		if err := binary.Read(r, binary.LittleEndian, &id); err != nil {
			return err
		}
		d.resIDs = append(d.resIDs, id)
	}
	return nil
}

func (d *decoder) parseNSStart(r *io.LimitedReader) error {
	var prefixIdx, uriIdx uint32
	if err := binary.Read(r, binary.LittleEndian, &prefixIdx); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &uriIdx); err != nil {
		return err
	}
	prefix, err := d.strings.Get(prefixIdx)
	if err != nil {
		return err
	}
	uri, err := d.strings.Get(uriIdx)
	if err != nil {
		return err
	}
	d.nsStack = append(d.nsStack, nsEntry{prefix: prefix, uri: uri})
	return nil
}

func (d *decoder) parseNSEnd(r *io.LimitedReader) error {
	if _, err := io.CopyN(io.Discard, r, 8); err != nil {
		return err
	}
	if len(d.nsStack) == 0 {
		return errors.New("namespace end with empty namespace stack")
	}
	d.nsStack = d.nsStack[:len(d.nsStack)-1]
	return nil
}

func (d *decoder) parseTagStart(r *io.LimitedReader) error {
	var nsIdx, nameIdx uint32
	var attrStart, attrSize, attrCount uint16
	if err := binary.Read(r, binary.LittleEndian, &nsIdx); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &nameIdx); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &attrStart); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &attrSize); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &attrCount); err != nil {
		return err
	}
	// idIndex, classIndex, styleIndex: unused by this decoder.
	if _, err := io.CopyN(io.Discard, r, 6); err != nil {
		return err
	}

	namespace, err := d.strings.Get(nsIdx)
	if err != nil {
		return err
	}
	name, err := d.strings.Get(nameIdx)
	if err != nil {
		return err
	}

	el := &Element{Namespace: namespace, Name: name}

	type rawAttr struct {
		nsIdx, nameIdx, rawValueIdx uint32
		size uint16
		_pad uint8
		dataType uint8
		data uint32
	}

	for i := uint16(0); i < attrCount; i++ {
		var a rawAttr
		if err := binary.Read(r, binary.LittleEndian, &a.nsIdx); err != nil {
			return err
		}
		if err := binary.Read(r, binary.LittleEndian, &a.nameIdx); err != nil {
			return err
		}
		if err := binary.Read(r, binary.LittleEndian, &a.rawValueIdx); err != nil {
			return err
		}
		if err := binary.Read(r, binary.LittleEndian, &a.size); err != nil {
			return err
		}
		if err := binary.Read(r, binary.LittleEndian, &a._pad); err != nil {
			return err
		}
		if err := binary.Read(r, binary.LittleEndian, &a.dataType); err != nil {
			return err
		}
		if err := binary.Read(r, binary.LittleEndian, &a.data); err != nil {
			return err
		}
		// Each attribute record is attrSize bytes (ns+name+rawValue+Res_value,
		// 20 bytes in every manifest this decoder has seen); a newer schema
		// revision may declare a larger attrSize to carry extra trailing
		// fields this decoder doesn't know about, so skip by the declared
		// size rather than assuming 20.
		const knownAttrRecordSize = 20
		if uintptr(attrSize) > knownAttrRecordSize {
			if _, err := io.CopyN(io.Discard, r, int64(attrSize)-knownAttrRecordSize); err != nil {
				return err
			}
		}

		attrName, err := d.strings.Get(a.nameIdx)
		if err != nil {
			return err
		}
		attrNS, err := d.strings.Get(a.nsIdx)
		if err != nil {
			return err
		}
		var rawVal string
		if AttrType(a.dataType) == AttrTypeString {
			rawVal, err = d.strings.Get(a.data)
			if err != nil {
				return err
			}
		} else if a.rawValueIdx != 0xFFFFFFFF {
			rawVal, _ = d.strings.Get(a.rawValueIdx)
		}

		el.Attrs = append(el.Attrs, Attr{
			Namespace: attrNS,
			Name: attrName,
			RawValue: rawVal,
			Type: AttrType(a.dataType),
			Data: a.data,
		})
	}

	if len(d.stack) == 0 {
		d.root = el
	} else {
		parent := d.stack[len(d.stack)-1]
		parent.Children = append(parent.Children, el)
	}
	d.stack = append(d.stack, el)
	return nil
}

func (d *decoder) parseTagEnd(r *io.LimitedReader) error {
	var nsIdx, nameIdx uint32
	if err := binary.Read(r, binary.LittleEndian, &nsIdx); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &nameIdx); err != nil {
		return err
	}
	if len(d.stack) == 0 {
		return errors.New("end-element with empty element stack")
	}
	d.stack = d.stack[:len(d.stack)-1]
	return nil
}

func (d *decoder) parseText(r *io.LimitedReader) error {
	var idx uint32
	if err := binary.Read(r, binary.LittleEndian, &idx); err != nil {
		return err
	}
	text, err := d.strings.Get(idx)
	if err != nil {
		return err
	}
	if _, err := io.CopyN(io.Discard, r, 8); err != nil {
		return err
	}
	if len(d.stack) > 0 {
		parent := d.stack[len(d.stack)-1]
		parent.Children = append(parent.Children, CharData(text))
	}
	return nil
}
