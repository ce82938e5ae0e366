package dex

import "testing"

func TestReadULEB128SingleByte(t *testing.T) {
	data := []byte{0x05}
	v, n := readULEB128(data, 0)
	if v != 5 || n != 1 {
		t.Fatalf("readULEB128 = (%d, %d), want (5, 1)", v, n)
	}
}

func TestReadULEB128MultiByte(t *testing.T) {
	// 300 = 0b1_0010_1100 -> ULEB128 bytes 0xAC 0x02
	data := []byte{0xAC, 0x02}
	v, n := readULEB128(data, 0)
	if v != 300 || n != 2 {
		t.Fatalf("readULEB128 = (%d, %d), want (300, 2)", v, n)
	}
}

// appendULEB128 encodes v as unsigned LEB128. encoded_catch_handler packs its
// handler count as signed LEB128 (positive means no catch-all follows, zero
// or negative means a catch-all trailer follows); for the small non-negative
// counts used below both encodings produce the same bytes.
func appendULEB128(buf []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			buf = append(buf, b|0x80)
		} else {
			buf = append(buf, b)
			break
		}
	}
	return buf
}

func TestDecodeHandlersResolvesTypeNames(t *testing.T) {
	types := []string{"java/lang/Exception", "java/io/IOException"}
	typeName := func(i uint32) string {
		if int(i) >= len(types) {
			return ""
		}
		return types[i]
	}

	var buf []byte
	buf = appendULEB128(buf, 1) // one handler, no catch-all
	buf = appendULEB128(buf, 1) // type_idx -> java/io/IOException
	buf = appendULEB128(buf, 0x10) // addr

	handlers, consumed := decodeHandlers(buf, 0, typeName)
	if consumed != len(buf) {
		t.Fatalf("decodeHandlers consumed %d bytes, want %d", consumed, len(buf))
	}
	if len(handlers) != 1 {
		t.Fatalf("decodeHandlers returned %d handlers, want 1", len(handlers))
	}
	if handlers[0].TypeName != "java/io/IOException" {
		t.Fatalf("TypeName = %q, want %q", handlers[0].TypeName, "java/io/IOException")
	}
	if handlers[0].Addr != 0x10 {
		t.Fatalf("Addr = %d, want 0x10", handlers[0].Addr)
	}
}

func TestDecodeHandlersCatchAllTrailer(t *testing.T) {
	typeName := func(uint32) string { return "unused" }

	var buf []byte
	buf = appendULEB128(buf, 0) // zero handlers, catch-all trailer follows
	buf = appendULEB128(buf, 0x20) // catch-all addr

	handlers, _ := decodeHandlers(buf, 0, typeName)
	if len(handlers) != 1 {
		t.Fatalf("decodeHandlers returned %d handlers, want 1 (catch-all)", len(handlers))
	}
	if handlers[0].TypeName != "" {
		t.Fatalf("catch-all TypeName = %q, want empty", handlers[0].TypeName)
	}
	if handlers[0].Addr != 0x20 {
		t.Fatalf("catch-all Addr = %d, want 0x20", handlers[0].Addr)
	}
}

func TestDescriptorToName(t *testing.T) {
	cases := map[string]string{
		"Lcom/example/Foo;": "com/example/Foo",
		"I":                 "I",
		"[I":                "[I",
	}
	for in, want := range cases {
		if got := descriptorToName(in); got != want {
			t.Errorf("descriptorToName(%q) = %q, want %q", in, got, want)
		}
	}
}
