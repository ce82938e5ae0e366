package translate

import (
	"testing"

	"github.com/johnsonlee/testpilot/internal/dex"
	"github.com/johnsonlee/testpilot/internal/hostvm"
)

// instruction-unit builders for the 16-bit Dalvik formats this translator lowers.
func unit21c(opcode uint8, regByte uint8, poolIdx uint16) []uint16 {
	return []uint16{uint16(regByte)<<8 | uint16(opcode), poolIdx}
}

func unit22c(opcode uint8, dstSrcReg uint8, objReg uint8, poolIdx uint16) []uint16 {
	return []uint16{uint16(objReg)<<12 | uint16(dstSrcReg)<<8 | uint16(opcode), poolIdx}
}

func unit35c(opcode uint8, argWordCount uint8, methodIdx uint16) []uint16 {
	return []uint16{uint16(argWordCount)<<12 | uint16(opcode), methodIdx, 0}
}

func TestLowerInstructionsResolvesConstStringOperand(t *testing.T) {
	f := &dex.File{Strings: []string{"Hola", "Hello"}}
	insns := unit21c(0x1a, 0x00, 1) // const-string v0, strings[1]
	out, err := lowerInstructions(insns, f)
	if err != nil {
		t.Fatalf("lowerInstructions: %v", err)
	}
	if out[0].Ref != "Hello" {
		t.Fatalf("const-string Ref = %q, want %q", out[0].Ref, "Hello")
	}
}

func TestLowerInstructionsResolvesNewInstanceOperand(t *testing.T) {
	f := &dex.File{Types: []string{"android/widget/TextView", "com/example/Foo"}}
	insns := unit21c(0x22, 0x00, 1) // new-instance v0, types[1]
	out, err := lowerInstructions(insns, f)
	if err != nil {
		t.Fatalf("lowerInstructions: %v", err)
	}
	if out[0].Ref != "com/example/Foo" {
		t.Fatalf("new-instance Ref = %q, want %q", out[0].Ref, "com/example/Foo")
	}
}

func TestLowerInstructionsResolvesFieldOwnerOperand(t *testing.T) {
	f := &dex.File{Fields: []dex.Field{{Class: "com/example/Foo", Type: "I", Name: "bar"}}}
	insns := unit22c(0x54, 0x0, 0x1, 0) // iget v0, v1, fields[0]
	out, err := lowerInstructions(insns, f)
	if err != nil {
		t.Fatalf("lowerInstructions: %v", err)
	}
	var ref string
	for _, in := range out {
		if in.Op == hostvm.OpGetField {
			ref = in.Ref
		}
	}
	if ref != "com/example/Foo" {
		t.Fatalf("iget Ref = %q, want %q", ref, "com/example/Foo")
	}
}

func TestLowerInstructionsResolvesMethodOwnerOperand(t *testing.T) {
	f := &dex.File{Methods: []dex.MethodRef{{Class: "android/app/Activity", Name: "onCreate"}}}
	insns := unit35c(0x6e, 1, 0) // invoke-virtual {v0}, methods[0]
	out, err := lowerInstructions(insns, f)
	if err != nil {
		t.Fatalf("lowerInstructions: %v", err)
	}
	if out[0].Ref != "android/app/Activity" {
		t.Fatalf("invoke-virtual Ref = %q, want %q", out[0].Ref, "android/app/Activity")
	}
}

func TestLowerInstructionsOutOfRangeOperandResolvesEmpty(t *testing.T) {
	f := &dex.File{}
	insns := unit21c(0x1a, 0x00, 0)
	out, err := lowerInstructions(insns, f)
	if err != nil {
		t.Fatalf("lowerInstructions: %v", err)
	}
	if out[0].Ref != "" {
		t.Fatalf("const-string Ref = %q, want empty for an out-of-range pool", out[0].Ref)
	}
}
