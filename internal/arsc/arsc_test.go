package arsc

import (
	"testing"

	"github.com/johnsonlee/testpilot/internal/respool"
)

func TestResolvePackageStringsFillsSimpleValue(t *testing.T) {
	globals := respool.Pool{Strings: []string{"Hola", "Hello"}}
	pkg := &Package{
		ID: 0x7f,
		Types: map[uint8]*TypeTable{
			1: {
				Name: "string",
				Variants: [][]Variant{
					{
						{Entry: Entry{Key: "greeting", Simple: &Value{Type: ValueString, Data: 1}}},
					},
				},
			},
		},
	}

	resolvePackageStrings(pkg, globals)

	got := pkg.Types[1].Variants[0][0].Entry.Simple.Str
	if got != "Hello" {
		t.Fatalf("Str = %q, want %q", got, "Hello")
	}
}

func TestResolvePackageStringsFillsComplexValueMap(t *testing.T) {
	globals := respool.Pool{Strings: []string{"Hola", "Hello"}}
	pkg := &Package{
		Types: map[uint8]*TypeTable{
			1: {
				Variants: [][]Variant{
					{
						{Entry: Entry{Complex: &ComplexValue{Map: map[uint32]Value{
							0: {Type: ValueString, Data: 0},
						}}}},
					},
				},
			},
		},
	}

	resolvePackageStrings(pkg, globals)

	got := pkg.Types[1].Variants[0][0].Entry.Complex.Map[0].Str
	if got != "Hola" {
		t.Fatalf("Str = %q, want %q", got, "Hola")
	}
}

func TestResolvePackageStringsLeavesNonStringValuesAlone(t *testing.T) {
	globals := respool.Pool{Strings: []string{"Hola"}}
	pkg := &Package{
		Types: map[uint8]*TypeTable{
			1: {
				Variants: [][]Variant{
					{
						{Entry: Entry{Simple: &Value{Type: ValueIntDec, Data: 42}}},
					},
				},
			},
		},
	}

	resolvePackageStrings(pkg, globals)

	v := pkg.Types[1].Variants[0][0].Entry.Simple
	if v.Str != "" || v.Data != 42 {
		t.Fatalf("non-string value mutated: Str=%q Data=%d", v.Str, v.Data)
	}
}

func TestTableLookupUnknownPackage(t *testing.T) {
	table := &Table{}
	if _, err := table.Lookup(0x7f010001); err == nil {
		t.Fatal("Lookup on empty table should fail")
	}
}
