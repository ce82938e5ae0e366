package driver

import (
	"testing"

	"github.com/johnsonlee/testpilot/internal/arsc"
	"github.com/johnsonlee/testpilot/internal/resconfig"
)

func stringTable(entryID uint16, variants []arsc.Variant) *arsc.Table {
	vs := make([][]arsc.Variant, int(entryID)+1)
	vs[entryID] = variants
	return &arsc.Table{
		Packages: []*arsc.Package{
			{
				ID: 0x7f,
				Types: map[uint8]*arsc.TypeTable{
					0x02: {
						Name:     "string",
						Variants: vs,
					},
				},
			},
		},
	}
}

func resID(entry uint16) uint32 { return 0x7f020000 | uint32(entry) }

func TestTableResolverPicksLocaleMatch(t *testing.T) {
	table := stringTable(1, []arsc.Variant{
		{Config: resconfig.Config{}, Entry: arsc.Entry{Simple: &arsc.Value{Type: arsc.ValueString, Str: "Hello"}}},
		{Config: resconfig.Config{Language: "es"}, Entry: arsc.Entry{Simple: &arsc.Value{Type: arsc.ValueString, Str: "Hola"}}},
	})
	r := &tableResolver{table: table, target: resconfig.Config{Language: "es", Country: "ES"}}

	got, err := r.String(resID(1))
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if got != "Hola" {
		t.Fatalf("String() = %q, want %q", got, "Hola")
	}
}

func TestTableResolverFallsBackToDefaultLocale(t *testing.T) {
	table := stringTable(1, []arsc.Variant{
		{Config: resconfig.Config{}, Entry: arsc.Entry{Simple: &arsc.Value{Type: arsc.ValueString, Str: "Hello"}}},
		{Config: resconfig.Config{Language: "es"}, Entry: arsc.Entry{Simple: &arsc.Value{Type: arsc.ValueString, Str: "Hola"}}},
	})
	r := &tableResolver{table: table, target: resconfig.Config{Language: "fr", Country: "FR"}}

	got, err := r.String(resID(1))
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if got != "Hello" {
		t.Fatalf("String() = %q, want %q", got, "Hello")
	}
}

func TestTableResolverFollowsReference(t *testing.T) {
	table := stringTable(1, []arsc.Variant{
		{Entry: arsc.Entry{Simple: &arsc.Value{Type: arsc.ValueReference, Data: resID(2)}}},
	})
	table.Packages[0].Types[0x02].Variants = append(table.Packages[0].Types[0x02].Variants, []arsc.Variant{
		{Entry: arsc.Entry{Simple: &arsc.Value{Type: arsc.ValueString, Str: "Hello"}}},
	})
	r := &tableResolver{table: table}

	got, err := r.String(resID(1))
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if got != "Hello" {
		t.Fatalf("String() = %q, want %q", got, "Hello")
	}
}

func TestTableResolverDetectsReferenceCycle(t *testing.T) {
	table := stringTable(1, []arsc.Variant{
		{Entry: arsc.Entry{Simple: &arsc.Value{Type: arsc.ValueReference, Data: resID(2)}}},
	})
	table.Packages[0].Types[0x02].Variants = append(table.Packages[0].Types[0x02].Variants, []arsc.Variant{
		{Entry: arsc.Entry{Simple: &arsc.Value{Type: arsc.ValueReference, Data: resID(1)}}},
	})
	r := &tableResolver{table: table}

	_, err := r.String(resID(1))
	if err == nil {
		t.Fatal("expected a cycle-detected error, got nil")
	}
}

func TestTableResolverComplexEntryIsResourceMissing(t *testing.T) {
	table := stringTable(1, []arsc.Variant{
		{Entry: arsc.Entry{Complex: &arsc.ComplexValue{}}},
	})
	r := &tableResolver{table: table}

	if _, err := r.String(resID(1)); err == nil {
		t.Fatal("expected an error resolving a complex entry as a string")
	}
}

func TestComplexToFloatOneDip(t *testing.T) {
	// COMPLEX_UNIT_DIP=1, radix 0, mantissa 1 -> 1.0
	data := uint32(1<<8) | 0 /* unit dip in low 4 bits omitted; Dimension ignores unit */
	if got := complexToFloat(data); got != 1.0 {
		t.Fatalf("complexToFloat(%#x) = %v, want 1.0", data, got)
	}
}
