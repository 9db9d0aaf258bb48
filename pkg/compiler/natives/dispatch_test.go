package natives

import (
	"testing"

	"github.com/jz-lang/jzc/pkg/memory"
	"github.com/jz-lang/jzc/pkg/value"
)

func Test_Lookup_ArrayMethod_01(t *testing.T) {
	name, ok := Lookup(value.Array, "", "", "map")
	if !ok || name != "arr_map" {
		t.Fatalf("expected arr_map, got %q ok=%v", name, ok)
	}
}

func Test_Lookup_StringMethod_01(t *testing.T) {
	name, ok := Lookup(value.String, "", "", "slice")
	if !ok || name != "str_slice" {
		t.Fatalf("expected str_slice, got %q ok=%v", name, ok)
	}
}

func Test_Lookup_TypedArrayMethod_01(t *testing.T) {
	name, ok := Lookup(value.TypedArray, "i32", "", "map")
	if !ok || name != "typed_map_i32" {
		t.Fatalf("expected typed_map_i32, got %q ok=%v", name, ok)
	}
}

func Test_Lookup_SetVsMap_01(t *testing.T) {
	mapName, ok := Lookup(value.Object, "", "", "add")
	if ok {
		t.Fatalf("map receiver should not resolve 'add', got %q", mapName)
	}

	setName, ok := Lookup(value.Object, "", "set", "add")
	if !ok || setName != "set_add" {
		t.Fatalf("expected set_add, got %q ok=%v", setName, ok)
	}
}

func Test_Lookup_UnknownMethod_01(t *testing.T) {
	if _, ok := Lookup(value.Array, "", "", "notAMethod"); ok {
		t.Fatalf("unknown method must not resolve")
	}
}

// Test_PrimitivesRegistered_01 confirms every primitive a dispatch table
// entry names actually exists in the shared registry, so a typo in
// either table would be caught without needing to run the assembler.
func Test_PrimitivesRegistered_01(t *testing.T) {
	check := func(table map[string]string) {
		for method, prim := range table {
			if _, ok := memory.Lookup(prim); !ok {
				t.Errorf("method %q names unregistered primitive %q", method, prim)
			}
		}
	}

	check(arrayMethods)
	check(stringMethods)
	check(mapMethods)
	check(setMethods)

	for method, stem := range typedArrayMethods {
		if _, ok := memory.Lookup(stem + "_i32"); !ok {
			t.Errorf("typed array method %q names unregistered primitive %q", method, stem+"_i32")
		}
	}
}
