package context

import (
	"testing"

	"github.com/jz-lang/jzc/pkg/value"
)

func Test_Context_BlockScopedShadowing_01(t *testing.T) {
	c := New()

	outer := c.DeclareVar("x", value.F64, false)
	if outer.MangledName != "x" {
		t.Fatalf("depth-0 local must not be mangled, got %q", outer.MangledName)
	}

	c.PushScope()
	inner := c.DeclareVar("x", value.F64, false)

	if inner.MangledName != "x_s1" {
		t.Errorf("depth-1 local must mangle to x_s1, got %q", inner.MangledName)
	}

	got, ok := c.GetLocal("x")
	if !ok || got.Slot != inner.Slot {
		t.Errorf("innermost x should resolve to the depth-1 declaration")
	}

	c.PopScope()

	got, ok = c.GetLocal("x")
	if !ok || got.Slot != outer.Slot {
		t.Errorf("after popping the inner scope, x should resolve to the depth-0 declaration")
	}
}

func Test_Context_ConstReassignFlag_01(t *testing.T) {
	c := New()
	l := c.DeclareVar("pi", value.F64, true)

	if !l.Const {
		t.Fatalf("expected const flag to be recorded")
	}
}

func Test_Context_Fork_SharesSchemasAndFunctionTable_01(t *testing.T) {
	parent := New()
	parent.AddGlobal("g", value.F64, "(f64.const 0)")

	child := parent.Fork()

	if _, ok := child.GetGlobal("g"); !ok {
		t.Fatalf("forked context must see parent globals")
	}

	id := child.AddToFuncTable("f")
	if got := parent.FuncTable(); len(got) != 1 || got[id] != "f" {
		t.Fatalf("function table must be shared between parent and fork")
	}

	// But locals are NOT shared.
	parent.DeclareVar("onlyParent", value.F64, false)
	if _, ok := child.GetLocal("onlyParent"); ok {
		t.Fatalf("forked context must not see parent locals")
	}
}

func Test_Context_InternString_Dedup_01(t *testing.T) {
	c := New()

	a := c.InternString("hello")
	b := c.InternString("hello")

	if a.ID != b.ID || a.Offset != b.Offset {
		t.Fatalf("interning the same literal twice must yield the same entry")
	}

	other := c.InternString("world")
	if other.ID == a.ID {
		t.Fatalf("distinct literals must get distinct ids")
	}
}

func Test_Context_SchemaDeduplication_01(t *testing.T) {
	c := New()

	id1 := c.NewObjectSchema([]string{"x", "y"})
	id2 := c.NewObjectSchema([]string{"x", "y"})
	id3 := c.NewObjectSchema([]string{"x", "z"})

	if id1 != id2 {
		t.Fatalf("identical property lists must share a schema id")
	}

	if id1 == id3 {
		t.Fatalf("distinct property lists must get distinct schema ids")
	}

	if id1 == 0 {
		t.Fatalf("schema id 0 is reserved for plain arrays")
	}
}
