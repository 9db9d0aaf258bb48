package scope

import (
	"testing"

	"github.com/bits-and-blooms/bitset"

	"github.com/jz-lang/jzc/pkg/ast"
)

// node is a small helper for building AST fixtures inline without going
// through JSON, since these tests exercise the walker directly.
func node(tag string, args ...ast.Node) ast.Node {
	n := []any{tag}
	return append(n, args...)
}

func ident(name string) ast.Node { return name }

func Test_AnalyzeScope_FreeVariable_01(t *testing.T) {
	in := NewInterner()
	// `x + 1` where x is free.
	body := node(";", []any{node("+", ident("x"), []any{nil, 1.0})})
	a := AnalyzeScope(in, body, bitset.New(0), false)

	xid, ok := in.Lookup("x")
	if !ok || !a.Free.Test(xid) {
		t.Fatalf("expected x to be free")
	}
}

func Test_AnalyzeScope_Declaration_01(t *testing.T) {
	in := NewInterner()
	// let x = 2; x + 1
	decl := node("let", node("=", ident("x"), []any{nil, 2.0}))
	use := node("+", ident("x"), []any{nil, 1.0})
	body := node(";", []any{decl, use})

	a := AnalyzeScope(in, body, bitset.New(0), false)

	xid, _ := in.Lookup("x")
	if a.Free.Test(xid) {
		t.Fatalf("x is declared locally and must not be free")
	}

	if !a.Defined.Test(xid) {
		t.Fatalf("expected x to be in Defined")
	}
}

// Test_AnalyzeScope_Counter_01 grounds this end-to-end scenario 3:
//
//	let counter = () => { let n = 0; return () => (n = n+1, n) };
//
// The inner arrow function captures `n` from the outer one, so HoistedVars
// on the outer function's body must report `n`.
func Test_AnalyzeScope_Counter_01(t *testing.T) {
	in := NewInterner()

	innerBody := node(",", node("=", ident("n"), node("+", ident("n"), []any{nil, 1.0})), ident("n"))
	innerFn := node("=>", []any{}, innerBody)
	outerBody := node(";", []any{
		node("let", node("=", ident("n"), []any{nil, 0.0})),
		node("return", innerFn),
	})

	hoisted := HoistedVars(in, outerBody, nil)

	nid, ok := in.Lookup("n")
	if !ok {
		t.Fatalf("n was never interned")
	}

	if !hoisted.Test(nid) {
		t.Fatalf("expected n to be hoisted because the inner closure captures it")
	}
}

func Test_AnalyzeScope_BlockScopingDoesNotLeak_01(t *testing.T) {
	in := NewInterner()
	// { let y = 1; } y  -- the block-scoped `y` must not satisfy the
	// reference to `y` outside the block; it remains free.
	block := node("{}", []any{node("let", node("=", ident("y"), []any{nil, 1.0}))})
	body := node(";", []any{block, ident("y")})

	a := AnalyzeScope(in, body, bitset.New(0), false)

	yid, _ := in.Lookup("y")
	if !a.Free.Test(yid) {
		t.Fatalf("expected outer reference to y to be free, since the declaration was block-scoped")
	}
}
