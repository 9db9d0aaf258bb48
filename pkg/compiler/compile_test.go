package compiler

import (
	"strings"
	"testing"

	"github.com/jz-lang/jzc/pkg/ast"
)

func node(tag string, args ...ast.Node) ast.Node {
	n := []any{tag}
	return append(n, args...)
}

func ident(name string) ast.Node { return name }

func num(f float64) ast.Node { return []any{nil, f} }

func Test_Compile_TrailingExpression_01(t *testing.T) {
	program := []ast.Node{
		node("+", num(1), num(2)),
	}

	res, err := Compile(program, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(res.WAT, `(export "main" (func $main))`) {
		t.Fatalf("expected a main export, got:\n%s", res.WAT)
	}
	if !strings.Contains(res.WAT, "f64.add") {
		t.Fatalf("expected the trailing expression to be generated, got:\n%s", res.WAT)
	}
}

func Test_Compile_LetArrowRecursion_01(t *testing.T) {
	// let f = n => n < 2 ? n : f(n-1) + f(n-2); f(10)
	fBody := node("?:",
		node("<", ident("n"), num(2)),
		ident("n"),
		node("+",
			node("call", ident("f"), []ast.Node{node("-", ident("n"), num(1))}),
			node("call", ident("f"), []ast.Node{node("-", ident("n"), num(2))}),
		),
	)
	arrow := node("=>", []ast.Node{ident("n")}, fBody)
	decl := node("let", node("=", ident("f"), arrow))
	call := node("call", ident("f"), []ast.Node{num(10)})

	program := []ast.Node{decl, call}

	res, err := Compile(program, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(res.WAT, "(module") {
		t.Fatalf("expected a module, got:\n%s", res.WAT)
	}
}

func Test_Compile_NoTrailingExpression_01(t *testing.T) {
	program := []ast.Node{
		node("let", node("=", ident("x"), num(1))),
	}

	res, err := Compile(program, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(res.WAT, "(func $main (result f64)") {
		t.Fatalf("expected a main function, got:\n%s", res.WAT)
	}
	if !strings.Contains(res.WAT, "(f64.const 0)") {
		t.Fatalf("expected a default zero result when the program has no trailing expression, got:\n%s", res.WAT)
	}
}

func Test_Compile_GCRejected_01(t *testing.T) {
	_, err := Compile([]ast.Node{num(1)}, Options{GC: true})
	if err == nil {
		t.Fatalf("expected an error rejecting the gc option")
	}
	if !strings.Contains(err.Error(), "type-error") {
		t.Fatalf("expected a type-error code, got %v", err)
	}
}

func Test_Compile_UnknownMethodRaisesError_01(t *testing.T) {
	// [1,2,3].bogusMethod()
	arr := node("[]", []ast.Node{num(1), num(2), num(3)})
	call := node("call", node(".", arr, "bogusMethod"), []ast.Node{})

	_, err := Compile([]ast.Node{call}, Options{})
	if err == nil {
		t.Fatalf("expected an unknown-method error")
	}
	if !strings.Contains(err.Error(), "unknown-method") {
		t.Fatalf("expected unknown-method code, got %v", err)
	}
}
