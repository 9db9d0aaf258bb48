package generator

import (
	"strings"
	"testing"

	"github.com/jz-lang/jzc/pkg/ast"
	"github.com/jz-lang/jzc/pkg/compiler/context"
	"github.com/jz-lang/jzc/pkg/value"
)

// node/ident mirror pkg/compiler/scope's test fixtures: building AST nodes
// inline without going through the JSON wire form.
func node(tag string, args ...ast.Node) ast.Node {
	n := []any{tag}
	return append(n, args...)
}

func ident(name string) ast.Node { return name }

func num(f float64) ast.Node { return []any{nil, f} }

func Test_Gen_NumberLiteral_01(t *testing.T) {
	ctx := context.New()
	v := Gen(ctx, num(3.5))

	if !strings.Contains(v.Code, "f64.const 3.5") {
		t.Fatalf("got %q", v.Code)
	}
}

func Test_Gen_Add_NumberAndNumber_01(t *testing.T) {
	ctx := context.New()
	v := Gen(ctx, node("+", num(1), num(2)))

	if !strings.Contains(v.Code, "f64.add") {
		t.Fatalf("expected f64.add, got %q", v.Code)
	}
}

func Test_Gen_Add_StringConcat_01(t *testing.T) {
	ctx := context.New()
	v := Gen(ctx, node("+", []any{nil, "a"}, []any{nil, "b"}))

	if !strings.Contains(v.Code, "$strcat") {
		t.Fatalf("expected a call to $strcat, got %q", v.Code)
	}
}

func Test_Stmt_LetThenUse_01(t *testing.T) {
	ctx := context.New()
	// let x = 1; x + 1
	decl := Stmt(ctx, node("let", node("=", ident("x"), num(1))))
	use := Gen(ctx, node("+", ident("x"), num(1)))

	if !strings.Contains(decl, "local.set") {
		t.Fatalf("expected a local.set in declaration, got %q", decl)
	}
	if !strings.Contains(use.Code, "local.get") {
		t.Fatalf("expected a local.get referencing x, got %q", use.Code)
	}
}

func Test_Stmt_ConstReassignPanics_01(t *testing.T) {
	ctx := context.New()
	Stmt(ctx, node("const", node("=", ident("x"), num(1))))

	defer func() {
		if recover() == nil {
			t.Fatalf("expected reassigning a const to panic")
		}
	}()

	Stmt(ctx, node("=", ident("x"), num(2)))
}

func Test_Stmt_If_01(t *testing.T) {
	ctx := context.New()
	out := Stmt(ctx, node("if", node(">", num(1), num(0)), node(";", []any{}), nil))

	if !strings.Contains(out, "(if ") {
		t.Fatalf("got %q", out)
	}
}

func Test_Stmt_WhileBreak_01(t *testing.T) {
	ctx := context.New()
	body := node(";", []any{node("break")})
	out := Stmt(ctx, node("while", num(1), body))

	if !strings.Contains(out, "(loop") || !strings.Contains(out, "(br $break_") {
		t.Fatalf("got %q", out)
	}
}

func Test_Stmt_ForContinue_01(t *testing.T) {
	ctx := context.New()
	init := node("let", node("=", ident("i"), num(0)))
	cond := node("<", ident("i"), num(10))
	step := node("=", ident("i"), node("+", ident("i"), num(1)))
	body := node(";", []any{node("continue")})

	out := Stmt(ctx, node("for", init, cond, step, body))

	if !strings.Contains(out, "(br $continue_") {
		t.Fatalf("expected continue to branch to the body's own inner block, got %q", out)
	}
}

func Test_Gen_ArrayLiteralConst_01(t *testing.T) {
	ctx := context.New()
	v := Gen(ctx, node("[]", []any{num(1), num(2), num(3)}))

	if v.Kind != value.Array {
		t.Fatalf("expected Array kind, got %v", v.Kind)
	}
}

func Test_Gen_ArrowNoCapture_01(t *testing.T) {
	ctx := context.New()
	// (x) => x + 1
	fn := node("=>", []any{ident("x")}, node("+", ident("x"), num(1)))
	v := Gen(ctx, fn)

	if !strings.Contains(v.Code, "$mk_closure") {
		t.Fatalf("expected a mk_closure call, got %q", v.Code)
	}

	compiled := ctx.CompiledFunctions()
	if len(compiled) != 1 {
		t.Fatalf("expected exactly one compiled function, got %d", len(compiled))
	}

	cf := compiled[0]
	if len(cf.Params) != 2 || cf.Params[0] != "env" {
		t.Fatalf("expected [env, x] params, got %v", cf.Params)
	}
	if !strings.Contains(cf.Body, "(return") {
		t.Fatalf("expected an explicit return in the lowered body, got %q", cf.Body)
	}
}

// Test_Gen_ArrowCapture_01 grounds the classic counter-closure scenario:
//
//	let n = 0;
//	let inc = () => n = n + 1;
//
// inc's body references n, a local of the enclosing scope, so it must be
// captured into inc's environment rather than resolved as a global.
func Test_Gen_ArrowCapture_01(t *testing.T) {
	ctx := context.New()

	Stmt(ctx, node("let", node("=", ident("n"), num(0))))

	fn := node("=>", []any{}, node("=", ident("n"), node("+", ident("n"), num(1))))
	v := Gen(ctx, fn)

	if !strings.Contains(v.Code, "$arr_set") {
		t.Fatalf("expected the environment to be built via arr_set, got %q", v.Code)
	}

	compiled := ctx.CompiledFunctions()
	cf := compiled[len(compiled)-1]
	if !strings.Contains(cf.Body, "$arr_get") {
		t.Fatalf("expected the closure body to read n via arr_get on its env, got %q", cf.Body)
	}
}

// Test_Stmt_FunctionRecursion_01 grounds direct self-recursion: a named
// function calling itself by name lowers to a direct call rather than an
// indirect invokeN dispatch.
func Test_Stmt_FunctionRecursion_01(t *testing.T) {
	ctx := context.New()

	// function fact(n) { return n; } -- body calls itself once for shape.
	body := node(";", []any{
		node("return", node("call", ident("fact"), []any{ident("n")})),
	})
	fn := node("function", ident("fact"), []any{ident("n")}, body)

	Stmt(ctx, fn)

	compiled := ctx.CompiledFunctions()
	if len(compiled) != 1 {
		t.Fatalf("expected one compiled function, got %d", len(compiled))
	}

	cf := compiled[0]
	if !strings.Contains(cf.Body, "(call $"+cf.Name+" (local.get $env)") {
		t.Fatalf("expected a direct recursive call forwarding env, got %q", cf.Body)
	}
	if strings.Contains(cf.Body, "invoke") {
		t.Fatalf("self-recursion should bypass invokeN entirely, got %q", cf.Body)
	}
}

// Test_Stmt_LetArrowRecursion_01 grounds `let f = n => n < 2 ? n :
// f(n-1) + f(n-2)`: a let-bound arrow referencing its own binding name
// must resolve the same way a named function declaration's self-call
// does, rather than needing a not-yet-constructed closure value captured
// into its own environment.
func Test_Stmt_LetArrowRecursion_01(t *testing.T) {
	ctx := context.New()

	body := node("+",
		node("call", ident("f"), []any{node("-", ident("n"), num(1))}),
		node("call", ident("f"), []any{node("-", ident("n"), num(2))}),
	)
	fn := node("=>", []any{ident("n")}, body)

	Stmt(ctx, node("let", node("=", ident("f"), fn)))

	compiled := ctx.CompiledFunctions()
	if len(compiled) != 1 {
		t.Fatalf("expected one compiled function, got %d", len(compiled))
	}

	cf := compiled[0]
	if !strings.Contains(cf.Body, "(call $"+cf.Name+" (local.get $env)") {
		t.Fatalf("expected direct recursive calls forwarding env, got %q", cf.Body)
	}
	if strings.Contains(cf.Body, "invoke") {
		t.Fatalf("self-recursion through a let-bound arrow should bypass invokeN, got %q", cf.Body)
	}
}

func Test_Gen_CallTooManyArgsPanics_01(t *testing.T) {
	ctx := context.New()
	Stmt(ctx, node("let", node("=", ident("f"), node("=>", []any{}, num(0)))))

	args := []any{num(1), num(2), num(3), num(4)}

	defer func() {
		if recover() == nil {
			t.Fatalf("expected a call with more than 3 arguments through a closure value to panic")
		}
	}()

	Gen(ctx, node("call", ident("f"), args))
}

func Test_Gen_MethodCall_ArrayPush_01(t *testing.T) {
	ctx := context.New()
	arr := node("[]", []any{num(1), node("+", num(1), num(1))})
	call := node("call", node(".", arr, ident("push")), []any{num(3)})

	v := Gen(ctx, call)

	if !strings.Contains(v.Code, "$arr_push") {
		t.Fatalf("expected a call to $arr_push, got %q", v.Code)
	}
}

func Test_Gen_MethodCall_UnknownPanics_01(t *testing.T) {
	ctx := context.New()
	arr := node("[]", []any{num(1)})
	call := node("call", node(".", arr, ident("frobnicate")), []any{})

	defer func() {
		if recover() == nil {
			t.Fatalf("expected an unknown method to panic")
		}
	}()

	Gen(ctx, call)
}

func Test_Gen_SwitchNoFallthrough_01(t *testing.T) {
	ctx := context.New()
	sw := node("switch", num(1),
		[]any{
			node("case", num(1), []any{ident("x")}),
			node("default", []any{ident("x")}),
		},
	)

	Stmt(ctx, node("let", node("=", ident("x"), num(0))))
	out := Stmt(ctx, sw)

	if !strings.Contains(out, "(block $break_") {
		t.Fatalf("got %q", out)
	}
}
