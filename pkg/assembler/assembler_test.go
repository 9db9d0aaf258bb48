package assembler

import (
	"strings"
	"testing"

	"github.com/jz-lang/jzc/pkg/compiler/context"
	"github.com/jz-lang/jzc/pkg/value"
)

func Test_Assemble_MinimalProgram_01(t *testing.T) {
	ctx := context.New()

	out, err := Assemble(Program{Ctx: ctx, EntryBody: "(f64.const 7)", EntryKind: value.F64})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"(module",
		"(type $fn0",
		"(type $fn3",
		`(export "main" (func $main))`,
		`(export "_memory" (memory $mem))`,
		`(export "_alloc" (func $alloc))`,
		"(@custom \"jz:sig\"",
		"(f64.const 7)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q, got:\n%s", want, out)
		}
	}

	if !strings.HasSuffix(strings.TrimSpace(out), ")") {
		t.Fatalf("expected module to close with a final paren, got %q", out)
	}
}

func Test_Assemble_InternedString_01(t *testing.T) {
	ctx := context.New()
	ctx.InternString("hi")

	out, err := Assemble(Program{Ctx: ctx, EntryBody: "(f64.const 0)"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(out, "(data (i32.const") {
		t.Fatalf("expected a data segment for the interned string, got:\n%s", out)
	}
}

func Test_Assemble_UserFunctionExported_01(t *testing.T) {
	ctx := context.New()
	ctx.AddFunction(&context.FunctionDef{Name: "add", WasmName: "fn0", Params: []string{"a", "b"}})
	ctx.AddCompiled(context.CompiledFunction{
		Name:   "fn0",
		Params: []string{"env", "a", "b"},
		Body:   "(return (f64.add (local.get $a) (local.get $b)))",
	})

	out, err := Assemble(Program{Ctx: ctx, EntryBody: "(f64.const 0)"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(out, `(export "add" (func $fn0))`) {
		t.Fatalf("expected an export for the top-level function add, got:\n%s", out)
	}
	if !strings.Contains(out, "(func $fn0") {
		t.Fatalf("expected fn0's body to be emitted, got:\n%s", out)
	}
}

func Test_Assemble_FuncTableAndElem_01(t *testing.T) {
	ctx := context.New()
	ctx.AddToFuncTable("fn0")
	ctx.AddToFuncTable("fn1")

	out, err := Assemble(Program{Ctx: ctx, EntryBody: "(f64.const 0)"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(out, "(table 2 funcref)") {
		t.Fatalf("expected a table sized to the registered functions, got:\n%s", out)
	}
	if !strings.Contains(out, "(elem (i32.const 0) $fn0 $fn1)") {
		t.Fatalf("expected an elem segment listing both functions in order, got:\n%s", out)
	}
}

func Test_WatString_EscapesControlBytes_01(t *testing.T) {
	got := watString([]byte{0x00, 'a', '"', '\\', 0x7f})
	want := `\00a\"\\\7f`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
