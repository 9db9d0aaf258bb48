package compiler

import (
	"strings"

	"github.com/jz-lang/jzc/pkg/assembler"
	"github.com/jz-lang/jzc/pkg/ast"
	"github.com/jz-lang/jzc/pkg/compiler/context"
	"github.com/jz-lang/jzc/pkg/compiler/diag"
)

// NamedProgram pairs one batch-compiled file's display name with its
// decoded top-level statement sequence.
type NamedProgram struct {
	Name string
	AST  ast.Node
}

// CompileBatch compiles several files into one assembled module sharing
// one heap, one string table and one schema registry, for programs
// split across files. The first program's trailing expression becomes
// the module's `main` result exactly as Compile's single program does;
// every subsequent program lowers to its own zero-argument exported
// function, named after its file, evaluated for its own trailing
// expression the same way.
func CompileBatch(programs []NamedProgram, opts Options) (result Result, err error) {
	if opts.GC {
		return Result{}, diag.Errorf(diag.CodeTypeError, "the gc memory model is not implemented; only the NaN-boxed linear-memory path (Options.GC == false) is supported")
	}

	if len(programs) == 0 {
		return Result{}, diag.Errorf(diag.CodeTypeError, "batch compilation requires at least one input file")
	}

	defer func() {
		if r := recover(); r != nil {
			derr, ok := r.(*diag.Error)
			if !ok {
				panic(r)
			}

			err = derr
		}
	}()

	ctx := context.New()

	entryBody, entryKind := genEntry(ctx, programs[0].AST)

	for _, p := range programs[1:] {
		compileBatchFile(ctx, p.Name, p.AST)
	}

	wat, asmErr := assembler.Assemble(assembler.Program{
		Ctx:       ctx,
		EntryBody: entryBody,
		EntryKind: entryKind,
	})
	if asmErr != nil {
		return Result{}, asmErr
	}

	return Result{WAT: wat, Warnings: aggregateWarnings(ctx)}, nil
}

// compileBatchFile lowers one non-primary batch file into its own
// zero-argument compiled function, forked off the shared context so it
// gets its own locals/scope while still sharing the parent's heap,
// globals, string table and schema registry.
func compileBatchFile(ctx *context.Context, name string, program ast.Node) {
	child := ctx.Fork()
	fnName := ctx.Fresh("batch")

	body, _ := genEntry(child, program)

	child.AddCompiled(context.CompiledFunction{
		Name:   fnName,
		Params: nil,
		Locals: child.Locals(),
		Body:   body,
	})

	ctx.AddFunction(&context.FunctionDef{Name: sanitizeExportName(name), WasmName: fnName})
}

// sanitizeExportName turns a file path into a WASM-export-safe
// identifier: its base name with any extension stripped, and every
// byte outside [A-Za-z0-9_] replaced with '_'.
func sanitizeExportName(name string) string {
	base := name
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[i+1:]
	}

	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}

	var b strings.Builder
	for _, c := range base {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}

	return b.String()
}
