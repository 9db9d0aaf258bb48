// Package compiler wires pkg/compiler/scope, pkg/compiler/context,
// pkg/compiler/generator and pkg/assembler into the single entry point
// a caller needs: compile(ast, options) -> wat-text.
package compiler

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/jz-lang/jzc/pkg/assembler"
	"github.com/jz-lang/jzc/pkg/ast"
	"github.com/jz-lang/jzc/pkg/compiler/context"
	"github.com/jz-lang/jzc/pkg/compiler/diag"
	"github.com/jz-lang/jzc/pkg/compiler/generator"
	"github.com/jz-lang/jzc/pkg/value"
)

// Options configures one compilation. GC selects a reference-counted
// memory model; only the NaN-boxed linear-memory path
// (GC: false, the default zero value) is implemented, so GC: true is
// rejected rather than silently downgraded.
type Options struct {
	GC bool
}

// Result is the outcome of one successful compilation.
type Result struct {
	// WAT is the complete assembled module's text.
	WAT string
	// Warnings aggregates every non-fatal diagnostic recorded on the
	// context via Warn during generation, or nil if none were raised.
	// Inspect with multierr.Errors.
	Warnings error
}

// Compile lowers a decoded program to a complete WAT module. program is
// the top-level statement sequence in exactly the wire shape a block
// body takes (the input AST draws no distinction between a program and
// a function body beyond the implicit top-level result): the program's
// trailing bare expression statement, if any, becomes the module's
// result value, exactly as an arrow function's bodyless tail expression
// does.
//
// Compile-time errors raised anywhere in scope analysis or generation
// surface as a *diag.Error return value; there is no partial-module
// recovery.
func Compile(program ast.Node, opts Options) (result Result, err error) {
	if opts.GC {
		return Result{}, diag.Errorf(diag.CodeTypeError, "the gc memory model is not implemented; only the NaN-boxed linear-memory path (Options.GC == false) is supported")
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

	entryBody, entryKind := genEntry(ctx, program)

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

// genEntry lowers the top-level program into the body of the module's
// `$main` function: every statement but a trailing bare expression
// statement is generated for its side effects, and that trailing
// expression (if present) supplies main's result. A program with no
// trailing expression (it ends in a declaration or control-flow
// statement) returns a plain 0, exactly as a braced arrow body falling
// through without a `return` does.
func genEntry(ctx *context.Context, program ast.Node) (string, value.Kind) {
	stmts := programStmts(program)

	ctx.PushScope()
	defer ctx.PopScope()

	body, final := stmts, ast.Node(nil)
	if n := len(stmts); n > 0 && generator.IsExprStmt(stmts[n-1]) {
		body, final = stmts[:n-1], stmts[n-1]
	}

	var code string
	for _, s := range body {
		code += generator.Stmt(ctx, s)
		code += "\n"
	}

	if final == nil {
		return code + "(f64.const 0)", value.F64
	}

	v := generator.Gen(ctx, final)

	return code + value.ToF64(v, ctx), v.Kind
}

// programStmts accepts either the `";"`/`"{}"`-tagged statement-sequence
// form a nested block uses, or a bare JSON array of statements (the
// natural shape for a whole compilation unit with no enclosing braces).
func programStmts(program ast.Node) []ast.Node {
	if tag, ok := ast.Tag(program); ok && (tag == ";" || tag == "{}") {
		return ast.Nodes(program, 0)
	}

	if arr, ok := program.([]any); ok {
		return arr
	}

	return nil
}

func aggregateWarnings(ctx *context.Context) error {
	var err error
	for _, w := range ctx.Warnings() {
		err = multierr.Append(err, fmt.Errorf("[%s] %s", w.Code, w.Message))
	}

	return err
}
