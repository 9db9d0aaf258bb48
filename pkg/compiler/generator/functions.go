package generator

import (
	"fmt"
	"strings"

	"github.com/jz-lang/jzc/pkg/ast"
	"github.com/jz-lang/jzc/pkg/compiler/context"
	"github.com/jz-lang/jzc/pkg/compiler/diag"
	"github.com/jz-lang/jzc/pkg/compiler/natives"
	"github.com/jz-lang/jzc/pkg/compiler/scope"
	"github.com/jz-lang/jzc/pkg/value"
)

func init() {
	addExpr("=>", genArrow)
	addStmt("function", stmtFunction)
	addExpr("call", genCall)
}

// genArrow lowers an arrow function literal, `[params, body]`, to a
// first-class Closure value.
func genArrow(ctx *context.Context, n ast.Node) value.Tagged {
	params := ast.Nodes(n, 0)
	body := ast.NodeAt(n, 1)

	return compileClosure(ctx, "", params, body)
}

// stmtFunction lowers a named function declaration, `[nameIdent, params,
// body]`: the name is bound in the enclosing scope to the resulting
// closure value exactly as `let name = <the equivalent arrow>` would be.
// Function declarations are not hoisted — a reference to one from code
// generated earlier in the same block will not resolve.
func stmtFunction(ctx *context.Context, n ast.Node) string {
	name, _ := ast.Ident(ast.NodeAt(n, 0))
	params := ast.Nodes(n, 1)
	body := ast.NodeAt(n, 2)

	v := compileClosure(ctx, name, params, body)
	local := ctx.DeclareVar(name, value.F64, false)

	return fmt.Sprintf("(local.set $%s %s)\n", local.MangledName, value.ToF64(v, ctx))
}

// compileClosure generates a fresh WASM function implementing params/body
// and returns the Closure value referencing it: a NaN-boxed pointer over
// a function-table index and a heap environment array holding every
// outer variable the body references free. name is the source name for
// a function declaration (used only to recognise, and specially lower,
// a recursive self-call) or "" for an anonymous arrow.
func compileClosure(ctx *context.Context, name string, paramNodes []ast.Node, body ast.Node) value.Tagged {
	paramNames := scope.ParamNames(paramNodes)
	analysis := scope.AnalyzeFunction(ctx.Interner, paramNames, body)

	var fields []context.EnvField
	var captured []string

	for i, ok := analysis.Free.NextSet(0); ok; i, ok = analysis.Free.NextSet(i + 1) {
		freeName := ctx.Interner.Name(i)
		if freeName == name {
			// Resolved via direct recursion (SetSelf below), not a
			// captured environment field — referencing a function's own
			// name as a plain value from within its own body (rather
			// than calling it) is not supported.
			continue
		}

		if _, ok := ctx.GetLocal(freeName); ok {
			fields = append(fields, context.EnvField{Name: freeName, Kind: value.F64})
			captured = append(captured, freeName)
			continue
		}

		if _, _, _, ok := ctx.ResolveCapture(freeName); ok {
			fields = append(fields, context.EnvField{Name: freeName, Kind: value.F64})
			captured = append(captured, freeName)
		}
		// Otherwise a global, a reserved constant, or genuinely
		// undefined — left for genIdent to report at its actual point
		// of use inside the compiled body.
	}

	fnName := ctx.Fresh("fn")
	tableIdx := ctx.AddToFuncTable(fnName)

	child := ctx.Fork()
	child.SetEnv("env", fields)
	if name != "" {
		child.SetSelf(name, fnName)
	}

	wasmParams := []string{"env"}
	for _, p := range paramNodes {
		if pname, ok := ast.Ident(p); ok {
			local := child.DeclareVar(pname, value.F64, false)
			wasmParams = append(wasmParams, local.MangledName)
			continue
		}

		tmp := child.NewTemp(value.F64)
		wasmParams = append(wasmParams, tmp.MangledName)
	}

	var prologue strings.Builder
	for i, p := range paramNodes {
		if _, ok := ast.Ident(p); ok {
			continue
		}

		placeholder := wasmParams[i+1] // +1 skips the leading env param
		prologue.WriteString(bindPattern(child, p, value.New(value.F64, fmt.Sprintf("(local.get $%s)", placeholder)), false))
	}

	bodyCode := prologue.String() + genBody(child, body)

	if name != "" {
		def := &context.FunctionDef{Name: name, WasmName: fnName, Params: paramNames, Body: body}

		if len(fields) > 0 {
			envTypeID := ctx.RegisterEnvType(fields)
			def.Closure = &context.ClosureDescriptor{
				EnvTypeID: envTypeID,
				Fields:    captured,
				TableIdx:  tableIdx,
			}
		}

		ctx.AddFunction(def)
	}

	child.AddCompiled(context.CompiledFunction{
		Name:   fnName,
		Params: wasmParams,
		Locals: child.Locals()[len(paramNodes):],
		Body:   bodyCode,
	})

	return value.New(value.Closure, buildClosureValue(ctx, tableIdx, fields, captured))
}

// genBody lowers a function/arrow body: an explicit `{}`/`;` block (which
// may or may not itself end in a `return`, so a trailing implicit
// undefined-return is always appended to cover the fall-through case), or
// a bare expression for an arrow with no braces, implicitly returned.
func genBody(ctx *context.Context, body ast.Node) string {
	if tag, ok := ast.Tag(body); ok && (tag == "{}" || tag == ";") {
		return Block(ctx, ast.Nodes(body, 0)) + "\n(return (f64.const 0))"
	}

	v := Gen(ctx, body)
	return fmt.Sprintf("(return %s)", value.ToF64(v, ctx))
}

// buildClosureValue emits the definition-site code that allocates the
// captured-variable environment (an empty array when fields is empty)
// and boxes it together with tableIdx into a closure pointer via the
// runtime's own mk_closure primitive.
func buildClosureValue(ctx *context.Context, tableIdx int, fields []context.EnvField, captured []string) string {
	ctx.Use("mk_closure")
	ctx.Use("ptr_offset")

	if len(fields) == 0 {
		ctx.Use("alloc")
		return fmt.Sprintf("(call $mk_closure (i32.const %d) (call $ptr_offset (call $alloc (i32.const 0) (i32.const 0))))", tableIdx)
	}

	ctx.Use("alloc")
	ctx.Use("arr_set")

	envTmp := ctx.NewTemp(value.Array)

	var b strings.Builder
	fmt.Fprintf(&b, "(local.set $%s (call $alloc (i32.const 0) (i32.const %d)))\n", envTmp.MangledName, len(fields))

	for i, capName := range captured {
		val := genIdent(ctx, capName)
		fmt.Fprintf(&b, "(call $arr_set (local.get $%s) (i32.const %d) %s)\n", envTmp.MangledName, i, value.ToF64(val, ctx))
	}

	fmt.Fprintf(&b, "(local.get $%s)", envTmp.MangledName)

	return fmt.Sprintf("(call $mk_closure (i32.const %d) (call $ptr_offset (block (result f64) %s)))", tableIdx, b.String())
}

// genCall lowers `call`, `[callee, args]`: a method call (callee is a `.`
// or `?.` member access) dispatches through pkg/compiler/natives; a call
// whose callee is exactly the name of the function currently being
// compiled lowers to a direct recursive call, bypassing the closure
// machinery; every other call evaluates its callee to a first-class
// Closure value and applies it through the uniform invokeN family.
func genCall(ctx *context.Context, n ast.Node) value.Tagged {
	callee := ast.NodeAt(n, 0)
	argNodes := ast.Nodes(n, 1)

	if tag, ok := ast.Tag(callee); ok && (tag == "." || tag == "?.") {
		return genMethodCall(ctx, callee, argNodes)
	}

	if calleeName, ok := ast.Ident(callee); ok {
		if wasmName, ok := ctx.ResolveSelf(calleeName); ok {
			return genDirectCall(ctx, wasmName, argNodes)
		}
	}

	if len(argNodes) > 3 {
		panic(diag.Errorf(diag.CodeArity, "a call through a closure value supports at most 3 arguments, got %d", len(argNodes)))
	}

	closure := Gen(ctx, callee)
	ctx.Use(invokeName(len(argNodes)))

	code := "(call $" + invokeName(len(argNodes)) + " " + value.ToF64(closure, ctx)
	for _, a := range argNodes {
		code += " " + value.ToF64(Gen(ctx, a), ctx)
	}
	code += ")"

	return value.New(value.F64, code)
}

func invokeName(arity int) string {
	return fmt.Sprintf("invoke%d", arity)
}

// genDirectCall lowers a function calling itself by name: the recursive
// call target has the same uniform (env, arg0, ...) signature as every
// other compiled function, so the current function's own env parameter
// is simply forwarded unchanged.
func genDirectCall(ctx *context.Context, wasmName string, argNodes []ast.Node) value.Tagged {
	code := fmt.Sprintf("(call $%s (local.get $%s)", wasmName, ctx.EnvParam())
	for _, a := range argNodes {
		code += " " + value.ToF64(Gen(ctx, a), ctx)
	}
	code += ")"

	return value.New(value.F64, code)
}

// genMethodCall lowers a `receiver.method(args)` call by resolving the
// method against the receiver's static kind through
// pkg/compiler/natives.Lookup. Optional chaining (`?.`) is accepted but
// not yet given its short-circuit-on-null semantics at the call site —
// a documented simplification.
func genMethodCall(ctx *context.Context, member ast.Node, argNodes []ast.Node) value.Tagged {
	recv := Gen(ctx, ast.NodeAt(member, 0))
	method, _ := ast.Ident(ast.NodeAt(member, 1))

	if v, ok := tryGenRegexMethod(ctx, recv, method, argNodes); ok {
		return v
	}

	prim, ok := natives.Lookup(recv.Kind, recv.Schema.ElemType, "", method)
	if !ok {
		panic(unknownMethod(recv.Kind, method))
	}

	if (method == "push" || method == "pop") && recv.Schema.Immutable {
		panic(diag.Errorf(diag.CodeArrayAlias, "cannot %s on a constant, data-segment-backed array", method))
	}

	ctx.Use(prim)

	code := fmt.Sprintf("(call $%s %s", prim, recv.Code)
	for _, a := range argNodes {
		code += " " + value.ToF64(Gen(ctx, a), ctx)
	}
	code += ")"

	return value.New(value.F64, code)
}
