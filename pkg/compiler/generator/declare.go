package generator

import (
	"fmt"

	"github.com/jz-lang/jzc/pkg/ast"
	"github.com/jz-lang/jzc/pkg/compiler/context"
	"github.com/jz-lang/jzc/pkg/compiler/diag"
	"github.com/jz-lang/jzc/pkg/value"
)

// Every persistent storage location — a declared variable, a function
// parameter, an array element, an object field, a closure environment
// slot — holds its value as a canonical f64, regardless of the static
// Kind the expression that produced it carried through evaluation. I32
// is a transient optimisation confined to a single expression's
// instruction sequence (boolean/bitwise results, loop-test temporaries)
// and is converted away the moment it is stored anywhere durable. This
// is what lets a variable be reassigned a value of a different kind
// without changing its WASM local type.
func init() {
	addStmt("let", func(ctx *context.Context, n ast.Node) string { return declareStmt(ctx, n, false) })
	addStmt("var", func(ctx *context.Context, n ast.Node) string { return declareStmt(ctx, n, false) })
	addStmt("const", func(ctx *context.Context, n ast.Node) string { return declareStmt(ctx, n, true) })
	addStmt("=", assignStmt)
	addExpr("=", func(ctx *context.Context, n ast.Node) value.Tagged {
		// Assignment in expression position: store, then yield the value.
		tmp := ctx.NewTemp(value.F64)
		v := Gen(ctx, ast.NodeAt(n, 1))
		get := value.New(value.F64, fmt.Sprintf("(local.get $%s)", tmp.MangledName))
		store := assignTo(ctx, ast.NodeAt(n, 0), get)
		return value.New(value.F64, fmt.Sprintf("(block (result f64) (local.set $%s %s) %s %s)", tmp.MangledName, value.ToF64(v, ctx), store, get.Code))
	})

	for tag, op := range compoundOps {
		tag, op := tag, op
		addStmt(tag, func(ctx *context.Context, n ast.Node) string { return compoundAssignStmt(ctx, n, op) })
	}
}

var compoundOps = map[string]string{
	"+=": "+", "-=": "-", "*=": "*", "/=": "/", "%=": "%",
	"&=": "&", "|=": "|", "^=": "^", "<<=": "<<", ">>=": ">>", ">>>=": ">>>",
}

func declareStmt(ctx *context.Context, n ast.Node, constVal bool) string {
	assign := ast.NodeAt(n, 0)

	if tag, ok := ast.Tag(assign); ok && tag == "=" {
		target := ast.NodeAt(assign, 0)
		rhs := ast.NodeAt(assign, 1)

		// `let f = (params) => body` is routed straight through
		// compileClosure with f as its name, exactly like a `function f(...)
		// {...}` declaration, so a recursive call to f from within its own
		// body (e.g. `let f = n => n < 2 ? n : f(n-1) + f(n-2)`) resolves
		// via SetSelf/ResolveSelf to a direct call rather than needing f's
		// own not-yet-constructed closure value captured into its own
		// environment.
		if name, ok := ast.Ident(target); ok {
			if rtag, ok := ast.Tag(rhs); ok && rtag == "=>" {
				params := ast.Nodes(rhs, 0)
				body := ast.NodeAt(rhs, 1)
				v := compileClosure(ctx, name, params, body)
				local := ctx.DeclareVar(name, value.F64, constVal)

				return fmt.Sprintf("(local.set $%s %s)\n", local.MangledName, value.ToF64(v, ctx))
			}
		}

		return bindPattern(ctx, target, Gen(ctx, rhs), constVal)
	}

	return bindPattern(ctx, assign, value.New(value.Ref, "(f64.const 0)"), constVal)
}

// bindPattern introduces fresh bindings for every identifier in pattern,
// mirroring the shapes pkg/compiler/scope's analyzer already recognises.
func bindPattern(ctx *context.Context, pattern ast.Node, v value.Tagged, constVal bool) string {
	if name, ok := ast.Ident(pattern); ok {
		local := ctx.DeclareVar(name, value.F64, constVal)
		return fmt.Sprintf("(local.set $%s %s)\n", local.MangledName, value.ToF64(v, ctx))
	}

	tag, ok := ast.Tag(pattern)
	if !ok {
		panic(diag.Errorf(diag.CodeTypeError, "invalid binding pattern"))
	}

	switch tag {
	case "[]":
		return bindArrayPattern(ctx, ast.Nodes(pattern, 0), v, constVal)
	case "{}":
		return bindObjectPattern(ctx, ast.Nodes(pattern, 0), v, constVal)
	default:
		// A default (`name = expr`) or rename target can itself recurse
		// back through a pattern one level further down, e.g. `{a: b =
		// 1}`'s rename value is the "=" node `b = 1`; bindElement
		// understands that shape directly.
		return bindElement(ctx, pattern, v, constVal)
	}
}

// bindElement handles one element of a destructuring pattern: a plain
// binding, a `name = default` pair, or a `...rest` collector (the rest
// collector itself is handled by the caller, since it needs to know its
// own position in the element list).
func bindElement(ctx *context.Context, el ast.Node, v value.Tagged, constVal bool) string {
	tag, ok := ast.Tag(el)
	if !ok {
		return bindPattern(ctx, el, v, constVal)
	}

	if tag == "=" {
		target := ast.NodeAt(el, 0)
		defExpr := ast.NodeAt(el, 1)

		tmp := ctx.NewTemp(value.F64)
		defVal := Gen(ctx, defExpr)

		ctx.Use("f64_eq")
		cond := fmt.Sprintf("(call $f64_eq (local.tee $%s %s) (f64.const 0))", tmp.MangledName, value.ToF64(v, ctx))
		chosen := fmt.Sprintf("(if (result f64) %s (then %s) (else (local.get $%s)))", cond, value.ToF64(defVal, ctx), tmp.MangledName)

		return bindPattern(ctx, target, value.New(value.F64, chosen), constVal)
	}

	if tag == ":" {
		// object rename `key: target`, reached only via bindObjectPattern's
		// own dispatch, kept here too so a nested call through bindElement
		// (e.g. a renamed default) still works.
		return bindPattern(ctx, ast.NodeAt(el, 1), v, constVal)
	}

	return bindPattern(ctx, el, v, constVal)
}

func bindArrayPattern(ctx *context.Context, elements []ast.Node, v value.Tagged, constVal bool) string {
	tmp := ctx.NewTemp(value.F64)
	out := fmt.Sprintf("(local.set $%s %s)\n", tmp.MangledName, value.ToF64(v, ctx))
	src := value.New(value.Array, fmt.Sprintf("(local.get $%s)", tmp.MangledName))

	ctx.Use("arr_get")

	for i, el := range elements {
		if tag, ok := ast.Tag(el); ok && tag == "..." {
			ctx.Use("ptr_len")
			ctx.Use("arr_slice")
			rest := fmt.Sprintf("(call $arr_slice %s (i32.const %d) (i32.trunc_f64_u (call $ptr_len %s)))", src.Code, i, src.Code)
			out += bindPattern(ctx, ast.NodeAt(el, 0), value.New(value.Array, rest), constVal)
			break
		}

		elCode := fmt.Sprintf("(call $arr_get %s (i32.const %d))", src.Code, i)
		out += bindElement(ctx, el, value.New(value.F64, elCode), constVal)
	}

	return out
}

func bindObjectPattern(ctx *context.Context, props []ast.Node, v value.Tagged, constVal bool) string {
	tmp := ctx.NewTemp(value.F64)
	out := fmt.Sprintf("(local.set $%s %s)\n", tmp.MangledName, value.ToF64(v, ctx))
	src := value.New(v.Kind, fmt.Sprintf("(local.get $%s)", tmp.MangledName))

	bound := map[string]bool{}

	for _, p := range props {
		if tag, ok := ast.Tag(p); ok && tag == "..." {
			continue // handled in a second pass, once every named key is known
		}

		if name, ok := ast.Ident(p); ok {
			bound[name] = true
			out += bindElement(ctx, p, memberAccess(ctx, src, name), constVal)
			continue
		}

		tag, ok := ast.Tag(p)
		if !ok {
			continue
		}

		switch tag {
		case ":":
			key := propKeyName(ast.NodeAt(p, 0))
			bound[key] = true
			out += bindElement(ctx, ast.NodeAt(p, 1), memberAccess(ctx, src, key), constVal)
		case "=":
			// a bare-name default, `{ x = 1 }`, shares the ":" node's
			// shape but with an identifier key implicit in its target.
			if name, ok := ast.Ident(ast.NodeAt(p, 0)); ok {
				bound[name] = true
			}
			out += bindElement(ctx, p, memberAccess(ctx, src, keyOf(p)), constVal)
		}
	}

	for _, p := range props {
		tag, ok := ast.Tag(p)
		if !ok || tag != "..." {
			continue
		}

		out += bindObjectRest(ctx, ast.NodeAt(p, 0), src, bound, constVal)
	}

	return out
}

func keyOf(p ast.Node) string {
	if name, ok := ast.Ident(ast.NodeAt(p, 0)); ok {
		return name
	}

	return propKeyName(ast.NodeAt(p, 0))
}

// bindObjectRest builds a fresh object carrying every schema property of
// src not already destructured by name, and binds it to target. This
// requires src's schema to be statically known; a rest pattern applied
// to a value of unknown shape is a compile error.
func bindObjectRest(ctx *context.Context, target ast.Node, src value.Tagged, bound map[string]bool, constVal bool) string {
	if src.Kind != value.Object {
		panic(diag.Errorf(diag.CodeTypeError, "object rest pattern requires a statically-known object shape"))
	}

	props, ok := ctx.SchemaProperties(src.Schema.SchemaID)
	if !ok {
		panic(diag.Errorf(diag.CodeTypeError, "object rest pattern requires a statically-known object shape"))
	}

	var remaining []string
	for _, name := range props {
		if !bound[name] {
			remaining = append(remaining, name)
		}
	}

	schemaID := ctx.NewObjectSchema(remaining)
	restTmp := ctx.NewTemp(value.Object)
	ctx.Use("alloc")
	ctx.Use("ptr_with_id")
	ctx.Use("arr_set")

	out := fmt.Sprintf("(local.set $%s (call $ptr_with_id (call $alloc (i32.const 2) (i32.const %d)) (i32.const %d)))\n",
		restTmp.MangledName, len(remaining), schemaID)

	for i, name := range remaining {
		out += fmt.Sprintf("(call $arr_set (local.get $%s) (i32.const %d) %s)\n",
			restTmp.MangledName, i, value.ToF64(memberAccess(ctx, src, name), ctx))
	}

	rest := value.New(value.Object, fmt.Sprintf("(local.get $%s)", restTmp.MangledName)).WithSchema(value.Schema{SchemaID: schemaID})
	return out + bindPattern(ctx, target, rest, constVal)
}

// assignStmt lowers a bare `target = value` statement (not a
// declaration): the target is an existing binding, a member expression,
// or an index expression.
func assignStmt(ctx *context.Context, n ast.Node) string {
	target := ast.NodeAt(n, 0)
	v := Gen(ctx, ast.NodeAt(n, 1))

	return assignTo(ctx, target, v)
}

func assignTo(ctx *context.Context, target ast.Node, v value.Tagged) string {
	if name, ok := ast.Ident(target); ok {
		return assignIdent(ctx, name, v)
	}

	tag, ok := ast.Tag(target)
	if !ok {
		panic(diag.Errorf(diag.CodeTypeError, "invalid assignment target"))
	}

	switch tag {
	case ".":
		return assignMember(ctx, target, v)
	case "index":
		return assignIndex(ctx, target, v)
	case "[]":
		return bindArrayPatternAssign(ctx, ast.Nodes(target, 0), v)
	case "{}":
		return bindObjectPatternAssign(ctx, ast.Nodes(target, 0), v)
	default:
		panic(diag.Errorf(diag.CodeTypeError, "invalid assignment target %q", tag))
	}
}

func assignIdent(ctx *context.Context, name string, v value.Tagged) string {
	if l, ok := ctx.GetLocal(name); ok {
		if l.Const {
			panic(diag.Errorf(diag.CodeConstReassign, "cannot reassign const %q", name))
		}

		return fmt.Sprintf("(local.set $%s %s)\n", l.MangledName, value.ToF64(v, ctx))
	}

	if env, idx, _, ok := ctx.ResolveCapture(name); ok {
		ctx.Use("arr_set")
		return fmt.Sprintf("(call $arr_set (local.get $%s) (i32.const %d) %s)\n", env, idx, value.ToF64(v, ctx))
	}

	if _, ok := ctx.GetGlobal(name); ok {
		return fmt.Sprintf("(global.set $%s %s)\n", name, value.ToF64(v, ctx))
	}

	panic(diag.Errorf(diag.CodeUnknownID, "unknown identifier %q", name))
}

func assignMember(ctx *context.Context, target ast.Node, v value.Tagged) string {
	obj := Gen(ctx, ast.NodeAt(target, 0))
	prop, _ := ast.Ident(ast.NodeAt(target, 1))

	if obj.Kind != value.Object {
		panic(diag.Errorf(diag.CodeTypeError, "cannot assign a property of a value of kind %s", obj.Kind))
	}

	props, ok := ctx.SchemaProperties(obj.Schema.SchemaID)
	if !ok {
		panic(diag.Errorf(diag.CodeUnknownID, "unknown property %q", prop))
	}

	for i, name := range props {
		if name == prop {
			ctx.Use("arr_set")
			return fmt.Sprintf("(call $arr_set %s (i32.const %d) %s)\n", obj.Code, i, value.ToF64(v, ctx))
		}
	}

	panic(diag.Errorf(diag.CodeUnknownID, "unknown property %q", prop))
}

func assignIndex(ctx *context.Context, target ast.Node, v value.Tagged) string {
	obj := Gen(ctx, ast.NodeAt(target, 0))
	idx := Gen(ctx, ast.NodeAt(target, 1))
	i32idx := value.ToI32(idx, ctx)

	switch obj.Kind {
	case value.Array, value.RefArray:
		if obj.Schema.Immutable {
			panic(diag.Errorf(diag.CodeArrayAlias, "cannot mutate a constant array literal"))
		}
		ctx.Use("arr_set")
		return fmt.Sprintf("(call $arr_set %s %s %s)\n", obj.Code, i32idx, value.ToF64(v, ctx))
	case value.TypedArray:
		prim := "typed_set_" + obj.Schema.ElemType
		ctx.Use(prim)
		return fmt.Sprintf("(call $%s %s %s %s)\n", prim, obj.Code, i32idx, value.ToF64(v, ctx))
	default:
		panic(diag.Errorf(diag.CodeTypeError, "cannot index-assign a value of kind %s", obj.Kind))
	}
}

// bindArrayPatternAssign/bindObjectPatternAssign support `[a, b] = x;` and
// `({a, b} = x);` destructuring assignment to already-declared bindings:
// the recursive shape is identical to the declaration form except that
// each leaf assigns to an existing target rather than introducing one.
func bindArrayPatternAssign(ctx *context.Context, elements []ast.Node, v value.Tagged) string {
	tmp := ctx.NewTemp(value.F64)
	out := fmt.Sprintf("(local.set $%s %s)\n", tmp.MangledName, value.ToF64(v, ctx))
	src := value.New(value.Array, fmt.Sprintf("(local.get $%s)", tmp.MangledName))

	ctx.Use("arr_get")

	for i, el := range elements {
		if tag, ok := ast.Tag(el); ok && tag == "..." {
			ctx.Use("ptr_len")
			ctx.Use("arr_slice")
			rest := fmt.Sprintf("(call $arr_slice %s (i32.const %d) (i32.trunc_f64_u (call $ptr_len %s)))", src.Code, i, src.Code)
			out += assignTo(ctx, ast.NodeAt(el, 0), value.New(value.Array, rest))
			break
		}

		elCode := fmt.Sprintf("(call $arr_get %s (i32.const %d))", src.Code, i)
		out += assignTo(ctx, el, value.New(value.F64, elCode))
	}

	return out
}

func bindObjectPatternAssign(ctx *context.Context, props []ast.Node, v value.Tagged) string {
	tmp := ctx.NewTemp(v.Kind)
	out := fmt.Sprintf("(local.set $%s %s)\n", tmp.MangledName, value.ToF64(v, ctx))
	src := value.New(v.Kind, fmt.Sprintf("(local.get $%s)", tmp.MangledName))

	for _, p := range props {
		if name, ok := ast.Ident(p); ok {
			out += assignTo(ctx, p, memberAccess(ctx, src, name))
			continue
		}

		if tag, ok := ast.Tag(p); ok && tag == ":" {
			key := propKeyName(ast.NodeAt(p, 0))
			out += assignTo(ctx, ast.NodeAt(p, 1), memberAccess(ctx, src, key))
		}
	}

	return out
}

// compoundAssignStmt lowers `target op= value` as `target = target op
// value`, re-using the binary operator lowering in operators.go and the
// plain assignment lowering above.
func compoundAssignStmt(ctx *context.Context, n ast.Node, op string) string {
	target := ast.NodeAt(n, 0)
	rhs := ast.NodeAt(n, 1)

	cur := Gen(ctx, target)
	rhsVal := Gen(ctx, rhs)
	combined := applyBinary(ctx, op, cur, rhsVal)

	return assignTo(ctx, target, combined)
}
