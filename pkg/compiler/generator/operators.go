package generator

import (
	"fmt"

	"github.com/jz-lang/jzc/pkg/ast"
	"github.com/jz-lang/jzc/pkg/compiler/context"
	"github.com/jz-lang/jzc/pkg/value"
)

func init() {
	addExpr("+", genAdd)
	for _, tag := range []string{"-", "*"} {
		tag := tag
		addExpr(tag, func(ctx *context.Context, n ast.Node) value.Tagged { return genArith(ctx, n, tag) })
	}
	for _, tag := range []string{"/", "%", "**"} {
		tag := tag
		addExpr(tag, func(ctx *context.Context, n ast.Node) value.Tagged { return genWideningArith(ctx, n, tag) })
	}
	for _, tag := range []string{"&", "|", "^", "<<", ">>", ">>>"} {
		tag := tag
		addExpr(tag, func(ctx *context.Context, n ast.Node) value.Tagged { return genBitwise(ctx, n, tag) })
	}
	for _, tag := range []string{"<", "<=", ">", ">="} {
		tag := tag
		addExpr(tag, func(ctx *context.Context, n ast.Node) value.Tagged { return genRelational(ctx, n, tag) })
	}
	addExpr("==", func(ctx *context.Context, n ast.Node) value.Tagged { return genEquality(ctx, n, false, false) })
	addExpr("!=", func(ctx *context.Context, n ast.Node) value.Tagged { return genEquality(ctx, n, false, true) })
	addExpr("===", func(ctx *context.Context, n ast.Node) value.Tagged { return genEquality(ctx, n, true, false) })
	addExpr("!==", func(ctx *context.Context, n ast.Node) value.Tagged { return genEquality(ctx, n, true, true) })
	addExpr("&&", genLogicalAnd)
	addExpr("||", genLogicalOr)
	addExpr("??", genNullish)
	addExpr("?:", genTernary)
	addExpr("!", genNot)
	addExpr("~", genBitNot)
	addExpr("u-", genUnaryMinus)
	addExpr("u+", genUnaryPlus)
	addExpr("typeof", genTypeof)
	addExpr("void", genVoid)
}

// genAdd is the one binary arithmetic operator with a third lowering: if
// both operands are statically String, it lowers to a strcat call rather
// than numeric addition.
func genAdd(ctx *context.Context, n ast.Node) value.Tagged {
	l := Gen(ctx, ast.NodeAt(n, 0))
	r := Gen(ctx, ast.NodeAt(n, 1))

	if l.Kind == value.String && r.Kind == value.String {
		ctx.Use("strcat")
		return value.New(value.String, fmt.Sprintf("(call $strcat %s %s)", l.Code, r.Code))
	}

	kind, lc, rc := value.Reconcile(l, r, ctx)
	if kind == value.I32 {
		return value.New(value.I32, fmt.Sprintf("(i32.add %s %s)", lc, rc))
	}

	return value.New(value.F64, fmt.Sprintf("(f64.add %s %s)", lc, rc))
}

// genArith handles "-" and "*": both preserve i32 when both operands are
// statically i32, otherwise widen to f64, mirroring genAdd's tie-break
// without the string special case.
func genArith(ctx *context.Context, n ast.Node, tag string) value.Tagged {
	l := Gen(ctx, ast.NodeAt(n, 0))
	r := Gen(ctx, ast.NodeAt(n, 1))

	kind, lc, rc := value.Reconcile(l, r, ctx)
	op := map[string]string{"-": "sub", "*": "mul"}[tag]

	if kind == value.I32 {
		return value.New(value.I32, fmt.Sprintf("(i32.%s %s %s)", op, lc, rc))
	}

	return value.New(value.F64, fmt.Sprintf("(f64.%s %s %s)", op, lc, rc))
}

// genWideningArith handles "/", "%" and "**", which always widen both
// operands to f64 regardless of their static kind.
func genWideningArith(ctx *context.Context, n ast.Node, tag string) value.Tagged {
	l := Gen(ctx, ast.NodeAt(n, 0))
	r := Gen(ctx, ast.NodeAt(n, 1))
	lc, rc := value.ToF64(l, ctx), value.ToF64(r, ctx)

	switch tag {
	case "/":
		return value.New(value.F64, fmt.Sprintf("(f64.div %s %s)", lc, rc))
	case "%":
		ctx.Use("f64_rem")
		return value.New(value.F64, fmt.Sprintf("(call $f64_rem %s %s)", lc, rc))
	default: // "**"
		ctx.Use("f64_pow")
		return value.New(value.F64, fmt.Sprintf("(call $f64_pow %s %s)", lc, rc))
	}
}

// applyBinary applies one binary arithmetic/bitwise operator to two
// already-evaluated operands, for compound-assignment lowering (`x op=
// y` expands to `x = x op y` without re-generating x's code twice).
func applyBinary(ctx *context.Context, op string, l, r value.Tagged) value.Tagged {
	if op == "+" && l.Kind == value.String && r.Kind == value.String {
		ctx.Use("strcat")
		return value.New(value.String, fmt.Sprintf("(call $strcat %s %s)", l.Code, r.Code))
	}

	switch op {
	case "+", "-", "*":
		kind, lc, rc := value.Reconcile(l, r, ctx)
		instr := map[string]string{"+": "add", "-": "sub", "*": "mul"}[op]
		if kind == value.I32 {
			return value.New(value.I32, fmt.Sprintf("(i32.%s %s %s)", instr, lc, rc))
		}
		return value.New(value.F64, fmt.Sprintf("(f64.%s %s %s)", instr, lc, rc))
	case "/", "%", "**":
		lc, rc := value.ToF64(l, ctx), value.ToF64(r, ctx)
		switch op {
		case "/":
			return value.New(value.F64, fmt.Sprintf("(f64.div %s %s)", lc, rc))
		case "%":
			ctx.Use("f64_rem")
			return value.New(value.F64, fmt.Sprintf("(call $f64_rem %s %s)", lc, rc))
		default:
			ctx.Use("f64_pow")
			return value.New(value.F64, fmt.Sprintf("(call $f64_pow %s %s)", lc, rc))
		}
	case "&", "|", "^", "<<", ">>", ">>>":
		lc, rc := value.ToI32(l, ctx), value.ToI32(r, ctx)
		return value.New(value.I32, fmt.Sprintf("(i32.%s %s %s)", bitwiseOps[op], lc, rc))
	default:
		panic(fmt.Sprintf("generator: unhandled compound-assignment operator %q", op))
	}
}

var bitwiseOps = map[string]string{
	"&": "and", "|": "or", "^": "xor", "<<": "shl", ">>": "shr_s", ">>>": "shr_u",
}

// genBitwise truncates both operands to i32 (JS bitwise semantics operate
// on 32-bit integers regardless of the operands' static kind) and always
// yields i32.
func genBitwise(ctx *context.Context, n ast.Node, tag string) value.Tagged {
	l := Gen(ctx, ast.NodeAt(n, 0))
	r := Gen(ctx, ast.NodeAt(n, 1))
	lc, rc := value.ToI32(l, ctx), value.ToI32(r, ctx)

	return value.New(value.I32, fmt.Sprintf("(i32.%s %s %s)", bitwiseOps[tag], lc, rc))
}

var relOps = map[string]struct{ f64, i32 string }{
	"<":  {"f64.lt", "i32.lt_s"},
	"<=": {"f64.le", "i32.le_s"},
	">":  {"f64.gt", "i32.gt_s"},
	">=": {"f64.ge", "i32.ge_s"},
}

// genRelational compares two operands, reconciling to a common kind
// first so a mixed int/float comparison is not performed bit-for-bit.
func genRelational(ctx *context.Context, n ast.Node, tag string) value.Tagged {
	l := Gen(ctx, ast.NodeAt(n, 0))
	r := Gen(ctx, ast.NodeAt(n, 1))

	kind, lc, rc := value.Reconcile(l, r, ctx)
	ops := relOps[tag]

	if kind == value.I32 {
		return value.New(value.I32, fmt.Sprintf("(%s %s %s)", ops.i32, lc, rc))
	}

	return value.New(value.I32, fmt.Sprintf("(%s %s %s)", ops.f64, lc, rc))
}

// genEquality implements "==", "!=", "===", "!==". Mixed pointer/number
// equality always uses the bitwise f64_eq primitive rather than an IEEE
// compare, since IEEE equality considers distinct NaN bit patterns
// (every pointer is a NaN) unequal to themselves; strict and loose
// equality coincide in jzc, since there is no implicit type coercion
// between kinds, only the numeric i32/f64 reconciliation arithmetic
// already performs.
func genEquality(ctx *context.Context, n ast.Node, _ bool, negate bool) value.Tagged {
	l := Gen(ctx, ast.NodeAt(n, 0))
	r := Gen(ctx, ast.NodeAt(n, 1))

	kind, lc, rc := value.Reconcile(l, r, ctx)

	var code string
	if kind == value.I32 {
		code = fmt.Sprintf("(i32.eq %s %s)", lc, rc)
	} else {
		ctx.Use("f64_eq")
		code = fmt.Sprintf("(call $f64_eq %s %s)", lc, rc)
	}

	if negate {
		code = fmt.Sprintf("(i32.eqz %s)", code)
	}

	return value.New(value.I32, code)
}

// genLogicalAnd/genLogicalOr emit a typed if/then/else after reconciling
// both operands to a common kind (i32 only if both are i32, f64
// otherwise), short-circuiting the right operand's side effects when the
// left already decides the result.
func genLogicalAnd(ctx *context.Context, n ast.Node) value.Tagged {
	return genShortCircuit(ctx, n, false)
}

func genLogicalOr(ctx *context.Context, n ast.Node) value.Tagged {
	return genShortCircuit(ctx, n, true)
}

func genShortCircuit(ctx *context.Context, n ast.Node, isOr bool) value.Tagged {
	l := Gen(ctx, ast.NodeAt(n, 0))
	tmp := ctx.NewTemp(l.Kind)
	ltee := fmt.Sprintf("(local.tee $%s %s)", tmp.MangledName, l.Code)
	lget := fmt.Sprintf("(local.get $%s)", tmp.MangledName)

	test := value.Truthy(value.New(l.Kind, ltee), ctx)

	r := Gen(ctx, ast.NodeAt(n, 1))
	kind, rc := widenTo(r, commonKind(l.Kind, r.Kind), ctx)
	lval := widenCode(lget, l.Kind, kind, ctx)

	wasmKind := wasmResultType(kind)
	var thenCode, elseCode string
	if isOr {
		thenCode, elseCode = lval, rc
	} else {
		thenCode, elseCode = rc, lval
	}

	return value.New(kind, fmt.Sprintf("(if (result %s) %s (then %s) (else %s))", wasmKind, test, thenCode, elseCode))
}

// genNullish reduces `a ?? b` at compile time when the left side is
// statically Ref (always null/undefined, so the result is always b) or
// never Ref (any other static kind never compares equal to the null
// sentinel under jzc's representation, so the result is always a);
// otherwise it falls back to a runtime zero-pointer test.
func genNullish(ctx *context.Context, n ast.Node) value.Tagged {
	l := Gen(ctx, ast.NodeAt(n, 0))

	if l.Kind == value.Ref {
		return Gen(ctx, ast.NodeAt(n, 1))
	}

	if !l.Kind.IsPointer() && l.Kind != value.F64 {
		return l
	}

	tmp := ctx.NewTemp(l.Kind)
	ltee := fmt.Sprintf("(local.tee $%s %s)", tmp.MangledName, l.Code)
	lget := fmt.Sprintf("(local.get $%s)", tmp.MangledName)

	r := Gen(ctx, ast.NodeAt(n, 1))
	kind, rc := widenTo(r, l.Kind, ctx)
	lval := widenCode(lget, l.Kind, kind, ctx)

	ctx.Use("f64_eq")
	cond := fmt.Sprintf("(call $f64_eq %s (f64.const 0))", ltee)

	return value.New(kind, fmt.Sprintf("(if (result %s) %s (then %s) (else %s))", wasmResultType(kind), cond, rc, lval))
}

func genTernary(ctx *context.Context, n ast.Node) value.Tagged {
	cond := Gen(ctx, ast.NodeAt(n, 0))
	test := value.Truthy(cond, ctx)

	t := Gen(ctx, ast.NodeAt(n, 1))
	e := Gen(ctx, ast.NodeAt(n, 2))

	kind, tc := widenTo(t, commonKind(t.Kind, e.Kind), ctx)
	_, ec := widenTo(e, kind, ctx)

	return value.New(kind, fmt.Sprintf("(if (result %s) %s (then %s) (else %s))", wasmResultType(kind), test, tc, ec))
}

func genNot(ctx *context.Context, n ast.Node) value.Tagged {
	v := Gen(ctx, ast.NodeAt(n, 0))
	return value.New(value.I32, fmt.Sprintf("(i32.eqz %s)", value.Truthy(v, ctx)))
}

func genBitNot(ctx *context.Context, n ast.Node) value.Tagged {
	v := Gen(ctx, ast.NodeAt(n, 0))
	return value.New(value.I32, fmt.Sprintf("(i32.xor %s (i32.const -1))", value.ToI32(v, ctx)))
}

func genUnaryMinus(ctx *context.Context, n ast.Node) value.Tagged {
	v := Gen(ctx, ast.NodeAt(n, 0))
	if v.Kind == value.I32 {
		return value.New(value.I32, fmt.Sprintf("(i32.sub (i32.const 0) %s)", v.Code))
	}

	return value.New(value.F64, fmt.Sprintf("(f64.neg %s)", value.ToF64(v, ctx)))
}

func genUnaryPlus(ctx *context.Context, n ast.Node) value.Tagged {
	v := Gen(ctx, ast.NodeAt(n, 0))
	return value.New(value.F64, value.ToF64(v, ctx))
}

// genTypeof lowers `typeof x` to a string built from a constant-time tag
// comparison. Any static kind other than F64 decides the answer
// outright. A value of static kind F64 may be a number or a NaN-boxed
// pointer at runtime (every declared variable is stored with kind F64),
// so for it the generated code tests is_pointer and then the pointer's
// type tag.
func genTypeof(ctx *context.Context, n ast.Node) value.Tagged {
	v := Gen(ctx, ast.NodeAt(n, 0))

	if v.Kind == value.F64 {
		ctx.Use("is_pointer")
		ctx.Use("ptr_type")
		tmp := ctx.NewTemp(value.F64)
		get := fmt.Sprintf("(local.get $%s)", tmp.MangledName)
		ptrName := fmt.Sprintf("(if (result f64) (i32.eq (call $ptr_type %s) (i32.const 1)) (then %s) (else (if (result f64) (i32.eq (call $ptr_type %s) (i32.const 3)) (then %s) (else %s))))",
			get, genStringLiteral(ctx, "string").Code, get, genStringLiteral(ctx, "function").Code, genStringLiteral(ctx, "object").Code)
		return value.New(value.String, fmt.Sprintf("(if (result f64) (call $is_pointer (local.tee $%s %s)) (then %s) (else %s))",
			tmp.MangledName, v.Code, ptrName, genStringLiteral(ctx, "number").Code))
	}

	var name string
	switch v.Kind {
	case value.F64, value.I32:
		name = "number"
	case value.Ref:
		name = "undefined"
	case value.String:
		name = "string"
	case value.Closure:
		name = "function"
	default:
		name = "object"
	}

	return genStringLiteral(ctx, name)
}

func genVoid(ctx *context.Context, n ast.Node) value.Tagged {
	v := Gen(ctx, ast.NodeAt(n, 0))
	return value.New(value.Ref, fmt.Sprintf("(block (result f64) %s (f64.const 0))", dropped(v)))
}

// wasmResultType returns the WASM value type backing a Kind: i32 for I32,
// f64 for everything else (every pointer kind and Ref share the f64
// runtime representation).
func wasmResultType(k value.Kind) string {
	if k == value.I32 {
		return "i32"
	}

	return "f64"
}

// commonKind picks the kind two branches of a conditional should widen
// to: i32 only if both already are, f64 otherwise.
func commonKind(a, b value.Kind) value.Kind {
	if a == value.I32 && b == value.I32 {
		return value.I32
	}

	return value.F64
}

// widenTo coerces v's code to target kind k ("i32" or "f64" result
// shape), returning the (possibly unchanged) kind and code.
func widenTo(v value.Tagged, k value.Kind, feat value.Features) (value.Kind, string) {
	if k == value.I32 {
		return value.I32, value.ToI32(v, feat)
	}

	return value.F64, value.ToF64(v, feat)
}

func widenCode(code string, from, to value.Kind, feat value.Features) string {
	_, c := widenTo(value.New(from, code), to, feat)
	return c
}
