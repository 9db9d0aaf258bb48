package generator

import (
	"fmt"
	"math"
	"strings"

	"github.com/jz-lang/jzc/pkg/ast"
	"github.com/jz-lang/jzc/pkg/compiler/context"
	"github.com/jz-lang/jzc/pkg/compiler/diag"
	"github.com/jz-lang/jzc/pkg/memory"
	"github.com/jz-lang/jzc/pkg/value"
)

func init() {
	addExpr("[]", genArrayLiteral)
	addExpr("{}", genObjectLiteral)
	addExpr("index", genIndex)
	addExpr(".", genMember)
	addExpr("?.", genOptionalMember)
}

// genArrayLiteral lowers an array literal: a fully compile-time-constant
// literal (every element itself a literal, no spreads) is laid out in a
// data segment and referenced by a static pointer; a literal containing
// a spread element is built by repeated arr_push; any other dynamic
// literal pre-allocates the exact element count and stores directly.
func genArrayLiteral(ctx *context.Context, n ast.Node) value.Tagged {
	elems := ast.Nodes(n, 0)

	if v, ok := tryConstArray(ctx, elems); ok {
		return v
	}

	for _, el := range elems {
		if tag, ok := ast.Tag(el); ok && tag == "..." {
			return genSpreadArray(ctx, elems)
		}
	}

	return genDynamicArray(ctx, elems)
}

func tryConstArray(ctx *context.Context, elems []ast.Node) (value.Tagged, bool) {
	if len(elems) == 0 {
		return value.Tagged{}, false
	}

	floats := make([]float64, 0, len(elems))
	kinds := make([]value.Kind, 0, len(elems))

	for _, el := range elems {
		if _, ok := ast.Tag(el); ok {
			return value.Tagged{}, false
		}

		lit, ok := ast.IsLiteral(el)
		if !ok {
			return value.Tagged{}, false
		}

		f, k, ok := literalConst(ctx, lit)
		if !ok {
			return value.Tagged{}, false
		}

		floats = append(floats, f)
		kinds = append(kinds, k)
	}

	arr := ctx.AllocStaticArray(floats)
	bits := memory.MkPtr(memory.PtrArray, 0, arr.Offset)

	kind := value.Array
	schema := value.Schema{Immutable: true}
	if !allSameKind(kinds) {
		kind = value.RefArray
		schema.ElementKinds = kinds
	}

	return value.New(kind, constBits(bits)).WithSchema(schema), true
}

// literalConst reduces a literal payload to its runtime f64 bit pattern
// and static kind, interning string literals immediately so their
// pointer constant is known; ok is false for any payload that is not
// const-foldable (there is currently none, but the signature leaves room
// for a future literal kind that isn't).
func literalConst(ctx *context.Context, lit any) (f float64, k value.Kind, ok bool) {
	switch v := lit.(type) {
	case float64:
		return v, value.F64, true
	case bool:
		if v {
			return 1, value.I32, true
		}
		return 0, value.I32, true
	case nil:
		return 0, value.Ref, true
	case string:
		e := ctx.InternString(v)
		bits := memory.MkPtr(memory.PtrString, uint32(e.Length), e.Offset)
		return math.Float64frombits(bits), value.String, true
	default:
		return 0, 0, false
	}
}

func allSameKind(ks []value.Kind) bool {
	for i := 1; i < len(ks); i++ {
		if ks[i] != ks[0] {
			return false
		}
	}

	return true
}

// genDynamicArray handles a literal with no spread elements: the final
// length is known at generation time, so it preallocates exactly that
// many slots and stores each element directly rather than growing
// incrementally.
func genDynamicArray(ctx *context.Context, elems []ast.Node) value.Tagged {
	tmp := ctx.NewTemp(value.Array)
	ctx.Use("alloc")
	ctx.Use("arr_set")

	var b strings.Builder
	fmt.Fprintf(&b, "(local.set $%s (call $alloc (i32.const 0) (i32.const %d)))", tmp.MangledName, len(elems))

	kinds := make([]value.Kind, len(elems))
	for i, el := range elems {
		v := Gen(ctx, el)
		kinds[i] = v.Kind
		fmt.Fprintf(&b, " (call $arr_set (local.get $%s) (i32.const %d) %s)", tmp.MangledName, i, value.ToF64(v, ctx))
	}

	code := fmt.Sprintf("(block (result f64) %s (local.get $%s))", b.String(), tmp.MangledName)

	kind := value.Array
	var schema value.Schema
	if len(kinds) > 0 && !allSameKind(kinds) {
		kind = value.RefArray
		schema.ElementKinds = kinds
	}

	return value.New(kind, code).WithSchema(schema)
}

// genSpreadArray builds a literal containing one or more spread elements
// by starting from an empty growable array and pushing each plain
// element, or each element of a spread operand, in source order.
func genSpreadArray(ctx *context.Context, elems []ast.Node) value.Tagged {
	tmp := ctx.NewTemp(value.Array)
	ctx.Use("alloc")
	ctx.Use("arr_push")

	var b strings.Builder
	fmt.Fprintf(&b, "(local.set $%s (call $alloc (i32.const 0) (i32.const 0)))", tmp.MangledName)

	for _, el := range elems {
		if tag, ok := ast.Tag(el); ok && tag == "..." {
			src := Gen(ctx, ast.NodeAt(el, 0))
			srcTmp := ctx.NewTemp(src.Kind)
			idx := ctx.NewTemp(value.I32)
			label := ctx.Fresh("spread")
			ctx.Use("ptr_len")
			ctx.Use("arr_get")

			fmt.Fprintf(&b, " (local.set $%s %s)", srcTmp.MangledName, src.Code)
			fmt.Fprintf(&b, " (local.set $%s (i32.const 0))", idx.MangledName)
			fmt.Fprintf(&b, ` (block $done%s (loop $each%s
  (br_if $done%s (i32.ge_u (local.get $%s) (i32.trunc_f64_u (call $ptr_len (local.get $%s)))))
  (local.set $%s (call $arr_push (local.get $%s) (call $arr_get (local.get $%s) (local.get $%s))))
  (local.set $%s (i32.add (local.get $%s) (i32.const 1)))
  (br $each%s)))`,
				label, label, label, idx.MangledName, srcTmp.MangledName,
				tmp.MangledName, tmp.MangledName, srcTmp.MangledName, idx.MangledName,
				idx.MangledName, idx.MangledName, label)
			continue
		}

		v := Gen(ctx, el)
		fmt.Fprintf(&b, " (local.set $%s (call $arr_push (local.get $%s) %s))", tmp.MangledName, tmp.MangledName, value.ToF64(v, ctx))
	}

	code := fmt.Sprintf("(block (result f64) %s (local.get $%s))", b.String(), tmp.MangledName)
	return value.New(value.Array, code)
}

// genObjectLiteral lowers an object literal to an allocation of a
// fixed-schema property array: the property name list is registered in
// the schema registry (reusing an existing schema with the identical
// property list) so `.prop` can later compile to a constant-indexed
// load. An empty object literal is the f64 zero sentinel, matching every
// other falsy/empty representation.
func genObjectLiteral(ctx *context.Context, n ast.Node) value.Tagged {
	props := ast.Nodes(n, 0)

	var names []string
	var vals []ast.Node

	var collect func(p ast.Node)
	collect = func(p ast.Node) {
		if name, ok := ast.Ident(p); ok {
			names = append(names, name)
			vals = append(vals, p)
			return
		}

		tag, ok := ast.Tag(p)
		if !ok {
			return
		}

		switch tag {
		case ":":
			names = append(names, propKeyName(ast.NodeAt(p, 0)))
			vals = append(vals, ast.NodeAt(p, 1))
		case "...":
			src := ast.NodeAt(p, 0)
			srcTag, ok := ast.Tag(src)
			if !ok || srcTag != "{}" {
				panic(diag.Errorf(diag.CodeTypeError, "object spread requires a literal object operand"))
			}
			for _, inner := range ast.Nodes(src, 0) {
				collect(inner)
			}
		default:
			panic(diag.Errorf(diag.CodeTypeError, "unrecognised object literal property shape %q", tag))
		}
	}

	for _, p := range props {
		collect(p)
	}

	if len(names) == 0 {
		return value.New(value.F64, "(f64.const 0)")
	}

	schemaID := ctx.NewObjectSchema(names)
	tmp := ctx.NewTemp(value.Object)
	ctx.Use("alloc")
	ctx.Use("ptr_with_id")
	ctx.Use("arr_set")

	var b strings.Builder
	fmt.Fprintf(&b, "(local.set $%s (call $ptr_with_id (call $alloc (i32.const %d) (i32.const %d)) (i32.const %d)))",
		tmp.MangledName, int(memory.PtrObject), len(names), schemaID)

	for i, vn := range vals {
		v := Gen(ctx, vn)
		fmt.Fprintf(&b, " (call $arr_set (local.get $%s) (i32.const %d) %s)", tmp.MangledName, i, value.ToF64(v, ctx))
	}

	code := fmt.Sprintf("(block (result f64) %s (local.get $%s))", b.String(), tmp.MangledName)
	return value.New(value.Object, code).WithSchema(value.Schema{SchemaID: schemaID})
}

func propKeyName(keyNode ast.Node) string {
	if name, ok := ast.Ident(keyNode); ok {
		return name
	}

	if lit, ok := ast.IsLiteral(keyNode); ok {
		if s, ok := ast.String(lit); ok {
			return s
		}
	}

	panic(diag.Errorf(diag.CodeTypeError, "object literal key must be an identifier or string literal"))
}

// genMember lowers a plain `.prop` access.
func genMember(ctx *context.Context, n ast.Node) value.Tagged {
	obj := Gen(ctx, ast.NodeAt(n, 0))
	prop, _ := ast.Ident(ast.NodeAt(n, 1))

	return memberAccess(ctx, obj, prop)
}

// genOptionalMember lowers `?.prop`, short-circuiting to the zero
// sentinel when the receiver is itself a zero pointer (null/undefined).
func genOptionalMember(ctx *context.Context, n ast.Node) value.Tagged {
	obj := Gen(ctx, ast.NodeAt(n, 0))
	prop, _ := ast.Ident(ast.NodeAt(n, 1))

	tmp := ctx.NewTemp(obj.Kind)
	objGet := value.New(obj.Kind, fmt.Sprintf("(local.get $%s)", tmp.MangledName))
	inner := memberAccess(ctx, objGet, prop)

	ctx.Use("f64_eq")
	cond := fmt.Sprintf("(call $f64_eq (local.tee $%s %s) (f64.const 0))", tmp.MangledName, obj.Code)

	return value.New(inner.Kind, fmt.Sprintf("(if (result %s) %s (then (f64.const 0)) (else %s))",
		wasmResultType(inner.Kind), cond, inner.Code))
}

// memberAccess dispatches `.length` by receiver kind and otherwise
// resolves prop against an Object receiver's registered schema.
func memberAccess(ctx *context.Context, obj value.Tagged, prop string) value.Tagged {
	if prop == "length" {
		switch obj.Kind {
		case value.Array, value.RefArray:
			ctx.Use("ptr_len")
			return value.New(value.F64, fmt.Sprintf("(call $ptr_len %s)", obj.Code))
		case value.String:
			ctx.Use("str_len")
			return value.New(value.F64, fmt.Sprintf("(f64.convert_i32_u (call $str_len %s))", obj.Code))
		case value.TypedArray:
			ctx.Use("typed_len")
			return value.New(value.F64, fmt.Sprintf("(f64.convert_i32_u (call $typed_len %s))", obj.Code))
		}
	}

	if obj.Kind == value.Object {
		if props, ok := ctx.SchemaProperties(obj.Schema.SchemaID); ok {
			for i, name := range props {
				if name == prop {
					ctx.Use("arr_get")
					return value.New(value.F64, fmt.Sprintf("(call $arr_get %s (i32.const %d))", obj.Code, i))
				}
			}
		}
	}

	panic(diag.Errorf(diag.CodeUnknownID, "unknown property %q on %s", prop, obj.Kind))
}

// genIndex lowers `obj[idx]`.
func genIndex(ctx *context.Context, n ast.Node) value.Tagged {
	obj := Gen(ctx, ast.NodeAt(n, 0))
	idxNode := ast.NodeAt(n, 1)
	idx := Gen(ctx, idxNode)
	i32idx := value.ToI32(idx, ctx)

	switch obj.Kind {
	case value.Array, value.RefArray:
		ctx.Use("arr_get")
		return value.New(elementKindAt(obj, idxNode), fmt.Sprintf("(call $arr_get %s %s)", obj.Code, i32idx))
	case value.TypedArray:
		prim := "typed_get_" + obj.Schema.ElemType
		ctx.Use(prim)
		return value.New(value.F64, fmt.Sprintf("(call $%s %s %s)", prim, obj.Code, i32idx))
	default:
		panic(diag.Errorf(diag.CodeTypeError, "cannot index a value of kind %s", obj.Kind))
	}
}

// elementKindAt returns the recorded static kind of a RefArray's element
// at a compile-time-constant literal index; F64 for a homogeneous array
// or a dynamically computed index, since the true kind cannot be known
// in either case.
func elementKindAt(arr value.Tagged, idxNode ast.Node) value.Kind {
	if arr.Kind != value.RefArray {
		return value.F64
	}

	lit, ok := ast.IsLiteral(idxNode)
	if !ok {
		return value.F64
	}

	f, ok := ast.Number(lit)
	if !ok {
		return value.F64
	}

	i := int(f)
	if i >= 0 && i < len(arr.Schema.ElementKinds) {
		return arr.Schema.ElementKinds[i]
	}

	return value.F64
}
